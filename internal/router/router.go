package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"deckly-backend/internal/handlers"
	"deckly-backend/internal/middleware"
	"deckly-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	flashcardHandler *handlers.FlashcardHandler,
	quizHandler *handlers.QuizHandler,
	progressHandler *handlers.StudyProgressHandler,
	dashboardHandler *handlers.DashboardHandler,
	libraryHandler *handlers.LibraryHandler,
	userHandler *handlers.UserHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Get("/verify-email", authHandler.VerifyEmail)
			r.Post("/resend-verification", authHandler.ResendVerification)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Flashcard Routes ────
		r.Route("/flashcards", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/suggest", flashcardHandler.Suggest)

			r.Route("/sets", func(r chi.Router) {
				r.Post("/", flashcardHandler.CreateSet)
				r.Get("/", flashcardHandler.ListSets)
				r.Get("/{id}", flashcardHandler.GetSet)
				r.Put("/{id}", flashcardHandler.UpdateSet)
				r.Put("/{id}/favorite", flashcardHandler.ToggleFavorite)
				r.Delete("/{id}", flashcardHandler.DeleteSet)
			})
		})

		// ──── Study Progress Routes ────
		r.Route("/study-progress", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{setId}", progressHandler.Get)
			r.Post("/{setId}", progressHandler.Save)
			r.Delete("/{setId}", progressHandler.Reset)
		})

		// ──── Quiz Routes ────
		r.Route("/quizzes", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", quizHandler.Create)
			r.Get("/", quizHandler.List)
			r.Get("/{id}", quizHandler.Get)
			r.Put("/{id}/favorite", quizHandler.ToggleFavorite)
			r.Delete("/{id}", quizHandler.Delete)
			r.Post("/{id}/start", quizHandler.StartAttempt)
		})

		r.Route("/quiz-attempts", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/{id}/answer", quizHandler.SaveAnswer)
			r.Post("/{id}/submit", quizHandler.Submit)
			r.Get("/{id}", quizHandler.GetAttempt)
		})

		// ──── Dashboard Routes ────
		r.Route("/dashboard", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/stats", dashboardHandler.Stats)
			r.Get("/recent", dashboardHandler.Recent)
			r.Get("/streak", dashboardHandler.Streak)
			r.Get("/activity", dashboardHandler.Activity)
		})

		// ──── Library Routes ────
		r.Route("/library", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", libraryHandler.List)
		})

		// ──── User & Settings Routes ────
		r.Route("/user", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", userHandler.GetMe)
			r.Put("/me", userHandler.UpdateMe)
			r.Put("/password", userHandler.ChangePassword)
			r.Delete("/me", userHandler.DeleteMe)
			r.Put("/plan", userHandler.UpdatePlan)
			r.Get("/settings", userHandler.GetSettings)
			r.Put("/settings", userHandler.UpdateSettings)
			r.Put("/notifications", userHandler.SetNotification)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
