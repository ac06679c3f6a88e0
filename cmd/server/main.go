package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deckly-backend/internal/config"
	"deckly-backend/internal/database"
	"deckly-backend/internal/handlers"
	"deckly-backend/internal/middleware"
	"deckly-backend/internal/repository"
	"deckly-backend/internal/router"
	"deckly-backend/internal/services"
	"deckly-backend/internal/websocket"
	"deckly-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Deckly Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	flashcardRepo := repository.NewFlashcardRepo(pool)
	quizRepo := repository.NewQuizRepo(pool)
	progressRepo := repository.NewProgressRepo(pool)
	activityRepo := repository.NewActivityRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL)
	authService := services.NewAuthService(userRepo, redisClients.Main, jwtAuth)

	dedupWindow := time.Duration(cfg.ActivityDedupWindowSeconds) * time.Second
	activityService := services.NewActivityService(activityRepo, redisClients.Main, dedupWindow)

	suggestService, err := services.NewSuggestService(cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer suggestService.Close()
	if suggestService.Enabled() {
		log.Println("✓ Card suggestion service initialized")
	} else {
		log.Println("⚠ Card suggestions disabled (no GEMINI_API_KEY)")
	}

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	flashcardHandler := handlers.NewFlashcardHandler(flashcardRepo, activityService, suggestService)
	quizHandler := handlers.NewQuizHandler(quizRepo, activityService)
	progressHandler := handlers.NewStudyProgressHandler(progressRepo, flashcardRepo, activityService)
	dashboardHandler := handlers.NewDashboardHandler(pool, userRepo, activityRepo)
	libraryHandler := handlers.NewLibraryHandler(pool)
	userHandler := handlers.NewUserHandler(userRepo)

	// ──── Step 5: Start Email Worker Pool ────
	workerPool := worker.NewPool(redisClients.Main, emailService, 3)
	workerPool.Start()

	reminderScheduler := services.NewReminderScheduler(userRepo, activityRepo, redisClients.Main)
	reminderScheduler.Start()

	// ──── Step 6: Initialize WebSocket Hub ────
	// The hub subscribes to redis lazily, per connected user.
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub initialized")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		flashcardHandler,
		quizHandler,
		progressHandler,
		dashboardHandler,
		libraryHandler,
		userHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()
		reminderScheduler.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Deckly Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
