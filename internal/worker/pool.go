package worker

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"deckly-backend/internal/services"
)

// emailJob is the payload producers LPush onto the email queue.
type emailJob struct {
	Type         string `json:"type"` // "verification" | "study_reminder" | "weekly_digest"
	To           string `json:"to"`
	Token        string `json:"token,omitempty"`
	FullName     string `json:"full_name,omitempty"`
	Sets         string `json:"sets,omitempty"`
	Quizzes      string `json:"quizzes,omitempty"`
	CardsStudied string `json:"cards_studied,omitempty"`
}

// Pool drains the redis email queue so request handlers and schedulers never
// block on SMTP.
type Pool struct {
	redis       *redis.Client
	email       *services.EmailService
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, email *services.EmailService, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		email:       email,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}

	log.Printf("Started %d email worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Email worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout so shutdown is noticed
		result, err := p.redis.BLPop(ctx, 30*time.Second, services.EmailQueueKey).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job emailJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Email worker %d: failed to parse job: %v", id, err)
			continue
		}

		if err := p.deliver(job); err != nil {
			log.Printf("Email worker %d: failed to send %s to %s: %v", id, job.Type, job.To, err)
		}
	}
}

func (p *Pool) deliver(job emailJob) error {
	switch job.Type {
	case "verification":
		return p.email.SendVerificationEmail(job.To, job.Token)
	case "study_reminder":
		return p.email.SendStudyReminderEmail(job.To, job.FullName)
	case "weekly_digest":
		sets, _ := strconv.Atoi(job.Sets)
		quizzes, _ := strconv.Atoi(job.Quizzes)
		cardsStudied, _ := strconv.Atoi(job.CardsStudied)
		return p.email.SendWeeklyDigestEmail(job.To, job.FullName, sets, quizzes, cardsStudied)
	default:
		log.Printf("Email worker: unknown job type %q", job.Type)
		return nil
	}
}
