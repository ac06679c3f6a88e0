package services

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"deckly-backend/internal/repository"
)

const (
	weeklyDigestLastSentKey  = "weekly_digest_last_sent_at"
	studyReminderLastSentKey = "study_reminders_last_sent_at"
	weeklyDigestInterval     = 7 * 24 * time.Hour
	studyReminderInterval    = 72 * time.Hour
	reminderPollInterval     = 1 * time.Hour
)

// ReminderScheduler nudges inactive users and sends weekly digests. Inactivity
// is judged from the activity feed: a user with no logged activity for the
// reminder interval gets an email, queued through the worker pool.
type ReminderScheduler struct {
	userRepo     *repository.UserRepo
	activityRepo *repository.ActivityRepo
	redis        *redis.Client
	stopChan     chan struct{}
}

func NewReminderScheduler(userRepo *repository.UserRepo, activityRepo *repository.ActivityRepo, redisClient *redis.Client) *ReminderScheduler {
	return &ReminderScheduler{
		userRepo:     userRepo,
		activityRepo: activityRepo,
		redis:        redisClient,
		stopChan:     make(chan struct{}),
	}
}

func (s *ReminderScheduler) Start() {
	if s.userRepo == nil || s.activityRepo == nil {
		return
	}

	go s.loop(func(ctx context.Context, now time.Time) {
		s.sendWeeklyDigests(ctx, now)
	})
	go s.loop(func(ctx context.Context, now time.Time) {
		s.sendStudyReminders(ctx, now)
	})

	log.Printf("Reminder scheduler started")
}

func (s *ReminderScheduler) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *ReminderScheduler) loop(runFn func(ctx context.Context, now time.Time)) {
	// Run on startup as well as by interval.
	runFn(context.Background(), time.Now().UTC())

	ticker := time.NewTicker(reminderPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			runFn(context.Background(), time.Now().UTC())
		}
	}
}

func (s *ReminderScheduler) sendWeeklyDigests(ctx context.Context, now time.Time) {
	recipients, err := s.userRepo.ListUsersWithNotificationEnabled(ctx, "weekly_digest", weeklyDigestLastSentKey)
	if err != nil {
		log.Printf("weekly digest: failed to list recipients: %v", err)
		return
	}

	for _, recipient := range recipients {
		if !shouldSendByLastSent(recipient.LastSentAtRaw, weeklyDigestInterval, now) {
			continue
		}

		sets, quizzes, cardsStudied, statsErr := s.userRepo.GetWeeklyStudyStats(ctx, recipient.ID)
		if statsErr != nil {
			log.Printf("weekly digest: failed to load stats for user %s: %v", recipient.ID, statsErr)
			continue
		}

		// Nothing happened, nothing to say.
		if sets == 0 && quizzes == 0 && cardsStudied == 0 {
			continue
		}

		s.enqueue(ctx, map[string]string{
			"type":          "weekly_digest",
			"to":            recipient.Email,
			"full_name":     recipient.FullName,
			"sets":          strconv.Itoa(sets),
			"quizzes":       strconv.Itoa(quizzes),
			"cards_studied": strconv.Itoa(cardsStudied),
		})

		if err := s.userRepo.SetNotificationTimestamp(ctx, recipient.ID, weeklyDigestLastSentKey, now); err != nil {
			log.Printf("weekly digest: failed to persist last sent at for user %s: %v", recipient.ID, err)
		}
	}
}

func (s *ReminderScheduler) sendStudyReminders(ctx context.Context, now time.Time) {
	recipients, err := s.userRepo.ListUsersWithNotificationEnabled(ctx, "study_reminders", studyReminderLastSentKey)
	if err != nil {
		log.Printf("study reminders: failed to list recipients: %v", err)
		return
	}

	for _, recipient := range recipients {
		if !shouldSendByLastSent(recipient.LastSentAtRaw, studyReminderInterval, now) {
			continue
		}

		lastActivityAt, activityErr := s.activityRepo.LatestAt(ctx, recipient.ID)
		if activityErr != nil {
			log.Printf("study reminders: failed to load latest activity for user %s: %v", recipient.ID, activityErr)
			continue
		}

		referenceTime := reminderReferenceTime(lastActivityAt, recipient.CreatedAt)
		if now.Sub(referenceTime) < studyReminderInterval {
			continue
		}

		s.enqueue(ctx, map[string]string{
			"type":      "study_reminder",
			"to":        recipient.Email,
			"full_name": recipient.FullName,
		})

		if err := s.userRepo.SetNotificationTimestamp(ctx, recipient.ID, studyReminderLastSentKey, now); err != nil {
			log.Printf("study reminders: failed to persist last sent at for user %s: %v", recipient.ID, err)
		}
	}
}

func (s *ReminderScheduler) enqueue(ctx context.Context, job map[string]string) {
	payload, err := json.Marshal(job)
	if err != nil {
		return
	}
	if err := s.redis.LPush(ctx, EmailQueueKey, payload).Err(); err != nil {
		log.Printf("reminders: failed to enqueue email job: %v", err)
	}
}

func shouldSendByLastSent(lastSentRaw string, minInterval time.Duration, now time.Time) bool {
	if lastSentRaw == "" {
		return true
	}

	lastSentAt, err := time.Parse(time.RFC3339, lastSentRaw)
	if err != nil {
		return true
	}

	return now.Sub(lastSentAt) >= minInterval
}

func reminderReferenceTime(lastActivityAt *time.Time, createdAt time.Time) time.Time {
	if lastActivityAt != nil && !lastActivityAt.IsZero() {
		return lastActivityAt.UTC()
	}

	return createdAt.UTC()
}
