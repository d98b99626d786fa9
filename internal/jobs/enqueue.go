package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/job"
	"github.com/geocoder89/taskhub/internal/domain/user"
)

type JobsCreator interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

// Enqueuer turns mail requests into rows of the jobs table; the worker sends them.
type Enqueuer struct {
	repo        JobsCreator
	maxAttempts int
}

func NewEnqueuer(repo JobsCreator) *Enqueuer {
	return &Enqueuer{repo: repo, maxAttempts: 8}
}

func (e *Enqueuer) EnqueueWelcome(ctx context.Context, u user.User) error {
	key := "email:welcome:" + u.ID

	return e.enqueue(ctx, JobWelcomeEmail, WelcomeEmailPayload{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
	}, key)
}

func (e *Enqueuer) EnqueuePasswordReset(ctx context.Context, u user.User, resetURL string, expiresAt time.Time) error {
	// one job per issued token
	suffix := ""
	if u.ResetTokenHash != nil && len(*u.ResetTokenHash) >= 16 {
		suffix = (*u.ResetTokenHash)[:16]
	}
	key := "email:reset:" + u.ID + ":" + suffix

	return e.enqueue(ctx, JobPasswordResetEmail, PasswordResetEmailPayload{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		ResetURL:  resetURL,
		ExpiresAt: expiresAt,
	}, key)
}

func (e *Enqueuer) enqueue(ctx context.Context, t JobType, payload any, key string) error {
	if err := ValidatePayload(t, payload); err != nil {
		return err
	}

	raw, err := EncodePayload(t, payload)
	if err != nil {
		return err
	}

	_, err = e.repo.Create(ctx, job.CreateRequest{
		Type:           string(t),
		Payload:        raw,
		RunAt:          time.Now().UTC(),
		MaxAttempts:    e.maxAttempts,
		IdempotencyKey: &key,
	})

	if err != nil {
		if errors.Is(err, job.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("enqueue %s: %w", t, err)
	}

	return nil
}
