package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/delivery"
	"github.com/geocoder89/taskhub/internal/domain/job"
	"github.com/geocoder89/taskhub/internal/jobs"
	"github.com/geocoder89/taskhub/internal/notifications"
)

// errPermanent marks failures that a retry cannot fix.
var errPermanent = errors.New("permanent job failure")

// ProcessOne claims and executes at most one job. It reports whether a job
// was claimed.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)

	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}

		return false, err
	}

	w.metrics.Claimed(j.Type)
	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	start := time.Now()

	execCtx, cancelExec := context.WithTimeout(ctx, w.cfg.JobTimeout)
	err = w.execute(execCtx, j)
	cancelExec()

	if err != nil {
		result := w.handleFailure(ctx, j, err)
		w.observe(j, result, time.Since(start))
		return true, nil
	}

	err = w.repo.MarkDone(ctx, j.ID)

	if err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		w.observe(j, "failed", time.Since(start))
		return true, err
	}

	w.observe(j, "done", time.Since(start))
	w.log.Info("job done", "job_id", j.ID, "job_type", j.Type, "attempt", j.Attempts+1)

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	payload, err := jobs.DecodePayload(j)
	if err != nil {
		return fmt.Errorf("%w: %v", errPermanent, err)
	}

	if err := jobs.ValidatePayload(jobs.JobType(j.Type), payload); err != nil {
		return fmt.Errorf("%w: %v", errPermanent, err)
	}

	var msg notifications.Message

	switch p := payload.(type) {
	case jobs.WelcomeEmailPayload:
		msg = notifications.WelcomeMessage(p.Name, p.Email)
	case jobs.PasswordResetEmailPayload:
		if !p.ExpiresAt.IsZero() && time.Now().After(p.ExpiresAt) {
			// the link is dead; sending it would only confuse the user
			w.log.Warn("skipping expired reset email", "job_id", j.ID, "user_id", p.UserID)
			return nil
		}
		msg = notifications.PasswordResetMessage(p.Name, p.Email, p.ResetURL, p.ExpiresAt)
	default:
		return fmt.Errorf("%w: unhandled payload %T", errPermanent, payload)
	}

	return w.send(ctx, j, msg)
}

func (w *Worker) send(ctx context.Context, j job.Job, msg notifications.Message) error {
	if w.ledger != nil {
		if err := w.ledger.TryStart(ctx, j.ID, j.Type, msg.ToEmail); err != nil {
			if errors.Is(err, delivery.ErrAlreadySent) {
				return nil
			}
			return err
		}
	}

	id, err := w.notifier.Send(ctx, msg)

	if w.ledger != nil {
		if err != nil {
			if lerr := w.ledger.MarkFailed(ctx, j.ID, err.Error()); lerr != nil {
				w.log.Warn("delivery mark failed", "job_id", j.ID, "err", lerr)
			}
		} else {
			var providerID *string
			if id != "" {
				providerID = &id
			}
			if lerr := w.ledger.MarkSent(ctx, j.ID, providerID); lerr != nil {
				w.log.Warn("delivery mark sent", "job_id", j.ID, "err", lerr)
			}
		}
	}

	return err
}

// handleFailure reschedules with backoff while attempts remain, otherwise
// marks the job failed. It returns the metric result label.
func (w *Worker) handleFailure(ctx context.Context, j job.Job, cause error) string {
	attempt := j.Attempts + 1

	if errors.Is(cause, errPermanent) || attempt >= j.MaxAttempts {
		if err := w.repo.MarkFailed(ctx, j.ID, cause.Error()); err != nil {
			w.log.Error("mark job failed", "job_id", j.ID, "err", err)
		}
		w.log.Error("job failed", "job_id", j.ID, "job_type", j.Type, "attempt", attempt, "err", cause)
		return "failed"
	}

	delay := ExponentialBackoff(j.Attempts)
	if err := w.repo.Reschedule(ctx, j.ID, time.Now().UTC().Add(delay), cause.Error()); err != nil {
		w.log.Error("reschedule job", "job_id", j.ID, "err", err)
	}
	w.log.Warn("job retry scheduled", "job_id", j.ID, "job_type", j.Type, "attempt", attempt, "delay", delay.String(), "err", cause)
	return "retry"
}

func (w *Worker) observe(j job.Job, result string, d time.Duration) {
	w.metrics.Finished(j.Type, result, d)
	if w.prom != nil {
		w.prom.ObserveJob(j.Type, result, d)
	}
}
