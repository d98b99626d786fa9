package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/delivery"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EmailDeliveriesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewEmailDeliveriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *EmailDeliveriesRepo {
	return &EmailDeliveriesRepo{pool: pool, prom: prom}
}

func (r *EmailDeliveriesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// TryStart claims the delivery of jobID. It returns delivery.ErrAlreadySent
// when the email went out before, and delivery.ErrInProgress when another
// worker holds it.
func (r *EmailDeliveriesRepo) TryStart(ctx context.Context, jobID, kind, recipient string) error {
	// 1) Insert if missing
	err := r.observe("email_deliveries.try_start.insert", func() error {
		_, e := r.pool.Exec(ctx, `
		INSERT INTO email_deliveries (job_id, kind, recipient, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'sending', NOW(), NOW())
	`, jobID, kind, recipient)
		return e
	})

	if err == nil {
		return nil
	}
	if !IsUniqueViolation(err) {
		return err
	}

	// 2) Row exists. Only one worker can flip failed -> sending.
	var affected int64
	err = r.observe("email_deliveries.try_start.reclaim", func() error {
		tag, e := r.pool.Exec(ctx, `
		UPDATE email_deliveries
		SET status = 'sending',
		    recipient = $2,
		    last_error = NULL,
		    updated_at = NOW()
		WHERE job_id = $1 AND status = 'failed'
	`, jobID, recipient)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	// 3) Not failed: either sent or still sending.
	var status string
	var sentAt *time.Time

	err = r.observe("email_deliveries.try_start.status", func() error {
		return r.pool.QueryRow(ctx, `
		SELECT status, sent_at
		FROM email_deliveries
		WHERE job_id = $1
	`, jobID).Scan(&status, &sentAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// row disappeared; let caller retry
			return nil
		}
		return err
	}

	if sentAt != nil || status == delivery.StatusSent {
		return delivery.ErrAlreadySent
	}

	return delivery.ErrInProgress
}

func (r *EmailDeliveriesRepo) MarkSent(ctx context.Context, jobID string, providerMessageID *string) error {
	return r.observe("email_deliveries.mark_sent", func() error {
		_, err := r.pool.Exec(ctx, `
		UPDATE email_deliveries
		SET status = 'sent',
		    sent_at = NOW(),
		    provider_message_id = $2,
		    last_error = NULL,
		    updated_at = NOW()
		WHERE job_id = $1
	`, jobID, providerMessageID)
		return err
	})
}

func (r *EmailDeliveriesRepo) MarkFailed(ctx context.Context, jobID string, errMsg string) error {
	return r.observe("email_deliveries.mark_failed", func() error {
		_, err := r.pool.Exec(ctx, `
		UPDATE email_deliveries
		SET status = 'failed',
		    last_error = $2,
		    updated_at = NOW()
		WHERE job_id = $1
	`, jobID, errMsg)
		return err
	})
}
