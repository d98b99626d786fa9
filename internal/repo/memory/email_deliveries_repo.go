package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/delivery"
)

type deliveryRow struct {
	kind              string
	recipient         string
	status            string
	providerMessageID *string
	lastError         *string
	sentAt            *time.Time
}

type EmailDeliveriesRepo struct {
	mu   sync.Mutex
	rows map[string]deliveryRow
}

func NewEmailDeliveriesRepo() *EmailDeliveriesRepo {
	return &EmailDeliveriesRepo{rows: make(map[string]deliveryRow)}
}

func (r *EmailDeliveriesRepo) TryStart(_ context.Context, jobID, kind, recipient string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[jobID]
	switch {
	case !ok || row.status == delivery.StatusFailed:
		r.rows[jobID] = deliveryRow{kind: kind, recipient: recipient, status: delivery.StatusSending}
		return nil
	case row.status == delivery.StatusSent:
		return delivery.ErrAlreadySent
	default:
		return delivery.ErrInProgress
	}
}

func (r *EmailDeliveriesRepo) MarkSent(_ context.Context, jobID string, providerMessageID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := r.rows[jobID]
	now := time.Now().UTC()
	row.status = delivery.StatusSent
	row.sentAt = &now
	row.providerMessageID = providerMessageID
	row.lastError = nil
	r.rows[jobID] = row
	return nil
}

func (r *EmailDeliveriesRepo) MarkFailed(_ context.Context, jobID string, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := r.rows[jobID]
	row.status = delivery.StatusFailed
	row.lastError = &errMsg
	r.rows[jobID] = row
	return nil
}
