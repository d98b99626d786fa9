package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/job"
	"github.com/geocoder89/taskhub/internal/domain/user"
)

type fakeCreator struct {
	reqs []job.CreateRequest
	keys map[string]bool
	err  error
}

func (f *fakeCreator) Create(_ context.Context, req job.CreateRequest) (job.Job, error) {
	if f.err != nil {
		return job.Job{}, f.err
	}
	if f.keys == nil {
		f.keys = map[string]bool{}
	}
	if req.IdempotencyKey != nil {
		if f.keys[*req.IdempotencyKey] {
			return job.Job{}, job.ErrDuplicate
		}
		f.keys[*req.IdempotencyKey] = true
	}
	f.reqs = append(f.reqs, req)
	return job.New(req), nil
}

func TestEnqueueWelcome_Idempotent(t *testing.T) {
	repo := &fakeCreator{}
	e := NewEnqueuer(repo)
	u := user.User{ID: "u1", Email: "a@example.com", Name: "A"}

	if err := e.EnqueueWelcome(context.Background(), u); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if err := e.EnqueueWelcome(context.Background(), u); err != nil {
		t.Fatalf("duplicate enqueue should be swallowed, got %v", err)
	}

	if len(repo.reqs) != 1 {
		t.Fatalf("expected one job, got %d", len(repo.reqs))
	}

	req := repo.reqs[0]
	if req.Type != string(JobWelcomeEmail) || *req.IdempotencyKey != "email:welcome:u1" || req.MaxAttempts != 8 {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestEnqueuePasswordReset_KeyPerToken(t *testing.T) {
	repo := &fakeCreator{}
	e := NewEnqueuer(repo)

	h1 := "aaaaaaaaaaaaaaaaaaaaaaaa"
	h2 := "bbbbbbbbbbbbbbbbbbbbbbbb"
	u := user.User{ID: "u1", Email: "a@example.com", Name: "A", ResetTokenHash: &h1}
	exp := time.Now().Add(10 * time.Minute)

	if err := e.EnqueuePasswordReset(context.Background(), u, "http://app/resetpassword/x", exp); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	u.ResetTokenHash = &h2
	if err := e.EnqueuePasswordReset(context.Background(), u, "http://app/resetpassword/y", exp); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if len(repo.reqs) != 2 {
		t.Fatalf("a new token should produce a new job, got %d", len(repo.reqs))
	}

	decoded, err := DecodePayload(job.New(repo.reqs[1]))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	p, ok := decoded.(PasswordResetEmailPayload)
	if !ok || p.ResetURL != "http://app/resetpassword/y" {
		t.Fatalf("unexpected payload %#v", decoded)
	}
}

func TestEnqueue_RejectsInvalidPayload(t *testing.T) {
	repo := &fakeCreator{}
	e := NewEnqueuer(repo)

	err := e.EnqueueWelcome(context.Background(), user.User{ID: "u1"})
	if !errors.Is(err, ErrInvalidJobPayload) {
		t.Fatalf("expected ErrInvalidJobPayload, got %v", err)
	}
	if len(repo.reqs) != 0 {
		t.Fatalf("nothing should be stored")
	}
}

func TestEnqueue_WrapsStoreErrors(t *testing.T) {
	boom := errors.New("db down")
	e := NewEnqueuer(&fakeCreator{err: boom})

	err := e.EnqueueWelcome(context.Background(), user.User{ID: "u1", Email: "a@example.com"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
