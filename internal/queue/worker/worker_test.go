package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/job"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/jobs"
	"github.com/geocoder89/taskhub/internal/notifications"
	"github.com/geocoder89/taskhub/internal/repo/memory"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notifications.Message
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, msg notifications.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "msg-1", nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestWorker(repo JobsRepository, n notifications.Notifier) *Worker {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(Config{WorkerID: "test", PollInterval: 10 * time.Millisecond}, repo, n, log)
}

func onlyJob(t *testing.T, repo *memory.JobsRepo) job.Job {
	t.Helper()

	items, _, _, err := repo.ListCursor(context.Background(), nil, 10, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC), "ffffffff-ffff-ffff-ffff-ffffffffffff")
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected exactly one job, got %d", len(items))
	}
	return items[0]
}

func TestProcessOne_NoJobs(t *testing.T) {
	w := newTestWorker(memory.NewJobsRepo(), &fakeNotifier{})

	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if processed {
		t.Fatalf("expected nothing to process")
	}
}

func TestProcessOne_SendsWelcomeEmail(t *testing.T) {
	repo := memory.NewJobsRepo()
	n := &fakeNotifier{}
	w := newTestWorker(repo, n).WithLedger(memory.NewEmailDeliveriesRepo())

	u := user.User{ID: "u1", Email: "ada@example.com", Name: "Ada"}
	if err := jobs.NewEnqueuer(repo).EnqueueWelcome(context.Background(), u); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	processed, err := w.ProcessOne(context.Background())
	if err != nil || !processed {
		t.Fatalf("processed=%v err=%v", processed, err)
	}

	if n.count() != 1 || n.sent[0].ToEmail != "ada@example.com" {
		t.Fatalf("unexpected sends %+v", n.sent)
	}

	j := onlyJob(t, repo)
	if j.Status != job.StatusDone {
		t.Fatalf("expected done, got %s", j.Status)
	}
	if w.Metrics().Snapshot().Done != 1 {
		t.Fatalf("expected done counter to be 1")
	}
}

func createWelcomeJob(t *testing.T, repo *memory.JobsRepo, maxAttempts int) {
	t.Helper()

	raw, err := jobs.EncodePayload(jobs.JobWelcomeEmail, jobs.WelcomeEmailPayload{UserID: "u1", Email: "a@example.com", Name: "A"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := repo.Create(context.Background(), job.CreateRequest{
		Type:        string(jobs.JobWelcomeEmail),
		Payload:     raw,
		RunAt:       time.Now().UTC(),
		MaxAttempts: maxAttempts,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestProcessOne_ReschedulesTransientFailure(t *testing.T) {
	repo := memory.NewJobsRepo()
	w := newTestWorker(repo, &fakeNotifier{err: errors.New("smtp down")})
	createWelcomeJob(t, repo, 3)

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}

	j := onlyJob(t, repo)
	if j.Status != job.StatusPending || j.Attempts != 1 || !j.RunAt.After(time.Now()) {
		t.Fatalf("expected a rescheduled pending job, got %+v", j)
	}
	if j.LastError == nil || *j.LastError != "smtp down" {
		t.Fatalf("expected last error to be recorded, got %v", j.LastError)
	}

	// run_at is in the future, so nothing is claimable yet
	processed, _ := w.ProcessOne(context.Background())
	if processed {
		t.Fatalf("job should not be claimable before run_at")
	}
}

func TestProcessOne_FailsWhenAttemptsExhausted(t *testing.T) {
	repo := memory.NewJobsRepo()
	w := newTestWorker(repo, &fakeNotifier{err: errors.New("smtp down")})
	createWelcomeJob(t, repo, 1)

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}

	if j := onlyJob(t, repo); j.Status != job.StatusFailed {
		t.Fatalf("expected failed, got %s", j.Status)
	}
	if w.Metrics().Snapshot().Failed != 1 {
		t.Fatalf("expected dead-letter counter to be 1")
	}
}

func TestProcessOne_PermanentFailureForBadPayload(t *testing.T) {
	repo := memory.NewJobsRepo()
	n := &fakeNotifier{}
	w := newTestWorker(repo, n)

	if _, err := repo.Create(context.Background(), job.CreateRequest{
		Type:        string(jobs.JobWelcomeEmail),
		Payload:     []byte(`{"userId":""}`),
		RunAt:       time.Now().UTC(),
		MaxAttempts: 5,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}

	j := onlyJob(t, repo)
	if j.Status != job.StatusFailed {
		t.Fatalf("expected failed without retry, got %s (attempts=%d)", j.Status, j.Attempts)
	}
	if n.count() != 0 {
		t.Fatalf("nothing should be sent")
	}
}

func TestProcessOne_SkipsExpiredResetEmail(t *testing.T) {
	repo := memory.NewJobsRepo()
	n := &fakeNotifier{}
	w := newTestWorker(repo, n)

	u := user.User{ID: "u1", Email: "a@example.com", Name: "A"}
	err := jobs.NewEnqueuer(repo).EnqueuePasswordReset(context.Background(), u, "http://app/resetpassword/x", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}

	if n.count() != 0 {
		t.Fatalf("expired reset link should not be mailed")
	}
	if j := onlyJob(t, repo); j.Status != job.StatusDone {
		t.Fatalf("expected done, got %s", j.Status)
	}
}

func TestLedgerPreventsDoubleSend(t *testing.T) {
	repo := memory.NewJobsRepo()
	ledger := memory.NewEmailDeliveriesRepo()
	n := &fakeNotifier{}
	w := newTestWorker(repo, n).WithLedger(ledger)

	j := job.Job{ID: "j1", Type: string(jobs.JobWelcomeEmail)}
	msg := notifications.WelcomeMessage("A", "a@example.com")

	if err := w.send(context.Background(), j, msg); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := w.send(context.Background(), j, msg); err != nil {
		t.Fatalf("second send: %v", err)
	}

	if n.count() != 1 {
		t.Fatalf("expected one delivery, got %d", n.count())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	repo := memory.NewJobsRepo()
	n := &fakeNotifier{}
	w := newTestWorker(repo, n)

	u := user.User{ID: "u1", Email: "a@example.com", Name: "A"}
	if err := jobs.NewEnqueuer(repo).EnqueueWelcome(context.Background(), u); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for n.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("worker did not stop")
	}

	if n.count() != 1 {
		t.Fatalf("expected the queued job to be sent, got %d", n.count())
	}
	if w.isReady() {
		t.Fatalf("worker should report not ready after shutdown")
	}
}

func TestExponentialBackoffGrows(t *testing.T) {
	prev := time.Duration(0)
	for attempt := 0; attempt < 5; attempt++ {
		d := ExponentialBackoff(attempt)
		if d <= 0 {
			t.Fatalf("attempt %d: non-positive delay %s", attempt, d)
		}
		if attempt > 0 && d < prev/2 {
			t.Fatalf("attempt %d: delay %s shrank from %s", attempt, d, prev)
		}
		prev = d
	}
}
