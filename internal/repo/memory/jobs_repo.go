package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/job"
	"github.com/geocoder89/taskhub/internal/utils"
)

// JobsRepo is the in-process jobs table. Claiming happens under the lock, so
// concurrent workers never receive the same job.
type JobsRepo struct {
	mu    sync.Mutex
	items map[string]job.Job
}

func NewJobsRepo() *JobsRepo {
	return &JobsRepo{items: make(map[string]job.Job)}
}

func (r *JobsRepo) Create(_ context.Context, req job.CreateRequest) (job.Job, error) {
	j := job.New(req)

	r.mu.Lock()
	defer r.mu.Unlock()

	if j.IdempotencyKey != nil {
		for _, existing := range r.items {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *j.IdempotencyKey {
				return job.Job{}, job.ErrDuplicate
			}
		}
	}

	r.items[j.ID] = j
	return j, nil
}

func (r *JobsRepo) ClaimNext(_ context.Context, workerID string) (job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	var next *job.Job

	for _, j := range r.items {
		if j.Status != job.StatusPending || j.RunAt.After(now) || j.Attempts >= j.MaxAttempts {
			continue
		}
		if next == nil || j.RunAt.Before(next.RunAt) ||
			(j.RunAt.Equal(next.RunAt) && j.CreatedAt.Before(next.CreatedAt)) {
			c := j
			next = &c
		}
	}

	if next == nil {
		return job.Job{}, job.ErrJobNotFound
	}

	wid := workerID
	next.Status = job.StatusProcessing
	next.LockedAt = &now
	next.LockedBy = &wid
	next.UpdatedAt = now
	r.items[next.ID] = *next

	return *next, nil
}

func (r *JobsRepo) MarkDone(_ context.Context, id string) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusDone
		j.Attempts++
		j.LastError = nil
		unlock(j)
	})
}

func (r *JobsRepo) MarkFailed(_ context.Context, id string, errMsg string) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusFailed
		j.Attempts++
		j.LastError = &errMsg
		unlock(j)
	})
}

func (r *JobsRepo) Reschedule(_ context.Context, id string, runAt time.Time, errMsg string) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusPending
		j.Attempts++
		j.RunAt = runAt
		j.LastError = &errMsg
		unlock(j)
	})
}

func (r *JobsRepo) RequeueStaleProcessing(_ context.Context, lockTTL time.Duration) (int64, error) {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().UTC().Add(-lockTTL)
	var n int64

	for id, j := range r.items {
		if j.Status == job.StatusProcessing && j.LockedAt != nil && j.LockedAt.Before(cutoff) {
			j.Status = job.StatusPending
			unlock(&j)
			j.UpdatedAt = time.Now().UTC()
			r.items[id] = j
			n++
		}
	}
	return n, nil
}

func (r *JobsRepo) GetByID(_ context.Context, id string) (job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.items[id]
	if !ok {
		return job.Job{}, job.ErrJobNotFound
	}
	return j, nil
}

func (r *JobsRepo) ListCursor(
	_ context.Context,
	status *string,
	limit int,
	afterUpdatedAt time.Time,
	afterID string,
) ([]job.Job, *string, bool, error) {
	r.mu.Lock()
	out := make([]job.Job, 0, limit+1)
	for _, j := range r.items {
		if status != nil && string(j.Status) != *status {
			continue
		}
		// (updated_at, id) < (afterUpdatedAt, afterID)
		if j.UpdatedAt.After(afterUpdatedAt) || (j.UpdatedAt.Equal(afterUpdatedAt) && j.ID >= afterID) {
			continue
		}
		out = append(out, j)
	}
	r.mu.Unlock()

	sort.Slice(out, func(a, b int) bool {
		if out[a].UpdatedAt.Equal(out[b].UpdatedAt) {
			return out[a].ID > out[b].ID
		}
		return out[a].UpdatedAt.After(out[b].UpdatedAt)
	})

	if len(out) > limit+1 {
		out = out[:limit+1]
	}

	return utils.PageJobs(out, limit)
}

func (r *JobsRepo) Retry(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.items[id]
	if !ok {
		return job.ErrJobNotFound
	}
	if j.Status != job.StatusFailed {
		return job.ErrJobNotFailed
	}

	now := time.Now().UTC()
	j.Status = job.StatusPending
	j.Attempts = 0
	j.RunAt = now
	j.LastError = nil
	j.UpdatedAt = now
	unlock(&j)
	r.items[id] = j
	return nil
}

func (r *JobsRepo) RetryManyFailed(ctx context.Context, limit int) (int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	st := string(job.StatusFailed)
	failed, _, _, err := r.ListCursor(ctx, &st, limit, time.Now().UTC().Add(time.Hour), "")
	if err != nil {
		return 0, err
	}

	var n int64
	for _, j := range failed {
		if err := r.Retry(ctx, j.ID); err == nil {
			n++
		}
	}
	return n, nil
}

func (r *JobsRepo) update(id string, fn func(j *job.Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.items[id]
	if !ok {
		return job.ErrJobNotFound
	}

	fn(&j)
	j.UpdatedAt = time.Now().UTC()
	r.items[id] = j
	return nil
}

func unlock(j *job.Job) {
	j.LockedAt = nil
	j.LockedBy = nil
}
