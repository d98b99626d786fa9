package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/taskhub/internal/domain/task"
)

type TasksRepo struct {
	s *Store
}

func (r *TasksRepo) Create(_ context.Context, t task.Task) (task.Task, error) {
	r.s.mu.Lock()
	r.s.tasks[t.ID] = t
	r.s.mu.Unlock()

	return t, nil
}

func (r *TasksRepo) GetByID(_ context.Context, id string) (task.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

func (r *TasksRepo) ListByUser(_ context.Context, userID string) ([]task.WithProject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := r.filter(func(t task.Task) bool { return t.UserID == userID })

	out := make([]task.WithProject, 0, len(items))
	for _, t := range items {
		out = append(out, task.WithProject{
			Task: t,
			Project: task.ProjectRef{
				ID:    t.ProjectID,
				Title: r.s.projects[t.ProjectID].Title,
			},
		})
	}
	return out, nil
}

func (r *TasksRepo) ListByProject(_ context.Context, projectID string) ([]task.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.filter(func(t task.Task) bool { return t.ProjectID == projectID }), nil
}

// filter expects the read lock to be held. Results are newest first.
func (r *TasksRepo) filter(keep func(task.Task) bool) []task.Task {
	out := make([]task.Task, 0)
	for _, t := range r.s.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *TasksRepo) Update(_ context.Context, t task.Task) (task.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[t.ID]; !ok {
		return task.Task{}, task.ErrNotFound
	}
	r.s.tasks[t.ID] = t
	return t, nil
}

func (r *TasksRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return task.ErrNotFound
	}
	delete(r.s.tasks, id)
	return nil
}

func (r *TasksRepo) CountByUser(_ context.Context, userID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, t := range r.s.tasks {
		if t.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *TasksRepo) CountByStatus(_ context.Context, userID string) (map[task.Status]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[task.Status]int)
	for _, t := range r.s.tasks {
		if t.UserID == userID {
			out[t.Status]++
		}
	}
	return out, nil
}

func (r *TasksRepo) CountByPriority(_ context.Context, userID string) (map[task.Priority]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[task.Priority]int)
	for _, t := range r.s.tasks {
		if t.UserID == userID {
			out[t.Priority]++
		}
	}
	return out, nil
}
