package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/taskhub/internal/domain/project"
)

type ProjectsRepo struct {
	s *Store
}

func (r *ProjectsRepo) Create(_ context.Context, p project.Project) (project.Project, error) {
	r.s.mu.Lock()
	r.s.projects[p.ID] = p
	r.s.mu.Unlock()

	return p, nil
}

func (r *ProjectsRepo) GetByID(_ context.Context, id string) (project.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[id]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	return p, nil
}

// ListByUser returns the user's projects newest first.
func (r *ProjectsRepo) ListByUser(_ context.Context, userID string) ([]project.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.byUser(userID), nil
}

func (r *ProjectsRepo) RecentByUser(_ context.Context, userID string, limit int) ([]project.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := r.byUser(userID)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// byUser expects the read lock to be held.
func (r *ProjectsRepo) byUser(userID string) []project.Project {
	out := make([]project.Project, 0)

	for _, p := range r.s.projects {
		if p.UserID == userID {
			out = append(out, p)
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

func (r *ProjectsRepo) Update(_ context.Context, p project.Project) (project.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[p.ID]; !ok {
		return project.Project{}, project.ErrNotFound
	}
	r.s.projects[p.ID] = p
	return p, nil
}

func (r *ProjectsRepo) DeleteCascade(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[id]; !ok {
		return project.ErrNotFound
	}

	for tid, t := range r.s.tasks {
		if t.ProjectID == id {
			delete(r.s.tasks, tid)
		}
	}
	delete(r.s.projects, id)
	return nil
}

func (r *ProjectsRepo) CountByUser(_ context.Context, userID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, p := range r.s.projects {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *ProjectsRepo) Ping(context.Context) error { return nil }
