package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/domain/project"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/repo/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store     *memory.Store
	cache     *cache.Cache
	dashboard *DashboardService
	projects  *ProjectService
	tasks     *TaskService
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	c := cache.New(time.Minute)
	dash := NewDashboardService(store.Projects(), store.Tasks(), c, time.Minute, quietLogger())

	return &fixture{
		store:     store,
		cache:     c,
		dashboard: dash,
		projects:  NewProjectService(store.Projects(), dash),
		tasks:     NewTaskService(store.Tasks(), store.Projects(), store.Users(), dash),
	}
}

func (f *fixture) user(t *testing.T, email string) string {
	t.Helper()

	u, err := f.store.Users().Create(context.Background(), user.User{
		ID:        uuid.NewString(),
		Name:      email,
		Email:     email,
		Role:      user.RoleUser,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return u.ID
}

func (f *fixture) project(t *testing.T, owner, title string) project.Project {
	t.Helper()

	p, err := f.projects.Create(context.Background(), owner, project.CreateRequest{Title: title})
	require.NoError(t, err)
	return p
}

func (f *fixture) task(t *testing.T, actor, projectID, title string, status task.Status, priority task.Priority) task.Task {
	t.Helper()

	tk, err := f.tasks.Create(context.Background(), actor, task.CreateRequest{
		Title:       title,
		Description: title + " details",
		ProjectID:   projectID,
		Status:      string(status),
		Priority:    string(priority),
		DueDate:     "2025-01-01",
	})
	require.NoError(t, err)
	return tk
}

func ptr[T any](v T) *T { return &v }
