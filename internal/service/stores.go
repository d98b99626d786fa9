package service

import (
	"context"

	"github.com/geocoder89/taskhub/internal/domain/project"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
)

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByResetTokenHash(ctx context.Context, hash string) (user.User, error)
	Update(ctx context.Context, u user.User) (user.User, error)
}

type ProjectStore interface {
	Create(ctx context.Context, p project.Project) (project.Project, error)
	GetByID(ctx context.Context, id string) (project.Project, error)
	ListByUser(ctx context.Context, userID string) ([]project.Project, error)
	Update(ctx context.Context, p project.Project) (project.Project, error)
	// DeleteCascade removes the project and every task that references it.
	DeleteCascade(ctx context.Context, id string) error
	CountByUser(ctx context.Context, userID string) (int, error)
	RecentByUser(ctx context.Context, userID string, limit int) ([]project.Project, error)
}

type TaskStore interface {
	Create(ctx context.Context, t task.Task) (task.Task, error)
	GetByID(ctx context.Context, id string) (task.Task, error)
	ListByUser(ctx context.Context, userID string) ([]task.WithProject, error)
	ListByProject(ctx context.Context, projectID string) ([]task.Task, error)
	Update(ctx context.Context, t task.Task) (task.Task, error)
	Delete(ctx context.Context, id string) error
	CountByUser(ctx context.Context, userID string) (int, error)
	CountByStatus(ctx context.Context, userID string) (map[task.Status]int, error)
	CountByPriority(ctx context.Context, userID string) (map[task.Priority]int, error)
}

// StatsInvalidator evicts cached dashboard stats after a write.
type StatsInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...string)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, ...string) {}
