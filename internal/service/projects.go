package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/project"
	"github.com/geocoder89/taskhub/internal/utils"
)

type ProjectService struct {
	projects ProjectStore
	stats    StatsInvalidator
}

func NewProjectService(projects ProjectStore, stats StatsInvalidator) *ProjectService {
	if stats == nil {
		stats = noopInvalidator{}
	}
	return &ProjectService{projects: projects, stats: stats}
}

func (s *ProjectService) List(ctx context.Context, actingUser string) ([]project.Project, error) {
	items, err := s.projects.ListByUser(ctx, actingUser)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return items, nil
}

func (s *ProjectService) Get(ctx context.Context, actingUser, projectID string) (project.Project, error) {
	return s.owned(ctx, actingUser, projectID)
}

func (s *ProjectService) Create(ctx context.Context, actingUser string, req project.CreateRequest) (project.Project, error) {
	req.Title = strings.TrimSpace(req.Title)

	if req.Title == "" {
		return project.Project{}, invalid("title", "Please add a title")
	}

	p, err := s.projects.Create(ctx, project.New(actingUser, req))
	if err != nil {
		return project.Project{}, fmt.Errorf("create project: %w", err)
	}

	s.stats.Invalidate(ctx, actingUser)
	return p, nil
}

func (s *ProjectService) Update(ctx context.Context, actingUser, projectID string, patch project.Patch) (project.Project, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return project.Project{}, invalid("title", "Title cannot be empty")
		}
		patch.Title = &title
	}

	p, err := s.owned(ctx, actingUser, projectID)
	if err != nil {
		return project.Project{}, err
	}

	patch.Apply(&p)
	p.UpdatedAt = time.Now().UTC()

	updated, err := s.projects.Update(ctx, p)
	if err != nil {
		return project.Project{}, fmt.Errorf("update project: %w", err)
	}

	s.stats.Invalidate(ctx, actingUser)
	return updated, nil
}

// Delete removes the project together with all of its tasks and returns the deleted id.
func (s *ProjectService) Delete(ctx context.Context, actingUser, projectID string) (string, error) {
	p, err := s.owned(ctx, actingUser, projectID)
	if err != nil {
		return "", err
	}

	if err := s.projects.DeleteCascade(ctx, p.ID); err != nil {
		return "", fmt.Errorf("delete project: %w", err)
	}

	s.stats.Invalidate(ctx, actingUser)
	return p.ID, nil
}

// owned loads a project and checks that actingUser owns it.
func (s *ProjectService) owned(ctx context.Context, actingUser, projectID string) (project.Project, error) {
	if !utils.IsUUID(projectID) {
		return project.Project{}, project.ErrNotFound
	}

	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return project.Project{}, err
	}

	if p.UserID != actingUser {
		return project.Project{}, ErrForbidden
	}

	return p, nil
}
