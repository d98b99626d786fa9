package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/project"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/utils"
)

type TaskService struct {
	tasks    TaskStore
	projects ProjectStore
	users    UserStore
	stats    StatsInvalidator
}

func NewTaskService(tasks TaskStore, projects ProjectStore, users UserStore, stats StatsInvalidator) *TaskService {
	if stats == nil {
		stats = noopInvalidator{}
	}
	return &TaskService{tasks: tasks, projects: projects, users: users, stats: stats}
}

// ListForUser returns the tasks created by actingUser, each with its project title.
func (s *TaskService) ListForUser(ctx context.Context, actingUser string) ([]task.WithProject, error) {
	items, err := s.tasks.ListByUser(ctx, actingUser)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return items, nil
}

// ListForProject returns the tasks of a project the caller owns. A project
// that does not exist (for example one that was just deleted) has no tasks.
func (s *TaskService) ListForProject(ctx context.Context, actingUser, projectID string) ([]task.Task, error) {
	if !utils.IsUUID(projectID) {
		return []task.Task{}, nil
	}

	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			return []task.Task{}, nil
		}
		return nil, fmt.Errorf("load project: %w", err)
	}

	if p.UserID != actingUser {
		return nil, ErrForbidden
	}

	items, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project tasks: %w", err)
	}
	return items, nil
}

func (s *TaskService) Create(ctx context.Context, actingUser string, req task.CreateRequest) (task.Task, error) {
	title := strings.TrimSpace(req.Title)
	projectID := strings.TrimSpace(req.ProjectID)

	if title == "" || projectID == "" {
		field := "title"
		if title != "" {
			field = "projectId"
		}
		return task.Task{}, invalid(field, "Please add title and project ID")
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		return task.Task{}, invalid("description", "Please add a description")
	}

	status, err := parseStatus(req.Status)
	if err != nil {
		return task.Task{}, err
	}

	priority, err := parsePriority(req.Priority)
	if err != nil {
		return task.Task{}, err
	}

	if strings.TrimSpace(req.DueDate) == "" {
		return task.Task{}, invalid("dueDate", "Please add a due date")
	}
	due, err := task.ParseDueDate(req.DueDate)
	if err != nil {
		return task.Task{}, invalid("dueDate", "must be an RFC 3339 timestamp or a YYYY-MM-DD date")
	}

	assignee, err := s.assignee(ctx, req.AssignedTo)
	if err != nil {
		return task.Task{}, err
	}

	if _, err := s.ownedProject(ctx, actingUser, projectID); err != nil {
		return task.Task{}, err
	}

	t := task.New(actingUser, projectID, title, description, status, priority, due, assignee)

	created, err := s.tasks.Create(ctx, t)
	if err != nil {
		return task.Task{}, fmt.Errorf("create task: %w", err)
	}

	s.stats.Invalidate(ctx, actingUser)
	return created, nil
}

func (s *TaskService) Update(ctx context.Context, actingUser, taskID string, patch task.Patch) (task.Task, error) {
	t, err := s.authorize(ctx, actingUser, taskID)
	if err != nil {
		return task.Task{}, err
	}

	if err := s.applyPatch(ctx, actingUser, &t, patch); err != nil {
		return task.Task{}, err
	}

	t.UpdatedAt = time.Now().UTC()

	updated, err := s.tasks.Update(ctx, t)
	if err != nil {
		return task.Task{}, fmt.Errorf("update task: %w", err)
	}

	s.stats.Invalidate(ctx, updated.UserID, actingUser)
	return updated, nil
}

// Delete removes a task and returns its id. Same authorization rule as Update.
func (s *TaskService) Delete(ctx context.Context, actingUser, taskID string) (string, error) {
	t, err := s.authorize(ctx, actingUser, taskID)
	if err != nil {
		return "", err
	}

	if err := s.tasks.Delete(ctx, t.ID); err != nil {
		return "", fmt.Errorf("delete task: %w", err)
	}

	s.stats.Invalidate(ctx, t.UserID, actingUser)
	return t.ID, nil
}

// authorize loads the task and allows the call when actingUser created it
// or owns the project it belongs to.
func (s *TaskService) authorize(ctx context.Context, actingUser, taskID string) (task.Task, error) {
	if !utils.IsUUID(taskID) {
		return task.Task{}, task.ErrNotFound
	}

	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return task.Task{}, err
	}

	if t.UserID == actingUser {
		return t, nil
	}

	p, err := s.projects.GetByID(ctx, t.ProjectID)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			return task.Task{}, ErrForbidden
		}
		return task.Task{}, fmt.Errorf("load project: %w", err)
	}

	if p.UserID != actingUser {
		return task.Task{}, ErrForbidden
	}

	return t, nil
}

func (s *TaskService) applyPatch(ctx context.Context, actingUser string, t *task.Task, patch task.Patch) error {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return invalid("title", "Title cannot be empty")
		}
		t.Title = title
	}

	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		if description == "" {
			return invalid("description", "Description cannot be empty")
		}
		t.Description = description
	}

	if patch.Status != nil {
		st := task.Status(*patch.Status)
		if !st.IsValid() {
			return invalid("status", "must be one of Todo, In Progress, Done")
		}
		t.Status = st
	}

	if patch.Priority != nil {
		pr := task.Priority(*patch.Priority)
		if !pr.IsValid() {
			return invalid("priority", "must be one of Low, Medium, High")
		}
		t.Priority = pr
	}

	if patch.DueDate != nil {
		due, err := task.ParseDueDate(*patch.DueDate)
		if err != nil {
			return invalid("dueDate", "must be an RFC 3339 timestamp or a YYYY-MM-DD date")
		}
		t.DueDate = due
	}

	if patch.AssignedTo != nil {
		assignee, err := s.assignee(ctx, patch.AssignedTo)
		if err != nil {
			return err
		}
		t.AssignedTo = assignee
	}

	if patch.ProjectID != nil && strings.TrimSpace(*patch.ProjectID) != t.ProjectID {
		dest := strings.TrimSpace(*patch.ProjectID)
		if dest == "" {
			return invalid("projectId", "cannot be empty")
		}
		if _, err := s.ownedProject(ctx, actingUser, dest); err != nil {
			return err
		}
		t.ProjectID = dest
	}

	return nil
}

func (s *TaskService) ownedProject(ctx context.Context, actingUser, projectID string) (project.Project, error) {
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

// assignee resolves an optional assignee id. Nil or empty means unassigned.
func (s *TaskService) assignee(ctx context.Context, raw *string) (*string, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}

	id := strings.TrimSpace(*raw)
	if !utils.IsUUID(id) {
		return nil, invalid("assignedTo", "Assigned user not found")
	}

	if _, err := s.users.GetByID(ctx, id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, invalid("assignedTo", "Assigned user not found")
		}
		return nil, fmt.Errorf("load assignee: %w", err)
	}

	return &id, nil
}

func parseStatus(raw string) (task.Status, error) {
	if raw == "" {
		return task.StatusTodo, nil
	}
	st := task.Status(raw)
	if !st.IsValid() {
		return "", invalid("status", "must be one of Todo, In Progress, Done")
	}
	return st, nil
}

func parsePriority(raw string) (task.Priority, error) {
	if raw == "" {
		return task.PriorityMedium, nil
	}
	pr := task.Priority(raw)
	if !pr.IsValid() {
		return "", invalid("priority", "must be one of Low, Medium, High")
	}
	return pr, nil
}
