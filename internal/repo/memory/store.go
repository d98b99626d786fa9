package memory

import (
	"sync"

	"github.com/geocoder89/taskhub/internal/domain/project"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
)

// Store keeps users, projects and tasks under one lock so that joins and the
// project cascade see a consistent view. Used by STORE=memory and by tests.
type Store struct {
	mu       sync.RWMutex
	users    map[string]user.User
	projects map[string]project.Project
	tasks    map[string]task.Task
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]user.User),
		projects: make(map[string]project.Project),
		tasks:    make(map[string]task.Task),
	}
}

func (s *Store) Users() *UsersRepo       { return &UsersRepo{s: s} }
func (s *Store) Projects() *ProjectsRepo { return &ProjectsRepo{s: s} }
func (s *Store) Tasks() *TasksRepo       { return &TasksRepo{s: s} }
