package project

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("project not found")

type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UserID      string    `json:"user"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	Title       string `json:"title" binding:"max=200"`
	Description string `json:"description" binding:"max=2000"`
}

// Patch lists the fields an owner may change. The owner itself is not one of them.
type Patch struct {
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

func (p Patch) Apply(pr *Project) {
	if p.Title != nil {
		pr.Title = *p.Title
	}
	if p.Description != nil {
		pr.Description = *p.Description
	}
}

func New(ownerID string, req CreateRequest) Project {
	now := time.Now().UTC()

	return Project{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		UserID:      ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
