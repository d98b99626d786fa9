package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/geocoder89/taskhub/internal/domain/project"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/service"
)

type fakeProjectsService struct {
	listFn   func(ctx context.Context, actingUser string) ([]project.Project, error)
	getFn    func(ctx context.Context, actingUser, projectID string) (project.Project, error)
	createFn func(ctx context.Context, actingUser string, req project.CreateRequest) (project.Project, error)
	updateFn func(ctx context.Context, actingUser, projectID string, patch project.Patch) (project.Project, error)
	deleteFn func(ctx context.Context, actingUser, projectID string) (string, error)
}

func (f *fakeProjectsService) List(ctx context.Context, actingUser string) ([]project.Project, error) {
	if f.listFn != nil {
		return f.listFn(ctx, actingUser)
	}
	return []project.Project{}, nil
}

func (f *fakeProjectsService) Get(ctx context.Context, actingUser, projectID string) (project.Project, error) {
	if f.getFn != nil {
		return f.getFn(ctx, actingUser, projectID)
	}
	return project.Project{}, nil
}

func (f *fakeProjectsService) Create(ctx context.Context, actingUser string, req project.CreateRequest) (project.Project, error) {
	if f.createFn != nil {
		return f.createFn(ctx, actingUser, req)
	}
	return project.Project{}, nil
}

func (f *fakeProjectsService) Update(ctx context.Context, actingUser, projectID string, patch project.Patch) (project.Project, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, actingUser, projectID, patch)
	}
	return project.Project{}, nil
}

func (f *fakeProjectsService) Delete(ctx context.Context, actingUser, projectID string) (string, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, actingUser, projectID)
	}
	return projectID, nil
}

func projectsRouter(svc handlers.ProjectsService) http.Handler {
	r, g := authed()
	h := handlers.NewProjectsHandler(svc)

	g.GET("/projects", h.List)
	g.POST("/projects", h.Create)
	g.GET("/projects/:id", h.Get)
	g.PUT("/projects/:id", h.Update)
	g.DELETE("/projects/:id", h.Delete)
	return r
}

func TestCreateProject_Success(t *testing.T) {
	userID := newUUID()
	var gotUser string

	svc := &fakeProjectsService{
		createFn: func(_ context.Context, actingUser string, req project.CreateRequest) (project.Project, error) {
			gotUser = actingUser
			return project.Project{ID: newUUID(), Title: req.Title, UserID: actingUser}, nil
		},
	}

	w := doJSON(t, projectsRouter(svc), http.MethodPost, "/projects", bearer("user", userID), `{"title":"P1"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	if gotUser != userID {
		t.Fatalf("service saw user %q, want %q", gotUser, userID)
	}

	var p project.Project
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Title != "P1" || p.UserID != userID {
		t.Fatalf("unexpected project %+v", p)
	}
}

func TestCreateProject_ValidationError(t *testing.T) {
	svc := &fakeProjectsService{
		createFn: func(context.Context, string, project.CreateRequest) (project.Project, error) {
			return project.Project{}, &service.ValidationError{Field: "title", Message: "Please add a title"}
		},
	}

	w := doJSON(t, projectsRouter(svc), http.MethodPost, "/projects", bearer("user", newUUID()), `{"title":""}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if env := decodeError(t, w); env.Error.Code != "validation_error" {
		t.Fatalf("unexpected code %q", env.Error.Code)
	}
}

func TestProjects_RequireAuth(t *testing.T) {
	w := doJSON(t, projectsRouter(&fakeProjectsService{}), http.MethodGet, "/projects", "", "")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestGetProject_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"forbidden", service.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"not found", project.ErrNotFound, http.StatusNotFound, "not_found"},
		{"internal", errors.New("db down"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeProjectsService{
				getFn: func(context.Context, string, string) (project.Project, error) {
					return project.Project{}, tc.err
				},
			}

			w := doJSON(t, projectsRouter(svc), http.MethodGet, "/projects/"+newUUID(), bearer("user", newUUID()), "")

			if w.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d body=%s", tc.wantCode, w.Code, w.Body.String())
			}
			if env := decodeError(t, w); env.Error.Code != tc.wantErr {
				t.Fatalf("expected code %q, got %q", tc.wantErr, env.Error.Code)
			}
		})
	}
}

func TestGetProject_MalformedIDIsNotFound(t *testing.T) {
	var gotID string
	svc := &fakeProjectsService{
		getFn: func(_ context.Context, _ string, id string) (project.Project, error) {
			gotID = id
			return project.Project{}, project.ErrNotFound
		},
	}

	w := doJSON(t, projectsRouter(svc), http.MethodGet, "/projects/nope", bearer("user", newUUID()), "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", w.Code, w.Body.String())
	}
	if gotID != "nope" {
		t.Fatalf("expected the raw id to reach the service, got %q", gotID)
	}
	if env := decodeError(t, w); env.Error.Code != "not_found" {
		t.Fatalf("expected not_found, got %q", env.Error.Code)
	}
}

func TestListProjects_ETag(t *testing.T) {
	svc := &fakeProjectsService{
		listFn: func(context.Context, string) ([]project.Project, error) {
			return []project.Project{{ID: "p1", Title: "P1"}}, nil
		},
	}
	r := projectsRouter(svc)
	authz := bearer("user", newUUID())

	w := doJSON(t, r, http.MethodGet, "/projects", authz, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected an ETag header")
	}

	req, _ := http.NewRequest(http.MethodGet, "/projects", nil)
	req.Header.Set("Authorization", authz)
	req.Header.Set("If-None-Match", etag)
	w2 := serve(r, req)

	if w2.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w2.Code)
	}
}

func TestUpdateProject_PassesPatch(t *testing.T) {
	var got project.Patch
	svc := &fakeProjectsService{
		updateFn: func(_ context.Context, _ string, id string, patch project.Patch) (project.Project, error) {
			got = patch
			return project.Project{ID: id, Title: *patch.Title}, nil
		},
	}

	w := doJSON(t, projectsRouter(svc), http.MethodPut, "/projects/"+newUUID(), bearer("user", newUUID()), `{"title":"New"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if got.Title == nil || *got.Title != "New" || got.Description != nil {
		t.Fatalf("unexpected patch %+v", got)
	}
}

func TestDeleteProject_ReturnsID(t *testing.T) {
	id := newUUID()

	w := doJSON(t, projectsRouter(&fakeProjectsService{}), http.MethodDelete, "/projects/"+id, bearer("user", newUUID()), "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["id"] != id {
		t.Fatalf("expected id %q, got %q", id, body["id"])
	}
}
