package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func bindRouter[T any](t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if err := handlers.RegisterValidators(); err != nil {
		t.Fatalf("register validators: %v", err)
	}

	r := gin.New()
	r.POST("/bind", func(ctx *gin.Context) {
		var req T
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})
	return r
}

func postBind(r *gin.Engine, body string) (*httptest.ResponseRecorder, bindErrorResponse) {
	req := httptest.NewRequest(http.MethodPost, "/bind", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp bindErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	r := bindRouter[user.RegisterRequest](t)

	w, resp := postBind(r, `{"name":"Ada","password":"123"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}

	wantRules := map[string]string{
		"email":    "required",
		"password": "min",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Error.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Error.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	r := bindRouter[user.RegisterRequest](t)

	w, resp := postBind(r, `{"name":"Ada","email":"ada@example.com","password":123456}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "password" {
		t.Fatalf("expected detail field to be password, got %q", resp.Error.Details.Field)
	}
	if len(resp.Error.Details.Fields) == 0 || resp.Error.Details.Fields[0].Rule != "type" {
		t.Fatalf("expected a type rule in details.fields, got %+v", resp.Error.Details.Fields)
	}
}

func TestBindJSON_CustomTaskValidators(t *testing.T) {
	r := bindRouter[task.CreateRequest](t)

	w, resp := postBind(r, `{"title":"T","projectId":"x","status":"Later","priority":"Urgent","dueDate":"2025-01-01"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	rules := map[string]string{}
	for _, f := range resp.Error.Details.Fields {
		rules[f.Field] = f.Rule
	}

	if rules["status"] != "taskstatus" {
		t.Fatalf("status rule = %q, fields=%+v", rules["status"], resp.Error.Details.Fields)
	}
	if rules["priority"] != "taskpriority" {
		t.Fatalf("priority rule = %q, fields=%+v", rules["priority"], resp.Error.Details.Fields)
	}

	w, _ = postBind(r, `{"title":"T","projectId":"x","status":"In Progress","priority":"High","dueDate":"2025-01-01"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("valid enums rejected: %d %s", w.Code, w.Body.String())
	}
}

func TestBindJSON_UnknownFieldAndBadSyntax(t *testing.T) {
	r := bindRouter[user.LoginRequest](t)

	w, resp := postBind(r, `{"email":"a@example.com","password":"x","admin":true}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
	if resp.Error.Details.JSON != "unknown_field" || resp.Error.Details.Field != "admin" {
		t.Fatalf("unexpected details: %+v", resp.Error.Details)
	}

	_, resp = postBind(r, `{"email":`)
	if resp.Error.Details.JSON == "" {
		t.Fatalf("expected a json detail for malformed body")
	}
}
