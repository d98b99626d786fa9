package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newUUID() string {
	return uuid.NewString()
}

// fakeVerifier accepts tokens of the form "<role>:<userID>".
type fakeVerifier struct{}

func (fakeVerifier) VerifyAccessToken(token string) (*auth.Claims, error) {
	role, id, ok := strings.Cut(token, ":")
	if !ok {
		return nil, errors.New("bad token")
	}
	return &auth.Claims{UserID: id, Email: id + "@example.com", Role: role}, nil
}

func bearer(role, id string) string {
	return "Bearer " + role + ":" + id
}

// authed builds an engine whose routes run behind RequireAuth.
func authed() (*gin.Engine, *gin.RouterGroup) {
	r := gin.New()
	m := middlewares.NewAuthMiddleware(fakeVerifier{})
	g := r.Group("")
	g.Use(m.RequireAuth())
	return r, g
}

func doJSON(t *testing.T, r http.Handler, method, path, authz, body string) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorEnvelope struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()

	var env errorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body: %v body=%s", err, w.Body.String())
	}
	return env
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
