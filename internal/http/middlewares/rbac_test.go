package middlewares

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func roleRouter(role string, required string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	m := NewAuthMiddleware(nil)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if role != "" {
			c.Set(ctxRoleKey, role)
		}
		c.Next()
	})
	r.GET("/x", m.RequireRole(required), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		required string
		want     int
		wantMsg  string
	}{
		{"matching role", "admin", "admin", http.StatusOK, ""},
		{"other role", "user", "admin", http.StatusForbidden, "admin role required"},
		{"message names the required role", "user", "auditor", http.StatusForbidden, "auditor role required"},
		{"no identity", "", "admin", http.StatusUnauthorized, "Missing identity context"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			roleRouter(tc.role, tc.required).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
			if tc.wantMsg == "" {
				return
			}

			var env struct {
				Error struct {
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Message != tc.wantMsg {
				t.Fatalf("expected message %q, got %q", tc.wantMsg, env.Error.Message)
			}
		})
	}
}
