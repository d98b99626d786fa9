package auth

import (
	"testing"
	"time"
)

func TestGenerateAndVerifyAccessToken(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	raw, err := m.GenerateAccessToken("user-1", "ada@example.com", "user")
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	claims, err := m.VerifyAccessToken(raw)
	if err != nil {
		t.Fatalf("VerifyAccessToken error: %v", err)
	}

	if claims.UserID != "user-1" || claims.Email != "ada@example.com" || claims.Role != "user" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.JTI == "" {
		t.Fatalf("expected jti to be set")
	}
}

func TestVerifyAccessToken_WrongSecret(t *testing.T) {
	raw, _ := NewManager("secret-a", time.Hour).GenerateAccessToken("u", "e@x.io", "user")

	if _, err := NewManager("secret-b", time.Hour).VerifyAccessToken(raw); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestVerifyAccessToken_Expired(t *testing.T) {
	m := NewManager("secret", -time.Minute)

	raw, err := m.GenerateAccessToken("u", "e@x.io", "user")
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	if _, err := m.VerifyAccessToken(raw); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestVerifyAccessToken_Garbage(t *testing.T) {
	if _, err := NewManager("secret", time.Hour).VerifyAccessToken("not-a-jwt"); err == nil {
		t.Fatalf("expected parse error")
	}
}
