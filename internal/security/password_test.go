package security

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if hash == "secret123" {
		t.Fatalf("hash should not equal the plain password")
	}

	if err := CheckPassword(hash, "secret123"); err != nil {
		t.Fatalf("expected password to match: %v", err)
	}

	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestNewResetToken(t *testing.T) {
	raw, hash, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken error: %v", err)
	}

	if len(raw) != 40 {
		t.Fatalf("expected 40 hex chars, got %d", len(raw))
	}

	if hash != HashResetToken(raw) {
		t.Fatalf("stored hash must be reproducible from the raw token")
	}

	raw2, _, _ := NewResetToken()
	if raw == raw2 {
		t.Fatalf("tokens should be random")
	}
}
