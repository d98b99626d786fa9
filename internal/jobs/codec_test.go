package jobs

import (
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/job"
)

func TestEncodeDecode_WelcomeEmail(t *testing.T) {
	payload := WelcomeEmailPayload{
		UserID: "user-123",
		Email:  "ada@example.com",
		Name:   "Ada",
	}

	b, err := EncodePayload(JobWelcomeEmail, payload)
	if err != nil {
		t.Fatalf("EncodePayload error: %v", err)
	}

	j := job.New(job.CreateRequest{Type: string(JobWelcomeEmail), Payload: b})

	decoded, err := DecodePayload(j)
	if err != nil {
		t.Fatalf("DecodePayload error: %v", err)
	}

	p, ok := decoded.(WelcomeEmailPayload)
	if !ok {
		t.Fatalf("expected WelcomeEmailPayload, got %T", decoded)
	}

	if p != payload {
		t.Fatalf("expected %+v, got %+v", payload, p)
	}
}

func TestEncodeDecode_PasswordReset(t *testing.T) {
	exp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	payload := &PasswordResetEmailPayload{
		UserID:    "u1",
		Email:     "ada@example.com",
		ResetURL:  "http://localhost:5173/resetpassword/abc",
		ExpiresAt: exp,
	}

	b, err := EncodePayload(JobPasswordResetEmail, payload)
	if err != nil {
		t.Fatalf("EncodePayload error: %v", err)
	}

	decoded, err := DecodePayload(job.Job{Type: string(JobPasswordResetEmail), Payload: b})
	if err != nil {
		t.Fatalf("DecodePayload error: %v", err)
	}

	p := decoded.(PasswordResetEmailPayload)
	if !p.ExpiresAt.Equal(exp) || p.ResetURL != payload.ResetURL {
		t.Fatalf("unexpected decoded payload: %+v", p)
	}
}

func TestEncodePayload_TypeMismatch(t *testing.T) {
	_, err := EncodePayload(JobWelcomeEmail, PasswordResetEmailPayload{UserID: "u1"})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if err != ErrPayloadTypeMismatch {
		t.Fatalf("expected ErrPayloadTypeMismatch, got %v", err)
	}
}

func TestDecodePayload_UnknownType(t *testing.T) {
	_, err := DecodePayload(job.Job{Type: "email.unknown", Payload: []byte(`{}`)})
	if !errors.Is(err, ErrInvalidJobType) {
		t.Fatalf("expected ErrInvalidJobType, got %v", err)
	}
}

func TestDecodePayload_BadJSON(t *testing.T) {
	_, err := DecodePayload(job.Job{Type: string(JobWelcomeEmail), Payload: []byte(`{"userId":`)})
	if !errors.Is(err, ErrInvalidJobPayload) {
		t.Fatalf("expected ErrInvalidJobPayload, got %v", err)
	}
}

func TestValidatePayload_RequiredFields(t *testing.T) {
	if err := ValidatePayload(JobWelcomeEmail, WelcomeEmailPayload{UserID: "u1"}); err == nil {
		t.Fatalf("expected error for missing email")
	}

	if err := ValidatePayload(JobPasswordResetEmail, PasswordResetEmailPayload{UserID: "u1", Email: "a@b.c"}); err == nil {
		t.Fatalf("expected error for missing reset url")
	}
}
