package jobs

import "time"

// WelcomeEmailPayload is queued when an account is created.
type WelcomeEmailPayload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// PasswordResetEmailPayload carries the reset link. The raw token only lives
// inside the link; the users table keeps a hash.
type PasswordResetEmailPayload struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ResetURL  string    `json:"resetUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}
