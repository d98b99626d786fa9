package notifications

import (
	"fmt"
	"html"
	"time"
)

func WelcomeMessage(name, email string) Message {
	return Message{
		ToEmail: email,
		ToName:  name,
		Subject: "Welcome to TaskHub",
		Text:    fmt.Sprintf("Hi %s,\n\nYour TaskHub account is ready. Create a project to get started.", name),
		HTML:    fmt.Sprintf("<p>Hi %s,</p><p>Your TaskHub account is ready. Create a project to get started.</p>", html.EscapeString(name)),
	}
}

func PasswordResetMessage(name, email, resetURL string, expiresAt time.Time) Message {
	exp := expiresAt.UTC().Format("15:04 MST")

	return Message{
		ToEmail: email,
		ToName:  name,
		Subject: "Password reset",
		Text: fmt.Sprintf(
			"You are receiving this email because you (or someone else) requested a password reset.\n\nOpen %s to choose a new password. The link expires at %s.",
			resetURL, exp,
		),
		HTML: fmt.Sprintf(
			`<p>You are receiving this email because you (or someone else) requested a password reset.</p><p><a href="%s">Choose a new password</a>. The link expires at %s.</p>`,
			html.EscapeString(resetURL), exp,
		),
	}
}
