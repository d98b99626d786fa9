package delivery

import "errors"

// A delivery row records one attempt to hand a job's email to the provider.
// It keeps a requeued job from mailing the same person twice.

var (
	ErrAlreadySent = errors.New("email already sent")
	ErrInProgress  = errors.New("email delivery in progress")
)

const (
	StatusSending = "sending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)
