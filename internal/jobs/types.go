package jobs

type JobType string

const (
	JobWelcomeEmail       JobType = "email.welcome"
	JobPasswordResetEmail JobType = "email.password_reset"
)

// check to see if the job type is a known constant

func (t JobType) IsValid() bool {
	switch t {
	case JobWelcomeEmail, JobPasswordResetEmail:
		return true
	default:
		return false
	}
}
