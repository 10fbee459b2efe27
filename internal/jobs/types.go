package jobs

type JobType string

const (
	JobVerificationEmail JobType = "user.verification_email"
)

// check to see if the job type is a known constant

func (t JobType) IsValid() bool {
	switch t {
	case JobVerificationEmail:
		return true
	default:
		return false
	}
}
