package notifications

import "context"

type SendVerificationEmailInput struct {
	UserID string
	Email  string
	Token  string
}

type Notifier interface {
	SendVerificationEmail(ctx context.Context, input SendVerificationEmailInput) error
}
