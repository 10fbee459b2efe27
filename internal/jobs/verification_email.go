package jobs

import "time"

type VerificationEmailPayload struct {
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	Token       string    `json:"token"`
	RequestedAt time.Time `json:"requestedAt"`
}
