package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already in use")
	ErrLanguageNotFound = errors.New("referenced language does not exist")
)

// User is the full persisted row, including credential and verification
// fields. It never crosses the authentication boundary directly; see SafeUser.
type User struct {
	ID                      string
	Email                   string
	PasswordHash            string // empty for OAuth-only accounts
	FirstName               *string
	LastName                *string
	NativeLanguageID        string
	TargetLanguageID        string
	Bio                     *string
	Timezone                *string
	VideoHandles            []string
	EmailVerified           *time.Time
	VerificationToken       *string
	VerificationTokenExpiry *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// SafeUser is the projection returned to callers and handed to the session
// issuer. No password hash, no verification token.
type SafeUser struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	FirstName        *string   `json:"firstName"`
	LastName         *string   `json:"lastName"`
	NativeLanguageID string    `json:"nativeLanguageId"`
	TargetLanguageID string    `json:"targetLanguageId"`
	Bio              *string   `json:"bio"`
	Timezone         *string   `json:"timezone"`
	VideoHandles     []string  `json:"videoHandles"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ToSafe strips secret fields and normalizes a nil handle list to empty.
func (u User) ToSafe() SafeUser {
	handles := u.VideoHandles
	if handles == nil {
		handles = []string{}
	}

	return SafeUser{
		ID:               u.ID,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		NativeLanguageID: u.NativeLanguageID,
		TargetLanguageID: u.TargetLanguageID,
		Bio:              u.Bio,
		Timezone:         u.Timezone,
		VideoHandles:     handles,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

type CreateParams struct {
	Email                   string
	PasswordHash            string
	FirstName               *string
	LastName                *string
	NativeLanguageID        string
	TargetLanguageID        string
	VerificationToken       *string
	VerificationTokenExpiry *time.Time
}

// UpdateParams is the allow-list for profile mutation. Fields left nil are
// not touched; id, email, credential and verification fields are not
// representable here on purpose.
type UpdateParams struct {
	FirstName        *string
	LastName         *string
	Bio              *string
	Timezone         *string
	VideoHandles     *[]string
	NativeLanguageID *string
	TargetLanguageID *string
}

// Empty reports whether the patch carries no recognized field at all.
func (p UpdateParams) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Bio == nil &&
		p.Timezone == nil && p.VideoHandles == nil &&
		p.NativeLanguageID == nil && p.TargetLanguageID == nil
}
