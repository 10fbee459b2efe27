package service

import (
	"context"
	"strings"

	"github.com/kwameasante/lingomate/internal/domain/language"
	"github.com/kwameasante/lingomate/internal/domain/user"
	"github.com/kwameasante/lingomate/internal/jobs"
)

// UserStore is the persistence contract the services run against. The
// postgres repo is the production implementation; the memory repo mirrors
// it for tests.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Create(ctx context.Context, p user.CreateParams) (user.User, error)
	Update(ctx context.Context, id string, p user.UpdateParams) (user.User, error)
	ListExcluding(ctx context.Context, excludedID string, offset, limit int) ([]user.User, error)
	CountExcluding(ctx context.Context, excludedID string) (int, error)
	GetByVerificationToken(ctx context.Context, token string) (user.User, error)
	MarkEmailVerified(ctx context.Context, id string) error
}

// LanguageDirectory is the read-only lookup over supported languages.
type LanguageDirectory interface {
	GetByCode(ctx context.Context, code string) (language.Language, error)
}

// TokenIssuer turns a validated identity into a signed bearer token.
type TokenIssuer interface {
	GenerateAccessToken(userID, email string) (string, error)
}

// JobQueue accepts background work. A nil queue disables enqueueing.
type JobQueue interface {
	Enqueue(ctx context.Context, j jobs.Job) error
}

// NormalizeEmail fixes the store-boundary email policy: trimmed and
// lower-cased before any lookup or insert, so uniqueness is effectively
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
