package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/kwameasante/lingomate/internal/domain/language"
	"github.com/kwameasante/lingomate/internal/domain/user"
	"github.com/kwameasante/lingomate/internal/jobs"
	"github.com/kwameasante/lingomate/internal/security"
)

var (
	// ErrDefaultLanguageMissing means the seed row for the default language
	// is gone. Deployment-integrity fault, not a user error.
	ErrDefaultLanguageMissing = errors.New("default language is not seeded")

	ErrVerificationTokenInvalid = errors.New("verification token is invalid")
	ErrVerificationTokenExpired = errors.New("verification token has expired")
)

const verificationTokenTTL = 24 * time.Hour

// AuthResult pairs a signed session token with the safe projection it was
// issued for.
type AuthResult struct {
	AccessToken string        `json:"accessToken"`
	User        user.SafeUser `json:"user"`
}

type IdentityService struct {
	users     UserStore
	languages LanguageDirectory
	tokens    TokenIssuer
	queue     JobQueue
	log       *slog.Logger

	// DefaultLanguageCode is the placeholder assigned to both language
	// references at creation until the richer signup flow supplies a real
	// selection.
	defaultLanguageCode string
}

func NewIdentityService(users UserStore, languages LanguageDirectory, tokens TokenIssuer, queue JobQueue, log *slog.Logger, defaultLanguageCode string) *IdentityService {
	if defaultLanguageCode == "" {
		defaultLanguageCode = "en"
	}

	return &IdentityService{
		users:               users,
		languages:           languages,
		tokens:              tokens,
		queue:               queue,
		log:                 log,
		defaultLanguageCode: defaultLanguageCode,
	}
}

// Register creates a fresh account and issues its first session token.
// An already registered email is rejected, never merged.
func (s *IdentityService) Register(ctx context.Context, email, rawPassword, displayName string) (AuthResult, error) {
	email = NormalizeEmail(email)

	_, err := s.users.GetByEmail(ctx, email)

	if err == nil {
		return AuthResult{}, user.ErrEmailTaken
	}

	if !errors.Is(err, user.ErrNotFound) {
		return AuthResult{}, err
	}

	passwordHash := ""

	if rawPassword != "" {
		passwordHash, err = security.HashPassword(rawPassword)

		if err != nil {
			return AuthResult{}, err
		}
	}

	u, err := s.createWithDefaults(ctx, email, passwordHash, displayName)

	if err != nil {
		return AuthResult{}, err
	}

	s.enqueueVerificationEmail(ctx, u)

	return s.Login(u.ToSafe())
}

// ValidateOrCreateOAuthUser resolves the account for a provider-verified
// email, creating it on first sign-in. Existing profiles are returned
// untouched. Safe under concurrent first-time sign-in: a lost create race
// is recovered by re-fetching the winner's row.
func (s *IdentityService) ValidateOrCreateOAuthUser(ctx context.Context, email, displayName string) (user.SafeUser, error) {
	email = NormalizeEmail(email)

	existing, err := s.users.GetByEmail(ctx, email)

	if err == nil {
		return existing.ToSafe(), nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return user.SafeUser{}, err
	}

	u, err := s.createWithDefaults(ctx, email, "", displayName)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			// another caller created it first
			winner, fetchErr := s.users.GetByEmail(ctx, email)

			if fetchErr != nil {
				return user.SafeUser{}, fetchErr
			}

			return winner.ToSafe(), nil
		}

		return user.SafeUser{}, err
	}

	if s.log != nil {
		s.log.Info("created oauth user", "email", email, "id", u.ID)
	}

	s.enqueueVerificationEmail(ctx, u)

	return u.ToSafe(), nil
}

// Login issues a token for an already-validated user. Credential checking
// happens at the transport boundary; no store access here.
func (s *IdentityService) Login(safe user.SafeUser) (AuthResult, error) {
	token, err := s.tokens.GenerateAccessToken(safe.ID, safe.Email)

	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{AccessToken: token, User: safe}, nil
}

// VerifyEmail consumes a verification token, stamping the account verified.
func (s *IdentityService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrVerificationTokenInvalid
	}

	u, err := s.users.GetByVerificationToken(ctx, token)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrVerificationTokenInvalid
		}

		return err
	}

	if u.VerificationTokenExpiry == nil || time.Now().UTC().After(*u.VerificationTokenExpiry) {
		return ErrVerificationTokenExpired
	}

	return s.users.MarkEmailVerified(ctx, u.ID)
}

func (s *IdentityService) createWithDefaults(ctx context.Context, email, passwordHash, displayName string) (user.User, error) {
	def, err := s.languages.GetByCode(ctx, s.defaultLanguageCode)

	if err != nil {
		if errors.Is(err, language.ErrNotFound) {
			return user.User{}, ErrDefaultLanguageMissing
		}

		return user.User{}, err
	}

	first, last := splitDisplayName(displayName)

	token := uuid.NewString()
	expiry := time.Now().UTC().Add(verificationTokenTTL)

	return s.users.Create(ctx, user.CreateParams{
		Email:                   email,
		PasswordHash:            passwordHash,
		FirstName:               first,
		LastName:                last,
		NativeLanguageID:        def.ID,
		TargetLanguageID:        def.ID,
		VerificationToken:       &token,
		VerificationTokenExpiry: &expiry,
	})
}

// enqueueVerificationEmail is best-effort: a queue outage must not fail
// registration, the token stays on the row for a later resend.
func (s *IdentityService) enqueueVerificationEmail(ctx context.Context, u user.User) {
	if s.queue == nil || u.VerificationToken == nil {
		return
	}

	payload, err := jobs.EncodePayload(jobs.JobVerificationEmail, jobs.VerificationEmailPayload{
		UserID:      u.ID,
		Email:       u.Email,
		Token:       *u.VerificationToken,
		RequestedAt: time.Now().UTC(),
	})

	if err == nil {
		var j jobs.Job

		j, err = jobs.NewJob(jobs.JobVerificationEmail, payload)

		if err == nil {
			err = s.queue.Enqueue(ctx, j)
		}
	}

	if err != nil && s.log != nil {
		s.log.Warn("enqueue verification email failed", "user", u.ID, "err", err)
	}
}

// splitDisplayName cuts a display name on the first whitespace boundary.
// Missing pieces stay absent rather than empty strings.
func splitDisplayName(displayName string) (*string, *string) {
	displayName = strings.TrimSpace(displayName)

	if displayName == "" {
		return nil, nil
	}

	idx := strings.IndexFunc(displayName, unicode.IsSpace)

	if idx < 0 {
		return &displayName, nil
	}

	first := displayName[:idx]
	last := strings.TrimSpace(displayName[idx:])

	if last == "" {
		return &first, nil
	}

	return &first, &last
}
