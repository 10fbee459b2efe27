package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kwameasante/lingomate/internal/domain/language"
	"github.com/kwameasante/lingomate/internal/domain/user"
	"github.com/kwameasante/lingomate/internal/jobs"
	"github.com/kwameasante/lingomate/internal/repo/memory"
	"github.com/kwameasante/lingomate/internal/security"
)

// Fakes in the style of function-field repos so each test overrides only
// what it needs.

type fakeLanguages struct {
	getByCodeFn func(ctx context.Context, code string) (language.Language, error)
}

func (f *fakeLanguages) GetByCode(ctx context.Context, code string) (language.Language, error) {
	if f.getByCodeFn != nil {
		return f.getByCodeFn(ctx, code)
	}

	return language.Language{ID: "lang-en", Code: code, Name: "English", NativeName: "English"}, nil
}

type fakeTokens struct {
	generateFn func(userID, email string) (string, error)
}

func (f *fakeTokens) GenerateAccessToken(userID, email string) (string, error) {
	if f.generateFn != nil {
		return f.generateFn(userID, email)
	}

	return "token-for:" + userID, nil
}

type fakeQueue struct {
	enqueued []jobs.Job
	err      error
}

func (f *fakeQueue) Enqueue(ctx context.Context, j jobs.Job) error {
	if f.err != nil {
		return f.err
	}

	f.enqueued = append(f.enqueued, j)
	return nil
}

// fakeUserStore wraps error injection around nothing; every method must be
// set explicitly by the test that uses it.
type fakeUserStore struct {
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
	createFn     func(ctx context.Context, p user.CreateParams) (user.User, error)
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return f.getByEmailFn(ctx, email)
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (user.User, error) {
	return user.User{}, user.ErrNotFound
}

func (f *fakeUserStore) Create(ctx context.Context, p user.CreateParams) (user.User, error) {
	return f.createFn(ctx, p)
}

func (f *fakeUserStore) Update(ctx context.Context, id string, p user.UpdateParams) (user.User, error) {
	return user.User{}, user.ErrNotFound
}

func (f *fakeUserStore) ListExcluding(ctx context.Context, excludedID string, offset, limit int) ([]user.User, error) {
	return nil, nil
}

func (f *fakeUserStore) CountExcluding(ctx context.Context, excludedID string) (int, error) {
	return 0, nil
}

func (f *fakeUserStore) GetByVerificationToken(ctx context.Context, token string) (user.User, error) {
	return user.User{}, user.ErrNotFound
}

func (f *fakeUserStore) MarkEmailVerified(ctx context.Context, id string) error {
	return nil
}

func newIdentity(store UserStore, queue JobQueue) *IdentityService {
	return NewIdentityService(store, &fakeLanguages{}, &fakeTokens{}, queue, nil, "en")
}

func TestRegister_CreatesUserWithDefaults(t *testing.T) {
	store := memory.NewUsersRepo()
	queue := &fakeQueue{}
	svc := newIdentity(store, queue)

	res, err := svc.Register(context.Background(), "ada@example.com", "s3cretpass", "Ada Lovelace")

	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if res.AccessToken != "token-for:"+res.User.ID {
		t.Fatalf("unexpected access token %q", res.AccessToken)
	}

	u := res.User

	if u.Email != "ada@example.com" {
		t.Fatalf("expected email ada@example.com, got %q", u.Email)
	}
	if u.FirstName == nil || *u.FirstName != "Ada" {
		t.Fatalf("expected firstName Ada, got %v", u.FirstName)
	}
	if u.LastName == nil || *u.LastName != "Lovelace" {
		t.Fatalf("expected lastName Lovelace, got %v", u.LastName)
	}
	if u.NativeLanguageID != "lang-en" || u.TargetLanguageID != "lang-en" {
		t.Fatalf("expected default language on both sides, got %q / %q", u.NativeLanguageID, u.TargetLanguageID)
	}
	if u.VideoHandles == nil || len(u.VideoHandles) != 0 {
		t.Fatalf("expected empty non-nil videoHandles, got %#v", u.VideoHandles)
	}

	// stored row carries a real hash, never the raw password
	row, err := store.GetByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if row.PasswordHash == "" || row.PasswordHash == "s3cretpass" {
		t.Fatalf("expected bcrypt hash, got %q", row.PasswordHash)
	}
	if err := security.CheckPassword(row.PasswordHash, "s3cretpass"); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}

	if len(queue.enqueued) != 1 || queue.enqueued[0].Type != jobs.JobVerificationEmail {
		t.Fatalf("expected one verification email job, got %#v", queue.enqueued)
	}
}

func TestRegister_NormalizesEmail(t *testing.T) {
	store := memory.NewUsersRepo()
	svc := newIdentity(store, nil)

	res, err := svc.Register(context.Background(), "  Ada@Example.COM ", "s3cretpass", "")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if res.User.Email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %q", res.User.Email)
	}

	// the differently-cased variant hits the same account
	_, err = svc.Register(context.Background(), "ADA@example.com", "otherpass123", "")
	if !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := memory.NewUsersRepo()
	svc := newIdentity(store, nil)

	if _, err := svc.Register(context.Background(), "dup@example.com", "password1", ""); err != nil {
		t.Fatalf("first Register error: %v", err)
	}

	_, err := svc.Register(context.Background(), "dup@example.com", "password2", "")
	if !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegister_DefaultLanguageMissing(t *testing.T) {
	store := memory.NewUsersRepo()
	langs := &fakeLanguages{
		getByCodeFn: func(ctx context.Context, code string) (language.Language, error) {
			return language.Language{}, language.ErrNotFound
		},
	}
	svc := NewIdentityService(store, langs, &fakeTokens{}, nil, nil, "en")

	_, err := svc.Register(context.Background(), "ada@example.com", "s3cretpass", "")
	if !errors.Is(err, ErrDefaultLanguageMissing) {
		t.Fatalf("expected ErrDefaultLanguageMissing, got %v", err)
	}
}

func TestRegister_QueueOutageDoesNotFailSignup(t *testing.T) {
	store := memory.NewUsersRepo()
	queue := &fakeQueue{err: errors.New("redis down")}
	svc := newIdentity(store, queue)

	if _, err := svc.Register(context.Background(), "ada@example.com", "s3cretpass", ""); err != nil {
		t.Fatalf("Register should survive a queue outage, got %v", err)
	}
}

func TestValidateOrCreateOAuthUser_CreatesOnFirstSignIn(t *testing.T) {
	store := memory.NewUsersRepo()
	svc := newIdentity(store, nil)

	first, err := svc.ValidateOrCreateOAuthUser(context.Background(), "oauth@example.com", "Grace Hopper")
	if err != nil {
		t.Fatalf("first sign-in error: %v", err)
	}

	second, err := svc.ValidateOrCreateOAuthUser(context.Background(), "oauth@example.com", "Different Name")
	if err != nil {
		t.Fatalf("second sign-in error: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected the same account, got %q and %q", first.ID, second.ID)
	}

	// the existing profile wins: the new display name is ignored
	if second.FirstName == nil || *second.FirstName != "Grace" {
		t.Fatalf("expected firstName Grace, got %v", second.FirstName)
	}

	// OAuth-only accounts must not be able to log in with any password
	row, err := store.GetByEmail(context.Background(), "oauth@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if row.PasswordHash != "" {
		t.Fatalf("expected empty password hash, got %q", row.PasswordHash)
	}
	if err := security.CheckPassword(row.PasswordHash, ""); err == nil {
		t.Fatalf("empty hash must never verify")
	}
}

func TestValidateOrCreateOAuthUser_RecoversLostCreateRace(t *testing.T) {
	winner := user.User{ID: "winner-id", Email: "race@example.com"}

	calls := 0

	store := &fakeUserStore{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			calls++
			if calls == 1 {
				return user.User{}, user.ErrNotFound
			}
			return winner, nil
		},
		createFn: func(ctx context.Context, p user.CreateParams) (user.User, error) {
			return user.User{}, user.ErrEmailTaken
		},
	}

	svc := newIdentity(store, nil)

	safe, err := svc.ValidateOrCreateOAuthUser(context.Background(), "race@example.com", "")
	if err != nil {
		t.Fatalf("expected race recovery, got %v", err)
	}

	if safe.ID != "winner-id" {
		t.Fatalf("expected winner's row, got %q", safe.ID)
	}
}

func TestVerifyEmail(t *testing.T) {
	store := memory.NewUsersRepo()
	svc := newIdentity(store, nil)

	res, err := svc.Register(context.Background(), "verify@example.com", "s3cretpass", "")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	row, err := store.GetByEmail(context.Background(), res.User.Email)
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if row.VerificationToken == nil {
		t.Fatalf("expected a verification token on the new row")
	}

	if err := svc.VerifyEmail(context.Background(), *row.VerificationToken); err != nil {
		t.Fatalf("VerifyEmail error: %v", err)
	}

	row, _ = store.GetByEmail(context.Background(), res.User.Email)
	if row.EmailVerified == nil {
		t.Fatalf("expected emailVerified to be stamped")
	}
	if row.VerificationToken != nil {
		t.Fatalf("expected the consumed token to be cleared")
	}

	// a consumed token is invalid on replay
	if err := svc.VerifyEmail(context.Background(), "no-such-token"); !errors.Is(err, ErrVerificationTokenInvalid) {
		t.Fatalf("expected ErrVerificationTokenInvalid, got %v", err)
	}

	if err := svc.VerifyEmail(context.Background(), ""); !errors.Is(err, ErrVerificationTokenInvalid) {
		t.Fatalf("expected ErrVerificationTokenInvalid for empty token, got %v", err)
	}
}

func TestVerifyEmail_Expired(t *testing.T) {
	store := memory.NewUsersRepo()
	svc := newIdentity(store, nil)

	expired := time.Now().UTC().Add(-time.Hour)
	token := "expired-token"

	_, err := store.Create(context.Background(), user.CreateParams{
		Email:                   "stale@example.com",
		NativeLanguageID:        "lang-en",
		TargetLanguageID:        "lang-en",
		VerificationToken:       &token,
		VerificationTokenExpiry: &expired,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if err := svc.VerifyEmail(context.Background(), token); !errors.Is(err, ErrVerificationTokenExpired) {
		t.Fatalf("expected ErrVerificationTokenExpired, got %v", err)
	}
}

func TestSplitDisplayName(t *testing.T) {
	strPtr := func(s string) *string { return &s }

	tests := []struct {
		name  string
		in    string
		first *string
		last  *string
	}{
		{"both parts", "Ada Lovelace", strPtr("Ada"), strPtr("Lovelace")},
		{"single word", "Ada", strPtr("Ada"), nil},
		{"empty", "", nil, nil},
		{"whitespace only", "   ", nil, nil},
		{"multi-word surname", "Ada King Lovelace", strPtr("Ada"), strPtr("King Lovelace")},
		{"padded", "  Ada Lovelace  ", strPtr("Ada"), strPtr("Lovelace")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			first, last := splitDisplayName(tc.in)

			if !ptrEq(first, tc.first) {
				t.Fatalf("first: expected %v, got %v", deref(tc.first), deref(first))
			}
			if !ptrEq(last, tc.last) {
				t.Fatalf("last: expected %v, got %v", deref(tc.last), deref(last))
			}
		})
	}
}

func ptrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
