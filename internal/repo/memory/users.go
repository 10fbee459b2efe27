package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kwameasante/lingomate/internal/domain/user"
)

// UsersRepo is an in-memory user store with the same contract as the
// postgres one, including email uniqueness and stable creation order.
// Used by tests and local experiments; production traffic goes to postgres.
type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User
	order []string // ids in creation order
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
	}
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Email == email {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, p user.CreateParams) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Email == p.Email {
			return user.User{}, user.ErrEmailTaken
		}
	}

	now := time.Now().UTC()

	u := user.User{
		ID:                      uuid.NewString(),
		Email:                   p.Email,
		PasswordHash:            p.PasswordHash,
		FirstName:               p.FirstName,
		LastName:                p.LastName,
		NativeLanguageID:        p.NativeLanguageID,
		TargetLanguageID:        p.TargetLanguageID,
		VerificationToken:       p.VerificationToken,
		VerificationTokenExpiry: p.VerificationTokenExpiry,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	r.items[u.ID] = u
	r.order = append(r.order, u.ID)

	return u, nil
}

func (r *UsersRepo) Update(ctx context.Context, id string, p user.UpdateParams) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if p.FirstName != nil {
		u.FirstName = p.FirstName
	}
	if p.LastName != nil {
		u.LastName = p.LastName
	}
	if p.Bio != nil {
		u.Bio = p.Bio
	}
	if p.Timezone != nil {
		u.Timezone = p.Timezone
	}
	if p.VideoHandles != nil {
		u.VideoHandles = *p.VideoHandles
	}
	if p.NativeLanguageID != nil {
		u.NativeLanguageID = *p.NativeLanguageID
	}
	if p.TargetLanguageID != nil {
		u.TargetLanguageID = *p.TargetLanguageID
	}

	u.UpdatedAt = time.Now().UTC()

	r.items[id] = u

	return u, nil
}

func (r *UsersRepo) ListExcluding(ctx context.Context, excludedID string, offset, limit int) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matching := make([]user.User, 0, len(r.order))

	for _, id := range r.order {
		if id == excludedID {
			continue
		}
		matching = append(matching, r.items[id])
	}

	if offset >= len(matching) {
		return []user.User{}, nil
	}

	end := offset + limit
	if end > len(matching) {
		end = len(matching)
	}

	return matching[offset:end], nil
}

func (r *UsersRepo) CountExcluding(ctx context.Context, excludedID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0

	for _, id := range r.order {
		if id != excludedID {
			total++
		}
	}

	return total, nil
}

func (r *UsersRepo) GetByVerificationToken(ctx context.Context, token string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) MarkEmailVerified(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return user.ErrNotFound
	}

	now := time.Now().UTC()
	u.EmailVerified = &now
	u.VerificationToken = nil
	u.VerificationTokenExpiry = nil
	u.UpdatedAt = now

	r.items[id] = u

	return nil
}
