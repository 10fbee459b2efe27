package service

import (
	"context"

	"github.com/kwameasante/lingomate/internal/domain/user"
)

// ProfileService reads and mutates a caller's own profile. The caller is
// already identified by the time these run; no auth logic here.
type ProfileService struct {
	users UserStore
}

func NewProfileService(users UserStore) *ProfileService {
	return &ProfileService{users: users}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (user.SafeUser, error) {
	u, err := s.users.GetByID(ctx, userID)

	if err != nil {
		return user.SafeUser{}, err
	}

	return u.ToSafe(), nil
}

// UpdateProfile applies a partial patch. UpdateParams is the allow-list:
// id, email, credential and verification fields cannot be expressed in it,
// so nothing needs stripping beyond what the type already excludes.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, patch user.UpdateParams) (user.SafeUser, error) {
	u, err := s.users.Update(ctx, userID, patch)

	if err != nil {
		return user.SafeUser{}, err
	}

	return u.ToSafe(), nil
}
