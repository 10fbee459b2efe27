package service

import (
	"context"

	"github.com/kwameasante/lingomate/internal/domain/user"
)

// DirectoryService is the paginated, self-excluding listing of other users.
type DirectoryService struct {
	users UserStore
}

func NewDirectoryService(users UserStore) *DirectoryService {
	return &DirectoryService{users: users}
}

type BrowseMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type BrowseResult struct {
	Data []user.SafeUser `json:"data"`
	Meta BrowseMeta      `json:"meta"`
}

// Browse returns one page of users other than currentUserID plus count
// metadata. page and limit below 1 are clamped to 1. The page and count
// queries run concurrently; neither depends on the other.
func (s *DirectoryService) Browse(ctx context.Context, currentUserID string, page, limit int) (BrowseResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}

	offset := (page - 1) * limit

	type countResult struct {
		total int
		err   error
	}

	countCh := make(chan countResult, 1)

	go func() {
		total, err := s.users.CountExcluding(ctx, currentUserID)
		countCh <- countResult{total: total, err: err}
	}()

	rows, err := s.users.ListExcluding(ctx, currentUserID, offset, limit)

	count := <-countCh

	if err != nil {
		return BrowseResult{}, err
	}

	if count.err != nil {
		return BrowseResult{}, count.err
	}

	data := make([]user.SafeUser, 0, len(rows))

	for _, u := range rows {
		data = append(data, u.ToSafe())
	}

	totalPages := 0

	if count.total > 0 {
		totalPages = (count.total + limit - 1) / limit
	}

	return BrowseResult{
		Data: data,
		Meta: BrowseMeta{
			Total:      count.total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
		},
	}, nil
}
