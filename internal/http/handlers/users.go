package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kwameasante/lingomate/internal/config"
	"github.com/kwameasante/lingomate/internal/domain/user"
	"github.com/kwameasante/lingomate/internal/http/middlewares"
	"github.com/kwameasante/lingomate/internal/service"
)

// Profiles is the slice of the profile service these routes use.
type Profiles interface {
	GetProfile(ctx context.Context, userID string) (user.SafeUser, error)
	UpdateProfile(ctx context.Context, userID string, patch user.UpdateParams) (user.SafeUser, error)
}

// Directory serves the paginated browse listing.
type Directory interface {
	Browse(ctx context.Context, currentUserID string, page, limit int) (service.BrowseResult, error)
}

type UsersHandler struct {
	profiles  Profiles
	directory Directory
}

func NewUsersHandler(profiles Profiles, directory Directory) *UsersHandler {
	return &UsersHandler{profiles: profiles, directory: directory}
}

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

func (h *UsersHandler) Browse(ctx *gin.Context) {
	currentUserID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	page := queryInt(ctx, "page", defaultPage)
	limit := queryInt(ctx, "limit", defaultLimit)

	if limit > maxLimit {
		limit = maxLimit
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	res, err := h.directory.Browse(cctx, currentUserID, page, limit)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, res)
}

func (h *UsersHandler) Me(ctx *gin.Context) {
	currentUserID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	safe, err := h.profiles.GetProfile(cctx, currentUserID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not load profile")
		return
	}

	ctx.JSON(http.StatusOK, safe)
}

// UpdateProfileRequest carries only the fields a user may change about
// themselves. Absent fields are left untouched.
type UpdateProfileRequest struct {
	FirstName        *string   `json:"firstName" binding:"omitempty,max=100"`
	LastName         *string   `json:"lastName" binding:"omitempty,max=100"`
	Bio              *string   `json:"bio" binding:"omitempty,max=2000"`
	Timezone         *string   `json:"timezone" binding:"omitempty,max=64"`
	VideoHandles     *[]string `json:"videoHandles" binding:"omitempty,dive,max=200"`
	NativeLanguageID *string   `json:"nativeLanguageId" binding:"omitempty,uuid"`
	TargetLanguageID *string   `json:"targetLanguageId" binding:"omitempty,uuid"`
}

func (h *UsersHandler) UpdateMe(ctx *gin.Context) {
	currentUserID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	patch := user.UpdateParams{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Bio:              req.Bio,
		Timezone:         req.Timezone,
		VideoHandles:     req.VideoHandles,
		NativeLanguageID: req.NativeLanguageID,
		TargetLanguageID: req.TargetLanguageID,
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	safe, err := h.profiles.UpdateProfile(cctx, currentUserID, patch)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		case errors.Is(err, user.ErrLanguageNotFound):
			RespondBadRequest(ctx, "Referenced language does not exist", gin.H{"code": "language_not_found"})
		default:
			RespondInternal(ctx, "Could not update profile")
		}
		return
	}

	ctx.JSON(http.StatusOK, safe)
}

func queryInt(ctx *gin.Context, key string, fallback int) int {
	raw := ctx.Query(key)

	if raw == "" {
		return fallback
	}

	n, err := strconv.Atoi(raw)

	if err != nil {
		return fallback
	}

	return n
}
