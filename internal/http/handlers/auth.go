package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kwameasante/lingomate/internal/config"
	"github.com/kwameasante/lingomate/internal/domain/user"
	"github.com/kwameasante/lingomate/internal/oauth"
	"github.com/kwameasante/lingomate/internal/security"
	"github.com/kwameasante/lingomate/internal/service"
)

// UserReader is the single lookup the credential check needs.
type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

// Identity is the slice of the identity service the auth routes use.
type Identity interface {
	Register(ctx context.Context, email, rawPassword, displayName string) (service.AuthResult, error)
	ValidateOrCreateOAuthUser(ctx context.Context, email, displayName string) (user.SafeUser, error)
	Login(safe user.SafeUser) (service.AuthResult, error)
	VerifyEmail(ctx context.Context, token string) error
}

// GoogleProvider drives the provider side of the OAuth flow.
type GoogleProvider interface {
	AuthCodeURL(state string) string
	FetchProfile(ctx context.Context, code string) (oauth.Profile, error)
}

type AuthHandler struct {
	users    UserReader
	identity Identity
	google   GoogleProvider
	cfg      config.Config
}

func NewAuthHandler(users UserReader, identity Identity, google GoogleProvider, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		users:    users,
		identity: identity,
		google:   google,
		cfg:      cfg,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"omitempty,max=200"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	res, err := h.identity.Register(cctx, req.Email, req.Password, req.Name)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, service.NormalizeEmail(req.Email))
	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	// OAuth-only accounts have no hash; CheckPassword rejects those too.
	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	res, err := h.identity.Login(foundUser.ToSafe())

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, res)
}

// Google OAuth flow

const oauthStateCookie = "oauth_state"

func (h *AuthHandler) GoogleRedirect(ctx *gin.Context) {
	state := uuid.NewString()

	secure := h.cfg.Env == "prod"

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(oauthStateCookie, state, int((10 * time.Minute).Seconds()), "/auth", "", secure, true)

	ctx.Redirect(http.StatusTemporaryRedirect, h.google.AuthCodeURL(state))
}

func (h *AuthHandler) GoogleCallback(ctx *gin.Context) {
	state := ctx.Query("state")
	cookieState, err := ctx.Cookie(oauthStateCookie)

	if err != nil || state == "" || state != cookieState {
		RespondUnAuthorized(ctx, "invalid_state", "OAuth state mismatch")
		return
	}

	code := ctx.Query("code")

	if code == "" {
		RespondBadRequest(ctx, "Missing authorization code", nil)
		return
	}

	cctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	profile, err := h.google.FetchProfile(cctx, code)

	if err != nil {
		RespondUnAuthorized(ctx, "oauth_failed", "Could not verify Google account")
		return
	}

	safe, err := h.identity.ValidateOrCreateOAuthUser(cctx, profile.Email, profile.Name)

	if err != nil {
		RespondInternal(ctx, "Could not sign in with Google")
		return
	}

	res, err := h.identity.Login(safe)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, res)
}

func (h *AuthHandler) VerifyEmail(ctx *gin.Context) {
	token := ctx.Query("token")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.identity.VerifyEmail(cctx, token)

	if err != nil {
		switch {
		case errors.Is(err, service.ErrVerificationTokenInvalid):
			RespondBadRequest(ctx, "Verification token is invalid", gin.H{"code": "invalid_token"})
		case errors.Is(err, service.ErrVerificationTokenExpired):
			RespondError(ctx, http.StatusGone, "expired_token", "Verification token has expired", nil)
		default:
			RespondInternal(ctx, "Could not verify email")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"verified": true})
}
