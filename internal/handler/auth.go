package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-reservation/internal/config"
	"github.com/iliyamo/exam-reservation/internal/logging"
	"github.com/iliyamo/exam-reservation/internal/model"
	"github.com/iliyamo/exam-reservation/internal/repository"
	"github.com/iliyamo/exam-reservation/internal/utils"
)

// UserStore is the subset of repository.UserRepo the auth endpoints use.
type UserStore interface {
	Create(ctx context.Context, email, password string, superuser bool, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore is the subset of repository.TokenRepo the auth endpoints use.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

const authTimeout = 5 * time.Second

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

const minPasswordLen = 8

func bindCredentials(c echo.Context) (credentialsReq, bool) {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return req, false
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	return req, req.Email != "" && req.Password != ""
}

// issue creates an access/refresh pair for u and stores the refresh hash.
func (h *AuthHandler) issue(ctx context.Context, u model.User) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role(), h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    userPart{ID: u.ID, Email: u.Email, Role: u.Role()},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}

func (h *AuthHandler) fail(c echo.Context, msg string, err error) error {
	ctx := c.Request().Context()
	logging.Or(ctx, nil).ErrorContext(ctx, msg, "path", c.Path(), "error", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}

// Register creates a regular user and returns a token pair. Superusers are
// only created by the bootstrap at startup.
func (h *AuthHandler) Register(c echo.Context) error {
	req, ok := bindCredentials(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	if len(req.Password) < minPasswordLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, false, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return h.fail(c, "create user failed", err)
	}
	resp, err := h.issue(ctx, model.User{ID: uid, Email: req.Email})
	if err != nil {
		return h.fail(c, "issue tokens failed", err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	req, ok := bindCredentials(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return h.fail(c, "query failed", err)
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return h.fail(c, "issue tokens failed", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return h.fail(c, "revoke refresh failed", err)
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil || !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return h.fail(c, "issue tokens failed", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes one session when a refresh_token is posted, otherwise all
// sessions of the bearer.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refresh := strings.TrimSpace(req.RefreshToken)

	var (
		uid       uint64
		hasBearer bool
	)
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		if claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
			uid, hasBearer = claims.UserID, true
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	switch {
	case refresh != "":
		hash := utils.HashRefreshRaw(refresh)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return h.fail(c, "logout failed", err)
		}
	case hasBearer:
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return h.fail(c, "logout failed", err)
		}
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the identity carried by the access token.
func (h *AuthHandler) Me(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return writeError(c, err)
	}
	role := model.RoleUser
	if actor.Superuser {
		role = model.RoleSuperuser
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": actor.UserID, "role": role})
}
