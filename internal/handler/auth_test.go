package handler_test

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/exam-reservation/internal/config"
	"github.com/iliyamo/exam-reservation/internal/handler"
	"github.com/iliyamo/exam-reservation/internal/middleware"
	"github.com/iliyamo/exam-reservation/internal/model"
	"github.com/iliyamo/exam-reservation/internal/repository"
	"github.com/iliyamo/exam-reservation/internal/utils"
)

type fakeUsers struct {
	mu    sync.Mutex
	users []model.User
}

func (f *fakeUsers) Create(_ context.Context, email, password string, superuser bool, cost int) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	u := model.User{ID: uint64(len(f.users) + 1), Email: email, PasswordHash: hash, IsSuperuser: superuser, IsActive: true}
	f.users = append(f.users, u)
	return u.ID, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

type fakeTokens struct {
	mu      sync.Mutex
	owner   map[string]uint64
	revoked map[string]bool
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{owner: map[string]uint64{}, revoked: map[string]bool{}}
}

func (f *fakeTokens) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owner[hash] = userID
	return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, ok := f.owner[hash]
	if !ok || f.revoked[hash] {
		return 0, sql.ErrNoRows
	}
	return uid, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[hash] = true
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, uid := range f.owner {
		if uid == userID {
			f.revoked[h] = true
		}
	}
	return nil
}

type authResponse struct {
	User struct {
		ID    uint64 `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
	Access struct {
		Token string `json:"token"`
	} `json:"access"`
	Refresh struct {
		Token string `json:"token"`
	} `json:"refresh"`
}

func newAuthAPI(t *testing.T) (*echo.Echo, *fakeUsers, *fakeTokens) {
	t.Helper()
	users, tokens := &fakeUsers{}, newFakeTokens()
	cfg := config.Config{JWTSecret: jwtSecret, AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: bcrypt.MinCost}
	h := handler.NewAuthHandler(cfg, users, tokens)

	e := echo.New()
	e.POST("/v1/auth/register", h.Register)
	e.POST("/v1/auth/login", h.Login)
	e.POST("/v1/auth/refresh", h.Refresh)
	e.POST("/v1/auth/logout", h.Logout)
	e.GET("/v1/me", h.Me, middleware.JWTAuth(jwtSecret))
	return e, users, tokens
}

func post(e *echo.Echo, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRegisterLoginRefreshLogout(t *testing.T) {
	e, _, _ := newAuthAPI(t)

	rec := post(e, "/v1/auth/register", "", `{"email":" Alice@Example.com ","password":"correct horse"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decode[authResponse](t, rec)
	assert.Equal(t, "alice@example.com", reg.User.Email)
	assert.Equal(t, model.RoleUser, reg.User.Role)

	rec = post(e, "/v1/auth/register", "", `{"email":"alice@example.com","password":"correct horse"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = post(e, "/v1/auth/login", "", `{"email":"alice@example.com","password":"wrong password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(e, "/v1/auth/login", "", `{"email":"alice@example.com","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[authResponse](t, rec)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+login.Access.Token)
	me := httptest.NewRecorder()
	e.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"role":"USER"`)

	rec = post(e, "/v1/auth/refresh", "", `{"refresh_token":"`+login.Refresh.Token+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := decode[authResponse](t, rec)
	assert.NotEqual(t, login.Refresh.Token, rotated.Refresh.Token)

	// the rotated-out token is dead
	rec = post(e, "/v1/auth/refresh", "", `{"refresh_token":"`+login.Refresh.Token+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(e, "/v1/auth/logout", rotated.Access.Token, `{}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = post(e, "/v1/auth/refresh", "", `{"refresh_token":"`+rotated.Refresh.Token+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	e, _, _ := newAuthAPI(t)
	assert.Equal(t, http.StatusBadRequest, post(e, "/v1/auth/register", "", `{"email":"","password":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(e, "/v1/auth/register", "", `{"email":"a@b.c","password":"short"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(e, "/v1/auth/logout", "", `{}`).Code)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	e, users, _ := newAuthAPI(t)
	_, err := users.Create(context.Background(), "bob@example.com", "correct horse", false, bcrypt.MinCost)
	require.NoError(t, err)
	users.users[0].IsActive = false

	rec := post(e, "/v1/auth/login", "", `{"email":"bob@example.com","password":"correct horse"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
