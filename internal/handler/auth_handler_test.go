package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylog-app/daylog-api/internal/middleware"
	"github.com/daylog-app/daylog-api/internal/models"
	"github.com/daylog-app/daylog-api/internal/service"
	"github.com/daylog-app/daylog-api/internal/token"
	"github.com/daylog-app/daylog-api/pkg/config"
	"github.com/daylog-app/daylog-api/pkg/hash"
)

type stubCredStore struct {
	user *models.User
}

func (s *stubCredStore) FindByLoginID(ctx context.Context, loginID string) (*models.User, error) {
	if s.user == nil || s.user.LoginID != loginID {
		return nil, sql.ErrNoRows
	}
	return s.user, nil
}

func (s *stubCredStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.user, nil
}

type stubLedger struct {
	records []*models.RefreshToken
}

func (s *stubLedger) Create(ctx context.Context, rec *models.RefreshToken) error {
	rec.ID = int64(len(s.records) + 1)
	rec.CreatedAt = time.Now().UTC().Add(time.Duration(rec.ID) * time.Millisecond)
	s.records = append(s.records, rec)
	return nil
}

func (s *stubLedger) FindLatestValid(ctx context.Context, userID int64) (*models.RefreshToken, error) {
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if rec.UserID == userID && rec.RevokedAt == nil && rec.ExpiresAt.After(time.Now().UTC()) {
			return rec, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubLedger) Revoke(ctx context.Context, id int64, revokedAt time.Time) error {
	for _, rec := range s.records {
		if rec.ID == id && rec.RevokedAt == nil {
			at := revokedAt
			rec.RevokedAt = &at
		}
	}
	return nil
}

func newAuthRouter(t *testing.T) (*gin.Engine, *stubLedger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	passwordHash, err := hash.NewArgon2().Hash("Abc123!@")
	require.NoError(t, err)
	store := &stubCredStore{user: &models.User{ID: 1, LoginID: "user123", Nickname: "tester", PasswordHash: passwordHash, Status: models.StatusActive}}
	ledger := &stubLedger{}

	codec := token.NewCodec(config.JWTConfig{
		Secret:        "test-secret",
		Issuer:        "http://localhost:8080",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
	})
	svc := service.NewAuthService(store, ledger, hash.NewArgon2(), codec, nil, nil)
	h := NewAuthHandler(svc, false)

	r := gin.New()
	api := r.Group("/api/user")
	api.POST("/login", h.Login)
	api.POST("/refresh", h.Refresh)
	api.POST("/logout", h.Logout)
	api.GET("/me", middleware.JWT(codec, nil), h.Me)
	return r, ledger
}

func doLogin(t *testing.T, router *gin.Engine) (*http.Cookie, string) {
	t.Helper()
	body := `{"login_id":"user123","password":"Abc123!@"}`
	req := httptest.NewRequest(http.MethodPost, "/api/user/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.AccessToken)

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == RefreshCookieName {
			return cookie, envelope.Data.AccessToken
		}
	}
	t.Fatal("refresh cookie not set")
	return nil, ""
}

func TestLoginSetsRefreshCookie(t *testing.T) {
	router, _ := newAuthRouter(t)

	cookie, _ := doLogin(t, router)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.NotEmpty(t, cookie.Value)
	assert.Greater(t, cookie.MaxAge, 0)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	router, _ := newAuthRouter(t)

	body := `{"login_id":"user123","password":"wrong-password"}`
	req := httptest.NewRequest(http.MethodPost, "/api/user/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid login id or password")
	assert.Empty(t, w.Result().Cookies())
}

func TestRefreshUsesCookie(t *testing.T) {
	router, _ := newAuthRouter(t)
	cookie, _ := doLogin(t, router)

	req := httptest.NewRequest(http.MethodPost, "/api/user/refresh", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "access_token")
}

func TestRefreshWithoutCookie(t *testing.T) {
	router, _ := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/user/refresh", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "refresh token required")
}

func TestLogoutClearsCookieAndRevokes(t *testing.T) {
	router, ledger := newAuthRouter(t)
	cookie, _ := doLogin(t, router)

	req := httptest.NewRequest(http.MethodPost, "/api/user/logout", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, ledger.records, 1)
	assert.NotNil(t, ledger.records[0].RevokedAt)

	var cleared *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == RefreshCookieName {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	// The revoked session can no longer refresh.
	req = httptest.NewRequest(http.MethodPost, "/api/user/refresh", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutWithoutCookie(t *testing.T) {
	router, _ := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/user/logout", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMeRequiresBearerToken(t *testing.T) {
	router, _ := newAuthRouter(t)
	_, accessToken := doLogin(t, router)

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":1`)
}
