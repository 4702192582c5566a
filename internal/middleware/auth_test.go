package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dairydesk/dairydesk-golang/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSessions is an in-memory auth.SessionStore.
type fakeSessions struct {
	revoked map[string]bool
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{revoked: make(map[string]bool)}
}

func (f *fakeSessions) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	f.revoked[token] = true
	return nil
}

func (f *fakeSessions) IsRevoked(ctx context.Context, token string) (bool, error) {
	return f.revoked[token], nil
}

func (f *fakeSessions) SetResetToken(ctx context.Context, token string, profileID int64, ttl time.Duration) error {
	return nil
}

func (f *fakeSessions) ConsumeResetToken(ctx context.Context, token string) (int64, error) {
	return 0, auth.ErrTokenNotFound
}

func setupRouter(t *testing.T, sessions auth.SessionStore) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	router := gin.New()
	router.GET("/secure", AuthMiddleware(db, sessions), func(c *gin.Context) {
		userID := c.MustGet("userID").(int64)
		c.JSON(http.StatusOK, gin.H{"userId": userID})
	})
	return router, mock
}

func TestAuthMiddlewareRequiresHeader(t *testing.T) {
	router, _ := setupRouter(t, newFakeSessions())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/secure", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareAllowsActiveProfile(t *testing.T) {
	router, mock := setupRouter(t, newFakeSessions())

	token, err := auth.GenerateToken(7)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM profiles WHERE id = ?")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("active"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":7`)
}

func TestAuthMiddlewareBlocksUnverifiedProfile(t *testing.T) {
	// A valid token is useless while the profile is unverified.
	router, mock := setupRouter(t, newFakeSessions())

	token, err := auth.GenerateToken(7)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM profiles WHERE id = ?")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("unverified"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareBlocksRevokedToken(t *testing.T) {
	sessions := newFakeSessions()
	router, _ := setupRouter(t, sessions)

	token, err := auth.GenerateToken(7)
	require.NoError(t, err)
	require.NoError(t, sessions.Revoke(context.Background(), token, time.Hour))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	router, _ := setupRouter(t, newFakeSessions())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/secure", nil)
	req.Header.Set("Authorization", "Token abc")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
