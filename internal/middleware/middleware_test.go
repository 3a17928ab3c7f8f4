package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cinereview/backend/internal/auth"
	"github.com/cinereview/backend/internal/models"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

func newTokenRouter(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	jwtService := auth.NewJWTService("test-secret", 1)
	r := gin.New()
	protected := r.Group("/", AuthMiddleware(jwtService))
	protected.GET("/whoami", func(c *gin.Context) {
		id := Identity(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id.UserID, "role": id.Role})
	})
	protected.GET("/mod", RequireRole(models.RoleModerator), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, jwtService
}

func TestAuthMiddleware(t *testing.T) {
	r, jwtService := newTokenRouter(t)
	member, err := jwtService.GenerateToken("u1", models.RoleMember)
	require.NoError(t, err)
	moderator, err := jwtService.GenerateToken("mod1", models.RoleModerator)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no header", "/whoami", "", http.StatusUnauthorized},
		{"wrong scheme", "/whoami", "Basic " + member, http.StatusUnauthorized},
		{"garbage token", "/whoami", "Bearer not.a.token", http.StatusUnauthorized},
		{"valid member", "/whoami", "Bearer " + member, http.StatusOK},
		{"lowercase scheme", "/whoami", "bearer " + member, http.StatusOK},
		{"member on moderator route", "/mod", "Bearer " + member, http.StatusForbidden},
		{"moderator on moderator route", "/mod", "Bearer " + moderator, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAuthMiddleware_SetsIdentity(t *testing.T) {
	r, jwtService := newTokenRouter(t)
	token, err := jwtService.GenerateToken("u42", models.RoleCritic)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"u42","role":"critic"}`, w.Body.String())
}

func TestRequireRole_ForbiddenBody(t *testing.T) {
	r, jwtService := newTokenRouter(t)
	critic, err := jwtService.GenerateToken("c1", models.RoleCritic)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/mod", nil)
	req.Header.Set("Authorization", "Bearer "+critic)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"only moderators can access this resource"}`, w.Body.String())
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:3000"}))
	r.GET("/movies", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/movies", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/movies", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-7", w.Header().Get(RequestIDHeader))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, "req-7", entries[1].ContextMap()["request_id"])
}

func TestRateLimiter_LocalBuckets(t *testing.T) {
	rl := NewRateLimiter(1, nil, nil)
	r := gin.New()
	r.POST("/auth/login", RateLimitMiddleware(rl, "login"), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := []int{}
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	// burst is twice the rate
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "other clients have their own bucket")
}

type fakeShared struct {
	allow bool
	err   error
	calls int
}

func (f *fakeShared) AllowAction(ctx context.Context, key, action string, rate int, burst int) (bool, error) {
	f.calls++
	return f.allow, f.err
}

func TestRateLimiter_SharedAndFallback(t *testing.T) {
	ctx := context.Background()

	denying := &fakeShared{allow: false}
	assert.False(t, NewRateLimiter(5, denying, nil).Allow(ctx, "u1", "login"))
	assert.Equal(t, 1, denying.calls)

	broken := &fakeShared{err: errors.New("redis down")}
	rl := NewRateLimiter(5, broken, nil)
	assert.True(t, rl.Allow(ctx, "u1", "login"), "falls back to the local bucket")
}

func TestRateLimiter_PruneAndCleanup(t *testing.T) {
	rl := NewRateLimiter(5, nil, nil)
	rl.getLimiter("a")
	rl.getLimiter("b")
	rl.mu.Lock()
	rl.limiters["a"].lastSeen = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	assert.Equal(t, 1, rl.Prune(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	rl.Cleanup(ctx, 10*time.Millisecond)
	cancel()
}
