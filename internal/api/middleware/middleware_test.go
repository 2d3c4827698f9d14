package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiContext "keyring/internal/api/context"
	"keyring/internal/platform/auth"
	"keyring/internal/platform/config"
	"keyring/internal/platform/models"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthMiddleware(t *testing.T) {
	tokenSvc := auth.NewTokenService(config.JWTConfig{Secret: "secret", AccessTokenTTL: time.Hour})
	mw := NewAuthMiddleware(tokenSvc)
	signed, err := tokenSvc.GenerateAccessToken(5, "alice", models.RoleCommonUser, "default")
	require.NoError(t, err)

	t.Run("Valid Token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rr := httptest.NewRecorder()

		mw.Handle(func(w http.ResponseWriter, r *http.Request) {
			claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
			if claims.UserID != 5 {
				t.Errorf("Expected user 5, got %d", claims.UserID)
			}
			w.WriteHeader(http.StatusOK)
		})(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	cases := map[string]string{
		"Missing Header": "",
		"Wrong Scheme":   "Basic abc",
		"Garbage Token":  "Bearer nope",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rr := httptest.NewRecorder()
			mw.Handle(func(w http.ResponseWriter, r *http.Request) {
				t.Error("Handler should not be called")
			})(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Contains(t, rr.Body.String(), `"success":false`)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	withRole := func(role int) *http.Request {
		req := httptest.NewRequest("GET", "/", nil)
		return req.WithContext(context.WithValue(req.Context(), apiContext.Claims, &auth.Claims{Role: role}))
	}

	rr := httptest.NewRecorder()
	RequireAdmin(okHandler)(rr, withRole(models.RoleCommonUser))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	RequireAdmin(okHandler)(rr, withRole(models.RoleAdminUser))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	RequireAdmin(okHandler)(rr, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{APIWritePerMinute: 2})
	defer rl.Stop()

	clock := time.Unix(1000, 0)
	rl.now = func() time.Time { return clock }

	assert.True(t, rl.Allow("k", 2))
	assert.True(t, rl.Allow("k", 2))
	assert.False(t, rl.Allow("k", 2))

	clock = clock.Add(30 * time.Second)
	assert.True(t, rl.Allow("k", 2))

	clock = clock.Add(time.Hour)
	rl.evictIdle(10 * time.Minute)
	_, ok := rl.store.Load("k")
	assert.False(t, ok)
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{APIWritePerMinute: 1})
	defer rl.Stop()
	handler := rl.Limit(LimitAPIWrite)(okHandler)

	req := httptest.NewRequest("POST", "/", nil)
	req.RemoteAddr = "10.1.1.1:5555"

	rr := httptest.NewRecorder()
	handler(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	other := httptest.NewRequest("POST", "/", nil)
	other.RemoteAddr = "10.1.1.2:5555"
	rr = httptest.NewRecorder()
	handler(rr, other)
	assert.Equal(t, http.StatusOK, rr.Code)
}
