package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TStakhniuk/contacts-api/internal/core/domain"
)

func TestAuthenticatorInjectsUser(t *testing.T) {
	user := testUser()
	auth := &stubAuthService{verifyFn: func(token string) (uuid.UUID, error) {
		assert.Equal(t, "valid-token", token)
		return user.ID, nil
	}}
	users := &stubUserService{getFn: func(id uuid.UUID) (*domain.User, error) {
		assert.Equal(t, user.ID, id)
		return user, nil
	}}
	mw := NewMiddleware(auth, users, &stubLimiter{}, discardLogger())

	var got *domain.User
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = userFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	mw.Authenticator(inner).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, user.Email, got.Email)
}

func TestAuthenticatorMissingHeader(t *testing.T) {
	mw := NewMiddleware(&stubAuthService{}, &stubUserService{}, &stubLimiter{}, discardLogger())

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inner handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	rec := httptest.NewRecorder()

	mw.Authenticator(inner).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec).Code)
}

func TestAuthenticatorRejectsNonBearerScheme(t *testing.T) {
	mw := NewMiddleware(&stubAuthService{}, &stubUserService{}, &stubLimiter{}, discardLogger())

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inner handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()

	mw.Authenticator(inner).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatorExpiredToken(t *testing.T) {
	auth := &stubAuthService{verifyFn: func(string) (uuid.UUID, error) {
		return uuid.Nil, domain.ErrTokenExpired
	}}
	mw := NewMiddleware(auth, &stubUserService{}, &stubLimiter{}, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec := httptest.NewRecorder()

	mw.Authenticator(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("inner handler should not be called")
	})).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token_expired", decodeError(t, rec).Code)
}

func TestAuthenticatorDeletedAccount(t *testing.T) {
	auth := &stubAuthService{verifyFn: func(string) (uuid.UUID, error) {
		return uuid.New(), nil
	}}
	users := &stubUserService{getFn: func(uuid.UUID) (*domain.User, error) {
		return nil, domain.ErrUserNotFound
	}}
	mw := NewMiddleware(auth, users, &stubLimiter{}, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer orphaned")
	rec := httptest.NewRecorder()

	mw.Authenticator(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("inner handler should not be called")
	})).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec).Code)
}

func TestRateLimitAllowsWithinBudget(t *testing.T) {
	limiter := &stubLimiter{}
	mw := NewMiddleware(&stubAuthService{}, &stubUserService{}, limiter, discardLogger())
	user := testUser()

	called := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := requestWithUser(httptest.NewRequest(http.MethodPost, "/contacts", nil), user)
	rec := httptest.NewRecorder()

	mw.RateLimit("contacts:create", 5, time.Minute)(inner).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	require.Len(t, limiter.keys, 1)
	assert.Equal(t, "ratelimit:contacts:create:"+user.ID.String(), limiter.keys[0])
}

func TestRateLimitBlocksOverBudget(t *testing.T) {
	limiter := &stubLimiter{retryAfter: 42 * time.Second}
	mw := NewMiddleware(&stubAuthService{}, &stubUserService{}, limiter, discardLogger())

	req := requestWithUser(httptest.NewRequest(http.MethodPost, "/contacts", nil), testUser())
	rec := httptest.NewRecorder()

	mw.RateLimit("contacts:create", 5, time.Minute)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("inner handler should not be called")
	})).ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "42", rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", decodeError(t, rec).Code)
}

func TestRateLimitRoundsRetryAfterUp(t *testing.T) {
	limiter := &stubLimiter{retryAfter: 100 * time.Millisecond}
	mw := NewMiddleware(&stubAuthService{}, &stubUserService{}, limiter, discardLogger())

	req := requestWithUser(httptest.NewRequest(http.MethodGet, "/contacts", nil), testUser())
	rec := httptest.NewRecorder()

	mw.RateLimit("contacts:list", 20, time.Minute)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("inner handler should not be called")
	})).ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRateLimitFailsOpenOnLimiterError(t *testing.T) {
	limiter := &stubLimiter{err: assert.AnError}
	mw := NewMiddleware(&stubAuthService{}, &stubUserService{}, limiter, discardLogger())

	called := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := requestWithUser(httptest.NewRequest(http.MethodGet, "/contacts", nil), testUser())
	rec := httptest.NewRecorder()

	mw.RateLimit("contacts:list", 20, time.Minute)(inner).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestRateLimitRequiresAuthenticatedUser(t *testing.T) {
	mw := NewMiddleware(&stubAuthService{}, &stubUserService{}, &stubLimiter{}, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
	rec := httptest.NewRecorder()

	mw.RateLimit("contacts:list", 20, time.Minute)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("inner handler should not be called")
	})).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
