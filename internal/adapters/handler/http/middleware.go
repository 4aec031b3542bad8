package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/TStakhniuk/contacts-api/internal/core/domain"
	"github.com/TStakhniuk/contacts-api/internal/core/ports"
)

type contextKey string

// UserKey holds the authenticated *domain.User placed by Authenticator.
const UserKey contextKey = "currentUser"

func userFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(UserKey).(*domain.User)
	return user, ok
}

// Middleware bundles the request plumbing shared by protected routes:
// bearer authentication and per-user rate limiting.
type Middleware struct {
	auth    ports.AuthService
	users   ports.UserService
	limiter ports.RateLimiter
	logger  *slog.Logger
}

func NewMiddleware(auth ports.AuthService, users ports.UserService, limiter ports.RateLimiter, logger *slog.Logger) *Middleware {
	return &Middleware{
		auth:    auth,
		users:   users,
		limiter: limiter,
		logger:  logger,
	}
}

// Authenticator resolves the bearer token to a user and stores it on
// the request context. The lookup goes through the cache-backed user
// service, so hot paths rarely touch the database.
func (m *Middleware) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		userID, err := m.auth.VerifyAccessToken(token)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		user, err := m.users.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				writeError(w, http.StatusUnauthorized, "unauthorized", "account no longer exists")
				return
			}
			writeDomainError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), UserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// RateLimit enforces a fixed-window request budget per authenticated
// user and route scope. A limiter outage fails open.
func (m *Middleware) RateLimit(scope string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing user context")
				return
			}

			key := fmt.Sprintf("ratelimit:%s:%s", scope, user.ID)
			retryAfter, err := m.limiter.Allow(r.Context(), key, limit, window)
			if err != nil {
				m.logger.Warn("rate limiter unavailable, allowing request", "scope", scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if retryAfter > 0 {
				seconds := int((retryAfter + time.Second - 1) / time.Second)
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				writeError(w, http.StatusTooManyRequests, "rate_limited", domain.ErrRateLimited.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger emits one structured log line per request.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
