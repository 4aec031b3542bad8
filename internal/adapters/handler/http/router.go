package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

func NewHandler(
	authHandler *AuthHandler,
	userHandler *UserHandler,
	contactHandler *ContactHandler,
	mw *Middleware,
	logger *slog.Logger,
	allowedOrigins []string,
	checks map[string]HealthCheck,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, messageResponse{Message: "Contacts API"})
	})

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Error("health check failed", "dependency", name, "error", err)
				writeError(w, http.StatusServiceUnavailable, "unavailable", name+" unreachable")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Get("/verify-email", authHandler.VerifyEmail)
		r.Post("/resend-verification", authHandler.ResendVerification)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
		r.Post("/reset-password", authHandler.RequestPasswordReset)
		r.Post("/reset-password/confirm", authHandler.ConfirmPasswordReset)
	})

	r.Route("/contacts", func(r chi.Router) {
		r.Use(mw.Authenticator)
		r.With(mw.RateLimit("contacts:list", 20, time.Minute)).Get("/", contactHandler.List)
		r.With(mw.RateLimit("contacts:create", 5, time.Minute)).Post("/", contactHandler.Create)
		r.With(mw.RateLimit("contacts:search", 15, time.Minute)).Get("/search", contactHandler.Search)
		r.With(mw.RateLimit("contacts:birthdays", 10, time.Minute)).Get("/birthdays", contactHandler.UpcomingBirthdays)
		r.With(mw.RateLimit("contacts:get", 20, time.Minute)).Get("/{id}", contactHandler.Get)
		r.With(mw.RateLimit("contacts:update", 10, time.Minute)).Put("/{id}", contactHandler.Update)
		r.With(mw.RateLimit("contacts:delete", 10, time.Minute)).Delete("/{id}", contactHandler.Delete)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(mw.Authenticator)
		r.Get("/me", userHandler.GetMe)
		r.Patch("/avatar", userHandler.UpdateAvatar)
	})

	return r
}
