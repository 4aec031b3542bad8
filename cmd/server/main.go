package main

import (
	"context"
	"errors"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	rediscache "github.com/TStakhniuk/contacts-api/internal/adapters/cache/redis"
	handler "github.com/TStakhniuk/contacts-api/internal/adapters/handler/http"
	"github.com/TStakhniuk/contacts-api/internal/adapters/mail/smtp"
	redisratelimit "github.com/TStakhniuk/contacts-api/internal/adapters/ratelimit/redis"
	"github.com/TStakhniuk/contacts-api/internal/adapters/repository/postgres"
	"github.com/TStakhniuk/contacts-api/internal/adapters/storage/s3"
	"github.com/TStakhniuk/contacts-api/internal/config"
	"github.com/TStakhniuk/contacts-api/internal/core/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.RunMigrations(ctx, db); err != nil {
		return err
	}

	redisClient, err := rediscache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	mailer, err := smtp.NewMailer(smtp.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	})
	if err != nil {
		return err
	}

	storage, err := s3.NewStorage(ctx, s3.Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		Bucket:    cfg.S3.Bucket,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		PublicURL: cfg.S3.PublicURL,
	})
	if err != nil {
		return err
	}

	userRepo := postgres.NewUserRepository(db)
	authRepo := postgres.NewAuthRepository(db)
	contactRepo := postgres.NewContactRepository(db)

	userCache := rediscache.NewUserCache(redisClient, cfg.UserCacheTTL)
	listCache := rediscache.NewContactListCache(redisClient, cfg.ContactCacheTTL)
	limiter := redisratelimit.NewLimiter(redisClient)

	tokens := services.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.VerifyTokenTTL, cfg.ResetTokenTTL)
	authService := services.NewAuthService(userRepo, authRepo, userCache, tokens, logger)
	userService := services.NewUserService(userRepo, authRepo, userCache, tokens, mailer, storage, cfg.PublicBaseURL, logger)
	contactService := services.NewContactService(contactRepo, listCache, logger)

	h := handler.NewHandler(
		handler.NewAuthHandler(authService, userService),
		handler.NewUserHandler(userService),
		handler.NewContactHandler(contactService),
		handler.NewMiddleware(authService, userService, limiter, logger),
		logger,
		cfg.AllowedOrigins,
		map[string]handler.HealthCheck{
			"db":    db.PingContext,
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	)

	server := &stdhttp.Server{Addr: cfg.Addr, Handler: h}

	go func() {
		logger.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
