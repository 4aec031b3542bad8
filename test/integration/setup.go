package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	rediscache "github.com/TStakhniuk/contacts-api/internal/adapters/cache/redis"
	handler "github.com/TStakhniuk/contacts-api/internal/adapters/handler/http"
	redisratelimit "github.com/TStakhniuk/contacts-api/internal/adapters/ratelimit/redis"
	repo "github.com/TStakhniuk/contacts-api/internal/adapters/repository/postgres"
	"github.com/TStakhniuk/contacts-api/internal/core/services"
)

const testJWTSecret = "integration-test-secret"

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

func setupRedisContainer(ctx context.Context) (testcontainers.Container, string, error) {
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to start redis container: %w", err)
	}

	host, err := redisContainer.Host(ctx)
	if err != nil {
		return nil, "", err
	}
	port, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		return nil, "", err
	}

	return redisContainer, fmt.Sprintf("%s:%s", host, port.Port()), nil
}

type capturedMail struct {
	kind string
	to   string
	link string
}

// capturingMailer satisfies the mail port and hands the generated links
// to the test instead of an SMTP server.
type capturingMailer struct {
	mails chan capturedMail
}

func newCapturingMailer() *capturingMailer {
	return &capturingMailer{mails: make(chan capturedMail, 8)}
}

func (m *capturingMailer) SendVerification(_ context.Context, to, _, link string) error {
	m.mails <- capturedMail{kind: "verification", to: to, link: link}
	return nil
}

func (m *capturingMailer) SendPasswordReset(_ context.Context, to, _, link string) error {
	m.mails <- capturedMail{kind: "reset", to: to, link: link}
	return nil
}

// waitForMail blocks until a mail is dispatched. Mail sending runs on
// its own goroutine, so the HTTP response can arrive first.
func (m *capturingMailer) waitForMail(t *testing.T) capturedMail {
	t.Helper()
	select {
	case mail := <-m.mails:
		return mail
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for email")
		return capturedMail{}
	}
}

type memoryStorage struct{}

func (memoryStorage) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	return "https://files.local/" + key, nil
}

type TestApp struct {
	DB             *sql.DB
	Redis          *goredis.Client
	Server         *httptest.Server
	Client         *http.Client
	Mailer         *capturingMailer
	DBContainer    testcontainers.Container
	RedisContainer testcontainers.Container
}

func setupTestApp(t *testing.T) *TestApp {
	ctx := context.Background()

	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	redisContainer, redisAddr, err := setupRedisContainer(ctx)
	require.NoError(t, err)

	db, err := repo.Open(ctx, dbURL)
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations(ctx, db))

	redisClient, err := rediscache.NewClient(ctx, redisAddr, "", 0)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mailer := newCapturingMailer()

	userRepo := repo.NewUserRepository(db)
	authRepo := repo.NewAuthRepository(db)
	contactRepo := repo.NewContactRepository(db)

	userCache := rediscache.NewUserCache(redisClient, 15*time.Minute)
	listCache := rediscache.NewContactListCache(redisClient, 10*time.Minute)
	limiter := redisratelimit.NewLimiter(redisClient)

	tokens := services.NewTokenManager(testJWTSecret, 30*time.Minute, 7*24*time.Hour, 24*time.Hour, time.Hour)
	authService := services.NewAuthService(userRepo, authRepo, userCache, tokens, logger)
	userService := services.NewUserService(userRepo, authRepo, userCache, tokens, mailer, memoryStorage{}, "http://api.test", logger)
	contactService := services.NewContactService(contactRepo, listCache, logger)

	router := handler.NewHandler(
		handler.NewAuthHandler(authService, userService),
		handler.NewUserHandler(userService),
		handler.NewContactHandler(contactService),
		handler.NewMiddleware(authService, userService, limiter, logger),
		logger,
		[]string{"*"},
		map[string]handler.HealthCheck{
			"db":    db.PingContext,
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	)

	server := httptest.NewServer(router)

	return &TestApp{
		DB:             db,
		Redis:          redisClient,
		Server:         server,
		Client:         server.Client(),
		Mailer:         mailer,
		DBContainer:    dbContainer,
		RedisContainer: redisContainer,
	}
}

func (app *TestApp) Teardown(t *testing.T) {
	app.Server.Close()
	app.Redis.Close()
	app.DB.Close()
	if err := app.DBContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate postgres container: %v", err)
	}
	if err := app.RedisContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate redis container: %v", err)
	}
}

// request performs a JSON API call, attaching the bearer token when one
// is given. The caller owns the response body.
func (app *TestApp) request(t *testing.T, method, path, token string, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, app.Server.URL+path, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// signupVerifiedUser walks a fresh account through signup, email
// verification and login, returning the issued session pair.
func (app *TestApp) signupVerifiedUser(t *testing.T, username, email, password string) tokenPair {
	t.Helper()

	resp := app.request(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	mail := app.Mailer.waitForMail(t)
	require.Equal(t, "verification", mail.kind)

	resp = app.request(t, http.MethodGet, "/auth/verify-email?token="+url.QueryEscape(tokenFromLink(t, mail.link)), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = app.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pair tokenPair
	decodeBody(t, resp, &pair)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	return pair
}
