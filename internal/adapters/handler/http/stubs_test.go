package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/TStakhniuk/contacts-api/internal/core/domain"
)

type stubAuthService struct {
	loginFn   func(email, password string) (*domain.TokenPair, error)
	refreshFn func(token string) (*domain.TokenPair, error)
	logoutFn  func(token string) error
	verifyFn  func(token string) (uuid.UUID, error)
}

func (s *stubAuthService) Login(_ context.Context, email, password string) (*domain.TokenPair, error) {
	return s.loginFn(email, password)
}

func (s *stubAuthService) Refresh(_ context.Context, token string) (*domain.TokenPair, error) {
	return s.refreshFn(token)
}

func (s *stubAuthService) Logout(_ context.Context, token string) error {
	return s.logoutFn(token)
}

func (s *stubAuthService) VerifyAccessToken(token string) (uuid.UUID, error) {
	return s.verifyFn(token)
}

type stubUserService struct {
	signupFn  func(username, email, password string) (*domain.User, error)
	verifyFn  func(token string) error
	resendFn  func(email string) error
	requestFn func(email string) error
	confirmFn func(token, newPassword string) error
	getFn     func(id uuid.UUID) (*domain.User, error)
	avatarFn  func(userID uuid.UUID, filename, contentType string, file io.Reader, size int64) (*domain.User, error)
}

func (s *stubUserService) Signup(_ context.Context, username, email, password string) (*domain.User, error) {
	return s.signupFn(username, email, password)
}

func (s *stubUserService) VerifyEmail(_ context.Context, token string) error {
	return s.verifyFn(token)
}

func (s *stubUserService) ResendVerification(_ context.Context, email string) error {
	return s.resendFn(email)
}

func (s *stubUserService) RequestPasswordReset(_ context.Context, email string) error {
	return s.requestFn(email)
}

func (s *stubUserService) ConfirmPasswordReset(_ context.Context, token, newPassword string) error {
	return s.confirmFn(token, newPassword)
}

func (s *stubUserService) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getFn(id)
}

func (s *stubUserService) UpdateAvatar(_ context.Context, userID uuid.UUID, filename, contentType string, file io.Reader, size int64) (*domain.User, error) {
	return s.avatarFn(userID, filename, contentType, file, size)
}

type stubContactService struct {
	createFn    func(userID uuid.UUID, contact *domain.Contact) (*domain.Contact, error)
	getFn       func(userID, contactID uuid.UUID) (*domain.Contact, error)
	listFn      func(userID uuid.UUID, limit, offset int) ([]domain.Contact, error)
	updateFn    func(userID, contactID uuid.UUID, patch domain.ContactPatch) (*domain.Contact, error)
	deleteFn    func(userID, contactID uuid.UUID) (*domain.Contact, error)
	searchFn    func(userID uuid.UUID, query string, limit, offset int) ([]domain.Contact, error)
	birthdaysFn func(userID uuid.UUID) ([]domain.Contact, error)
}

func (s *stubContactService) Create(_ context.Context, userID uuid.UUID, contact *domain.Contact) (*domain.Contact, error) {
	return s.createFn(userID, contact)
}

func (s *stubContactService) Get(_ context.Context, userID, contactID uuid.UUID) (*domain.Contact, error) {
	return s.getFn(userID, contactID)
}

func (s *stubContactService) List(_ context.Context, userID uuid.UUID, limit, offset int) ([]domain.Contact, error) {
	return s.listFn(userID, limit, offset)
}

func (s *stubContactService) Update(_ context.Context, userID, contactID uuid.UUID, patch domain.ContactPatch) (*domain.Contact, error) {
	return s.updateFn(userID, contactID, patch)
}

func (s *stubContactService) Delete(_ context.Context, userID, contactID uuid.UUID) (*domain.Contact, error) {
	return s.deleteFn(userID, contactID)
}

func (s *stubContactService) Search(_ context.Context, userID uuid.UUID, query string, limit, offset int) ([]domain.Contact, error) {
	return s.searchFn(userID, query, limit, offset)
}

func (s *stubContactService) UpcomingBirthdays(_ context.Context, userID uuid.UUID) ([]domain.Contact, error) {
	return s.birthdaysFn(userID)
}

type stubLimiter struct {
	keys       []string
	retryAfter time.Duration
	err        error
}

func (s *stubLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (time.Duration, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return 0, s.err
	}
	return s.retryAfter, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testUser() *domain.User {
	return &domain.User{
		ID:        uuid.MustParse("3f1fc3f0-6a2b-4f5e-9b0a-44c1a3b0f00d"),
		Username:  "jane",
		Email:     "jane@example.com",
		Verified:  true,
		CreatedAt: time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

func requestWithUser(r *http.Request, user *domain.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), UserKey, user))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}
