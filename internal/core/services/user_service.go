package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TStakhniuk/contacts-api/internal/core/domain"
	"github.com/TStakhniuk/contacts-api/internal/core/ports"
)

const mailTimeout = 10 * time.Second

type UserService struct {
	userRepo      ports.UserRepository
	authRepo      ports.AuthRepository
	userCache     ports.UserCache
	tokens        *TokenManager
	mailer        ports.Mailer
	storage       ports.FileStorage
	publicBaseURL string
	logger        *slog.Logger
}

func NewUserService(
	userRepo ports.UserRepository,
	authRepo ports.AuthRepository,
	userCache ports.UserCache,
	tokens *TokenManager,
	mailer ports.Mailer,
	storage ports.FileStorage,
	publicBaseURL string,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		userRepo:      userRepo,
		authRepo:      authRepo,
		userCache:     userCache,
		tokens:        tokens,
		mailer:        mailer,
		storage:       storage,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

// Signup creates an unverified account and dispatches a verification
// email. The verification token itself is never returned to the caller.
func (s *UserService) Signup(ctx context.Context, username, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	existing, err = s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrUsernameTaken
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Verified:     false,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.issueVerification(ctx, user); err != nil {
		// The account exists; the user can ask for a resend.
		s.logger.Warn("failed to issue verification token on signup", "user_id", user.ID, "error", err)
	}

	return user, nil
}

// VerifyEmail redeems a verification token and activates the account.
// Tokens are single-use: the stored hash is cleared on success, so a
// second redemption fails as invalid.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.tokens.Validate(token, domain.PurposeVerifyEmail)
	if err != nil {
		return err
	}
	userID, err := claims.UserID()
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return domain.ErrInvalidToken
	}
	if user.VerificationTokenHash == "" || user.VerificationTokenHash != hashToken(token) {
		return domain.ErrInvalidToken
	}

	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to activate user: %w", err)
	}

	// A cached snapshot must never outlive a credential change, so an
	// invalidation failure here is an error, not a warning.
	if err := s.userCache.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to invalidate user cache: %w", err)
	}

	return nil
}

// ResendVerification issues a fresh verification token, invalidating
// any prior one. Unknown emails are not reported to the caller.
func (s *UserService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		s.logger.Info("verification resend requested for unknown email")
		return nil
	}
	if user.Verified {
		return domain.ErrAlreadyVerified
	}

	return s.issueVerification(ctx, user)
}

// RequestPasswordReset issues a reset token and emails it. Unknown
// emails are not reported to the caller.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		s.logger.Info("password reset requested for unknown email")
		return nil
	}

	token, _, err := s.tokens.Issue(user.ID, user.Email, domain.PurposeResetPassword)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	if err := s.userRepo.SetResetToken(ctx, user.ID, hashToken(token)); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	link := fmt.Sprintf("%s/auth/reset-password/confirm?token=%s", s.publicBaseURL, url.QueryEscape(token))
	s.dispatchMail(user, "reset", link)

	return nil
}

// ConfirmPasswordReset redeems a reset token, replaces the password,
// revokes all of the user's refresh tokens and drops any cached
// session state.
func (s *UserService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	claims, err := s.tokens.Validate(token, domain.PurposeResetPassword)
	if err != nil {
		return err
	}
	userID, err := claims.UserID()
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return domain.ErrInvalidToken
	}
	if user.ResetTokenHash == "" || user.ResetTokenHash != hashToken(token) {
		return domain.ErrInvalidToken
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.authRepo.RevokeUserRefreshTokens(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	if err := s.userCache.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to invalidate user cache: %w", err)
	}

	return nil
}

// GetByID resolves a user, consulting the cache first and falling
// through to the repository on a miss or cache failure.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	cached, err := s.userCache.Get(ctx, id)
	if err != nil {
		s.logger.Warn("user cache read failed", "user_id", id, "error", err)
	}
	if cached != nil {
		return cached, nil
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	if err := s.userCache.Set(ctx, user); err != nil {
		s.logger.Warn("failed to cache user", "user_id", id, "error", err)
	}

	return user, nil
}

// UpdateAvatar uploads the file to the image store, records the public
// URL on the user and refreshes the cached snapshot.
func (s *UserService) UpdateAvatar(ctx context.Context, userID uuid.UUID, filename, contentType string, file io.Reader, size int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	key := fmt.Sprintf("avatars/%s%s", userID, strings.ToLower(filepath.Ext(filename)))
	avatarURL, err := s.storage.Upload(ctx, key, contentType, file, size)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	if err := s.userRepo.UpdateAvatar(ctx, userID, avatarURL); err != nil {
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}
	user.AvatarURL = avatarURL

	if err := s.userCache.Set(ctx, user); err != nil {
		s.logger.Warn("failed to refresh cached user after avatar update", "user_id", userID, "error", err)
	}

	return user, nil
}

func (s *UserService) issueVerification(ctx context.Context, user *domain.User) error {
	token, _, err := s.tokens.Issue(user.ID, user.Email, domain.PurposeVerifyEmail)
	if err != nil {
		return fmt.Errorf("failed to generate verification token: %w", err)
	}
	if err := s.userRepo.SetVerificationToken(ctx, user.ID, hashToken(token)); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	link := fmt.Sprintf("%s/auth/verify-email?token=%s", s.publicBaseURL, url.QueryEscape(token))
	s.dispatchMail(user, "verification", link)

	return nil
}

// dispatchMail sends in the background so responses never wait on the
// mail transport. Failures degrade to a logged warning.
func (s *UserService) dispatchMail(user *domain.User, kind, link string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		var err error
		switch kind {
		case "verification":
			err = s.mailer.SendVerification(ctx, user.Email, user.Username, link)
		case "reset":
			err = s.mailer.SendPasswordReset(ctx, user.Email, user.Username, link)
		}
		if err != nil {
			s.logger.Warn("failed to send email", "kind", kind, "user_id", user.ID, "error", err)
		}
	}()
}
