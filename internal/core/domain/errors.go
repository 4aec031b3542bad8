package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrUsernameTaken      = errors.New("user with this username already exists")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrAlreadyVerified    = errors.New("email already verified")

	ErrContactNotFound = errors.New("contact not found")

	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
	ErrWrongPurpose = errors.New("token issued for a different purpose")

	ErrInvalidInput = errors.New("invalid input")
	ErrRateLimited  = errors.New("too many requests")

	ErrInternal = errors.New("internal server error")
)
