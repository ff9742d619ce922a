package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these with %w so handlers can map to HTTP status codes
// without leaking infrastructure details.
var (
	ErrInvalidInput          = errors.New("all fields are required")
	ErrDuplicateAccount      = errors.New("account with this email already exists")
	ErrAccountNotFound       = errors.New("account not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidOrExpiredCode  = errors.New("invalid or expired verification code")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	ErrUnauthenticated       = errors.New("no auth token provided")
	ErrInvalidToken          = errors.New("invalid auth token")
)
