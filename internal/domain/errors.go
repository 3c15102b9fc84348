package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain lets adapters map it consistently to 404.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidCredentials hides whether email or password failed.
	// The reason is to prevent account-enumeration side channels.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked signals temporary lockout after repeated failed attempts.
	ErrAccountLocked = errors.New("account locked")
	// ErrInvalidOTP covers a wrong, expired, or never-requested one-time code.
	// One sentinel for all three keeps the response generic.
	ErrInvalidOTP = errors.New("invalid otp")
	// ErrInvalidResetToken covers a wrong, expired, or already-used reset token.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	// ErrDependencyFailed marks an outbound SMS/email dispatch failure so the
	// caller can distinguish it from a credential failure.
	ErrDependencyFailed = errors.New("dependency unavailable")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
	ErrRateLimited      = errors.New("rate limited")
	ErrTokenExpired     = errors.New("token expired")
)
