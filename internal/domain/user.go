package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the canonical account aggregate for the journal backend.
// It carries only credential and second-factor state; journal content lives
// in its own aggregate so auth flows never touch data they do not own.
type User struct {
	UserID          uuid.UUID
	FirstName       string
	LastName        string
	Email           string
	PhoneNumber     string
	PasswordHash    string
	TwoFactorSecret string
	TwoFAEnabled    bool
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// LoginAttempt records authentication outcomes for audit and lockout review.
// The explicit model keeps brute-force investigation deterministic.
type LoginAttempt struct {
	ID            int64
	UserID        *uuid.UUID
	AttemptAt     time.Time
	IPAddress     string
	Status        string
	FailureReason string
	UserAgent     string
}
