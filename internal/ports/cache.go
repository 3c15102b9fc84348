package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LockoutState is the current lockout envelope for a login key.
// It is cache-backed to avoid hot writes on the user row for every bad password.
// A LockedUntil in the past means not locked; readers must treat stale
// timestamps as expired rather than blocked.
type LockoutState struct {
	FailedCount int
	LockedUntil *time.Time
}

// LockoutStore handles short-lived brute-force protection state. The same
// counter mechanics back the per-client login rate limiter.
type LockoutStore interface {
	Get(ctx context.Context, key string) (LockoutState, error)
	RecordFailure(ctx context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (LockoutState, error)
	Clear(ctx context.Context, key string) error
}

// OTPChallenge marks a login that passed the password check and is waiting
// for its one-time code. The code itself is never stored; verification
// re-derives it from the user's persisted secret.
type OTPChallenge struct {
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// OTPChallengeStore persists short-lived OTP-pending markers.
type OTPChallengeStore interface {
	Put(ctx context.Context, userID uuid.UUID, challenge OTPChallenge, ttl time.Duration) error
	Get(ctx context.Context, userID uuid.UUID) (*OTPChallenge, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}
