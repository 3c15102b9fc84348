package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mindscribe/auth-service/internal/domain"
)

// CreateUserTxParams captures atomic user-creation inputs.
// The two-factor secret is part of creation because it is minted exactly once
// and never rotated afterwards.
type CreateUserTxParams struct {
	FirstName       string
	LastName        string
	Email           string
	PhoneNumber     string
	PasswordHash    string
	TwoFactorSecret string
	RegisteredAtUTC time.Time
}

// UserRepository defines persistence operations for user accounts.
// The transactional create method exists to enforce user+outbox consistency.
type UserRepository interface {
	CreateWithOutboxTx(ctx context.Context, params CreateUserTxParams, outboxEvent OutboxEvent) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (domain.User, error)
}

// CredentialRepository manages mutable credential state. Password hashes are
// written here and nowhere else, so hash-on-write stays a single code path.
type CredentialRepository interface {
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string, updatedAt time.Time) error
}

// RecoveryRepository owns the password reset token lifecycle. Replace/consume
// as separate methods keeps the one-token, one-use invariants explicit:
// issuing a new token invalidates any outstanding one, and consumption marks
// the row used inside the same transaction that matches it.
type RecoveryRepository interface {
	ReplacePasswordResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, createdAt, expiresAt time.Time) error
	ConsumePasswordResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, usedAt time.Time) error
}

// LoginAttemptRepository stores login outcomes used by audit and lockout review.
type LoginAttemptRepository interface {
	Insert(ctx context.Context, attempt domain.LoginAttempt) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LoginAttempt, error)
}

// JournalRepository persists owner-scoped journal entries.
type JournalRepository interface {
	Create(ctx context.Context, entry domain.JournalEntry) (domain.JournalEntry, error)
	GetByID(ctx context.Context, entryID uuid.UUID) (domain.JournalEntry, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.JournalEntry, error)
	Update(ctx context.Context, entry domain.JournalEntry) (domain.JournalEntry, error)
	Delete(ctx context.Context, entryID uuid.UUID) error
}

// OutboxEvent is the write-side event payload prior to storage.
// It is adapter-neutral to keep application code independent of broker specifics.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord represents durable outbox state, including retry/error metadata.
type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	LastErrorAt    *time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// OutboxRepository controls the publish-retry workflow for domain events.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}

// IdempotencyRecord tracks a previously accepted mutating request.
type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	Status       string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IdempotencyRepository enforces idempotent mutation semantics for registration.
type IdempotencyRepository interface {
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
}
