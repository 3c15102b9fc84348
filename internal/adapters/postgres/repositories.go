package postgres

import (
	"github.com/mindscribe/auth-service/internal/ports"
	"gorm.io/gorm"
)

// Repositories bundles all Postgres-backed ports for bootstrap wiring.
type Repositories struct {
	Users         ports.UserRepository
	Credentials   ports.CredentialRepository
	Recovery      ports.RecoveryRepository
	LoginAttempts ports.LoginAttemptRepository
	Journal       ports.JournalRepository
	Outbox        ports.OutboxRepository
	Idempotency   ports.IdempotencyRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:         &userRepository{db: db},
		Credentials:   &credentialRepository{db: db},
		Recovery:      &recoveryRepository{db: db},
		LoginAttempts: &loginAttemptRepository{db: db},
		Journal:       &journalRepository{db: db},
		Outbox:        &outboxRepository{db: db},
		Idempotency:   &idempotencyRepository{db: db},
	}
}
