// Package application holds the auth service use cases. It depends only on
// domain types and ports; every external system is reached through an
// injected interface so the flows stay testable with in-memory fakes.
package application

import (
	"time"

	"github.com/mindscribe/auth-service/internal/ports"
	"github.com/mindscribe/auth-service/internal/totp"
)

type Service struct {
	cfg           Config
	users         ports.UserRepository
	credentials   ports.CredentialRepository
	recovery      ports.RecoveryRepository
	loginAttempts ports.LoginAttemptRepository
	journal       ports.JournalRepository
	outbox        ports.OutboxRepository
	idempotency   ports.IdempotencyRepository
	lockouts      ports.LockoutStore
	challenges    ports.OTPChallengeStore
	hasher        ports.PasswordHasher
	tokenSigner   ports.TokenSigner
	sms           ports.SMSSender
	email         ports.EmailSender
	otp           *totp.Engine
	nowFn         func() time.Time
}

type Dependencies struct {
	Config        Config
	Users         ports.UserRepository
	Credentials   ports.CredentialRepository
	Recovery      ports.RecoveryRepository
	LoginAttempts ports.LoginAttemptRepository
	Journal       ports.JournalRepository
	Outbox        ports.OutboxRepository
	Idempotency   ports.IdempotencyRepository
	Lockouts      ports.LockoutStore
	Challenges    ports.OTPChallengeStore
	Hasher        ports.PasswordHasher
	TokenSigner   ports.TokenSigner
	SMS           ports.SMSSender
	Email         ports.EmailSender
}

func NewService(deps Dependencies) *Service {
	return &Service{
		cfg:           deps.Config,
		users:         deps.Users,
		credentials:   deps.Credentials,
		recovery:      deps.Recovery,
		loginAttempts: deps.LoginAttempts,
		journal:       deps.Journal,
		outbox:        deps.Outbox,
		idempotency:   deps.Idempotency,
		lockouts:      deps.Lockouts,
		challenges:    deps.Challenges,
		hasher:        deps.Hasher,
		tokenSigner:   deps.TokenSigner,
		sms:           deps.SMS,
		email:         deps.Email,
		otp:           totp.NewEngine(deps.Config.TOTPIssuer),
		nowFn:         func() time.Time { return time.Now().UTC() },
	}
}
