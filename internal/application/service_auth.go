package application

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/mindscribe/auth-service/internal/domain"
	"github.com/mindscribe/auth-service/internal/ports"
	"github.com/mindscribe/auth-service/internal/totp"
)

const (
	eventUserRegistered = "auth.user.registered"
	eventPasswordReset  = "auth.password.reset"
	eventOTPRequired    = "auth.otp.required"
	eventAccountLocked  = "auth.account.locked"
)

// Register creates an account with a freshly minted two-factor secret.
// The user row and its registration event are written in one transaction so
// downstream consumers never observe a user without the event or vice versa.
func (s *Service) Register(ctx context.Context, req RegisterRequest, idempotencyKey string) (RegisterResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return RegisterResponse{}, err
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return RegisterResponse{}, fmt.Errorf("%w: first and last name are required", domain.ErrInvalidInput)
	}
	if err := domain.ValidatePhoneNumber(req.PhoneNumber); err != nil {
		return RegisterResponse{}, err
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return RegisterResponse{}, err
	}

	if idempotencyKey != "" {
		if err := s.idempotency.Reserve(ctx, idempotencyKey, hashRequest(req), s.nowFn().Add(s.cfg.IdempotencyTTL)); err != nil {
			return RegisterResponse{}, fmt.Errorf("%w: idempotency key already used", domain.ErrConflict)
		}
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("hash password: %w", err)
	}

	secret, err := totp.GenerateSecret()
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("generate two-factor secret: %w", err)
	}

	now := s.nowFn()
	user, err := s.users.CreateWithOutboxTx(ctx, ports.CreateUserTxParams{
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		Email:           email,
		PhoneNumber:     strings.TrimSpace(req.PhoneNumber),
		PasswordHash:    passwordHash,
		TwoFactorSecret: secret,
		RegisteredAtUTC: now,
	}, ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventUserRegistered,
		PartitionKey: email,
		Payload:      mustJSON(map[string]any{"email": email, "registered_at": now}),
		OccurredAt:   now,
	})
	if err != nil {
		return RegisterResponse{}, err
	}

	resp := RegisterResponse{UserID: user.UserID, Message: "registration successful"}
	if idempotencyKey != "" {
		body, _ := json.Marshal(resp)
		if err := s.idempotency.Complete(ctx, idempotencyKey, http.StatusCreated, body, s.nowFn()); err != nil {
			s.warn(ctx, "register", "persist idempotency result", err)
		}
	}
	return resp, nil
}

// Login runs the password stage of the two-step flow. A correct password does
// not authenticate; it opens a short-lived OTP challenge and dispatches the
// code over SMS. All credential failures collapse into ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	if err := s.enforceRateLimit(ctx, rateLimitKey(req.IPAddress), s.cfg.LoginRateLimitThreshold, s.cfg.LoginRateLimitWindow); err != nil {
		return LoginResponse{}, err
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return LoginResponse{}, domain.ErrInvalidCredentials
	}
	lockKey := lockoutKey(email)

	state, err := s.lockouts.Get(ctx, lockKey)
	if err != nil {
		s.warn(ctx, "login", "read lockout state", err)
	}
	if state.LockedUntil != nil && state.LockedUntil.After(s.nowFn()) {
		s.recordAttempt(ctx, nil, req, "LOCKED", "account locked")
		return LoginResponse{}, domain.ErrAccountLocked
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if s.registerFailure(ctx, nil, req, lockKey, "unknown email") {
			return LoginResponse{}, domain.ErrAccountLocked
		}
		return LoginResponse{}, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		if s.registerFailure(ctx, &user.UserID, req, lockKey, "inactive account") {
			return LoginResponse{}, domain.ErrAccountLocked
		}
		return LoginResponse{}, domain.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		if s.registerFailure(ctx, &user.UserID, req, lockKey, "wrong password") {
			return LoginResponse{}, domain.ErrAccountLocked
		}
		return LoginResponse{}, domain.ErrInvalidCredentials
	}

	if err := s.lockouts.Clear(ctx, lockKey); err != nil {
		s.warn(ctx, "login", "clear lockout state", err)
	}

	code, err := s.otp.Code(user.TwoFactorSecret, s.nowFn())
	if err != nil {
		return LoginResponse{}, fmt.Errorf("derive otp: %w", err)
	}
	if err := s.sms.SendOTP(ctx, user.PhoneNumber, code); err != nil {
		s.recordAttempt(ctx, &user.UserID, req, "FAILED", "sms dispatch failed")
		return LoginResponse{}, fmt.Errorf("%w: otp dispatch: %v", domain.ErrDependencyFailed, err)
	}

	if err := s.challenges.Put(ctx, user.UserID, ports.OTPChallenge{
		UserID:    user.UserID,
		ExpiresAt: s.nowFn().Add(s.cfg.OTPPendingTTL),
	}, s.cfg.OTPPendingTTL); err != nil {
		return LoginResponse{}, fmt.Errorf("store otp challenge: %w", err)
	}

	if err := s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventOTPRequired,
		PartitionKey: user.Email,
		Payload:      mustJSON(map[string]any{"user_id": user.UserID, "requested_at": s.nowFn()}),
		OccurredAt:   s.nowFn(),
	}); err != nil {
		s.warn(ctx, "login", "enqueue event", err)
	}

	s.recordAttempt(ctx, &user.UserID, req, "OTP_PENDING", "")
	return LoginResponse{UserID: user.UserID, Message: "OTP sent to registered phone number"}, nil
}

// VerifyOTP closes an open challenge and mints the bearer token.
// A wrong code leaves the challenge open; the pending window is the only
// bound on retries.
func (s *Service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (VerifyOTPResponse, error) {
	userID, err := uuid.Parse(strings.TrimSpace(req.UserID))
	if err != nil {
		return VerifyOTPResponse{}, fmt.Errorf("%w: malformed user id", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return VerifyOTPResponse{}, err
	}

	challenge, err := s.challenges.Get(ctx, userID)
	if err != nil {
		return VerifyOTPResponse{}, fmt.Errorf("read otp challenge: %w", err)
	}
	now := s.nowFn()
	if challenge == nil || challenge.ExpiresAt.Before(now) {
		return VerifyOTPResponse{}, domain.ErrInvalidOTP
	}

	ok, err := s.otp.Verify(user.TwoFactorSecret, req.OTP, now)
	if err != nil {
		return VerifyOTPResponse{}, fmt.Errorf("verify otp: %w", err)
	}
	if !ok {
		return VerifyOTPResponse{}, domain.ErrInvalidOTP
	}

	if err := s.challenges.Delete(ctx, userID); err != nil {
		s.warn(ctx, "verify_otp", "delete otp challenge", err)
	}

	token, err := s.tokenSigner.Sign(ports.AuthClaims{
		UserID:    user.UserID,
		Email:     user.Email,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.TokenTTL),
	})
	if err != nil {
		return VerifyOTPResponse{}, fmt.Errorf("sign token: %w", err)
	}

	return VerifyOTPResponse{Message: "authentication successful", Token: token}, nil
}

// ValidateToken verifies a bearer token and returns its claims.
func (s *Service) ValidateToken(token string) (ports.AuthClaims, error) {
	claims, err := s.tokenSigner.ParseAndValidate(strings.TrimSpace(token))
	if err != nil {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	if claims.ExpiresAt.Before(s.nowFn()) {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	return claims, nil
}

// registerFailure bumps the lockout counter and writes the audit row for a
// failed password stage. It reports whether this failure engaged the lock;
// the crossing attempt answers as locked rather than as a plain rejection.
func (s *Service) registerFailure(ctx context.Context, userID *uuid.UUID, req LoginRequest, lockKey, reason string) bool {
	state, err := s.lockouts.RecordFailure(ctx, lockKey, s.nowFn(), s.cfg.FailedLoginThreshold, s.cfg.LockoutDuration)
	if err != nil {
		s.warn(ctx, "login", "record lockout failure", err)
		s.recordAttempt(ctx, userID, req, "FAILED", reason)
		return false
	}

	locked := state.LockedUntil != nil && state.FailedCount == s.cfg.FailedLoginThreshold
	if locked {
		// Emit only on the failure that engaged the lock, not on later hits.
		if err := s.outbox.Enqueue(ctx, ports.OutboxEvent{
			EventID:      uuid.New(),
			EventType:    eventAccountLocked,
			PartitionKey: lockKey,
			Payload:      mustJSON(map[string]any{"locked_until": state.LockedUntil}),
			OccurredAt:   s.nowFn(),
		}); err != nil {
			s.warn(ctx, "login", "enqueue event", err)
		}
	}
	s.recordAttempt(ctx, userID, req, "FAILED", reason)
	return locked
}

func (s *Service) recordAttempt(ctx context.Context, userID *uuid.UUID, req LoginRequest, status, reason string) {
	if err := s.loginAttempts.Insert(ctx, domain.LoginAttempt{
		UserID:        userID,
		AttemptAt:     s.nowFn(),
		IPAddress:     req.IPAddress,
		Status:        status,
		FailureReason: reason,
		UserAgent:     req.UserAgent,
	}); err != nil {
		s.warn(ctx, "login", "persist login attempt", err)
	}
}

func rateLimitKey(ip string) string {
	return "ratelimit:login:" + strings.TrimSpace(ip)
}

func lockoutKey(email string) string {
	return "lockout:" + email
}

func mustJSON(v any) []byte {
	raw, _ := json.Marshal(v)
	return raw
}
