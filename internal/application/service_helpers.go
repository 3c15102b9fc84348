package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/mindscribe/auth-service/internal/domain"
)

// normalizeEmail canonicalizes and validates email format before persistence
// and comparison. All lookups go through this so casing never splits accounts.
func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	return trimmed, nil
}

// hashToken stores one-way token fingerprints instead of raw secrets.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}

// hashRequest computes a deterministic request fingerprint for idempotency
// conflict detection.
func hashRequest(req any) string {
	raw, _ := json.Marshal(req)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// randomHex returns a cryptographically random hex token of bytesLen entropy.
func randomHex(bytesLen int) string {
	raw := make([]byte, bytesLen)
	_, _ = rand.Read(raw)
	return hex.EncodeToString(raw)
}

// enforceRateLimit counts every call against the key and rejects once the
// threshold is crossed inside the window. Unavailable state fails open; the
// limiter protects against abuse, it must not take logins down with Redis.
func (s *Service) enforceRateLimit(ctx context.Context, key string, threshold int, window time.Duration) error {
	if s.lockouts == nil || threshold <= 0 || window <= 0 {
		return nil
	}

	state, err := s.lockouts.Get(ctx, key)
	if err == nil && state.LockedUntil != nil && state.LockedUntil.After(s.nowFn()) {
		return domain.ErrRateLimited
	}

	if _, err := s.lockouts.RecordFailure(ctx, key, s.nowFn(), threshold, window); err != nil {
		s.warn(ctx, "rate_limit", "record rate-limit hit", err)
	}
	return nil
}

func (s *Service) warn(ctx context.Context, operation, msg string, err error) {
	slog.Default().WarnContext(ctx, msg,
		"layer", "application",
		"operation", operation,
		"outcome", "warning",
		"error", err,
	)
}
