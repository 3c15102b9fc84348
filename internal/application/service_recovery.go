package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mindscribe/auth-service/internal/domain"
	"github.com/mindscribe/auth-service/internal/ports"
)

const forgotPasswordMessage = "if the email is registered, a reset link has been sent"

// RequestPasswordReset issues a single-use reset token and mails it out.
// The response is identical for known and unknown emails; existence is never
// disclosed through status, body, or error.
func (s *Service) RequestPasswordReset(ctx context.Context, req ForgotPasswordRequest) (ForgotPasswordResponse, error) {
	generic := ForgotPasswordResponse{Message: forgotPasswordMessage}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return generic, nil
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return generic, nil
	}

	token := randomHex(32)
	now := s.nowFn()
	if err := s.recovery.ReplacePasswordResetToken(ctx, user.UserID, hashToken(token), now, now.Add(s.cfg.ResetTokenTTL)); err != nil {
		s.warn(ctx, "forgot_password", "store reset token", err)
		return generic, nil
	}

	if err := s.email.SendPasswordReset(ctx, user.Email, token); err != nil {
		s.warn(ctx, "forgot_password", "dispatch reset email", err)
	}

	return generic, nil
}

// ResetPassword consumes a reset token and installs the new password hash.
// Token matching, expiry, and the used marker are all enforced by the
// repository in one transaction; any miss surfaces as the same generic error.
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) (ResetPasswordResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return ResetPasswordResponse{}, domain.ErrInvalidResetToken
	}
	if err := domain.ValidatePassword(req.NewPassword); err != nil {
		return ResetPasswordResponse{}, err
	}

	now := s.nowFn()
	if err := s.recovery.ConsumePasswordResetToken(ctx, userID, hashToken(req.Token), now); err != nil {
		return ResetPasswordResponse{}, domain.ErrInvalidResetToken
	}

	passwordHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return ResetPasswordResponse{}, fmt.Errorf("hash password: %w", err)
	}
	if err := s.credentials.UpdatePassword(ctx, userID, passwordHash, now); err != nil {
		return ResetPasswordResponse{}, fmt.Errorf("update password: %w", err)
	}

	if user, err := s.users.GetByID(ctx, userID); err == nil {
		if err := s.lockouts.Clear(ctx, lockoutKey(user.Email)); err != nil {
			s.warn(ctx, "reset_password", "clear lockout state", err)
		}
		if err := s.outbox.Enqueue(ctx, ports.OutboxEvent{
			EventID:      uuid.New(),
			EventType:    eventPasswordReset,
			PartitionKey: user.Email,
			Payload:      mustJSON(map[string]any{"user_id": user.UserID, "reset_at": now}),
			OccurredAt:   now,
		}); err != nil {
			s.warn(ctx, "reset_password", "enqueue event", err)
		}
	}

	return ResetPasswordResponse{Message: "password has been reset"}, nil
}
