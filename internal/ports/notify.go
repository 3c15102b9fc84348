package ports

import "context"

// SMSSender delivers one-time codes to a registered phone number.
// Errors are surfaced as dependency failures, distinct from credential errors.
type SMSSender interface {
	SendOTP(ctx context.Context, phoneNumber, code string) error
}

// EmailSender delivers password reset tokens out of band.
type EmailSender interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}
