package application

import (
	"time"

	"github.com/google/uuid"
)

// Config carries the tunable auth policy knobs. Defaults are set by bootstrap;
// the zero value is not usable.
type Config struct {
	TOTPIssuer string

	FailedLoginThreshold int
	LockoutDuration      time.Duration

	LoginRateLimitThreshold int
	LoginRateLimitWindow    time.Duration

	TokenTTL       time.Duration
	OTPPendingTTL  time.Duration
	ResetTokenTTL  time.Duration
	IdempotencyTTL time.Duration
}

type RegisterRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	UserID  uuid.UUID `json:"userId"`
	Message string    `json:"message"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	// Caller metadata, filled by the transport layer.
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse never carries a bearer token. A successful password check only
// opens the OTP challenge; the token is minted by VerifyOTP.
type LoginResponse struct {
	UserID  uuid.UUID `json:"userId"`
	Message string    `json:"message"`
}

type VerifyOTPRequest struct {
	UserID string `json:"userId"`
	OTP    string `json:"otp"`
}

type VerifyOTPResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ForgotPasswordResponse struct {
	Message string `json:"message"`
}

type ResetPasswordRequest struct {
	UserID      string `json:"userId"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type ResetPasswordResponse struct {
	Message string `json:"message"`
}

type CreateJournalEntryRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Mood  string `json:"mood"`
}

type UpdateJournalEntryRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Mood  string `json:"mood"`
}

type JournalEntryResponse struct {
	EntryID   uuid.UUID `json:"entryId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Mood      string    `json:"mood"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
