package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the auth service.
// It merges file defaults and environment overrides to support both local and
// deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int

	DatabaseURL string
	RedisURL    string

	JWTPrivateKeyPEM  string
	JWTPublicKeyPEM   string
	JWTKeyID          string
	AllowEphemeralJWT bool

	BcryptCost int

	TOTPIssuer string

	TokenTTL        time.Duration
	OTPPendingTTL   time.Duration
	ResetTokenTTL   time.Duration
	IdempotencyTTL  time.Duration
	LockoutDuration time.Duration
	FailedThreshold int

	LoginRateLimitThreshold int
	LoginRateLimitWindow    time.Duration

	SMSGatewayURL    string
	SMSGatewayAPIKey string
	SMSSenderID      string

	EmailGatewayURL    string
	EmailGatewayAPIKey string
	EmailFromAddress   string
	ResetURLFormat     string

	KafkaBrokers []string

	MaxDBConns         int32
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration
	OutboxMaxRetries   int
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
	} `yaml:"dependencies"`
	Notify struct {
		SMSGatewayURL    string `yaml:"sms_gateway_url"`
		SMSSenderID      string `yaml:"sms_sender_id"`
		EmailGatewayURL  string `yaml:"email_gateway_url"`
		EmailFromAddress string `yaml:"email_from_address"`
		ResetURLFormat   string `yaml:"reset_url_format"`
	} `yaml:"notify"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific
// overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:               "mindscribe-auth",
		HTTPPort:                8080,
		JWTKeyID:                "auth-key-1",
		AllowEphemeralJWT:       true,
		BcryptCost:              12,
		TOTPIssuer:              "mindscribe",
		TokenTTL:                time.Hour,
		OTPPendingTTL:           10 * time.Minute,
		ResetTokenTTL:           time.Hour,
		IdempotencyTTL:          24 * time.Hour,
		LockoutDuration:         15 * time.Minute,
		FailedThreshold:         5,
		LoginRateLimitThreshold: 5,
		LoginRateLimitWindow:    15 * time.Minute,
		EmailFromAddress:        "noreply@mindscribe.app",
		ResetURLFormat:          "https://app.mindscribe.app/reset-password?token=%s",
		MaxDBConns:              20,
		OutboxPollInterval:      2 * time.Second,
		OutboxBatchSize:         100,
		OutboxClaimTTL:          30 * time.Second,
		OutboxMaxRetries:        5,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
		}
		if f.Notify.SMSGatewayURL != "" {
			cfg.SMSGatewayURL = f.Notify.SMSGatewayURL
		}
		if f.Notify.SMSSenderID != "" {
			cfg.SMSSenderID = f.Notify.SMSSenderID
		}
		if f.Notify.EmailGatewayURL != "" {
			cfg.EmailGatewayURL = f.Notify.EmailGatewayURL
		}
		if f.Notify.EmailFromAddress != "" {
			cfg.EmailFromAddress = f.Notify.EmailFromAddress
		}
		if f.Notify.ResetURLFormat != "" {
			cfg.ResetURLFormat = f.Notify.ResetURLFormat
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.JWTPrivateKeyPEM = envOrDefault("JWT_PRIVATE_KEY_PEM", cfg.JWTPrivateKeyPEM)
	cfg.JWTPublicKeyPEM = envOrDefault("JWT_PUBLIC_KEY_PEM", cfg.JWTPublicKeyPEM)
	cfg.JWTKeyID = envOrDefault("JWT_KEY_ID", cfg.JWTKeyID)
	cfg.AllowEphemeralJWT = envBool("JWT_ALLOW_EPHEMERAL", cfg.AllowEphemeralJWT)
	cfg.TOTPIssuer = envOrDefault("TOTP_ISSUER", cfg.TOTPIssuer)

	cfg.SMSGatewayURL = envOrDefault("SMS_GATEWAY_URL", cfg.SMSGatewayURL)
	cfg.SMSGatewayAPIKey = envOrDefault("SMS_GATEWAY_API_KEY", cfg.SMSGatewayAPIKey)
	cfg.SMSSenderID = envOrDefault("SMS_SENDER_ID", cfg.SMSSenderID)
	cfg.EmailGatewayURL = envOrDefault("EMAIL_GATEWAY_URL", cfg.EmailGatewayURL)
	cfg.EmailGatewayAPIKey = envOrDefault("EMAIL_GATEWAY_API_KEY", cfg.EmailGatewayAPIKey)
	cfg.EmailFromAddress = envOrDefault("EMAIL_FROM_ADDRESS", cfg.EmailFromAddress)
	cfg.ResetURLFormat = envOrDefault("RESET_URL_FORMAT", cfg.ResetURLFormat)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)
	cfg.FailedThreshold = envInt("FAILED_LOGIN_THRESHOLD", cfg.FailedThreshold)
	cfg.LoginRateLimitThreshold = envInt("LOGIN_RATE_LIMIT_THRESHOLD", cfg.LoginRateLimitThreshold)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.TokenTTL = time.Duration(envInt("TOKEN_EXPIRY_MINUTES", int(cfg.TokenTTL.Minutes()))) * time.Minute
	cfg.OTPPendingTTL = time.Duration(envInt("OTP_PENDING_MINUTES", int(cfg.OTPPendingTTL.Minutes()))) * time.Minute
	cfg.ResetTokenTTL = time.Duration(envInt("RESET_TOKEN_EXPIRY_MINUTES", int(cfg.ResetTokenTTL.Minutes()))) * time.Minute
	cfg.LockoutDuration = time.Duration(envInt("ACCOUNT_LOCKOUT_MINUTES", int(cfg.LockoutDuration.Minutes()))) * time.Minute
	cfg.LoginRateLimitWindow = time.Duration(envInt("LOGIN_RATE_LIMIT_WINDOW_MINUTES", int(cfg.LoginRateLimitWindow.Minutes()))) * time.Minute
	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxClaimTTL = time.Duration(envInt("OUTBOX_CLAIM_TTL_SECONDS", int(cfg.OutboxClaimTTL.Seconds()))) * time.Second
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if (cfg.JWTPrivateKeyPEM == "" || cfg.JWTPublicKeyPEM == "") && !cfg.AllowEphemeralJWT {
		return Config{}, fmt.Errorf("missing JWT_PRIVATE_KEY_PEM or JWT_PUBLIC_KEY_PEM")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envBool parses common boolean env forms while keeping a deterministic fallback.
func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
