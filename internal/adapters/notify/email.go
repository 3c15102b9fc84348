package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mindscribe/auth-service/internal/domain"
)

// HTTPEmailSender posts transactional mail to an email gateway's JSON API.
type HTTPEmailSender struct {
	client      *http.Client
	endpoint    string
	apiKey      string
	from        string
	resetURLFmt string
}

func NewHTTPEmailSender(endpoint, apiKey, from, resetURLFmt string, timeout time.Duration) *HTTPEmailSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPEmailSender{
		client:      &http.Client{Timeout: timeout},
		endpoint:    endpoint,
		apiKey:      apiKey,
		from:        from,
		resetURLFmt: resetURLFmt,
	}
}

func (s *HTTPEmailSender) SendPasswordReset(ctx context.Context, email, token string) error {
	link := fmt.Sprintf(s.resetURLFmt, token)
	body, err := json.Marshal(map[string]string{
		"from":    s.from,
		"to":      email,
		"subject": "Reset your password",
		"text":    "Use the following link within one hour to reset your password: " + link,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: email gateway: %v", domain.ErrDependencyFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: email gateway returned %d", domain.ErrDependencyFailed, resp.StatusCode)
	}
	return nil
}

// LoggingEmailSender is the dev fallback when no gateway is configured.
// The token never reaches the logs.
type LoggingEmailSender struct {
	logger *slog.Logger
}

func NewLoggingEmailSender(logger *slog.Logger) *LoggingEmailSender {
	return &LoggingEmailSender{logger: logger}
}

func (s *LoggingEmailSender) SendPasswordReset(ctx context.Context, email, _ string) error {
	s.logger.InfoContext(ctx, "password reset email dispatched",
		"module", "notify",
		"layer", "adapter",
		"operation", "send_password_reset",
		"outcome", "success",
		"email", email,
	)
	return nil
}
