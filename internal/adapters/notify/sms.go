// Package notify holds outbound messaging adapters. Delivery failures wrap
// domain.ErrDependencyFailed so the application can tell a gateway outage
// apart from a credential problem.
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

// HTTPSMSSender posts OTP messages to an SMS gateway's JSON API.
type HTTPSMSSender struct {
	client   *http.Client
	endpoint string
	apiKey   string
	from     string
}

func NewHTTPSMSSender(endpoint, apiKey, from string, timeout time.Duration) *HTTPSMSSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSMSSender{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		apiKey:   apiKey,
		from:     from,
	}
}

func (s *HTTPSMSSender) SendOTP(ctx context.Context, phoneNumber, code string) error {
	body, err := json.Marshal(map[string]string{
		"from": s.from,
		"to":   phoneNumber,
		"text": "Your verification code is " + code,
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
		return fmt.Errorf("%w: sms gateway: %v", domain.ErrDependencyFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: sms gateway returned %d", domain.ErrDependencyFailed, resp.StatusCode)
	}
	return nil
}

// LoggingSMSSender is the dev fallback when no gateway is configured.
// The code is NOT logged; only the fact of dispatch.
type LoggingSMSSender struct {
	logger *slog.Logger
}

func NewLoggingSMSSender(logger *slog.Logger) *LoggingSMSSender {
	return &LoggingSMSSender{logger: logger}
}

func (s *LoggingSMSSender) SendOTP(ctx context.Context, phoneNumber, _ string) error {
	s.logger.InfoContext(ctx, "otp sms dispatched",
		"module", "notify",
		"layer", "adapter",
		"operation", "send_otp",
		"outcome", "success",
		"phone_suffix", lastDigits(phoneNumber, 4),
	)
	return nil
}

func lastDigits(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
