// Package totp implements RFC 6238 time-based one-time passwords over the
// RFC 4226 HOTP construction. Codes are six digits on a 30-second step and
// verification tolerates one step of clock drift in either direction.
package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	secretBytes   = 20
	defaultDigits = 6
	defaultPeriod = 30
	defaultSkew   = 1
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Engine derives and verifies time-stepped codes from a shared secret.
type Engine struct {
	Issuer string
	Digits int
	Period int
	Skew   int
}

// NewEngine returns an engine with the standard 6-digit, 30-second, ±1 step
// parameters.
func NewEngine(issuer string) *Engine {
	return &Engine{
		Issuer: issuer,
		Digits: defaultDigits,
		Period: defaultPeriod,
		Skew:   defaultSkew,
	}
}

// GenerateSecret mints a fresh 160-bit secret and its base32 encoding.
// The encoded form is what gets persisted and provisioned; it is generated
// once per account and never rotated.
func GenerateSecret() (string, error) {
	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return b32.EncodeToString(raw), nil
}

// Code returns the code for the step containing now.
func (e *Engine) Code(secretBase32 string, now time.Time) (string, error) {
	secret, err := decodeSecret(secretBase32)
	if err != nil {
		return "", err
	}
	counter := now.Unix() / int64(e.Period)
	return hotpCode(secret, counter, e.Digits), nil
}

// Verify reports whether code matches the current step or one step on either
// side. Comparison is constant-time per candidate step.
func (e *Engine) Verify(secretBase32, code string, now time.Time) (bool, error) {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) != e.Digits || !isNumeric(trimmed) {
		return false, nil
	}

	secret, err := decodeSecret(secretBase32)
	if err != nil {
		return false, err
	}

	baseCounter := now.Unix() / int64(e.Period)
	for step := -e.Skew; step <= e.Skew; step++ {
		counter := baseCounter + int64(step)
		if counter < 0 {
			continue
		}
		generated := hotpCode(secret, counter, e.Digits)
		if subtle.ConstantTimeCompare([]byte(generated), []byte(trimmed)) == 1 {
			return true, nil
		}
	}
	return false, nil
}

// ProvisionURI renders the otpauth:// URI consumed by authenticator apps.
func (e *Engine) ProvisionURI(secretBase32, account string) string {
	label := url.PathEscape(e.Issuer + ":" + account)

	v := url.Values{}
	v.Set("secret", secretBase32)
	v.Set("issuer", e.Issuer)
	v.Set("period", strconv.Itoa(e.Period))
	v.Set("digits", strconv.Itoa(e.Digits))
	v.Set("algorithm", "SHA1")

	return "otpauth://totp/" + label + "?" + v.Encode()
}

func decodeSecret(secretBase32 string) ([]byte, error) {
	cleaned := strings.ToUpper(strings.TrimRight(strings.TrimSpace(secretBase32), "="))
	if cleaned == "" {
		return nil, errors.New("empty totp secret")
	}
	secret, err := b32.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode totp secret: %w", err)
	}
	return secret, nil
}

func hotpCode(secret []byte, counter int64, digits int) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, bin%mod)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
