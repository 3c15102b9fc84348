package domain

import (
	"fmt"
	"strings"
)

// ValidatePhoneNumber checks E.164 shape: a leading plus, a non-zero country
// code digit, and 8 to 15 digits total. No further normalization is applied;
// uniqueness is enforced on the number exactly as accepted here.
func ValidatePhoneNumber(phone string) error {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return fmt.Errorf("%w: phone number is required", ErrInvalidInput)
	}
	if !strings.HasPrefix(trimmed, "+") {
		return fmt.Errorf("%w: phone number must be in E.164 format", ErrInvalidInput)
	}
	digits := trimmed[1:]
	if len(digits) < 8 || len(digits) > 15 {
		return fmt.Errorf("%w: phone number must be in E.164 format", ErrInvalidInput)
	}
	if digits[0] == '0' {
		return fmt.Errorf("%w: phone number must be in E.164 format", ErrInvalidInput)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: phone number must be in E.164 format", ErrInvalidInput)
		}
	}
	return nil
}
