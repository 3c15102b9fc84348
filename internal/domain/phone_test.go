package domain

import (
	"errors"
	"testing"
)

func TestValidatePhoneNumber(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		phone   string
		wantErr bool
	}{
		{"valid us", "+15551234567", false},
		{"valid short country code", "+4915112345678", false},
		{"valid minimum digits", "+12345678", false},
		{"valid maximum digits", "+123456789012345", false},
		{"surrounding whitespace accepted", "  +15551234567  ", false},
		{"missing plus", "15551234567", true},
		{"leading zero country code", "+05551234567", true},
		{"too few digits", "+1234567", true},
		{"too many digits", "+1234567890123456", true},
		{"letters", "+1555abc4567", true},
		{"internal spaces", "+1 555 123 4567", true},
		{"empty", "", true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePhoneNumber(tc.phone)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("want ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
