package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Sup3r$ecret", false},
		{"valid minimal length", "Aa1!xx", false},
		{"valid with symbol class", "Aa1+bcdef", false},
		{"too short", "Aa1!x", true},
		{"too long", "Aa1!" + strings.Repeat("x", 125), true},
		{"missing upper", "sup3r$ecret", true},
		{"missing lower", "SUP3R$ECRET", true},
		{"missing digit", "Super$ecret", true},
		{"missing special", "Sup3rSecret", true},
		{"empty", "", true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePassword(tc.password)
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
