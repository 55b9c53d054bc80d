package amount_test

import (
	"errors"
	"testing"

	"github.com/ticketforge/foreman-bot/internal/amount"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		want  string
	}{
		{name: "zero", value: 0, want: "0"},
		{name: "below thousand", value: 999, want: "999"},
		{name: "exact thousand", value: 1_000, want: "1k"},
		{name: "quarter million", value: 250_000, want: "250k"},
		{name: "exact million", value: 1_000_000, want: "1m"},
		{name: "ten million", value: 10_000_000, want: "10m"},
		{name: "truncated million", value: 1_234_567, want: "1m"},
		{name: "half rounds to even", value: 2_500_000, want: "2m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := amount.Format(tt.value); got != tt.want {
				t.Errorf("Format(%d) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		want      int64
		wantError bool
	}{
		{name: "plain integer", text: "42", want: 42},
		{name: "thousands suffix", text: "250k", want: 250_000},
		{name: "millions suffix", text: "10m", want: 10_000_000},
		{name: "uppercase suffix", text: "5M", want: 5_000_000},
		{name: "fractional millions", text: "1.5m", want: 1_500_000},
		{name: "huge millions", text: "10000000m", want: 10_000_000_000_000},
		{name: "negative plain", text: "-100", want: -100},
		{name: "empty", text: "", wantError: true},
		{name: "suffix only", text: "m", wantError: true},
		{name: "garbage prefix", text: "abck", wantError: true},
		{name: "plain float rejected", text: "4.2", wantError: true},
		{name: "nan prefix rejected", text: "nanm", wantError: true},
		{name: "inf prefix rejected", text: "infm", wantError: true},
		{name: "signed inf prefix rejected", text: "+Infk", wantError: true},
		{name: "overflowing millions rejected", text: "1e300m", wantError: true},
		{name: "negative overflow rejected", text: "-1e300k", wantError: true},
		{name: "barely overflowing rejected", text: "9223372036854775807k", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := amount.Parse(tt.text)
			if tt.wantError {
				if !errors.Is(err, amount.ErrInvalidAmount) {
					t.Fatalf("Parse(%q) error = %v, want ErrInvalidAmount", tt.text, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.text, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

// The codec is intentionally lossy: formatting truncates precision that
// parsing cannot recover.
func TestRoundTripIsLossy(t *testing.T) {
	const original int64 = 1_234_567

	parsed, err := amount.Parse(amount.Format(original))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if parsed == original {
		t.Fatalf("round trip preserved %d exactly, expected truncation", original)
	}
	if parsed != 1_000_000 {
		t.Errorf("round trip = %d, want 1000000", parsed)
	}
}
