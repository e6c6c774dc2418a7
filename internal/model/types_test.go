package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMidpoint(t *testing.T) {
	tests := []struct {
		name string
		bid  string
		ask  string
		want string
	}{
		{"simple", "0.2", "0.4", "0.3"},
		{"equal sides", "1.5", "1.5", "1.5"},
		{"zero bid", "0", "0.4", "0.2"},
		{"zero both", "0", "0", "0"},
		{"high precision", "1.08123", "1.08127", "1.08125"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bid := decimal.RequireFromString(tt.bid)
			ask := decimal.RequireFromString(tt.ask)
			want := decimal.RequireFromString(tt.want)

			got := Midpoint(bid, ask)
			if !got.Equal(want) {
				t.Errorf("Midpoint(%s, %s) = %s, want %s", tt.bid, tt.ask, got, want)
			}
		})
	}
}

func TestMidpointExactDecimal(t *testing.T) {
	// 0.2 and 0.4 have no exact binary representation; the decimal path
	// must still produce exactly 0.3.
	got := Midpoint(decimal.RequireFromString("0.2"), decimal.RequireFromString("0.4"))
	if got.String() != "0.3" {
		t.Errorf("Midpoint(0.2, 0.4).String() = %q, want %q", got.String(), "0.3")
	}
}
