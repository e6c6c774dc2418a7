package crawler

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rateshub/rates-data/internal/model"
)

var knownAssets = []model.Asset{
	{ID: 1, Symbol: "EURUSD"},
	{ID: 2, Symbol: "USDJPY"},
}

func TestParsePayload(t *testing.T) {
	raw := []byte(`{"Rates":[{"Symbol":"EURUSD","Bid":0.2,"Ask":0.4}]}`)

	points, err := ParsePayload(raw, 1700000000, knownAssets)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("len(points) = %d, want 1", len(points))
	}

	p := points[0]
	if p.Asset.ID != 1 || p.Asset.Symbol != "EURUSD" {
		t.Errorf("Asset = %+v, want {1 EURUSD}", p.Asset)
	}
	if p.Timestamp != 1700000000 {
		t.Errorf("Timestamp = %d, want 1700000000", p.Timestamp)
	}
	if p.Value.String() != "0.3" {
		t.Errorf("Value = %s, want exactly 0.3", p.Value)
	}
}

func TestParsePayload_JSONPWrapper(t *testing.T) {
	raw := []byte("  null({\"Rates\":[{\"Symbol\":\"EURUSD\",\"Bid\":1.1,\"Ask\":1.3}]});\n")

	points, err := ParsePayload(raw, 42, knownAssets)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("len(points) = %d, want 1", len(points))
	}
	if !points[0].Value.Equal(decimal.RequireFromString("1.2")) {
		t.Errorf("Value = %s, want 1.2", points[0].Value)
	}
}

func TestParsePayload_UnknownSymbolSkipped(t *testing.T) {
	raw := []byte(`{"Rates":[
		{"Symbol":"XAUUSD","Bid":2000,"Ask":2001},
		{"Symbol":"USDJPY","Bid":150.1,"Ask":150.3}
	]}`)

	points, err := ParsePayload(raw, 1, knownAssets)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("len(points) = %d, want 1 (unknown symbol skipped)", len(points))
	}
	if points[0].Asset.Symbol != "USDJPY" {
		t.Errorf("Asset.Symbol = %q, want USDJPY", points[0].Asset.Symbol)
	}
	if !points[0].Value.Equal(decimal.RequireFromString("150.2")) {
		t.Errorf("Value = %s, want 150.2", points[0].Value)
	}
}

func TestParsePayload_MissingBidAsk(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"missing ask", `{"Rates":[{"Symbol":"EURUSD","Bid":0.4}]}`, "0.2"},
		{"missing bid", `{"Rates":[{"Symbol":"EURUSD","Ask":0.4}]}`, "0.2"},
		{"missing both", `{"Rates":[{"Symbol":"EURUSD"}]}`, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, err := ParsePayload([]byte(tt.raw), 1, knownAssets)
			if err != nil {
				t.Fatalf("ParsePayload failed: %v", err)
			}
			if len(points) != 1 {
				t.Fatalf("len(points) = %d, want 1", len(points))
			}
			if !points[0].Value.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Value = %s, want %s", points[0].Value, tt.want)
			}
		})
	}
}

func TestParsePayload_Malformed(t *testing.T) {
	if _, err := ParsePayload([]byte(`not json at all`), 1, knownAssets); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestParsePayload_EmptyRates(t *testing.T) {
	points, err := ParsePayload([]byte(`{"Rates":[]}`), 1, knownAssets)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("len(points) = %d, want 0", len(points))
	}

	points, err = ParsePayload([]byte(`{}`), 1, knownAssets)
	if err != nil {
		t.Fatalf("ParsePayload failed on missing Rates: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("len(points) = %d, want 0 for missing Rates", len(points))
	}
}

func TestParsePayload_NoKnownAssets(t *testing.T) {
	raw := []byte(`{"Rates":[{"Symbol":"EURUSD","Bid":0.2,"Ask":0.4}]}`)

	points, err := ParsePayload(raw, 1, nil)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("len(points) = %d, want 0 with no known assets", len(points))
	}
}
