package crawler

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rateshub/rates-data/internal/model"
)

// The source may wrap its JSON body in a JSONP-style envelope.
var (
	payloadPrefix = []byte("null(")
	payloadSuffix = []byte(");")
)

// ratesPayload mirrors the source response shape.
type ratesPayload struct {
	Rates []rateRecord `json:"Rates"`
}

// rateRecord is one quoted instrument. Bid and Ask are decoded as
// json.Number so the decimal conversion never passes through a float.
type rateRecord struct {
	Symbol string      `json:"Symbol"`
	Bid    json.Number `json:"Bid"`
	Ask    json.Number `json:"Ask"`
}

// ParsePayload converts a raw source response into history points stamped
// with ts. Records whose symbol is not in assets are skipped, as are
// records with unparseable numbers; neither affects the rest of the batch.
func ParsePayload(raw []byte, ts int64, assets []model.Asset) ([]model.HistoryPoint, error) {
	trimmed := bytes.TrimSpace(raw)
	trimmed = bytes.TrimPrefix(trimmed, payloadPrefix)
	trimmed = bytes.TrimSuffix(trimmed, payloadSuffix)

	var payload ratesPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, fmt.Errorf("decode rates payload: %w", err)
	}

	bySymbol := make(map[string]model.Asset, len(assets))
	for _, a := range assets {
		bySymbol[a.Symbol] = a
	}

	var points []model.HistoryPoint
	for _, rate := range payload.Rates {
		asset, ok := bySymbol[rate.Symbol]
		if !ok {
			continue
		}

		bid, err := parseQuote(rate.Bid)
		if err != nil {
			continue
		}
		ask, err := parseQuote(rate.Ask)
		if err != nil {
			continue
		}

		points = append(points, model.HistoryPoint{
			Asset:     asset,
			Timestamp: ts,
			Value:     model.Midpoint(bid, ask),
		})
	}

	return points, nil
}

// parseQuote converts an optional numeric field, treating absence as zero.
func parseQuote(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(string(n))
}
