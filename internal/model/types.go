package model

import "github.com/shopspring/decimal"

// Asset represents a tradable currency pair.
type Asset struct {
	ID     int64  // Primary key, assigned at provisioning
	Symbol string // Unique symbol (e.g., "EURUSD")
}

// HistoryPoint is a single timestamped price observation for an asset.
//
// Value is the bid/ask midpoint computed in decimal arithmetic, so no
// precision is lost to binary floating point on the way to clients.
type HistoryPoint struct {
	Asset     Asset           // Owning asset
	Timestamp int64           // Crawl tick start (seconds since epoch)
	Value     decimal.Decimal // Price midpoint
}

// Midpoint returns the arithmetic mean of bid and ask.
func Midpoint(bid, ask decimal.Decimal) decimal.Decimal {
	return bid.Add(ask).Div(decimal.NewFromInt(2))
}
