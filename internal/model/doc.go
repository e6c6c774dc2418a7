// Package model defines shared data types used across the rates service.
//
// Conventions:
//   - Prices: decimal values (shopspring/decimal), never binary floats
//   - Timestamps: int64 seconds since Unix epoch, captured at crawl tick start
//   - IDs: int64 for assets, uuid.UUID for subscription handles
package model
