package store

import (
	"context"

	"github.com/rateshub/rates-data/internal/model"
)

// Store is the asset and history persistence port.
type Store interface {
	// ListAssets returns all known assets in stable provisioning order.
	ListAssets(ctx context.Context) ([]model.Asset, error)

	// GetAsset returns the asset with the given id, if known.
	GetAsset(ctx context.Context, id int64) (model.Asset, bool, error)

	// AppendPoints persists points and publishes each one to the fan-out
	// hub keyed by asset symbol.
	AppendPoints(ctx context.Context, points []model.HistoryPoint) error

	// GetHistory returns the bounded rolling history for an asset,
	// newest-first.
	GetHistory(ctx context.Context, asset model.Asset) ([]model.HistoryPoint, error)

	// Ping reports backend health.
	Ping(ctx context.Context) error
}

// Publisher receives every appended point, keyed by asset symbol.
// Satisfied by pubsub.Hub.
type Publisher interface {
	Publish(channel string, point model.HistoryPoint)
}

// DefaultAssets returns the provisioned currency pairs.
func DefaultAssets() []model.Asset {
	return []model.Asset{
		{ID: 1, Symbol: "EURUSD"},
		{ID: 2, Symbol: "USDJPY"},
		{ID: 3, Symbol: "GBPUSD"},
		{ID: 4, Symbol: "AUDUSD"},
		{ID: 5, Symbol: "USDCAD"},
	}
}
