package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rateshub/rates-data/internal/model"
)

// MemoryStore keeps assets and history in process memory.
//
// Retention policy: per-asset point count (maxPoints). No persistence
// across restarts; intended for local runs and tests.
type MemoryStore struct {
	logger    *slog.Logger
	pub       Publisher
	maxPoints int

	mu      sync.RWMutex
	assets  []model.Asset // provisioning order
	byID    map[int64]model.Asset
	history map[int64]*pointRing
}

// NewMemoryStore creates a memory store provisioned with the given assets.
func NewMemoryStore(assets []model.Asset, maxPoints int, pub Publisher, logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	if maxPoints < 1 {
		maxPoints = 1
	}

	s := &MemoryStore{
		logger:    logger,
		pub:       pub,
		maxPoints: maxPoints,
		byID:      make(map[int64]model.Asset, len(assets)),
		history:   make(map[int64]*pointRing, len(assets)),
	}
	for _, a := range assets {
		s.assets = append(s.assets, a)
		s.byID[a.ID] = a
		s.history[a.ID] = newPointRing(maxPoints)
	}
	return s
}

// ListAssets returns all assets in provisioning order.
func (s *MemoryStore) ListAssets(ctx context.Context) ([]model.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Asset, len(s.assets))
	copy(out, s.assets)
	return out, nil
}

// GetAsset returns the asset with the given id, if known.
func (s *MemoryStore) GetAsset(ctx context.Context, id int64) (model.Asset, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	return a, ok, nil
}

// AppendPoints stores points and publishes each one. Points for unknown
// assets are skipped.
func (s *MemoryStore) AppendPoints(ctx context.Context, points []model.HistoryPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		ring, ok := s.history[p.Asset.ID]
		if !ok {
			s.logger.Warn("dropping point for unknown asset", "asset_id", p.Asset.ID)
			continue
		}

		ring.push(p)
		s.logger.Debug("new history point", "symbol", p.Asset.Symbol, "value", p.Value)

		// Publish under the store lock so readers never observe a point
		// as appended-but-unpublished. Publish never blocks.
		if s.pub != nil {
			s.pub.Publish(p.Asset.Symbol, p)
		}
	}
	return nil
}

// GetHistory returns the asset's rolling history, newest-first.
func (s *MemoryStore) GetHistory(ctx context.Context, asset model.Asset) ([]model.HistoryPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ring, ok := s.history[asset.ID]
	if !ok {
		return []model.HistoryPoint{}, nil
	}
	return ring.snapshot(), nil
}

// Ping always succeeds for the memory backend.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }
