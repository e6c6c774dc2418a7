package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rateshub/rates-data/internal/model"
)

// NotifyChannel is the Postgres NOTIFY channel carrying appended points.
const NotifyChannel = "rate_points"

const schema = `
CREATE TABLE IF NOT EXISTS assets (
	id     BIGINT PRIMARY KEY,
	symbol TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS rate_points (
	asset_id BIGINT NOT NULL REFERENCES assets(id),
	symbol   TEXT NOT NULL,
	ts       BIGINT NOT NULL,
	value    NUMERIC(20, 8) NOT NULL
);

CREATE INDEX IF NOT EXISTS rate_points_asset_ts_idx
	ON rate_points (asset_id, ts DESC);
`

// notifyPayload is the wire form of a point on the NOTIFY channel.
type notifyPayload struct {
	AssetID   int64  `json:"assetId"`
	AssetName string `json:"assetName"`
	Time      int64  `json:"time"`
	Value     string `json:"value"`
}

// PostgresStore persists assets and history in PostgreSQL.
//
// Retention policy: time horizon, enforced on the read path. Appends emit a
// NOTIFY per point so any process listening on NotifyChannel (see Listener)
// can feed its own in-process hub; the store itself does not publish
// in-process.
type PostgresStore struct {
	pool      *pgxpool.Pool
	retention time.Duration
	logger    *slog.Logger
}

// NewPostgresStore creates a postgres-backed store.
func NewPostgresStore(pool *pgxpool.Pool, retention time.Duration, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{
		pool:      pool,
		retention: retention,
		logger:    logger,
	}
}

// EnsureSchema creates tables and seeds the provisioned assets.
func (s *PostgresStore) EnsureSchema(ctx context.Context, assets []model.Asset) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	batch := &pgx.Batch{}
	for _, a := range assets {
		batch.Queue(
			`INSERT INTO assets (id, symbol) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
			a.ID, a.Symbol,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range assets {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("seed assets: %w", err)
		}
	}
	return nil
}

// ListAssets returns all assets ordered by id.
func (s *PostgresStore) ListAssets(ctx context.Context) ([]model.Asset, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, symbol FROM assets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	var assets []model.Asset
	for rows.Next() {
		var a model.Asset
		if err := rows.Scan(&a.ID, &a.Symbol); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// GetAsset returns the asset with the given id, if known.
func (s *PostgresStore) GetAsset(ctx context.Context, id int64) (model.Asset, bool, error) {
	var a model.Asset
	err := s.pool.QueryRow(ctx, `SELECT id, symbol FROM assets WHERE id = $1`, id).
		Scan(&a.ID, &a.Symbol)
	if err == pgx.ErrNoRows {
		return model.Asset{}, false, nil
	}
	if err != nil {
		return model.Asset{}, false, fmt.Errorf("query asset %d: %w", id, err)
	}
	return a, true, nil
}

// AppendPoints inserts points and emits one NOTIFY per point, all in one
// batch so a point is never visible without its notification.
func (s *PostgresStore) AppendPoints(ctx context.Context, points []model.HistoryPoint) error {
	if len(points) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	queued := 0
	for _, p := range points {
		payload, err := json.Marshal(notifyPayload{
			AssetID:   p.Asset.ID,
			AssetName: p.Asset.Symbol,
			Time:      p.Timestamp,
			Value:     p.Value.String(),
		})
		if err != nil {
			return fmt.Errorf("marshal notify payload: %w", err)
		}

		batch.Queue(
			`INSERT INTO rate_points (asset_id, symbol, ts, value) VALUES ($1, $2, $3, $4)`,
			p.Asset.ID, p.Asset.Symbol, p.Timestamp, p.Value.String(),
		)
		batch.Queue(`SELECT pg_notify($1, $2)`, NotifyChannel, string(payload))
		queued += 2
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < queued; i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("append points: %w", err)
		}
	}
	return nil
}

// GetHistory returns points inside the retention horizon, newest-first.
func (s *PostgresStore) GetHistory(ctx context.Context, asset model.Asset) ([]model.HistoryPoint, error) {
	horizon := time.Now().Add(-s.retention).Unix()

	rows, err := s.pool.Query(ctx,
		`SELECT ts, value::text FROM rate_points
		 WHERE asset_id = $1 AND ts >= $2
		 ORDER BY ts DESC`,
		asset.ID, horizon,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	points := []model.HistoryPoint{}
	for rows.Next() {
		var (
			ts  int64
			val string
		)
		if err := rows.Scan(&ts, &val); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		value, err := decimal.NewFromString(val)
		if err != nil {
			return nil, fmt.Errorf("parse stored value %q: %w", val, err)
		}
		points = append(points, model.HistoryPoint{
			Asset:     asset,
			Timestamp: ts,
			Value:     value,
		})
	}
	return points, rows.Err()
}

// Ping verifies the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
