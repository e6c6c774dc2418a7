package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/rateshub/rates-data/internal/model"
)

const (
	redisAssetsKey  = "rates:assets"
	redisHistoryKey = "rates:history:" // + symbol
)

// RedisStore persists assets and history in Redis.
//
// Retention policy: time horizon. History lives in one ZSET per asset
// scored by timestamp; appends prune entries older than the horizon.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
	pub       Publisher
	logger    *slog.Logger
}

// NewRedisStore creates a redis-backed store and seeds the given assets.
func NewRedisStore(ctx context.Context, client *redis.Client, assets []model.Asset, retention time.Duration, pub Publisher, logger *slog.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &RedisStore{
		client:    client,
		retention: retention,
		pub:       pub,
		logger:    logger,
	}

	for _, a := range assets {
		if err := client.HSetNX(ctx, redisAssetsKey, strconv.FormatInt(a.ID, 10), a.Symbol).Err(); err != nil {
			return nil, fmt.Errorf("seed asset %s: %w", a.Symbol, err)
		}
	}
	return s, nil
}

// ListAssets returns all assets ordered by id.
func (s *RedisStore) ListAssets(ctx context.Context) ([]model.Asset, error) {
	fields, err := s.client.HGetAll(ctx, redisAssetsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read assets: %w", err)
	}

	assets := make([]model.Asset, 0, len(fields))
	for idStr, symbol := range fields {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			s.logger.Warn("skipping malformed asset id", "id", idStr)
			continue
		}
		assets = append(assets, model.Asset{ID: id, Symbol: symbol})
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].ID < assets[j].ID })
	return assets, nil
}

// GetAsset returns the asset with the given id, if known.
func (s *RedisStore) GetAsset(ctx context.Context, id int64) (model.Asset, bool, error) {
	symbol, err := s.client.HGet(ctx, redisAssetsKey, strconv.FormatInt(id, 10)).Result()
	if err == redis.Nil {
		return model.Asset{}, false, nil
	}
	if err != nil {
		return model.Asset{}, false, fmt.Errorf("read asset %d: %w", id, err)
	}
	return model.Asset{ID: id, Symbol: symbol}, true, nil
}

// AppendPoints stores points, prunes expired entries, and publishes each
// point to the hub.
func (s *RedisStore) AppendPoints(ctx context.Context, points []model.HistoryPoint) error {
	horizon := time.Now().Add(-s.retention).Unix()

	for _, p := range points {
		member, err := json.Marshal(notifyPayload{
			AssetID:   p.Asset.ID,
			AssetName: p.Asset.Symbol,
			Time:      p.Timestamp,
			Value:     p.Value.String(),
		})
		if err != nil {
			return fmt.Errorf("marshal point: %w", err)
		}

		key := redisHistoryKey + p.Asset.Symbol
		pipe := s.client.TxPipeline()
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(p.Timestamp), Member: member})
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(horizon, 10))
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("append point for %s: %w", p.Asset.Symbol, err)
		}

		s.logger.Debug("new history point", "symbol", p.Asset.Symbol, "value", p.Value)

		if s.pub != nil {
			s.pub.Publish(p.Asset.Symbol, p)
		}
	}
	return nil
}

// GetHistory returns points inside the retention horizon, newest-first.
func (s *RedisStore) GetHistory(ctx context.Context, asset model.Asset) ([]model.HistoryPoint, error) {
	horizon := time.Now().Add(-s.retention).Unix()

	members, err := s.client.ZRevRangeByScore(ctx, redisHistoryKey+asset.Symbol, &redis.ZRangeBy{
		Min: strconv.FormatInt(horizon, 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("read history for %s: %w", asset.Symbol, err)
	}

	points := make([]model.HistoryPoint, 0, len(members))
	for _, m := range members {
		var p notifyPayload
		if err := json.Unmarshal([]byte(m), &p); err != nil {
			s.logger.Warn("skipping malformed history entry", "symbol", asset.Symbol, "error", err)
			continue
		}
		value, err := decimal.NewFromString(p.Value)
		if err != nil {
			s.logger.Warn("skipping history entry with bad value", "symbol", asset.Symbol, "value", p.Value)
			continue
		}
		points = append(points, model.HistoryPoint{
			Asset:     asset,
			Timestamp: p.Time,
			Value:     value,
		})
	}
	return points, nil
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
