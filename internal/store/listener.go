package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rateshub/rates-data/internal/model"
)

// PointHandler receives points decoded from NOTIFY payloads.
type PointHandler func(channel string, point model.HistoryPoint)

// Listener subscribes to the rate_points NOTIFY channel and forwards
// decoded points to a handler, usually pubsub.Hub.Publish. This is the
// upstream fan-in link: points written by any process reach this one.
type Listener struct {
	pool    *pgxpool.Pool
	handler PointHandler
	logger  *slog.Logger

	// Reconnect delay after a dropped listen connection.
	retryDelay time.Duration
}

// NewListener creates a NOTIFY listener forwarding to handler.
func NewListener(pool *pgxpool.Pool, handler PointHandler, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		pool:       pool,
		handler:    handler,
		logger:     logger,
		retryDelay: time.Second,
	}
}

// Run blocks, listening for notifications until ctx is cancelled.
// Connection failures are logged and retried.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Warn("notify listener disconnected, retrying", "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}
}

// listen holds one dedicated connection and dispatches notifications.
func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+NotifyChannel); err != nil {
		return fmt.Errorf("listen %s: %w", NotifyChannel, err)
	}

	l.logger.Info("notify listener started", "channel", NotifyChannel)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			return fmt.Errorf("wait for notification: %w", err)
		}

		point, err := decodeNotifyPayload(n.Payload)
		if err != nil {
			l.logger.Warn("invalid notify payload", "error", err)
			continue
		}
		l.handler(point.Asset.Symbol, point)
	}
}

func decodeNotifyPayload(payload string) (model.HistoryPoint, error) {
	var p notifyPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return model.HistoryPoint{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	value, err := decimal.NewFromString(p.Value)
	if err != nil {
		return model.HistoryPoint{}, fmt.Errorf("parse value %q: %w", p.Value, err)
	}
	return model.HistoryPoint{
		Asset:     model.Asset{ID: p.AssetID, Symbol: p.AssetName},
		Timestamp: p.Time,
		Value:     value,
	}, nil
}
