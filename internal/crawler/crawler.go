package crawler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rateshub/rates-data/internal/model"
	"github.com/rateshub/rates-data/internal/source"
)

// Store is the slice of the persistence port the crawler needs.
type Store interface {
	ListAssets(ctx context.Context) ([]model.Asset, error)
	AppendPoints(ctx context.Context, points []model.HistoryPoint) error
}

// Config holds crawler configuration.
type Config struct {
	Period  time.Duration // Poll period (default: 1s)
	Timeout time.Duration // Per-fetch timeout (default: 5s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Period:  time.Second,
		Timeout: 5 * time.Second,
	}
}

// Crawler polls the external rate source on a fixed cadence.
type Crawler struct {
	cfg    Config
	client *source.Client
	store  Store
	logger *slog.Logger

	running atomic.Bool
	ticks   atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Crawler.
func New(cfg Config, client *source.Client, store Store, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Period <= 0 {
		cfg.Period = DefaultConfig().Period
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Crawler{
		cfg:    cfg,
		client: client,
		store:  store,
		logger: logger,
	}
}

// Start begins the polling loop.
func (c *Crawler) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.run()

	c.logger.Info("rates crawler started",
		"url", c.client.URL(),
		"period", c.cfg.Period,
	)
	return nil
}

// Stop gracefully shuts down the crawler.
func (c *Crawler) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("rates crawler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether the polling loop is active.
func (c *Crawler) Running() bool { return c.running.Load() }

// Ticks returns the number of completed poll cycles.
func (c *Crawler) Ticks() int64 { return c.ticks.Load() }

// run is the main polling loop. Each cycle sleeps for the remainder of
// the period measured from tick start, so processing latency does not
// accumulate into schedule drift.
func (c *Crawler) run() {
	defer c.wg.Done()

	c.running.Store(true)
	defer c.running.Store(false)

	for {
		ts := time.Now()

		c.tick(ts)
		c.ticks.Add(1)

		sleep := time.Until(ts.Add(c.cfg.Period))
		if sleep < 0 {
			sleep = 0
		}

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(sleep):
		}
	}
}

// tick performs one fetch-parse-persist cycle. All errors are logged and
// swallowed so the loop survives; cancellation is not treated as an error.
func (c *Crawler) tick(ts time.Time) {
	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.Timeout)
	defer cancel()

	raw, err := c.client.Fetch(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.logger.Warn("rate source fetch failed", "error", err)
		return
	}

	assets, err := c.store.ListAssets(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.logger.Error("list assets failed", "error", err)
		return
	}

	points, err := ParsePayload(raw, ts.Unix(), assets)
	if err != nil {
		c.logger.Warn("unparseable rates payload", "error", err)
		return
	}
	if len(points) == 0 {
		c.logger.Debug("tick produced no points")
		return
	}

	if err := c.store.AppendPoints(ctx, points); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.logger.Error("append points failed", "error", err, "count", len(points))
		return
	}

	c.logger.Debug("tick complete",
		"points", len(points),
		"duration", time.Since(ts),
	)
}
