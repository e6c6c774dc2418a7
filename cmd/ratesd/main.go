package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rateshub/rates-data/internal/config"
	"github.com/rateshub/rates-data/internal/crawler"
	"github.com/rateshub/rates-data/internal/database"
	"github.com/rateshub/rates-data/internal/pubsub"
	"github.com/rateshub/rates-data/internal/server"
	"github.com/rateshub/rates-data/internal/source"
	"github.com/rateshub/rates-data/internal/store"
	"github.com/rateshub/rates-data/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/ratesd.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting ratesd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"source_url", cfg.Source.URL,
		"store_backend", cfg.Store.Backend,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Fan-out hub
	hub := pubsub.NewHub(cfg.PubSub.QueueSize, logger)

	// History store
	assets := store.DefaultAssets()
	var st store.Store

	switch cfg.Store.Backend {
	case "memory":
		st = store.NewMemoryStore(assets, cfg.Store.MaxPoints, hub, logger)
		logger.Info("using in-memory store", "max_points", cfg.Store.MaxPoints)

	case "postgres":
		logger.Info("connecting to database",
			"host", cfg.Store.Postgres.Host,
			"port", cfg.Store.Postgres.Port,
			"database", cfg.Store.Postgres.Name,
		)
		pool, err := database.Connect(ctx, cfg.Store.Postgres)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := store.NewPostgresStore(pool, cfg.Store.Retention, logger)
		if err := pg.EnsureSchema(ctx, assets); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		st = pg

		// Updates fan out through LISTEN/NOTIFY, so subscribers on every
		// instance see points written by any instance.
		listener := store.NewListener(pool, hub.Publish, logger)
		go func() {
			if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("notification listener failed", "error", err)
			}
		}()
		logger.Info("using postgres store", "retention", cfg.Store.Retention)

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		defer client.Close()

		rs, err := store.NewRedisStore(ctx, client, assets, cfg.Store.Retention, hub, logger)
		if err != nil {
			logger.Error("failed to initialize redis store", "error", err)
			os.Exit(1)
		}
		st = rs
		logger.Info("using redis store",
			"addr", cfg.Store.Redis.Addr,
			"retention", cfg.Store.Retention,
		)

	default:
		logger.Error("unknown store backend", "backend", cfg.Store.Backend)
		os.Exit(1)
	}

	// Crawler. An empty source URL disables polling but the service keeps
	// serving assets and whatever history the store holds.
	var crawl *crawler.Crawler
	if cfg.Source.URL == "" {
		logger.Error("source url not configured, crawler disabled")
	} else {
		client := source.NewClient(cfg.Source.URL,
			source.WithTimeout(cfg.Source.Timeout),
			source.WithLogger(logger),
		)
		crawl = crawler.New(crawler.Config{
			Period:  cfg.Source.Period,
			Timeout: cfg.Source.Timeout,
		}, client, st, logger)

		if err := crawl.Start(ctx); err != nil {
			logger.Error("failed to start crawler", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			crawl.Stop(shutdownCtx)
		}()
	}

	// Websocket server
	wsServer := server.New(server.Config{Addr: cfg.Server.Addr}, st, hub, logger)
	if err := wsServer.Start(ctx); err != nil {
		logger.Error("failed to start websocket server", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		wsServer.Stop(shutdownCtx)
	}()

	// Health server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(cfg.Health.Path, st, hub, crawl, wsServer),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port, "path", cfg.Health.Path)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	logger.Info("ratesd running",
		"instance_id", cfg.Instance.ID,
		"ws_addr", wsServer.Addr(),
		"health_url", fmt.Sprintf("http://localhost:%d%s", cfg.Health.Port, cfg.Health.Path),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	healthServer.Shutdown(shutdownCtx)

	logger.Info("ratesd stopped")
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(path string, st store.Store, hub *pubsub.Hub, crawl *crawler.Crawler, ws *server.Server) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		// Check store
		if err := st.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["store"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["store"] = "connected"
		}

		// Check crawler
		if crawl == nil {
			health.Status = "degraded"
			health.Components["crawler"] = "disabled"
		} else {
			health.Components["crawler"] = map[string]any{
				"running": crawl.Running(),
				"ticks":   crawl.Ticks(),
			}
			if !crawl.Running() {
				health.Status = "degraded"
			}
		}

		// Fan-out and connection stats
		stats := hub.Stats()
		health.Components["pubsub"] = map[string]any{
			"channels":    stats.Channels,
			"subscribers": stats.Subscribers,
			"published":   stats.Published,
			"dropped":     stats.Dropped,
		}
		health.Components["sessions"] = map[string]any{
			"active":   ws.ActiveSessions(),
			"accepted": ws.Accepted(),
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
