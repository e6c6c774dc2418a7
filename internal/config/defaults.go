package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultSourcePeriod  = 1 * time.Second
	DefaultSourceTimeout = 5 * time.Second

	DefaultStoreBackend = "memory"

	// 30 minutes of one-point-per-second history.
	DefaultMaxPoints = 30 * 60
	DefaultRetention = 30 * time.Minute

	DefaultDBPort   = 5432
	DefaultDBSSL    = "prefer"
	DefaultMaxConns = 10
	DefaultMinConns = 2

	DefaultRedisAddr = "localhost:6379"

	DefaultQueueSize = 100

	DefaultServerAddr = ":8080"

	DefaultHealthPort = 9090
	DefaultHealthPath = "/health"
)

func (c *Config) applyDefaults() {
	if c.Source.Period == 0 {
		c.Source.Period = DefaultSourcePeriod
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = DefaultSourceTimeout
	}

	if c.Store.Backend == "" {
		c.Store.Backend = DefaultStoreBackend
	}
	if c.Store.MaxPoints == 0 {
		c.Store.MaxPoints = DefaultMaxPoints
	}
	if c.Store.Retention == 0 {
		c.Store.Retention = DefaultRetention
	}
	applyDBDefaults(&c.Store.Postgres)
	if c.Store.Redis.Addr == "" {
		c.Store.Redis.Addr = DefaultRedisAddr
	}

	if c.PubSub.QueueSize == 0 {
		c.PubSub.QueueSize = DefaultQueueSize
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}

	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
	if c.Health.Path == "" {
		c.Health.Path = DefaultHealthPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSL
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
