package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
//
// source.url is deliberately not required here: a missing URL disables the
// crawler at startup instead of failing the whole service.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Source.Period <= 0 {
		return errors.New("source.period must be positive")
	}
	if c.Source.Timeout <= 0 {
		return errors.New("source.timeout must be positive")
	}

	switch c.Store.Backend {
	case "memory":
	case "postgres":
		if err := c.Store.Postgres.validate("store.postgres"); err != nil {
			return err
		}
	case "redis":
		if c.Store.Redis.Addr == "" {
			return errors.New("store.redis.addr is required")
		}
	default:
		return fmt.Errorf("store.backend must be one of memory, postgres, redis, got %q", c.Store.Backend)
	}

	if c.Store.MaxPoints < 1 {
		return errors.New("store.max_points must be >= 1")
	}
	if c.Store.Retention <= 0 {
		return errors.New("store.retention must be positive")
	}

	if c.PubSub.QueueSize < 1 {
		return errors.New("pubsub.queue_size must be >= 1")
	}

	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
