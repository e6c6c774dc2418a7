package config

import "time"

// Config is the root configuration for a rates service instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Source   SourceConfig   `yaml:"source"`
	Store    StoreConfig    `yaml:"store"`
	PubSub   PubSubConfig   `yaml:"pubsub"`
	Server   ServerConfig   `yaml:"server"`
	Health   HealthConfig   `yaml:"health"`
}

// InstanceConfig identifies this service instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// SourceConfig holds external rate source settings.
//
// URL may be empty: the service then starts without the crawler and keeps
// serving whatever history exists. This is logged as an error at startup.
type SourceConfig struct {
	URL     string        `yaml:"url"`
	Period  time.Duration `yaml:"period"`
	Timeout time.Duration `yaml:"timeout"`
}

// StoreConfig selects and configures the history backend.
type StoreConfig struct {
	// Backend is one of "memory", "postgres", "redis".
	Backend string `yaml:"backend"`

	// MaxPoints bounds per-asset history by count (memory backend).
	MaxPoints int `yaml:"max_points"`

	// Retention bounds per-asset history by age (postgres and redis backends).
	Retention time.Duration `yaml:"retention"`

	Postgres DBConfig    `yaml:"postgres"`
	Redis    RedisConfig `yaml:"redis"`
}

// DBConfig holds a PostgreSQL connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// RedisConfig holds a Redis connection.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PubSubConfig holds fan-out hub settings.
type PubSubConfig struct {
	// QueueSize is the per-subscriber bounded queue capacity.
	QueueSize int `yaml:"queue_size"`
}

// ServerConfig holds the client-facing websocket listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
