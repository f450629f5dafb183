package pg

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/viper"
)

// Config holds the PostgreSQL connection settings.
type Config struct {
	// Host is the database host.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the database port.
	Port int `mapstructure:"port" yaml:"port"`

	// User is the connection role.
	User string `mapstructure:"user" yaml:"user"`

	// Password is the connection password.
	Password string `mapstructure:"password" yaml:"password"`

	// Database is the database name.
	Database string `mapstructure:"database" yaml:"database"`

	// SSLMode is passed through as sslmode (default "prefer").
	SSLMode string `mapstructure:"ssl_mode" yaml:"ssl_mode"`

	// MaxConns caps the pool size.
	MaxConns int32 `mapstructure:"max_conns" yaml:"max_conns"`

	// ConnectTimeout bounds the initial connection attempt.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
}

// DefaultConfig returns a configuration with sensible local defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:           "localhost",
		Port:           5432,
		User:           "postgres",
		SSLMode:        "prefer",
		MaxConns:       10,
		ConnectTimeout: 10 * time.Second,
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("pg: host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("pg: invalid port %d", c.Port)
	}
	if c.Database == "" {
		return fmt.Errorf("pg: database is required")
	}
	return nil
}

// URL renders the configuration as a postgres connection URL.
func (c *Config) URL() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	q := u.Query()
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// String returns a safe representation (redacts the password).
func (c *Config) String() string {
	return fmt.Sprintf("Config{Host:%s, Port:%d, User:%s, Database:%s}", c.Host, c.Port, c.User, c.Database)
}

// NewConfig builds a Config from the "pg" section of the given viper
// instance, on top of the defaults.
func NewConfig(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if v != nil {
		if sub := v.Sub("pg"); sub != nil {
			if err := sub.Unmarshal(cfg); err != nil {
				return nil, fmt.Errorf("pg: load config: %w", err)
			}
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewPool creates a pgx connection pool from the configuration.
func NewPool(ctx context.Context, cfg *Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("pg: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	return pool, nil
}
