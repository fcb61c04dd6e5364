// Package config loads chatview settings from defaults, an optional YAML
// file, the environment and command-line overrides, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sonnes/chatview/redact"
	htmlrender "github.com/sonnes/chatview/render/html"
	"github.com/sonnes/chatview/store"
)

// EnvPrefix is prepended to every environment variable, e.g. CHATVIEW_DSN.
const EnvPrefix = "CHATVIEW"

// Config holds the application configuration.
type Config struct {
	Port   int          `mapstructure:"port"`
	Driver string       `mapstructure:"driver"`
	DSN    string       `mapstructure:"dsn"`
	Table  string       `mapstructure:"table"`
	Pool   PoolConfig   `mapstructure:"pool"`
	Render RenderConfig `mapstructure:"render"`
	Redact []string     `mapstructure:"redact"`
}

// PoolConfig holds the database/sql pool limits.
type PoolConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RenderConfig holds the HTML rendering options.
type RenderConfig struct {
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 3001)
	v.SetDefault("driver", "postgres")
	v.SetDefault("dsn", "")
	v.SetDefault("table", store.DefaultTable)
	v.SetDefault("pool.max_open_conns", 10)
	v.SetDefault("pool.max_idle_conns", 2)
	v.SetDefault("pool.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("render.format", string(htmlrender.FormatBasic))
	v.SetDefault("redact", []string{})
}

// Load reads the configuration. path names an explicit YAML file; when
// empty, chatview.yaml is looked up in the working directory and in
// $HOME/.config/chatview, and a missing file is not an error. overrides are
// applied last, keyed like the YAML file (e.g. "pool.max_open_conns").
func Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The bare names are what hosting platforms usually set.
	if err := v.BindEnv("port", EnvPrefix+"_PORT", "PORT"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("dsn", EnvPrefix+"_DSN", "DATABASE_URL"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("chatview")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "chatview"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	for k, val := range overrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every setting except the DSN, which only commands that
// open the database require.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported driver %q (want postgres or sqlite)", c.Driver)
	}
	if _, err := store.QuoteTable(c.Table); err != nil {
		return err
	}
	if c.Pool.MaxOpenConns < 0 || c.Pool.MaxIdleConns < 0 || c.Pool.ConnMaxLifetime < 0 {
		return errors.New("pool limits must not be negative")
	}
	if _, err := htmlrender.ParseFormat(c.Render.Format); err != nil {
		return err
	}
	if _, err := redact.ParseKinds(c.Redact); err != nil {
		return err
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Store returns the store settings. It fails when no DSN is configured.
func (c *Config) Store() (store.Config, error) {
	if c.DSN == "" {
		return store.Config{}, errors.New("no database configured: set --dsn, CHATVIEW_DSN or DATABASE_URL")
	}
	return store.Config{
		Driver:          c.Driver,
		DSN:             c.DSN,
		Table:           c.Table,
		MaxOpenConns:    c.Pool.MaxOpenConns,
		MaxIdleConns:    c.Pool.MaxIdleConns,
		ConnMaxLifetime: c.Pool.ConnMaxLifetime,
	}, nil
}

// Format returns the parsed HTML render format.
func (c *Config) Format() htmlrender.Format {
	f, _ := htmlrender.ParseFormat(c.Render.Format)
	return f
}

// RedactConfig returns the redaction rule groups.
func (c *Config) RedactConfig() redact.Config {
	rc, _ := redact.ParseKinds(c.Redact)
	return rc
}
