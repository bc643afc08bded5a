// Package config loads the sample server configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the sample server configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Docs      DocsConfig      `mapstructure:"docs"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	LogLevel  string          `mapstructure:"log_level"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Addr    string        `mapstructure:"addr"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DocsConfig holds document metadata.
type DocsConfig struct {
	Title   string   `mapstructure:"title"`
	Version string   `mapstructure:"version"`
	Servers []string `mapstructure:"servers"`
}

// AuthConfig holds token settings.
type AuthConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
	Issuer string        `mapstructure:"issuer"`
}

// RateLimitConfig holds host-wide rate limit settings. A zero rate disables
// the limiter.
type RateLimitConfig struct {
	Rate  float64 `mapstructure:"rate"`
	Burst int     `mapstructure:"burst"`
}

// Load reads sample.yaml from the working directory (or the file at path
// when non-empty) and overlays SAMPLE_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("docs.title", "Sample API")
	v.SetDefault("docs.version", "1.0.0")
	v.SetDefault("docs.servers", []string{"http://localhost:8080"})
	v.SetDefault("auth.secret", "change-me")
	v.SetDefault("auth.ttl", time.Hour)
	v.SetDefault("auth.issuer", "sample")
	v.SetDefault("rate_limit.rate", 0)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("log_level", "info")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sample")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SAMPLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Auth.Secret == "" {
		return errors.New("auth.secret is required")
	}
	if c.RateLimit.Rate < 0 {
		return errors.New("rate_limit.rate must not be negative")
	}
	return nil
}
