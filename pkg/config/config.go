// Package config loads framework configuration from a YAML file with an
// environment-variable overlay. Values resolve in order: defaults, then
// config.yaml, then APIFORGE_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces environment overrides, e.g. APIFORGE_SERVER__PORT.
const envPrefix = "APIFORGE_"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Security  SecurityConfig  `koanf:"security"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	MaxBodySizeByte int64         `koanf:"max_body_size"`
}

// Addr formats the listen address as host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type DatabaseConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

type AuthConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	TokenTTL          time.Duration `koanf:"token_ttl"`
	UnprotectedRoutes []string      `koanf:"unprotected_routes"`
}

type RateLimitConfig struct {
	RequestsPerMinute   int           `koanf:"requests_per_minute"`
	RequestsPerHour     int           `koanf:"requests_per_hour"`
	BurstLimit          int           `koanf:"burst_limit"`
	WindowSize          time.Duration `koanf:"window_size"`
	EnableSlidingWindow bool          `koanf:"enable_sliding_window"`
}

type SecurityConfig struct {
	EnableHSTS bool `koanf:"enable_hsts"`
	EnableCSP  bool `koanf:"enable_csp"`
}

// Load reads configuration from the given YAML path (missing file is fine)
// and overlays environment variables. A .env file in the working directory
// is loaded first so local development needs no exported shell state.
func Load(path string) (*Config, error) {
	// Ignore a missing .env; it is a development convenience only.
	_ = godotenv.Load()

	k := koanf.New(".")

	applyDefaults(k)

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	// Environment overrides: APIFORGE_SERVER__PORT=9090 -> server.port.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	k.Set("server.host", "0.0.0.0")
	k.Set("server.port", 8080)
	k.Set("server.request_timeout", "30s")
	k.Set("server.max_body_size", 1<<20)
	k.Set("database.driver", "sqlite")
	k.Set("database.dsn", "apiforge.db")
	k.Set("auth.token_ttl", "1h")
	k.Set("auth.unprotected_routes", []string{"/health", "/metrics", "/api/v1/user/login"})
	k.Set("rate_limit.requests_per_minute", 60)
	k.Set("rate_limit.requests_per_hour", 1000)
	k.Set("rate_limit.burst_limit", 10)
	k.Set("rate_limit.window_size", "10s")
	k.Set("rate_limit.enable_sliding_window", true)
	k.Set("security.enable_hsts", true)
	k.Set("security.enable_csp", true)
}
