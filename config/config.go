// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Compiler  CompilerConfig  `yaml:"compiler"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	OpenAPI   OpenAPIConfig   `yaml:"openapi"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "memory"
	DSN    string `yaml:"dsn"`
}

// CompilerConfig selects how raw field values are baked.
// Bumping Version invalidates every stored bake.
type CompilerConfig struct {
	Mode    string `yaml:"mode"` // "passthrough" or "markdown"
	Version int    `yaml:"version"`
}

// BroadcastConfig configures cross-node invalidation.
type BroadcastConfig struct {
	NodeID         string        `yaml:"node_id"`
	Peers          []string      `yaml:"peers"` // ws:// URLs of peer message buses
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // default: /metrics
}

// OpenAPIConfig configures OpenAPI/Swagger documentation.
type OpenAPIConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	THEMEBAKE_SERVER_HOST         - Server host (default: 0.0.0.0)
//	THEMEBAKE_SERVER_PORT         - Server port (default: 8080)
//	THEMEBAKE_DATABASE_DRIVER     - sqlite or memory (default: sqlite)
//	THEMEBAKE_DATABASE_DSN        - Database path (default: themebake.db)
//	THEMEBAKE_COMPILER_MODE       - passthrough or markdown (default: passthrough)
//	THEMEBAKE_COMPILER_VERSION    - Compiler version (default: 1)
//	THEMEBAKE_BROADCAST_NODE_ID   - Origin tag of this node (default: random)
//	THEMEBAKE_BROADCAST_PEERS     - Comma separated peer websocket URLs
//	THEMEBAKE_LOG_LEVEL           - debug, info, warn, error (default: info)
//	THEMEBAKE_LOG_FORMAT          - json or console (default: json)
//	THEMEBAKE_METRICS_ENABLED     - Enable /metrics endpoint
//	THEMEBAKE_OPENAPI_ENABLED     - Enable OpenAPI/Swagger
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads path when it exists and falls back to the
// environment otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies THEMEBAKE_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("THEMEBAKE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("THEMEBAKE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("THEMEBAKE_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("THEMEBAKE_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	if v := os.Getenv("THEMEBAKE_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("THEMEBAKE_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	if v := os.Getenv("THEMEBAKE_COMPILER_MODE"); v != "" {
		cfg.Compiler.Mode = v
	}
	if v := os.Getenv("THEMEBAKE_COMPILER_VERSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Compiler.Version = n
		}
	}

	if v := os.Getenv("THEMEBAKE_BROADCAST_NODE_ID"); v != "" {
		cfg.Broadcast.NodeID = v
	}
	if v := os.Getenv("THEMEBAKE_BROADCAST_PEERS"); v != "" {
		cfg.Broadcast.Peers = splitList(v)
	}
	if v := os.Getenv("THEMEBAKE_BROADCAST_RECONNECT_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Broadcast.ReconnectDelay = d
		}
	}

	if v := os.Getenv("THEMEBAKE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("THEMEBAKE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("THEMEBAKE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("THEMEBAKE_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}

	if v := os.Getenv("THEMEBAKE_OPENAPI_ENABLED"); v != "" {
		cfg.OpenAPI.Enabled = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "themebake.db"
	}

	if cfg.Compiler.Mode == "" {
		cfg.Compiler.Mode = "passthrough"
	}
	if cfg.Compiler.Version == 0 {
		cfg.Compiler.Version = 1
	}

	if cfg.Broadcast.ReconnectDelay == 0 {
		cfg.Broadcast.ReconnectDelay = time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	validDrivers := map[string]bool{"sqlite": true, "memory": true}
	if !validDrivers[cfg.Database.Driver] {
		return fmt.Errorf("database.driver must be 'sqlite' or 'memory', got %q", cfg.Database.Driver)
	}

	validModes := map[string]bool{"passthrough": true, "markdown": true}
	if !validModes[cfg.Compiler.Mode] {
		return fmt.Errorf("compiler.mode must be 'passthrough' or 'markdown', got %q", cfg.Compiler.Mode)
	}
	if cfg.Compiler.Version < 1 {
		return fmt.Errorf("compiler.version must be positive, got %d", cfg.Compiler.Version)
	}

	for i, peer := range cfg.Broadcast.Peers {
		u, err := url.Parse(peer)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
			return fmt.Errorf("broadcast.peers[%d] must be a ws:// or wss:// URL, got %q", i, peer)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	return nil
}
