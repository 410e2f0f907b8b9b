// Package config provides configuration management for the ntfy command.
// It loads server profiles from a YAML file and settings from environment
// variables (optionally from a .env file) with sensible defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/coregx/ntfy"
)

// Config holds all configuration for the ntfy command.
type Config struct {
	Servers   []ntfy.ServerProfile `yaml:"servers"`
	Store     StoreConfig          `yaml:"store"`
	Log       LogConfig            `yaml:"log"`
	Keepalive time.Duration        `yaml:"keepalive_timeout"`
}

// StoreConfig holds the optional database used for watermarks and the
// message archive. An empty Driver disables persistence.
type StoreConfig struct {
	Driver   string `yaml:"driver"` // mysql, postgres, sqlite3
	DSN      string `yaml:"dsn"`    // Used as is when set
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Prefix   string `yaml:"prefix"` // Table prefix (default: "ntfy_")
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// DefaultServer is the profile used when no servers are configured.
const DefaultServer = "default"

// Load reads configuration. Sources, lowest precedence first:
//
//  1. built-in defaults
//  2. the YAML file at path, or $NTFY_CONFIG when path is empty
//  3. environment variables, after loading .env if present
//
// When no servers are configured, a single "default" server is built from
// NTFY_BASE_URL (default https://ntfy.sh), NTFY_TOKEN, NTFY_USER,
// NTFY_PASSWORD and NTFY_TOPICS.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not load .env file: %w", err)
	}

	cfg := &Config{
		Store: StoreConfig{Prefix: "ntfy_"},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Keepalive: ntfy.DefaultKeepaliveTimeout,
	}

	if path == "" {
		path = os.Getenv("NTFY_CONFIG")
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if len(cfg.Servers) == 0 {
		cfg.Servers = []ntfy.ServerProfile{{
			Name:     DefaultServer,
			BaseURL:  getEnv("NTFY_BASE_URL", ntfy.DefaultBaseURL),
			Token:    os.Getenv("NTFY_TOKEN"),
			Username: os.Getenv("NTFY_USER"),
			Password: os.Getenv("NTFY_PASSWORD"),
			Topics:   splitList(os.Getenv("NTFY_TOPICS")),
		}}
	}

	cfg.Store.Driver = getEnv("NTFY_STORE_DRIVER", cfg.Store.Driver)
	cfg.Store.DSN = getEnv("NTFY_STORE_DSN", cfg.Store.DSN)
	cfg.Log.Level = getEnv("NTFY_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("NTFY_LOG_FORMAT", cfg.Log.Format)
	cfg.Keepalive = getEnvDuration("NTFY_KEEPALIVE_TIMEOUT", cfg.Keepalive)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Servers, validation.Required),
		validation.Field(&c.Store),
		validation.Field(&c.Log),
		validation.Field(&c.Keepalive, validation.Required, validation.Min(time.Second)),
	)
}

// Validate checks the store configuration.
func (s StoreConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Driver, validation.In("mysql", "postgres", "sqlite3")),
		validation.Field(&s.Database, validation.When(s.Driver != "" && s.DSN == "", validation.Required.Error("is required when dsn is not set"))),
	)
}

// Validate checks the log configuration.
func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&l.Format, validation.In("text", "json")),
	)
}

// Enabled reports whether a store is configured.
func (s *StoreConfig) Enabled() bool {
	return s.Driver != ""
}

// GetDSN returns the database connection string based on driver.
func (s *StoreConfig) GetDSN() string {
	if s.DSN != "" {
		return s.DSN
	}
	switch strings.ToLower(s.Driver) {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			s.User, s.Password, s.Host, s.portOr(3306), s.Database)
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			s.Host, s.portOr(5432), s.User, s.Password, s.Database)
	case "sqlite3":
		return s.Database // SQLite uses file path as DSN
	default:
		return ""
	}
}

func (s *StoreConfig) portOr(def int) int {
	if s.Port == 0 {
		return def
	}
	return s.Port
}

// Profile returns the named server profile.
func (c *Config) Profile(name string) (ntfy.ServerProfile, bool) {
	for _, p := range c.Servers {
		if p.Name == name {
			return p, true
		}
	}
	return ntfy.ServerProfile{}, false
}

// getEnv retrieves environment variable or returns default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves environment variable as duration or returns default value.
// Plain integers are taken as seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
