// Package config provides configuration loading for bridge-lin.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"bridge-lin/server/lin"
)

// Config is the complete bridge-lin configuration
type Config struct {
	Decoder DecoderConfig `yaml:"decoder"`
	Batch   BatchConfig   `yaml:"batch"`
	Store   StoreConfig   `yaml:"store"`
	NATS    NATSConfig    `yaml:"nats"`
	HTTP    HTTPConfig    `yaml:"http"`
}

// DecoderConfig selects the corpus conventions handed to lin.Options
type DecoderConfig struct {
	// DealerRule is "board" (board number) or "deal" (md dealer digit)
	DealerRule string `yaml:"dealer_rule"`

	// Seating is the position of each listed player, e.g. "SWNE"
	Seating string `yaml:"seating"`

	// SeatingFromDealer rotates Seating so the first listed player deals.
	// Nil leaves the setting to lower layers.
	SeatingFromDealer *bool `yaml:"seating_from_dealer,omitempty"`

	// DeclarerRule is "winning-bidder" or "first-named"
	DeclarerRule string `yaml:"declarer_rule"`
}

// BatchConfig configures corpus decoding
type BatchConfig struct {
	Root    string `yaml:"root"`
	Pattern string `yaml:"pattern"`
	Workers int    `yaml:"workers"`
}

// StoreConfig configures the deal store
type StoreConfig struct {
	// Driver is "postgres", "sqlite" or "" for no store
	Driver string `yaml:"driver"`

	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// NATSConfig configures deal publishing
type NATSConfig struct {
	// URL is the NATS server URL (empty = publishing disabled)
	URL string `yaml:"url"`

	Subject string `yaml:"subject"`
}

// HTTPConfig configures the API server
type HTTPConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// MaxBody caps POST /api/decode payloads in bytes
	MaxBody int64 `yaml:"max_body"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Decoder: DecoderConfig{
			DealerRule:   "board",
			Seating:      "SWNE",
			DeclarerRule: "winning-bidder",
		},
		Batch: BatchConfig{
			Root:    ".",
			Pattern: "**/*.lin",
			Workers: 4,
		},
		Store: StoreConfig{
			SQLitePath: "bridge-lin.db",
		},
		NATS: NATSConfig{
			Subject: "bridge.deals",
		},
		HTTP: HTTPConfig{
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			MaxBody:      1 << 20,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if _, err := c.DecoderOptions(); err != nil {
		return err
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1")
	}
	if c.Batch.Pattern == "" {
		return fmt.Errorf("batch.pattern is required")
	}
	switch c.Store.Driver {
	case "":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("store.database_url is required for postgres")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for sqlite")
		}
	default:
		return fmt.Errorf("store.driver %q: want postgres or sqlite", c.Store.Driver)
	}
	if c.NATS.URL != "" && c.NATS.Subject == "" {
		return fmt.Errorf("nats.subject is required when nats.url is set")
	}
	if c.HTTP.MaxBody <= 0 {
		return fmt.Errorf("http.max_body must be positive")
	}
	return nil
}

// DecoderOptions converts the decoder section to lin.Options.
func (c *Config) DecoderOptions() (lin.Options, error) {
	dr, err := lin.ParseDealerRule(c.Decoder.DealerRule)
	if err != nil {
		return lin.Options{}, fmt.Errorf("decoder.dealer_rule: %w", err)
	}
	seating, err := lin.ParseSeating(c.Decoder.Seating)
	if err != nil {
		return lin.Options{}, fmt.Errorf("decoder.seating: %w", err)
	}
	decl, err := lin.ParseDeclarerRule(c.Decoder.DeclarerRule)
	if err != nil {
		return lin.Options{}, fmt.Errorf("decoder.declarer_rule: %w", err)
	}
	return lin.Options{
		DealerRule:        dr,
		Seating:           seating,
		SeatingFromDealer: c.Decoder.SeatingFromDealer != nil && *c.Decoder.SeatingFromDealer,
		DeclarerRule:      decl,
	}, nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Write stores c as YAML at path, creating parent directories. An existing
// file is an error unless force is set.
func (c *Config) Write(path string, force bool) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config dir: %w", err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Bool returns a pointer to b for the optional switches of Config.
func Bool(b bool) *bool { return &b }

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Decoder
	if other.Decoder.DealerRule != "" {
		c.Decoder.DealerRule = other.Decoder.DealerRule
	}
	if other.Decoder.Seating != "" {
		c.Decoder.Seating = other.Decoder.Seating
	}
	if other.Decoder.SeatingFromDealer != nil {
		c.Decoder.SeatingFromDealer = Bool(*other.Decoder.SeatingFromDealer)
	}
	if other.Decoder.DeclarerRule != "" {
		c.Decoder.DeclarerRule = other.Decoder.DeclarerRule
	}

	// Batch
	if other.Batch.Root != "" {
		c.Batch.Root = other.Batch.Root
	}
	if other.Batch.Pattern != "" {
		c.Batch.Pattern = other.Batch.Pattern
	}
	if other.Batch.Workers != 0 {
		c.Batch.Workers = other.Batch.Workers
	}

	// Store
	if other.Store.Driver != "" {
		c.Store.Driver = other.Store.Driver
	}
	if other.Store.DatabaseURL != "" {
		c.Store.DatabaseURL = other.Store.DatabaseURL
	}
	if other.Store.SQLitePath != "" {
		c.Store.SQLitePath = other.Store.SQLitePath
	}
	if other.Store.AutoMigrate {
		c.Store.AutoMigrate = true
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Subject != "" {
		c.NATS.Subject = other.NATS.Subject
	}

	// HTTP
	if other.HTTP.Port != "" {
		c.HTTP.Port = other.HTTP.Port
	}
	if other.HTTP.ReadTimeout != 0 {
		c.HTTP.ReadTimeout = other.HTTP.ReadTimeout
	}
	if other.HTTP.WriteTimeout != 0 {
		c.HTTP.WriteTimeout = other.HTTP.WriteTimeout
	}
	if other.HTTP.MaxBody != 0 {
		c.HTTP.MaxBody = other.HTTP.MaxBody
	}
}
