package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "bridge-lin.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/bridge-lin"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *zap.Logger

	// Path, when set, replaces the project config search.
	Path string

	// Getenv reads overrides; os.Getenv when nil.
	Getenv func(string) string
}

// NewLoader creates a new configuration loader
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/bridge-lin/config.yaml)
// 3. Project config (bridge-lin.yaml in current or parent directories, or Path)
// 4. Environment variables
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	userConfigPath := l.userConfigPath()
	if userConfigPath != "" {
		if userConfig, err := LoadFromFile(userConfigPath); err == nil {
			l.logger.Debug("loaded user config", zap.String("path", userConfigPath))
			config.Merge(userConfig)
		} else if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("failed to load user config", zap.String("path", userConfigPath), zap.Error(err))
		}
	}

	projectConfigPath := l.Path
	if projectConfigPath == "" {
		projectConfigPath = l.findProjectConfig()
	}
	if projectConfigPath != "" {
		projectConfig, err := LoadFromFile(projectConfigPath)
		if err != nil {
			// An explicit --config must exist; a discovered one may be broken.
			if l.Path != "" {
				return nil, err
			}
			l.logger.Warn("failed to load project config", zap.String("path", projectConfigPath), zap.Error(err))
		} else {
			l.logger.Debug("loaded project config", zap.String("path", projectConfigPath))
			config.Merge(projectConfig)
		}
	} else {
		l.logger.Debug("no project config found")
	}

	l.applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnv overlays the deployment environment variables.
func (l *Loader) applyEnv(c *Config) {
	env := l.Getenv
	if env == nil {
		env = os.Getenv
	}
	if v := env("DATABASE_URL"); v != "" {
		c.Store.DatabaseURL = v
		if c.Store.Driver == "" {
			c.Store.Driver = "postgres"
		}
	}
	c.Store.Driver = getenv(env, "STORE_DRIVER", c.Store.Driver)
	c.Store.SQLitePath = getenv(env, "SQLITE_PATH", c.Store.SQLitePath)
	if v := env("AUTO_MIGRATE"); v != "" {
		c.Store.AutoMigrate = asBool(v)
	}
	c.NATS.URL = getenv(env, "NATS_URL", c.NATS.URL)
	c.HTTP.Port = getenv(env, "PORT", c.HTTP.Port)
	c.Batch.Workers = atoiDef(env("WORKERS"), c.Batch.Workers)
	c.Decoder.DealerRule = getenv(env, "LIN_DEALER_RULE", c.Decoder.DealerRule)
	c.Decoder.Seating = getenv(env, "LIN_SEATING", c.Decoder.Seating)
	if v := env("LIN_SEATING_FROM_DEALER"); v != "" {
		c.Decoder.SeatingFromDealer = Bool(asBool(v))
	}
	c.Decoder.DeclarerRule = getenv(env, "LIN_DECLARER_RULE", c.Decoder.DeclarerRule)
}

func getenv(env func(string) string, k, def string) string {
	if v := env(k); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func asBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for bridge-lin.yaml in current and parent directories
func (l *Loader) findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
