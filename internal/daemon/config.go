// Package daemon holds process-level configuration for the laurels service.
// Config lives in a TOML file (default ~/.laurels/config.toml); missing
// fields fall back to defaults so a partial file is always valid.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the full service configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	Engine  EngineConfig  `toml:"engine"`
}

// APIConfig controls the HTTP server.
type APIConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"` // expose /metrics (Prometheus)
}

// StorageConfig controls where the database lives.
type StorageConfig struct {
	Dir string `toml:"dir"`
}

// EngineConfig controls occurrence processing.
type EngineConfig struct {
	// MaxNotifications caps how many pending notifications one API call
	// returns per user.
	MaxNotifications int `toml:"max_notifications"`
	// LeaderboardTopN is the default leaderboard size.
	LeaderboardTopN int `toml:"leaderboard_top_n"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:    "127.0.0.1",
			Port:    8710,
			Metrics: true,
		},
		Storage: StorageConfig{
			Dir: defaultDataDir(),
		},
		Engine: EngineConfig{
			MaxNotifications: 20,
			LeaderboardTopN:  100,
		},
	}
}

// Load reads a config file, layering it over the defaults.
// A missing file is not an error — defaults apply.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultConfigPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	// Re-apply defaults for fields the file zeroed out.
	def := DefaultConfig()
	if cfg.API.Host == "" {
		cfg.API.Host = def.API.Host
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = def.API.Port
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = def.Storage.Dir
	}
	if cfg.Engine.MaxNotifications == 0 {
		cfg.Engine.MaxNotifications = def.Engine.MaxNotifications
	}
	if cfg.Engine.LeaderboardTopN == 0 {
		cfg.Engine.LeaderboardTopN = def.Engine.LeaderboardTopN
	}
	return cfg, nil
}

// Addr returns the listen address in host:port form.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DefaultConfigPath returns ~/.laurels/config.toml.
func DefaultConfigPath() string {
	return filepath.Join(baseDir(), "config.toml")
}

func defaultDataDir() string {
	return filepath.Join(baseDir(), "data")
}

func baseDir() string {
	if dir := os.Getenv("LAURELS_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".laurels"
	}
	return filepath.Join(home, ".laurels")
}
