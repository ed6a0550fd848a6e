// Package config loads the monitor's configuration from a YAML file with
// environment-variable overrides, using a load-then-override-then-
// validate pipeline.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the monitor process.
type Config struct {
	Engine     EngineConfig     `yaml:"engine" json:"engine"`
	Store      StoreConfig      `yaml:"store" json:"store"`
	Credential CredentialConfig `yaml:"credential" json:"credential"`
	API        APIConfig        `yaml:"api" json:"api"`
	Logs       LogConfig        `yaml:"logs" json:"logs"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level   string `yaml:"level" json:"level"`
	Console bool   `yaml:"console" json:"console"`
	File    string `yaml:"file" json:"file"`
}

// EngineConfig tunes the monitoring loop.
type EngineConfig struct {
	// DefaultMonitoringIntervalS is a default monitoring interval for new
	// nodes. It is loaded and validated here, but neither the import path
	// nor the API reads it: a node created without an interval keeps 0.
	DefaultMonitoringIntervalS int `yaml:"default_monitoring_interval_s" json:"default_monitoring_interval_s"`
	// StopPollIntervalMS is the engine loop's stop-channel poll cadence.
	// Defaults to 1 second.
	StopPollIntervalMS int `yaml:"stop_poll_interval_ms" json:"stop_poll_interval_ms"`
}

// StoreConfig configures the sqlite-backed persistent store.
type StoreConfig struct {
	Path    string `yaml:"path" json:"path"`
	WALMode bool   `yaml:"wal_mode" json:"wal_mode"`
	// MaxOpenConns bounds the connection pool; sqlite tolerates many
	// concurrent readers but serializes writers internally.
	MaxOpenConns int `yaml:"max_open_conns" json:"max_open_conns"`
}

// CredentialConfig locates the encrypted credential file.
type CredentialConfig struct {
	Path string `yaml:"path" json:"path"`
}

// APIConfig configures the reference cmd/monitor HTTP+WebSocket surface.
type APIConfig struct {
	Host string     `yaml:"host" json:"host"`
	Port int        `yaml:"port" json:"port"`
	CORS CORSConfig `yaml:"cors" json:"cors"`
}

// CORSConfig holds CORS settings. The API's CORS middleware does not read
// it: that middleware always allows every origin.
type CORSConfig struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Origins []string `yaml:"origins" json:"origins"`
}

var globalConfig *Config

// Load reads configuration from ./configs/<MONITOR_ENV>.yaml (default
// environment "development"), applies environment variable overrides,
// then validates the result.
func Load() (*Config, error) {
	environment := os.Getenv("MONITOR_ENV")
	if environment == "" {
		environment = "development"
	}

	configPath := fmt.Sprintf("./configs/%s.yaml", environment)

	cfg := defaultConfig()

	if fileExists(configPath) {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", configPath, err)
		}
	}

	overrideWithEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the most recently Load-ed configuration.
func Get() *Config {
	if globalConfig == nil {
		panic("config: not loaded, call Load() first")
	}
	return globalConfig
}

func defaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			DefaultMonitoringIntervalS: 60,
			StopPollIntervalMS:         1000,
		},
		Store: StoreConfig{
			Path:         "./data/monitor.db",
			WALMode:      true,
			MaxOpenConns: 10,
		},
		Credential: CredentialConfig{
			Path: "./data/credentials.enc",
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8090,
			CORS: CORSConfig{
				Enabled: true,
				Origins: []string{"*"},
			},
		},
		Logs: LogConfig{
			Level:   "info",
			Console: true,
		},
	}
}

func overrideWithEnv(cfg *Config) {
	if val := os.Getenv("MONITOR_STORE_PATH"); val != "" {
		cfg.Store.Path = val
	}
	if val := os.Getenv("MONITOR_STORE_WAL"); val != "" {
		cfg.Store.WALMode = strings.ToLower(val) == "true"
	}
	if val := os.Getenv("MONITOR_CREDENTIAL_PATH"); val != "" {
		cfg.Credential.Path = val
	}
	if val := os.Getenv("MONITOR_API_HOST"); val != "" {
		cfg.API.Host = val
	}
	if val := os.Getenv("MONITOR_API_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.API.Port = port
		}
	}
	if val := os.Getenv("MONITOR_LOG_LEVEL"); val != "" {
		cfg.Logs.Level = val
	}
	if val := os.Getenv("MONITOR_DEFAULT_INTERVAL_S"); val != "" {
		if interval, err := strconv.Atoi(val); err == nil {
			cfg.Engine.DefaultMonitoringIntervalS = interval
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Store.Path == "" {
		return fmt.Errorf("store.path cannot be empty")
	}
	if cfg.Store.MaxOpenConns <= 0 {
		return fmt.Errorf("invalid store.max_open_conns: %d", cfg.Store.MaxOpenConns)
	}
	if cfg.Credential.Path == "" {
		return fmt.Errorf("credential.path cannot be empty")
	}
	if cfg.API.Port <= 0 || cfg.API.Port > 65535 {
		return fmt.Errorf("invalid api.port: %d", cfg.API.Port)
	}
	if cfg.Engine.DefaultMonitoringIntervalS <= 0 {
		return fmt.Errorf("invalid engine.default_monitoring_interval_s: %d", cfg.Engine.DefaultMonitoringIntervalS)
	}
	if cfg.Engine.StopPollIntervalMS <= 0 {
		return fmt.Errorf("invalid engine.stop_poll_interval_ms: %d", cfg.Engine.StopPollIntervalMS)
	}
	return nil
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
