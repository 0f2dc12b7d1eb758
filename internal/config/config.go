// Package config holds agent configuration loaded from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all agent configuration.
type Config struct {
	Paths      PathsConfig
	Permission PermissionConfig
	Socket     SocketConfig
	Beacon     BeaconConfig
	Logging    LogConfig
}

// PathsConfig holds filesystem locations used by the agent.
type PathsConfig struct {
	// FilesDir is the private writable directory owned by the agent.
	FilesDir string `envconfig:"DTF_FILES_DIR" default:"/data/local/dtf/files"`
	// AssetDir is the read-only bundled asset directory populated at
	// packaging time.
	AssetDir string `envconfig:"DTF_ASSET_DIR" default:"/data/local/dtf/assets"`
}

// PermissionConfig controls the external permission-change invocation.
type PermissionConfig struct {
	ChmodPath string        `envconfig:"DTF_CHMOD_PATH" default:"/system/bin/chmod"`
	Mode      string        `envconfig:"DTF_CHMOD_MODE" default:"755"`
	Timeout   time.Duration `envconfig:"DTF_CHMOD_TIMEOUT" default:"10s"`
}

// SocketConfig holds command socket configuration.
type SocketConfig struct {
	// Name is the abstract socket name the host forwards to.
	Name string `envconfig:"DTF_SOCKET_NAME" default:"dtf_socket"`
	// FallbackDir is where the filesystem socket is created when the
	// abstract namespace is unavailable.
	FallbackDir string `envconfig:"DTF_SOCKET_DIR" default:"/tmp"`
}

// BeaconConfig controls the presence beacon service.
type BeaconConfig struct {
	Interval time.Duration `envconfig:"DTF_BEACON_INTERVAL" default:"30s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"DTF_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"DTF_LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			FilesDir: "/data/local/dtf/files",
			AssetDir: "/data/local/dtf/assets",
		},
		Permission: PermissionConfig{
			ChmodPath: "/system/bin/chmod",
			Mode:      "755",
			Timeout:   10 * time.Second,
		},
		Socket: SocketConfig{
			Name:        "dtf_socket",
			FallbackDir: "/tmp",
		},
		Beacon: BeaconConfig{
			Interval: 30 * time.Second,
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}

// LoadOrDefault loads configuration from the environment or returns
// the defaults if loading fails.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}
