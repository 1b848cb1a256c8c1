// Package config provides TOML configuration file loading for the sync core.
// The configuration file lives at ~/.idesync/config.toml by default, but can
// be overridden with the --config flag. CLI flags always take precedence over
// file values, and every field has a working default so the core runs with no
// config file at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	apperrors "github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/errors"
)

// Defaults for every tunable. The port and enabled toggle are the
// configuration surface the plugins expose to users; the rest are timing
// knobs that rarely need changing.
const (
	DefaultPort        = 3000
	DefaultHost        = "127.0.0.1"
	DefaultDebounceMs  = 300
	DefaultReconnectMs = 3000
	DefaultPingMs      = 15000
)

// Config represents the sync configuration file structure.
// Field names map to snake_case TOML keys via struct tags.
type Config struct {
	// Enabled toggles synchronization entirely. When false, neither side
	// binds a port or dials out. Default: true.
	Enabled bool `toml:"enabled"`

	// Port is the TCP port the listener side binds and the connector side
	// dials. Default: 3000.
	Port int `toml:"port"`

	// Host is the address the connector side dials. Default: 127.0.0.1.
	// Both editors normally run on the same machine; a remote host only
	// makes sense for VM or container setups.
	Host string `toml:"host"`

	// DebounceMs is the coalescing delay for NAVIGATE and SCROLL events
	// in milliseconds. Default: 300.
	DebounceMs int `toml:"debounce_ms"`

	// ReconnectMs is the interval between connection attempts on the
	// connector side in milliseconds. Default: 3000.
	ReconnectMs int `toml:"reconnect_ms"`

	// PingIntervalMs is the WebSocket ping interval in milliseconds.
	// A peer silent for three intervals is treated as disconnected.
	// Default: 15000.
	PingIntervalMs int `toml:"ping_interval_ms"`

	// MdnsEnabled enables mDNS/DNS-SD advertisement on the listener side
	// and discovery on the connector side. Discovery only reveals
	// presence on the local network. Default: false.
	MdnsEnabled bool `toml:"mdns_enabled"`

	// MdnsName is a human-readable instance name for the advertisement.
	// Defaults to the system hostname if empty.
	MdnsName string `toml:"mdns_name"`

	// LogFile is the path for log output when running headless.
	// Empty means stderr.
	LogFile string `toml:"log_file"`
}

// Default returns a Config populated with working defaults.
func Default() *Config {
	return &Config{
		Enabled:        true,
		Port:           DefaultPort,
		Host:           DefaultHost,
		DebounceMs:     DefaultDebounceMs,
		ReconnectMs:    DefaultReconnectMs,
		PingIntervalMs: DefaultPingMs,
	}
}

// DefaultConfigPath returns the default config file location:
// ~/.idesync/config.toml. Returns an error only if the user's home
// directory cannot be determined.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".idesync", "config.toml"), nil
}

// Load reads a TOML config file from the given path on top of the defaults.
//
// Behavior:
//   - If path is empty, attempts to load from the default location and
//     returns pure defaults without error if that file doesn't exist.
//   - If path is specified, returns an error if the file doesn't exist.
//   - Returns an error if the file exists but cannot be parsed or holds
//     out-of-range values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return cfg, nil
		}
		if _, err := os.Stat(defaultPath); os.IsNotExist(err) {
			return cfg, nil
		}
		path = defaultPath
	} else {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, apperrors.New(apperrors.CodeConfigReadFailed,
				fmt.Sprintf("config file not found: %s", path))
		}
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigParseFailed,
			fmt.Sprintf("failed to parse config file %s", path), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. Zero durations would turn the debounce into
// a busy path and a zero reconnect interval into a dial loop, so they are
// rejected rather than silently defaulted.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return apperrors.New(apperrors.CodeConfigInvalid,
			fmt.Sprintf("port must be in [1, 65535], got %d", c.Port))
	}
	if c.DebounceMs < 0 {
		return apperrors.New(apperrors.CodeConfigInvalid,
			fmt.Sprintf("debounce_ms must be >= 0, got %d", c.DebounceMs))
	}
	if c.ReconnectMs <= 0 {
		return apperrors.New(apperrors.CodeConfigInvalid,
			fmt.Sprintf("reconnect_ms must be > 0, got %d", c.ReconnectMs))
	}
	if c.PingIntervalMs <= 0 {
		return apperrors.New(apperrors.CodeConfigInvalid,
			fmt.Sprintf("ping_interval_ms must be > 0, got %d", c.PingIntervalMs))
	}
	return nil
}

// Debounce returns the coalescing delay as a Duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// ReconnectInterval returns the connector retry interval as a Duration.
func (c *Config) ReconnectInterval() time.Duration {
	return time.Duration(c.ReconnectMs) * time.Millisecond
}

// PingInterval returns the WebSocket ping interval as a Duration.
func (c *Config) PingInterval() time.Duration {
	return time.Duration(c.PingIntervalMs) * time.Millisecond
}

// ListenAddr returns the host:port the listener side binds.
// The listener always binds loopback unless mDNS advertisement is enabled,
// in which case it must be reachable from the LAN.
func (c *Config) ListenAddr() string {
	if c.MdnsEnabled {
		return fmt.Sprintf("0.0.0.0:%d", c.Port)
	}
	return fmt.Sprintf("127.0.0.1:%d", c.Port)
}

// DialURL returns the WebSocket URL the connector side dials.
func (c *Config) DialURL() string {
	return fmt.Sprintf("ws://%s:%d/sync", c.Host, c.Port)
}
