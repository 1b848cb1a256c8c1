package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	if !cfg.Enabled {
		t.Error("sync should be enabled by default")
	}
	if cfg.Port != 3000 {
		t.Errorf("port = %d, want 3000", cfg.Port)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("host = %s, want 127.0.0.1", cfg.Host)
	}
	if cfg.Debounce() != 300*time.Millisecond {
		t.Errorf("debounce = %v, want 300ms", cfg.Debounce())
	}
	if cfg.ReconnectInterval() != 3*time.Second {
		t.Errorf("reconnect = %v, want 3s", cfg.ReconnectInterval())
	}
	if cfg.MdnsEnabled {
		t.Error("mdns should be disabled by default")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
port = 4100
host = "10.0.0.5"
enabled = false
debounce_ms = 150
mdns_enabled = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Port != 4100 {
		t.Errorf("port = %d, want 4100", cfg.Port)
	}
	if cfg.Host != "10.0.0.5" {
		t.Errorf("host = %s", cfg.Host)
	}
	if cfg.Enabled {
		t.Error("enabled should be false")
	}
	if cfg.DebounceMs != 150 {
		t.Errorf("debounce_ms = %d, want 150", cfg.DebounceMs)
	}
	// Values absent from the file keep their defaults.
	if cfg.ReconnectMs != DefaultReconnectMs {
		t.Errorf("reconnect_ms = %d, want default %d", cfg.ReconnectMs, DefaultReconnectMs)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
	if !apperrors.IsCode(err, apperrors.CodeConfigReadFailed) {
		t.Errorf("code = %s", apperrors.GetCode(err))
	}
}

func TestLoadParseError(t *testing.T) {
	path := writeConfig(t, "port = {{{")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !apperrors.IsCode(err, apperrors.CodeConfigParseFailed) {
		t.Errorf("code = %s", apperrors.GetCode(err))
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Port = 0 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"negative debounce", func(c *Config) { c.DebounceMs = -1 }},
		{"zero reconnect", func(c *Config) { c.ReconnectMs = 0 }},
		{"zero ping", func(c *Config) { c.PingIntervalMs = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !apperrors.IsCode(err, apperrors.CodeConfigInvalid) {
				t.Errorf("code = %s", apperrors.GetCode(err))
			}
		})
	}
}

func TestAddresses(t *testing.T) {
	cfg := Default()

	if got := cfg.ListenAddr(); got != "127.0.0.1:3000" {
		t.Errorf("ListenAddr = %s", got)
	}
	if got := cfg.DialURL(); got != "ws://127.0.0.1:3000/sync" {
		t.Errorf("DialURL = %s", got)
	}

	// mDNS advertisement implies LAN reachability.
	cfg.MdnsEnabled = true
	if got := cfg.ListenAddr(); got != "0.0.0.0:3000" {
		t.Errorf("ListenAddr with mdns = %s", got)
	}
}
