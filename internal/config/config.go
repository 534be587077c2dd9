package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.yap/config.toml.
type Config struct {
	DefaultProfile string `toml:"default_profile"`
	ServerURL      string `toml:"server_url"`
	DisplayName    string `toml:"display_name"`
	RoomCode       string `toml:"room_code"`
	HistoryLimit   int    `toml:"history_limit"`
	ReceiptDelayMS int    `toml:"receipt_delay_ms"`
}

// Defaults mirror the relay's web client: 200 records of history, a 500ms
// "seen" delay before a read receipt goes out.
const (
	DefaultServerURL      = "wss://chat.yapchat.dev/ws"
	DefaultHistoryLimit   = 200
	DefaultReceiptDelayMS = 500
)

// Default returns a config with every default applied, for first runs
// before any config file exists.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load reads config from the given path. Returns an error if the file is
// missing; callers fall back to Default.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

func (c *Config) applyDefaults() {
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = DefaultHistoryLimit
	}
	if c.ReceiptDelayMS <= 0 {
		c.ReceiptDelayMS = DefaultReceiptDelayMS
	}
}
