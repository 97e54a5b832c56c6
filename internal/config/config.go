package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"eoreview/internal/store"
)

const FileName = "config.toml"

const (
	ThemeAuto  = "auto"
	ThemeLight = "light"
	ThemeDark  = "dark"
)

const (
	MinDebounceMS     = 50
	MaxDebounceMS     = 300
	DefaultDebounceMS = 150
)

type Config struct {
	// ContentDir holds the encrypted packs. Empty means <data dir>/packs.
	ContentDir   string `toml:"content_dir"`
	DataDir      string `toml:"data_dir"`
	DefaultTest  string `toml:"default_test"`
	LogLevel     string `toml:"log_level"`
	Theme        string `toml:"theme"`
	DebounceMS   int    `toml:"debounce_ms"`
	Overscan     int    `toml:"overscan"`
	ReviewBatch  int    `toml:"review_batch"`
	SmoothScroll bool   `toml:"smooth_scroll"`

	Remote Remote `toml:"remote"`
	Keys   Keys   `toml:"keys"`
}

type Remote struct {
	URL            string `toml:"url"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	ClientVersion  string `toml:"client_version"`
}

type Keys struct {
	Key1 string `toml:"key1"`
	Key2 string `toml:"key2"`
}

func Default() *Config {
	return &Config{
		LogLevel:     "info",
		Theme:        ThemeAuto,
		DebounceMS:   DefaultDebounceMS,
		Overscan:     3,
		ReviewBatch:  3,
		SmoothScroll: true,
		Remote: Remote{
			TimeoutSeconds: 10,
			ClientVersion:  "1",
		},
	}
}

// Path returns the config file path inside the config directory.
func Path() (string, error) {
	dir, err := store.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load decodes path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize clamps numeric settings and resets unknown themes.
func (c *Config) Normalize() {
	switch {
	case c.DebounceMS == 0:
		c.DebounceMS = DefaultDebounceMS
	case c.DebounceMS < MinDebounceMS:
		c.DebounceMS = MinDebounceMS
	case c.DebounceMS > MaxDebounceMS:
		c.DebounceMS = MaxDebounceMS
	}
	if c.Overscan < 0 {
		c.Overscan = 0
	}
	if c.ReviewBatch < 1 {
		c.ReviewBatch = 3
	}
	c.Theme = strings.ToLower(strings.TrimSpace(c.Theme))
	switch c.Theme {
	case ThemeLight, ThemeDark, ThemeAuto:
	default:
		c.Theme = ThemeAuto
	}
	if c.Remote.TimeoutSeconds <= 0 {
		c.Remote.TimeoutSeconds = 10
	}
	c.Remote.URL = strings.TrimRight(strings.TrimSpace(c.Remote.URL), "/")
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

func (c *Config) RemoteTimeout() time.Duration {
	return time.Duration(c.Remote.TimeoutSeconds) * time.Second
}

// Save writes cfg atomically, keeping the previous file as config.toml.bak.
func Save(path string, cfg *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		if err := store.CopyFile(path, path+".bak"); err != nil {
			return err
		}
	}
	return store.WriteFileAtomic(path, buf.Bytes(), 0o600)
}
