// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for uniroad.
//
// Configuration is read from ~/.uniroad/config.toml when present, with
// environment variable overrides and built-in defaults. The file is
// optional; the defaults point at the public server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete uniroad configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Stream StreamConfig `toml:"stream"`
	UI     UIConfig     `toml:"ui"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig describes how to reach the remote chat API.
type ServerConfig struct {
	// BaseURL is the base URL of the chat API, without a trailing slash.
	BaseURL string `toml:"base_url"`
	// TimeoutSecs is the timeout for plain (non-streaming) requests.
	TimeoutSecs int `toml:"timeout_secs"`
}

// StreamConfig tunes the streaming completion connection.
type StreamConfig struct {
	// IdleTimeoutSecs closes a stream that delivers no event for this long.
	// A stalled connection is otherwise held open forever by the transport.
	IdleTimeoutSecs int `toml:"idle_timeout_secs"`
	// StartDelayMs defers the first stream open so the placeholder message
	// renders before fragments start arriving.
	StartDelayMs int `toml:"start_delay_ms"`
	// TitleDelayMs defers the title-generation follow-up after the first
	// exchange completes.
	TitleDelayMs int `toml:"title_delay_ms"`
}

// UIConfig contains presentation options.
type UIConfig struct {
	// RecentLimit caps the conversation list on the home view.
	RecentLimit int `toml:"recent_limit"`
	// Markdown enables glamour markdown rendering of assistant messages.
	Markdown bool `toml:"markdown"`
	// SampleQuestions are shown on the home view as one-tap starters.
	SampleQuestions []string `toml:"sample_questions"`
}

// LogConfig controls the debug log file.
type LogConfig struct {
	// Path of the debug log. Empty means ~/.uniroad/debug.log.
	Path string `toml:"path"`
	// Debug enables verbose request/event logging.
	Debug bool `toml:"debug"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultBaseURL is the public chat API endpoint.
const DefaultBaseURL = "https://dku-java-3-server.seongmin.dev"

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:     DefaultBaseURL,
			TimeoutSecs: 30,
		},
		Stream: StreamConfig{
			IdleTimeoutSecs: 90,
			StartDelayMs:    100,
			TitleDelayMs:    100,
		},
		UI: UIConfig{
			RecentLimit: 4,
			Markdown:    true,
			SampleQuestions: []string{
				"How are the dorms at CSUSB?",
				"How should I prepare my documents for Kent State University?",
				"What are good places to visit around Wichita State University?",
			},
		},
		Log: LogConfig{},
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Dir returns the uniroad configuration directory (~/.uniroad).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".uniroad"), nil
}

// Path returns the configuration file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// WriteDefault writes the default configuration to the standard path,
// creating the directory if needed, and returns the path. An existing file
// is not overwritten.
func WriteDefault() (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(Default()); err != nil {
		return "", fmt.Errorf("encode %s: %w", path, err)
	}
	return path, nil
}

// Load reads configuration from the default path, applies environment
// overrides, and validates the result. A missing file is not an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies UNIROAD_* environment variable overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("UNIROAD_SERVER_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("UNIROAD_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Server.TimeoutSecs = n
		}
	}
	if v := os.Getenv("UNIROAD_STREAM_IDLE_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Stream.IdleTimeoutSecs = n
		}
	}
	if v := os.Getenv("UNIROAD_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Log.Debug = b
		}
	}
}

// Validate checks the configuration for coherent values, clamping what can
// be clamped and rejecting what cannot.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid server base URL %q", c.Server.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server base URL must be http or https, got %q", u.Scheme)
	}

	if c.Server.TimeoutSecs <= 0 {
		c.Server.TimeoutSecs = 30
	}
	if c.Stream.IdleTimeoutSecs <= 0 {
		c.Stream.IdleTimeoutSecs = 90
	}
	if c.Stream.StartDelayMs < 0 {
		c.Stream.StartDelayMs = 0
	}
	if c.Stream.TitleDelayMs < 0 {
		c.Stream.TitleDelayMs = 0
	}
	if c.UI.RecentLimit <= 0 {
		c.UI.RecentLimit = 4
	}
	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// RequestTimeout returns the plain-request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.TimeoutSecs) * time.Second
}

// StreamIdleTimeout returns the stream stall timeout as a duration.
func (c *Config) StreamIdleTimeout() time.Duration {
	return time.Duration(c.Stream.IdleTimeoutSecs) * time.Second
}

// StreamStartDelay returns the deferred stream-start delay.
func (c *Config) StreamStartDelay() time.Duration {
	return time.Duration(c.Stream.StartDelayMs) * time.Millisecond
}

// TitleDelay returns the title-generation follow-up delay.
func (c *Config) TitleDelay() time.Duration {
	return time.Duration(c.Stream.TitleDelayMs) * time.Millisecond
}

// LogPath returns the resolved debug log path.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return c.Log.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "debug.log"), nil
}

// =============================================================================
// GLOBAL ACCESS
// =============================================================================

var (
	globalMu  sync.RWMutex
	globalCfg = Default()
)

// Global returns the process-wide configuration.
func Global() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalCfg
}

// SetGlobal replaces the process-wide configuration.
func SetGlobal(cfg *Config) {
	if cfg == nil {
		return
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	globalCfg = cfg
}
