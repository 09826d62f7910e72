// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultURL is the symbol server used when no url is configured.
const DefaultURL = "https://symbols.symkeep.dev"

// Config carries the settings shared by every symkeep command.
type Config struct {
	// URL is the symbol server base URL.
	URL string `yaml:"url"`

	// AuthToken authenticates API requests.
	AuthToken string `yaml:"auth_token"`

	// Org is the organization slug uploads are filed under.
	Org string `yaml:"org"`

	// Project is the project slug uploads are filed under.
	Project string `yaml:"project"`

	// LogLevel sets diagnostic verbosity: debug, info, warn, or error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration. Commands start from
// these values before the config file, environment, and flags are
// applied.
func Default() *Config {
	return &Config{
		URL:      DefaultURL,
		LogLevel: "info",
	}
}

// Load loads configuration from the file named by SYMKEEP_CONFIG if it
// is set, otherwise from defaults alone. SYMKEEP_* environment
// variables are applied over the result either way.
func Load() (*Config, error) {
	if path := os.Getenv("SYMKEEP_CONFIG"); path != "" {
		return LoadFile(path)
	}
	cfg := Default()
	cfg.applyEnvironment()
	return cfg, nil
}

// LoadFile loads configuration from a specific file path, typically
// the --config flag. The file must exist; a missing or unparseable
// file is an error rather than a silent fallback to defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyEnvironment()
	return cfg, nil
}

// applyEnvironment applies SYMKEEP_* variables over file values. Empty
// variables leave the file value in place.
func (c *Config) applyEnvironment() {
	if v := os.Getenv("SYMKEEP_URL"); v != "" {
		c.URL = v
	}
	if v := os.Getenv("SYMKEEP_AUTH_TOKEN"); v != "" {
		c.AuthToken = v
	}
	if v := os.Getenv("SYMKEEP_ORG"); v != "" {
		c.Org = v
	}
	if v := os.Getenv("SYMKEEP_PROJECT"); v != "" {
		c.Project = v
	}
	if v := os.Getenv("SYMKEEP_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// logLevels maps the accepted log_level strings to slog levels.
var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Level returns the slog level for LogLevel. Unknown values fall back
// to info; Validate reports them.
func (c *Config) Level() slog.Level {
	if level, ok := logLevels[c.LogLevel]; ok {
		return level
	}
	return slog.LevelInfo
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.URL == "" {
		errs = append(errs, fmt.Errorf("url is required"))
	} else if parsed, err := url.Parse(c.URL); err != nil {
		errs = append(errs, fmt.Errorf("invalid url %q: %w", c.URL, err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errs = append(errs, fmt.Errorf("url %q must use http or https", c.URL))
	}

	if _, ok := logLevels[c.LogLevel]; !ok {
		errs = append(errs, fmt.Errorf("log_level %q must be one of: debug, info, warn, error", c.LogLevel))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// RequireProject returns an error unless both org and project are
// configured. The message names every way to supply the value.
func (c *Config) RequireProject() error {
	if c.Org == "" {
		return fmt.Errorf("no organization configured; pass --org, set SYMKEEP_ORG, or add org to the config file")
	}
	if c.Project == "" {
		return fmt.Errorf("no project configured; pass --project, set SYMKEEP_PROJECT, or add project to the config file")
	}
	return nil
}

// RequireAuthToken returns an error unless an auth token is
// configured.
func (c *Config) RequireAuthToken() error {
	if c.AuthToken == "" {
		return fmt.Errorf("no auth token configured; pass --auth-token, set SYMKEEP_AUTH_TOKEN, or add auth_token to the config file")
	}
	return nil
}
