// Package config loads and validates the adapter's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// Defaults applied when the config file omits a key.
const (
	DefaultTokenPath      = "/tmp/cs3_oauth.token"
	DefaultAuthLoginType  = "bearer"
	DefaultTimeoutSeconds = 30
)

// Config is the adapter configuration.
type Config struct {
	// Host is the gateway endpoint, e.g. "gateway.example.org:443".
	Host string `toml:"host"`
	// SSL selects https when true.
	SSL bool `toml:"ssl"`
	// TokenPath is the side-channel file holding the bearer token.
	TokenPath string `toml:"token_path"`
	// RootPath is the user's storage root on the gateway.
	RootPath string `toml:"root_path"`
	// AuthLoginType is the gateway login scheme. Only "bearer" is supported.
	AuthLoginType string `toml:"auth_login_type"`
	// TimeoutSeconds bounds each gateway request.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// DefaultConfig returns a Config populated with default values.
func DefaultConfig() *Config {
	return &Config{
		TokenPath:      DefaultTokenPath,
		AuthLoginType:  DefaultAuthLoginType,
		TimeoutSeconds: DefaultTimeoutSeconds,
	}
}

// BaseURL returns the gateway base URL derived from Host and SSL.
func (c *Config) BaseURL() string {
	scheme := "http"
	if c.SSL {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s/api/v1", scheme, strings.TrimSuffix(c.Host, "/"))
}

// Validate checks the configuration for usability.
func Validate(c *Config) error {
	var errs []error

	if c.Host == "" {
		errs = append(errs, errors.New("host is required"))
	}

	if c.TokenPath == "" {
		errs = append(errs, errors.New("token_path must not be empty"))
	}

	if c.AuthLoginType != "bearer" {
		errs = append(errs, fmt.Errorf("unsupported auth_login_type %q (only \"bearer\")", c.AuthLoginType))
	}

	if c.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds))
	}

	return errors.Join(errs...)
}
