package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// EnvConfigPath is the environment variable overriding the config file
// location. A CLI --config flag wins over both.
const EnvConfigPath = "CS3FS_CONFIG"

// defaultConfigFile is used when neither flag nor environment names one.
const defaultConfigFile = "cs3fs.toml"

// Load reads and parses a TOML config file, validates it, and returns
// the resulting Config. Unknown keys are fatal errors with "did you
// mean?" suggestions — silently ignoring a typo in a config file leads
// to hard-to-debug behavior.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Resolve determines the config path (flag > environment > default) and
// loads it.
func Resolve(flagPath string) (*Config, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	if path == "" {
		path = defaultPath()
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w (looked for %s)", ErrNoConfig, path)
	}

	return Load(path)
}

// defaultPath places the config under XDG config home, falling back to
// the working directory when unset.
func defaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/cs3fs/" + defaultConfigFile
	}

	return defaultConfigFile
}

// ErrNoConfig is returned by Resolve when no config file exists at any
// candidate location.
var ErrNoConfig = errors.New("config: no configuration file found")
