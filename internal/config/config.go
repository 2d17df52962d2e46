// Package config reads the optional psp-packer configuration file
// (~/.config/psp-packer/config.yaml).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/psp-tools/psp-packer/pkg/psp"
)

// Config mirrors the configuration file. Pointer and empty-string fields
// mean "not set" so command-line defaults survive.
type Config struct {
	// Tag and OETag override the default header tags. Decimal or
	// 0x-prefixed hex; both or neither.
	Tag   string `yaml:"tag"`
	OETag string `yaml:"oe_tag"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Jobs bounds parallel packing of multiple inputs.
	Jobs *int `yaml:"jobs"`

	ServerAddress string `yaml:"server_address"`
	MaxBodySize   *int64 `yaml:"max_body_size"`
}

// DefaultPath returns the per-user config file location, or "" when the
// platform has no config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "psp-packer", "config.yaml")
}

// Load reads the config at path. A missing or unparsable default file
// yields the zero Config; when explicit is set those are errors too.
// Invalid values are always an error.
func Load(path string, explicit bool) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit {
			return Config{}, nil
		}
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		if !explicit {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field combinations that yaml cannot.
func (c Config) Validate() error {
	if (c.Tag == "") != (c.OETag == "") {
		return errors.New("tag and oe_tag must be set together")
	}
	if _, err := c.Tags(); err != nil {
		return err
	}
	if c.Jobs != nil && *c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", *c.Jobs)
	}
	if c.MaxBodySize != nil && *c.MaxBodySize < 1 {
		return fmt.Errorf("max_body_size must be positive, got %d", *c.MaxBodySize)
	}
	return nil
}

// Tags returns the configured tag override, or nil when none is set.
func (c Config) Tags() (*psp.Tags, error) {
	if c.Tag == "" && c.OETag == "" {
		return nil, nil
	}
	t, err := psp.ParseTags(c.Tag, c.OETag)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
