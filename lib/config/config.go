// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/labinform/datasafe/lib/checksum"
	"github.com/labinform/datasafe/lib/manifest"
)

// Config is the master configuration for the datasafe.
type Config struct {
	// Storage configures the filesystem storage backend.
	Storage StorageConfig `yaml:"storage"`

	// Checksum configures digest computation.
	Checksum ChecksumConfig `yaml:"checksum"`

	// LOI configures identifier handling.
	LOI LOIConfig `yaml:"loi"`
}

// StorageConfig configures the filesystem storage backend.
type StorageConfig struct {
	// RootDirectory is the base directory of the storage tree.
	// Default: ${HOME}/.local/share/datasafe
	RootDirectory string `yaml:"root_directory"`

	// ManifestFilename is the manifest filename used throughout.
	// Default: MANIFEST.yaml
	ManifestFilename string `yaml:"manifest_filename"`
}

// ChecksumConfig configures digest computation.
type ChecksumConfig struct {
	// Algorithm names the digest algorithm for new manifests.
	// Must be registered with the checksum package. Default: md5
	Algorithm string `yaml:"algorithm"`
}

// LOIConfig configures identifier handling.
type LOIConfig struct {
	// Issuer is the numeric issuer id used when composing
	// identifiers, e.g. "1001". Empty means the caller supplies
	// complete identifiers.
	Issuer string `yaml:"issuer"`
}

// Default returns the default configuration. These defaults make a
// single-user datasafe work with no config file at all.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Storage: StorageConfig{
			RootDirectory:    filepath.Join(homeDir, ".local", "share", "datasafe"),
			ManifestFilename: manifest.DefaultFilename,
		},
		Checksum: ChecksumConfig{
			Algorithm: checksum.DefaultAlgorithm,
		},
	}
}

// Load loads configuration from the DATASAFE_CONFIG environment
// variable, falling back to the defaults when it is not set.
func Load() (*Config, error) {
	configPath := os.Getenv("DATASAFE_CONFIG")
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merging it
// over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Storage.RootDirectory = expandVars(c.Storage.RootDirectory, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var issuerPattern = regexp.MustCompile(`^\d+$`)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Storage.RootDirectory == "" {
		errs = append(errs, fmt.Errorf("storage.root_directory is required"))
	}
	if c.Storage.ManifestFilename == "" {
		errs = append(errs, fmt.Errorf("storage.manifest_filename is required"))
	}
	if !checksum.Supported(c.Checksum.Algorithm) {
		errs = append(errs, fmt.Errorf("checksum.algorithm %q not registered, have: %v",
			c.Checksum.Algorithm, checksum.Algorithms()))
	}
	if c.LOI.Issuer != "" && !issuerPattern.MatchString(c.LOI.Issuer) {
		errs = append(errs, fmt.Errorf("loi.issuer must be numeric, got %q", c.LOI.Issuer))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the storage root if it does not exist.
func (c *Config) EnsurePaths() error {
	if c.Storage.RootDirectory == "" {
		return nil
	}
	if err := os.MkdirAll(c.Storage.RootDirectory, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", c.Storage.RootDirectory, err)
	}
	return nil
}
