// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labinform/datasafe/lib/manifest"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datasafe.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if cfg.Storage.ManifestFilename != manifest.DefaultFilename {
		t.Errorf("manifest filename = %q", cfg.Storage.ManifestFilename)
	}
	if cfg.Checksum.Algorithm != "md5" {
		t.Errorf("algorithm = %q", cfg.Checksum.Algorithm)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		"storage:",
		"  root_directory: /srv/datasafe",
		"checksum:",
		"  algorithm: blake3",
		"loi:",
		"  issuer: \"1001\"",
	}, "\n"))

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.RootDirectory != "/srv/datasafe" {
		t.Errorf("root directory = %q", cfg.Storage.RootDirectory)
	}
	if cfg.Storage.ManifestFilename != manifest.DefaultFilename {
		t.Errorf("manifest filename lost its default: %q", cfg.Storage.ManifestFilename)
	}
	if cfg.Checksum.Algorithm != "blake3" {
		t.Errorf("algorithm = %q", cfg.Checksum.Algorithm)
	}
	if cfg.LOI.Issuer != "1001" {
		t.Errorf("issuer = %q", cfg.LOI.Issuer)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config invalid: %v", err)
	}
}

func TestLoadUsesEnvironmentVariable(t *testing.T) {
	path := writeConfig(t, "storage:\n  root_directory: /srv/datasafe\n")
	t.Setenv("DATASAFE_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.RootDirectory != "/srv/datasafe" {
		t.Errorf("root directory = %q", cfg.Storage.RootDirectory)
	}
}

func TestLoadWithoutEnvironmentFallsBackToDefaults(t *testing.T) {
	t.Setenv("DATASAFE_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.RootDirectory == "" {
		t.Error("defaults missing storage root")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing config file accepted")
	}
}

func TestExpandsHomeVariable(t *testing.T) {
	t.Setenv("HOME", "/home/krausem")
	path := writeConfig(t, "storage:\n  root_directory: ${HOME}/datasafe\n")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.RootDirectory != "/home/krausem/datasafe" {
		t.Errorf("root directory = %q", cfg.Storage.RootDirectory)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty root", func(c *Config) { c.Storage.RootDirectory = "" }, "root_directory"},
		{"empty manifest name", func(c *Config) { c.Storage.ManifestFilename = "" }, "manifest_filename"},
		{"unknown algorithm", func(c *Config) { c.Checksum.Algorithm = "crc32" }, "not registered"},
		{"non-numeric issuer", func(c *Config) { c.LOI.Issuer = "tb" }, "numeric"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("invalid config accepted")
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("error = %v, want mention of %q", err, test.want)
			}
		})
	}
}

func TestEnsurePaths(t *testing.T) {
	cfg := Default()
	cfg.Storage.RootDirectory = filepath.Join(t.TempDir(), "deep", "datasafe")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(cfg.Storage.RootDirectory)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Error("storage root is not a directory")
	}
}
