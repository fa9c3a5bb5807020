// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for datasafe
// components.
//
// Configuration is loaded from a single file specified by either the
// DATASAFE_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There is no ~/.config discovery and no
// automatic file search; without a file the built-in defaults apply,
// which make a single-user datasafe work out of the box.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No other
// environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Storage, Checksum, LOI sections
//   - [Default] -- returns a Config with the built-in defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
package config
