// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

// Package service implements the server-side operations of the
// datasafe: identifier allocation, upload, download, and update of
// dataset bundles. The package is transport-agnostic; callers wire it
// behind whatever transport they need, or use it directly in-process.
package service
