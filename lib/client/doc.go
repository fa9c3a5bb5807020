// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

// Package client prepares datasets for the datasafe and moves them in
// and out. It builds manifests from a dataset directory, packs the
// listed files into an archive for upload, and unpacks downloads into
// a fresh working directory with an integrity check on arrival.
//
// The connection to the datasafe goes through the [Transport]
// interface. A service.Server satisfies it directly for in-process
// use; remote flavors plug in the same way.
package client
