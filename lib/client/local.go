// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"github.com/labinform/datasafe/lib/service"
	"github.com/labinform/datasafe/lib/storage"
)

var _ Transport = (*service.Server)(nil)

// NewLocal returns a client wired directly to an in-process server
// over the given storage backend. No transport hop, same semantics.
func NewLocal(backend *storage.Backend, options ...Option) *Client {
	return New(service.NewServer(backend), options...)
}
