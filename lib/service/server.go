// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/labinform/datasafe/lib/loi"
	"github.com/labinform/datasafe/lib/manifest"
	"github.com/labinform/datasafe/lib/storage"
)

// ErrLOINotFound is returned when an operation addresses an identifier
// whose storage slot does not exist.
var ErrLOINotFound = errors.New("LOI not found in storage")

// ErrContentExists is returned when an upload addresses a slot that
// already holds content. Replacing content is a deliberate act and
// goes through [Server.Update].
var ErrContentExists = errors.New("content already present")

// Server exposes the datasafe operations over a storage backend. All
// methods take identifier strings, never slot paths: the mapping from
// identifier to slot is the server's business.
type Server struct {
	Storage *storage.Backend
}

// NewServer returns a server operating on the given backend.
func NewServer(backend *storage.Backend) *Server {
	return &Server{Storage: backend}
}

// New reserves a storage slot for a new experimental dataset and
// returns its full identifier. The input must be a datasafe
// experiment LOI; the measurement number is ignored if present, since
// handing it out is exactly what New is for. The parent directory is
// derived from the id path (kind/date/method for dated experiments,
// kind/ba|sa/number/method otherwise), created on first use, and the
// next numeric slot below it is allocated.
//
// No content is written. The returned identifier addresses an empty,
// reserved slot awaiting [Server.Upload].
func (s *Server) New(identifier string) (string, error) {
	parsed, err := s.checkLOI(identifier, false)
	if err != nil {
		return "", err
	}
	idParts := parsed.SplitID()
	if len(idParts) == 0 || idParts[0] != "exp" {
		return "", fmt.Errorf("%w: not an experiment LOI: %q",
			loi.ErrInvalidLOI, identifier)
	}

	width := 4
	if len(idParts) > 1 && loi.IsDate(idParts[1]) {
		width = 3
	}
	if len(idParts) < width {
		return "", fmt.Errorf("%w: incomplete experiment path: %q",
			loi.ErrInvalidLOI, identifier)
	}
	parent := strings.Join(idParts[:width], loi.Separator)

	if !s.Storage.Exists(parent) {
		if err := s.Storage.Create(parent); err != nil {
			return "", fmt.Errorf("creating parent slot: %w", err)
		}
	}
	slot, err := s.Storage.CreateNextID(parent)
	if err != nil {
		return "", fmt.Errorf("allocating slot: %w", err)
	}

	allocated := &loi.LOI{
		Root:   parsed.Root,
		Issuer: parsed.Issuer,
		Type:   parsed.Type,
		ID:     slot,
	}
	return allocated.String(), nil
}

// Upload deposits an archived dataset bundle into the slot addressed
// by the identifier. The slot must have been reserved with
// [Server.New] and still be empty; the bundle's manifest is verified
// after unpacking and the integrity verdict returned.
func (s *Server) Upload(identifier string, content []byte) (manifest.Integrity, error) {
	parsed, err := s.checkLOI(identifier, true)
	if err != nil {
		return manifest.Integrity{}, err
	}
	if !s.Storage.Exists(parsed.ID) {
		return manifest.Integrity{}, fmt.Errorf("%w: %q", ErrLOINotFound, identifier)
	}
	empty, err := s.Storage.IsEmpty(parsed.ID)
	if err != nil {
		return manifest.Integrity{}, err
	}
	if !empty {
		return manifest.Integrity{}, fmt.Errorf("%w: %q", ErrContentExists, identifier)
	}
	return s.Storage.Deposit(parsed.ID, content)
}

// Download returns the archived content of the slot addressed by the
// identifier. A reserved but never uploaded slot yields an error
// wrapping [storage.ErrMissingContent].
func (s *Server) Download(identifier string) ([]byte, error) {
	parsed, err := s.checkLOI(identifier, true)
	if err != nil {
		return nil, err
	}
	if !s.Storage.Exists(parsed.ID) {
		return nil, fmt.Errorf("%w: %q", ErrLOINotFound, identifier)
	}
	empty, err := s.Storage.IsEmpty(parsed.ID)
	if err != nil {
		return nil, err
	}
	if empty {
		return nil, fmt.Errorf("%w: %q", storage.ErrMissingContent, identifier)
	}
	return s.Storage.Retrieve(parsed.ID)
}

// Update replaces the content of an occupied slot with a new bundle
// and returns the integrity verdict of the deposit. Updating an empty
// slot is refused: first uploads go through [Server.Upload] so the two
// intents stay distinct in the call record.
func (s *Server) Update(identifier string, content []byte) (manifest.Integrity, error) {
	parsed, err := s.checkLOI(identifier, true)
	if err != nil {
		return manifest.Integrity{}, err
	}
	if !s.Storage.Exists(parsed.ID) {
		return manifest.Integrity{}, fmt.Errorf("%w: %q", ErrLOINotFound, identifier)
	}
	empty, err := s.Storage.IsEmpty(parsed.ID)
	if err != nil {
		return manifest.Integrity{}, err
	}
	if empty {
		return manifest.Integrity{}, fmt.Errorf("%w: nothing to update at %q",
			storage.ErrMissingContent, identifier)
	}
	if err := s.Storage.Remove(parsed.ID, true); err != nil {
		return manifest.Integrity{}, fmt.Errorf("clearing slot: %w", err)
	}
	if err := s.Storage.Create(parsed.ID); err != nil {
		return manifest.Integrity{}, fmt.Errorf("recreating slot: %w", err)
	}
	return s.Storage.Deposit(parsed.ID, content)
}

// checkLOI parses the identifier and verifies it addresses the
// datasafe. With validate set, the full grammar cascade runs,
// measurement number included; without it, the prefix validation
// built into [loi.Parse] suffices.
func (s *Server) checkLOI(identifier string, validate bool) (*loi.LOI, error) {
	parsed, err := loi.Parse(identifier)
	if err != nil {
		return nil, err
	}
	if parsed.Type != "ds" {
		return nil, fmt.Errorf("%w: not a datasafe LOI: %q",
			loi.ErrInvalidLOI, identifier)
	}
	if validate && !loi.Check(identifier) {
		return nil, fmt.Errorf("%w: %q", loi.ErrInvalidLOI, identifier)
	}
	return parsed, nil
}
