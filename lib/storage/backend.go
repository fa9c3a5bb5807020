// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/labinform/datasafe/lib/archive"
	"github.com/labinform/datasafe/lib/manifest"
)

// ErrMissingPath is returned when a storage operation lacks a
// required path argument.
var ErrMissingPath = errors.New("no path provided")

// ErrMissingContent is returned when a deposit lacks a payload or an
// integrity check finds no manifest file.
var ErrMissingContent = errors.New("no content provided")

// Backend is a file-system object store rooted at a single directory.
// All paths passed to its methods are slash-separated and relative to
// the root. Methods are safe for concurrent use as far as the
// underlying file system is: only slot allocation carries its own
// serialization (see [Backend.CreateNextID]).
type Backend struct {
	root             string
	manifestFilename string
	detectors        []manifest.Detector

	// allocMu serializes the read-highest-then-create sequence of
	// CreateNextID. Without it, two concurrent allocations under the
	// same parent could observe the same highest id; the second
	// create would fail with an already-exists error.
	allocMu sync.Mutex
}

// Option configures a Backend.
type Option func(*Backend)

// WithManifestFilename overrides the manifest file name convention
// for this backend instance.
func WithManifestFilename(name string) Option {
	return func(b *Backend) { b.manifestFilename = name }
}

// WithDetectors sets the format detectors handed to manifests the
// backend loads.
func WithDetectors(detectors ...manifest.Detector) Option {
	return func(b *Backend) { b.detectors = detectors }
}

// New creates a Backend rooted at the given directory, creating the
// root if it does not exist.
func New(root string, options ...Option) (*Backend, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: root directory", ErrMissingPath)
	}
	backend := &Backend{
		root:             filepath.Clean(root),
		manifestFilename: manifest.DefaultFilename,
	}
	for _, option := range options {
		option(backend)
	}
	if err := os.MkdirAll(backend.root, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root %s: %w", backend.root, err)
	}
	return backend, nil
}

// Root returns the backend's root directory.
func (b *Backend) Root() string { return b.root }

// ManifestFilename returns the manifest file name convention of this
// backend.
func (b *Backend) ManifestFilename() string { return b.manifestFilename }

// workingPath resolves a slash-separated slot path to an absolute
// file-system path under the root.
func (b *Backend) workingPath(slot string) string {
	return filepath.Join(b.root, filepath.FromSlash(slot))
}

// Create makes the directory for the given slot path, including
// missing parents. Fails with an error wrapping fs.ErrExist when the
// slot already exists and with [ErrMissingPath] for an empty path.
func (b *Backend) Create(slot string) error {
	if slot == "" {
		return ErrMissingPath
	}
	target := b.workingPath(slot)
	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("slot %s: %w", slot, fs.ErrExist)
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("creating slot %s: %w", slot, err)
	}
	return nil
}

// Exists reports whether the slot path exists.
func (b *Backend) Exists(slot string) bool {
	_, err := os.Stat(b.workingPath(slot))
	return err == nil
}

// IsEmpty reports whether the slot directory has no entries. A
// non-existent slot yields an error wrapping fs.ErrNotExist.
func (b *Backend) IsEmpty(slot string) (bool, error) {
	entries, err := os.ReadDir(b.workingPath(slot))
	if err != nil {
		return false, fmt.Errorf("reading slot %s: %w", slot, err)
	}
	return len(entries) == 0, nil
}

// Remove deletes the slot directory. Without force, a non-empty
// directory fails with the OS error; with force, contents are removed
// recursively.
func (b *Backend) Remove(slot string, force bool) error {
	if force {
		return os.RemoveAll(b.workingPath(slot))
	}
	return os.Remove(b.workingPath(slot))
}

// HighestID returns the largest integer-named child of the slot, or 0
// when no integer-named child exists. Children whose names do not
// parse as integers are skipped: a stray file among numbered slots
// must not block allocation.
func (b *Backend) HighestID(slot string) (int, error) {
	entries, err := os.ReadDir(b.workingPath(slot))
	if err != nil {
		return 0, fmt.Errorf("listing slot %s: %w", slot, err)
	}
	highest := 0
	for _, entry := range entries {
		id, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		if id > highest {
			highest = id
		}
	}
	return highest, nil
}

// CreateNextID allocates the next numeric sub-slot under the given
// parent and returns the new slot path. Numbering starts at 1 and is
// inferred from the directory listing at allocation time; the
// read-then-create sequence is serialized per backend instance.
func (b *Backend) CreateNextID(slot string) (string, error) {
	b.allocMu.Lock()
	defer b.allocMu.Unlock()

	highest, err := b.HighestID(slot)
	if err != nil {
		return "", err
	}
	next := path.Join(slot, strconv.Itoa(highest+1))
	if err := b.Create(next); err != nil {
		return "", err
	}
	return next, nil
}

// Deposit unpacks an archived dataset bundle into the slot, loads the
// manifest the bundle must contain, and returns its integrity
// verdict. The verdict goes back to the caller as data: the backend
// does not roll a failed deposit back, cleanup is the caller's
// decision.
func (b *Backend) Deposit(slot string, content []byte) (manifest.Integrity, error) {
	if slot == "" {
		return manifest.Integrity{}, ErrMissingPath
	}
	if len(content) == 0 {
		return manifest.Integrity{}, fmt.Errorf("%w: deposit payload", ErrMissingContent)
	}
	target := b.workingPath(slot)
	if err := archive.Unpack(content, target); err != nil {
		return manifest.Integrity{}, fmt.Errorf("depositing into %s: %w", slot, err)
	}
	return b.CheckIntegrity(slot)
}

// Retrieve packs the slot directory into an archive and returns its
// bytes. An empty path yields [ErrMissingPath]; a missing slot
// surfaces the underlying OS error.
func (b *Backend) Retrieve(slot string) ([]byte, error) {
	if slot == "" {
		return nil, ErrMissingPath
	}
	content, err := archive.Pack(b.workingPath(slot))
	if err != nil {
		return nil, fmt.Errorf("retrieving %s: %w", slot, err)
	}
	return content, nil
}

// Manifest loads and parses the manifest stored in the slot. Returns
// an error wrapping [ErrMissingContent] when the slot has no manifest
// file.
func (b *Backend) Manifest(slot string) (*manifest.Manifest, error) {
	if slot == "" {
		return nil, ErrMissingPath
	}
	manifestPath := filepath.Join(b.workingPath(slot), b.manifestFilename)
	if _, err := os.Stat(manifestPath); err != nil {
		return nil, fmt.Errorf("%w: no manifest file in %s", ErrMissingContent, slot)
	}
	return manifest.Load(manifestPath, manifest.WithDetectors(b.detectors...))
}

// CheckIntegrity loads the slot's manifest and delegates to its
// integrity check, resolving the listed files inside the slot.
func (b *Backend) CheckIntegrity(slot string) (manifest.Integrity, error) {
	m, err := b.Manifest(slot)
	if err != nil {
		return manifest.Integrity{}, err
	}
	return m.CheckIntegrityIn(b.workingPath(slot))
}

// Index walks the storage tree and returns the slot path of every
// directory that is either empty (a reserved identifier) or contains
// a manifest file (a deposited dataset), relative to the root and
// slash-separated. No separate index is maintained; the tree is the
// index.
func (b *Backend) Index() ([]string, error) {
	var slots []string
	err := filepath.WalkDir(b.root, func(walkPath string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() || walkPath == b.root {
			return nil
		}
		children, err := os.ReadDir(walkPath)
		if err != nil {
			return err
		}
		occupied := false
		for _, child := range children {
			if child.Name() == b.manifestFilename {
				occupied = true
				break
			}
		}
		if len(children) == 0 || occupied {
			relative, err := filepath.Rel(b.root, walkPath)
			if err != nil {
				return err
			}
			slots = append(slots, filepath.ToSlash(relative))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("indexing storage tree: %w", err)
	}
	return slots, nil
}
