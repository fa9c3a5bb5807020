// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/labinform/datasafe/lib/archive"
	"github.com/labinform/datasafe/lib/loi"
	"github.com/labinform/datasafe/lib/manifest"
)

// Transport is the call surface a client needs from the datasafe. The
// in-process server implements it; an HTTP flavor would too.
type Transport interface {
	New(identifier string) (string, error)
	Upload(identifier string, content []byte) (manifest.Integrity, error)
	Download(identifier string) ([]byte, error)
	Update(identifier string, content []byte) (manifest.Integrity, error)
}

// Client handles the local half of datasafe interactions: manifest
// creation, packing, unpacking, and integrity checking. Server-side
// decisions stay behind the transport.
type Client struct {
	transport          Transport
	manifestFilename   string
	metadataExtensions []string
	detectors          []manifest.Detector
	algorithm          string
}

// Option configures a Client at construction.
type Option func(*Client)

// WithManifestFilename overrides the manifest filename used when
// building and reading manifests.
func WithManifestFilename(name string) Option {
	return func(c *Client) { c.manifestFilename = name }
}

// WithMetadataExtensions replaces the file extensions treated as
// metadata when splitting a dataset directory.
func WithMetadataExtensions(extensions ...string) Option {
	return func(c *Client) { c.metadataExtensions = extensions }
}

// WithDetectors sets the format detectors handed to manifests this
// client builds or reads.
func WithDetectors(detectors ...manifest.Detector) Option {
	return func(c *Client) { c.detectors = detectors }
}

// WithAlgorithm sets the checksum algorithm for manifests this client
// builds.
func WithAlgorithm(algorithm string) Option {
	return func(c *Client) { c.algorithm = algorithm }
}

// New returns a client talking through the given transport.
func New(transport Transport, options ...Option) *Client {
	c := &Client{
		transport:          transport,
		manifestFilename:   manifest.DefaultFilename,
		metadataExtensions: []string{".info", ".yaml"},
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Create reserves a new identifier in the datasafe. The input must be
// a datasafe experiment LOI without the measurement number; the
// returned identifier carries the allocated number.
func (c *Client) Create(identifier string) (string, error) {
	if _, err := c.checkLOI(identifier); err != nil {
		return "", err
	}
	return c.transport.New(identifier)
}

// BuildManifest creates a manifest for the dataset in dir and writes
// it there. With a non-empty pattern only files matching
// "pattern.*" are considered, otherwise every file in dir. Files with
// a metadata extension become metadata, the rest data; an existing
// manifest file is never listed as part of the dataset.
func (c *Client) BuildManifest(dir, pattern string) error {
	dataFiles, metadataFiles, err := c.splitDirectory(dir, pattern)
	if err != nil {
		return err
	}
	m := manifest.New(c.manifestOptions()...)
	if err := m.PopulateIn(dir, dataFiles, metadataFiles); err != nil {
		return fmt.Errorf("populating manifest: %w", err)
	}
	return m.Save(filepath.Join(dir, c.manifestFilename))
}

// Upload packs the dataset in dir and deposits it under the given
// identifier. A missing manifest is built first; either way the
// manifest is rewritten with the identifier before packing, so the
// stored copy records where it lives. Returns the server's integrity
// verdict.
func (c *Client) Upload(identifier, dir, pattern string) (manifest.Integrity, error) {
	content, err := c.packDataset(identifier, dir, pattern)
	if err != nil {
		return manifest.Integrity{}, err
	}
	return c.transport.Upload(identifier, content)
}

// Update packs the dataset in dir and replaces the content stored
// under the identifier. Packing works exactly as for
// [Client.Upload]; the server decides whether replacing is allowed.
func (c *Client) Update(identifier, dir, pattern string) (manifest.Integrity, error) {
	content, err := c.packDataset(identifier, dir, pattern)
	if err != nil {
		return manifest.Integrity{}, err
	}
	return c.transport.Update(identifier, content)
}

// Download fetches the dataset stored under the identifier, unpacks
// it into a fresh temporary directory, and checks its integrity on
// arrival. The directory and the verdict are both returned; a failed
// verdict is the caller's to act on, the data stays available for
// inspection either way.
func (c *Client) Download(identifier string) (string, manifest.Integrity, error) {
	if _, err := c.checkLOI(identifier); err != nil {
		return "", manifest.Integrity{}, err
	}
	content, err := c.transport.Download(identifier)
	if err != nil {
		return "", manifest.Integrity{}, err
	}

	dir, err := os.MkdirTemp("", "datasafe-")
	if err != nil {
		return "", manifest.Integrity{}, fmt.Errorf("creating download directory: %w", err)
	}
	if err := archive.Unpack(content, dir); err != nil {
		return "", manifest.Integrity{}, fmt.Errorf("unpacking download: %w", err)
	}
	m, err := manifest.Load(filepath.Join(dir, c.manifestFilename),
		manifest.WithDetectors(c.detectors...))
	if err != nil {
		return dir, manifest.Integrity{}, fmt.Errorf("reading downloaded manifest: %w", err)
	}
	verdict, err := m.CheckIntegrityIn(dir)
	if err != nil {
		return dir, manifest.Integrity{}, fmt.Errorf("checking download integrity: %w", err)
	}
	return dir, verdict, nil
}

// packDataset ensures dir carries a manifest naming the identifier
// and packs the manifest plus every file it lists.
func (c *Client) packDataset(identifier, dir, pattern string) ([]byte, error) {
	if _, err := c.checkLOI(identifier); err != nil {
		return nil, err
	}
	manifestPath := filepath.Join(dir, c.manifestFilename)
	if _, err := os.Stat(manifestPath); err != nil {
		if err := c.BuildManifest(dir, pattern); err != nil {
			return nil, err
		}
	}
	m, err := manifest.Load(manifestPath, c.manifestOptions()...)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	m.LOI = identifier
	if err := m.Save(manifestPath); err != nil {
		return nil, fmt.Errorf("rewriting manifest: %w", err)
	}

	names := slices.Concat(m.MetadataFilenames, m.DataFilenames,
		[]string{c.manifestFilename})
	content, err := archive.PackFiles(dir, names)
	if err != nil {
		return nil, fmt.Errorf("packing dataset: %w", err)
	}
	return content, nil
}

// splitDirectory lists the dataset files in dir and separates data
// from metadata by extension. The manifest file itself never counts.
func (c *Client) splitDirectory(dir, pattern string) (data, metadata []string, err error) {
	glob := "*"
	if pattern != "" {
		glob = pattern + ".*"
	}
	matches, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return nil, nil, fmt.Errorf("listing dataset files: %w", err)
	}
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		name := filepath.Base(match)
		if name == c.manifestFilename {
			continue
		}
		if c.isMetadata(name) {
			metadata = append(metadata, name)
		} else {
			data = append(data, name)
		}
	}
	return data, metadata, nil
}

func (c *Client) isMetadata(name string) bool {
	for _, extension := range c.metadataExtensions {
		if strings.HasSuffix(name, extension) {
			return true
		}
	}
	return false
}

func (c *Client) manifestOptions() []manifest.Option {
	options := []manifest.Option{manifest.WithDetectors(c.detectors...)}
	if c.algorithm != "" {
		options = append(options, manifest.WithAlgorithm(c.algorithm))
	}
	return options
}

// checkLOI verifies the identifier parses and addresses the datasafe.
// Anything beyond that is the server's call.
func (c *Client) checkLOI(identifier string) (*loi.LOI, error) {
	parsed, err := loi.Parse(identifier)
	if err != nil {
		return nil, err
	}
	if parsed.Type != "ds" {
		return nil, fmt.Errorf("%w: not a datasafe LOI: %q",
			loi.ErrInvalidLOI, identifier)
	}
	return parsed, nil
}
