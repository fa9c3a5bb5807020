// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/labinform/datasafe/lib/checksum"
)

// DefaultFilename is the conventional manifest file name inside a
// dataset directory.
const DefaultFilename = "MANIFEST.yaml"

// FormatType and FormatVersion describe the manifest document format
// itself, written into every document's format block.
const (
	FormatType    = "datasafe dataset manifest"
	FormatVersion = "0.1.0"
)

// Checksum record names and spans. Two records accompany every
// manifest: one covering data and metadata together, one covering the
// data files alone.
const (
	checksumName     = "CHECKSUM"
	checksumDataName = "CHECKSUM_data"
	spanAll          = "data, metadata"
	spanData         = "data"
)

// ErrMissingInformation is returned when a manifest operation lacks
// required filenames or checksums.
var ErrMissingInformation = errors.New("missing information")

// ErrMissingFile is returned when a listed file is absent from disk.
var ErrMissingFile = errors.New("missing file")

// MetadataInfo describes one metadata file: its name and the detected
// format and format version of its content.
type MetadataInfo struct {
	Name    string `yaml:"name"`
	Format  string `yaml:"format"`
	Version string `yaml:"version"`
}

// Integrity is the verdict of a checksum comparison. Data covers the
// data-only checksum, All the checksum over data and metadata
// together. The flags are independent: a corrupted metadata file
// flips All but leaves Data true.
type Integrity struct {
	Data bool `json:"data"`
	All  bool `json:"all"`
}

// Manifest is the structured metadata record of one dataset. Create
// one with [New], fill it with [Manifest.Populate], and write it with
// [Manifest.Save]; or reconstruct one from a document with [Load] or
// [Unmarshal].
type Manifest struct {
	// LOI is the dataset's identifier. Empty until upload time.
	LOI string

	// Complete records whether the dataset is considered complete.
	Complete bool

	// DataFilenames and MetadataFilenames list the dataset's files in
	// order. DataFilenames must be non-empty to serialize; a read-back
	// manifest may carry empty metadata.
	DataFilenames     []string
	MetadataFilenames []string

	// DataFormat is the detected format of the data files.
	DataFormat string

	// Metadata holds per-metadata-file format information.
	Metadata []MetadataInfo

	// Checksum and DataChecksum are the stored digests over
	// data+metadata and data alone. CheckIntegrity compares against
	// these and never modifies them.
	Checksum     string
	DataChecksum string

	// Algorithm names the digest algorithm the checksums were
	// computed with. Defaults to the checksum package default and is
	// recovered from the format labels when a document is read back.
	Algorithm string

	detectors []Detector
}

// Option configures a Manifest at construction.
type Option func(*Manifest)

// WithDetectors sets the ordered format detector list. Detectors are
// tried in the given order; the first whose data-format guess is
// non-empty wins. Without this option only the built-in fallback
// detector runs.
func WithDetectors(detectors ...Detector) Option {
	return func(m *Manifest) { m.detectors = detectors }
}

// WithAlgorithm sets the digest algorithm used when populating.
func WithAlgorithm(algorithm string) Option {
	return func(m *Manifest) { m.Algorithm = algorithm }
}

// New returns an empty manifest with the given options applied.
func New(options ...Option) *Manifest {
	m := &Manifest{Algorithm: checksum.DefaultAlgorithm}
	for _, option := range options {
		option(m)
	}
	return m
}

// Populate records the given file lists and fills in detected formats
// and both checksums. Both lists must be non-empty and every listed
// file must exist on disk. Paths are interpreted relative to the
// current working directory, matching where the manifest will be
// written; use [Manifest.PopulateIn] for a dataset elsewhere.
func (m *Manifest) Populate(dataFiles, metadataFiles []string) error {
	return m.PopulateIn(".", dataFiles, metadataFiles)
}

// PopulateIn behaves like [Manifest.Populate] with the files resolved
// relative to dir. The manifest records the names as given, without
// the directory prefix.
func (m *Manifest) PopulateIn(dir string, dataFiles, metadataFiles []string) error {
	if len(dataFiles) == 0 {
		return fmt.Errorf("%w: data filenames", ErrMissingInformation)
	}
	if len(metadataFiles) == 0 {
		return fmt.Errorf("%w: metadata filenames", ErrMissingInformation)
	}
	dataPaths := joinAll(dir, dataFiles)
	metadataPaths := joinAll(dir, metadataFiles)
	for i, path := range dataPaths {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: data file %s", ErrMissingFile, dataFiles[i])
		}
	}
	for i, path := range metadataPaths {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: metadata file %s", ErrMissingFile, metadataFiles[i])
		}
	}

	m.DataFilenames = append([]string(nil), dataFiles...)
	m.MetadataFilenames = append([]string(nil), metadataFiles...)

	detector := m.selectDetector(dataPaths)
	m.DataFormat = detector.DataFormat(dataPaths)
	infos := detector.MetadataFormat(metadataPaths)
	// Detectors see resolvable paths; the manifest records bare names.
	for i := range infos {
		if i < len(metadataFiles) {
			infos[i].Name = metadataFiles[i]
		}
	}
	m.Metadata = infos

	generator := checksum.New(m.Algorithm)
	all, err := generator.HashFiles(append(append([]string(nil), dataPaths...), metadataPaths...))
	if err != nil {
		return fmt.Errorf("computing combined checksum: %w", err)
	}
	dataOnly, err := generator.HashFiles(dataPaths)
	if err != nil {
		return fmt.Errorf("computing data checksum: %w", err)
	}
	m.Checksum = all
	m.DataChecksum = dataOnly
	return nil
}

// selectDetector returns the first configured detector that produces
// a data-format guess, or the built-in fallback.
func (m *Manifest) selectDetector(dataFiles []string) Detector {
	for _, detector := range m.detectors {
		if detector.DataFormat(dataFiles) != "" {
			return detector
		}
	}
	return defaultDetector{}
}

// CheckIntegrity recomputes both checksums from the files currently
// on disk and compares them to the stored values. The stored values
// are never modified. Requires data filenames, metadata filenames,
// and both stored checksums to be present. Filenames resolve against
// the current working directory; use [Manifest.CheckIntegrityIn] to
// check a dataset in place.
func (m *Manifest) CheckIntegrity() (Integrity, error) {
	return m.CheckIntegrityIn(".")
}

// CheckIntegrityIn behaves like [Manifest.CheckIntegrity] with the
// manifest's filenames resolved relative to dir.
func (m *Manifest) CheckIntegrityIn(dir string) (Integrity, error) {
	if len(m.DataFilenames) == 0 {
		return Integrity{}, fmt.Errorf("%w: data filenames", ErrMissingInformation)
	}
	if len(m.MetadataFilenames) == 0 {
		return Integrity{}, fmt.Errorf("%w: metadata filenames", ErrMissingInformation)
	}
	if m.Checksum == "" || m.DataChecksum == "" {
		return Integrity{}, fmt.Errorf("%w: checksums", ErrMissingInformation)
	}

	dataFiles := joinAll(dir, m.DataFilenames)
	metadataFiles := joinAll(dir, m.MetadataFilenames)

	generator := checksum.New(m.Algorithm)
	all, err := generator.HashFiles(append(append([]string(nil), dataFiles...), metadataFiles...))
	if err != nil {
		return Integrity{}, fmt.Errorf("recomputing combined checksum: %w", err)
	}
	dataOnly, err := generator.HashFiles(dataFiles)
	if err != nil {
		return Integrity{}, fmt.Errorf("recomputing data checksum: %w", err)
	}
	return Integrity{
		Data: dataOnly == m.DataChecksum,
		All:  all == m.Checksum,
	}, nil
}

// joinAll prefixes every name with dir.
func joinAll(dir string, names []string) []string {
	joined := make([]string, len(names))
	for i, name := range names {
		joined[i] = filepath.Join(dir, name)
	}
	return joined
}

// document is the YAML wire structure. Field order determines key
// order in the output, which is kept stable for reproducible
// manifests.
type document struct {
	Format    formatBlock     `yaml:"format"`
	Dataset   datasetBlock    `yaml:"dataset"`
	Files     filesBlock      `yaml:"files"`
	Checksums []checksumBlock `yaml:"checksums"`
}

type formatBlock struct {
	Type    string `yaml:"type"`
	Version string `yaml:"version"`
}

type datasetBlock struct {
	LOI      string `yaml:"loi"`
	Complete bool   `yaml:"complete"`
}

type filesBlock struct {
	Metadata []MetadataInfo `yaml:"metadata"`
	Data     dataBlock      `yaml:"data"`
}

type dataBlock struct {
	Format string   `yaml:"format"`
	Names  []string `yaml:"names"`
}

type checksumBlock struct {
	Name   string `yaml:"name"`
	Format string `yaml:"format"`
	Span   string `yaml:"span"`
	Value  string `yaml:"value"`
}

// formatLabel renders the algorithm-labeled format string of a
// checksum record, e.g. "MD5 checksum".
func formatLabel(algorithm string) string {
	return strings.ToUpper(algorithm) + " checksum"
}

// algorithmFromLabel recovers the algorithm name from a checksum
// record's format label. Unparseable labels yield the label itself,
// surfacing the problem at recompute time as an unknown algorithm.
func algorithmFromLabel(label string) string {
	name, _, found := strings.Cut(label, " ")
	if !found {
		return label
	}
	return strings.ToLower(name)
}

// Marshal serializes the manifest to its YAML document. Data
// filenames are required; all other fields serialize as written,
// with absent optional fields rendered as empty structures rather
// than omitted.
func (m *Manifest) Marshal() ([]byte, error) {
	if len(m.DataFilenames) == 0 {
		return nil, fmt.Errorf("%w: data filenames", ErrMissingInformation)
	}

	metadata := m.Metadata
	if metadata == nil {
		metadata = []MetadataInfo{}
	}
	names := m.DataFilenames
	if names == nil {
		names = []string{}
	}

	doc := document{
		Format:  formatBlock{Type: FormatType, Version: FormatVersion},
		Dataset: datasetBlock{LOI: m.LOI, Complete: m.Complete},
		Files: filesBlock{
			Metadata: metadata,
			Data:     dataBlock{Format: m.DataFormat, Names: names},
		},
		Checksums: []checksumBlock{
			{
				Name:   checksumName,
				Format: formatLabel(m.Algorithm),
				Span:   spanAll,
				Value:  m.Checksum,
			},
			{
				Name:   checksumDataName,
				Format: formatLabel(m.Algorithm),
				Span:   spanData,
				Value:  m.DataChecksum,
			},
		},
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	return data, nil
}

// Unmarshal reconstructs a manifest from its YAML document. The
// digest algorithm is recovered from the stored checksum format
// labels, so integrity checking works regardless of the algorithm
// the writer used.
func Unmarshal(data []byte, options ...Option) (*Manifest, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling manifest: %w", err)
	}

	m := New(options...)
	m.LOI = doc.Dataset.LOI
	m.Complete = doc.Dataset.Complete
	m.DataFormat = doc.Files.Data.Format
	m.DataFilenames = doc.Files.Data.Names
	m.Metadata = doc.Files.Metadata
	m.MetadataFilenames = make([]string, 0, len(doc.Files.Metadata))
	for _, info := range doc.Files.Metadata {
		m.MetadataFilenames = append(m.MetadataFilenames, info.Name)
	}

	for _, record := range doc.Checksums {
		switch record.Span {
		case spanAll:
			m.Checksum = record.Value
			m.Algorithm = algorithmFromLabel(record.Format)
		case spanData:
			m.DataChecksum = record.Value
			if m.Checksum == "" {
				m.Algorithm = algorithmFromLabel(record.Format)
			}
		}
	}
	return m, nil
}

// Save writes the manifest document to path.
func (m *Manifest) Save(path string) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return nil
}

// Load reads a manifest document from path.
func Load(path string, options ...Option) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return Unmarshal(data, options...)
}
