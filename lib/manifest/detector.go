// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Placeholder values recorded when no detector recognizes a file.
const (
	placeholderFormat  = "undetected"
	placeholderVersion = "0.0.0"
)

// Detector guesses the formats of a dataset's files. Vendor-specific
// detectors (for instrument file formats) implement this interface
// and are injected via [WithDetectors]; their internal heuristics are
// their own business.
type Detector interface {
	// DataFormat returns the detected format of the data files, or
	// the empty string when detection failed. A non-empty guess
	// selects this detector for the whole dataset.
	DataFormat(dataFiles []string) string

	// MetadataFormat returns format and version information for each
	// metadata file, in input order.
	MetadataFormat(metadataFiles []string) []MetadataInfo
}

// metadataParser extracts format and version from one metadata file.
type metadataParser func(path string) (format, version string)

// metadataParsers dispatches metadata sniffing by file extension.
// The table is fixed at startup; unknown extensions get the
// placeholder pair.
var metadataParsers = map[string]metadataParser{
	".info": parseInfoFile,
	".yaml": parseYAMLFile,
	".yml":  parseYAMLFile,
}

// defaultDetector is the built-in fallback. Its data-format guess is
// a constant placeholder; metadata files are sniffed through the
// extension table.
type defaultDetector struct{}

func (defaultDetector) DataFormat([]string) string { return placeholderFormat }

func (defaultDetector) MetadataFormat(metadataFiles []string) []MetadataInfo {
	infos := make([]MetadataInfo, 0, len(metadataFiles))
	for _, name := range metadataFiles {
		parser, ok := metadataParsers[strings.ToLower(filepath.Ext(name))]
		if !ok {
			infos = append(infos, MetadataInfo{
				Name:    name,
				Format:  placeholderFormat,
				Version: placeholderVersion,
			})
			continue
		}
		format, version := parser(name)
		infos = append(infos, MetadataInfo{Name: name, Format: format, Version: version})
	}
	return infos
}

// parseInfoFile reads the header line of an info file. The format is
// a one-line signature such as "cwEPR Info file - v0.1.4": the text
// before the dash names the format, the "v"-prefixed token after it
// the version.
func parseInfoFile(path string) (string, string) {
	file, err := os.Open(path)
	if err != nil {
		return placeholderFormat, placeholderVersion
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		return placeholderFormat, placeholderVersion
	}
	header := strings.TrimSpace(scanner.Text())
	format, version, found := strings.Cut(header, " - ")
	if !found {
		return header, placeholderVersion
	}
	return strings.TrimSpace(format), strings.TrimPrefix(strings.TrimSpace(version), "v")
}

// parseYAMLFile reads the format block of a YAML metadata file,
// expecting the same self-describing convention the manifest itself
// uses (a top-level "format" map with "type" and "version").
func parseYAMLFile(path string) (string, string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return placeholderFormat, placeholderVersion
	}
	var header struct {
		Format struct {
			Type    string `yaml:"type"`
			Version string `yaml:"version"`
		} `yaml:"format"`
	}
	if err := yaml.Unmarshal(data, &header); err != nil {
		return placeholderFormat, placeholderVersion
	}
	format, version := header.Format.Type, header.Format.Version
	if format == "" {
		format = placeholderFormat
	}
	if version == "" {
		version = placeholderVersion
	}
	return format, version
}
