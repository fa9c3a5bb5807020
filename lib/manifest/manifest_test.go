// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// datasetDir creates a dataset directory with one data and one
// metadata file and chdirs into it for the duration of the test,
// since manifests reference files relative to their own location.
func datasetDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeDatasetFile(t, dir, "measurement.dat", "raw spectrometer data")
	writeDatasetFile(t, dir, "sample.info", "cwEPR Info file - v0.1.4\nsome metadata\n")
	t.Chdir(dir)
	return dir
}

func writeDatasetFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPopulateFillsChecksumsAndFormats(t *testing.T) {
	datasetDir(t)

	m := New()
	if err := m.Populate([]string{"measurement.dat"}, []string{"sample.info"}); err != nil {
		t.Fatal(err)
	}

	if m.Checksum == "" || m.DataChecksum == "" {
		t.Error("checksums not computed")
	}
	if m.Checksum == m.DataChecksum {
		t.Error("combined and data-only checksums are identical")
	}
	if m.DataFormat != placeholderFormat {
		t.Errorf("DataFormat = %q, want placeholder %q", m.DataFormat, placeholderFormat)
	}
	if len(m.Metadata) != 1 {
		t.Fatalf("Metadata has %d entries, want 1", len(m.Metadata))
	}
	if m.Metadata[0].Format != "cwEPR Info file" {
		t.Errorf("metadata format = %q, want %q", m.Metadata[0].Format, "cwEPR Info file")
	}
	if m.Metadata[0].Version != "0.1.4" {
		t.Errorf("metadata version = %q, want %q", m.Metadata[0].Version, "0.1.4")
	}
}

func TestPopulateRequiresFilenames(t *testing.T) {
	m := New()
	err := m.Populate(nil, []string{"sample.info"})
	if !errors.Is(err, ErrMissingInformation) {
		t.Errorf("missing data filenames: got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "data") {
		t.Errorf("error does not name the offending list: %v", err)
	}

	err = m.Populate([]string{"measurement.dat"}, nil)
	if !errors.Is(err, ErrMissingInformation) {
		t.Errorf("missing metadata filenames: got %v", err)
	}
}

func TestPopulateRequiresFilesOnDisk(t *testing.T) {
	datasetDir(t)
	m := New()
	err := m.Populate([]string{"absent.dat"}, []string{"sample.info"})
	if !errors.Is(err, ErrMissingFile) {
		t.Errorf("expected ErrMissingFile, got %v", err)
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	datasetDir(t)

	original := New()
	if err := original.Populate([]string{"measurement.dat"}, []string{"sample.info"}); err != nil {
		t.Fatal(err)
	}
	original.LOI = "42.1001/ds/exp/sa/42/cwepr/1"

	data, err := original.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	restored, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if restored.LOI != original.LOI {
		t.Errorf("LOI = %q, want %q", restored.LOI, original.LOI)
	}
	if len(restored.DataFilenames) != 1 || restored.DataFilenames[0] != "measurement.dat" {
		t.Errorf("DataFilenames = %v", restored.DataFilenames)
	}
	if len(restored.MetadataFilenames) != 1 || restored.MetadataFilenames[0] != "sample.info" {
		t.Errorf("MetadataFilenames = %v", restored.MetadataFilenames)
	}
	if restored.Checksum != original.Checksum {
		t.Errorf("Checksum = %q, want %q", restored.Checksum, original.Checksum)
	}
	if restored.DataChecksum != original.DataChecksum {
		t.Errorf("DataChecksum = %q, want %q", restored.DataChecksum, original.DataChecksum)
	}
	if restored.Algorithm != original.Algorithm {
		t.Errorf("Algorithm = %q, want %q", restored.Algorithm, original.Algorithm)
	}
}

func TestMarshalStableKeyOrder(t *testing.T) {
	datasetDir(t)

	m := New()
	if err := m.Populate([]string{"measurement.dat"}, []string{"sample.info"}); err != nil {
		t.Fatal(err)
	}
	data, err := m.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	text := string(data)
	order := []string{"format:", "dataset:", "files:", "checksums:"}
	position := -1
	for _, key := range order {
		index := strings.Index(text, "\n"+key)
		if key == order[0] {
			index = strings.Index(text, key)
		}
		if index <= position {
			t.Fatalf("key %q out of order in document:\n%s", key, text)
		}
		position = index
	}
}

func TestMarshalRequiresDataFilenames(t *testing.T) {
	m := New()
	if _, err := m.Marshal(); !errors.Is(err, ErrMissingInformation) {
		t.Errorf("expected ErrMissingInformation, got %v", err)
	}
}

func TestMarshalEmptyMetadataSerializesAsEmptyList(t *testing.T) {
	datasetDir(t)
	m := New()
	m.DataFilenames = []string{"measurement.dat"}

	data, err := m.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	restored, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if restored.Metadata == nil {
		t.Error("metadata omitted instead of serialized as empty structure")
	}
}

func TestCheckIntegrityIntact(t *testing.T) {
	datasetDir(t)
	m := New()
	if err := m.Populate([]string{"measurement.dat"}, []string{"sample.info"}); err != nil {
		t.Fatal(err)
	}
	verdict, err := m.CheckIntegrity()
	if err != nil {
		t.Fatal(err)
	}
	if !verdict.Data || !verdict.All {
		t.Errorf("verdict = %+v, want both true", verdict)
	}
}

func TestCheckIntegrityIndependentFlags(t *testing.T) {
	datasetDir(t)
	m := New()
	if err := m.Populate([]string{"measurement.dat"}, []string{"sample.info"}); err != nil {
		t.Fatal(err)
	}

	// Corrupting the combined checksum must not flip the data flag.
	corrupted := *m
	corrupted.Checksum = "0000deadbeef"
	verdict, err := corrupted.CheckIntegrity()
	if err != nil {
		t.Fatal(err)
	}
	if verdict.All {
		t.Error("All = true despite corrupted combined checksum")
	}
	if !verdict.Data {
		t.Error("Data flipped by corrupted combined checksum")
	}

	// And vice versa.
	corrupted = *m
	corrupted.DataChecksum = "0000deadbeef"
	verdict, err = corrupted.CheckIntegrity()
	if err != nil {
		t.Fatal(err)
	}
	if verdict.Data {
		t.Error("Data = true despite corrupted data checksum")
	}
	if !verdict.All {
		t.Error("All flipped by corrupted data checksum")
	}
}

func TestCheckIntegrityDetectsModifiedMetadata(t *testing.T) {
	dir := datasetDir(t)
	m := New()
	if err := m.Populate([]string{"measurement.dat"}, []string{"sample.info"}); err != nil {
		t.Fatal(err)
	}

	writeDatasetFile(t, dir, "sample.info", "cwEPR Info file - v0.1.4\ntampered\n")

	verdict, err := m.CheckIntegrity()
	if err != nil {
		t.Fatal(err)
	}
	if verdict.All {
		t.Error("All = true despite modified metadata file")
	}
	if !verdict.Data {
		t.Error("Data flag affected by metadata modification")
	}
}

func TestCheckIntegrityDoesNotMutateStoredValues(t *testing.T) {
	datasetDir(t)
	m := New()
	if err := m.Populate([]string{"measurement.dat"}, []string{"sample.info"}); err != nil {
		t.Fatal(err)
	}
	storedAll, storedData := m.Checksum, m.DataChecksum
	if _, err := m.CheckIntegrity(); err != nil {
		t.Fatal(err)
	}
	if m.Checksum != storedAll || m.DataChecksum != storedData {
		t.Error("CheckIntegrity modified stored checksums")
	}
}

func TestCheckIntegrityRequiresInformation(t *testing.T) {
	m := New()
	if _, err := m.CheckIntegrity(); !errors.Is(err, ErrMissingInformation) {
		t.Errorf("expected ErrMissingInformation, got %v", err)
	}
}

func TestCheckIntegrityUsesStoredAlgorithm(t *testing.T) {
	datasetDir(t)
	original := New(WithAlgorithm("blake3"))
	if err := original.Populate([]string{"measurement.dat"}, []string{"sample.info"}); err != nil {
		t.Fatal(err)
	}
	data, err := original.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "BLAKE3 checksum") {
		t.Fatalf("format label missing from document:\n%s", data)
	}

	// Read back without naming the algorithm: the label decides.
	restored, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	verdict, err := restored.CheckIntegrity()
	if err != nil {
		t.Fatal(err)
	}
	if !verdict.Data || !verdict.All {
		t.Errorf("verdict = %+v, want both true", verdict)
	}
}
