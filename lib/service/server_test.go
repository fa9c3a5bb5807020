// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/labinform/datasafe/lib/archive"
	"github.com/labinform/datasafe/lib/loi"
	"github.com/labinform/datasafe/lib/manifest"
	"github.com/labinform/datasafe/lib/storage"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	backend, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewServer(backend)
}

// bundle builds a self-consistent dataset archive: one data file with
// the given payload, one info metadata file, and a populated manifest.
func bundle(t *testing.T, payload string) []byte {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"measurement.dat":  payload,
		"measurement.info": "cwEPR Info file - v0.1.4\nsome metadata\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	m := manifest.New()
	if err := m.PopulateIn(dir, []string{"measurement.dat"}, []string{"measurement.info"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Save(filepath.Join(dir, manifest.DefaultFilename)); err != nil {
		t.Fatal(err)
	}
	data, err := archive.Pack(dir)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestNewAllocatesSequentialSlots(t *testing.T) {
	server := testServer(t)

	first, err := server.New("42.1001/ds/exp/2022-01-15/cwepr")
	if err != nil {
		t.Fatal(err)
	}
	if first != "42.1001/ds/exp/2022-01-15/cwepr/1" {
		t.Errorf("first allocation = %q", first)
	}

	second, err := server.New("42.1001/ds/exp/2022-01-15/cwepr")
	if err != nil {
		t.Fatal(err)
	}
	if second != "42.1001/ds/exp/2022-01-15/cwepr/2" {
		t.Errorf("second allocation = %q", second)
	}

	if !server.Storage.Exists("exp/2022-01-15/cwepr/2") {
		t.Error("allocated slot missing from storage")
	}
}

func TestNewBaSaForm(t *testing.T) {
	server := testServer(t)

	allocated, err := server.New("42.1001/ds/exp/sa/42/cwepr")
	if err != nil {
		t.Fatal(err)
	}
	if allocated != "42.1001/ds/exp/sa/42/cwepr/1" {
		t.Errorf("allocation = %q", allocated)
	}
}

func TestNewRejections(t *testing.T) {
	server := testServer(t)
	for _, identifier := range []string{
		"42.1001/ds/calc/geo/5",
		"42.1001/rec/42",
		"42.1001/ds/exp",
		"42.1001/ds/exp/sa/42",
		"not an identifier",
	} {
		if _, err := server.New(identifier); !errors.Is(err, loi.ErrInvalidLOI) {
			t.Errorf("New(%q) error = %v, want ErrInvalidLOI", identifier, err)
		}
	}
	if _, err := server.New(""); !errors.Is(err, loi.ErrMissingLOI) {
		t.Error("empty identifier accepted")
	}
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	server := testServer(t)

	identifier, err := server.New("42.1001/ds/exp/2022-01-15/cwepr")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := server.Download(identifier); !errors.Is(err, storage.ErrMissingContent) {
		t.Errorf("download of reserved slot: %v, want ErrMissingContent", err)
	}

	verdict, err := server.Upload(identifier, bundle(t, "payload one"))
	if err != nil {
		t.Fatal(err)
	}
	if !verdict.Data || !verdict.All {
		t.Errorf("upload verdict = %+v", verdict)
	}

	if _, err := server.Upload(identifier, bundle(t, "payload two")); !errors.Is(err, ErrContentExists) {
		t.Errorf("second upload: %v, want ErrContentExists", err)
	}

	data, err := server.Download(identifier)
	if err != nil {
		t.Fatal(err)
	}
	target := t.TempDir()
	if err := archive.Unpack(data, target); err != nil {
		t.Fatal(err)
	}
	payload, err := os.ReadFile(filepath.Join(target, "measurement.dat"))
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != "payload one" {
		t.Errorf("downloaded payload = %q", payload)
	}
}

func TestUploadUnknownSlot(t *testing.T) {
	server := testServer(t)
	_, err := server.Upload("42.1001/ds/exp/2022-01-15/cwepr/1", bundle(t, "payload"))
	if !errors.Is(err, ErrLOINotFound) {
		t.Errorf("upload to unknown slot: %v, want ErrLOINotFound", err)
	}
}

func TestUpdateReplacesContent(t *testing.T) {
	server := testServer(t)

	identifier, err := server.New("42.1001/ds/exp/2022-01-15/cwepr")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := server.Update(identifier, bundle(t, "v2")); !errors.Is(err, storage.ErrMissingContent) {
		t.Errorf("update of empty slot: %v, want ErrMissingContent", err)
	}

	if _, err := server.Upload(identifier, bundle(t, "v1")); err != nil {
		t.Fatal(err)
	}
	verdict, err := server.Update(identifier, bundle(t, "v2"))
	if err != nil {
		t.Fatal(err)
	}
	if !verdict.Data || !verdict.All {
		t.Errorf("update verdict = %+v", verdict)
	}

	data, err := server.Download(identifier)
	if err != nil {
		t.Fatal(err)
	}
	target := t.TempDir()
	if err := archive.Unpack(data, target); err != nil {
		t.Fatal(err)
	}
	payload, err := os.ReadFile(filepath.Join(target, "measurement.dat"))
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != "v2" {
		t.Errorf("payload after update = %q", payload)
	}
}

func TestUpdateUnknownSlot(t *testing.T) {
	server := testServer(t)
	_, err := server.Update("42.1001/ds/exp/2022-01-15/cwepr/1", bundle(t, "payload"))
	if !errors.Is(err, ErrLOINotFound) {
		t.Errorf("update of unknown slot: %v, want ErrLOINotFound", err)
	}
}
