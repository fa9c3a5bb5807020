// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive packs directories into ZIP byte streams and unpacks
// them again. Deposit and retrieval of dataset bundles route through
// this package: a bundle is the manifest file plus every listed data
// and metadata file at the archive root.
//
// Archives are built and consumed entirely in memory; no temporary
// files are created. Entries compressed with zstd (method 93) are
// read transparently in
// addition to the standard store and deflate methods.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// zstdMethod is the ZIP method ID for Zstandard compression
// (APPNOTE 6.3.8).
const zstdMethod = 93

func init() {
	zip.RegisterDecompressor(zstdMethod, func(r io.Reader) io.ReadCloser {
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return io.NopCloser(&errorReader{err: err})
		}
		return decoder.IOReadCloser()
	})
	zip.RegisterCompressor(zstdMethod, func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w)
	})
}

// errorReader surfaces a decompressor construction failure at read
// time, where the zip reader expects errors to appear.
type errorReader struct {
	err error
}

func (r *errorReader) Read([]byte) (int, error) { return 0, r.err }

// Pack walks the directory rooted at dir and returns the bytes of a
// ZIP archive of its contents. Entry names are slash-separated and
// relative to dir. Empty subdirectories are preserved as directory
// entries.
func Pack(dir string) ([]byte, error) {
	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relative, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if relative == "." {
			return nil
		}
		name := filepath.ToSlash(relative)

		if entry.IsDir() {
			_, err := writer.Create(name + "/")
			return err
		}

		target, err := writer.Create(name)
		if err != nil {
			return fmt.Errorf("creating archive entry %s: %w", name, err)
		}
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s for archiving: %w", path, err)
		}
		defer file.Close()
		if _, err := io.Copy(target, file); err != nil {
			return fmt.Errorf("archiving %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		writer.Close()
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing archive: %w", err)
	}
	return buffer.Bytes(), nil
}

// PackFiles builds a ZIP archive from selected files under dir. Names
// are slash-separated paths relative to dir and become the entry
// names, so the archive unpacks to the same layout.
func PackFiles(dir string, names []string) ([]byte, error) {
	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)

	for _, name := range names {
		target, err := writer.Create(name)
		if err != nil {
			writer.Close()
			return nil, fmt.Errorf("creating archive entry %s: %w", name, err)
		}
		file, err := os.Open(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			writer.Close()
			return nil, fmt.Errorf("opening %s for archiving: %w", name, err)
		}
		_, err = io.Copy(target, file)
		file.Close()
		if err != nil {
			writer.Close()
			return nil, fmt.Errorf("archiving %s: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing archive: %w", err)
	}
	return buffer.Bytes(), nil
}

// Unpack extracts a ZIP archive into dir, creating dir if necessary.
// Entry names are validated against path traversal: an entry whose
// cleaned path would escape dir is rejected.
func Unpack(data []byte, dir string) error {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating extraction directory %s: %w", dir, err)
	}

	for _, entry := range reader.File {
		target, err := safeJoin(dir, entry.Name)
		if err != nil {
			return err
		}

		if strings.HasSuffix(entry.Name, "/") {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating directory %s: %w", target, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating parent directory for %s: %w", entry.Name, err)
		}
		if err := extractFile(entry, target); err != nil {
			return err
		}
	}
	return nil
}

// extractFile writes a single archive entry to target.
func extractFile(entry *zip.File, target string) error {
	source, err := entry.Open()
	if err != nil {
		return fmt.Errorf("opening archive entry %s: %w", entry.Name, err)
	}
	defer source.Close()

	destination, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	if _, err := io.Copy(destination, source); err != nil {
		destination.Close()
		return fmt.Errorf("extracting %s: %w", entry.Name, err)
	}
	return destination.Close()
}

// safeJoin joins an archive entry name onto dir, rejecting absolute
// names and names that traverse outside dir.
func safeJoin(dir, name string) (string, error) {
	if strings.HasPrefix(name, "/") || strings.Contains(name, "..") {
		return "", fmt.Errorf("archive entry %q escapes extraction directory", name)
	}
	target := filepath.Join(dir, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes extraction directory", name)
	}
	return target, nil
}
