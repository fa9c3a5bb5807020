// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/zeebo/blake3"
)

// DefaultAlgorithm is the digest used when a Generator is created
// without an explicit algorithm.
const DefaultAlgorithm = "md5"

// fileChunkSize is the read size for file hashing. Files are streamed
// through the hash in chunks of this size so memory usage stays
// constant regardless of file size.
const fileChunkSize = 4096

// ErrUnknownAlgorithm is returned when a Generator names an algorithm
// that is not present in the registry.
var ErrUnknownAlgorithm = errors.New("unknown checksum algorithm")

var (
	registryMu sync.RWMutex
	registry   = map[string]func() hash.Hash{
		"md5":    md5.New,
		"sha1":   sha1.New,
		"sha256": sha256.New,
		"blake3": func() hash.Hash { return blake3.New() },
	}
)

// Register adds a digest algorithm under the given name. Registering
// an existing name replaces the previous constructor. Names are
// matched case-insensitively by [Generator].
func Register(name string, constructor func() hash.Hash) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = constructor
}

// Algorithms returns the sorted names of all registered algorithms.
func Algorithms() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Supported reports whether an algorithm name resolves in the registry.
func Supported(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[strings.ToLower(name)]
	return ok
}

// Generator computes hex-encoded checksums with a configurable digest
// algorithm. The zero value is not usable; create one with [New].
type Generator struct {
	// Algorithm names the digest function, resolved through the
	// package registry. Matched case-insensitively.
	Algorithm string
}

// New returns a Generator using the given algorithm, or
// [DefaultAlgorithm] when called without arguments.
func New(algorithm ...string) *Generator {
	generator := &Generator{Algorithm: DefaultAlgorithm}
	if len(algorithm) > 0 && algorithm[0] != "" {
		generator.Algorithm = algorithm[0]
	}
	return generator
}

// newHash resolves the generator's algorithm against the registry.
func (g *Generator) newHash() (hash.Hash, error) {
	registryMu.RLock()
	constructor, ok := registry[strings.ToLower(g.Algorithm)]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, g.Algorithm)
	}
	return constructor(), nil
}

// HashBytes returns the hex digest of data.
func (g *Generator) HashBytes(data []byte) (string, error) {
	hasher, err := g.newHash()
	if err != nil {
		return "", err
	}
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashString returns the hex digest of the string's bytes.
func (g *Generator) HashString(value string) (string, error) {
	return g.HashBytes([]byte(value))
}

// HashStrings returns the hex digest over a list of strings. The list
// is sorted lexicographically before hashing, so the result does not
// depend on the order the caller supplies the elements in. This is
// what makes checksums of checksums stable: per-file digests can be
// fed in any order and still produce the same combined digest.
//
// The caller's slice is not modified.
func (g *Generator) HashStrings(values []string) (string, error) {
	hasher, err := g.newHash()
	if err != nil {
		return "", err
	}
	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.Strings(sorted)
	for _, value := range sorted {
		hasher.Write([]byte(value))
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashFile returns the hex digest of the file's content. The file
// name never enters the hash. The file is read in fixed-size chunks;
// a missing file yields an error wrapping fs.ErrNotExist.
func (g *Generator) HashFile(path string) (string, error) {
	hasher, err := g.newHash()
	if err != nil {
		return "", err
	}
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	buffer := make([]byte, fileChunkSize)
	for {
		n, err := file.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("hashing %s: %w", path, err)
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashFiles returns the hex digest over one or more files. A single
// file yields its content digest directly. For several files, each
// file is digested separately and the combined digest is computed
// with [Generator.HashStrings] over the per-file digests, making the
// result independent of file names and listing order at every level.
func (g *Generator) HashFiles(paths []string) (string, error) {
	if len(paths) == 1 {
		return g.HashFile(paths[0])
	}
	digests := make([]string, 0, len(paths))
	for _, path := range paths {
		digest, err := g.HashFile(path)
		if err != nil {
			return "", err
		}
		digests = append(digests, digest)
	}
	return g.HashStrings(digests)
}
