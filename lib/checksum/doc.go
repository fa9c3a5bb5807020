// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

// Package checksum computes content checksums for datasets.
//
// Checksums serve two purposes in the datasafe: detecting corruption
// of stored files, and detecting duplicates across differently named
// or ordered copies of the same data. Two design rules make this work:
//
//   - Checksums cover file contents only, never file names. Renaming
//     a file does not change its checksum.
//   - A checksum over several files is computed per file, the per-file
//     digests sorted, and a digest computed over the sorted list. The
//     combined checksum is therefore independent of both file names
//     and listing order.
//
// The digest algorithm is a free-form name resolved through a
// process-level registry. Built-ins cover md5 (the default), sha1,
// sha256, and blake3. The default is MD5: checksums here are
// duplicate and corruption detectors, not a security boundary, and
// MD5 digests stay short in manifest files. [Register] adds further
// algorithms without changing the [Generator] contract.
package checksum
