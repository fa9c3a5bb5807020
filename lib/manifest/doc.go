// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest reads and writes the self-describing metadata
// record accompanying every dataset in the datasafe.
//
// A manifest lists the dataset's data and metadata files, records the
// detected data format and per-metadata-file format information, and
// carries two content checksums: one over data and metadata together,
// one over the data alone. Metadata is of human origin and subject to
// correction; data must never change after recording. The two spans
// let corruption be attributed to one or the other.
//
// The on-disk document is YAML with stable key order, named
// MANIFEST.yaml by default:
//
//	format:
//	    type: datasafe dataset manifest
//	    version: 0.1.0
//	dataset:
//	    loi: 42.1001/ds/exp/sa/42/cwepr/1
//	    complete: false
//	files:
//	    metadata:
//	        - name: sample.info
//	          format: cwEPR Info file
//	          version: 0.1.4
//	    data:
//	        format: undetected
//	        names:
//	            - measurement.dat
//	checksums:
//	    - name: CHECKSUM
//	      format: MD5 checksum
//	      span: data, metadata
//	      value: <hex digest>
//	    - name: CHECKSUM_data
//	      format: MD5 checksum
//	      span: data
//	      value: <hex digest>
//
// Format detection is pluggable: a [Manifest] receives an ordered
// list of [Detector] implementations at construction, tries each in
// order, and falls back to a built-in detector when none produces a
// data-format guess. The built-in metadata sniffing dispatches on
// file extension through an explicit parser table.
package manifest
