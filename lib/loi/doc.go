// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

// Package loi validates and parses lab object identifiers.
//
// A lab object identifier (LOI) addresses an object of the laboratory
// (a dataset, a recipe, an image, or an info object) as a structured
// string rooted at the fixed constant "42":
//
//	42.<issuer>/<type>/<id path>
//
// The issuer is a numeric string; the type is one of "ds", "rec",
// "img", "info"; the id path grammar depends on the type. Examples:
//
//	42.1001/ds/exp/sa/42/cwepr/1
//	42.1001/ds/exp/2020-04-25/cwepr/1
//	42.1001/rec/42
//	42.1001/info/tb/sample/batch/42
//
// Validation walks a cascade of segment checkers. Each checker tests
// exactly one slash-delimited segment and selects its successor, with
// the selection depending on the segment's value where the grammar
// branches. [Check] is total: malformed input yields false, never an
// error.
//
// [CheckWith] accepts [Options] naming checkers whose segment test is
// bypassed. This exists for identifier allocation: a caller can
// validate a type prefix before the trailing numeric slot has been
// assigned by bypassing the measurement-number checker. Options are
// immutable and flow down the cascade as a plain parameter, so every
// checker reachable from the bypass point sees the same setting.
//
// [Parse] decomposes a validated identifier into its root, issuer,
// type, and id path. Parsing is pure string manipulation once
// validation succeeds; re-serializing a parsed LOI via
// [LOI.String] reproduces the original input.
package loi
