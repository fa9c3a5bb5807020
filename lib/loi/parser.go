// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

package loi

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingLOI is returned when an operation requiring an identifier
// received none.
var ErrMissingLOI = errors.New("no LOI provided")

// ErrInvalidLOI is returned when a supplied identifier fails the
// grammar cascade.
var ErrInvalidLOI = errors.New("invalid LOI")

// LOI is a parsed lab object identifier. The fields are fixed once
// parsed; [LOI.String] reproduces the exact input string.
type LOI struct {
	// Root is the fixed leading constant ("42").
	Root string

	// Issuer is the numeric issuer string following the root.
	Issuer string

	// Type is the object type ("ds", "rec", "img", "info").
	Type string

	// ID is the type-specific id path, slash-joined. Empty for
	// identifiers that carry no path beyond the type.
	ID string
}

// Parse validates and decomposes an identifier string. Validation
// runs with the measurement-number checker bypassed, so identifiers
// that are type prefixes awaiting slot allocation parse as well as
// complete ones. Returns [ErrMissingLOI] for empty input and
// [ErrInvalidLOI] when the cascade rejects the string.
func Parse(identifier string) (*LOI, error) {
	if identifier == "" {
		return nil, ErrMissingLOI
	}
	if !CheckWith(identifier, SkipChecker(CheckerMeasurementNumber)) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLOI, identifier)
	}

	segments := strings.Split(identifier, Separator)
	rootIssuer := strings.SplitN(segments[0], RootIssuerSeparator, 2)

	parsed := &LOI{Root: rootIssuer[0]}
	if len(rootIssuer) > 1 {
		parsed.Issuer = rootIssuer[1]
	}
	if len(segments) > 1 {
		parsed.Type = segments[1]
	}
	if len(segments) > 2 {
		parsed.ID = strings.Join(segments[2:], Separator)
	}
	return parsed, nil
}

// String re-serializes the parsed identifier. For any accepted input,
// Parse followed by String is the identity.
func (l *LOI) String() string {
	parts := []string{l.Root + RootIssuerSeparator + l.Issuer}
	if l.Type != "" {
		parts = append(parts, l.Type)
	}
	if l.ID != "" {
		parts = append(parts, l.ID)
	}
	return strings.Join(parts, Separator)
}

// SplitID returns the id path segments in order, or an empty slice
// when no id path is present.
func (l *LOI) SplitID() []string {
	if l.ID == "" {
		return []string{}
	}
	return strings.Split(l.ID, Separator)
}
