// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"testing"

	"github.com/labinform/datasafe/lib/loi"
)

func TestSlotFor(t *testing.T) {
	slot, err := slotFor("42.1001/ds/exp/2022-01-15/cwepr/1")
	if err != nil {
		t.Fatal(err)
	}
	if slot != "exp/2022-01-15/cwepr/1" {
		t.Errorf("slot = %q", slot)
	}

	if _, err := slotFor("42.1001/rec/42"); !errors.Is(err, loi.ErrInvalidLOI) {
		t.Errorf("non-datasafe LOI error = %v", err)
	}
	if _, err := slotFor("42.1001/ds"); !errors.Is(err, loi.ErrInvalidLOI) {
		t.Errorf("bare type LOI error = %v", err)
	}
}

func TestIdentifierAndDir(t *testing.T) {
	identifier, dir, err := identifierAndDir([]string{"42.1001/ds/exp/2022-01-15/cwepr/1"})
	if err != nil {
		t.Fatal(err)
	}
	if identifier != "42.1001/ds/exp/2022-01-15/cwepr/1" || dir != "." {
		t.Errorf("got %q, %q", identifier, dir)
	}

	_, dir, err = identifierAndDir([]string{"x", "/data/run7"})
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/data/run7" {
		t.Errorf("dir = %q", dir)
	}

	if _, _, err := identifierAndDir(nil); err == nil {
		t.Error("missing arguments accepted")
	}
}
