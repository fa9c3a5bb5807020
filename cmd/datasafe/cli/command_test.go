// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestExecuteDispatchesSubcommand(t *testing.T) {
	var ran []string
	root := &Command{
		Name: "datasafe",
		Subcommands: []*Command{
			{
				Name: "upload",
				Run: func(args []string) error {
					ran = args
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"upload", "42.1001/ds/exp/2022-01-15/cwepr/1"}); err != nil {
		t.Fatal(err)
	}
	if len(ran) != 1 || ran[0] != "42.1001/ds/exp/2022-01-15/cwepr/1" {
		t.Errorf("subcommand args = %v", ran)
	}
}

func TestExecuteSuggestsCommand(t *testing.T) {
	root := &Command{
		Name: "datasafe",
		Subcommands: []*Command{
			{Name: "upload", Run: func([]string) error { return nil }},
			{Name: "download", Run: func([]string) error { return nil }},
		},
	}

	err := root.Execute([]string{"uplaod"})
	if err == nil {
		t.Fatal("unknown command accepted")
	}
	if !strings.Contains(err.Error(), `did you mean "upload"`) {
		t.Errorf("error = %v", err)
	}
}

func TestExecuteParsesFlags(t *testing.T) {
	var pattern string
	command := &Command{
		Name: "manifest",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("manifest", pflag.ContinueOnError)
			flags.StringVar(&pattern, "pattern", "", "file pattern")
			return flags
		},
		Run: func(args []string) error { return nil },
	}

	if err := command.Execute([]string{"--pattern", "measurement", "."}); err != nil {
		t.Fatal(err)
	}
	if pattern != "measurement" {
		t.Errorf("pattern = %q", pattern)
	}
}

func TestExecuteSuggestsFlag(t *testing.T) {
	command := &Command{
		Name: "manifest",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("manifest", pflag.ContinueOnError)
			flags.String("pattern", "", "file pattern")
			return flags
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--patern", "x"})
	if err == nil {
		t.Fatal("unknown flag accepted")
	}
	if !strings.Contains(err.Error(), "--pattern") {
		t.Errorf("error = %v", err)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"upload", "upload", 0},
		{"uplaod", "upload", 2},
		{"chk", "check", 2},
		{"kitten", "sitting", 3},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}
