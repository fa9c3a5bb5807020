// Copyright 2026 The Datasafe Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete datasafe CLI command tree.
// Every command loads its configuration the same way: --config flag
// if given, DATASAFE_CONFIG environment variable otherwise, built-in
// defaults as the last resort. All actual logic lives in lib/; this
// package wires arguments and prints results.
package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/labinform/datasafe/cmd/datasafe/cli"
	"github.com/labinform/datasafe/lib/client"
	"github.com/labinform/datasafe/lib/config"
	"github.com/labinform/datasafe/lib/loi"
	"github.com/labinform/datasafe/lib/manifest"
	"github.com/labinform/datasafe/lib/storage"
	"github.com/labinform/datasafe/lib/version"
)

// Root builds and returns the complete datasafe CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "datasafe",
		Description: `Datasafe: a warm repository for research data.

Reserve identifiers for new measurements, deposit datasets together
with a checksummed manifest, and retrieve them later with an
integrity check on arrival.`,
		Subcommands: []*cli.Command{
			createCommand(),
			uploadCommand(),
			downloadCommand(),
			updateCommand(),
			checkCommand(),
			indexCommand(),
			manifestCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("datasafe %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Reserve an identifier for today's cw-EPR measurement",
				Command:     "datasafe create 42.1001/ds/exp/2022-01-15/cwepr",
			},
			{
				Description: "Deposit the dataset in the current directory",
				Command:     "datasafe upload 42.1001/ds/exp/2022-01-15/cwepr/1",
			},
			{
				Description: "Fetch a dataset into a fresh working directory",
				Command:     "datasafe download 42.1001/ds/exp/2022-01-15/cwepr/1",
			},
			{
				Description: "List everything the datasafe holds",
				Command:     "datasafe index",
			},
		},
	}
}

// configFlags returns a flag set carrying the shared --config flag and
// a pointer to its value.
func configFlags(name string) (*pflag.FlagSet, *string) {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to the datasafe config file")
	return flags, configPath
}

// loadConfig resolves the configuration for a command invocation.
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newClient builds a local client over the configured storage backend.
func newClient(cfg *config.Config) (*client.Client, error) {
	backend, err := storage.New(cfg.Storage.RootDirectory,
		storage.WithManifestFilename(cfg.Storage.ManifestFilename))
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return client.NewLocal(backend,
		client.WithManifestFilename(cfg.Storage.ManifestFilename),
		client.WithAlgorithm(cfg.Checksum.Algorithm)), nil
}

// newBackend builds the bare storage backend for commands that bypass
// the client (check, index).
func newBackend(cfg *config.Config) (*storage.Backend, error) {
	backend, err := storage.New(cfg.Storage.RootDirectory,
		storage.WithManifestFilename(cfg.Storage.ManifestFilename))
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return backend, nil
}

func createCommand() *cli.Command {
	flags, configPath := configFlags("create")
	return &cli.Command{
		Name:    "create",
		Summary: "Reserve a new identifier in the datasafe",
		Usage:   "datasafe create <loi-prefix> [flags]",
		Description: `Reserve a new identifier in the datasafe.

The argument is an experiment LOI without the measurement number,
e.g. 42.1001/ds/exp/2022-01-15/cwepr. The datasafe allocates the
next free number and prints the complete identifier. No data is
stored; follow up with 'datasafe upload'.`,
		Flags: func() *pflag.FlagSet { return flags },
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one LOI prefix, got %d arguments", len(args))
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			c, err := newClient(cfg)
			if err != nil {
				return err
			}
			identifier, err := c.Create(args[0])
			if err != nil {
				return err
			}
			fmt.Println(identifier)
			return nil
		},
	}
}

func uploadCommand() *cli.Command {
	flags, configPath := configFlags("upload")
	pattern := flags.String("pattern", "", "only files matching 'pattern.*' belong to the dataset")
	return &cli.Command{
		Name:    "upload",
		Summary: "Deposit a dataset under a reserved identifier",
		Usage:   "datasafe upload <loi> [dir] [flags]",
		Description: `Deposit a dataset under a reserved identifier.

The dataset directory defaults to the current directory. A missing
manifest is built automatically; either way the manifest is stamped
with the identifier before packing. The server verifies the deposit
against the manifest checksums and the verdict is reported.`,
		Flags: func() *pflag.FlagSet { return flags },
		Run: func(args []string) error {
			identifier, dir, err := identifierAndDir(args)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			c, err := newClient(cfg)
			if err != nil {
				return err
			}
			verdict, err := c.Upload(identifier, dir, *pattern)
			if err != nil {
				return err
			}
			reportVerdict("upload", identifier, verdict)
			return nil
		},
	}
}

func updateCommand() *cli.Command {
	flags, configPath := configFlags("update")
	pattern := flags.String("pattern", "", "only files matching 'pattern.*' belong to the dataset")
	return &cli.Command{
		Name:    "update",
		Summary: "Replace the dataset stored under an identifier",
		Usage:   "datasafe update <loi> [dir] [flags]",
		Description: `Replace the dataset stored under an identifier.

Works like upload, but for identifiers that already hold content.
Rebuild the manifest first if the dataset files changed, so the
stored checksums match what is deposited.`,
		Flags: func() *pflag.FlagSet { return flags },
		Run: func(args []string) error {
			identifier, dir, err := identifierAndDir(args)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			c, err := newClient(cfg)
			if err != nil {
				return err
			}
			verdict, err := c.Update(identifier, dir, *pattern)
			if err != nil {
				return err
			}
			reportVerdict("update", identifier, verdict)
			return nil
		},
	}
}

func downloadCommand() *cli.Command {
	flags, configPath := configFlags("download")
	return &cli.Command{
		Name:    "download",
		Summary: "Fetch a dataset into a fresh working directory",
		Usage:   "datasafe download <loi> [flags]",
		Description: `Fetch a dataset into a fresh working directory.

The dataset is unpacked into a new temporary directory whose path is
printed on stdout. Integrity is checked on arrival; a failed check
is reported on stderr but the data stays available for inspection.`,
		Flags: func() *pflag.FlagSet { return flags },
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one LOI, got %d arguments", len(args))
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			c, err := newClient(cfg)
			if err != nil {
				return err
			}
			dir, verdict, err := c.Download(args[0])
			if err != nil {
				return err
			}
			reportVerdict("download", args[0], verdict)
			fmt.Println(dir)
			return nil
		},
	}
}

func checkCommand() *cli.Command {
	flags, configPath := configFlags("check")
	return &cli.Command{
		Name:    "check",
		Summary: "Check the integrity of a stored dataset in place",
		Usage:   "datasafe check <loi> [flags]",
		Description: `Check the integrity of a stored dataset in place.

Recomputes the checksums over the stored files and compares them to
the manifest. Nothing is downloaded or modified.`,
		Flags: func() *pflag.FlagSet { return flags },
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one LOI, got %d arguments", len(args))
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			backend, err := newBackend(cfg)
			if err != nil {
				return err
			}
			slot, err := slotFor(args[0])
			if err != nil {
				return err
			}
			verdict, err := backend.CheckIntegrity(slot)
			if err != nil {
				return err
			}
			fmt.Printf("data: %s\nall:  %s\n", verdictWord(verdict.Data), verdictWord(verdict.All))
			if !verdict.Data || !verdict.All {
				return fmt.Errorf("integrity check failed for %s", args[0])
			}
			return nil
		},
	}
}

func indexCommand() *cli.Command {
	flags, configPath := configFlags("index")
	return &cli.Command{
		Name:    "index",
		Summary: "List every dataset and reserved identifier",
		Usage:   "datasafe index [flags]",
		Flags:   func() *pflag.FlagSet { return flags },
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("index takes no arguments")
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			backend, err := newBackend(cfg)
			if err != nil {
				return err
			}
			slots, err := backend.Index()
			if err != nil {
				return err
			}
			for _, slot := range slots {
				fmt.Println(slot)
			}
			return nil
		},
	}
}

func manifestCommand() *cli.Command {
	flags, configPath := configFlags("manifest")
	pattern := flags.String("pattern", "", "only files matching 'pattern.*' belong to the dataset")
	return &cli.Command{
		Name:    "manifest",
		Summary: "Build a manifest for a local dataset directory",
		Usage:   "datasafe manifest [dir] [flags]",
		Description: `Build a manifest for a local dataset directory.

Lists the directory, separates metadata files from data files by
extension, detects formats, computes checksums, and writes the
manifest file into the directory. Run this before uploading, or let
upload do it implicitly.`,
		Flags: func() *pflag.FlagSet { return flags },
		Run: func(args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("expected at most one directory, got %d arguments", len(args))
			}
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			c, err := newClient(cfg)
			if err != nil {
				return err
			}
			return c.BuildManifest(dir, *pattern)
		},
	}
}

// identifierAndDir extracts the LOI and optional dataset directory
// from positional arguments.
func identifierAndDir(args []string) (identifier, dir string, err error) {
	switch len(args) {
	case 1:
		return args[0], ".", nil
	case 2:
		return args[0], args[1], nil
	default:
		return "", "", fmt.Errorf("expected <loi> [dir], got %d arguments", len(args))
	}
}

// slotFor maps an identifier to its storage slot path.
func slotFor(identifier string) (string, error) {
	parsed, err := loi.Parse(identifier)
	if err != nil {
		return "", err
	}
	if parsed.Type != "ds" || parsed.ID == "" {
		return "", fmt.Errorf("%w: not a datasafe LOI: %q", loi.ErrInvalidLOI, identifier)
	}
	return parsed.ID, nil
}

// verdictWord renders one integrity flag for the check report.
func verdictWord(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}

// reportVerdict logs a failed integrity verdict. Success stays quiet.
func reportVerdict(operation, identifier string, verdict manifest.Integrity) {
	if verdict.Data && verdict.All {
		return
	}
	logger := cli.NewCommandLogger().With("command", operation, "loi", identifier)
	switch {
	case !verdict.Data:
		logger.Warn("integrity check failed, data may be corrupted")
	default:
		logger.Warn("integrity check failed, metadata may be corrupted")
	}
}
