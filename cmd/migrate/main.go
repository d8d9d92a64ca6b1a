// ABOUTME: Migration utility for moving stored credentials between backends.
// ABOUTME: Provides dry-run and clear-source options for switching file, sqlite, and charm stores.

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/harperreed/mbgctl/credentials"
	"github.com/harperreed/mbgctl/logging"
)

func main() {
	from := flag.String("from", "", "Source backend: file, sqlite, charm (required)")
	to := flag.String("to", "", "Destination backend: file, sqlite, charm (required)")
	fromPath := flag.String("from-path", "", "Source file or database path")
	toPath := flag.String("to-path", "", "Destination file or database path")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	clearSource := flag.Bool("clear-source", false, "Clear the source store after copying")
	flag.Parse()

	logger := logging.Setup()

	if *from == "" || *to == "" {
		logger.Error("both -from and -to are required")
		os.Exit(2)
	}

	src := options(*from, *fromPath)
	dst := options(*to, *toPath)
	if err := migrate(logger, src, dst, *dryRun, *clearSource); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	logger.Info("migration completed successfully")
}

func options(backend, path string) credentials.Options {
	opts := credentials.Options{Backend: backend}
	switch backend {
	case credentials.BackendSQLite:
		opts.DBPath = path
	default:
		opts.FilePath = path
	}
	return opts
}

func migrate(logger *slog.Logger, from, to credentials.Options, dryRun, clearSource bool) error {
	if from == to {
		return fmt.Errorf("source and destination are the same store")
	}

	src, closeSrc, err := credentials.Open(from)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() { _ = closeSrc() }()

	cred := src.Get()
	if cred.IsEmpty() {
		logger.Info("source store holds no tokens; nothing to migrate", "backend", from.Backend)
		return nil
	}
	logger.Info("found tokens",
		"backend", from.Backend,
		"access_token", cred.AccessToken != "",
		"refresh_token", cred.RefreshToken != "")

	if dryRun {
		logger.Info("dry run: would copy tokens", "to", to.Backend, "clear_source", clearSource)
		return nil
	}

	dst, closeDst, err := credentials.Open(to)
	if err != nil {
		return fmt.Errorf("failed to open destination: %w", err)
	}
	defer func() { _ = closeDst() }()

	if err := dst.Replace(cred); err != nil {
		return fmt.Errorf("failed to write destination: %w", err)
	}
	if got := dst.Get(); got != cred {
		return fmt.Errorf("destination did not keep the copied tokens")
	}
	logger.Info("copied tokens", "to", to.Backend)

	if clearSource {
		if err := src.Clear(); err != nil {
			return fmt.Errorf("failed to clear source: %w", err)
		}
		logger.Info("cleared source", "backend", from.Backend)
	}
	return nil
}
