// Command import loads a raw ephemeris text file into the SQLite database.
//
// Usage:
//
//	go run ./cmd/import -file data/ephemeris.txt -db data/nongli.db
//
// This tool:
// 1. Creates/opens the SQLite database
// 2. Runs migrations to ensure schema is current
// 3. Parses the raw ephemeris text, validating the event sequences
// 4. Imports all new moons and solar terms in a single transaction
//
// The import is idempotent: events already present are skipped, so
// re-running with an overlapping or extended file is safe.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/kaiwenliang/nongli-api/internal/database"
	"github.com/kaiwenliang/nongli-api/internal/ephemeris"
	"github.com/kaiwenliang/nongli-api/internal/julian"
)

func main() {
	// Parse command line flags
	filePath := flag.String("file", "data/ephemeris.txt", "Path to raw ephemeris text file")
	dbPath := flag.String("db", "data/nongli.db", "Path to SQLite database")
	fromYear := flag.Int("from", 0, "First Gregorian year to import (0 = no lower bound)")
	toYear := flag.Int("to", 0, "Last Gregorian year to import (0 = no upper bound)")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Setup logger
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// Run import
	if err := run(*filePath, *dbPath, *fromYear, *toYear, logger); err != nil {
		logger.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("import complete")
}

func run(filePath, dbPath string, fromYear, toYear int, logger *slog.Logger) error {
	ctx := context.Background()
	startTime := time.Now()

	// =========================================================================
	// Step 1: Read and parse the ephemeris text
	// =========================================================================
	logger.Info("reading ephemeris file", slog.String("path", filePath))

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open ephemeris file: %w", err)
	}
	defer f.Close()

	moons, terms, err := ephemeris.Parse(f, fromYear, toYear)
	if err != nil {
		return fmt.Errorf("parse ephemeris: %w", err)
	}

	logger.Info("parsed ephemeris",
		slog.Int("new_moons", len(moons)),
		slog.Int("solar_terms", len(terms)),
	)

	// Validate before touching the database so a broken file leaves the
	// store unchanged.
	table, err := ephemeris.New(moons, terms)
	if err != nil {
		return fmt.Errorf("validate ephemeris: %w", err)
	}
	first, last := table.Coverage()
	logger.Info("coverage",
		slog.String("first", julian.Format(first)),
		slog.String("last", julian.Format(last)),
	)

	// =========================================================================
	// Step 2: Open database and run migrations
	// =========================================================================
	logger.Info("opening database", slog.String("path", dbPath))

	db, err := database.Open(database.DefaultConfig(dbPath), logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	migrated, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("migrations complete", slog.Int("applied", migrated))

	// =========================================================================
	// Step 3: Import events in a transaction
	// =========================================================================
	logger.Info("starting import")

	err = db.WithTx(ctx, func(tx *database.Tx) error {
		for _, m := range moons {
			e := database.Event{Kind: database.KindNewMoon, JDN: m.JDN, TDB: m.TDB}
			if err := tx.InsertEvent(ctx, &e); err != nil {
				return err
			}
		}
		for _, t := range terms {
			lon := t.Longitude
			e := database.Event{Kind: database.KindSolarTerm, JDN: t.JDN, TDB: t.TDB, Longitude: &lon}
			if err := tx.InsertEvent(ctx, &e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("import events: %w", err)
	}

	// =========================================================================
	// Step 4: Verify import
	// =========================================================================
	moonCount, err := db.CountEvents(ctx, database.KindNewMoon)
	if err != nil {
		return fmt.Errorf("count new moons: %w", err)
	}
	termCount, err := db.CountEvents(ctx, database.KindSolarTerm)
	if err != nil {
		return fmt.Errorf("count solar terms: %w", err)
	}

	logger.Info("import verified",
		slog.Int("new_moons_stored", moonCount),
		slog.Int("solar_terms_stored", termCount),
		slog.Duration("elapsed", time.Since(startTime)),
	)

	return nil
}
