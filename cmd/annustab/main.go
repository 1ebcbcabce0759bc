// Command annustab prints the month table of one lunisolar year.
//
// Usage:
//
//	go run ./cmd/annustab -db data/nongli.db -year 2017
//
// Output is one line per month: name, first Gregorian day, and length.
// Useful for eyeballing leap month placement against published calendars.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kaiwenliang/nongli-api/internal/calendar"
	"github.com/kaiwenliang/nongli-api/internal/database"
	"github.com/kaiwenliang/nongli-api/internal/julian"
)

func main() {
	dbPath := flag.String("db", "data/nongli.db", "Path to SQLite database")
	year := flag.Int("year", 0, "Lunisolar year to print (required)")
	flag.Parse()

	if *year == 0 {
		fmt.Fprintln(os.Stderr, "annustab: -year is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*dbPath, *year); err != nil {
		fmt.Fprintf(os.Stderr, "annustab: %v\n", err)
		os.Exit(1)
	}
}

func run(dbPath string, year int) error {
	ctx := context.Background()

	// Quiet logger; this is a print tool.
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := database.Open(database.DefaultConfig(dbPath), log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	table, err := db.LoadTable(ctx)
	if err != nil {
		return fmt.Errorf("load ephemeris table: %w", err)
	}

	// The year's span closes at its December solstice, so anchoring at
	// the end of the previous year opens it.
	anchor, err := julian.ToJDN(year-1, 12, 31)
	if err != nil {
		return err
	}
	annus, err := calendar.Build(table, anchor)
	if err != nil {
		return err
	}

	cycle := calendar.SexagenaryYear(annus.Year)
	fmt.Printf("%d %s年  (%d months)\n", annus.Year, calendar.SexagenaryName(cycle), len(annus.Months))
	for _, m := range annus.Months {
		fmt.Printf("  %-4s %s  %d days\n", calendar.MonthName(m), julian.Format(m.Start), m.Days)
	}
	return nil
}
