package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kaiwenliang/nongli-api/internal/ephemeris"
)

// InsertEvent stores one event inside a transaction. Inserting an event
// that is already present is a no-op, which keeps imports of overlapping
// year records idempotent.
func (tx *Tx) InsertEvent(ctx context.Context, e *Event) error {
	if !e.Kind.IsValid() {
		return fmt.Errorf("insert event: invalid kind %q", e.Kind)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO events (kind, jdn, tdb, longitude)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (kind, jdn) DO NOTHING
	`, e.Kind, e.JDN, e.TDB, e.Longitude)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

// CountEvents returns the number of stored events of one kind.
func (db *DB) CountEvents(ctx context.Context, kind EventKind) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM events WHERE kind = ?", kind,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

// CoverageRange returns the first and last civil day covered by events
// of one kind. Returns ErrNotFound when no events of that kind exist.
func (db *DB) CoverageRange(ctx context.Context, kind EventKind) (first, last int, err error) {
	var lo, hi sql.NullInt64
	err = db.QueryRowContext(ctx,
		"SELECT MIN(jdn), MAX(jdn) FROM events WHERE kind = ?", kind,
	).Scan(&lo, &hi)
	if err != nil {
		return 0, 0, fmt.Errorf("query coverage range: %w", err)
	}
	if !lo.Valid || !hi.Valid {
		return 0, 0, fmt.Errorf("coverage range for %s: %w", kind, ErrNotFound)
	}
	return int(lo.Int64), int(hi.Int64), nil
}

// ListEvents returns all events of one kind ordered by civil day.
func (db *DB) ListEvents(ctx context.Context, kind EventKind) ([]Event, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, kind, jdn, tdb, longitude
		FROM events
		WHERE kind = ?
		ORDER BY jdn
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var longitude sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Kind, &e.JDN, &e.TDB, &longitude); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if longitude.Valid {
			v := int(longitude.Int64)
			e.Longitude = &v
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

// LoadTable reads the full event set and builds the validated in-memory
// ephemeris table. Called once at process startup; the resulting table
// is immutable and safe for concurrent readers.
func (db *DB) LoadTable(ctx context.Context) (*ephemeris.Table, error) {
	moonRows, err := db.ListEvents(ctx, KindNewMoon)
	if err != nil {
		return nil, err
	}
	termRows, err := db.ListEvents(ctx, KindSolarTerm)
	if err != nil {
		return nil, err
	}

	moons := make([]ephemeris.NewMoon, 0, len(moonRows))
	for _, e := range moonRows {
		moons = append(moons, ephemeris.NewMoon{JDN: e.JDN, TDB: e.TDB})
	}
	terms := make([]ephemeris.SolarTerm, 0, len(termRows))
	for _, e := range termRows {
		if e.Longitude == nil {
			return nil, errors.New("load table: solar term row without longitude")
		}
		terms = append(terms, ephemeris.SolarTerm{JDN: e.JDN, TDB: e.TDB, Longitude: *e.Longitude})
	}

	table, err := ephemeris.New(moons, terms)
	if err != nil {
		return nil, fmt.Errorf("load table: %w", err)
	}

	db.logger.Info("ephemeris table loaded",
		"new_moons", len(moons),
		"solar_terms", len(terms),
	)
	return table, nil
}
