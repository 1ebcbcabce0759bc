package database

// migrationsSQL contains all database migrations, applied in order by
// version number. Each migration must be idempotent.
var migrationsSQL = map[int]string{
	1: migrationV1Events,
}

// migrationV1Events creates the events table.
//
// One row per astronomical event. Two kinds are stored:
//
//   - new_moon: a lunar conjunction
//   - solar_term: a principal-term crossing (ecliptic longitude a
//     multiple of 30 degrees; the longitude column is set)
//
// jdn is the UTC+8 civil day containing the instant and tdb the instant
// itself as a TDB Julian date. Consecutive events of one kind are weeks
// apart, so (kind, jdn) identifies an event; the UNIQUE constraint makes
// re-imports of overlapping year records idempotent.
const migrationV1Events = `
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,

    kind TEXT NOT NULL CHECK (kind IN ('new_moon', 'solar_term')),

    -- Civil day (UTC+8) containing the instant, as a Julian day number
    jdn INTEGER NOT NULL,

    -- The instant itself, as a TDB Julian date
    tdb REAL NOT NULL,

    -- Ecliptic longitude in degrees, solar terms only
    longitude INTEGER,

    created_at TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE (kind, jdn)
);

-- Events are always read ordered by day within one kind
CREATE INDEX IF NOT EXISTS idx_events_kind_jdn ON events(kind, jdn);
`
