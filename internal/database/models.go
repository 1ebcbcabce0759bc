package database

// EventKind classifies a stored astronomical event.
type EventKind string

const (
	KindNewMoon   EventKind = "new_moon"
	KindSolarTerm EventKind = "solar_term"
)

// IsValid checks if an event kind is valid.
func (k EventKind) IsValid() bool {
	return k == KindNewMoon || k == KindSolarTerm
}

// Event is one astronomical event row.
type Event struct {
	ID        int64     `json:"id"`
	Kind      EventKind `json:"kind"`
	JDN       int       `json:"jdn"`       // UTC+8 civil day of the instant
	TDB       float64   `json:"tdb"`       // the instant, as a TDB Julian date
	Longitude *int      `json:"longitude"` // solar terms only, nil for new moons
}
