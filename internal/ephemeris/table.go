// Package ephemeris holds the precomputed astronomical event table the
// lunisolar calendar is built from: lunar conjunction (new moon) instants
// and principal solar term (zhongqi) instants.
//
// The table is loaded once at process start and is immutable afterwards,
// so any number of concurrent readers may share one instance.
package ephemeris

import (
	"errors"
	"fmt"
	"sort"
)

// Error kinds for table construction and lookups. All are structural,
// non-retryable failures.
var (
	// ErrMalformedTable indicates the event data violates ordering or
	// format invariants.
	ErrMalformedTable = errors.New("malformed ephemeris table")

	// ErrIncompleteTable indicates the event data has gaps: a missing
	// new moon or principal term inside the covered range.
	ErrIncompleteTable = errors.New("incomplete ephemeris table")

	// ErrOutOfRange indicates a queried instant falls outside the
	// loaded table's coverage. Callers must treat this as "date not
	// supported", never as an approximation.
	ErrOutOfRange = errors.New("date outside ephemeris coverage")
)

// LongitudeWinterSolstice is the ecliptic longitude of the winter
// solstice, the principal term anchoring each lunisolar year.
const LongitudeWinterSolstice = 270

// NewMoon is a lunar conjunction instant.
type NewMoon struct {
	JDN int     // civil day (UTC+8) containing the instant
	TDB float64 // the instant itself, as a TDB Julian date
}

// SolarTerm is a principal-term instant: the sun's apparent ecliptic
// longitude crossing a multiple of 30 degrees.
type SolarTerm struct {
	JDN       int
	TDB       float64
	Longitude int // degrees, multiple of 30
}

// Table is the immutable event table: two strictly increasing sequences
// of new moons and principal solar terms over a contiguous span.
type Table struct {
	newMoons []NewMoon
	terms    []SolarTerm
}

// New validates the event sequences and builds a Table.
//
// Both sequences must be strictly increasing by civil day. Consecutive
// new moons must be one synodic month apart (29 or 30 days) and
// consecutive principal terms one solar month apart; a larger gap means
// an event is missing and the table is rejected rather than silently
// interpolated. The term sequence must step through longitudes in
// 30-degree increments and contain at least two winter solstices.
func New(newMoons []NewMoon, terms []SolarTerm) (*Table, error) {
	if len(newMoons) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 new moons, got %d", ErrIncompleteTable, len(newMoons))
	}
	for i := 1; i < len(newMoons); i++ {
		gap := newMoons[i].JDN - newMoons[i-1].JDN
		if gap <= 0 || newMoons[i].TDB <= newMoons[i-1].TDB {
			return nil, fmt.Errorf("%w: new moons not strictly increasing at index %d", ErrMalformedTable, i)
		}
		if gap < 29 || gap > 30 {
			return nil, fmt.Errorf("%w: %d-day gap between new moons at %d and %d",
				ErrIncompleteTable, gap, newMoons[i-1].JDN, newMoons[i].JDN)
		}
	}

	solstices := 0
	for i, t := range terms {
		if t.Longitude%30 != 0 || t.Longitude < 0 || t.Longitude >= 360 {
			return nil, fmt.Errorf("%w: longitude %d is not a principal term", ErrMalformedTable, t.Longitude)
		}
		if t.Longitude == LongitudeWinterSolstice {
			solstices++
		}
		if i == 0 {
			continue
		}
		prev := terms[i-1]
		gap := t.JDN - prev.JDN
		if gap <= 0 || t.TDB <= prev.TDB {
			return nil, fmt.Errorf("%w: solar terms not strictly increasing at index %d", ErrMalformedTable, i)
		}
		if t.Longitude != (prev.Longitude+30)%360 {
			return nil, fmt.Errorf("%w: term at %d has longitude %d, expected %d",
				ErrIncompleteTable, t.JDN, t.Longitude, (prev.Longitude+30)%360)
		}
		if gap < 28 || gap > 33 {
			return nil, fmt.Errorf("%w: %d-day gap between terms at %d and %d",
				ErrIncompleteTable, gap, prev.JDN, t.JDN)
		}
	}
	if solstices < 2 {
		return nil, fmt.Errorf("%w: need at least 2 winter solstices, got %d", ErrIncompleteTable, solstices)
	}

	return &Table{newMoons: newMoons, terms: terms}, nil
}

// Coverage returns the first and last civil day on which lookups are
// supported: the overlap of the two event sequences.
func (t *Table) Coverage() (first, last int) {
	first = t.newMoons[0].JDN
	if f := t.terms[0].JDN; f > first {
		first = f
	}
	last = t.newMoons[len(t.newMoons)-1].JDN
	if l := t.terms[len(t.terms)-1].JDN; l < last {
		last = l
	}
	return first, last
}

// NewMoonBefore returns the most recent new moon at or before jdn.
func (t *Table) NewMoonBefore(jdn int) (NewMoon, error) {
	if jdn < t.newMoons[0].JDN || jdn > t.newMoons[len(t.newMoons)-1].JDN {
		return NewMoon{}, fmt.Errorf("%w: no new moon on record at or before day %d", ErrOutOfRange, jdn)
	}
	// First new moon after jdn; the one before it is the answer.
	i := sort.Search(len(t.newMoons), func(i int) bool {
		return t.newMoons[i].JDN > jdn
	})
	return t.newMoons[i-1], nil
}

// NewMoonOnOrAfter returns the earliest new moon at or after jdn.
func (t *Table) NewMoonOnOrAfter(jdn int) (NewMoon, error) {
	if jdn < t.newMoons[0].JDN || jdn > t.newMoons[len(t.newMoons)-1].JDN {
		return NewMoon{}, fmt.Errorf("%w: no new moon on record at or after day %d", ErrOutOfRange, jdn)
	}
	i := sort.Search(len(t.newMoons), func(i int) bool {
		return t.newMoons[i].JDN >= jdn
	})
	return t.newMoons[i], nil
}

// SolsticeOnOrBefore returns the winter solstice at or immediately
// before jdn.
func (t *Table) SolsticeOnOrBefore(jdn int) (SolarTerm, error) {
	if jdn < t.terms[0].JDN || jdn > t.terms[len(t.terms)-1].JDN {
		return SolarTerm{}, fmt.Errorf("%w: day %d outside solar term coverage", ErrOutOfRange, jdn)
	}
	i := sort.Search(len(t.terms), func(i int) bool {
		return t.terms[i].JDN > jdn
	})
	// Walk back to the nearest 270-degree crossing; at most 11 steps
	// given the longitude ladder invariant.
	for i--; i >= 0; i-- {
		if t.terms[i].Longitude == LongitudeWinterSolstice {
			return t.terms[i], nil
		}
	}
	return SolarTerm{}, fmt.Errorf("%w: no winter solstice on record at or before day %d", ErrOutOfRange, jdn)
}

// SolsticeAfter returns the first winter solstice strictly after jdn.
func (t *Table) SolsticeAfter(jdn int) (SolarTerm, error) {
	i := sort.Search(len(t.terms), func(i int) bool {
		return t.terms[i].JDN > jdn
	})
	for ; i < len(t.terms); i++ {
		if t.terms[i].Longitude == LongitudeWinterSolstice {
			return t.terms[i], nil
		}
	}
	return SolarTerm{}, fmt.Errorf("%w: no winter solstice on record after day %d", ErrOutOfRange, jdn)
}

// NewMoonsIn returns every new moon with start <= JDN < end, in order.
func (t *Table) NewMoonsIn(start, end int) []NewMoon {
	lo := sort.Search(len(t.newMoons), func(i int) bool {
		return t.newMoons[i].JDN >= start
	})
	hi := sort.Search(len(t.newMoons), func(i int) bool {
		return t.newMoons[i].JDN >= end
	})
	return t.newMoons[lo:hi]
}

// HasPrincipalTermIn reports whether any principal term falls on a civil
// day with start <= JDN < end. A term on a month's first day belongs to
// that month, not the preceding one.
func (t *Table) HasPrincipalTermIn(start, end int) bool {
	i := sort.Search(len(t.terms), func(i int) bool {
		return t.terms[i].JDN >= start
	})
	return i < len(t.terms) && t.terms[i].JDN < end
}

// TermOnOrBefore returns the principal term at or immediately before jdn.
func (t *Table) TermOnOrBefore(jdn int) (SolarTerm, error) {
	if jdn < t.terms[0].JDN || jdn > t.terms[len(t.terms)-1].JDN {
		return SolarTerm{}, fmt.Errorf("%w: day %d outside solar term coverage", ErrOutOfRange, jdn)
	}
	i := sort.Search(len(t.terms), func(i int) bool {
		return t.terms[i].JDN > jdn
	})
	return t.terms[i-1], nil
}
