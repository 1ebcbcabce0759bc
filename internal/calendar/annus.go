// Package calendar reconstructs the traditional Chinese lunisolar
// calendar from precomputed astronomical event times.
//
// The unit of reconstruction is the "annus": the span between two
// consecutive winter solstices, running from the month containing the
// first solstice (month 11) through the month before the month
// containing the next. Calendar years are numbered from month 1, but
// the arithmetic is anchored on the solstice-to-solstice span, so the
// annus is what gets built and dates are mapped into it.
package calendar

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kaiwenliang/nongli-api/internal/ephemeris"
	"github.com/kaiwenliang/nongli-api/internal/julian"
)

var (
	// ErrInconsistentYear signals a span that did not partition into 12
	// or 13 months, or a 13-month span with no leap candidate. This is
	// a data or algorithm defect, never a transient condition.
	ErrInconsistentYear = errors.New("inconsistent lunisolar year structure")

	// ErrDateNotInYear is returned by YMDFor when the queried day lies
	// outside the annus it was resolved against.
	ErrDateNotInYear = errors.New("date not in this lunisolar year")
)

// Month is one calendar month of an annus.
type Month struct {
	Num   int  `json:"num"`   // 1..12; a leap month repeats its predecessor's number
	Leap  bool `json:"leap"`  // true for an inserted leap month
	Start int  `json:"start"` // JDN of the month's first day
	Days  int  `json:"days"`  // length, 29 or 30
}

// Contains reports whether jdn falls inside the month.
func (m Month) Contains(jdn int) bool {
	return jdn >= m.Start && jdn < m.Start+m.Days
}

// Annus is one reconstructed lunisolar year. It is immutable once built
// and holds no reference to the ephemeris table it was built from.
type Annus struct {
	// Year is the Gregorian year the annus is named for: the year of
	// its closing winter solstice, which is also the year its months
	// 1..10 fall in.
	Year int

	// Months lists the span's months in chronological order, month 11
	// first. Always 12 or 13 entries, contiguous.
	Months []Month
}

// Build reconstructs the annus whose opening winter solstice is at or
// before anchor.
//
// Note that for an anchor between the span's last month boundary and the
// next solstice, the built annus does not contain the anchor; FromDate
// handles that adjustment.
func Build(table *ephemeris.Table, anchor int) (*Annus, error) {
	ws0, err := table.SolsticeOnOrBefore(anchor)
	if err != nil {
		return nil, err
	}
	ws1, err := table.SolsticeAfter(ws0.JDN)
	if err != nil {
		return nil, err
	}

	// The month containing a solstice begins at the most recent new
	// moon at or before it.
	m0, err := table.NewMoonBefore(ws0.JDN)
	if err != nil {
		return nil, err
	}
	m1, err := table.NewMoonBefore(ws1.JDN)
	if err != nil {
		return nil, err
	}

	starts := table.NewMoonsIn(m0.JDN, m1.JDN)
	if n := len(starts); n != 12 && n != 13 {
		return nil, fmt.Errorf("%w: %d months between solstices at %s and %s",
			ErrInconsistentYear, n, julian.Format(ws0.JDN), julian.Format(ws1.JDN))
	}
	needsLeap := len(starts) == 13

	months := make([]Month, 0, len(starts))
	num := 10
	for i, nm := range starts {
		end := m1.JDN
		if i+1 < len(starts) {
			end = starts[i+1].JDN
		}
		// The first month contains the solstice by construction, so it
		// always has a principal term and is never the leap month. The
		// first later month without a principal term is the leap month;
		// it repeats the preceding month's number.
		if needsLeap && i > 0 && !table.HasPrincipalTermIn(nm.JDN, end) {
			months = append(months, Month{Num: num, Leap: true, Start: nm.JDN, Days: end - nm.JDN})
			needsLeap = false
			continue
		}
		num = num%12 + 1
		months = append(months, Month{Num: num, Start: nm.JDN, Days: end - nm.JDN})
	}
	if needsLeap {
		return nil, fmt.Errorf("%w: 13 months but no leap candidate between solstices at %s and %s",
			ErrInconsistentYear, julian.Format(ws0.JDN), julian.Format(ws1.JDN))
	}

	year, _, _ := julian.FromJDN(ws1.JDN)
	return &Annus{Year: year, Months: months}, nil
}

// FromDate returns the annus containing jdn.
func FromDate(table *ephemeris.Table, jdn int) (*Annus, error) {
	a, err := Build(table, jdn)
	if err != nil {
		return nil, err
	}
	if a.Contains(jdn) {
		return a, nil
	}
	// jdn falls between the span's last month boundary and the next
	// solstice: it belongs to month 11 of the following annus.
	ws, err := table.SolsticeAfter(jdn)
	if err != nil {
		return nil, err
	}
	return Build(table, ws.JDN)
}

// Start returns the first civil day of the annus.
func (a *Annus) Start() int {
	return a.Months[0].Start
}

// End returns the first civil day after the annus: the start of the
// next annus's month 11.
func (a *Annus) End() int {
	last := a.Months[len(a.Months)-1]
	return last.Start + last.Days
}

// Contains reports whether jdn falls inside the annus.
func (a *Annus) Contains(jdn int) bool {
	return jdn >= a.Start() && jdn < a.End()
}

// IsLeapYear reports whether the annus carries an inserted leap month.
func (a *Annus) IsLeapYear() bool {
	return len(a.Months) == 13
}

// YMDFor resolves a civil day inside the annus to its lunisolar
// (year, month, day-of-month). The day is 1-based and at most 30.
// Returns ErrDateNotInYear when jdn lies outside the span; the caller
// should resolve such dates against the adjacent annus instead.
//
// The year is the Gregorian year label by the usual convention: months
// 11 and 12 belong to the year before the annus's own.
func (a *Annus) YMDFor(jdn int) (int, Month, int, error) {
	if jdn < a.Start() {
		return 0, Month{}, 0, fmt.Errorf("%w: %s is before the span beginning %s",
			ErrDateNotInYear, julian.Format(jdn), julian.Format(a.Start()))
	}
	if jdn >= a.End() {
		return 0, Month{}, 0, fmt.Errorf("%w: %s is past the span ending %s",
			ErrDateNotInYear, julian.Format(jdn), julian.Format(a.End()-1))
	}

	i := sort.Search(len(a.Months), func(i int) bool {
		return a.Months[i].Start > jdn
	}) - 1
	m := a.Months[i]
	day := jdn - m.Start + 1

	year := a.Year
	if m.Num >= 11 {
		year--
	}
	return year, m, day, nil
}
