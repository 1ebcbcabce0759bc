package calendar

import (
	"github.com/kaiwenliang/nongli-api/internal/ephemeris"
)

// CurrentTerm returns the principal term in effect on a civil day: the
// most recent principal term at or before it, with its traditional
// name. Returns ephemeris.ErrOutOfRange before the first recorded term.
func CurrentTerm(table *ephemeris.Table, jdn int) (ephemeris.SolarTerm, string, error) {
	term, err := table.TermOnOrBefore(jdn)
	if err != nil {
		return ephemeris.SolarTerm{}, "", err
	}
	return term, TermName(term.Longitude), nil
}
