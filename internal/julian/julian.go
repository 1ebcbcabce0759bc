// Package julian converts between proleptic Gregorian dates and Julian
// day numbers (JDN): a continuous integer day count independent of any
// calendar, used as the common time axis throughout the service.
package julian

import (
	"errors"
	"fmt"
)

// ErrInvalidDate is returned when a (year, month, day) triple does not
// exist in the proleptic Gregorian calendar.
var ErrInvalidDate = errors.New("invalid date")

// ToJDN converts a proleptic Gregorian date to its Julian day number.
//
// year is an astronomical year number: 1 BC is 0, 2 BC is -1, etc.
// Returns ErrInvalidDate if the day/month combination does not exist
// (February 30, April 31, ...) or the result falls before JDN 0.
func ToJDN(year, month, day int) (int, error) {
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("%w: month %d not in 1..12", ErrInvalidDate, month)
	}
	if day < 1 || day > daysInMonth(year, month) {
		return 0, fmt.Errorf("%w: %04d-%02d has no day %d", ErrInvalidDate, year, month, day)
	}

	y, m, d := year, month, day
	jdn := (1461*(y+4800+(m-14)/12))/4 +
		(367*(m-2-12*((m-14)/12)))/12 -
		(3*((y+4900+(m-14)/12)/100))/4 +
		d - 32075
	if jdn < 0 {
		return 0, fmt.Errorf("%w: %04d-%02d-%02d is before the supported range", ErrInvalidDate, year, month, day)
	}
	return jdn, nil
}

// FromJDN converts a Julian day number to its proleptic Gregorian date.
// Every non-negative integer JDN corresponds to a valid date.
func FromJDN(jdn int) (year, month, day int) {
	f := jdn + 1401 + (((4*jdn+274277)/146097)*3)/4 - 38
	e := 4*f + 3
	g := (e % 1461) / 4
	h := 5*g + 2
	day = (h%153)/5 + 1
	month = (h/153+2)%12 + 1
	year = e/1461 - 4716 + (12+2-month)/12
	return year, month, day
}

// Weekday returns the day of week for a JDN, 0=Sunday through 6=Saturday.
// JDN 2451545 (2000-01-01) is a Saturday.
func Weekday(jdn int) int {
	return (jdn + 1) % 7
}

// Format renders the Gregorian date of a JDN in ISO 8601 form.
func Format(jdn int) string {
	y, m, d := FromJDN(jdn)
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

// IsLeapYear reports whether a year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && year%100 != 0 || year%400 == 0
}

func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	default:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	}
}
