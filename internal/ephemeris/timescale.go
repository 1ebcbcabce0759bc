package ephemeris

import (
	"math"
	"sort"
	"sync"

	"github.com/kaiwenliang/nongli-api/internal/julian"
)

// Ephemeris instants are published in barycentric dynamical time (TDB).
// Determining which civil day an instant falls on requires converting to
// universal time: UTC while the leap second table applies, UT1
// extrapolated with a long-term Delta-T model outside it. TT differs
// from TDB by under two milliseconds over the covered centuries, so the
// two are treated as numerically equal here.

// CSTOffsetMinutes is the UTC offset of Chinese Standard Time (UTC+8),
// the timezone the Chinese calendar is defined in.
const CSTOffsetMinutes = 480

const (
	ttMinusTAISeconds = 32.184
	secondsPerDay     = 86400.0
)

// leapSecondDates lists the UTC days that ended with a positive leap
// second, per IERS Bulletin C.
var leapSecondDates = [][3]int{
	{1972, 6, 30},
	{1972, 12, 31},
	{1973, 12, 31},
	{1974, 12, 31},
	{1975, 12, 31},
	{1976, 12, 31},
	{1977, 12, 31},
	{1978, 12, 31},
	{1979, 12, 31},
	{1981, 6, 30},
	{1982, 6, 30},
	{1983, 6, 30},
	{1985, 6, 30},
	{1987, 12, 31},
	{1989, 12, 31},
	{1990, 12, 31},
	{1992, 6, 30},
	{1993, 6, 30},
	{1994, 6, 30},
	{1995, 12, 31},
	{1997, 6, 30},
	{1998, 12, 31},
	{2005, 12, 31},
	{2008, 12, 31},
	{2012, 6, 30},
	{2015, 6, 30},
	{2016, 12, 31},
}

// leapExpiryDate is the last day the table above is known good for.
var leapExpiryDate = [3]int{2021, 12, 31}

type leapSecond struct {
	tai   float64 // TAI Julian date of the insertion
	delta int     // TAI-UTC seconds in effect before the insertion
}

var (
	leapOnce  sync.Once
	leapTable []leapSecond
	leapStart float64 // TAI JD where the UTC era begins (1972-01-01)
	leapEnd   float64 // TAI JD where the table expires
	leapC2    float64 // continuity offset anchoring the Delta-T model
)

func initLeapTable() {
	mustJDN := func(d [3]int) int {
		jdn, err := julian.ToJDN(d[0], d[1], d[2])
		if err != nil {
			panic("ephemeris: bad leap second date: " + err.Error())
		}
		return jdn
	}

	leapStart = float64(mustJDN([3]int{1972, 1, 1})) + 10.0/secondsPerDay
	leapTable = make([]leapSecond, 0, len(leapSecondDates))
	for i, d := range leapSecondDates {
		delta := 10 + i
		leapTable = append(leapTable, leapSecond{
			tai:   float64(mustJDN(d)) + float64(43199+delta)/secondsPerDay,
			delta: delta,
		})
	}
	leapEnd = float64(mustJDN(leapExpiryDate)) + float64(43199+10+len(leapSecondDates))/secondsPerDay
	leapC2 = float64(len(leapSecondDates)+10) - deltaTEstimate(leapEnd+ttMinusTAISeconds/secondsPerDay)
}

// tdbToUT converts a TDB Julian date to universal time.
func tdbToUT(tdb float64) float64 {
	leapOnce.Do(initLeapTable)

	tai := tdb - ttMinusTAISeconds/secondsPerDay
	if tai < leapStart || tai > leapEnd {
		// Outside the UTC era the offset comes from the long-term
		// Delta-T model, anchored for continuity at the table's end.
		// The result is UT1 rather than UTC.
		diff := deltaTEstimate(tai+ttMinusTAISeconds/secondsPerDay) + leapC2
		return tai - diff/secondsPerDay
	}

	i := sort.Search(len(leapTable), func(i int) bool {
		return leapTable[i].tai > tai
	})
	if i == 0 {
		return tai - 10.0/secondsPerDay
	}
	ls := leapTable[i-1]
	leap := math.Min(tai-ls.tai, 2.0) / 2.0
	return tai - (float64(ls.delta)+leap)/secondsPerDay
}

// deltaTEstimate is the long-term TT-UT1 model published by the HM
// Nautical Almanac Office (https://astro.ukho.gov.uk/nao/lvm/), in
// seconds, for a TT Julian date.
func deltaTEstimate(tt float64) float64 {
	y := (tt-2451544.5)/365.2425 + 2000.0
	t := (y - 1825.0) / 100.0
	return 31.4115*t*t + 284.8435805251424*math.Cos(2.0*math.Pi*(t+0.75)/14.0)
}

// CivilJDN returns the civil day, as a Julian day number, containing a
// TDB instant in a timezone tzOffsetMinutes east of UTC. Pass
// CSTOffsetMinutes for Beijing time.
func CivilJDN(tdb float64, tzOffsetMinutes int) int {
	ut := tdbToUT(tdb)
	return int(math.Round(ut + float64(tzOffsetMinutes)/1440.0))
}
