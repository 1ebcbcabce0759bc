package ephemeris

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Raw ephemeris line layout: a header line, then one line per year with
//
//	year jd0 t0..t24 p0..p59
//
// where jd0 is a base TDB Julian date, t0..t24 are offsets from jd0 for
// the 25 solar terms from one winter solstice through the next (15
// degrees apart), and p0..p59 are offsets for 15 lunar months of 4
// phases each (new moon, first quarter, full moon, last quarter),
// starting at the last new moon before the opening solstice.
const (
	lineTermCount  = 25
	lineMonthCount = 15
	linePhaseCount = 4
	lineFieldCount = 2 + lineTermCount + lineMonthCount*linePhaseCount
)

// Parse reads the raw TDB ephemeris text and extracts the events the
// calendar needs: new moon instants and the 12 principal terms (the
// even-numbered entries of each line's term block). Instants are
// converted to their UTC+8 civil day.
//
// Years outside [fromYear, toYear] are skipped when toYear is nonzero.
// Adjacent year records overlap by design; duplicate events are folded.
func Parse(r io.Reader, fromYear, toYear int) ([]NewMoon, []SolarTerm, error) {
	moons := make(map[int]NewMoon)
	terms := make(map[int]SolarTerm)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if lineNum == 1 {
			// Header line.
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < lineFieldCount {
			return nil, nil, fmt.Errorf("%w: line %d has %d fields, want %d",
				ErrMalformedTable, lineNum, len(fields), lineFieldCount)
		}

		year, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: line %d field 1: %v", ErrMalformedTable, lineNum, err)
		}
		if toYear != 0 && (year < fromYear || year > toYear) {
			continue
		}

		jd0, err := parseField(fields, 1, lineNum)
		if err != nil {
			return nil, nil, err
		}

		for i := 0; i < lineTermCount; i++ {
			diff, err := parseField(fields, 2+i, lineNum)
			if err != nil {
				return nil, nil, err
			}
			if i%2 != 0 {
				// Minor term (jieqi); not used by the calendar.
				continue
			}
			tdb := jd0 + diff
			jdn := CivilJDN(tdb, CSTOffsetMinutes)
			terms[jdn] = SolarTerm{
				JDN:       jdn,
				TDB:       tdb,
				Longitude: (LongitudeWinterSolstice + 15*i) % 360,
			}
		}

		for i := 0; i < lineMonthCount; i++ {
			diff, err := parseField(fields, 2+lineTermCount+i*linePhaseCount, lineNum)
			if err != nil {
				return nil, nil, err
			}
			tdb := jd0 + diff
			jdn := CivilJDN(tdb, CSTOffsetMinutes)
			moons[jdn] = NewMoon{JDN: jdn, TDB: tdb}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read ephemeris data: %w", err)
	}

	return sortMoons(moons), sortTerms(terms), nil
}

// Load parses the raw ephemeris text and builds a validated Table.
func Load(r io.Reader, fromYear, toYear int) (*Table, error) {
	moons, terms, err := Parse(r, fromYear, toYear)
	if err != nil {
		return nil, err
	}
	return New(moons, terms)
}

func parseField(fields []string, idx, lineNum int) (float64, error) {
	v, err := strconv.ParseFloat(fields[idx], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d field %d: %v", ErrMalformedTable, lineNum, idx+1, err)
	}
	return v, nil
}

func sortMoons(m map[int]NewMoon) []NewMoon {
	out := make([]NewMoon, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JDN < out[j].JDN })
	return out
}

func sortTerms(m map[int]SolarTerm) []SolarTerm {
	out := make([]SolarTerm, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JDN < out[j].JDN })
	return out
}
