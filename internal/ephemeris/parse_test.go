package ephemeris

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// makeLine builds one synthetic ephemeris record: 25 solar terms spaced
// 15.2 days and 15 lunar months of 4 phases, new moons spaced 29.5 days.
// The spacings land inside the gap windows the table validator accepts.
func makeLine(year int, jd0 float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %.6f", year, jd0)
	for i := 0; i < lineTermCount; i++ {
		fmt.Fprintf(&b, " %.6f", float64(i)*15.2)
	}
	for m := 0; m < lineMonthCount; m++ {
		for p := 0; p < linePhaseCount; p++ {
			fmt.Fprintf(&b, " %.6f", float64(m)*29.5+float64(p)*7.4)
		}
	}
	return b.String()
}

const testHeader = "# synthetic ephemeris\n"

func TestParse_SingleRecord(t *testing.T) {
	input := testHeader + makeLine(2000, 2451520.5) + "\n"

	moons, terms, err := Parse(strings.NewReader(input), 0, 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	// One new moon per month block; only the 13 even-indexed terms
	// (the principal ones) are kept.
	if len(moons) != lineMonthCount {
		t.Errorf("got %d new moons, want %d", len(moons), lineMonthCount)
	}
	if len(terms) != 13 {
		t.Errorf("got %d solar terms, want 13", len(terms))
	}

	// Both ends of a record are winter solstices.
	if terms[0].Longitude != LongitudeWinterSolstice {
		t.Errorf("first term longitude = %d, want %d", terms[0].Longitude, LongitudeWinterSolstice)
	}
	if last := terms[len(terms)-1]; last.Longitude != LongitudeWinterSolstice {
		t.Errorf("last term longitude = %d, want %d", last.Longitude, LongitudeWinterSolstice)
	}
	// Principal terms step by 30 degrees.
	for i := 1; i < len(terms); i++ {
		want := (terms[i-1].Longitude + 30) % 360
		if terms[i].Longitude != want {
			t.Errorf("terms[%d].Longitude = %d, want %d", i, terms[i].Longitude, want)
		}
	}

	for i := 1; i < len(moons); i++ {
		if moons[i].JDN <= moons[i-1].JDN {
			t.Errorf("moons not sorted at %d: %d then %d", i, moons[i-1].JDN, moons[i].JDN)
		}
	}
}

func TestParse_BlankLinesSkipped(t *testing.T) {
	input := testHeader + "\n" + makeLine(2000, 2451520.5) + "\n\n"

	moons, _, err := Parse(strings.NewReader(input), 0, 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(moons) != lineMonthCount {
		t.Errorf("got %d new moons, want %d", len(moons), lineMonthCount)
	}
}

func TestParse_OverlappingRecordsDeduplicated(t *testing.T) {
	// Two records describing the same events; the event set must not
	// grow.
	input := testHeader +
		makeLine(2000, 2451520.5) + "\n" +
		makeLine(2001, 2451520.5) + "\n"

	moons, terms, err := Parse(strings.NewReader(input), 0, 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(moons) != lineMonthCount {
		t.Errorf("got %d new moons after overlap, want %d", len(moons), lineMonthCount)
	}
	if len(terms) != 13 {
		t.Errorf("got %d solar terms after overlap, want 13", len(terms))
	}
}

func TestParse_YearFilter(t *testing.T) {
	input := testHeader +
		makeLine(2000, 2451520.5) + "\n" +
		makeLine(2001, 2451885.5) + "\n"

	moons, _, err := Parse(strings.NewReader(input), 2000, 2000)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(moons) != lineMonthCount {
		t.Errorf("got %d new moons with filter, want %d", len(moons), lineMonthCount)
	}

	// A zero toYear disables filtering.
	moons, _, err = Parse(strings.NewReader(input), 0, 0)
	if err != nil {
		t.Fatalf("Parse unfiltered: %v", err)
	}
	if len(moons) <= lineMonthCount {
		t.Errorf("got %d new moons unfiltered, want more than %d", len(moons), lineMonthCount)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"truncated line", testHeader + "2000 2451520.5 1.0 2.0\n"},
		{"non-numeric year", testHeader + strings.Replace(makeLine(2000, 2451520.5), "2000", "MM", 1) + "\n"},
		{"non-numeric field", testHeader + strings.Replace(makeLine(2000, 2451520.5), "15.200000", "abc", 1) + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(strings.NewReader(tt.input), 0, 0)
			if !errors.Is(err, ErrMalformedTable) {
				t.Errorf("Parse error = %v, want ErrMalformedTable", err)
			}
		})
	}
}

func TestLoad_BuildsValidTable(t *testing.T) {
	input := testHeader + makeLine(2000, 2451520.5) + "\n"

	table, err := Load(strings.NewReader(input), 0, 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	first, last := table.Coverage()
	if first >= last {
		t.Errorf("coverage [%d, %d] is empty", first, last)
	}
}
