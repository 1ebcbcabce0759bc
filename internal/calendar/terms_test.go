package calendar

import (
	"errors"
	"testing"

	"github.com/kaiwenliang/nongli-api/internal/ephemeris"
)

func TestCurrentTerm(t *testing.T) {
	table := table2000s(t)

	// 2000-01-01 falls under the 1999-12-22 winter solstice.
	term, name, err := CurrentTerm(table, 2451545)
	if err != nil {
		t.Fatalf("CurrentTerm(2451545): %v", err)
	}
	if term.JDN != 2451535 || name != "冬至" {
		t.Errorf("CurrentTerm(2451545) = (%d, %q), want (2451535, 冬至)", term.JDN, name)
	}

	// On a crossing day the new term takes effect.
	term, name, err = CurrentTerm(table, 2451565)
	if err != nil {
		t.Fatalf("CurrentTerm(2451565): %v", err)
	}
	if term.JDN != 2451565 || name != "大寒" {
		t.Errorf("CurrentTerm(2451565) = (%d, %q), want (2451565, 大寒)", term.JDN, name)
	}

	// Before the first recorded term.
	if _, _, err := CurrentTerm(table, 2451530); !errors.Is(err, ephemeris.ErrOutOfRange) {
		t.Errorf("CurrentTerm(2451530) error = %v, want ErrOutOfRange", err)
	}
}
