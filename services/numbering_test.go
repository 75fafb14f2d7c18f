package services

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"
)

func TestParseLetterNumber(t *testing.T) {
	cases := []struct {
		input string
		want  *NumberParts
	}{
		{"45/UN7.F5/KM/2026", &NumberParts{Sequence: 45, UnitCode: "UN7.F5", Category: "KM", Year: 2026}},
		{"45/UN7.F5/KM/VIII/2026", &NumberParts{Sequence: 45, UnitCode: "UN7.F5", Category: "KM", MonthRoman: "VIII", Year: 2026}},
		{"1/UN7/SK/I/2025", &NumberParts{Sequence: 1, UnitCode: "UN7", Category: "SK", MonthRoman: "I", Year: 2025}},
		{"  45/UN7.F5/KM/2026  ", &NumberParts{Sequence: 45, UnitCode: "UN7.F5", Category: "KM", Year: 2026}},
		{"", nil},
		{"abc", nil},
		{"0/UN7.F5/KM/2026", nil},       // sequence must be positive
		{"45/un7.f5/KM/2026", nil},      // lowercase unit code
		{"45/UN7.F5/KM/XIII/2026", nil}, // no thirteenth month
		{"45/UN7.F5/KM/VIII/26", nil},   // two-digit year
		{"45/UN7.F5/2026", nil},         // missing category
		{"45/UN7.F5/KM/VIII/2026/X", nil},
	}

	for _, tc := range cases {
		got, err := ParseLetterNumber(tc.input)
		if tc.want == nil {
			if !errors.Is(err, ErrInvalidNumberFormat) {
				t.Fatalf("ParseLetterNumber(%q): expected ErrInvalidNumberFormat, got %v", tc.input, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseLetterNumber(%q): unexpected error %v", tc.input, err)
		}
		if *got != *tc.want {
			t.Fatalf("ParseLetterNumber(%q) = %+v, want %+v", tc.input, got, tc.want)
		}
	}
}

func TestFormatLetterNumberRoundTrip(t *testing.T) {
	for _, number := range []string{
		"45/UN7.F5/KM/2026",
		"45/UN7.F5/KM/VIII/2026",
		"7/UN7/SK/XII/2024",
	} {
		parts, err := ParseLetterNumber(number)
		if err != nil {
			t.Fatalf("ParseLetterNumber(%q): %v", number, err)
		}
		if got := FormatLetterNumber(parts); got != number {
			t.Fatalf("FormatLetterNumber = %q, want %q", got, number)
		}
	}
}

func TestFinalizeNumberConflict(t *testing.T) {
	// The active registry row is held by another letter: finalize must fail
	// rather than double-issue the number.
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .letter_numbers. WHERE letter_number = \\?"),
			args:    []driver.Value{"45/UN7.F5/KM/2026", int64(1)},
			columns: []string{"letter_number", "letter_id", "sequence", "unit_code", "category", "year"},
			rows:    [][]driver.Value{{"45/UN7.F5/KM/2026", int64(33), int64(45), "UN7.F5", "KM", int64(2026)}},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	_, err := finalizeNumber(gormDB, 9, "45/UN7.F5/KM/2026", time.Now())
	if !errors.Is(err, ErrNumberConflict) {
		t.Fatalf("expected ErrNumberConflict, got %v", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestFinalizeNumberSameLetterIsIdempotent(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .letter_numbers. WHERE letter_number = \\?"),
			args:    []driver.Value{"45/UN7.F5/KM/2026", int64(1)},
			columns: []string{"letter_number", "letter_id", "sequence", "unit_code", "category", "year"},
			rows:    [][]driver.Value{{"45/UN7.F5/KM/2026", int64(9), int64(45), "UN7.F5", "KM", int64(2026)}},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	committed, err := finalizeNumber(gormDB, 9, "45/UN7.F5/KM/2026", time.Now())
	if err != nil {
		t.Fatalf("finalizeNumber: %v", err)
	}
	if committed != "45/UN7.F5/KM/2026" {
		t.Fatalf("committed = %q", committed)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestFinalizeNumberReactivatesSupersededRow(t *testing.T) {
	// A number amended away keeps its registry row with superseded_at set.
	// Binding that number again must reactivate the row, not fail on the
	// primary key.
	supersededAt := time.Date(2026, time.June, 2, 9, 0, 0, 0, time.UTC)
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .letter_numbers. WHERE letter_number = \\?"),
			args:    []driver.Value{"45/UN7.F5/KM/2026", int64(1)},
			columns: []string{"letter_number", "letter_id", "sequence", "unit_code", "category", "year", "superseded_at"},
			rows:    [][]driver.Value{{"45/UN7.F5/KM/2026", int64(33), int64(45), "UN7.F5", "KM", int64(2026), supersededAt}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE .letter_numbers. SET .* WHERE letter_number = \\? AND superseded_at IS NOT NULL"),
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	committed, err := finalizeNumber(gormDB, 9, "45/UN7.F5/KM/2026", time.Now())
	if err != nil {
		t.Fatalf("finalizeNumber on superseded row: %v", err)
	}
	if committed != "45/UN7.F5/KM/2026" {
		t.Fatalf("committed = %q", committed)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestFinalizeNumberRejectsBadFormat(t *testing.T) {
	if _, err := finalizeNumber(nil, 9, "not-a-number", time.Now()); !errors.Is(err, ErrInvalidNumberFormat) {
		t.Fatalf("expected ErrInvalidNumberFormat, got %v", err)
	}
}
