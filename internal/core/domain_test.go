package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2020-03-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Year() != 2020 || d.Month() != 3 || d.Day() != 31 {
		t.Fatalf("unexpected date: %v", d)
	}
	if _, err := ParseDate("31/03/2020"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	opt, err := ParseOptionalDate("  ")
	if err != nil || opt != nil {
		t.Fatalf("expected nil date for blank input, got %v (err=%v)", opt, err)
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2019, 6, 30))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2019-06-30"` {
		t.Fatalf("unexpected json %s", b)
	}
	var d Date
	if err := json.Unmarshal(b, &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !d.Equal(NewDate(2019, 6, 30).Time) {
		t.Fatalf("unexpected date %v", d)
	}
}

func TestProjectValidate(t *testing.T) {
	good := Project{Name: "Clinic upgrade", Sphere: Provincial, Province: "Gauteng"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Project{
		{Name: "", Sphere: National},
		{Name: "x", Sphere: "municipal"},
		{Name: "x", Sphere: Provincial},
	}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestSnapshotValidate(t *testing.T) {
	ok := Snapshot{FinancialYear: NewFinancialYear(2019), Quarter: 2}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for i, s := range []Snapshot{
		{Quarter: 1},
		{FinancialYear: NewFinancialYear(2019), Quarter: 0},
		{FinancialYear: NewFinancialYear(2019), Quarter: 5},
	} {
		if err := s.Validate(); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d expected ErrInvalidInput, got %v", i, err)
		}
	}
}
