package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	National   Sphere = "national"
	Provincial Sphere = "provincial"
)

// DateLayout is the wire format for dates in JSON, CSV and storage.
const DateLayout = "2006-01-02"

type (
	// Sphere of government a project belongs to.
	Sphere string

	Date struct {
		time.Time
	}

	Project struct {
		ID         int64  `json:"id"`
		ExternalID string `json:"external_id"`
		Name       string `json:"name"`
		Sphere     Sphere `json:"sphere"`
		Department string `json:"department"`
		Sector     string `json:"sector"`
		Province   string `json:"province"`
	}

	// Snapshot is one project's reported figures as of a reporting quarter.
	Snapshot struct {
		FinancialYear FinancialYear `json:"financial_year"`
		Quarter       int           `json:"quarter"`
		Status        string        `json:"status"`

		EstimatedTotalProjectCost         decimal.NullDecimal `json:"estimated_total_project_cost"`
		ExpenditureFromPreviousYearsTotal decimal.NullDecimal `json:"expenditure_from_previous_years_total"`
		ActualExpenditureQ1               decimal.NullDecimal `json:"actual_expenditure_q1"`
		ActualExpenditureQ2               decimal.NullDecimal `json:"actual_expenditure_q2"`
		ActualExpenditureQ3               decimal.NullDecimal `json:"actual_expenditure_q3"`
		ActualExpenditureQ4               decimal.NullDecimal `json:"actual_expenditure_q4"`

		StartDate                      *Date `json:"start_date"`
		EstimatedConstructionStartDate *Date `json:"estimated_construction_start_date"`
		EstimatedCompletionDate        *Date `json:"estimated_completion_date"`
		ContractedConstructionEndDate  *Date `json:"contracted_construction_end_date"`
		EstimatedConstructionEndDate   *Date `json:"estimated_construction_end_date"`
	}

	// ProjectFilter narrows project listings. Zero values match everything.
	ProjectFilter struct {
		Sphere     Sphere
		Province   string
		Department string
		Query      string
		Limit      int
		Offset     int
	}
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrUnavailable          = errors.New("unavailable")
	ErrInvalidQuarter       = errors.New("invalid quarter")
	ErrInvalidFinancialYear = errors.New("invalid financial year")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidSphere        = errors.New("invalid sphere")
	ErrEmptyName            = errors.New("empty project name")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// ParseOptionalDate returns nil for a blank string.
func ParseOptionalDate(s string) (*Date, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(data))
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsValid returns true for the known spheres of government.
func (s Sphere) IsValid() bool {
	switch s {
	case National, Provincial:
		return true
	default:
		return false
	}
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if len(p.Name) > 500 {
		return errors.New("project name too long (max 500 characters)")
	}
	if !p.Sphere.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSphere, p.Sphere)
	}
	if p.Sphere == Provincial && strings.TrimSpace(p.Province) == "" {
		return errors.New("provincial project requires a province")
	}
	return nil
}

// Validate checks the quarter and financial-year linkage every snapshot needs.
func (s Snapshot) Validate() error {
	if s.FinancialYear.IsZero() {
		return fmt.Errorf("%w: snapshot has no financial year", ErrInvalidInput)
	}
	if !ValidQuarter(s.Quarter) {
		return fmt.Errorf("%w: %w: %d", ErrInvalidInput, ErrInvalidQuarter, s.Quarter)
	}
	return nil
}

// ActualExpenditure returns the reported actual expenditure for quarter q.
func (s Snapshot) ActualExpenditure(q int) decimal.NullDecimal {
	switch q {
	case 1:
		return s.ActualExpenditureQ1
	case 2:
		return s.ActualExpenditureQ2
	case 3:
		return s.ActualExpenditureQ3
	case 4:
		return s.ActualExpenditureQ4
	default:
		return decimal.NullDecimal{}
	}
}

// SetActualExpenditure sets the actual expenditure for quarter q; out of
// range quarters are ignored.
func (s *Snapshot) SetActualExpenditure(q int, v decimal.NullDecimal) {
	switch q {
	case 1:
		s.ActualExpenditureQ1 = v
	case 2:
		s.ActualExpenditureQ2 = v
	case 3:
		s.ActualExpenditureQ3 = v
	case 4:
		s.ActualExpenditureQ4 = v
	}
}
