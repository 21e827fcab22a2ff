package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FinancialYear is a government fiscal year identified by its starting
// calendar year. The 2019-20 financial year runs from April 2019 to March 2020.
type FinancialYear struct {
	StartYear int
}

// NewFinancialYear returns the financial year starting in the given calendar year.
func NewFinancialYear(startYear int) FinancialYear {
	return FinancialYear{StartYear: startYear}
}

// ParseFinancialYear parses a slug such as "2019-20". A bare starting year
// ("2019") is accepted as well.
func ParseFinancialYear(s string) (FinancialYear, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FinancialYear{}, ErrInvalidFinancialYear
	}
	head, tail, hasTail := strings.Cut(s, "-")
	start, err := strconv.Atoi(head)
	if err != nil || len(head) != 4 {
		return FinancialYear{}, fmt.Errorf("%w: %q", ErrInvalidFinancialYear, s)
	}
	if hasTail {
		end, err := strconv.Atoi(tail)
		if err != nil || len(tail) != 2 || end != (start+1)%100 {
			return FinancialYear{}, fmt.Errorf("%w: %q", ErrInvalidFinancialYear, s)
		}
	}
	return FinancialYear{StartYear: start}, nil
}

// Slug returns the display slug, e.g. "2019-20".
func (fy FinancialYear) Slug() string {
	return fmt.Sprintf("%d-%02d", fy.StartYear, (fy.StartYear+1)%100)
}

// String implements fmt.Stringer
func (fy FinancialYear) String() string {
	return fy.Slug()
}

// IsZero reports whether the financial year is unset.
func (fy FinancialYear) IsZero() bool {
	return fy.StartYear == 0
}

// QuarterEndDate returns the last day of the given quarter.
func (fy FinancialYear) QuarterEndDate(quarter int) (Date, error) {
	return QuarterEndDate(fy.StartYear, quarter)
}

func (fy FinancialYear) MarshalJSON() ([]byte, error) {
	return json.Marshal(fy.Slug())
}

func (fy *FinancialYear) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidFinancialYear, string(data))
	}
	parsed, err := ParseFinancialYear(s)
	if err != nil {
		return err
	}
	*fy = parsed
	return nil
}

// QuarterEndDate maps (financial year start, quarter) to the quarter's last
// calendar day. Quarters 1-3 fall in the starting year; quarter 4 ends on
// 31 March of the following year.
func QuarterEndDate(startYear, quarter int) (Date, error) {
	switch quarter {
	case 1:
		return NewDate(startYear, 6, 30), nil
	case 2:
		return NewDate(startYear, 9, 30), nil
	case 3:
		return NewDate(startYear, 12, 31), nil
	case 4:
		return NewDate(startYear+1, 3, 31), nil
	default:
		return Date{}, fmt.Errorf("%w: %d", ErrInvalidQuarter, quarter)
	}
}

// QuarterLabel returns the chart label for a quarter, e.g. "END Q2".
func QuarterLabel(quarter int) string {
	return "END Q" + strconv.Itoa(quarter)
}

// ValidQuarter reports whether n is a quarter number.
func ValidQuarter(n int) bool {
	return n >= 1 && n <= 4
}
