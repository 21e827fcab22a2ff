package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"vulekamali/internal/core"
)

// Column keys after header normalization.
const (
	ColExternalID                        = "external_id"
	ColName                              = "name"
	ColSphere                            = "sphere"
	ColDepartment                        = "department"
	ColSector                            = "sector"
	ColProvince                          = "province"
	ColFinancialYear                     = "financial_year"
	ColQuarter                           = "quarter"
	ColStatus                            = "status"
	ColEstimatedTotalProjectCost         = "estimated_total_project_cost"
	ColExpenditureFromPreviousYearsTotal = "expenditure_from_previous_years_total"
	ColStartDate                         = "start_date"
	ColEstimatedConstructionStartDate    = "estimated_construction_start_date"
	ColEstimatedCompletionDate           = "estimated_completion_date"
	ColContractedConstructionEndDate     = "contracted_construction_end_date"
	ColEstimatedConstructionEndDate      = "estimated_construction_end_date"
)

// ErrNoProjectID marks a row that cannot be matched to a project across
// quarters because its project id cell is blank.
var ErrNoProjectID = fmt.Errorf("%w: row has no project id", core.ErrInvalidInput)

// headerAliases maps headers seen in published workbooks to column keys.
var headerAliases = map[string]string{
	"project_id":     ColExternalID,
	"irm_project_id": ColExternalID,
	"id":             ColExternalID,
	"project_name":   ColName,
	"project_status": ColStatus,
	"fy":             ColFinancialYear,
}

// NormalizeHeader turns a header cell such as "Estimated Total Project Cost"
// into its column key.
func NormalizeHeader(h string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	key := strings.TrimSuffix(b.String(), "_")
	if alias, ok := headerAliases[key]; ok {
		return alias
	}
	return key
}

// ActualExpenditureColumn returns the column key for a quarter's actuals.
func ActualExpenditureColumn(q int) string {
	return "actual_expenditure_q" + strconv.Itoa(q)
}

// ParseQuarter accepts "2", "Q2" or "q2".
func ParseQuarter(s string) (int, error) {
	s = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "Q")
	n, err := strconv.Atoi(s)
	if err != nil || !core.ValidQuarter(n) {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidQuarter, s)
	}
	return n, nil
}

// ParseRow builds an import row from column-keyed cell values. Blank amounts
// and dates are null. A blank sphere is inferred from the province.
func ParseRow(fields map[string]string) (ImportRow, error) {
	get := func(key string) string { return strings.TrimSpace(fields[key]) }

	p := core.Project{
		ExternalID: get(ColExternalID),
		Name:       get(ColName),
		Sphere:     core.Sphere(strings.ToLower(get(ColSphere))),
		Department: get(ColDepartment),
		Sector:     get(ColSector),
		Province:   get(ColProvince),
	}
	if p.ExternalID == "" {
		return ImportRow{}, ErrNoProjectID
	}
	if p.Sphere == "" {
		p.Sphere = core.National
		if p.Province != "" {
			p.Sphere = core.Provincial
		}
	}
	if err := p.Validate(); err != nil {
		return ImportRow{}, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}

	fy, err := core.ParseFinancialYear(get(ColFinancialYear))
	if err != nil {
		return ImportRow{}, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}
	q, err := ParseQuarter(get(ColQuarter))
	if err != nil {
		return ImportRow{}, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}

	s := core.Snapshot{
		FinancialYear: fy,
		Quarter:       q,
		Status:        get(ColStatus),
	}

	amounts := []struct {
		key string
		dst *decimal.NullDecimal
	}{
		{ColEstimatedTotalProjectCost, &s.EstimatedTotalProjectCost},
		{ColExpenditureFromPreviousYearsTotal, &s.ExpenditureFromPreviousYearsTotal},
		{ActualExpenditureColumn(1), &s.ActualExpenditureQ1},
		{ActualExpenditureColumn(2), &s.ActualExpenditureQ2},
		{ActualExpenditureColumn(3), &s.ActualExpenditureQ3},
		{ActualExpenditureColumn(4), &s.ActualExpenditureQ4},
	}
	for _, a := range amounts {
		v, err := core.ParseAmount(get(a.key))
		if err != nil {
			return ImportRow{}, fmt.Errorf("%w: %s: %w", core.ErrInvalidInput, a.key, err)
		}
		*a.dst = v
	}

	dates := []struct {
		key string
		dst **core.Date
	}{
		{ColStartDate, &s.StartDate},
		{ColEstimatedConstructionStartDate, &s.EstimatedConstructionStartDate},
		{ColEstimatedCompletionDate, &s.EstimatedCompletionDate},
		{ColContractedConstructionEndDate, &s.ContractedConstructionEndDate},
		{ColEstimatedConstructionEndDate, &s.EstimatedConstructionEndDate},
	}
	for _, d := range dates {
		v, err := core.ParseOptionalDate(get(d.key))
		if err != nil {
			return ImportRow{}, fmt.Errorf("%w: %s: %w", core.ErrInvalidInput, d.key, err)
		}
		*d.dst = v
	}

	return ImportRow{Project: p, Snapshot: s}, nil
}

// Fields renders a snapshot back into column-keyed values, the inverse of
// ParseRow. Used for CSV export.
func Fields(p core.Project, s core.Snapshot) map[string]string {
	out := map[string]string{
		ColExternalID:                        p.ExternalID,
		ColName:                              p.Name,
		ColSphere:                            string(p.Sphere),
		ColDepartment:                        p.Department,
		ColSector:                            p.Sector,
		ColProvince:                          p.Province,
		ColFinancialYear:                     s.FinancialYear.Slug(),
		ColQuarter:                           strconv.Itoa(s.Quarter),
		ColStatus:                            s.Status,
		ColEstimatedTotalProjectCost:         core.NullString(s.EstimatedTotalProjectCost),
		ColExpenditureFromPreviousYearsTotal: core.NullString(s.ExpenditureFromPreviousYearsTotal),
		ColStartDate:                         dateString(s.StartDate),
		ColEstimatedConstructionStartDate:    dateString(s.EstimatedConstructionStartDate),
		ColEstimatedCompletionDate:           dateString(s.EstimatedCompletionDate),
		ColContractedConstructionEndDate:     dateString(s.ContractedConstructionEndDate),
		ColEstimatedConstructionEndDate:      dateString(s.EstimatedConstructionEndDate),
	}
	for q := 1; q <= 4; q++ {
		out[ActualExpenditureColumn(q)] = core.NullString(s.ActualExpenditure(q))
	}
	return out
}

// SnapshotColumns is the column order used when writing snapshot rows.
var SnapshotColumns = []string{
	ColExternalID, ColName, ColSphere, ColDepartment, ColSector, ColProvince,
	ColFinancialYear, ColQuarter, ColStatus,
	ColEstimatedTotalProjectCost, ColExpenditureFromPreviousYearsTotal,
	"actual_expenditure_q1", "actual_expenditure_q2", "actual_expenditure_q3", "actual_expenditure_q4",
	ColStartDate, ColEstimatedConstructionStartDate, ColEstimatedCompletionDate,
	ColContractedConstructionEndDate, ColEstimatedConstructionEndDate,
}

func dateString(d *core.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
