// Package charts builds the per-project quarterly expenditure series shown on
// project pages and served by the chart API.
package charts

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"vulekamali/internal/core"
)

// quarterKey identifies one (financial year, quarter) slot in the series.
type quarterKey struct {
	financialYear string
	quarter       int
}

// TimeSeries turns a project's snapshots into chart data points and milestone
// events. Snapshots must be ordered by (financial year, quarter); the last one
// is treated as the most recent report.
//
// Each snapshot produces a point for its own quarter carrying cost and status,
// and recomputes the spend figures for every earlier quarter of the same
// financial year from its own actuals. Quarters that no snapshot reported on
// directly appear as placeholders with null cost and status. A blank status is
// reported as null.
func TimeSeries(snapshots []core.Snapshot) (core.ChartData, error) {
	if len(snapshots) == 0 {
		return core.ChartData{}, fmt.Errorf("%w: no snapshots", core.ErrInvalidInput)
	}

	points := make(map[quarterKey]*core.ChartDataPoint)
	var order []quarterKey

	for i, s := range snapshots {
		if err := s.Validate(); err != nil {
			return core.ChartData{}, fmt.Errorf("snapshot %d: %w", i, err)
		}
		for q := 1; q <= s.Quarter; q++ {
			key := quarterKey{financialYear: s.FinancialYear.Slug(), quarter: q}
			p, ok := points[key]
			if !ok {
				np, err := newPoint(s.FinancialYear, q)
				if err != nil {
					return core.ChartData{}, fmt.Errorf("snapshot %d: %w", i, err)
				}
				p = &np
				points[key] = p
				order = append(order, key)
			}
			p.TotalSpentToDate = SpentToDate(s, q)
			p.TotalSpentInQuarter = s.ActualExpenditure(q)
			if q == s.Quarter {
				p.TotalEstimatedProjectCost = s.EstimatedTotalProjectCost
				p.Status = nil
				if s.Status != "" {
					status := s.Status
					p.Status = &status
				}
			}
		}
	}

	dataPoints := make([]core.ChartDataPoint, 0, len(order))
	for _, key := range order {
		dataPoints = append(dataPoints, *points[key])
	}
	sort.SliceStable(dataPoints, func(i, j int) bool {
		return dataPoints[i].Date.Before(dataPoints[j].Date.Time)
	})

	return core.ChartData{
		DataPoints: dataPoints,
		Events:     Events(snapshots[len(snapshots)-1]),
	}, nil
}

// SpentToDate is the cumulative spend at the end of quarter q as reported by
// s: the prior-years total plus actuals for quarters 1..q. A null anywhere in
// that sum makes the result null.
func SpentToDate(s core.Snapshot, q int) decimal.NullDecimal {
	if !s.ExpenditureFromPreviousYearsTotal.Valid {
		return decimal.NullDecimal{}
	}
	total := s.ExpenditureFromPreviousYearsTotal.Decimal
	for i := 1; i <= q; i++ {
		actual := s.ActualExpenditure(i)
		if !actual.Valid {
			return decimal.NullDecimal{}
		}
		total = total.Add(actual.Decimal)
	}
	return decimal.NewNullDecimal(total)
}

// Events lists the milestone dates set on a snapshot in chart order.
func Events(s core.Snapshot) []core.Event {
	milestones := []struct {
		date *core.Date
		kind string
	}{
		{s.StartDate, core.EventStart},
		{s.EstimatedConstructionStartDate, core.EventEstimatedConstructionStart},
		{s.EstimatedCompletionDate, core.EventEstimatedCompletion},
		{s.ContractedConstructionEndDate, core.EventContractedConstructionEnd},
		{s.EstimatedConstructionEndDate, core.EventEstimatedConstructionEnd},
	}
	events := make([]core.Event, 0, len(milestones))
	for _, m := range milestones {
		if m.date == nil || m.date.IsZero() {
			continue
		}
		events = append(events, core.Event{Date: *m.date, Type: m.kind})
	}
	return events
}

func newPoint(fy core.FinancialYear, q int) (core.ChartDataPoint, error) {
	date, err := fy.QuarterEndDate(q)
	if err != nil {
		return core.ChartDataPoint{}, errors.Join(core.ErrInvalidInput, err)
	}
	p := core.ChartDataPoint{
		Date:         date,
		QuarterLabel: core.QuarterLabel(q),
	}
	if q == 1 {
		p.FinancialYearLabel = fy.Slug()
	}
	return p, nil
}
