package charts

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vulekamali/internal/core"
)

func amount(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func date(y, m, d int) *core.Date {
	v := core.NewDate(y, m, d)
	return &v
}

func assertAmount(t *testing.T, want string, got decimal.NullDecimal, msgAndArgs ...any) {
	t.Helper()
	require.True(t, got.Valid, msgAndArgs...)
	assert.Truef(t, got.Decimal.Equal(decimal.RequireFromString(want)),
		"want %s, got %s %v", want, got.Decimal, msgAndArgs)
}

func TestTimeSeries_EmptyInput(t *testing.T) {
	_, err := TimeSeries(nil)
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestTimeSeries_InvalidSnapshot(t *testing.T) {
	tests := []struct {
		name string
		snap core.Snapshot
	}{
		{"missing financial year", core.Snapshot{Quarter: 2}},
		{"quarter zero", core.Snapshot{FinancialYear: core.NewFinancialYear(2019), Quarter: 0}},
		{"quarter five", core.Snapshot{FinancialYear: core.NewFinancialYear(2019), Quarter: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			good := core.Snapshot{FinancialYear: core.NewFinancialYear(2019), Quarter: 1}
			_, err := TimeSeries([]core.Snapshot{good, tt.snap})
			require.ErrorIs(t, err, core.ErrInvalidInput)
			assert.Contains(t, err.Error(), "snapshot 1")
		})
	}
}

func TestTimeSeries_SingleQ4SnapshotWithDates(t *testing.T) {
	snap := core.Snapshot{
		FinancialYear:                  core.NewFinancialYear(2019),
		Quarter:                        4,
		Status:                         "Construction",
		EstimatedTotalProjectCost:      amount("1000"),
		StartDate:                      date(2018, 1, 1),
		EstimatedConstructionStartDate: date(2018, 6, 1),
		EstimatedCompletionDate:        date(2021, 3, 31),
		ContractedConstructionEndDate:  date(2020, 12, 31),
		EstimatedConstructionEndDate:   date(2021, 1, 31),
	}

	got, err := TimeSeries([]core.Snapshot{snap})
	require.NoError(t, err)
	require.Len(t, got.DataPoints, 4)

	wantDates := []string{"2019-06-30", "2019-09-30", "2019-12-31", "2020-03-31"}
	for i, p := range got.DataPoints {
		assert.Equal(t, wantDates[i], p.Date.String())
		assert.Equal(t, fmt.Sprintf("END Q%d", i+1), p.QuarterLabel)
	}
	assert.Equal(t, "2019-20", got.DataPoints[0].FinancialYearLabel)
	for _, p := range got.DataPoints[1:] {
		assert.Empty(t, p.FinancialYearLabel)
	}

	q4 := got.DataPoints[3]
	require.NotNil(t, q4.Status)
	assert.Equal(t, "Construction", *q4.Status)
	assertAmount(t, "1000", q4.TotalEstimatedProjectCost)
	for _, p := range got.DataPoints[:3] {
		assert.Nil(t, p.Status)
		assert.False(t, p.TotalEstimatedProjectCost.Valid)
	}

	require.Len(t, got.Events, 5)
	assert.Equal(t, []string{
		core.EventStart,
		core.EventEstimatedConstructionStart,
		core.EventEstimatedCompletion,
		core.EventContractedConstructionEnd,
		core.EventEstimatedConstructionEnd,
	}, []string{got.Events[0].Type, got.Events[1].Type, got.Events[2].Type, got.Events[3].Type, got.Events[4].Type})
	assert.Equal(t, "2021-03-31", got.Events[2].Date.String())
}

func TestTimeSeries_LaterSnapshotRevisesEarlierQuarter(t *testing.T) {
	q1 := core.Snapshot{
		FinancialYear:                     core.NewFinancialYear(2019),
		Quarter:                           1,
		ExpenditureFromPreviousYearsTotal: amount("200"),
		ActualExpenditureQ1:               amount("10"),
	}

	got, err := TimeSeries([]core.Snapshot{q1})
	require.NoError(t, err)
	require.Len(t, got.DataPoints, 1)
	assertAmount(t, "210", got.DataPoints[0].TotalSpentToDate)

	q2 := core.Snapshot{
		FinancialYear:                     core.NewFinancialYear(2019),
		Quarter:                           2,
		ExpenditureFromPreviousYearsTotal: amount("200"),
		ActualExpenditureQ1:               amount("11"),
		ActualExpenditureQ2:               amount("20"),
	}

	got, err = TimeSeries([]core.Snapshot{q1, q2})
	require.NoError(t, err)
	require.Len(t, got.DataPoints, 2)
	assertAmount(t, "211", got.DataPoints[0].TotalSpentToDate, "Q1")
	assertAmount(t, "11", got.DataPoints[0].TotalSpentInQuarter, "Q1")
	assertAmount(t, "231", got.DataPoints[1].TotalSpentToDate, "Q2")
	assertAmount(t, "20", got.DataPoints[1].TotalSpentInQuarter, "Q2")
}

func TestTimeSeries_NullActualPoisonsCumulativeFromThatQuarter(t *testing.T) {
	snap := core.Snapshot{
		FinancialYear:                     core.NewFinancialYear(2019),
		Quarter:                           3,
		ExpenditureFromPreviousYearsTotal: amount("100"),
		ActualExpenditureQ1:               amount("5"),
		ActualExpenditureQ3:               amount("7"),
	}

	got, err := TimeSeries([]core.Snapshot{snap})
	require.NoError(t, err)
	require.Len(t, got.DataPoints, 3)

	assertAmount(t, "105", got.DataPoints[0].TotalSpentToDate, "Q1")
	assert.False(t, got.DataPoints[1].TotalSpentToDate.Valid, "Q2 cumulative")
	assert.False(t, got.DataPoints[2].TotalSpentToDate.Valid, "Q3 cumulative")

	assert.False(t, got.DataPoints[1].TotalSpentInQuarter.Valid, "Q2 in quarter")
	assertAmount(t, "7", got.DataPoints[2].TotalSpentInQuarter, "Q3 in quarter")
}

func TestTimeSeries_NullPreviousYearsTotal(t *testing.T) {
	snap := core.Snapshot{
		FinancialYear:       core.NewFinancialYear(2019),
		Quarter:             2,
		ActualExpenditureQ1: amount("5"),
		ActualExpenditureQ2: amount("6"),
	}
	got, err := TimeSeries([]core.Snapshot{snap})
	require.NoError(t, err)
	for _, p := range got.DataPoints {
		assert.False(t, p.TotalSpentToDate.Valid)
		assert.True(t, p.TotalSpentInQuarter.Valid)
	}
}

func TestTimeSeries_PlaceholdersForUnreportedQuarters(t *testing.T) {
	snap := core.Snapshot{FinancialYear: core.NewFinancialYear(2020), Quarter: 2}

	got, err := TimeSeries([]core.Snapshot{snap})
	require.NoError(t, err)
	require.Len(t, got.DataPoints, 2)

	q1, q2 := got.DataPoints[0], got.DataPoints[1]
	assert.Equal(t, "2020-06-30", q1.Date.String())
	assert.Equal(t, "END Q1", q1.QuarterLabel)
	assert.Equal(t, "2020-21", q1.FinancialYearLabel)
	assert.Nil(t, q1.Status)
	assert.False(t, q1.TotalEstimatedProjectCost.Valid)

	assert.Equal(t, "2020-09-30", q2.Date.String())
	assert.Equal(t, "END Q2", q2.QuarterLabel)
	assert.Empty(t, q2.FinancialYearLabel)
	assert.Nil(t, q2.Status)
	assert.False(t, q2.TotalEstimatedProjectCost.Valid)
	assert.Empty(t, got.Events)
}

func TestTimeSeries_CostAndStatusStayWithOwnQuarter(t *testing.T) {
	snaps := []core.Snapshot{
		{FinancialYear: core.NewFinancialYear(2019), Quarter: 1, Status: "Design", EstimatedTotalProjectCost: amount("100")},
		{FinancialYear: core.NewFinancialYear(2019), Quarter: 3, Status: "Construction", EstimatedTotalProjectCost: amount("150")},
	}
	got, err := TimeSeries(snaps)
	require.NoError(t, err)
	require.Len(t, got.DataPoints, 3)

	require.NotNil(t, got.DataPoints[0].Status)
	assert.Equal(t, "Design", *got.DataPoints[0].Status)
	assertAmount(t, "100", got.DataPoints[0].TotalEstimatedProjectCost)

	assert.Nil(t, got.DataPoints[1].Status, "Q2 is a placeholder")
	assert.False(t, got.DataPoints[1].TotalEstimatedProjectCost.Valid)

	require.NotNil(t, got.DataPoints[2].Status)
	assert.Equal(t, "Construction", *got.DataPoints[2].Status)
}

func TestTimeSeries_RepeatedQuarterTakesLatestReport(t *testing.T) {
	snaps := []core.Snapshot{
		{FinancialYear: core.NewFinancialYear(2019), Quarter: 1, Status: "Design", EstimatedTotalProjectCost: amount("100")},
		{FinancialYear: core.NewFinancialYear(2019), Quarter: 1, Status: "Tender", EstimatedTotalProjectCost: amount("120")},
	}
	got, err := TimeSeries(snaps)
	require.NoError(t, err)
	require.Len(t, got.DataPoints, 1)
	assert.Equal(t, "Tender", *got.DataPoints[0].Status)
	assertAmount(t, "120", got.DataPoints[0].TotalEstimatedProjectCost)
}

func TestTimeSeries_DoesNotReviseAcrossFinancialYears(t *testing.T) {
	snaps := []core.Snapshot{
		{
			FinancialYear:                     core.NewFinancialYear(2019),
			Quarter:                           4,
			ExpenditureFromPreviousYearsTotal: amount("0"),
			ActualExpenditureQ1:               amount("1"),
			ActualExpenditureQ2:               amount("1"),
			ActualExpenditureQ3:               amount("1"),
			ActualExpenditureQ4:               amount("1"),
		},
		{
			FinancialYear:                     core.NewFinancialYear(2020),
			Quarter:                           1,
			ExpenditureFromPreviousYearsTotal: amount("10"),
			ActualExpenditureQ1:               amount("2"),
		},
	}
	got, err := TimeSeries(snaps)
	require.NoError(t, err)
	require.Len(t, got.DataPoints, 5)
	assertAmount(t, "4", got.DataPoints[3].TotalSpentToDate, "2019-20 Q4 untouched")
	assertAmount(t, "12", got.DataPoints[4].TotalSpentToDate, "2020-21 Q1")
	assert.Equal(t, "2020-21", got.DataPoints[4].FinancialYearLabel)
}

func TestTimeSeries_EventsComeFromLastSnapshotOnly(t *testing.T) {
	snaps := []core.Snapshot{
		{FinancialYear: core.NewFinancialYear(2019), Quarter: 1, StartDate: date(2018, 4, 1)},
		{FinancialYear: core.NewFinancialYear(2019), Quarter: 2, EstimatedCompletionDate: date(2022, 1, 1)},
	}
	got, err := TimeSeries(snaps)
	require.NoError(t, err)
	require.Len(t, got.Events, 1)
	assert.Equal(t, core.EventEstimatedCompletion, got.Events[0].Type)
	assert.Equal(t, "2022-01-01", got.Events[0].Date.String())
}

func sampleHistory() []core.Snapshot {
	return []core.Snapshot{
		{
			FinancialYear:                     core.NewFinancialYear(2018),
			Quarter:                           3,
			Status:                            "Design",
			EstimatedTotalProjectCost:         amount("5000000.00"),
			ExpenditureFromPreviousYearsTotal: amount("1200.50"),
			ActualExpenditureQ1:               amount("100.25"),
			ActualExpenditureQ2:               amount("300"),
			ActualExpenditureQ3:               amount("0.10"),
		},
		{
			FinancialYear:                     core.NewFinancialYear(2019),
			Quarter:                           2,
			Status:                            "Construction",
			EstimatedTotalProjectCost:         amount("5100000"),
			ExpenditureFromPreviousYearsTotal: amount("1900"),
			ActualExpenditureQ1:               amount("50"),
			StartDate:                         date(2018, 4, 1),
		},
		{
			FinancialYear:                     core.NewFinancialYear(2019),
			Quarter:                           4,
			Status:                            "Construction",
			EstimatedTotalProjectCost:         amount("5100000"),
			ExpenditureFromPreviousYearsTotal: amount("1900"),
			ActualExpenditureQ1:               amount("55"),
			ActualExpenditureQ2:               amount("60"),
			ActualExpenditureQ3:               amount("70"),
			ActualExpenditureQ4:               amount("80"),
			EstimatedCompletionDate:           date(2021, 6, 30),
		},
	}
}

func TestTimeSeries_PointCountMatchesDistinctQuarters(t *testing.T) {
	snaps := sampleHistory()
	seen := map[string]bool{}
	for _, s := range snaps {
		for q := 1; q <= s.Quarter; q++ {
			seen[fmt.Sprintf("%s/%d", s.FinancialYear.Slug(), q)] = true
		}
	}
	got, err := TimeSeries(snaps)
	require.NoError(t, err)
	assert.Len(t, got.DataPoints, len(seen))
}

func TestTimeSeries_DatesAreQuarterEndsInOrder(t *testing.T) {
	got, err := TimeSeries(sampleHistory())
	require.NoError(t, err)
	for i, p := range got.DataPoints {
		md := p.Date.Format("01-02")
		assert.Contains(t, []string{"06-30", "09-30", "12-31", "03-31"}, md)
		if i > 0 {
			assert.True(t, got.DataPoints[i-1].Date.Before(p.Date.Time), "dates must ascend")
		}
	}
}

func TestTimeSeries_JSONRoundTrip(t *testing.T) {
	got, err := TimeSeries(sampleHistory())
	require.NoError(t, err)

	first, err := json.Marshal(got)
	require.NoError(t, err)

	var decoded core.ChartData
	require.NoError(t, json.Unmarshal(first, &decoded))

	second, err := json.Marshal(decoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))
	assert.Contains(t, string(first), `"total_spent_to_date":"1600.85"`)
	assert.Contains(t, string(first), `"date":"2019-06-30"`)
}

func TestTimeSeries_Idempotent(t *testing.T) {
	snaps := sampleHistory()
	a, err := TimeSeries(snaps)
	require.NoError(t, err)
	b, err := TimeSeries(snaps)
	require.NoError(t, err)

	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	assert.Equal(t, string(aj), string(bj))
}
