package core

import "github.com/shopspring/decimal"

// Milestone event types, in the order they are emitted.
const (
	EventStart                      = "Project start"
	EventEstimatedConstructionStart = "Estimated construction start"
	EventEstimatedCompletion        = "Estimated completion"
	EventContractedConstructionEnd  = "Contracted construction end"
	EventEstimatedConstructionEnd   = "Estimated construction end"
)

// ChartDataPoint is one quarter of a project's expenditure series.
type ChartDataPoint struct {
	Date                      Date                `json:"date"`
	QuarterLabel              string              `json:"quarter_label"`
	FinancialYearLabel        string              `json:"financial_year_label"`
	TotalSpentToDate          decimal.NullDecimal `json:"total_spent_to_date"`
	TotalSpentInQuarter       decimal.NullDecimal `json:"total_spent_in_quarter"`
	TotalEstimatedProjectCost decimal.NullDecimal `json:"total_estimated_project_cost"`
	Status                    *string             `json:"status"`
}

// Event marks a project milestone on the chart.
type Event struct {
	Date Date   `json:"date"`
	Type string `json:"type"`
}

// ChartData is the chart payload for one project.
type ChartData struct {
	DataPoints []ChartDataPoint `json:"data_points"`
	Events     []Event          `json:"events"`
}
