package advisor

import (
	"finadvisor/internal/core"

	"github.com/shopspring/decimal"
)

// ChatResponse is the answer returned to API callers.
type ChatResponse struct {
	Response  string         `json:"response"`
	QueryType core.QueryType `json:"query_type"`
	Data      *SummaryData   `json:"data"`

	// Strategy records which generator produced the answer.
	Strategy core.Strategy `json:"-"`
}

// SummaryData is the structured block attached to analysis responses.
type SummaryData struct {
	TotalAmount       float64            `json:"total_amount"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
	TransactionCount  int                `json:"transaction_count"`
	TopCategory       string             `json:"top_category,omitempty"`
	MonthlyAverage    *float64           `json:"monthly_average,omitempty"`
	MonthlyData       map[string]float64 `json:"monthly_data,omitempty"`
}

func summaryData(s core.Summary) *SummaryData {
	return &SummaryData{
		TotalAmount:       core.Float(s.Total),
		CategoryBreakdown: floats(s.ByCategory),
		TransactionCount:  s.TransactionCount,
		TopCategory:       s.Top.Name,
	}
}

func monthlySummaryData(ms core.MonthlySummary) *SummaryData {
	avg := core.Float(ms.MonthlyAverage)
	return &SummaryData{
		TotalAmount:       core.Float(ms.Total),
		CategoryBreakdown: floats(ms.ByCategory),
		TransactionCount:  ms.TransactionCount,
		MonthlyAverage:    &avg,
		MonthlyData:       floats(ms.ByMonth),
	}
}

func floats(in map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = core.Float(v)
	}
	return out
}
