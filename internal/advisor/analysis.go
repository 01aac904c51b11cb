package advisor

import (
	"fmt"
	"strings"

	"finadvisor/internal/core"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrMissingExpenditureData is returned when a full analysis is requested without entries.
var ErrMissingExpenditureData = fmt.Errorf("expenditure data is required: %w", core.ErrMissingInput)

var (
	budgetFactor  = decimal.RequireFromString("0.9")
	savingsFactor = decimal.RequireFromString("0.2")
)

// BuildFullAnalysis renders the comprehensive report over a non-empty list of
// entries. The user context, when given, is echoed verbatim in a personalization note.
func BuildFullAnalysis(entries []core.ExpenditureEntry, userContext string) (ChatResponse, error) {
	if len(entries) == 0 {
		return ChatResponse{}, ErrMissingExpenditureData
	}

	ms := core.AggregateMonthly(entries)
	title := cases.Title(language.English)

	var b strings.Builder
	b.WriteString("Comprehensive Financial Analysis:\n\n")
	b.WriteString("📊 SPENDING OVERVIEW:\n")
	fmt.Fprintf(&b, "• Total spent: %s\n", core.FormatDollars(ms.Total))
	fmt.Fprintf(&b, "• Average monthly spending: %s\n", core.FormatDollars(ms.MonthlyAverage))
	fmt.Fprintf(&b, "• Number of transactions: %d\n\n", ms.TransactionCount)

	b.WriteString("📈 CATEGORY BREAKDOWN:\n")
	for _, c := range ms.Categories() {
		pct := core.Percent(c.Amount, ms.Total)
		fmt.Fprintf(&b, "• %s: %s (%s%%)\n", title.String(c.Name), core.FormatDollars(c.Amount), pct.StringFixed(1))
	}

	b.WriteString("\n💡 RECOMMENDATIONS:\n")
	fmt.Fprintf(&b, "• Consider setting a monthly budget of %s\n", core.FormatDollars(ms.MonthlyAverage.Mul(budgetFactor)))
	b.WriteString("• Focus on reducing expenses in your top spending categories\n")
	fmt.Fprintf(&b, "• Set up automatic savings of at least %s/month\n", core.FormatDollars(ms.MonthlyAverage.Mul(savingsFactor)))

	if userContext != "" {
		b.WriteString("\n👤 PERSONALIZED ADVICE:\n")
		fmt.Fprintf(&b, "Based on your profile (%s), consider consulting with a financial advisor for personalized investment strategies.", userContext)
	}

	return ChatResponse{
		Response:  b.String(),
		QueryType: core.QueryFullAnalysis,
		Data:      monthlySummaryData(ms),
		Strategy:  core.StrategyLocal,
	}, nil
}
