package core

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// NoCategory is the top category reported for an empty entry list.
	NoCategory = "N/A"
	// UnknownMonth groups entries that carry no date at all.
	UnknownMonth = "unknown"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// Summary aggregates a list of expenditure entries.
type Summary struct {
	Total            decimal.Decimal
	ByCategory       map[string]decimal.Decimal
	TransactionCount int
	Top              CategoryAmount
}

// MonthlySummary extends Summary with a per-month grouping.
type MonthlySummary struct {
	Summary
	ByMonth        map[string]decimal.Decimal
	MonthlyAverage decimal.Decimal
}

// Aggregate sums entries overall and per category. The top category is the one
// with the largest sum; ties go to the lexicographically smallest name.
func Aggregate(entries []ExpenditureEntry) Summary {
	s := Summary{
		Total:            decimal.Zero,
		ByCategory:       make(map[string]decimal.Decimal),
		TransactionCount: len(entries),
		Top:              CategoryAmount{Name: NoCategory, Amount: decimal.Zero},
	}
	for _, e := range entries {
		s.Total = s.Total.Add(e.Amount)
		s.ByCategory[e.Category] = s.ByCategory[e.Category].Add(e.Amount)
	}
	if cats := s.Categories(); len(cats) > 0 {
		s.Top = cats[0]
	}
	return s
}

// AggregateMonthly aggregates entries and additionally groups them by MonthKey.
// The monthly average is the mean of the per-month totals, zero without months.
func AggregateMonthly(entries []ExpenditureEntry) MonthlySummary {
	ms := MonthlySummary{
		Summary:        Aggregate(entries),
		ByMonth:        make(map[string]decimal.Decimal),
		MonthlyAverage: decimal.Zero,
	}
	for _, e := range entries {
		key := MonthKey(e.Date)
		ms.ByMonth[key] = ms.ByMonth[key].Add(e.Amount)
	}
	if len(ms.ByMonth) > 0 {
		sum := decimal.Zero
		for _, amount := range ms.ByMonth {
			sum = sum.Add(amount)
		}
		ms.MonthlyAverage = sum.Div(decimal.NewFromInt(int64(len(ms.ByMonth))))
	}
	return ms
}

// Categories returns the per-category totals ordered by descending amount,
// then by name.
func (s Summary) Categories() []CategoryAmount {
	out := make([]CategoryAmount, 0, len(s.ByCategory))
	for name, amount := range s.ByCategory {
		out = append(out, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MonthKey derives the YYYY-MM grouping key for a date string. Dates that parse
// as YYYY-MM-DD or RFC 3339 are normalized; anything else is truncated to its
// first seven characters, so malformed dates may collide.
func MonthKey(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return UnknownMonth
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Format("2006-01")
		}
	}
	if r := []rune(date); len(r) > 7 {
		return string(r[:7])
	}
	return date
}
