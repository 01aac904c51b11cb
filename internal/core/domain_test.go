package core

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		msg  string
		want Category
	}{
		{"Help me make a budget", CategoryBudget},
		{"Where do I SPEND too much?", CategoryBudget},
		{"Should I budget or invest?", CategoryBudget},
		{"How should I invest my savings?", CategoryInvestment},
		{"Is my portfolio diversified?", CategoryInvestment},
		{"What about the IRS?", CategoryTax},
		{"Any deductions I can claim?", CategoryTax},
		{"How big should my emergency fund be?", CategorySavings},
		{"Analyze my spending patterns", CategoryBudget}, // "spend" comes first
		{"Please analyze this", CategoryExpenditureAnalysis},
		{"Do you see a pattern?", CategoryExpenditureAnalysis},
		{"hello there", CategoryGeneral},
		{"", CategoryGeneral},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.msg), "Classify(%q)", tc.msg)
	}
}

func TestClassify_IsTotal(t *testing.T) {
	valid := map[Category]bool{
		CategoryBudget: true, CategoryInvestment: true, CategoryTax: true,
		CategorySavings: true, CategoryExpenditureAnalysis: true, CategoryGeneral: true,
	}
	inputs := []string{"", " ", "💸", strings.Repeat("x", 10000), "TAX\x00", "save\nme"}
	for _, in := range inputs {
		assert.True(t, valid[Classify(in)], "input %q", in)
		assert.Equal(t, Classify(in), Classify(in))
	}
}

func TestCategoryQueryType(t *testing.T) {
	assert.Equal(t, QueryBudgetAdvice, CategoryBudget.QueryType(StrategyExternal))
	assert.Equal(t, QueryBudgetPlanning, CategoryBudget.QueryType(StrategyLocal))
	for _, s := range []Strategy{StrategyExternal, StrategyLocal} {
		assert.Equal(t, QueryInvestmentAdvice, CategoryInvestment.QueryType(s))
		assert.Equal(t, QueryTaxAdvice, CategoryTax.QueryType(s))
		assert.Equal(t, QuerySavingsAdvice, CategorySavings.QueryType(s))
		assert.Equal(t, QueryExpenditureAnalysis, CategoryExpenditureAnalysis.QueryType(s))
		assert.Equal(t, QueryGeneralChat, CategoryGeneral.QueryType(s))
	}
}

func TestAggregate_CategoriesAreUsedAsSupplied(t *testing.T) {
	entries := []ExpenditureEntry{
		{Amount: decimal.NewFromInt(10), Category: "<b>food</b>"},
		{Amount: decimal.NewFromInt(5), Category: "food"},
		{Amount: decimal.NewFromInt(2), Category: ""},
		{Amount: decimal.NewFromInt(3), Category: "", Description: strings.Repeat("a", 500)},
	}

	s := Aggregate(entries)
	require.Len(t, s.ByCategory, 3)
	assert.True(t, s.ByCategory["<b>food</b>"].Equal(decimal.NewFromInt(10)))
	assert.True(t, s.ByCategory["food"].Equal(decimal.NewFromInt(5)))
	assert.True(t, s.ByCategory[""].Equal(decimal.NewFromInt(5)))
	assert.Equal(t, 4, s.TransactionCount)
}

func TestFormatDollarsAndPercent(t *testing.T) {
	assert.Equal(t, "$100.00", FormatDollars(decimal.NewFromInt(100)))
	assert.Equal(t, "$12.35", FormatDollars(decimal.RequireFromString("12.345")))
	assert.Equal(t, "$-3.00", FormatDollars(decimal.NewFromInt(-3)))

	assert.Equal(t, "25.0", Percent(decimal.NewFromInt(25), decimal.NewFromInt(100)).StringFixed(1))
	assert.True(t, Percent(decimal.NewFromInt(5), decimal.Zero).IsZero())
	assert.InDelta(t, 12.5, Float(decimal.RequireFromString("12.5")), 1e-9)
}
