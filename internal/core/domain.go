package core

import (
	"errors"

	"github.com/shopspring/decimal"
)

const (
	CategoryBudget              Category = "budget"
	CategoryInvestment          Category = "investment"
	CategoryTax                 Category = "tax"
	CategorySavings             Category = "savings"
	CategoryExpenditureAnalysis Category = "expenditure_analysis"
	CategoryGeneral             Category = "general"
)

const (
	StrategyExternal Strategy = "external"
	StrategyLocal    Strategy = "local"
)

const (
	QueryBudgetAdvice        QueryType = "budget_advice"
	QueryBudgetPlanning      QueryType = "budget_planning"
	QueryInvestmentAdvice    QueryType = "investment_advice"
	QueryTaxAdvice           QueryType = "tax_advice"
	QuerySavingsAdvice       QueryType = "savings_advice"
	QueryExpenditureAnalysis QueryType = "expenditure_analysis"
	QueryGeneralChat         QueryType = "general_chat"
	QueryFullAnalysis        QueryType = "full_analysis"
)

type (
	// Category is the classifier's view of what a message is about.
	Category string

	// Strategy names the response generator that produced an answer.
	Strategy string

	// QueryType is the label returned to API callers.
	QueryType string

	ExpenditureEntry struct {
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Date        string          `json:"date"` // YYYY-MM-DD
	}
)

// ErrMissingInput marks requests that lack required data.
var ErrMissingInput = errors.New("missing input")

// QueryType maps a category onto the wire label used by the given strategy.
// The local strategy reports budget questions as budget_planning.
func (c Category) QueryType(s Strategy) QueryType {
	switch c {
	case CategoryBudget:
		if s == StrategyLocal {
			return QueryBudgetPlanning
		}
		return QueryBudgetAdvice
	case CategoryInvestment:
		return QueryInvestmentAdvice
	case CategoryTax:
		return QueryTaxAdvice
	case CategorySavings:
		return QuerySavingsAdvice
	case CategoryExpenditureAnalysis:
		return QueryExpenditureAnalysis
	default:
		return QueryGeneralChat
	}
}

// IsAnalysis reports whether responses of this type carry a summary data block.
func (q QueryType) IsAnalysis() bool {
	return q == QueryExpenditureAnalysis || q == QueryFullAnalysis
}
