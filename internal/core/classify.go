package core

import "strings"

// classificationRules are evaluated in order; the first rule with a keyword
// contained in the lower-cased message wins.
var classificationRules = []struct {
	category Category
	keywords []string
}{
	{CategoryBudget, []string{"budget", "budgeting", "spend"}},
	{CategoryInvestment, []string{"invest", "investment", "stock", "portfolio"}},
	{CategoryTax, []string{"tax", "deduction", "irs"}},
	{CategorySavings, []string{"save", "saving", "emergency"}},
	{CategoryExpenditureAnalysis, []string{"analyze", "analysis", "pattern"}},
}

// Classify assigns exactly one category to a free-text message. Matching is
// substring based, so "spending" counts as "spend". Anything unmatched is general.
func Classify(message string) Category {
	lower := strings.ToLower(message)
	for _, rule := range classificationRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return CategoryGeneral
}
