package advisor

import (
	"fmt"
	"html"
	"strings"

	"finadvisor/internal/core"

	"github.com/microcosm-cc/bluemonday"
)

const (
	// SystemInstruction is sent with every completion request.
	SystemInstruction = "You are a knowledgeable financial advisor. Provide helpful, practical financial advice."

	// AnalyzeMessage is the synthetic message used by the analyze-expenditure endpoint.
	AnalyzeMessage = "Analyze my spending patterns"

	noExpensesMessage = "Please add some expenses first so I can analyze your spending patterns."
)

// cannedResponses holds the fixed paragraphs of the local strategy. Categories
// without an entry use the general paragraph.
var cannedResponses = map[core.Category]string{
	core.CategoryBudget:     "Based on your spending patterns, I recommend creating a 50/30/20 budget: 50% for needs, 30% for wants, and 20% for savings and debt repayment.",
	core.CategoryInvestment: "For beginners, I suggest starting with low-cost index funds or ETFs. Consider a diversified portfolio with 70% stocks and 30% bonds, adjusted based on your age and risk tolerance.",
	core.CategoryTax:        "Common tax deductions include mortgage interest, charitable donations, state and local taxes, and business expenses. Keep detailed records of all deductible expenses.",
	core.CategorySavings:    "Aim to save at least 20% of your income. Start with an emergency fund of 3-6 months of expenses, then focus on retirement savings and other financial goals.",
	core.CategoryGeneral:    "I'm here to help with your financial questions! Feel free to ask about budgeting, investments, taxes, savings, or any other financial topics.",
}

func cannedResponse(c core.Category) string {
	if text, ok := cannedResponses[c]; ok {
		return text
	}
	return cannedResponses[core.CategoryGeneral]
}

const promptInstructions = `Please provide a comprehensive financial analysis with the following structure:
1. **Spending Analysis** - Analyze the spending patterns and key insights
2. **Key Recommendations** - Provide 3-5 specific, actionable recommendations using bullet points
3. **Next Steps** - Suggest concrete actions the user can take

Format your response with:
- Clear section headers using **bold text**
- Bullet points for lists and recommendations
- Proper paragraph breaks for readability
- Professional tone with specific numbers and percentages when relevant

Keep the response informative but concise (3-4 paragraphs maximum).`

// promptPolicy strips markup from user text before it is placed in a
// completion prompt. Domain data itself is never rewritten.
var promptPolicy = bluemonday.StrictPolicy()

func promptText(s string) string {
	s = html.UnescapeString(promptPolicy.Sanitize(s))
	s = strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// buildPrompt embeds the user's message and, when present, a spending summary.
func buildPrompt(message string, entries []core.ExpenditureEntry) string {
	var ctx strings.Builder
	fmt.Fprintf(&ctx, "User message: %s\n", promptText(message))
	if len(entries) > 0 {
		s := core.Aggregate(entries)
		ctx.WriteString("\nUser's spending data:\n")
		fmt.Fprintf(&ctx, "Total spent: %s\n", core.FormatDollars(s.Total))
		fmt.Fprintf(&ctx, "Categories: %s\n", formatBreakdown(s.Categories()))
		fmt.Fprintf(&ctx, "Number of transactions: %d\n", s.TransactionCount)
	}

	return "You are a professional financial advisor AI. Provide well-structured, actionable financial advice with proper formatting.\n\n" +
		ctx.String() + "\n\n" + promptInstructions
}

func formatBreakdown(cats []core.CategoryAmount) string {
	parts := make([]string, 0, len(cats))
	for _, c := range cats {
		parts = append(parts, fmt.Sprintf("%s: %s", promptText(c.Name), core.FormatDollars(c.Amount)))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func spendingReport(s core.Summary) string {
	var b strings.Builder
	b.WriteString("Analysis of your spending:\n\n")
	fmt.Fprintf(&b, "• Total spent: %s\n", core.FormatDollars(s.Total))
	fmt.Fprintf(&b, "• Top spending category: %s (%s)\n", s.Top.Name, core.FormatDollars(s.Top.Amount))
	fmt.Fprintf(&b, "• Number of transactions: %d\n\n", s.TransactionCount)
	b.WriteString("Recommendations:\n")
	b.WriteString("• Track your spending regularly\n")
	b.WriteString("• Consider reducing expenses in your top spending category\n")
	b.WriteString("• Set up automatic savings transfers")
	return b.String()
}
