package advisor

import (
	"strings"
	"testing"

	"finadvisor/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPromptText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  plain  ", "plain"},
		{"<b>bold</b> move", "bold move"},
		{"rock & roll", "rock & roll"},
		{"tab\tand\nnewline", "tab\tand\nnewline"},
		{"bell\u0007", "bell"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, promptText(tt.in), tt.in)
	}
}

func TestBuildPrompt_WithoutEntries(t *testing.T) {
	p := buildPrompt("<i>hi</i>", nil)
	assert.Contains(t, p, "User message: hi\n")
	assert.NotContains(t, p, "User's spending data")
	assert.True(t, strings.HasSuffix(p, promptInstructions))
}

func TestBuildPrompt_EmptyCategory(t *testing.T) {
	p := buildPrompt("x", []core.ExpenditureEntry{{Amount: decimal.NewFromInt(2), Category: ""}})
	assert.Contains(t, p, "Categories: {: $2.00}\n")
}
