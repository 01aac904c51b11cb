// Package advisor produces answers to financial-advice chat requests.
//
// Two strategies are available. The external strategy asks a completion
// model; the local strategy answers from fixed text keyed by the classified
// query. Respond always prefers the external strategy when a completer is
// available and falls back to the local one on any failure, so callers never
// see a completion error.
package advisor

import (
	"context"
	"errors"
	"fmt"

	"finadvisor/internal/completion"
	"finadvisor/internal/core"
	"finadvisor/internal/log"
)

const (
	Temperature = 0.7
	MaxTokens   = 500
)

// Completer is the external completion collaborator.
type Completer interface {
	Available() bool
	Complete(ctx context.Context, req completion.Request) (string, error)
}

type Generator struct {
	completer Completer
	logger    *log.Logger
}

// NewGenerator creates a generator. A nil completer restricts it to the local strategy.
func NewGenerator(completer Completer, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Generator{
		completer: completer,
		logger:    logger.WithComponent(log.ComponentAdvisor),
	}
}

// ExternalAvailable reports whether Respond will try the completion model first.
func (g *Generator) ExternalAvailable() bool {
	return g.completer != nil && g.completer.Available()
}

// Respond answers a chat message, optionally informed by expenditure entries.
func (g *Generator) Respond(ctx context.Context, message string, entries []core.ExpenditureEntry) ChatResponse {
	if !g.ExternalAvailable() {
		g.logger.DebugContext(ctx, "Completion unavailable, using local strategy")
		return g.Local(message, entries)
	}

	resp, err := g.external(ctx, message, entries)
	if err != nil {
		g.logger.WarnContext(ctx, "Completion failed, falling back to local strategy",
			log.FieldError, err.Error(),
			log.FieldErrorType, errorType(err))
		return g.Local(message, entries)
	}
	return resp
}

func (g *Generator) external(ctx context.Context, message string, entries []core.ExpenditureEntry) (ChatResponse, error) {
	text, err := g.completer.Complete(ctx, completion.Request{
		System:      SystemInstruction,
		Prompt:      buildPrompt(message, entries),
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		return ChatResponse{}, fmt.Errorf("external completion: %w", err)
	}

	queryType := core.Classify(message).QueryType(core.StrategyExternal)
	resp := ChatResponse{
		Response:  text,
		QueryType: queryType,
		Strategy:  core.StrategyExternal,
	}
	if queryType == core.QueryExpenditureAnalysis && len(entries) > 0 {
		resp.Data = summaryData(core.Aggregate(entries))
	}
	return resp, nil
}

// Local answers from the canned responses. It never fails.
func (g *Generator) Local(message string, entries []core.ExpenditureEntry) ChatResponse {
	category := core.Classify(message)
	resp := ChatResponse{
		QueryType: category.QueryType(core.StrategyLocal),
		Strategy:  core.StrategyLocal,
	}

	switch category {
	case core.CategoryExpenditureAnalysis:
		if len(entries) == 0 {
			resp.Response = noExpensesMessage
			return resp
		}
		s := core.Aggregate(entries)
		resp.Response = spendingReport(s)
		resp.Data = summaryData(s)
	case core.CategoryBudget:
		resp.Response = cannedResponse(category)
		if len(entries) > 0 {
			total := core.Aggregate(entries).Total
			resp.Response += fmt.Sprintf("\n\nBased on your current expenses of %s, here are some specific recommendations for your situation.",
				core.FormatDollars(total))
		}
	default:
		resp.Response = cannedResponse(category)
	}
	return resp
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return log.ErrorTypeTimeout
	case errors.Is(err, context.Canceled):
		return log.ErrorTypeCanceled
	case errors.Is(err, completion.ErrEmptyCompletion):
		return log.ErrorTypeUpstream
	default:
		return log.ErrorTypeNetwork
	}
}
