package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finadvisor/internal/advisor"
	"finadvisor/internal/amqp"
	"finadvisor/internal/completion"
	"finadvisor/internal/core"
	"finadvisor/internal/log"
	"finadvisor/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	available bool
	text      string
	err       error
	prompts   []string
}

func (f *fakeCompleter) Available() bool { return f.available }

func (f *fakeCompleter) Complete(_ context.Context, req completion.Request) (string, error) {
	f.prompts = append(f.prompts, req.Prompt)
	return f.text, f.err
}

// panicService blows up on every advice call
type panicService struct{}

func (panicService) Chat(context.Context, string, []core.ExpenditureEntry) (advisor.ChatResponse, error) {
	panic("boom")
}

func (panicService) AnalyzeExpenditure(context.Context, []core.ExpenditureEntry) (advisor.ChatResponse, error) {
	panic("boom")
}

func (panicService) FullAnalysis(context.Context, []core.ExpenditureEntry, string) (advisor.ChatResponse, error) {
	panic("boom")
}

func (panicService) CompletionAvailable() bool { return false }
func (panicService) EventsEnabled() bool       { return false }

// failingService returns an unexpected error
type failingService struct{ panicService }

func (failingService) AnalyzeExpenditure(context.Context, []core.ExpenditureEntry) (advisor.ChatResponse, error) {
	return advisor.ChatResponse{}, errors.New("disk on fire")
}

func newTestServer(t *testing.T, svc AdviceService, cfg Config) *Server {
	t.Helper()
	srv := NewServer(cfg, svc, log.Discard())
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func newAdviceServer(t *testing.T, c *fakeCompleter) *Server {
	t.Helper()
	var completer advisor.Completer
	if c != nil {
		completer = c
	}
	gen := advisor.NewGenerator(completer, log.Discard())
	return newTestServer(t, services.NewAdviceService(gen, nil, log.Discard()), DefaultConfig())
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

const sampleEntries = `[
	{"amount": 50, "category": "food", "description": "groceries", "date": "2024-01-05"},
	{"amount": 30, "category": "food", "description": "lunch", "date": "2024-01-20"},
	{"amount": 20, "category": "transport", "description": "bus", "date": "2024-02-03"}
]`

func TestRootHealthReady(t *testing.T) {
	srv := newAdviceServer(t, nil)

	w := do(t, srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"message": "Financial AI System Mock API", "status": "running"}, decodeBody(t, w))

	w = do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])
	_, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	assert.NoError(t, err)

	w = do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, map[string]any{"completion": "unavailable", "events": "disabled"}, body["checks"])
}

type brokerPublisher struct{ connected bool }

func (brokerPublisher) PublishAdviceEvent(context.Context, *amqp.AdviceEvent) error { return nil }
func (b brokerPublisher) IsConnected() bool                                         { return b.connected }

func TestReady_ReportsBrokerConnection(t *testing.T) {
	gen := advisor.NewGenerator(nil, log.Discard())
	for _, connected := range []bool{true, false} {
		svc := services.NewAdviceService(gen, brokerPublisher{connected: connected}, log.Discard())
		t.Cleanup(svc.Close)
		srv := newTestServer(t, svc, DefaultConfig())

		w := do(t, srv, http.MethodGet, "/readyz", "")
		require.Equal(t, http.StatusOK, w.Code)
		want := "disabled"
		if connected {
			want = "enabled"
		}
		assert.Equal(t, want, decodeBody(t, w)["checks"].(map[string]any)["events"])
	}
}

func TestCommonHeaders(t *testing.T) {
	srv := newAdviceServer(t, nil)
	w := do(t, srv, http.MethodGet, "/health", "")

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	srv := newAdviceServer(t, nil)

	w := do(t, srv, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not Found", decodeBody(t, w)["detail"])

	w = do(t, srv, http.MethodGet, "/chat", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Method Not Allowed", decodeBody(t, w)["detail"])
}

func TestChat_Local(t *testing.T) {
	srv := newAdviceServer(t, nil)

	w := do(t, srv, http.MethodPost, "/chat", `{"message": "How do I budget?"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "budget_planning", body["query_type"])
	assert.True(t, strings.HasPrefix(body["response"].(string), "Based on your spending patterns, I recommend creating a 50/30/20 budget"))
	assert.Contains(t, body, "data")
	assert.Nil(t, body["data"])
}

func TestChat_LocalAnalysisWithData(t *testing.T) {
	srv := newAdviceServer(t, nil)

	w := do(t, srv, http.MethodPost, "/chat", `{"message": "show me a pattern", "expenditure_data": `+sampleEntries+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "expenditure_analysis", body["query_type"])

	data := body["data"].(map[string]any)
	assert.Equal(t, 100.0, data["total_amount"])
	assert.Equal(t, 3.0, data["transaction_count"])
	assert.Equal(t, "food", data["top_category"])
	assert.Equal(t, map[string]any{"food": 80.0, "transport": 20.0}, data["category_breakdown"])
}

func TestChat_External(t *testing.T) {
	c := &fakeCompleter{available: true, text: "Buy index funds."}
	srv := newAdviceServer(t, c)

	w := do(t, srv, http.MethodPost, "/chat", `{"message": "Should I invest in stocks?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Buy index funds.", body["response"])
	assert.Equal(t, "investment_advice", body["query_type"])
	require.Len(t, c.prompts, 1)
}

func TestChat_ExternalFailureFallsBack(t *testing.T) {
	c := &fakeCompleter{available: true, err: context.DeadlineExceeded}
	srv := newAdviceServer(t, c)

	w := do(t, srv, http.MethodPost, "/chat", `{"message": "What about taxes?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "tax_advice", body["query_type"])
	assert.True(t, strings.HasPrefix(body["response"].(string), "Common tax deductions include"))
}

func TestChat_SanitizesMessage(t *testing.T) {
	c := &fakeCompleter{available: true, text: "ok"}
	srv := newAdviceServer(t, c)

	w := do(t, srv, http.MethodPost, "/chat", `{"message": "<script>alert(1)</script><b>What's</b> a tax\u0007 deduction?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tax_advice", decodeBody(t, w)["query_type"])

	require.Len(t, c.prompts, 1)
	assert.NotContains(t, c.prompts[0], "<")
	assert.NotContains(t, c.prompts[0], "\u0007")
	assert.Contains(t, c.prompts[0], "What's a tax deduction?")
}

func TestChat_Errors(t *testing.T) {
	srv := newAdviceServer(t, nil)

	tests := []struct {
		name   string
		body   string
		status int
		detail string
	}{
		{"malformed JSON", `{"message": `, http.StatusBadRequest, ""},
		{"empty body", ``, http.StatusBadRequest, ""},
		{"trailing data", `{"message": "hi"} {}`, http.StatusBadRequest, ""},
		{"missing message", `{}`, http.StatusUnprocessableEntity, "Message is required"},
		{"null message", `{"message": null}`, http.StatusUnprocessableEntity, "Message is required"},
		{"wrong type", `{"message": 42}`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, "/chat", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			detail, ok := decodeBody(t, w)["detail"].(string)
			require.True(t, ok)
			assert.NotEmpty(t, detail)
			if tt.detail != "" {
				assert.Equal(t, tt.detail, detail)
			}
		})
	}
}

func TestChat_AcceptsAnyMessageAndEntries(t *testing.T) {
	srv := newAdviceServer(t, nil)

	for _, body := range []string{
		`{"message": ""}`,
		`{"message": "   "}`,
		`{"message": "<b></b>"}`,
		`{"message": "hi", "expenditure_data": [{"amount": 1, "category": " "}]}`,
		`{"message": "hi", "expenditure_data": [{"amount": 1, "category": "x", "description": "` + strings.Repeat("a", 201) + `"}]}`,
	} {
		w := do(t, srv, http.MethodPost, "/chat", body)
		require.Equal(t, http.StatusOK, w.Code, body)
		got := decodeBody(t, w)
		assert.Equal(t, "general_chat", got["query_type"], body)
		assert.Equal(t, "local", got["strategy"], body)
	}
}

func TestBodyTooLarge(t *testing.T) {
	gen := advisor.NewGenerator(nil, log.Discard())
	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 64
	srv := newTestServer(t, services.NewAdviceService(gen, nil, log.Discard()), cfg)

	w := do(t, srv, http.MethodPost, "/chat", `{"message": "`+strings.Repeat("a", 200)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "Request body too large", decodeBody(t, w)["detail"])
}

func TestAnalyzeExpenditure(t *testing.T) {
	c := &fakeCompleter{available: true, text: "never used"}
	srv := newAdviceServer(t, c)

	w := do(t, srv, http.MethodPost, "/analyze-expenditure", `{"expenditure_data": `+sampleEntries+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "budget_planning", body["query_type"])
	assert.Contains(t, body["response"], "Based on your current expenses of $100.00")
	assert.Empty(t, c.prompts)
}

func TestAnalyzeExpenditure_InternalError(t *testing.T) {
	srv := newTestServer(t, failingService{}, DefaultConfig())

	w := do(t, srv, http.MethodPost, "/analyze-expenditure", `{"expenditure_data": []}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error analyzing expenditure: disk on fire", decodeBody(t, w)["detail"])
}

func TestFullAnalysis(t *testing.T) {
	srv := newAdviceServer(t, nil)

	w := do(t, srv, http.MethodPost, "/full-analysis", `{"expenditure_data": `+sampleEntries+`, "user_context": "age 30"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "full_analysis", body["query_type"])
	assert.True(t, strings.HasPrefix(body["response"].(string), "Comprehensive Financial Analysis:"))
	assert.Contains(t, body["response"], "Based on your profile (age 30)")

	data := body["data"].(map[string]any)
	assert.Equal(t, 50.0, data["monthly_average"])
	assert.Equal(t, map[string]any{"2024-01": 80.0, "2024-02": 20.0}, data["monthly_data"])
}

func TestFullAnalysis_KeepsInputVerbatim(t *testing.T) {
	srv := newAdviceServer(t, nil)

	body := `{"expenditure_data": [
		{"amount": 10, "category": "<b>food</b>", "date": "2024-01-05"},
		{"amount": 5, "category": "food", "date": "2024-01-06"},
		{"amount": 2, "category": "", "date": "2024-01-07"}
	], "user_context": "age<30 and <kids> 2"}`
	w := do(t, srv, http.MethodPost, "/full-analysis", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decodeBody(t, w)

	assert.Contains(t, got["response"], "Based on your profile (age<30 and <kids> 2), consider")
	data := got["data"].(map[string]any)
	assert.Equal(t, map[string]any{"<b>food</b>": 10.0, "food": 5.0, "": 2.0}, data["category_breakdown"])
}

func TestFullAnalysis_MissingData(t *testing.T) {
	srv := newAdviceServer(t, nil)

	for _, body := range []string{`{}`, `{"expenditure_data": []}`, `{"expenditure_data": null}`} {
		w := do(t, srv, http.MethodPost, "/full-analysis", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "Expenditure data is required", decodeBody(t, w)["detail"])
	}
}

func TestPanicsBecomeJSON500(t *testing.T) {
	srv := newTestServer(t, panicService{}, DefaultConfig())

	tests := []struct {
		path   string
		body   string
		detail string
	}{
		{"/chat", `{"message": "hi"}`, "boom"},
		{"/analyze-expenditure", `{"expenditure_data": []}`, "Error analyzing expenditure: boom"},
		{"/full-analysis", `{"expenditure_data": []}`, "Error in full analysis: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Equal(t, tt.detail, decodeBody(t, w)["detail"])
		})
	}
	assert.Equal(t, int64(3), srv.Metrics().ServerErrors)
}

func TestRateLimitAppliesToPostsOnly(t *testing.T) {
	gen := advisor.NewGenerator(nil, log.Discard())
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 2
	srv := newTestServer(t, services.NewAdviceService(gen, nil, log.Discard()), cfg)

	for i := 0; i < 2; i++ {
		w := do(t, srv, http.MethodPost, "/chat", `{"message": "hi"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := do(t, srv, http.MethodPost, "/full-analysis", `{"expenditure_data": []}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "Rate limit exceeded. Please try again later.", decodeBody(t, w)["detail"])

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health", "").Code)
	}
}
