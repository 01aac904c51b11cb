package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"finadvisor/internal/core"
)

var (
	errBodyTooLarge  = errors.New("request body too large")
	errMalformedJSON = errors.New("malformed JSON body")
)

// ChatRequest is the body of POST /chat. Message is required but may be empty.
type ChatRequest struct {
	Message         *string                 `json:"message"`
	UserContext     string                  `json:"user_context,omitempty"`
	ExpenditureData []core.ExpenditureEntry `json:"expenditure_data,omitempty"`
}

// AnalysisRequest is the body of POST /analyze-expenditure and POST /full-analysis
type AnalysisRequest struct {
	ExpenditureData []core.ExpenditureEntry `json:"expenditure_data"`
	UserContext     string                  `json:"user_context,omitempty"`
}

// decodeJSON reads exactly one JSON value from a size-limited body.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return errBodyTooLarge
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: request body is empty", errMalformedJSON)
		default:
			return fmt.Errorf("%w: %v", errMalformedJSON, err)
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return fmt.Errorf("%w: unexpected data after JSON value", errMalformedJSON)
	}
	return nil
}
