package http

import (
	"errors"
	"net/http"
	"time"

	"finadvisor/internal/advisor"
	"finadvisor/internal/log"
)

const (
	analyzeErrorPrefix      = "Error analyzing expenditure: "
	fullAnalysisErrorPrefix = "Error in full analysis: "
)

func handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Financial AI System Mock API",
		"status":  "running",
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady always answers 200; the service works without either dependency.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	completion := "unavailable"
	if s.service.CompletionAvailable() {
		completion = "available"
	}
	events := "disabled"
	if s.service.EventsEnabled() {
		events = "enabled"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": map[string]string{
			"completion": completion,
			"events":     events,
		},
	})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not Found")
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Message == nil {
		writeError(w, http.StatusUnprocessableEntity, "Message is required")
		return
	}
	message := *req.Message

	logger := log.FromContext(r.Context())
	logger.DebugContext(r.Context(), "Chat request received",
		log.FieldMessageLength, len(message),
		log.FieldTransactionCount, len(req.ExpenditureData))

	resp, err := s.service.Chat(r.Context(), message, req.ExpenditureData)
	if err != nil {
		s.writeServiceError(w, r, log.OpChat, "", err)
		return
	}
	s.logAdvice(r, log.OpChat, resp, len(req.ExpenditureData))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalyzeExpenditure(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp, err := s.service.AnalyzeExpenditure(r.Context(), req.ExpenditureData)
	if err != nil {
		s.writeServiceError(w, r, log.OpAnalyze, analyzeErrorPrefix, err)
		return
	}
	s.logAdvice(r, log.OpAnalyze, resp, len(req.ExpenditureData))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFullAnalysis(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp, err := s.service.FullAnalysis(r.Context(), req.ExpenditureData, req.UserContext)
	if err != nil {
		s.writeServiceError(w, r, log.OpFull, fullAnalysisErrorPrefix, err)
		return
	}
	s.logAdvice(r, log.OpFull, resp, len(req.ExpenditureData))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := decodeJSON(w, r, s.maxBodyBytes, dst)
	if err == nil {
		return true
	}

	log.FromContext(r.Context()).WarnContext(r.Context(), "Invalid request body",
		log.FieldError, err.Error(),
		log.FieldErrorType, log.ErrorTypeValidation)

	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, err.Error())
	return false
}

// writeServiceError maps service errors onto status codes. Missing data is
// the caller's fault; anything else is reported with prefix.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op, prefix string, err error) {
	switch {
	case errors.Is(err, advisor.ErrMissingExpenditureData):
		writeError(w, http.StatusBadRequest, "Expenditure data is required")
	default:
		log.FromContext(r.Context()).LogOperation(r.Context(), op, err, nil)
		writeError(w, http.StatusInternalServerError, prefix+err.Error())
	}
}

func (s *Server) logAdvice(r *http.Request, op string, resp advisor.ChatResponse, transactions int) {
	log.FromContext(r.Context()).LogOperation(r.Context(), op, nil,
		log.NewFields().WithAdvice(string(resp.QueryType), string(resp.Strategy), transactions))
}
