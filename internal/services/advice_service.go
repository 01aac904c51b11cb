package services

import (
	"context"
	"sync"

	"finadvisor/internal/advisor"
	"finadvisor/internal/amqp"
	"finadvisor/internal/core"
	"finadvisor/internal/log"
)

// Endpoint names recorded on advice events.
const (
	EndpointChat               = "/chat"
	EndpointAnalyzeExpenditure = "/analyze-expenditure"
	EndpointFullAnalysis       = "/full-analysis"
)

// DefaultEventQueueSize bounds the number of advice events waiting for the
// publisher. Events beyond it are dropped.
const DefaultEventQueueSize = 256

// Publisher delivers advice events. *amqp.Client satisfies it.
type Publisher interface {
	PublishAdviceEvent(ctx context.Context, event *amqp.AdviceEvent) error
}

// connectionChecker is implemented by publishers that can lose their broker.
type connectionChecker interface {
	IsConnected() bool
}

type queuedEvent struct {
	ctx    context.Context
	event  *amqp.AdviceEvent
	fields log.LogFields
}

// AdviceService orchestrates response generation and event publishing.
// Events are handed to a background worker so a slow broker never delays a
// response.
type AdviceService struct {
	generator *advisor.Generator
	publisher Publisher
	logger    *log.Logger

	mu     sync.RWMutex
	events chan queuedEvent
	closed bool
	wg     sync.WaitGroup
}

// NewAdviceService wires a generator with an optional publisher. A nil
// publisher disables events. Call Close to drain queued events.
func NewAdviceService(generator *advisor.Generator, publisher Publisher, logger *log.Logger) *AdviceService {
	return NewAdviceServiceWithQueue(generator, publisher, logger, DefaultEventQueueSize)
}

// NewAdviceServiceWithQueue is NewAdviceService with an explicit event queue size.
func NewAdviceServiceWithQueue(generator *advisor.Generator, publisher Publisher, logger *log.Logger, queueSize int) *AdviceService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if queueSize < 1 {
		queueSize = 1
	}
	s := &AdviceService{
		generator: generator,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentService),
	}
	if publisher != nil {
		s.events = make(chan queuedEvent, queueSize)
		s.wg.Add(1)
		go s.run()
	}
	return s
}

// EventsEnabled reports whether advice events are published. A publisher
// that has lost its connection counts as disabled.
func (s *AdviceService) EventsEnabled() bool {
	if s.publisher == nil {
		return false
	}
	if cc, ok := s.publisher.(connectionChecker); ok {
		return cc.IsConnected()
	}
	return true
}

// CompletionAvailable reports whether chat answers may come from the completion model.
func (s *AdviceService) CompletionAvailable() bool {
	return s.generator.ExternalAvailable()
}

// Chat answers a free-form message, optionally informed by expenditure entries.
// Any message is accepted, an empty one is general chat.
func (s *AdviceService) Chat(ctx context.Context, message string, entries []core.ExpenditureEntry) (advisor.ChatResponse, error) {
	resp := s.generator.Respond(ctx, message, entries)
	s.publish(ctx, EndpointChat, resp, len(entries))
	return resp, nil
}

// AnalyzeExpenditure runs the local strategy over the fixed analysis message.
func (s *AdviceService) AnalyzeExpenditure(ctx context.Context, entries []core.ExpenditureEntry) (advisor.ChatResponse, error) {
	resp := s.generator.Local(advisor.AnalyzeMessage, entries)
	s.publish(ctx, EndpointAnalyzeExpenditure, resp, len(entries))
	return resp, nil
}

// FullAnalysis builds the comprehensive report. Empty entries yield
// advisor.ErrMissingExpenditureData.
func (s *AdviceService) FullAnalysis(ctx context.Context, entries []core.ExpenditureEntry, userContext string) (advisor.ChatResponse, error) {
	resp, err := advisor.BuildFullAnalysis(entries, userContext)
	if err != nil {
		return advisor.ChatResponse{}, err
	}

	s.publish(ctx, EndpointFullAnalysis, resp, len(entries))
	return resp, nil
}

// Close stops accepting events and waits for queued ones to be published.
func (s *AdviceService) Close() {
	s.mu.Lock()
	if s.closed || s.events == nil {
		s.closed = true
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.events)
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *AdviceService) publish(ctx context.Context, endpoint string, resp advisor.ChatResponse, transactions int) {
	fields := log.NewFields().
		WithAdvice(string(resp.QueryType), string(resp.Strategy), transactions)
	fields[log.FieldEndpoint] = endpoint

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Events disabled, skipping advice event", fields.ToSlice()...)
		return
	}

	event := amqp.NewAdviceEvent(endpoint, string(resp.QueryType), string(resp.Strategy), transactions)
	fields[log.FieldEventID] = event.ID

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.logger.WarnContext(ctx, "Service closed, dropping advice event", fields.ToSlice()...)
		return
	}

	// The request may finish before the worker gets to the event
	select {
	case s.events <- queuedEvent{ctx: context.WithoutCancel(ctx), event: event, fields: fields}:
	default:
		s.logger.WarnContext(ctx, "Event queue full, dropping advice event", fields.ToSlice()...)
	}
}

func (s *AdviceService) run() {
	defer s.wg.Done()
	for q := range s.events {
		// Don't fail the request, the answer is already computed
		err := s.publisher.PublishAdviceEvent(q.ctx, q.event)
		s.logger.LogOperation(q.ctx, log.OpPublish, err, q.fields)
	}
}
