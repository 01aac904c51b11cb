package log

import "sort"

// Common field names for structured logging
const (
	FieldComponent        = "component"
	FieldRequestID        = "request_id"
	FieldClientIP         = "client_ip"
	FieldMethod           = "method"
	FieldPath             = "path"
	FieldQuery            = "query"
	FieldStatusCode       = "status_code"
	FieldDuration         = "duration_ms"
	FieldDurationHuman    = "duration_human"
	FieldUserAgent        = "user_agent"
	FieldSuccess          = "success"
	FieldError            = "error"
	FieldErrorType        = "error_type"
	FieldOperation        = "operation"
	FieldQueryType        = "query_type"
	FieldStrategy         = "strategy"
	FieldTransactionCount = "transaction_count"
	FieldMessageLength    = "message_length"
	FieldEndpoint         = "endpoint"
	FieldEventID          = "event_id"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentAdvisor    = "advisor"
	ComponentCompletion = "completion"
	ComponentService    = "service"
	ComponentAMQP       = "amqp"
	ComponentRateLimit  = "rate_limit"
	ComponentTrace      = "trace"
	ComponentCLI        = "cli"
)

// Operations defines standard operation names
const (
	OpChat     = "chat"
	OpAnalyze  = "analyze"
	OpFull     = "full_analysis"
	OpPublish  = "publish"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeTimeout       = "timeout_error"
	ErrorTypeCanceled      = "canceled_error"
	ErrorTypeUpstream      = "upstream_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithSuccess(ok bool) LogFields {
	f[FieldSuccess] = ok
	return f
}

// WithAdvice adds the fields describing an answered request
func (f LogFields) WithAdvice(queryType, strategy string, transactions int) LogFields {
	f[FieldQueryType] = queryType
	f[FieldStrategy] = strategy
	f[FieldTransactionCount] = transactions
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to a key/value slice for slog, keys sorted
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
