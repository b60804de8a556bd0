package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldSource      = "source"
	FieldRows        = "rows"
	FieldPeriod      = "period"
	FieldWindowStart = "window_start"
	FieldWindowEnd   = "window_end"
	FieldCard        = "card_last_digits"
	FieldCategory    = "category"
	FieldReport      = "report"
	FieldReportPath  = "report_path"
	FieldSymbols     = "symbols"
	FieldSearchQuery = "search_query"
	FieldMonth       = "month"
	FieldReason      = "reason"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentViews    = "views"
	ComponentReports  = "reports"
	ComponentSources  = "sources"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentQuotes   = "quotes"
	ComponentSettings = "settings"
	ComponentCache    = "cache"
	ComponentCLI      = "cli"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpImport   = "import"
	OpSave     = "save"
	OpPublish  = "publish"
	OpFetch    = "fetch"
	OpSearch   = "search"
	OpValidate = "validate"
	OpParse    = "parse"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
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

// WithWindow adds the bounds of an aggregation window.
func (f LogFields) WithWindow(start, end string) LogFields {
	f[FieldWindowStart] = start
	f[FieldWindowEnd] = end
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
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
