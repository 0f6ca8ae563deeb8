package logging

// Logger is the structured logging API handed out by a running instance.
// Events below every matching rule's level are disabled and cost nothing.
type Logger interface {
	TraceWith() LogEvent
	DebugWith() LogEvent
	InfoWith() LogEvent
	WarnWith() LogEvent
	ErrorWith() LogEvent

	// With creates a child logger whose fields are included in every event.
	// Example: reqLogger := logger.With().Str("request_id", id).Logger()
	With() LogContext
}
