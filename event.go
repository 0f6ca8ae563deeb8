package logging

import (
	"time"

	"github.com/rs/zerolog"
)

// LogContext provides a fluent interface for building a context logger with pre-populated fields.
type LogContext interface {
	Str(key, val string) LogContext
	Strs(key string, vals []string) LogContext
	Int(key string, val int) LogContext
	Int64(key string, val int64) LogContext
	Bool(key string, val bool) LogContext
	Time(key string, val time.Time) LogContext
	Err(err error) LogContext
	Interface(key string, val interface{}) LogContext
	// Logger creates and returns the new context logger
	Logger() Logger
}

// LogEvent provides a fluent interface for structured logging with type-safe field methods.
// A LogEvent for a disabled level is valid and does nothing.
type LogEvent interface {
	Str(key, val string) LogEvent
	Strs(key string, vals []string) LogEvent
	Stringer(key string, val interface{ String() string }) LogEvent
	Int(key string, val int) LogEvent
	Int64(key string, val int64) LogEvent
	Uint64(key string, val uint64) LogEvent
	Float64(key string, val float64) LogEvent
	Bool(key string, val bool) LogEvent
	Time(key string, val time.Time) LogEvent
	Dur(key string, val time.Duration) LogEvent
	Err(err error) LogEvent
	AnErr(key string, err error) LogEvent
	Interface(key string, val interface{}) LogEvent
	Msg(msg string)
	Msgf(format string, v ...interface{})
	Send()
}

type logEvent struct {
	event *zerolog.Event
}

func newLogEvent(e *zerolog.Event) LogEvent {
	return &logEvent{event: e}
}

func (e *logEvent) Str(key, val string) LogEvent {
	if e.event != nil {
		e.event.Str(key, val)
	}
	return e
}

func (e *logEvent) Strs(key string, vals []string) LogEvent {
	if e.event != nil {
		e.event.Strs(key, vals)
	}
	return e
}

func (e *logEvent) Stringer(key string, val interface{ String() string }) LogEvent {
	if e.event != nil {
		e.event.Stringer(key, val)
	}
	return e
}

func (e *logEvent) Int(key string, val int) LogEvent {
	if e.event != nil {
		e.event.Int(key, val)
	}
	return e
}

func (e *logEvent) Int64(key string, val int64) LogEvent {
	if e.event != nil {
		e.event.Int64(key, val)
	}
	return e
}

func (e *logEvent) Uint64(key string, val uint64) LogEvent {
	if e.event != nil {
		e.event.Uint64(key, val)
	}
	return e
}

func (e *logEvent) Float64(key string, val float64) LogEvent {
	if e.event != nil {
		e.event.Float64(key, val)
	}
	return e
}

func (e *logEvent) Bool(key string, val bool) LogEvent {
	if e.event != nil {
		e.event.Bool(key, val)
	}
	return e
}

func (e *logEvent) Time(key string, val time.Time) LogEvent {
	if e.event != nil {
		e.event.Time(key, val)
	}
	return e
}

func (e *logEvent) Dur(key string, val time.Duration) LogEvent {
	if e.event != nil {
		e.event.Dur(key, val)
	}
	return e
}

// Err adds the error plus its cause chain: error_chain, error_root,
// error_history, error_ops and error_root_op.
func (e *logEvent) Err(err error) LogEvent {
	if e.event == nil || err == nil {
		return e
	}
	e.event.Err(err)
	chain, ops, root, rootOp := buildErrorChain(err)
	e.event.Strs("error_chain", chain).
		Str("error_root", root).
		Str("error_history", joinChain(chain)).
		Strs("error_ops", ops)
	if rootOp != emptyString {
		e.event.Str("error_root_op", rootOp)
	}
	return e
}

func (e *logEvent) AnErr(key string, err error) LogEvent {
	if e.event == nil || err == nil {
		return e
	}
	e.event.AnErr(key, err)
	chain, _, root, _ := buildErrorChain(err)
	e.event.Strs(key+"_chain", chain).Str(key+"_root", root)
	return e
}

func (e *logEvent) Interface(key string, val interface{}) LogEvent {
	if e.event != nil {
		e.event.Interface(key, val)
	}
	return e
}

func (e *logEvent) Msg(msg string) {
	if e.event != nil {
		e.event.Msg(msg)
	}
}

func (e *logEvent) Msgf(format string, v ...interface{}) {
	if e.event != nil {
		e.event.Msgf(format, v...)
	}
}

func (e *logEvent) Send() {
	if e.event != nil {
		e.event.Send()
	}
}

// zeroLogger adapts a zerolog.Logger whose writer feeds a dispatch engine.
type zeroLogger struct {
	logger zerolog.Logger
}

func (l *zeroLogger) TraceWith() LogEvent { return newLogEvent(l.logger.Trace()) }
func (l *zeroLogger) DebugWith() LogEvent { return newLogEvent(l.logger.Debug()) }
func (l *zeroLogger) InfoWith() LogEvent  { return newLogEvent(l.logger.Info()) }
func (l *zeroLogger) WarnWith() LogEvent  { return newLogEvent(l.logger.Warn()) }
func (l *zeroLogger) ErrorWith() LogEvent { return newLogEvent(l.logger.Error()) }

func (l *zeroLogger) With() LogContext {
	return &logContext{context: l.logger.With()}
}

type logContext struct {
	context zerolog.Context
}

func (c *logContext) Str(key, val string) LogContext {
	c.context = c.context.Str(key, val)
	return c
}

func (c *logContext) Strs(key string, vals []string) LogContext {
	c.context = c.context.Strs(key, vals)
	return c
}

func (c *logContext) Int(key string, val int) LogContext {
	c.context = c.context.Int(key, val)
	return c
}

func (c *logContext) Int64(key string, val int64) LogContext {
	c.context = c.context.Int64(key, val)
	return c
}

func (c *logContext) Bool(key string, val bool) LogContext {
	c.context = c.context.Bool(key, val)
	return c
}

func (c *logContext) Time(key string, val time.Time) LogContext {
	c.context = c.context.Time(key, val)
	return c
}

func (c *logContext) Err(err error) LogContext {
	c.context = c.context.Err(err)
	return c
}

func (c *logContext) Interface(key string, val interface{}) LogContext {
	c.context = c.context.Interface(key, val)
	return c
}

func (c *logContext) Logger() Logger {
	return &zeroLogger{logger: c.context.Logger()}
}

type noopLogContext struct{}

func (n *noopLogContext) Str(string, string) LogContext            { return n }
func (n *noopLogContext) Strs(string, []string) LogContext         { return n }
func (n *noopLogContext) Int(string, int) LogContext               { return n }
func (n *noopLogContext) Int64(string, int64) LogContext           { return n }
func (n *noopLogContext) Bool(string, bool) LogContext             { return n }
func (n *noopLogContext) Time(string, time.Time) LogContext        { return n }
func (n *noopLogContext) Err(error) LogContext                     { return n }
func (n *noopLogContext) Interface(string, interface{}) LogContext { return n }
func (n *noopLogContext) Logger() Logger                           { return noopLogger{} }

type noopLogger struct{}

func (noopLogger) TraceWith() LogEvent { return newLogEvent(nil) }
func (noopLogger) DebugWith() LogEvent { return newLogEvent(nil) }
func (noopLogger) InfoWith() LogEvent  { return newLogEvent(nil) }
func (noopLogger) WarnWith() LogEvent  { return newLogEvent(nil) }
func (noopLogger) ErrorWith() LogEvent { return newLogEvent(nil) }
func (noopLogger) With() LogContext    { return &noopLogContext{} }
