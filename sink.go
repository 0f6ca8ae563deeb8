package logging

import (
	"time"

	"github.com/rs/zerolog"
)

// Message is one encoded log event on its way to a target.
// Payload is a single zerolog JSON object terminated by a newline.
type Message struct {
	Time    time.Time
	Source  string
	Level   zerolog.Level
	Payload []byte
}

// Sink receives routed messages for one target.
// Write is only ever called from the engine's dispatch goroutine.
type Sink interface {
	Write(msg *Message) error
	Close() error
}

// Flusher is implemented by sinks that buffer writes.
type Flusher interface {
	Flush() error
}

// SinkConfig is the sink-specific part of a Target. Build is called once
// when the configuration is started.
type SinkConfig interface {
	Kind() string
	Build(meta Metadata) (Sink, error)
}
