package logging

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// threadSafeBuffer is a bytes.Buffer guarded for concurrent writers.
type threadSafeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *threadSafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *threadSafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// captureInternal redirects the internal channel into a buffer for one test.
func captureInternal(t *testing.T) *threadSafeBuffer {
	t.Helper()
	prev := internal.Load()
	buf := &threadSafeBuffer{}
	SetInternalLogger(zerolog.New(buf))
	t.Cleanup(func() { internal.Store(prev) })
	return buf
}

type memorySink struct {
	mu       sync.Mutex
	msgs     []*Message
	closed   int
	flushed  int
	writeErr error
}

func (s *memorySink) Write(msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *memorySink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushed++
	return nil
}

func (s *memorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *memorySink) messages() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func (s *memorySink) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// memoryConfig is a SinkConfig handing out a prepared memorySink.
type memoryConfig struct {
	sink     *memorySink
	buildErr error
}

func (c memoryConfig) Kind() string { return "memory" }

func (c memoryConfig) Build(Metadata) (Sink, error) {
	if c.buildErr != nil {
		return nil, c.buildErr
	}
	return c.sink, nil
}

func memoryTarget(name string) (Target, *memorySink) {
	s := &memorySink{}
	return Target{Name: name, Config: memoryConfig{sink: s}}, s
}

// fakeEngine stands in for a dispatch engine with controllable latency.
type fakeEngine struct {
	flushDelay    time.Duration
	shutdownDelay time.Duration
	shutdownErr   error
	flushCalls    atomic.Int32
	shutdownCalls atomic.Int32
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *fakeEngine) Metadata() Metadata        { return Metadata{ServiceName: "fake"} }
func (e *fakeEngine) Logger(name string) Logger { return noopLogger{} }

func (e *fakeEngine) Flush(ctx context.Context) error {
	e.flushCalls.Inc()
	return sleepCtx(ctx, e.flushDelay)
}

func (e *fakeEngine) Shutdown(ctx context.Context) error {
	e.shutdownCalls.Inc()
	if err := sleepCtx(ctx, e.shutdownDelay); err != nil {
		return err
	}
	return e.shutdownErr
}

type fakeRegistry struct {
	engine *fakeEngine
	runErr error
	runs   atomic.Int32
}

func (r *fakeRegistry) Run(context.Context, Configuration) (Engine, error) {
	r.runs.Inc()
	if r.runErr != nil {
		return nil, r.runErr
	}
	return r.engine, nil
}

func debugRule(target string) Rule {
	return Rule{Target: target, Source: AnySource, Level: zerolog.DebugLevel}
}

// startDetached starts conf on a LocalRegistry and shuts it down at cleanup.
func startDetached(t *testing.T, conf Configuration) *Instance {
	t.Helper()
	inst, err := Start(context.Background(), conf, Detached())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { FlushAndShutdown(context.Background(), inst, time.Second, time.Second) })
	return inst
}
