package logging

import (
	"context"
	stderrs "errors"
	"fmt"
	"sync"
	"time"

	"github.com/Station-Manager/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// Registry turns a validated configuration into a running Engine.
type Registry interface {
	Run(ctx context.Context, conf Configuration) (Engine, error)
}

// Engine routes log events to the targets of one running configuration.
type Engine interface {
	Metadata() Metadata
	// Logger resolves a logger for the given source name.
	Logger(name string) Logger
	// Flush returns once every event accepted before the call reached its
	// targets and buffered sinks were flushed, or ctx is done.
	Flush(ctx context.Context) error
	// Shutdown stops accepting events, drains the queue and closes every
	// sink. Calls after the first wait for the same teardown.
	Shutdown(ctx context.Context) error
}

// LocalRegistry runs an in-process engine with a single dispatch goroutine.
// The zero value is ready to use.
type LocalRegistry struct {
	// QueueSize bounds the number of events waiting for dispatch.
	QueueSize int
	// Registerer receives the engine's metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer
}

type queueItem struct {
	msg     *Message
	barrier chan error
}

type engine struct {
	meta    Metadata
	rules   []Rule
	sinks   map[string]Sink
	queue   chan queueItem
	metrics *engineMetrics

	mu           sync.RWMutex
	closed       atomic.Bool
	workerDone   chan struct{}
	shutdownOnce sync.Once
	shutdownDone chan struct{}
	shutdownErr  error
}

// Run builds every target's sink and starts dispatching. If any sink fails
// to build, the ones already built are closed again.
func (r *LocalRegistry) Run(ctx context.Context, conf Configuration) (Engine, error) {
	const op errors.Op = "logging.LocalRegistry.Run"

	sinks := make(map[string]Sink, len(conf.targets))
	for name, entry := range conf.targets {
		if err := ctx.Err(); err != nil {
			closeSinks(sinks)
			return nil, errors.New(op).Err(err).Msg(errMsgSinkBuildFailed)
		}
		if isNilSinkConfig(entry.Config) {
			closeSinks(sinks)
			cerr := &ConstructionError{Target: name, Err: errNoSinkConfig}
			return nil, errors.New(op).Err(cerr).Msg(errMsgSinkBuildFailed)
		}
		s, err := entry.Config.Build(conf.metadata)
		if err != nil {
			closeSinks(sinks)
			return nil, errors.New(op).Err(&ConstructionError{Target: name, Err: err}).Msg(errMsgSinkBuildFailed)
		}
		sinks[name] = s
	}

	size := r.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	e := &engine{
		meta:         conf.metadata,
		rules:        conf.Rules(),
		sinks:        sinks,
		queue:        make(chan queueItem, size),
		metrics:      newEngineMetrics(r.Registerer),
		workerDone:   make(chan struct{}),
		shutdownDone: make(chan struct{}),
	}
	go e.dispatchLoop()
	return e, nil
}

func closeSinks(sinks map[string]Sink) error {
	var errs []error
	for name, s := range sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close target %q: %w", name, err))
		}
	}
	return stderrs.Join(errs...)
}

func (e *engine) Metadata() Metadata { return e.meta }

// Logger returns a logger whose level is the lowest level of any rule
// matching name; with no matching rule every level is disabled.
func (e *engine) Logger(name string) Logger {
	level := zerolog.Disabled
	for _, r := range e.rules {
		if r.matchesSource(name) && r.Level < level {
			level = r.Level
		}
	}
	zl := zerolog.New(&engineWriter{engine: e, source: name}).
		Level(level).
		With().
		Timestamp().
		Str("service", e.meta.ServiceName).
		Str("logger", name).
		Logger()
	return &zeroLogger{logger: zl}
}

func (e *engine) enqueue(msg *Message) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed.Load() {
		e.metrics.dropped.WithLabelValues("closed").Inc()
		return ErrEngineClosed
	}
	e.queue <- queueItem{msg: msg}
	return nil
}

func (e *engine) dispatchLoop() {
	defer close(e.workerDone)
	for it := range e.queue {
		if it.barrier != nil {
			it.barrier <- e.flushSinks()
			continue
		}
		e.dispatch(it.msg)
	}
}

// dispatch delivers msg at most once to every target with a matching rule.
func (e *engine) dispatch(msg *Message) {
	var delivered []string
	for _, r := range e.rules {
		if !r.Matches(msg.Source, msg.Level) || contains(delivered, r.Target) {
			continue
		}
		delivered = append(delivered, r.Target)
		sink, ok := e.sinks[r.Target]
		if !ok {
			continue
		}
		if err := sink.Write(msg); err != nil {
			e.metrics.sinkErrors.WithLabelValues(r.Target).Inc()
			continue
		}
		e.metrics.routed.WithLabelValues(r.Target).Inc()
	}
	if len(delivered) == 0 {
		e.metrics.dropped.WithLabelValues("unrouted").Inc()
	}
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func (e *engine) flushSinks() error {
	var errs []error
	for name, s := range e.sinks {
		f, ok := s.(Flusher)
		if !ok {
			continue
		}
		if err := f.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush target %q: %w", name, err))
		}
	}
	return stderrs.Join(errs...)
}

func (e *engine) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	barrier := make(chan error, 1)

	e.mu.RLock()
	if e.closed.Load() {
		e.mu.RUnlock()
		return ErrEngineClosed
	}
	select {
	case e.queue <- queueItem{barrier: barrier}:
	case <-ctx.Done():
		e.mu.RUnlock()
		return ctx.Err()
	}
	e.mu.RUnlock()

	select {
	case err := <-barrier:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *engine) Shutdown(ctx context.Context) error {
	e.shutdownOnce.Do(func() { go e.teardown() })
	select {
	case <-e.shutdownDone:
		return e.shutdownErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *engine) teardown() {
	e.mu.Lock()
	e.closed.Store(true)
	close(e.queue)
	e.mu.Unlock()

	<-e.workerDone
	e.shutdownErr = closeSinks(e.sinks)
	close(e.shutdownDone)
}

// engineWriter is the zerolog sink of every logger resolved from an engine.
type engineWriter struct {
	engine *engine
	source string
}

func (w *engineWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.NoLevel, p)
}

// WriteLevel copies p because zerolog reuses the buffer once it returns.
// Events arriving after shutdown are counted and discarded.
func (w *engineWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	payload := make([]byte, len(p))
	copy(payload, p)
	_ = w.engine.enqueue(&Message{
		Time:    time.Now(),
		Source:  w.source,
		Level:   level,
		Payload: payload,
	})
	return len(p), nil
}

type engineMetrics struct {
	routed     *prometheus.CounterVec
	dropped    *prometheus.CounterVec
	sinkErrors *prometheus.CounterVec
}

func newEngineCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func newEngineMetrics(reg prometheus.Registerer) *engineMetrics {
	return &engineMetrics{
		routed:     registerCounterVec(reg, newEngineCounterVec("messages_routed_total", "Messages written to a target", []string{"target"})),
		dropped:    registerCounterVec(reg, newEngineCounterVec("messages_dropped_total", "Messages not written to any target", []string{"reason"})),
		sinkErrors: registerCounterVec(reg, newEngineCounterVec("sink_errors_total", "Failed writes per target", []string{"target"})),
	}
}

// registerCounterVec registers cv, reusing an identical collector that a
// previous engine already registered with reg.
func registerCounterVec(reg prometheus.Registerer, cv *prometheus.CounterVec) *prometheus.CounterVec {
	if reg == nil {
		return cv
	}
	err := reg.Register(cv)
	if err == nil {
		return cv
	}
	var are prometheus.AlreadyRegisteredError
	if stderrs.As(err, &are) {
		if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
			return existing
		}
	}
	internalLogger().Warn().Err(err).Msg("Dispatch metrics could not be registered.")
	return cv
}
