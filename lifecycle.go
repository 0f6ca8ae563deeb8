package logging

import (
	"context"
	stderrs "errors"
	"fmt"
	"time"

	"github.com/Station-Manager/errors"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// State is the lifecycle position of an Instance.
type State int32

const (
	Unstarted State = iota
	Running
	ShuttingDown
	Shutdown
)

func (s State) String() string {
	switch s {
	case Unstarted:
		return "unstarted"
	case Running:
		return "running"
	case ShuttingDown:
		return "shutting_down"
	case Shutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Instance is a started configuration. It is torn down exactly once, by
// FlushAndShutdown.
type Instance struct {
	id     string
	meta   Metadata
	engine Engine
	bound  bool

	state  atomic.Int32
	done   chan struct{}
	result ShutdownResult
}

// ID uniquely identifies the instance for the life of the process.
func (i *Instance) ID() string { return i.id }

// Metadata returns the metadata of the configuration the instance runs.
func (i *Instance) Metadata() Metadata { return i.meta }

// State reports the current lifecycle state.
func (i *Instance) State() State { return State(i.state.Load()) }

// Logger resolves a logger for the given source name.
func (i *Instance) Logger(name string) Logger {
	if i == nil || i.engine == nil {
		return noopLogger{}
	}
	return i.engine.Logger(name)
}

// Flush waits up to timeout for queued events to reach their targets.
func (i *Instance) Flush(ctx context.Context, timeout time.Duration) FlushResult {
	if i.State() != Running {
		return FlushResult{Err: ErrEngineClosed}
	}
	timedOut, err := runPhase(ctx, timeout, i.engine.Flush)
	return FlushResult{TimedOut: timedOut, Err: err}
}

// FlushResult is the outcome of a bounded flush.
type FlushResult struct {
	TimedOut bool
	Err      error
}

// ShutdownResult is the outcome of FlushAndShutdown. Timeouts are reported
// here rather than as errors; the instance is Shutdown either way.
type ShutdownResult struct {
	FlushTimedOut    bool
	ShutdownTimedOut bool
	FlushErr         error
	ShutdownErr      error
	// AlreadyShutdown is set for every call but the one that ran the teardown.
	AlreadyShutdown bool
	Elapsed         time.Duration
}

// TimedOut reports whether either phase exceeded its budget.
func (r ShutdownResult) TimedOut() bool {
	return r.FlushTimedOut || r.ShutdownTimedOut
}

// Err returns a *PartialShutdownTimeout if a phase timed out, nil otherwise.
func (r ShutdownResult) Err() error {
	if !r.TimedOut() {
		return nil
	}
	return &PartialShutdownTimeout{FlushTimedOut: r.FlushTimedOut, ShutdownTimedOut: r.ShutdownTimedOut}
}

type options struct {
	registry Registry
	detached bool
}

// Option customises Start and the top-level Configure helpers.
type Option func(*options)

// WithRegistry selects the dispatch engine implementation. The default is
// a zero LocalRegistry.
func WithRegistry(r Registry) Option {
	return func(o *options) { o.registry = r }
}

// Detached starts the instance without binding it for GetLogger; loggers
// must then be obtained from the instance or its handle.
func Detached() Option {
	return func(o *options) { o.detached = true }
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = &LocalRegistry{}
	}
	return o
}

// Start hands a validated configuration to the registry and moves the new
// instance to Running. conf must come from a successful Validate; Start
// does not check it again.
func Start(ctx context.Context, conf Configuration, opts ...Option) (*Instance, error) {
	const op errors.Op = "logging.Start"
	o := newOptions(opts)

	inst := &Instance{
		id:   uuid.NewString(),
		meta: conf.metadata,
		done: make(chan struct{}),
	}

	eng, err := o.registry.Run(ctx, conf)
	if err != nil {
		internalLogger().Error().Err(err).Str("service", conf.metadata.ServiceName).Msg(errMsgStartFailed)
		return nil, errors.New(op).Err(err).Msg(errMsgStartFailed)
	}
	inst.engine = eng

	// Fully initialised and Running before activate publishes it through Active().
	inst.bound = !o.detached
	inst.state.Store(int32(Running))
	if inst.bound {
		if err = activate(inst); err != nil {
			internalLogger().Error().Err(err).Str("service", conf.metadata.ServiceName).Msg(errMsgActivateFailed)
			discardEngine(ctx, inst)
			return nil, fmt.Errorf("logging: start %q: %w", conf.metadata.ServiceName, err)
		}
	}

	internalLogger().Info().
		Str("instance", inst.id).
		Str("service", conf.metadata.ServiceName).
		Int("targets", len(conf.targets)).
		Int("rules", len(conf.rules)).
		Bool("bound", inst.bound).
		Msg("Logging instance started.")
	return inst, nil
}

// discardEngine tears down the engine of an instance that never became
// usable, bounded by DefaultShutdownBudget.
func discardEngine(ctx context.Context, inst *Instance) {
	sctx, cancel := context.WithTimeout(ctx, DefaultShutdownBudget)
	defer cancel()
	if err := inst.engine.Shutdown(sctx); err != nil {
		internalLogger().Warn().Err(err).Str("instance", inst.id).Msg(errMsgDiscardFailed)
	}
	inst.state.Store(int32(Shutdown))
	close(inst.done)
}

// FlushAndShutdown flushes inst within flushBudget and then tears it down
// within shutdownBudget. The shutdown phase runs whatever the flush
// outcome. Overlapping calls are serialised: later callers wait for the
// first one (bounded by ctx) and get its result with AlreadyShutdown set.
func FlushAndShutdown(ctx context.Context, inst *Instance, flushBudget, shutdownBudget time.Duration) ShutdownResult {
	if inst == nil || inst.engine == nil {
		return ShutdownResult{AlreadyShutdown: true}
	}
	if !inst.state.CompareAndSwap(int32(Running), int32(ShuttingDown)) {
		select {
		case <-inst.done:
			r := inst.result
			r.AlreadyShutdown = true
			return r
		case <-ctx.Done():
			return ShutdownResult{AlreadyShutdown: true, ShutdownErr: ctx.Err()}
		}
	}

	log := internalLogger()
	log.Info().
		Str("instance", inst.id).
		Dur("flush_budget", flushBudget).
		Dur("shutdown_budget", shutdownBudget).
		Msg("Shutting down logging instance.")

	start := time.Now()
	var res ShutdownResult
	res.FlushTimedOut, res.FlushErr = runPhase(ctx, flushBudget, inst.engine.Flush)
	res.ShutdownTimedOut, res.ShutdownErr = runPhase(ctx, shutdownBudget, inst.engine.Shutdown)
	if inst.bound {
		deactivate(inst)
	}
	res.Elapsed = time.Since(start)

	inst.result = res
	inst.state.Store(int32(Shutdown))
	close(inst.done)

	log.Info().
		Str("instance", inst.id).
		Bool("flush_timed_out", res.FlushTimedOut).
		Bool("shutdown_timed_out", res.ShutdownTimedOut).
		Dur("elapsed", res.Elapsed).
		Msg("Logging instance shut down.")
	return res
}

// FlushAndShutdownAsync runs FlushAndShutdown on its own goroutine. The
// channel receives exactly one result.
func FlushAndShutdownAsync(ctx context.Context, inst *Instance, flushBudget, shutdownBudget time.Duration) <-chan ShutdownResult {
	out := make(chan ShutdownResult, 1)
	go func() {
		out <- FlushAndShutdown(ctx, inst, flushBudget, shutdownBudget)
	}()
	return out
}

// runPhase runs phase with a budget-bound context and returns as soon as
// either finishes. An exceeded deadline is reported as timedOut, not err.
func runPhase(ctx context.Context, budget time.Duration, phase func(context.Context) error) (timedOut bool, err error) {
	pctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- phase(pctx) }()

	select {
	case err = <-done:
	case <-pctx.Done():
		err = pctx.Err()
	}
	if stderrs.Is(err, context.DeadlineExceeded) {
		return true, nil
	}
	return false, err
}
