package logging

import (
	"context"
	"time"

	"go.uber.org/atomic"
)

// Handle owns a running Instance on behalf of the host application.
// Close shuts the instance down with the default budgets; after an
// explicit Shutdown it does nothing.
//
//	h, err := logging.Configure("svc", targets, rules)
//	if err != nil { return err }
//	defer h.Close()
type Handle struct {
	inst     *Instance
	disposed atomic.Bool
}

func newHandle(inst *Instance) *Handle {
	return &Handle{inst: inst}
}

// Instance exposes the wrapped instance.
func (h *Handle) Instance() *Instance { return h.inst }

// ID returns the wrapped instance's ID.
func (h *Handle) ID() string { return h.inst.ID() }

// Metadata returns the running configuration's metadata.
func (h *Handle) Metadata() Metadata { return h.inst.Metadata() }

// State reports the wrapped instance's lifecycle state.
func (h *Handle) State() State { return h.inst.State() }

// GetLogger resolves a logger for the given source name.
func (h *Handle) GetLogger(name string) Logger { return h.inst.Logger(name) }

// Flush waits up to timeout for queued events to reach their targets.
func (h *Handle) Flush(timeout time.Duration) FlushResult {
	return h.inst.Flush(context.Background(), timeout)
}

// Shutdown flushes within flushBudget and tears down within shutdownBudget.
func (h *Handle) Shutdown(ctx context.Context, flushBudget, shutdownBudget time.Duration) ShutdownResult {
	return FlushAndShutdown(ctx, h.inst, flushBudget, shutdownBudget)
}

// ShutdownDefault is Shutdown with DefaultFlushBudget and DefaultShutdownBudget.
func (h *Handle) ShutdownDefault(ctx context.Context) ShutdownResult {
	return h.Shutdown(ctx, DefaultFlushBudget, DefaultShutdownBudget)
}

// Close disposes of the handle. Only the first call does anything.
func (h *Handle) Close() error {
	if h == nil || !h.disposed.CompareAndSwap(false, true) {
		return nil
	}
	if h.inst.State() != Running {
		return nil
	}
	h.ShutdownDefault(context.Background())
	return nil
}
