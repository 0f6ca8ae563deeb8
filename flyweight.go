package logging

import (
	"sync"

	"go.uber.org/atomic"
)

// active is the process-wide binding used by GetLogger. At most one
// instance may hold it at a time.
var active atomic.Pointer[Instance]

func activate(inst *Instance) error {
	if !active.CompareAndSwap(nil, inst) {
		return ErrAlreadyActive
	}
	return nil
}

func deactivate(inst *Instance) {
	active.CompareAndSwap(inst, nil)
}

// Active returns the instance currently bound for GetLogger, or nil.
func Active() *Instance {
	return active.Load()
}

// GetLogger returns a logger for name that follows the process-wide
// binding: it logs through whichever instance is active when an event is
// created and does nothing while none is. Safe to store in package-level
// variables before the framework is configured.
func GetLogger(name string) Logger {
	return &flyweight{name: name}
}

// flyweight caches the logger resolved from the last instance it saw.
type flyweight struct {
	name string

	mu     sync.Mutex
	owner  *Instance
	logger Logger
}

func (f *flyweight) resolve() Logger {
	inst := active.Load()
	if inst == nil {
		return noopLogger{}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.owner != inst {
		f.owner = inst
		f.logger = inst.Logger(f.name)
	}
	return f.logger
}

func (f *flyweight) TraceWith() LogEvent { return f.resolve().TraceWith() }
func (f *flyweight) DebugWith() LogEvent { return f.resolve().DebugWith() }
func (f *flyweight) InfoWith() LogEvent  { return f.resolve().InfoWith() }
func (f *flyweight) WarnWith() LogEvent  { return f.resolve().WarnWith() }
func (f *flyweight) ErrorWith() LogEvent { return f.resolve().ErrorWith() }
func (f *flyweight) With() LogContext    { return f.resolve().With() }
