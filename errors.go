package logging

import (
	stderrs "errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyActive is returned by Start when another instance already
	// owns the process-wide logger binding.
	ErrAlreadyActive = stderrs.New("logging: another instance is already active")
	// ErrEngineClosed is returned by engine operations after shutdown began.
	ErrEngineClosed = stderrs.New("logging: dispatch engine is closed")
	// ErrUnknownSinkKind is returned when a declaration names an unsupported target kind.
	ErrUnknownSinkKind = stderrs.New("logging: unknown target kind")
)

// ConstructionError reports a target that could not be normalized while
// being added to a configuration.
type ConstructionError struct {
	Target string
	Err    error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("logging: target %q: %v", e.Target, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// ValidationFailure enumerates every rule that references a target missing
// from the configuration. InvalidTargets is reserved and currently never
// populated: a target without rules is not an error.
type ValidationFailure struct {
	Message        string
	InvalidRules   []Rule
	InvalidTargets []Target
}

func newValidationFailure(invalid []Rule) *ValidationFailure {
	names := make([]string, 0, len(invalid))
	for _, r := range invalid {
		names = append(names, r.Target)
	}
	return &ValidationFailure{
		Message:      fmt.Sprintf("%d %s: [%s]", len(invalid), errMsgInvalidRules, strings.Join(names, ", ")),
		InvalidRules: invalid,
	}
}

func (f *ValidationFailure) Error() string {
	return "logging: invalid configuration: " + f.Message
}

// PartialShutdownTimeout describes which shutdown phases ran out of budget.
// It is never returned by the shutdown procedure itself, only built on
// request by ShutdownResult.Err.
type PartialShutdownTimeout struct {
	FlushTimedOut    bool
	ShutdownTimedOut bool
}

func (e *PartialShutdownTimeout) Error() string {
	var phases []string
	if e.FlushTimedOut {
		phases = append(phases, "flush")
	}
	if e.ShutdownTimedOut {
		phases = append(phases, "shutdown")
	}
	return "logging: shutdown budget exceeded: " + strings.Join(phases, ", ")
}
