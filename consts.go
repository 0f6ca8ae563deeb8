package logging

import "time"

const (
	// DefaultFlushBudget bounds the flush phase of an ordinary process-exit shutdown.
	DefaultFlushBudget = 15 * time.Second
	// DefaultShutdownBudget bounds the teardown phase of an ordinary process-exit shutdown.
	DefaultShutdownBudget = 15 * time.Second

	// AnySource matches every logger name.
	AnySource = "*"

	// Target names used by DefaultTopology.
	ConsoleTargetName  = "console"
	DebuggerTargetName = "debugger"

	defaultQueueSize = 1024
	emptyString      = ""
	metricsNamespace = "logroute"
	metricsSubsystem = "dispatch"
)

const (
	errMsgNilConfig        = "Logging config is nil."
	errMsgConfigInvalid    = "Logging configuration is invalid."
	errMsgStartFailed      = "Failed to start the dispatch engine."
	errMsgActivateFailed   = "Failed to bind the running instance."
	errMsgDiscardFailed    = "Failed to tear down the rejected dispatch engine."
	errMsgLogDirFailed     = "Failed to create logs directory."
	errMsgBadLevel         = "Invalid logging level."
	errMsgNoChannels       = "No logging channels enabled."
	errMsgSinkBuildFailed  = "Failed to build target sink."
	errMsgInvalidRules     = "rule(s) reference unknown targets"
	errMsgDeclarationEmpty = "Declaration has no service name."
)
