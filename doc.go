// Package logging assembles and runs a routed logging setup: named targets
// (sinks), rules that route log sources to targets above a minimum level,
// and a managed lifecycle around the running result.
//
// Key features
//   - Immutable Configuration with copy-on-write builders
//   - Validation that every rule names an existing target, reporting all
//     offending rules at once
//   - Two-phase bounded shutdown (flush, then teardown) whose timeouts are
//     reported as data and never abort the teardown
//   - A Handle that shuts down exactly once however often it is closed
//   - Console, rolling file (lumberjack), debugger and Beats targets
//   - Structured-first zerolog API with error chain enrichment
//
// Typical usage
//
//	h, err := logging.Configure("billing",
//		[]logging.Target{{Name: "console", Config: logging.ConsoleSink{}}},
//		[]logging.Rule{{Target: "console", Source: logging.AnySource, Level: zerolog.DebugLevel}},
//	)
//	if err != nil { panic(err) }
//	defer h.Close()
//
//	log := h.GetLogger("billing.invoices")
//	log.InfoWith().Str("invoice", id).Msg("issued")
//
// Package-level loggers obtained with GetLogger follow whichever instance is
// currently bound and stay silent while none is.
package logging
