package logging

import (
	"path"

	"github.com/rs/zerolog"
)

// Metadata is process-wide descriptive data attached to every routed event.
type Metadata struct {
	ServiceName string `mapstructure:"service"`
}

// Target is a named sink descriptor. Config is the sink-specific payload;
// the sink itself is only built once the configuration is started.
type Target struct {
	Name   string `validate:"required"`
	Config SinkConfig
}

// TargetEntry pairs a target with its runtime sink. Runtime is nil in every
// configuration produced by the builder.
type TargetEntry struct {
	Target
	Runtime Sink
}

// Rule routes events whose source matches Source and whose level is at
// least Level to the target named Target.
type Rule struct {
	Target string
	Source string
	Level  zerolog.Level
}

// NewRule builds a rule from a level name such as "debug" or "warn".
// An empty source matches everything.
func NewRule(target, source, level string) (Rule, error) {
	l, err := parseLevel(level)
	if err != nil {
		return Rule{}, err
	}
	if source != emptyString {
		if _, err = path.Match(source, emptyString); err != nil {
			return Rule{}, err
		}
	}
	return Rule{Target: target, Source: source, Level: l}, nil
}

// Matches reports whether an event from source at level should be routed by r.
func (r Rule) Matches(source string, level zerolog.Level) bool {
	return level >= r.Level && r.matchesSource(source)
}

func (r Rule) matchesSource(source string) bool {
	if r.Source == emptyString || r.Source == AnySource {
		return true
	}
	ok, err := path.Match(r.Source, source)
	return err == nil && ok
}

// Configuration is an immutable set of targets, rules and metadata. Builder
// methods return a new value and never change the receiver.
type Configuration struct {
	rules    []Rule
	targets  map[string]TargetEntry
	metadata Metadata
}

// NewConfiguration returns an empty configuration for serviceName.
func NewConfiguration(serviceName string) Configuration {
	return Configuration{
		rules:    []Rule{},
		targets:  map[string]TargetEntry{},
		metadata: Metadata{ServiceName: serviceName},
	}
}

// Metadata returns the configuration's process metadata.
func (c Configuration) Metadata() Metadata { return c.metadata }

// Rules returns a copy of the rules, most recently added first.
func (c Configuration) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Targets returns a copy of the target table.
func (c Configuration) Targets() map[string]TargetEntry {
	out := make(map[string]TargetEntry, len(c.targets))
	for k, v := range c.targets {
		out[k] = v
	}
	return out
}

// Target looks up a single target by name.
func (c Configuration) Target(name string) (TargetEntry, bool) {
	t, ok := c.targets[name]
	return t, ok
}

// AddTarget inserts t, replacing any target with the same name.
func (c Configuration) AddTarget(t Target) Configuration {
	targets := c.Targets()
	targets[t.Name] = TargetEntry{Target: t}
	return Configuration{rules: c.rules, targets: targets, metadata: c.metadata}
}

// AddTargets normalizes and inserts each target in order. The first target
// that fails normalization aborts the batch with a *ConstructionError and
// the receiver is returned unchanged.
func (c Configuration) AddTargets(ts ...Target) (Configuration, error) {
	next := c
	for _, t := range ts {
		if err := normalizeTarget(t); err != nil {
			return c, err
		}
		next = next.AddTarget(t)
	}
	return next, nil
}

// AddRule places r ahead of every existing rule.
func (c Configuration) AddRule(r Rule) Configuration {
	return c.AddRules(r)
}

// AddRules places rs, in the given order, ahead of every existing rule.
func (c Configuration) AddRules(rs ...Rule) Configuration {
	rules := make([]Rule, 0, len(rs)+len(c.rules))
	rules = append(rules, rs...)
	rules = append(rules, c.rules...)
	return Configuration{rules: rules, targets: c.targets, metadata: c.metadata}
}
