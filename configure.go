package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// Configure builds a configuration from targets and rules, validates it,
// starts it and wraps the running instance in a Handle. A rejected
// configuration is returned as *ValidationFailure (or *ConstructionError
// for a bad target) and nothing is started.
func Configure(serviceName string, targets []Target, rules []Rule, opts ...Option) (*Handle, error) {
	return WithConfiguration(serviceName, func(c Configuration) (Configuration, error) {
		c, err := c.AddTargets(targets...)
		if err != nil {
			return c, err
		}
		return c.AddRules(rules...), nil
	}, opts...)
}

// WithConfiguration passes an empty configuration for serviceName to build
// and starts whatever it returns once validated.
func WithConfiguration(serviceName string, build func(Configuration) (Configuration, error), opts ...Option) (*Handle, error) {
	conf, err := build(NewConfiguration(serviceName))
	if err != nil {
		return nil, err
	}
	if conf, err = Validate(conf); err != nil {
		return nil, err
	}
	inst, err := Start(context.Background(), conf, opts...)
	if err != nil {
		return nil, err
	}
	return newHandle(inst), nil
}

// DefaultTopology returns the canned configuration: a console target and a
// debugger target, each receiving every source from debug up. A non-nil
// network target is added with its own rule from info up.
func DefaultTopology(serviceName string, network *Target) (Configuration, error) {
	targets := []Target{
		{Name: ConsoleTargetName, Config: ConsoleSink{}},
		{Name: DebuggerTargetName, Config: DebuggerSink{}},
	}
	rules := []Rule{
		{Target: ConsoleTargetName, Source: AnySource, Level: zerolog.DebugLevel},
		{Target: DebuggerTargetName, Source: AnySource, Level: zerolog.DebugLevel},
	}
	if network != nil {
		targets = append(targets, *network)
		rules = append(rules, Rule{Target: network.Name, Source: AnySource, Level: zerolog.InfoLevel})
	}

	conf, err := NewConfiguration(serviceName).AddTargets(targets...)
	if err != nil {
		return conf, err
	}
	return conf.AddRules(rules...), nil
}

// ConfigureDefault starts DefaultTopology.
func ConfigureDefault(serviceName string, network *Target, opts ...Option) (*Handle, error) {
	return WithConfiguration(serviceName, func(Configuration) (Configuration, error) {
		return DefaultTopology(serviceName, network)
	}, opts...)
}
