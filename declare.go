package logging

import (
	"fmt"
	"time"

	"github.com/Station-Manager/errors"
)

// Declaration is the file form of a configuration, decoded with
// mapstructure (for example by viper):
//
//	service: billing
//	targets:
//	  - name: console
//	    kind: console
//	  - name: audit
//	    kind: file
//	    path: logs/audit.log
//	rules:
//	  - target: console
//	    level: debug
//	  - target: audit
//	    source: "billing.*"
//	    level: info
type Declaration struct {
	Service string       `mapstructure:"service"`
	Targets []TargetDecl `mapstructure:"targets"`
	Rules   []RuleDecl   `mapstructure:"rules"`
}

// TargetDecl declares one target. Only the fields of its Kind are used.
type TargetDecl struct {
	Name string `mapstructure:"name"`
	Kind string `mapstructure:"kind"`

	NoColor    bool   `mapstructure:"no_color"`
	TimeFormat string `mapstructure:"time_format"`

	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`

	Always bool `mapstructure:"always"`

	Address          string        `mapstructure:"address"`
	Timeout          time.Duration `mapstructure:"timeout"`
	CompressionLevel int           `mapstructure:"compression_level"`
}

// RuleDecl declares one rule; Level is a level name such as "info".
type RuleDecl struct {
	Target string `mapstructure:"target"`
	Source string `mapstructure:"source"`
	Level  string `mapstructure:"level"`
}

// Target converts the declaration into a Target.
func (d TargetDecl) Target() (Target, error) {
	var cfg SinkConfig
	switch d.Kind {
	case KindConsole:
		cfg = ConsoleSink{NoColor: d.NoColor, TimeFormat: d.TimeFormat}
	case KindFile:
		cfg = FileSink{
			Path:       d.Path,
			MaxSizeMB:  d.MaxSizeMB,
			MaxBackups: d.MaxBackups,
			MaxAgeDays: d.MaxAgeDays,
			Compress:   d.Compress,
		}
	case KindDebugger:
		cfg = DebuggerSink{Always: d.Always}
	case KindBeats:
		cfg = BeatsSink{Address: d.Address, Timeout: d.Timeout, CompressionLevel: d.CompressionLevel}
	default:
		return Target{}, &ConstructionError{Target: d.Name, Err: fmt.Errorf("%w: %q", ErrUnknownSinkKind, d.Kind)}
	}
	return Target{Name: d.Name, Config: cfg}, nil
}

// Configuration builds the declared configuration. Rules keep their
// declared order. The result still has to be validated.
func (d Declaration) Configuration() (Configuration, error) {
	const op errors.Op = "logging.Declaration.Configuration"
	if d.Service == emptyString {
		return Configuration{}, errors.New(op).Msg(errMsgDeclarationEmpty)
	}

	targets := make([]Target, 0, len(d.Targets))
	for _, td := range d.Targets {
		t, err := td.Target()
		if err != nil {
			return Configuration{}, err
		}
		targets = append(targets, t)
	}
	conf, err := NewConfiguration(d.Service).AddTargets(targets...)
	if err != nil {
		return Configuration{}, err
	}

	rules := make([]Rule, 0, len(d.Rules))
	for i, rd := range d.Rules {
		r, err := NewRule(rd.Target, rd.Source, rd.Level)
		if err != nil {
			return Configuration{}, fmt.Errorf("logging: rule %d (target %q): %w", i, rd.Target, err)
		}
		rules = append(rules, r)
	}
	return conf.AddRules(rules...), nil
}
