package logging

import (
	stderrs "errors"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/types"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate
var once sync.Once

func structValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks that every rule names a target present in c. On success
// c is returned unchanged; otherwise the error is a *ValidationFailure
// listing the offending rules in their original order.
func Validate(c Configuration) (Configuration, error) {
	var invalid []Rule
	for _, r := range c.rules {
		if _, ok := c.targets[r.Target]; !ok {
			invalid = append(invalid, r)
		}
	}

	log := internalLogger()
	if len(invalid) == 0 {
		log.Info().
			Str("service", c.metadata.ServiceName).
			Int("targets", len(c.targets)).
			Int("rules", len(c.rules)).
			Msg("Logging configuration validated.")
		return c, nil
	}

	failure := newValidationFailure(invalid)
	log.Error().
		Str("service", c.metadata.ServiceName).
		Int("invalid_rules", len(invalid)).
		Msg(failure.Message)
	return Configuration{}, failure
}

// Validate is shorthand for Validate(c).
func (c Configuration) Validate() (Configuration, error) {
	return Validate(c)
}

// selfValidator is implemented by sink configs with checks that struct
// tags cannot express.
type selfValidator interface {
	Validate() error
}

var errNoSinkConfig = stderrs.New("target has no sink config")

// isNilSinkConfig also catches a typed nil pointer stored in the interface.
func isNilSinkConfig(cfg SinkConfig) bool {
	if cfg == nil {
		return true
	}
	rv := reflect.ValueOf(cfg)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

func normalizeTarget(t Target) error {
	if isNilSinkConfig(t.Config) {
		return &ConstructionError{Target: t.Name, Err: errNoSinkConfig}
	}
	v := structValidator()
	if err := v.Struct(t); err != nil {
		return &ConstructionError{Target: t.Name, Err: err}
	}
	if strings.IndexFunc(t.Name, unicode.IsSpace) >= 0 {
		return &ConstructionError{Target: t.Name, Err: stderrs.New("target name contains whitespace")}
	}
	if reflect.Indirect(reflect.ValueOf(t.Config)).Kind() == reflect.Struct {
		if err := v.Struct(t.Config); err != nil {
			return &ConstructionError{Target: t.Name, Err: err}
		}
	}
	if sv, ok := t.Config.(selfValidator); ok {
		if err := sv.Validate(); err != nil {
			return &ConstructionError{Target: t.Name, Err: err}
		}
	}
	return nil
}

func validateConfig(cfg *types.LoggingConfig) error {
	const op errors.Op = "logging.validateConfig"
	if cfg == nil {
		return errors.New(op).Msg(errMsgNilConfig)
	}

	if err := structValidator().Struct(cfg); err != nil {
		return errors.New(op).Err(err).Msg(errMsgConfigInvalid)
	}
	if _, err := parseLevel(cfg.Level); err != nil {
		return errors.New(op).Err(err).Msg(errMsgBadLevel)
	}

	return nil
}
