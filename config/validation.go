package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// structValidator returns the shared validator. Field names in errors are the
// koanf keys, so messages point at what the user actually writes.
func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		if err := v.RegisterValidation("environment", func(fl validator.FieldLevel) bool {
			_, ok := LookupEnvironment(fl.Field().String())
			return ok
		}); err != nil {
			panic(fmt.Sprintf("config: register environment validator: %v", err))
		}
		validate = v
	})
	return validate
}

// Validate checks cfg and reports the first problem as a *ConfigError.
func Validate(cfg *Config) error {
	if err := structValidator().Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldError(fieldErrs[0])
		}
		return err
	}

	b := cfg.Dispatch.Backoff
	if b.Strategy != "none" && b.Delay <= 0 {
		return NewInvalidFieldError("dispatch.backoff.delay",
			fmt.Sprintf("must be positive when strategy is %s", b.Strategy), nil)
	}
	if cfg.Observability.Enabled {
		obs := cfg.ObservabilityConfig()
		obs.ApplyDefaults()
		if err := obs.Validate(); err != nil {
			return NewInvalidFieldError("observability", err.Error(), nil)
		}
	}
	return nil
}

// fieldError maps a validator failure onto a ConfigError keyed by the koanf path.
func fieldError(fe validator.FieldError) *ConfigError {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return NewMissingFieldError(field)
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("invalid value %q", fe.Value()), strings.Fields(fe.Param()))
	case "environment":
		return NewInvalidFieldError(field, fmt.Sprintf("unknown environment %q", fe.Value()), EnvironmentNames())
	case "http_url":
		return NewInvalidFieldError(field, fmt.Sprintf("%q is not an absolute http(s) URL", fe.Value()), nil)
	case "gt":
		return NewInvalidFieldError(field, fmt.Sprintf("must be greater than %s, got %v", fe.Param(), fe.Value()), nil)
	case "gte":
		return NewInvalidFieldError(field, fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value()), nil)
	default:
		return NewInvalidFieldError(field, fmt.Sprintf("failed %s validation", fe.Tag()), nil)
	}
}
