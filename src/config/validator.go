package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/elee1766/aisummary/src/aisdk"
)

// Validator validates configuration values using go-playground/validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("role", validateRole)
	v.RegisterValidation("log_level", validateLogLevel)
	v.RegisterValidation("log_format", validateLogFormat)

	return &Validator{
		validate: v,
	}
}

// Validate validates a complete configuration. The first failing field is
// reported as a ValidationError.
func (v *Validator) Validate(config *Config) error {
	if err := v.validate.Struct(config); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			e := validationErrors[0]
			field := strings.TrimPrefix(e.Namespace(), "Config.")
			return ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%s: validation failed on tag '%s' with value '%v'", field, e.Tag(), e.Value()),
				Value:   e.Value(),
			}
		}
		return err
	}
	return nil
}

// validateRole validates chat message roles
func validateRole(fl validator.FieldLevel) bool {
	return slices.Contains([]string{aisdk.RoleSystem, aisdk.RoleUser, aisdk.RoleAssistant}, fl.Field().String())
}

// validateLogLevel validates log level values
func validateLogLevel(fl validator.FieldLevel) bool {
	value := strings.ToLower(fl.Field().String())
	if value == "" {
		return true
	}
	return slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, value)
}

// validateLogFormat validates log format values
func validateLogFormat(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return slices.Contains([]string{"json", "text"}, value)
}
