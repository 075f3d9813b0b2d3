package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator names fields by their env var so errors point at what to fix.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("envconfig"); name != "" {
			return name
		}
		return field.Name
	})
	return v
}

// Validate checks the numeric bounds declared on each section.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s must be %s %s (got %v)", fe.Field(), bound(fe.Tag()), fe.Param(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
}

func bound(tag string) string {
	switch tag {
	case "gt":
		return ">"
	case "gte", "min":
		return ">="
	case "lte", "max":
		return "<="
	default:
		return tag
	}
}
