// Package validation provides fluent per-field validators whose failures
// aggregate into a single error, so callers see every problem at once.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Validatable is implemented by DTOs that can validate themselves.
type Validatable interface {
	Validate() error
}

// FieldError is a validation failure on a single field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Validator accumulates field errors across a set of checks.
type Validator struct {
	err error
}

// New creates an empty validator.
func New() *Validator {
	return &Validator{}
}

func (v *Validator) fail(field, format string, args ...any) *Validator {
	v.err = multierr.Append(v.err, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	return v
}

// Required fails when the value is empty after trimming whitespace.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		return v.fail(field, "is required")
	}
	return v
}

// MinLength fails when the value is shorter than min runes.
func (v *Validator) MinLength(field, value string, min int) *Validator {
	if len([]rune(value)) < min {
		return v.fail(field, "must be at least %d characters", min)
	}
	return v
}

// MaxLength fails when the value is longer than max runes.
func (v *Validator) MaxLength(field, value string, max int) *Validator {
	if len([]rune(value)) > max {
		return v.fail(field, "must be at most %d characters", max)
	}
	return v
}

// Range fails when the value falls outside [min, max].
func (v *Validator) Range(field string, value, min, max int64) *Validator {
	if value < min || value > max {
		return v.fail(field, "must be between %d and %d", min, max)
	}
	return v
}

// Positive fails when the value is not greater than zero.
func (v *Validator) Positive(field string, value int64) *Validator {
	if value <= 0 {
		return v.fail(field, "must be positive")
	}
	return v
}

// Email fails when the value is not a plausible email address.
func (v *Validator) Email(field, value string) *Validator {
	if !emailPattern.MatchString(value) {
		return v.fail(field, "must be a valid email address")
	}
	return v
}

// Pattern fails when the value does not match the expression.
func (v *Validator) Pattern(field, value string, pattern *regexp.Regexp, description string) *Validator {
	if !pattern.MatchString(value) {
		return v.fail(field, "must be %s", description)
	}
	return v
}

// Check applies an arbitrary predicate.
func (v *Validator) Check(field string, ok bool, message string) *Validator {
	if !ok {
		return v.fail(field, "%s", message)
	}
	return v
}

// Err returns the aggregated error, nil when every check passed.
func (v *Validator) Err() error {
	return v.err
}

// FieldErrors flattens an aggregated validation error into its individual
// field errors. Non-validation errors yield an empty slice.
func FieldErrors(err error) []FieldError {
	var fields []FieldError
	for _, e := range multierr.Errors(err) {
		var fe FieldError
		if ok := asFieldError(e, &fe); ok {
			fields = append(fields, fe)
		}
	}
	return fields
}

func asFieldError(err error, target *FieldError) bool {
	fe, ok := err.(FieldError)
	if ok {
		*target = fe
	}
	return ok
}
