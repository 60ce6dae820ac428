package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for field %q: %s", e.Field, e.Message)
}

// ValidationErrors is every problem found in one validation pass.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	var b strings.Builder
	b.WriteString("configuration validation failed:\n")
	for _, e := range es {
		fmt.Fprintf(&b, "  - %s: %s\n", e.Field, e.Message)
	}
	return b.String()
}

// Validator collects validation errors; every check is chainable.
type Validator struct {
	errors ValidationErrors
}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) add(field, message string) *Validator {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
	return v
}

// RequireNonEmpty validates that a string field is not empty
func (v *Validator) RequireNonEmpty(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "value cannot be empty")
	}
	return v
}

// RequirePositive validates that an integer field is greater than 0
func (v *Validator) RequirePositive(field string, value int) *Validator {
	if value <= 0 {
		v.add(field, fmt.Sprintf("value must be positive, got %d", value))
	}
	return v
}

func (v *Validator) RequirePositiveDuration(field string, value time.Duration) *Validator {
	if value <= 0 {
		v.add(field, fmt.Sprintf("duration must be positive, got %s", value))
	}
	return v
}

// ValidateRange validates that an integer field is within a range [min, max]
func (v *Validator) ValidateRange(field string, value, min, max int) *Validator {
	if value < min || value > max {
		v.add(field, fmt.Sprintf("value must be between %d and %d, got %d", min, max, value))
	}
	return v
}

// ValidateFloatRange validates that a float field is within a range [min, max]
func (v *Validator) ValidateFloatRange(field string, value, min, max float64) *Validator {
	if value < min || value > max {
		v.add(field, fmt.Sprintf("value must be between %.2f and %.2f, got %.2f", min, max, value))
	}
	return v
}

// ValidatePort validates that a port number is valid (1-65535)
func (v *Validator) ValidatePort(field string, port int) *Validator {
	return v.ValidateRange(field, port, 1, 65535)
}

// ValidateOneOf validates that a string value is one of the allowed options
func (v *Validator) ValidateOneOf(field string, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if a == value {
			return v
		}
	}
	return v.add(field, fmt.Sprintf("value must be one of %v, got %q", allowed, value))
}

func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Error returns the collected ValidationErrors, or nil.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return v.errors
}

func (v *Validator) Errors() []ValidationError {
	return v.errors
}
