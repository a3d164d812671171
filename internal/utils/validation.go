package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Validator represents a validation function
type Validator[T any] func(T) error

// ValidatorChain allows chaining multiple validators
type ValidatorChain[T any] struct {
	validators []Validator[T]
}

// NewValidatorChain creates a new validator chain
func NewValidatorChain[T any](validators ...Validator[T]) *ValidatorChain[T] {
	return &ValidatorChain[T]{validators: validators}
}

// Add adds a validator to the chain
func (vc *ValidatorChain[T]) Add(validator Validator[T]) *ValidatorChain[T] {
	vc.validators = append(vc.validators, validator)
	return vc
}

// Validate runs the validators in order and stops at the first failure
func (vc *ValidatorChain[T]) Validate(value T) error {
	for _, validator := range vc.validators {
		if err := validator(value); err != nil {
			return err
		}
	}
	return nil
}

// NotBlank validates that a string has non-whitespace content
func NotBlank(field string) Validator[string] {
	return func(value string) error {
		if strings.TrimSpace(value) == "" {
			return ValidationError{Field: field, Value: value, Message: "cannot be empty"}
		}
		return nil
	}
}

// OneOfFold validates that a string equals one of allowed, ignoring case
func OneOfFold(field string, allowed ...string) Validator[string] {
	return func(value string) error {
		for _, a := range allowed {
			if strings.EqualFold(strings.TrimSpace(value), a) {
				return nil
			}
		}
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
		}
	}
}

// AtLeast validates that an int is not below min
func AtLeast(field string, min int) Validator[int] {
	return func(value int) error {
		if value < min {
			return ValidationError{Field: field, Value: value, Message: fmt.Sprintf("must be at least %d", min)}
		}
		return nil
	}
}

var (
	identifierPattern    = regexp.MustCompile(`^@?[\p{L}_][\p{L}\p{N}_]*$`)
	qualifiedNamePattern = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*(\.[\p{L}_][\p{L}\p{N}_]*)*$`)
)

// IsIdentifier validates a C# identifier such as an attribute or
// interface name
func IsIdentifier(field string) Validator[string] {
	return func(value string) error {
		if !identifierPattern.MatchString(value) {
			return ValidationError{Field: field, Value: value, Message: "must be a C# identifier"}
		}
		return nil
	}
}

// IsQualifiedName validates a dotted namespace name
func IsQualifiedName(field string) Validator[string] {
	return func(value string) error {
		if !qualifiedNamePattern.MatchString(value) {
			return ValidationError{Field: field, Value: value, Message: "must be a dotted namespace name"}
		}
		return nil
	}
}

// Custom validates using a custom function
func Custom[T any](field string, message string, validatorFunc func(T) bool) Validator[T] {
	return func(value T) error {
		if !validatorFunc(value) {
			return ValidationError{
				Field:   field,
				Value:   value,
				Message: message,
			}
		}
		return nil
	}
}
