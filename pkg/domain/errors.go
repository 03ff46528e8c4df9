package domain

import (
	"errors"
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrNotFound is wrapped by errors reporting a missing record.
var ErrNotFound = errors.New("not found")

// NotFound builds an error wrapping ErrNotFound for the given record.
func NotFound(entity EntityType, id string) error {
	return fmt.Errorf("%s %q %w", entity, id, ErrNotFound)
}

// ValidationError reports invalid input. Field names the offending attribute
// using its JSON name, e.g. "sire_id".
type ValidationError struct {
	Entity  EntityType
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s: %s", e.Entity, e.Message)
	}
	return fmt.Sprintf("invalid %s: %s: %s", e.Entity, e.Field, e.Message)
}

// NewValidationError builds a ValidationError.
func NewValidationError(entity EntityType, field, format string, args ...any) *ValidationError {
	return &ValidationError{Entity: entity, Field: field, Message: fmt.Sprintf(format, args...)}
}

// PolicyError reports an operation refused by a data policy, such as deleting
// the default health schedule template.
type PolicyError struct {
	Entity   EntityType
	EntityID string
	Reason   string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Entity, e.EntityID, e.Reason)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsPolicy reports whether err carries a PolicyError.
func IsPolicy(err error) bool {
	var perr *PolicyError
	return errors.As(err, &perr)
}

// fromValidation converts ozzo-validation output into a ValidationError for
// the first failing field in name order.
func fromValidation(entity EntityType, err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return &ValidationError{Entity: entity, Message: err.Error()}
	}
	fields := make([]string, 0, len(errs))
	for field, ferr := range errs {
		if ferr != nil {
			fields = append(fields, field)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	sort.Strings(fields)
	return &ValidationError{Entity: entity, Field: fields[0], Message: errs[fields[0]].Error()}
}
