package maps

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/salesmap/internal/schema"
)

// ErrorCode categorizes map errors.
type ErrorCode string

const (
	// ErrCodePrecondition indicates a parent or library was not ready.
	ErrCodePrecondition ErrorCode = "PRECONDITION_FAILED"

	// ErrCodeDuplicateID indicates an id already used within its parent.
	ErrCodeDuplicateID ErrorCode = "DUPLICATE_ID"

	// ErrCodeLocationUnreachable indicates a location that stays outside the
	// viewport at the minimum zoom.
	ErrCodeLocationUnreachable ErrorCode = "LOCATION_UNREACHABLE"

	// ErrCodeNotFound indicates an id that is not registered.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeSurfaceDeleted indicates an animation cut short by Delete.
	ErrCodeSurfaceDeleted ErrorCode = "SURFACE_DELETED"
)

// Error is raised by surface, layer and feature operations.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Entity is the kind of thing being created or addressed
	// ("surface", "marker layer", "polygon", ...).
	Entity string

	// ID identifies the entity, when known.
	ID string

	// Missing names the absent dependency of a precondition failure.
	Missing string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if e.ID != "" {
		fmt.Fprintf(&b, " (%s=%s)", e.Entity, e.ID)
	}
	if e.Missing != "" {
		fmt.Fprintf(&b, " (missing=%s)", e.Missing)
	}
	return b.String()
}

func newPreconditionError(entity, id, missing string) *Error {
	return &Error{
		Code:    ErrCodePrecondition,
		Entity:  entity,
		ID:      id,
		Missing: missing,
		Message: fmt.Sprintf("cannot create %s before %s is ready", entity, missing),
	}
}

func newDuplicateError(entity, id, parent string) *Error {
	return &Error{
		Code:    ErrCodeDuplicateID,
		Entity:  entity,
		ID:      id,
		Message: fmt.Sprintf("%s id already used in %s", entity, parent),
	}
}

func newNotFoundError(entity, id string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Entity:  entity,
		ID:      id,
		Message: entity + " not found",
	}
}

func hasCode(err error, code ErrorCode) bool {
	var me *Error
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}

// IsPreconditionError returns true if err is a precondition failure.
func IsPreconditionError(err error) bool {
	return hasCode(err, ErrCodePrecondition)
}

// IsDuplicateError returns true if err is a duplicate id error.
func IsDuplicateError(err error) bool {
	return hasCode(err, ErrCodeDuplicateID)
}

// IsUnreachableError returns true if a location could not be revealed.
func IsUnreachableError(err error) bool {
	return hasCode(err, ErrCodeLocationUnreachable)
}

// IsNotFoundError returns true if an addressed id is not registered.
func IsNotFoundError(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsSurfaceDeletedError returns true if an animation stopped because its
// surface was deleted.
func IsSurfaceDeletedError(err error) bool {
	return hasCode(err, ErrCodeSurfaceDeleted)
}

// ValidationError reports feature attributes that do not match their
// schema. Layer and Kind name the layer the feature was being added to.
type ValidationError struct {
	Layer    string
	Kind     Kind
	Feature  string
	Problems []schema.FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return fmt.Sprintf("invalid attributes for %s %q in %s layer %q: %s",
		e.Kind, e.Feature, e.Kind, e.Layer, strings.Join(parts, "; "))
}

// IsValidationError returns true if err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
