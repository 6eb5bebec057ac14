package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced exam, question, option or
	// answer does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrConstraintViolation marks a write that would break an aggregate rule,
	// such as a payload of the wrong kind or a second formula answer.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrNoFieldsToUpdate is returned by question and option updates that carry
	// no field. It matches ErrNotFound: no record is returned.
	ErrNoFieldsToUpdate = noFieldsError{}
)

type noFieldsError struct{}

func (noFieldsError) Error() string { return "no fields to update" }

func (noFieldsError) Is(target error) bool { return target == ErrNotFound }

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type ConstraintError struct {
	Reason string
}

func (e *ConstraintError) Error() string { return e.Reason }

func (e *ConstraintError) Is(target error) bool { return target == ErrConstraintViolation }

func notFound(entity string, id uint) error {
	return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
}
