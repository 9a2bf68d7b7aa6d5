package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound matches every *NotFoundError via errors.Is.
	ErrNotFound = errors.New("not found")

	ErrMissingDate   = errors.New("date is required")
	ErrInvalidDate   = errors.New("invalid date, expected YYYY-MM-DD")
	ErrMissingAmount = errors.New("amount is required")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidID     = errors.New("invalid id")
)

// ValidationError reports malformed or missing input. Nothing is written
// when one is returned.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

// NotFoundError reports an update against an id that does not exist.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("expense %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidateID rejects non-positive ids.
func ValidateID(id int64) error {
	if id <= 0 {
		return &ValidationError{Field: "id", Err: ErrInvalidID}
	}
	return nil
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
