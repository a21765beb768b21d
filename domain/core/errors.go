package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Selection errors
	ErrInsufficientData = errors.New("insufficient data for selection")
	ErrInvalidRange     = errors.New("invalid range")

	// Lookup errors
	ErrUnknownID       = errors.New("unknown id")
	ErrUnknownCategory = errors.New("unknown category")

	// Table and matrix errors
	ErrEmptyTable    = errors.New("table has no samples")
	ErrInvalidMatrix = errors.New("invalid distance matrix")
	ErrInvalidTable  = errors.New("invalid table")

	// Aggregation errors
	ErrEmptyCloud        = errors.New("no iteration produced usable coordinates")
	ErrEmptyGroup        = errors.New("group has no members")
	ErrOrdinationTimeout = errors.New("ordination timed out")
)

// Error constructors with context
func NewInsufficientDataError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInsufficientData, reason)
}

func NewInvalidRangeError(field string, reason string) error {
	return fmt.Errorf("%w for %s: %s", ErrInvalidRange, field, reason)
}

func NewUnknownIDError(where string, id string) error {
	return fmt.Errorf("%w: %s not found in %s", ErrUnknownID, id, where)
}

func NewUnknownCategoryError(id string, category string) error {
	return fmt.Errorf("%w: %s has no value for %s", ErrUnknownCategory, id, category)
}

func NewInvalidMatrixError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidMatrix, reason)
}

func NewInvalidTableError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidTable, reason)
}

func NewEmptyGroupError(group string) error {
	return fmt.Errorf("%w: %s", ErrEmptyGroup, group)
}

func NewOrdinationTimeoutError(iteration int, err error) error {
	return fmt.Errorf("%w at iteration %d: %v", ErrOrdinationTimeout, iteration, err)
}

// Error checking helpers
func IsLookupError(err error) bool {
	return errors.Is(err, ErrUnknownID) ||
		errors.Is(err, ErrUnknownCategory)
}

// IsSelectionError reports failures the caller should answer by relaxing the
// selection criteria rather than retrying.
func IsSelectionError(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrEmptyTable)
}

func IsRecoverable(err error) bool {
	return errors.Is(err, ErrOrdinationTimeout)
}
