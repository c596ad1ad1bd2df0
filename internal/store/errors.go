package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in
	// the store. This is the generic form of the entity-specific not
	// found errors below.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidEntity is returned when an entity fails validation
	// before being stored, including foreign-key violations surfaced by
	// the database. Check the wrapped error for details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update operation fails.
	ErrUpdateFailed = errors.New("update failed")

	// ErrDeleteFailed is returned when a delete operation fails.
	ErrDeleteFailed = errors.New("delete failed")

	// Entity-specific "not found" errors

	// ErrGenerationNotFound indicates that the requested generation does
	// not exist in the store.
	ErrGenerationNotFound = fmt.Errorf("%w: generation", ErrNotFound)

	// ErrFlashcardNotFound indicates that the requested flashcard does
	// not exist in the store.
	ErrFlashcardNotFound = fmt.Errorf("%w: flashcard", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
