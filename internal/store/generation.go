package store

import (
	"context"

	"github.com/cardgenio/cardgen-api/internal/domain"
	"github.com/google/uuid"
)

// GenerationStore defines the interface for generation metadata
// persistence. Generation records are immutable once written; error
// logs are append-only and written best-effort by the caller.
type GenerationStore interface {
	// CreateGeneration saves a new generation record to the store.
	// It handles domain validation internally.
	CreateGeneration(ctx context.Context, generation *domain.Generation) error

	// CreateErrorLog saves a generation error log entry to the store.
	// Callers treat failures as non-fatal: the entry exists for audit
	// only and its loss must never mask the error being recorded.
	CreateErrorLog(ctx context.Context, entry *domain.GenerationErrorLog) error

	// GetGenerationByID retrieves a generation by its unique ID, scoped
	// to the owning user. Returns ErrGenerationNotFound if no such
	// generation exists for the user.
	GetGenerationByID(ctx context.Context, userID, id uuid.UUID) (*domain.Generation, error)

	// ListGenerationsByUser retrieves a page of the user's generations,
	// newest first, along with the total count for pagination.
	ListGenerationsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Generation, int, error)
}
