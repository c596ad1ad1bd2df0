package store

import (
	"context"

	"github.com/cardgenio/cardgen-api/internal/domain"
	"github.com/google/uuid"
)

// FlashcardFilter narrows and pages a flashcard list query. The zero
// value lists everything owned by the user, newest first.
type FlashcardFilter struct {
	// Source restricts results to one flashcard source when non-empty.
	Source domain.FlashcardSource

	// GenerationID restricts results to cards from one generation run.
	GenerationID *uuid.UUID

	// Search matches front or back text case-insensitively when non-empty.
	Search string

	// SortBy is one of "created_at" or "updated_at"; invalid values fall
	// back to created_at.
	SortBy string

	// SortDesc orders descending when true.
	SortDesc bool

	Limit  int
	Offset int
}

// FlashcardStore defines the interface for flashcard persistence.
type FlashcardStore interface {
	// Create saves a new flashcard to the store.
	// It handles domain validation internally.
	Create(ctx context.Context, card *domain.Flashcard) error

	// CreateBatch saves multiple flashcards in one operation. Either all
	// cards are saved or none are.
	CreateBatch(ctx context.Context, cards []*domain.Flashcard) error

	// GetByID retrieves a flashcard by its unique ID, scoped to the
	// owning user. Returns ErrFlashcardNotFound if no such flashcard
	// exists for the user.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Flashcard, error)

	// Update saves changes to an existing flashcard.
	// Returns ErrFlashcardNotFound if the flashcard does not exist.
	Update(ctx context.Context, card *domain.Flashcard) error

	// Delete removes a flashcard owned by the user.
	// Returns ErrFlashcardNotFound if the flashcard does not exist.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// List retrieves a page of the user's flashcards matching the
	// filter, along with the total match count for pagination.
	List(ctx context.Context, userID uuid.UUID, filter FlashcardFilter) ([]*domain.Flashcard, int, error)
}
