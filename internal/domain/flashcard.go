package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// FlashcardSource records how a flashcard came to exist.
type FlashcardSource string

// Possible flashcard sources
const (
	// FlashcardSourceManual marks a card the user typed in by hand.
	FlashcardSourceManual FlashcardSource = "manual"

	// FlashcardSourceAIFull marks an AI proposal saved unchanged.
	FlashcardSourceAIFull FlashcardSource = "ai-full"

	// FlashcardSourceAIEdited marks an AI proposal the user edited
	// before saving.
	FlashcardSourceAIEdited FlashcardSource = "ai-edited"
)

// Flashcard content bounds, shared by domain validation and the API
// request validators.
const (
	FlashcardFrontMaxLength = 200
	FlashcardBackMaxLength  = 500
)

// Common validation errors for Flashcard
var (
	ErrEmptyFlashcardID       = errors.New("flashcard ID cannot be empty")
	ErrEmptyFlashcardUserID   = errors.New("flashcard user ID cannot be empty")
	ErrEmptyFlashcardFront    = errors.New("flashcard front cannot be empty")
	ErrEmptyFlashcardBack     = errors.New("flashcard back cannot be empty")
	ErrFlashcardFrontTooLong  = errors.New("flashcard front exceeds maximum length")
	ErrFlashcardBackTooLong   = errors.New("flashcard back exceeds maximum length")
	ErrInvalidFlashcardSource = errors.New("invalid flashcard source")
)

// FlashcardProposal is a generated front/back pair before it is
// persisted. It has no identity until a caller saves it.
type FlashcardProposal struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Flashcard is a persisted study card owned by a user. GenerationID is
// set when the card originated from an AI generation run.
type Flashcard struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	GenerationID *uuid.UUID      `json:"generation_id,omitempty"`
	Front        string          `json:"front"`
	Back         string          `json:"back"`
	Source       FlashcardSource `json:"source"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewFlashcard creates a Flashcard with a fresh ID and timestamps.
// generationID may be nil for manually created cards.
// Returns an error if validation fails.
func NewFlashcard(
	userID uuid.UUID,
	generationID *uuid.UUID,
	front, back string,
	source FlashcardSource,
) (*Flashcard, error) {
	now := time.Now().UTC()
	card := &Flashcard{
		ID:           uuid.New(),
		UserID:       userID,
		GenerationID: generationID,
		Front:        front,
		Back:         back,
		Source:       source,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Flashcard has valid data.
func (f *Flashcard) Validate() error {
	if f.ID == uuid.Nil {
		return ErrEmptyFlashcardID
	}
	if f.UserID == uuid.Nil {
		return ErrEmptyFlashcardUserID
	}
	if f.Front == "" {
		return ErrEmptyFlashcardFront
	}
	if len(f.Front) > FlashcardFrontMaxLength {
		return ErrFlashcardFrontTooLong
	}
	if f.Back == "" {
		return ErrEmptyFlashcardBack
	}
	if len(f.Back) > FlashcardBackMaxLength {
		return ErrFlashcardBackTooLong
	}
	if !isValidFlashcardSource(f.Source) {
		return ErrInvalidFlashcardSource
	}
	return nil
}

// UpdateContent replaces the card's front/back text and bumps the
// updated timestamp. Returns an error if the new content is invalid.
func (f *Flashcard) UpdateContent(front, back string) error {
	updated := *f
	updated.Front = front
	updated.Back = back
	if err := updated.Validate(); err != nil {
		return err
	}

	f.Front = front
	f.Back = back
	f.UpdatedAt = time.Now().UTC()
	return nil
}

// isValidFlashcardSource checks if the given source is a valid FlashcardSource.
func isValidFlashcardSource(source FlashcardSource) bool {
	switch source {
	case FlashcardSourceManual, FlashcardSourceAIFull, FlashcardSourceAIEdited:
		return true
	default:
		return false
	}
}
