package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Generation and GenerationErrorLog
var (
	ErrEmptyGenerationID     = errors.New("generation ID cannot be empty")
	ErrEmptyGenerationUserID = errors.New("generation user ID cannot be empty")
	ErrEmptyGenerationModel  = errors.New("generation model cannot be empty")
	ErrEmptyGenerationHash   = errors.New("generation source text hash cannot be empty")
	ErrInvalidGenerationLen  = errors.New("generation source text length must be positive")
	ErrInvalidFlashcardCount = errors.New("generated flashcard count must be positive")
	ErrEmptyErrorLogType     = errors.New("error log type cannot be empty")
)

// Generation records the metadata of one successful AI generation run.
// It is created exactly once per successful orchestration call and is
// immutable after creation. FlashcardsGenerated always equals the
// number of proposals returned to the caller.
type Generation struct {
	ID                  uuid.UUID `json:"id"`
	UserID              uuid.UUID `json:"user_id"`
	Model               string    `json:"model"`
	SourceTextLength    int       `json:"source_text_length"`
	SourceTextHash      string    `json:"source_text_hash"`
	FlashcardsGenerated int       `json:"flashcards_generated"`
	CreatedAt           time.Time `json:"created_at"`
}

// NewGeneration creates a Generation with a fresh ID and timestamp.
// Returns an error if validation fails.
func NewGeneration(
	userID uuid.UUID,
	model string,
	sourceTextLength int,
	sourceTextHash string,
	flashcardsGenerated int,
) (*Generation, error) {
	gen := &Generation{
		ID:                  uuid.New(),
		UserID:              userID,
		Model:               model,
		SourceTextLength:    sourceTextLength,
		SourceTextHash:      sourceTextHash,
		FlashcardsGenerated: flashcardsGenerated,
		CreatedAt:           time.Now().UTC(),
	}

	if err := gen.Validate(); err != nil {
		return nil, err
	}

	return gen, nil
}

// Validate checks if the Generation has valid data.
func (g *Generation) Validate() error {
	if g.ID == uuid.Nil {
		return ErrEmptyGenerationID
	}
	if g.UserID == uuid.Nil {
		return ErrEmptyGenerationUserID
	}
	if g.Model == "" {
		return ErrEmptyGenerationModel
	}
	if g.SourceTextLength <= 0 {
		return ErrInvalidGenerationLen
	}
	if g.SourceTextHash == "" {
		return ErrEmptyGenerationHash
	}
	if g.FlashcardsGenerated <= 0 {
		return ErrInvalidFlashcardCount
	}
	return nil
}

// GenerationErrorLog records one failed orchestration call. Writes are
// best-effort: a failure to persist an error log must never replace the
// error that caused it.
type GenerationErrorLog struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	Model            string    `json:"model"`
	SourceTextLength int       `json:"source_text_length"`
	SourceTextHash   string    `json:"source_text_hash"`
	ErrorType        string    `json:"error_type"`
	ErrorMessage     string    `json:"error_message"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewGenerationErrorLog creates an error log entry with a fresh ID and
// timestamp. Returns an error if validation fails.
func NewGenerationErrorLog(
	userID uuid.UUID,
	model string,
	sourceTextLength int,
	sourceTextHash string,
	errorType string,
	errorMessage string,
) (*GenerationErrorLog, error) {
	entry := &GenerationErrorLog{
		ID:               uuid.New(),
		UserID:           userID,
		Model:            model,
		SourceTextLength: sourceTextLength,
		SourceTextHash:   sourceTextHash,
		ErrorType:        errorType,
		ErrorMessage:     errorMessage,
		CreatedAt:        time.Now().UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the GenerationErrorLog has valid data.
func (e *GenerationErrorLog) Validate() error {
	if e.ID == uuid.Nil {
		return ErrEmptyGenerationID
	}
	if e.UserID == uuid.Nil {
		return ErrEmptyGenerationUserID
	}
	if e.ErrorType == "" {
		return ErrEmptyErrorLogType
	}
	return nil
}
