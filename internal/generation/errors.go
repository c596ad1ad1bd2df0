package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrEmptySourceText is returned when the source text is empty.
	ErrEmptySourceText = errors.New("source text cannot be empty")

	// ErrEmptyUserID is returned when no user identity is supplied.
	ErrEmptyUserID = errors.New("user ID cannot be empty")

	// ErrGenerationFailed is returned when the AI service fails to
	// produce usable flashcard proposals. The underlying completion
	// client error is wrapped.
	ErrGenerationFailed = errors.New("failed to generate flashcards from source text")

	// ErrProposalCountMismatch is returned when the model returns a
	// number of proposals different from the requested count.
	ErrProposalCountMismatch = errors.New("unexpected flashcard proposal count")

	// ErrGenerationInsertFailed is returned when the generation metadata
	// record cannot be persisted. Distinct from AI-generation failures.
	ErrGenerationInsertFailed = errors.New("failed to insert generation record")
)
