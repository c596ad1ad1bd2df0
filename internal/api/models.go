package api

import (
	"time"

	"github.com/cardgenio/cardgen-api/internal/domain"
)

// Common request/response structures

// Source text bounds for generation requests. Texts shorter than the
// minimum produce too few distinct facts; longer texts blow the token
// budget.
const (
	SourceTextMinLength = 1000
	SourceTextMaxLength = 10000
)

// CreateGenerationRequest defines the payload for the generation endpoint.
type CreateGenerationRequest struct {
	SourceText string `json:"source_text" validate:"required,min=1000,max=10000"`
}

// FlashcardProposalResponse is one AI-proposed flashcard, not yet saved.
type FlashcardProposalResponse struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// CreateGenerationResponse defines the successful response for the
// generation endpoint: the persisted metadata plus the proposals.
type CreateGenerationResponse struct {
	GenerationID        string                      `json:"generation_id"`
	Model               string                      `json:"model"`
	SourceTextLength    int                         `json:"source_text_length"`
	SourceTextHash      string                      `json:"source_text_hash"`
	FlashcardsGenerated int                         `json:"flashcards_generated"`
	CreatedAt           time.Time                   `json:"created_at"`
	Proposals           []FlashcardProposalResponse `json:"proposals"`
}

// GenerationResponse represents a stored generation record.
type GenerationResponse struct {
	ID                  string    `json:"id"`
	Model               string    `json:"model"`
	SourceTextLength    int       `json:"source_text_length"`
	SourceTextHash      string    `json:"source_text_hash"`
	FlashcardsGenerated int       `json:"flashcards_generated"`
	CreatedAt           time.Time `json:"created_at"`
}

// CreateFlashcardRequest defines the payload for manually creating a
// single flashcard.
type CreateFlashcardRequest struct {
	Front string `json:"front" validate:"required,max=200"`
	Back  string `json:"back"  validate:"required,max=500"`
}

// BatchFlashcardItem is one accepted proposal in a batch save request.
// WasEdited marks proposals the user changed before accepting.
type BatchFlashcardItem struct {
	Front     string `json:"front"      validate:"required,max=200"`
	Back      string `json:"back"       validate:"required,max=500"`
	WasEdited bool   `json:"was_edited"`
}

// BatchCreateFlashcardsRequest defines the payload for saving accepted
// proposals from a generation.
type BatchCreateFlashcardsRequest struct {
	GenerationID string               `json:"generation_id" validate:"required,uuid"`
	Flashcards   []BatchFlashcardItem `json:"flashcards"    validate:"required,min=1,dive"`
}

// UpdateFlashcardRequest defines the payload for editing a flashcard.
type UpdateFlashcardRequest struct {
	Front string `json:"front" validate:"required,max=200"`
	Back  string `json:"back"  validate:"required,max=500"`
}

// FlashcardResponse represents a stored flashcard.
type FlashcardResponse struct {
	ID           string    `json:"id"`
	GenerationID *string   `json:"generation_id,omitempty"`
	Front        string    `json:"front"`
	Back         string    `json:"back"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Pagination carries list paging metadata.
type Pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// FlashcardListResponse is the envelope for flashcard list results.
type FlashcardListResponse struct {
	Data       []FlashcardResponse `json:"data"`
	Pagination Pagination          `json:"pagination"`
}

// GenerationListResponse is the envelope for generation list results.
type GenerationListResponse struct {
	Data       []GenerationResponse `json:"data"`
	Pagination Pagination           `json:"pagination"`
}

// flashcardToResponse converts a domain.Flashcard to its DTO.
func flashcardToResponse(card *domain.Flashcard) FlashcardResponse {
	resp := FlashcardResponse{
		ID:        card.ID.String(),
		Front:     card.Front,
		Back:      card.Back,
		Source:    string(card.Source),
		CreatedAt: card.CreatedAt,
		UpdatedAt: card.UpdatedAt,
	}
	if card.GenerationID != nil {
		id := card.GenerationID.String()
		resp.GenerationID = &id
	}
	return resp
}

// generationToResponse converts a domain.Generation to its DTO.
func generationToResponse(gen *domain.Generation) GenerationResponse {
	return GenerationResponse{
		ID:                  gen.ID.String(),
		Model:               gen.Model,
		SourceTextLength:    gen.SourceTextLength,
		SourceTextHash:      gen.SourceTextHash,
		FlashcardsGenerated: gen.FlashcardsGenerated,
		CreatedAt:           gen.CreatedAt,
	}
}
