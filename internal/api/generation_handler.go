package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cardgenio/cardgen-api/internal/api/shared"
	"github.com/cardgenio/cardgen-api/internal/generation"
	"github.com/cardgenio/cardgen-api/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// GenerationCreator is the slice of the generation service the handler
// depends on.
type GenerationCreator interface {
	CreateGeneration(ctx context.Context, sourceText string, userID uuid.UUID) (*generation.Result, error)
}

// GenerationHandler handles generation-related HTTP requests
type GenerationHandler struct {
	generationService GenerationCreator
	generationStore   store.GenerationStore
	validator         *validator.Validate
}

// NewGenerationHandler creates a new GenerationHandler
func NewGenerationHandler(
	generationService GenerationCreator,
	generationStore store.GenerationStore,
) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
		generationStore:   generationStore,
		validator:         validator.New(),
	}
}

// CreateGeneration handles POST /api/generations requests
func (h *GenerationHandler) CreateGeneration(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateGenerationRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	result, err := h.generationService.CreateGeneration(r.Context(), req.SourceText, userID)
	if err != nil {
		slog.Error("failed to create generation",
			"error", err,
			"user_id", userID,
			"source_text_length", len(req.SourceText))
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, generationResultToResponse(result))
}

// ListGenerations handles GET /api/generations requests
func (h *GenerationHandler) ListGenerations(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	limit, offset := paginationParams(r)

	generations, total, err := h.generationStore.ListGenerationsByUser(r.Context(), userID, limit, offset)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	data := make([]GenerationResponse, 0, len(generations))
	for _, gen := range generations {
		data = append(data, generationToResponse(gen))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, GenerationListResponse{
		Data:       data,
		Pagination: Pagination{Total: total, Limit: limit, Offset: offset},
	})
}

// GetGeneration handles GET /api/generations/{id} requests
func (h *GenerationHandler) GetGeneration(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid generation ID")
		return
	}

	gen, err := h.generationStore.GetGenerationByID(r.Context(), userID, id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, generationToResponse(gen))
}

// generationResultToResponse converts a generation.Result to the
// creation response DTO.
func generationResultToResponse(result *generation.Result) CreateGenerationResponse {
	proposals := make([]FlashcardProposalResponse, 0, len(result.Proposals))
	for _, p := range result.Proposals {
		proposals = append(proposals, FlashcardProposalResponse{Front: p.Front, Back: p.Back})
	}

	return CreateGenerationResponse{
		GenerationID:        result.GenerationID.String(),
		Model:               result.Model,
		SourceTextLength:    result.SourceTextLength,
		SourceTextHash:      result.SourceTextHash,
		FlashcardsGenerated: result.FlashcardsGenerated,
		CreatedAt:           result.CreatedAt,
		Proposals:           proposals,
	}
}

// paginationParams reads limit/offset query parameters with defaults.
func paginationParams(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}

	return limit, offset
}
