package api

import (
	"net/http"

	"github.com/cardgenio/cardgen-api/internal/api/shared"
	"github.com/cardgenio/cardgen-api/internal/domain"
	"github.com/cardgenio/cardgen-api/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// FlashcardHandler handles flashcard-related HTTP requests
type FlashcardHandler struct {
	flashcardStore store.FlashcardStore
	validator      *validator.Validate
}

// NewFlashcardHandler creates a new FlashcardHandler
func NewFlashcardHandler(flashcardStore store.FlashcardStore) *FlashcardHandler {
	return &FlashcardHandler{
		flashcardStore: flashcardStore,
		validator:      validator.New(),
	}
}

// CreateFlashcard handles POST /api/flashcards requests for manually
// created cards.
func (h *FlashcardHandler) CreateFlashcard(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateFlashcardRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	card, err := domain.NewFlashcard(userID, nil, req.Front, req.Back, domain.FlashcardSourceManual)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid flashcard content")
		return
	}

	if err := h.flashcardStore.Create(r.Context(), card); err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, flashcardToResponse(card))
}

// BatchCreateFlashcards handles POST /api/flashcards/batch requests,
// saving proposals the user accepted from a generation. Unedited
// proposals get source ai-full; edited ones get ai-edited.
func (h *FlashcardHandler) BatchCreateFlashcards(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req BatchCreateFlashcardsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	generationID, err := uuid.Parse(req.GenerationID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid generation ID")
		return
	}

	cards := make([]*domain.Flashcard, 0, len(req.Flashcards))
	for _, item := range req.Flashcards {
		source := domain.FlashcardSourceAIFull
		if item.WasEdited {
			source = domain.FlashcardSourceAIEdited
		}

		card, err := domain.NewFlashcard(userID, &generationID, item.Front, item.Back, source)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid flashcard content")
			return
		}
		cards = append(cards, card)
	}

	if err := h.flashcardStore.CreateBatch(r.Context(), cards); err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	data := make([]FlashcardResponse, 0, len(cards))
	for _, card := range cards {
		data = append(data, flashcardToResponse(card))
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, FlashcardListResponse{
		Data:       data,
		Pagination: Pagination{Total: len(data), Limit: len(data), Offset: 0},
	})
}

// ListFlashcards handles GET /api/flashcards requests with optional
// source, generation_id, search, sort_by and sort_dir filters.
func (h *FlashcardHandler) ListFlashcards(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	limit, offset := paginationParams(r)
	query := r.URL.Query()

	filter := store.FlashcardFilter{
		Source:   domain.FlashcardSource(query.Get("source")),
		Search:   query.Get("search"),
		SortBy:   query.Get("sort_by"),
		SortDesc: query.Get("sort_dir") != "asc",
		Limit:    limit,
		Offset:   offset,
	}

	if raw := query.Get("generation_id"); raw != "" {
		generationID, err := uuid.Parse(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid generation ID")
			return
		}
		filter.GenerationID = &generationID
	}

	cards, total, err := h.flashcardStore.List(r.Context(), userID, filter)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	data := make([]FlashcardResponse, 0, len(cards))
	for _, card := range cards {
		data = append(data, flashcardToResponse(card))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, FlashcardListResponse{
		Data:       data,
		Pagination: Pagination{Total: total, Limit: limit, Offset: offset},
	})
}

// GetFlashcard handles GET /api/flashcards/{id} requests
func (h *FlashcardHandler) GetFlashcard(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid flashcard ID")
		return
	}

	card, err := h.flashcardStore.GetByID(r.Context(), userID, id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, flashcardToResponse(card))
}

// UpdateFlashcard handles PUT /api/flashcards/{id} requests. Editing an
// unmodified AI card reclassifies it as ai-edited.
func (h *FlashcardHandler) UpdateFlashcard(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid flashcard ID")
		return
	}

	var req UpdateFlashcardRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	card, err := h.flashcardStore.GetByID(r.Context(), userID, id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	if err := card.UpdateContent(req.Front, req.Back); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid flashcard content")
		return
	}
	if card.Source == domain.FlashcardSourceAIFull {
		card.Source = domain.FlashcardSourceAIEdited
	}

	if err := h.flashcardStore.Update(r.Context(), card); err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, flashcardToResponse(card))
}

// DeleteFlashcard handles DELETE /api/flashcards/{id} requests
func (h *FlashcardHandler) DeleteFlashcard(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid flashcard ID")
		return
	}

	if err := h.flashcardStore.Delete(r.Context(), userID, id); err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
