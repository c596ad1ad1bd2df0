package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cardgenio/cardgen-api/internal/api/shared"
	"github.com/cardgenio/cardgen-api/internal/domain"
	"github.com/cardgenio/cardgen-api/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockFlashcardStore is a mock implementation of store.FlashcardStore
// for testing
type MockFlashcardStore struct {
	CreateFn      func(ctx context.Context, card *domain.Flashcard) error
	CreateBatchFn func(ctx context.Context, cards []*domain.Flashcard) error
	GetByIDFn     func(ctx context.Context, userID, id uuid.UUID) (*domain.Flashcard, error)
	UpdateFn      func(ctx context.Context, card *domain.Flashcard) error
	DeleteFn      func(ctx context.Context, userID, id uuid.UUID) error
	ListFn        func(ctx context.Context, userID uuid.UUID, filter store.FlashcardFilter) ([]*domain.Flashcard, int, error)
}

func (m *MockFlashcardStore) Create(ctx context.Context, card *domain.Flashcard) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, card)
	}
	return nil
}

func (m *MockFlashcardStore) CreateBatch(ctx context.Context, cards []*domain.Flashcard) error {
	if m.CreateBatchFn != nil {
		return m.CreateBatchFn(ctx, cards)
	}
	return nil
}

func (m *MockFlashcardStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Flashcard, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, userID, id)
	}
	return nil, store.ErrFlashcardNotFound
}

func (m *MockFlashcardStore) Update(ctx context.Context, card *domain.Flashcard) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, card)
	}
	return nil
}

func (m *MockFlashcardStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, userID, id)
	}
	return nil
}

func (m *MockFlashcardStore) List(
	ctx context.Context,
	userID uuid.UUID,
	filter store.FlashcardFilter,
) ([]*domain.Flashcard, int, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, userID, filter)
	}
	return nil, 0, nil
}

// authedRequest builds a request carrying the user ID and, optionally,
// a chi route parameter.
func authedRequest(method, target string, body *bytes.Buffer, userID uuid.UUID, paramID string) *http.Request {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
	if paramID != "" {
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("id", paramID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	}
	return req.WithContext(ctx)
}

func encodeBody(t *testing.T, payload interface{}) *bytes.Buffer {
	t.Helper()
	var body bytes.Buffer
	require.NoError(t, json.NewEncoder(&body).Encode(payload))
	return &body
}

func TestFlashcardHandler_CreateFlashcard(t *testing.T) {
	userID := uuid.New()

	t.Run("success", func(t *testing.T) {
		var created *domain.Flashcard
		flashcardStore := &MockFlashcardStore{
			CreateFn: func(ctx context.Context, card *domain.Flashcard) error {
				created = card
				return nil
			},
		}
		handler := NewFlashcardHandler(flashcardStore)

		body := encodeBody(t, CreateFlashcardRequest{Front: "What is Go?", Back: "A language"})
		recorder := httptest.NewRecorder()
		handler.CreateFlashcard(recorder, authedRequest(http.MethodPost, "/api/flashcards", body, userID, ""))

		assert.Equal(t, http.StatusCreated, recorder.Code)
		require.NotNil(t, created)
		assert.Equal(t, userID, created.UserID)
		assert.Equal(t, domain.FlashcardSourceManual, created.Source)
		assert.Nil(t, created.GenerationID)

		var resp FlashcardResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		assert.Equal(t, "What is Go?", resp.Front)
		assert.Equal(t, "manual", resp.Source)
		assert.Nil(t, resp.GenerationID)
	})

	t.Run("front_too_long", func(t *testing.T) {
		handler := NewFlashcardHandler(&MockFlashcardStore{})

		body := encodeBody(t, CreateFlashcardRequest{
			Front: strings.Repeat("x", domain.FlashcardFrontMaxLength+1),
			Back:  "back",
		})
		recorder := httptest.NewRecorder()
		handler.CreateFlashcard(recorder, authedRequest(http.MethodPost, "/api/flashcards", body, userID, ""))

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("missing_user", func(t *testing.T) {
		handler := NewFlashcardHandler(&MockFlashcardStore{})

		body := encodeBody(t, CreateFlashcardRequest{Front: "f", Back: "b"})
		req := httptest.NewRequest(http.MethodPost, "/api/flashcards", body)
		recorder := httptest.NewRecorder()
		handler.CreateFlashcard(recorder, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestFlashcardHandler_BatchCreateFlashcards(t *testing.T) {
	userID := uuid.New()
	generationID := uuid.New()

	t.Run("sets_source_from_was_edited", func(t *testing.T) {
		var created []*domain.Flashcard
		flashcardStore := &MockFlashcardStore{
			CreateBatchFn: func(ctx context.Context, cards []*domain.Flashcard) error {
				created = cards
				return nil
			},
		}
		handler := NewFlashcardHandler(flashcardStore)

		body := encodeBody(t, BatchCreateFlashcardsRequest{
			GenerationID: generationID.String(),
			Flashcards: []BatchFlashcardItem{
				{Front: "Q1", Back: "A1", WasEdited: false},
				{Front: "Q2", Back: "A2", WasEdited: true},
			},
		})
		recorder := httptest.NewRecorder()
		handler.BatchCreateFlashcards(recorder,
			authedRequest(http.MethodPost, "/api/flashcards/batch", body, userID, ""))

		assert.Equal(t, http.StatusCreated, recorder.Code)
		require.Len(t, created, 2)
		assert.Equal(t, domain.FlashcardSourceAIFull, created[0].Source)
		assert.Equal(t, domain.FlashcardSourceAIEdited, created[1].Source)
		require.NotNil(t, created[0].GenerationID)
		assert.Equal(t, generationID, *created[0].GenerationID)
	})

	t.Run("empty_batch_rejected", func(t *testing.T) {
		handler := NewFlashcardHandler(&MockFlashcardStore{})

		body := encodeBody(t, BatchCreateFlashcardsRequest{
			GenerationID: generationID.String(),
			Flashcards:   []BatchFlashcardItem{},
		})
		recorder := httptest.NewRecorder()
		handler.BatchCreateFlashcards(recorder,
			authedRequest(http.MethodPost, "/api/flashcards/batch", body, userID, ""))

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("unknown_generation_rejected", func(t *testing.T) {
		flashcardStore := &MockFlashcardStore{
			CreateBatchFn: func(ctx context.Context, cards []*domain.Flashcard) error {
				return store.ErrInvalidEntity
			},
		}
		handler := NewFlashcardHandler(flashcardStore)

		body := encodeBody(t, BatchCreateFlashcardsRequest{
			GenerationID: generationID.String(),
			Flashcards:   []BatchFlashcardItem{{Front: "Q", Back: "A"}},
		})
		recorder := httptest.NewRecorder()
		handler.BatchCreateFlashcards(recorder,
			authedRequest(http.MethodPost, "/api/flashcards/batch", body, userID, ""))

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestFlashcardHandler_ListFlashcards(t *testing.T) {
	userID := uuid.New()
	generationID := uuid.New()

	cards := []*domain.Flashcard{
		{ID: uuid.New(), UserID: userID, Front: "Q1", Back: "A1", Source: domain.FlashcardSourceAIFull},
		{ID: uuid.New(), UserID: userID, Front: "Q2", Back: "A2", Source: domain.FlashcardSourceManual},
	}

	var captured store.FlashcardFilter
	flashcardStore := &MockFlashcardStore{
		ListFn: func(ctx context.Context, gotUserID uuid.UUID, filter store.FlashcardFilter) ([]*domain.Flashcard, int, error) {
			assert.Equal(t, userID, gotUserID)
			captured = filter
			return cards, 2, nil
		},
	}
	handler := NewFlashcardHandler(flashcardStore)

	target := "/api/flashcards?source=ai-full&search=mitochondria&sort_by=updated_at&sort_dir=asc" +
		"&generation_id=" + generationID.String()
	recorder := httptest.NewRecorder()
	handler.ListFlashcards(recorder, authedRequest(http.MethodGet, target, nil, userID, ""))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, domain.FlashcardSourceAIFull, captured.Source)
	assert.Equal(t, "mitochondria", captured.Search)
	assert.Equal(t, "updated_at", captured.SortBy)
	assert.False(t, captured.SortDesc)
	require.NotNil(t, captured.GenerationID)
	assert.Equal(t, generationID, *captured.GenerationID)

	var resp FlashcardListResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, 2, resp.Pagination.Total)
}

func TestFlashcardHandler_UpdateFlashcard(t *testing.T) {
	userID := uuid.New()
	cardID := uuid.New()

	t.Run("edit_reclassifies_ai_full", func(t *testing.T) {
		var updated *domain.Flashcard
		flashcardStore := &MockFlashcardStore{
			GetByIDFn: func(ctx context.Context, gotUserID, id uuid.UUID) (*domain.Flashcard, error) {
				card, err := domain.NewFlashcard(userID, nil, "old front", "old back", domain.FlashcardSourceAIFull)
				require.NoError(t, err)
				card.ID = cardID
				return card, nil
			},
			UpdateFn: func(ctx context.Context, card *domain.Flashcard) error {
				updated = card
				return nil
			},
		}
		handler := NewFlashcardHandler(flashcardStore)

		body := encodeBody(t, UpdateFlashcardRequest{Front: "new front", Back: "new back"})
		recorder := httptest.NewRecorder()
		handler.UpdateFlashcard(recorder,
			authedRequest(http.MethodPut, "/api/flashcards/"+cardID.String(), body, userID, cardID.String()))

		assert.Equal(t, http.StatusOK, recorder.Code)
		require.NotNil(t, updated)
		assert.Equal(t, "new front", updated.Front)
		assert.Equal(t, domain.FlashcardSourceAIEdited, updated.Source,
			"editing an unmodified AI card reclassifies it")
	})

	t.Run("manual_card_stays_manual", func(t *testing.T) {
		var updated *domain.Flashcard
		flashcardStore := &MockFlashcardStore{
			GetByIDFn: func(ctx context.Context, gotUserID, id uuid.UUID) (*domain.Flashcard, error) {
				return domain.NewFlashcard(userID, nil, "old front", "old back", domain.FlashcardSourceManual)
			},
			UpdateFn: func(ctx context.Context, card *domain.Flashcard) error {
				updated = card
				return nil
			},
		}
		handler := NewFlashcardHandler(flashcardStore)

		body := encodeBody(t, UpdateFlashcardRequest{Front: "new front", Back: "new back"})
		recorder := httptest.NewRecorder()
		handler.UpdateFlashcard(recorder,
			authedRequest(http.MethodPut, "/api/flashcards/"+cardID.String(), body, userID, cardID.String()))

		assert.Equal(t, http.StatusOK, recorder.Code)
		require.NotNil(t, updated)
		assert.Equal(t, domain.FlashcardSourceManual, updated.Source)
	})

	t.Run("not_found", func(t *testing.T) {
		handler := NewFlashcardHandler(&MockFlashcardStore{})

		body := encodeBody(t, UpdateFlashcardRequest{Front: "f", Back: "b"})
		recorder := httptest.NewRecorder()
		handler.UpdateFlashcard(recorder,
			authedRequest(http.MethodPut, "/api/flashcards/"+cardID.String(), body, userID, cardID.String()))

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestFlashcardHandler_DeleteFlashcard(t *testing.T) {
	userID := uuid.New()
	cardID := uuid.New()

	t.Run("success", func(t *testing.T) {
		var deleted uuid.UUID
		flashcardStore := &MockFlashcardStore{
			DeleteFn: func(ctx context.Context, gotUserID, id uuid.UUID) error {
				assert.Equal(t, userID, gotUserID)
				deleted = id
				return nil
			},
		}
		handler := NewFlashcardHandler(flashcardStore)

		recorder := httptest.NewRecorder()
		handler.DeleteFlashcard(recorder,
			authedRequest(http.MethodDelete, "/api/flashcards/"+cardID.String(), nil, userID, cardID.String()))

		assert.Equal(t, http.StatusNoContent, recorder.Code)
		assert.Equal(t, cardID, deleted)
	})

	t.Run("not_found", func(t *testing.T) {
		flashcardStore := &MockFlashcardStore{
			DeleteFn: func(ctx context.Context, gotUserID, id uuid.UUID) error {
				return store.ErrFlashcardNotFound
			},
		}
		handler := NewFlashcardHandler(flashcardStore)

		recorder := httptest.NewRecorder()
		handler.DeleteFlashcard(recorder,
			authedRequest(http.MethodDelete, "/api/flashcards/"+cardID.String(), nil, userID, cardID.String()))

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("invalid_id", func(t *testing.T) {
		handler := NewFlashcardHandler(&MockFlashcardStore{})

		recorder := httptest.NewRecorder()
		handler.DeleteFlashcard(recorder,
			authedRequest(http.MethodDelete, "/api/flashcards/nope", nil, userID, "nope"))

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}
