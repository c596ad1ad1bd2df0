package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/cardgenio/cardgen-api/internal/domain"
	"github.com/cardgenio/cardgen-api/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockChatClient is a mock implementation of ChatClient for testing
type MockChatClient struct {
	SendChatCompletionFn func(ctx context.Context, messages []ChatMessage, opts *ChatCompletionOptions) (any, error)
	Calls                int
}

// SendChatCompletion implements ChatClient
func (m *MockChatClient) SendChatCompletion(
	ctx context.Context,
	messages []ChatMessage,
	opts *ChatCompletionOptions,
) (any, error) {
	m.Calls++
	if m.SendChatCompletionFn != nil {
		return m.SendChatCompletionFn(ctx, messages, opts)
	}
	return nil, nil
}

// MockGenerationStore is a mock implementation of store.GenerationStore
// for testing
type MockGenerationStore struct {
	CreateGenerationFn func(ctx context.Context, generation *domain.Generation) error
	CreateErrorLogFn   func(ctx context.Context, entry *domain.GenerationErrorLog) error

	CreatedGenerations []*domain.Generation
	ErrorLogs          []*domain.GenerationErrorLog
}

func (m *MockGenerationStore) CreateGeneration(ctx context.Context, generation *domain.Generation) error {
	if m.CreateGenerationFn != nil {
		if err := m.CreateGenerationFn(ctx, generation); err != nil {
			return err
		}
	}
	m.CreatedGenerations = append(m.CreatedGenerations, generation)
	return nil
}

func (m *MockGenerationStore) CreateErrorLog(ctx context.Context, entry *domain.GenerationErrorLog) error {
	if m.CreateErrorLogFn != nil {
		if err := m.CreateErrorLogFn(ctx, entry); err != nil {
			return err
		}
	}
	m.ErrorLogs = append(m.ErrorLogs, entry)
	return nil
}

func (m *MockGenerationStore) GetGenerationByID(
	ctx context.Context,
	userID, id uuid.UUID,
) (*domain.Generation, error) {
	return nil, store.ErrGenerationNotFound
}

func (m *MockGenerationStore) ListGenerationsByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Generation, int, error) {
	return nil, 0, nil
}

// proposalsAnswer builds a decoded model answer with count flashcards.
func proposalsAnswer(count int) map[string]any {
	cards := make([]any, 0, count)
	for i := 0; i < count; i++ {
		cards = append(cards, map[string]any{
			"front": fmt.Sprintf("Question %d", i+1),
			"back":  fmt.Sprintf("Answer %d", i+1),
		})
	}
	return map[string]any{"flashcards": cards}
}

func newTestService(
	t *testing.T,
	client ChatClient,
	genStore store.GenerationStore,
	count int,
) *GenerationService {
	t.Helper()

	svc, err := NewGenerationService(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		client,
		genStore,
		Options{Model: "openai/gpt-4o-mini", FlashcardsCount: count},
	)
	require.NoError(t, err)
	return svc
}

func TestNewGenerationService_Validation(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := &MockChatClient{}
	genStore := &MockGenerationStore{}

	_, err := NewGenerationService(nil, client, genStore, Options{Model: "m"})
	assert.Error(t, err)

	_, err = NewGenerationService(logger, nil, genStore, Options{Model: "m"})
	assert.Error(t, err)

	_, err = NewGenerationService(logger, client, nil, Options{Model: "m"})
	assert.Error(t, err)

	_, err = NewGenerationService(logger, client, genStore, Options{})
	assert.Error(t, err)

	svc, err := NewGenerationService(logger, client, genStore, Options{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, DefaultFlashcardsCount, svc.FlashcardsCount())
}

func TestCreateGeneration_Success(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	sourceText := "The mitochondria is the powerhouse of the cell."

	var capturedOpts *ChatCompletionOptions
	var capturedMessages []ChatMessage
	client := &MockChatClient{
		SendChatCompletionFn: func(ctx context.Context, messages []ChatMessage, opts *ChatCompletionOptions) (any, error) {
			capturedMessages = messages
			capturedOpts = opts
			return proposalsAnswer(3), nil
		},
	}
	genStore := &MockGenerationStore{}

	svc := newTestService(t, client, genStore, 3)

	result, err := svc.CreateGeneration(context.Background(), sourceText, userID)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, result.GenerationID)
	assert.Equal(t, "openai/gpt-4o-mini", result.Model)
	assert.Equal(t, len(sourceText), result.SourceTextLength)
	assert.Len(t, result.SourceTextHash, 64, "hash is hex-encoded SHA-256")
	assert.Equal(t, 3, result.FlashcardsGenerated)
	assert.Len(t, result.Proposals, 3)
	assert.Equal(t, "Question 1", result.Proposals[0].Front)
	assert.Equal(t, "Answer 1", result.Proposals[0].Back)
	assert.False(t, result.CreatedAt.IsZero())

	// A generation record was persisted and no error log written.
	require.Len(t, genStore.CreatedGenerations, 1)
	assert.Equal(t, userID, genStore.CreatedGenerations[0].UserID)
	assert.Equal(t, result.SourceTextHash, genStore.CreatedGenerations[0].SourceTextHash)
	assert.Empty(t, genStore.ErrorLogs)

	// The request asked for exactly three proposals with a strict schema.
	require.Len(t, capturedMessages, 1)
	assert.Equal(t, RoleUser, capturedMessages[0].Role)
	assert.Contains(t, capturedMessages[0].Content, "exactly 3 flashcards")
	assert.Contains(t, capturedMessages[0].Content, sourceText)
	require.NotNil(t, capturedOpts)
	require.NotNil(t, capturedOpts.ResponseFormat)
	assert.Equal(t, "json_schema", capturedOpts.ResponseFormat.Type)
	assert.True(t, capturedOpts.ResponseFormat.JSONSchema.Strict)
	assert.Equal(t, 0.7, capturedOpts.Parameters["temperature"])
	assert.Equal(t, 2000, capturedOpts.Parameters["max_tokens"])
}

func TestCreateGeneration_HashIsDeterministic(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	client := &MockChatClient{
		SendChatCompletionFn: func(ctx context.Context, messages []ChatMessage, opts *ChatCompletionOptions) (any, error) {
			return proposalsAnswer(2), nil
		},
	}
	genStore := &MockGenerationStore{}
	svc := newTestService(t, client, genStore, 2)

	first, err := svc.CreateGeneration(context.Background(), "identical input", userID)
	require.NoError(t, err)
	second, err := svc.CreateGeneration(context.Background(), "identical input", userID)
	require.NoError(t, err)
	other, err := svc.CreateGeneration(context.Background(), "different input", userID)
	require.NoError(t, err)

	assert.Equal(t, first.SourceTextHash, second.SourceTextHash)
	assert.NotEqual(t, first.SourceTextHash, other.SourceTextHash)
}

func TestCreateGeneration_InputValidation(t *testing.T) {
	t.Parallel()

	client := &MockChatClient{}
	genStore := &MockGenerationStore{}
	svc := newTestService(t, client, genStore, 2)

	_, err := svc.CreateGeneration(context.Background(), "", uuid.New())
	assert.ErrorIs(t, err, ErrEmptySourceText)

	_, err = svc.CreateGeneration(context.Background(), "some text", uuid.Nil)
	assert.ErrorIs(t, err, ErrEmptyUserID)

	assert.Equal(t, 0, client.Calls, "invalid input must not reach the AI service")
	assert.Empty(t, genStore.ErrorLogs, "input validation failures are not error-logged")
}

func TestCreateGeneration_CountMismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		returned int
	}{
		{name: "zero_proposals", returned: 0},
		{name: "one_too_few", returned: 2},
		{name: "one_too_many", returned: 4},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			userID := uuid.New()
			client := &MockChatClient{
				SendChatCompletionFn: func(ctx context.Context, messages []ChatMessage, opts *ChatCompletionOptions) (any, error) {
					return proposalsAnswer(tc.returned), nil
				},
			}
			genStore := &MockGenerationStore{}
			svc := newTestService(t, client, genStore, 3)

			_, err := svc.CreateGeneration(context.Background(), "source text", userID)

			require.ErrorIs(t, err, ErrProposalCountMismatch)
			assert.Contains(t, err.Error(), "expected 3")
			assert.Contains(t, err.Error(), fmt.Sprintf("got %d", tc.returned))

			// No generation record, but an error log with the mismatch kind.
			assert.Empty(t, genStore.CreatedGenerations)
			require.Len(t, genStore.ErrorLogs, 1)
			assert.Equal(t, "ProposalCountMismatch", genStore.ErrorLogs[0].ErrorType)
			assert.Equal(t, userID, genStore.ErrorLogs[0].UserID)
		})
	}
}

func TestCreateGeneration_ClientErrorWrapped(t *testing.T) {
	t.Parallel()

	// A completion client error exposing ErrorKind keeps its own kind in
	// the error log.
	clientErr := &kindError{kind: "RateLimitError", msg: "rate limit exceeded"}
	client := &MockChatClient{
		SendChatCompletionFn: func(ctx context.Context, messages []ChatMessage, opts *ChatCompletionOptions) (any, error) {
			return nil, clientErr
		},
	}
	genStore := &MockGenerationStore{}
	svc := newTestService(t, client, genStore, 2)

	_, err := svc.CreateGeneration(context.Background(), "source text", uuid.New())

	require.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorContains(t, err, "rate limit exceeded")

	require.Len(t, genStore.ErrorLogs, 1)
	assert.Equal(t, "RateLimitError", genStore.ErrorLogs[0].ErrorType)
}

func TestCreateGeneration_MalformedAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		answer any
	}{
		{name: "not_an_object", answer: "plain text answer"},
		{name: "missing_flashcards", answer: map[string]any{"cards": []any{}}},
		{name: "item_not_object", answer: map[string]any{"flashcards": []any{"nope", "nope"}}},
		{name: "missing_front", answer: map[string]any{"flashcards": []any{
			map[string]any{"back": "b"},
			map[string]any{"front": "f", "back": "b"},
		}}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client := &MockChatClient{
				SendChatCompletionFn: func(ctx context.Context, messages []ChatMessage, opts *ChatCompletionOptions) (any, error) {
					return tc.answer, nil
				},
			}
			genStore := &MockGenerationStore{}
			svc := newTestService(t, client, genStore, 2)

			_, err := svc.CreateGeneration(context.Background(), "source text", uuid.New())

			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrProposalCountMismatch)
			assert.Empty(t, genStore.CreatedGenerations)
			require.Len(t, genStore.ErrorLogs, 1)
		})
	}
}

func TestCreateGeneration_InsertFailureDistinct(t *testing.T) {
	t.Parallel()

	client := &MockChatClient{
		SendChatCompletionFn: func(ctx context.Context, messages []ChatMessage, opts *ChatCompletionOptions) (any, error) {
			return proposalsAnswer(2), nil
		},
	}
	genStore := &MockGenerationStore{
		CreateGenerationFn: func(ctx context.Context, generation *domain.Generation) error {
			return errors.New("connection reset")
		},
	}
	svc := newTestService(t, client, genStore, 2)

	_, err := svc.CreateGeneration(context.Background(), "source text", uuid.New())

	require.ErrorIs(t, err, ErrGenerationInsertFailed)
	assert.NotErrorIs(t, err, ErrGenerationFailed,
		"persistence failures must stay distinct from AI failures")

	require.Len(t, genStore.ErrorLogs, 1)
	assert.Equal(t, "GenerationInsertFailed", genStore.ErrorLogs[0].ErrorType)
}

func TestCreateGeneration_ErrorLogFailureSwallowed(t *testing.T) {
	t.Parallel()

	client := &MockChatClient{
		SendChatCompletionFn: func(ctx context.Context, messages []ChatMessage, opts *ChatCompletionOptions) (any, error) {
			return nil, errors.New("boom")
		},
	}
	genStore := &MockGenerationStore{
		CreateErrorLogFn: func(ctx context.Context, entry *domain.GenerationErrorLog) error {
			return errors.New("error log table unavailable")
		},
	}
	svc := newTestService(t, client, genStore, 2)

	_, err := svc.CreateGeneration(context.Background(), "source text", uuid.New())

	// The original failure is returned; the error-log failure never
	// masks or replaces it.
	require.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorContains(t, err, "boom")
}

// kindError is a test error exposing an ErrorKind label like completion
// client errors do.
type kindError struct {
	kind string
	msg  string
}

func (e *kindError) Error() string     { return e.msg }
func (e *kindError) ErrorKind() string { return e.kind }

func TestErrorKindName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "RateLimitError", errorKindName(&kindError{kind: "RateLimitError"}))
	assert.Equal(t, "RateLimitError",
		errorKindName(fmt.Errorf("%w: %w", ErrGenerationFailed, &kindError{kind: "RateLimitError"})),
		"wrapped client errors keep their own kind")
	assert.Equal(t, "ProposalCountMismatch",
		errorKindName(fmt.Errorf("%w: expected 3 but got 2", ErrProposalCountMismatch)))
	assert.Equal(t, "GenerationInsertFailed",
		errorKindName(fmt.Errorf("%w: disk full", ErrGenerationInsertFailed)))
	assert.Equal(t, "GenerationFailed",
		errorKindName(fmt.Errorf("%w: no flashcards array", ErrGenerationFailed)))
	assert.Equal(t, "Error", errorKindName(errors.New("anything else")))
}

func TestSystemMessage(t *testing.T) {
	t.Parallel()

	msg := SystemMessage(10)
	assert.Contains(t, msg, "exactly 10 high-quality flashcards")
	assert.Contains(t, msg, `containing exactly 10 objects`)
}
