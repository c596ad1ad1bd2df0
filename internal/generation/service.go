package generation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cardgenio/cardgen-api/internal/domain"
	"github.com/cardgenio/cardgen-api/internal/store"
	"github.com/google/uuid"
)

// Default generation parameters, matching the service configuration
// shipped with the web client.
const (
	DefaultFlashcardsCount = 10
	DefaultTemperature     = 0.7
	DefaultMaxTokens       = 2000
)

// Options configures a GenerationService.
type Options struct {
	// Model is the model identifier recorded on generation metadata and
	// passed to the completion client. Required.
	Model string

	// FlashcardsCount is the exact number of proposals requested per
	// generation. Defaults to DefaultFlashcardsCount.
	FlashcardsCount int

	// Temperature and MaxTokens are forwarded to the model.
	Temperature float64
	MaxTokens   int
}

// Result is the success payload of one generation run: the persisted
// metadata plus the proposals, which are not yet saved as flashcards.
type Result struct {
	GenerationID        uuid.UUID                  `json:"generation_id"`
	Model               string                     `json:"model"`
	SourceTextLength    int                        `json:"source_text_length"`
	SourceTextHash      string                     `json:"source_text_hash"`
	FlashcardsGenerated int                        `json:"flashcards_generated"`
	CreatedAt           time.Time                  `json:"created_at"`
	Proposals           []domain.FlashcardProposal `json:"proposals"`
}

// GenerationService turns raw source text into a persisted generation
// record and a set of flashcard proposals. It is the single entry
// point consumed by the rest of the application; retries, if any,
// happen inside the completion client.
type GenerationService struct {
	logger          *slog.Logger
	chatClient      ChatClient
	generationStore store.GenerationStore

	model           string
	flashcardsCount int
	temperature     float64
	maxTokens       int
}

// NewGenerationService creates a GenerationService with the provided
// dependencies. Returns an error if any dependency is missing or the
// model is not configured.
func NewGenerationService(
	logger *slog.Logger,
	chatClient ChatClient,
	generationStore store.GenerationStore,
	opts Options,
) (*GenerationService, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if chatClient == nil {
		return nil, errors.New("chat client cannot be nil")
	}
	if generationStore == nil {
		return nil, errors.New("generation store cannot be nil")
	}
	if opts.Model == "" {
		return nil, errors.New("model cannot be empty")
	}

	if opts.FlashcardsCount <= 0 {
		opts.FlashcardsCount = DefaultFlashcardsCount
	}
	if opts.Temperature <= 0 {
		opts.Temperature = DefaultTemperature
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}

	return &GenerationService{
		logger:          logger.With(slog.String("component", "generation_service")),
		chatClient:      chatClient,
		generationStore: generationStore,
		model:           opts.Model,
		flashcardsCount: opts.FlashcardsCount,
		temperature:     opts.Temperature,
		maxTokens:       opts.MaxTokens,
	}, nil
}

// FlashcardsCount reports the exact number of proposals each call
// requests from the model.
func (s *GenerationService) FlashcardsCount() int {
	return s.flashcardsCount
}

// CreateGeneration generates flashcard proposals from sourceText for
// the given user, persists the generation metadata, and returns both.
//
// Steps run strictly in sequence: hash, AI generation, count re-check,
// persistence, response assembly. Any failure after hashing triggers a
// best-effort error log write before the original error is returned.
func (s *GenerationService) CreateGeneration(
	ctx context.Context,
	sourceText string,
	userID uuid.UUID,
) (*Result, error) {
	if sourceText == "" {
		return nil, ErrEmptySourceText
	}
	if userID == uuid.Nil {
		return nil, ErrEmptyUserID
	}

	sourceTextHash := hashSourceText(sourceText)

	proposals, err := s.generateProposals(ctx, sourceText)
	if err != nil {
		s.logGenerationError(ctx, err, userID, len(sourceText), sourceTextHash)
		return nil, err
	}

	gen, err := domain.NewGeneration(userID, s.model, len(sourceText), sourceTextHash, len(proposals))
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrGenerationInsertFailed, err)
		s.logGenerationError(ctx, err, userID, len(sourceText), sourceTextHash)
		return nil, err
	}

	if insertErr := s.generationStore.CreateGeneration(ctx, gen); insertErr != nil {
		err = fmt.Errorf("%w: %w", ErrGenerationInsertFailed, insertErr)
		s.logGenerationError(ctx, err, userID, len(sourceText), sourceTextHash)
		return nil, err
	}

	s.logger.InfoContext(ctx, "generation completed",
		slog.String("generation_id", gen.ID.String()),
		slog.String("user_id", userID.String()),
		slog.Int("flashcards_generated", gen.FlashcardsGenerated))

	return &Result{
		GenerationID:        gen.ID,
		Model:               gen.Model,
		SourceTextLength:    gen.SourceTextLength,
		SourceTextHash:      gen.SourceTextHash,
		FlashcardsGenerated: gen.FlashcardsGenerated,
		CreatedAt:           gen.CreatedAt,
		Proposals:           proposals,
	}, nil
}

// generateProposals asks the completion client for exactly
// s.flashcardsCount proposals and re-checks the decoded result shape
// independently of the client's schema validation.
func (s *GenerationService) generateProposals(
	ctx context.Context,
	sourceText string,
) ([]domain.FlashcardProposal, error) {
	messages := []ChatMessage{
		{Role: RoleUser, Content: userMessage(s.flashcardsCount, sourceText)},
	}
	opts := &ChatCompletionOptions{
		Model: s.model,
		Parameters: map[string]any{
			"temperature": s.temperature,
			"max_tokens":  s.maxTokens,
		},
		ResponseFormat: proposalsResponseFormat(s.flashcardsCount),
	}

	raw, err := s.chatClient.SendChatCompletion(ctx, messages, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: response is not a JSON object", ErrGenerationFailed)
	}

	list, ok := obj["flashcards"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: response has no flashcards array", ErrGenerationFailed)
	}

	// Business-rule check independent of the generic schema validation:
	// the count must match exactly.
	if len(list) != s.flashcardsCount {
		return nil, fmt.Errorf("%w: expected %d flashcards but got %d",
			ErrProposalCountMismatch, s.flashcardsCount, len(list))
	}

	proposals := make([]domain.FlashcardProposal, 0, len(list))
	for i, item := range list {
		card, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: flashcard %d is not an object", ErrGenerationFailed, i)
		}
		front, _ := card["front"].(string)
		back, _ := card["back"].(string)
		if front == "" {
			return nil, fmt.Errorf("%w: flashcard %d missing front side", ErrGenerationFailed, i)
		}
		if back == "" {
			return nil, fmt.Errorf("%w: flashcard %d missing back side", ErrGenerationFailed, i)
		}
		proposals = append(proposals, domain.FlashcardProposal{Front: front, Back: back})
	}

	return proposals, nil
}

// logGenerationError writes an error log entry for a failed run. The
// write is best-effort: its own failure is logged and swallowed so it
// can never mask or replace the error being recorded.
func (s *GenerationService) logGenerationError(
	ctx context.Context,
	cause error,
	userID uuid.UUID,
	sourceTextLength int,
	sourceTextHash string,
) {
	entry, err := domain.NewGenerationErrorLog(
		userID,
		s.model,
		sourceTextLength,
		sourceTextHash,
		errorKindName(cause),
		cause.Error(),
	)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to build generation error log entry",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return
	}

	if err := s.generationStore.CreateErrorLog(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "failed to persist generation error log",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("error_type", entry.ErrorType))
	}
}

// errorKindName derives the stable error-type label recorded on error
// log entries. Completion client errors expose their kind through the
// ErrorKind method; orchestrator errors map to fixed labels.
func errorKindName(err error) string {
	var kinder interface{ ErrorKind() string }
	if errors.As(err, &kinder) {
		return kinder.ErrorKind()
	}

	switch {
	case errors.Is(err, ErrProposalCountMismatch):
		return "ProposalCountMismatch"
	case errors.Is(err, ErrGenerationInsertFailed):
		return "GenerationInsertFailed"
	case errors.Is(err, ErrGenerationFailed):
		return "GenerationFailed"
	default:
		return "Error"
	}
}

// hashSourceText computes the hex-encoded SHA-256 fingerprint of the
// source text. A pure function of content, used for deduplication and
// audit.
func hashSourceText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
