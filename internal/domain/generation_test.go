package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewGeneration(t *testing.T) {
	t.Parallel()
	userID := uuid.New()

	gen, err := NewGeneration(userID, "openai/gpt-4o-mini", 1500, "abc123", 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if gen.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if gen.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, gen.UserID)
	}

	if gen.Model != "openai/gpt-4o-mini" {
		t.Errorf("Expected model openai/gpt-4o-mini, got %s", gen.Model)
	}

	if gen.SourceTextLength != 1500 {
		t.Errorf("Expected source text length 1500, got %d", gen.SourceTextLength)
	}

	if gen.FlashcardsGenerated != 10 {
		t.Errorf("Expected 10 flashcards generated, got %d", gen.FlashcardsGenerated)
	}

	if gen.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}
}

func TestGenerationValidate(t *testing.T) {
	t.Parallel()

	valid := Generation{
		ID:                  uuid.New(),
		UserID:              uuid.New(),
		Model:               "openai/gpt-4o-mini",
		SourceTextLength:    1500,
		SourceTextHash:      "abc123",
		FlashcardsGenerated: 10,
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid generation, got error %v", err)
	}

	tests := []struct {
		name     string
		mutate   func(*Generation)
		expected error
	}{
		{"nil_id", func(g *Generation) { g.ID = uuid.Nil }, ErrEmptyGenerationID},
		{"nil_user_id", func(g *Generation) { g.UserID = uuid.Nil }, ErrEmptyGenerationUserID},
		{"empty_model", func(g *Generation) { g.Model = "" }, ErrEmptyGenerationModel},
		{"zero_length", func(g *Generation) { g.SourceTextLength = 0 }, ErrInvalidGenerationLen},
		{"empty_hash", func(g *Generation) { g.SourceTextHash = "" }, ErrEmptyGenerationHash},
		{"zero_count", func(g *Generation) { g.FlashcardsGenerated = 0 }, ErrInvalidFlashcardCount},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gen := valid
			tc.mutate(&gen)
			if err := gen.Validate(); err != tc.expected {
				t.Errorf("Expected error %v, got %v", tc.expected, err)
			}
		})
	}
}

func TestNewGenerationErrorLog(t *testing.T) {
	t.Parallel()
	userID := uuid.New()

	entry, err := NewGenerationErrorLog(
		userID, "openai/gpt-4o-mini", 1500, "abc123",
		"RateLimitError", "rate limit exceeded")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if entry.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if entry.ErrorType != "RateLimitError" {
		t.Errorf("Expected error type RateLimitError, got %s", entry.ErrorType)
	}

	if entry.ErrorMessage != "rate limit exceeded" {
		t.Errorf("Expected error message to be preserved, got %s", entry.ErrorMessage)
	}

	// Invalid user ID
	_, err = NewGenerationErrorLog(uuid.Nil, "m", 1, "h", "Error", "msg")
	if err != ErrEmptyGenerationUserID {
		t.Errorf("Expected error %v, got %v", ErrEmptyGenerationUserID, err)
	}

	// Missing error type
	_, err = NewGenerationErrorLog(userID, "m", 1, "h", "", "msg")
	if err != ErrEmptyErrorLogType {
		t.Errorf("Expected error %v, got %v", ErrEmptyErrorLogType, err)
	}
}
