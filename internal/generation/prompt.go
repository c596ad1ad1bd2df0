package generation

import (
	"fmt"

	"github.com/cardgenio/cardgen-api/internal/domain"
	"github.com/cardgenio/cardgen-api/internal/schema"
)

// systemMessageTemplate instructs the model how to build flashcards.
// The flashcard count is substituted in twice.
const systemMessageTemplate = `You are an expert educational content creator specializing in creating effective flashcards for spaced repetition learning.

Your task is to analyze the provided source text and generate exactly %d high-quality flashcards that:
1. Cover the most important concepts and facts from the text
2. Are clear, concise, and unambiguous
3. Follow the principle of atomicity (one concept per card)
4. Use simple language appropriate for learning
5. Have questions (front) that test understanding, not just memorization
6. Have answers (back) that are complete but concise

Format your response as a JSON object with a "flashcards" array containing exactly %d objects, each with "front" and "back" properties.`

// SystemMessage returns the system prompt used for flashcard
// generation, requesting exactly count flashcards.
func SystemMessage(count int) string {
	return fmt.Sprintf(systemMessageTemplate, count, count)
}

// userMessage embeds the source text in the generation instruction.
func userMessage(count int, sourceText string) string {
	return fmt.Sprintf(
		"Please analyze the following text and generate exactly %d flashcards:\n\n%s",
		count, sourceText)
}

// proposalsResponseFormat declares the strict schema the model answer
// must satisfy: an object with a flashcards array of exactly count
// items, each a front/back pair of non-empty bounded strings.
func proposalsResponseFormat(count int) *ResponseFormat {
	return NewStrictResponseFormat("FlashcardProposals", &schema.Node{
		Type: "object",
		Properties: map[string]*schema.Node{
			"flashcards": {
				Type: "array",
				Items: &schema.Node{
					Type: "object",
					Properties: map[string]*schema.Node{
						"front": {
							Type:      "string",
							MinLength: schema.Int(1),
							MaxLength: schema.Int(domain.FlashcardFrontMaxLength),
						},
						"back": {
							Type:      "string",
							MinLength: schema.Int(1),
							MaxLength: schema.Int(domain.FlashcardBackMaxLength),
						},
					},
					Required:             []string{"front", "back"},
					AdditionalProperties: schema.Bool(false),
				},
				MinItems: schema.Int(count),
				MaxItems: schema.Int(count),
			},
		},
		Required:             []string{"flashcards"},
		AdditionalProperties: schema.Bool(false),
	})
}
