package generation

import (
	"context"

	"github.com/cardgenio/cardgen-api/internal/schema"
)

// MessageRole identifies the author of a chat message.
type MessageRole string

// Message roles accepted by the completion API.
const (
	RoleSystem MessageRole = "system"
	RoleUser   MessageRole = "user"
)

// ChatMessage is one turn of a chat completion request. Messages are
// constructed per request and never persisted.
type ChatMessage struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// JSONSchemaFormat names a strict schema the model output must follow.
type JSONSchemaFormat struct {
	Name   string       `json:"name"`
	Strict bool         `json:"strict"`
	Schema *schema.Node `json:"schema"`
}

// ResponseFormat directs the completion API to return structured JSON
// conforming to the embedded schema.
type ResponseFormat struct {
	Type       string           `json:"type"`
	JSONSchema JSONSchemaFormat `json:"json_schema"`
}

// NewStrictResponseFormat builds a json_schema response format with
// strict mode enabled.
func NewStrictResponseFormat(name string, node *schema.Node) *ResponseFormat {
	return &ResponseFormat{
		Type: "json_schema",
		JSONSchema: JSONSchemaFormat{
			Name:   name,
			Strict: true,
			Schema: node,
		},
	}
}

// ChatCompletionOptions carries per-call overrides for a chat
// completion request.
type ChatCompletionOptions struct {
	// Model overrides the client's default model when non-empty.
	Model string

	// Parameters holds free-form model parameters merged into the
	// request payload (e.g. temperature, max_tokens).
	Parameters map[string]any

	// ResponseFormat, when set, requests structured output and causes
	// the decoded response to be validated against the embedded schema.
	ResponseFormat *ResponseFormat
}

// ChatClient defines the interface for one logical request-response
// exchange with an external structured-completion API. This interface
// is the boundary between the application core and the transport
// layer, following the hexagonal architecture pattern.
type ChatClient interface {
	// SendChatCompletion sends the messages to the completion API and
	// returns the decoded assistant answer: a map[string]any when the
	// answer is a JSON object, otherwise the raw string content.
	// Transport-level retries happen inside the implementation; the
	// returned error is the final classified failure.
	SendChatCompletion(ctx context.Context, messages []ChatMessage, opts *ChatCompletionOptions) (any, error)
}
