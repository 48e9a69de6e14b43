// Package llmgateway is the LLM Gateway (C7): a provider-agnostic facade
// over a single chat-completion backend, reached over gRPC (C15). It
// enforces per-call deadlines, a single jittered retry on transient
// failure, and schema validation for the JSON-mode completion path used by
// every pipeline stage that needs structured output.
package llmgateway

import (
	"context"
	"encoding/json"
)

// Message is one turn in a conversation sent to the model.
type Message struct {
	Role    string
	Content string
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Options configures a single completion call.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Schema describes the machine-readable shape CompleteJSON validates its
// output against: a closed set of allowed top-level field names (anything
// else is rejected, mirroring DisallowUnknownFields) plus an optional
// semantic validator for invariants a field whitelist can't express (value
// ranges, cross-field constraints).
type Schema struct {
	AllowedFields []string
	Validate      func(raw json.RawMessage) error
}

// Gateway is the Go-side contract every pipeline stage calls through.
type Gateway interface {
	// CompleteJSON requests a single structured JSON value and validates it
	// against schema before returning. Never retries a schema-validation
	// failure — only a transport-classified transient failure.
	CompleteJSON(ctx context.Context, messages []Message, schema Schema, opts Options) (json.RawMessage, error)

	// Complete requests free-form text.
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)

	// CompleteStream requests incremental output. The returned channel is
	// closed when the stream ends; a terminal ErrorChunk may precede close.
	CompleteStream(ctx context.Context, messages []Message, opts Options) (<-chan Chunk, error)

	Close() error
}
