// Package llmgatewaypb is a hand-authored, minimal service contract for the
// LLM gateway's gRPC transport: request/response Go structs plus a thin
// client stub shaped like generated protobuf code, without actually being
// generated protobuf code (see DESIGN.md for why). Messages are carried as
// JSON over the wire via the codec in codec.go rather than protobuf binary
// encoding, so these types carry `json` tags instead of proto field
// numbers.
package llmgatewaypb

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the gRPC service path component, mirroring the
// "<package>.<Service>" naming convention generated clients use.
const ServiceName = "pizzasearch.llmgateway.v1.LLMGateway"

// Message is one turn in a conversation sent to the LLM.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompleteRequest is the unary Complete/CompleteJSON request payload.
type CompleteRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"maxTokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	// JSONMode requests the backend constrain output to a single JSON value.
	JSONMode bool `json:"jsonMode,omitempty"`
}

// CompleteResponse is the unary Complete/CompleteJSON response payload.
type CompleteResponse struct {
	Content        string `json:"content"`
	Model          string `json:"model"`
	InputTokens    int    `json:"inputTokens"`
	OutputTokens   int    `json:"outputTokens"`
	FinishReason   string `json:"finishReason"`
}

// StreamChunk is one message of the CompleteStream server-streaming RPC.
type StreamChunk struct {
	Type    string `json:"type"` // "text" | "thinking" | "usage" | "error"
	Text    string `json:"text,omitempty"`
	// Usage fields, populated when Type == "usage".
	InputTokens  int `json:"inputTokens,omitempty"`
	OutputTokens int `json:"outputTokens,omitempty"`
	// Error fields, populated when Type == "error".
	ErrorMessage   string `json:"errorMessage,omitempty"`
	ErrorRetryable bool   `json:"errorRetryable,omitempty"`
}

// LLMGatewayClient is the client-side stub, shaped like a generated grpc
// client (one method per RPC, ctx first, grpc.CallOption variadic last).
type LLMGatewayClient interface {
	Complete(ctx context.Context, req *CompleteRequest, opts ...grpc.CallOption) (*CompleteResponse, error)
	CompleteStream(ctx context.Context, req *CompleteRequest, opts ...grpc.CallOption) (StreamClient, error)
}

// StreamClient is the narrowed grpc.ClientStream surface CompleteStream
// callers need.
type StreamClient interface {
	Recv() (*StreamChunk, error)
	CloseSend() error
}
