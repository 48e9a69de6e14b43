package llmgateway

// Chunk is the discriminated union of streaming completion chunks, lifted
// from the shape of the teacher's agent.Chunk (chunkType() marker method so
// only types declared in this package implement it).
type Chunk interface {
	chunkType() ChunkType
}

// ChunkType identifies the kind of streaming chunk.
type ChunkType string

const (
	ChunkTypeText     ChunkType = "text"
	ChunkTypeThinking ChunkType = "thinking"
	ChunkTypeUsage    ChunkType = "usage"
	ChunkTypeError    ChunkType = "error"
)

// TextChunk is a fragment of the model's visible response.
type TextChunk struct{ Content string }

// ThinkingChunk is a fragment of the model's internal reasoning, if the
// backend surfaces one.
type ThinkingChunk struct{ Content string }

// UsageChunk reports token consumption once a stream completes.
type UsageChunk struct{ InputTokens, OutputTokens int }

// ErrorChunk terminates a stream with a classified failure.
type ErrorChunk struct {
	Message   string
	Retryable bool
}

func (TextChunk) chunkType() ChunkType     { return ChunkTypeText }
func (ThinkingChunk) chunkType() ChunkType { return ChunkTypeThinking }
func (UsageChunk) chunkType() ChunkType    { return ChunkTypeUsage }
func (ErrorChunk) chunkType() ChunkType    { return ChunkTypeError }
