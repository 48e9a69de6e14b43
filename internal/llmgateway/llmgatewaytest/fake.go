// Package llmgatewaytest provides an in-process llmgateway.Gateway double
// for pipeline and enrichment tests, following the pack's preference for a
// hand-rolled fake over a mocking framework (mirroring
// internal/cache/redistest).
package llmgatewaytest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/shacharon/pizzasearch/internal/llmgateway"
)

// Fake is a scripted Gateway: each call to CompleteJSON/Complete pops the
// next queued response (or error) in FIFO order, so a test can script a
// stage's exact LLM exchanges.
type Fake struct {
	mu        sync.Mutex
	jsonQueue []jsonResult
	textQueue []textResult

	// Calls records every CompleteJSON invocation's messages, for assertions.
	Calls []CallRecord
}

type jsonResult struct {
	raw json.RawMessage
	err error
}

type textResult struct {
	text string
	err  error
}

// CallRecord captures one CompleteJSON invocation.
type CallRecord struct {
	Messages []llmgateway.Message
	Opts     llmgateway.Options
}

func New() *Fake { return &Fake{} }

// QueueJSON appends a successful CompleteJSON response.
func (f *Fake) QueueJSON(raw json.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jsonQueue = append(f.jsonQueue, jsonResult{raw: raw})
}

// QueueJSONError appends a failing CompleteJSON response.
func (f *Fake) QueueJSONError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jsonQueue = append(f.jsonQueue, jsonResult{err: err})
}

// QueueText appends a successful Complete response.
func (f *Fake) QueueText(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textQueue = append(f.textQueue, textResult{text: text})
}

func (f *Fake) CompleteJSON(_ context.Context, messages []llmgateway.Message, schema llmgateway.Schema, opts llmgateway.Options) (json.RawMessage, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, CallRecord{Messages: messages, Opts: opts})
	if len(f.jsonQueue) == 0 {
		f.mu.Unlock()
		return nil, nil
	}
	next := f.jsonQueue[0]
	f.jsonQueue = f.jsonQueue[1:]
	f.mu.Unlock()

	if next.err != nil {
		return nil, next.err
	}
	if err := llmgateway.ValidateJSON(next.raw, schema); err != nil {
		return nil, err
	}
	return next.raw, nil
}

func (f *Fake) Complete(_ context.Context, _ []llmgateway.Message, _ llmgateway.Options) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.textQueue) == 0 {
		return "", nil
	}
	next := f.textQueue[0]
	f.textQueue = f.textQueue[1:]
	if next.err != nil {
		return "", next.err
	}
	return next.text, nil
}

func (f *Fake) CompleteStream(_ context.Context, _ []llmgateway.Message, _ llmgateway.Options) (<-chan llmgateway.Chunk, error) {
	ch := make(chan llmgateway.Chunk)
	close(ch)
	return ch, nil
}

func (f *Fake) Close() error { return nil }
