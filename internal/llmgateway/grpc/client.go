// Package grpc is the LLM Gateway's transport (C15): a Gateway
// implementation that calls llmgatewaypb over a grpc.ClientConn, following
// the teacher's GRPCLLMClient dial/stream/deadline pattern.
package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/shacharon/pizzasearch/internal/llmgateway"
	"github.com/shacharon/pizzasearch/internal/llmgatewaypb"
	"github.com/shacharon/pizzasearch/internal/searcherr"
)

// Gateway implements llmgateway.Gateway over a gRPC connection.
type Gateway struct {
	conn   *grpc.ClientConn
	client llmgatewaypb.LLMGatewayClient
}

// Dial opens an insecure (plaintext) connection to the LLM gateway
// service. Insecure transport is acceptable because the backend is
// expected to run as a sidecar or on localhost, mirroring the teacher's own
// choice and caveat in NewGRPCLLMClient.
func Dial(addr string) (*Gateway, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("llmgateway: dial %s: %w", addr, err)
	}
	return &Gateway{conn: conn, client: llmgatewaypb.NewLLMGatewayClient(conn)}, nil
}

func (g *Gateway) Close() error { return g.conn.Close() }

func toWireMessages(msgs []llmgateway.Message) []llmgatewaypb.Message {
	out := make([]llmgatewaypb.Message, len(msgs))
	for i, m := range msgs {
		out[i] = llmgatewaypb.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

// complete performs the unary call with the §4.7 retry policy: one retry
// after a jittered 50-150ms backoff on a TRANSIENT or TIMEOUT classified
// failure, no retry otherwise.
func (g *Gateway) complete(ctx context.Context, messages []llmgateway.Message, opts llmgateway.Options, jsonMode bool) (*llmgatewaypb.CompleteResponse, error) {
	req := &llmgatewaypb.CompleteRequest{
		Model:       opts.Model,
		Messages:    toWireMessages(messages),
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		JSONMode:    jsonMode,
	}

	resp, err := g.client.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}

	classified := llmgateway.Classify(err)
	if !searcherr.IsRetryable(classified) {
		return nil, classified
	}

	select {
	case <-time.After(llmgateway.RetryBackoff()):
	case <-ctx.Done():
		return nil, llmgateway.Classify(ctx.Err())
	}

	resp, err = g.client.Complete(ctx, req)
	if err != nil {
		return nil, llmgateway.Classify(err)
	}
	return resp, nil
}

// CompleteJSON implements llmgateway.Gateway.
func (g *Gateway) CompleteJSON(ctx context.Context, messages []llmgateway.Message, schema llmgateway.Schema, opts llmgateway.Options) (json.RawMessage, error) {
	resp, err := g.complete(ctx, messages, opts, true)
	if err != nil {
		return nil, err
	}

	raw := json.RawMessage(resp.Content)
	if err := llmgateway.ValidateJSON(raw, schema); err != nil {
		slog.Warn("llmgateway: CompleteJSON schema validation failed", "model", opts.Model, "err", err)
		return nil, err
	}

	slog.Debug("llmgateway: CompleteJSON ok",
		"model", resp.Model, "input_tokens", resp.InputTokens, "output_tokens", resp.OutputTokens)
	return raw, nil
}

// Complete implements llmgateway.Gateway.
func (g *Gateway) Complete(ctx context.Context, messages []llmgateway.Message, opts llmgateway.Options) (string, error) {
	resp, err := g.complete(ctx, messages, opts, false)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// CompleteStream implements llmgateway.Gateway, translating the wire
// StreamChunk union into llmgateway.Chunk values — the teacher's
// GRPCLLMClient.Generate select-on-ctx.Done()/close-on-EOF idiom.
func (g *Gateway) CompleteStream(ctx context.Context, messages []llmgateway.Message, opts llmgateway.Options) (<-chan llmgateway.Chunk, error) {
	req := &llmgatewaypb.CompleteRequest{
		Model:       opts.Model,
		Messages:    toWireMessages(messages),
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	stream, err := g.client.CompleteStream(ctx, req)
	if err != nil {
		return nil, llmgateway.Classify(err)
	}

	ch := make(chan llmgateway.Chunk, 32)
	go func() {
		defer close(ch)
		for {
			chunk, err := stream.Recv()
			if err == io.EOF {
				return
			}
			if err != nil {
				send(ctx, ch, llmgateway.ErrorChunk{
					Message:   err.Error(),
					Retryable: searcherr.IsRetryable(llmgateway.Classify(err)),
				})
				return
			}
			if out := fromWireChunk(chunk); out != nil {
				if !send(ctx, ch, out) {
					return
				}
			}
		}
	}()
	return ch, nil
}

func send(ctx context.Context, ch chan<- llmgateway.Chunk, c llmgateway.Chunk) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

func fromWireChunk(c *llmgatewaypb.StreamChunk) llmgateway.Chunk {
	switch c.Type {
	case "text":
		return llmgateway.TextChunk{Content: c.Text}
	case "thinking":
		return llmgateway.ThinkingChunk{Content: c.Text}
	case "usage":
		return llmgateway.UsageChunk{InputTokens: c.InputTokens, OutputTokens: c.OutputTokens}
	case "error":
		return llmgateway.ErrorChunk{Message: c.ErrorMessage, Retryable: c.ErrorRetryable}
	default:
		slog.Warn("llmgateway: unknown stream chunk type, skipping", "type", c.Type)
		return nil
	}
}
