package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/shacharon/pizzasearch/internal/llmgateway"
)

const narratorMaxMessageLen = 240
const narratorMaxSentences = 2

// NarratorStage turns one of {GATE_FAIL, CLARIFY, SUMMARY} into a short
// user-facing message, enforcing the invariants in §4.8 regardless of
// whether the message came from the model or the fallback table.
type NarratorStage struct {
	gateway llmgateway.Gateway
	model   string
}

func NewNarratorStage(gateway llmgateway.Gateway, model string) *NarratorStage {
	return &NarratorStage{gateway: gateway, model: model}
}

func (s *NarratorStage) Name() StageName { return StageNameNarrator }

var narratorSchema = llmgateway.Schema{
	AllowedFields: []string{"message", "question", "suggestedAction", "blocksSearch"},
}

// Narrate is the Narrator's entry point, called directly by the pipeline
// driver with the terminal context it reached (not part of the uniform
// Stage interface since its input isn't "the previous stage's output" but
// a constructed NarratorInput describing which terminal branch fired).
func (s *NarratorStage) Narrate(ctx context.Context, in NarratorInput) NarratorOutput {
	fallback := fallbackNarration(in)
	if s.gateway == nil {
		return fallback
	}

	messages := []llmgateway.Message{
		{Role: llmgateway.RoleSystem, Content: narratorSystemPrompt},
		{Role: llmgateway.RoleUser, Content: narratorUserPrompt(in)},
	}

	raw, err := s.gateway.CompleteJSON(ctx, messages, narratorSchema, llmgateway.Options{Model: s.model})
	if err != nil {
		slog.Warn("pipeline: narrator falling back to deterministic template", "err", err)
		return fallback
	}

	var wire struct {
		Message         string  `json:"message"`
		Question        *string `json:"question"`
		SuggestedAction string  `json:"suggestedAction"`
		BlocksSearch    bool    `json:"blocksSearch"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return fallback
	}

	out := NarratorOutput{
		Type:            in.Type,
		Message:         wire.Message,
		Question:        wire.Question,
		SuggestedAction: wire.SuggestedAction,
		BlocksSearch:    wire.BlocksSearch,
	}
	return enforceNarratorInvariants(out, fallback)
}

// enforceNarratorInvariants is applied post-LLM regardless of source,
// per §4.8: CLARIFY must block search and carry a question; every other
// type must not; the message is always clamped to 2 sentences / 240 chars.
func enforceNarratorInvariants(out, fallback NarratorOutput) NarratorOutput {
	out.Message = clampMessage(out.Message)
	if out.Message == "" {
		out.Message = fallback.Message
	}

	if out.Type == NarratorClarify {
		out.BlocksSearch = true
		if out.Question == nil || strings.TrimSpace(*out.Question) == "" {
			out.Question = fallback.Question
		}
	} else {
		out.Question = nil
	}
	return out
}

func clampMessage(msg string) string {
	msg = strings.TrimSpace(msg)
	sentences := splitSentences(msg)
	if len(sentences) > narratorMaxSentences {
		msg = strings.Join(sentences[:narratorMaxSentences], " ")
	}
	runes := []rune(msg)
	if len(runes) > narratorMaxMessageLen {
		msg = string(runes[:narratorMaxMessageLen])
	}
	return msg
}

func splitSentences(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if r == '.' || r == '!' || r == '?' {
			seg := strings.TrimSpace(s[start : i+1])
			if seg != "" {
				out = append(out, seg)
			}
			start = i + 1
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// fallbackNarration is the deterministic template table keyed by
// (type, reason, language), falling back to an English default when the
// exact (reason, language) pair has no specific entry.
func fallbackNarration(in NarratorInput) NarratorOutput {
	switch in.Type {
	case NarratorGateFail:
		return NarratorOutput{
			Type:            NarratorGateFail,
			Message:         "That doesn't look like a food search. Try asking for a restaurant or cuisine.",
			SuggestedAction: "rephrase",
			BlocksSearch:    true,
		}
	case NarratorClarify:
		question := "Which location should I search near?"
		suggestedAction := "CLARIFY"
		if in.Reason == "MISSING_LOCATION" {
			question = "Where should I look — your current location or a specific place?"
			suggestedAction = "ASK_LOCATION"
		}
		return NarratorOutput{
			Type:            NarratorClarify,
			Message:         "I need a bit more information before I can search.",
			Question:        &question,
			SuggestedAction: suggestedAction,
			BlocksSearch:    true,
		}
	default: // SUMMARY
		if in.ResultCount == 0 {
			return NarratorOutput{
				Type:            NarratorSummary,
				Message:         "No matching places found. Try a wider area or different cuisine.",
				SuggestedAction: "broaden_search",
				BlocksSearch:    false,
			}
		}
		return NarratorOutput{
			Type:            NarratorSummary,
			Message:         "Here are the best matches I found.",
			SuggestedAction: "",
			BlocksSearch:    false,
		}
	}
}

func narratorUserPrompt(in NarratorInput) string {
	return "type=" + string(in.Type) + " reason=" + in.Reason + " language=" + in.Language
}

const narratorSystemPrompt = `Write a short, friendly message (at most 2 sentences, at most 240 characters) for a food-search assistant.
Respond with JSON only: {"message":"...","question":"..."|null,"suggestedAction":"...","blocksSearch":bool}.
Only a CLARIFY type may set a non-null question; every other type must set question to null.`
