package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shacharon/pizzasearch/internal/llmgateway/llmgatewaytest"
)

func TestNarratorStage_NoGatewayUsesFallback(t *testing.T) {
	stage := NewNarratorStage(nil, "test-model")
	out := stage.Narrate(context.Background(), NarratorInput{Type: NarratorSummary, ResultCount: 2})
	assert.NotEmpty(t, out.Message)
	assert.False(t, out.BlocksSearch)
	assert.Nil(t, out.Question)
}

func TestNarratorStage_FallbackMissingLocationSuggestsAskLocation(t *testing.T) {
	stage := NewNarratorStage(nil, "test-model")
	out := stage.Narrate(context.Background(), NarratorInput{Type: NarratorClarify, Reason: "MISSING_LOCATION"})
	assert.Equal(t, "ASK_LOCATION", out.SuggestedAction)
	assert.True(t, out.BlocksSearch)
	assert.NotNil(t, out.Question)
}

func TestNarratorStage_ClarifyAlwaysBlocksSearchAndHasQuestion(t *testing.T) {
	fake := llmgatewaytest.New()
	fake.QueueJSON(json.RawMessage(`{"message":"Need more info.","question":null,"suggestedAction":"clarify","blocksSearch":false}`))
	stage := NewNarratorStage(fake, "test-model")

	out := stage.Narrate(context.Background(), NarratorInput{Type: NarratorClarify, Reason: "MISSING_LOCATION"})
	assert.True(t, out.BlocksSearch, "CLARIFY must always block search regardless of what the model said")
	assert.NotNil(t, out.Question)
}

func TestNarratorStage_NonClarifyNeverHasQuestion(t *testing.T) {
	fake := llmgatewaytest.New()
	q := "are you sure?"
	fake.QueueJSON(json.RawMessage(`{"message":"Here are results.","question":"` + q + `","suggestedAction":"","blocksSearch":true}`))
	stage := NewNarratorStage(fake, "test-model")

	out := stage.Narrate(context.Background(), NarratorInput{Type: NarratorSummary, ResultCount: 3})
	assert.Nil(t, out.Question, "non-CLARIFY types must never carry a question")
}

func TestNarratorStage_FallsBackOnLLMFailure(t *testing.T) {
	fake := llmgatewaytest.New()
	fake.QueueJSONError(errors.New("backend down"))
	stage := NewNarratorStage(fake, "test-model")

	out := stage.Narrate(context.Background(), NarratorInput{Type: NarratorGateFail, Reason: "NOT_FOOD"})
	assert.NotEmpty(t, out.Message)
	assert.True(t, out.BlocksSearch)
}

func TestClampMessage_EnforcesSentenceAndLengthLimits(t *testing.T) {
	msg := "One sentence. Two sentence. Three sentence should be dropped."
	clamped := clampMessage(msg)
	assert.Equal(t, "One sentence. Two sentence.", clamped)

	long := strings.Repeat("a", 300) + "."
	clampedLong := clampMessage(long)
	assert.LessOrEqual(t, len([]rune(clampedLong)), narratorMaxMessageLen)
}

func TestNarratorStage_EmptyLLMMessageFallsBackToTemplate(t *testing.T) {
	fake := llmgatewaytest.New()
	fake.QueueJSON(json.RawMessage(`{"message":"","question":null,"suggestedAction":"","blocksSearch":false}`))
	stage := NewNarratorStage(fake, "test-model")

	out := stage.Narrate(context.Background(), NarratorInput{Type: NarratorSummary, ResultCount: 0})
	assert.NotEmpty(t, out.Message)
}
