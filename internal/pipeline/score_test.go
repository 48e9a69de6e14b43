package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shacharon/pizzasearch/internal/llmgateway/llmgatewaytest"
)

func TestScoreStage_FastPathSkipsLLMForFewCandidates(t *testing.T) {
	fake := llmgatewaytest.New()
	stage := NewScoreStage(fake, "test-model")

	candidates := []Candidate{{PlaceID: "a"}, {PlaceID: "b"}}
	res, err := stage.Execute(context.Background(), &Request{}, candidates)
	require.NoError(t, err)

	scores := res.Output.(ScoreMap)
	assert.Equal(t, 0.5, scores["a"])
	assert.Equal(t, 0.5, scores["b"])
	assert.Empty(t, fake.Calls)
}

func TestScoreStage_CallsLLMAboveFastPathThreshold(t *testing.T) {
	fake := llmgatewaytest.New()
	fake.QueueJSON(json.RawMessage(`{"scores":{"a":0.9,"b":0.1,"c":0.5,"d":1.5}}`))
	stage := NewScoreStage(fake, "test-model")

	candidates := []Candidate{{PlaceID: "a"}, {PlaceID: "b"}, {PlaceID: "c"}, {PlaceID: "d"}}
	res, err := stage.Execute(context.Background(), &Request{}, candidates)
	require.NoError(t, err)

	scores := res.Output.(ScoreMap)
	assert.Equal(t, 0.9, scores["a"])
	assert.Equal(t, 1.0, scores["d"], "scores are clamped to [0,1]")
	assert.Len(t, fake.Calls, 1)
}

func TestScoreStage_FallsBackToEmptyScoresOnLLMFailure(t *testing.T) {
	fake := llmgatewaytest.New()
	fake.QueueJSONError(errors.New("backend down"))
	stage := NewScoreStage(fake, "test-model")

	candidates := make([]Candidate, fastPathMaxCandidates+1)
	for i := range candidates {
		candidates[i] = Candidate{PlaceID: string(rune('a' + i))}
	}
	res, err := stage.Execute(context.Background(), &Request{}, candidates)
	require.NoError(t, err)
	assert.Equal(t, StageCompleted, res.Status)
	assert.Empty(t, res.Output.(ScoreMap))
	assert.Error(t, res.Err)
}
