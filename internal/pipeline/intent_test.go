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

func TestIntentStage_ParsesLLMResponse(t *testing.T) {
	fake := llmgatewaytest.New()
	fake.QueueJSON(json.RawMessage(`{"foodCanonical":"pizza","location":{"text":"Tel Aviv","isRelative":false},
		"radiusMeters":0,"targetType":"FREE","confidence":0.8,
		"virtual":{"kosher":null,"vegan":null,"glutenFree":null,"openNow":null}}`))

	stage := NewIntentStage(fake, "test-model")
	res, err := stage.Execute(context.Background(), &Request{Query: "pizza in Tel Aviv"}, GateOutput{})
	require.NoError(t, err)

	out := res.Output.(IntentOutput)
	assert.Equal(t, "pizza", out.FoodCanonical)
	assert.Equal(t, "Tel Aviv", out.Location.Text)
	assert.Equal(t, TargetFree, out.TargetType)
}

func TestIntentStage_FallsBackToMinimalSafeIntent(t *testing.T) {
	fake := llmgatewaytest.New()
	fake.QueueJSONError(errors.New("backend down"))

	stage := NewIntentStage(fake, "test-model")
	res, err := stage.Execute(context.Background(), &Request{Query: "pizza"}, GateOutput{})
	require.NoError(t, err)

	out := res.Output.(IntentOutput)
	assert.Equal(t, "restaurant", out.FoodCanonical)
	assert.Equal(t, TargetFree, out.TargetType)
	assert.Equal(t, 0.1, out.Confidence)
}

func TestIntentStage_NearMeForcesRelativeLocation(t *testing.T) {
	fake := llmgatewaytest.New()
	fake.QueueJSON(json.RawMessage(`{"foodCanonical":"pizza","location":{"text":"","isRelative":false},
		"radiusMeters":0,"targetType":"FREE","confidence":0.8,"virtual":{}}`))

	stage := NewIntentStage(fake, "test-model")
	res, err := stage.Execute(context.Background(), &Request{Query: "pizza near me"}, GateOutput{})
	require.NoError(t, err)

	out := res.Output.(IntentOutput)
	assert.True(t, out.Location.IsRelative)
}
