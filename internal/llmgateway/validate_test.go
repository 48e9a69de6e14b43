package llmgateway

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shacharon/pizzasearch/internal/searcherr"
)

func TestValidateJSON_RejectsInvalidJSON(t *testing.T) {
	err := ValidateJSON(json.RawMessage("not json"), Schema{})
	require.Error(t, err)
	assert.Equal(t, searcherr.KindSchema, searcherr.KindOf(err))
}

func TestValidateJSON_RejectsUnknownField(t *testing.T) {
	raw := json.RawMessage(`{"foodSignal":"YES","extra":true}`)
	err := ValidateJSON(raw, Schema{AllowedFields: []string{"foodSignal"}})
	require.Error(t, err)
	assert.Equal(t, searcherr.KindSchema, searcherr.KindOf(err))
}

func TestValidateJSON_AllowsKnownFields(t *testing.T) {
	raw := json.RawMessage(`{"foodSignal":"YES"}`)
	err := ValidateJSON(raw, Schema{AllowedFields: []string{"foodSignal", "confidence"}})
	assert.NoError(t, err)
}

func TestValidateJSON_RunsSemanticValidator(t *testing.T) {
	raw := json.RawMessage(`{"foodSignal":"MAYBE"}`)
	schema := Schema{
		AllowedFields: []string{"foodSignal"},
		Validate: func(json.RawMessage) error {
			return errors.New("foodSignal must be one of NO/UNCERTAIN/YES")
		},
	}
	err := ValidateJSON(raw, schema)
	require.Error(t, err)
	assert.Equal(t, searcherr.KindSchema, searcherr.KindOf(err))
	assert.False(t, searcherr.IsRetryable(err))
}
