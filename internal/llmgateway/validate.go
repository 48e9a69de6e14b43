package llmgateway

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shacharon/pizzasearch/internal/searcherr"
)

// ValidateJSON rejects unparseable JSON, rejects any top-level field not in
// schema.AllowedFields (when the list is non-empty), then runs the
// semantic validator. Never retried by the caller — a schema failure is a
// SCHEMA kind, not TRANSIENT.
func ValidateJSON(raw json.RawMessage, schema Schema) error {
	if !json.Valid(raw) {
		return searcherr.New(searcherr.KindSchema, "llmgateway.invalid_json", "model output is not valid JSON")
	}

	if len(schema.AllowedFields) > 0 {
		var fields map[string]json.RawMessage
		dec := json.NewDecoder(bytes.NewReader(raw))
		if err := dec.Decode(&fields); err != nil {
			return searcherr.Wrap(searcherr.KindSchema, "llmgateway.not_an_object", err)
		}
		allowed := make(map[string]bool, len(schema.AllowedFields))
		for _, f := range schema.AllowedFields {
			allowed[f] = true
		}
		for field := range fields {
			if !allowed[field] {
				return searcherr.New(searcherr.KindSchema, "llmgateway.unknown_field", fmt.Sprintf("unexpected field %q", field))
			}
		}
	}

	if schema.Validate != nil {
		if err := schema.Validate(raw); err != nil {
			return searcherr.Wrap(searcherr.KindSchema, "llmgateway.semantic_validation", err)
		}
	}

	return nil
}
