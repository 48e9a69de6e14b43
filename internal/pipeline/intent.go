package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shacharon/pizzasearch/internal/llmgateway"
)

// IntentStage extracts a canonical, English food term plus the location
// and filter shape from the raw query.
type IntentStage struct {
	gateway llmgateway.Gateway
	model   string
}

func NewIntentStage(gateway llmgateway.Gateway, model string) *IntentStage {
	return &IntentStage{gateway: gateway, model: model}
}

func (s *IntentStage) Name() StageName { return StageNameIntent }

var intentSchema = llmgateway.Schema{
	AllowedFields: []string{"foodCanonical", "location", "radiusMeters", "targetType", "confidence", "virtual"},
	Validate: func(raw json.RawMessage) error {
		var v struct {
			TargetType string  `json:"targetType"`
			Confidence float64 `json:"confidence"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		switch TargetType(v.TargetType) {
		case TargetExact, TargetCoords, TargetFree:
		default:
			return errInvalidTargetType
		}
		if v.Confidence < 0 || v.Confidence > 1 {
			return errConfidenceOutOfRange
		}
		return nil
	},
}

type intentWire struct {
	FoodCanonical string `json:"foodCanonical"`
	Location      struct {
		Text       string `json:"text"`
		IsRelative bool   `json:"isRelative"`
	} `json:"location"`
	RadiusMeters int     `json:"radiusMeters"`
	TargetType   string  `json:"targetType"`
	Confidence   float64 `json:"confidence"`
	Virtual      struct {
		Kosher     *bool `json:"kosher"`
		Vegan      *bool `json:"vegan"`
		GlutenFree *bool `json:"glutenFree"`
		OpenNow    *bool `json:"openNow"`
	} `json:"virtual"`
}

// fallbackIntent is the minimal safe intent used when the Gate-side food
// term can't be resolved through the LLM (§4.8 Intent-Lite failure mode).
func fallbackIntent() IntentOutput {
	return IntentOutput{
		FoodCanonical: "restaurant",
		Location:      IntentLocation{IsRelative: false},
		TargetType:    TargetFree,
		Confidence:    0.1,
	}
}

func (s *IntentStage) Execute(ctx context.Context, req *Request, _ any) (*StageResult, error) {
	messages := []llmgateway.Message{
		{Role: llmgateway.RoleSystem, Content: intentSystemPrompt},
		{Role: llmgateway.RoleUser, Content: req.Query},
	}

	raw, err := s.gateway.CompleteJSON(ctx, messages, intentSchema, llmgateway.Options{Model: s.model})
	if err != nil {
		slog.Warn("pipeline: intent stage falling back to minimal safe intent", "err", err)
		return &StageResult{Name: s.Name(), Status: StageCompleted, Output: fallbackIntent(), Err: err}, nil
	}

	var wire intentWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		out := fallbackIntent()
		return &StageResult{Name: s.Name(), Status: StageCompleted, Output: out, Err: err}, nil
	}

	out := IntentOutput{
		FoodCanonical: wire.FoodCanonical,
		Location:      IntentLocation{Text: wire.Location.Text, IsRelative: wire.Location.IsRelative},
		RadiusMeters:  wire.RadiusMeters,
		TargetType:    TargetType(wire.TargetType),
		Confidence:    wire.Confidence,
		Virtual: VirtualFilters{
			Kosher:     wire.Virtual.Kosher,
			Vegan:      wire.Virtual.Vegan,
			GlutenFree: wire.Virtual.GlutenFree,
			OpenNow:    wire.Virtual.OpenNow,
		},
	}
	if out.FoodCanonical == "" {
		out.FoodCanonical = "restaurant"
	}

	// Near-me override (§4.8): a near-me query with no user location must
	// mark the location relative regardless of what the model extracted,
	// so Route/Clarify logic downstream can force the CLARIFY path.
	if IsNearMeQuery(req.Query) {
		out.Location.IsRelative = true
	}

	return &StageResult{Name: s.Name(), Status: StageCompleted, Output: out}, nil
}

const intentSystemPrompt = `Extract search intent from the user's food query. Respond with JSON only:
{"foodCanonical":"<English cuisine/food noun>","location":{"text":"<raw location text or empty>","isRelative":bool},
"radiusMeters":<int, 0 if unspecified>,"targetType":"EXACT"|"COORDS"|"FREE","confidence":0..1,
"virtual":{"kosher":bool|null,"vegan":bool|null,"glutenFree":bool|null,"openNow":bool|null}}`
