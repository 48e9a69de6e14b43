package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shacharon/pizzasearch/internal/llmgateway"
)

// GateStage classifies whether a query is food/restaurant related at all.
type GateStage struct {
	gateway llmgateway.Gateway
	model   string
}

func NewGateStage(gateway llmgateway.Gateway, model string) *GateStage {
	return &GateStage{gateway: gateway, model: model}
}

func (s *GateStage) Name() StageName { return StageNameGate }

var gateSchema = llmgateway.Schema{
	AllowedFields: []string{"foodSignal", "language", "confidence"},
	Validate: func(raw json.RawMessage) error {
		var v struct {
			FoodSignal string  `json:"foodSignal"`
			Confidence float64 `json:"confidence"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		switch FoodSignal(v.FoodSignal) {
		case FoodSignalNo, FoodSignalUncertain, FoodSignalYes:
		default:
			return errInvalidFoodSignal
		}
		if v.Confidence < 0 || v.Confidence > 1 {
			return errConfidenceOutOfRange
		}
		return nil
	},
}

func (s *GateStage) Execute(ctx context.Context, req *Request, _ any) (*StageResult, error) {
	messages := []llmgateway.Message{
		{Role: llmgateway.RoleSystem, Content: gateSystemPrompt},
		{Role: llmgateway.RoleUser, Content: req.Query},
	}

	raw, err := s.gateway.CompleteJSON(ctx, messages, gateSchema, llmgateway.Options{Model: s.model})
	if err != nil {
		slog.Warn("pipeline: gate stage falling back to synthetic STOP", "err", err)
		return &StageResult{
			Name:   s.Name(),
			Status: StageCompleted,
			Output: GateOutput{FoodSignal: FoodSignalNo, Confidence: 0.1, StopReason: "GATE_UNAVAILABLE"},
			Err:    err,
		}, nil
	}

	var parsed struct {
		FoodSignal string  `json:"foodSignal"`
		Language   string  `json:"language"`
		Confidence float64 `json:"confidence"`
	}
	_ = json.Unmarshal(raw, &parsed)

	out := GateOutput{
		FoodSignal: FoodSignal(parsed.FoodSignal),
		Language:   parsed.Language,
		Confidence: parsed.Confidence,
	}
	if out.FoodSignal == FoodSignalNo {
		out.StopReason = "NOT_FOOD"
	}
	return &StageResult{Name: s.Name(), Status: StageCompleted, Output: out}, nil
}

const gateSystemPrompt = `Classify whether the user's message is about finding food or a restaurant.
Respond with JSON only: {"foodSignal":"NO"|"UNCERTAIN"|"YES","language":"<ISO 639-1>","confidence":0..1}`
