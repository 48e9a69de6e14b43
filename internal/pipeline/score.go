package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shacharon/pizzasearch/internal/llmgateway"
)

// fastPathMaxCandidates: at or below this count, cuisine scoring is
// skipped and all candidates get a neutral score (§4.8).
const fastPathMaxCandidates = 3

// ScoreStage assigns a boost-only cuisine-match score per candidate; it
// never filters out a candidate.
type ScoreStage struct {
	gateway llmgateway.Gateway
	model   string
}

func NewScoreStage(gateway llmgateway.Gateway, model string) *ScoreStage {
	return &ScoreStage{gateway: gateway, model: model}
}

func (s *ScoreStage) Name() StageName { return StageNameScore }

var scoreSchema = llmgateway.Schema{
	AllowedFields: []string{"scores"},
}

func (s *ScoreStage) Execute(ctx context.Context, req *Request, prev any) (*StageResult, error) {
	candidates, _ := prev.([]Candidate)

	if len(candidates) <= fastPathMaxCandidates {
		return &StageResult{Name: s.Name(), Status: StageCompleted, Output: neutralScores(candidates)}, nil
	}

	intent, _ := ctx.Value(intentContextKey{}).(IntentOutput)

	messages := []llmgateway.Message{
		{Role: llmgateway.RoleSystem, Content: scoreSystemPrompt},
		{Role: llmgateway.RoleUser, Content: buildScorePrompt(intent, candidates)},
	}

	raw, err := s.gateway.CompleteJSON(ctx, messages, scoreSchema, llmgateway.Options{Model: s.model})
	if err != nil {
		slog.Warn("pipeline: score stage falling back to empty scores", "err", err)
		return &StageResult{Name: s.Name(), Status: StageCompleted, Output: ScoreMap{}, Err: err}, nil
	}

	var wire struct {
		Scores map[string]float64 `json:"scores"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return &StageResult{Name: s.Name(), Status: StageCompleted, Output: ScoreMap{}, Err: err}, nil
	}

	scores := make(ScoreMap, len(wire.Scores))
	for placeID, v := range wire.Scores {
		scores[placeID] = clamp01(v)
	}
	return &StageResult{Name: s.Name(), Status: StageCompleted, Output: scores}, nil
}

func neutralScores(candidates []Candidate) ScoreMap {
	scores := make(ScoreMap, len(candidates))
	for _, c := range candidates {
		scores[c.PlaceID] = 0.5
	}
	return scores
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func buildScorePrompt(intent IntentOutput, candidates []Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Required/preferred cuisine: %s\nCandidates:\n", intent.FoodCanonical)
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s (%s): %s\n", c.PlaceID, c.Name, strings.Join(c.Cuisine, ", "))
	}
	return b.String()
}

const scoreSystemPrompt = `Score how well each candidate place matches the required/preferred cuisine, 0..1.
Respond with JSON only: {"scores":{"<placeId>":0..1, ...}}. Never omit a candidate; unsure entries get 0.5.`
