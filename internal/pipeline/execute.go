package pipeline

import (
	"context"

	"github.com/shacharon/pizzasearch/internal/searcherr"
)

// ExecuteStage calls the places provider. A provider failure is retried
// once (transient classification) before being surfaced, per §4.8.
type ExecuteStage struct {
	places PlacesProvider
}

func NewExecuteStage(places PlacesProvider) *ExecuteStage {
	return &ExecuteStage{places: places}
}

func (s *ExecuteStage) Name() StageName { return StageNameExecute }

func (s *ExecuteStage) Execute(ctx context.Context, req *Request, prev any) (*StageResult, error) {
	route, _ := prev.(RouteOutput)
	intentAny := ctx.Value(intentContextKey{})
	intent, _ := intentAny.(IntentOutput)

	candidates, err := s.places.Search(ctx, route, intent, req.UserLocation)
	if err != nil {
		if status, isCtx := ctxErrToStatus(err); isCtx {
			return &StageResult{Name: s.Name(), Status: status, Err: err}, nil
		}
		if searcherr.IsRetryable(err) {
			candidates, err = s.places.Search(ctx, route, intent, req.UserLocation)
		}
		if err != nil {
			return &StageResult{Name: s.Name(), Status: StageFailed, Err: err}, nil
		}
	}

	return &StageResult{Name: s.Name(), Status: StageCompleted, Output: candidates}, nil
}

// intentContextKey threads the Intent-Lite output into ExecuteStage without
// widening the Stage interface's prev parameter beyond "the immediately
// preceding stage's output" — the pipeline driver stores it before
// invoking Execute.
type intentContextKey struct{}

// WithIntent returns a context carrying intent for ExecuteStage to read.
func WithIntent(ctx context.Context, intent IntentOutput) context.Context {
	return context.WithValue(ctx, intentContextKey{}, intent)
}
