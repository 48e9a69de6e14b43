package pipeline

import "context"

// defaultRadiusMeters is used when Route-Map selects nearbysearch but
// neither the request nor the model supplied an explicit radius.
const defaultRadiusMeters = 2000

// RouteStage is a deterministic stage: no LLM call, no failure mode.
type RouteStage struct{}

func NewRouteStage() *RouteStage { return &RouteStage{} }

func (s *RouteStage) Name() StageName { return StageNameRoute }

func (s *RouteStage) Execute(ctx context.Context, req *Request, prev any) (*StageResult, error) {
	intent, _ := prev.(IntentOutput)

	mode := RouteTextSearch
	if req.UserLocation != nil || intent.Location.IsRelative || req.RequestedRadiusMeters > 0 || intent.RadiusMeters > 0 {
		mode = RouteNearbySearch
	}

	radius := defaultRadiusMeters
	switch {
	case req.RequestedRadiusMeters > 0:
		radius = req.RequestedRadiusMeters
	case intent.RadiusMeters > 0:
		radius = intent.RadiusMeters
	}

	return &StageResult{
		Name:   s.Name(),
		Status: StageCompleted,
		Output: RouteOutput{Mode: mode, Radius: radius},
	}, nil
}
