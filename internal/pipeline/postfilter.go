package pipeline

import "context"

// PostFilterStage deterministically removes candidates that violate an
// explicit constraint. A constraint is skipped for any candidate whose
// corresponding attribute is unknown (nil) — unknown is never treated as
// a violation.
type PostFilterStage struct{}

func NewPostFilterStage() *PostFilterStage { return &PostFilterStage{} }

func (s *PostFilterStage) Name() StageName { return StageNamePostFilter }

func (s *PostFilterStage) Execute(ctx context.Context, req *Request, prev any) (*StageResult, error) {
	candidates, _ := prev.([]Candidate)
	filters := req.Filters

	stats := PostFilterStats{InputCount: len(candidates)}
	out := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		if filters.OpenNow != nil && *filters.OpenNow && !c.OpenNow {
			stats.RemovedOpenNow++
			continue
		}
		if filters.PriceMax != nil && c.PriceLevel > *filters.PriceMax {
			stats.RemovedPrice++
			continue
		}
		if violatesDietary(filters, c) {
			stats.RemovedDietary++
			continue
		}
		if filters.Accessible != nil && *filters.Accessible && c.Accessible != nil && !*c.Accessible {
			stats.RemovedAccessible++
			continue
		}
		out = append(out, c)
	}
	stats.OutputCount = len(out)

	return &StageResult{
		Name:   s.Name(),
		Status: StageCompleted,
		Output: PostFilterOutput{Candidates: out, Stats: stats},
	}, nil
}

func violatesDietary(filters VirtualFilters, c Candidate) bool {
	if filters.Kosher != nil && *filters.Kosher && c.Kosher != nil && !*c.Kosher {
		return true
	}
	if filters.Vegan != nil && *filters.Vegan && c.Vegan != nil && !*c.Vegan {
		return true
	}
	if filters.GlutenFree != nil && *filters.GlutenFree && c.GlutenFree != nil && !*c.GlutenFree {
		return true
	}
	return false
}
