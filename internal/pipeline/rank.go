package pipeline

import "sort"

// Rank weights (Open Question decision recorded in DESIGN.md): cuisine
// score dominates, then rating, then proximity.
const (
	weightCuisine  = 0.45
	weightRating   = 0.35
	weightProximity = 0.20
)

// maxConsideredDistanceM bounds the proximity term: a candidate at or
// beyond this distance contributes zero proximity score.
const maxConsideredDistanceM = 5000.0

// Rank sorts candidates by a weighted composite of cuisine score,
// normalized rating, and proximity (closer is better), descending.
// Candidates missing from scores are treated as neutral (0.5).
func Rank(candidates []Candidate, scores ScoreMap) []Candidate {
	ranked := append([]Candidate(nil), candidates...)
	composite := make(map[string]float64, len(ranked))
	for _, c := range ranked {
		composite[c.PlaceID] = compositeScore(c, scores)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return composite[ranked[i].PlaceID] > composite[ranked[j].PlaceID]
	})
	return ranked
}

func compositeScore(c Candidate, scores ScoreMap) float64 {
	cuisine, ok := scores[c.PlaceID]
	if !ok {
		cuisine = 0.5
	}
	rating := c.Rating / 5.0
	if rating < 0 {
		rating = 0
	}
	if rating > 1 {
		rating = 1
	}
	proximity := 1.0 - (c.DistanceM / maxConsideredDistanceM)
	if proximity < 0 {
		proximity = 0
	}
	if proximity > 1 {
		proximity = 1
	}
	return weightCuisine*cuisine + weightRating*rating + weightProximity*proximity
}
