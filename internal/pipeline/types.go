// Package pipeline implements the seven-stage search pipeline (C8):
// Gate, Intent-Lite, Route-Map, Execute, Cuisine-Scoring, Post-Filter and
// Narrator, each shaped as an agent.Agent-style stage (never returning
// (nil, error) for an agent-level failure) and generalized from the
// teacher's ScoringAgent/Executor stage-boundary idiom.
package pipeline

// FoodSignal is the Gate stage's classification of whether a query is
// food/restaurant related.
type FoodSignal string

const (
	FoodSignalNo        FoodSignal = "NO"
	FoodSignalUncertain FoodSignal = "UNCERTAIN"
	FoodSignalYes       FoodSignal = "YES"
)

// TargetType is the Intent-Lite stage's classification of how precisely a
// location was specified.
type TargetType string

const (
	TargetExact  TargetType = "EXACT"
	TargetCoords TargetType = "COORDS"
	TargetFree   TargetType = "FREE"
)

// RouteMode selects which places-search endpoint shape to use.
type RouteMode string

const (
	RouteNearbySearch RouteMode = "nearbysearch"
	RouteTextSearch   RouteMode = "textsearch"
)

// Coordinates is a WGS84 lat/lng pair.
type Coordinates struct {
	Lat float64
	Lng float64
}

// VirtualFilters are the dietary/open-now style constraints Intent-Lite
// extracts and Post-Filter enforces.
type VirtualFilters struct {
	Kosher      *bool
	Vegan       *bool
	GlutenFree  *bool
	OpenNow     *bool
	PriceMax    *int
	Accessible  *bool
}

// GateOutput is the Gate stage's typed result.
type GateOutput struct {
	FoodSignal FoodSignal
	Language   string
	Confidence float64
	// StopReason is set only when FoodSignal == NO and the pipeline should
	// terminate with a GATE_FAIL narration.
	StopReason string
}

// IntentLocation is the location fragment of Intent-Lite's output.
type IntentLocation struct {
	Text       string
	IsRelative bool
}

// IntentOutput is the Intent-Lite stage's typed result.
type IntentOutput struct {
	FoodCanonical string // English canonical cuisine/food term
	Location      IntentLocation
	RadiusMeters  int // 0 means "not specified"
	TargetType    TargetType
	Confidence    float64
	Virtual       VirtualFilters
}

// RouteOutput is the Route-Map stage's typed (deterministic) result.
type RouteOutput struct {
	Mode   RouteMode
	Radius int
}

// Candidate is one place returned by the Execute stage.
type Candidate struct {
	PlaceID     string
	Name        string
	Rating      float64
	UserRatings int
	PriceLevel  int
	OpenNow     bool
	Cuisine     []string
	DistanceM   float64
	Lat, Lng    float64

	// Dietary/accessibility attributes the provider may report; nil means
	// "unknown" and Post-Filter never excludes on an unknown attribute.
	Kosher      *bool
	Vegan       *bool
	GlutenFree  *bool
	Accessible  *bool
}

// ScoreMap is the Cuisine-Scoring stage's output: placeId -> score in [0,1].
type ScoreMap map[string]float64

// PostFilterStats reports what Post-Filter removed, for observability.
type PostFilterStats struct {
	InputCount       int
	OutputCount      int
	RemovedOpenNow   int
	RemovedPrice     int
	RemovedDietary   int
	RemovedAccessible int
}

// PostFilterOutput is the Post-Filter stage's typed result.
type PostFilterOutput struct {
	Candidates []Candidate
	Stats      PostFilterStats
}

// NarratorContextType selects which of the three Narrator templates apply.
type NarratorContextType string

const (
	NarratorGateFail NarratorContextType = "GATE_FAIL"
	NarratorClarify  NarratorContextType = "CLARIFY"
	NarratorSummary  NarratorContextType = "SUMMARY"
)

// NarratorInput is what the Narrator stage is asked to narrate.
type NarratorInput struct {
	Type       NarratorContextType
	Reason     string // e.g. MISSING_LOCATION, NOT_FOOD, NO_RESULTS
	Language   string
	ResultCount int
}

// NarratorOutput is the Narrator stage's typed, invariant-checked result.
type NarratorOutput struct {
	Type            NarratorContextType
	Message         string
	Question        *string
	SuggestedAction string
	BlocksSearch    bool
}
