package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/shacharon/pizzasearch/internal/llmgateway"
)

// StageStatus is the Agent-style outcome every stage reports, generalizing
// the teacher's ExecutionStatus across all seven stages instead of one.
type StageStatus string

const (
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
	StageTimedOut  StageStatus = "timed_out"
	StageCancelled StageStatus = "cancelled"
)

// StageResult is the uniform envelope every stage returns. Output carries
// the stage-specific typed result (GateOutput, IntentOutput, ...) and is
// nil whenever Status != StageCompleted.
type StageResult struct {
	Name   StageName
	Status StageStatus
	Output any
	Err    error
}

// StageName identifies one of the seven ordered stages, also used as the
// progress-table key.
type StageName string

const (
	StageNameGate       StageName = "gate"
	StageNameIntent     StageName = "intent"
	StageNameRoute      StageName = "route"
	StageNameExecute    StageName = "execute"
	StageNameScore      StageName = "score"
	StageNamePostFilter StageName = "postfilter"
	StageNameNarrator   StageName = "narrator"
)

// progressTable maps each stage boundary to the percent-complete reported
// to the job and its subscribers, generalized from the teacher's
// per-stage updateSessionProgress/publishSessionProgress calls.
var progressTable = map[StageName]int{
	StageNameGate:       10,
	StageNameIntent:     25,
	StageNameRoute:      35,
	StageNameExecute:    60,
	StageNameScore:      75,
	StageNamePostFilter: 85,
	StageNameNarrator:   100,
}

// ProgressOf returns the percent-complete associated with a stage boundary.
func ProgressOf(name StageName) int { return progressTable[name] }

// Request is the immutable input to one pipeline run.
type Request struct {
	Query        string
	Language     string // hint only; Gate may override from detection
	UserLocation *Coordinates
	Filters      VirtualFilters
	RequestedRadiusMeters int
}

// Deps bundles the pipeline's external collaborators, injected once at
// construction (constructor-injected interfaces, per the design note on
// cyclic-dependency avoidance).
type Deps struct {
	Gateway  llmgateway.Gateway
	Places   PlacesProvider
	Model    string
	Timeouts StageTimeouts
}

// StageTimeouts are the per-stage deadlines (§5: "Deadlines are per-stage
// and not additive").
type StageTimeouts struct {
	Gate       time.Duration
	Intent     time.Duration
	Execute    time.Duration
	Cuisine    time.Duration
	Narrator   time.Duration
}

// Stage is the Agent-shaped contract every pipeline stage implements:
// Execute never returns (nil, error) for an agent-level failure — only
// for infrastructure-level failure with no meaningful result, which this
// pipeline's stages never do (every failure has a deterministic fallback).
type Stage interface {
	Name() StageName
	Execute(ctx context.Context, req *Request, prev any) (*StageResult, error)
}

// ctxErrToStatus maps a context error to the corresponding terminal
// StageStatus, mirroring ScoringAgent.Execute's deadline/cancel branches.
func ctxErrToStatus(err error) (StageStatus, bool) {
	if errors.Is(err, context.DeadlineExceeded) {
		return StageTimedOut, true
	}
	if errors.Is(err, context.Canceled) {
		return StageCancelled, true
	}
	return "", false
}
