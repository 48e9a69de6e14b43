package pipeline

import "context"

// ResultState is the pipeline's terminal state, matching the state
// machine in §4.8: NEW -> GATE -> (STOP|CLARIFY|CONTINUE) -> INTENT ->
// ROUTE -> EXECUTE -> SCORE -> POSTFILTER -> SUMMARIZE -> DONE.
type ResultState string

const (
	ResultStop    ResultState = "STOP"
	ResultClarify ResultState = "CLARIFY"
	ResultDone    ResultState = "DONE"
	ResultFailed  ResultState = "FAILED"
)

// Result is the pipeline's single return value; callers switch on State.
type Result struct {
	State      ResultState
	Narration  NarratorOutput
	Candidates []Candidate // ranked, populated only when State == ResultDone
	Stats      PostFilterStats
	Err        error // populated only when State == ResultFailed
}

// ProgressFunc is called at every stage boundary so the orchestrator can
// update the job and publish a progress event (§4.10).
type ProgressFunc func(stage StageName, percent int)

// Pipeline wires the seven stages in their fixed order.
type Pipeline struct {
	gate       *GateStage
	intent     *IntentStage
	route      *RouteStage
	execute    *ExecuteStage
	score      *ScoreStage
	postfilter *PostFilterStage
	narrator   *NarratorStage
	timeouts   StageTimeouts
}

func New(deps Deps) *Pipeline {
	return &Pipeline{
		gate:       NewGateStage(deps.Gateway, deps.Model),
		intent:     NewIntentStage(deps.Gateway, deps.Model),
		route:      NewRouteStage(),
		execute:    NewExecuteStage(deps.Places),
		score:      NewScoreStage(deps.Gateway, deps.Model),
		postfilter: NewPostFilterStage(),
		narrator:   NewNarratorStage(deps.Gateway, deps.Model),
		timeouts:   deps.Timeouts,
	}
}

func noopProgress(StageName, int) {}

// Run executes the full pipeline for one request, reporting progress at
// each stage boundary and returning exactly one terminal Result.
func (p *Pipeline) Run(ctx context.Context, req *Request, progress ProgressFunc) *Result {
	if progress == nil {
		progress = noopProgress
	}
	if err := ctx.Err(); err != nil {
		return &Result{State: ResultFailed, Err: err}
	}

	gateCtx, cancel := context.WithTimeout(ctx, p.timeouts.Gate)
	gateRes, _ := p.gate.Execute(gateCtx, req, nil)
	cancel()
	progress(StageNameGate, ProgressOf(StageNameGate))
	gateOut, _ := gateRes.Output.(GateOutput)
	if gateOut.FoodSignal == FoodSignalNo {
		narration := p.narrator.Narrate(ctx, NarratorInput{
			Type: NarratorGateFail, Reason: gateOut.StopReason, Language: gateOut.Language,
		})
		return &Result{State: ResultStop, Narration: narration}
	}

	intentCtx, cancel := context.WithTimeout(ctx, p.timeouts.Intent)
	intentRes, _ := p.intent.Execute(intentCtx, req, gateOut)
	cancel()
	progress(StageNameIntent, ProgressOf(StageNameIntent))
	intentOut, _ := intentRes.Output.(IntentOutput)

	if IsNearMeQuery(req.Query) && req.UserLocation == nil {
		narration := p.narrator.Narrate(ctx, NarratorInput{
			Type: NarratorClarify, Reason: "MISSING_LOCATION", Language: gateOut.Language,
		})
		return &Result{State: ResultClarify, Narration: narration}
	}

	routeRes, _ := p.route.Execute(ctx, req, intentOut)
	progress(StageNameRoute, ProgressOf(StageNameRoute))
	routeOut, _ := routeRes.Output.(RouteOutput)
	if IsNearMeQuery(req.Query) && req.UserLocation != nil {
		routeOut.Mode = RouteNearbySearch
	}

	execCtx, cancel := context.WithTimeout(WithIntent(ctx, intentOut), p.timeouts.Execute)
	execRes, _ := p.execute.Execute(execCtx, req, routeOut)
	cancel()
	progress(StageNameExecute, ProgressOf(StageNameExecute))
	if execRes.Status != StageCompleted {
		return &Result{State: ResultFailed, Err: execRes.Err}
	}
	candidates, _ := execRes.Output.([]Candidate)

	scoreCtx, cancel := context.WithTimeout(WithIntent(ctx, intentOut), p.timeouts.Cuisine)
	scoreRes, _ := p.score.Execute(scoreCtx, req, candidates)
	cancel()
	progress(StageNameScore, ProgressOf(StageNameScore))
	scores, _ := scoreRes.Output.(ScoreMap)

	pfRes, _ := p.postfilter.Execute(ctx, req, candidates)
	progress(StageNamePostFilter, ProgressOf(StageNamePostFilter))
	pfOut, _ := pfRes.Output.(PostFilterOutput)

	ranked := Rank(pfOut.Candidates, scores)

	narrCtx, cancel := context.WithTimeout(ctx, p.timeouts.Narrator)
	narration := p.narrator.Narrate(narrCtx, NarratorInput{
		Type: NarratorSummary, Language: gateOut.Language, ResultCount: len(ranked),
	})
	cancel()
	progress(StageNameNarrator, ProgressOf(StageNameNarrator))

	return &Result{State: ResultDone, Narration: narration, Candidates: ranked, Stats: pfOut.Stats}
}
