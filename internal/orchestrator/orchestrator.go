package orchestrator

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/shacharon/pizzasearch/internal/enrichment"
	"github.com/shacharon/pizzasearch/internal/idempotency"
	"github.com/shacharon/pizzasearch/internal/job"
	"github.com/shacharon/pizzasearch/internal/pipeline"
	"github.com/shacharon/pizzasearch/internal/searcherr"
	"github.com/shacharon/pizzasearch/internal/subscribe"
)

// Orchestrator is the Job Orchestrator (C10), generalized from the
// teacher's WorkerPool: one goroutine per in-flight job, a cancel-function
// registry keyed by requestId instead of sessionId, and a strict
// claim -> create -> activate-pending ordering before any progress event.
type Orchestrator struct {
	deps Deps

	mu         sync.Mutex
	activeJobs map[string]context.CancelFunc
}

// New builds an Orchestrator. The caller is responsible for starting
// deps.Enrichment's worker pool separately (C9 lifecycle is independent of
// C10's).
func New(deps Deps) *Orchestrator {
	if deps.NewID == nil {
		deps.NewID = defaultID
	}
	return &Orchestrator{deps: deps, activeJobs: make(map[string]context.CancelFunc)}
}

// Submit validates a submission, resolves it against the idempotency
// registry, and — for a fresh fingerprint — creates the job, activates any
// pending subscribers, and launches the pipeline run in its own goroutine
// under a cancellable per-job context. Submit itself never blocks on the
// pipeline.
func (o *Orchestrator) Submit(ctx context.Context, sub Submission) (SubmitResult, error) {
	if err := validateSubmission(sub); err != nil {
		return SubmitResult{}, err
	}

	if o.deps.AuthRequired {
		if _, err := o.deps.Sessions.Get(ctx, sub.SessionID); err != nil {
			return SubmitResult{}, searcherr.Wrap(searcherr.KindAuthMismatch, "submission.invalid_session", err)
		}
	}

	fp := idempotency.Fingerprint(idempotency.Input{
		SessionID: sub.SessionID,
		Query:     sub.Query,
		Mode:      routeModeHint(sub),
		Location:  toFingerprintLocation(sub.UserLocation),
		Filters:   toFingerprintFilters(sub.Filters),
	})

	requestID := o.deps.NewID()
	claimed, err := o.deps.Idempotency.Claim(ctx, fp, requestID)
	if err != nil {
		return SubmitResult{}, searcherr.Wrap(searcherr.KindDependencyDown, "idempotency.claim_failed", err)
	}
	if !claimed {
		existing, ok, err := o.deps.Idempotency.Lookup(ctx, fp)
		if err != nil {
			return SubmitResult{}, searcherr.Wrap(searcherr.KindDependencyDown, "idempotency.lookup_failed", err)
		}
		if ok {
			return SubmitResult{RequestID: existing, Existing: true}, nil
		}
		// The claim was released between our failed Claim and this Lookup
		// (the in-flight run just finished) — fall through and claim fresh.
		claimed, err = o.deps.Idempotency.Claim(ctx, fp, requestID)
		if err != nil {
			return SubmitResult{}, searcherr.Wrap(searcherr.KindDependencyDown, "idempotency.claim_failed", err)
		}
		if !claimed {
			return SubmitResult{}, searcherr.New(searcherr.KindInternal, "idempotency.claim_race", "could not claim fingerprint")
		}
	}

	if _, err := o.deps.Jobs.Create(ctx, requestID, job.CreateParams{
		SessionID:      sub.SessionID,
		Query:          sub.Query,
		OwnerUserID:    sub.UserID,
		OwnerSessionID: sub.SessionID,
	}); err != nil {
		_ = o.deps.Idempotency.Release(ctx, fp)
		return SubmitResult{}, searcherr.Wrap(searcherr.KindDependencyDown, "job.create_failed", err)
	}

	// ActivatePending must run before the first progress event is
	// published, so any subscriber that raced ahead of job creation gets
	// its ack before any application event (§4.10, ordering guarantee (d)).
	o.deps.Subscribers.ActivatePending(requestID)

	runCtx, cancel := context.WithTimeout(context.Background(), o.deps.JobTimeout)
	o.registerJob(requestID, cancel)

	go o.run(runCtx, cancel, requestID, sub, fp)

	return SubmitResult{RequestID: requestID}, nil
}

// Cancel triggers cancellation of requestID's in-flight run, mirroring
// WorkerPool.CancelSession. Returns true if a running job was found.
func (o *Orchestrator) Cancel(requestID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if cancel, ok := o.activeJobs[requestID]; ok {
		cancel()
		return true
	}
	return false
}

func (o *Orchestrator) registerJob(requestID string, cancel context.CancelFunc) {
	o.mu.Lock()
	o.activeJobs[requestID] = cancel
	o.mu.Unlock()
}

func (o *Orchestrator) unregisterJob(requestID string) {
	o.mu.Lock()
	delete(o.activeJobs, requestID)
	o.mu.Unlock()
}

func (o *Orchestrator) run(ctx context.Context, cancel context.CancelFunc, requestID string, sub Submission, fingerprint string) {
	defer cancel()
	defer o.unregisterJob(requestID)
	defer func() {
		if err := o.deps.Idempotency.Release(context.Background(), fingerprint); err != nil {
			slog.Warn("orchestrator: idempotency release failed", "requestId", requestID, "err", err)
		}
	}()

	initial := 0
	if err := o.deps.Jobs.SetStatus(ctx, requestID, job.StatusRunning, &initial); err != nil {
		slog.Error("orchestrator: failed to mark job running", "requestId", requestID, "err", err)
	}
	o.deps.Publisher.PublishProgress(requestID, string(job.StatusRunning), 0)

	req := &pipeline.Request{
		Query:        sub.Query,
		UserLocation: sub.UserLocation,
		Filters:      toPipelineFilters(sub.Filters),
	}

	progress := func(stage pipeline.StageName, percent int) {
		if err := o.deps.Jobs.SetStatus(ctx, requestID, job.StatusRunning, &percent); err != nil {
			slog.Warn("orchestrator: progress write failed", "requestId", requestID, "stage", stage, "err", err)
		}
		o.deps.Publisher.PublishProgress(requestID, string(job.StatusRunning), percent)
	}

	result := o.deps.Pipeline.Run(ctx, req, progress)
	o.finish(ctx, requestID, sub, result)
}

// finish maps a pipeline terminal Result onto the job's terminal status and
// publishes the corresponding terminal + assistant events, then fans out
// enrichment jobs for any kept result.
func (o *Orchestrator) finish(ctx context.Context, requestID string, sub Submission, result *pipeline.Result) {
	o.deps.Publisher.PublishAssistant(requestID, assistantPayload(result.Narration))

	switch result.State {
	case pipeline.ResultStop:
		o.terminate(ctx, requestID, job.StatusDoneStopped, subscribe.TerminalStopped, terminalPayload(result))
	case pipeline.ResultClarify:
		o.terminate(ctx, requestID, job.StatusDoneClarify, subscribe.TerminalClarify, terminalPayload(result))
	case pipeline.ResultFailed:
		errInfo := job.ErrorInfo{
			Code:    "pipeline.failed",
			Message: errString(result.Err),
			Kind:    string(searcherr.KindOf(result.Err)),
		}
		if err := o.deps.Jobs.SetError(ctx, requestID, errInfo); err != nil {
			slog.Error("orchestrator: failed to record job error", "requestId", requestID, "err", err)
		}
		o.deps.Publisher.PublishTerminal(requestID, subscribe.TerminalFailed, errInfo)
	case pipeline.ResultDone:
		raw, err := json.Marshal(terminalPayload(result))
		if err != nil {
			slog.Error("orchestrator: failed to marshal result", "requestId", requestID, "err", err)
			raw = []byte("{}")
		}
		if err := o.deps.Jobs.SetResult(ctx, requestID, raw); err != nil {
			slog.Error("orchestrator: failed to record job result", "requestId", requestID, "err", err)
		}
		o.deps.Publisher.PublishTerminal(requestID, subscribe.TerminalResult, terminalPayload(result))
		o.enqueueEnrichment(requestID, sub, result.Candidates)
	}
}

func (o *Orchestrator) terminate(ctx context.Context, requestID string, status job.Status, kind subscribe.TerminalKind, payload any) {
	if err := o.deps.Jobs.SetStatus(ctx, requestID, status, nil); err != nil {
		slog.Error("orchestrator: failed to set terminal status", "requestId", requestID, "status", status, "err", err)
	}
	o.deps.Publisher.PublishTerminal(requestID, kind, payload)
}

func (o *Orchestrator) enqueueEnrichment(requestID string, sub Submission, candidates []pipeline.Candidate) {
	if o.deps.Enrichment == nil {
		return
	}
	for _, c := range candidates {
		for _, provider := range o.deps.Providers {
			o.deps.Enrichment.Enqueue(enrichment.Job{
				RequestID: requestID,
				Provider:  provider,
				PlaceID:   c.PlaceID,
				Name:      c.Name,
				CityText:  sub.Query,
			})
		}
	}
}

func assistantPayload(n pipeline.NarratorOutput) subscribe.AssistantEventPayload {
	return subscribe.AssistantEventPayload{
		Type:            subscribe.AssistantPayloadType(n.Type),
		Message:         n.Message,
		Question:        n.Question,
		SuggestedAction: n.SuggestedAction,
		BlocksSearch:    n.BlocksSearch,
	}
}

// terminalPayload is the wire document attached to the terminal event,
// covering all four terminal shapes with the fields relevant to each.
func terminalPayload(r *pipeline.Result) map[string]any {
	payload := map[string]any{
		"narration": assistantPayload(r.Narration),
	}
	if r.State == pipeline.ResultDone {
		payload["results"] = r.Candidates
		payload["stats"] = r.Stats
	}
	return payload
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func routeModeHint(sub Submission) string {
	if sub.UserLocation != nil {
		return "nearbysearch"
	}
	return "textsearch"
}
