// Package orchestrator implements the Job Orchestrator (C10): turns a
// validated submission into a claimed, owned job, runs the pipeline under
// a cancellable per-job context, publishes progress and terminal events,
// and fans enrichment jobs out for each kept result.
package orchestrator

import (
	"time"
	"unicode/utf8"

	"github.com/shacharon/pizzasearch/internal/enrichment"
	"github.com/shacharon/pizzasearch/internal/idempotency"
	"github.com/shacharon/pizzasearch/internal/job"
	"github.com/shacharon/pizzasearch/internal/pipeline"
	"github.com/shacharon/pizzasearch/internal/searcherr"
	"github.com/shacharon/pizzasearch/internal/session"
	"github.com/shacharon/pizzasearch/internal/subscribe"
)

// Filters mirrors the submission interface's filter set (§6).
type Filters struct {
	OpenNow    *bool
	PriceLevel *int
	Dietary    []string
	MustHave   []string
}

// Submission is the Orchestrator's entry point input, built by the
// transport layer from a validated request body.
type Submission struct {
	SessionID    string
	UserID       string // optional, set only when authRequired and an identity was resolved
	Query        string
	UserLocation *pipeline.Coordinates
	Filters      Filters
	ClearContext bool
}

// SubmitResult is returned to the submitting caller. Existing is true when
// this submission collided with an in-flight fingerprint and no new job or
// pipeline run was started.
type SubmitResult struct {
	RequestID string
	Existing  bool
}

// IDGenerator issues a new opaque requestId for a freshly created job.
type IDGenerator func() string

// Deps bundles every collaborator the Orchestrator wires together.
// Constructor-injected, per the cyclic-dependency note in §9: the
// Orchestrator and Enrichment Queue both depend on the Publisher, the
// Publisher depends only on the Subscription Manager.
type Deps struct {
	Sessions    session.Store
	Jobs        job.Store
	Idempotency idempotency.Registry
	Subscribers *subscribe.Manager
	Publisher   *subscribe.Publisher
	Pipeline    *pipeline.Pipeline
	Enrichment  *enrichment.Queue
	Providers   []string // enrichment provider names fanned out per kept result
	NewID       IDGenerator
	JobTimeout  time.Duration
	AuthRequired bool
}

func toFingerprintFilters(f Filters) idempotency.Filters {
	return idempotency.Filters{
		OpenNow:    f.OpenNow,
		PriceLevel: f.PriceLevel,
		Dietary:    f.Dietary,
		MustHave:   f.MustHave,
	}
}

func toFingerprintLocation(c *pipeline.Coordinates) *idempotency.Location {
	if c == nil {
		return nil
	}
	return &idempotency.Location{Lat: c.Lat, Lng: c.Lng}
}

func toPipelineFilters(f Filters) pipeline.VirtualFilters {
	out := pipeline.VirtualFilters{
		OpenNow: f.OpenNow,
	}
	if f.PriceLevel != nil {
		out.PriceMax = f.PriceLevel
	}
	for _, d := range f.Dietary {
		switch d {
		case "kosher":
			v := true
			out.Kosher = &v
		case "vegan":
			v := true
			out.Vegan = &v
		case "gluten_free":
			v := true
			out.GlutenFree = &v
		}
	}
	for _, m := range f.MustHave {
		if m == "accessible" {
			v := true
			out.Accessible = &v
		}
	}
	return out
}

func validateSubmission(s Submission) error {
	if s.SessionID == "" {
		return searcherr.New(searcherr.KindValidation, "submission.missing_session", "sessionId is required")
	}
	n := utf8.RuneCountInString(s.Query)
	if n < 1 || n > 500 {
		return searcherr.New(searcherr.KindValidation, "submission.query_length", "query must be 1..500 characters")
	}
	if s.UserLocation != nil {
		if s.UserLocation.Lat < -90 || s.UserLocation.Lat > 90 {
			return searcherr.New(searcherr.KindValidation, "submission.invalid_lat", "lat must be in [-90,90]")
		}
		if s.UserLocation.Lng < -180 || s.UserLocation.Lng > 180 {
			return searcherr.New(searcherr.KindValidation, "submission.invalid_lng", "lng must be in [-180,180]")
		}
	}
	if s.Filters.PriceLevel != nil {
		if *s.Filters.PriceLevel < 1 || *s.Filters.PriceLevel > 4 {
			return searcherr.New(searcherr.KindValidation, "submission.invalid_price_level", "priceLevel must be in 1..4")
		}
	}
	return nil
}
