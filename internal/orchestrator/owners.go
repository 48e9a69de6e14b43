package orchestrator

import (
	"context"
	"errors"

	"github.com/shacharon/pizzasearch/internal/job"
	"github.com/shacharon/pizzasearch/internal/searcherr"
	"github.com/shacharon/pizzasearch/internal/subscribe"
)

// jobOwnerLookup adapts job.Store to subscribe.OwnerLookup so the
// Subscription Manager can check ownership without importing the job
// package directly.
type jobOwnerLookup struct {
	jobs job.Store
}

func newJobOwnerLookup(jobs job.Store) *jobOwnerLookup {
	return &jobOwnerLookup{jobs: jobs}
}

// NewJobOwnerLookup is the exported constructor production wiring uses to
// build the Subscription Manager's OwnerLookup directly from the same
// job.Store instance the Orchestrator holds, without giving subscribe a
// direct import of job.
func NewJobOwnerLookup(jobs job.Store) subscribe.OwnerLookup {
	return newJobOwnerLookup(jobs)
}

func (o *jobOwnerLookup) Owner(ctx context.Context, requestID string) (ownerUserID, ownerSessionID string, found bool, err error) {
	j, err := o.jobs.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, searcherr.ErrNotFound) {
			return "", "", false, nil
		}
		return "", "", false, err
	}
	return j.OwnerUserID, j.OwnerSessionID, true, nil
}
