package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shacharon/pizzasearch/internal/searcherr"
)

type fakePlaces struct {
	calls     int
	failFirst error
	result    []Candidate
	err       error
}

func (f *fakePlaces) Search(ctx context.Context, route RouteOutput, intent IntentOutput, origin *Coordinates) ([]Candidate, error) {
	f.calls++
	if f.failFirst != nil && f.calls == 1 {
		return nil, f.failFirst
	}
	return f.result, f.err
}

func TestExecuteStage_ReturnsCandidatesOnSuccess(t *testing.T) {
	want := []Candidate{{PlaceID: "p1", Name: "Pizza Place"}}
	fp := &fakePlaces{result: want}
	stage := NewExecuteStage(fp)

	res, err := stage.Execute(context.Background(), &Request{}, RouteOutput{})
	require.NoError(t, err)
	require.Equal(t, StageCompleted, res.Status)
	assert.Equal(t, want, res.Output.([]Candidate))
	assert.Equal(t, 1, fp.calls)
}

func TestExecuteStage_RetriesOnceOnTransientError(t *testing.T) {
	want := []Candidate{{PlaceID: "p1"}}
	fp := &fakePlaces{
		failFirst: searcherr.New(searcherr.KindTransient, "places.timeout", "temporary"),
		result:    want,
	}
	stage := NewExecuteStage(fp)

	res, err := stage.Execute(context.Background(), &Request{}, RouteOutput{})
	require.NoError(t, err)
	require.Equal(t, StageCompleted, res.Status)
	assert.Equal(t, want, res.Output.([]Candidate))
	assert.Equal(t, 2, fp.calls)
}

func TestExecuteStage_FailsAfterRetryExhausted(t *testing.T) {
	fp := &fakePlaces{
		failFirst: searcherr.New(searcherr.KindTransient, "places.timeout", "temporary"),
		err:       searcherr.New(searcherr.KindTransient, "places.timeout", "still failing"),
	}
	stage := NewExecuteStage(fp)

	res, err := stage.Execute(context.Background(), &Request{}, RouteOutput{})
	require.NoError(t, err)
	assert.Equal(t, StageFailed, res.Status)
	assert.Error(t, res.Err)
	assert.Equal(t, 2, fp.calls)
}

func TestExecuteStage_DoesNotRetryPermanentError(t *testing.T) {
	fp := &fakePlaces{
		failFirst: searcherr.New(searcherr.KindPermanent, "places.bad_request", "bad request"),
		err:       errors.New("unreachable"),
	}
	stage := NewExecuteStage(fp)

	res, err := stage.Execute(context.Background(), &Request{}, RouteOutput{})
	require.NoError(t, err)
	assert.Equal(t, StageFailed, res.Status)
	assert.Equal(t, 1, fp.calls)
}
