package orchestrator

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shacharon/pizzasearch/internal/idempotency"
	"github.com/shacharon/pizzasearch/internal/job"
	"github.com/shacharon/pizzasearch/internal/llmgateway"
	"github.com/shacharon/pizzasearch/internal/llmgateway/llmgatewaytest"
	"github.com/shacharon/pizzasearch/internal/pipeline"
	"github.com/shacharon/pizzasearch/internal/subscribe"
)

type fakePlaces struct {
	results []pipeline.Candidate
}

func (f *fakePlaces) Search(context.Context, pipeline.RouteOutput, pipeline.IntentOutput, *pipeline.Coordinates) ([]pipeline.Candidate, error) {
	return f.results, nil
}

type recordingSubscriber struct {
	id     string
	events []subscribe.Event
}

func (s *recordingSubscriber) ID() string { return s.id }
func (s *recordingSubscriber) Send(evt subscribe.Event) bool {
	s.events = append(s.events, evt)
	return true
}

func testTimeouts() pipeline.StageTimeouts {
	return pipeline.StageTimeouts{
		Gate:     5 * time.Second,
		Intent:   5 * time.Second,
		Execute:  5 * time.Second,
		Cuisine:  5 * time.Second,
		Narrator: 5 * time.Second,
	}
}

func sequentialID(values ...string) IDGenerator {
	i := 0
	return func() string {
		v := values[i%len(values)]
		i++
		return v
	}
}

func newHarness(t *testing.T, gw llmgateway.Gateway, places pipeline.PlacesProvider, idGen IDGenerator) (*Orchestrator, *job.MemoryStore, *subscribe.Manager) {
	t.Helper()
	jobs := job.NewMemoryStore()
	idem := idempotency.NewMemoryRegistry()
	owners := newJobOwnerLookup(jobs)
	manager := subscribe.NewManager(owners)
	publisher := subscribe.NewPublisher(manager)

	pl := pipeline.New(pipeline.Deps{
		Gateway:  gw,
		Places:   places,
		Model:    "test-model",
		Timeouts: testTimeouts(),
	})

	orch := New(Deps{
		Jobs:        jobs,
		Idempotency: idem,
		Subscribers: manager,
		Publisher:   publisher,
		Pipeline:    pl,
		NewID:       idGen,
		JobTimeout:  5 * time.Second,
	})
	return orch, jobs, manager
}

func TestOrchestrator_HappyPathReachesDoneSuccess(t *testing.T) {
	gw := llmgatewaytest.New()
	gw.QueueJSON(json.RawMessage(`{"foodSignal":"YES","language":"en","confidence":0.9}`))
	gw.QueueJSON(json.RawMessage(`{"foodCanonical":"pizza","location":{"text":"Ashkelon","isRelative":false},"radiusMeters":0,"targetType":"FREE","confidence":0.8,"virtual":{}}`))

	places := &fakePlaces{results: []pipeline.Candidate{
		{PlaceID: "p1", Name: "Pizza Place", Rating: 4.5, UserRatings: 100},
	}}
	orch, jobs, manager := newHarness(t, gw, places, sequentialID("req-1"))

	sub := &recordingSubscriber{id: "sub-1"}
	_, err := manager.Subscribe(context.Background(), subscribe.ChannelSearch, "req-1", sub, subscribe.Identity{SessionID: "sess-1"})
	require.NoError(t, err)

	res, err := orch.Submit(context.Background(), Submission{SessionID: "sess-1", Query: "pizza in Ashkelon"})
	require.NoError(t, err)
	assert.Equal(t, "req-1", res.RequestID)
	assert.False(t, res.Existing)

	require.Eventually(t, func() bool {
		j, err := jobs.Get(context.Background(), "req-1")
		return err == nil && j.Status == job.StatusDoneSuccess
	}, time.Second, 5*time.Millisecond)

	j, err := jobs.Get(context.Background(), "req-1")
	require.NoError(t, err)
	assert.NotNil(t, j.Result)

	hasTerminal := false
	for _, evt := range sub.events {
		if _, ok := evt.(subscribe.TerminalEvent); ok {
			hasTerminal = true
		}
	}
	assert.True(t, hasTerminal, "subscriber must receive a terminal event")
}

func TestOrchestrator_NearMeWithoutLocationReachesDoneClarify(t *testing.T) {
	gw := llmgatewaytest.New()
	gw.QueueJSON(json.RawMessage(`{"foodSignal":"YES","language":"en","confidence":0.9}`))
	gw.QueueJSON(json.RawMessage(`{"foodCanonical":"restaurant","location":{"text":"","isRelative":true},"radiusMeters":0,"targetType":"FREE","confidence":0.8,"virtual":{}}`))
	orch, jobs, _ := newHarness(t, gw, &fakePlaces{}, sequentialID("req-2"))

	_, err := orch.Submit(context.Background(), Submission{SessionID: "sess-2", Query: "restaurants near me"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		j, err := jobs.Get(context.Background(), "req-2")
		return err == nil && j.Status == job.StatusDoneClarify
	}, time.Second, 5*time.Millisecond)
}

// blockingGateway holds the Gate stage open until the test signals release,
// so a concurrent second submission observes the first job still in flight.
type blockingGateway struct {
	release chan struct{}
}

func (g *blockingGateway) CompleteJSON(ctx context.Context, _ []llmgateway.Message, _ llmgateway.Schema, _ llmgateway.Options) (json.RawMessage, error) {
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return json.RawMessage(`{"foodSignal":"YES","language":"en","confidence":0.9}`), nil
}
func (g *blockingGateway) Complete(context.Context, []llmgateway.Message, llmgateway.Options) (string, error) {
	return "", nil
}
func (g *blockingGateway) CompleteStream(context.Context, []llmgateway.Message, llmgateway.Options) (<-chan llmgateway.Chunk, error) {
	ch := make(chan llmgateway.Chunk)
	close(ch)
	return ch, nil
}
func (g *blockingGateway) Close() error { return nil }

func TestOrchestrator_DuplicateSubmissionWhileInFlightReturnsSameRequestID(t *testing.T) {
	gw := &blockingGateway{release: make(chan struct{})}
	places := &fakePlaces{results: []pipeline.Candidate{{PlaceID: "p1", Name: "Pizza Place"}}}
	orch, jobs, _ := newHarness(t, gw, places, sequentialID("req-3", "req-should-not-be-used"))

	first, err := orch.Submit(context.Background(), Submission{SessionID: "sess-3", Query: "pizza"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		j, err := jobs.Get(context.Background(), "req-3")
		return err == nil && j.Status == job.StatusRunning
	}, time.Second, 5*time.Millisecond, "first job must be running (blocked on the Gate stage) before the duplicate submission")

	second, err := orch.Submit(context.Background(), Submission{SessionID: "sess-3", Query: "pizza"})
	require.NoError(t, err)

	assert.Equal(t, first.RequestID, second.RequestID)
	assert.True(t, second.Existing)

	close(gw.release)
}

func TestOrchestrator_InvalidSubmissionIsRejected(t *testing.T) {
	orch, _, _ := newHarness(t, nil, &fakePlaces{}, sequentialID("req-4"))

	_, err := orch.Submit(context.Background(), Submission{SessionID: "", Query: "pizza"})
	assert.Error(t, err)

	_, err = orch.Submit(context.Background(), Submission{SessionID: "sess-4", Query: ""})
	assert.Error(t, err)
}
