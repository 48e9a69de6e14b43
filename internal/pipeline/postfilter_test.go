package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestPostFilterStage_RemovesClosedWhenOpenNowRequested(t *testing.T) {
	stage := NewPostFilterStage()
	req := &Request{Filters: VirtualFilters{OpenNow: boolPtr(true)}}
	candidates := []Candidate{
		{PlaceID: "open", OpenNow: true},
		{PlaceID: "closed", OpenNow: false},
	}
	res, err := stage.Execute(context.Background(), req, candidates)
	require.NoError(t, err)

	out := res.Output.(PostFilterOutput)
	require.Len(t, out.Candidates, 1)
	assert.Equal(t, "open", out.Candidates[0].PlaceID)
	assert.Equal(t, 1, out.Stats.RemovedOpenNow)
}

func TestPostFilterStage_RemovesOverPriceMax(t *testing.T) {
	stage := NewPostFilterStage()
	priceMax := 2
	req := &Request{Filters: VirtualFilters{PriceMax: &priceMax}}
	candidates := []Candidate{
		{PlaceID: "cheap", PriceLevel: 1},
		{PlaceID: "pricey", PriceLevel: 4},
	}
	res, err := stage.Execute(context.Background(), req, candidates)
	require.NoError(t, err)

	out := res.Output.(PostFilterOutput)
	require.Len(t, out.Candidates, 1)
	assert.Equal(t, "cheap", out.Candidates[0].PlaceID)
}

func TestPostFilterStage_UnknownDietaryAttributeIsNeverAViolation(t *testing.T) {
	stage := NewPostFilterStage()
	req := &Request{Filters: VirtualFilters{Kosher: boolPtr(true)}}
	candidates := []Candidate{
		{PlaceID: "unknown", Kosher: nil},
		{PlaceID: "notkosher", Kosher: boolPtr(false)},
		{PlaceID: "kosher", Kosher: boolPtr(true)},
	}
	res, err := stage.Execute(context.Background(), req, candidates)
	require.NoError(t, err)

	out := res.Output.(PostFilterOutput)
	ids := make([]string, 0, len(out.Candidates))
	for _, c := range out.Candidates {
		ids = append(ids, c.PlaceID)
	}
	assert.ElementsMatch(t, []string{"unknown", "kosher"}, ids)
	assert.Equal(t, 1, out.Stats.RemovedDietary)
}

func TestPostFilterStage_RemovesInaccessibleWhenRequested(t *testing.T) {
	stage := NewPostFilterStage()
	req := &Request{Filters: VirtualFilters{Accessible: boolPtr(true)}}
	candidates := []Candidate{
		{PlaceID: "unknown", Accessible: nil},
		{PlaceID: "no", Accessible: boolPtr(false)},
		{PlaceID: "yes", Accessible: boolPtr(true)},
	}
	res, err := stage.Execute(context.Background(), req, candidates)
	require.NoError(t, err)

	out := res.Output.(PostFilterOutput)
	assert.Equal(t, 2, out.Stats.OutputCount)
	assert.Equal(t, 1, out.Stats.RemovedAccessible)
}

func TestPostFilterStage_NoFiltersKeepsEverything(t *testing.T) {
	stage := NewPostFilterStage()
	candidates := []Candidate{{PlaceID: "a"}, {PlaceID: "b"}}
	res, err := stage.Execute(context.Background(), &Request{}, candidates)
	require.NoError(t, err)

	out := res.Output.(PostFilterOutput)
	assert.Equal(t, 2, out.Stats.OutputCount)
	assert.Equal(t, 2, out.Stats.InputCount)
}
