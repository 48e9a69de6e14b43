package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteStage_UsesNearbySearchWhenUserLocationPresent(t *testing.T) {
	stage := NewRouteStage()
	req := &Request{UserLocation: &Coordinates{Lat: 1, Lng: 2}}
	res, err := stage.Execute(context.Background(), req, IntentOutput{})
	require.NoError(t, err)

	out := res.Output.(RouteOutput)
	assert.Equal(t, RouteNearbySearch, out.Mode)
	assert.Equal(t, defaultRadiusMeters, out.Radius)
}

func TestRouteStage_UsesTextSearchWhenNoLocationSignal(t *testing.T) {
	stage := NewRouteStage()
	res, err := stage.Execute(context.Background(), &Request{}, IntentOutput{})
	require.NoError(t, err)

	out := res.Output.(RouteOutput)
	assert.Equal(t, RouteTextSearch, out.Mode)
}

func TestRouteStage_PrefersRequestRadiusOverIntentRadius(t *testing.T) {
	stage := NewRouteStage()
	req := &Request{UserLocation: &Coordinates{Lat: 1, Lng: 2}, RequestedRadiusMeters: 500}
	res, err := stage.Execute(context.Background(), req, IntentOutput{RadiusMeters: 3000})
	require.NoError(t, err)

	out := res.Output.(RouteOutput)
	assert.Equal(t, 500, out.Radius)
}

func TestRouteStage_RelativeLocationForcesNearbySearch(t *testing.T) {
	stage := NewRouteStage()
	res, err := stage.Execute(context.Background(), &Request{}, IntentOutput{Location: IntentLocation{IsRelative: true}})
	require.NoError(t, err)

	out := res.Output.(RouteOutput)
	assert.Equal(t, RouteNearbySearch, out.Mode)
}
