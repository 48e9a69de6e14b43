package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"

	"github.com/shacharon/pizzasearch/internal/searcherr"
)

// PlacesProvider is the places-search dependency the Execute stage calls.
// Kept as an interface so tests and the orchestrator can supply a fake
// (there is no places SDK anywhere in the retrieved pack to depend on, so
// the production implementation is the thin HTTPPlacesProvider below,
// grounded on the teacher's Client-wraps-a-timeout-bounded-HTTP-call shape
// in pkg/slack/client.go, generalized from an SDK call to a plain
// net/http request since no SDK exists to wrap).
type PlacesProvider interface {
	Search(ctx context.Context, route RouteOutput, intent IntentOutput, origin *Coordinates) ([]Candidate, error)
}

// HTTPPlacesProvider calls a Google-Places-compatible REST endpoint.
type HTTPPlacesProvider struct {
	baseURL   string
	apiKeyEnv string
	client    *http.Client
}

// NewHTTPPlacesProvider builds a provider bound to baseURL, resolving the
// API key from the named environment variable at call time (never logged,
// never stored on the struct).
func NewHTTPPlacesProvider(baseURL, apiKeyEnv string) *HTTPPlacesProvider {
	return &HTTPPlacesProvider{
		baseURL:   baseURL,
		apiKeyEnv: apiKeyEnv,
		client:    &http.Client{},
	}
}

type placesSearchResponse struct {
	Places []struct {
		ID          string   `json:"id"`
		DisplayName string   `json:"displayName"`
		Rating      float64  `json:"rating"`
		UserRatingCount int  `json:"userRatingCount"`
		PriceLevel  int      `json:"priceLevel"`
		OpenNow     bool     `json:"openNow"`
		Types       []string `json:"types"`
		Location    struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
	} `json:"places"`
}

func (p *HTTPPlacesProvider) Search(ctx context.Context, route RouteOutput, intent IntentOutput, origin *Coordinates) ([]Candidate, error) {
	apiKey := os.Getenv(p.apiKeyEnv)
	if apiKey == "" {
		return nil, searcherr.New(searcherr.KindDependencyDown, "places.no_api_key", "places API key env var is not set")
	}

	query := buildQuery(route, intent, origin)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/places:searchText", nil)
	if err != nil {
		return nil, searcherr.Wrap(searcherr.KindInternal, "places.build_request", err)
	}
	q := req.URL.Query()
	q.Set("textQuery", query)
	q.Set("key", apiKey)
	if origin != nil {
		q.Set("locationBias", fmt.Sprintf("%f,%f,%d", origin.Lat, origin.Lng, route.Radius))
	}
	req.URL.RawQuery = q.Encode()

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, searcherr.Wrap(searcherr.KindTransient, "places.request_failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, searcherr.New(searcherr.KindTransient, "places.server_error", "places provider returned "+strconv.Itoa(resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return nil, searcherr.New(searcherr.KindPermanent, "places.client_error", "places provider returned "+strconv.Itoa(resp.StatusCode))
	}

	var parsed placesSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, searcherr.Wrap(searcherr.KindTransient, "places.decode_failed", err)
	}

	out := make([]Candidate, 0, len(parsed.Places))
	for _, pl := range parsed.Places {
		c := Candidate{
			PlaceID:     pl.ID,
			Name:        pl.DisplayName,
			Rating:      pl.Rating,
			UserRatings: pl.UserRatingCount,
			PriceLevel:  pl.PriceLevel,
			OpenNow:     pl.OpenNow,
			Cuisine:     pl.Types,
			Lat:         pl.Location.Latitude,
			Lng:         pl.Location.Longitude,
		}
		if origin != nil {
			c.DistanceM = haversineMeters(*origin, Coordinates{Lat: c.Lat, Lng: c.Lng})
		}
		out = append(out, c)
	}
	return out, nil
}

func buildQuery(route RouteOutput, intent IntentOutput, origin *Coordinates) string {
	if route.Mode == RouteNearbySearch {
		return intent.FoodCanonical
	}
	if intent.Location.Text != "" {
		return intent.FoodCanonical + " in " + intent.Location.Text
	}
	return intent.FoodCanonical
}

const earthRadiusM = 6371000.0

func haversineMeters(a, b Coordinates) float64 {
	lat1, lat2 := degToRad(a.Lat), degToRad(b.Lat)
	dLat := degToRad(b.Lat - a.Lat)
	dLng := degToRad(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	return 2 * earthRadiusM * math.Asin(math.Min(1, math.Sqrt(h)))
}

func degToRad(deg float64) float64 { return deg * math.Pi / 180 }
