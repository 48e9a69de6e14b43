// Package enrichment implements the Provider Enrichment Queue (C9): for
// each kept search result, resolve a third-party deep link out of band and
// publish the outcome as a patch event, without blocking the search
// response on it.
package enrichment

import "time"

// Job is one (provider, placeId) deep-link resolution task.
type Job struct {
	RequestID string
	Provider  string
	PlaceID   string
	Name      string
	CityText  string
}

func (j Job) key() string { return j.Provider + ":" + j.PlaceID }

// Outcome is the resolved state written to the cache and published.
type Outcome struct {
	Found     bool
	URL       string
	Meta      map[string]any
	UpdatedAt time.Time
}

// cachedEntry is the JSON document stored in the Cache for one (provider,
// placeId), distinguishing FOUND and NOT_FOUND without a separate sentinel.
type cachedEntry struct {
	Found     bool           `json:"found"`
	URL       string         `json:"url,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
