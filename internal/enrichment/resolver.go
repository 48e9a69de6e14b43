package enrichment

import "context"

// Resolver looks up a third-party deep link for one place. The concrete
// per-provider lookup strategy (scraping, search API, whatever) is out of
// scope for this module and is injected at wiring time; searcherr.Kind
// classifies the error the same way §4.7 classifies LLM Gateway errors
// (TRANSIENT is retried, PERMANENT is not).
type Resolver interface {
	Resolve(ctx context.Context, provider, placeID, name, cityText string) (url string, meta map[string]any, err error)
}
