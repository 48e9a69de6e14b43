package enrichment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shacharon/pizzasearch/internal/searcherr"
)

func TestHTTPResolver_ResolvesBestScoringMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pizza place", r.URL.Query().Get("q"))
		w.Write([]byte(`{"results":[
			{"url":"https://wolt.com/a","score":0.4},
			{"url":"https://wolt.com/b","score":0.9}
		]}`))
	}))
	defer srv.Close()
	t.Setenv("WOLT_KEY", "secret")

	r := NewHTTPResolver(map[string]ProviderEndpoint{
		"wolt": {BaseURL: srv.URL, APIKeyEnv: "WOLT_KEY"},
	})

	url, _, err := r.Resolve(context.Background(), "wolt", "p1", "pizza place", "")
	require.NoError(t, err)
	assert.Equal(t, "https://wolt.com/b", url)
}

func TestHTTPResolver_NoResultsIsNotFoundKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()
	t.Setenv("WOLT_KEY", "secret")

	r := NewHTTPResolver(map[string]ProviderEndpoint{
		"wolt": {BaseURL: srv.URL, APIKeyEnv: "WOLT_KEY"},
	})

	_, _, err := r.Resolve(context.Background(), "wolt", "p1", "pizza place", "")
	require.Error(t, err)
	assert.Equal(t, searcherr.KindNotFound, searcherr.KindOf(err))
	assert.False(t, searcherr.IsRetryable(err))
}

func TestHTTPResolver_MissingAPIKeyIsDependencyDown(t *testing.T) {
	r := NewHTTPResolver(map[string]ProviderEndpoint{
		"wolt": {BaseURL: "http://unused.invalid", APIKeyEnv: "WOLT_KEY_UNSET"},
	})

	_, _, err := r.Resolve(context.Background(), "wolt", "p1", "pizza place", "")
	require.Error(t, err)
	assert.Equal(t, searcherr.KindDependencyDown, searcherr.KindOf(err))
}

func TestHTTPResolver_UnknownProviderIsPermanent(t *testing.T) {
	r := NewHTTPResolver(map[string]ProviderEndpoint{})

	_, _, err := r.Resolve(context.Background(), "nope", "p1", "pizza place", "")
	require.Error(t, err)
	assert.Equal(t, searcherr.KindPermanent, searcherr.KindOf(err))
}

func TestHTTPResolver_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	t.Setenv("WOLT_KEY", "secret")

	r := NewHTTPResolver(map[string]ProviderEndpoint{
		"wolt": {BaseURL: srv.URL, APIKeyEnv: "WOLT_KEY"},
	})

	_, _, err := r.Resolve(context.Background(), "wolt", "p1", "pizza place", "")
	require.Error(t, err)
	assert.Equal(t, searcherr.KindTransient, searcherr.KindOf(err))
	assert.True(t, searcherr.IsRetryable(err))
}
