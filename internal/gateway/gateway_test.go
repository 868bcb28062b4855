package gateway

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versemark/versemark/internal/logging"
)

func newTestGateway(t *testing.T, origin string) (*Gateway, *CacheStore, *echo.Echo) {
	t.Helper()
	cache, err := NewCacheStore(t.TempDir(), 16, time.Minute)
	require.NoError(t, err)

	g, err := New(Config{Origin: origin, FetchTimeout: 2 * time.Second}, cache, logging.NewNop())
	require.NoError(t, err)

	e := echo.New()
	g.Register(e)
	return g, cache, e
}

func doGateway(e *echo.Echo, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, r)
	return rec
}

func TestGateway_ImmutableServedFromCache(t *testing.T) {
	var hits atomic.Int32
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"verses":["For God so loved the world"]}`))
	}))
	_, _, e := newTestGateway(t, origin.URL)

	rec := doGateway(e, httptest.NewRequest(http.MethodGet, "/texts/web/john-3.json", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "miss", rec.Header().Get("X-Versemark-Cache"))
	assert.Equal(t, int32(1), hits.Load())

	// The origin is gone; the cached copy must still answer, untouched by
	// the network.
	origin.Close()

	rec = doGateway(e, httptest.NewRequest(http.MethodGet, "/texts/web/john-3.json", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hit", rec.Header().Get("X-Versemark-Cache"))
	assert.Contains(t, rec.Body.String(), "For God so loved")
	assert.Equal(t, int32(1), hits.Load())
}

func TestGateway_ImmutableErrorNotCached(t *testing.T) {
	var hits atomic.Int32
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "no such translation", http.StatusNotFound)
	}))
	defer origin.Close()
	_, cache, e := newTestGateway(t, origin.URL)

	rec := doGateway(e, httptest.NewRequest(http.MethodGet, "/texts/xyz/none.json", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, ok := cache.Get(ImmutableGeneration, "/texts/xyz/none.json")
	assert.False(t, ok)

	doGateway(e, httptest.NewRequest(http.MethodGet, "/texts/xyz/none.json", nil))
	assert.Equal(t, int32(2), hits.Load())
}

func newNavigationRequest(target string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	r.Header.Set("Accept", "text/html,application/xhtml+xml")
	return r
}

func TestGateway_NavigationPrefersNetworkOverStaleCache(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("fresh document"))
	}))
	defer origin.Close()
	_, cache, e := newTestGateway(t, origin.URL)

	require.NoError(t, cache.Put(AppGeneration, "/read/john/3", sampleEntry("stale document")))

	rec := doGateway(e, newNavigationRequest("/read/john/3"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "network", rec.Header().Get("X-Versemark-Cache"))
	assert.Equal(t, "fresh document", rec.Body.String())
}

func TestGateway_NavigationFallsBackToCacheWhenOffline(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("fresh document"))
	}))
	_, cache, e := newTestGateway(t, origin.URL)
	origin.Close()

	require.NoError(t, cache.Put(AppGeneration, "/read/john/3", sampleEntry("saved document")))

	rec := doGateway(e, newNavigationRequest("/read/john/3"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stale", rec.Header().Get("X-Versemark-Cache"))
	assert.Equal(t, "saved document", rec.Body.String())
}

func TestGateway_NavigationOfflinePageWhenNothingCached(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	_, _, e := newTestGateway(t, origin.URL)
	origin.Close()

	rec := doGateway(e, newNavigationRequest("/read/john/3"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "You are offline")
}

func TestGateway_StaleWhileRevalidate(t *testing.T) {
	var body atomic.Value
	body.Store("v1")
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body.Load().(string))
	}))
	defer origin.Close()
	_, cache, e := newTestGateway(t, origin.URL)

	// First sight of the asset: fetched and cached.
	rec := doGateway(e, httptest.NewRequest(http.MethodGet, "/assets/logo.svg", nil))
	assert.Equal(t, "miss", rec.Header().Get("X-Versemark-Cache"))
	assert.Equal(t, "v1", rec.Body.String())

	body.Store("v2")

	// The cached copy is served immediately even though the origin moved on.
	rec = doGateway(e, httptest.NewRequest(http.MethodGet, "/assets/logo.svg", nil))
	assert.Equal(t, "hit", rec.Header().Get("X-Versemark-Cache"))
	assert.Equal(t, "v1", rec.Body.String())

	// The background refresh lands shortly after.
	require.Eventually(t, func() bool {
		entry, ok := cache.Get(AppGeneration, "/assets/logo.svg")
		return ok && string(entry.Body) == "v2"
	}, 2*time.Second, 10*time.Millisecond)

	rec = doGateway(e, httptest.NewRequest(http.MethodGet, "/assets/logo.svg", nil))
	assert.Equal(t, "v2", rec.Body.String())
}

func TestGateway_StaleWhileRevalidateKeepsEntryOnFailedRefresh(t *testing.T) {
	var fail atomic.Bool
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, "good")
	}))
	defer origin.Close()
	_, cache, e := newTestGateway(t, origin.URL)

	doGateway(e, httptest.NewRequest(http.MethodGet, "/assets/logo.svg", nil))
	fail.Store(true)

	rec := doGateway(e, httptest.NewRequest(http.MethodGet, "/assets/logo.svg", nil))
	assert.Equal(t, "hit", rec.Header().Get("X-Versemark-Cache"))
	assert.Equal(t, "good", rec.Body.String())

	// Give the failed refresh time to run; the good entry must survive it.
	time.Sleep(100 * time.Millisecond)
	entry, ok := cache.Get(AppGeneration, "/assets/logo.svg")
	require.True(t, ok)
	assert.Equal(t, "good", string(entry.Body))
}

func TestGateway_PassthroughForwardsWithoutCaching(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "note body", string(b))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"a1"}`))
	}))
	defer origin.Close()
	_, cache, e := newTestGateway(t, origin.URL)

	r := httptest.NewRequest(http.MethodPost, "/v1/annotations", strings.NewReader("note body"))
	rec := doGateway(e, r)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Versemark-Cache"))

	_, ok := cache.Get(AppGeneration, "/v1/annotations")
	assert.False(t, ok)
}

// API reads carry per-user state, so every GET under /v1/ must reach the
// origin and nothing may be served from or written to the cache.
func TestGateway_APIReadsAlwaysHitOrigin(t *testing.T) {
	var hits atomic.Int32
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprintf(w, `{"serial":%d}`, hits.Load())
	}))
	defer origin.Close()
	_, cache, e := newTestGateway(t, origin.URL)

	first := doGateway(e, httptest.NewRequest(http.MethodGet, "/v1/annotations?book=John&chapter=3", nil))
	second := doGateway(e, httptest.NewRequest(http.MethodGet, "/v1/annotations?book=John&chapter=3", nil))

	assert.Equal(t, `{"serial":1}`, first.Body.String())
	assert.Equal(t, `{"serial":2}`, second.Body.String(), "second read must not come from cache")
	assert.Empty(t, second.Header().Get("X-Versemark-Cache"))
	assert.Equal(t, int32(2), hits.Load())

	_, ok := cache.Get(AppGeneration, "/v1/annotations?book=John&chapter=3")
	assert.False(t, ok)
}

func TestGateway_ActivationPurgesOldGenerations(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewCacheStore(dir, 16, time.Minute)
	require.NoError(t, err)
	require.NoError(t, cache.Put("app-v2", "/read/john/3", sampleEntry("old")))
	require.NoError(t, cache.Put(ImmutableGeneration, "/texts/web/john-3.json", sampleEntry("kept")))

	_, err = New(Config{Origin: "http://origin.internal"}, cache, logging.NewNop())
	require.NoError(t, err)

	gens, err := cache.Generations()
	require.NoError(t, err)
	assert.NotContains(t, gens, "app-v2")
	assert.Contains(t, gens, ImmutableGeneration)
}

func TestGateway_HealthEndpointIsNeverProxied(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("origin must not see gateway-internal requests")
	}))
	defer origin.Close()
	_, _, e := newTestGateway(t, origin.URL)

	rec := doGateway(e, httptest.NewRequest(http.MethodGet, "/__gateway/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestGateway_RejectsBadOrigin(t *testing.T) {
	cache, err := NewCacheStore(t.TempDir(), 0, time.Minute)
	require.NoError(t, err)

	_, err = New(Config{Origin: "not a url at all %"}, cache, logging.NewNop())
	assert.Error(t, err)

	_, err = New(Config{Origin: "/relative/only"}, cache, logging.NewNop())
	assert.Error(t, err)
}
