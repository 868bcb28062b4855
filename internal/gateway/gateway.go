package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/versemark/versemark/internal/logging"
)

// AppGeneration is the versioned namespace for the general application
// cache. Bump it whenever the interception policy or the cached resource
// shape changes; everything outside the current generation and the pinned
// immutable one is purged on activation.
const AppGeneration = "app-v3"

// ImmutableGeneration holds long-lived content-addressed resources and is
// purged independently of app deployments.
const ImmutableGeneration = "immutable-v1"

// Config wires one gateway instance.
type Config struct {
	// Origin is the upstream base URL the gateway shields.
	Origin string
	// PublicHost is the host the gateway answers for; requests addressed to
	// any other host are cross-origin and passed through.
	PublicHost string
	// FetchTimeout bounds a single upstream fetch.
	FetchTimeout time.Duration
}

// Gateway intercepts resource requests and serves them per-class.
type Gateway struct {
	cfg    Config
	origin *url.URL
	cache  *CacheStore
	client *http.Client
	log    logging.Logger
}

func New(cfg Config, cache *CacheStore, log logging.Logger) (*Gateway, error) {
	origin, err := url.Parse(cfg.Origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin url: %w", err)
	}
	if origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("origin url %q needs scheme and host", cfg.Origin)
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}

	// Activation: drop every generation except the current pair.
	if err := cache.PurgeOtherGenerations(AppGeneration, ImmutableGeneration); err != nil {
		return nil, fmt.Errorf("purge stale cache generations: %w", err)
	}

	return &Gateway{
		cfg:    cfg,
		origin: origin,
		cache:  cache,
		client: &http.Client{Timeout: cfg.FetchTimeout},
		log:    log.With("component", "gateway"),
	}, nil
}

// Register mounts the gateway on e. Everything under /__gateway/ is the
// gateway's own surface and never proxied.
func (g *Gateway) Register(e *echo.Echo) {
	e.GET("/__gateway/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/__gateway/metrics", echo.WrapHandler(promhttp.Handler()))
	e.Any("/*", g.handle)
}

func (g *Gateway) handle(c echo.Context) error {
	r := c.Request()
	class := Classify(r, g.cfg.PublicHost)
	requestsTotal.WithLabelValues(class.String()).Inc()

	switch class {
	case ClassImmutable:
		return g.cacheFirst(c)
	case ClassNavigation:
		return g.networkFirst(c)
	case ClassStatic:
		return g.staleWhileRevalidate(c)
	default:
		return g.passthrough(c)
	}
}

// cacheFirst serves immutable content from cache when present and never
// revalidates it. A fetched response is cached only on success.
func (g *Gateway) cacheFirst(c echo.Context) error {
	key := c.Request().URL.RequestURI()
	if entry, ok := g.cache.Get(ImmutableGeneration, key); ok {
		cacheEvents.WithLabelValues("immutable", "hit").Inc()
		return serveEntry(c, entry, "hit")
	}
	cacheEvents.WithLabelValues("immutable", "miss").Inc()

	entry, err := g.fetchOrigin(c.Request().Context(), c.Request())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "origin unreachable")
	}
	if isCacheable(entry.Status) {
		if err := g.cache.Put(ImmutableGeneration, key, entry); err != nil {
			g.log.Warn(c.Request().Context(), "immutable cache write failed", "key", key, "err", err)
		}
	}
	return serveEntry(c, entry, "miss")
}

// networkFirst always tries the origin; only when the network fails does it
// fall back to a cached copy, or a synthesized offline page.
func (g *Gateway) networkFirst(c echo.Context) error {
	key := c.Request().URL.RequestURI()

	entry, err := g.fetchOrigin(c.Request().Context(), c.Request())
	if err == nil {
		if isCacheable(entry.Status) {
			if perr := g.cache.Put(AppGeneration, key, entry); perr != nil {
				g.log.Warn(c.Request().Context(), "navigation cache write failed", "key", key, "err", perr)
			}
		}
		cacheEvents.WithLabelValues("navigation", "network").Inc()
		return serveEntry(c, entry, "network")
	}

	if cached, ok := g.cache.Get(AppGeneration, key); ok {
		cacheEvents.WithLabelValues("navigation", "stale-fallback").Inc()
		g.log.Info(c.Request().Context(), "serving stale navigation, origin unreachable", "key", key)
		return serveEntry(c, cached, "stale")
	}

	cacheEvents.WithLabelValues("navigation", "offline").Inc()
	return c.HTML(http.StatusServiceUnavailable, offlinePage)
}

// staleWhileRevalidate serves the cached copy immediately and refreshes it in
// the background; a failed refresh silently keeps the old entry.
func (g *Gateway) staleWhileRevalidate(c echo.Context) error {
	key := c.Request().URL.RequestURI()

	if cached, ok := g.cache.Get(AppGeneration, key); ok {
		cacheEvents.WithLabelValues("static", "hit").Inc()
		g.revalidate(c.Request(), key)
		return serveEntry(c, cached, "hit")
	}
	cacheEvents.WithLabelValues("static", "miss").Inc()

	entry, err := g.fetchOrigin(c.Request().Context(), c.Request())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "origin unreachable")
	}
	if isCacheable(entry.Status) {
		if perr := g.cache.Put(AppGeneration, key, entry); perr != nil {
			g.log.Warn(c.Request().Context(), "static cache write failed", "key", key, "err", perr)
		}
	}
	return serveEntry(c, entry, "miss")
}

// revalidate refreshes one cache entry off the request path. The caller's
// context is about to end, so the fetch runs under its own deadline.
func (g *Gateway) revalidate(r *http.Request, key string) {
	req := r.Clone(context.Background())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), g.cfg.FetchTimeout)
		defer cancel()

		entry, err := g.fetchOrigin(ctx, req)
		if err != nil || !isCacheable(entry.Status) {
			cacheEvents.WithLabelValues("static", "revalidate-failed").Inc()
			return
		}
		if err := g.cache.Put(AppGeneration, key, entry); err != nil {
			g.log.Warn(ctx, "revalidation cache write failed", "key", key, "err", err)
			return
		}
		cacheEvents.WithLabelValues("static", "revalidated").Inc()
	}()
}

// passthrough forwards the request untouched: to the origin for same-host
// non-idempotent methods, or to the addressed host for cross-origin calls.
func (g *Gateway) passthrough(c echo.Context) error {
	r := c.Request()

	target := *g.origin
	if g.cfg.PublicHost != "" && r.Host != "" && r.Host != g.cfg.PublicHost {
		target = url.URL{Scheme: "http", Host: r.Host}
		if r.TLS != nil {
			target.Scheme = "https"
		}
	}

	upstream, err := http.NewRequestWithContext(r.Context(), r.Method, target.String()+r.URL.RequestURI(), r.Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "bad upstream request")
	}
	copyHeader(upstream.Header, r.Header)

	resp, err := g.client.Do(upstream)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "upstream unreachable")
	}
	defer resp.Body.Close()

	res := c.Response()
	copyHeader(res.Header(), resp.Header)
	res.WriteHeader(resp.StatusCode)
	_, err = io.Copy(res, resp.Body)
	return err
}

// fetchOrigin performs one upstream GET/HEAD and drains the whole body
// before returning, so the result can be served and cached independently.
func (g *Gateway) fetchOrigin(ctx context.Context, r *http.Request) (*Entry, error) {
	target := g.origin.String() + r.URL.RequestURI()
	req, err := http.NewRequestWithContext(ctx, r.Method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build origin request: %w", err)
	}
	copyHeader(req.Header, r.Header)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch origin: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read origin body: %w", err)
	}

	header := make(http.Header, len(resp.Header))
	copyHeader(header, resp.Header)

	return &Entry{
		Status:   resp.StatusCode,
		Header:   header,
		Body:     body,
		StoredAt: time.Now(),
	}, nil
}

func isCacheable(status int) bool {
	return status >= 200 && status < 300
}

func serveEntry(c echo.Context, e *Entry, verdict string) error {
	res := c.Response()
	copyHeader(res.Header(), e.Header)
	res.Header().Set("X-Versemark-Cache", verdict)
	res.WriteHeader(e.Status)
	_, err := res.Write(e.Body)
	return err
}

var hopByHopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		if hopByHopHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

const offlinePage = `<!doctype html>
<html>
<head><title>Offline</title></head>
<body>
<h1>You are offline</h1>
<p>Versemark could not reach the network and has no saved copy of this page.
Your notes are safe and will sync when the connection returns.</p>
</body>
</html>`
