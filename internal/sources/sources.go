// Package sources provides the trend source clients. Every client is
// best-effort: Fetch has no error return and yields an empty slice when the
// upstream API fails, times out, or returns something unexpected.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"trendpress/internal/catalog"
	"trendpress/internal/config"
	"trendpress/internal/core"
	"trendpress/internal/logger"

	"github.com/rs/zerolog"
)

// maxResponseBytes bounds how much of an upstream response is decoded.
const maxResponseBytes = 4 << 20

// Client fetches normalized trend items from one external source.
type Client interface {
	// Source identifies the upstream data source
	Source() core.Source

	// Fetch returns the current items. It never fails: any problem is logged
	// and reported as an empty slice.
	Fetch(ctx context.Context) []core.TrendItem
}

// Transport is the HTTP plumbing shared by all clients of one run.
type Transport struct {
	client    *http.Client
	userAgent string
	log       zerolog.Logger
	now       func() time.Time
}

// NewTransport builds a transport from the sources configuration.
func NewTransport(cfg config.Sources) *Transport {
	return &Transport{
		client:    &http.Client{Timeout: cfg.TimeoutDuration()},
		userAgent: cfg.UserAgent,
		log:       logger.Get(),
		now:       time.Now,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (t *Transport) WithHTTPClient(c *http.Client) *Transport {
	t.client = c
	return t
}

// WithLogger replaces the logger used for degraded fetches.
func (t *Transport) WithLogger(log zerolog.Logger) *Transport {
	t.log = log
	return t
}

// WithClock replaces the clock used for date-relative queries.
func (t *Transport) WithClock(now func() time.Time) *Transport {
	t.now = now
	return t
}

// getJSON issues a GET and decodes a 2xx JSON body into v.
func (t *Transport) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%s returned status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// bestEffort runs fetch and converts every failure, panics included, into an
// empty result.
func (t *Transport) bestEffort(ctx context.Context, src core.Source, fetch func(context.Context) ([]core.TrendItem, error)) (items []core.TrendItem) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			t.log.Warn().Str("source", string(src)).Interface("panic", r).Msg("Source client panicked, continuing without it")
			items = []core.TrendItem{}
		}
	}()

	items, err := fetch(ctx)
	if err != nil {
		t.log.Warn().Err(err).Str("source", string(src)).Msg("Source fetch failed, continuing without it")
		return []core.TrendItem{}
	}
	if items == nil {
		items = []core.TrendItem{}
	}

	t.log.Debug().
		Str("source", string(src)).
		Int("items", len(items)).
		Dur("elapsed", time.Since(start)).
		Msg("Source fetched")
	return items
}

// Default builds the general-purpose clients: the four public sources plus
// any configured feeds.
func Default(t *Transport, cfg config.Sources) []Client {
	clients := []Client{
		NewGitHub(t, cfg.GitHub, ""),
		NewHackerNews(t, cfg.HackerNews),
		NewDevTo(t, cfg.DevTo, cfg.DevTo.Tag),
		NewReddit(t, cfg.Reddit, cfg.Reddit.Subreddit),
	}
	if len(cfg.Feeds.URLs) > 0 {
		clients = append(clients, NewFeed(t, cfg.Feeds))
	}
	return clients
}

// ForProfile builds the category-scoped clients described by a profile.
func ForProfile(t *Transport, cfg config.Sources, profile catalog.Profile) []Client {
	var clients []Client
	if profile.DevToTag != "" {
		clients = append(clients, NewDevTo(t, cfg.DevTo, profile.DevToTag))
	}
	if profile.Subreddit != "" {
		clients = append(clients, NewReddit(t, cfg.Reddit, profile.Subreddit))
	}
	if profile.GitHubTopic != "" {
		clients = append(clients, NewGitHub(t, cfg.GitHub, profile.GitHubTopic))
	}
	return clients
}

// truncate shortens s to at most n runes, appending an ellipsis when cut.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n])) + "…"
}

func clampLimit(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
