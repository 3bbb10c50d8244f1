// Package source fetches content items from configured sources. Each source type has its own
// Fetcher; the Registry dispatches by type and applies per-source timeouts.
package source

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/umputun/newsdigest/pkg/domain"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodySize    = 10 * 1024 * 1024
)

// Fetcher retrieves items from a single source
type Fetcher interface {
	Fetch(ctx context.Context, src domain.SourceConfig) ([]domain.ContentItem, error)
}

// Registry dispatches fetches to the fetcher registered for the source type
type Registry struct {
	fetchers map[domain.SourceType]Fetcher
	timeout  time.Duration
}

// NewRegistry makes a registry with feed, forum and aggregator fetchers sharing one http client.
// The timeout is used for sources without their own.
func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := newHTTPClient()
	r := &Registry{fetchers: map[domain.SourceType]Fetcher{}, timeout: timeout}
	r.Register(domain.SourceFeed, NewFeed(client))
	r.Register(domain.SourceForum, NewReddit(client))
	r.Register(domain.SourceAggregator, NewHackerNews(client, 0))
	return r
}

// Register sets the fetcher for a source type, replacing any existing one
func (r *Registry) Register(t domain.SourceType, f Fetcher) {
	r.fetchers[t] = f
}

// Supports reports whether a fetcher is registered for the type
func (r *Registry) Supports(t domain.SourceType) bool {
	_, ok := r.fetchers[t]
	return ok
}

// Fetch retrieves items from the source, bounded by the source timeout
func (r *Registry) Fetch(ctx context.Context, src domain.SourceConfig) ([]domain.ContentItem, error) {
	f, ok := r.fetchers[src.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported source type %q", src.Type)
	}
	timeout := src.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	items, err := f.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Source == "" {
			items[i].Source = src.Name
		}
	}
	return items, nil
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// get performs a GET request and returns the body of a 200 response
func get(ctx context.Context, client *http.Client, url string, headers func(*http.Request)) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	headers(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, url)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}
	return body, nil
}

var textPolicy = bluemonday.StrictPolicy()

// plainText strips markup and collapses whitespace
func plainText(s string) string {
	if s == "" {
		return ""
	}
	s = textPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
