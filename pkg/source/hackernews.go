package source

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/newsdigest/pkg/domain"
)

const (
	hnBaseURL     = "https://hacker-news.firebaseio.com"
	hnItemURL     = "https://news.ycombinator.com/item?id="
	hnConcurrency = 8
)

var hnStoryTypes = map[string]bool{"top": true, "best": true, "new": true}

// HackerNews fetches stories from the Hacker News firebase API.
// Params: story_type (top|best|new), limit, min_score.
type HackerNews struct {
	client      *http.Client
	concurrency int
}

// NewHackerNews creates a new aggregator fetcher, concurrency bounds parallel item requests
func NewHackerNews(client *http.Client, concurrency int) *HackerNews {
	if concurrency <= 0 {
		concurrency = hnConcurrency
	}
	return &HackerNews{client: client, concurrency: concurrency}
}

// Fetch retrieves story ids and then the stories themselves. Dead, deleted, non-story and
// low-score entries are skipped, as are stories that fail to load.
func (h *HackerNews) Fetch(ctx context.Context, src domain.SourceConfig) ([]domain.ContentItem, error) {
	storyType := src.Param("story_type", "top")
	if !hnStoryTypes[storyType] {
		return nil, fmt.Errorf("source %s: unsupported story_type %q", src.Name, storyType)
	}
	limit, err := strconv.Atoi(src.Param("limit", "30"))
	if err != nil || limit <= 0 {
		return nil, fmt.Errorf("source %s: invalid limit %q", src.Name, src.Param("limit", ""))
	}
	minScore, err := strconv.ParseInt(src.Param("min_score", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("source %s: invalid min_score %q", src.Name, src.Param("min_score", ""))
	}

	base := strings.TrimRight(src.URL, "/")
	if base == "" {
		base = hnBaseURL
	}
	body, err := get(ctx, h.client, fmt.Sprintf("%s/v0/%sstories.json", base, storyType), addAPIHeaders)
	if err != nil {
		return nil, fmt.Errorf("fetch story ids: %w", err)
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsArray() {
		return nil, fmt.Errorf("invalid story ids from %s", base)
	}
	ids := gjson.ParseBytes(body).Array()
	if len(ids) > limit {
		ids = ids[:limit]
	}

	// results keep the ranking order of ids
	results := make([]*domain.ContentItem, len(ids))
	var failed int
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			item, err := h.story(gctx, base, id.Int(), src.Name, minScore)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				lgr.Printf("[DEBUG] skip hn item %d: %v", id.Int(), err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			results[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch stories: %w", err)
	}
	if failed > 0 && failed == len(ids) {
		return nil, fmt.Errorf("all %d stories failed to load", failed)
	}

	items := make([]domain.ContentItem, 0, len(results))
	for _, it := range results {
		if it != nil {
			items = append(items, *it)
		}
	}
	return items, nil
}

// story loads a single item, returns nil item without error for entries that should be skipped
func (h *HackerNews) story(ctx context.Context, base string, id int64, sourceName string, minScore int64) (*domain.ContentItem, error) {
	body, err := get(ctx, h.client, fmt.Sprintf("%s/v0/item/%d.json", base, id), addAPIHeaders)
	if err != nil {
		return nil, err
	}
	it := gjson.ParseBytes(body)
	if !it.IsObject() || it.Get("dead").Bool() || it.Get("deleted").Bool() || it.Get("type").String() != "story" {
		return nil, nil
	}
	score := it.Get("score").Int()
	if score < minScore {
		return nil, nil
	}
	link := it.Get("url").String()
	if link == "" {
		link = hnItemURL + strconv.FormatInt(id, 10)
	}
	return &domain.ContentItem{
		Source:     sourceName,
		URL:        link,
		Title:      plainText(it.Get("title").String()),
		Body:       plainText(it.Get("text").String()),
		Author:     it.Get("by").String(),
		Published:  time.Unix(it.Get("time").Int(), 0).UTC(),
		Engagement: int(score + it.Get("descendants").Int()),
	}, nil
}
