package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/umputun/newsdigest/pkg/domain"
)

const redditBaseURL = "https://www.reddit.com"

var (
	redditSorts       = map[string]bool{"hot": true, "new": true, "top": true, "rising": true}
	redditTimeFilters = map[string]bool{"hour": true, "day": true, "week": true, "month": true, "year": true, "all": true}
)

// Reddit fetches subreddit listings through the public JSON API.
// Params: subreddit (required), sort (hot|new|top|rising), limit, time_filter (used with top).
type Reddit struct {
	client *http.Client
}

// NewReddit creates a new forum fetcher
func NewReddit(client *http.Client) *Reddit {
	return &Reddit{client: client}
}

// Fetch retrieves posts of the subreddit, stickied posts are skipped
func (r *Reddit) Fetch(ctx context.Context, src domain.SourceConfig) ([]domain.ContentItem, error) {
	listingURL, err := r.listingURL(src)
	if err != nil {
		return nil, err
	}
	base := strings.TrimRight(src.URL, "/")
	if base == "" {
		base = redditBaseURL
	}

	body, err := get(ctx, r.client, listingURL, addAPIHeaders)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid listing json from %s", listingURL)
	}

	var items []domain.ContentItem
	gjson.GetBytes(body, "data.children.#.data").ForEach(func(_, post gjson.Result) bool {
		if post.Get("stickied").Bool() {
			return true
		}
		link := post.Get("url").String()
		if post.Get("is_self").Bool() || link == "" {
			link = base + post.Get("permalink").String()
		}
		items = append(items, domain.ContentItem{
			Source:     src.Name,
			URL:        link,
			Title:      plainText(post.Get("title").String()),
			Body:       plainText(post.Get("selftext").String()),
			Author:     post.Get("author").String(),
			Published:  time.Unix(post.Get("created_utc").Int(), 0).UTC(),
			Engagement: int(post.Get("score").Int() + post.Get("num_comments").Int()),
		})
		return true
	})
	return items, nil
}

func (r *Reddit) listingURL(src domain.SourceConfig) (string, error) {
	subreddit := strings.Trim(src.Param("subreddit", ""), "/ ")
	subreddit = strings.TrimPrefix(subreddit, "r/")
	if subreddit == "" {
		return "", fmt.Errorf("source %s: subreddit param is required", src.Name)
	}
	sort := src.Param("sort", "hot")
	if !redditSorts[sort] {
		return "", fmt.Errorf("source %s: unsupported sort %q", src.Name, sort)
	}

	base := strings.TrimRight(src.URL, "/")
	if base == "" {
		base = redditBaseURL
	}
	q := url.Values{}
	q.Set("limit", src.Param("limit", "25"))
	q.Set("raw_json", "1")
	if tf := src.Param("time_filter", ""); tf != "" {
		if !redditTimeFilters[tf] {
			return "", fmt.Errorf("source %s: unsupported time_filter %q", src.Name, tf)
		}
		q.Set("t", tf)
	}
	return fmt.Sprintf("%s/r/%s/%s.json?%s", base, url.PathEscape(subreddit), sort, q.Encode()), nil
}
