package source

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/umputun/newsdigest/pkg/domain"
)

// Feed fetches RSS/Atom feeds
type Feed struct {
	client *http.Client
}

// NewFeed creates a new feed fetcher
func NewFeed(client *http.Client) *Feed {
	return &Feed{client: client}
}

// Fetch retrieves and parses the feed at src.URL. The optional "limit" param caps the number of items.
func (f *Feed) Fetch(ctx context.Context, src domain.SourceConfig) ([]domain.ContentItem, error) {
	body, err := get(ctx, f.client, src.URL, addFeedHeaders)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.URL, err)
	}

	limit, _ := strconv.Atoi(src.Param("limit", "0"))
	items := make([]domain.ContentItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if limit > 0 && len(items) >= limit {
			break
		}
		item := domain.ContentItem{
			Source: src.Name,
			URL:    strings.TrimSpace(it.Link),
			Title:  plainText(it.Title),
			Body:   plainText(it.Content),
		}
		if item.Body == "" {
			item.Body = plainText(it.Description)
		}
		if item.URL == "" && strings.HasPrefix(it.GUID, "http") {
			item.URL = it.GUID
		}

		// set author
		if it.Author != nil {
			item.Author = it.Author.Name
		} else if len(it.Authors) > 0 && it.Authors[0] != nil {
			item.Author = it.Authors[0].Name
		}

		// set published time
		if it.PublishedParsed != nil {
			item.Published = it.PublishedParsed.UTC()
		} else if it.UpdatedParsed != nil {
			item.Published = it.UpdatedParsed.UTC()
		}

		items = append(items, item)
	}
	return items, nil
}
