// Package assembly hands the final batch of a pipeline run to its consumers: an RSS digest file
// served over HTTP and a Kafka topic read by the newsletter generator.
package assembly

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/newsdigest/pkg/domain"
)

// ErrNoDigest is returned by Latest before the first digest is assembled
var ErrNoDigest = errors.New("no digest assembled yet")

const excerptLen = 500

// RSSConfig defines the digest channel
type RSSConfig struct {
	Path        string // digest file, not written if empty
	Title       string
	Link        string // public base url, used for channel and self links
	Description string
}

// RSS assembles items into an RSS 2.0 digest
type RSS struct {
	cfg RSSConfig
	now func() time.Time

	mu     sync.RWMutex
	latest []byte
}

// NewRSS makes an RSS assembler
func NewRSS(cfg RSSConfig) *RSS {
	if cfg.Title == "" {
		cfg.Title = "Newsdigest"
	}
	if cfg.Description == "" {
		cfg.Description = "Curated and summarized content"
	}
	cfg.Link = strings.TrimRight(cfg.Link, "/")
	return &RSS{cfg: cfg, now: time.Now}
}

// Assemble generates the digest, keeps it for Latest and writes it to the configured path.
// The file is replaced atomically, readers never see a partial digest.
func (r *RSS) Assemble(_ context.Context, items []domain.ContentItem) error {
	data, err := r.Generate(items)
	if err != nil {
		return err
	}
	if r.cfg.Path != "" {
		if err := writeFileAtomic(r.cfg.Path, data); err != nil {
			return fmt.Errorf("write digest %s: %w", r.cfg.Path, err)
		}
		lgr.Printf("[INFO] rss digest with %d items written to %s", len(items), r.cfg.Path)
	}
	r.mu.Lock()
	r.latest = data
	r.mu.Unlock()
	return nil
}

// Latest returns the last assembled digest, falls back to the digest file written by a previous process
func (r *RSS) Latest() ([]byte, error) {
	r.mu.RLock()
	data := r.latest
	r.mu.RUnlock()
	if data != nil {
		return data, nil
	}
	if r.cfg.Path == "" {
		return nil, ErrNoDigest
	}
	data, err := os.ReadFile(r.cfg.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoDigest
	}
	if err != nil {
		return nil, fmt.Errorf("read digest %s: %w", r.cfg.Path, err)
	}
	return data, nil
}

// Generate makes an RSS 2.0 document from items in the given order
func (r *RSS) Generate(items []domain.ContentItem) ([]byte, error) {
	channel := &rssChannel{
		Title:         r.cfg.Title,
		Link:          r.cfg.Link + "/",
		Description:   r.cfg.Description,
		LastBuildDate: r.now().Format(time.RFC1123Z),
		Items:         make([]*rssItem, 0, len(items)),
	}
	if r.cfg.Link != "" {
		channel.AtomLink = &atomLink{Href: r.cfg.Link + "/rss", Rel: "self", Type: "application/rss+xml"}
	}
	for _, item := range items {
		channel.Items = append(channel.Items, r.convert(item))
	}

	output, err := xml.MarshalIndent(&rssFeed{Version: "2.0", Atom: "http://www.w3.org/2005/Atom", Channel: channel}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal RSS: %w", err)
	}
	return append([]byte(xml.Header), output...), nil
}

func (r *RSS) convert(item domain.ContentItem) *rssItem {
	desc := fmt.Sprintf("Score: %.1f, source: %s", item.Score, item.Source)
	switch {
	case item.HasSummary():
		desc += "\n\n" + item.Summary
	case item.Body != "":
		desc += "\n\n" + excerpt(item.Body, excerptLen)
	}
	if item.PossibleRepost {
		desc += "\n\nPossible repost of an earlier item."
	}

	res := &rssItem{
		Title:       fmt.Sprintf("[%.0f] %s", item.Score, item.Title),
		Link:        item.URL,
		GUID:        rssGUID{Value: item.Fingerprint},
		Description: desc,
		Author:      item.Author,
		Categories:  []string{string(item.Category), item.Source},
	}
	if !item.Published.IsZero() {
		res.PubDate = item.Published.Format(time.RFC1123Z)
	}
	return res
}

// excerpt cuts text to at most n runes on a word boundary
func excerpt(text string, n int) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	cut := string([]rune(text)[:n])
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return cut + "..."
}

// writeFileAtomic writes data to a temp file in the target directory and renames it over the target
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("make dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:gosec // digest is public
		return fmt.Errorf("chmod temp file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
