package domain

import (
	"fmt"
	"time"
)

// ContentItem is a single piece of content fetched from a source. It is created by a fetcher,
// gets its fingerprint during deduplication, its score from the scorer and its summary from
// the summarizer. Items are owned by the run that created them.
type ContentItem struct {
	Source     string    `json:"source"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Body       string    `json:"body,omitempty"`
	Author     string    `json:"author,omitempty"`
	Published  time.Time `json:"published"`
	Engagement int       `json:"engagement,omitempty"` // upvotes + comments where the source reports them

	Fingerprint    string `json:"fingerprint"`
	BodyHash       string `json:"body_hash,omitempty"`
	PossibleRepost bool   `json:"possible_repost,omitempty"` // body hash matched another item with a different URL

	Category  ContentCategory `json:"category"`
	Score     float64         `json:"score"`
	Breakdown ScoreBreakdown  `json:"breakdown"`

	Summary       string        `json:"summary,omitempty"`
	SummaryStatus SummaryStatus `json:"summary_status"`
	ProcessedAt   time.Time     `json:"processed_at"`
}

// HasSummary reports whether the item carries a usable summary
func (c ContentItem) HasSummary() bool {
	return c.Summary != "" && c.SummaryStatus != SummaryUnavailable
}

// ScoreBreakdown shows how each component contributed to the final score, all in [0,100]
type ScoreBreakdown struct {
	Recency    float64 `json:"recency"`
	Source     float64 `json:"source"`
	Keyword    float64 `json:"keyword"`
	Engagement float64 `json:"engagement"`
	Final      float64 `json:"final"`
}

// SummaryStatus describes where an item's summary came from
type SummaryStatus string

// summary statuses
const (
	SummaryPending     SummaryStatus = "pending"
	SummaryCached      SummaryStatus = "cached"
	SummaryGenerated   SummaryStatus = "generated"
	SummaryUnavailable SummaryStatus = "unavailable"
)

// GenerationParams are the model and generation settings used to produce a summary.
// They are part of the cache key, so any change here invalidates cached summaries.
type GenerationParams struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"` // prompt profile name
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Canonical returns a stable string form of the parameters for hashing
func (p GenerationParams) Canonical() string {
	return fmt.Sprintf("model=%s;prompt=%s;temperature=%.3f;max_tokens=%d", p.Model, p.Prompt, p.Temperature, p.MaxTokens)
}

// CacheEntry is a cached summary with its expiry
type CacheEntry struct {
	Key       string    `db:"cache_key"`
	Value     string    `db:"value"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

// Expired reports whether the entry is past its expiry at the given time
func (e CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
