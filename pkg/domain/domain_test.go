package domain

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseCategory(t *testing.T) {
	for _, c := range AllCategories() {
		got, err := ParseCategory(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseCategory("gossip")
	require.EqualError(t, err, `unknown content category "gossip"`)
	_, err = ParseCategory("News")
	assert.Error(t, err, "case sensitive")
}

func TestStage_Terminal(t *testing.T) {
	assert.True(t, StageDone.Terminal())
	assert.True(t, StageFailed.Terminal())
	for _, s := range []Stage{StageIdle, StageFetching, StageDeduplicating, StageScoring, StageSummarizing, StageAssembling} {
		assert.False(t, s.Terminal(), s)
	}
}

func TestRunReport(t *testing.T) {
	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewRunReport("run-1", started)
	assert.Equal(t, StageIdle, r.Status)
	assert.Equal(t, []Stage{StageIdle}, r.Stages)
	assert.Equal(t, started, r.StartedAt)
	assert.Zero(t, r.TotalDropped())

	r.Drop(DropDuplicate)
	r.Drop(DropDuplicate)
	r.Drop(DropLowScore)
	assert.Equal(t, 2, r.Dropped[DropDuplicate])
	assert.Equal(t, 3, r.TotalDropped())
}

func TestContentItem_HasSummary(t *testing.T) {
	assert.True(t, ContentItem{Summary: "text", SummaryStatus: SummaryGenerated}.HasSummary())
	assert.False(t, ContentItem{SummaryStatus: SummaryGenerated}.HasSummary())
	assert.False(t, ContentItem{Summary: "text", SummaryStatus: SummaryUnavailable}.HasSummary())
}

func TestGenerationParams_Canonical(t *testing.T) {
	p := GenerationParams{Model: "mistral:7b", Prompt: "news", Temperature: 0.3, MaxTokens: 300}
	assert.Equal(t, "model=mistral:7b;prompt=news;temperature=0.300;max_tokens=300", p.Canonical())

	other := p
	other.Temperature = 0.31
	assert.NotEqual(t, p.Canonical(), other.Canonical())
}

func TestCacheEntry_Expired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	e := CacheEntry{Key: "k", ExpiresAt: now}
	assert.True(t, e.Expired(now), "expired at the expiry instant")
	assert.True(t, e.Expired(now.Add(time.Second)))
	assert.False(t, e.Expired(now.Add(-time.Second)))
}

func TestSourceType_Valid(t *testing.T) {
	assert.True(t, SourceFeed.Valid())
	assert.True(t, SourceForum.Valid())
	assert.True(t, SourceAggregator.Valid())
	assert.False(t, SourceType("twitter").Valid())
	assert.False(t, SourceType("").Valid())
}

func TestSourceConfig(t *testing.T) {
	var srcs []SourceConfig
	err := yaml.Unmarshal([]byte(`
- name: blog
  type: feed
  url: https://go.dev/blog/feed.atom
- name: hn
  type: aggregator-api
  active: false
  params:
    limit: "50"
    min_score: ""
`), &srcs)
	require.NoError(t, err)
	require.Len(t, srcs, 2)

	assert.True(t, srcs[0].Active, "active by default")
	assert.False(t, srcs[1].Active)
	assert.Equal(t, "50", srcs[1].Param("limit", "30"))
	assert.Equal(t, "10", srcs[1].Param("min_score", "10"), "empty value falls back to default")
	assert.Equal(t, "30", srcs[0].Param("limit", "30"))
}

func TestErrors(t *testing.T) {
	assert.Equal(t, "config error: scoring.weights: must sum to 1.0",
		(&ConfigError{Field: "scoring.weights", Reason: "must sum to 1.0"}).Error())
	assert.Equal(t, "config error: no sources", (&ConfigError{Reason: "no sources"}).Error())

	fetchErr := &SourceFetchError{Source: "hn", Err: io.ErrUnexpectedEOF}
	assert.Equal(t, "fetch source hn: unexpected EOF", fetchErr.Error())
	assert.ErrorIs(t, fetchErr, io.ErrUnexpectedEOF)

	sumErr := &SummarizationError{Fingerprint: "fp1", Attempts: 3, Err: io.EOF}
	assert.Equal(t, "summarize fp1 after 3 attempts: EOF", sumErr.Error())
	assert.ErrorIs(t, sumErr, io.EOF)

	cacheErr := &CacheError{Op: "save", Key: "k1", Err: errors.New("disk full")}
	assert.Equal(t, "cache save k1: disk full", cacheErr.Error())
	assert.Equal(t, "cache load: disk full", (&CacheError{Op: "load", Err: errors.New("disk full")}).Error())

	assert.Equal(t, `invalid content "http://[::1": bad url`,
		(&InvalidContentError{URL: "http://[::1", Reason: "bad url"}).Error())
}
