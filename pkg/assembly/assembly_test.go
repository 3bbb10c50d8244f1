package assembly

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newsdigest/pkg/assembly/mocks"
	"github.com/umputun/newsdigest/pkg/domain"
)

func testItems() []domain.ContentItem {
	pubTime := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return []domain.ContentItem{
		{
			Source: "go-blog", URL: "https://go.dev/blog/article1", Title: "Go 1.24 released", Author: "Go Team",
			Published: pubTime, Fingerprint: "fp1", Category: domain.CategoryNews, Score: 82.4,
			Summary: "Go 1.24 brings generic type aliases.", SummaryStatus: domain.SummaryGenerated,
		},
		{
			Source: "hn", URL: "https://example.com/article2", Title: "Rust vs Go & friends", Body: "A long comparison",
			Published: pubTime.Add(-time.Hour), Fingerprint: "fp2", Category: domain.CategoryOpinion, Score: 41,
			SummaryStatus: domain.SummaryUnavailable, PossibleRepost: true,
		},
	}
}

func TestRSS_Generate(t *testing.T) {
	r := NewRSS(RSSConfig{Title: "Weekly digest", Link: "https://digest.example.com/", Description: "Top items"})
	r.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	data, err := r.Generate(testItems())
	require.NoError(t, err)
	rss := string(data)

	assert.Contains(t, rss, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, rss, `<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	assert.Contains(t, rss, `<title>Weekly digest</title>`)
	assert.Contains(t, rss, `<link>https://digest.example.com/</link>`)
	assert.Contains(t, rss, `<description>Top items</description>`)
	assert.Contains(t, rss, `<link xmlns="http://www.w3.org/2005/Atom" href="https://digest.example.com/rss" rel="self" type="application/rss+xml"></link>`)
	assert.Contains(t, rss, `<lastBuildDate>Sat, 01 Mar 2025 12:00:00 +0000</lastBuildDate>`)

	assert.Contains(t, rss, `<title>[82] Go 1.24 released</title>`)
	assert.Contains(t, rss, `<link>https://go.dev/blog/article1</link>`)
	assert.Contains(t, rss, `<guid isPermaLink="false">fp1</guid>`)
	assert.Contains(t, rss, `<author>Go Team</author>`)
	assert.Contains(t, rss, `<pubDate>Sat, 01 Mar 2025 10:00:00 +0000</pubDate>`)
	assert.Contains(t, rss, `Go 1.24 brings generic type aliases.`)
	assert.Contains(t, rss, `<category>news</category>`)
	assert.Contains(t, rss, `<category>go-blog</category>`)

	assert.Contains(t, rss, `<title>[41] Rust vs Go &amp; friends</title>`)
	assert.Contains(t, rss, `A long comparison`, "body excerpt used without summary")
	assert.Contains(t, rss, `Possible repost`)
	assert.Less(t, strings.Index(rss, "fp1"), strings.Index(rss, "fp2"), "order kept")

	t.Run("empty", func(t *testing.T) {
		data, err := NewRSS(RSSConfig{}).Generate(nil)
		require.NoError(t, err)
		assert.Contains(t, string(data), `<title>Newsdigest</title>`)
		assert.NotContains(t, string(data), `<item>`)
		assert.NotContains(t, string(data), `rel="self"`)
	})
}

func TestRSS_AssembleAndLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "digest.xml")
	r := NewRSS(RSSConfig{Path: path})

	_, err := r.Latest()
	require.ErrorIs(t, err, ErrNoDigest)

	require.NoError(t, r.Assemble(context.Background(), testItems()))
	onDisk, err := os.ReadFile(path) //nolint:gosec // test file
	require.NoError(t, err)
	assert.Contains(t, string(onDisk), "Go 1.24 released")

	latest, err := r.Latest()
	require.NoError(t, err)
	assert.Equal(t, onDisk, latest)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left")

	t.Run("new instance reads the file", func(t *testing.T) {
		latest, err := NewRSS(RSSConfig{Path: path}).Latest()
		require.NoError(t, err)
		assert.Equal(t, onDisk, latest)
	})

	t.Run("replaces previous digest", func(t *testing.T) {
		require.NoError(t, r.Assemble(context.Background(), testItems()[1:]))
		data, err := os.ReadFile(path) //nolint:gosec // test file
		require.NoError(t, err)
		assert.NotContains(t, string(data), "Go 1.24 released")
		assert.Contains(t, string(data), "Rust vs Go")
	})

	t.Run("memory only", func(t *testing.T) {
		r := NewRSS(RSSConfig{})
		require.NoError(t, r.Assemble(context.Background(), testItems()))
		latest, err := r.Latest()
		require.NoError(t, err)
		assert.Contains(t, string(latest), "fp2")
	})

	t.Run("write failure", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
		r := NewRSS(RSSConfig{Path: filepath.Join(blocker, "digest.xml")})
		err := r.Assemble(context.Background(), testItems())
		require.Error(t, err)
		_, err = r.Latest()
		assert.Error(t, err)
	})
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short text", excerpt("  short text ", 20))
	assert.Equal(t, "one two...", excerpt("one two three four", 9))
	assert.Equal(t, "abcdefghij...", excerpt("abcdefghijklmnop", 10))
	assert.Equal(t, "привет...", excerpt("привет мир", 8))
}

func TestKafka_Assemble(t *testing.T) {
	writer := &mocks.MessageWriterMock{
		WriteMessagesFunc: func(ctx context.Context, msgs ...kafka.Message) error {
			_, ok := ctx.Deadline()
			assert.True(t, ok, "write is bounded by the timeout")
			return nil
		},
		CloseFunc: func() error { return nil },
	}
	k := NewKafka(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "digest.items"})
	k.writer = writer

	require.NoError(t, k.Assemble(context.Background(), testItems()))
	require.Len(t, writer.WriteMessagesCalls(), 1)
	msgs := writer.WriteMessagesCalls()[0].Msgs
	require.Len(t, msgs, 2)

	assert.Equal(t, "fp1", string(msgs[0].Key))
	assert.Equal(t, "fp2", string(msgs[1].Key))
	assert.Equal(t, []kafka.Header{{Key: "category", Value: []byte("news")}}, msgs[0].Headers)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].Value, &payload))
	assert.Equal(t, "Go 1.24 released", payload["title"])
	assert.Equal(t, "fp1", payload["fingerprint"])
	assert.Equal(t, "Go 1.24 brings generic type aliases.", payload["summary"])
	assert.Contains(t, payload, "run_at")

	require.NoError(t, k.Close())
	assert.Len(t, writer.CloseCalls(), 1)

	t.Run("empty batch", func(t *testing.T) {
		require.NoError(t, k.Assemble(context.Background(), nil))
		assert.Len(t, writer.WriteMessagesCalls(), 1)
	})

	t.Run("write error", func(t *testing.T) {
		writer.WriteMessagesFunc = func(ctx context.Context, msgs ...kafka.Message) error {
			return errors.New("leader not available")
		}
		err := k.Assemble(context.Background(), testItems())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "write 2 messages to kafka topic digest.items")
	})
}

func TestChain_Assemble(t *testing.T) {
	var order []string
	ok := func(name string) assemblerFunc {
		return func(ctx context.Context, items []domain.ContentItem) error {
			order = append(order, name)
			return nil
		}
	}
	failing := assemblerFunc(func(ctx context.Context, items []domain.ContentItem) error {
		order = append(order, "failing")
		return errors.New("boom")
	})

	require.NoError(t, Chain{ok("rss"), ok("kafka")}.Assemble(context.Background(), testItems()))
	assert.Equal(t, []string{"rss", "kafka"}, order)

	order = nil
	err := Chain{ok("rss"), failing, ok("kafka")}.Assemble(context.Background(), testItems())
	require.EqualError(t, err, "boom")
	assert.Equal(t, []string{"rss", "failing"}, order)

	assert.NoError(t, Chain{}.Assemble(context.Background(), nil))
}

type assemblerFunc func(ctx context.Context, items []domain.ContentItem) error

func (f assemblerFunc) Assemble(ctx context.Context, items []domain.ContentItem) error {
	return f(ctx, items)
}
