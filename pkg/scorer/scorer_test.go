package scorer

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newsdigest/pkg/domain"
)

var defaultWeights = Weights{Recency: 0.5, Source: 0.3, Keyword: 0.2}

func TestWeights_Validate(t *testing.T) {
	tbl := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{"valid", defaultWeights, false},
		{"valid with engagement", Weights{Recency: 0.4, Source: 0.2, Keyword: 0.2, Engagement: 0.2}, false},
		{"within tolerance", Weights{Recency: 0.3333, Source: 0.3333, Keyword: 0.3334}, false},
		{"sum above one", Weights{Recency: 0.5, Source: 0.3, Keyword: 0.3}, true},
		{"sum below one", Weights{Recency: 0.5, Source: 0.3}, true},
		{"negative", Weights{Recency: 1.2, Source: -0.2}, true},
		{"all zero", Weights{}, true},
	}
	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var cfgErr *domain.ConfigError
			require.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestNew(t *testing.T) {
	_, err := New(Config{Weights: Weights{Recency: 0.5, Source: 0.3, Keyword: 0.3}, MaxAge: 7 * 24 * time.Hour})
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "scoring.weights", cfgErr.Field)

	_, err = New(Config{Weights: defaultWeights, MaxAge: time.Minute})
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "scoring.max_age", cfgErr.Field)

	s, err := New(Config{Weights: defaultWeights, MaxAge: 7 * 24 * time.Hour, Keywords: []string{"Go", "go", " ", "rust"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "rust"}, s.keywords)
	assert.Equal(t, 5, s.keywordCap)
	assert.Equal(t, 1000, s.engagementCap)
}

func TestScorer_Recency(t *testing.T) {
	s, err := New(Config{Weights: Weights{Recency: 1}, MaxAge: 7 * 24 * time.Hour})
	require.NoError(t, err)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	tbl := []struct {
		name string
		age  time.Duration
		want float64
	}{
		{"fresh", 10 * time.Minute, 100},
		{"one hour", time.Hour, 100},
		{"half window", time.Hour + (7*24*time.Hour-time.Hour)/2, 50},
		{"at max age", 7 * 24 * time.Hour, 0},
		{"ten days", 10 * 24 * time.Hour, 0},
		{"future", -time.Hour, 100},
	}
	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			b := s.Score(domain.ContentItem{Published: now.Add(-tt.age)}, 0, now)
			assert.InDelta(t, tt.want, b.Recency, 0.001)
			assert.InDelta(t, tt.want, b.Final, 0.001)
		})
	}

	t.Run("missing publish time is neutral", func(t *testing.T) {
		b := s.Score(domain.ContentItem{}, 0, now)
		assert.Zero(t, b.Recency)
	})
}

func TestScorer_Components(t *testing.T) {
	s, err := New(Config{
		Weights:       Weights{Recency: 0.25, Source: 0.25, Keyword: 0.25, Engagement: 0.25},
		MaxAge:        7 * 24 * time.Hour,
		Keywords:      []string{"golang", "kubernetes", "postgres", "rust"},
		KeywordCap:    2,
		EngagementCap: 1000,
	})
	require.NoError(t, err)
	now := time.Now()

	item := domain.ContentItem{
		Title:      "Running Golang on Kubernetes",
		Body:       "with postgres",
		Published:  now,
		Engagement: 1000,
	}
	b := s.Score(item, 0.6, now)
	assert.InDelta(t, 100, b.Recency, 0.001)
	assert.InDelta(t, 60, b.Source, 0.001)
	assert.InDelta(t, 100, b.Keyword, 0.001, "hits capped at 2")
	assert.InDelta(t, 100, b.Engagement, 0.001)
	assert.InDelta(t, 90, b.Final, 0.001)

	b = s.Score(domain.ContentItem{Title: "about RUST"}, 0, now)
	assert.InDelta(t, 50, b.Keyword, 0.001)
	assert.Zero(t, b.Engagement)

	b = s.Score(domain.ContentItem{Engagement: 31}, 0, now)
	assert.Greater(t, b.Engagement, 40.0)
	assert.Less(t, b.Engagement, 60.0)
}

func TestScorer_OldItemWithNoSignalsScoresZero(t *testing.T) {
	s, err := New(Config{Weights: defaultWeights, MaxAge: 7 * 24 * time.Hour, Keywords: []string{"golang"}})
	require.NoError(t, err)
	now := time.Now()
	b := s.Score(domain.ContentItem{Title: "gardening tips", Published: now.Add(-10 * 24 * time.Hour)}, 0, now)
	assert.Zero(t, b.Recency)
	assert.Zero(t, b.Source)
	assert.Zero(t, b.Keyword)
	assert.Zero(t, b.Final)
}

func TestScorer_AlwaysInRange(t *testing.T) {
	s, err := New(Config{Weights: Weights{Recency: 0.4, Source: 0.3, Keyword: 0.2, Engagement: 0.1},
		MaxAge: 48 * time.Hour, Keywords: []string{"a", "b", "c"}, KeywordCap: 1})
	require.NoError(t, err)
	now := time.Now()
	rnd := rand.New(rand.NewSource(42)) //nolint:gosec // test data
	for range 1000 {
		item := domain.ContentItem{
			Title:      "a b c",
			Published:  now.Add(time.Duration(rnd.Int63n(int64(30*24*time.Hour))) - 15*24*time.Hour),
			Engagement: rnd.Intn(1_000_000) - 1000,
		}
		weight := rnd.Float64()*4 - 2
		b := s.Score(item, weight, now)
		for _, v := range []float64{b.Recency, b.Source, b.Keyword, b.Engagement, b.Final} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	}
}
