package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newsdigest/pkg/domain"
)

const minimalConfig = `
llm:
  endpoint: http://localhost:11434/v1
sources:
  - name: blog
    type: feed
    url: https://example.com/feed.xml
`

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		t.Setenv("NEWSDIGEST_TEST_KEY", "secret-key")
		configContent := `
server:
  listen: ":9090"
  timeout: 45s
llm:
  endpoint: http://localhost:11434/v1
  api_key: ${NEWSDIGEST_TEST_KEY}
  profiles:
    research:
      model: qwen2.5:14b
      max_tokens: 600
pipeline:
  min_score: 0
  max_items: 10
  busy_policy: queue
scoring:
  weights: {recency: 0.4, source: 0.2, keyword: 0.2, engagement: 0.2}
  keywords: [golang, kubernetes]
dedup:
  lookback: 0s
sources:
  - name: blog
    type: feed
    url: https://example.com/feed.xml
    weight: 0.8
  - name: r/golang
    type: forum-api
    params: {subreddit: golang, sort: top}
    active: false
  - name: hn
    type: aggregator-api
    timeout: 5s
    params: {story_type: best, limit: "20"}
assembly:
  kafka:
    enabled: true
    brokers: ["localhost:9092"]
`
		configPath := filepath.Join(t.TempDir(), "test-config.yml")
		require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o600))

		cfg, err := Load(configPath)
		require.NoError(t, err)

		assert.Equal(t, ":9090", cfg.Server.Listen)
		assert.Equal(t, 45*time.Second, cfg.Server.Timeout)
		assert.Equal(t, "secret-key", cfg.LLM.APIKey)
		assert.Equal(t, "qwen2.5:14b", cfg.LLM.Profiles["research"].Model)
		assert.Zero(t, cfg.Pipeline.MinScore, "explicit zero kept")
		assert.Equal(t, 10, cfg.Pipeline.MaxItems)
		assert.Equal(t, BusyQueue, cfg.Pipeline.BusyPolicy)
		assert.InDelta(t, 0.2, cfg.Scoring.Weights.Engagement, 0.0001)
		assert.Zero(t, cfg.Dedup.Lookback, "explicit zero disables lookback")

		require.Len(t, cfg.Sources, 3)
		assert.True(t, cfg.Sources[0].Active, "active defaults to true")
		assert.InDelta(t, 0.8, cfg.Sources[0].Weight, 0.0001)
		assert.Equal(t, 30*time.Second, cfg.Sources[0].Timeout, "fetch timeout used by default")
		assert.False(t, cfg.Sources[1].Active)
		assert.Equal(t, "golang", cfg.Sources[1].Param("subreddit", ""))
		assert.Equal(t, 5*time.Second, cfg.Sources[2].Timeout)

		active := cfg.ActiveSources()
		require.Len(t, active, 2)
		assert.Equal(t, "blog", active[0].Name)
		assert.Equal(t, "hn", active[1].Name)

		assert.True(t, cfg.Assembly.Kafka.Enabled)
		assert.Equal(t, "newsdigest.items", cfg.Assembly.Kafka.Topic)
	})

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Parse([]byte(minimalConfig))
		require.NoError(t, err)

		assert.True(t, cfg.Server.Enabled)
		assert.Equal(t, ":8080", cfg.Server.Listen)
		assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
		assert.Equal(t, 6*time.Hour, cfg.Schedule.Interval)
		assert.InDelta(t, 20.0, cfg.Pipeline.MinScore, 0.0001)
		assert.Equal(t, 25, cfg.Pipeline.MaxItems)
		assert.Equal(t, BusyReject, cfg.Pipeline.BusyPolicy)
		assert.InDelta(t, 0.5, cfg.Scoring.Weights.Recency, 0.0001)
		assert.Equal(t, 7*24*time.Hour, cfg.Scoring.MaxAge)
		assert.Equal(t, 7*24*time.Hour, cfg.Dedup.Lookback)
		assert.Equal(t, 7*24*time.Hour, cfg.Cache.TTL)
		assert.True(t, cfg.Cache.Persist)
		assert.Equal(t, "mistral:7b-instruct", cfg.LLM.PrimaryModel)
		assert.Equal(t, "deepseek-r1:7b", cfg.LLM.AnalyticalModel)
		assert.Equal(t, 10000, cfg.LLM.LongContentChars)
		assert.Equal(t, 3, cfg.LLM.Retry.Attempts)
		assert.Equal(t, 3, cfg.Fetch.Retry.Attempts)
		assert.True(t, cfg.Assembly.RSS.Enabled)
		assert.Equal(t, "digest.xml", cfg.Assembly.RSS.Path)
	})

	t.Run("file not found", func(t *testing.T) {
		cfg, err := Load("/non/existent/file.yml")
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "read config file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		cfg, err := Parse([]byte("invalid yaml content\n  with bad indentation\n    and no structure\n"))
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "parse config")
	})
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name  string
		cfg   string
		field string
	}{
		{name: "no sources", cfg: "llm: {endpoint: http://x}\n", field: "sources"},
		{name: "no endpoint", cfg: "sources: [{name: a, type: feed, url: http://x}]\n", field: "llm.endpoint"},
		{name: "unknown source type", cfg: minimalConfig + "  - {name: b, type: email}\n", field: "sources[1].type"},
		{name: "duplicate source", cfg: minimalConfig + "  - {name: blog, type: feed, url: http://y}\n", field: "sources[1].name"},
		{name: "feed without url", cfg: minimalConfig + "  - {name: b, type: feed}\n", field: "sources[1].url"},
		{name: "bad weight", cfg: minimalConfig + "  - {name: b, type: aggregator-api, weight: 1.5}\n", field: "sources[1].weight"},
		{name: "weights sum", cfg: minimalConfig + "scoring: {weights: {recency: 0.6, source: 0.3, keyword: 0.2}}\n", field: "scoring.weights"},
		{name: "negative weight", cfg: minimalConfig + "scoring: {weights: {recency: 1.2, source: -0.2, keyword: 0}}\n", field: "scoring.weights.source"},
		{name: "short max age", cfg: minimalConfig + "scoring: {max_age: 30m}\n", field: "scoring.max_age"},
		{name: "bad busy policy", cfg: minimalConfig + "pipeline: {busy_policy: drop}\n", field: "pipeline.busy_policy"},
		{name: "bad min score", cfg: minimalConfig + "pipeline: {min_score: 120}\n", field: "pipeline.min_score"},
		{name: "unknown profile", cfg: "sources: [{name: a, type: feed, url: http://x}]\nllm: {endpoint: http://x, profiles: {poetry: {model: m}}}\n",
			field: "llm.profiles.poetry"},
		{name: "bad retry", cfg: minimalConfig + "fetch: {retry: {attempts: 2, jitter: 3}}\n", field: "retry.jitter"},
		{name: "kafka without brokers", cfg: minimalConfig + "assembly: {kafka: {enabled: true}}\n", field: "assembly.kafka.brokers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.cfg))
			require.Error(t, err)
			var cfgErr *domain.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}
