package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-pkgz/lgr"
	"gopkg.in/yaml.v3"

	"github.com/umputun/newsdigest/pkg/domain"
	"github.com/umputun/newsdigest/pkg/retry"
	"github.com/umputun/newsdigest/pkg/scorer"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// busy policies
const (
	BusyReject = "reject"
	BusyQueue  = "queue"
)

// Config holds the application configuration
type Config struct {
	Server struct {
		Enabled bool          `yaml:"enabled" json:"enabled" jsonschema:"default=true,description=Start the HTTP server"`
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:newsdigest.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	Schedule struct {
		Interval         time.Duration `yaml:"interval" json:"interval" jsonschema:"default=6h,description=Pipeline run interval"`
		RunOnStart       bool          `yaml:"run_on_start" json:"run_on_start" jsonschema:"default=false,description=Run the pipeline right after start"`
		HistoryRetention time.Duration `yaml:"history_retention" json:"history_retention" jsonschema:"default=720h,description=How long delivered fingerprints are kept"`
	} `yaml:"schedule" json:"schedule" jsonschema:"description=Scheduler configuration"`

	Pipeline PipelineConfig `yaml:"pipeline" json:"pipeline" jsonschema:"description=Pipeline run settings"`

	Sources []domain.SourceConfig `yaml:"sources" json:"sources" jsonschema:"required,description=Content sources"`

	Scoring ScoringConfig `yaml:"scoring" json:"scoring" jsonschema:"description=Relevance scoring"`

	Dedup DedupConfig `yaml:"dedup" json:"dedup" jsonschema:"description=Deduplication settings"`

	Cache CacheConfig `yaml:"cache" json:"cache" jsonschema:"description=Summary cache"`

	LLM LLMConfig `yaml:"llm" json:"llm" jsonschema:"description=LLM configuration for summarization"`

	Fetch FetchConfig `yaml:"fetch" json:"fetch" jsonschema:"description=Source fetching"`

	Extraction ExtractionConfig `yaml:"extraction" json:"extraction" jsonschema:"description=Content extraction configuration"`

	Assembly AssemblyConfig `yaml:"assembly" json:"assembly" jsonschema:"description=Digest assembly outputs"`
}

// PipelineConfig holds run level settings
type PipelineConfig struct {
	MinScore   float64       `yaml:"min_score" json:"min_score" jsonschema:"default=20,minimum=0,maximum=100,description=Items scoring below are dropped"`
	MaxItems   int           `yaml:"max_items" json:"max_items" jsonschema:"default=25,minimum=1,description=Maximum items per digest"`
	Workers    int           `yaml:"workers" json:"workers" jsonschema:"default=4,minimum=1,description=Concurrent summarization calls"`
	BusyPolicy string        `yaml:"busy_policy" json:"busy_policy" jsonschema:"default=reject,enum=reject,enum=queue,description=What to do when a run is requested while another is active"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30m,description=Maximum duration of a single run"`
}

// ScoringConfig holds scorer settings
type ScoringConfig struct {
	Weights       scorer.Weights `yaml:"weights" json:"weights" jsonschema:"description=Component weights summing to 1.0"`
	MaxAge        time.Duration  `yaml:"max_age" json:"max_age" jsonschema:"default=168h,description=Age at which recency score reaches zero"`
	Keywords      []string       `yaml:"keywords" json:"keywords" jsonschema:"description=Interest keywords"`
	KeywordCap    int            `yaml:"keyword_cap" json:"keyword_cap" jsonschema:"default=5,minimum=1,description=Keyword hits counted up to this number"`
	EngagementCap int            `yaml:"engagement_cap" json:"engagement_cap" jsonschema:"default=1000,minimum=1,description=Engagement at or above this value scores 100"`
}

// DedupConfig holds deduplication settings
type DedupConfig struct {
	Lookback       time.Duration `yaml:"lookback" json:"lookback" jsonschema:"default=168h,description=Items delivered within this window are skipped and 0 disables cross-run dedup"`
	TrackingParams []string      `yaml:"tracking_params" json:"tracking_params" jsonschema:"description=Query parameters stripped during URL normalization replacing the built-in list"`
}

// CacheConfig holds summary cache settings
type CacheConfig struct {
	TTL           time.Duration `yaml:"ttl" json:"ttl" jsonschema:"default=168h,description=Summary time to live"`
	MaxEntries    int           `yaml:"max_entries" json:"max_entries" jsonschema:"default=10000,minimum=0,description=Maximum cached summaries with 0 meaning unbounded"`
	SweepInterval time.Duration `yaml:"sweep_interval" json:"sweep_interval" jsonschema:"default=1h,description=Expired entries sweep interval"`
	Persist       bool          `yaml:"persist" json:"persist" jsonschema:"default=true,description=Persist summaries in the database"`
}

// ProfileConfig overrides generation parameters of a content category
type ProfileConfig struct {
	Model       string  `yaml:"model" json:"model,omitempty" jsonschema:"description=Model name"`
	Temperature float64 `yaml:"temperature" json:"temperature,omitempty" jsonschema:"minimum=0,maximum=2,description=Temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens,omitempty" jsonschema:"minimum=0,description=Maximum tokens in response"`
}

// LLMConfig holds LLM configuration for summarization
type LLMConfig struct {
	Endpoint         string                   `yaml:"endpoint" json:"endpoint" jsonschema:"required,description=OpenAI-compatible API endpoint"`
	APIKey           string                   `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable)"`
	PrimaryModel     string                   `yaml:"primary_model" json:"primary_model" jsonschema:"default=mistral:7b-instruct,description=Model for news and general content"`
	AnalyticalModel  string                   `yaml:"analytical_model" json:"analytical_model" jsonschema:"default=deepseek-r1:7b,description=Model for technical and research content"`
	Timeout          time.Duration            `yaml:"timeout" json:"timeout" jsonschema:"default=60s,description=Request timeout"`
	SystemPrompt     string                   `yaml:"system_prompt" json:"system_prompt" jsonschema:"description=System prompt for the LLM (optional)"`
	LongContentChars int                      `yaml:"long_content_chars" json:"long_content_chars" jsonschema:"default=10000,description=Content longer than this is routed to the primary model"`
	MaxInputChars    int                      `yaml:"max_input_chars" json:"max_input_chars" jsonschema:"default=8000,description=Content is truncated to this length before summarization"`
	Profiles         map[string]ProfileConfig `yaml:"profiles" json:"profiles,omitempty" jsonschema:"description=Per category overrides"`
	Retry            retry.Policy             `yaml:"retry" json:"retry" jsonschema:"description=Retry policy for summarization calls"`
}

// FetchConfig holds source fetching settings
type FetchConfig struct {
	Timeout    time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Default per source timeout"`
	MaxWorkers int           `yaml:"max_workers" json:"max_workers" jsonschema:"default=5,minimum=1,description=Sources fetched concurrently"`
	Retry      retry.Policy  `yaml:"retry" json:"retry" jsonschema:"description=Retry policy for source fetches"`
}

// ExtractionConfig holds content extraction settings
type ExtractionConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled" jsonschema:"default=false,description=Enable content extraction"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Extraction timeout per article"`
	MinTextLength int           `yaml:"min_text_length" json:"min_text_length" jsonschema:"default=500,description=Bodies shorter than this are extracted from the article page"`
}

// AssemblyConfig holds digest outputs
type AssemblyConfig struct {
	RSS struct {
		Enabled     bool   `yaml:"enabled" json:"enabled" jsonschema:"default=true,description=Write RSS digest"`
		Path        string `yaml:"path" json:"path" jsonschema:"default=digest.xml,description=RSS digest file"`
		Title       string `yaml:"title" json:"title" jsonschema:"default=Newsdigest,description=Channel title"`
		Link        string `yaml:"link" json:"link" jsonschema:"description=Channel link"`
		Description string `yaml:"description" json:"description" jsonschema:"description=Channel description"`
	} `yaml:"rss" json:"rss" jsonschema:"description=RSS digest output"`

	Kafka struct {
		Enabled bool          `yaml:"enabled" json:"enabled" jsonschema:"default=false,description=Publish items to Kafka"`
		Brokers []string      `yaml:"brokers" json:"brokers" jsonschema:"description=Kafka broker addresses"`
		Topic   string        `yaml:"topic" json:"topic" jsonschema:"default=newsdigest.items,description=Kafka topic"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10s,description=Write timeout"`
	} `yaml:"kafka" json:"kafka" jsonschema:"description=Kafka hand-off to newsletter generation"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and validates the result
func Parse(data []byte) (*Config, error) {
	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Config{}
	// defaults that can't be detected as unset after decoding
	cfg.Server.Enabled = true
	cfg.Cache.Persist = true
	cfg.Assembly.RSS.Enabled = true
	cfg.Scoring.Weights = scorer.Weights{Recency: 0.5, Source: 0.3, Keyword: 0.2}
	cfg.Pipeline.MinScore = 20
	cfg.Dedup.Lookback = 7 * 24 * time.Hour

	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// schema validation is supplementary
		lgr.Printf("[WARN] schema validation failed: %v", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	// server
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}

	// database
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file:newsdigest.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 3600
	}

	// schedule
	if cfg.Schedule.Interval == 0 {
		cfg.Schedule.Interval = 6 * time.Hour
	}
	if cfg.Schedule.HistoryRetention == 0 {
		cfg.Schedule.HistoryRetention = 30 * 24 * time.Hour
	}

	// pipeline
	if cfg.Pipeline.MaxItems == 0 {
		cfg.Pipeline.MaxItems = 25
	}
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = 4
	}
	if cfg.Pipeline.BusyPolicy == "" {
		cfg.Pipeline.BusyPolicy = BusyReject
	}
	if cfg.Pipeline.Timeout == 0 {
		cfg.Pipeline.Timeout = 30 * time.Minute
	}

	// scoring
	if cfg.Scoring.MaxAge == 0 {
		cfg.Scoring.MaxAge = 7 * 24 * time.Hour
	}
	if cfg.Scoring.KeywordCap == 0 {
		cfg.Scoring.KeywordCap = 5
	}
	if cfg.Scoring.EngagementCap == 0 {
		cfg.Scoring.EngagementCap = 1000
	}

	// cache
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 7 * 24 * time.Hour
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 10000
	}
	if cfg.Cache.SweepInterval == 0 {
		cfg.Cache.SweepInterval = time.Hour
	}

	// llm
	if cfg.LLM.PrimaryModel == "" {
		cfg.LLM.PrimaryModel = "mistral:7b-instruct"
	}
	if cfg.LLM.AnalyticalModel == "" {
		cfg.LLM.AnalyticalModel = "deepseek-r1:7b"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}
	if cfg.LLM.LongContentChars == 0 {
		cfg.LLM.LongContentChars = 10000
	}
	if cfg.LLM.MaxInputChars == 0 {
		cfg.LLM.MaxInputChars = 8000
	}
	setRetryDefaults(&cfg.LLM.Retry, 3, 2*time.Second, 30*time.Second)

	// fetch
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 30 * time.Second
	}
	if cfg.Fetch.MaxWorkers == 0 {
		cfg.Fetch.MaxWorkers = 5
	}
	setRetryDefaults(&cfg.Fetch.Retry, 3, time.Second, 10*time.Second)

	// extraction
	if cfg.Extraction.Timeout == 0 {
		cfg.Extraction.Timeout = 30 * time.Second
	}
	if cfg.Extraction.MinTextLength == 0 {
		cfg.Extraction.MinTextLength = 500
	}

	// assembly
	if cfg.Assembly.RSS.Path == "" {
		cfg.Assembly.RSS.Path = "digest.xml"
	}
	if cfg.Assembly.RSS.Title == "" {
		cfg.Assembly.RSS.Title = "Newsdigest"
	}
	if cfg.Assembly.Kafka.Topic == "" {
		cfg.Assembly.Kafka.Topic = "newsdigest.items"
	}
	if cfg.Assembly.Kafka.Timeout == 0 {
		cfg.Assembly.Kafka.Timeout = 10 * time.Second
	}

	// sources
	for i := range cfg.Sources {
		if cfg.Sources[i].Timeout == 0 {
			cfg.Sources[i].Timeout = cfg.Fetch.Timeout
		}
	}
}

func setRetryDefaults(p *retry.Policy, attempts int, initial, maxDelay time.Duration) {
	if p.Attempts == 0 {
		p.Attempts = attempts
	}
	if p.InitialDelay == 0 {
		p.InitialDelay = initial
	}
	if p.MaxDelay == 0 {
		p.MaxDelay = maxDelay
	}
	if p.Jitter == 0 {
		p.Jitter = 0.1
	}
}

// validate checks configuration for correctness, errors are *domain.ConfigError
func validate(cfg *Config) error {
	// sources
	if len(cfg.Sources) == 0 {
		return &domain.ConfigError{Field: "sources", Reason: "at least one source is required"}
	}
	names := map[string]bool{}
	for i, src := range cfg.Sources {
		field := fmt.Sprintf("sources[%d]", i)
		if src.Name == "" {
			return &domain.ConfigError{Field: field + ".name", Reason: "is required"}
		}
		if names[src.Name] {
			return &domain.ConfigError{Field: field + ".name", Reason: fmt.Sprintf("duplicate source %q", src.Name)}
		}
		names[src.Name] = true
		if !src.Type.Valid() {
			return &domain.ConfigError{Field: field + ".type", Reason: fmt.Sprintf("unknown source type %q", src.Type)}
		}
		if src.Type == domain.SourceFeed && src.URL == "" {
			return &domain.ConfigError{Field: field + ".url", Reason: "is required for feed sources"}
		}
		if src.Weight < 0 || src.Weight > 1 {
			return &domain.ConfigError{Field: field + ".weight", Reason: "must be between 0 and 1"}
		}
	}

	// scoring
	if err := cfg.Scoring.Weights.Validate(); err != nil {
		return err
	}
	if cfg.Scoring.MaxAge <= time.Hour {
		return &domain.ConfigError{Field: "scoring.max_age", Reason: "must be longer than 1h"}
	}

	// pipeline
	if cfg.Pipeline.MinScore < 0 || cfg.Pipeline.MinScore > 100 {
		return &domain.ConfigError{Field: "pipeline.min_score", Reason: "must be between 0 and 100"}
	}
	if cfg.Pipeline.MaxItems < 1 {
		return &domain.ConfigError{Field: "pipeline.max_items", Reason: "must be at least 1"}
	}
	if cfg.Pipeline.Workers < 1 {
		return &domain.ConfigError{Field: "pipeline.workers", Reason: "must be at least 1"}
	}
	if cfg.Pipeline.BusyPolicy != BusyReject && cfg.Pipeline.BusyPolicy != BusyQueue {
		return &domain.ConfigError{Field: "pipeline.busy_policy", Reason: fmt.Sprintf("unknown policy %q", cfg.Pipeline.BusyPolicy)}
	}

	// cache
	if cfg.Dedup.Lookback < 0 {
		return &domain.ConfigError{Field: "dedup.lookback", Reason: "must be non-negative"}
	}
	if cfg.Cache.TTL < 0 || cfg.Cache.MaxEntries < 0 {
		return &domain.ConfigError{Field: "cache", Reason: "ttl and max_entries must be non-negative"}
	}

	// llm
	if cfg.LLM.Endpoint == "" {
		return &domain.ConfigError{Field: "llm.endpoint", Reason: "is required"}
	}
	for name, p := range cfg.LLM.Profiles {
		if _, err := domain.ParseCategory(name); err != nil {
			return &domain.ConfigError{Field: "llm.profiles." + name, Reason: err.Error()}
		}
		if p.Temperature < 0 || p.Temperature > 2 {
			return &domain.ConfigError{Field: "llm.profiles." + name + ".temperature", Reason: "must be between 0 and 2"}
		}
	}
	if err := cfg.LLM.Retry.Validate(); err != nil {
		return err
	}
	if err := cfg.Fetch.Retry.Validate(); err != nil {
		return err
	}

	// extraction
	if cfg.Extraction.Enabled {
		if cfg.Extraction.Timeout < time.Second {
			return &domain.ConfigError{Field: "extraction.timeout", Reason: "must be at least 1 second"}
		}
		if cfg.Extraction.MinTextLength < 0 {
			return &domain.ConfigError{Field: "extraction.min_text_length", Reason: "must be non-negative"}
		}
	}

	// assembly
	if cfg.Assembly.Kafka.Enabled && len(cfg.Assembly.Kafka.Brokers) == 0 {
		return &domain.ConfigError{Field: "assembly.kafka.brokers", Reason: "required when kafka is enabled"}
	}
	if cfg.Assembly.RSS.Enabled && cfg.Assembly.RSS.Path == "" {
		return &domain.ConfigError{Field: "assembly.rss.path", Reason: "required when rss is enabled"}
	}

	// server
	if cfg.Server.Timeout < time.Second {
		return &domain.ConfigError{Field: "server.timeout", Reason: "must be at least 1 second"}
	}

	return nil
}

// ActiveSources returns sources with Active set
func (c *Config) ActiveSources() []domain.SourceConfig {
	res := make([]domain.SourceConfig, 0, len(c.Sources))
	for _, s := range c.Sources {
		if s.Active {
			res = append(res, s)
		}
	}
	return res
}
