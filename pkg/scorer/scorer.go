// Package scorer assigns relevance scores in [0,100] to content items.
package scorer

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/umputun/newsdigest/pkg/domain"
)

const weightsTolerance = 0.001

// Weights are the contribution of each component to the final score, they must sum to 1.0
type Weights struct {
	Recency    float64 `yaml:"recency" json:"recency" jsonschema:"default=0.5,minimum=0,maximum=1"`
	Source     float64 `yaml:"source" json:"source" jsonschema:"default=0.3,minimum=0,maximum=1"`
	Keyword    float64 `yaml:"keyword" json:"keyword" jsonschema:"default=0.2,minimum=0,maximum=1"`
	Engagement float64 `yaml:"engagement" json:"engagement" jsonschema:"default=0,minimum=0,maximum=1"`
}

// Validate checks that weights are non-negative and sum to 1.0
func (w Weights) Validate() error {
	components := []struct {
		name string
		v    float64
	}{{"recency", w.Recency}, {"source", w.Source}, {"keyword", w.Keyword}, {"engagement", w.Engagement}}
	for _, c := range components {
		if c.v < 0 || math.IsNaN(c.v) {
			return &domain.ConfigError{Field: "scoring.weights." + c.name, Reason: fmt.Sprintf("must be non-negative, got %v", c.v)}
		}
	}
	sum := w.Recency + w.Source + w.Keyword + w.Engagement
	if math.Abs(sum-1.0) > weightsTolerance {
		return &domain.ConfigError{Field: "scoring.weights", Reason: fmt.Sprintf("must sum to 1.0, got %.3f", sum)}
	}
	return nil
}

// Config defines scorer behavior
type Config struct {
	Weights       Weights
	MaxAge        time.Duration // recency reaches zero at this age
	Keywords      []string
	KeywordCap    int // keyword hits counted up to this number
	EngagementCap int // engagement at or above this value scores 100
}

// Scorer computes relevance scores. It is safe for concurrent use.
type Scorer struct {
	weights       Weights
	maxAge        time.Duration
	keywords      []string
	keywordCap    int
	engagementCap int
}

// New validates the config and makes a Scorer
func New(cfg Config) (*Scorer, error) {
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxAge <= time.Hour {
		return nil, &domain.ConfigError{Field: "scoring.max_age", Reason: "must be longer than 1h"}
	}
	if cfg.KeywordCap <= 0 {
		cfg.KeywordCap = 5
	}
	if cfg.EngagementCap <= 0 {
		cfg.EngagementCap = 1000
	}

	keywords := make([]string, 0, len(cfg.Keywords))
	seen := map[string]bool{}
	for _, k := range cfg.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keywords = append(keywords, k)
	}

	return &Scorer{
		weights:       cfg.Weights,
		maxAge:        cfg.MaxAge,
		keywords:      keywords,
		keywordCap:    cfg.KeywordCap,
		engagementCap: cfg.EngagementCap,
	}, nil
}

// Score computes the score of an item. The source weight is expected in [0,1] and clamped otherwise.
// Missing signals contribute zero.
func (s *Scorer) Score(item domain.ContentItem, sourceWeight float64, now time.Time) domain.ScoreBreakdown {
	b := domain.ScoreBreakdown{
		Recency:    s.recency(item.Published, now),
		Source:     clamp(sourceWeight*100),
		Keyword:    s.keyword(item.Title, item.Body),
		Engagement: s.engagement(item.Engagement),
	}
	b.Final = clamp(b.Recency*s.weights.Recency +
		b.Source*s.weights.Source +
		b.Keyword*s.weights.Keyword +
		b.Engagement*s.weights.Engagement)
	return b
}

// recency decays linearly from 100 at one hour old to 0 at max age
func (s *Scorer) recency(published, now time.Time) float64 {
	if published.IsZero() {
		return 0
	}
	age := now.Sub(published)
	if age <= time.Hour {
		return 100
	}
	if age >= s.maxAge {
		return 0
	}
	window := float64(s.maxAge - time.Hour)
	return clamp(100 * (1 - float64(age-time.Hour)/window))
}

// keyword counts distinct configured keywords present in title or body
func (s *Scorer) keyword(title, body string) float64 {
	if len(s.keywords) == 0 {
		return 0
	}
	text := strings.ToLower(title + " " + body)
	hits := 0
	for _, k := range s.keywords {
		if strings.Contains(text, k) {
			hits++
		}
		if hits >= s.keywordCap {
			break
		}
	}
	return clamp(100 * float64(hits) / float64(s.keywordCap))
}

// engagement is log-scaled against the cap
func (s *Scorer) engagement(v int) float64 {
	if v <= 0 {
		return 0
	}
	return clamp(100 * math.Log1p(float64(v)) / math.Log1p(float64(s.engagementCap)))
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
