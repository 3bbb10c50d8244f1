package domain

import (
	"time"

	"gopkg.in/yaml.v3"
)

// SourceType enumerates the kinds of content sources
type SourceType string

// source types
const (
	SourceFeed       SourceType = "feed"           // RSS/Atom feed
	SourceForum      SourceType = "forum-api"      // reddit-style listing API
	SourceAggregator SourceType = "aggregator-api" // hackernews-style story API
)

// Valid reports whether the type is one of the known source types
func (t SourceType) Valid() bool {
	switch t {
	case SourceFeed, SourceForum, SourceAggregator:
		return true
	}
	return false
}

// SourceConfig describes a content source. It is owned by the config store,
// the pipeline only reads it.
type SourceConfig struct {
	Name    string            `yaml:"name" json:"name" jsonschema:"required,description=Unique source name"`
	Type    SourceType        `yaml:"type" json:"type" jsonschema:"required,enum=feed,enum=forum-api,enum=aggregator-api,description=Source type"`
	URL     string            `yaml:"url" json:"url" jsonschema:"description=Feed URL or API base URL"`
	Params  map[string]string `yaml:"params" json:"params,omitempty" jsonschema:"description=Source specific fetch parameters"`
	Active  bool              `yaml:"active" json:"active" jsonschema:"default=true,description=Fetch this source"`
	Weight  float64           `yaml:"weight" json:"weight" jsonschema:"minimum=0,maximum=1,description=Source weight used by the scorer"`
	Timeout time.Duration     `yaml:"timeout" json:"timeout,omitempty" jsonschema:"description=Fetch timeout override"`
}

// Param returns a fetch parameter or the default if it is not set
func (s SourceConfig) Param(key, def string) string {
	if v, ok := s.Params[key]; ok && v != "" {
		return v
	}
	return def
}

// UnmarshalYAML decodes the source with Active defaulting to true
func (s *SourceConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain SourceConfig
	p := plain{Active: true}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = SourceConfig(p)
	return nil
}
