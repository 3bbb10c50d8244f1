package domain

import (
	"fmt"
)

// InvalidContentError is returned for content that can't be fingerprinted.
// The item is dropped, the run continues.
type InvalidContentError struct {
	URL    string
	Reason string
}

func (e *InvalidContentError) Error() string {
	return fmt.Sprintf("invalid content %q: %s", e.URL, e.Reason)
}

// ConfigError reports invalid configuration. It fails the run before any external call.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config error: " + e.Reason
	}
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Reason)
}

// SourceFetchError is a failure to fetch a single source
type SourceFetchError struct {
	Source string
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("fetch source %s: %v", e.Source, e.Err)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

// SummarizationError is a summary generation failure after all retries
type SummarizationError struct {
	Fingerprint string
	Attempts    int
	Err         error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarize %s after %d attempts: %v", e.Fingerprint, e.Attempts, e.Err)
}

func (e *SummarizationError) Unwrap() error { return e.Err }

// CacheError is a cache storage failure. Callers treat it as a miss.
type CacheError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("cache %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }
