package domain

import "time"

// Stage is a pipeline run state. Runs move forward only, Failed is reachable from any stage.
type Stage string

// run stages in execution order
const (
	StageIdle          Stage = "idle"
	StageFetching      Stage = "fetching"
	StageDeduplicating Stage = "deduplicating"
	StageScoring       Stage = "scoring"
	StageSummarizing   Stage = "summarizing"
	StageAssembling    Stage = "assembling"
	StageDone          Stage = "done"
	StageFailed        Stage = "failed"
)

// Terminal reports whether no further transitions are possible
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// DropReason explains why an item did not make it into the assembled batch
type DropReason string

// drop reasons
const (
	DropInvalid   DropReason = "invalid"    // fingerprinting failed
	DropDuplicate DropReason = "duplicate"  // same fingerprint earlier in this run
	DropSeen      DropReason = "seen"       // fingerprint processed within the lookback window
	DropLowScore  DropReason = "low-score"  // below the minimum score
	DropOverLimit DropReason = "over-limit" // outside the top max-items
)

// RunReport is the summary of a single pipeline run returned to the caller
type RunReport struct {
	ID         string             `json:"id"`
	Status     Stage              `json:"status"`
	Stages     []Stage            `json:"stages"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Sources    int                `json:"sources"`
	Fetched    int                `json:"fetched"`
	Kept       int                `json:"kept"`
	Dropped    map[DropReason]int `json:"dropped"`
	Reposts    int                `json:"reposts"`

	SourceErrors    []string `json:"source_errors,omitempty"`
	SummaryFailures int      `json:"summary_failures"`
	CacheHits       int      `json:"cache_hits"`
	CacheMisses     int      `json:"cache_misses"`

	Cause string        `json:"cause,omitempty"`
	Items []ContentItem `json:"items,omitempty"`
}

// NewRunReport makes an empty report for a run starting now
func NewRunReport(id string, startedAt time.Time) *RunReport {
	return &RunReport{
		ID:        id,
		Status:    StageIdle,
		Stages:    []Stage{StageIdle},
		StartedAt: startedAt,
		Dropped:   map[DropReason]int{},
	}
}

// Drop records a dropped item
func (r *RunReport) Drop(reason DropReason) {
	r.Dropped[reason]++
}

// TotalDropped returns the number of dropped items across all reasons
func (r *RunReport) TotalDropped() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}
