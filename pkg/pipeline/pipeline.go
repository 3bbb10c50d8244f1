// Package pipeline runs the content pipeline: fetch sources, deduplicate, score, summarize and
// assemble the digest. A run moves through the stages in order and ends in Done or Failed,
// only one run is active at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"github.com/umputun/newsdigest/pkg/cache"
	"github.com/umputun/newsdigest/pkg/domain"
	"github.com/umputun/newsdigest/pkg/fingerprint"
	"github.com/umputun/newsdigest/pkg/retry"
	"github.com/umputun/newsdigest/pkg/scorer"
)

//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher
//go:generate moq -out mocks/router.go -pkg mocks -skip-ensure -fmt goimports . Router
//go:generate moq -out mocks/summarizer.go -pkg mocks -skip-ensure -fmt goimports . Summarizer
//go:generate moq -out mocks/extractor.go -pkg mocks -skip-ensure -fmt goimports . Extractor
//go:generate moq -out mocks/history.go -pkg mocks -skip-ensure -fmt goimports . History
//go:generate moq -out mocks/assembler.go -pkg mocks -skip-ensure -fmt goimports . Assembler
//go:generate moq -out mocks/run_store.go -pkg mocks -skip-ensure -fmt goimports . RunStore

// ErrRunInProgress is returned by Run under the reject policy when another run is active
var ErrRunInProgress = errors.New("run in progress")

// busy policies
const (
	BusyReject = "reject"
	BusyQueue  = "queue"
)

const (
	defaultFetchTimeout   = 30 * time.Second
	defaultLLMTimeout     = 60 * time.Second
	defaultExtractTimeout = 30 * time.Second
	defaultWorkers        = 4
	defaultFetchWorkers   = 5
	defaultMaxItems       = 25
)

// Fetcher gets items of a single source
type Fetcher interface {
	Fetch(ctx context.Context, src domain.SourceConfig) ([]domain.ContentItem, error)
	Supports(t domain.SourceType) bool
}

// Router picks the category and generation parameters of an item
type Router interface {
	Validate() error
	Route(item domain.ContentItem) (domain.ContentCategory, domain.GenerationParams)
}

// Summarizer generates a summary of an item
type Summarizer interface {
	Summarize(ctx context.Context, item domain.ContentItem, params domain.GenerationParams) (string, error)
}

// Extractor gets the article text from a page
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// SummaryCache returns a cached summary or generates and caches a new one
type SummaryCache interface {
	GetOrGenerate(ctx context.Context, key string, ttl time.Duration,
		gen func(ctx context.Context) (string, error)) (value string, hit bool, err error)
}

// History keeps fingerprints of delivered items
type History interface {
	SeenSince(ctx context.Context, fingerprints []string, since time.Time) (map[string]bool, error)
	Remember(ctx context.Context, items []domain.ContentItem, at time.Time) error
}

// Assembler hands off the final batch
type Assembler interface {
	Assemble(ctx context.Context, items []domain.ContentItem) error
}

// RunStore keeps run reports
type RunStore interface {
	SaveRun(ctx context.Context, report *domain.RunReport) error
}

// Params of the orchestrator. Sources, Fetcher, Router, Summarizer, Cache and Assembler are required,
// CacheKey defaults to cache.Key.
type Params struct {
	Sources       []domain.SourceConfig
	Fetcher       Fetcher
	Scoring       scorer.Config
	Fingerprinter *fingerprint.Fingerprinter // default tracking params if nil
	Router        Router
	Summarizer    Summarizer
	Cache         SummaryCache
	CacheKey      func(fingerprint string, params domain.GenerationParams) string
	Extractor     Extractor // optional
	History       History   // optional, disables cross-run dedup if nil
	Assembler     Assembler
	RunStore      RunStore          // optional
	LastReport    *domain.RunReport // report of a previous process, served until the first run finishes

	MinScore         float64
	MaxItems         int
	Workers          int // concurrent summarizations
	FetchWorkers     int // concurrent source fetches
	BusyPolicy       string
	DedupLookback    time.Duration
	CacheTTL         time.Duration
	FetchRetry       retry.Policy
	LLMRetry         retry.Policy
	FetchTimeout     time.Duration // default per source timeout
	LLMTimeout       time.Duration
	ExtractTimeout   time.Duration
	ExtractMinLength int           // bodies shorter than this are extracted, 0 disables
	RunTimeout       time.Duration // 0 means no limit

	Now func() time.Time
}

// Orchestrator runs the pipeline. It is safe for concurrent use, runs are serialized.
type Orchestrator struct {
	p    Params
	slot chan struct{}

	mu    sync.RWMutex
	state domain.Stage
	last  *domain.RunReport
}

// New makes an orchestrator, missing optional params get defaults
func New(p Params) *Orchestrator {
	if p.Fingerprinter == nil {
		p.Fingerprinter = fingerprint.New()
	}
	if p.MaxItems <= 0 {
		p.MaxItems = defaultMaxItems
	}
	if p.Workers <= 0 {
		p.Workers = defaultWorkers
	}
	if p.FetchWorkers <= 0 {
		p.FetchWorkers = defaultFetchWorkers
	}
	if p.BusyPolicy == "" {
		p.BusyPolicy = BusyReject
	}
	if p.FetchRetry.Attempts == 0 {
		p.FetchRetry.Attempts = 1
	}
	if p.LLMRetry.Attempts == 0 {
		p.LLMRetry.Attempts = 1
	}
	if p.FetchTimeout <= 0 {
		p.FetchTimeout = defaultFetchTimeout
	}
	if p.LLMTimeout <= 0 {
		p.LLMTimeout = defaultLLMTimeout
	}
	if p.ExtractTimeout <= 0 {
		p.ExtractTimeout = defaultExtractTimeout
	}
	if p.CacheKey == nil {
		p.CacheKey = cache.Key
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Orchestrator{p: p, slot: make(chan struct{}, 1), state: domain.StageIdle, last: p.LastReport}
}

// State returns the stage of the current or the last run
func (o *Orchestrator) State() domain.Stage {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// LastReport returns the report of the last finished run, nil if none
func (o *Orchestrator) LastReport() *domain.RunReport {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.last
}

// Run performs a single pipeline run. The report is returned for both successful and failed runs,
// the error is the failure cause. With the reject policy a concurrent call gets ErrRunInProgress,
// with the queue policy it waits for the active run to finish.
func (o *Orchestrator) Run(ctx context.Context) (*domain.RunReport, error) {
	if err := o.acquire(ctx); err != nil {
		return nil, err
	}
	return o.runAcquired(ctx)
}

// Start takes the run slot and performs the run in background. It never waits for the slot:
// ErrRunInProgress is returned right away when another run holds it, whatever the busy policy.
// The outcome is available from State and LastReport.
func (o *Orchestrator) Start(ctx context.Context) error {
	select {
	case o.slot <- struct{}{}:
	default:
		return ErrRunInProgress
	}
	go func() { _, _ = o.runAcquired(ctx) }()
	return nil
}

// runAcquired performs a run with the slot already taken and releases it when done
func (o *Orchestrator) runAcquired(ctx context.Context) (*domain.RunReport, error) {
	defer func() { <-o.slot }()

	if o.p.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.p.RunTimeout)
		defer cancel()
	}

	r := &run{o: o, report: domain.NewRunReport(uuid.NewString(), o.p.Now())}
	o.setState(domain.StageIdle)
	lgr.Printf("[INFO] pipeline run %s started", r.report.ID)

	err := r.execute(ctx)
	r.report.FinishedAt = o.p.Now()
	if err != nil {
		r.report.Status = domain.StageFailed
		r.report.Stages = append(r.report.Stages, domain.StageFailed)
		r.report.Cause = err.Error()
		r.report.Items = nil
		lgr.Printf("[WARN] pipeline run %s failed: %v", r.report.ID, err)
	} else {
		lgr.Printf("[INFO] pipeline run %s done, fetched %d, kept %d, dropped %d, in %v", r.report.ID,
			r.report.Fetched, r.report.Kept, r.report.TotalDropped(), r.report.FinishedAt.Sub(r.report.StartedAt))
	}
	o.finish(r.report)

	if o.p.RunStore != nil {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if serr := o.p.RunStore.SaveRun(saveCtx, r.report); serr != nil {
			lgr.Printf("[WARN] failed to save run report %s: %v", r.report.ID, serr)
		}
	}
	return r.report, err
}

func (o *Orchestrator) acquire(ctx context.Context) error {
	if o.p.BusyPolicy == BusyQueue {
		select {
		case o.slot <- struct{}{}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	select {
	case o.slot <- struct{}{}:
		return nil
	default:
		return ErrRunInProgress
	}
}

func (o *Orchestrator) setState(s domain.Stage) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Orchestrator) finish(report *domain.RunReport) {
	o.mu.Lock()
	o.state = report.Status
	o.last = report
	o.mu.Unlock()
}

// run holds the state of a single pipeline run
type run struct {
	o      *Orchestrator
	report *domain.RunReport
	scorer *scorer.Scorer
	now    time.Time
}

func (r *run) execute(ctx context.Context) error {
	if err := r.validate(); err != nil {
		return err
	}
	r.now = r.o.p.Now()

	r.advance(domain.StageFetching)
	items, err := r.fetch(ctx)
	if err != nil {
		return err
	}
	if err = r.checkpoint(ctx); err != nil {
		return err
	}

	r.advance(domain.StageDeduplicating)
	items = r.dedup(ctx, items)
	if err = r.checkpoint(ctx); err != nil {
		return err
	}

	r.advance(domain.StageScoring)
	items = r.score(items)
	if err = r.checkpoint(ctx); err != nil {
		return err
	}

	r.advance(domain.StageSummarizing)
	items = r.summarize(ctx, items)
	if err = r.checkpoint(ctx); err != nil {
		return err
	}

	r.advance(domain.StageAssembling)
	if err = r.o.p.Assembler.Assemble(ctx, items); err != nil {
		return fmt.Errorf("assemble digest: %w", err)
	}

	r.report.Kept = len(items)
	r.report.Items = items
	r.advance(domain.StageDone)

	if r.o.p.History != nil && len(items) > 0 {
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if herr := r.o.p.History.Remember(hctx, items, r.now); herr != nil {
			lgr.Printf("[WARN] failed to remember delivered items: %v", herr)
		}
	}
	return nil
}

// validate checks the preconditions of a run, nothing external is called before it passes
func (r *run) validate() error {
	p := r.o.p
	if p.Fetcher == nil || p.Router == nil || p.Summarizer == nil || p.Cache == nil || p.Assembler == nil {
		return &domain.ConfigError{Reason: "fetcher, router, summarizer, cache and assembler are required"}
	}
	sc, err := scorer.New(p.Scoring)
	if err != nil {
		return err
	}
	r.scorer = sc
	if err = p.Router.Validate(); err != nil {
		return err
	}
	if p.MinScore < 0 || p.MinScore > 100 {
		return &domain.ConfigError{Field: "pipeline.min_score", Reason: "must be between 0 and 100"}
	}
	if p.BusyPolicy != BusyReject && p.BusyPolicy != BusyQueue {
		return &domain.ConfigError{Field: "pipeline.busy_policy", Reason: fmt.Sprintf("unknown policy %q", p.BusyPolicy)}
	}
	if err = p.FetchRetry.Validate(); err != nil {
		return err
	}
	if err = p.LLMRetry.Validate(); err != nil {
		return err
	}

	active := 0
	names := map[string]bool{}
	for i, src := range p.Sources {
		field := fmt.Sprintf("sources[%d]", i)
		if src.Name == "" {
			return &domain.ConfigError{Field: field + ".name", Reason: "is required"}
		}
		if names[src.Name] {
			return &domain.ConfigError{Field: field + ".name", Reason: fmt.Sprintf("duplicate source %q", src.Name)}
		}
		names[src.Name] = true
		if !src.Type.Valid() || !p.Fetcher.Supports(src.Type) {
			return &domain.ConfigError{Field: field + ".type", Reason: fmt.Sprintf("unsupported source type %q", src.Type)}
		}
		if src.Weight < 0 || src.Weight > 1 {
			return &domain.ConfigError{Field: field + ".weight", Reason: "must be between 0 and 1"}
		}
		if src.Active {
			active++
		}
	}
	if active == 0 {
		return &domain.ConfigError{Field: "sources", Reason: "no active sources"}
	}
	return nil
}

func (r *run) advance(s domain.Stage) {
	r.report.Status = s
	r.report.Stages = append(r.report.Stages, s)
	r.o.setState(s)
	lgr.Printf("[DEBUG] run %s: %s", r.report.ID, s)
}

// checkpoint fails the run if it was canceled, results of the finished stage are discarded
func (r *run) checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run canceled during %s: %w", r.report.Status, err)
	}
	return nil
}

// sortByScore orders items by score descending keeping the fetch order for equal scores
func sortByScore(items []domain.ContentItem) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
}
