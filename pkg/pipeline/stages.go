package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/newsdigest/pkg/domain"
)

// fetch gets all active sources concurrently. A failed source is recorded in the report,
// the stage fails only if every source failed.
func (r *run) fetch(ctx context.Context) ([]domain.ContentItem, error) {
	var sources []domain.SourceConfig
	for _, src := range r.o.p.Sources {
		if src.Active {
			sources = append(sources, src)
		}
	}
	r.report.Sources = len(sources)

	results := make([][]domain.ContentItem, len(sources))
	errs := make([]error, len(sources))
	var g errgroup.Group
	g.SetLimit(r.o.p.FetchWorkers)
	for i, src := range sources {
		g.Go(func() error {
			results[i], errs[i] = r.fetchSource(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	var items []domain.ContentItem
	var failed []error
	for i, err := range errs {
		if err != nil {
			failed = append(failed, err)
			r.report.SourceErrors = append(r.report.SourceErrors, err.Error())
			lgr.Printf("[WARN] %v", err)
			continue
		}
		lgr.Printf("[DEBUG] fetched %d items from %s", len(results[i]), sources[i].Name)
		items = append(items, results[i]...)
	}
	if len(failed) == len(sources) {
		return nil, fmt.Errorf("all %d sources failed: %w", len(sources), errors.Join(failed...))
	}
	r.report.Fetched = len(items)
	return items, nil
}

// fetchSource fetches a single source with retries. Each attempt runs detached from the run
// cancellation and is bounded by the source timeout.
func (r *run) fetchSource(ctx context.Context, src domain.SourceConfig) ([]domain.ContentItem, error) {
	timeout := src.Timeout
	if timeout <= 0 {
		timeout = r.o.p.FetchTimeout
	}

	var items []domain.ContentItem
	err := r.o.p.FetchRetry.Do(ctx, func() error {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		res, err := r.o.p.Fetcher.Fetch(callCtx, src)
		if err != nil {
			return err
		}
		items = res
		return nil
	})
	if err != nil {
		return nil, &domain.SourceFetchError{Source: src.Name, Err: err}
	}
	for i := range items {
		if items[i].Source == "" {
			items[i].Source = src.Name
		}
	}
	return items, nil
}

// dedup fingerprints items and drops invalid ones, duplicates within the run and items
// delivered within the lookback window. The first occurrence of a fingerprint wins.
func (r *run) dedup(ctx context.Context, items []domain.ContentItem) []domain.ContentItem {
	seen := map[string]bool{}
	bodies := map[string]bool{}
	res := make([]domain.ContentItem, 0, len(items))
	for _, item := range items {
		fp, err := r.o.p.Fingerprinter.Compute(item.URL, item.Body)
		if err != nil {
			r.report.Drop(domain.DropInvalid)
			lgr.Printf("[WARN] dropped item from %s: %v", item.Source, err)
			continue
		}
		if seen[fp.Fingerprint] {
			r.report.Drop(domain.DropDuplicate)
			continue
		}
		seen[fp.Fingerprint] = true
		item.Fingerprint, item.BodyHash = fp.Fingerprint, fp.BodyHash

		// same body under another url, kept but flagged
		if fp.BodyHash != "" {
			if bodies[fp.BodyHash] {
				item.PossibleRepost = true
				r.report.Reposts++
			}
			bodies[fp.BodyHash] = true
		}
		res = append(res, item)
	}
	return r.dropSeen(ctx, res)
}

// dropSeen removes items delivered by earlier runs. History failures skip the check.
func (r *run) dropSeen(ctx context.Context, items []domain.ContentItem) []domain.ContentItem {
	if r.o.p.History == nil || r.o.p.DedupLookback <= 0 || len(items) == 0 {
		return items
	}
	fps := make([]string, len(items))
	for i, item := range items {
		fps[i] = item.Fingerprint
	}
	delivered, err := r.o.p.History.SeenSince(ctx, fps, r.now.Add(-r.o.p.DedupLookback))
	if err != nil {
		lgr.Printf("[WARN] history lookup failed, cross-run dedup skipped: %v", err)
		return items
	}

	res := items[:0]
	for _, item := range items {
		if delivered[item.Fingerprint] {
			r.report.Drop(domain.DropSeen)
			continue
		}
		res = append(res, item)
	}
	return res
}

// score computes item scores, drops items below the minimum and keeps the top MaxItems.
// Items with zero relevance are never kept.
func (r *run) score(items []domain.ContentItem) []domain.ContentItem {
	weights := make(map[string]float64, len(r.o.p.Sources))
	for _, src := range r.o.p.Sources {
		weights[src.Name] = src.Weight
	}

	res := items[:0]
	for _, item := range items {
		b := r.scorer.Score(item, weights[item.Source], r.now)
		item.Score, item.Breakdown = b.Final, b
		if b.Final <= 0 || b.Final < r.o.p.MinScore {
			r.report.Drop(domain.DropLowScore)
			continue
		}
		res = append(res, item)
	}

	sortByScore(res)
	if len(res) > r.o.p.MaxItems {
		for range res[r.o.p.MaxItems:] {
			r.report.Drop(domain.DropOverLimit)
		}
		res = res[:r.o.p.MaxItems]
	}
	return res
}

// summarize fills summaries of all items with bounded concurrency. A failed summary marks
// the item unavailable and never fails the run.
func (r *run) summarize(ctx context.Context, items []domain.ContentItem) []domain.ContentItem {
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(r.o.p.Workers)
	for i := range items {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil // the run is canceled, the checkpoint discards the batch
			}
			status := r.summarizeItem(ctx, &items[i])
			mu.Lock()
			defer mu.Unlock()
			switch status {
			case domain.SummaryCached:
				r.report.CacheHits++
			case domain.SummaryGenerated:
				r.report.CacheMisses++
			default:
				r.report.CacheMisses++
				r.report.SummaryFailures++
			}
			return nil
		})
	}
	_ = g.Wait()
	return items
}

func (r *run) summarizeItem(ctx context.Context, item *domain.ContentItem) domain.SummaryStatus {
	category, params := r.o.p.Router.Route(*item)
	item.Category = category
	item.ProcessedAt = r.now

	attempts := 0
	key := r.o.p.CacheKey(item.Fingerprint, params)
	summary, hit, err := r.o.p.Cache.GetOrGenerate(ctx, key, r.o.p.CacheTTL, func(ctx context.Context) (string, error) {
		src := r.withExtractedBody(ctx, *item)
		var res string
		err := r.o.p.LLMRetry.Do(ctx, func() error {
			attempts++
			callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.o.p.LLMTimeout)
			defer cancel()
			s, err := r.o.p.Summarizer.Summarize(callCtx, src, params)
			if err != nil {
				return err
			}
			res = s
			return nil
		})
		return res, err
	})
	if err != nil {
		item.SummaryStatus = domain.SummaryUnavailable
		lgr.Printf("[WARN] %v", &domain.SummarizationError{Fingerprint: item.Fingerprint, Attempts: attempts, Err: err})
		return item.SummaryStatus
	}

	item.Summary = summary
	item.SummaryStatus = domain.SummaryGenerated
	if hit {
		item.SummaryStatus = domain.SummaryCached
	}
	return item.SummaryStatus
}

// withExtractedBody returns the item with the article text in place of a short body.
// Extraction failures keep the original body.
func (r *run) withExtractedBody(ctx context.Context, item domain.ContentItem) domain.ContentItem {
	minLen := r.o.p.ExtractMinLength
	if r.o.p.Extractor == nil || minLen <= 0 || utf8.RuneCountInString(item.Body) >= minLen {
		return item
	}
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.o.p.ExtractTimeout)
	defer cancel()
	text, err := r.o.p.Extractor.Extract(callCtx, item.URL)
	if err != nil {
		lgr.Printf("[DEBUG] extraction of %s failed, using feed body: %v", item.URL, err)
		return item
	}
	if utf8.RuneCountInString(text) > utf8.RuneCountInString(item.Body) {
		item.Body = text
	}
	return item
}
