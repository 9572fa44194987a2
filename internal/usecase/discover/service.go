// Package discover orchestrates the periodic discovery cycle: resolve listing
// URLs, scrape every tracked source, filter out documents already known, add
// the remainder to the store and announce them to subscribers.
package discover

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pravo-monitor/internal/domain/entity"
	"pravo-monitor/internal/infra/scraper"
	"pravo-monitor/internal/observability/logging"
	"pravo-monitor/internal/observability/metrics"
	"pravo-monitor/internal/observability/slo"
	"pravo-monitor/internal/observability/tracing"
	"pravo-monitor/internal/repository"
	"pravo-monitor/internal/usecase/track"
)

// Walker scrapes one source's pagination chain starting at a listing URL.
// Implemented by scraper.Paginator.
type Walker interface {
	Walk(ctx context.Context, startURL, organization string, limit int) ([]entity.Document, error)
}

// ListingResolver maps tracked sources to their current listing URLs via the
// open-data index. Implemented by scraper.IndexClient.
type ListingResolver interface {
	ListingURLs(ctx context.Context, days int, sources []entity.Source) (map[string]string, error)
}

// Announcer pushes a batch of newly added documents to subscribers.
// Implemented by notify.Service.
type Announcer interface {
	NotifyNewDocuments(ctx context.Context, added []entity.Document, total int) error
}

// Config tunes the discovery loop.
type Config struct {
	// Interval between successful cycles.
	Interval time.Duration

	// ErrorCooldown is the shorter pause after a failed cycle.
	ErrorCooldown time.Duration

	// Limit caps the number of documents collected per source per cycle.
	Limit int
}

// CycleStats summarizes one discovery cycle. Documents holds the actually
// added subset so the manual trigger surface can show what the cycle found.
type CycleStats struct {
	Sources   int
	Scraped   int
	Fresh     int
	Added     int
	Failed    int
	Duration  time.Duration
	Documents []entity.Document
}

// Service runs the discovery cycle across all tracked sources.
type Service struct {
	Sources   []entity.Source
	Walkers   map[string]Walker
	Index     ListingResolver
	Docs      repository.DocumentRepository
	Boundary  *track.BoundaryTracker
	Notified  *track.NotifiedTracker
	Announcer Announcer
	Config    Config

	cycles        atomic.Int64
	cycleFailures atomic.Int64
}

// sourceBatch is one source's contribution to a cycle: the documents that
// passed both the boundary and the notified-set filters.
type sourceBatch struct {
	source entity.Source
	fresh  []entity.Document
}

// RunCycle performs one discovery pass: every source is scraped in parallel,
// fresh documents are merged into a single store add, and the added subset is
// announced. A failing source is logged and skipped; the cycle fails only
// when every source failed. A panic anywhere in the pass is recovered and
// returned as a failed cycle, never propagated to the caller's loop.
func (s *Service) RunCycle(ctx context.Context) (stats *CycleStats, err error) {
	ctx, span := tracing.GetTracer().Start(ctx, "discovery-cycle")
	defer span.End()

	ctx = logging.ContextWithBatchID(ctx, uuid.New().String())
	logger := logging.WithBatchID(ctx, slog.Default())

	start := time.Now()
	stats = &CycleStats{Sources: len(s.Sources)}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic during discovery cycle",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			stats.Duration = time.Since(start)
			s.recordOutcome(stats, true)
			err = fmt.Errorf("RunCycle: panic: %v", r)
		}
	}()

	listings := s.resolveListings(ctx)

	var mu sync.Mutex
	var batches []sourceBatch

	eg, egCtx := errgroup.WithContext(ctx)
	for _, source := range s.Sources {
		src := source
		eg.Go(func() error {
			batch, scraped, err := s.collectSourceSafe(egCtx, src, listings[src.Key])
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				metrics.RecordCycleError(src.Key, "fetch")
				logger.Error("source discovery failed",
					slog.String("source", src.Key),
					slog.Any("error", err))
				return nil // other sources still run
			}
			stats.Scraped += scraped
			stats.Fresh += len(batch.fresh)
			batches = append(batches, batch)
			return nil
		})
	}
	_ = eg.Wait()

	if stats.Failed == stats.Sources && stats.Sources > 0 {
		stats.Duration = time.Since(start)
		s.recordOutcome(stats, true)
		return stats, fmt.Errorf("RunCycle: all %d sources failed", stats.Sources)
	}

	if err := s.publish(ctx, batches, stats); err != nil {
		stats.Duration = time.Since(start)
		s.recordOutcome(stats, true)
		return stats, err
	}

	stats.Duration = time.Since(start)
	s.recordOutcome(stats, false)
	metrics.RecordCycle(stats.Duration)
	logger.Info("discovery cycle completed",
		slog.Int("sources", stats.Sources),
		slog.Int("scraped", stats.Scraped),
		slog.Int("fresh", stats.Fresh),
		slog.Int("added", stats.Added),
		slog.Int("failed", stats.Failed),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

// recordOutcome feeds the SLO gauges with the lifetime cycle success ratio
// and the latest cycle duration.
func (s *Service) recordOutcome(stats *CycleStats, failed bool) {
	total := s.cycles.Add(1)
	failures := s.cycleFailures.Load()
	if failed {
		failures = s.cycleFailures.Add(1)
	}
	slo.UpdateCycleSuccess(float64(total-failures) / float64(total))
	slo.UpdateCycleDuration(stats.Duration.Seconds())
}

// resolveListings asks the open-data index for each source's current listing
// URL. On any index failure or omission the source's static listing URL is
// used, so a broken index never stops discovery.
func (s *Service) resolveListings(ctx context.Context) map[string]string {
	listings := make(map[string]string, len(s.Sources))
	for _, src := range s.Sources {
		listings[src.Key] = src.ListingURL
	}

	resolved, err := s.Index.ListingURLs(ctx, scraper.IndexPeriod30, s.Sources)
	if err != nil {
		slog.Warn("open-data index unavailable, using static listing URLs",
			slog.Any("error", err))
		return listings
	}
	for key, u := range resolved {
		listings[key] = u
	}
	return listings
}

// collectSourceSafe shields the cycle from a panicking scrape (goquery can
// choke on pathological markup); the panic turns into an ordinary per-source
// failure.
func (s *Service) collectSourceSafe(ctx context.Context, src entity.Source, listingURL string) (batch sourceBatch, scraped int, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic while collecting source",
				slog.String("source", src.Key),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("collectSource: panic: %v", r)
		}
	}()
	return s.collectSource(ctx, src, listingURL)
}

// collectSource scrapes one source and narrows the result to documents not
// yet processed: published after the boundary and absent from the notified
// set.
func (s *Service) collectSource(ctx context.Context, src entity.Source, listingURL string) (sourceBatch, int, error) {
	walker, ok := s.Walkers[src.Key]
	if !ok {
		return sourceBatch{}, 0, fmt.Errorf("collectSource: no walker for source %q", src.Key)
	}

	scrapeStart := time.Now()
	docs, err := walker.Walk(ctx, listingURL, src.Organization, s.Config.Limit)
	if err != nil {
		return sourceBatch{}, 0, fmt.Errorf("collectSource: walk: %w", err)
	}
	metrics.RecordSourceScrape(src.Key, time.Since(scrapeStart), len(docs))

	fresh, err := s.Boundary.FilterNew(ctx, src.Key, docs)
	if err != nil {
		return sourceBatch{}, 0, fmt.Errorf("collectSource: boundary filter: %w", err)
	}
	fresh, err = s.Notified.FilterUnnotified(ctx, src.Key, fresh)
	if err != nil {
		return sourceBatch{}, 0, fmt.Errorf("collectSource: notified filter: %w", err)
	}

	slog.Debug("source collected",
		slog.String("source", src.Key),
		slog.Int("scraped", len(docs)),
		slog.Int("fresh", len(fresh)))
	return sourceBatch{source: src, fresh: fresh}, len(docs), nil
}

// publish merges the per-source batches into one store add, announces the
// added subset and advances per-source state. State is advanced only for
// sources whose batch made it this far, so a failed source retries its whole
// interval next cycle.
func (s *Service) publish(ctx context.Context, batches []sourceBatch, stats *CycleStats) error {
	logger := logging.WithBatchID(ctx, slog.Default())

	var merged []entity.Document
	for _, b := range batches {
		merged = append(merged, b.fresh...)
	}

	var added []entity.Document
	if len(merged) > 0 {
		var err error
		added, err = s.Docs.Add(ctx, merged)
		if err != nil {
			return fmt.Errorf("publish: add documents: %w", err)
		}
	}
	stats.Added = len(added)
	stats.Documents = added

	if len(added) > 0 {
		addedBySource := make(map[string]int)
		for _, doc := range added {
			addedBySource[doc.Organization]++
		}
		for _, src := range s.Sources {
			metrics.RecordDocumentsAdded(src.Key, addedBySource[src.Organization])
		}

		total, err := s.Docs.Count(ctx)
		if err != nil {
			logger.Warn("document count unavailable for announcement", slog.Any("error", err))
			total = 0
		}
		metrics.UpdateDocumentsTotal(total)

		if err := s.Announcer.NotifyNewDocuments(ctx, added, total); err != nil {
			logger.Error("announcing new documents failed", slog.Any("error", err))
		}
	}

	for _, b := range batches {
		if len(b.fresh) == 0 {
			continue
		}
		if err := s.Notified.MarkNotified(ctx, b.source.Key, b.fresh); err != nil {
			metrics.RecordCycleError(b.source.Key, "notified")
			logger.Error("recording notified documents failed",
				slog.String("source", b.source.Key),
				slog.Any("error", err))
		}
		if err := s.Boundary.Advance(ctx, b.source.Key, b.fresh); err != nil {
			metrics.RecordCycleError(b.source.Key, "boundary")
			logger.Error("advancing boundary failed",
				slog.String("source", b.source.Key),
				slog.Any("error", err))
		}
	}
	return nil
}

// Run executes discovery cycles until the context is canceled. A failed
// cycle is retried after the shorter error cooldown instead of the full
// interval.
func (s *Service) Run(ctx context.Context) error {
	slog.Info("discovery loop started",
		slog.Duration("interval", s.Config.Interval),
		slog.Duration("error_cooldown", s.Config.ErrorCooldown),
		slog.Int("sources", len(s.Sources)))

	for {
		wait := s.Config.Interval
		if _, err := s.RunCycle(ctx); err != nil {
			slog.Error("discovery cycle failed", slog.Any("error", err))
			wait = s.Config.ErrorCooldown
		}

		select {
		case <-ctx.Done():
			slog.Info("discovery loop stopped")
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Backfill seeds the store from the widest open-data period without touching
// boundaries or announcing anything. It is meant for first-run initialization
// when the store is empty.
func (s *Service) Backfill(ctx context.Context) (int, error) {
	listings := make(map[string]string, len(s.Sources))
	for _, src := range s.Sources {
		listings[src.Key] = src.ListingURL
	}
	resolved, err := s.Index.ListingURLs(ctx, scraper.IndexPeriod360, s.Sources)
	if err != nil {
		slog.Warn("open-data index unavailable for backfill, using static listing URLs",
			slog.Any("error", err))
	} else {
		for key, u := range resolved {
			listings[key] = u
		}
	}

	total := 0
	for _, src := range s.Sources {
		walker, ok := s.Walkers[src.Key]
		if !ok {
			continue
		}
		docs, err := walker.Walk(ctx, listings[src.Key], src.Organization, s.Config.Limit)
		if err != nil {
			slog.Error("backfill scrape failed",
				slog.String("source", src.Key),
				slog.Any("error", err))
			continue
		}
		added, err := s.Docs.Add(ctx, docs)
		if err != nil {
			return total, fmt.Errorf("Backfill: add documents: %w", err)
		}
		total += len(added)
		slog.Info("source backfilled",
			slog.String("source", src.Key),
			slog.Int("scraped", len(docs)),
			slog.Int("added", len(added)))
	}

	if count, err := s.Docs.Count(ctx); err == nil {
		metrics.UpdateDocumentsTotal(count)
	}
	return total, nil
}
