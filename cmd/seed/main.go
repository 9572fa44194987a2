package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"pravo-monitor/internal/config"
	"pravo-monitor/internal/infra/adapter/persistence/jsonfile"
	"pravo-monitor/internal/infra/scraper"
	"pravo-monitor/internal/observability/logging"
	pkgconfig "pravo-monitor/internal/pkg/config"
	"pravo-monitor/internal/usecase/discover"
)

// indexBaseURL is the host relative listing links in the open-data index are
// resolved against.
const indexBaseURL = "http://publication.pravo.gov.ru"

// seed populates the document store from the widest open-data period (360
// days) without announcing anything. Run it once before starting the bot so
// the first regular cycle does not treat the whole archive as new.
func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataDir := pkgconfig.LoadEnvString("DATA_DIR", "./data")
	sourcesFile := pkgconfig.LoadEnvString("SOURCES_FILE", "")
	maxPages := pkgconfig.LoadEnvInt("MAX_PAGES", 20, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 100)
	})
	limit := pkgconfig.LoadEnvInt("DOCUMENT_LIMIT", 500, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 2000)
	})

	sources, err := config.LoadSources(sourcesFile)
	if err != nil {
		logger.Error("failed to load source catalog", slog.Any("error", err))
		os.Exit(1)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logger.Error("failed to create data directory",
			slog.String("dir", dataDir), slog.Any("error", err))
		os.Exit(1)
	}
	docs := jsonfile.NewDocumentRepo(filepath.Join(dataDir, "database.json"))

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}

	walkers := make(map[string]discover.Walker, len(sources))
	for _, src := range sources {
		extractor, err := scraper.NewExtractor(src.ListingURL)
		if err != nil {
			logger.Error("failed to build extractor",
				slog.String("source", src.Key), slog.Any("error", err))
			os.Exit(1)
		}
		walkers[src.Key] = scraper.NewPaginator(httpClient, extractor, src.Key, maxPages.Value.(int))
	}

	indexBase, err := url.Parse(indexBaseURL)
	if err != nil {
		logger.Error("invalid index base URL", slog.Any("error", err))
		os.Exit(1)
	}

	svc := &discover.Service{
		Sources: sources,
		Walkers: walkers,
		Index:   scraper.NewIndexClient(httpClient, indexBase),
		Docs:    docs,
		Config: discover.Config{
			Limit: limit.Value.(int),
		},
	}

	before, err := docs.Count(ctx)
	if err != nil {
		logger.Error("failed to read document store", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seeding document store",
		slog.Int("existing", before),
		slog.Int("sources", len(sources)))

	start := time.Now()
	added, err := svc.Backfill(ctx)
	if err != nil {
		logger.Error("backfill failed", slog.Any("error", err))
		os.Exit(1)
	}

	total, err := docs.Count(ctx)
	if err != nil {
		logger.Error("failed to read document store", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seeding completed",
		slog.Int("added", added),
		slog.Int("total", total),
		slog.Duration("duration", time.Since(start)))
	fmt.Printf("seeded %d documents (%d total)\n", added, total)
}
