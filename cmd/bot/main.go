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

	"github.com/robfig/cron/v3"

	"pravo-monitor/internal/config"
	"pravo-monitor/internal/domain/entity"
	"pravo-monitor/internal/handler/telegram"
	"pravo-monitor/internal/infra/adapter/persistence/jsonfile"
	"pravo-monitor/internal/infra/notifier"
	"pravo-monitor/internal/infra/scraper"
	workerPkg "pravo-monitor/internal/infra/worker"
	"pravo-monitor/internal/observability/logging"
	"pravo-monitor/internal/observability/metrics"
	"pravo-monitor/internal/usecase/discover"
	"pravo-monitor/internal/usecase/notify"
	"pravo-monitor/internal/usecase/track"
)

// indexBaseURL is the host relative listing links in the open-data index are
// resolved against.
const indexBaseURL = "http://publication.pravo.gov.ru"

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	// Create context canceled on SIGINT/SIGTERM for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	cfg, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.String("data_dir", cfg.DataDir),
		slog.Duration("check_interval", cfg.CheckInterval),
		slog.Int("document_limit", cfg.DocumentLimit),
		slog.Int("max_pages", cfg.MaxPages),
		slog.Int("notify_max_concurrent", cfg.NotifyMaxConcurrent),
		slog.String("refresh_cron_schedule", cfg.RefreshCronSchedule),
		slog.String("timezone", cfg.Timezone),
		slog.Int("health_port", cfg.HealthPort))

	sources, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		logger.Error("failed to load source catalog", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("source catalog loaded", slog.Int("sources", len(sources)))

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("failed to create data directory",
			slog.String("dir", cfg.DataDir), slog.Any("error", err))
		os.Exit(1)
	}

	// JSON file stores
	docs := jsonfile.NewDocumentRepo(filepath.Join(cfg.DataDir, "database.json"))
	boundaries := jsonfile.NewBoundaryRepo(filepath.Join(cfg.DataDir, "boundary.json"))
	notified := jsonfile.NewNotifiedRepo(filepath.Join(cfg.DataDir, "notified.json"))
	subscribers := jsonfile.NewSubscriberRepo(filepath.Join(cfg.DataDir, "users.json"))

	// Telegram client shared by the announcement path and the bot loop
	client := notifier.NewTelegramClient(notifier.TelegramConfig{
		Token:   cfg.BotToken,
		Timeout: 30 * time.Second,
	})

	notifyService := notify.NewService(client, subscribers, cfg.NotifyMaxConcurrent)
	logger.Info("notification service initialized",
		slog.Int("max_concurrent", cfg.NotifyMaxConcurrent))

	discoverService, err := setupDiscoverService(logger, cfg, sources, docs, boundaries, notified, notifyService)
	if err != nil {
		logger.Error("failed to set up discovery service", slog.Any("error", err))
		os.Exit(1)
	}

	// Seed an empty store from the widest open-data period so the first
	// regular cycle does not announce the whole archive.
	seedIfEmpty(ctx, logger, docs, discoverService)

	// Operational HTTP servers
	startMetricsServer(ctx, logger)
	healthAddr := fmt.Sprintf(":%d", cfg.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	// Daily full refresh plus store integrity check
	cronRunner, err := startCron(logger, cfg, workerMetrics, discoverService, docs)
	if err != nil {
		logger.Error("failed to start cron scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	go func() {
		if err := discoverService.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("discovery loop exited", slog.Any("error", err))
		}
	}()

	bot := &telegram.Bot{
		API:         client,
		Docs:        docs,
		Subscribers: subscribers,
		Refresher:   discoverService,
	}
	go func() {
		if err := bot.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("bot loop exited", slog.Any("error", err))
		}
	}()

	healthServer.SetReady(true)
	logger.Info("monitor started",
		slog.Int("sources", len(sources)),
		slog.Duration("check_interval", cfg.CheckInterval))

	<-ctx.Done()
	logger.Info("shutdown initiated")

	cronCtx := cronRunner.Stop()
	<-cronCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := notifyService.Shutdown(shutdownCtx); err != nil {
		logger.Error("notification service shutdown incomplete", slog.Any("error", err))
	}
	logger.Info("monitor stopped")
}

// setupDiscoverService builds the discovery service: one paginating walker
// per tracked source plus the open-data index resolver.
func setupDiscoverService(
	logger *slog.Logger,
	cfg *workerPkg.WorkerConfig,
	sources []entity.Source,
	docs *jsonfile.DocumentRepo,
	boundaries *jsonfile.BoundaryRepo,
	notified *jsonfile.NotifiedRepo,
	announcer *notify.Service,
) (*discover.Service, error) {
	httpClient := createHTTPClient()

	walkers := make(map[string]discover.Walker, len(sources))
	for _, src := range sources {
		extractor, err := scraper.NewExtractor(src.ListingURL)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Key, err)
		}
		walkers[src.Key] = scraper.NewPaginator(httpClient, extractor, src.Key, cfg.MaxPages)
	}
	logger.Info("source walkers initialized", slog.Int("count", len(walkers)))

	indexBase, err := url.Parse(indexBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse index base URL: %w", err)
	}

	return &discover.Service{
		Sources:   sources,
		Walkers:   walkers,
		Index:     scraper.NewIndexClient(httpClient, indexBase),
		Docs:      docs,
		Boundary:  &track.BoundaryTracker{Repo: boundaries},
		Notified:  &track.NotifiedTracker{Repo: notified},
		Announcer: announcer,
		Config: discover.Config{
			Interval:      cfg.CheckInterval,
			ErrorCooldown: cfg.ErrorCooldown,
			Limit:         cfg.DocumentLimit,
		},
	}, nil
}

// seedIfEmpty backfills the document store on first run. Backfill failures
// are not fatal: the regular discovery loop still starts.
func seedIfEmpty(ctx context.Context, logger *slog.Logger, docs *jsonfile.DocumentRepo, svc *discover.Service) {
	count, err := docs.Count(ctx)
	if err != nil {
		logger.Error("failed to read document store", slog.Any("error", err))
		return
	}
	if count > 0 {
		metrics.UpdateDocumentsTotal(count)
		return
	}

	logger.Info("document store empty, seeding from open-data index")
	added, err := svc.Backfill(ctx)
	if err != nil {
		logger.Error("initial backfill failed", slog.Any("error", err))
		return
	}
	logger.Info("initial backfill completed", slog.Int("added", added))
}

// startCron schedules the daily full refresh job in the configured timezone.
func startCron(
	logger *slog.Logger,
	cfg *workerPkg.WorkerConfig,
	workerMetrics *workerPkg.WorkerMetrics,
	svc *discover.Service,
	docs *jsonfile.DocumentRepo,
) (*cron.Cron, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC",
			slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(cfg.RefreshCronSchedule, func() {
		runRefreshJob(logger, svc, docs, workerMetrics)
	}); err != nil {
		return nil, fmt.Errorf("add refresh job: %w", err)
	}
	c.Start()

	logger.Info("refresh job scheduled",
		slog.String("schedule", cfg.RefreshCronSchedule),
		slog.String("timezone", cfg.Timezone))
	return c, nil
}

// runRefreshJob executes the daily discovery cycle and the document store
// integrity check with timeout and error handling.
func runRefreshJob(logger *slog.Logger, svc *discover.Service, docs *jsonfile.DocumentRepo, workerMetrics *workerPkg.WorkerMetrics) {
	startTime := time.Now()
	workerMetrics.RecordJobRun("started")
	logger.Info("scheduled refresh started")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	stats, err := svc.RunCycle(ctx)
	if err != nil {
		logger.Error("scheduled refresh failed", slog.Any("error", err))
		workerMetrics.RecordJobRun("failure")
		workerMetrics.RecordJobDuration(time.Since(startTime).Seconds())
		return
	}

	integrity, err := docs.CheckIntegrity(ctx)
	if err != nil {
		logger.Error("integrity check failed", slog.Any("error", err))
	} else if integrity.DuplicateURLs > 0 || integrity.MissingFields > 0 {
		logger.Warn("document store integrity issues",
			slog.Int("total", integrity.TotalDocuments),
			slog.Int("duplicate_urls", integrity.DuplicateURLs),
			slog.Int("missing_fields", integrity.MissingFields))
	}

	workerMetrics.RecordJobRun("success")
	workerMetrics.RecordJobDuration(time.Since(startTime).Seconds())
	workerMetrics.RecordDocumentsAdded(stats.Added)
	workerMetrics.RecordLastSuccess()

	logger.Info("scheduled refresh completed",
		slog.Int("sources", stats.Sources),
		slog.Int("scraped", stats.Scraped),
		slog.Int("added", stats.Added),
		slog.Int("failed", stats.Failed),
		slog.Duration("duration", stats.Duration))
}

// createHTTPClient creates an HTTP client with timeouts and connection pooling.
// TLS 1.2+ is enforced for security.
func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12, // Enforce TLS 1.2+
			},
		},
	}
}
