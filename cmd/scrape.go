package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jfalgout/examdump/internal/api"
	"github.com/jfalgout/examdump/internal/config"
	"github.com/jfalgout/examdump/internal/export"
	"github.com/jfalgout/examdump/internal/logging"
	"github.com/jfalgout/examdump/internal/progress"
	"github.com/jfalgout/examdump/internal/progress/sinks"
	"github.com/jfalgout/examdump/internal/render"
	"github.com/jfalgout/examdump/internal/scrape"
)

type scrapeOptions struct {
	provider    string
	search      string
	concurrency int
	outputDir   string
}

// newScrapeCmd creates the 'scrape' subcommand, which runs the full
// discover-fetch-export pipeline for one provider and search term.
func newScrapeCmd() *cobra.Command {
	opts := &scrapeOptions{}
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Discover, fetch, and export matching questions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScrape(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.provider, "provider", "", "exam provider name (prompted for when omitted)")
	cmd.Flags().StringVar(&opts.search, "search", "", "exam code or title substring (prompted for when omitted)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "override scrape.concurrency from config")
	cmd.Flags().StringVar(&opts.outputDir, "out", "", "override export.output_dir from config")
	return cmd
}

func runScrape(parent context.Context, opts *scrapeOptions) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if opts.concurrency > 0 {
		cfg.Scrape.Concurrency = opts.concurrency
	}
	if opts.outputDir != "" {
		cfg.Export.OutputDir = opts.outputDir
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	provider, search, err := resolveInputs(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.New()
	logger = logger.With(zap.String("run_id", runID.String()))

	tracker, shutdownOps, err := buildObservability(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracker.Close(closeCtx)
		shutdownOps()
	}()

	tracker.Emit(progress.Event{RunID: runID, TS: time.Now().UTC(), Stage: progress.StageRunStart, Note: search})

	set, err := executePipeline(ctx, cfg, logger, runID, tracker, provider, search)
	if err != nil {
		tracker.Emit(progress.Event{RunID: runID, TS: time.Now().UTC(), Stage: progress.StageRunError, Note: err.Error()})
		return err
	}

	if err := writeExports(cfg, logger, search, set); err != nil {
		tracker.Emit(progress.Event{RunID: runID, TS: time.Now().UTC(), Stage: progress.StageRunError, Note: err.Error()})
		return err
	}
	tracker.Emit(progress.Event{RunID: runID, TS: time.Now().UTC(), Stage: progress.StageRunDone})
	return nil
}

// executePipeline runs discovery, keying, parallel fetch, and aggregation.
// Discovery must fully finish before any fetch is dispatched.
func executePipeline(
	ctx context.Context,
	cfg config.Config,
	logger *zap.Logger,
	runID uuid.UUID,
	tracker *progress.Tracker,
	provider, search string,
) (scrape.ResultSet, error) {
	renderer, err := render.New(render.Config{
		UserAgent:         cfg.Render.UserAgent,
		NavigationTimeout: cfg.NavTimeout(),
		Silent:            cfg.Render.Silent,
		Settle:            buildSettle(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("init renderer: %w", err)
	}
	defer renderer.Close()
	factory := sessionFactory{renderer: renderer}

	var fast scrape.ListingFetcher
	if cfg.Scrape.ListingFastPath {
		collyFetcher, err := scrape.NewCollyListingFetcher(cfg.Render.UserAgent, cfg.ListingTimeout())
		if err != nil {
			return nil, fmt.Errorf("init listing fetcher: %w", err)
		}
		fast = collyFetcher
	}

	enumerator := scrape.NewEnumerator(factory, fast, cfg.Scrape.BaseURL, logger)
	enumerator.SetEmitter(tracker, runID)
	links, err := enumerator.Enumerate(ctx, provider, search)
	if err != nil {
		if errors.Is(err, scrape.ErrDiscovery) {
			return nil, fmt.Errorf("no pages found for provider %q: %w", provider, err)
		}
		return nil, err
	}

	items := scrape.KeyLinks(links)
	scrape.SortItems(items)
	logger.Info("discovery complete",
		zap.Int("links", len(links)),
		zap.Int("keyed_items", len(items)),
	)
	if len(items) == 0 {
		return scrape.ResultSet{}, nil
	}

	coordinator := scrape.NewCoordinator(
		factory,
		scrape.HTMLExtractor{},
		cfg.Scrape.Concurrency,
		runID,
		tracker,
		logger,
	)
	coordinator.SetPacer(scrape.NewPacer(cfg.Scrape.RPS, cfg.Scrape.Burst))
	records := coordinator.FetchAll(ctx, items)

	// A top-level abort discards whatever is in memory; nothing is exported.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scrape interrupted: %w", err)
	}
	return scrape.Aggregate(records), nil
}

func writeExports(cfg config.Config, logger *zap.Logger, search string, set scrape.ResultSet) error {
	if set.Len() == 0 {
		logger.Info("no matching questions; nothing exported")
		return nil
	}
	exporter, err := export.New(cfg.Export.OutputDir, logger)
	if err != nil {
		return err
	}
	if cfg.Export.WriteText {
		if _, err := exporter.WriteText(search, set); err != nil {
			return err
		}
	}
	if cfg.Export.WriteCards {
		if _, err := exporter.WriteCards(search, set); err != nil {
			return err
		}
	}
	return nil
}

// buildObservability wires the progress tracker, its sinks, and the
// optional ops HTTP server. The returned shutdown func is always non-nil.
func buildObservability(cfg config.Config, logger *zap.Logger) (*progress.Tracker, func(), error) {
	store := sinks.NewStoreSink()
	sinkList := []progress.Sink{sinks.NewLogSink(logger), store}
	shutdown := func() {}

	if !cfg.Server.Enabled {
		return progress.NewTracker(logger, sinkList...), shutdown, nil
	}

	registry := prometheus.NewRegistry()
	promSink, err := sinks.NewPrometheusSink(registry)
	if err != nil {
		return nil, nil, err
	}
	sinkList = append(sinkList, promSink)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(registry, store, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("ops server stopped", zap.Error(err))
		}
	}()
	shutdown = func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	return progress.NewTracker(logger, sinkList...), shutdown, nil
}

func buildSettle(cfg config.Config) render.Settle {
	if cfg.Render.WaitSelector != "" {
		return render.WaitVisible(cfg.Render.WaitSelector, cfg.SettleDelay())
	}
	return render.FixedDelay(cfg.SettleDelay())
}

// resolveInputs takes provider and search from flags, prompting on stdin
// for anything missing.
func resolveInputs(opts *scrapeOptions) (string, string, error) {
	reader := bufio.NewReader(os.Stdin)
	provider, err := promptIfEmpty(reader, opts.provider, "Enter provider name: ")
	if err != nil {
		return "", "", err
	}
	search, err := promptIfEmpty(reader, opts.search, "Enter exam code: ")
	if err != nil {
		return "", "", err
	}
	return provider, search, nil
}

func promptIfEmpty(reader *bufio.Reader, value, prompt string) (string, error) {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value), nil
	}
	fmt.Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("input must not be empty")
	}
	return line, nil
}

// sessionFactory adapts the concrete renderer to the scrape package's
// SessionFactory interface.
type sessionFactory struct {
	renderer *render.Renderer
}

func (f sessionFactory) NewSession(ctx context.Context) (scrape.Session, error) {
	return f.renderer.NewSession(ctx)
}
