package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docview/internal/api"
	"github.com/dgallion1/docview/internal/config"
	"github.com/dgallion1/docview/internal/nav"
	"github.com/dgallion1/docview/internal/parser"
	"github.com/dgallion1/docview/internal/pipeline"
	"github.com/dgallion1/docview/internal/source"
	"github.com/dgallion1/docview/internal/viewer"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Document source.
	var (
		raw     source.Source
		closeFn = func() {}
	)
	if cfg.Remote() {
		hs := source.NewHTTPSource(cfg.DocsBaseURL, source.HTTPOptions{
			APIKey:            cfg.DocsAPIKey,
			Timeout:           cfg.FetchTimeout,
			MaxBytes:          cfg.MaxDocBytes,
			RequestsPerSecond: cfg.FetchRPS,
		})
		raw, closeFn = hs, hs.Close
	} else {
		raw = source.NewFileSource(cfg.DocsRoot, cfg.MaxDocBytes)
	}
	src := pipeline.NewRetrySource(raw, log)

	// Topic loading.
	cache := pipeline.NewCache(cfg.CacheTTL)
	loader := pipeline.NewLoader(src, cache, pipeline.NewStats(time.Hour), pipeline.LoaderConfig{
		Docs:        cfg.Docs,
		Concurrency: cfg.FetchConcurrency,
		Parser:      parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
	}, log)

	menu, err := loadMenu(ctx, cfg, loader, log)
	if err != nil {
		log.Error("load navigation menu", "error", err)
		os.Exit(1)
	}

	if cfg.WatchDocs && !cfg.Remote() {
		w, err := pipeline.NewWatcher(cfg.DocsRoot, cache, log)
		if err != nil {
			log.Warn("document watch disabled", "error", err)
		} else {
			go w.Run(ctx)
		}
	}

	orch := pipeline.NewOrchestrator(loader, menu, viewer.NewStore(cfg.SessionTTL), pipeline.Options{
		WorkerCount:  cfg.WorkerCount,
		MaxQueueSize: cfg.MaxQueueSize,
	}, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		// Drain requests before closing the queue they submit to.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		cancel()
		closeFn()
	}()

	log.Info("starting docview", "port", cfg.Port, "documents", len(cfg.Docs), "remote", cfg.Remote())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// loadMenu reads the configured menu file, or builds a menu from the
// headings of the configured documents when there is none.
func loadMenu(ctx context.Context, cfg config.Config, loader *pipeline.Loader, log *slog.Logger) (*nav.Menu, error) {
	if cfg.NavFile != "" {
		return nav.Load(cfg.NavFile)
	}
	outlines := loader.Outlines(ctx)
	titles := make([]string, len(outlines))
	headings := make([][]string, len(outlines))
	for i, o := range outlines {
		if o.Error != "" {
			log.Warn("document unavailable for menu", "doc", o.Path, "error", o.Error)
		}
		titles[i] = o.Title
		headings[i] = o.Headings
	}
	return nav.FromOutlines(titles, headings), nil
}
