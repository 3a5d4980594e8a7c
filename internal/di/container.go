package di

import (
	"context"
	"fmt"

	"signup-agent/internal/application/port/input"
	"signup-agent/internal/application/port/output"
	"signup-agent/internal/infrastructure/browser/rod"
	"signup-agent/internal/infrastructure/config"
	"signup-agent/internal/infrastructure/diagnostics"
	"signup-agent/internal/infrastructure/logger"
	"signup-agent/internal/infrastructure/storage/dataset"
	"signup-agent/internal/infrastructure/storage/sqlite"
	"signup-agent/internal/usecase/bulkrun"
)

// Container wires the module together: one browser factory, one store, one
// orchestrator. Close tears everything down in reverse order.
type Container struct {
	Logger  output.LoggerPort
	Store   output.Store
	Factory output.ContextFactory
	Tracker *bulkrun.Tracker
	Runner  input.BulkRunner
}

func NewContainer(ctx context.Context, cfg config.Config, subs ...output.StatusSubscriber) (*Container, error) {
	log, err := logger.New(cfg.Debug, cfg.LogDir)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	bundled, err := dataset.Load()
	if err != nil {
		store.Close()
		log.Close()
		return nil, err
	}
	if err := store.SeedBundledRetailers(ctx, bundled); err != nil {
		store.Close()
		log.Close()
		return nil, fmt.Errorf("seed bundled retailers: %w", err)
	}

	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = cfg.Headless
	browserCfg.Stealth = cfg.Stealth
	if cfg.Threshold > 0 {
		browserCfg.Threshold = cfg.Threshold
	}
	factory, err := rod.NewFactory(ctx, browserCfg, log)
	if err != nil {
		store.Close()
		log.Close()
		return nil, fmt.Errorf("create browser: %w", err)
	}

	tracker := bulkrun.NewTracker(subs...)
	diag := diagnostics.NewScreenshotCapturer(cfg.DiagnosticsDir, log)

	runner := bulkrun.New(factory, store, tracker, log, diag, bulkrun.Config{
		MaxConcurrent:     cfg.MaxConcurrent,
		MaxRetries:        cfg.MaxRetries,
		JobTimeout:        cfg.JobTimeout,
		HandshakeAttempts: cfg.HandshakeAttempts,
		HandshakeInterval: cfg.HandshakeInterval,
		SubmitAfterFill:   cfg.SubmitAfterFill,
	})

	return &Container{
		Logger:  log,
		Store:   store,
		Factory: factory,
		Tracker: tracker,
		Runner:  runner,
	}, nil
}

func (c *Container) Close() {
	if c.Factory != nil {
		c.Factory.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Close()
	}
}
