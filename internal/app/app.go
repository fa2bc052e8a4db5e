package app

import (
	"context"
	"fmt"
	"log/slog"

	"ReputationScanner/internal/config"
	"ReputationScanner/internal/infrastructure/parser"
	"ReputationScanner/internal/infrastructure/scheduler"
	"ReputationScanner/internal/infrastructure/storage"
	"ReputationScanner/internal/infrastructure/telegram"
	"ReputationScanner/internal/logging"
	"ReputationScanner/internal/metrics"
	"ReputationScanner/internal/ports"
	"ReputationScanner/internal/scanner"
	"ReputationScanner/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg          *config.Holder
	store        storage.Store
	engines      *scanner.Registry
	classifiers  *classifierFactory
	orchestrator *usecase.Orchestrator
	catalog      *usecase.Catalog
	overrides    *usecase.OverrideService
	scheduler    *usecase.Scheduler
	logger       *slog.Logger
}

// New builds a runnable application. Close releases the store.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	holder := config.NewHolder(cfg)

	weights, err := metrics.LoadWeights(cfg.Scoring.WeightsPath)
	if err != nil {
		return nil, fmt.Errorf("load weights: %w", err)
	}
	aggregator, err := metrics.NewAggregator(weights)
	if err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}

	engines, err := BuildEngines(ctx, cfg.Engines, nil)
	if err != nil {
		return nil, fmt.Errorf("build engines: %w", err)
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	var notifier ports.Notifier
	if n := telegram.NewNotifier(cfg.Notifications.Telegram, nil); n != nil {
		notifier = n
	}

	graph := usecase.NewGraphEditor(store)
	classifiers := &classifierFactory{holder: holder, logger: baseLogger.With("component", "classifier")}

	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Graph:          graph,
		Provider:       parser.NewRetriever(engines, cfg.Engines.Retrieval, baseLogger.With("component", "retriever")),
		Classifiers:    classifiers,
		Aggregator:     aggregator,
		Registry:       usecase.NewJobRegistry(),
		Broker:         usecase.NewBroker(0),
		Notifier:       notifier,
		Logger:         baseLogger.With("component", "orchestrator"),
		Retention:      cfg.Jobs.Retention,
		PersistTimeout: cfg.Jobs.PersistTimeout,
	})
	catalog := usecase.NewCatalog(graph, engines)

	return &Application{
		cfg:          holder,
		store:        store,
		engines:      engines,
		classifiers:  classifiers,
		orchestrator: orchestrator,
		catalog:      catalog,
		overrides:    usecase.NewOverrideService(graph, aggregator),
		scheduler: usecase.NewScheduler(
			scheduler.NewIntervalScheduler(cfg.Scheduler.Interval),
			catalog,
			orchestrator,
			baseLogger.With("component", "scheduler"),
		),
		logger: baseLogger,
	}, nil
}

// Config exposes the configuration holder; Set applies to subsequent jobs.
func (a *Application) Config() *config.Holder { return a.cfg }

// Orchestrator runs and tracks jobs.
func (a *Application) Orchestrator() *usecase.Orchestrator { return a.orchestrator }

// Catalog manages projects and entities.
func (a *Application) Catalog() *usecase.Catalog { return a.catalog }

// Overrides applies manual sentiment corrections.
func (a *Application) Overrides() *usecase.OverrideService { return a.overrides }

// Scheduler drives periodic refreshes.
func (a *Application) Scheduler() *usecase.Scheduler { return a.scheduler }

// Engines lists registered engines.
func (a *Application) Engines() *scanner.Registry { return a.engines }

// Logger returns the base logger.
func (a *Application) Logger() *slog.Logger { return a.logger }

// Close releases the store.
func (a *Application) Close() error {
	return a.store.Close()
}
