package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"ReputationScanner/internal/classify"
	"ReputationScanner/internal/config"
	"ReputationScanner/internal/infrastructure/llm"
	"ReputationScanner/internal/infrastructure/ml"
	"ReputationScanner/internal/infrastructure/parser"
	"ReputationScanner/internal/ports"
	"ReputationScanner/internal/scanner"
	"ReputationScanner/internal/sentiment"
)

// NewBackend builds the model-backed classifier named by cfg.Backend. The
// local backend yields nil, meaning lexical classification only.
func NewBackend(ctx context.Context, cfg config.ClassifierConfig) (classify.Backend, error) {
	switch cfg.Backend {
	case "", config.BackendLocal:
		return nil, nil
	case config.BackendOpenAI:
		client, err := llm.NewChatGPTClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.BackendGemini:
		client, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.BackendInference:
		client, err := ml.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown classifier backend %q", cfg.Backend)
	}
}

// classifierFactory reads the configuration current at call time, so a config
// change applies to the next job without cached clients.
type classifierFactory struct {
	holder *config.Holder
	logger *slog.Logger
}

var _ ports.ClassifierFactory = (*classifierFactory)(nil)

func (f *classifierFactory) NewClassifier(ctx context.Context) ports.BatchClassifier {
	return f.build(ctx)
}

func (f *classifierFactory) build(ctx context.Context) *classify.Service {
	cfg := f.holder.Get()

	lexical, err := buildLexical(cfg)
	if err != nil {
		f.logger.Warn("lexicon unusable, using bundled one", "path", cfg.Classifier.LexiconPath, "error", err)
		lexical = sentiment.NewDefault()
	}

	backend, err := NewBackend(ctx, cfg.Classifier)
	switch {
	case errors.Is(err, classify.ErrNotConfigured):
		f.logger.Info("classifier backend not configured, using lexical classifier", "backend", cfg.Classifier.Backend)
		backend = nil
	case err != nil:
		f.logger.Warn("classifier backend unavailable, using lexical classifier", "backend", cfg.Classifier.Backend, "error", err)
		backend = nil
	}

	return classify.NewService(backend, lexical, classify.Options{
		Timeout: cfg.Classifier.Timeout,
		Delay:   cfg.Classifier.Delay,
	}, f.logger)
}

// NewClassifier builds a standalone classifier from cfg. The caller closes it.
func NewClassifier(ctx context.Context, cfg config.Config, logger *slog.Logger) *classify.Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	f := &classifierFactory{holder: config.NewHolder(cfg), logger: logger}
	return f.build(ctx)
}

func buildLexical(cfg config.Config) (*sentiment.Classifier, error) {
	lexicon, err := sentiment.LoadLexicon(cfg.Classifier.LexiconPath)
	if err != nil {
		return nil, err
	}
	if cfg.Scoring.Threshold != nil {
		threshold := *cfg.Scoring.Threshold
		lexicon.Threshold = &threshold
	}
	return sentiment.New(lexicon)
}

// BuildEngines registers every engine the configuration describes. Engines
// without credentials are still registered and retrieve nothing.
func BuildEngines(ctx context.Context, cfg config.EnginesConfig, client *http.Client) (*scanner.Registry, error) {
	registry := scanner.NewRegistry()
	registry.Register(parser.NewYandexEngine(cfg.Yandex, client))

	google, err := parser.NewGoogleEngine(ctx, cfg.Google)
	if err != nil {
		return nil, err
	}
	registry.Register(google)

	for _, html := range cfg.HTML {
		if html.Name == "" {
			return nil, fmt.Errorf("html engine without a name")
		}
		registry.Register(parser.NewHTMLEngine(html, client))
	}
	return registry, nil
}
