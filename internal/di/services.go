package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/goaleval/internal/clientdata"
	"github.com/aristath/goaleval/internal/config"
	"github.com/aristath/goaleval/internal/modules/evaluation"
	"github.com/aristath/goaleval/internal/modules/history"
	"github.com/aristath/goaleval/internal/modules/tickerrisk"
)

// InitializeServices creates repositories, stores, providers and the evaluation service
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.CacheDB == nil {
		return fmt.Errorf("container with cache database required")
	}

	container.ClientDataRepo = clientdata.NewRepository(container.CacheDB.Conn())

	store, err := newTickerStore(container, cfg, log)
	if err != nil {
		return err
	}
	container.TickerStore = store

	if cfg.TickerRisk.OpenAIAPIKey != "" {
		classifier, err := tickerrisk.NewOpenAIClassifier(tickerrisk.OpenAIConfig{
			APIKey:     cfg.TickerRisk.OpenAIAPIKey,
			Model:      cfg.TickerRisk.OpenAIModel,
			BaseURL:    cfg.TickerRisk.OpenAIBaseURL,
			RatePerSec: cfg.TickerRisk.RatePerSec,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to create ticker classifier: %w", err)
		}
		container.Classifier = classifier
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set - ticker risk relies on patterns and cache only")
	}
	container.TickerValidator = tickerrisk.NewValidator(store, container.Classifier, log)

	container.HistoryProvider = history.NewCachedProvider(
		history.NewYahooProvider(log),
		container.ClientDataRepo,
		cfg.HistoryCacheTTL,
		log,
	)

	container.EvaluationService = evaluation.NewService(
		container.HistoryProvider,
		container.TickerValidator,
		evaluation.Config{
			HistoryYears: cfg.HistoryYears,
			Tolerance:    cfg.AllocationTolerance,
			NumPaths:     cfg.Simulation.NumPaths,
			BlockSize:    cfg.Simulation.BlockSize,
			Workers:      cfg.Simulation.Workers,
		},
		log,
	)

	return nil
}

func newTickerStore(container *Container, cfg *config.Config, log zerolog.Logger) (tickerrisk.Store, error) {
	ttl := cfg.TickerRisk.CacheTTL

	switch cfg.TickerRisk.CacheBackend {
	case config.CacheBackendSQLite:
		return tickerrisk.NewSQLiteStore(container.ClientDataRepo, ttl, log), nil
	case config.CacheBackendMemory:
		return tickerrisk.NewMemoryStore(ttl), nil
	case config.CacheBackendFile, "":
		store, err := tickerrisk.NewFileStore(cfg.CacheDir(), ttl, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create ticker cache: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown ticker cache backend %q", cfg.TickerRisk.CacheBackend)
	}
}
