package cmd

import (
	"context"
	"fmt"
	stdlog "log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/ai/gemini"
	"github.com/spigell/interview-coach/internal/evaluation"
	"github.com/spigell/interview-coach/internal/httpapi"
	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/questionbank"
	"github.com/spigell/interview-coach/internal/scoring"
	"github.com/spigell/interview-coach/internal/screening"
	"github.com/spigell/interview-coach/internal/secrets"
	"github.com/spigell/interview-coach/internal/session"
	"github.com/spigell/interview-coach/internal/storage/redis"
	"github.com/spigell/interview-coach/internal/storage/sqlite"
)

var (
	_ session.Journal  = (*sqlite.Journal)(nil)
	_ session.Journal  = (*redis.Journal)(nil)
	_ httpapi.Sessions = (*session.Service)(nil)
)

// buildService wires the configured collaborators into a session service.
// The returned journal may be nil and must be closed by the caller otherwise.
func buildService(ctx context.Context, config *Config, log *zap.Logger) (*session.Service, session.Journal, error) {
	bank, err := questionbank.LoadFile(config.QuestionBank.File)
	if err != nil {
		return nil, nil, fmt.Errorf("load question bank: %w", err)
	}

	weights, err := scoring.DecodeWeights(config.Scoring.Weights)
	if err != nil {
		return nil, nil, err
	}

	screener, err := newScreener(config.Screening, log)
	if err != nil {
		return nil, nil, err
	}

	if err := config.Evaluation.Validate(); err != nil {
		return nil, nil, fmt.Errorf("validate evaluation config: %w", err)
	}
	scorer, err := newNarrativeScorer(ctx, config.AI, config.Evaluation, log)
	if err != nil {
		return nil, nil, err
	}
	if scorer == nil {
		log.Info("narrative scoring disabled, answers are scored by rules only")
	}

	journal, err := openJournal(ctx, config.Storage)
	if err != nil {
		return nil, nil, err
	}

	svc, err := session.NewService(config.Interview, session.Deps{
		Bank:      bank,
		Evaluator: evaluation.NewComposite(scorer, config.Evaluation, log),
		Screener:  screener,
		Journal:   journal,
		Weights:   weights,
		Logger:    log,
	})
	if err != nil {
		if journal != nil {
			journal.Close()
		}
		return nil, nil, err
	}
	return svc, journal, nil
}

func newScreener(cfg ScreeningConfig, log *zap.Logger) (*screening.Screener, error) {
	checks := screening.DefaultChecks()
	for _, name := range cfg.Disabled {
		screening.DisableByName(checks, strings.TrimSpace(name), "disabled in config")
	}
	for _, status := range screening.Describe(checks) {
		log.Debug("screening check", zap.String("name", status.Name), zap.Bool("enabled", status.Enabled), zap.String("reason", status.Reason))
	}
	screener, err := screening.NewScreener(cfg.Config, checks, log)
	if err != nil {
		return nil, fmt.Errorf("configure screening: %w", err)
	}
	return screener, nil
}

// newNarrativeScorer returns nil when narrative scoring is disabled.
func newNarrativeScorer(ctx context.Context, cfg AIConfig, evalCfg evaluation.Config, log *zap.Logger) (ai.Scorer, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.ProviderName {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Options{
		APIKey:            apiKey,
		Model:             cfg.Gemini.Model,
		Temperature:       cfg.Gemini.Temperature,
		RequestsPerMinute: cfg.Gemini.RequestsPerMinute,
	})
	if err != nil {
		return nil, err
	}

	log.Info("narrative scoring enabled", logger.AIFields(gemini.ProviderName, generator.Model())...)
	return gemini.NewScorer(generator, log, cfg.Gemini.MaxLogLength, evalCfg.MaxRationaleWords), nil
}

// openJournal returns nil for the none driver.
func openJournal(ctx context.Context, cfg StorageConfig) (session.Journal, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "none":
		return nil, nil
	case "sqlite":
		j, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite journal %q: %w", cfg.SQLite.Path, err)
		}
		return j, nil
	case "redis":
		j, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("open redis journal: %w", err)
		}
		return j, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// mustLoad builds the logger and config the way every command needs them.
func mustLoad() (*zap.Logger, *Config) {
	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		stdlog.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}
	return log, config
}
