package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/laborconnect/internal/ai"
	"github.com/spigell/laborconnect/internal/ai/gemini"
	"github.com/spigell/laborconnect/internal/ai/openai"
	"github.com/spigell/laborconnect/internal/laborer"
	"github.com/spigell/laborconnect/internal/logger"
	"github.com/spigell/laborconnect/internal/secrets"
	"github.com/spigell/laborconnect/internal/selection"
)

// bootstrap is shared by every command that works with the directory.
type bootstrap struct {
	logger *zap.Logger
	config *Config
	store  *laborer.StaticStore
}

func setup() *bootstrap {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	store, err := loadStore(config)
	if err != nil {
		logger.Fatal("loading laborers",
			zap.Error(err),
			zap.String("hint", "check the laborers-file key or the LABORERS_FILE environment variable"),
		)
	}

	return &bootstrap{logger: logger, config: config, store: store}
}

// loadStore reads the configured directory file, or the built-in one.
// Missing distances are computed from the map center.
func loadStore(config *Config) (*laborer.StaticStore, error) {
	path := strings.TrimSpace(config.LaborersFile)
	if path == "" {
		return laborer.Default(), nil
	}

	dir, err := laborer.LoadFile(path)
	if err != nil {
		return nil, err
	}

	laborers := laborer.New(dir.Laborers...).WithDistanceFrom(config.Map.Center)
	return laborer.NewStatic(laborers, dir.Skills)
}

func newController(b *bootstrap) *selection.Controller {
	advisor, err := newAdvisor(b.config.AI, b.logger)
	if err != nil {
		b.logger.Fatal("building smart match advisor", zap.Error(err))
	}
	return selection.New(b.store, advisor, b.config.Map, logger.Named(b.logger, "selection"))
}

// newAdvisor wires the configured provider. A missing api key is not an error
// here; the first smart match reports it.
func newAdvisor(cfg *AIConfig, l *zap.Logger) (ai.Advisor, error) {
	if cfg == nil {
		cfg = &AIConfig{}
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider == "" {
		provider = gemini.Provider
	}

	var pc ProviderConfig
	switch provider {
	case gemini.Provider:
		if cfg.Gemini != nil {
			pc = *cfg.Gemini
		}
	case openai.Provider:
		if cfg.OpenAI != nil {
			pc = *cfg.OpenAI
		}
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := resolveAPIKey(provider, pc)
	if err != nil {
		return nil, err
	}

	policy := ai.CallPolicy{MaxRetries: pc.MaxRetries, Timeout: pc.Timeout}

	var generator ai.Generator
	switch provider {
	case openai.Provider:
		generator = openai.NewGenerator(openai.Config{
			APIKey:  apiKey,
			BaseURL: pc.BaseURL,
			Model:   pc.Model,
			Policy:  policy,
			Logger:  logger.WithAdvisorFields(l, provider, pc.Model),
		})
	default:
		generator = gemini.NewGenerator(gemini.Config{
			APIKey: apiKey,
			Model:  pc.Model,
			Policy: policy,
			Logger: logger.WithAdvisorFields(l, provider, pc.Model),
		})
	}

	matcherLogger := logger.WithAdvisorFields(l, provider, generator.Model()).With(
		zap.Int("ai_retry_attempts", pc.MaxRetries),
		zap.Duration("ai_timeout", pc.Timeout),
	)
	if apiKey == "" {
		matcherLogger.Warn("no api key configured, smart match calls will fail",
			zap.String("hint", "set API_KEY, API_KEY_FILE or ai."+provider+".api-key(-file)"),
		)
	}

	return ai.NewMatcher(generator, provider, cfg.MaxLogLength, matcherLogger), nil
}

// resolveAPIKey prefers the provider section over the API_KEY environment.
func resolveAPIKey(provider string, pc ProviderConfig) (string, error) {
	src := secrets.Source{
		Name:  provider + " api key",
		Value: pc.APIKey,
		File:  pc.APIKeyFile,
	}
	if strings.TrimSpace(src.Value) == "" && strings.TrimSpace(src.File) == "" {
		src.Value = viper.GetString("api-key")
		src.File = viper.GetString("api-key-file")
	}
	return secrets.Optional(src)
}

func redacted(config *Config) *Config {
	if config == nil || config.AI == nil {
		return config
	}
	out := *config
	aiCfg := *config.AI
	for _, pc := range []**ProviderConfig{&aiCfg.Gemini, &aiCfg.OpenAI} {
		if *pc != nil && (*pc).APIKey != "" {
			masked := **pc
			masked.APIKey = "***"
			*pc = &masked
		}
	}
	out.AI = &aiCfg
	return &out
}

func mustLaborers(ctx context.Context, b *bootstrap) *laborer.Laborers {
	laborers, err := b.store.Laborers(ctx)
	if err != nil {
		b.logger.Fatal("reading laborers", zap.Error(err))
	}
	return laborers
}
