package main

import (
	"context"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"farmsathi/internal/audio"
	"farmsathi/internal/config"
	"farmsathi/internal/connector"
	"farmsathi/internal/contextstore"
	"farmsathi/internal/history"
	"farmsathi/internal/httpapi"
	"farmsathi/internal/intent"
	"farmsathi/internal/logger"
	"farmsathi/internal/orchestrator"
	"farmsathi/internal/provider"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		panic(err)
	}
	secrets, err := config.LoadSecrets()
	if err != nil {
		panic(err)
	}
	if err := logger.InitLogger(cfg.Log); err != nil {
		panic(err)
	}
	if !cfg.SupportsLanguage(cfg.Assistant.DefaultLanguage) {
		logger.Fatal().
			Str("language", cfg.Assistant.DefaultLanguage).
			Msg("default_language must be one of assistant.languages")
	}

	ctx := context.Background()

	contexts, hist := buildStores(ctx, cfg, secrets)

	httpClient := &http.Client{}
	weather := connector.NewWeatherConnector(httpClient, cfg.Connectors.Weather, secrets.WeatherAPIKey)
	market := connector.NewMarketConnector(httpClient, cfg.Connectors.Market)

	classifier := intent.NewClassifier(cfg.Intents, cfg.Assistant.CarryLastIntent)

	var synth *audio.Synthesizer
	if cfg.Audio.Enabled {
		store, err := audio.NewFileStore(cfg.Audio.Dir)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize audio store")
		}
		tts := audio.NewHTTPTTSClient(httpClient, cfg.Audio.BaseURL)
		synth = audio.NewSynthesizer(tts, store, cfg.Audio, cfg.Assistant.Languages)
	}

	orch, err := orchestrator.New(orchestrator.Deps{
		Classifier:      classifier,
		Contexts:        contexts,
		Weather:         weather,
		Market:          market,
		Providers:       buildChain(ctx, cfg, secrets),
		Synth:           synth,
		History:         hist,
		ProviderTimeout: time.Duration(cfg.Providers.TimeoutSeconds) * time.Second,
		DefaultLanguage: cfg.Assistant.DefaultLanguage,
		Languages:       cfg.Assistant.Languages,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize orchestrator")
	}

	handler := httpapi.NewServer(orch, hist, contexts, cfg.Audio.Dir)

	addr := ":" + secrets.Port
	logger.Info().Str("addr", addr).Msg("farmsathi assistant listening")
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal().Err(err).Msg("http server stopped")
	}
}

// buildStores selects the storage backend: Redis when configured, in-memory
// otherwise.
func buildStores(ctx context.Context, cfg *config.Config, secrets *config.Secrets) (contextstore.Store, history.Store) {
	if secrets.StorageBackend != "redis" {
		logger.Info().Msg("using in-memory storage")
		return contextstore.NewMemoryStore(cfg.Assistant.ContextWindow), history.NewMemoryStore()
	}

	if secrets.RedisURL == "" {
		logger.Fatal().Msg("REDIS_URL is required for the redis storage backend")
	}
	opts, err := redis.ParseURL(secrets.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse REDIS_URL")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to Redis")
	}

	logger.Info().Msg("using Redis storage")
	ttl := time.Duration(cfg.Redis.TTLSeconds) * time.Second
	return contextstore.NewRedisStore(client, cfg.Assistant.ContextWindow, ttl), history.NewRedisStore(client)
}

// buildChain assembles the provider fallback chain from config. Generative
// providers that cannot be constructed (missing key, bad config) are skipped
// with a warning; the deterministic rules provider is always appended so the
// chain can never be empty or fallible.
func buildChain(ctx context.Context, cfg *config.Config, secrets *config.Secrets) []orchestrator.Provider {
	var chain []orchestrator.Provider

	for _, name := range cfg.Providers.Order {
		var (
			p   provider.Provider
			err error
		)
		switch name {
		case "openai":
			p, err = provider.NewOpenAIProvider(ctx, cfg.Providers.OpenAI, secrets.OpenAIAPIKey)
		case "deepseek":
			p, err = provider.NewDeepSeekProvider(ctx, cfg.Providers.DeepSeek, secrets.DeepSeekAPIKey)
		case "ollama":
			p, err = provider.NewOllamaProvider(ctx, cfg.Providers.Ollama)
		case "rules":
			continue // appended unconditionally below
		default:
			logger.Warn().Str("provider", name).Msg("unknown provider in chain config, skipping")
			continue
		}
		if err != nil {
			logger.Warn().Err(err).Str("provider", name).Msg("provider unavailable, skipping")
			continue
		}
		chain = append(chain, p)
		logger.Info().Str("provider", name).Msg("provider registered")
	}

	chain = append(chain, provider.NewRulesProvider())
	return chain
}
