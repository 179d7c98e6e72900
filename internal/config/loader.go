package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config represents the structure of config.yaml.
type Config struct {
	Assistant  AssistantConfig `yaml:"assistant"`
	Intents    IntentConfig    `yaml:"intents"`
	Providers  ProviderConfig  `yaml:"providers"`
	Connectors ConnectorConfig `yaml:"connectors"`
	Audio      AudioConfig     `yaml:"audio"`
	Redis      RedisConfig     `yaml:"redis"`
	Log        LogConfig       `yaml:"log"`
}

// AssistantConfig holds top-level assistant behavior settings.
type AssistantConfig struct {
	Languages       []string `yaml:"languages"`
	DefaultLanguage string   `yaml:"default_language"`
	ContextWindow   int      `yaml:"context_window"`
	CarryLastIntent bool     `yaml:"carry_last_intent"`
}

// IntentConfig holds the keyword tables driving intent classification.
// The keyword-absence carry rule is policy, so the tables are configuration
// rather than code.
type IntentConfig struct {
	WeatherKeywords []string `yaml:"weather_keywords"`
	MarketKeywords  []string `yaml:"market_keywords"`
	PestKeywords    []string `yaml:"pest_keywords"`
	CropAliases     map[string]string `yaml:"crop_aliases"`
}

// ProviderConfig holds the fallback chain order and per-provider settings.
type ProviderConfig struct {
	Order          []string       `yaml:"order"`
	TimeoutSeconds int            `yaml:"timeout_seconds"`
	OpenAI         ChatModelConfig `yaml:"openai"`
	DeepSeek       ChatModelConfig `yaml:"deepseek"`
	Ollama         ChatModelConfig `yaml:"ollama"`
}

// ChatModelConfig holds settings for a single generative chat model.
type ChatModelConfig struct {
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// ConnectorConfig holds settings for the external data connectors.
type ConnectorConfig struct {
	Weather ConnectorEndpoint `yaml:"weather"`
	Market  ConnectorEndpoint `yaml:"market"`
}

// ConnectorEndpoint describes one remote data source.
type ConnectorEndpoint struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	TTLSeconds     int    `yaml:"ttl_seconds"`
}

// AudioConfig holds text-to-speech pipeline settings.
type AudioConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Dir            string `yaml:"dir"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RedisConfig holds Redis persistence settings. The connection URL comes from
// the environment, not the file.
type RedisConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // console or json
	Output     string `yaml:"output"` // stdout, stderr or file
	FilePath   string `yaml:"file_path"`
	TimeFormat string `yaml:"time_format"`
}

// Secrets are read from the environment (API keys, connection strings).
type Secrets struct {
	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY"`
	DeepSeekAPIKey string `envconfig:"DEEPSEEK_API_KEY"`
	WeatherAPIKey  string `envconfig:"WEATHER_API_KEY"`
	RedisURL       string `envconfig:"REDIS_URL"`
	StorageBackend string `envconfig:"FARM_STORAGE_BACKEND" default:"memory"`
	Port           string `envconfig:"FARM_PORT" default:"8080"`
}

// Load reads configuration from a YAML file and applies defaults.
func Load(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %v", err)
	}

	config.applyDefaults()
	return &config, nil
}

// LoadSecrets reads secrets from environment variables.
func LoadSecrets() (*Secrets, error) {
	var secrets Secrets
	if err := envconfig.Process("", &secrets); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %v", err)
	}
	return &secrets, nil
}

func (c *Config) applyDefaults() {
	if len(c.Assistant.Languages) == 0 {
		c.Assistant.Languages = []string{"en", "hi", "te", "ta", "bn", "mr"}
	}
	if c.Assistant.DefaultLanguage == "" {
		c.Assistant.DefaultLanguage = "en"
	}
	if c.Assistant.ContextWindow <= 0 {
		c.Assistant.ContextWindow = 10
	}
	if len(c.Providers.Order) == 0 {
		c.Providers.Order = []string{"openai", "deepseek", "rules"}
	}
	if c.Providers.TimeoutSeconds <= 0 {
		c.Providers.TimeoutSeconds = 12
	}
	if c.Connectors.Weather.TimeoutSeconds <= 0 {
		c.Connectors.Weather.TimeoutSeconds = 8
	}
	if c.Connectors.Weather.TTLSeconds <= 0 {
		c.Connectors.Weather.TTLSeconds = 600
	}
	if c.Connectors.Market.TimeoutSeconds <= 0 {
		c.Connectors.Market.TimeoutSeconds = 8
	}
	if c.Connectors.Market.TTLSeconds <= 0 {
		c.Connectors.Market.TTLSeconds = 1800
	}
	if c.Audio.Dir == "" {
		c.Audio.Dir = "data/audio/tts"
	}
	if c.Audio.TimeoutSeconds <= 0 {
		c.Audio.TimeoutSeconds = 10
	}
	if c.Redis.TTLSeconds <= 0 {
		c.Redis.TTLSeconds = 3600
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
}

// SupportsLanguage reports whether lang is one of the configured language codes.
func (c *Config) SupportsLanguage(lang string) bool {
	for _, l := range c.Assistant.Languages {
		if l == lang {
			return true
		}
	}
	return false
}
