package provider

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"

	"farmsathi/internal/config"
)

// NewOpenAIProvider creates the primary generative provider backed by an
// OpenAI-compatible chat completion endpoint.
func NewOpenAIProvider(ctx context.Context, cfg config.ChatModelConfig, apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
	}

	maxTokens := cfg.MaxTokens
	temperature := float32(cfg.Temperature)

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      apiKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating openai chat model: %v", err)
	}

	return &chatProvider{id: "openai", model: chatModel}, nil
}
