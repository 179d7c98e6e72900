package provider

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/deepseek"

	"farmsathi/internal/config"
)

// NewDeepSeekProvider creates the secondary generative provider backed by the
// DeepSeek chat API.
func NewDeepSeekProvider(ctx context.Context, cfg config.ChatModelConfig, apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("DEEPSEEK_API_KEY is required for the deepseek provider")
	}

	chatModel, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
		APIKey:      apiKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: float32(cfg.Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating deepseek chat model: %v", err)
	}

	return &chatProvider{id: "deepseek", model: chatModel}, nil
}
