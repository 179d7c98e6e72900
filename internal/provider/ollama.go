package provider

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ollama"

	"farmsathi/internal/config"
)

// NewOllamaProvider creates a generative provider backed by a local Ollama
// server. Useful as the secondary provider in offline development.
func NewOllamaProvider(ctx context.Context, cfg config.ChatModelConfig) (Provider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	chatModel, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: baseURL,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating ollama chat model: %v", err)
	}

	return &chatProvider{id: "ollama", model: chatModel}, nil
}
