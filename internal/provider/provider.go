package provider

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"farmsathi/pkg"
)

// Provider is one link of the response fallback chain. Generate returns the
// answer text or an error; the orchestrator bounds every call with a timeout
// and moves to the next provider on failure.
type Provider interface {
	ID() string
	Generate(ctx context.Context, pc pkg.PromptContext) (string, error)
}

// systemPrompts are the per-language instructions for generative models,
// carried over from the assistant's reference prompts. Languages without a
// dedicated prompt use English.
var systemPrompts = map[string]string{
	"en": `You are an expert agricultural assistant helping Indian farmers.
Provide practical, actionable advice in simple language. Include specific steps when possible.
Keep responses concise (under 200 words). Be empathetic and encouraging.`,
	"hi": `आप एक कृषि विशेषज्ञ सहायक हैं जो भारतीय किसानों की मदद कर रहे हैं।
सरल भाषा में व्यावहारिक सलाह दें। संभव हो तो विशिष्ट कदम शामिल करें।
संक्षिप्त उत्तर दें (200 शब्दों से कम)। सहानुभूतिपूर्ण और प्रोत्साहक बनें।`,
}

func systemPrompt(language string) string {
	if p, ok := systemPrompts[language]; ok {
		return p
	}
	return systemPrompts["en"]
}

// buildMessages turns a prompt context into the chat transcript sent to a
// model: system prompt, recent history, then the current message with any
// snapshot data attached as grounding context.
func buildMessages(pc pkg.PromptContext) []*schema.Message {
	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt(pc.Language)),
	}

	for _, turn := range pc.History {
		messages = append(messages, schema.UserMessage(turn.UserMessage))
		messages = append(messages, schema.AssistantMessage(turn.BotResponse, nil))
	}

	userPrompt := pc.Message
	if pc.Snapshot != nil {
		if data, err := sonic.MarshalString(pc.Snapshot); err == nil {
			userPrompt = fmt.Sprintf("%s\n\nContext Data: %s", pc.Message, data)
		}
	}
	messages = append(messages, schema.UserMessage(userPrompt))

	return messages
}

// chatProvider adapts any eino chat model to the Provider interface.
type chatProvider struct {
	id    string
	model model.BaseChatModel
}

func (p *chatProvider) ID() string { return p.id }

func (p *chatProvider) Generate(ctx context.Context, pc pkg.PromptContext) (string, error) {
	out, err := p.model.Generate(ctx, buildMessages(pc))
	if err != nil {
		return "", fmt.Errorf("%s generation failed: %w", p.id, err)
	}
	if out == nil || out.Content == "" {
		return "", fmt.Errorf("%s returned an empty response", p.id)
	}
	return out.Content, nil
}
