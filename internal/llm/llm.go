package llm

import (
	"context"
	"fmt"
	"strings"

	"family-meal-planner/internal/config"
	"family-meal-planner/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// NewFromConfig returns the text generator selected by cfg.LLMProvider and a
// function releasing its resources.
func NewFromConfig(ctx context.Context, cfg *config.Config) (TextGenerator, func() error, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	case config.ProviderGroq, "":
		return NewGroqClient(cfg, 0.4), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
}

// StripCodeFence removes a markdown code fence some models wrap JSON in.
func StripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
