package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"quickedit/internal/models"
)

// Supported provider identifiers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
)

// ProviderConfig selects and authenticates the generative service.
type ProviderConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	// Model overrides the profile's model for every tier when set.
	Model string
}

// ModelFactory builds a chat model for a generation profile.
type ModelFactory interface {
	ChatModel(ctx context.Context, profile models.GenerationProfile) (model.BaseChatModel, error)
}

// ModelFactoryFunc adapts a function to ModelFactory.
type ModelFactoryFunc func(ctx context.Context, profile models.GenerationProfile) (model.BaseChatModel, error)

func (f ModelFactoryFunc) ChatModel(ctx context.Context, profile models.GenerationProfile) (model.BaseChatModel, error) {
	return f(ctx, profile)
}

// ProviderFactory creates eino chat models for the configured provider.
type ProviderFactory struct {
	cfg ProviderConfig
}

func NewProviderFactory(cfg ProviderConfig) *ProviderFactory {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
	}
	return &ProviderFactory{cfg: cfg}
}

// Provider returns the normalized provider identifier.
func (f *ProviderFactory) Provider() string {
	return f.cfg.Provider
}

func (f *ProviderFactory) ChatModel(ctx context.Context, profile models.GenerationProfile) (model.BaseChatModel, error) {
	name := profile.APIName
	if f.cfg.Model != "" {
		name = f.cfg.Model
	}
	maxTokens := profile.MaxTokens
	temperature := profile.Temperature

	switch f.cfg.Provider {
	case ProviderOpenAI:
		if f.cfg.APIKey == "" {
			return nil, fmt.Errorf("openai: api key is required")
		}
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      f.cfg.APIKey,
			BaseURL:     f.cfg.BaseURL,
			Model:       name,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
	case ProviderAnthropic:
		if f.cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic: api key is required")
		}
		cfg := &claude.Config{
			APIKey:      f.cfg.APIKey,
			Model:       name,
			MaxTokens:   maxTokens,
			Temperature: &temperature,
		}
		if f.cfg.BaseURL != "" {
			baseURL := f.cfg.BaseURL
			cfg.BaseURL = &baseURL
		}
		return claude.NewChatModel(ctx, cfg)
	case ProviderGemini:
		if f.cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini: api key is required")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  f.cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		return gemini.NewChatModel(ctx, &gemini.Config{
			Client:      client,
			Model:       name,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
	case ProviderOllama:
		return NewOllamaChatModel(name, maxTokens, temperature)
	default:
		return nil, fmt.Errorf("unsupported provider %q", f.cfg.Provider)
	}
}
