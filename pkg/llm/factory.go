package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// Provider names accepted in configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// NewChatClient creates a chat client for the configured provider.
// "openai" covers any OpenAI-compatible endpoint (including local gateways);
// "anthropic" uses the Messages API directly.
func NewChatClient(cfg *Config, logger *zap.Logger) (ChatClient, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAIClient(cfg, logger)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown AI provider: %s", cfg.Provider)
	}
}
