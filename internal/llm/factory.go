package llm

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
)

// NewClient creates a raw inference client based on the provided configuration.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return newOpenAIClient(cfg)
	case ProviderAnthropic:
		return newAnthropicClient(cfg)
	case ProviderHTTP:
		return newEdgeClient(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", common.ErrInvalidConfig, cfg.Provider)
	}
}

// NewInferrer builds a Service for cfg. Provider "none" (or empty) yields a
// nil Service and no error; callers then categorize without inference.
func NewInferrer(cfg Config, logger *slog.Logger) (*Service, error) {
	if p := strings.ToLower(cfg.Provider); p == "" || p == ProviderNone {
		return nil, nil
	}

	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return NewService(client, cfg, logger), nil
}
