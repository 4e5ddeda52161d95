package llm

import (
	"context"
	"time"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
)

// Supported providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderHTTP      = "http"
	ProviderNone      = "none"
)

// Client defines the interface for inference providers. Implementations make
// a single attempt; retries and throttling belong to Service.
type Client interface {
	InferMerchant(ctx context.Context, merchantName string) (model.MerchantInference, error)
}

// Config holds inference client configuration.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	Endpoint    string
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	Timeout     time.Duration
	RateLimit   int // requests per minute
	Temperature float64
	MaxTokens   int
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}

func (c Config) temperature() float64 {
	if c.Temperature == 0 {
		return 0.2
	}
	return c.Temperature
}

func (c Config) maxTokens() int {
	if c.MaxTokens == 0 {
		return 300
	}
	return c.MaxTokens
}
