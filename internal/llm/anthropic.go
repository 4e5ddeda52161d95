package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
)

const defaultAnthropicModel = "claude-haiku-4-5-20251001"

// anthropicClient implements the Client interface on top of the Anthropic SDK.
type anthropicClient struct {
	client      sdk.Client
	model       string
	temperature float64
	maxTokens   int64
}

// newAnthropicClient creates a new Anthropic API client.
func newAnthropicClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic API key is required", common.ErrMissingConfig)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultAnthropicModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: cfg.timeout()}),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}

	return &anthropicClient{
		client:      sdk.NewClient(opts...),
		model:       modelName,
		temperature: cfg.temperature(),
		maxTokens:   int64(cfg.maxTokens()),
	}, nil
}

// InferMerchant asks Claude to categorize a single merchant.
func (c *anthropicClient) InferMerchant(ctx context.Context, merchantName string) (model.MerchantInference, error) {
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(c.model),
		MaxTokens:   c.maxTokens,
		System:      []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages:    []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(buildUserPrompt(merchantName)))},
		Temperature: sdk.Float(c.temperature),
	})
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return model.MerchantInference{}, statusError(ProviderAnthropic, apiErr.StatusCode, []byte(apiErr.Error()))
		}
		return model.MerchantInference{}, &common.RetryableError{
			Err:       fmt.Errorf("%w: anthropic request failed: %w", common.ErrInferenceFailed, err),
			Retryable: true,
		}
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return model.MerchantInference{}, malformed(fmt.Errorf("no content in response"))
	}

	return parseInference(text.String())
}
