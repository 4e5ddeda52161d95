package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
)

// edgeClient calls a hosted categorization function that already speaks the
// inference contract: {"merchantName": "..."} in, a MerchantInference out.
type edgeClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

func newEdgeClient(cfg Config) (Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: llm.endpoint is required for the http provider", common.ErrMissingConfig)
	}
	return &edgeClient{
		httpClient: newHTTPClient(cfg.timeout()),
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
	}, nil
}

func (c *edgeClient) InferMerchant(ctx context.Context, merchantName string) (model.MerchantInference, error) {
	jsonBody, err := json.Marshal(map[string]string{"merchantName": merchantName})
	if err != nil {
		return model.MerchantInference{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return model.MerchantInference{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.MerchantInference{}, &common.RetryableError{
			Err:       fmt.Errorf("%w: request failed: %w", common.ErrInferenceFailed, err),
			Retryable: true,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.MerchantInference{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.MerchantInference{}, statusError(ProviderHTTP, resp.StatusCode, body)
	}

	return parseInference(string(body))
}
