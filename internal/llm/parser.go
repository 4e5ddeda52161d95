package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
)

// cleanMarkdownWrapper strips code fences and any prose around the outermost
// JSON object.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}

// parseInference decodes a model reply into a MerchantInference.
func parseInference(content string) (model.MerchantInference, error) {
	var inf model.MerchantInference
	if err := json.Unmarshal([]byte(cleanMarkdownWrapper(content)), &inf); err != nil {
		return model.MerchantInference{}, malformed(fmt.Errorf("failed to parse JSON response: %w", err))
	}
	return validateInference(inf)
}

// validateInference rejects empty answers and brings confidence into [0,1].
// Some models answer with a percentage, so values in (1,100] are scaled down.
func validateInference(inf model.MerchantInference) (model.MerchantInference, error) {
	inf.Category = strings.TrimSpace(inf.Category)
	if inf.Category == "" {
		return model.MerchantInference{}, malformed(fmt.Errorf("no category found in response"))
	}
	if math.IsNaN(inf.Confidence) || math.IsInf(inf.Confidence, 0) {
		return model.MerchantInference{}, malformed(fmt.Errorf("confidence is not a number"))
	}

	switch {
	case inf.Confidence > 1 && inf.Confidence <= 100:
		inf.Confidence /= 100
	case inf.Confidence > 100:
		inf.Confidence = 1
	case inf.Confidence < 0:
		inf.Confidence = 0
	}
	inf.Subcategory = strings.TrimSpace(inf.Subcategory)
	inf.MerchantNormalized = strings.TrimSpace(inf.MerchantNormalized)
	return inf, nil
}

// malformed marks a response error as permanent. Retrying the same prompt
// rarely fixes a shape problem.
func malformed(err error) error {
	return &common.RetryableError{
		Err:       fmt.Errorf("%w: %w", common.ErrMalformedResponse, err),
		Retryable: false,
	}
}

// statusError classifies a non-2xx response.
func statusError(provider string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	err := fmt.Errorf("%w: %s API error (status %d): %s", common.ErrInferenceFailed, provider, status, msg)

	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case status >= 500:
		return &common.RetryableError{Err: err, Retryable: true}
	default:
		return &common.RetryableError{Err: err, Retryable: false}
	}
}
