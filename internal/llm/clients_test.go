package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
)

const swiggyAnswer = `{"category":"food_dining","subcategory":"food_delivery","merchant_normalized":"Swiggy","confidence":0.9,"reasoning":"food delivery platform"}`

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"openai", Config{Provider: "openai", APIKey: "k"}, nil},
		{"anthropic", Config{Provider: "Anthropic", APIKey: "k"}, nil},
		{"http", Config{Provider: "http", Endpoint: "http://localhost/categorize"}, nil},
		{"openai without key", Config{Provider: "openai"}, common.ErrMissingConfig},
		{"anthropic without key", Config{Provider: "anthropic"}, common.ErrMissingConfig},
		{"http without endpoint", Config{Provider: "http"}, common.ErrMissingConfig},
		{"unknown", Config{Provider: "gemini"}, common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestNewInferrer_None(t *testing.T) {
	for _, provider := range []string{"", "none", "NONE"} {
		svc, err := NewInferrer(Config{Provider: provider}, nil)
		require.NoError(t, err)
		assert.Nil(t, svc)
	}
}

func TestOpenAIClient_InferMerchant(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "chatcmpl-1",
			"model": "gpt-4o-mini",
			"choices": []map[string]any{
				{"index": 0, "finish_reason": "stop", "message": map[string]any{
					"role":    "assistant",
					"content": "```json\n" + swiggyAnswer + "\n```",
				}},
			},
		})
	}))
	defer ts.Close()

	client, err := newOpenAIClient(Config{APIKey: "test-key", Endpoint: ts.URL + "/v1/"})
	require.NoError(t, err)

	inf, err := client.InferMerchant(context.Background(), "SWIGGY BANGALORE")
	require.NoError(t, err)
	assert.Equal(t, "food_dining", inf.Category)
	assert.Equal(t, "Swiggy", inf.MerchantNormalized)
	assert.InDelta(t, 0.9, inf.Confidence, 1e-9)
}

func TestOpenAIClient_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   error
		retryable bool
	}{
		{"server error", http.StatusInternalServerError, `{"error":"down"}`, common.ErrInferenceFailed, true},
		{"rate limited", http.StatusTooManyRequests, `{"error":"slow down"}`, common.ErrRateLimit, true},
		{"no choices", http.StatusOK, `{"choices":[]}`, common.ErrMalformedResponse, false},
		{"bad envelope", http.StatusOK, `not json`, common.ErrMalformedResponse, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			client, err := newOpenAIClient(Config{APIKey: "k", Endpoint: ts.URL})
			require.NoError(t, err)

			_, err = client.InferMerchant(context.Background(), "zomato")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.retryable, common.IsRetryable(err))
		})
	}
}

func TestAnthropicClient_InferMerchant(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":   "msg_test_001",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": swiggyAnswer},
			},
			"model":       defaultAnthropicModel,
			"stop_reason": "end_turn",
			"usage": map[string]any{
				"input_tokens":  40,
				"output_tokens": 30,
			},
		})
	}))
	defer ts.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key", Endpoint: ts.URL})
	require.NoError(t, err)

	inf, err := client.InferMerchant(context.Background(), "Swiggy")
	require.NoError(t, err)
	assert.Equal(t, "food_dining", inf.Category)
	assert.Equal(t, "food_delivery", inf.Subcategory)
}

func TestAnthropicClient_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "api_error", "message": "Internal server error"},
		})
	}))
	defer ts.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key", Endpoint: ts.URL})
	require.NoError(t, err)

	_, err = client.InferMerchant(context.Background(), "Swiggy")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInferenceFailed)
	assert.True(t, common.IsRetryable(err))
}

func TestEdgeClient_InferMerchant(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			MerchantName string `json:"merchantName"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "IRCTC", req.MerchantName)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"category":"travel","subcategory":"rail","merchant_normalized":"IRCTC","confidence":0.97,"reasoning":"railway bookings"}`))
	}))
	defer ts.Close()

	client, err := newEdgeClient(Config{Endpoint: ts.URL})
	require.NoError(t, err)

	inf, err := client.InferMerchant(context.Background(), "IRCTC")
	require.NoError(t, err)
	assert.Equal(t, "travel", inf.Category)
	assert.Equal(t, "rail", inf.Subcategory)
	assert.InDelta(t, 0.97, inf.Confidence, 1e-9)
}

func TestEdgeClient_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	client, err := newEdgeClient(Config{Endpoint: url})
	require.NoError(t, err)

	_, err = client.InferMerchant(context.Background(), "IRCTC")
	assert.ErrorIs(t, err, common.ErrInferenceFailed)
	assert.True(t, common.IsRetryable(err))
}
