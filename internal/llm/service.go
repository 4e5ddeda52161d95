package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/metrics"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/service"
)

// breakerTripAfter is the number of consecutive failed inferences that opens
// the circuit.
const breakerTripAfter = 5

// Service wraps a Client with caching, client-side rate limiting, retries and
// a circuit breaker. It is safe for concurrent use.
type Service struct {
	client    Client
	cache     *inferenceCache
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	logger    *slog.Logger
	provider  string
	retryOpts service.RetryOptions
}

// NewService wraps client using the resilience settings in cfg.
func NewService(client Client, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "llm", "provider", cfg.Provider)

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	rpm := cfg.RateLimit
	if rpm <= 0 {
		rpm = 60
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "merchant-inference",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAfter
		},
		// A malformed answer means the service is up.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, common.ErrMalformedResponse) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Service{
		client:    client,
		cache:     newInferenceCache(cfg.CacheTTL),
		limiter:   rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm),
		breaker:   breaker,
		logger:    logger,
		provider:  cfg.Provider,
		retryOpts: retryOpts,
	}
}

// InferMerchant returns the provider's categorization of merchantName.
// Repeated names are answered from cache until the TTL expires.
func (s *Service) InferMerchant(ctx context.Context, merchantName string) (model.MerchantInference, error) {
	key := strings.ToLower(strings.TrimSpace(merchantName))
	if key == "" {
		return model.MerchantInference{}, fmt.Errorf("%w: empty merchant name", common.ErrInferenceFailed)
	}

	if inf, found := s.cache.get(key); found {
		s.logger.Debug("cache hit for merchant", "merchant", merchantName)
		return inf, nil
	}

	start := time.Now()
	result, err := s.breaker.Execute(func() (interface{}, error) {
		var inf model.MerchantInference
		retryErr := common.WithRetry(ctx, func() error {
			if err := s.limiter.Wait(ctx); err != nil {
				return &common.RetryableError{Err: fmt.Errorf("rate limiter: %w", err), Retryable: false}
			}
			var callErr error
			inf, callErr = s.client.InferMerchant(ctx, merchantName)
			return callErr
		}, s.retryOpts)
		return inf, retryErr
	})
	metrics.InferenceLatency.WithLabelValues(s.provider).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.InferenceFailures.WithLabelValues(s.provider).Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return model.MerchantInference{}, fmt.Errorf("%w: %w", common.ErrInferenceUnavailable, err)
		}
		return model.MerchantInference{}, err
	}

	inf, _ := result.(model.MerchantInference)
	s.cache.set(key, inf)

	s.logger.Info("merchant inferred",
		"merchant", merchantName,
		"category", inf.Category,
		"confidence", inf.Confidence)

	return inf, nil
}

// Close releases background resources.
func (s *Service) Close() error {
	s.cache.Close()
	return nil
}
