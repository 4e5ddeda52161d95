// Package metrics holds the Prometheus collectors for the recommendation pipeline.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// UnmappedCategories counts category labels the normalizer could not map.
	UnmappedCategories = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardcarry_unmapped_categories_total",
			Help: "Category labels that fell through to other",
		},
	)

	// MerchantResolutions counts merchant categorizations by resolving tier.
	MerchantResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardcarry_merchant_resolutions_total",
			Help: "Merchant categorizations by source tier",
		},
		[]string{"source"},
	)

	// InferenceFailures counts failed inference calls by provider.
	InferenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardcarry_inference_failures_total",
			Help: "Failed merchant inference calls by provider",
		},
		[]string{"provider"},
	)

	// InferenceLatency tracks inference call duration.
	InferenceLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardcarry_inference_seconds",
			Help:    "Merchant inference latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// MatchScore tracks the distribution of card match scores by mode.
	MatchScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardcarry_match_score",
			Help:    "Card match scores (0-100)",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"mode"},
	)
)

// CategorySink counts unmapped category events. It satisfies normalize.EventSink.
type CategorySink struct{}

// UnmappedCategory increments UnmappedCategories.
func (CategorySink) UnmappedCategory(string) {
	UnmappedCategories.Inc()
}

// NewServer returns an HTTP server exposing /metrics on addr.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
}

// Serve runs the metrics server until ctx is canceled.
func Serve(ctx context.Context, addr string) error {
	srv := NewServer(addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
