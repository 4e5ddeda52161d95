package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/catalog"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/categorizer"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/config"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/engine"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/features"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/llm"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/metrics"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/normalize"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/service"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/storage"
)

// openStore opens and migrates the configured knowledge store.
func openStore(ctx context.Context, s *config.Settings) (service.KnowledgeStore, func(), error) {
	store, err := storage.Open(ctx, s.Database)
	if err != nil {
		return nil, nil, common.NewUserError("could not open the merchant knowledge store", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			slog.Error("Failed to close knowledge store", "error", err)
		}
	}
	return store, cleanup, nil
}

// newInferrer returns nil when no provider is configured.
func newInferrer(s *config.Settings) (*llm.Service, error) {
	if !s.InferenceEnabled() {
		return nil, nil
	}
	svc, err := llm.NewInferrer(s.LLM, slog.Default())
	if err != nil {
		return nil, common.NewUserError("could not set up merchant inference", err)
	}
	return svc, nil
}

func newNormalizer() *normalize.Normalizer {
	return normalize.New(normalize.WithSink(normalize.MultiSink{
		normalize.NewLogSink(slog.Default()),
		metrics.CategorySink{},
	}))
}

// categorizerDeps bundles a categorizer with whatever it holds open.
type categorizerDeps struct {
	categorizer *categorizer.Categorizer
	store       service.KnowledgeStore
	inferrer    *llm.Service
	closeStore  func()
}

func (d *categorizerDeps) Close() {
	if d.inferrer != nil {
		if err := d.inferrer.Close(); err != nil {
			slog.Warn("Failed to close inference service", "error", err)
		}
	}
	if d.closeStore != nil {
		d.closeStore()
	}
}

func newCategorizer(ctx context.Context, s *config.Settings, normalizer *normalize.Normalizer) (*categorizerDeps, error) {
	store, closeStore, err := openStore(ctx, s)
	if err != nil {
		return nil, err
	}

	inferrer, err := newInferrer(s)
	if err != nil {
		closeStore()
		return nil, err
	}

	opts := []categorizer.Option{
		categorizer.WithLearnThreshold(s.Categorizer.LearnThreshold),
		categorizer.WithConcurrency(s.Categorizer.Concurrency),
	}
	if inferrer != nil {
		opts = append(opts, categorizer.WithInferrer(inferrer))
	} else {
		slog.Debug("Merchant inference disabled", "provider", s.LLM.Provider)
	}

	return &categorizerDeps{
		categorizer: categorizer.New(store, normalizer, opts...),
		store:       store,
		inferrer:    inferrer,
		closeStore:  closeStore,
	}, nil
}

func loadCatalog(s *config.Settings) (*catalog.Catalog, error) {
	c, err := catalog.Load(s.CatalogPath)
	if err != nil {
		return nil, common.NewUserError("could not load the card catalog", err)
	}
	slog.Debug("Loaded card catalog", "cards", len(c.Cards), "version", c.Version)
	return c, nil
}

// newEngine wires every component. The returned cleanup closes the store
// and the inference service.
func newEngine(ctx context.Context, s *config.Settings) (*engine.Engine, func(), error) {
	cards, err := loadCatalog(s)
	if err != nil {
		return nil, nil, err
	}

	normalizer := newNormalizer()
	deps, err := newCategorizer(ctx, s, normalizer)
	if err != nil {
		return nil, nil, err
	}

	eng := engine.NewWithConfig(deps.categorizer, features.New(normalizer), cards.Cards, engine.Config{
		Logger: slog.Default(),
		Mode:   s.Matching.Mode,
		TopN:   s.Matching.TopN,
	})
	return eng, deps.Close, nil
}

func requireSettings() (*config.Settings, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: settings not loaded", common.ErrMissingConfig)
	}
	return settings, nil
}
