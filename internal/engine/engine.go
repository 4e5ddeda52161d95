// Package engine runs the recommendation pipeline: enrich uncategorized
// transactions, derive the feature vector, then rank the card catalog.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/categorizer"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/matcher"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/metrics"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/ranker"
)

// ModeCustom labels recommendations scored with caller-supplied weights.
const ModeCustom matcher.Mode = "custom"

// Engine orchestrates a recommendation run.
type Engine struct {
	categorizer MerchantCategorizer
	deriver     FeatureDeriver
	logger      *slog.Logger
	cards       []model.CardFeatures
	mode        matcher.Mode
	topN        int
}

// Config holds configuration options for the engine.
type Config struct {
	Logger *slog.Logger
	Mode   matcher.Mode
	TopN   int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Mode: matcher.ModeStatement,
		TopN: 0,
	}
}

// Request is one user's input to Recommend.
type Request struct {
	Estimate     *model.SelfReportedEstimate `json:"estimate,omitempty"`
	Weights      matcher.Weights             `json:"weights,omitempty"`
	Profile      model.Profile               `json:"profile"`
	Preferences  model.Preferences           `json:"preferences"`
	Mode         matcher.Mode                `json:"mode,omitempty"`
	Transactions []model.Transaction         `json:"transactions,omitempty"`
	TopN         int                         `json:"top_n,omitempty"`
}

// Recommendation is the outcome of a run.
type Recommendation struct {
	Enriched map[string]categorizer.Result `json:"enriched,omitempty"`
	Mode     matcher.Mode                  `json:"mode"`
	Results  []model.MatchResult           `json:"results"`
	Features model.UserFeatureVector       `json:"features"`
}

// New creates an engine over the given card catalog. cat may be nil, in
// which case transactions without a category count as other.
func New(cat MerchantCategorizer, deriver FeatureDeriver, cards []model.CardFeatures) *Engine {
	return NewWithConfig(cat, deriver, cards, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(cat MerchantCategorizer, deriver FeatureDeriver, cards []model.CardFeatures, config Config) *Engine {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mode := config.Mode
	if mode == "" {
		mode = matcher.ModeStatement
	}
	return &Engine{
		categorizer: cat,
		deriver:     deriver,
		cards:       cards,
		mode:        mode,
		topN:        config.TopN,
		logger:      logger.With("component", "engine"),
	}
}

// Cards returns the catalog the engine ranks.
func (e *Engine) Cards() []model.CardFeatures {
	return e.cards
}

// Recommend enriches, derives and ranks. Malformed weights or an unknown mode
// are the only errors; every other degraded input yields a result.
func (e *Engine) Recommend(ctx context.Context, req Request) (Recommendation, error) {
	scorer, mode, err := e.matcherFor(req)
	if err != nil {
		return Recommendation{}, err
	}

	features, enriched := e.Profile(ctx, req)

	topN := req.TopN
	if topN == 0 {
		topN = e.topN
	}
	results := ranker.Rank(scorer, features, e.cards, &req.Profile, topN)
	for _, r := range results {
		metrics.MatchScore.WithLabelValues(string(mode)).Observe(float64(r.Score))
	}

	e.logger.Info("Ranked cards", "mode", mode, "cards", len(e.cards), "returned", len(results))

	return Recommendation{
		Features: features,
		Results:  results,
		Enriched: enriched,
		Mode:     mode,
	}, nil
}

// Profile enriches the request's transactions and derives the user's feature
// vector without ranking. It returns the resolution for each merchant looked up.
func (e *Engine) Profile(ctx context.Context, req Request) (model.UserFeatureVector, map[string]categorizer.Result) {
	txns, enriched := e.enrich(ctx, req.Transactions)

	features := e.deriver.Derive(req.Profile, req.Preferences, txns, req.Estimate)
	e.logger.Info("Derived features",
		"source", features.Source,
		"months", features.MonthsOfCoverage,
		"monthly_spend", features.TotalMonthlySpend,
		"confidence", features.Confidence)

	return features, enriched
}

func (e *Engine) matcherFor(req Request) (*matcher.Matcher, matcher.Mode, error) {
	if req.Weights != nil {
		m, err := matcher.New(req.Weights)
		if err != nil {
			return nil, "", err
		}
		return m, ModeCustom, nil
	}

	mode := req.Mode
	if strings.TrimSpace(string(mode)) == "" {
		mode = e.mode
	}
	m, err := matcher.ForMode(mode)
	if err != nil {
		return nil, "", fmt.Errorf("failed to select weights: %w", err)
	}
	return m, matcher.Mode(strings.ToLower(strings.TrimSpace(string(mode)))), nil
}

// enrich returns a copy of transactions with missing categories filled in from
// the categorizer, and the resolution for each merchant it looked up.
func (e *Engine) enrich(ctx context.Context, transactions []model.Transaction) ([]model.Transaction, map[string]categorizer.Result) {
	txns := make([]model.Transaction, len(transactions))
	copy(txns, transactions)

	if e.categorizer == nil {
		return txns, nil
	}

	groups := groupByMerchant(txns)
	if len(groups) == 0 {
		return txns, nil
	}

	merchants := sortMerchantsByVolume(groups)
	e.logger.Info("Categorizing merchants", "count", len(merchants))

	resolved := e.categorizer.CategorizeAll(ctx, merchants)
	for merchant, idx := range groups {
		res, ok := resolved[merchant]
		if !ok {
			continue
		}
		for _, i := range idx {
			txns[i].Category = string(res.Category)
		}
	}
	return txns, resolved
}

// groupByMerchant indexes transactions that need a category by merchant name.
func groupByMerchant(txns []model.Transaction) map[string][]int {
	groups := make(map[string][]int)
	for i, txn := range txns {
		if strings.TrimSpace(txn.Category) != "" {
			continue
		}
		merchant := strings.TrimSpace(txn.Merchant)
		if merchant == "" {
			continue
		}
		groups[merchant] = append(groups[merchant], i)
	}
	return groups
}

// sortMerchantsByVolume returns merchant names by transaction count,
// descending, then by name.
func sortMerchantsByVolume(groups map[string][]int) []string {
	merchants := make([]string, 0, len(groups))
	for merchant := range groups {
		merchants = append(merchants, merchant)
	}
	sort.Slice(merchants, func(i, j int) bool {
		ci, cj := len(groups[merchants[i]]), len(groups[merchants[j]])
		if ci != cj {
			return ci > cj
		}
		return merchants[i] < merchants[j]
	})
	return merchants
}
