// Package categorizer resolves raw merchant names to canonical categories
// through a tiered lookup: the knowledge store by exact key, then by keyword
// or substring, then an external inference service.
package categorizer

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/metrics"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/normalize"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/service"
)

// Source names the tier that produced a Result.
type Source string

// Resolution sources.
const (
	SourceExact    Source = "database-exact"
	SourceFuzzy    Source = "database-fuzzy"
	SourceAI       Source = "ai-powered"
	SourceFallback Source = "fallback"
)

const (
	// DefaultLearnThreshold is the minimum inference confidence that gets
	// written back to the knowledge store.
	DefaultLearnThreshold = 0.7
	// DefaultConcurrency bounds CategorizeAll.
	DefaultConcurrency = 4

	fuzzyPenalty = 0.8
)

// Result is the categorization of one merchant.
type Result struct {
	Category      model.CanonicalCategory `json:"category"`
	Subcategory   string                  `json:"subcategory,omitempty"`
	CanonicalName string                  `json:"canonical_name"`
	Source        Source                  `json:"source"`
	Confidence    float64                 `json:"confidence"`
}

// Inferrer is the external categorization service.
type Inferrer interface {
	InferMerchant(ctx context.Context, merchantName string) (model.MerchantInference, error)
}

// Categorizer resolves merchants. It holds no locks across store or
// inference calls; duplicate learning is settled by the store's upsert.
type Categorizer struct {
	store          service.KnowledgeStore
	inferrer       Inferrer
	normalizer     *normalize.Normalizer
	logger         *slog.Logger
	learnThreshold float64
	concurrency    int
}

// Option configures a Categorizer.
type Option func(*Categorizer)

// WithInferrer enables the inference tier.
func WithInferrer(inferrer Inferrer) Option {
	return func(c *Categorizer) { c.inferrer = inferrer }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Categorizer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLearnThreshold overrides DefaultLearnThreshold.
func WithLearnThreshold(threshold float64) Option {
	return func(c *Categorizer) {
		if threshold > 0 && threshold <= 1 {
			c.learnThreshold = threshold
		}
	}
}

// WithConcurrency overrides DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(c *Categorizer) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// New creates a Categorizer. A nil store disables tiers 1 and 2 and learning;
// a nil normalizer gets the default alias table.
func New(store service.KnowledgeStore, normalizer *normalize.Normalizer, opts ...Option) *Categorizer {
	c := &Categorizer{
		store:          store,
		normalizer:     normalizer,
		logger:         slog.Default(),
		learnThreshold: DefaultLearnThreshold,
		concurrency:    DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.normalizer == nil {
		c.normalizer = normalize.New()
	}
	c.logger = c.logger.With("component", "categorizer")
	return c
}

// Categorize resolves a raw merchant name. It never fails: any error in the
// inference tier degrades to category other with zero confidence.
func (c *Categorizer) Categorize(ctx context.Context, merchantRawName string) Result {
	res := c.resolve(ctx, merchantRawName)
	metrics.MerchantResolutions.WithLabelValues(string(res.Source)).Inc()
	return res
}

func (c *Categorizer) resolve(ctx context.Context, raw string) Result {
	key := MerchantKey(raw)
	if key == "" {
		return fallback(raw)
	}

	if c.store != nil {
		if res, ok := c.exact(ctx, key); ok {
			return res
		}
		if res, ok := c.fuzzy(ctx, key, Keywords(raw)); ok {
			return res
		}
	}

	return c.infer(ctx, raw, key)
}

func (c *Categorizer) exact(ctx context.Context, key string) (Result, bool) {
	record, err := c.store.FindExact(ctx, key)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			c.logger.Warn("Exact lookup failed", "merchant", key, "tier", SourceExact, "error", err)
		}
		return Result{}, false
	}
	if !isPositive(record.Category) {
		return Result{}, false
	}

	if err := c.store.Touch(ctx, key); err != nil {
		c.logger.Warn("Failed to record merchant usage", "merchant", key, "error", err)
	}

	c.logger.Debug("Merchant resolved", "merchant", key, "tier", SourceExact, "category", record.Category)
	return fromRecord(record, record.Confidence, SourceExact), true
}

func (c *Categorizer) fuzzy(ctx context.Context, key string, keywords []string) (Result, bool) {
	candidates, err := c.store.FindFuzzy(ctx, key, keywords)
	if err != nil {
		c.logger.Warn("Fuzzy lookup failed", "merchant", key, "tier", SourceFuzzy, "error", err)
		return Result{}, false
	}

	for i := range candidates {
		if !isPositive(candidates[i].Category) {
			continue
		}
		c.logger.Debug("Merchant resolved", "merchant", key, "tier", SourceFuzzy,
			"category", candidates[i].Category, "matched", candidates[i].RawKey)
		return fromRecord(&candidates[i], candidates[i].Confidence*fuzzyPenalty, SourceFuzzy), true
	}
	return Result{}, false
}

func (c *Categorizer) infer(ctx context.Context, raw, key string) Result {
	if c.inferrer == nil {
		return fallback(raw)
	}

	inf, err := c.inferrer.InferMerchant(ctx, strings.TrimSpace(raw))
	if err != nil {
		c.logger.Warn("Merchant inference failed, defaulting to other",
			"merchant", key, "tier", SourceAI, "error", err)
		return fallback(raw)
	}

	category := c.normalizer.Normalize(inf.Category)
	res := Result{
		Category:      category,
		Subcategory:   inf.Subcategory,
		CanonicalName: canonicalName(inf.MerchantNormalized, raw),
		Confidence:    clamp01(inf.Confidence),
		Source:        SourceAI,
	}

	if c.store != nil && category != model.CategoryOther && res.Confidence >= c.learnThreshold {
		c.learn(ctx, key, res, inf)
	}
	return res
}

// learn writes a confident inference back so the next lookup hits tier 1.
// Failures are logged only.
func (c *Categorizer) learn(ctx context.Context, key string, res Result, inf model.MerchantInference) {
	normalized := MerchantKey(inf.MerchantNormalized)
	if normalized == "" {
		normalized = key
	}
	keywords := Keywords(normalized)
	if len(keywords) == 0 {
		keywords = Keywords(key)
	}

	record := &model.MerchantRecord{
		RawKey:         key,
		NormalizedName: normalized,
		CanonicalName:  res.CanonicalName,
		Category:       res.Category,
		Subcategory:    res.Subcategory,
		Confidence:     res.Confidence,
		UsageCount:     1,
		Source:         model.MerchantSourceLearned,
		Keywords:       keywords,
	}
	if err := c.store.UpsertLearned(ctx, record); err != nil {
		c.logger.Warn("Failed to learn merchant", "merchant", key, "category", res.Category, "error", err)
		return
	}
	c.logger.Info("Learned merchant", "merchant", key, "category", res.Category, "confidence", res.Confidence)
}

// CategorizeAll resolves every distinct merchant in names concurrently. The
// returned map is keyed by the original names.
func (c *Categorizer) CategorizeAll(ctx context.Context, names []string) map[string]Result {
	return c.CategorizeAllFunc(ctx, names, nil)
}

// CategorizeAllFunc is CategorizeAll with a callback invoked once per distinct
// merchant key as it resolves. onResult may be called from several goroutines.
func (c *Categorizer) CategorizeAllFunc(ctx context.Context, names []string, onResult func(key string, res Result)) map[string]Result {
	byKey := make(map[string]string, len(names))
	order := make([]string, 0, len(names))
	for _, name := range names {
		key := MerchantKey(name)
		if _, seen := byKey[key]; seen {
			continue
		}
		byKey[key] = name
		order = append(order, key)
	}

	resolved := make([]Result, len(order))
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, key := range order {
		g.Go(func() error {
			resolved[i] = c.Categorize(ctx, byKey[key])
			if onResult != nil {
				onResult(key, resolved[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	index := make(map[string]int, len(order))
	for i, key := range order {
		index[key] = i
	}
	out := make(map[string]Result, len(names))
	for _, name := range names {
		out[name] = resolved[index[MerchantKey(name)]]
	}
	return out
}

// Other is never a positive store match.
func isPositive(category model.CanonicalCategory) bool {
	return category.IsValid() && category != model.CategoryOther
}

func fromRecord(record *model.MerchantRecord, confidence float64, source Source) Result {
	name := record.CanonicalName
	if name == "" {
		name = record.NormalizedName
	}
	return Result{
		Category:      record.Category,
		Subcategory:   record.Subcategory,
		CanonicalName: name,
		Confidence:    clamp01(confidence),
		Source:        source,
	}
}

func fallback(raw string) Result {
	return Result{
		Category:      model.CategoryOther,
		CanonicalName: strings.TrimSpace(raw),
		Confidence:    0,
		Source:        SourceFallback,
	}
}

func canonicalName(normalized, raw string) string {
	if n := strings.TrimSpace(normalized); n != "" {
		return n
	}
	return strings.TrimSpace(raw)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
