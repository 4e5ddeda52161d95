// Package features turns transactions or self-reported estimates into the
// user feature vector that cards are scored against.
package features

import (
	"log/slog"
	"math"
	"time"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/normalize"
)

const (
	statementBaseConfidence  = 0.6
	statementMonthConfidence = 0.05
	statementMaxConfidence   = 0.95
	selfReportConfidence     = 0.6
	noDataConfidence         = 0.5
)

// Deriver builds UserFeatureVectors. It is safe for concurrent use.
type Deriver struct {
	normalizer *normalize.Normalizer
	logger     *slog.Logger
	metros     map[string]struct{}
	now        func() time.Time
}

// Option configures a Deriver.
type Option func(*Deriver)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deriver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetroCities replaces DefaultMetroCities.
func WithMetroCities(cities []string) Option {
	return func(d *Deriver) { d.metros = cityset(cities) }
}

// WithClock sets the time source for DerivedAt.
func WithClock(now func() time.Time) Option {
	return func(d *Deriver) {
		if now != nil {
			d.now = now
		}
	}
}

// New creates a Deriver. A nil normalizer gets the default alias table.
func New(normalizer *normalize.Normalizer, opts ...Option) *Deriver {
	d := &Deriver{
		normalizer: normalizer,
		logger:     slog.Default(),
		metros:     cityset(DefaultMetroCities),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.normalizer == nil {
		d.normalizer = normalize.New()
	}
	d.logger = d.logger.With("component", "features")
	return d
}

// Derive builds a feature vector. Usable transactions take priority over the
// self-reported estimate; with neither, spend is zero and confidence 0.5.
func (d *Deriver) Derive(profile model.Profile, prefs model.Preferences, transactions []model.Transaction, estimate *model.SelfReportedEstimate) model.UserFeatureVector {
	v := model.UserFeatureVector{
		DerivedAt:          d.now(),
		CategorySpend:      model.NewCategoryAmounts(),
		CategoryShares:     model.NewCategoryShares(),
		Source:             model.SourceSelfReport,
		Confidence:         noDataConfidence,
		PayInFullScore:     d.scalar("pay_in_full", payInFullScores, prefs.PayInFull, DefaultPayInFullScore),
		FeeToleranceAmount: d.scalar("fee_tolerance", feeTolerances, prefs.FeeTolerance, DefaultFeeTolerance),
		TravelIntensity:    d.scalar("travel_frequency", travelIntensities, prefs.TravelFrequency, DefaultTravelIntensity),
		LoungeImportance:   d.scalar("lounge_importance", loungeImportances, prefs.LoungeImportance, DefaultLoungeImportance),
		AmexAcceptanceRisk: d.amexRisk(profile.City),
	}

	if !d.fromStatements(&v, transactions) && estimate != nil {
		d.fromEstimate(&v, estimate)
	}

	if prefs.ForexSpendPct != nil {
		v.ForexSpendPct = clamp(*prefs.ForexSpendPct, 0, 100)
	}
	return v
}

// fromStatements fills v from transactions and reports whether any were
// usable.
func (d *Deriver) fromStatements(v *model.UserFeatureVector, transactions []model.Transaction) bool {
	totals := model.NewCategoryAmounts()
	var (
		total      float64
		used       int
		skipped    int
		minD, maxD time.Time
	)

	for _, txn := range transactions {
		if txn.Amount <= 0 || txn.Date.IsZero() || math.IsNaN(txn.Amount) || math.IsInf(txn.Amount, 0) {
			skipped++
			continue
		}
		totals[d.normalizer.Normalize(txn.Category)] += txn.Amount
		total += txn.Amount
		if used == 0 || txn.Date.Before(minD) {
			minD = txn.Date
		}
		if used == 0 || txn.Date.After(maxD) {
			maxD = txn.Date
		}
		used++
	}

	if skipped > 0 {
		d.logger.Debug("Skipped unusable transactions", "skipped", skipped, "used", used)
	}
	if used == 0 {
		return false
	}

	months := MonthsOfCoverage(minD, maxD)
	for _, c := range model.AllCategories() {
		v.CategorySpend[c] = totals[c] / float64(months)
		v.CategoryShares[c] = totals[c] / total
	}

	v.Source = model.SourceStatements
	v.MonthsOfCoverage = months
	v.TotalMonthlySpend = total / float64(months)
	v.Confidence = math.Min(statementMaxConfidence, statementBaseConfidence+statementMonthConfidence*float64(months))
	v.ForexSpendPct = v.CategoryShares[model.CategoryForex] * 100
	return true
}

func (d *Deriver) fromEstimate(v *model.UserFeatureVector, estimate *model.SelfReportedEstimate) {
	monthly := clamp(estimate.MonthlySpend, 0, math.Inf(1))
	shares := d.normalizer.SharesFromPercentages(estimate.CategoryPercentages)

	for _, c := range model.AllCategories() {
		v.CategoryShares[c] = shares[c]
		v.CategorySpend[c] = shares[c] * monthly
	}

	v.Source = model.SourceSelfReport
	v.TotalMonthlySpend = monthly
	v.Confidence = selfReportConfidence
	v.ForexSpendPct = shares[model.CategoryForex] * 100
	if estimate.ForexSpendPct != nil {
		v.ForexSpendPct = clamp(*estimate.ForexSpendPct, 0, 100)
	}
}

// MonthsOfCoverage counts calendar months spanned by [first, last], at least one.
func MonthsOfCoverage(first, last time.Time) int {
	months := int(last.Month()-first.Month()) + 12*(last.Year()-first.Year()) + 1
	if months < 1 {
		return 1
	}
	return months
}

func (d *Deriver) scalar(name string, table map[string]float64, answer string, def float64) float64 {
	v, ok := lookup(table, answer, def)
	if !ok {
		d.logger.Debug("Unrecognized preference, using default", "preference", name, "value", answer, "default", def)
	}
	return v
}

func (d *Deriver) amexRisk(city string) float64 {
	if _, ok := d.metros[normalize.Fold(city)]; ok {
		return metroAmexRisk
	}
	return nonMetroAmexRisk
}

func cityset(cities []string) map[string]struct{} {
	set := make(map[string]struct{}, len(cities))
	for _, c := range cities {
		if f := normalize.Fold(c); f != "" {
			set[f] = struct{}{}
		}
	}
	return set
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
