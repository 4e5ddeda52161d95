package model

import "time"

// FeatureSource identifies where a feature vector's spend data came from.
type FeatureSource string

// Feature sources.
const (
	SourceStatements FeatureSource = "statements"
	SourceSelfReport FeatureSource = "self_report"
)

// UserFeatureVector is the normalized description of a user's spending that
// cards are scored against. It is replaced wholesale on refresh.
type UserFeatureVector struct {
	DerivedAt          time.Time       `json:"derived_at"`
	CategorySpend      CategoryAmounts `json:"category_spend"`
	CategoryShares     CategoryShares  `json:"category_shares"`
	Source             FeatureSource   `json:"source"`
	PayInFullScore     float64         `json:"pay_in_full_score"`
	FeeToleranceAmount float64         `json:"fee_tolerance_amount"`
	TravelIntensity    float64         `json:"travel_intensity"`
	LoungeImportance   float64         `json:"lounge_importance"`
	ForexSpendPct      float64         `json:"forex_spend_pct"`
	AmexAcceptanceRisk float64         `json:"amex_acceptance_risk"`
	TotalMonthlySpend  float64         `json:"total_monthly_spend"`
	Confidence         float64         `json:"confidence"`
	MonthsOfCoverage   int             `json:"months_of_coverage"`
}

// Profile carries the demographic answers used for eligibility and acceptance.
type Profile struct {
	City       string `json:"city,omitempty" yaml:"city,omitempty"`
	IncomeBand string `json:"income_band,omitempty" yaml:"income_band,omitempty"`
	AgeBand    string `json:"age_band,omitempty" yaml:"age_band,omitempty"`
}

// Preferences carries the user's self-described card habits.
type Preferences struct {
	ForexSpendPct    *float64 `json:"forex_spend_pct,omitempty" yaml:"forex_spend_pct,omitempty"`
	PayInFull        string   `json:"pay_in_full,omitempty" yaml:"pay_in_full,omitempty"`
	FeeTolerance     string   `json:"fee_tolerance,omitempty" yaml:"fee_tolerance,omitempty"`
	TravelFrequency  string   `json:"travel_frequency,omitempty" yaml:"travel_frequency,omitempty"`
	LoungeImportance string   `json:"lounge_importance,omitempty" yaml:"lounge_importance,omitempty"`
}

// SelfReportedEstimate is the quick-estimate alternative to statement data.
type SelfReportedEstimate struct {
	CategoryPercentages map[string]float64 `json:"category_percentages" yaml:"category_percentages"`
	ForexSpendPct       *float64           `json:"forex_spend_pct,omitempty" yaml:"forex_spend_pct,omitempty"`
	MonthlySpend        float64            `json:"monthly_spend" yaml:"monthly_spend"`
}
