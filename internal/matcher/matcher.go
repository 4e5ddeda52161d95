// Package matcher scores a card's benefits against a user feature vector.
// Scoring is a pure function of its inputs and the Matcher's weights.
package matcher

import (
	"fmt"
	"math"
	"strings"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/normalize"
)

// Explanation thresholds.
const (
	explainFee         = 80.0
	explainCategory    = 75.0
	explainTravel      = 75.0
	explainTravelNeed  = 6.0
	explainReward      = 80.0
	explainEligibility = 60.0
)

const (
	lowTravelIntensity   = 3.0
	neutralCategoryScore = 50.0
	defaultEligibility   = 80.0
	otherNetworkScore    = 80.0
	loyaltySpendCeiling  = 50000.0
)

// Matcher computes MatchResults. It is immutable and safe for concurrent use.
type Matcher struct {
	weights Weights
}

// New validates weights and returns a Matcher that uses them as given.
func New(weights Weights) (*Matcher, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}
	return &Matcher{weights: weights.clone()}, nil
}

// NewDefault returns a Matcher with DefaultWeights.
func NewDefault() *Matcher {
	return &Matcher{weights: DefaultWeights()}
}

// ForMode returns a Matcher using the preset for mode.
func ForMode(mode Mode) (*Matcher, error) {
	w, err := WeightsForMode(mode)
	if err != nil {
		return nil, err
	}
	return New(w)
}

// Weights returns a copy of the matcher's weights.
func (m *Matcher) Weights() Weights {
	return m.weights.clone()
}

// Score rates card for the user described by f. profile may be nil.
func (m *Matcher) Score(f model.UserFeatureVector, card model.CardFeatures, profile *model.Profile) model.MatchResult {
	breakdown := map[model.Criterion]float64{
		model.CriterionFeeAffordability:  clampScore(FeeAffordability(f, card)),
		model.CriterionRewardRelevance:   clampScore(RewardRelevance(f, card)),
		model.CriterionTravelFit:         clampScore(TravelFit(f, card)),
		model.CriterionCategoryAlignment: clampScore(CategoryAlignment(f, card)),
		model.CriterionNetworkAcceptance: clampScore(NetworkAcceptance(f, card)),
		model.CriterionEligibility:       clampScore(Eligibility(card, profile)),
		model.CriterionLoyaltyPotential:  clampScore(LoyaltyPotential(f, card)),
	}

	var total float64
	for _, c := range model.AllCriteria() {
		total += breakdown[c] * m.weights[c]
	}

	return model.MatchResult{
		CardID:       card.CardID,
		Score:        int(clampScore(math.Round(total))),
		Breakdown:    breakdown,
		Explanations: explain(f, card, breakdown),
	}
}

// FeeAffordability steps the effective fee against the user's tolerance. A
// waiver rule halves the fee.
func FeeAffordability(f model.UserFeatureVector, card model.CardFeatures) float64 {
	if card.AnnualFee <= 0 {
		return 100
	}
	fee := card.AnnualFee
	if strings.TrimSpace(card.WaiverRule) != "" {
		fee /= 2
	}

	tol := f.FeeToleranceAmount
	switch {
	case fee <= 0.5*tol:
		return 100
	case fee <= tol:
		return 80
	case fee <= 1.5*tol:
		return 60
	case fee <= 2*tol:
		return 40
	default:
		return 20
	}
}

// CategoryAlignment is the share of spend that falls in categories the card
// rewards, as a percentage.
func CategoryAlignment(f model.UserFeatureVector, card model.CardFeatures) float64 {
	total := f.CategorySpend.Total()
	if total <= 0 {
		return neutralCategoryScore
	}

	var matched float64
	for _, c := range model.AllCategories() {
		if keys := categoryBenefits[c]; len(keys) > 0 && card.HasAnyBenefit(keys...) {
			matched += f.CategorySpend[c]
		}
	}

	score := matched / total * 100
	if card.HasAnyBenefit(genericCashback...) && score < genericCashbackMin {
		score = genericCashbackMin
	}
	return score
}

// TravelFit totals travel perk points. Users who rarely travel are not
// penalized for a card without perks.
func TravelFit(f model.UserFeatureVector, card model.CardFeatures) float64 {
	if f.TravelIntensity < lowTravelIntensity {
		return 100
	}

	var score float64
	for _, b := range travelBonuses {
		if card.HasAnyBenefit(b.keys...) {
			score += b.points
		}
	}
	if f.ForexSpendPct > forexSpendTrigger && hasForexPerk(card) {
		score += forexBonus
	}
	return math.Min(100, score)
}

func hasForexPerk(card model.CardFeatures) bool {
	if card.HasAnyBenefit(forexKeys...) {
		return true
	}
	return card.ForexMarkupPct > 0 && card.ForexMarkupPct <= lowForexMarkupPct
}

// NetworkAcceptance scores how widely the card's network is accepted.
func NetworkAcceptance(f model.UserFeatureVector, card model.CardFeatures) float64 {
	switch normalize.Fold(card.Network) {
	case model.NetworkVisa, model.NetworkMastercard:
		return 100
	case model.NetworkRuPay:
		return 95
	case model.NetworkAmex, "amex":
		// (1 - AmexAcceptanceRisk) * 100: Amex tracks the user's acceptance risk, not a fixed value.
		return (1 - f.AmexAcceptanceRisk) * 100
	default:
		return otherNetworkScore
	}
}

// Eligibility deducts for each criterion the user is known to miss.
func Eligibility(card model.CardFeatures, profile *model.Profile) float64 {
	el := card.Eligibility
	if el == nil || (el.MinIncome <= 0 && el.MinAge <= 0 && len(el.Cities) == 0) {
		return defaultEligibility
	}
	if profile == nil || (profile.IncomeBand == "" && profile.AgeBand == "" && strings.TrimSpace(profile.City) == "") {
		return defaultEligibility
	}

	score := 100.0
	if income, ok := incomeMidpoints[bandKey(profile.IncomeBand)]; ok && el.MinIncome > 0 && income < el.MinIncome {
		score -= 40
	}
	if age, ok := ageMidpoints[bandKey(profile.AgeBand)]; ok && el.MinAge > 0 && age < float64(el.MinAge) {
		score -= 30
	}
	if city := normalize.Fold(profile.City); city != "" && len(el.Cities) > 0 && !containsCity(el.Cities, city) {
		score -= 20
	}
	return math.Max(0, score)
}

func bandKey(band string) string {
	return strings.ReplaceAll(normalize.Fold(band), " ", "")
}

func containsCity(cities []string, city string) bool {
	for _, c := range cities {
		if normalize.Fold(c) == city {
			return true
		}
	}
	return false
}

// RewardRelevance adds 15 points per category-specific benefit that matches
// non-zero spend.
func RewardRelevance(f model.UserFeatureVector, card model.CardFeatures) float64 {
	score := 50.0
	for _, s := range rewardSignals {
		if f.CategorySpend[s.category] > 0 && card.HasAnyBenefit(s.keys...) {
			score += 15
		}
	}
	return math.Min(100, score)
}

// LoyaltyPotential rewards disciplined, high-spend users and milestone cards.
func LoyaltyPotential(f model.UserFeatureVector, card model.CardFeatures) float64 {
	spend := math.Max(0, math.Min(30, 30*f.TotalMonthlySpend/loyaltySpendCeiling))
	score := 20 + 0.3*f.PayInFullScore*100 + spend
	if card.HasAnyBenefit(milestoneKeys...) {
		score += 20
	}
	return math.Min(100, score)
}

func explain(f model.UserFeatureVector, card model.CardFeatures, b map[model.Criterion]float64) []string {
	out := []string{}

	if b[model.CriterionFeeAffordability] >= explainFee {
		switch {
		case card.AnnualFee <= 0:
			out = append(out, "No annual fee")
		case strings.TrimSpace(card.WaiverRule) != "":
			out = append(out, fmt.Sprintf("Annual fee of ₹%.0f fits your budget and is waived on %s", card.AnnualFee, card.WaiverRule))
		default:
			out = append(out, fmt.Sprintf("Annual fee of ₹%.0f fits your budget", card.AnnualFee))
		}
	}
	if b[model.CriterionRewardRelevance] >= explainReward {
		out = append(out, "Rewards match the categories you spend on")
	}
	if b[model.CriterionCategoryAlignment] >= explainCategory {
		out = append(out, fmt.Sprintf("Earns on categories covering %.0f%% of your spend", b[model.CriterionCategoryAlignment]))
	}
	if b[model.CriterionTravelFit] >= explainTravel && f.TravelIntensity > explainTravelNeed {
		out = append(out, "Strong travel benefits for how often you travel")
	}
	if b[model.CriterionEligibility] < explainEligibility {
		out = append(out, "You may not meet this card's eligibility criteria")
	}
	return out
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
