package model

// Criterion names one of the independent sub-scores of a match.
type Criterion string

// Scoring criteria.
const (
	CriterionFeeAffordability  Criterion = "feeAffordability"
	CriterionRewardRelevance   Criterion = "rewardRelevance"
	CriterionTravelFit         Criterion = "travelFit"
	CriterionCategoryAlignment Criterion = "categoryAlignment"
	CriterionNetworkAcceptance Criterion = "networkAcceptance"
	CriterionEligibility       Criterion = "eligibility"
	CriterionLoyaltyPotential  Criterion = "loyaltyPotential"
)

// AllCriteria returns every criterion in a fixed order.
func AllCriteria() []Criterion {
	return []Criterion{
		CriterionFeeAffordability,
		CriterionRewardRelevance,
		CriterionTravelFit,
		CriterionCategoryAlignment,
		CriterionNetworkAcceptance,
		CriterionEligibility,
		CriterionLoyaltyPotential,
	}
}

// MatchResult is the score of one card against one feature vector.
type MatchResult struct {
	Breakdown    map[Criterion]float64 `json:"breakdown"`
	CardID       string                `json:"card_id"`
	Explanations []string              `json:"explanations"`
	Score        int                   `json:"score"`
}
