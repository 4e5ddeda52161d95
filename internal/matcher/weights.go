package matcher

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
)

// Weight validation errors.
var (
	ErrMissingWeight    = errors.New("missing weight")
	ErrInvalidWeight    = errors.New("weight must be positive")
	ErrUnknownCriterion = errors.New("unknown criterion")
	ErrUnknownMode      = errors.New("unknown matching mode")
)

// Mode selects a weight preset.
type Mode string

// Recommendation modes.
const (
	ModeStatement Mode = "statement"
	ModeGoal      Mode = "goal"
	ModeQuick     Mode = "quick"
)

// Weights assigns a weight to every criterion. A valid set names all seven
// criteria with positive values; it is never renormalized.
type Weights map[model.Criterion]float64

// DefaultWeights returns the statement-mode weights. They sum to 1.0.
func DefaultWeights() Weights {
	return Weights{
		model.CriterionFeeAffordability:  0.20,
		model.CriterionRewardRelevance:   0.25,
		model.CriterionTravelFit:         0.15,
		model.CriterionCategoryAlignment: 0.20,
		model.CriterionNetworkAcceptance: 0.10,
		model.CriterionEligibility:       0.05,
		model.CriterionLoyaltyPotential:  0.05,
	}
}

var presets = map[Mode]func() Weights{
	ModeStatement: DefaultWeights,
	ModeGoal: func() Weights {
		return Weights{
			model.CriterionFeeAffordability:  0.15,
			model.CriterionRewardRelevance:   0.20,
			model.CriterionTravelFit:         0.25,
			model.CriterionCategoryAlignment: 0.25,
			model.CriterionNetworkAcceptance: 0.05,
			model.CriterionEligibility:       0.05,
			model.CriterionLoyaltyPotential:  0.05,
		}
	},
	ModeQuick: func() Weights {
		return Weights{
			model.CriterionFeeAffordability:  0.25,
			model.CriterionRewardRelevance:   0.25,
			model.CriterionTravelFit:         0.10,
			model.CriterionCategoryAlignment: 0.15,
			model.CriterionNetworkAcceptance: 0.10,
			model.CriterionEligibility:       0.10,
			model.CriterionLoyaltyPotential:  0.05,
		}
	},
}

// Modes lists the available presets.
func Modes() []Mode {
	return []Mode{ModeStatement, ModeGoal, ModeQuick}
}

// WeightsForMode returns the preset for mode. An empty mode means statement.
func WeightsForMode(mode Mode) (Weights, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(string(mode))))
	if m == "" {
		m = ModeStatement
	}
	preset, ok := presets[m]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return preset(), nil
}

// Validate reports every problem with w. The returned error matches
// ErrMissingWeight, ErrInvalidWeight and ErrUnknownCriterion as applicable.
func (w Weights) Validate() error {
	var errs []error

	for _, c := range model.AllCriteria() {
		v, ok := w[c]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingWeight, c))
		case !(v > 0):
			errs = append(errs, fmt.Errorf("%w: %s = %v", ErrInvalidWeight, c, v))
		}
	}

	known := make(map[model.Criterion]struct{})
	for _, c := range model.AllCriteria() {
		known[c] = struct{}{}
	}
	var unknown []string
	for c := range w {
		if _, ok := known[c]; !ok {
			unknown = append(unknown, string(c))
		}
	}
	sort.Strings(unknown)
	for _, c := range unknown {
		errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownCriterion, c))
	}

	return errors.Join(errs...)
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	var total float64
	for _, c := range model.AllCriteria() {
		total += w[c]
	}
	return total
}

func (w Weights) clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}
