package features

import "github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/normalize"

// Defaults used when a preference is unset or unrecognized.
const (
	DefaultPayInFullScore   = 0.8
	DefaultFeeTolerance     = 5000.0
	DefaultTravelIntensity  = 0.0
	DefaultLoungeImportance = 5.0

	// UnlimitedFeeTolerance stands for "any fee if it returns twice its cost".
	UnlimitedFeeTolerance = 999999.0

	metroAmexRisk    = 0.2
	nonMetroAmexRisk = 0.6
)

var payInFullScores = map[string]float64{
	"always":    1.0,
	"mostly":    0.8,
	"sometimes": 0.5,
	"rarely":    0.3,
}

var feeTolerances = map[string]float64{
	"zero":          0,
	"none":          0,
	"≤1k":           1000,
	"<=1k":          1000,
	"upto_1k":       1000,
	"≤5k":           5000,
	"<=5k":          5000,
	"upto_5k":       5000,
	"any_if_2x_roi": UnlimitedFeeTolerance,
}

var travelIntensities = map[string]float64{
	"never":           0,
	"rarely":          2,
	"occasionally":    4,
	"frequently":      7,
	"very_frequently": 10,
}

var loungeImportances = map[string]float64{
	"not_important": 0,
	"nice_to_have":  5,
	"must_have":     10,
}

// DefaultMetroCities are the cities where American Express acceptance is
// assumed to be good.
var DefaultMetroCities = []string{
	"mumbai", "navi mumbai", "thane",
	"delhi", "new delhi", "gurgaon", "gurugram", "noida",
	"bangalore", "bengaluru",
	"chennai", "kolkata", "hyderabad", "pune", "ahmedabad",
}

// lookup resolves a preference answer through table, returning def for empty
// or unknown answers. Answers are folded and spaces become underscores so
// "Very Frequently" and "very_frequently" agree.
func lookup(table map[string]float64, answer string, def float64) (float64, bool) {
	key := normalize.Fold(answer)
	if key == "" {
		return def, true
	}
	if v, ok := table[key]; ok {
		return v, true
	}
	key = underscore(key)
	if v, ok := table[key]; ok {
		return v, true
	}
	return def, false
}

func underscore(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r == ' ' || r == '-' {
			out[i] = '_'
		}
	}
	return string(out)
}
