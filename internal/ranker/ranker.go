// Package ranker orders catalog cards by match score.
package ranker

import (
	"sort"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/matcher"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
)

// Rank scores every card and returns results ordered by score, highest
// first. Cards with equal scores keep their catalog order. topN <= 0 returns
// every result.
func Rank(m *matcher.Matcher, f model.UserFeatureVector, cards []model.CardFeatures, profile *model.Profile, topN int) []model.MatchResult {
	if m == nil {
		m = matcher.NewDefault()
	}

	results := make([]model.MatchResult, len(cards))
	for i, card := range cards {
		results[i] = m.Score(f, card, profile)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topN > 0 && topN < len(results) {
		results = results[:topN]
	}
	return results
}
