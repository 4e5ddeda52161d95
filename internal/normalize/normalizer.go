// Package normalize maps free-form category labels onto the closed set of
// canonical spending categories.
package normalize

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
)

// Rescaling only happens when the raw total is already close to one; anything
// further off is treated as garbage input and left alone.
const (
	rescaleLow  = 0.9
	rescaleHigh = 1.1
)

// Normalizer resolves category labels. It is immutable after construction and
// safe for concurrent use as long as its sink is.
type Normalizer struct {
	sink  EventSink
	exact map[string]model.CanonicalCategory
	rules []AliasRule
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithSink sets the sink notified about unmapped labels.
func WithSink(sink EventSink) Option {
	return func(n *Normalizer) {
		if sink != nil {
			n.sink = sink
		}
	}
}

// WithRules replaces the default alias table.
func WithRules(rules []AliasRule) Option {
	return func(n *Normalizer) {
		n.rules = rules
	}
}

// New creates a Normalizer over the default alias table.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		rules: DefaultRules(),
		sink:  NopSink{},
	}
	for _, opt := range opts {
		opt(n)
	}

	// Keep the caller's slice untouched; aliases are folded the same way input is.
	folded := make([]AliasRule, 0, len(n.rules))
	n.exact = make(map[string]model.CanonicalCategory, len(n.rules))
	for _, r := range n.rules {
		alias := Fold(r.Alias)
		if alias == "" || !r.Category.IsValid() {
			continue
		}
		r.Alias = alias
		folded = append(folded, r)

		// First rule wins on duplicate aliases, matching the substring order.
		if _, exists := n.exact[alias]; !exists {
			n.exact[alias] = r.Category
		}
	}
	n.rules = folded

	return n
}

// Fold canonicalizes a label for comparison: NFKC, lower case, trimmed, with
// internal whitespace collapsed to single spaces.
func Fold(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Normalize maps input to a canonical category. Empty input is other; input
// that matches nothing is other and is reported to the sink.
func (n *Normalizer) Normalize(input string) model.CanonicalCategory {
	key := Fold(input)
	if key == "" {
		return model.CategoryOther
	}

	if category, ok := n.exact[key]; ok {
		return category
	}

	if rule, ok := n.bestSubstringRule(key); ok {
		return rule.Category
	}

	n.sink.UnmappedCategory(input)
	return model.CategoryOther
}

// bestSubstringRule picks among all rules where the input contains the alias
// or the alias contains the input, by priority, then alias length, then table
// order.
func (n *Normalizer) bestSubstringRule(key string) (AliasRule, bool) {
	var best AliasRule
	found := false

	for _, r := range n.rules {
		if !r.matches(key) {
			continue
		}
		if !found ||
			r.Priority > best.Priority ||
			(r.Priority == best.Priority && len(r.Alias) > len(best.Alias)) {
			best = r
			found = true
		}
	}

	return best, found
}

func (r AliasRule) matches(key string) bool {
	if r.WholeWord {
		return containsWord(key, r.Alias) || containsWord(r.Alias, key)
	}
	return strings.Contains(key, r.Alias) || strings.Contains(r.Alias, key)
}

// containsWord reports whether sub occurs in s on word boundaries, so that
// "ola" matches "ola cabs" but not "chocolate".
func containsWord(s, sub string) bool {
	for offset := 0; offset <= len(s)-len(sub); {
		i := strings.Index(s[offset:], sub)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(sub)

		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(s) || !isWordRune(after)) {
			return true
		}
		offset = start + 1
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// SharesFromPercentages turns user-labelled amounts into a complete share map.
// Values above 1 are read as percentages. The result is rescaled to sum to 1
// only when the raw sum is already within [0.9, 1.1].
func (n *Normalizer) SharesFromPercentages(labeled map[string]float64) model.CategoryShares {
	shares := model.NewCategoryShares()

	labels := make([]string, 0, len(labeled))
	for label := range labeled {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		value := labeled[label]
		if value <= 0 {
			continue
		}
		if value > 1 {
			value /= 100
		}
		shares[n.Normalize(label)] += value
	}

	sum := shares.Sum()
	if sum >= rescaleLow && sum <= rescaleHigh {
		for c, v := range shares {
			shares[c] = v / sum
		}
	}

	return shares
}
