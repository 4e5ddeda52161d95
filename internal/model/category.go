package model

import "sort"

// CanonicalCategory is one of the fixed spending categories shared by every
// input source. New values require a code change, not runtime data.
type CanonicalCategory string

// Canonical categories.
const (
	CategoryFoodDining     CanonicalCategory = "food_dining"
	CategoryShoppingOnline CanonicalCategory = "shopping_online"
	CategoryTravel         CanonicalCategory = "travel"
	CategoryGroceries      CanonicalCategory = "groceries"
	CategoryFuel           CanonicalCategory = "fuel"
	CategoryBillsUtilities CanonicalCategory = "bills_utilities"
	CategoryEntertainment  CanonicalCategory = "entertainment"
	CategoryHealth         CanonicalCategory = "health"
	CategoryEducation      CanonicalCategory = "education"
	CategoryInvestments    CanonicalCategory = "investments"
	CategoryForex          CanonicalCategory = "forex"
	CategoryOther          CanonicalCategory = "other"
)

var allCategories = []CanonicalCategory{
	CategoryFoodDining,
	CategoryShoppingOnline,
	CategoryTravel,
	CategoryGroceries,
	CategoryFuel,
	CategoryBillsUtilities,
	CategoryEntertainment,
	CategoryHealth,
	CategoryEducation,
	CategoryInvestments,
	CategoryForex,
	CategoryOther,
}

// AllCategories returns every canonical category in a fixed order.
func AllCategories() []CanonicalCategory {
	out := make([]CanonicalCategory, len(allCategories))
	copy(out, allCategories)
	return out
}

// IsValid reports whether c is a member of the closed enumeration.
func (c CanonicalCategory) IsValid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

func (c CanonicalCategory) String() string {
	return string(c)
}

// CategoryShares maps each canonical category to a fraction in [0,1].
type CategoryShares map[CanonicalCategory]float64

// NewCategoryShares returns a share map with every category present at zero.
func NewCategoryShares() CategoryShares {
	shares := make(CategoryShares, len(allCategories))
	for _, c := range allCategories {
		shares[c] = 0
	}
	return shares
}

// Sum returns the total of all shares.
func (s CategoryShares) Sum() float64 {
	var total float64
	for _, c := range s.sortedKeys() {
		total += s[c]
	}
	return total
}

// Complete reports whether every canonical category has an entry.
func (s CategoryShares) Complete() bool {
	for _, c := range allCategories {
		if _, ok := s[c]; !ok {
			return false
		}
	}
	return true
}

// sortedKeys gives a deterministic iteration order so float sums are stable.
func (s CategoryShares) sortedKeys() []CanonicalCategory {
	keys := make([]CanonicalCategory, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// CategoryAmounts maps canonical categories to spend amounts.
type CategoryAmounts map[CanonicalCategory]float64

// NewCategoryAmounts returns an amount map with every category present at zero.
func NewCategoryAmounts() CategoryAmounts {
	amounts := make(CategoryAmounts, len(allCategories))
	for _, c := range allCategories {
		amounts[c] = 0
	}
	return amounts
}

// Total returns the sum of all amounts.
func (a CategoryAmounts) Total() float64 {
	var total float64
	for _, c := range allCategories {
		total += a[c]
	}
	return total
}
