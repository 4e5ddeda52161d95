package normalize

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
)

type recordingSink struct {
	mu     sync.Mutex
	labels []string
}

func (r *recordingSink) UnmappedCategory(raw string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels = append(r.labels, raw)
}

func TestNormalize_CaseAndWhitespace(t *testing.T) {
	n := New()
	want := n.Normalize("Dining")
	require.Equal(t, model.CategoryFoodDining, want)

	for _, input := range []string{"DINING", "dining", " Dining ", "\tDining\n"} {
		assert.Equal(t, want, n.Normalize(input), "input %q", input)
	}
}

func TestNormalize_ExactAliases(t *testing.T) {
	n := New()
	tests := []struct {
		input string
		want  model.CanonicalCategory
	}{
		{"Online Shopping", model.CategoryShoppingOnline},
		{"Food & Dining", model.CategoryFoodDining},
		{"food   and   dining", model.CategoryFoodDining},
		{"Groceries", model.CategoryGroceries},
		{"Bills & Utilities", model.CategoryBillsUtilities},
		{"FOOD_AND_DRINK", model.CategoryFoodDining},
		{"TRANSPORTATION_GAS", model.CategoryFuel},
		{"International", model.CategoryForex},
		{"swiggy", model.CategoryFoodDining},
		{"food_dining", model.CategoryFoodDining},
		{"Ｆｕｅｌ", model.CategoryFuel}, // full-width, folded by NFKC
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}
}

func TestNormalize_EmptyIsOtherWithoutEvent(t *testing.T) {
	sink := &recordingSink{}
	n := New(WithSink(sink))

	assert.Equal(t, model.CategoryOther, n.Normalize(""))
	assert.Equal(t, model.CategoryOther, n.Normalize("   "))
	assert.Empty(t, sink.labels)
}

func TestNormalize_SubstringFallback(t *testing.T) {
	n := New()

	// Longer alias wins between two brand hints.
	assert.Equal(t, model.CategoryGroceries, n.Normalize("Swiggy Instamart"))
	// Input contained in an alias.
	assert.Equal(t, model.CategoryGroceries, n.Normalize("groc"))
	// Canonical label beats a feed label of equal standing.
	assert.Equal(t, model.CategoryFoodDining, n.Normalize("Food and Drink, Restaurants"))
}

func TestNormalize_CompoundLabels(t *testing.T) {
	sink := &recordingSink{}
	n := New(WithSink(sink))

	tests := []struct {
		input string
		want  model.CanonicalCategory
	}{
		{"foodpanda", model.CategoryFoodDining},
		{"OnlineShopping", model.CategoryShoppingOnline},
		{"electricitybill", model.CategoryBillsUtilities},
		{"petrolpump", model.CategoryFuel},
		{"chocolate factory", model.CategoryOther},
		{"current account charges", model.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}
	assert.Equal(t, []string{"chocolate factory", "current account charges"}, sink.labels)
}

func TestNormalize_RuleOrdering(t *testing.T) {
	tests := []struct {
		name  string
		rules []AliasRule
		input string
		want  model.CanonicalCategory
	}{
		{
			name: "higher priority wins",
			rules: []AliasRule{
				{Alias: "fuel", Category: model.CategoryFuel, Priority: 5},
				{Alias: "card", Category: model.CategoryBillsUtilities, Priority: 50},
			},
			input: "fuel card",
			want:  model.CategoryBillsUtilities,
		},
		{
			name: "longer alias wins on equal priority",
			rules: []AliasRule{
				{Alias: "amazon", Category: model.CategoryShoppingOnline, Priority: 10},
				{Alias: "amazon fresh", Category: model.CategoryGroceries, Priority: 10},
			},
			input: "amazon fresh order",
			want:  model.CategoryGroceries,
		},
		{
			name: "earlier rule wins on full tie",
			rules: []AliasRule{
				{Alias: "alpha", Category: model.CategoryTravel, Priority: 10},
				{Alias: "omega", Category: model.CategoryHealth, Priority: 10},
			},
			input: "alpha omega",
			want:  model.CategoryTravel,
		},
		{
			name: "earlier rule wins on full tie reversed",
			rules: []AliasRule{
				{Alias: "omega", Category: model.CategoryHealth, Priority: 10},
				{Alias: "alpha", Category: model.CategoryTravel, Priority: 10},
			},
			input: "alpha omega",
			want:  model.CategoryHealth,
		},
		{
			name:  "plain alias matches inside a word",
			rules: []AliasRule{{Alias: "ola", Category: model.CategoryTravel, Priority: 10}},
			input: "chocolate",
			want:  model.CategoryTravel,
		},
		{
			name:  "whole word alias skips partial words",
			rules: []AliasRule{{Alias: "ola", Category: model.CategoryTravel, Priority: 10, WholeWord: true}},
			input: "chocolate",
			want:  model.CategoryOther,
		},
		{
			name:  "whole word alias hit",
			rules: []AliasRule{{Alias: "ola", Category: model.CategoryTravel, Priority: 10, WholeWord: true}},
			input: "OLA CABS",
			want:  model.CategoryTravel,
		},
		{
			name:  "input contained in alias",
			rules: []AliasRule{{Alias: "groceries", Category: model.CategoryGroceries, Priority: 10}},
			input: "gr",
			want:  model.CategoryGroceries,
		},
		{
			name:  "invalid category rule ignored",
			rules: []AliasRule{{Alias: "crypto", Category: "crypto", Priority: 10}},
			input: "crypto",
			want:  model.CategoryOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(WithRules(tt.rules))
			assert.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}
}

func TestNormalize_UnmappedEmitsEvent(t *testing.T) {
	sink := &recordingSink{}
	n := New(WithSink(sink))

	assert.Equal(t, model.CategoryOther, n.Normalize("xyzzy"))
	assert.Equal(t, []string{"xyzzy"}, sink.labels)

	// Mapped labels are silent.
	n.Normalize("fuel")
	assert.Len(t, sink.labels, 1)
}

func TestDefaultRules(t *testing.T) {
	seen := make(map[string]bool)
	for _, r := range DefaultRules() {
		assert.True(t, r.Category.IsValid(), "alias %q", r.Alias)
		assert.Equal(t, Fold(r.Alias), r.Alias, "aliases are stored folded")
		assert.False(t, seen[r.Alias], "duplicate alias %q", r.Alias)
		seen[r.Alias] = true
	}
}

func TestSharesFromPercentages(t *testing.T) {
	n := New()

	t.Run("percentages", func(t *testing.T) {
		shares := n.SharesFromPercentages(map[string]float64{
			"Online Shopping": 45,
			"Dining":          35,
			"Groceries":       20,
		})

		require.True(t, shares.Complete())
		assert.InDelta(t, 0.45, shares[model.CategoryShoppingOnline], 1e-9)
		assert.InDelta(t, 0.35, shares[model.CategoryFoodDining], 1e-9)
		assert.InDelta(t, 0.20, shares[model.CategoryGroceries], 1e-9)
		for _, c := range []model.CanonicalCategory{
			model.CategoryTravel, model.CategoryFuel, model.CategoryOther, model.CategoryForex,
		} {
			assert.Zero(t, shares[c])
		}
		assert.InDelta(t, 1.0, shares.Sum(), 0.02)
	})

	t.Run("fractions and merged buckets", func(t *testing.T) {
		shares := n.SharesFromPercentages(map[string]float64{
			"Dining":          0.25,
			"Food & Dining":   0.25,
			"Online Shopping": 0.5,
		})
		assert.InDelta(t, 0.5, shares[model.CategoryFoodDining], 1e-9)
		assert.InDelta(t, 0.5, shares[model.CategoryShoppingOnline], 1e-9)
	})

	t.Run("rescaled when close to one", func(t *testing.T) {
		shares := n.SharesFromPercentages(map[string]float64{"Dining": 50, "Travel": 45})
		assert.InDelta(t, 50.0/95.0, shares[model.CategoryFoodDining], 1e-9)
		assert.InDelta(t, 1.0, shares.Sum(), 1e-9)
	})

	t.Run("not rescaled when far from one", func(t *testing.T) {
		shares := n.SharesFromPercentages(map[string]float64{"Dining": 30, "Travel": 20})
		assert.InDelta(t, 0.30, shares[model.CategoryFoodDining], 1e-9)
		assert.InDelta(t, 0.20, shares[model.CategoryTravel], 1e-9)
	})

	t.Run("empty input is all zero", func(t *testing.T) {
		shares := n.SharesFromPercentages(nil)
		require.True(t, shares.Complete())
		assert.Zero(t, shares.Sum())
	})

	t.Run("positive totals sum to one", func(t *testing.T) {
		inputs := []map[string]float64{
			{"Dining": 10, "Travel": 10, "Fuel": 10, "Groceries": 10, "Health": 10,
				"Education": 10, "Entertainment": 10, "Shopping": 10, "Bills": 10, "Forex": 10},
			{"Dining": 33.3, "Travel": 33.3, "Fuel": 33.4},
			{"Dining": 0.6, "Mystery spend": 0.35},
		}
		for _, in := range inputs {
			shares := n.SharesFromPercentages(in)
			assert.InDelta(t, 1.0, shares.Sum(), 0.02)
			assert.False(t, math.IsNaN(shares.Sum()))
		}
	})
}

func TestLogSink_WarnsOncePerLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sink := NewLogSink(logger)

	sink.UnmappedCategory("Mystery")
	sink.UnmappedCategory("mystery ")
	assert.Equal(t, 1, strings.Count(buf.String(), "Unmapped category label"))

	sink.UnmappedCategory("Something else")
	assert.Equal(t, 2, strings.Count(buf.String(), "Unmapped category label"))
}

func TestMultiSink(t *testing.T) {
	first := &recordingSink{}
	var second []string
	sink := MultiSink{first, nil, FuncSink(func(raw string) { second = append(second, raw) })}

	sink.UnmappedCategory("x")
	assert.Equal(t, []string{"x"}, first.labels)
	assert.Equal(t, []string{"x"}, second)
}
