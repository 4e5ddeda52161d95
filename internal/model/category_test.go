package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalCategory_IsValid(t *testing.T) {
	for _, c := range AllCategories() {
		assert.True(t, c.IsValid(), c)
	}
	assert.False(t, CanonicalCategory("Food").IsValid())
	assert.False(t, CanonicalCategory("").IsValid())
}

func TestAllCategories_Copy(t *testing.T) {
	cats := AllCategories()
	assert.Len(t, cats, 12)
	cats[0] = "mutated"
	assert.Equal(t, CategoryFoodDining, AllCategories()[0])
}

func TestCategoryShares(t *testing.T) {
	s := NewCategoryShares()
	assert.True(t, s.Complete())
	assert.Zero(t, s.Sum())

	s[CategoryTravel] = 0.25
	s[CategoryFuel] = 0.75
	assert.InDelta(t, 1.0, s.Sum(), 1e-12)

	delete(s, CategoryOther)
	assert.False(t, s.Complete())
}

func TestCategoryAmounts_Total(t *testing.T) {
	a := NewCategoryAmounts()
	assert.Len(t, a, len(AllCategories()))
	a[CategoryGroceries] = 1200
	a[CategoryForex] = 300
	assert.InDelta(t, 1500, a.Total(), 1e-9)
}
