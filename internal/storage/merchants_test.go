package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/service"
)

func saveTestMerchant(t *testing.T, store *SQLiteStorage, key string, category model.CanonicalCategory, usage int, keywords ...string) {
	t.Helper()
	require.NoError(t, store.SaveMerchant(context.Background(), &model.MerchantRecord{
		RawKey:     key,
		Category:   category,
		Confidence: 0.95,
		UsageCount: usage,
		Source:     model.MerchantSourceSeed,
		Keywords:   keywords,
	}))
}

func TestSQLiteStorage_FindExact(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.FindExact(ctx, "swiggy")
	require.ErrorIs(t, err, common.ErrNotFound)

	saveTestMerchant(t, store, "Swiggy", model.CategoryFoodDining, 3, "swiggy", "food")

	record, err := store.FindExact(ctx, "  SWIGGY ")
	require.NoError(t, err)
	assert.Equal(t, "swiggy", record.RawKey)
	assert.Equal(t, model.CategoryFoodDining, record.Category)
	assert.Equal(t, model.MerchantSourceSeed, record.Source)
	assert.InDelta(t, 0.95, record.Confidence, 1e-9)
	assert.Equal(t, 3, record.UsageCount)
	assert.ElementsMatch(t, []string{"swiggy", "food"}, record.Keywords)
	assert.False(t, record.LastSeen.IsZero())
}

func TestSQLiteStorage_Touch(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.ErrorIs(t, store.Touch(ctx, "missing"), common.ErrNotFound)

	saveTestMerchant(t, store, "zomato", model.CategoryFoodDining, 1)

	// Prime the cache, then make sure Touch invalidates it.
	_, err := store.FindExact(ctx, "zomato")
	require.NoError(t, err)

	require.NoError(t, store.Touch(ctx, "Zomato"))
	record, err := store.FindExact(ctx, "zomato")
	require.NoError(t, err)
	assert.Equal(t, 2, record.UsageCount)
}

func TestSQLiteStorage_UpsertLearned(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	first := &model.MerchantRecord{
		RawKey:         "blue tokai",
		NormalizedName: "blue tokai",
		CanonicalName:  "Blue Tokai Coffee",
		Category:       model.CategoryFoodDining,
		Subcategory:    "cafe",
		Confidence:     0.85,
		Source:         model.MerchantSourceLearned,
		Keywords:       []string{"blue", "tokai"},
	}
	require.NoError(t, store.UpsertLearned(ctx, first))

	record, err := store.FindExact(ctx, "blue tokai")
	require.NoError(t, err)
	assert.Equal(t, 1, record.UsageCount)
	assert.Equal(t, model.MerchantSourceLearned, record.Source)
	assert.Equal(t, "Blue Tokai Coffee", record.CanonicalName)

	// A second learner with a different answer only increments usage.
	second := *first
	second.Category = model.CategoryGroceries
	second.Keywords = []string{"coffee"}
	require.NoError(t, store.UpsertLearned(ctx, &second))

	record, err = store.FindExact(ctx, "blue tokai")
	require.NoError(t, err)
	assert.Equal(t, 2, record.UsageCount)
	assert.Equal(t, model.CategoryFoodDining, record.Category)
	assert.ElementsMatch(t, []string{"blue", "tokai", "coffee"}, record.Keywords)
}

func TestSQLiteStorage_UpsertLearnedConcurrent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.UpsertLearned(ctx, &model.MerchantRecord{
				RawKey:     "swiggy",
				Category:   model.CategoryFoodDining,
				Confidence: 0.9,
				Source:     model.MerchantSourceLearned,
				Keywords:   []string{"swiggy"},
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	merchants, err := store.ListMerchants(ctx, service.MerchantFilter{})
	require.NoError(t, err)
	require.Len(t, merchants, 1)
	assert.Equal(t, writers, merchants[0].UsageCount)
}

func TestSQLiteStorage_UpsertLearnedInvalid(t *testing.T) {
	store := createTestStorage(t)

	err := store.UpsertLearned(context.Background(), &model.MerchantRecord{RawKey: "x", Category: "nope"})
	assert.ErrorIs(t, err, ErrInvalidMerchant)
}

func TestSQLiteStorage_FindFuzzy(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	saveTestMerchant(t, store, "swiggy", model.CategoryFoodDining, 2, "swiggy")
	saveTestMerchant(t, store, "amazon pay", model.CategoryShoppingOnline, 5, "amazon", "pay")
	saveTestMerchant(t, store, "phonepe", model.CategoryBillsUtilities, 9, "phonepe", "pay")
	saveTestMerchant(t, store, "ab", model.CategoryOther, 100, "ab")

	t.Run("substring of key", func(t *testing.T) {
		got, err := store.FindFuzzy(ctx, "swiggy bangalore order", nil)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "swiggy", got[0].RawKey)
	})

	t.Run("key inside name", func(t *testing.T) {
		got, err := store.FindFuzzy(ctx, "amazon", nil)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "amazon pay", got[0].RawKey)
	})

	t.Run("keyword overlap ordered by usage", func(t *testing.T) {
		got, err := store.FindFuzzy(ctx, "pay x", []string{"pay"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "phonepe", got[0].RawKey)
		assert.Equal(t, "amazon pay", got[1].RawKey)
	})

	t.Run("short names never substring match", func(t *testing.T) {
		got, err := store.FindFuzzy(ctx, "cab rides", nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("no match", func(t *testing.T) {
		got, err := store.FindFuzzy(ctx, "unknown shop", []string{"unknown", "shop"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestSQLiteStorage_ListMerchants(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	saveTestMerchant(t, store, "swiggy", model.CategoryFoodDining, 2)
	saveTestMerchant(t, store, "zomato", model.CategoryFoodDining, 7)
	saveTestMerchant(t, store, "irctc", model.CategoryTravel, 1)
	require.NoError(t, store.UpsertLearned(ctx, &model.MerchantRecord{
		RawKey:   "blinkit",
		Category: model.CategoryGroceries,
		Source:   model.MerchantSourceLearned,
	}))

	tests := []struct {
		name   string
		filter service.MerchantFilter
		want   []string
	}{
		{"all", service.MerchantFilter{}, []string{"zomato", "swiggy", "blinkit", "irctc"}},
		{"by category", service.MerchantFilter{Category: model.CategoryFoodDining}, []string{"zomato", "swiggy"}},
		{"by source", service.MerchantFilter{Source: model.MerchantSourceLearned}, []string{"blinkit"}},
		{"by query", service.MerchantFilter{Query: "ZOM"}, []string{"zomato"}},
		{"limited", service.MerchantFilter{Limit: 1}, []string{"zomato"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListMerchants(ctx, tt.filter)
			require.NoError(t, err)
			keys := make([]string, len(got))
			for i, m := range got {
				keys[i] = m.RawKey
			}
			assert.Equal(t, tt.want, keys)
		})
	}
}

func TestSQLiteStorage_DeleteMerchant(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	saveTestMerchant(t, store, "swiggy", model.CategoryFoodDining, 1, "swiggy")
	_, err := store.FindExact(ctx, "swiggy")
	require.NoError(t, err)

	require.NoError(t, store.DeleteMerchant(ctx, "SWIGGY"))
	_, err = store.FindExact(ctx, "swiggy")
	assert.ErrorIs(t, err, common.ErrNotFound)

	got, err := store.FindFuzzy(ctx, "zzz", []string{"swiggy"})
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.ErrorIs(t, store.DeleteMerchant(ctx, "swiggy"), common.ErrNotFound)
}

func TestSQLiteStorage_WarmMerchantCache(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	saveTestMerchant(t, store, "swiggy", model.CategoryFoodDining, 1)
	saveTestMerchant(t, store, "zomato", model.CategoryFoodDining, 2)

	require.NoError(t, store.WarmMerchantCache(ctx, 10))
	for _, key := range []string{"swiggy", "zomato"} {
		cached := store.getCachedMerchant(key)
		require.NotNil(t, cached, key)
		assert.Equal(t, model.CategoryFoodDining, cached.Category)
	}
}
