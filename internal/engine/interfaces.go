package engine

import (
	"context"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/categorizer"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
)

// MerchantCategorizer resolves merchant names for transactions that arrive
// without a category.
type MerchantCategorizer interface {
	CategorizeAll(ctx context.Context, names []string) map[string]categorizer.Result
}

// FeatureDeriver builds the feature vector cards are scored against.
type FeatureDeriver interface {
	Derive(profile model.Profile, prefs model.Preferences, transactions []model.Transaction, estimate *model.SelfReportedEstimate) model.UserFeatureVector
}
