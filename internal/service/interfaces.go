// Package service defines the contracts shared between engine components and
// their external collaborators.
package service

import (
	"context"
	"time"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
)

// KnowledgeStore is the merchant knowledge base consulted by the categorizer.
// Implementations must make UpsertLearned idempotent per merchant key so that
// concurrent learners never duplicate a record.
type KnowledgeStore interface {
	// FindExact looks up a merchant by lowercased key. Returns common.ErrNotFound on miss.
	FindExact(ctx context.Context, key string) (*model.MerchantRecord, error)
	// FindFuzzy returns candidates by keyword membership or name substring, best first.
	FindFuzzy(ctx context.Context, key string, keywords []string) ([]model.MerchantRecord, error)
	// Touch increments usage_count and refreshes last_seen for key.
	Touch(ctx context.Context, key string) error
	// UpsertLearned inserts record or increments usage if the key already exists.
	UpsertLearned(ctx context.Context, record *model.MerchantRecord) error

	SaveMerchant(ctx context.Context, record *model.MerchantRecord) error
	ListMerchants(ctx context.Context, filter MerchantFilter) ([]model.MerchantRecord, error)
	DeleteMerchant(ctx context.Context, key string) error

	Migrate(ctx context.Context) error
	Close() error
}

// MerchantFilter narrows ListMerchants results.
type MerchantFilter struct {
	Category model.CanonicalCategory
	Source   model.MerchantSource
	Query    string
	Limit    int
}

// TransactionSource supplies raw transactions for feature derivation.
type TransactionSource interface {
	GetTransactions(ctx context.Context, start, end time.Time) ([]model.Transaction, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
