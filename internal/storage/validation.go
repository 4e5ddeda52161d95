// Package storage provides the merchant knowledge store backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidMerchant = errors.New("invalid merchant")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateMerchant validates a merchant record before it is written.
func validateMerchant(record *model.MerchantRecord) error {
	if record == nil {
		return fmt.Errorf("%w: merchant", ErrNilParameter)
	}
	if strings.TrimSpace(record.RawKey) == "" {
		return fmt.Errorf("%w: missing key", ErrInvalidMerchant)
	}
	if !record.Category.IsValid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidMerchant, record.Category)
	}
	if record.Confidence < 0 || record.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidMerchant)
	}
	return nil
}

// merchantKey is the lookup form of a merchant key.
func merchantKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// prepareMerchant fills defaults shared by every backend.
func prepareMerchant(record *model.MerchantRecord) {
	record.RawKey = merchantKey(record.RawKey)
	if record.NormalizedName == "" {
		record.NormalizedName = record.RawKey
	}
	if record.CanonicalName == "" {
		record.CanonicalName = record.NormalizedName
	}
	if record.Source == "" {
		record.Source = model.MerchantSourceManual
	}
	record.Keywords = uniqueKeywords(record.Keywords)
}

func uniqueKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
