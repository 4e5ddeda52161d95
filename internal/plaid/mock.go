package plaid

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
)

// Window is a requested date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// MockClient serves canned transactions and records the windows asked for.
// Err, when set, is returned from every call.
type MockClient struct {
	Err          error
	Transactions []model.Transaction

	mu      sync.Mutex
	windows []Window
}

// NewMockClient creates a mock serving txns.
func NewMockClient(txns ...model.Transaction) *MockClient {
	return &MockClient{Transactions: txns}
}

// GetTransactions returns the canned transactions dated inside the window.
func (m *MockClient) GetTransactions(_ context.Context, startDate, endDate time.Time) ([]model.Transaction, error) {
	m.mu.Lock()
	m.windows = append(m.windows, Window{Start: startDate, End: endDate})
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	var out []model.Transaction
	for _, tx := range m.Transactions {
		if !tx.Date.Before(startDate) && !tx.Date.After(endDate) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// GetAccounts returns the distinct account IDs in first-seen order.
func (m *MockClient) GetAccounts(context.Context) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var ids []string
	for _, tx := range m.Transactions {
		if tx.AccountID != "" && !slices.Contains(ids, tx.AccountID) {
			ids = append(ids, tx.AccountID)
		}
	}
	return ids, nil
}

// Windows returns every window GetTransactions was called with.
func (m *MockClient) Windows() []Window {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.windows)
}

var _ TransactionFetcher = (*MockClient)(nil)
