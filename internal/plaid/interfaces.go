package plaid

import (
	"context"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/service"
)

// TransactionFetcher is a transaction source that can also list its accounts.
type TransactionFetcher interface {
	service.TransactionSource
	GetAccounts(ctx context.Context) ([]string, error)
}
