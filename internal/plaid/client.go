// Package plaid fetches card transactions from the Plaid API.
package plaid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/service"
)

const (
	dateLayout = "2006-01-02"
	// pageSize is the largest page /transactions/get allows.
	pageSize     = int32(500)
	homeCurrency = "INR"
)

// ErrLoginRequired means the linked item needs the user to sign in again.
var ErrLoginRequired = errors.New("plaid item requires re-authentication")

var environments = map[string]plaid.Environment{
	"sandbox":    plaid.Sandbox,
	"production": plaid.Production,
}

// Top-level Plaid categories that are money movement rather than spend.
var nonSpendCategories = map[string]bool{
	"transfer": true,
	"payment":  true,
	"interest": true,
	"tax":      true,
}

// Top-level categories too broad to pass on; the merchant name does better.
var genericCategories = map[string]bool{
	"shops":     true,
	"service":   true,
	"community": true,
}

// Client implements TransactionFetcher.
type Client struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	retryOpts   service.RetryOptions
	accessToken string
}

// NewClient creates a Plaid client. A nil logger uses slog.Default.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	configuration.UseEnvironment(environments[cfg.Environment])

	return &Client{
		client:      plaid.NewAPIClient(configuration),
		accessToken: cfg.AccessToken,
		logger:      logger.With("component", "plaid"),
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// GetTransactions returns card spend dated in [startDate, endDate].
func (c *Client) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error) {
	if startDate.After(endDate) {
		return nil, fmt.Errorf("%w: start date %s is after end date %s", common.ErrInvalidConfig,
			startDate.Format(dateLayout), endDate.Format(dateLayout))
	}

	c.logger.Info("Fetching transactions from Plaid",
		"start_date", startDate.Format(dateLayout),
		"end_date", endDate.Format(dateLayout))

	var spend []model.Transaction
	fetched := 0
	for offset := int32(0); ; offset += pageSize {
		page, total, err := c.fetchPage(ctx, startDate, endDate, offset)
		if err != nil {
			return nil, err
		}
		fetched += len(page)

		for _, pt := range page {
			if tx, ok := c.toModel(fromPlaid(pt)); ok {
				spend = append(spend, tx)
			}
		}

		if len(page) < int(pageSize) || fetched >= total {
			break
		}
	}

	c.logger.Info("Kept spend transactions", "fetched", fetched, "spend", len(spend))
	return spend, nil
}

func (c *Client) fetchPage(ctx context.Context, startDate, endDate time.Time, offset int32) ([]plaid.Transaction, int, error) {
	var (
		page  []plaid.Transaction
		total int
	)
	err := c.call(ctx, "transactions", func() error {
		request := plaid.NewTransactionsGetRequest(c.accessToken, startDate.Format(dateLayout), endDate.Format(dateLayout))
		request.SetOptions(plaid.TransactionsGetRequestOptions{
			Count:  plaid.PtrInt32(pageSize),
			Offset: plaid.PtrInt32(offset),
		})

		resp, _, err := c.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
		if err != nil {
			return err
		}
		page = resp.GetTransactions()
		total = int(resp.GetTotalTransactions())
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	c.logger.Debug("Fetched transaction page", "count", len(page), "offset", offset, "total", total)
	return page, total, nil
}

// GetAccounts returns the IDs of the item's accounts.
func (c *Client) GetAccounts(ctx context.Context) ([]string, error) {
	var accounts []plaid.AccountBase
	err := c.call(ctx, "accounts", func() error {
		request := plaid.NewAccountsGetRequest(c.accessToken)
		resp, _, err := c.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
		if err != nil {
			return err
		}
		accounts = resp.GetAccounts()
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(accounts))
	for _, account := range accounts {
		ids = append(ids, account.GetAccountId())
	}
	c.logger.Debug("Fetched accounts", "count", len(ids))
	return ids, nil
}

// call runs fn under the retry policy, classifying Plaid API errors.
func (c *Client) call(ctx context.Context, what string, fn func() error) error {
	err := common.WithRetry(ctx, func() error {
		return c.classify(fn())
	}, c.retryOpts)
	if err != nil {
		return fmt.Errorf("failed to fetch %s from Plaid: %w", what, err)
	}
	return nil
}

func (c *Client) classify(err error) error {
	if err == nil {
		return nil
	}

	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		// Transport failure; worth another try.
		return &common.RetryableError{Err: fmt.Errorf("%w: %w", common.ErrSourceConnection, err), Retryable: true}
	}

	switch plaidErr.ErrorCode {
	case "RATE_LIMIT_EXCEEDED":
		c.logger.Warn("Plaid rate limit hit", "error", plaidErr.ErrorMessage)
		return fmt.Errorf("%w: %w", common.ErrSourceRateLimit, common.ErrRateLimit)
	case "ITEM_LOGIN_REQUIRED":
		return &common.RetryableError{Err: ErrLoginRequired, Retryable: false}
	case "INTERNAL_SERVER_ERROR", "PLANNED_MAINTENANCE":
		return &common.RetryableError{Err: fmt.Errorf("%w: %s", common.ErrSourceConnection, plaidErr.ErrorMessage), Retryable: true}
	}
	return &common.RetryableError{
		Err:       fmt.Errorf("%w: %s: %s", common.ErrSourceConnection, plaidErr.ErrorCode, plaidErr.ErrorMessage),
		Retryable: false,
	}
}

// rawTransaction is the subset of a Plaid transaction the mapping needs.
type rawTransaction struct {
	ID           string
	AccountID    string
	Date         string
	Name         string
	MerchantName string
	Currency     string
	Category     []string
	Amount       float64
}

func fromPlaid(pt plaid.Transaction) rawTransaction {
	return rawTransaction{
		ID:           pt.GetTransactionId(),
		AccountID:    pt.GetAccountId(),
		Date:         pt.GetDate(),
		Name:         pt.GetName(),
		MerchantName: pt.GetMerchantName(),
		Currency:     pt.GetIsoCurrencyCode(),
		Category:     pt.GetCategory(),
		Amount:       pt.GetAmount(),
	}
}

// toModel maps a Plaid transaction to a spend record. Plaid signs money out
// as positive; credits, transfers and payments are dropped.
func (c *Client) toModel(rt rawTransaction) (model.Transaction, bool) {
	if rt.Amount <= 0 {
		return model.Transaction{}, false
	}
	if len(rt.Category) > 0 && nonSpendCategories[strings.ToLower(rt.Category[0])] {
		return model.Transaction{}, false
	}

	date, err := time.Parse(dateLayout, rt.Date)
	if err != nil {
		c.logger.Warn("Skipping transaction with unparseable date", "id", rt.ID, "date", rt.Date, "error", err)
		return model.Transaction{}, false
	}

	merchant := rt.MerchantName
	if merchant == "" {
		merchant = rt.Name
	}

	tx := model.Transaction{
		Date:      date,
		ID:        rt.ID,
		Merchant:  cleanMerchantName(merchant),
		Category:  categoryLabel(rt.Category),
		AccountID: rt.AccountID,
		Amount:    rt.Amount,
	}
	if rt.Currency != "" && !strings.EqualFold(rt.Currency, homeCurrency) {
		tx.Category = string(model.CategoryForex)
	}
	if tx.ID == "" {
		tx.ID = tx.GenerateID()
	}
	return tx, true
}

// categoryLabel flattens Plaid's category hierarchy into free text for the
// normalizer, e.g. "Food and Drink Restaurants".
func categoryLabel(hierarchy []string) string {
	if len(hierarchy) > 0 && genericCategories[strings.ToLower(hierarchy[0])] {
		hierarchy = hierarchy[1:]
	}
	return strings.Join(hierarchy, " ")
}

var corporateSuffixes = []string{" Llc", " Inc", " Corp", " Corporation", " Company", " Co", " Ltd", " Limited"}

// cleanMerchantName title-cases a merchant and strips a trailing reference
// number and corporate suffixes.
func cleanMerchantName(name string) string {
	parts := strings.Fields(cases.Title(language.Und).String(name))
	if n := len(parts); n > 1 && len(parts[n-1]) > 5 && isAllDigits(parts[n-1]) {
		parts = parts[:n-1]
	}
	name = strings.Join(parts, " ")

	for trimmed := true; trimmed; {
		trimmed = false
		for _, suffix := range corporateSuffixes {
			if strings.HasSuffix(name, suffix) {
				name = strings.TrimSuffix(name, suffix)
				trimmed = true
			}
		}
	}
	return strings.TrimSpace(name)
}

func isAllDigits(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) < 0
}

var _ TransactionFetcher = (*Client)(nil)
