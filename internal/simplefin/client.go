// Package simplefin reads card and bank transactions from a SimpleFIN bridge.
package simplefin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/service"
)

// ErrAccessRevoked means the bridge rejected the access URL and a new setup
// token must be claimed.
var ErrAccessRevoked = errors.New("SimpleFIN access revoked")

// HomeCurrency is the currency spend is reported in; accounts held in any
// other ISO currency count as forex spend.
const HomeCurrency = "INR"

// Client implements service.TransactionSource over a SimpleFIN access URL.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	accessURL  string
	retryOpts  service.RetryOptions
}

type accountSet struct {
	Errors   []string  `json:"errors"`
	Accounts []account `json:"accounts"`
}

type account struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Currency     string        `json:"currency"`
	Transactions []transaction `json:"transactions"`
}

type transaction struct {
	ID          string `json:"id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Payee       string `json:"payee"`
	Posted      int64  `json:"posted"`
	Pending     bool   `json:"pending"`
}

// NewClient creates a client for accessURL, which carries its own basic-auth
// credentials. A nil logger uses slog.Default.
func NewClient(accessURL string, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(accessURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid SimpleFIN access URL", common.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		accessURL:  strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With("component", "simplefin"),
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// GetTransactions returns posted debits dated in [startDate, endDate] as
// positive spend. Zero bounds are open.
func (c *Client) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error) {
	q := url.Values{}
	if !startDate.IsZero() {
		q.Set("start-date", strconv.FormatInt(startDate.Unix(), 10))
	}
	if !endDate.IsZero() {
		// end-date is exclusive.
		q.Set("end-date", strconv.FormatInt(endDate.AddDate(0, 0, 1).Unix(), 10))
	}

	set, err := c.fetchAccounts(ctx, q)
	if err != nil {
		return nil, err
	}

	var out []model.Transaction
	for _, acct := range set.Accounts {
		for _, tx := range acct.Transactions {
			t, ok, err := toModel(acct, tx)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if (!startDate.IsZero() && t.Date.Before(startDate)) || (!endDate.IsZero() && t.Date.After(endDate)) {
				continue
			}
			out = append(out, t)
		}
	}

	c.logger.Info("Fetched transactions", "accounts", len(set.Accounts), "spend_rows", len(out))
	return out, nil
}

// GetAccounts returns the IDs of every account behind the access URL.
func (c *Client) GetAccounts(ctx context.Context) ([]string, error) {
	set, err := c.fetchAccounts(ctx, url.Values{"balances-only": {"1"}})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(set.Accounts))
	for _, acct := range set.Accounts {
		ids = append(ids, acct.ID)
	}
	return ids, nil
}

func (c *Client) fetchAccounts(ctx context.Context, q url.Values) (*accountSet, error) {
	endpoint := c.accessURL + "/accounts"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var set accountSet
	err := common.WithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return &common.RetryableError{Err: ctx.Err(), Retryable: false}
			}
			return &common.RetryableError{Err: fmt.Errorf("%w: %w", common.ErrSourceConnection, err), Retryable: true}
		}
		defer func() { _ = resp.Body.Close() }()

		if err := statusError(resp); err != nil {
			return err
		}

		set = accountSet{}
		if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
			return &common.RetryableError{Err: fmt.Errorf("failed to decode SimpleFIN response: %w", err), Retryable: false}
		}
		return nil
	}, c.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch SimpleFIN accounts: %w", err)
	}

	for _, msg := range set.Errors {
		c.logger.Warn("SimpleFIN bridge reported a problem", "message", msg)
	}
	return &set, nil
}

func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrSourceRateLimit, common.ErrRateLimit)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &common.RetryableError{Err: ErrAccessRevoked, Retryable: false}
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err := fmt.Errorf("%w: SimpleFIN returned %d: %s", common.ErrSourceConnection, resp.StatusCode, strings.TrimSpace(string(body)))
	return &common.RetryableError{Err: err, Retryable: resp.StatusCode >= 500}
}

// toModel converts a posted debit. Credits and pending rows are dropped.
func toModel(acct account, tx transaction) (model.Transaction, bool, error) {
	if tx.Pending {
		return model.Transaction{}, false, nil
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(tx.Amount), 64)
	if err != nil {
		return model.Transaction{}, false, fmt.Errorf("transaction %s: invalid amount %q: %w", tx.ID, tx.Amount, err)
	}
	if amount >= 0 {
		return model.Transaction{}, false, nil
	}

	merchant := cleanMerchant(tx.Payee)
	if merchant == "" {
		merchant = cleanMerchant(tx.Description)
	}

	t := model.Transaction{
		ID:        acct.ID + "_" + tx.ID,
		Date:      time.Unix(tx.Posted, 0).UTC(),
		Merchant:  merchant,
		Amount:    -amount,
		AccountID: acct.ID,
	}
	if isForeign(acct.Currency) {
		t.Category = string(model.CategoryForex)
	}
	return t, true, nil
}

// isForeign reports whether currency is an ISO code other than HomeCurrency.
// Custom currencies are URLs and never count as foreign.
func isForeign(currency string) bool {
	currency = strings.TrimSpace(currency)
	if currency == "" || strings.Contains(currency, "://") {
		return false
	}
	return !strings.EqualFold(currency, HomeCurrency)
}

var corporateSuffixes = []string{" PVT LTD", " PRIVATE LIMITED", " LTD", " LIMITED", " LLC", " INC"}

func cleanMerchant(raw string) string {
	merchant := strings.Join(strings.Fields(raw), " ")
	upper := strings.ToUpper(merchant)
	for _, suffix := range corporateSuffixes {
		if strings.HasSuffix(upper, suffix) {
			merchant = strings.TrimSpace(merchant[:len(merchant)-len(suffix)])
			break
		}
	}
	return merchant
}
