package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/matcher"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/plaid"
)

const requestYAML = `profile:
  city: Pune
  income_band: 10-15L
preferences:
  pay_in_full: always
  fee_tolerance: medium
mode: goal
top_n: 2
estimate:
  monthly_spend: 40000
  category_percentages:
    dining: 40
    fuel: 60
transactions:
  - date: "2025-01-15"
    merchant: Swiggy
    amount: 450
  - id: t2
    date: "2025-01-20T10:00:00Z"
    merchant: HP Petrol
    category: Fuel
    amount: 1000
`

const requestJSON = `{
  "profile": {"city": "Mumbai"},
  "weights": {"feeAffordability": 2, "rewardRelevance": 1, "travelFit": 1,
    "categoryAlignment": 1, "networkAcceptance": 1, "eligibility": 1, "loyaltyPotential": 1}
}`

func TestLoadRequest_YAML(t *testing.T) {
	req, err := loadRequest(writeFile(t, "me.yaml", requestYAML))
	require.NoError(t, err)

	assert.Equal(t, "Pune", req.Profile.City)
	assert.Equal(t, "always", req.Preferences.PayInFull)
	assert.Equal(t, matcher.ModeGoal, req.Mode)
	assert.Equal(t, 2, req.TopN)
	require.NotNil(t, req.Estimate)
	assert.InDelta(t, 40000, req.Estimate.MonthlySpend, 1e-9)
	assert.InDelta(t, 60, req.Estimate.CategoryPercentages["fuel"], 1e-9)

	require.Len(t, req.Transactions, 2)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), req.Transactions[0].Date)
	assert.NotEmpty(t, req.Transactions[0].ID)
	assert.Equal(t, "t2", req.Transactions[1].ID)
	assert.Equal(t, "Fuel", req.Transactions[1].Category)
}

func TestLoadRequest_JSON(t *testing.T) {
	req, err := loadRequest(writeFile(t, "me.json", requestJSON))
	require.NoError(t, err)

	assert.Equal(t, "Mumbai", req.Profile.City)
	assert.InDelta(t, 2, req.Weights[model.CriterionFeeAffordability], 1e-9)
	assert.NoError(t, req.Weights.Validate())
	assert.Nil(t, req.Estimate)
}

func TestLoadRequest_Errors(t *testing.T) {
	req, err := loadRequest("")
	require.NoError(t, err)
	assert.Empty(t, req.Transactions)

	_, err = loadRequest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = loadRequest(writeFile(t, "bad.json", `{"profile": `))
	assert.ErrorContains(t, err, "failed to decode")

	_, err = loadRequest(writeFile(t, "baddate.yaml", "transactions:\n  - date: 15/01/2025\n    amount: 5\n"))
	assert.ErrorContains(t, err, "transaction 0")
}

const statementOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20250315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>INR
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20250101120000[0:GMT]
<DTEND>20250228120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250210120000[0:GMT]
<TRNAMT>-650.00
<FITID>CC2025021001
<NAME>ZOMATO
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-650.00
<DTASOF>20250228120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>
`

func TestLoadTransactions(t *testing.T) {
	s := useTestSettings(t)
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "jan.json")
	writeTo(t, jsonPath, `[
  {"id": "a", "date": "2025-01-15", "merchant": "Swiggy", "amount": 450, "account_id": "x"},
  {"id": "a", "date": "2025-01-15", "merchant": "Swiggy", "amount": 450, "account_id": "x"}
]`)
	writeTo(t, filepath.Join(dir, "feb.ofx"), statementOFX)

	txns, err := loadTransactions(context.Background(), s, transactionOptions{
		Files: []string{jsonPath, filepath.Join(dir, "*.ofx")},
	})
	require.NoError(t, err)

	require.Len(t, txns, 2)
	assert.Equal(t, "Swiggy", txns[0].Merchant)
	assert.InDelta(t, 650, txns[1].Amount, 1e-9)
	assert.True(t, txns[0].Date.Before(txns[1].Date))

	txns, err = loadTransactions(context.Background(), s, transactionOptions{
		Files: []string{filepath.Join(dir, "*.ofx")},
		Until: time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Empty(t, txns)

	_, err = loadTransactions(context.Background(), s, transactionOptions{Files: []string{filepath.Join(dir, "none.json")}})
	assert.Error(t, err)
}

func TestLoadTransactions_PlaidNotConfigured(t *testing.T) {
	s := useTestSettings(t)

	_, err := loadTransactions(context.Background(), s, transactionOptions{Plaid: true})
	assert.ErrorContains(t, err, "Plaid is not configured")
}

func TestLoadTransactions_Plaid(t *testing.T) {
	s := useTestSettings(t)
	until := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	mock := plaid.NewMockClient(
		model.Transaction{ID: "p1", AccountID: "cc", Date: until.AddDate(0, 0, -10), Merchant: "Swiggy", Amount: 300},
		model.Transaction{ID: "p2", AccountID: "cc", Date: until.AddDate(0, -6, 0), Merchant: "IRCTC", Amount: 900},
	)
	prev := newPlaidSource
	newPlaidSource = func(plaid.Config) (plaid.TransactionFetcher, error) { return mock, nil }
	t.Cleanup(func() { newPlaidSource = prev })

	txns, err := loadTransactions(context.Background(), s, transactionOptions{Plaid: true, Until: until})
	require.NoError(t, err)

	require.Len(t, txns, 1)
	assert.Equal(t, "Swiggy", txns[0].Merchant)

	windows := mock.Windows()
	require.Len(t, windows, 1)
	assert.Equal(t, until.AddDate(0, 0, -defaultFeedDays), windows[0].Start)
	assert.Equal(t, until, windows[0].End)
}

func TestLoadTransactions_SimpleFINNotConfigured(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	s := useTestSettings(t)

	_, err := loadTransactions(context.Background(), s, transactionOptions{SimpleFIN: true})
	assert.ErrorContains(t, err, "SimpleFIN is not configured")
}

func TestLoadTransactions_SimpleFIN(t *testing.T) {
	var query url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		_, _ = fmt.Fprint(w, `{"accounts":[{"id":"icici","currency":"INR","transactions":[
			{"id":"1","posted":1739145600,"amount":"-320.00","payee":"Swiggy"},
			{"id":"2","posted":1739145600,"amount":"5000.00","description":"Refund"}
		]}]}`)
	}))
	defer server.Close()

	s := useTestSettings(t)
	s.SimpleFIN.AccessURL = server.URL

	opts := transactionOptions{
		SimpleFIN: true,
		Since:     time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Until:     time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
	}
	txns, err := loadTransactions(context.Background(), s, opts)
	require.NoError(t, err)

	require.Len(t, txns, 1)
	assert.Equal(t, "Swiggy", txns[0].Merchant)
	assert.Equal(t, "icici_1", txns[0].ID)
	assert.Equal(t, fmt.Sprint(opts.Since.Unix()), query.Get("start-date"))
}

func TestFeedWindow(t *testing.T) {
	until := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	since, gotUntil := transactionOptions{Until: until}.feedWindow()
	assert.Equal(t, until, gotUntil)
	assert.Equal(t, until.AddDate(0, 0, -defaultFeedDays), since)

	since, gotUntil = transactionOptions{}.feedWindow()
	assert.WithinDuration(t, time.Now(), gotUntil, time.Minute)
	assert.Equal(t, gotUntil.AddDate(0, 0, -defaultFeedDays), since)

	assert.False(t, transactionOptions{}.hasSources())
	assert.True(t, transactionOptions{SimpleFIN: true}.hasSources())
}

func TestDedupe(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	txns := []model.Transaction{
		{ID: "2", AccountID: "a", Date: jan.AddDate(0, 0, 5), Amount: 10},
		{ID: "1", AccountID: "a", Date: jan, Amount: 20},
		{ID: "1", AccountID: "b", Date: jan, Amount: 30},
		{ID: "2", AccountID: "a", Date: jan.AddDate(0, 0, 5), Amount: 10},
		{Date: jan, Merchant: "x", Amount: 5},
		{Date: jan, Merchant: "x", Amount: 5},
	}

	got := dedupe(txns)
	require.Len(t, got, 5)
	assert.Equal(t, "2", got[4].ID)
}

func TestDedupe_KeepsIdenticalRowsWithoutIDs(t *testing.T) {
	rows := []transactionInput{
		{Date: "2025-01-10", Merchant: "Chai Point", Amount: 40},
		{Date: "2025-01-10", Merchant: "Chai Point", Amount: 40},
	}

	txns, err := toTransactions("spend.json", rows)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.NotEqual(t, txns[0].ID, txns[1].ID)

	assert.Len(t, dedupe(txns), 2)

	again, err := toTransactions("spend.json", rows)
	require.NoError(t, err)
	assert.Len(t, dedupe(append(txns, again...)), 2, "re-reading the same file must not double count")
}

func TestParseDateFlag(t *testing.T) {
	d, err := parseDateFlag("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	d, err = parseDateFlag("2025-02-01")
	require.NoError(t, err)
	assert.Equal(t, time.February, d.Month())

	_, err = parseDateFlag("Feb 1")
	assert.ErrorContains(t, err, "dates must look like")
}
