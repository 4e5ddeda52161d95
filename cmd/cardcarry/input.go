package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/config"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/engine"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/matcher"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/ofx"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/plaid"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/service"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/simplefin"
)

// transactionInput is the file form of a transaction; dates are ISO strings.
type transactionInput struct {
	ID        string  `json:"id" yaml:"id"`
	Date      string  `json:"date" yaml:"date"`
	Merchant  string  `json:"merchant" yaml:"merchant"`
	Category  string  `json:"category" yaml:"category"`
	AccountID string  `json:"account_id" yaml:"account_id"`
	Amount    float64 `json:"amount" yaml:"amount"`
}

// requestFile is a user's profile, answers and optional data in one document.
type requestFile struct {
	Estimate     *model.SelfReportedEstimate `json:"estimate" yaml:"estimate"`
	Weights      matcher.Weights             `json:"weights" yaml:"weights"`
	Profile      model.Profile               `json:"profile" yaml:"profile"`
	Preferences  model.Preferences           `json:"preferences" yaml:"preferences"`
	Mode         matcher.Mode                `json:"mode" yaml:"mode"`
	Transactions []transactionInput          `json:"transactions" yaml:"transactions"`
	TopN         int                         `json:"top_n" yaml:"top_n"`
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if isYAML(path) {
		err = yaml.Unmarshal(data, out)
	} else {
		err = json.Unmarshal(data, out)
	}
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// loadRequest reads a request document. An empty path yields an empty request.
func loadRequest(path string) (engine.Request, error) {
	if path == "" {
		return engine.Request{}, nil
	}

	var rf requestFile
	if err := decodeFile(path, &rf); err != nil {
		return engine.Request{}, err
	}

	txns, err := toTransactions(path, rf.Transactions)
	if err != nil {
		return engine.Request{}, fmt.Errorf("%s: %w", path, err)
	}

	return engine.Request{
		Profile:      rf.Profile,
		Preferences:  rf.Preferences,
		Estimate:     rf.Estimate,
		Mode:         rf.Mode,
		Weights:      rf.Weights,
		TopN:         rf.TopN,
		Transactions: txns,
	}, nil
}

// toTransactions converts file rows. Rows without an ID get one derived from
// the row content plus its position in the file, so identical purchases on
// the same day stay separate while re-reading the same file still dedupes.
func toTransactions(source string, inputs []transactionInput) ([]model.Transaction, error) {
	out := make([]model.Transaction, 0, len(inputs))
	for i, in := range inputs {
		date, err := model.ParseDate(in.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		t := model.Transaction{
			ID:        in.ID,
			Date:      date,
			Merchant:  in.Merchant,
			Category:  in.Category,
			AccountID: in.AccountID,
			Amount:    in.Amount,
		}
		if t.ID == "" {
			t.ID = fmt.Sprintf("%s-%s-%d", t.GenerateID(), filepath.Base(source), i)
		}
		out = append(out, t)
	}
	return out, nil
}

// expandFiles resolves globs, keeping literal paths that match nothing so
// the read reports them.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			files = append(files, pattern)
			continue
		}
		files = append(files, matches...)
	}
	return files, nil
}

func isOFX(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ofx", ".qfx":
		return true
	}
	return false
}

// newPlaidSource builds the Plaid feed; tests swap it for a mock.
var newPlaidSource = func(cfg plaid.Config) (plaid.TransactionFetcher, error) {
	return plaid.NewClient(cfg, slog.Default())
}

// defaultFeedDays is the bank feed lookback when no --since is given.
const defaultFeedDays = 90

// transactionOptions selects where statement data comes from.
type transactionOptions struct {
	Files     []string
	Since     time.Time
	Until     time.Time
	Plaid     bool
	SimpleFIN bool
}

func (o transactionOptions) hasSources() bool {
	return len(o.Files) > 0 || o.Plaid || o.SimpleFIN
}

// feedWindow fills open bounds for bank feeds, which need a finite range.
func (o transactionOptions) feedWindow() (time.Time, time.Time) {
	until := o.Until
	if until.IsZero() {
		until = time.Now()
	}
	since := o.Since
	if since.IsZero() {
		since = until.AddDate(0, 0, -defaultFeedDays)
	}
	return since, until
}

// loadTransactions gathers transactions from OFX/QFX files, JSON/YAML
// transaction lists, Plaid and SimpleFIN. Rows are deduplicated by
// account and ID and returned oldest first.
func loadTransactions(ctx context.Context, s *config.Settings, opts transactionOptions) ([]model.Transaction, error) {
	files, err := expandFiles(opts.Files)
	if err != nil {
		return nil, err
	}

	var ofxFiles []string
	var all []model.Transaction
	for _, f := range files {
		if isOFX(f) {
			ofxFiles = append(ofxFiles, f)
			continue
		}
		var inputs []transactionInput
		if err := decodeFile(f, &inputs); err != nil {
			return nil, err
		}
		txns, err := toTransactions(f, inputs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		all = append(all, txns...)
	}

	if len(ofxFiles) > 0 {
		src := ofx.NewFileSource(ofx.NewParser(slog.Default()), ofxFiles...)
		txns, err := fetch(ctx, src, opts.Since, opts.Until)
		if err != nil {
			return nil, err
		}
		all = append(all, txns...)
	}

	if opts.Plaid {
		client, err := newPlaidSource(s.Plaid)
		if err != nil {
			return nil, common.NewUserError("Plaid is not configured", err)
		}
		since, until := opts.feedWindow()
		txns, err := fetch(ctx, client, since, until)
		if err != nil {
			return nil, err
		}
		all = append(all, txns...)
	}

	if opts.SimpleFIN {
		client, err := newSimpleFINClient(ctx, s)
		if err != nil {
			return nil, err
		}
		since, until := opts.feedWindow()
		txns, err := fetch(ctx, client, since, until)
		if errors.Is(err, simplefin.ErrAccessRevoked) {
			return nil, common.NewUserError("SimpleFIN access was revoked; set a new simplefin.token and remove "+config.SimpleFINStatePath(), err)
		}
		if err != nil {
			return nil, err
		}
		all = append(all, txns...)
	}

	return dedupe(all), nil
}

// newSimpleFINClient uses the configured access URL, else claims the setup
// token once and reuses the saved URL afterwards.
func newSimpleFINClient(ctx context.Context, s *config.Settings) (*simplefin.Client, error) {
	accessURL := s.SimpleFIN.AccessURL
	if accessURL == "" {
		auth, err := simplefin.LoadOrClaimAuth(ctx, config.SimpleFINStatePath(), s.SimpleFIN.Token)
		if err != nil {
			return nil, common.NewUserError("SimpleFIN is not configured", err)
		}
		accessURL = auth.AccessURL
	}
	client, err := simplefin.NewClient(accessURL, slog.Default())
	if err != nil {
		return nil, common.NewUserError("SimpleFIN is not configured", err)
	}
	return client, nil
}

func fetch(ctx context.Context, src service.TransactionSource, since, until time.Time) ([]model.Transaction, error) {
	txns, err := src.GetTransactions(ctx, since, until)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return txns, nil
}

// dedupe drops repeats of the same source ID within an account. Rows without
// an ID are always kept.
func dedupe(txns []model.Transaction) []model.Transaction {
	seen := make(map[string]bool, len(txns))
	out := make([]model.Transaction, 0, len(txns))
	for _, t := range txns {
		if t.ID == "" {
			out = append(out, t)
			continue
		}
		key := t.AccountID + "/" + t.ID
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func parseDateFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := model.ParseDate(value)
	if err != nil {
		return time.Time{}, common.NewUserError("dates must look like 2025-01-31", err)
	}
	return t, nil
}
