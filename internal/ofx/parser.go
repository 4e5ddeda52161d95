// Package ofx reads card and bank statements exported as OFX/QFX files.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	datePrefix    = regexp.MustCompile(`^\d{2}/\d{2}\s+`)
)

// Transaction types that never count as card spend.
var nonSpendTypes = map[string]bool{
	"CREDIT":    true,
	"INT":       true,
	"DIV":       true,
	"DEP":       true,
	"XFER":      true,
	"DIRECTDEP": true,
}

// Parser converts OFX statements into spend transactions.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser. A nil logger uses slog.Default.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger.With("component", "ofx")}
}

// preprocessOFX fixes formatting issues that ofxgo rejects.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

func (p *Parser) parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// ParseFile returns the spend transactions in an OFX/QFX statement. Refunds,
// payments and interest are dropped; amounts are positive.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Transaction, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var (
		transactions       []model.Transaction
		bankStmts, ccStmts int
	)

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			bankStmts++
			transactions = append(transactions,
				p.convertAll(stmt.BankTranList.Transactions, string(stmt.BankAcctFrom.AcctID), stmt.CurDef.String())...)
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			ccStmts++
			transactions = append(transactions,
				p.convertAll(stmt.BankTranList.Transactions, string(stmt.CCAcctFrom.AcctID), stmt.CurDef.String())...)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.logger.Info("Parsed OFX file",
		"total_transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

func (p *Parser) convertAll(txns []ofxgo.Transaction, accountID, currency string) []model.Transaction {
	out := make([]model.Transaction, 0, len(txns))
	skipped := 0
	for _, ofxTx := range txns {
		tx, ok := p.convertTransaction(ofxTx, accountID, currency)
		if !ok {
			skipped++
			continue
		}
		out = append(out, tx)
	}
	if skipped > 0 {
		p.logger.Debug("Skipped non-spend transactions", "account", accountID, "skipped", skipped)
	}
	return out
}

// convertTransaction maps one OFX transaction to a spend record. It reports
// false for credits, which OFX signs positive.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID, currency string) (model.Transaction, bool) {
	trnType := strings.ToUpper(ofxTx.TrnType.String())
	amount, _ := ofxTx.TrnAmt.Float64()
	if amount >= 0 || nonSpendTypes[trnType] {
		return model.Transaction{}, false
	}

	tx := model.Transaction{
		ID:        string(ofxTx.FiTID),
		Date:      ofxTx.DtPosted.Time,
		Merchant:  extractMerchantName(ofxTx),
		Amount:    -amount,
		AccountID: accountID,
	}

	switch {
	case isForeign(ofxTx, currency):
		tx.Category = string(model.CategoryForex)
	case trnType == "ATM" || trnType == "CASH":
		tx.Category = string(model.CategoryOther)
	case trnType == "FEE" || trnType == "SRVCHG":
		tx.Category = string(model.CategoryBillsUtilities)
	}

	if tx.ID == "" {
		tx.ID = tx.GenerateID()
	}
	return tx, true
}

// isForeign reports whether the transaction was made in a currency other than
// the statement's.
func isForeign(tx ofxgo.Transaction, statementCurrency string) bool {
	for _, c := range []*ofxgo.Currency{tx.Currency, tx.OrigCurrency} {
		if c == nil {
			continue
		}
		if sym := c.CurSym.String(); sym != "" && !strings.EqualFold(sym, statementCurrency) {
			return true
		}
	}
	return false
}

// extractMerchantName prefers PAYEE, then NAME, then MEMO when NAME is generic.
func extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && isGenericDescription(name) {
		name = strings.TrimSpace(string(tx.Memo))
	}

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
		"ECOM PUR ",
	}
	upper := strings.ToUpper(name)
	for _, prefix := range prefixes {
		if strings.HasPrefix(upper, prefix) {
			name = name[len(prefix):]
			break
		}
	}

	return datePrefix.ReplaceAllString(name, "")
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "", "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

// FileSource is a TransactionSource over a set of statement files.
type FileSource struct {
	parser *Parser
	paths  []string
}

// NewFileSource reads the given OFX/QFX files on each GetTransactions call.
func NewFileSource(parser *Parser, paths ...string) *FileSource {
	if parser == nil {
		parser = NewParser(nil)
	}
	return &FileSource{parser: parser, paths: paths}
}

// GetTransactions parses every file and keeps transactions dated in
// [start, end]. Zero bounds are open.
func (s *FileSource) GetTransactions(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	var out []model.Transaction
	seen := make(map[string]bool)

	for _, path := range s.paths {
		txns, err := s.parseFile(ctx, path)
		if err != nil {
			return nil, err
		}
		for _, tx := range txns {
			if (!start.IsZero() && tx.Date.Before(start)) || (!end.IsZero() && tx.Date.After(end)) {
				continue
			}
			key := tx.AccountID + "/" + tx.ID
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *FileSource) parseFile(ctx context.Context, path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	txns, err := s.parser.ParseFile(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return txns, nil
}

// GetAccounts lists the account IDs present in an OFX file.
func (p *Parser) GetAccounts(reader io.Reader) ([]string, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var accounts []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			accounts = append(accounts, id)
		}
	}

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			add(string(stmt.BankAcctFrom.AcctID))
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			add(string(stmt.CCAcctFrom.AcctID))
		}
	}
	return accounts, nil
}
