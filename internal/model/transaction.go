package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// Transaction is a single spend record handed to the engine by a transaction source.
type Transaction struct {
	Date      time.Time `json:"date"`
	ID        string    `json:"id,omitempty"`
	Merchant  string    `json:"merchant,omitempty"`
	Category  string    `json:"category,omitempty"` // free text from the source feed
	AccountID string    `json:"account_id,omitempty"`
	Amount    float64   `json:"amount"`
}

// GenerateID creates a stable identifier for sources that don't provide one.
func (t *Transaction) GenerateID() string {
	data := fmt.Sprintf("%s:%.2f:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		strings.ToLower(t.Merchant),
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash[:12])
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate parses the ISO date strings transaction feeds produce.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
