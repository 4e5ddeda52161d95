package plaid

import (
	"fmt"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
)

// Config holds Plaid API credentials and the linked item's access token.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	var missing string
	switch {
	case c.ClientID == "":
		missing = "plaid client ID"
	case c.Secret == "":
		missing = "plaid secret"
	case c.Environment == "":
		missing = "plaid environment"
	case c.AccessToken == "":
		missing = "plaid access token"
	}
	if missing != "" {
		return fmt.Errorf("%w: %s is required", common.ErrInvalidConfig, missing)
	}

	if _, ok := environments[c.Environment]; !ok {
		return fmt.Errorf("%w: invalid Plaid environment %q: must be sandbox or production", common.ErrInvalidConfig, c.Environment)
	}
	return nil
}
