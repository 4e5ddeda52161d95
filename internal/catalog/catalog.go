// Package catalog loads the card catalog that recommendations rank.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
)

//go:embed cards.yaml
var defaultCatalog []byte

// ErrInvalidCatalog is returned for catalogs that cannot be scored.
var ErrInvalidCatalog = errors.New("invalid card catalog")

// Catalog is a versioned list of cards. Card order is the ranking tiebreak.
type Catalog struct {
	Cards   []model.CardFeatures `yaml:"cards"`
	Version int                  `yaml:"version"`
}

// Default returns the embedded sample catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a YAML catalog from path. An empty path loads Default.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every card and rejects duplicate IDs.
func (c *Catalog) Validate() error {
	if len(c.Cards) == 0 {
		return fmt.Errorf("%w: no cards", ErrInvalidCatalog)
	}

	var errs []error
	seen := make(map[string]struct{}, len(c.Cards))
	for i := range c.Cards {
		card := &c.Cards[i]
		if err := card.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := seen[card.CardID]; dup {
			errs = append(errs, fmt.Errorf("duplicate card_id %s", card.CardID))
		}
		seen[card.CardID] = struct{}{}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return nil
}

// Find returns the card with the given ID.
func (c *Catalog) Find(id string) (model.CardFeatures, bool) {
	for _, card := range c.Cards {
		if strings.EqualFold(card.CardID, id) {
			return card, true
		}
	}
	return model.CardFeatures{}, false
}
