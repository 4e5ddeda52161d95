package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 1, c.Version)
	require.Len(t, c.Cards, 10)
	assert.Equal(t, "hdfc-millennia", c.Cards[0].CardID)

	amex, ok := c.Find("AMEX-MRCC")
	require.True(t, ok)
	assert.Equal(t, model.NetworkAmex, amex.Network)
	require.NotNil(t, amex.Eligibility)
	assert.InDelta(t, 600000, amex.Eligibility.MinIncome, 1e-9)
	assert.Contains(t, amex.Eligibility.Cities, "Pune")

	wealth, ok := c.Find("idfc-first-wealth")
	require.True(t, ok)
	assert.Zero(t, wealth.AnnualFee)
	assert.True(t, wealth.HasBenefit("international_lounge"))

	lit, ok := c.Find("au-lit")
	require.True(t, ok)
	assert.False(t, lit.HasBenefit("health_benefits"))

	_, ok = c.Find("missing")
	assert.False(t, ok)
}

func TestDefault_BenefitValues(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	millennia, ok := c.Find("hdfc-millennia")
	require.True(t, ok)
	for _, b := range millennia.Benefits {
		if b.BenefitKey == "amazon_cashback" {
			n, ok := b.Number()
			require.True(t, ok)
			assert.InDelta(t, 5, n, 1e-9)
			assert.Equal(t, model.ValueNumeric, b.ValueKind)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: 2
cards:
  - card_id: test-card
    issuer: Test Bank
    network: visa
    annual_fee: 250
    benefits:
      - {benefit_key: cashback_dining, benefit_type: cashback, value_kind: boolean, value: true}
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Version)
	require.Len(t, c.Cards, 1)
	assert.True(t, c.Cards[0].HasBenefit("cashback_dining"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	c, err := Load("  ")
	require.NoError(t, err)
	assert.Len(t, c.Cards, 10)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "cards: [unclosed"},
		{"no cards", "version: 1\ncards: []"},
		{"missing id", "cards:\n  - issuer: X\n    annual_fee: 0"},
		{"negative fee", "cards:\n  - card_id: a\n    annual_fee: -1"},
		{"duplicate id", "cards:\n  - card_id: a\n  - card_id: a"},
		{"bad value kind", "cards:\n  - card_id: a\n    benefits:\n      - {benefit_key: x, value_kind: enum, value: 1}"},
		{"benefit without key", "cards:\n  - card_id: a\n    benefits:\n      - {value_kind: boolean, value: true}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}
