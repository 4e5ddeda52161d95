package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind describes how a CardBenefit value should be read.
type ValueKind string

// Benefit value kinds.
const (
	ValueBoolean ValueKind = "boolean"
	ValueNumeric ValueKind = "numeric"
	ValueText    ValueKind = "text"
)

// Card networks.
const (
	NetworkVisa       = "visa"
	NetworkMastercard = "mastercard"
	NetworkRuPay      = "rupay"
	NetworkAmex       = "american express"
)

// CardBenefit is one attribute/value pair of a card's benefit set.
type CardBenefit struct {
	Value       any       `json:"value" yaml:"value"`
	BenefitKey  string    `json:"benefit_key" yaml:"benefit_key"`
	BenefitType string    `json:"benefit_type" yaml:"benefit_type"`
	ValueKind   ValueKind `json:"value_kind" yaml:"value_kind"`
}

// Bool reads the value as a boolean. Non-boolean benefits count as present.
func (b CardBenefit) Bool() bool {
	switch v := b.Value.(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return v != ""
		}
		return parsed
	case nil:
		return b.ValueKind != ValueBoolean
	default:
		return true
	}
}

// Number reads the value as a float, returning false if it isn't numeric.
func (b CardBenefit) Number() (float64, bool) {
	switch v := b.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// Eligibility holds a card's application criteria.
type Eligibility struct {
	Cities    []string `json:"cities,omitempty" yaml:"cities,omitempty"`
	MinIncome float64  `json:"min_income,omitempty" yaml:"min_income,omitempty"`
	MinAge    int      `json:"min_age,omitempty" yaml:"min_age,omitempty"`
}

// CardFeatures is a card's static catalog entry.
type CardFeatures struct {
	Eligibility    *Eligibility  `json:"eligibility,omitempty" yaml:"eligibility,omitempty"`
	CardID         string        `json:"card_id" yaml:"card_id"`
	Name           string        `json:"name,omitempty" yaml:"name,omitempty"`
	Issuer         string        `json:"issuer" yaml:"issuer"`
	Network        string        `json:"network" yaml:"network"`
	WaiverRule     string        `json:"waiver_rule,omitempty" yaml:"waiver_rule,omitempty"`
	RewardTypes    []string      `json:"reward_types,omitempty" yaml:"reward_types,omitempty"`
	Benefits       []CardBenefit `json:"benefits" yaml:"benefits"`
	AnnualFee      float64       `json:"annual_fee" yaml:"annual_fee"`
	ForexMarkupPct float64       `json:"forex_markup_pct" yaml:"forex_markup_pct"`
}

// HasBenefit reports whether the card carries an enabled benefit with the given key.
func (c *CardFeatures) HasBenefit(key string) bool {
	for _, b := range c.Benefits {
		if strings.EqualFold(b.BenefitKey, key) {
			return b.Bool()
		}
	}
	return false
}

// HasAnyBenefit reports whether any of the keys is present.
func (c *CardFeatures) HasAnyBenefit(keys ...string) bool {
	for _, k := range keys {
		if c.HasBenefit(k) {
			return true
		}
	}
	return false
}

// Validate checks the catalog entry is usable for scoring.
func (c *CardFeatures) Validate() error {
	if strings.TrimSpace(c.CardID) == "" {
		return fmt.Errorf("card_id is required")
	}
	if c.AnnualFee < 0 {
		return fmt.Errorf("card %s: annual_fee must be >= 0", c.CardID)
	}
	for i, b := range c.Benefits {
		if strings.TrimSpace(b.BenefitKey) == "" {
			return fmt.Errorf("card %s: benefit %d has no key", c.CardID, i)
		}
		switch b.ValueKind {
		case ValueBoolean, ValueNumeric, ValueText, "":
		default:
			return fmt.Errorf("card %s: benefit %s has invalid value_kind %q", c.CardID, b.BenefitKey, b.ValueKind)
		}
	}
	return nil
}
