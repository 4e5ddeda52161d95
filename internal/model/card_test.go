package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCardBenefit_Bool(t *testing.T) {
	tests := []struct {
		name    string
		benefit CardBenefit
		want    bool
	}{
		{"true", CardBenefit{Value: true, ValueKind: ValueBoolean}, true},
		{"false", CardBenefit{Value: false, ValueKind: ValueBoolean}, false},
		{"string false", CardBenefit{Value: "false", ValueKind: ValueBoolean}, false},
		{"text present", CardBenefit{Value: "BOGO on tickets", ValueKind: ValueText}, true},
		{"empty text", CardBenefit{Value: "", ValueKind: ValueText}, false},
		{"numeric present", CardBenefit{Value: 5, ValueKind: ValueNumeric}, true},
		{"nil boolean", CardBenefit{ValueKind: ValueBoolean}, false},
		{"nil numeric", CardBenefit{ValueKind: ValueNumeric}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.benefit.Bool())
		})
	}
}

func TestCardBenefit_Number(t *testing.T) {
	tests := []struct {
		value  any
		want   float64
		wantOK bool
	}{
		{5, 5, true},
		{int64(7), 7, true},
		{1.5, 1.5, true},
		{float32(2.5), 2.5, true},
		{" 3.25 ", 3.25, true},
		{"lots", 0, false},
		{true, 0, false},
		{nil, 0, false},
	}

	for _, tt := range tests {
		got, ok := CardBenefit{Value: tt.value}.Number()
		assert.Equal(t, tt.wantOK, ok, "%v", tt.value)
		assert.InDelta(t, tt.want, got, 1e-9, "%v", tt.value)
	}
}

func TestCardFeatures_HasBenefit(t *testing.T) {
	card := CardFeatures{
		CardID: "c",
		Benefits: []CardBenefit{
			{BenefitKey: "Cashback_Dining", Value: true, ValueKind: ValueBoolean},
			{BenefitKey: "lounge_access", Value: false, ValueKind: ValueBoolean},
		},
	}

	assert.True(t, card.HasBenefit("cashback_dining"))
	assert.False(t, card.HasBenefit("lounge_access"))
	assert.False(t, card.HasBenefit("missing"))
	assert.True(t, card.HasAnyBenefit("missing", "cashback_dining"))
	assert.False(t, card.HasAnyBenefit())
}

func TestCardFeatures_Validate(t *testing.T) {
	tests := []struct {
		name    string
		card    CardFeatures
		wantErr string
	}{
		{"valid", CardFeatures{CardID: "ok", Benefits: []CardBenefit{{BenefitKey: "x", ValueKind: ValueNumeric}}}, ""},
		{"no id", CardFeatures{}, "card_id is required"},
		{"negative fee", CardFeatures{CardID: "c", AnnualFee: -1}, "annual_fee must be >= 0"},
		{"empty key", CardFeatures{CardID: "c", Benefits: []CardBenefit{{}}}, "has no key"},
		{"bad kind", CardFeatures{CardID: "c", Benefits: []CardBenefit{{BenefitKey: "x", ValueKind: "enum"}}}, "invalid value_kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.card.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
