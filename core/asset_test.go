package core

import (
	"testing"

	"github.com/fox-one/mixin-sdk-go/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAssetDecimal(t *testing.T) {
	usdc := NewAssetFromMixin(&mixin.SafeAsset{
		AssetID:   "9b180ab6-6abe-3dc0-a13f-04169eb34bfa",
		Symbol:    "USDC",
		Name:      "USD Coin",
		Precision: 6,
	})
	assert.Equal(t, "USDC", usdc.String())
	assert.Equal(t, "1.5", usdc.ToDecimal(1_500_000).String())

	tests := []struct {
		name     string
		amount   string
		expected uint64
		err      error
	}{
		{name: "whole", amount: "2", expected: 2_000_000},
		{name: "fraction", amount: "0.000001", expected: 1},
		{name: "too precise", amount: "0.0000001", err: ErrInvalidAmount},
		{name: "negative", amount: "-1", err: ErrInvalidAmount},
		{name: "too large", amount: "100000000000000000000", err: ErrMathOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units, err := usdc.FromDecimal(decimal.RequireFromString(tt.amount))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, units)
		})
	}
}
