package oracle

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DomeLiquid/lending/core"
	"github.com/facebookgo/clock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedOracle(t *testing.T) {
	clk := clock.NewMock()
	clk.Add(1_000 * time.Second)
	o := NewFeedOracle(clk)

	_, err := o.GetPriceNoOlderThan(context.Background(), core.SOL_USD_FEED_ID, core.MAXIMUM_AGE)
	assert.ErrorIs(t, err, core.ErrStalePrice)

	assert.True(t, o.Update(core.Price{FeedId: core.SOL_USD_FEED_ID, Price: 150, Exponent: 0, PublishTime: 1_000}))
	// older updates never replace a newer price
	assert.False(t, o.Update(core.Price{FeedId: core.SOL_USD_FEED_ID, Price: 1, Exponent: 0, PublishTime: 999}))

	price, err := o.GetPriceNoOlderThan(context.Background(), core.SOL_USD_FEED_ID, core.MAXIMUM_AGE)
	require.NoError(t, err)
	assert.Equal(t, int64(150), price.Price)

	clk.Add(core.MAXIMUM_AGE * time.Second)
	_, err = o.GetPriceNoOlderThan(context.Background(), core.SOL_USD_FEED_ID, core.MAXIMUM_AGE)
	assert.NoError(t, err)

	clk.Add(time.Second)
	_, err = o.GetPriceNoOlderThan(context.Background(), core.SOL_USD_FEED_ID, core.MAXIMUM_AGE)
	assert.ErrorIs(t, err, core.ErrStalePrice)
}

func TestPriceFromDecimal(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		exponent int32
		expected int64
		wantErr  bool
	}{
		{
			name:     "sol",
			price:    "150.25",
			exponent: DEFAULT_EXPONENT,
			expected: 15_025_000_000,
		},
		{
			name:     "truncates",
			price:    "0.999999999",
			exponent: DEFAULT_EXPONENT,
			expected: 99_999_999,
		},
		{
			name:     "whole units",
			price:    "5",
			exponent: 0,
			expected: 5,
		},
		{
			name:     "too large",
			price:    "100000000000000000000",
			exponent: DEFAULT_EXPONENT,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, err := PriceFromDecimal("feed", decimal.RequireFromString(tt.price), tt.exponent, 10)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrMathOverflow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, price.Price)
			assert.Equal(t, tt.exponent, price.Exponent)
			assert.Equal(t, int64(10), price.PublishTime)
		})
	}
}

func TestMarketAssetInfoToPrice(t *testing.T) {
	info := MarketAssetInfo{
		CoinID:       "usdc",
		Symbol:       "USDC",
		CurrentPrice: decimal.RequireFromString("1.0001"),
		UpdatedAt:    time.Unix(1_700_000_000, 0),
	}
	price, err := info.ToPrice(core.USDC_USD_FEED_ID, DEFAULT_EXPONENT)
	require.NoError(t, err)
	assert.Equal(t, int64(100_010_000), price.Price)
	assert.Equal(t, int64(1_700_000_000), price.PublishTime)
}

func TestReadMarketAssets(t *testing.T) {
	quotes, err := ReadMarketAssets(strings.NewReader(`[
		{"coin_id": "solana", "symbol": "sol", "current_price": "150.25", "updated_at": "2023-11-14T22:13:20Z"},
		{"coin_id": "usd-coin", "symbol": "usdc", "current_price": 1}
	]`))
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	price, err := quotes["solana"].ToPrice(core.SOL_USD_FEED_ID, DEFAULT_EXPONENT)
	require.NoError(t, err)
	assert.Equal(t, int64(15_025_000_000), price.Price)
	assert.Equal(t, int64(1_700_000_000), price.PublishTime)
	assert.True(t, quotes["usd-coin"].CurrentPrice.Equal(decimal.NewFromInt(1)))

	_, err = ReadMarketAssets(strings.NewReader(`[{"symbol": "sol", "current_price": "1"}]`))
	assert.Error(t, err)
	_, err = ReadMarketAssets(strings.NewReader(`{`))
	assert.Error(t, err)
}
