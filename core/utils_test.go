package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueOf(t *testing.T) {
	tests := []struct {
		name     string
		amount   uint64
		price    uint64
		exponent int32
		expected uint64
		err      error
	}{
		{
			name:     "negative exponent",
			amount:   100,
			price:    5,
			exponent: -1,
			expected: 50,
		},
		{
			name:     "zero exponent",
			amount:   100,
			price:    5,
			exponent: 0,
			expected: 500,
		},
		{
			name:     "positive exponent",
			amount:   100,
			price:    5,
			exponent: 2,
			expected: 50_000,
		},
		{
			name:     "truncates",
			amount:   3,
			price:    3,
			exponent: -1,
			expected: 0,
		},
		{
			name:     "wide intermediate",
			amount:   math.MaxUint64,
			price:    100,
			exponent: -2,
			expected: math.MaxUint64,
		},
		{
			name:     "result does not fit",
			amount:   math.MaxUint64,
			price:    2,
			exponent: 0,
			err:      ErrMathOverflow,
		},
		{
			name:     "exponent overflow",
			amount:   1,
			price:    1,
			exponent: 100,
			err:      ErrMathOverflow,
		},
		{
			name:     "zero amount",
			amount:   0,
			price:    15_000_000_000,
			exponent: -8,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValueOf(tt.amount, tt.price, tt.exponent)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestAmountFor(t *testing.T) {
	tests := []struct {
		name     string
		value    uint64
		price    uint64
		exponent int32
		expected uint64
		err      error
	}{
		{
			name:     "negative exponent",
			value:    50,
			price:    5,
			exponent: -1,
			expected: 100,
		},
		{
			name:     "positive exponent",
			value:    50_000,
			price:    5,
			exponent: 2,
			expected: 100,
		},
		{
			name:     "truncates",
			value:    7,
			price:    2,
			exponent: 0,
			expected: 3,
		},
		{
			name:     "zero price",
			value:    7,
			price:    0,
			exponent: 0,
			err:      ErrMathOverflow,
		},
		{
			name:     "result does not fit",
			value:    math.MaxUint64,
			price:    1,
			exponent: -1,
			err:      ErrMathOverflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := AmountFor(tt.value, tt.price, tt.exponent)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestAmountForInvertsValueOf(t *testing.T) {
	for _, amount := range []uint64{0, 1, 7, 1_000, 123_456_789} {
		value, err := ValueOf(amount, 25, 1)
		assert.NoError(t, err)
		back, err := AmountFor(value, 25, 1)
		assert.NoError(t, err)
		assert.Equal(t, amount, back)
	}
}

func TestCalcAccruedInterest(t *testing.T) {
	tests := []struct {
		name       string
		principal  uint64
		rate       uint64
		lastUpdate int64
		now        int64
		expected   uint64
	}{
		{
			name:       "one year at 5%",
			principal:  1_000_000,
			rate:       500,
			lastUpdate: 0,
			now:        SECONDS_PER_YEAR,
			expected:   50_000,
		},
		{
			name:       "half a year",
			principal:  1_000_000,
			rate:       500,
			lastUpdate: 1_000,
			now:        1_000 + SECONDS_PER_YEAR/2,
			expected:   25_000,
		},
		{
			name:       "clock went backwards",
			principal:  1_000_000,
			rate:       500,
			lastUpdate: 2_000,
			now:        1_000,
			expected:   0,
		},
		{
			name:       "same second",
			principal:  1_000_000,
			rate:       500,
			lastUpdate: 2_000,
			now:        2_000,
			expected:   0,
		},
		{
			name:       "truncates dust",
			principal:  1,
			rate:       500,
			lastUpdate: 0,
			now:        60,
			expected:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CalcAccruedInterest(tt.principal, tt.rate, tt.lastUpdate, tt.now)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestCalcShares(t *testing.T) {
	shares, err := CalcShares(1_000_000, 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), shares)

	shares, err = CalcShares(500_000, 1_000_000, 1_000_000)
	assert.NoError(t, err)
	assert.Equal(t, uint64(500_000), shares)

	// pool grew through liquidation clamps, shares now worth 2 units each
	shares, err = CalcShares(5, 100, 200)
	assert.NoError(t, err)
	assert.Equal(t, uint64(2), shares)
}

func TestCheckedArithmetic(t *testing.T) {
	_, err := CheckedAdd(math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrMathOverflow)

	_, err = CheckedSub(1, 2)
	assert.ErrorIs(t, err, ErrMathOverflow)

	_, err = CheckedMul(math.MaxUint64, 2)
	assert.ErrorIs(t, err, ErrMathOverflow)

	v, err := CheckedMul(1_000, 70)
	assert.NoError(t, err)
	assert.Equal(t, uint64(70_000), v)

	assert.Equal(t, uint64(0), SaturatingSub(5, 10))
	assert.Equal(t, uint64(5), SaturatingSub(10, 5))
}
