package core

import (
	"math/bits"

	"github.com/holiman/uint256"
)

// ValueOf converts a token amount into the price feed's value units:
// amount * price * 10^exponent, truncating when the exponent is negative.
func ValueOf(amount, price uint64, exponent int32) (uint64, error) {
	value := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(price))

	scale, err := pow10(absExponent(exponent))
	if err != nil {
		return 0, err
	}

	if exponent >= 0 {
		var overflow bool
		value, overflow = new(uint256.Int).MulOverflow(value, scale)
		if overflow {
			return 0, ErrMathOverflow
		}
	} else {
		value.Div(value, scale)
	}
	return toUint64(value)
}

// AmountFor is the inverse of ValueOf: value / (price * 10^exponent).
func AmountFor(value, price uint64, exponent int32) (uint64, error) {
	if price == 0 {
		return 0, ErrMathOverflow
	}

	scale, err := pow10(absExponent(exponent))
	if err != nil {
		return 0, err
	}

	p := uint256.NewInt(price)
	v := uint256.NewInt(value)
	if exponent >= 0 {
		divisor, overflow := new(uint256.Int).MulOverflow(p, scale)
		if overflow {
			return 0, ErrMathOverflow
		}
		return toUint64(v.Div(v, divisor))
	}

	scaled, overflow := new(uint256.Int).MulOverflow(v, scale)
	if overflow {
		return 0, ErrMathOverflow
	}
	return toUint64(scaled.Div(scaled, p))
}

// CalcAccruedInterest returns the simple interest earned on principal between
// lastUpdate and now at rate basis points per year.
func CalcAccruedInterest(principal, rate uint64, lastUpdate, now int64) (uint64, error) {
	if now <= lastUpdate {
		return 0, nil
	}
	elapsed := uint64(now - lastUpdate)

	interest := new(uint256.Int).Mul(uint256.NewInt(principal), uint256.NewInt(rate))
	interest, overflow := new(uint256.Int).MulOverflow(interest, uint256.NewInt(elapsed))
	if overflow {
		return 0, ErrMathOverflow
	}
	interest.Div(interest, uint256.NewInt(INTEREST_RATE_DECIMALS*SECONDS_PER_YEAR))
	return toUint64(interest)
}

// CalcShares converts amount into shares of a pool holding total against
// totalShares. An empty pool mints 1:1.
func CalcShares(amount, totalShares, total uint64) (uint64, error) {
	if total == 0 {
		return amount, nil
	}
	return MulDiv(amount, totalShares, total)
}

// MulDiv computes a * b / c with a 256-bit intermediate.
func MulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, ErrMathOverflow
	}
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	return toUint64(product.Div(product, uint256.NewInt(c)))
}

func CheckedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrMathOverflow
	}
	return sum, nil
}

func CheckedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrMathOverflow
	}
	return a - b, nil
}

func CheckedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrMathOverflow
	}
	return lo, nil
}

// SaturatingSub clamps at zero.
func SaturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

func pow10(n uint32) (*uint256.Int, error) {
	result := uint256.NewInt(1)
	ten := uint256.NewInt(10)
	for i := uint32(0); i < n; i++ {
		var overflow bool
		result, overflow = new(uint256.Int).MulOverflow(result, ten)
		if overflow {
			return nil, ErrMathOverflow
		}
	}
	return result, nil
}

func absExponent(exponent int32) uint32 {
	if exponent < 0 {
		return uint32(-int64(exponent))
	}
	return uint32(exponent)
}

func toUint64(v *uint256.Int) (uint64, error) {
	if !v.IsUint64() {
		return 0, ErrMathOverflow
	}
	return v.Uint64(), nil
}
