package core

import (
	"math/big"

	"github.com/fox-one/mixin-sdk-go/v2"
	"github.com/shopspring/decimal"
)

// Asset is the display metadata of a pooled token. Ledger amounts are raw
// integer units, Precision places below one whole token.
type Asset struct {
	AssetId   string `json:"assetId"`
	Symbol    string `json:"symbol,omitempty"`
	Name      string `json:"name,omitempty"`
	Precision int32  `json:"precision"`
}

func NewAssetFromMixin(asset *mixin.SafeAsset) Asset {
	return Asset{
		AssetId:   asset.AssetID,
		Symbol:    asset.Symbol,
		Name:      asset.Name,
		Precision: asset.Precision,
	}
}

func (a Asset) ToDecimal(amount uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -a.Precision)
}

// FromDecimal parses a whole-token amount into raw units. Amounts finer than
// the asset precision are rejected rather than rounded.
func (a Asset) FromDecimal(amount decimal.Decimal) (uint64, error) {
	if amount.IsNegative() {
		return 0, ErrInvalidAmount
	}
	scaled := amount.Shift(a.Precision)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, ErrInvalidAmount
	}
	units := scaled.BigInt()
	if !units.IsUint64() {
		return 0, ErrMathOverflow
	}
	return units.Uint64(), nil
}

func (a Asset) String() string {
	if a.Symbol != "" {
		return a.Symbol
	}
	return a.AssetId
}
