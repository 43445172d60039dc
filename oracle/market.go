package oracle

import (
	"encoding/json"
	"io"
	"time"

	"github.com/DomeLiquid/lending/core"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// DEFAULT_EXPONENT keeps eight decimals of a quoted price.
const DEFAULT_EXPONENT int32 = -8

// MarketAssetInfo is the subset of a market quote needed to derive a feed
// price.
type MarketAssetInfo struct {
	CoinID       string          `json:"coin_id"`
	Symbol       string          `json:"symbol"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ReadMarketAssets decodes a JSON list of market quotes keyed by coin id.
func ReadMarketAssets(r io.Reader) (map[string]MarketAssetInfo, error) {
	var infos []MarketAssetInfo
	if err := json.NewDecoder(r).Decode(&infos); err != nil {
		return nil, errors.Wrap(err, "decode market quotes")
	}
	quotes := make(map[string]MarketAssetInfo, len(infos))
	for _, info := range infos {
		if info.CoinID == "" {
			return nil, errors.Errorf("market quote %q has no coin id", info.Symbol)
		}
		quotes[info.CoinID] = info
	}
	return quotes, nil
}

func (m MarketAssetInfo) ToPrice(feedId string, exponent int32) (core.Price, error) {
	return PriceFromDecimal(feedId, m.CurrentPrice, exponent, m.UpdatedAt.Unix())
}

// PriceFromDecimal scales a quoted price to an integer mantissa at exponent,
// truncating digits beyond it.
func PriceFromDecimal(feedId string, price decimal.Decimal, exponent int32, publishTime int64) (core.Price, error) {
	mantissa := price.Shift(-exponent).Truncate(0)
	if !mantissa.BigInt().IsInt64() {
		return core.Price{}, errors.Wrapf(core.ErrMathOverflow, "price %s at exponent %d", price, exponent)
	}
	return core.Price{
		FeedId:      feedId,
		Price:       mantissa.IntPart(),
		Exponent:    exponent,
		PublishTime: publishTime,
	}, nil
}
