package core

import (
	"context"

	"github.com/pkg/errors"
)

type (
	// PriceOracle returns the latest price of a feed, or ErrStalePrice when
	// the feed is missing or older than maxAge seconds.
	PriceOracle interface {
		GetPriceNoOlderThan(ctx context.Context, feedId string, maxAge int64) (*Price, error)
	}

	// Price is price * 10^exponent units of value per raw token unit.
	Price struct {
		FeedId      string `json:"feedId"`
		Price       int64  `json:"price"`
		Exponent    int32  `json:"exponent"`
		Confidence  uint64 `json:"confidence"`
		PublishTime int64  `json:"publishTime"`
	}
)

func (p *Price) IsStale(now, maxAge int64) bool {
	return now-p.PublishTime > maxAge
}

func (p *Price) positive() (uint64, error) {
	if p.Price <= 0 {
		return 0, errors.Wrapf(ErrInvalidPrice, "feed %s price %d", p.FeedId, p.Price)
	}
	return uint64(p.Price), nil
}

func (p *Price) ValueOf(amount uint64) (uint64, error) {
	price, err := p.positive()
	if err != nil {
		return 0, err
	}
	return ValueOf(amount, price, p.Exponent)
}

func (p *Price) AmountFor(value uint64) (uint64, error) {
	price, err := p.positive()
	if err != nil {
		return 0, err
	}
	return AmountFor(value, price, p.Exponent)
}

// GetBankPrice fetches the price of a bank's feed and rejects non-positive
// prices before any conversion happens.
func GetBankPrice(ctx context.Context, oracle PriceOracle, bank *Bank) (*Price, error) {
	price, err := oracle.GetPriceNoOlderThan(ctx, bank.OracleFeedId, bank.GetOracleMaxAge())
	if err != nil {
		return nil, err
	}
	if _, err := price.positive(); err != nil {
		return nil, err
	}
	return price, nil
}
