package oracle

import (
	"context"
	"sync"

	"github.com/DomeLiquid/lending/core"
	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
)

// FeedOracle keeps the last pushed price of every feed and serves it while it
// is younger than the caller's max age.
type FeedOracle struct {
	clk clock.Clock

	mu     sync.RWMutex
	prices map[string]core.Price
}

func NewFeedOracle(clk clock.Clock) *FeedOracle {
	return &FeedOracle{
		clk:    clk,
		prices: make(map[string]core.Price),
	}
}

// Update stores price unless a newer one for the same feed is already held.
func (o *FeedOracle) Update(price core.Price) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if current, ok := o.prices[price.FeedId]; ok && current.PublishTime > price.PublishTime {
		return false
	}
	o.prices[price.FeedId] = price
	return true
}

func (o *FeedOracle) GetPriceNoOlderThan(_ context.Context, feedId string, maxAge int64) (*core.Price, error) {
	o.mu.RLock()
	price, ok := o.prices[feedId]
	o.mu.RUnlock()

	if !ok {
		return nil, errors.Wrapf(core.ErrStalePrice, "no price for feed %s", feedId)
	}
	if price.IsStale(o.clk.Now().Unix(), maxAge) {
		return nil, errors.Wrapf(core.ErrStalePrice, "feed %s published at %d", feedId, price.PublishTime)
	}
	return &price, nil
}
