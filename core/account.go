package core

import (
	"context"
	"math/big"
	"sort"

	"github.com/DomeLiquid/lending/utils"
	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type (
	AccountStore interface {
		CreateAccount(ctx context.Context, account *Account) error
		GetAccountByOwner(ctx context.Context, owner string) (*Account, error)
		UpdateAccount(ctx context.Context, account *Account) error
	}

	// Account is one participant's position across both assets of a group.
	Account struct {
		Id      uuid.UUID `json:"id"`
		GroupId uuid.UUID `json:"groupId"`
		Owner   string    `json:"owner"`

		Balances         map[string]*Balance `json:"balances"`
		SecondaryAssetId string              `json:"secondaryAssetId"`

		// written by liquidation only, may be stale
		HealthFactor uint64 `json:"healthFactor"`

		CreatedAt   int64 `json:"createdAt"`
		LastUpdated int64 `json:"lastUpdated"`
	}
)

func NewAccount(clk clock.Clock, group *Group, owner string) *Account {
	balances := make(map[string]*Balance, 2)
	for _, asset := range group.Assets() {
		balances[asset.AssetId] = NewBalance(asset.AssetId)
	}
	return &Account{
		Id:               uuid.Must(uuid.FromString(utils.GenUuidFromStrings(group.Id.String(), owner))),
		GroupId:          group.Id,
		Owner:            owner,
		Balances:         balances,
		SecondaryAssetId: group.SecondaryAsset.AssetId,
		CreatedAt:        clk.Now().Unix(),
		LastUpdated:      clk.Now().Unix(),
	}
}

func (a *Account) Clone() *Account {
	c := *a
	c.Balances = make(map[string]*Balance, len(a.Balances))
	for assetId, balance := range a.Balances {
		c.Balances[assetId] = balance.Clone()
	}
	return &c
}

// GetBalance returns the balance of assetId, creating an empty one when the
// account has never touched it.
func (a *Account) GetBalance(assetId string) *Balance {
	if a.Balances == nil {
		a.Balances = make(map[string]*Balance)
	}
	balance, ok := a.Balances[assetId]
	if !ok {
		balance = NewBalance(assetId)
		a.Balances[assetId] = balance
	}
	return balance
}

func (a *Account) SortedBalances() []*Balance {
	balances := make([]*Balance, 0, len(a.Balances))
	for _, b := range a.Balances {
		balances = append(balances, b)
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].AssetId < balances[j].AssetId
	})
	return balances
}

// HealthRatio renders a health factor as a multiple of full coverage, 1.2 for
// a factor of 120.
func HealthRatio(healthFactor uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(healthFactor), 0).Div(decimal.NewFromInt(PERCENTAGE_PRECISION))
}
