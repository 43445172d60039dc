package core

import (
	"context"

	"github.com/DomeLiquid/lending/utils"
	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
)

type (
	BankStore interface {
		CreateBank(ctx context.Context, bank *Bank) error
		GetBankByAssetId(ctx context.Context, assetId string) (*Bank, error)
		UpdateBank(ctx context.Context, bank *Bank) error
		ListBanks(ctx context.Context) ([]*Bank, error)
	}

	// Bank is the pool of a single asset. Deposits and borrows are tracked
	// both as raw amounts and as shares of the running totals.
	Bank struct {
		Id        uuid.UUID `json:"id"`
		GroupId   uuid.UUID `json:"groupId"`
		AssetId   string    `json:"assetId"`
		Authority string    `json:"authority"`

		TotalDeposits       uint64 `json:"totalDeposits"`
		TotalDepositShares  uint64 `json:"totalDepositShares"`
		TotalBorrowed       uint64 `json:"totalBorrowed"`
		TotalBorrowedShares uint64 `json:"totalBorrowedShares"`

		BankConfig `json:"bankConfig"`

		CreatedAt   int64 `json:"createdAt"`
		LastUpdated int64 `json:"lastUpdated"`
	}

	BankConfig struct {
		// percent of collateral value counted toward health
		LiquidationThreshold uint64 `json:"liquidationThreshold"`
		// percent bonus paid to liquidators on seized collateral
		LiquidationBonus uint64 `json:"liquidationBonus"`
		// percent of the borrowed value closed per liquidation
		LiquidationCloseFactor uint64 `json:"liquidationCloseFactor"`
		MaxLtv                 uint64 `json:"maxLtv"`
		// basis points per year
		InterestRate uint64 `json:"interestRate"`

		OracleFeedId string `json:"oracleFeedId"`
		OracleMaxAge int64  `json:"oracleMaxAge"`
	}
)

type BalanceSide uint8

const (
	BalanceSideDeposits BalanceSide = iota
	BalanceSideBorrows
)

func (bs BalanceSide) String() string {
	switch bs {
	case BalanceSideDeposits:
		return "Deposits"
	case BalanceSideBorrows:
		return "Borrows"
	default:
		return "Unknown"
	}
}

func (bc *BankConfig) Validate() error {
	if bc.OracleFeedId == "" {
		return errors.Wrap(ErrInvalidConfig, "oracle feed id is required")
	}
	if bc.LiquidationCloseFactor > PERCENTAGE_PRECISION {
		return errors.Wrapf(ErrInvalidConfig, "close factor %d exceeds %d", bc.LiquidationCloseFactor, PERCENTAGE_PRECISION)
	}
	if bc.OracleMaxAge < 0 {
		return errors.Wrapf(ErrInvalidConfig, "negative oracle max age %d", bc.OracleMaxAge)
	}
	return nil
}

func (bc *BankConfig) GetOracleMaxAge() int64 {
	if bc.OracleMaxAge == 0 {
		return MAXIMUM_AGE
	}
	return bc.OracleMaxAge
}

func NewBank(clk clock.Clock, groupId uuid.UUID, assetId string, authority string, bankConfig BankConfig) *Bank {
	return &Bank{
		Id:          uuid.Must(uuid.FromString(utils.GenUuidFromStrings(groupId.String(), assetId))),
		GroupId:     groupId,
		AssetId:     assetId,
		Authority:   authority,
		BankConfig:  bankConfig,
		CreatedAt:   clk.Now().Unix(),
		LastUpdated: clk.Now().Unix(),
	}
}

func (b *Bank) Clone() *Bank {
	c := *b
	return &c
}

// GetDepositShares returns the shares minted for a deposit of amount.
func (b *Bank) GetDepositShares(amount uint64) (uint64, error) {
	return CalcShares(amount, b.TotalDepositShares, b.TotalDeposits)
}

func (b *Bank) GetBorrowShares(amount uint64) (uint64, error) {
	return CalcShares(amount, b.TotalBorrowedShares, b.TotalBorrowed)
}

// GetDepositSharesToRemove returns the shares burned when amount leaves the
// deposit side. An empty pool has nothing to burn.
func (b *Bank) GetDepositSharesToRemove(amount uint64) (uint64, error) {
	if b.TotalDeposits == 0 {
		return 0, ErrMathOverflow
	}
	return MulDiv(amount, b.TotalDepositShares, b.TotalDeposits)
}

func (b *Bank) GetBorrowSharesToRemove(amount uint64) (uint64, error) {
	if b.TotalBorrowed == 0 {
		return 0, ErrMathOverflow
	}
	return MulDiv(amount, b.TotalBorrowedShares, b.TotalBorrowed)
}

// GetLiquidationShares is GetXSharesToRemove for the liquidation path, where
// an empty side yields zero shares instead of an error.
func (b *Bank) GetLiquidationShares(amount uint64, side BalanceSide) (uint64, error) {
	total, totalShares := b.TotalDeposits, b.TotalDepositShares
	if side == BalanceSideBorrows {
		total, totalShares = b.TotalBorrowed, b.TotalBorrowedShares
	}
	if total == 0 {
		return 0, nil
	}
	return MulDiv(amount, totalShares, total)
}

func (b *Bank) CheckShareInvariant() error {
	if (b.TotalDeposits == 0) != (b.TotalDepositShares == 0) {
		return errors.Wrapf(ErrIllegalBankState, "bank %s deposits %d shares %d", b.AssetId, b.TotalDeposits, b.TotalDepositShares)
	}
	if (b.TotalBorrowed == 0) != (b.TotalBorrowedShares == 0) {
		return errors.Wrapf(ErrIllegalBankState, "bank %s borrowed %d shares %d", b.AssetId, b.TotalBorrowed, b.TotalBorrowedShares)
	}
	return nil
}

// TreasuryAuthority issues the credential that releases funds held in this
// bank's treasury.
func (b *Bank) TreasuryAuthority() *TreasuryAuthority {
	return &TreasuryAuthority{treasury: TreasuryOf(b.AssetId)}
}

func (b *Bank) Treasury() CustodyId {
	return TreasuryOf(b.AssetId)
}
