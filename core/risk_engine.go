package core

import (
	"context"
	"math"

	"github.com/pkg/errors"
)

type BankWithPrice struct {
	Bank  *Bank
	Price *Price
}

type RiskEngine struct {
	Account *Account
	Banks   map[string]*BankWithPrice
}

// NewRiskEngine loads the bank and a fresh price for every asset of the group.
func NewRiskEngine(ctx context.Context, bankStore BankStore, oracle PriceOracle, group *Group, account *Account) (*RiskEngine, error) {
	banks := make(map[string]*BankWithPrice, 2)
	for _, asset := range group.Assets() {
		bank, err := bankStore.GetBankByAssetId(ctx, asset.AssetId)
		if err != nil {
			return nil, err
		}
		price, err := GetBankPrice(ctx, oracle, bank)
		if err != nil {
			return nil, err
		}
		banks[asset.AssetId] = &BankWithPrice{Bank: bank, Price: price}
	}
	return &RiskEngine{
		Account: account,
		Banks:   banks,
	}, nil
}

func (r *RiskEngine) GetBankWithPrice(assetId string) (*BankWithPrice, error) {
	b, ok := r.Banks[assetId]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownAsset, "no bank loaded for %s", assetId)
	}
	return b, nil
}

// GetAccountHealthComponents sums the value of every deposit and every
// borrow of the account at current prices. Accrued interest is not included.
func (r *RiskEngine) GetAccountHealthComponents() (uint64, uint64, error) {
	var totalCollateral, totalBorrowed uint64
	for _, balance := range r.Account.SortedBalances() {
		if balance.IsEmpty(BalanceSideDeposits) && balance.IsEmpty(BalanceSideBorrows) {
			continue
		}
		b, err := r.GetBankWithPrice(balance.AssetId)
		if err != nil {
			return 0, 0, err
		}

		collateral, err := b.Price.ValueOf(balance.Deposited)
		if err != nil {
			return 0, 0, err
		}
		if totalCollateral, err = CheckedAdd(totalCollateral, collateral); err != nil {
			return 0, 0, err
		}

		borrowed, err := b.Price.ValueOf(balance.Borrowed)
		if err != nil {
			return 0, 0, err
		}
		if totalBorrowed, err = CheckedAdd(totalBorrowed, borrowed); err != nil {
			return 0, 0, err
		}
	}
	return totalCollateral, totalBorrowed, nil
}

// GetHealthFactor is collateral * threshold / borrowed, 100 meaning exactly
// covered. An account without borrows, or one whose ratio does not fit in
// uint64, reports math.MaxUint64.
func GetHealthFactor(totalCollateral, totalBorrowed, liquidationThreshold uint64) (uint64, error) {
	if totalBorrowed == 0 {
		return math.MaxUint64, nil
	}
	health, err := MulDiv(totalCollateral, liquidationThreshold, totalBorrowed)
	if errors.Is(err, ErrMathOverflow) {
		return math.MaxUint64, nil
	}
	return health, err
}

// CheckPreLiquidationCondition returns the health components when the
// account may be liquidated against collateralAssetId.
func (r *RiskEngine) CheckPreLiquidationCondition(collateralAssetId string) (health, totalCollateral, totalBorrowed uint64, err error) {
	collateral, err := r.GetBankWithPrice(collateralAssetId)
	if err != nil {
		return 0, 0, 0, err
	}

	totalCollateral, totalBorrowed, err = r.GetAccountHealthComponents()
	if err != nil {
		return 0, 0, 0, err
	}
	if totalBorrowed == 0 {
		return 0, 0, 0, ErrNotUndercollateralized
	}

	health, err = GetHealthFactor(totalCollateral, totalBorrowed, collateral.Bank.LiquidationThreshold)
	if err != nil {
		return 0, 0, 0, err
	}
	if health >= PERCENTAGE_PRECISION {
		return 0, 0, 0, errors.Wrapf(ErrNotUndercollateralized, "health factor %d", health)
	}
	return health, totalCollateral, totalBorrowed, nil
}

// ComputeLiquidation sizes a liquidation without mutating anything. Close
// factor and bonus come from the collateral bank. Shares are computed on the
// totals as they stand before settlement.
func (r *RiskEngine) ComputeLiquidation(liquidator, collateralAssetId, borrowedAssetId string) (*LiquidateResult, error) {
	if collateralAssetId == borrowedAssetId {
		return nil, ErrInvalidLiquidationPair
	}
	collateral, err := r.GetBankWithPrice(collateralAssetId)
	if err != nil {
		return nil, err
	}
	borrowed, err := r.GetBankWithPrice(borrowedAssetId)
	if err != nil {
		return nil, err
	}

	health, totalCollateral, totalBorrowed, err := r.CheckPreLiquidationCondition(collateralAssetId)
	if err != nil {
		return nil, err
	}

	liquidationValue, err := MulDiv(totalBorrowed, collateral.Bank.LiquidationCloseFactor, PERCENTAGE_PRECISION)
	if err != nil {
		return nil, err
	}
	liquidationAmount, err := borrowed.Price.AmountFor(liquidationValue)
	if err != nil {
		return nil, err
	}

	bonus, err := CheckedAdd(PERCENTAGE_PRECISION, collateral.Bank.LiquidationBonus)
	if err != nil {
		return nil, err
	}
	collateralValue, err := MulDiv(liquidationValue, bonus, PERCENTAGE_PRECISION)
	if err != nil {
		return nil, err
	}
	collateralAmount, err := collateral.Price.AmountFor(collateralValue)
	if err != nil {
		return nil, err
	}

	borrowedShares, err := borrowed.Bank.GetLiquidationShares(liquidationAmount, BalanceSideBorrows)
	if err != nil {
		return nil, err
	}
	collateralShares, err := collateral.Bank.GetLiquidationShares(collateralAmount, BalanceSideDeposits)
	if err != nil {
		return nil, err
	}

	return &LiquidateResult{
		Liquidator:           liquidator,
		Liquidatee:           r.Account.Owner,
		CollateralAssetId:    collateralAssetId,
		BorrowedAssetId:      borrowedAssetId,
		HealthFactor:         health,
		TotalCollateralValue: totalCollateral,
		TotalBorrowedValue:   totalBorrowed,
		LiquidationValue:     liquidationValue,
		LiquidationAmount:    liquidationAmount,
		CollateralValue:      collateralValue,
		CollateralAmount:     collateralAmount,
		BorrowedShares:       borrowedShares,
		CollateralShares:     collateralShares,
	}, nil
}

// CheckBorrowAllowed admits a borrow while existing + amount stays within
// collateralValue * maxLtv. The product is not divided by 100.
func CheckBorrowAllowed(collateralValue, maxLtv, existingBorrowed, amount uint64) error {
	borrowable, err := CheckedMul(collateralValue, maxLtv)
	if err != nil {
		return err
	}
	after, err := CheckedAdd(existingBorrowed, amount)
	if err != nil {
		return err
	}
	if after > borrowable {
		return errors.Wrapf(ErrOverBorrowableAmount, "borrowable %d, requested total %d", borrowable, after)
	}
	return nil
}
