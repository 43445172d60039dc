package core

type LiquidationBalances struct {
	CollateralBalance *Balance `json:"collateralBalance"`
	BorrowedBalance   *Balance `json:"borrowedBalance"`
}

type LiquidateResult struct {
	Liquidator string `json:"liquidator"`
	Liquidatee string `json:"liquidatee"`

	CollateralAssetId string `json:"collateralAssetId"`
	BorrowedAssetId   string `json:"borrowedAssetId"`

	HealthFactor         uint64 `json:"healthFactor"`
	TotalCollateralValue uint64 `json:"totalCollateralValue"`
	TotalBorrowedValue   uint64 `json:"totalBorrowedValue"`

	// repaid by the liquidator, in value units and borrowed asset units
	LiquidationValue  uint64 `json:"liquidationValue"`
	LiquidationAmount uint64 `json:"liquidationAmount"`
	// paid out to the liquidator including the bonus
	CollateralValue  uint64 `json:"collateralValue"`
	CollateralAmount uint64 `json:"collateralAmount"`

	BorrowedShares   uint64 `json:"borrowedShares"`
	CollateralShares uint64 `json:"collateralShares"`

	PreBalances  *LiquidationBalances `json:"preBalances,omitempty"`
	PostBalances *LiquidationBalances `json:"postBalances,omitempty"`
}

// Apply settles the liquidation against the liquidatee's account and both
// banks. Every decrement clamps at zero.
func (r *LiquidateResult) Apply(account *Account, collateralBank, borrowedBank *Bank) {
	collateralBalance := account.GetBalance(r.CollateralAssetId)
	borrowedBalance := account.GetBalance(r.BorrowedAssetId)
	r.PreBalances = &LiquidationBalances{
		CollateralBalance: collateralBalance.Clone(),
		BorrowedBalance:   borrowedBalance.Clone(),
	}

	borrowedBalance.ClampSub(BalanceSideBorrows, r.LiquidationAmount, r.BorrowedShares)
	borrowedBank.TotalBorrowed = SaturatingSub(borrowedBank.TotalBorrowed, r.LiquidationAmount)
	borrowedBank.TotalBorrowedShares = SaturatingSub(borrowedBank.TotalBorrowedShares, r.BorrowedShares)

	collateralBalance.ClampSub(BalanceSideDeposits, r.CollateralAmount, r.CollateralShares)
	collateralBank.TotalDeposits = SaturatingSub(collateralBank.TotalDeposits, r.CollateralAmount)
	collateralBank.TotalDepositShares = SaturatingSub(collateralBank.TotalDepositShares, r.CollateralShares)

	account.HealthFactor = r.HealthFactor

	r.PostBalances = &LiquidationBalances{
		CollateralBalance: collateralBalance.Clone(),
		BorrowedBalance:   borrowedBalance.Clone(),
	}
}
