package core

type Balance struct {
	AssetId string `json:"assetId"`

	Deposited       uint64 `json:"deposited"`
	DepositedShares uint64 `json:"depositedShares"`
	Borrowed        uint64 `json:"borrowed"`
	BorrowedShares  uint64 `json:"borrowedShares"`
}

func NewBalance(assetId string) *Balance {
	return &Balance{AssetId: assetId}
}

func (b *Balance) Clone() *Balance {
	c := *b
	return &c
}

func (b *Balance) IsEmpty(side BalanceSide) bool {
	switch side {
	case BalanceSideDeposits:
		return b.Deposited == 0 && b.DepositedShares == 0
	case BalanceSideBorrows:
		return b.Borrowed == 0 && b.BorrowedShares == 0
	default:
		return true
	}
}

func (b *Balance) AddDeposit(amount, shares uint64) error {
	deposited, err := CheckedAdd(b.Deposited, amount)
	if err != nil {
		return err
	}
	depositedShares, err := CheckedAdd(b.DepositedShares, shares)
	if err != nil {
		return err
	}
	b.Deposited, b.DepositedShares = deposited, depositedShares
	return nil
}

func (b *Balance) SubDeposit(amount, shares uint64) error {
	deposited, err := CheckedSub(b.Deposited, amount)
	if err != nil {
		return err
	}
	depositedShares, err := CheckedSub(b.DepositedShares, shares)
	if err != nil {
		return err
	}
	b.Deposited, b.DepositedShares = deposited, depositedShares
	return nil
}

func (b *Balance) AddBorrow(amount, shares uint64) error {
	borrowed, err := CheckedAdd(b.Borrowed, amount)
	if err != nil {
		return err
	}
	borrowedShares, err := CheckedAdd(b.BorrowedShares, shares)
	if err != nil {
		return err
	}
	b.Borrowed, b.BorrowedShares = borrowed, borrowedShares
	return nil
}

func (b *Balance) SubBorrow(amount, shares uint64) error {
	borrowed, err := CheckedSub(b.Borrowed, amount)
	if err != nil {
		return err
	}
	borrowedShares, err := CheckedSub(b.BorrowedShares, shares)
	if err != nil {
		return err
	}
	b.Borrowed, b.BorrowedShares = borrowed, borrowedShares
	return nil
}

// 清算时扣减不会报错，最多扣到 0
func (b *Balance) ClampSub(side BalanceSide, amount, shares uint64) {
	switch side {
	case BalanceSideDeposits:
		b.Deposited = SaturatingSub(b.Deposited, amount)
		b.DepositedShares = SaturatingSub(b.DepositedShares, shares)
	case BalanceSideBorrows:
		b.Borrowed = SaturatingSub(b.Borrowed, amount)
		b.BorrowedShares = SaturatingSub(b.BorrowedShares, shares)
	}
}
