package core

import (
	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
)

// BankAccountWrapper pairs a bank with one account's balance in that bank.
// Its operations only touch the ledger records, custody moves and risk checks
// belong to the caller.
type BankAccountWrapper struct {
	clk clock.Clock `json:"-"`

	Bank    *Bank    `json:"bank"`
	Account *Account `json:"account"`
	Balance *Balance `json:"balance"`
}

type OptionFunc func(ba *BankAccountWrapper)

func WithClock(clk clock.Clock) OptionFunc {
	return func(ba *BankAccountWrapper) {
		ba.clk = clk
	}
}

func NewBankAccountWrapper(bank *Bank, account *Account, opts ...OptionFunc) *BankAccountWrapper {
	ba := &BankAccountWrapper{
		Bank:    bank,
		Account: account,
		Balance: account.GetBalance(bank.AssetId),
		clk:     clock.New(),
	}
	for _, opt := range opts {
		opt(ba)
	}
	return ba
}

// Deposit credits amount and mints deposit shares, returning the shares.
func (ba *BankAccountWrapper) Deposit(log Log, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	bank := ba.Bank

	shares, err := bank.GetDepositShares(amount)
	if err != nil {
		return 0, err
	}
	totalDeposits, err := CheckedAdd(bank.TotalDeposits, amount)
	if err != nil {
		return 0, err
	}
	totalShares, err := CheckedAdd(bank.TotalDepositShares, shares)
	if err != nil {
		return 0, err
	}
	if err := ba.Balance.AddDeposit(amount, shares); err != nil {
		return 0, err
	}
	bank.TotalDeposits, bank.TotalDepositShares = totalDeposits, totalShares

	now := ba.clk.Now().Unix()
	ba.Account.LastUpdated = now
	bank.LastUpdated = now

	log.Debug().Msgf("deposit %d %s, shares %d, bank total %d/%d", amount, bank.AssetId, shares, bank.TotalDeposits, bank.TotalDepositShares)
	return shares, nil
}

// Withdraw is the inverse of Deposit.
func (ba *BankAccountWrapper) Withdraw(log Log, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	bank, balance := ba.Bank, ba.Balance

	if amount > balance.Deposited {
		return 0, errors.Wrapf(ErrInsufficientFunds, "withdraw %d, deposited %d", amount, balance.Deposited)
	}
	shares, err := bank.GetDepositSharesToRemove(amount)
	if err != nil {
		return 0, err
	}
	if shares > balance.DepositedShares {
		return 0, errors.Wrapf(ErrMathOverflow, "withdraw burns %d shares, holds %d", shares, balance.DepositedShares)
	}
	totalDeposits, err := CheckedSub(bank.TotalDeposits, amount)
	if err != nil {
		return 0, err
	}
	totalShares, err := CheckedSub(bank.TotalDepositShares, shares)
	if err != nil {
		return 0, err
	}
	if err := balance.SubDeposit(amount, shares); err != nil {
		return 0, err
	}
	bank.TotalDeposits, bank.TotalDepositShares = totalDeposits, totalShares

	now := ba.clk.Now().Unix()
	ba.Account.LastUpdated = now
	bank.LastUpdated = now

	log.Debug().Msgf("withdraw %d %s, shares %d, bank total %d/%d", amount, bank.AssetId, shares, bank.TotalDeposits, bank.TotalDepositShares)
	return shares, nil
}

// Borrow records a borrow that the caller has already admitted.
func (ba *BankAccountWrapper) Borrow(log Log, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	bank := ba.Bank

	shares, err := bank.GetBorrowShares(amount)
	if err != nil {
		return 0, err
	}
	totalBorrowed, err := CheckedAdd(bank.TotalBorrowed, amount)
	if err != nil {
		return 0, err
	}
	totalShares, err := CheckedAdd(bank.TotalBorrowedShares, shares)
	if err != nil {
		return 0, err
	}
	if err := ba.Balance.AddBorrow(amount, shares); err != nil {
		return 0, err
	}
	bank.TotalBorrowed, bank.TotalBorrowedShares = totalBorrowed, totalShares
	// the account stamp anchors interest on the collateral side, leave it
	bank.LastUpdated = ba.clk.Now().Unix()

	log.Debug().Msgf("borrow %d %s, shares %d, bank total %d/%d", amount, bank.AssetId, shares, bank.TotalBorrowed, bank.TotalBorrowedShares)
	return shares, nil
}

func (ba *BankAccountWrapper) Repay(log Log, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	bank, balance := ba.Bank, ba.Balance

	if amount > balance.Borrowed {
		return 0, errors.Wrapf(ErrOverRepay, "repay %d, borrowed %d", amount, balance.Borrowed)
	}
	shares, err := bank.GetBorrowSharesToRemove(amount)
	if err != nil {
		return 0, err
	}
	if shares > balance.BorrowedShares {
		return 0, errors.Wrapf(ErrMathOverflow, "repay burns %d shares, holds %d", shares, balance.BorrowedShares)
	}
	totalBorrowed, err := CheckedSub(bank.TotalBorrowed, amount)
	if err != nil {
		return 0, err
	}
	totalShares, err := CheckedSub(bank.TotalBorrowedShares, shares)
	if err != nil {
		return 0, err
	}
	if err := balance.SubBorrow(amount, shares); err != nil {
		return 0, err
	}
	bank.TotalBorrowed, bank.TotalBorrowedShares = totalBorrowed, totalShares
	bank.LastUpdated = ba.clk.Now().Unix()

	log.Debug().Msgf("repay %d %s, shares %d, bank total %d/%d", amount, bank.AssetId, shares, bank.TotalBorrowed, bank.TotalBorrowedShares)
	return shares, nil
}
