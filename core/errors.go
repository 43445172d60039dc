package core

import (
	"github.com/pkg/errors"
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrMathOverflow           = errors.New("math overflow")
	ErrInvalidPrice           = errors.New("invalid price")
	ErrStalePrice             = errors.New("stale or missing price")
	ErrOverBorrowableAmount   = errors.New("over borrowable amount")
	ErrOverRepay              = errors.New("over repay")
	ErrNotUndercollateralized = errors.New("account is not undercollateralized")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrInsufficientFunds      = errors.New("insufficient funds")

	ErrBankNotFound           = errors.New("bank not found")
	ErrBankAlreadyExists      = errors.New("bank already exists")
	ErrAccountNotFound        = errors.New("account not found")
	ErrAccountAlreadyExists   = errors.New("account already exists")
	ErrGroupNotFound          = errors.New("group not found")
	ErrUnknownAsset           = errors.New("asset is not part of the group")
	ErrInvalidConfig          = errors.New("invalid bank config")
	ErrInvalidLiquidationPair = errors.New("collateral and borrowed asset must differ")
	ErrIllegalBankState       = errors.New("bank shares and totals out of sync")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInvalidAmount, "invalid_amount"},
	{ErrMathOverflow, "math_overflow"},
	{ErrInvalidPrice, "invalid_price"},
	{ErrStalePrice, "stale_price"},
	{ErrOverBorrowableAmount, "over_borrowable_amount"},
	{ErrOverRepay, "over_repay"},
	{ErrNotUndercollateralized, "not_undercollateralized"},
	{ErrUnauthorized, "unauthorized"},
	{ErrInsufficientFunds, "insufficient_funds"},
	{ErrBankNotFound, "bank_not_found"},
	{ErrBankAlreadyExists, "bank_already_exists"},
	{ErrAccountNotFound, "account_not_found"},
	{ErrAccountAlreadyExists, "account_already_exists"},
	{ErrGroupNotFound, "group_not_found"},
	{ErrUnknownAsset, "unknown_asset"},
	{ErrInvalidConfig, "invalid_config"},
	{ErrInvalidLiquidationPair, "invalid_liquidation_pair"},
	{ErrIllegalBankState, "illegal_bank_state"},
}

// ErrorCode maps an error to a stable label, "ok" for nil and "internal" for
// anything that is not one of the package sentinels.
func ErrorCode(err error) string {
	if err == nil {
		return "ok"
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}
