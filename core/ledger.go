package core

import "context"

type (
	// LedgerTx is the view of the ledger inside one transaction.
	LedgerTx interface {
		BankStore
		AccountStore
		OperateStore
		ValueTransfer
	}

	// Ledger runs fn atomically. Every write made through tx, including
	// custody moves, is discarded when fn returns an error.
	Ledger interface {
		Transaction(ctx context.Context, fn func(tx LedgerTx) error) error
	}
)
