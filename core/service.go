package core

import (
	"context"

	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
)

type (
	// Observer receives the outcome of every operation, result is "ok" or an
	// ErrorCode.
	Observer interface {
		ObserveOperation(op string, result string)
		ObserveLiquidation(result *LiquidateResult)
	}

	// BankAccountService runs the lending operations of one group. Each
	// operation is a single ledger transaction.
	BankAccountService struct {
		clk      clock.Clock
		log      Log
		group    *Group
		ledger   Ledger
		oracle   PriceOracle
		observer Observer
	}

	HealthReport struct {
		Owner                string `json:"owner"`
		TotalCollateralValue uint64 `json:"totalCollateralValue"`
		TotalBorrowedValue   uint64 `json:"totalBorrowedValue"`
		// keyed by the collateral asset whose threshold applies
		HealthFactors map[string]uint64 `json:"healthFactors"`
		Liquidatable  bool              `json:"liquidatable"`
	}
)

type ServiceOption func(s *BankAccountService)

func WithServiceClock(clk clock.Clock) ServiceOption {
	return func(s *BankAccountService) {
		s.clk = clk
	}
}

func WithLog(log Log) ServiceOption {
	return func(s *BankAccountService) {
		s.log = log
	}
}

func WithObserver(observer Observer) ServiceOption {
	return func(s *BankAccountService) {
		s.observer = observer
	}
}

func NewBankAccountService(group *Group, ledger Ledger, oracle PriceOracle, opts ...ServiceOption) *BankAccountService {
	s := &BankAccountService{
		clk:      clock.New(),
		log:      NopLog(),
		group:    group,
		ledger:   ledger,
		oracle:   oracle,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BankAccountService) Group() *Group {
	return s.group
}

// InitBank creates the pool of assetId. Only the group admin may do so.
func (s *BankAccountService) InitBank(ctx context.Context, signer string, assetId string, bankConfig BankConfig) (bank *Bank, err error) {
	defer func() { s.finish("InitBank", signer, assetId, err) }()

	if !s.group.IsAdmin(signer) {
		return nil, errors.Wrapf(ErrUnauthorized, "%s is not admin of group %s", signer, s.group.Name)
	}
	if _, err := s.group.GetAsset(assetId); err != nil {
		return nil, errors.Wrap(err, assetId)
	}
	if err := bankConfig.Validate(); err != nil {
		return nil, err
	}
	if bankConfig.OracleMaxAge == 0 {
		bankConfig.OracleMaxAge = MAXIMUM_AGE
	}

	err = s.ledger.Transaction(ctx, func(tx LedgerTx) error {
		if _, err := tx.GetBankByAssetId(ctx, assetId); err == nil {
			return errors.Wrap(ErrBankAlreadyExists, assetId)
		} else if !errors.Is(err, ErrBankNotFound) {
			return err
		}
		bank = NewBank(s.clk, s.group.Id, assetId, signer, bankConfig)
		return tx.CreateBank(ctx, bank)
	})
	if err != nil {
		return nil, err
	}
	return bank, nil
}

func (s *BankAccountService) InitAccount(ctx context.Context, owner string) (account *Account, err error) {
	defer func() { s.finish("InitAccount", owner, "", err) }()

	if owner == "" {
		return nil, errors.Wrap(ErrUnauthorized, "empty owner")
	}

	err = s.ledger.Transaction(ctx, func(tx LedgerTx) error {
		if _, err := tx.GetAccountByOwner(ctx, owner); err == nil {
			return errors.Wrap(ErrAccountAlreadyExists, owner)
		} else if !errors.Is(err, ErrAccountNotFound) {
			return err
		}
		account = NewAccount(s.clk, s.group, owner)
		return tx.CreateAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Deposit moves amount from the owner's wallet into the bank treasury and
// credits deposit shares.
func (s *BankAccountService) Deposit(ctx context.Context, owner, assetId string, amount uint64) (*Operate, error) {
	return s.execute(ctx, MATDeposit, owner, assetId, amount, func(tx LedgerTx, ba *BankAccountWrapper) (uint64, error) {
		shares, err := ba.Deposit(s.log, amount)
		if err != nil {
			return 0, err
		}
		return shares, tx.Move(ctx, WalletOf(owner), ba.Bank.Treasury(), assetId, amount, nil)
	})
}

// Withdraw releases up to the deposited amount back to the owner's wallet.
// It does not look at outstanding borrows.
func (s *BankAccountService) Withdraw(ctx context.Context, owner, assetId string, amount uint64) (*Operate, error) {
	return s.execute(ctx, MATWithdraw, owner, assetId, amount, func(tx LedgerTx, ba *BankAccountWrapper) (uint64, error) {
		shares, err := ba.Withdraw(s.log, amount)
		if err != nil {
			return 0, err
		}
		return shares, tx.Move(ctx, ba.Bank.Treasury(), WalletOf(owner), assetId, amount, ba.Bank.TreasuryAuthority())
	})
}

// Borrow lends amount of assetId against the owner's deposit of the other
// group asset, counting interest accrued on that deposit since the account
// was last stamped.
func (s *BankAccountService) Borrow(ctx context.Context, owner, assetId string, amount uint64) (*Operate, error) {
	return s.execute(ctx, MATBorrow, owner, assetId, amount, func(tx LedgerTx, ba *BankAccountWrapper) (uint64, error) {
		collateralAssetId, err := s.group.OppositeAssetId(assetId)
		if err != nil {
			return 0, err
		}
		collateralBank, err := tx.GetBankByAssetId(ctx, collateralAssetId)
		if err != nil {
			return 0, err
		}
		price, err := GetBankPrice(ctx, s.oracle, collateralBank)
		if err != nil {
			return 0, err
		}

		deposited := ba.Account.GetBalance(collateralAssetId).Deposited
		accrued, err := CalcAccruedInterest(deposited, ba.Bank.InterestRate, ba.Account.LastUpdated, s.clk.Now().Unix())
		if err != nil {
			return 0, err
		}
		collateral, err := CheckedAdd(deposited, accrued)
		if err != nil {
			return 0, err
		}
		collateralValue, err := price.ValueOf(collateral)
		if err != nil {
			return 0, err
		}
		if err := CheckBorrowAllowed(collateralValue, ba.Bank.MaxLtv, ba.Balance.Borrowed, amount); err != nil {
			return 0, err
		}

		shares, err := ba.Borrow(s.log, amount)
		if err != nil {
			return 0, err
		}
		return shares, tx.Move(ctx, ba.Bank.Treasury(), WalletOf(owner), assetId, amount, ba.Bank.TreasuryAuthority())
	})
}

func (s *BankAccountService) Repay(ctx context.Context, owner, assetId string, amount uint64) (*Operate, error) {
	return s.execute(ctx, MATRepay, owner, assetId, amount, func(tx LedgerTx, ba *BankAccountWrapper) (uint64, error) {
		shares, err := ba.Repay(s.log, amount)
		if err != nil {
			return 0, err
		}
		return shares, tx.Move(ctx, WalletOf(owner), ba.Bank.Treasury(), assetId, amount, nil)
	})
}

// Liquidate lets liquidator repay part of owner's debt in borrowedAssetId and
// seize owner's collateralAssetId deposit plus the bonus.
func (s *BankAccountService) Liquidate(ctx context.Context, liquidator, owner, collateralAssetId, borrowedAssetId string) (result *LiquidateResult, err error) {
	defer func() {
		s.finish(MATLiquidate.String(), owner, collateralAssetId, err)
		if err == nil {
			s.observer.ObserveLiquidation(result)
		}
	}()

	if collateralAssetId == borrowedAssetId {
		return nil, ErrInvalidLiquidationPair
	}
	collateralAsset, err := s.group.GetAsset(collateralAssetId)
	if err != nil {
		return nil, errors.Wrap(err, collateralAssetId)
	}
	borrowedAsset, err := s.group.GetAsset(borrowedAssetId)
	if err != nil {
		return nil, errors.Wrap(err, borrowedAssetId)
	}

	err = s.ledger.Transaction(ctx, func(tx LedgerTx) error {
		account, err := tx.GetAccountByOwner(ctx, owner)
		if err != nil {
			return err
		}
		engine, err := NewRiskEngine(ctx, tx, s.oracle, s.group, account)
		if err != nil {
			return err
		}
		result, err = engine.ComputeLiquidation(liquidator, collateralAssetId, borrowedAssetId)
		if err != nil {
			return err
		}
		collateralBank := engine.Banks[collateralAssetId].Bank
		borrowedBank := engine.Banks[borrowedAssetId].Bank

		if err := tx.Move(ctx, WalletOf(liquidator), borrowedBank.Treasury(), borrowedAssetId, result.LiquidationAmount, nil); err != nil {
			return err
		}
		if err := tx.Move(ctx, collateralBank.Treasury(), WalletOf(liquidator), collateralAssetId, result.CollateralAmount, collateralBank.TreasuryAuthority()); err != nil {
			return err
		}

		result.Apply(account, collateralBank, borrowedBank)
		now := s.clk.Now().Unix()
		collateralBank.LastUpdated = now
		borrowedBank.LastUpdated = now

		for _, bank := range []*Bank{collateralBank, borrowedBank} {
			if err := bank.CheckShareInvariant(); err != nil {
				return err
			}
			if err := tx.UpdateBank(ctx, bank); err != nil {
				return err
			}
		}
		if err := tx.UpdateAccount(ctx, account); err != nil {
			return err
		}

		operate := NewOperate(s.clk, account, MATLiquidate, OperateDetail{
			Type:  MATLiquidate,
			Actor: liquidator,
			Actions: []ActionDetail{
				NewActionDetail(liquidator, MATRepay, borrowedAsset, result.LiquidationAmount, result.BorrowedShares),
				NewActionDetail(liquidator, MATWithdraw, collateralAsset, result.CollateralAmount, result.CollateralShares),
			},
			Liquidation: result,
		})
		return tx.CreateOperate(ctx, operate)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Msgf("liquidated %s by %s: health %s, repaid %s %s, seized %s %s",
		owner, liquidator, HealthRatio(result.HealthFactor),
		borrowedAsset.ToDecimal(result.LiquidationAmount), borrowedAsset,
		collateralAsset.ToDecimal(result.CollateralAmount), collateralAsset)
	return result, nil
}

// DispatchResult holds the audit record of a single-asset operation or the
// settlement of a liquidation.
type DispatchResult struct {
	Operate     *Operate         `json:"operate,omitempty"`
	Liquidation *LiquidateResult `json:"liquidation,omitempty"`
}

// Dispatch applies a memo instruction on behalf of actor, who is the
// liquidator for MATLiquidate and the account owner otherwise.
func (s *BankAccountService) Dispatch(ctx context.Context, actor string, action *MemoAction) (*DispatchResult, error) {
	if action.ActionType == MATLiquidate {
		result, err := s.Liquidate(ctx, actor, action.Owner, action.AssetId, action.BorrowedAssetId)
		if err != nil {
			return nil, err
		}
		return &DispatchResult{Liquidation: result}, nil
	}

	var fn func(ctx context.Context, owner, assetId string, amount uint64) (*Operate, error)
	switch action.ActionType {
	case MATDeposit:
		fn = s.Deposit
	case MATWithdraw:
		fn = s.Withdraw
	case MATBorrow:
		fn = s.Borrow
	case MATRepay:
		fn = s.Repay
	default:
		return nil, errors.Errorf("unsupported action %s", action.ActionType)
	}

	asset, err := s.group.GetAsset(action.AssetId)
	if err != nil {
		return nil, errors.Wrap(err, action.AssetId)
	}
	amount, err := asset.FromDecimal(action.Amount)
	if err != nil {
		return nil, err
	}
	operate, err := fn(ctx, actor, asset.AssetId, amount)
	if err != nil {
		return nil, err
	}
	return &DispatchResult{Operate: operate}, nil
}

func (s *BankAccountService) GetBank(ctx context.Context, assetId string) (bank *Bank, err error) {
	err = s.ledger.Transaction(ctx, func(tx LedgerTx) error {
		bank, err = tx.GetBankByAssetId(ctx, assetId)
		return err
	})
	return bank, err
}

// ListBanks returns the banks of the group ordered by asset id.
func (s *BankAccountService) ListBanks(ctx context.Context) (banks []*Bank, err error) {
	err = s.ledger.Transaction(ctx, func(tx LedgerTx) error {
		banks, err = tx.ListBanks(ctx)
		return err
	})
	return banks, err
}

func (s *BankAccountService) GetAccount(ctx context.Context, owner string) (account *Account, err error) {
	err = s.ledger.Transaction(ctx, func(tx LedgerTx) error {
		account, err = tx.GetAccountByOwner(ctx, owner)
		return err
	})
	return account, err
}

func (s *BankAccountService) ListOperates(ctx context.Context, owner string, op MemoActionType, limit int) (operates []*Operate, err error) {
	err = s.ledger.Transaction(ctx, func(tx LedgerTx) error {
		operates, err = tx.ListOperates(ctx, owner, op, limit)
		return err
	})
	return operates, err
}

// AccountHealth values the account at current prices without interest.
func (s *BankAccountService) AccountHealth(ctx context.Context, owner string) (report *HealthReport, err error) {
	err = s.ledger.Transaction(ctx, func(tx LedgerTx) error {
		account, err := tx.GetAccountByOwner(ctx, owner)
		if err != nil {
			return err
		}
		engine, err := NewRiskEngine(ctx, tx, s.oracle, s.group, account)
		if err != nil {
			return err
		}
		totalCollateral, totalBorrowed, err := engine.GetAccountHealthComponents()
		if err != nil {
			return err
		}

		report = &HealthReport{
			Owner:                owner,
			TotalCollateralValue: totalCollateral,
			TotalBorrowedValue:   totalBorrowed,
			HealthFactors:        make(map[string]uint64, len(engine.Banks)),
		}
		for assetId, b := range engine.Banks {
			health, err := GetHealthFactor(totalCollateral, totalBorrowed, b.Bank.LiquidationThreshold)
			if err != nil {
				return err
			}
			report.HealthFactors[assetId] = health
			if totalBorrowed > 0 && health < PERCENTAGE_PRECISION {
				report.Liquidatable = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

type operation func(tx LedgerTx, ba *BankAccountWrapper) (shares uint64, err error)

// execute runs a single-asset operation on the owner's account: load, apply,
// persist and audit inside one transaction.
func (s *BankAccountService) execute(ctx context.Context, typ MemoActionType, owner, assetId string, amount uint64, fn operation) (operate *Operate, err error) {
	defer func() { s.finish(typ.String(), owner, assetId, err) }()

	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	asset, err := s.group.GetAsset(assetId)
	if err != nil {
		return nil, errors.Wrap(err, assetId)
	}

	err = s.ledger.Transaction(ctx, func(tx LedgerTx) error {
		bank, err := tx.GetBankByAssetId(ctx, assetId)
		if err != nil {
			return err
		}
		account, err := tx.GetAccountByOwner(ctx, owner)
		if err != nil {
			return err
		}

		ba := NewBankAccountWrapper(bank, account, WithClock(s.clk))
		shares, err := fn(tx, ba)
		if err != nil {
			return err
		}
		if err := bank.CheckShareInvariant(); err != nil {
			return err
		}
		if err := tx.UpdateBank(ctx, bank); err != nil {
			return err
		}
		if err := tx.UpdateAccount(ctx, account); err != nil {
			return err
		}

		operate = NewOperate(s.clk, account, typ, OperateDetail{
			Type:    typ,
			Actor:   owner,
			Actions: []ActionDetail{NewActionDetail(owner, typ, asset, amount, shares)},
		})
		return tx.CreateOperate(ctx, operate)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Msgf("%s %s %s by %s", typ, asset.ToDecimal(amount), asset, owner)
	return operate, nil
}

func (s *BankAccountService) finish(op, owner, assetId string, err error) {
	s.observer.ObserveOperation(op, ErrorCode(err))
	if err != nil {
		s.log.Warn().Err(err).Str("owner", owner).Str("asset", assetId).Msgf("%s failed", op)
	}
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string)     {}
func (nopObserver) ObserveLiquidation(*LiquidateResult) {}
