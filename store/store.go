package store

import (
	"context"

	"github.com/DomeLiquid/lending/core"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger persists banks, accounts, audit records and custody balances in one
// database so that a ledger transaction also covers the custody moves.
type Ledger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) Transaction(ctx context.Context, fn func(tx core.LedgerTx) error) error {
	return l.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&Tx{db: db})
	})
}

// Credit mints amount into custody. It is the entry point for funds that
// arrive from outside the ledger.
func (l *Ledger) Credit(ctx context.Context, custody core.CustodyId, assetId string, amount uint64) error {
	return l.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		tx := &Tx{db: db}
		record, err := tx.findCustody(custody, assetId)
		if err != nil {
			return err
		}
		total, err := core.CheckedAdd(uint64(record.Amount), amount)
		if err != nil {
			return err
		}
		record.Amount = Amount(total)
		return tx.saveCustody(record)
	})
}

func (l *Ledger) CustodyBalance(ctx context.Context, custody core.CustodyId, assetId string) (uint64, error) {
	tx := &Tx{db: l.db.WithContext(ctx)}
	record, err := tx.findCustody(custody, assetId)
	if err != nil {
		return 0, err
	}
	return uint64(record.Amount), nil
}

func (l *Ledger) CreateGroup(ctx context.Context, group *core.Group) error {
	return l.db.WithContext(ctx).Create(newGroupRecord(group)).Error
}

func (l *Ledger) GetGroupByName(ctx context.Context, name string) (*core.Group, error) {
	var record GroupRecord
	if err := l.db.WithContext(ctx).Where("name = ?", name).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(core.ErrGroupNotFound, name)
		}
		return nil, err
	}
	return record.toGroup(), nil
}

// Tx implements core.LedgerTx on top of a gorm transaction.
type Tx struct {
	db *gorm.DB
}

func (t *Tx) CreateBank(ctx context.Context, bank *core.Bank) error {
	return t.db.WithContext(ctx).Create(newBankRecord(bank)).Error
}

func (t *Tx) GetBankByAssetId(ctx context.Context, assetId string) (*core.Bank, error) {
	var record BankRecord
	if err := t.db.WithContext(ctx).Where("asset_id = ?", assetId).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(core.ErrBankNotFound, assetId)
		}
		return nil, err
	}
	return record.toBank(), nil
}

func (t *Tx) UpdateBank(ctx context.Context, bank *core.Bank) error {
	return t.db.WithContext(ctx).Save(newBankRecord(bank)).Error
}

func (t *Tx) ListBanks(ctx context.Context) ([]*core.Bank, error) {
	var records []*BankRecord
	if err := t.db.WithContext(ctx).Order("asset_id").Find(&records).Error; err != nil {
		return nil, err
	}
	banks := make([]*core.Bank, 0, len(records))
	for _, r := range records {
		banks = append(banks, r.toBank())
	}
	return banks, nil
}

func (t *Tx) CreateAccount(ctx context.Context, account *core.Account) error {
	record, balances := newAccountRecords(account)
	db := t.db.WithContext(ctx)
	if err := db.Create(record).Error; err != nil {
		return err
	}
	if len(balances) == 0 {
		return nil
	}
	return db.Create(&balances).Error
}

func (t *Tx) GetAccountByOwner(ctx context.Context, owner string) (*core.Account, error) {
	db := t.db.WithContext(ctx)

	var record AccountRecord
	if err := db.Where("owner = ?", owner).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(core.ErrAccountNotFound, owner)
		}
		return nil, err
	}

	var balances []*BalanceRecord
	if err := db.Where("account_id = ?", record.Id).Order("asset_id").Find(&balances).Error; err != nil {
		return nil, err
	}
	return record.toAccount(balances), nil
}

func (t *Tx) UpdateAccount(ctx context.Context, account *core.Account) error {
	record, balances := newAccountRecords(account)
	db := t.db.WithContext(ctx)
	if err := db.Save(record).Error; err != nil {
		return err
	}
	for _, b := range balances {
		if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(b).Error; err != nil {
			return err
		}
	}
	return nil
}

func (t *Tx) CreateOperate(ctx context.Context, operate *core.Operate) error {
	return t.db.WithContext(ctx).Create(newOperateRecord(operate)).Error
}

func (t *Tx) ListOperates(ctx context.Context, owner string, op core.MemoActionType, limit int) ([]*core.Operate, error) {
	db := t.db.WithContext(ctx).Where("owner = ?", owner)
	if op != 0 {
		db = db.Where("op = ?", uint8(op))
	}
	if limit > 0 {
		db = db.Limit(limit)
	}

	var records []*OperateRecord
	if err := db.Order("created_at desc, seq desc").Find(&records).Error; err != nil {
		return nil, err
	}
	operates := make([]*core.Operate, 0, len(records))
	for _, r := range records {
		operates = append(operates, r.toOperate())
	}
	return operates, nil
}

// Move debits from and credits to within the surrounding transaction.
func (t *Tx) Move(ctx context.Context, from, to core.CustodyId, assetId string, amount uint64, authority *core.TreasuryAuthority) error {
	if err := core.AuthorizeMove(from, authority); err != nil {
		return errors.Wrapf(err, "move %d %s out of %s", amount, assetId, from)
	}
	if amount == 0 || from == to {
		return nil
	}

	tx := &Tx{db: t.db.WithContext(ctx)}
	src, err := tx.findCustody(from, assetId)
	if err != nil {
		return err
	}
	if uint64(src.Amount) < amount {
		return errors.Wrapf(core.ErrInsufficientFunds, "%s holds %d %s, needs %d", from, src.Amount, assetId, amount)
	}
	dst, err := tx.findCustody(to, assetId)
	if err != nil {
		return err
	}
	total, err := core.CheckedAdd(uint64(dst.Amount), amount)
	if err != nil {
		return err
	}
	dst.Amount = Amount(total)
	src.Amount -= Amount(amount)

	if err := tx.saveCustody(src); err != nil {
		return err
	}
	return tx.saveCustody(dst)
}

func (t *Tx) findCustody(custody core.CustodyId, assetId string) (*CustodyRecord, error) {
	var records []*CustodyRecord
	if err := t.db.Where("custody_id = ? AND asset_id = ?", custody.String(), assetId).Limit(1).Find(&records).Error; err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &CustodyRecord{CustodyId: custody.String(), AssetId: assetId}, nil
	}
	return records[0], nil
}

func (t *Tx) saveCustody(record *CustodyRecord) error {
	return t.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(record).Error
}
