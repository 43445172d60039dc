package store

import (
	"github.com/DomeLiquid/lending/core"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type AssetRecord struct {
	AssetId   string `gorm:"size:64"`
	Symbol    string `gorm:"size:32"`
	Name      string `gorm:"size:128"`
	Precision int32
}

type GroupRecord struct {
	Id             string      `gorm:"primaryKey;size:36"`
	Name           string      `gorm:"uniqueIndex;size:64"`
	AdminKey       string      `gorm:"size:128"`
	PrimaryAsset   AssetRecord `gorm:"embedded;embeddedPrefix:primary_"`
	SecondaryAsset AssetRecord `gorm:"embedded;embeddedPrefix:secondary_"`
	CreatedAt      int64       `gorm:"autoCreateTime:false"`
	UpdatedAt      int64       `gorm:"autoUpdateTime:false"`
}

func (GroupRecord) TableName() string { return "groups" }

type BankRecord struct {
	Id        string `gorm:"primaryKey;size:36"`
	GroupId   string `gorm:"size:36;index"`
	AssetId   string `gorm:"uniqueIndex;size:64"`
	Authority string `gorm:"size:128"`

	TotalDeposits       Amount
	TotalDepositShares  Amount
	TotalBorrowed       Amount
	TotalBorrowedShares Amount

	LiquidationThreshold   Amount
	LiquidationBonus       Amount
	LiquidationCloseFactor Amount
	MaxLtv                 Amount
	InterestRate           Amount
	OracleFeedId           string `gorm:"size:128"`
	OracleMaxAge           int64

	CreatedAt   int64 `gorm:"autoCreateTime:false"`
	LastUpdated int64
}

func (BankRecord) TableName() string { return "banks" }

type AccountRecord struct {
	Id               string `gorm:"primaryKey;size:36"`
	GroupId          string `gorm:"size:36;index"`
	Owner            string `gorm:"uniqueIndex;size:128"`
	SecondaryAssetId string `gorm:"size:64"`
	HealthFactor     Amount
	CreatedAt        int64 `gorm:"autoCreateTime:false"`
	LastUpdated      int64
}

func (AccountRecord) TableName() string { return "accounts" }

type BalanceRecord struct {
	AccountId       string `gorm:"primaryKey;size:36"`
	AssetId         string `gorm:"primaryKey;size:64"`
	Deposited       Amount
	DepositedShares Amount
	Borrowed        Amount
	BorrowedShares  Amount
}

func (BalanceRecord) TableName() string { return "balances" }

type OperateRecord struct {
	Seq       int64              `gorm:"primaryKey;autoIncrement"`
	Id        string             `gorm:"uniqueIndex;size:36"`
	Owner     string             `gorm:"size:128;index:idx_operates_owner_created"`
	AccountId string             `gorm:"size:36"`
	Op        uint8              `gorm:"index"`
	Extra     core.OperateDetail `gorm:"type:text"`
	CreatedAt int64              `gorm:"autoCreateTime:false;index:idx_operates_owner_created"`
}

func (OperateRecord) TableName() string { return "operates" }

// CustodyRecord is the balance an off-ledger custody (wallet or treasury)
// holds of one asset.
type CustodyRecord struct {
	CustodyId string `gorm:"primaryKey;size:192"`
	AssetId   string `gorm:"primaryKey;size:64"`
	Amount    Amount
}

func (CustodyRecord) TableName() string { return "custodies" }

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&GroupRecord{},
		&BankRecord{},
		&AccountRecord{},
		&BalanceRecord{},
		&OperateRecord{},
		&CustodyRecord{},
	)
}

func newAssetRecord(a core.Asset) AssetRecord {
	return AssetRecord{AssetId: a.AssetId, Symbol: a.Symbol, Name: a.Name, Precision: a.Precision}
}

func (r AssetRecord) toAsset() core.Asset {
	return core.Asset{AssetId: r.AssetId, Symbol: r.Symbol, Name: r.Name, Precision: r.Precision}
}

func newGroupRecord(g *core.Group) *GroupRecord {
	return &GroupRecord{
		Id:             g.Id.String(),
		Name:           g.Name,
		AdminKey:       g.AdminKey,
		PrimaryAsset:   newAssetRecord(g.PrimaryAsset),
		SecondaryAsset: newAssetRecord(g.SecondaryAsset),
		CreatedAt:      g.CreatedAt,
		UpdatedAt:      g.UpdatedAt,
	}
}

func (r *GroupRecord) toGroup() *core.Group {
	return &core.Group{
		Id:             uuid.FromStringOrNil(r.Id),
		Name:           r.Name,
		AdminKey:       r.AdminKey,
		PrimaryAsset:   r.PrimaryAsset.toAsset(),
		SecondaryAsset: r.SecondaryAsset.toAsset(),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func newBankRecord(b *core.Bank) *BankRecord {
	return &BankRecord{
		Id:                     b.Id.String(),
		GroupId:                b.GroupId.String(),
		AssetId:                b.AssetId,
		Authority:              b.Authority,
		TotalDeposits:          Amount(b.TotalDeposits),
		TotalDepositShares:     Amount(b.TotalDepositShares),
		TotalBorrowed:          Amount(b.TotalBorrowed),
		TotalBorrowedShares:    Amount(b.TotalBorrowedShares),
		LiquidationThreshold:   Amount(b.LiquidationThreshold),
		LiquidationBonus:       Amount(b.LiquidationBonus),
		LiquidationCloseFactor: Amount(b.LiquidationCloseFactor),
		MaxLtv:                 Amount(b.MaxLtv),
		InterestRate:           Amount(b.InterestRate),
		OracleFeedId:           b.OracleFeedId,
		OracleMaxAge:           b.OracleMaxAge,
		CreatedAt:              b.CreatedAt,
		LastUpdated:            b.LastUpdated,
	}
}

func (r *BankRecord) toBank() *core.Bank {
	return &core.Bank{
		Id:                  uuid.FromStringOrNil(r.Id),
		GroupId:             uuid.FromStringOrNil(r.GroupId),
		AssetId:             r.AssetId,
		Authority:           r.Authority,
		TotalDeposits:       uint64(r.TotalDeposits),
		TotalDepositShares:  uint64(r.TotalDepositShares),
		TotalBorrowed:       uint64(r.TotalBorrowed),
		TotalBorrowedShares: uint64(r.TotalBorrowedShares),
		BankConfig: core.BankConfig{
			LiquidationThreshold:   uint64(r.LiquidationThreshold),
			LiquidationBonus:       uint64(r.LiquidationBonus),
			LiquidationCloseFactor: uint64(r.LiquidationCloseFactor),
			MaxLtv:                 uint64(r.MaxLtv),
			InterestRate:           uint64(r.InterestRate),
			OracleFeedId:           r.OracleFeedId,
			OracleMaxAge:           r.OracleMaxAge,
		},
		CreatedAt:   r.CreatedAt,
		LastUpdated: r.LastUpdated,
	}
}

func newAccountRecords(a *core.Account) (*AccountRecord, []*BalanceRecord) {
	balances := make([]*BalanceRecord, 0, len(a.Balances))
	for _, b := range a.SortedBalances() {
		balances = append(balances, &BalanceRecord{
			AccountId:       a.Id.String(),
			AssetId:         b.AssetId,
			Deposited:       Amount(b.Deposited),
			DepositedShares: Amount(b.DepositedShares),
			Borrowed:        Amount(b.Borrowed),
			BorrowedShares:  Amount(b.BorrowedShares),
		})
	}
	return &AccountRecord{
		Id:               a.Id.String(),
		GroupId:          a.GroupId.String(),
		Owner:            a.Owner,
		SecondaryAssetId: a.SecondaryAssetId,
		HealthFactor:     Amount(a.HealthFactor),
		CreatedAt:        a.CreatedAt,
		LastUpdated:      a.LastUpdated,
	}, balances
}

func (r *AccountRecord) toAccount(balances []*BalanceRecord) *core.Account {
	account := &core.Account{
		Id:               uuid.FromStringOrNil(r.Id),
		GroupId:          uuid.FromStringOrNil(r.GroupId),
		Owner:            r.Owner,
		Balances:         make(map[string]*core.Balance, len(balances)),
		SecondaryAssetId: r.SecondaryAssetId,
		HealthFactor:     uint64(r.HealthFactor),
		CreatedAt:        r.CreatedAt,
		LastUpdated:      r.LastUpdated,
	}
	for _, b := range balances {
		account.Balances[b.AssetId] = &core.Balance{
			AssetId:         b.AssetId,
			Deposited:       uint64(b.Deposited),
			DepositedShares: uint64(b.DepositedShares),
			Borrowed:        uint64(b.Borrowed),
			BorrowedShares:  uint64(b.BorrowedShares),
		}
	}
	return account
}

func newOperateRecord(o *core.Operate) *OperateRecord {
	return &OperateRecord{
		Id:        o.Id.String(),
		Owner:     o.Owner,
		AccountId: o.AccountId.String(),
		Op:        uint8(o.Op),
		Extra:     o.Extra,
		CreatedAt: o.CreatedAt,
	}
}

func (r *OperateRecord) toOperate() *core.Operate {
	return &core.Operate{
		Id:        uuid.FromStringOrNil(r.Id),
		Owner:     r.Owner,
		AccountId: uuid.FromStringOrNil(r.AccountId),
		Op:        core.MemoActionType(r.Op),
		Extra:     r.Extra,
		CreatedAt: r.CreatedAt,
	}
}
