package core

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type memoryLedger struct {
	banks    map[string]*Bank
	accounts map[string]*Account
	operates []*Operate
	custody  map[CustodyId]map[string]uint64
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		banks:    make(map[string]*Bank),
		accounts: make(map[string]*Account),
		custody:  make(map[CustodyId]map[string]uint64),
	}
}

func (l *memoryLedger) clone() *memoryLedger {
	c := newMemoryLedger()
	for k, b := range l.banks {
		c.banks[k] = b.Clone()
	}
	for k, a := range l.accounts {
		c.accounts[k] = a.Clone()
	}
	c.operates = append(c.operates, l.operates...)
	for id, assets := range l.custody {
		c.custody[id] = make(map[string]uint64, len(assets))
		for asset, amount := range assets {
			c.custody[id][asset] = amount
		}
	}
	return c
}

func (l *memoryLedger) Transaction(_ context.Context, fn func(tx LedgerTx) error) error {
	tx := l.clone()
	if err := fn(tx); err != nil {
		return err
	}
	*l = *tx
	return nil
}

func (l *memoryLedger) CreateBank(_ context.Context, bank *Bank) error {
	l.banks[bank.AssetId] = bank.Clone()
	return nil
}

func (l *memoryLedger) GetBankByAssetId(_ context.Context, assetId string) (*Bank, error) {
	b, ok := l.banks[assetId]
	if !ok {
		return nil, errors.Wrap(ErrBankNotFound, assetId)
	}
	return b.Clone(), nil
}

func (l *memoryLedger) UpdateBank(_ context.Context, bank *Bank) error {
	l.banks[bank.AssetId] = bank.Clone()
	return nil
}

func (l *memoryLedger) ListBanks(_ context.Context) ([]*Bank, error) {
	banks := make([]*Bank, 0, len(l.banks))
	for _, b := range l.banks {
		banks = append(banks, b.Clone())
	}
	sort.Slice(banks, func(i, j int) bool { return banks[i].AssetId < banks[j].AssetId })
	return banks, nil
}

func (l *memoryLedger) CreateAccount(_ context.Context, account *Account) error {
	l.accounts[account.Owner] = account.Clone()
	return nil
}

func (l *memoryLedger) GetAccountByOwner(_ context.Context, owner string) (*Account, error) {
	a, ok := l.accounts[owner]
	if !ok {
		return nil, errors.Wrap(ErrAccountNotFound, owner)
	}
	return a.Clone(), nil
}

func (l *memoryLedger) UpdateAccount(_ context.Context, account *Account) error {
	l.accounts[account.Owner] = account.Clone()
	return nil
}

func (l *memoryLedger) CreateOperate(_ context.Context, operate *Operate) error {
	l.operates = append(l.operates, operate)
	return nil
}

func (l *memoryLedger) ListOperates(_ context.Context, owner string, op MemoActionType, limit int) ([]*Operate, error) {
	var operates []*Operate
	for i := len(l.operates) - 1; i >= 0; i-- {
		o := l.operates[i]
		if o.Owner != owner || (op != 0 && o.Op != op) {
			continue
		}
		operates = append(operates, o)
		if limit > 0 && len(operates) == limit {
			break
		}
	}
	return operates, nil
}

func (l *memoryLedger) Move(_ context.Context, from, to CustodyId, assetId string, amount uint64, authority *TreasuryAuthority) error {
	if err := AuthorizeMove(from, authority); err != nil {
		return err
	}
	if l.balanceOf(from, assetId) < amount {
		return ErrInsufficientFunds
	}
	l.setCustody(from, assetId, l.balanceOf(from, assetId)-amount)
	l.setCustody(to, assetId, l.balanceOf(to, assetId)+amount)
	return nil
}

func (l *memoryLedger) balanceOf(custody CustodyId, assetId string) uint64 {
	return l.custody[custody][assetId]
}

func (l *memoryLedger) setCustody(custody CustodyId, assetId string, amount uint64) {
	if l.custody[custody] == nil {
		l.custody[custody] = make(map[string]uint64)
	}
	l.custody[custody][assetId] = amount
}

type staticOracle struct {
	prices map[string]Price
}

func newStaticOracle() *staticOracle {
	return &staticOracle{prices: make(map[string]Price)}
}

func (o *staticOracle) set(feedId string, price int64, exponent int32) {
	o.prices[feedId] = Price{FeedId: feedId, Price: price, Exponent: exponent}
}

func (o *staticOracle) GetPriceNoOlderThan(_ context.Context, feedId string, _ int64) (*Price, error) {
	p, ok := o.prices[feedId]
	if !ok {
		return nil, errors.Wrap(ErrStalePrice, feedId)
	}
	return &p, nil
}

type recordingObserver struct {
	results      []string
	liquidations []*LiquidateResult
}

func (o *recordingObserver) ObserveOperation(op string, result string) {
	o.results = append(o.results, op+":"+result)
}

func (o *recordingObserver) ObserveLiquidation(result *LiquidateResult) {
	o.liquidations = append(o.liquidations, result)
}

const (
	testAdmin = "admin"
	solAsset  = "sol"
	usdcAsset = "usdc"
)

var testBankConfig = BankConfig{
	LiquidationThreshold:   80,
	MaxLtv:                 70,
	LiquidationBonus:       5,
	LiquidationCloseFactor: 50,
	InterestRate:           500,
}

type testEnv struct {
	clk      *clock.Mock
	ledger   *memoryLedger
	oracle   *staticOracle
	observer *recordingObserver
	service  *BankAccountService
}

func newTestEnv(t *testing.T) *testEnv {
	clk := clock.NewMock()
	clk.Add(1_700_000_000 * time.Second)

	group := NewGroup(clk, testAdmin, "sol-usdc",
		Asset{AssetId: solAsset, Symbol: "SOL", Precision: 9},
		Asset{AssetId: usdcAsset, Symbol: "USDC", Precision: 6},
	)
	require.NoError(t, group.Validate())

	env := &testEnv{
		clk:      clk,
		ledger:   newMemoryLedger(),
		oracle:   newStaticOracle(),
		observer: &recordingObserver{},
	}
	env.service = NewBankAccountService(group, env.ledger, env.oracle,
		WithServiceClock(clk),
		WithObserver(env.observer),
	)
	return env
}

// withBanks creates both banks with cfg, SOL at 3 and USDC at 1 value units.
func (e *testEnv) withBanks(t *testing.T, cfg BankConfig) *testEnv {
	ctx := context.Background()

	solCfg := cfg
	solCfg.OracleFeedId = SOL_USD_FEED_ID
	_, err := e.service.InitBank(ctx, testAdmin, solAsset, solCfg)
	require.NoError(t, err)

	usdcCfg := cfg
	usdcCfg.OracleFeedId = USDC_USD_FEED_ID
	_, err = e.service.InitBank(ctx, testAdmin, usdcAsset, usdcCfg)
	require.NoError(t, err)

	e.oracle.set(SOL_USD_FEED_ID, 3, 0)
	e.oracle.set(USDC_USD_FEED_ID, 1, 0)
	return e
}

// fund opens an account for owner and puts amount of each asset in its wallet.
func (e *testEnv) fund(t *testing.T, owner string, sol, usdc uint64) {
	_, err := e.service.InitAccount(context.Background(), owner)
	require.NoError(t, err)
	e.ledger.setCustody(WalletOf(owner), solAsset, sol)
	e.ledger.setCustody(WalletOf(owner), usdcAsset, usdc)
}

func (e *testEnv) bank(assetId string) *Bank {
	return e.ledger.banks[assetId]
}

func (e *testEnv) balance(owner, assetId string) *Balance {
	return e.ledger.accounts[owner].Balances[assetId]
}
