package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/DomeLiquid/lending/core"
	"github.com/DomeLiquid/lending/metrics"
	"github.com/DomeLiquid/lending/oracle"
	"github.com/DomeLiquid/lending/store"
	"github.com/facebookgo/clock"
	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type app struct {
	cfg     Config
	clk     clock.Clock
	log     zerolog.Logger
	sqlDB   *sql.DB
	ledger  *store.Ledger
	groups  core.GroupStore
	feeds   *oracle.FeedOracle
	group   *core.Group
	service *core.BankAccountService
}

// setup loads config, opens the database and, when needGroup is set, builds
// the service for the configured group.
func setup(cmd *cobra.Command, needGroup bool) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := store.AutoMigrate(db); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	a := &app{
		cfg:    cfg,
		clk:    clock.New(),
		log:    log,
		sqlDB:  sqlDB,
		ledger: store.New(db),
	}
	a.groups = a.ledger
	a.feeds = oracle.NewFeedOracle(a.clk)
	quotes, err := cfg.marketQuotes()
	if err != nil {
		a.close()
		return nil, err
	}
	for _, p := range cfg.Prices {
		price, err := p.toPrice(quotes, a.clk.Now())
		if err != nil {
			a.close()
			return nil, err
		}
		a.feeds.Update(price)
	}

	if !needGroup {
		return a, nil
	}
	if a.group, err = a.groups.GetGroupByName(cmd.Context(), cfg.Group.Name); err != nil {
		a.close()
		return nil, err
	}
	a.service = core.NewBankAccountService(a.group, a.ledger, a.feeds,
		core.WithServiceClock(a.clk),
		core.WithLog(&a.log),
		core.WithObserver(metrics.Lending()),
	)
	return a, nil
}

func (a *app) close() {
	if a.cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(a.cfg.MetricsFile, prometheus.DefaultGatherer); err != nil {
			a.log.Warn().Err(err).Msgf("write metrics to %s", a.cfg.MetricsFile)
		}
	}
	if err := a.sqlDB.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close database")
	}
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, errors.Wrapf(err, "log level %q", level)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().
		Logger(), nil
}

func openDatabase(cfg DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, errors.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", cfg.Driver)
	}
	return db, nil
}

// run wraps a command body with setup, signal handling and teardown.
func run(needGroup bool, fn func(ctx context.Context, cmd *cobra.Command, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cmd.SetContext(ctx)

		a, err := setup(cmd, needGroup)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(ctx, cmd, a)
	}
}

// resolveAsset accepts an asset id or a group symbol.
func (a *app) resolveAsset(s string) (core.Asset, error) {
	for _, asset := range a.group.Assets() {
		if asset.AssetId == s || strings.EqualFold(asset.Symbol, s) {
			return asset, nil
		}
	}
	return core.Asset{}, errors.Wrap(core.ErrUnknownAsset, s)
}

func parseAmount(asset core.Asset, s string) (uint64, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.Wrapf(core.ErrInvalidAmount, "%q", s)
	}
	return asset.FromDecimal(amount)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newInitGroupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init-group",
		Short: "Create the lending group from config",
		RunE: run(false, func(ctx context.Context, cmd *cobra.Command, a *app) error {
			g := a.cfg.Group
			primary, err := g.Primary.toAsset()
			if err != nil {
				return err
			}
			secondary, err := g.Secondary.toAsset()
			if err != nil {
				return err
			}
			group := core.NewGroup(a.clk, g.Admin, g.Name, primary, secondary)
			if err := group.Validate(); err != nil {
				return err
			}
			if g.Admin == "" {
				return errors.Wrap(core.ErrInvalidConfig, "group admin is required")
			}
			if err := a.groups.CreateGroup(ctx, group); err != nil {
				return errors.Wrapf(err, "create group %s", g.Name)
			}
			a.log.Info().Msgf("group %s created: %s / %s", group.Name, group.PrimaryAsset, group.SecondaryAsset)
			return printJSON(cmd, group)
		}),
	}
}

func newInitBankCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-bank",
		Short: "Create the bank of a group asset from config",
		RunE: run(true, func(ctx context.Context, cmd *cobra.Command, a *app) error {
			assetFlag, _ := cmd.Flags().GetString("asset")
			signer, _ := cmd.Flags().GetString("signer")
			if signer == "" {
				signer = a.cfg.Group.Admin
			}

			asset, err := a.resolveAsset(assetFlag)
			if err != nil {
				return err
			}
			bankCfg, ok := a.cfg.Bank(asset)
			if !ok {
				return errors.Wrapf(core.ErrInvalidConfig, "no bank config for %s", asset)
			}
			bank, err := a.service.InitBank(ctx, signer, asset.AssetId, bankCfg.toBankConfig())
			if err != nil {
				return err
			}
			return printJSON(cmd, bank)
		}),
	}
	cmd.Flags().String("asset", "", "asset id or symbol")
	cmd.Flags().String("signer", "", "signing key, defaults to the configured admin")
	return cmd
}

func newInitAccountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-account",
		Short: "Open an account for an owner",
		RunE: run(true, func(ctx context.Context, cmd *cobra.Command, a *app) error {
			owner, _ := cmd.Flags().GetString("owner")
			account, err := a.service.InitAccount(ctx, owner)
			if err != nil {
				return err
			}
			return printJSON(cmd, account)
		}),
	}
	cmd.Flags().String("owner", "", "account owner")
	return cmd
}

func newFundCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Credit an owner's wallet with funds arriving from outside the pool",
		RunE: run(true, func(ctx context.Context, cmd *cobra.Command, a *app) error {
			owner, _ := cmd.Flags().GetString("owner")
			assetFlag, _ := cmd.Flags().GetString("asset")
			amountFlag, _ := cmd.Flags().GetString("amount")

			asset, err := a.resolveAsset(assetFlag)
			if err != nil {
				return err
			}
			amount, err := parseAmount(asset, amountFlag)
			if err != nil {
				return err
			}
			if err := a.ledger.Credit(ctx, core.WalletOf(owner), asset.AssetId, amount); err != nil {
				return err
			}
			balance, err := a.ledger.CustodyBalance(ctx, core.WalletOf(owner), asset.AssetId)
			if err != nil {
				return err
			}
			a.log.Info().Msgf("funded %s with %s %s, wallet holds %s", owner, asset.ToDecimal(amount), asset, asset.ToDecimal(balance))
			return nil
		}),
	}
	cmd.Flags().String("owner", "", "wallet owner")
	cmd.Flags().String("asset", "", "asset id or symbol")
	cmd.Flags().String("amount", "", "amount in whole tokens")
	return cmd
}

type amountOperation func(a *app, ctx context.Context, owner, assetId string, amount uint64) (*core.Operate, error)

func (a *app) deposit(ctx context.Context, owner, assetId string, amount uint64) (*core.Operate, error) {
	return a.service.Deposit(ctx, owner, assetId, amount)
}

func (a *app) withdraw(ctx context.Context, owner, assetId string, amount uint64) (*core.Operate, error) {
	return a.service.Withdraw(ctx, owner, assetId, amount)
}

func (a *app) borrow(ctx context.Context, owner, assetId string, amount uint64) (*core.Operate, error) {
	return a.service.Borrow(ctx, owner, assetId, amount)
}

func (a *app) repay(ctx context.Context, owner, assetId string, amount uint64) (*core.Operate, error) {
	return a.service.Repay(ctx, owner, assetId, amount)
}

func newAmountCommand(use, short string, op amountOperation) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: run(true, func(ctx context.Context, cmd *cobra.Command, a *app) error {
			owner, _ := cmd.Flags().GetString("owner")
			assetFlag, _ := cmd.Flags().GetString("asset")
			amountFlag, _ := cmd.Flags().GetString("amount")

			asset, err := a.resolveAsset(assetFlag)
			if err != nil {
				return err
			}
			amount, err := parseAmount(asset, amountFlag)
			if err != nil {
				return err
			}
			operate, err := op(a, ctx, owner, asset.AssetId, amount)
			if err != nil {
				return err
			}
			return printJSON(cmd, operate)
		}),
	}
	cmd.Flags().String("owner", "", "account owner")
	cmd.Flags().String("asset", "", "asset id or symbol")
	cmd.Flags().String("amount", "", "amount in whole tokens")
	return cmd
}

func newLiquidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liquidate",
		Short: "Repay part of an unhealthy account's debt and seize its collateral",
		RunE: run(true, func(ctx context.Context, cmd *cobra.Command, a *app) error {
			liquidator, _ := cmd.Flags().GetString("liquidator")
			owner, _ := cmd.Flags().GetString("owner")
			collateralFlag, _ := cmd.Flags().GetString("collateral")
			borrowedFlag, _ := cmd.Flags().GetString("borrowed")

			collateral, err := a.resolveAsset(collateralFlag)
			if err != nil {
				return err
			}
			borrowed, err := a.resolveAsset(borrowedFlag)
			if err != nil {
				return err
			}
			result, err := a.service.Liquidate(ctx, liquidator, owner, collateral.AssetId, borrowed.AssetId)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		}),
	}
	cmd.Flags().String("liquidator", "", "liquidator paying the debt")
	cmd.Flags().String("owner", "", "owner of the unhealthy account")
	cmd.Flags().String("collateral", "", "collateral asset id or symbol")
	cmd.Flags().String("borrowed", "", "borrowed asset id or symbol")
	return cmd
}

func newBankCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Show a bank",
		RunE: run(true, func(ctx context.Context, cmd *cobra.Command, a *app) error {
			assetFlag, _ := cmd.Flags().GetString("asset")
			asset, err := a.resolveAsset(assetFlag)
			if err != nil {
				return err
			}
			bank, err := a.service.GetBank(ctx, asset.AssetId)
			if err != nil {
				return err
			}
			treasury, err := a.ledger.CustodyBalance(ctx, bank.Treasury(), asset.AssetId)
			if err != nil {
				return err
			}
			return printJSON(cmd, struct {
				*core.Bank
				Treasury decimal.Decimal `json:"treasury"`
			}{bank, asset.ToDecimal(treasury)})
		}),
	}
	cmd.Flags().String("asset", "", "asset id or symbol")
	return cmd
}

func newBanksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "banks",
		Short: "List the banks of the group",
		RunE: run(true, func(ctx context.Context, cmd *cobra.Command, a *app) error {
			banks, err := a.service.ListBanks(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, banks)
		}),
	}
}

func newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show an account and its health",
		RunE: run(true, func(ctx context.Context, cmd *cobra.Command, a *app) error {
			owner, _ := cmd.Flags().GetString("owner")
			account, err := a.service.GetAccount(ctx, owner)
			if err != nil {
				return err
			}

			// health needs fresh prices for both banks
			report, err := a.service.AccountHealth(ctx, owner)
			if err != nil {
				a.log.Warn().Err(err).Msgf("health of %s unavailable", owner)
			}
			return printJSON(cmd, struct {
				Account *core.Account      `json:"account"`
				Health  *core.HealthReport `json:"health,omitempty"`
			}{account, report})
		}),
	}
	cmd.Flags().String("owner", "", "account owner")
	return cmd
}

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the audit records of an account",
		RunE: run(true, func(ctx context.Context, cmd *cobra.Command, a *app) error {
			owner, _ := cmd.Flags().GetString("owner")
			opFlag, _ := cmd.Flags().GetString("op")
			limit, _ := cmd.Flags().GetInt("limit")

			var op core.MemoActionType
			if opFlag != "" {
				var ok bool
				if op, ok = parseActionType(opFlag); !ok {
					return errors.Errorf("unknown operation %q", opFlag)
				}
			}
			operates, err := a.service.ListOperates(ctx, owner, op, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, operates)
		}),
	}
	cmd.Flags().String("owner", "", "account owner")
	cmd.Flags().String("op", "", "only this operation (deposit, borrow, repay, withdraw, liquidate)")
	cmd.Flags().Int("limit", 20, "maximum records, 0 for all")
	return cmd
}

func newMemoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memo",
		Short: "Encode a lending instruction as a transfer memo",
		RunE: run(true, func(_ context.Context, cmd *cobra.Command, a *app) error {
			opFlag, _ := cmd.Flags().GetString("op")
			assetFlag, _ := cmd.Flags().GetString("asset")
			amountFlag, _ := cmd.Flags().GetString("amount")
			owner, _ := cmd.Flags().GetString("owner")
			borrowedFlag, _ := cmd.Flags().GetString("borrowed")

			op, ok := parseActionType(opFlag)
			if !ok {
				return errors.Errorf("unknown operation %q", opFlag)
			}
			asset, err := a.resolveAsset(assetFlag)
			if err != nil {
				return err
			}
			action := core.MemoAction{ActionType: op, AssetId: asset.AssetId, Owner: owner}
			if op == core.MATLiquidate {
				borrowed, err := a.resolveAsset(borrowedFlag)
				if err != nil {
					return err
				}
				action.BorrowedAssetId = borrowed.AssetId
			} else if action.Amount, err = decimal.NewFromString(amountFlag); err != nil {
				return errors.Wrapf(core.ErrInvalidAmount, "%q", amountFlag)
			}

			memo, err := core.EncodeMemo(action)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write([]byte(memo + "\n"))
			return err
		}),
	}
	cmd.Flags().String("op", "", "deposit, borrow, repay, withdraw or liquidate")
	cmd.Flags().String("asset", "", "asset id or symbol, the collateral for liquidate")
	cmd.Flags().String("amount", "", "amount in whole tokens")
	cmd.Flags().String("owner", "", "liquidate only: owner of the unhealthy account")
	cmd.Flags().String("borrowed", "", "liquidate only: borrowed asset id or symbol")
	return cmd
}

func newExecCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Apply a memo instruction sent by actor",
		RunE: run(true, func(ctx context.Context, cmd *cobra.Command, a *app) error {
			actor, _ := cmd.Flags().GetString("actor")
			memo, _ := cmd.Flags().GetString("memo")

			action, err := core.DecodeMemo(memo)
			if err != nil {
				return err
			}
			a.log.Debug().Msgf("memo from %s: %s %s", actor, action.ActionType, action.AssetId)
			result, err := a.service.Dispatch(ctx, actor, action)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		}),
	}
	cmd.Flags().String("actor", "", "sender of the memo")
	cmd.Flags().String("memo", "", "hex encoded memo")
	return cmd
}

func parseActionType(s string) (core.MemoActionType, bool) {
	if s == "" {
		return 0, false
	}
	s = strings.ToLower(s)
	return core.ValidActionTypeString(strings.ToUpper(s[:1]) + s[1:])
}
