package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "lendingctl",
		Short:        "Operate a two-asset lending pool",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("metrics-file", "", "write prometheus metrics to this file on exit")
	root.PersistentFlags().String("db-driver", "sqlite", "database driver (sqlite, postgres)")
	root.PersistentFlags().String("db-dsn", "lending.db", "database DSN")
	root.PersistentFlags().String("group", "default", "lending group name")

	root.AddCommand(
		newInitGroupCommand(),
		newInitBankCommand(),
		newInitAccountCommand(),
		newFundCommand(),
		newAmountCommand("deposit", "Deposit into a bank", (*app).deposit),
		newAmountCommand("withdraw", "Withdraw a deposit", (*app).withdraw),
		newAmountCommand("borrow", "Borrow against the other asset", (*app).borrow),
		newAmountCommand("repay", "Repay a borrow", (*app).repay),
		newLiquidateCommand(),
		newBankCommand(),
		newBanksCommand(),
		newShowCommand(),
		newHistoryCommand(),
		newMemoCommand(),
		newExecCommand(),
	)
	return root
}
