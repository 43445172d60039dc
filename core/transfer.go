package core

import (
	"context"
	"strings"
)

type (
	// ValueTransfer moves custody of an asset between wallets and bank
	// treasuries. A move is atomic, it either fully happens or not at all.
	ValueTransfer interface {
		Move(ctx context.Context, from, to CustodyId, assetId string, amount uint64, authority *TreasuryAuthority) error
	}

	CustodyId string

	// TreasuryAuthority is the credential a bank hands out to release funds
	// from its own treasury. It cannot be built outside this package.
	TreasuryAuthority struct {
		treasury CustodyId
	}
)

const (
	walletPrefix   = "wallet:"
	treasuryPrefix = "treasury:"
)

func WalletOf(owner string) CustodyId {
	return CustodyId(walletPrefix + owner)
}

func TreasuryOf(assetId string) CustodyId {
	return CustodyId(treasuryPrefix + assetId)
}

func (c CustodyId) IsTreasury() bool {
	return strings.HasPrefix(string(c), treasuryPrefix)
}

func (c CustodyId) String() string {
	return string(c)
}

func (a *TreasuryAuthority) Authorizes(custody CustodyId) bool {
	return a != nil && a.treasury == custody
}

// AuthorizeMove is the check every ValueTransfer performs before moving
// funds: treasuries only release funds to the matching authority.
func AuthorizeMove(from CustodyId, authority *TreasuryAuthority) error {
	if from.IsTreasury() && !authority.Authorizes(from) {
		return ErrUnauthorized
	}
	return nil
}
