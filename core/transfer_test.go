package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorizeMove(t *testing.T) {
	sol := &Bank{AssetId: solAsset}
	usdc := &Bank{AssetId: usdcAsset}

	tests := []struct {
		name      string
		from      CustodyId
		authority *TreasuryAuthority
		err       error
	}{
		{
			name: "wallet needs no authority",
			from: WalletOf("alice"),
		},
		{
			name:      "own treasury",
			from:      TreasuryOf(solAsset),
			authority: sol.TreasuryAuthority(),
		},
		{
			name: "treasury without authority",
			from: TreasuryOf(solAsset),
			err:  ErrUnauthorized,
		},
		{
			name:      "authority of another treasury",
			from:      TreasuryOf(solAsset),
			authority: usdc.TreasuryAuthority(),
			err:       ErrUnauthorized,
		},
		{
			name:      "forged authority",
			from:      TreasuryOf(solAsset),
			authority: &TreasuryAuthority{},
			err:       ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AuthorizeMove(tt.from, tt.authority)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			assert.NoError(t, err)
		})
	}

	assert.True(t, TreasuryOf(solAsset).IsTreasury())
	assert.False(t, WalletOf("treasury:sol").IsTreasury())
}
