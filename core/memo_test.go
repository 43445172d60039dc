package core

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoCodec(t *testing.T) {
	deposit := MemoAction{ActionType: MATDeposit, AssetId: solAsset, Amount: decimal.RequireFromString("1.5")}
	memo, err := EncodeMemo(deposit)
	require.NoError(t, err)

	decoded, err := DecodeMemo(memo)
	require.NoError(t, err)
	assert.Equal(t, MATDeposit, decoded.ActionType)
	assert.Equal(t, solAsset, decoded.AssetId)
	assert.True(t, decoded.Amount.Equal(deposit.Amount))

	liquidate := MemoAction{ActionType: MATLiquidate, AssetId: solAsset, Owner: "alice", BorrowedAssetId: usdcAsset}
	memo, err = EncodeMemo(liquidate)
	require.NoError(t, err)
	decoded, err = DecodeMemo(memo)
	require.NoError(t, err)
	assert.Equal(t, "alice", decoded.Owner)
	assert.Equal(t, usdcAsset, decoded.BorrowedAssetId)
}

func TestDecodeMemoRejects(t *testing.T) {
	wrap := func(s string) string {
		return hex.EncodeToString([]byte(base64.StdEncoding.EncodeToString([]byte(s))))
	}

	tests := []struct {
		name string
		memo string
	}{
		{name: "not hex", memo: "zz"},
		{name: "not base64", memo: hex.EncodeToString([]byte("%%%"))},
		{name: "not json", memo: wrap("deposit")},
		{name: "unknown action", memo: wrap(`{"t":9,"a":"sol","m":"1"}`)},
		{name: "zero amount", memo: wrap(`{"t":1,"a":"sol","m":"0"}`)},
		{name: "missing asset", memo: wrap(`{"t":1,"m":"1"}`)},
		{name: "liquidation without owner", memo: wrap(`{"t":5,"a":"sol","b":"usdc"}`)},
		{name: "liquidation on one asset", memo: wrap(`{"t":5,"a":"sol","o":"alice","b":"sol"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMemo(tt.memo)
			assert.Error(t, err)
		})
	}

	_, err := EncodeMemo(MemoAction{ActionType: MATBorrow, AssetId: usdcAsset})
	assert.Error(t, err)
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	env := liquidationEnv(t)
	env.fund(t, "bob", 10, 0)

	// SOL has nine decimals
	res, err := env.service.Dispatch(ctx, "bob", &MemoAction{
		ActionType: MATDeposit,
		AssetId:    solAsset,
		Amount:     decimal.RequireFromString("0.00000001"),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Operate)
	assert.Equal(t, MATDeposit, res.Operate.Op)
	assert.Equal(t, uint64(10), env.balance("bob", solAsset).Deposited)

	_, err = env.service.Dispatch(ctx, "bob", &MemoAction{
		ActionType: MATDeposit,
		AssetId:    solAsset,
		Amount:     decimal.RequireFromString("0.0000000001"),
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = env.service.Dispatch(ctx, "bob", &MemoAction{
		ActionType: MATWithdraw,
		AssetId:    "btc",
		Amount:     decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, ErrUnknownAsset)

	env.oracle.set(SOL_USD_FEED_ID, 2, 0)
	res, err = env.service.Dispatch(ctx, "keeper", &MemoAction{
		ActionType:      MATLiquidate,
		AssetId:         solAsset,
		Owner:           "alice",
		BorrowedAssetId: usdcAsset,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Liquidation)
	assert.Nil(t, res.Operate)
	assert.Equal(t, uint64(52), res.Liquidation.CollateralAmount)
	assert.Equal(t, uint64(52), env.ledger.balanceOf(WalletOf("keeper"), solAsset))
}
