package core

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// MemoAction is a lending instruction carried in a transfer memo. The wire
// form is hex(base64(json)).
type MemoAction struct {
	ActionType MemoActionType  `json:"t"`
	AssetId    string          `json:"a"`
	Amount     decimal.Decimal `json:"m"`

	// liquidation only, AssetId is then the collateral asset
	Owner           string `json:"o,omitempty"`
	BorrowedAssetId string `json:"b,omitempty"`
}

func (m MemoActionType) Valid() bool {
	switch m {
	case MATDeposit, MATBorrow, MATRepay, MATWithdraw, MATLiquidate:
		return true
	default:
		return false
	}
}

func (m MemoAction) Valid() bool {
	if !m.ActionType.Valid() || m.AssetId == "" {
		return false
	}
	if m.ActionType == MATLiquidate {
		return m.Owner != "" && m.BorrowedAssetId != "" && m.BorrowedAssetId != m.AssetId
	}
	return m.Amount.IsPositive()
}

func EncodeMemo(action MemoAction) (string, error) {
	if !action.Valid() {
		return "", errors.Errorf("invalid %s memo", action.ActionType)
	}
	bytes, err := json.Marshal(action)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString([]byte(base64.StdEncoding.EncodeToString(bytes))), nil
}

func DecodeMemo(memo string) (*MemoAction, error) {
	memoHex, err := hex.DecodeString(memo)
	if err != nil {
		return nil, errors.Wrap(err, "memo is not hex")
	}
	memoJson, err := base64.StdEncoding.DecodeString(string(memoHex))
	if err != nil {
		return nil, errors.Wrap(err, "memo is not base64")
	}

	var action MemoAction
	if err := json.Unmarshal(memoJson, &action); err != nil {
		return nil, errors.Wrap(err, "memo is not a lending action")
	}
	if !action.Valid() {
		return nil, errors.Errorf("invalid %s memo", action.ActionType)
	}
	return &action, nil
}
