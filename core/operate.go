package core

import (
	"context"
	"database/sql/driver"
	"encoding/json"

	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type (
	OperateStore interface {
		CreateOperate(ctx context.Context, operate *Operate) error
		// op 0 lists every action type
		ListOperates(ctx context.Context, owner string, op MemoActionType, limit int) ([]*Operate, error)
	}

	// Operate is the audit record of one successful operation on an account.
	Operate struct {
		Id        uuid.UUID      `json:"id"`
		Owner     string         `json:"owner"`
		AccountId uuid.UUID      `json:"accountId"`
		Op        MemoActionType `json:"op"`
		Extra     OperateDetail  `json:"extra"`
		CreatedAt int64          `json:"createdAt"`
	}

	OperateDetail struct {
		Type        MemoActionType   `json:"type"`
		Actor       string           `json:"actor"`
		Actions     []ActionDetail   `json:"actions"`
		Liquidation *LiquidateResult `json:"liquidation,omitempty"`
	}

	ActionDetail struct {
		Actor      string          `json:"actor"`
		ActionType MemoActionType  `json:"actionType"`
		AssetId    string          `json:"assetId"`
		Amount     uint64          `json:"amount"`
		UiAmount   decimal.Decimal `json:"uiAmount"`
		Shares     uint64          `json:"shares"`
	}
)

type MemoActionType uint8

const (
	MATDeposit MemoActionType = iota + 1
	MATBorrow
	MATRepay
	MATWithdraw
	MATLiquidate
)

func (m MemoActionType) String() string {
	switch m {
	case MATDeposit:
		return "Deposit"
	case MATRepay:
		return "Repay"
	case MATWithdraw:
		return "Withdraw"
	case MATBorrow:
		return "Borrow"
	case MATLiquidate:
		return "Liquidate"
	default:
		return "Unknown"
	}
}

func ValidActionTypeString(action string) (MemoActionType, bool) {
	switch action {
	case MATDeposit.String():
		return MATDeposit, true
	case MATBorrow.String():
		return MATBorrow, true
	case MATRepay.String():
		return MATRepay, true
	case MATWithdraw.String():
		return MATWithdraw, true
	case MATLiquidate.String():
		return MATLiquidate, true
	default:
		return 0, false
	}
}

func NewOperate(clk clock.Clock, account *Account, typ MemoActionType, extra OperateDetail) *Operate {
	return &Operate{
		Id:        uuid.Must(uuid.NewV4()),
		Owner:     account.Owner,
		AccountId: account.Id,
		Op:        typ,
		Extra:     extra,
		CreatedAt: clk.Now().Unix(),
	}
}

func NewActionDetail(actor string, typ MemoActionType, asset Asset, amount, shares uint64) ActionDetail {
	return ActionDetail{
		Actor:      actor,
		ActionType: typ,
		AssetId:    asset.AssetId,
		Amount:     amount,
		UiAmount:   asset.ToDecimal(amount),
		Shares:     shares,
	}
}

func (j OperateDetail) Value() (driver.Value, error) {
	valueString, err := json.Marshal(j)
	return string(valueString), err
}

func (j *OperateDetail) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		return nil
	default:
		return errors.Errorf("unsupported operate detail type %T", value)
	}
	return json.Unmarshal(raw, j)
}
