package core

import (
	"context"

	"github.com/DomeLiquid/lending/utils"
	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
)

type (
	GroupStore interface {
		CreateGroup(ctx context.Context, group *Group) error
		GetGroupByName(ctx context.Context, name string) (*Group, error)
	}

	// Group is a lending market over exactly two assets. Borrowing one asset
	// is collateralized by deposits of the other.
	Group struct {
		Id       uuid.UUID `json:"id"`
		AdminKey string    `json:"adminKey"`
		Name     string    `json:"name"`

		PrimaryAsset   Asset `json:"primaryAsset"`
		SecondaryAsset Asset `json:"secondaryAsset"`

		CreatedAt int64 `json:"createdAt"`
		UpdatedAt int64 `json:"updatedAt"`
	}
)

func NewGroup(clk clock.Clock, adminKey string, name string, primary, secondary Asset) *Group {
	return &Group{
		Id:             uuid.Must(uuid.FromString(utils.GenUuidFromStrings(name, primary.AssetId, secondary.AssetId))),
		AdminKey:       adminKey,
		Name:           name,
		PrimaryAsset:   primary,
		SecondaryAsset: secondary,
		CreatedAt:      clk.Now().Unix(),
		UpdatedAt:      clk.Now().Unix(),
	}
}

func (g *Group) IsAdmin(key string) bool {
	return key != "" && key == g.AdminKey
}

func (g *Group) Assets() []Asset {
	return []Asset{g.PrimaryAsset, g.SecondaryAsset}
}

func (g *Group) GetAsset(assetId string) (Asset, error) {
	switch assetId {
	case g.PrimaryAsset.AssetId:
		return g.PrimaryAsset, nil
	case g.SecondaryAsset.AssetId:
		return g.SecondaryAsset, nil
	default:
		return Asset{}, ErrUnknownAsset
	}
}

// OppositeAssetId returns the asset whose deposits back a borrow of assetId.
func (g *Group) OppositeAssetId(assetId string) (string, error) {
	switch assetId {
	case g.PrimaryAsset.AssetId:
		return g.SecondaryAsset.AssetId, nil
	case g.SecondaryAsset.AssetId:
		return g.PrimaryAsset.AssetId, nil
	default:
		return "", ErrUnknownAsset
	}
}

func (g *Group) Validate() error {
	if g.PrimaryAsset.AssetId == "" || g.SecondaryAsset.AssetId == "" {
		return errors.Wrap(ErrInvalidConfig, "group needs two assets")
	}
	if g.PrimaryAsset.AssetId == g.SecondaryAsset.AssetId {
		return errors.Wrapf(ErrInvalidConfig, "group assets must differ, got %s twice", g.PrimaryAsset.AssetId)
	}
	return nil
}
