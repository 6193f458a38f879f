package registry

import (
	"context"

	"github.com/babylonchain/asset-staking-service/internal/types"
)

// AssetRegistry answers who currently holds an asset of a collection.
type AssetRegistry interface {
	OwnerOf(ctx context.Context, collection types.Identity, assetId uint64) (types.Identity, error)
}
