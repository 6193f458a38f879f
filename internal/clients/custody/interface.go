package custody

import (
	"context"

	"github.com/babylonchain/asset-staking-service/internal/types"
)

// Custody holds staked assets and releases them only on the order of its
// current controller.
type Custody interface {
	// TakeCustody moves an asset owned by from into custody. It fails if from is
	// not the owner or the transfer was not approved.
	TakeCustody(ctx context.Context, collection types.Identity, assetId uint64, from types.Identity) error
	Release(ctx context.Context, collection types.Identity, assetId uint64, to types.Identity) error
	TransferControl(ctx context.Context, newController types.Identity) error
}
