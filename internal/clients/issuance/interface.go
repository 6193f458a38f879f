package issuance

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/babylonchain/asset-staking-service/internal/types"
)

// Issuer mints reward units on the order of its current controller.
type Issuer interface {
	// Issue credits amount reward units to to. It rejects the zero identity and
	// a zero amount.
	Issue(ctx context.Context, to types.Identity, amount *uint256.Int) error
	TransferControl(ctx context.Context, newController types.Identity) error
}
