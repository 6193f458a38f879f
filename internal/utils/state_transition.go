package utils

import (
	"slices"

	"github.com/babylonchain/asset-staking-service/internal/types"
)

// QualifiedStatesToUnstake returns the qualified existing states to transition to "unstaked"
func QualifiedStatesToUnstake() []types.DepositStatus {
	return []types.DepositStatus{types.Staked}
}

// QualifiedStatesToWithdraw returns the qualified existing states to transition to "withdrawn"
func QualifiedStatesToWithdraw() []types.DepositStatus {
	return []types.DepositStatus{types.Unstaked}
}

// IsForwardTransition reports whether moving from one status to another follows
// Staked -> Unstaked -> Withdrawn one step at a time.
func IsForwardTransition(from, to types.DepositStatus) bool {
	switch to {
	case types.Unstaked:
		return slices.Contains(QualifiedStatesToUnstake(), from)
	case types.Withdrawn:
		return slices.Contains(QualifiedStatesToWithdraw(), from)
	default:
		return false
	}
}
