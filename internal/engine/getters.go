package engine

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/babylonchain/asset-staking-service/internal/db"
	"github.com/babylonchain/asset-staking-service/internal/db/model"
	"github.com/babylonchain/asset-staking-service/internal/ledger"
	"github.com/babylonchain/asset-staking-service/internal/types"
	"github.com/babylonchain/asset-staking-service/internal/utils"
)

// Reads go through the engine lock as well, an operation waiting on a
// collaborator may still be reverted.

func (e *Engine) GetConfig(ctx context.Context) (*model.StakeConfigDocument, *types.Error) {
	ctx, release := e.enter(ctx)
	defer release()

	cfg, err := e.db.FindStakeConfig(ctx)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, storageError(ledger.ErrNotInitialized)
		}
		return nil, types.NewInternalServiceError(err)
	}
	return cfg, nil
}

func (e *Engine) GetDeposit(ctx context.Context, depositId uint64) (*model.DepositDocument, *types.Error) {
	ctx, release := e.enter(ctx)
	defer release()

	deposit, err := e.db.FindDepositById(ctx, depositId)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, types.NewValidationError(fmt.Sprintf("invalid deposit id %d", depositId))
		}
		return nil, types.NewInternalServiceError(err)
	}
	return deposit, nil
}

func (e *Engine) GetDepositsByDepositor(
	ctx context.Context, depositor types.Identity, paginationKey string,
) (*db.DbResultMap[model.DepositDocument], *types.Error) {
	ctx, release := e.enter(ctx)
	defer release()

	result, err := e.db.FindDepositsByDepositor(ctx, depositor.String(), paginationKey)
	if err != nil {
		if db.IsInvalidPaginationTokenError(err) {
			return nil, types.NewValidationError("invalid pagination key")
		}
		return nil, types.NewInternalServiceError(err)
	}
	return result, nil
}

// PreviewRewards returns what a claim would settle now, without changing
// anything. It is open to any caller and ignores the paused state.
func (e *Engine) PreviewRewards(ctx context.Context, depositId uint64) (*uint256.Int, *types.Error) {
	ctx, release := e.enter(ctx)
	defer release()

	tx, err := ledger.Begin(ctx, e.db)
	if err != nil {
		return nil, storageError(err)
	}
	cfg, err := tx.Config()
	if err != nil {
		return nil, storageError(err)
	}
	logic, logicErr := e.logicFor(cfg.LogicVersion)
	if logicErr != nil {
		return nil, logicErr
	}
	env := &Env{Tx: tx, Collaborators: e.collaborators, Now: utils.Now()}
	return logic.PreviewRewards(ctx, env, depositId)
}
