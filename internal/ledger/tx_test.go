package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babylonchain/asset-staking-service/internal/config"
	"github.com/babylonchain/asset-staking-service/internal/db"
	"github.com/babylonchain/asset-staking-service/internal/db/model"
	"github.com/babylonchain/asset-staking-service/internal/ledger"
	"github.com/babylonchain/asset-staking-service/internal/types"
)

func newStore(t *testing.T) db.DBClient {
	t.Helper()
	store, err := db.NewBadger(config.DbConfig{Type: config.BadgerDbType, MaxPaginationLimit: 10})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(context.Background()) }) // nolint:errcheck
	return store
}

func initialize(t *testing.T, ctx context.Context, store db.DBClient) {
	t.Helper()
	tx, err := ledger.Begin(ctx, store)
	require.NoError(t, err)
	require.False(t, tx.Initialized())
	require.NoError(t, tx.CreateConfig(model.StakeConfigDocument{
		LogicVersion:           1,
		RewardRatePerTimeUnit:  "10",
		MinClaimInterval:       types.MinClaimIntervalFloor,
		UnbondingPeriod:        types.UnbondingPeriodFloor,
		MinStakeToUnstakeDelay: types.MinStakeToUnstakeDelayFloor,
	}))
	require.True(t, tx.Dirty())
	require.NoError(t, tx.Commit(ctx))
}

func TestBeginOnEmptyLedger(t *testing.T) {
	ctx := context.Background()
	tx, err := ledger.Begin(ctx, newStore(t))
	require.NoError(t, err)

	_, err = tx.Config()
	assert.ErrorIs(t, err, ledger.ErrNotInitialized)
	assert.False(t, tx.Dirty())
	assert.ErrorIs(t, tx.Commit(ctx), ledger.ErrNotInitialized)
}

func TestCreateConfigTwice(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	initialize(t, ctx, store)

	tx, err := ledger.Begin(ctx, store)
	require.NoError(t, err)
	assert.True(t, tx.Initialized())
	assert.ErrorIs(t, tx.CreateConfig(model.StakeConfigDocument{}), ledger.ErrAlreadyInitialized)
}

func TestCommitBumpsVersion(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	initialize(t, ctx, store)

	tx, err := ledger.Begin(ctx, store)
	require.NoError(t, err)
	assert.False(t, tx.Dirty())

	cfg, err := tx.Config()
	require.NoError(t, err)
	cfg.NextDepositId = 1
	require.NoError(t, tx.InsertDeposit(model.DepositDocument{
		DepositId: 0, Depositor: "0x00000000000000000000000000000000000000d1", Status: types.Staked,
	}))
	assert.ErrorIs(t, tx.InsertDeposit(model.DepositDocument{DepositId: 0}), ledger.ErrDepositExists)
	require.True(t, tx.Dirty())
	require.NoError(t, tx.Commit(ctx))
	assert.True(t, tx.Committed())
	assert.ErrorIs(t, tx.Commit(ctx), ledger.ErrAlreadyCommitted)

	stored, err := store.FindStakeConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stored.Version)
	assert.Equal(t, uint64(1), stored.NextDepositId)

	deposit, err := store.FindDepositById(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, types.Staked, deposit.Status)
}

func TestRevertRestoresLedger(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	initialize(t, ctx, store)

	// first deposit, committed for good
	tx, err := ledger.Begin(ctx, store)
	require.NoError(t, err)
	cfg, _ := tx.Config()
	cfg.NextDepositId = 1
	require.NoError(t, tx.InsertDeposit(model.DepositDocument{DepositId: 0, Status: types.Staked}))
	require.NoError(t, tx.Commit(ctx))

	// second transaction updates it and creates another deposit, then reverts
	tx, err = ledger.Begin(ctx, store)
	require.NoError(t, err)
	assert.ErrorIs(t, tx.Revert(ctx), ledger.ErrNotCommitted)
	cfg, _ = tx.Config()
	cfg.NextDepositId = 2
	deposit, err := tx.Deposit(ctx, 0)
	require.NoError(t, err)
	deposit.Status = types.Unstaked
	deposit.UnstakeTimestamp = 100
	require.NoError(t, tx.InsertDeposit(model.DepositDocument{DepositId: 1, Status: types.Staked}))

	changes, err := tx.Changes()
	require.NoError(t, err)
	assert.Len(t, changes.InsertedDeposits, 1)
	assert.Len(t, changes.UpdatedDeposits, 1)

	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, tx.Revert(ctx))
	assert.False(t, tx.Committed())

	stored, err := store.FindStakeConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stored.NextDepositId)
	// the revert is a commit of its own
	assert.Equal(t, uint64(4), stored.Version)

	restored, err := store.FindDepositById(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, types.Staked, restored.Status)
	assert.Zero(t, restored.UnstakeTimestamp)

	_, err = store.FindDepositById(ctx, 1)
	assert.True(t, db.IsNotFoundError(err))
}

func TestConcurrentCommitConflicts(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	initialize(t, ctx, store)

	first, err := ledger.Begin(ctx, store)
	require.NoError(t, err)
	second, err := ledger.Begin(ctx, store)
	require.NoError(t, err)

	cfg, _ := first.Config()
	cfg.Paused = true
	require.NoError(t, first.Commit(ctx))

	cfg, _ = second.Config()
	cfg.MinClaimInterval = 2 * types.MinClaimIntervalFloor
	assert.True(t, db.IsConflictError(second.Commit(ctx)))
}

func TestBeginRefusesNewerSchema(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.CommitLedgerChanges(ctx, &model.LedgerChanges{
		Config: &model.StakeConfigDocument{
			Id:            model.StakeConfigId,
			SchemaVersion: model.CurrentSchemaVersion + 1,
			Version:       1,
		},
	}))

	_, err := ledger.Begin(ctx, store)
	assert.ErrorIs(t, err, ledger.ErrUnsupportedSchema)
}
