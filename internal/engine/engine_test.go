package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	baseclient "github.com/babylonchain/asset-staking-service/internal/clients/base"
	"github.com/babylonchain/asset-staking-service/internal/config"
	"github.com/babylonchain/asset-staking-service/internal/db"
	queueclient "github.com/babylonchain/asset-staking-service/internal/queue/client"
	"github.com/babylonchain/asset-staking-service/internal/types"
	"github.com/babylonchain/asset-staking-service/internal/utils"
)

const (
	hour = uint64(60 * 60)
	day  = 24 * hour
	// all test times are offsets from genesis
	genesis = int64(1_700_000_000)
)

var (
	owner         = types.MustNewIdentity("0x00000000000000000000000000000000000000a1")
	controller    = types.MustNewIdentity("0x00000000000000000000000000000000000000a2")
	newController = types.MustNewIdentity("0x00000000000000000000000000000000000000a3")
	alice         = types.MustNewIdentity("0x00000000000000000000000000000000000000b1")
	bob           = types.MustNewIdentity("0x00000000000000000000000000000000000000b2")
	custodyVault  = types.MustNewIdentity("0x00000000000000000000000000000000000000c0")
	collection    = types.MustNewIdentity("0x00000000000000000000000000000000000000d1")
)

func scenarioParams() *types.StakeParams {
	return &types.StakeParams{
		RewardRatePerTimeUnit:  "1000000000",
		MinClaimInterval:       2 * day,
		UnbondingPeriod:        3 * day,
		MinStakeToUnstakeDelay: day,
	}
}

type testEngine struct {
	*Engine
	db       *db.BadgerDatabase
	custody  *mockCustody
	registry *mockRegistry
	issuer   *mockIssuer
}

func newTestDB(t *testing.T) *db.BadgerDatabase {
	t.Helper()
	dbClient, err := db.NewBadger(config.DbConfig{Type: config.BadgerDbType, MaxPaginationLimit: 10})
	require.NoError(t, err)
	t.Cleanup(func() { dbClient.Close(context.Background()) }) // nolint:errcheck
	return dbClient
}

func setTime(t *testing.T, offset uint64) {
	t.Helper()
	utils.SetNowFunc(func() time.Time {
		return time.Unix(genesis+int64(offset), 0)
	})
	t.Cleanup(utils.ResetNowFunc)
}

func at(offset uint64) uint64 {
	return uint64(genesis) + offset
}

func setupEngine(t *testing.T, params *types.StakeParams) *testEngine {
	t.Helper()
	te := &testEngine{
		db:       newTestDB(t),
		custody:  &mockCustody{},
		registry: &mockRegistry{},
		issuer:   &mockIssuer{},
	}
	te.Engine = New(te.db, Collaborators{
		Custody:  te.custody,
		Registry: te.registry,
		Issuer:   te.issuer,
	}, nil)
	setTime(t, 0)
	require.Nil(t, te.Initialize(context.Background(), owner, controller, params, LogicV1Version))
	return te
}

// stake stakes assetId for depositor at the current time.
func (te *testEngine) stake(t *testing.T, depositor types.Identity, assetId uint64) uint64 {
	t.Helper()
	te.registry.On("OwnerOf", mock.Anything, collection, assetId).Return(depositor, nil).Once()
	te.custody.On("TakeCustody", mock.Anything, collection, assetId, depositor).Return(nil).Once()
	depositId, err := te.Stake(context.Background(), depositor, collection, assetId)
	require.Nil(t, err)
	return depositId
}

func (te *testEngine) expectIssue(to types.Identity, amount *uint256.Int) *mock.Call {
	return te.issuer.On("Issue", mock.Anything, to, mock.MatchedBy(func(a *uint256.Int) bool {
		return a.Eq(amount)
	}))
}

func requireErrorCode(t *testing.T, expected types.ErrorCode, err *types.Error) {
	t.Helper()
	require.NotNil(t, err)
	assert.Equal(t, expected, err.ErrorCode, err.Error())
}

func rewardFor(seconds uint64, rate uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(seconds), uint256.NewInt(rate))
}

func TestLifecycleScenario(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, scenarioParams())

	depositId := te.stake(t, alice, 7)
	assert.Equal(t, uint64(0), depositId)

	setTime(t, day)
	_, err := te.ClaimRewards(ctx, alice, depositId)
	requireErrorCode(t, types.TooEarly, err)

	require.Nil(t, te.Unstake(ctx, alice, depositId))
	deposit, err := te.GetDeposit(ctx, depositId)
	require.Nil(t, err)
	assert.Equal(t, types.Unstaked, deposit.Status)
	assert.Equal(t, at(day), deposit.UnstakeTimestamp)

	setTime(t, 2*day)
	requireErrorCode(t, types.TooEarly, te.Withdraw(ctx, alice, depositId))

	setTime(t, 4*day)
	te.custody.On("Release", mock.Anything, collection, uint64(7), alice).Return(nil).Once()
	require.Nil(t, te.Withdraw(ctx, alice, depositId))

	expected := rewardFor(4*day, 1_000_000_000)
	te.expectIssue(alice, expected).Return(nil).Once()
	reward, err := te.ClaimRewards(ctx, alice, depositId)
	require.Nil(t, err)
	assert.True(t, reward.Eq(expected))

	deposit, err = te.GetDeposit(ctx, depositId)
	require.Nil(t, err)
	assert.Equal(t, types.Withdrawn, deposit.Status)
	assert.Equal(t, at(4*day), deposit.LastRewardTimestamp)

	te.custody.AssertExpectations(t)
	te.issuer.AssertExpectations(t)
}

func TestRestakeBeforeWithdrawalFailsOwnershipCheck(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, scenarioParams())
	te.stake(t, alice, 7)

	// the asset is held by the custody service now
	te.registry.On("OwnerOf", mock.Anything, collection, uint64(7)).Return(custodyVault, nil).Once()
	_, err := te.Stake(ctx, alice, collection, 7)
	requireErrorCode(t, types.Unauthorized, err)

	cfg, err := te.GetConfig(ctx)
	require.Nil(t, err)
	assert.Equal(t, uint64(1), cfg.NextDepositId)
	te.custody.AssertNumberOfCalls(t, "TakeCustody", 1)
}

func TestDepositIdsAreStrictlyIncreasing(t *testing.T) {
	te := setupEngine(t, scenarioParams())
	var previous uint64
	for i := uint64(0); i < 5; i++ {
		depositor := alice
		if i%2 == 1 {
			depositor = bob
		}
		depositId := te.stake(t, depositor, 100+i)
		if i > 0 {
			assert.Greater(t, depositId, previous)
		}
		previous = depositId
	}
	assert.Equal(t, uint64(4), previous)
}

func TestOnlyDepositorCanActOnDeposit(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, scenarioParams())
	depositId := te.stake(t, alice, 1)

	checkRejected := func() {
		requireErrorCode(t, types.Unauthorized, te.Unstake(ctx, bob, depositId))
		_, err := te.ClaimRewards(ctx, bob, depositId)
		requireErrorCode(t, types.Unauthorized, err)
		requireErrorCode(t, types.Unauthorized, te.Withdraw(ctx, bob, depositId))
	}

	checkRejected()

	setTime(t, day)
	require.Nil(t, te.Unstake(ctx, alice, depositId))
	checkRejected()

	// ownership is checked before the paused state
	require.Nil(t, te.Pause(ctx, owner))
	checkRejected()
	require.Nil(t, te.Unpause(ctx, owner))

	setTime(t, 5*day)
	te.custody.On("Release", mock.Anything, collection, uint64(1), alice).Return(nil).Once()
	require.Nil(t, te.Withdraw(ctx, alice, depositId))
	checkRejected()
}

func TestInvalidDepositId(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, scenarioParams())
	te.stake(t, alice, 1)

	requireErrorCode(t, types.ValidationError, te.Unstake(ctx, alice, 1))
	_, err := te.ClaimRewards(ctx, alice, 42)
	requireErrorCode(t, types.ValidationError, err)
	requireErrorCode(t, types.ValidationError, te.Withdraw(ctx, alice, 1))
	_, err = te.PreviewRewards(ctx, 1)
	requireErrorCode(t, types.ValidationError, err)
	_, err = te.GetDeposit(ctx, 1)
	requireErrorCode(t, types.ValidationError, err)
}

func TestStatusNeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, scenarioParams())
	depositId := te.stake(t, alice, 1)

	// Staked -> Withdrawn is not a transition
	setTime(t, 10*day)
	requireErrorCode(t, types.StateConflict, te.Withdraw(ctx, alice, depositId))

	require.Nil(t, te.Unstake(ctx, alice, depositId))
	requireErrorCode(t, types.StateConflict, te.Unstake(ctx, alice, depositId))

	setTime(t, 13*day)
	te.custody.On("Release", mock.Anything, collection, uint64(1), alice).Return(nil).Once()
	require.Nil(t, te.Withdraw(ctx, alice, depositId))

	err := te.Unstake(ctx, alice, depositId)
	requireErrorCode(t, types.StateConflict, err)
	assert.Contains(t, err.Error(), "withdrawn")
	requireErrorCode(t, types.StateConflict, te.Withdraw(ctx, alice, depositId))

	deposit, getErr := te.GetDeposit(ctx, depositId)
	require.Nil(t, getErr)
	assert.Equal(t, types.Withdrawn, deposit.Status)
}

func TestUnstakeRequiresMinimumDelay(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, scenarioParams())
	depositId := te.stake(t, alice, 1)

	setTime(t, day-1)
	requireErrorCode(t, types.TooEarly, te.Unstake(ctx, alice, depositId))
	setTime(t, day)
	require.Nil(t, te.Unstake(ctx, alice, depositId))
}

func TestClaimWhileStakedCreditsElapsedTime(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, scenarioParams())
	depositId := te.stake(t, alice, 1)

	t1 := 2*day + 17
	setTime(t, t1)
	expected := rewardFor(t1, 1_000_000_000)
	te.expectIssue(alice, expected).Return(nil).Once()

	reward, err := te.ClaimRewards(ctx, alice, depositId)
	require.Nil(t, err)
	assert.True(t, reward.Eq(expected))

	deposit, err := te.GetDeposit(ctx, depositId)
	require.Nil(t, err)
	assert.Equal(t, at(t1), deposit.LastRewardTimestamp)
	assert.Equal(t, types.Staked, deposit.Status)

	// the interval restarts from the new watermark
	setTime(t, t1+day)
	_, err = te.ClaimRewards(ctx, alice, depositId)
	requireErrorCode(t, types.TooEarly, err)
	te.issuer.AssertExpectations(t)
}

func TestUnstakedRewardsStopAtEndOfUnbonding(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, scenarioParams())
	onTime := te.stake(t, alice, 1)
	late := te.stake(t, alice, 2)

	setTime(t, day)
	require.Nil(t, te.Unstake(ctx, alice, onTime))
	require.Nil(t, te.Unstake(ctx, alice, late))

	expected := rewardFor(4*day, 1_000_000_000)
	te.expectIssue(alice, expected).Return(nil).Twice()

	setTime(t, 4*day)
	reward, err := te.ClaimRewards(ctx, alice, onTime)
	require.Nil(t, err)
	assert.True(t, reward.Eq(expected))

	setTime(t, 40*day)
	preview, err := te.PreviewRewards(ctx, late)
	require.Nil(t, err)
	assert.True(t, preview.Eq(expected))
	reward, err = te.ClaimRewards(ctx, alice, late)
	require.Nil(t, err)
	assert.True(t, reward.Eq(expected))

	deposit, err := te.GetDeposit(ctx, late)
	require.Nil(t, err)
	assert.Equal(t, at(4*day), deposit.LastRewardTimestamp)
	te.issuer.AssertExpectations(t)
}

func TestClaimDuringUnbondingAccruesToNow(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, scenarioParams())
	depositId := te.stake(t, alice, 1)

	setTime(t, day)
	require.Nil(t, te.Unstake(ctx, alice, depositId))

	setTime(t, 2*day+hour)
	first := rewardFor(2*day+hour, 1_000_000_000)
	te.expectIssue(alice, first).Return(nil).Once()
	_, err := te.ClaimRewards(ctx, alice, depositId)
	require.Nil(t, err)

	// the remainder up to the end of unbonding, no further
	setTime(t, 30*day)
	rest := rewardFor(4*day-(2*day+hour), 1_000_000_000)
	te.expectIssue(alice, rest).Return(nil).Once()
	reward, err := te.ClaimRewards(ctx, alice, depositId)
	require.Nil(t, err)
	assert.True(t, reward.Eq(rest))
	te.issuer.AssertExpectations(t)
}

func TestSettledDepositClaimsNothing(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, scenarioParams())
	depositId := te.stake(t, alice, 1)

	setTime(t, day)
	require.Nil(t, te.Unstake(ctx, alice, depositId))
	setTime(t, 4*day)
	te.custody.On("Release", mock.Anything, collection, uint64(1), alice).Return(nil).Once()
	require.Nil(t, te.Withdraw(ctx, alice, depositId))
	te.expectIssue(alice, rewardFor(4*day, 1_000_000_000)).Return(nil).Once()
	_, err := te.ClaimRewards(ctx, alice, depositId)
	require.Nil(t, err)

	cfgBefore, err := te.GetConfig(ctx)
	require.Nil(t, err)

	// immediately, and much later: zero without calling the issuance service
	for _, offset := range []uint64{4 * day, 4*day + 1, 100 * day} {
		setTime(t, offset)
		reward, claimErr := te.ClaimRewards(ctx, alice, depositId)
		require.Nil(t, claimErr)
		assert.True(t, reward.IsZero())
	}

	cfgAfter, err := te.GetConfig(ctx)
	require.Nil(t, err)
	assert.Equal(t, cfgBefore.Version, cfgAfter.Version)
	te.issuer.AssertNumberOfCalls(t, "Issue", 1)
}

func TestPauseGatesEverythingButWithdraw(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, scenarioParams())
	staked := te.stake(t, alice, 1)
	unstaked := te.stake(t, alice, 2)
	setTime(t, day)
	require.Nil(t, te.Unstake(ctx, alice, unstaked))

	requireErrorCode(t, types.Unauthorized, te.Pause(ctx, alice))
	require.Nil(t, te.Pause(ctx, owner))
	requireErrorCode(t, types.StateConflict, te.Pause(ctx, owner))

	setTime(t, 5*day)
	_, err := te.Stake(ctx, alice, collection, 3)
	requireErrorCode(t, types.ServiceUnavailable, err)
	requireErrorCode(t, types.ServiceUnavailable, te.Unstake(ctx, alice, staked))
	_, err = te.ClaimRewards(ctx, alice, staked)
	requireErrorCode(t, types.ServiceUnavailable, err)
	requireErrorCode(t, types.ServiceUnavailable, te.SetMinClaimInterval(ctx, owner, 3*day))

	// previews and withdrawals stay open
	_, err = te.PreviewRewards(ctx, staked)
	require.Nil(t, err)
	te.custody.On("Release", mock.Anything, collection, uint64(2), alice).Return(nil).Once()
	require.Nil(t, te.Withdraw(ctx, alice, unstaked))

	requireErrorCode(t, types.Unauthorized, te.Unpause(ctx, bob))
	require.Nil(t, te.Unpause(ctx, owner))
	requireErrorCode(t, types.StateConflict, te.Unpause(ctx, owner))
	require.Nil(t, te.Unstake(ctx, alice, staked))
	te.registry.AssertNotCalled(t, "OwnerOf", mock.Anything, collection, uint64(3))
}

func TestSetters(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, scenarioParams())

	requireErrorCode(t, types.Unauthorized, te.SetMinClaimInterval(ctx, alice, 3*day))

	requireErrorCode(t, types.InvalidConfiguration, te.SetRewardRatePerTimeUnit(ctx, owner, uint256.NewInt(0)))
	requireErrorCode(t, types.InvalidConfiguration, te.SetMinClaimInterval(ctx, owner, types.MinClaimIntervalFloor-1))
	requireErrorCode(t, types.InvalidConfiguration, te.SetUnbondingPeriod(ctx, owner, types.UnbondingPeriodFloor-1))
	requireErrorCode(t, types.InvalidConfiguration,
		te.SetMinStakeToUnstakeDelay(ctx, owner, types.MinStakeToUnstakeDelayFloor-1))
	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 100)
	requireErrorCode(t, types.InvalidConfiguration, te.SetParameter(ctx, owner, UnbondingPeriodKnob, huge))

	require.Nil(t, te.SetRewardRatePerTimeUnit(ctx, owner, huge))
	require.Nil(t, te.SetMinClaimInterval(ctx, owner, types.MinClaimIntervalFloor))
	require.Nil(t, te.SetUnbondingPeriod(ctx, owner, 7*day))
	require.Nil(t, te.SetMinStakeToUnstakeDelay(ctx, owner, 2*day))

	cfg, err := te.GetConfig(ctx)
	require.Nil(t, err)
	assert.Equal(t, huge.Dec(), cfg.RewardRatePerTimeUnit)
	assert.Equal(t, types.MinClaimIntervalFloor, cfg.MinClaimInterval)
	assert.Equal(t, 7*day, cfg.UnbondingPeriod)
	assert.Equal(t, 2*day, cfg.MinStakeToUnstakeDelay)
}

func TestPreviewRewardsDoesNotSettle(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, scenarioParams())
	depositId := te.stake(t, alice, 1)

	setTime(t, hour)
	reward, err := te.PreviewRewards(ctx, depositId)
	require.Nil(t, err)
	assert.True(t, reward.Eq(rewardFor(hour, 1_000_000_000)))

	deposit, err := te.GetDeposit(ctx, depositId)
	require.Nil(t, err)
	assert.Equal(t, at(0), deposit.LastRewardTimestamp)
}

func TestClaimIsRevertedWhenIssuanceFails(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, scenarioParams())
	depositId := te.stake(t, alice, 1)

	setTime(t, 3*day)
	expected := rewardFor(3*day, 1_000_000_000)
	te.expectIssue(alice, expected).Return(errors.New("issuance down")).Once()
	_, err := te.ClaimRewards(ctx, alice, depositId)
	require.NotNil(t, err)

	deposit, getErr := te.GetDeposit(ctx, depositId)
	require.Nil(t, getErr)
	assert.Equal(t, at(0), deposit.LastRewardTimestamp)

	// the full amount is still claimable
	te.expectIssue(alice, expected).Return(nil).Once()
	reward, err := te.ClaimRewards(ctx, alice, depositId)
	require.Nil(t, err)
	assert.True(t, reward.Eq(expected))
	te.issuer.AssertExpectations(t)
}

func TestStakeIsRevertedWhenCustodyFails(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, scenarioParams())

	te.registry.On("OwnerOf", mock.Anything, collection, uint64(1)).Return(alice, nil).Once()
	te.custody.On("TakeCustody", mock.Anything, collection, uint64(1), alice).
		Return(types.NewErrorWithMsg(403, types.BadRequest, "transfer not approved")).Once()
	_, err := te.Stake(ctx, alice, collection, 1)
	requireErrorCode(t, types.BadRequest, err)

	cfg, cfgErr := te.GetConfig(ctx)
	require.Nil(t, cfgErr)
	assert.Equal(t, uint64(0), cfg.NextDepositId)
	_, getErr := te.GetDeposit(ctx, 0)
	requireErrorCode(t, types.ValidationError, getErr)

	// a later stake gets the id that was never handed out
	assert.Equal(t, uint64(0), te.stake(t, alice, 1))
}

func TestWithdrawIsRevertedWhenReleaseFails(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, scenarioParams())
	depositId := te.stake(t, alice, 1)
	setTime(t, day)
	require.Nil(t, te.Unstake(ctx, alice, depositId))

	setTime(t, 4*day)
	te.custody.On("Release", mock.Anything, collection, uint64(1), alice).Return(errors.New("custody down")).Once()
	require.NotNil(t, te.Withdraw(ctx, alice, depositId))

	deposit, err := te.GetDeposit(ctx, depositId)
	require.Nil(t, err)
	assert.Equal(t, types.Unstaked, deposit.Status)
}

func TestReentrantClaimObservesSettledWatermark(t *testing.T) {
	ctx := context.Background()
	dbClient := newTestDB(t)
	registry := &mockRegistry{}
	custody := &mockCustody{}
	issuer := &reentrantIssuer{}
	e := New(dbClient, Collaborators{Custody: custody, Registry: registry, Issuer: issuer}, nil)
	setTime(t, 0)
	require.Nil(t, e.Initialize(ctx, owner, controller, scenarioParams(), LogicV1Version))

	registry.On("OwnerOf", mock.Anything, collection, uint64(1)).Return(alice, nil).Once()
	custody.On("TakeCustody", mock.Anything, collection, uint64(1), alice).Return(nil).Once()
	depositId, err := e.Stake(ctx, alice, collection, 1)
	require.Nil(t, err)

	issuer.callback = func(ctx context.Context) *types.Error {
		_, err := e.ClaimRewards(ctx, alice, depositId)
		return err
	}

	setTime(t, 3*day)
	reward, err := e.ClaimRewards(ctx, alice, depositId)
	require.Nil(t, err)
	assert.True(t, reward.Eq(rewardFor(3*day, 1_000_000_000)))

	requireErrorCode(t, types.TooEarly, issuer.nestedErr)
	require.Len(t, issuer.issued, 1)
}

func TestCollaboratorsReceiveController(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, scenarioParams())
	te.registry.On("OwnerOf", mock.Anything, collection, uint64(1)).Return(alice, nil).Once()
	te.custody.On("TakeCustody", mock.MatchedBy(func(ctx context.Context) bool {
		c, ok := baseclient.ControllerFromContext(ctx)
		return ok && c == controller
	}), collection, uint64(1), alice).Return(nil).Once()

	_, err := te.Stake(ctx, alice, collection, 1)
	require.Nil(t, err)
	te.custody.AssertExpectations(t)
}

func TestInitializeRunsOnce(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, scenarioParams())
	requireErrorCode(t, types.StateConflict, te.Initialize(ctx, owner, controller, scenarioParams(), LogicV1Version))

	fresh := New(newTestDB(t), Collaborators{}, nil)
	_, err := fresh.Stake(ctx, alice, collection, 1)
	requireErrorCode(t, types.ServiceUnavailable, err)

	belowFloor := scenarioParams()
	belowFloor.UnbondingPeriod = hour
	requireErrorCode(t, types.InvalidConfiguration, fresh.Initialize(ctx, owner, controller, belowFloor, LogicV1Version))
	requireErrorCode(t, types.InvalidConfiguration,
		fresh.Initialize(ctx, types.ZeroIdentity, controller, scenarioParams(), LogicV1Version))
	requireErrorCode(t, types.InvalidConfiguration, fresh.Initialize(ctx, owner, controller, scenarioParams(), 9))
	require.Nil(t, fresh.Initialize(ctx, owner, controller, scenarioParams(), LogicV1Version))
}

// logicV2 behaves like LogicV1 under another version number.
type logicV2 struct {
	*LogicV1
}

func (l *logicV2) Version() uint32 {
	return 2
}

func TestAuthorizeUpgrade(t *testing.T) {
	ctx := context.Background()
	dbClient := newTestDB(t)
	custody := &mockCustody{}
	registry := &mockRegistry{}
	issuer := &mockIssuer{}
	e := New(dbClient, Collaborators{Custody: custody, Registry: registry, Issuer: issuer}, nil,
		NewLogicV1(), &logicV2{NewLogicV1()})
	setTime(t, 0)
	require.Nil(t, e.Initialize(ctx, owner, controller, scenarioParams(), LogicV1Version))

	requireErrorCode(t, types.StateConflict, e.AuthorizeUpgrade(ctx, owner, 2, newController))
	require.Nil(t, e.Pause(ctx, owner))
	requireErrorCode(t, types.Unauthorized, e.AuthorizeUpgrade(ctx, alice, 2, newController))
	requireErrorCode(t, types.InvalidConfiguration, e.AuthorizeUpgrade(ctx, owner, 3, newController))
	requireErrorCode(t, types.InvalidConfiguration, e.AuthorizeUpgrade(ctx, owner, 2, types.ZeroIdentity))

	fromController := func(expected types.Identity) interface{} {
		return mock.MatchedBy(func(ctx context.Context) bool {
			c, ok := baseclient.ControllerFromContext(ctx)
			return ok && c == expected
		})
	}

	// the issuance service refuses: custody control goes back, nothing changes
	custody.On("TransferControl", fromController(controller), newController).Return(nil).Once()
	issuer.On("TransferControl", fromController(controller), newController).Return(errors.New("refused")).Once()
	custody.On("TransferControl", fromController(newController), controller).Return(nil).Once()
	require.NotNil(t, e.AuthorizeUpgrade(ctx, owner, 2, newController))

	cfg, err := e.GetConfig(ctx)
	require.Nil(t, err)
	assert.Equal(t, LogicV1Version, cfg.LogicVersion)
	assert.Equal(t, controller.String(), cfg.Controller)

	custody.On("TransferControl", fromController(controller), newController).Return(nil).Once()
	issuer.On("TransferControl", fromController(controller), newController).Return(nil).Once()
	require.Nil(t, e.AuthorizeUpgrade(ctx, owner, 2, newController))

	cfg, err = e.GetConfig(ctx)
	require.Nil(t, err)
	assert.Equal(t, uint32(2), cfg.LogicVersion)
	assert.Equal(t, newController.String(), cfg.Controller)
	assert.True(t, cfg.Paused)
	custody.AssertExpectations(t)
	issuer.AssertExpectations(t)

	// the ledger carries over, the new logic serves the next operations
	require.Nil(t, e.Unpause(ctx, owner))
	registry.On("OwnerOf", mock.Anything, collection, uint64(1)).Return(alice, nil).Once()
	custody.On("TakeCustody", fromController(newController), collection, uint64(1), alice).Return(nil).Once()
	depositId, err := e.Stake(ctx, alice, collection, 1)
	require.Nil(t, err)
	assert.Equal(t, uint64(0), depositId)
}

func TestEventsAreEmittedAfterSuccess(t *testing.T) {
	ctx := context.Background()
	dbClient := newTestDB(t)
	custody := &mockCustody{}
	registry := &mockRegistry{}
	emitter := &mockEmitter{}
	e := New(dbClient, Collaborators{Custody: custody, Registry: registry, Issuer: &mockIssuer{}}, emitter)
	setTime(t, 0)
	require.Nil(t, e.Initialize(ctx, owner, controller, scenarioParams(), LogicV1Version))

	registry.On("OwnerOf", mock.Anything, collection, uint64(1)).Return(alice, nil).Twice()
	custody.On("TakeCustody", mock.Anything, collection, uint64(1), alice).Return(errors.New("down")).Once()
	_, err := e.Stake(ctx, alice, collection, 1)
	require.NotNil(t, err)
	emitter.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything)

	custody.On("TakeCustody", mock.Anything, collection, uint64(1), alice).Return(nil).Once()
	emitter.On("Emit", mock.Anything, mock.MatchedBy(func(event queueclient.Event) bool {
		created, ok := event.(*queueclient.DepositCreatedEvent)
		return ok && created.DepositId == 0 && created.Depositor == alice.String() &&
			created.GetEventType() == queueclient.DepositCreatedEventType && created.GetEventId() != ""
	})).Once()
	_, err = e.Stake(ctx, alice, collection, 1)
	require.Nil(t, err)
	emitter.AssertExpectations(t)
}

func TestReentrantStakeIsRejectedWhileOuterStakeIsPending(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, scenarioParams())

	te.registry.On("OwnerOf", mock.Anything, collection, uint64(1)).Return(alice, nil).Once()
	te.registry.On("OwnerOf", mock.Anything, collection, uint64(2)).Return(bob, nil).Maybe()
	var nestedErr *types.Error
	te.custody.On("TakeCustody", mock.Anything, collection, uint64(1), alice).
		Run(func(args mock.Arguments) {
			_, nestedErr = te.Stake(args.Get(0).(context.Context), bob, collection, 2)
		}).
		Return(types.NewServiceUnavailableError("custody refused the transfer")).Once()

	_, err := te.Stake(ctx, alice, collection, 1)
	requireErrorCode(t, types.ServiceUnavailable, err)
	requireErrorCode(t, types.StateConflict, nestedErr)
	te.custody.AssertNotCalled(t, "TakeCustody", mock.Anything, collection, uint64(2), bob)

	// the failed stake left nothing behind
	_, getErr := te.GetDeposit(ctx, 0)
	requireErrorCode(t, types.ValidationError, getErr)
	cfg, cfgErr := te.GetConfig(ctx)
	require.Nil(t, cfgErr)
	assert.Equal(t, uint64(0), cfg.NextDepositId)

	// and the engine is usable again
	assert.Equal(t, uint64(0), te.stake(t, bob, 2))
}

func TestReentrantUnstakeDuringClaimIsRejected(t *testing.T) {
	ctx := context.Background()
	dbClient := newTestDB(t)
	registry := &mockRegistry{}
	custody := &mockCustody{}
	issuer := &reentrantIssuer{}
	e := New(dbClient, Collaborators{Custody: custody, Registry: registry, Issuer: issuer}, nil)
	setTime(t, 0)
	require.Nil(t, e.Initialize(ctx, owner, controller, scenarioParams(), LogicV1Version))

	registry.On("OwnerOf", mock.Anything, collection, uint64(1)).Return(alice, nil).Once()
	custody.On("TakeCustody", mock.Anything, collection, uint64(1), alice).Return(nil).Once()
	depositId, err := e.Stake(ctx, alice, collection, 1)
	require.Nil(t, err)

	issuer.callback = func(ctx context.Context) *types.Error {
		return e.Unstake(ctx, alice, depositId)
	}
	setTime(t, 3*day)
	_, err = e.ClaimRewards(ctx, alice, depositId)
	require.Nil(t, err)
	requireErrorCode(t, types.StateConflict, issuer.nestedErr)

	deposit, err := e.GetDeposit(ctx, depositId)
	require.Nil(t, err)
	assert.Equal(t, types.Staked, deposit.Status)
	assert.Equal(t, at(3*day), deposit.LastRewardTimestamp)
}

func TestClaimAfterClockRegression(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, scenarioParams())
	depositId := te.stake(t, alice, 1)

	setTime(t, 3*day)
	te.expectIssue(alice, rewardFor(3*day, 1_000_000_000)).Return(nil).Once()
	_, err := te.ClaimRewards(ctx, alice, depositId)
	require.Nil(t, err)

	setTime(t, 3*day-1)
	_, err = te.ClaimRewards(ctx, alice, depositId)
	requireErrorCode(t, types.StateConflict, err)

	deposit, getErr := te.GetDeposit(ctx, depositId)
	require.Nil(t, getErr)
	assert.Equal(t, at(3*day), deposit.LastRewardTimestamp)

	preview, previewErr := te.PreviewRewards(ctx, depositId)
	require.Nil(t, previewErr)
	assert.True(t, preview.IsZero())
	te.issuer.AssertNumberOfCalls(t, "Issue", 1)
}

func TestEventsAreEmittedWithoutHoldingTheLock(t *testing.T) {
	ctx := context.Background()
	registry := &mockRegistry{}
	custody := &mockCustody{}
	emitter := &lockCheckingEmitter{}
	e := New(newTestDB(t), Collaborators{Custody: custody, Registry: registry, Issuer: &mockIssuer{}}, emitter)
	emitter.engine = e
	setTime(t, 0)
	require.Nil(t, e.Initialize(ctx, owner, controller, scenarioParams(), LogicV1Version))

	registry.On("OwnerOf", mock.Anything, collection, uint64(1)).Return(alice, nil).Once()
	custody.On("TakeCustody", mock.Anything, collection, uint64(1), alice).Return(nil).Once()
	_, err := e.Stake(ctx, alice, collection, 1)
	require.Nil(t, err)
	require.Nil(t, e.Pause(ctx, owner))

	assert.Equal(t, []bool{true, true}, emitter.lockFree)
}
