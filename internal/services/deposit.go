package services

import (
	"context"

	"github.com/babylonchain/asset-staking-service/internal/db/model"
	"github.com/babylonchain/asset-staking-service/internal/observability/tracing"
	"github.com/babylonchain/asset-staking-service/internal/types"
)

type DepositPublic struct {
	DepositId           uint64 `json:"deposit_id"`
	AssetCollection     string `json:"asset_collection"`
	AssetId             uint64 `json:"asset_id"`
	Depositor           string `json:"depositor"`
	LastRewardTimestamp uint64 `json:"last_reward_timestamp"`
	StakeTimestamp      uint64 `json:"stake_timestamp"`
	UnstakeTimestamp    uint64 `json:"unstake_timestamp"`
	Status              string `json:"status"`
}

type RewardsPublic struct {
	DepositId uint64 `json:"deposit_id"`
	// Decimal string, rewards can exceed 64 bits
	Amount string `json:"amount"`
}

func fromDepositDocument(d *model.DepositDocument) *DepositPublic {
	return &DepositPublic{
		DepositId:           d.DepositId,
		AssetCollection:     d.AssetCollection,
		AssetId:             d.AssetId,
		Depositor:           d.Depositor,
		LastRewardTimestamp: d.LastRewardTimestamp,
		StakeTimestamp:      d.StakeTimestamp,
		UnstakeTimestamp:    d.UnstakeTimestamp,
		Status:              d.Status.ToString(),
	}
}

func (s *Services) Stake(
	ctx context.Context, caller, collection types.Identity, assetId uint64,
) (*DepositPublic, *types.Error) {
	defer tracing.StartSpan(ctx, "engine.stake")()
	depositId, err := s.Engine.Stake(ctx, caller, collection, assetId)
	if err != nil {
		return nil, err
	}
	return s.GetDeposit(ctx, depositId)
}

func (s *Services) Unstake(ctx context.Context, caller types.Identity, depositId uint64) (*DepositPublic, *types.Error) {
	defer tracing.StartSpan(ctx, "engine.unstake")()
	if err := s.Engine.Unstake(ctx, caller, depositId); err != nil {
		return nil, err
	}
	return s.GetDeposit(ctx, depositId)
}

func (s *Services) Withdraw(ctx context.Context, caller types.Identity, depositId uint64) (*DepositPublic, *types.Error) {
	defer tracing.StartSpan(ctx, "engine.withdraw")()
	if err := s.Engine.Withdraw(ctx, caller, depositId); err != nil {
		return nil, err
	}
	return s.GetDeposit(ctx, depositId)
}

func (s *Services) ClaimRewards(ctx context.Context, caller types.Identity, depositId uint64) (*RewardsPublic, *types.Error) {
	defer tracing.StartSpan(ctx, "engine.claim_rewards")()
	reward, err := s.Engine.ClaimRewards(ctx, caller, depositId)
	if err != nil {
		return nil, err
	}
	return &RewardsPublic{DepositId: depositId, Amount: reward.Dec()}, nil
}

func (s *Services) PreviewRewards(ctx context.Context, depositId uint64) (*RewardsPublic, *types.Error) {
	defer tracing.StartSpan(ctx, "engine.preview_rewards")()
	reward, err := s.Engine.PreviewRewards(ctx, depositId)
	if err != nil {
		return nil, err
	}
	return &RewardsPublic{DepositId: depositId, Amount: reward.Dec()}, nil
}

func (s *Services) GetDeposit(ctx context.Context, depositId uint64) (*DepositPublic, *types.Error) {
	deposit, err := s.Engine.GetDeposit(ctx, depositId)
	if err != nil {
		return nil, err
	}
	return fromDepositDocument(deposit), nil
}

func (s *Services) DepositsByDepositor(
	ctx context.Context, depositor types.Identity, paginationKey string,
) ([]*DepositPublic, string, *types.Error) {
	defer tracing.StartSpan(ctx, "db.deposits_by_depositor")()
	result, err := s.Engine.GetDepositsByDepositor(ctx, depositor, paginationKey)
	if err != nil {
		return nil, "", err
	}
	deposits := make([]*DepositPublic, 0, len(result.Data))
	for i := range result.Data {
		deposits = append(deposits, fromDepositDocument(&result.Data[i]))
	}
	return deposits, result.PaginationToken, nil
}
