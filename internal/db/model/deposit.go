package model

import (
	"encoding/base64"
	"encoding/json"

	"github.com/babylonchain/asset-staking-service/internal/types"
)

const DepositCollection = "deposits"

type DepositDocument struct {
	DepositId           uint64              `bson:"_id" json:"deposit_id"` // Primary key
	AssetCollection     string              `bson:"asset_collection" json:"asset_collection"`
	AssetId             uint64              `bson:"asset_id" json:"asset_id"`
	Depositor           string              `bson:"depositor" json:"depositor"`
	LastRewardTimestamp uint64              `bson:"last_reward_timestamp" json:"last_reward_timestamp"`
	StakeTimestamp      uint64              `bson:"stake_timestamp" json:"stake_timestamp"`
	UnstakeTimestamp    uint64              `bson:"unstake_timestamp" json:"unstake_timestamp"`
	Status              types.DepositStatus `bson:"status" json:"status"`
}

type DepositsByDepositorPagination struct {
	DepositId uint64 `json:"deposit_id"`
}

func DecodeDepositsByDepositorPaginationToken(token string) (*DepositsByDepositorPagination, error) {
	tokenBytes, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}
	var d DepositsByDepositorPagination
	err = json.Unmarshal(tokenBytes, &d)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *DepositsByDepositorPagination) GetPaginationToken() (string, error) {
	tokenBytes, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(tokenBytes), nil
}

func BuildDepositsByDepositorPaginationToken(d DepositDocument) (string, error) {
	page := &DepositsByDepositorPagination{
		DepositId: d.DepositId,
	}
	token, err := page.GetPaginationToken()
	if err != nil {
		return "", err
	}
	return token, nil
}
