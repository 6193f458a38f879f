package types

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/holiman/uint256"
)

// Protocol floors. Configuration values below them are rejected both at
// initialization and by the owner setters. Durations are in seconds.
const (
	RewardRateFloor             uint64 = 1
	MinClaimIntervalFloor       uint64 = 60 * 60
	UnbondingPeriodFloor        uint64 = 24 * 60 * 60
	MinStakeToUnstakeDelayFloor uint64 = 60 * 60
)

// StakeParams is the initial stake configuration handed to the engine at
// initialization time.
type StakeParams struct {
	RewardRatePerTimeUnit  string `json:"reward_rate_per_time_unit"`
	MinClaimInterval       uint64 `json:"min_claim_interval"`
	UnbondingPeriod        uint64 `json:"unbonding_period"`
	MinStakeToUnstakeDelay uint64 `json:"min_stake_to_unstake_delay"`
}

func NewStakeParams(filePath string) (*StakeParams, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var params StakeParams
	err = json.Unmarshal(data, &params)
	if err != nil {
		return nil, err
	}
	if err = params.Validate(); err != nil {
		return nil, err
	}

	return &params, nil
}

// RewardRate returns the parsed reward rate.
func (p *StakeParams) RewardRate() (*uint256.Int, error) {
	return ParseRewardRate(p.RewardRatePerTimeUnit)
}

// Validate the stake params against the protocol floors
func (p *StakeParams) Validate() error {
	if _, err := p.RewardRate(); err != nil {
		return err
	}
	if err := ValidateMinClaimInterval(p.MinClaimInterval); err != nil {
		return err
	}
	if err := ValidateUnbondingPeriod(p.UnbondingPeriod); err != nil {
		return err
	}
	if err := ValidateMinStakeToUnstakeDelay(p.MinStakeToUnstakeDelay); err != nil {
		return err
	}
	return nil
}

// ParseRewardRate parses a decimal reward rate and checks it against its floor.
func ParseRewardRate(s string) (*uint256.Int, error) {
	rate, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid reward rate %q: %w", s, err)
	}
	if rate.Lt(uint256.NewInt(RewardRateFloor)) {
		return nil, fmt.Errorf("reward rate must be at least %d", RewardRateFloor)
	}
	return rate, nil
}

func ValidateMinClaimInterval(v uint64) error {
	if v < MinClaimIntervalFloor {
		return fmt.Errorf("min claim interval must be at least %d seconds", MinClaimIntervalFloor)
	}
	return nil
}

func ValidateUnbondingPeriod(v uint64) error {
	if v < UnbondingPeriodFloor {
		return fmt.Errorf("unbonding period must be at least %d seconds", UnbondingPeriodFloor)
	}
	return nil
}

func ValidateMinStakeToUnstakeDelay(v uint64) error {
	if v < MinStakeToUnstakeDelayFloor {
		return fmt.Errorf("min stake to unstake delay must be at least %d seconds", MinStakeToUnstakeDelayFloor)
	}
	return nil
}
