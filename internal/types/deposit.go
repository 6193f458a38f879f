package types

import "fmt"

type DepositStatus string

const (
	Staked    DepositStatus = "staked"
	Unstaked  DepositStatus = "unstaked"
	Withdrawn DepositStatus = "withdrawn"
)

func (s DepositStatus) ToString() string {
	return string(s)
}

func FromStringToDepositStatus(s string) (DepositStatus, error) {
	switch s {
	case "staked":
		return Staked, nil
	case "unstaked":
		return Unstaked, nil
	case "withdrawn":
		return Withdrawn, nil
	default:
		return "", fmt.Errorf("invalid deposit status: %s", s)
	}
}
