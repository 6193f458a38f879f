package config

import (
	"fmt"

	"github.com/babylonchain/asset-staking-service/internal/types"
)

type EngineConfig struct {
	// Owner is the administrator identity used when the ledger is initialized.
	Owner string `mapstructure:"owner"`
	// Controller is the identity this engine presents to the custody and
	// issuance services.
	Controller string `mapstructure:"controller"`
	// LogicVersion selects the operation logic on first initialization.
	LogicVersion uint32 `mapstructure:"logic-version"`
}

func (cfg *EngineConfig) Validate() error {
	owner, err := types.NewIdentity(cfg.Owner)
	if err != nil {
		return fmt.Errorf("invalid engine owner: %w", err)
	}
	if owner.IsZero() {
		return fmt.Errorf("engine owner cannot be the zero address")
	}
	controller, err := types.NewIdentity(cfg.Controller)
	if err != nil {
		return fmt.Errorf("invalid engine controller: %w", err)
	}
	if controller.IsZero() {
		return fmt.Errorf("engine controller cannot be the zero address")
	}
	if cfg.LogicVersion == 0 {
		return fmt.Errorf("logic version must be positive")
	}
	return nil
}
