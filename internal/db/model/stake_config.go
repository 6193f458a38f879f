package model

const (
	StakeConfigCollection = "stake_config"
	// The configuration is a single document.
	StakeConfigId = "stake_config"
	// CurrentSchemaVersion is the layout version of the ledger documents. A new
	// logic version must keep reading and writing this layout.
	CurrentSchemaVersion uint32 = 1
)

type StakeConfigDocument struct {
	Id            string `bson:"_id" json:"id"`
	SchemaVersion uint32 `bson:"schema_version" json:"schema_version"`
	// Version is bumped on every committed change of the ledger
	Version      uint64 `bson:"version" json:"version"`
	LogicVersion uint32 `bson:"logic_version" json:"logic_version"`
	Owner        string `bson:"owner" json:"owner"`
	Controller   string `bson:"controller" json:"controller"`
	Paused       bool   `bson:"paused" json:"paused"`
	// Decimal string, the value can exceed 64 bits
	RewardRatePerTimeUnit  string `bson:"reward_rate_per_time_unit" json:"reward_rate_per_time_unit"`
	NextDepositId          uint64 `bson:"next_deposit_id" json:"next_deposit_id"`
	MinClaimInterval       uint64 `bson:"min_claim_interval" json:"min_claim_interval"`
	UnbondingPeriod        uint64 `bson:"unbonding_period" json:"unbonding_period"`
	MinStakeToUnstakeDelay uint64 `bson:"min_stake_to_unstake_delay" json:"min_stake_to_unstake_delay"`
	InitializedAt          uint64 `bson:"initialized_at" json:"initialized_at"`
}

// LedgerChanges is one atomic set of ledger writes.
type LedgerChanges struct {
	// ExpectedConfigVersion must match the stored configuration version. Zero
	// means the configuration does not exist yet and is being created.
	ExpectedConfigVersion uint64
	Config                *StakeConfigDocument
	InsertedDeposits      []DepositDocument
	UpdatedDeposits       []DepositDocument
	DeletedDepositIds     []uint64
}

func (c *LedgerChanges) IsEmpty() bool {
	return c.Config == nil && len(c.InsertedDeposits) == 0 &&
		len(c.UpdatedDeposits) == 0 && len(c.DeletedDepositIds) == 0
}
