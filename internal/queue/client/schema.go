package client

import "github.com/google/uuid"

const (
	DepositEventsQueueName string = "deposit_events_queue"
	AdminEventsQueueName   string = "admin_events_queue"
)

type EventType string

const (
	DepositCreatedEventType   EventType = "deposit_created"
	DepositUnstakedEventType  EventType = "deposit_unstaked"
	RewardsClaimedEventType   EventType = "rewards_claimed"
	DepositWithdrawnEventType EventType = "deposit_withdrawn"
	ConfigUpdatedEventType    EventType = "config_updated"
	EnginePausedEventType     EventType = "engine_paused"
	EngineUnpausedEventType   EventType = "engine_unpaused"
	EngineUpgradedEventType   EventType = "engine_upgraded"
)

// QueueNameOf returns the queue an event type is published to.
func QueueNameOf(eventType EventType) (string, bool) {
	switch eventType {
	case DepositCreatedEventType, DepositUnstakedEventType,
		RewardsClaimedEventType, DepositWithdrawnEventType:
		return DepositEventsQueueName, true
	case ConfigUpdatedEventType, EnginePausedEventType,
		EngineUnpausedEventType, EngineUpgradedEventType:
		return AdminEventsQueueName, true
	default:
		return "", false
	}
}

// Event is implemented by every message the engine publishes.
type Event interface {
	GetEventType() EventType
	GetEventId() string
}

// EventHeader is embedded in every event body.
type EventHeader struct {
	EventType EventType `json:"event_type"`
	EventId   string    `json:"event_id"`
	Timestamp uint64    `json:"timestamp"`
}

func NewEventHeader(eventType EventType, timestamp uint64) EventHeader {
	return EventHeader{
		EventType: eventType,
		EventId:   uuid.NewString(),
		Timestamp: timestamp,
	}
}

func (h EventHeader) GetEventType() EventType {
	return h.EventType
}

func (h EventHeader) GetEventId() string {
	return h.EventId
}

type DepositCreatedEvent struct {
	EventHeader
	DepositId       uint64 `json:"deposit_id"`
	Depositor       string `json:"depositor"`
	AssetCollection string `json:"asset_collection"`
	AssetId         uint64 `json:"asset_id"`
	StakeTimestamp  uint64 `json:"stake_timestamp"`
}

type DepositUnstakedEvent struct {
	EventHeader
	DepositId        uint64 `json:"deposit_id"`
	Depositor        string `json:"depositor"`
	UnstakeTimestamp uint64 `json:"unstake_timestamp"`
}

type RewardsClaimedEvent struct {
	EventHeader
	DepositId uint64 `json:"deposit_id"`
	Depositor string `json:"depositor"`
	// Decimal string
	Amount              string `json:"amount"`
	LastRewardTimestamp uint64 `json:"last_reward_timestamp"`
}

type DepositWithdrawnEvent struct {
	EventHeader
	DepositId       uint64 `json:"deposit_id"`
	Depositor       string `json:"depositor"`
	AssetCollection string `json:"asset_collection"`
	AssetId         uint64 `json:"asset_id"`
}

type ConfigUpdatedEvent struct {
	EventHeader
	Knob string `json:"knob"`
	// Decimal string
	Value string `json:"value"`
}

// LifecycleEvent is published for pause and unpause.
type LifecycleEvent struct {
	EventHeader
	Paused bool `json:"paused"`
}

type EngineUpgradedEvent struct {
	EventHeader
	LogicVersion  uint32 `json:"logic_version"`
	NewController string `json:"new_controller"`
}
