package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/babylonchain/asset-staking-service/internal/config"
	"github.com/babylonchain/asset-staking-service/internal/db"
	"github.com/babylonchain/asset-staking-service/internal/observability/metrics"
	"github.com/babylonchain/asset-staking-service/internal/queue/client"
)

type Queues struct {
	DepositEventsQueueClient client.QueueClient
	AdminEventsQueueClient   client.QueueClient
	dbClient                 db.DBClient
	processingTimeout        time.Duration
}

func New(cfg *config.QueueConfig, dbClient db.DBClient) (*Queues, error) {
	depositEventsQueueClient, err := client.NewQueueClient(cfg, client.DepositEventsQueueName)
	if err != nil {
		return nil, fmt.Errorf("error while creating DepositEventsQueueClient: %w", err)
	}
	adminEventsQueueClient, err := client.NewQueueClient(cfg, client.AdminEventsQueueName)
	if err != nil {
		depositEventsQueueClient.Stop()
		return nil, fmt.Errorf("error while creating AdminEventsQueueClient: %w", err)
	}
	return NewWithClients(
		depositEventsQueueClient, adminEventsQueueClient, dbClient,
		time.Duration(cfg.QueueProcessingTimeout)*time.Second,
	), nil
}

func NewWithClients(
	depositEvents, adminEvents client.QueueClient, dbClient db.DBClient, processingTimeout time.Duration,
) *Queues {
	return &Queues{
		DepositEventsQueueClient: depositEvents,
		AdminEventsQueueClient:   adminEvents,
		dbClient:                 dbClient,
		processingTimeout:        processingTimeout,
	}
}

// Emit publishes an engine event. A message that cannot be published is kept
// as an unprocessable message so that it can be replayed later, the caller
// never sees the failure.
func (q *Queues) Emit(ctx context.Context, event client.Event) {
	logger := log.Ctx(ctx).With().
		Str("eventType", string(event.GetEventType())).
		Str("eventId", event.GetEventId()).
		Logger()

	body, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("error while marshalling event")
		return
	}

	// The publish must not be cut short by the request that triggered it
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.processingTimeout)
	defer cancel()

	pubErr := q.PublishMessage(publishCtx, event.GetEventType(), string(body))
	if pubErr == nil {
		return
	}
	logger.Error().Err(pubErr).Msg("error while publishing event, saving it as unprocessable")
	queueName, _ := client.QueueNameOf(event.GetEventType())
	metrics.RecordUnprocessableMessage(queueName)
	if saveErr := q.dbClient.SaveUnprocessableMessage(publishCtx, string(body), event.GetEventId()); saveErr != nil {
		logger.Error().Err(saveErr).Str("messageBody", string(body)).
			Msg("error while saving unprocessable message")
	}
}

// PublishMessage sends an already encoded event body to the queue of its type.
func (q *Queues) PublishMessage(ctx context.Context, eventType client.EventType, messageBody string) error {
	queueClient, err := q.clientFor(eventType)
	if err != nil {
		return err
	}
	return queueClient.SendMessage(ctx, messageBody)
}

func (q *Queues) clientFor(eventType client.EventType) (client.QueueClient, error) {
	queueName, ok := client.QueueNameOf(eventType)
	if !ok {
		return nil, fmt.Errorf("unknown event type: %v", eventType)
	}
	switch queueName {
	case client.DepositEventsQueueName:
		return q.DepositEventsQueueClient, nil
	default:
		return q.AdminEventsQueueClient, nil
	}
}

// IsConnectionHealthy checks every queue connection.
func (q *Queues) IsConnectionHealthy() error {
	var errorMessages []string
	for _, queueClient := range []client.QueueClient{q.DepositEventsQueueClient, q.AdminEventsQueueClient} {
		if err := queueClient.Ping(); err != nil {
			errorMessages = append(errorMessages, fmt.Sprintf("%s is not healthy: %v", queueClient.GetQueueName(), err))
		}
	}
	if len(errorMessages) > 0 {
		return fmt.Errorf("queue connections error: %v", errorMessages)
	}
	return nil
}

func (q *Queues) Stop() {
	for _, queueClient := range []client.QueueClient{q.DepositEventsQueueClient, q.AdminEventsQueueClient} {
		if err := queueClient.Stop(); err != nil {
			log.Error().Err(err).Str("queueName", queueClient.GetQueueName()).Msg("error while stopping queue client")
		}
	}
}
