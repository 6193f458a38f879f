package scripts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/babylonchain/asset-staking-service/internal/db"
	queueClient "github.com/babylonchain/asset-staking-service/internal/queue/client"
)

type GenericEvent struct {
	EventType queueClient.EventType `json:"event_type"`
}

// MessagePublisher is implemented by queue.Queues.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, eventType queueClient.EventType, messageBody string) error
}

// ReplayUnprocessableMessages publishes again every event that could not be
// published when it happened, deleting each one once it went through.
func ReplayUnprocessableMessages(ctx context.Context, publisher MessagePublisher, db db.DBClient) (err error) {
	// Fetch unprocessable messages
	unprocessableMessages, err := db.FindUnprocessableMessages(ctx)
	if err != nil {
		return errors.New("failed to retrieve unprocessable messages")
	}

	// Get the message count
	messageCount := len(unprocessableMessages)

	// Inform the user of the number of unprocessable messages
	fmt.Printf("There are %d unprocessable messages.\n", messageCount)
	if messageCount == 0 {
		return errors.New("no unprocessable messages to replay")
	}

	// Process each unprocessable message
	for _, msg := range unprocessableMessages {
		var genericEvent GenericEvent
		if err := json.Unmarshal([]byte(msg.MessageBody), &genericEvent); err != nil {
			log.Error().Err(err).Str("receipt", msg.Receipt).Msg("failed to unmarshal event message")
			return errors.New("failed to unmarshal event message")
		}

		if err := publisher.PublishMessage(ctx, genericEvent.EventType, msg.MessageBody); err != nil {
			log.Error().Err(err).Str("receipt", msg.Receipt).Msg("failed to publish event message")
			return errors.New("failed to process message")
		}

		// Delete the processed message from the database
		if err := db.DeleteUnprocessableMessage(ctx, msg.Receipt); err != nil {
			return errors.New("failed to delete unprocessable message")
		}
	}

	log.Info().Msg("Reprocessing of unprocessable messages completed.")
	return
}
