package model

import "github.com/babylonchain/asset-staking-service/internal/utils"

const UnprocessableMsgCollection = "unprocessable_messages"

// UnprocessableMessageDocument is an event that could not be published. The
// receipt is the event id, replays go oldest first.
type UnprocessableMessageDocument struct {
	MessageBody string `bson:"message_body"`
	Receipt     string `bson:"receipt"`
	CreatedAt   uint64 `bson:"created_at"`
}

func NewUnprocessableMessageDocument(messageBody, receipt string) *UnprocessableMessageDocument {
	return &UnprocessableMessageDocument{
		MessageBody: messageBody,
		Receipt:     receipt,
		CreatedAt:   utils.Now(),
	}
}
