package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/babylonchain/asset-staking-service/internal/db/model"
)

func (db *Database) SaveUnprocessableMessage(ctx context.Context, messageBody, receipt string) error {
	collection := db.Client.Database(db.DbName).Collection(model.UnprocessableMsgCollection)
	_, err := collection.InsertOne(ctx, model.NewUnprocessableMessageDocument(messageBody, receipt))
	return err
}

// FindUnprocessableMessages returns every stored message, oldest first.
func (db *Database) FindUnprocessableMessages(ctx context.Context) ([]model.UnprocessableMessageDocument, error) {
	collection := db.Client.Database(db.DbName).Collection(model.UnprocessableMsgCollection)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []model.UnprocessableMessageDocument
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (db *Database) DeleteUnprocessableMessage(ctx context.Context, receipt interface{}) error {
	collection := db.Client.Database(db.DbName).Collection(model.UnprocessableMsgCollection)
	_, err := collection.DeleteOne(ctx, bson.M{"receipt": receipt})
	return err
}
