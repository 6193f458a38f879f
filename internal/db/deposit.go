package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/babylonchain/asset-staking-service/internal/db/model"
)

// FindDepositById returns a NotFoundError if the deposit does not exist
func (db *Database) FindDepositById(ctx context.Context, depositId uint64) (*model.DepositDocument, error) {
	client := db.Client.Database(db.DbName).Collection(model.DepositCollection)
	filter := bson.M{"_id": depositId}
	var deposit model.DepositDocument
	err := client.FindOne(ctx, filter).Decode(&deposit)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     fmt.Sprintf("%d", depositId),
				Message: "Deposit not found",
			}
		}
		return nil, err
	}
	return &deposit, nil
}

func (db *Database) FindDepositsByDepositor(
	ctx context.Context, depositor string, paginationToken string,
) (*DbResultMap[model.DepositDocument], error) {
	client := db.Client.Database(db.DbName).Collection(model.DepositCollection)

	filter := bson.M{"depositor": depositor}
	options := options.Find().SetSort(bson.M{"_id": 1})
	options.SetLimit(db.cfg.MaxPaginationLimit)

	// Decode the pagination token first if it exist
	if paginationToken != "" {
		decodedToken, err := model.DecodeDepositsByDepositorPaginationToken(paginationToken)
		if err != nil {
			return nil, &InvalidPaginationTokenError{
				Message: "Invalid pagination token",
			}
		}
		filter = bson.M{
			"depositor": depositor,
			"_id":       bson.M{"$gt": decodedToken.DepositId},
		}
	}

	cursor, err := client.Find(ctx, filter, options)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var deposits []model.DepositDocument
	if err = cursor.All(ctx, &deposits); err != nil {
		return nil, err
	}

	return toResultMapWithPaginationToken(db.cfg, deposits, model.BuildDepositsByDepositorPaginationToken)
}
