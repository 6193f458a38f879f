package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/babylonchain/asset-staking-service/internal/db/model"
)

func (db *Database) FindStakeConfig(ctx context.Context) (*model.StakeConfigDocument, error) {
	client := db.Client.Database(db.DbName).Collection(model.StakeConfigCollection)
	var cfg model.StakeConfigDocument
	err := client.FindOne(ctx, bson.M{"_id": model.StakeConfigId}).Decode(&cfg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     model.StakeConfigId,
				Message: "Stake configuration not found",
			}
		}
		return nil, err
	}
	return &cfg, nil
}

// CommitLedgerChanges writes the configuration and deposit changes in one
// transaction. The configuration update is filtered on the expected version so
// two writers cannot both commit on top of the same state.
func (db *Database) CommitLedgerChanges(ctx context.Context, changes *model.LedgerChanges) error {
	if changes.Config == nil {
		return fmt.Errorf("ledger changes must carry the configuration")
	}
	configClient := db.Client.Database(db.DbName).Collection(model.StakeConfigCollection)
	depositClient := db.Client.Database(db.DbName).Collection(model.DepositCollection)

	transactionWork := func(sessCtx mongo.SessionContext) (interface{}, error) {
		if changes.ExpectedConfigVersion == 0 {
			_, err := configClient.InsertOne(sessCtx, changes.Config)
			if err != nil {
				if isMongoDuplicateKey(err) {
					return nil, &DuplicateKeyError{
						Key:     model.StakeConfigId,
						Message: "Stake configuration already exists",
					}
				}
				return nil, err
			}
		} else {
			filter := bson.M{"_id": model.StakeConfigId, "version": changes.ExpectedConfigVersion}
			result, err := configClient.ReplaceOne(sessCtx, filter, changes.Config)
			if err != nil {
				return nil, err
			}
			if result.MatchedCount == 0 {
				return nil, &ConflictError{
					ExpectedVersion: changes.ExpectedConfigVersion,
					Message:         "stake configuration version changed during commit",
				}
			}
		}

		for _, deposit := range changes.InsertedDeposits {
			if _, err := depositClient.InsertOne(sessCtx, deposit); err != nil {
				if isMongoDuplicateKey(err) {
					return nil, &DuplicateKeyError{
						Key:     fmt.Sprintf("%d", deposit.DepositId),
						Message: "Deposit already exists",
					}
				}
				return nil, err
			}
		}

		for _, deposit := range changes.UpdatedDeposits {
			result, err := depositClient.ReplaceOne(sessCtx, bson.M{"_id": deposit.DepositId}, deposit)
			if err != nil {
				return nil, err
			}
			if result.MatchedCount == 0 {
				return nil, &NotFoundError{
					Key:     fmt.Sprintf("%d", deposit.DepositId),
					Message: "Deposit not found during update",
				}
			}
		}

		for _, depositId := range changes.DeletedDepositIds {
			if _, err := depositClient.DeleteOne(sessCtx, bson.M{"_id": depositId}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	_, err := TxWithRetries(ctx, &dbTransactionClient{db.Client}, transactionWork)
	return err
}

func isMongoDuplicateKey(err error) bool {
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, e := range writeErr.WriteErrors {
			if mongo.IsDuplicateKeyError(e) {
				return true
			}
		}
	}
	return mongo.IsDuplicateKeyError(err)
}
