package db

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/babylonchain/asset-staking-service/internal/db/model"
)

// DBClient is the storage contract of the deposit ledger. It is shared by every
// logic version of the engine and must stay stable across upgrades.
type DBClient interface {
	Ping(ctx context.Context) error
	// FindStakeConfig returns a NotFoundError if the ledger was never initialized
	FindStakeConfig(ctx context.Context) (*model.StakeConfigDocument, error)
	FindDepositById(ctx context.Context, depositId uint64) (*model.DepositDocument, error)
	FindDepositsByDepositor(
		ctx context.Context, depositor string, paginationToken string,
	) (*DbResultMap[model.DepositDocument], error)
	// CommitLedgerChanges applies all the changes or none of them. It returns a
	// ConflictError if the stored configuration version does not match
	// changes.ExpectedConfigVersion.
	CommitLedgerChanges(ctx context.Context, changes *model.LedgerChanges) error
	SaveUnprocessableMessage(ctx context.Context, messageBody, receipt string) error
	FindUnprocessableMessages(ctx context.Context) ([]model.UnprocessableMessageDocument, error)
	DeleteUnprocessableMessage(ctx context.Context, Receipt interface{}) error
	Close(ctx context.Context) error
}

type DBTransactionClient interface {
	StartSession(opts ...*options.SessionOptions) (DBSession, error)
}

type DBSession interface {
	EndSession(ctx context.Context)
	WithTransaction(
		ctx context.Context, fn func(sessCtx mongo.SessionContext) (interface{}, error),
		opts ...*options.TransactionOptions,
	) (interface{}, error)
}
