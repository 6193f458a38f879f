package db

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"

	"github.com/babylonchain/asset-staking-service/internal/config"
	"github.com/babylonchain/asset-staking-service/internal/db/model"
)

// BadgerDatabase is the embedded DBClient used by single node deployments and
// by tests (in-memory when no directory is configured).
type BadgerDatabase struct {
	store *badgerhold.Store
	cfg   config.DbConfig
}

func NewBadger(cfg config.DbConfig) (*BadgerDatabase, error) {
	opts := badger.DefaultOptions(cfg.BadgerDir)
	if cfg.BadgerDir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	store, err := badgerhold.Open(badgerhold.Options{
		Encoder:          jsonEncode,
		Decoder:          jsonDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, fmt.Errorf("opening badger store: %w", err)
	}
	return &BadgerDatabase{store: store, cfg: cfg}, nil
}

func (db *BadgerDatabase) Ping(ctx context.Context) error {
	if db.store.Badger().IsClosed() {
		return errors.New("badger store is closed")
	}
	return nil
}

func (db *BadgerDatabase) Close(ctx context.Context) error {
	return db.store.Close()
}

func (db *BadgerDatabase) FindStakeConfig(ctx context.Context) (*model.StakeConfigDocument, error) {
	var cfg model.StakeConfigDocument
	if err := db.store.Get(model.StakeConfigId, &cfg); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, &NotFoundError{
				Key:     model.StakeConfigId,
				Message: "Stake configuration not found",
			}
		}
		return nil, err
	}
	return &cfg, nil
}

func (db *BadgerDatabase) FindDepositById(ctx context.Context, depositId uint64) (*model.DepositDocument, error) {
	var deposit model.DepositDocument
	if err := db.store.Get(depositId, &deposit); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, &NotFoundError{
				Key:     fmt.Sprintf("%d", depositId),
				Message: "Deposit not found",
			}
		}
		return nil, err
	}
	return &deposit, nil
}

func (db *BadgerDatabase) FindDepositsByDepositor(
	ctx context.Context, depositor string, paginationToken string,
) (*DbResultMap[model.DepositDocument], error) {
	query := badgerhold.Where("Depositor").Eq(depositor)
	if paginationToken != "" {
		decodedToken, err := model.DecodeDepositsByDepositorPaginationToken(paginationToken)
		if err != nil {
			return nil, &InvalidPaginationTokenError{
				Message: "Invalid pagination token",
			}
		}
		query = query.And("DepositId").Gt(decodedToken.DepositId)
	}

	var deposits []model.DepositDocument
	err := db.store.Find(
		&deposits, query.SortBy("DepositId").Limit(int(db.cfg.MaxPaginationLimit)),
	)
	if err != nil {
		return nil, err
	}
	return toResultMapWithPaginationToken(db.cfg, deposits, model.BuildDepositsByDepositorPaginationToken)
}

// CommitLedgerChanges runs every write inside one badger transaction.
func (db *BadgerDatabase) CommitLedgerChanges(ctx context.Context, changes *model.LedgerChanges) error {
	if changes.Config == nil {
		return fmt.Errorf("ledger changes must carry the configuration")
	}
	return db.store.Badger().Update(func(tx *badger.Txn) error {
		var current model.StakeConfigDocument
		err := db.store.TxGet(tx, model.StakeConfigId, &current)
		switch {
		case errors.Is(err, badgerhold.ErrNotFound):
			if changes.ExpectedConfigVersion != 0 {
				return &ConflictError{
					ExpectedVersion: changes.ExpectedConfigVersion,
					Message:         "stake configuration missing during commit",
				}
			}
		case err != nil:
			return err
		case changes.ExpectedConfigVersion == 0:
			return &DuplicateKeyError{
				Key:     model.StakeConfigId,
				Message: "Stake configuration already exists",
			}
		case current.Version != changes.ExpectedConfigVersion:
			return &ConflictError{
				ExpectedVersion: changes.ExpectedConfigVersion,
				Message:         "stake configuration version changed during commit",
			}
		}

		if err := db.store.TxUpsert(tx, model.StakeConfigId, changes.Config); err != nil {
			return err
		}

		for i := range changes.InsertedDeposits {
			deposit := changes.InsertedDeposits[i]
			if err := db.store.TxInsert(tx, deposit.DepositId, &deposit); err != nil {
				if errors.Is(err, badgerhold.ErrKeyExists) {
					return &DuplicateKeyError{
						Key:     fmt.Sprintf("%d", deposit.DepositId),
						Message: "Deposit already exists",
					}
				}
				return err
			}
		}

		for i := range changes.UpdatedDeposits {
			deposit := changes.UpdatedDeposits[i]
			if err := db.store.TxUpdate(tx, deposit.DepositId, &deposit); err != nil {
				if errors.Is(err, badgerhold.ErrNotFound) {
					return &NotFoundError{
						Key:     fmt.Sprintf("%d", deposit.DepositId),
						Message: "Deposit not found during update",
					}
				}
				return err
			}
		}

		for _, depositId := range changes.DeletedDepositIds {
			err := db.store.TxDelete(tx, depositId, model.DepositDocument{})
			if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
				return err
			}
		}
		return nil
	})
}

func (db *BadgerDatabase) SaveUnprocessableMessage(ctx context.Context, messageBody, receipt string) error {
	return db.store.Insert(badgerhold.NextSequence(), model.NewUnprocessableMessageDocument(messageBody, receipt))
}

func (db *BadgerDatabase) FindUnprocessableMessages(ctx context.Context) ([]model.UnprocessableMessageDocument, error) {
	var messages []model.UnprocessableMessageDocument
	if err := db.store.Find(&messages, (&badgerhold.Query{}).SortBy("CreatedAt")); err != nil {
		return nil, err
	}
	return messages, nil
}

func (db *BadgerDatabase) DeleteUnprocessableMessage(ctx context.Context, Receipt interface{}) error {
	return db.store.DeleteMatching(
		model.UnprocessableMessageDocument{}, badgerhold.Where("Receipt").Eq(Receipt),
	)
}

// jsonEncode is a custom JSON based encoder for badger
func jsonEncode(value interface{}) ([]byte, error) {
	var buff bytes.Buffer

	en := json.NewEncoder(&buff)

	err := en.Encode(value)
	if err != nil {
		return nil, err
	}

	return buff.Bytes(), nil
}

// jsonDecode is a custom JSON based decoder for badger
func jsonDecode(data []byte, value interface{}) error {
	return json.NewDecoder(bytes.NewReader(data)).Decode(value)
}
