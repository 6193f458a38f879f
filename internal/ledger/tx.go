package ledger

import (
	"context"
	"errors"
	"sort"

	"github.com/babylonchain/asset-staking-service/internal/db"
	"github.com/babylonchain/asset-staking-service/internal/db/model"
)

var (
	ErrNotInitialized     = errors.New("ledger is not initialized")
	ErrAlreadyInitialized = errors.New("ledger is already initialized")
	ErrAlreadyCommitted   = errors.New("ledger transaction already committed")
	ErrNotCommitted       = errors.New("ledger transaction was not committed")
	ErrUnsupportedSchema  = errors.New("ledger schema version is newer than supported")
	ErrDepositExists      = errors.New("deposit already staged")
)

type depositEntry struct {
	// nil for deposits created in this transaction
	original *model.DepositDocument
	staged   model.DepositDocument
}

// Tx stages reads and writes of the deposit ledger and the stake configuration
// and commits them as one LedgerChanges set. A Tx is not safe for concurrent
// use, the engine serializes operations around it.
type Tx struct {
	db       db.DBClient
	base     *model.StakeConfigDocument
	config   *model.StakeConfigDocument
	deposits map[uint64]*depositEntry

	committed        bool
	committedVersion uint64
}

// Begin opens a transaction on top of the currently committed ledger.
func Begin(ctx context.Context, dbClient db.DBClient) (*Tx, error) {
	tx := &Tx{
		db:       dbClient,
		deposits: make(map[uint64]*depositEntry),
	}
	cfg, err := dbClient.FindStakeConfig(ctx)
	if err != nil {
		if db.IsNotFoundError(err) {
			return tx, nil
		}
		return nil, err
	}
	if cfg.SchemaVersion > model.CurrentSchemaVersion {
		return nil, ErrUnsupportedSchema
	}
	base := *cfg
	staged := *cfg
	tx.base = &base
	tx.config = &staged
	return tx, nil
}

// Initialized reports whether a configuration exists in the ledger or was
// staged in this transaction.
func (tx *Tx) Initialized() bool {
	return tx.config != nil
}

// Config returns the staged configuration. Mutations on the returned value are
// part of the transaction.
func (tx *Tx) Config() (*model.StakeConfigDocument, error) {
	if tx.config == nil {
		return nil, ErrNotInitialized
	}
	return tx.config, nil
}

// CreateConfig stages the first configuration of the ledger.
func (tx *Tx) CreateConfig(cfg model.StakeConfigDocument) error {
	if tx.config != nil {
		return ErrAlreadyInitialized
	}
	cfg.Id = model.StakeConfigId
	cfg.SchemaVersion = model.CurrentSchemaVersion
	tx.config = &cfg
	return nil
}

// Deposit returns the staged copy of a deposit, loading it on first access.
// Mutations on the returned value are part of the transaction.
func (tx *Tx) Deposit(ctx context.Context, depositId uint64) (*model.DepositDocument, error) {
	if entry, ok := tx.deposits[depositId]; ok {
		return &entry.staged, nil
	}
	deposit, err := tx.db.FindDepositById(ctx, depositId)
	if err != nil {
		return nil, err
	}
	original := *deposit
	tx.deposits[depositId] = &depositEntry{original: &original, staged: *deposit}
	return &tx.deposits[depositId].staged, nil
}

// InsertDeposit stages a new deposit.
func (tx *Tx) InsertDeposit(deposit model.DepositDocument) error {
	if _, ok := tx.deposits[deposit.DepositId]; ok {
		return ErrDepositExists
	}
	tx.deposits[deposit.DepositId] = &depositEntry{staged: deposit}
	return nil
}

// Changes builds the change set of the transaction. The configuration version
// is bumped by one so that every commit serializes on it.
func (tx *Tx) Changes() (*model.LedgerChanges, error) {
	if tx.config == nil {
		return nil, ErrNotInitialized
	}
	changes := &model.LedgerChanges{}
	next := *tx.config
	if tx.base != nil {
		changes.ExpectedConfigVersion = tx.base.Version
		next.Version = tx.base.Version + 1
	} else {
		next.Version = 1
	}
	changes.Config = &next

	for _, id := range tx.sortedDepositIds() {
		entry := tx.deposits[id]
		switch {
		case entry.original == nil:
			changes.InsertedDeposits = append(changes.InsertedDeposits, entry.staged)
		case *entry.original != entry.staged:
			changes.UpdatedDeposits = append(changes.UpdatedDeposits, entry.staged)
		}
	}
	return changes, nil
}

// Dirty reports whether the transaction staged any change.
func (tx *Tx) Dirty() bool {
	if tx.config == nil {
		return false
	}
	if tx.base == nil || *tx.base != *tx.config {
		return true
	}
	for _, entry := range tx.deposits {
		if entry.original == nil || *entry.original != entry.staged {
			return true
		}
	}
	return false
}

// Committed reports whether the staged changes were written and not reverted.
func (tx *Tx) Committed() bool {
	return tx.committed
}

// Commit durably writes the staged changes.
func (tx *Tx) Commit(ctx context.Context) error {
	if tx.committed {
		return ErrAlreadyCommitted
	}
	changes, err := tx.Changes()
	if err != nil {
		return err
	}
	if err := tx.db.CommitLedgerChanges(ctx, changes); err != nil {
		return err
	}
	tx.committed = true
	tx.committedVersion = changes.Config.Version
	return nil
}

// Revert commits the inverse of a committed transaction: the configuration and
// every touched deposit go back to what they were when the transaction began,
// and deposits it created are removed. The configuration version keeps
// increasing.
func (tx *Tx) Revert(ctx context.Context) error {
	if !tx.committed {
		return ErrNotCommitted
	}
	if tx.base == nil {
		// the configuration itself was created, there is nothing to go back to
		return ErrNotInitialized
	}
	restored := *tx.base
	restored.Version = tx.committedVersion + 1
	changes := &model.LedgerChanges{
		ExpectedConfigVersion: tx.committedVersion,
		Config:                &restored,
	}
	for _, id := range tx.sortedDepositIds() {
		entry := tx.deposits[id]
		switch {
		case entry.original == nil:
			changes.DeletedDepositIds = append(changes.DeletedDepositIds, id)
		case *entry.original != entry.staged:
			changes.UpdatedDeposits = append(changes.UpdatedDeposits, *entry.original)
		}
	}
	if err := tx.db.CommitLedgerChanges(ctx, changes); err != nil {
		return err
	}
	tx.committed = false
	return nil
}

func (tx *Tx) sortedDepositIds() []uint64 {
	ids := make([]uint64, 0, len(tx.deposits))
	for id := range tx.deposits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
