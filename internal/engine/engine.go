package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	baseclient "github.com/babylonchain/asset-staking-service/internal/clients/base"
	"github.com/babylonchain/asset-staking-service/internal/clients/custody"
	"github.com/babylonchain/asset-staking-service/internal/clients/issuance"
	"github.com/babylonchain/asset-staking-service/internal/clients/registry"
	"github.com/babylonchain/asset-staking-service/internal/db"
	"github.com/babylonchain/asset-staking-service/internal/ledger"
	"github.com/babylonchain/asset-staking-service/internal/observability/metrics"
	queueclient "github.com/babylonchain/asset-staking-service/internal/queue/client"
	"github.com/babylonchain/asset-staking-service/internal/types"
	"github.com/babylonchain/asset-staking-service/internal/utils"
)

// Collaborators are the external services the engine gives orders to.
type Collaborators struct {
	Custody  custody.Custody
	Registry registry.AssetRegistry
	Issuer   issuance.Issuer
}

type EventEmitter interface {
	Emit(ctx context.Context, event queueclient.Event)
}

// Engine runs the staking operations against the deposit ledger. Operations
// are serialized: each one validates, commits its ledger changes and only then
// talks to the collaborators. A collaborator failure commits the inverse
// changes so that the operation leaves no trace.
type Engine struct {
	mu            sync.Mutex
	db            db.DBClient
	collaborators Collaborators
	emitter       EventEmitter
	logics        map[uint32]Logic
}

// New creates an engine. Without logics it runs LogicV1 only.
func New(dbClient db.DBClient, collaborators Collaborators, emitter EventEmitter, logics ...Logic) *Engine {
	if len(logics) == 0 {
		logics = []Logic{NewLogicV1()}
	}
	registered := make(map[uint32]Logic, len(logics))
	for _, l := range logics {
		registered[l.Version()] = l
	}
	return &Engine{
		db:            dbClient,
		collaborators: collaborators,
		emitter:       emitter,
		logics:        registered,
	}
}

type executionKey struct{}

// enter serializes the engine. A context that already belongs to a running
// operation of this engine is a reentrant call made by a collaborator: it runs
// nested and reads the state the outer operation already committed, but it
// cannot change it.
func (e *Engine) enter(ctx context.Context) (context.Context, func()) {
	if e.running(ctx) {
		return ctx, func() {}
	}
	e.mu.Lock()
	return context.WithValue(ctx, executionKey{}, e), e.mu.Unlock
}

// running reports whether ctx belongs to an operation of this engine that is
// still in progress.
func (e *Engine) running(ctx context.Context) bool {
	running, ok := ctx.Value(executionKey{}).(*Engine)
	return ok && running == e
}

func (e *Engine) logicFor(version uint32) (Logic, *types.Error) {
	logic, ok := e.logics[version]
	if !ok {
		return nil, types.NewServiceUnavailableError(
			fmt.Sprintf("logic version %d is not supported by this engine", version),
		)
	}
	return logic, nil
}

// operationFunc stages the changes of an operation in env.Tx and returns what
// has to happen once they are committed.
type operationFunc func(ctx context.Context, env *Env) (*Call, *types.Error)

// execute runs an operation under the engine lock. Its events are published
// after the lock is released.
func (e *Engine) execute(ctx context.Context, operation string, fn operationFunc) (*Call, *types.Error) {
	nested := e.running(ctx)
	call, err := func() (*Call, *types.Error) {
		ctx, release := e.enter(ctx)
		defer release()
		return e.executeLocked(ctx, operation, nested, fn)
	}()
	if err != nil {
		metrics.RecordEngineOperation(operation, metrics.Error)
		return nil, err
	}
	metrics.RecordEngineOperation(operation, metrics.Success)

	for _, event := range call.Events {
		e.emit(ctx, event)
	}
	return call, nil
}

func (e *Engine) executeLocked(
	ctx context.Context, operation string, nested bool, fn operationFunc,
) (*Call, *types.Error) {
	logger := log.Ctx(ctx).With().Str("operation", operation).Logger()

	tx, err := ledger.Begin(ctx, e.db)
	if err != nil {
		return nil, storageError(err)
	}
	env := &Env{
		Tx:            tx,
		Collaborators: e.collaborators,
		Now:           utils.Now(),
	}
	// Collaborators only take orders from the controller that was in place
	// when the operation started.
	var controller types.Identity
	if cfg, cfgErr := tx.Config(); cfgErr == nil {
		controller = types.Identity(cfg.Controller)
	}

	call, opErr := fn(ctx, env)
	if opErr != nil {
		logger.Debug().Err(opErr).Msg("operation rejected")
		return nil, opErr
	}

	if tx.Dirty() {
		// Only the outermost operation commits.
		if nested {
			logger.Warn().Msg("rejected state change from a reentrant call")
			return nil, types.NewStateConflictError(
				"cannot change state while another operation is in progress",
			)
		}
		if err := tx.Commit(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to commit ledger changes")
			return nil, storageError(err)
		}
	}

	interactionCtx := baseclient.WithController(ctx, controller)
	for _, interaction := range call.Interactions {
		if err := interaction(interactionCtx); err != nil {
			logger.Error().Err(err).Msg("collaborator call failed, reverting ledger changes")
			if tx.Committed() {
				if revertErr := tx.Revert(ctx); revertErr != nil {
					logger.Error().Err(revertErr).Msg("failed to revert ledger changes")
					return nil, types.NewInternalServiceError(
						fmt.Errorf("collaborator call failed and the ledger could not be reverted: %w", revertErr),
					)
				}
			}
			return nil, collaboratorError(err)
		}
	}

	return call, nil
}

func (e *Engine) emit(ctx context.Context, event queueclient.Event) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(ctx, event)
}

// storageError maps ledger and db failures to engine errors.
func storageError(err error) *types.Error {
	switch {
	case errors.Is(err, ledger.ErrNotInitialized):
		return types.NewServiceUnavailableError("staking engine is not initialized")
	case errors.Is(err, ledger.ErrAlreadyInitialized) || db.IsDuplicateKeyError(err):
		return types.NewStateConflictError("staking engine is already initialized")
	case db.IsConflictError(err):
		return types.NewStateConflictError("ledger was changed concurrently, retry the operation")
	case errors.Is(err, ledger.ErrUnsupportedSchema):
		return types.NewServiceUnavailableError("ledger schema is newer than this engine supports")
	default:
		return types.NewInternalServiceError(err)
	}
}

func collaboratorError(err error) *types.Error {
	var e *types.Error
	if errors.As(err, &e) {
		return e
	}
	return types.NewInternalServiceError(err)
}
