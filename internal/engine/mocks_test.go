package engine

import (
	"context"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/mock"

	queueclient "github.com/babylonchain/asset-staking-service/internal/queue/client"
	"github.com/babylonchain/asset-staking-service/internal/types"
)

type mockCustody struct {
	mock.Mock
}

func (m *mockCustody) TakeCustody(ctx context.Context, collection types.Identity, assetId uint64, from types.Identity) error {
	args := m.Called(ctx, collection, assetId, from)
	return args.Error(0)
}

func (m *mockCustody) Release(ctx context.Context, collection types.Identity, assetId uint64, to types.Identity) error {
	args := m.Called(ctx, collection, assetId, to)
	return args.Error(0)
}

func (m *mockCustody) TransferControl(ctx context.Context, newController types.Identity) error {
	args := m.Called(ctx, newController)
	return args.Error(0)
}

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) OwnerOf(ctx context.Context, collection types.Identity, assetId uint64) (types.Identity, error) {
	args := m.Called(ctx, collection, assetId)
	return args.Get(0).(types.Identity), args.Error(1)
}

type mockIssuer struct {
	mock.Mock
}

func (m *mockIssuer) Issue(ctx context.Context, to types.Identity, amount *uint256.Int) error {
	args := m.Called(ctx, to, amount)
	return args.Error(0)
}

func (m *mockIssuer) TransferControl(ctx context.Context, newController types.Identity) error {
	args := m.Called(ctx, newController)
	return args.Error(0)
}

type mockEmitter struct {
	mock.Mock
}

func (m *mockEmitter) Emit(ctx context.Context, event queueclient.Event) {
	m.Called(ctx, event)
}

// reentrantIssuer calls back into the engine from inside Issue, the way a
// misbehaving issuance service would.
type reentrantIssuer struct {
	engine    *Engine
	callback  func(ctx context.Context) *types.Error
	nestedErr *types.Error
	issued    []*uint256.Int
}

func (r *reentrantIssuer) Issue(ctx context.Context, to types.Identity, amount *uint256.Int) error {
	r.issued = append(r.issued, amount.Clone())
	if r.callback != nil {
		cb := r.callback
		// only once, the nested claim must not recurse forever
		r.callback = nil
		r.nestedErr = cb(ctx)
	}
	return nil
}

func (r *reentrantIssuer) TransferControl(ctx context.Context, newController types.Identity) error {
	return nil
}

// lockCheckingEmitter records whether the engine lock was free while each
// event was emitted.
type lockCheckingEmitter struct {
	engine   *Engine
	lockFree []bool
}

func (l *lockCheckingEmitter) Emit(ctx context.Context, event queueclient.Event) {
	done := make(chan struct{})
	go func() {
		_, _ = l.engine.GetConfig(context.Background())
		close(done)
	}()
	select {
	case <-done:
		l.lockFree = append(l.lockFree, true)
	case <-time.After(time.Second):
		l.lockFree = append(l.lockFree, false)
	}
}
