package services

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"brastech/internal/amqp"
	"brastech/internal/core"
	"brastech/internal/store/memory"
)

type mockTxStore struct {
	mock.Mock
}

func (m *mockTxStore) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]core.Transaction), args.Error(1)
}

func (m *mockTxStore) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	args := m.Called(ctx, tx)
	return txResult(args.Get(0), tx), args.Error(1)
}

func (m *mockTxStore) CreateTransactions(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error) {
	args := m.Called(ctx, txs)
	switch v := args.Get(0).(type) {
	case nil:
		return nil, args.Error(1)
	case func(context.Context, []core.Transaction) []core.Transaction:
		return v(ctx, txs), args.Error(1)
	default:
		return v.([]core.Transaction), args.Error(1)
	}
}

func (m *mockTxStore) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	args := m.Called(ctx, tx)
	return txResult(args.Get(0), tx), args.Error(1)
}

// echo makes a mocked write return its input.
func echo(tx core.Transaction) core.Transaction { return tx }

func txResult(v any, in core.Transaction) core.Transaction {
	if fn, ok := v.(func(core.Transaction) core.Transaction); ok {
		return fn(in)
	}
	return v.(core.Transaction)
}

func (m *mockTxStore) DeleteTransaction(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishTransactionEvent(ctx context.Context, kind amqp.EventKind, id string) error {
	return m.Called(ctx, kind, id).Error(0)
}

// gatedStore lists from the wrapped store, then waits on the next gate.
type gatedStore struct {
	*memory.Store
	mu      sync.Mutex
	gates   []chan struct{}
	entered chan struct{}
}

func (g *gatedStore) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	out, err := g.Store.ListTransactions(ctx)
	g.mu.Lock()
	var gate chan struct{}
	if len(g.gates) > 0 {
		gate, g.gates = g.gates[0], g.gates[1:]
	}
	g.mu.Unlock()
	g.entered <- struct{}{}
	if gate != nil {
		<-gate
	}
	return out, err
}

var (
	adminSession  = core.Session{User: core.User{Name: "Alex", Email: "alex@brastech.io", Role: core.RoleAdmin, Status: core.UserAtivo}}
	viewerSession = core.Session{User: core.User{Name: "Karol", Email: "karol@brastech.io", Role: core.RoleViewer, Status: core.UserAtivo}}
)

func payable(id string, date core.Day, status core.Status, cents int64) core.Transaction {
	return core.Transaction{
		ID:          id,
		Date:        date,
		Description: "conta " + id,
		Amount:      core.Money{Cents: cents},
		Status:      status,
		Type:        core.Saida,
		Category:    "Geral",
	}
}
