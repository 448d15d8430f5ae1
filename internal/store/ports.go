// Package store declares the persistence ports the ledger depends on.
package store

import (
	"context"
	"errors"

	"brastech/internal/core"
)

// ErrNotFound is returned when an update or delete targets a missing id.
var ErrNotFound = errors.New("record not found")

// Ports for persistence adapters. Implementations must be safe for
// concurrent use.
type (
	TransactionStore interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		// CreateTransactions inserts the whole batch or nothing. Returned
		// records keep the input order.
		CreateTransactions(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error)
		UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
	}

	ClientStore interface {
		ListClients(ctx context.Context) ([]core.Client, error)
		CreateClient(ctx context.Context, c core.Client) (core.Client, error)
		UpdateClient(ctx context.Context, c core.Client) (core.Client, error)
		DeleteClient(ctx context.Context, id string) error
	}

	UserStore interface {
		ListUsers(ctx context.Context) ([]core.User, error)
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		UpdateUser(ctx context.Context, u core.User) (core.User, error)
		DeleteUser(ctx context.Context, id string) error
	}

	// Store bundles every collection of the hosted backend.
	Store interface {
		TransactionStore
		ClientStore
		UserStore
		Close() error
	}
)
