package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"brastech/internal/core"
	"brastech/internal/store"
)

// Store keeps every collection in process memory. Reads return copies.
type Store struct {
	mu      sync.Mutex
	txs     []core.Transaction
	clients []core.Client
	users   []core.User
	newID   func() string
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{newID: func() string { return uuid.NewString() }}
}

// seedFile mirrors the JSON backup layout produced by the export endpoint.
type seedFile struct {
	Transactions []core.Transaction `json:"transactions"`
	Clients      []core.Client      `json:"clients"`
	Users        []core.User        `json:"users"`
}

// NewFromFile seeds the store from a JSON backup. A missing file yields an
// empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	for _, tx := range seed.Transactions {
		s.txs = append(s.txs, s.withID(persistable(tx)))
	}
	for _, c := range seed.Clients {
		if c.ID == "" {
			c.ID = s.newID()
		}
		s.clients = append(s.clients, c)
	}
	for _, u := range seed.Users {
		if u.ID == "" {
			u.ID = s.newID()
		}
		s.users = append(s.users, u)
	}
	return s, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) withID(tx core.Transaction) core.Transaction {
	if tx.ID == "" {
		tx.ID = s.newID()
	}
	return tx
}

// persistable drops what the hosted backend does not keep: installment
// positions are not columns and blank optional fields become absent.
func persistable(tx core.Transaction) core.Transaction {
	tx.InstallmentCurrent = 0
	tx.InstallmentTotal = 0
	tx.PaymentDate = core.Day(strings.TrimSpace(string(tx.PaymentDate)))
	tx.Payer = core.Payer(strings.TrimSpace(string(tx.Payer)))
	return tx
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.txs...), nil
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx = persistable(tx)
	tx.ID = s.newID()
	s.txs = append(s.txs, tx)
	return tx, nil
}

func (s *Store) CreateTransactions(_ context.Context, txs []core.Transaction) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(txs))
	for i, tx := range txs {
		tx = persistable(tx)
		tx.ID = s.newID()
		out[i] = tx
	}
	s.txs = append(s.txs, out...)
	return append([]core.Transaction(nil), out...), nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txs {
		if s.txs[i].ID == tx.ID {
			s.txs[i] = persistable(tx)
			return s.txs[i], nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", tx.ID, store.ErrNotFound)
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txs {
		if s.txs[i].ID == id {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
}

func (s *Store) ListClients(_ context.Context) ([]core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Client(nil), s.clients...), nil
}

func (s *Store) CreateClient(_ context.Context, c core.Client) (core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.newID()
	s.clients = append(s.clients, c)
	return c, nil
}

func (s *Store) UpdateClient(_ context.Context, c core.Client) (core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.clients {
		if s.clients[i].ID == c.ID {
			s.clients[i] = c
			return c, nil
		}
	}
	return core.Client{}, fmt.Errorf("client %s: %w", c.ID, store.ErrNotFound)
}

func (s *Store) DeleteClient(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.clients {
		if s.clients[i].ID == id {
			s.clients = append(s.clients[:i], s.clients[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("client %s: %w", id, store.ErrNotFound)
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.User(nil), s.users...), nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.newID()
	s.users = append(s.users, u)
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == u.ID {
			s.users[i] = u
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("user %s: %w", u.ID, store.ErrNotFound)
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("user %s: %w", id, store.ErrNotFound)
}
