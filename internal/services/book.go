package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"brastech/internal/core"
	"brastech/internal/log"
	"brastech/internal/store"
)

// Book is the in-memory view of the three collections that dashboards
// read from. Writes are applied locally first and rolled back when the
// store rejects them; loads are tagged with a generation so that a slow
// load never overwrites a newer one. Every change to the transaction view
// also advances a revision, which callers use to key derived data.
type Book struct {
	service *TransactionService
	clients store.ClientStore
	users   store.UserStore
	logger  *log.Logger

	mu         sync.Mutex
	started    uint64
	applied    uint64
	revision   uint64
	txs        []core.Transaction
	clientList []core.Client
	userList   []core.User
}

func NewBook(service *TransactionService, clients store.ClientStore, users store.UserStore, logger *log.Logger) *Book {
	if logger == nil {
		logger = log.Default(log.ComponentLedger)
	}
	return &Book{
		service: service,
		clients: clients,
		users:   users,
		logger:  logger.WithComponent(log.ComponentLedger),
	}
}

// Load reads all collections concurrently and replaces the view. applied
// is false when a newer load finished first. On error the previous view
// is kept.
func (b *Book) Load(ctx context.Context) (applied bool, err error) {
	b.mu.Lock()
	b.started++
	gen := b.started
	b.mu.Unlock()

	var (
		txs     []core.Transaction
		clients []core.Client
		users   []core.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = b.service.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		clients, err = b.clients.ListClients(gctx)
		if err != nil {
			return fmt.Errorf("list clients: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		users, err = b.users.ListUsers(gctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		b.logger.WarnContext(ctx, "Load failed, keeping previous view",
			log.FieldGeneration, gen, log.FieldError, err)
		return false, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen < b.applied {
		b.logger.DebugContext(ctx, "Discarding superseded load", log.FieldGeneration, gen, "applied", b.applied)
		return false, nil
	}
	b.applied = gen
	b.revision++
	b.txs = txs
	b.clientList = clients
	b.userList = users
	return true, nil
}

// LoadAfterSweep marks overdue payables and then loads the view. A sweep
// that partly failed is logged and does not prevent the load.
func (b *Book) LoadAfterSweep(ctx context.Context, sweeper *LateSweeper) (SweepResult, error) {
	var res SweepResult
	if sweeper != nil {
		var err error
		res, err = sweeper.Sweep(ctx)
		if err != nil {
			b.logger.WarnContext(ctx, "Late sweep incomplete", log.FieldError, err)
		}
	}
	_, err := b.Load(ctx)
	return res, err
}

// Generation is the generation of the view currently held.
func (b *Book) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.applied
}

// Revision advances on every load and every change to a transaction,
// including optimistic patches and their rollbacks.
func (b *Book) Revision() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revision
}

// View returns the transactions together with the revision they belong to.
func (b *Book) View() (uint64, []core.Transaction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revision, append([]core.Transaction(nil), b.txs...)
}

func (b *Book) Transactions() []core.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]core.Transaction(nil), b.txs...)
}

func (b *Book) Clients() []core.Client {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]core.Client(nil), b.clientList...)
}

func (b *Book) Users() []core.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]core.User(nil), b.userList...)
}

// Transaction returns the record with id from the view.
func (b *Book) Transaction(id string) (core.Transaction, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexOf(id); i >= 0 {
		return b.txs[i], true
	}
	return core.Transaction{}, false
}

// indexOf must be called with mu held.
func (b *Book) indexOf(id string) int {
	for i := range b.txs {
		if b.txs[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *Book) Create(ctx context.Context, sess core.Session, tx core.Transaction) (core.Transaction, error) {
	created, err := b.service.Create(ctx, sess, tx)
	if err != nil {
		return core.Transaction{}, err
	}
	b.mu.Lock()
	b.txs = append(b.txs, created)
	b.revision++
	b.mu.Unlock()
	return created, nil
}

func (b *Book) CreateInstallments(ctx context.Context, sess core.Session, plan InstallmentPlan) ([]core.Transaction, error) {
	created, err := b.service.CreateInstallments(ctx, sess, plan)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.txs = append(b.txs, created...)
	b.revision++
	b.mu.Unlock()
	return created, nil
}

// Update patches the view, writes, and then either merges the confirmed
// record or restores the previous one.
func (b *Book) Update(ctx context.Context, sess core.Session, tx core.Transaction) (core.Transaction, error) {
	if err := checkWrite(sess); err != nil {
		return core.Transaction{}, err
	}

	b.mu.Lock()
	i := b.indexOf(tx.ID)
	if i < 0 {
		b.mu.Unlock()
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", tx.ID, store.ErrNotFound)
	}
	prev := b.txs[i]
	b.txs[i] = Normalize(tx, b.service.Today())
	b.revision++
	b.mu.Unlock()

	confirmed, err := b.service.Update(ctx, sess, tx)

	b.mu.Lock()
	defer b.mu.Unlock()
	j := b.indexOf(tx.ID)
	b.revision++
	if err != nil {
		if j >= 0 {
			b.txs[j] = prev
		}
		b.logger.WarnContext(ctx, "Update rejected, rolled back", log.FieldTxID, tx.ID, log.FieldError, err)
		return core.Transaction{}, err
	}
	if j >= 0 {
		b.txs[j] = confirmed
	}
	return confirmed, nil
}

// modify applies fn to the current record with id and updates it.
func (b *Book) modify(ctx context.Context, sess core.Session, id string, fn func(core.Transaction, core.Day) core.Transaction) (core.Transaction, error) {
	tx, ok := b.Transaction(id)
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	return b.Update(ctx, sess, fn(tx, b.service.Today()))
}

// SetStatus is the status dropdown quick action.
func (b *Book) SetStatus(ctx context.Context, sess core.Session, id string, status core.Status) (core.Transaction, error) {
	if !status.IsValid() {
		return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrInvalidStatus, status)
	}
	return b.modify(ctx, sess, id, func(tx core.Transaction, today core.Day) core.Transaction {
		return ApplyStatus(tx, status, today)
	})
}

// SetPaymentDate is the inline payment date picker. An empty day clears
// the payment.
func (b *Book) SetPaymentDate(ctx context.Context, sess core.Session, id string, day core.Day) (core.Transaction, error) {
	return b.modify(ctx, sess, id, func(tx core.Transaction, today core.Day) core.Transaction {
		return WithPaymentDate(tx, day, today)
	})
}

// SetDueDate is the inline due date picker.
func (b *Book) SetDueDate(ctx context.Context, sess core.Session, id string, day core.Day) (core.Transaction, error) {
	return b.modify(ctx, sess, id, func(tx core.Transaction, today core.Day) core.Transaction {
		return WithDueDate(tx, day, today)
	})
}

func (b *Book) Delete(ctx context.Context, sess core.Session, id string) error {
	if err := checkWrite(sess); err != nil {
		return err
	}

	b.mu.Lock()
	i := b.indexOf(id)
	if i < 0 {
		b.mu.Unlock()
		return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	removed := b.txs[i]
	b.txs = append(b.txs[:i:i], b.txs[i+1:]...)
	b.revision++
	b.mu.Unlock()

	if err := b.service.Delete(ctx, sess, id); err != nil {
		b.mu.Lock()
		if b.indexOf(id) < 0 {
			if i > len(b.txs) {
				i = len(b.txs)
			}
			b.txs = append(b.txs[:i:i], append([]core.Transaction{removed}, b.txs[i:]...)...)
			b.revision++
		}
		b.mu.Unlock()
		b.logger.WarnContext(ctx, "Delete rejected, restored", log.FieldTxID, id, log.FieldError, err)
		return err
	}
	return nil
}

// The roster merge helpers keep the view in step with confirmed roster
// writes.

func (b *Book) upsertClient(c core.Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.clientList {
		if b.clientList[i].ID == c.ID {
			b.clientList[i] = c
			return
		}
	}
	b.clientList = append(b.clientList, c)
}

func (b *Book) removeClient(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.clientList {
		if b.clientList[i].ID == id {
			b.clientList = append(b.clientList[:i:i], b.clientList[i+1:]...)
			return
		}
	}
}

func (b *Book) upsertUser(u core.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.userList {
		if b.userList[i].ID == u.ID {
			b.userList[i] = u
			return
		}
	}
	b.userList = append(b.userList, u)
}

func (b *Book) removeUser(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.userList {
		if b.userList[i].ID == id {
			b.userList = append(b.userList[:i:i], b.userList[i+1:]...)
			return
		}
	}
}
