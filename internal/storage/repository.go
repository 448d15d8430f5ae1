package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"brastech/internal/core"
	"brastech/internal/log"
	"brastech/internal/store"
)

// SQLiteRepository implements store.Store on a local SQLite file.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Default(log.ComponentStorage)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time keeps SQLite from returning SQLITE_BUSY under
	// the sweep's concurrent updates.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func toTransactionRow(tx core.Transaction) transactionRow {
	return transactionRow{
		ID:          tx.ID,
		Date:        string(tx.Date),
		Description: tx.Description,
		Entity:      tx.Entity,
		Amount:      tx.Amount.String(),
		Status:      string(tx.Status),
		Type:        string(tx.Type),
		Category:    tx.Category,
		PaymentDate: nullable(string(tx.PaymentDate)),
		Payer:       nullable(string(tx.Payer)),
	}
}

func fromTransactionRow(r transactionRow) core.Transaction {
	return core.Transaction{
		ID:          r.ID,
		Date:        core.Day(r.Date),
		Description: r.Description,
		Entity:      r.Entity,
		Amount:      core.CoerceMoney(r.Amount),
		Status:      core.Status(r.Status),
		Type:        core.TransactionType(r.Type),
		Category:    r.Category,
		PaymentDate: core.Day(r.PaymentDate.String),
		Payer:       core.Payer(r.Payer.String),
	}
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, len(rows))
	for i, row := range rows {
		out[i] = fromTransactionRow(row)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	row := toTransactionRow(tx)
	row.ID = uuid.NewString()
	if err := r.queries.InsertTransaction(ctx, row); err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	r.logger.DebugContext(ctx, "Transaction saved to SQLite", log.FieldTxID, row.ID, log.FieldTxDate, row.Date)
	return fromTransactionRow(row), nil
}

// CreateTransactions inserts the batch inside one SQL transaction.
func (r *SQLiteRepository) CreateTransactions(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error) {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	defer dbtx.Rollback()

	q := r.queries.WithTx(dbtx)
	out := make([]core.Transaction, len(txs))
	for i, tx := range txs {
		row := toTransactionRow(tx)
		row.ID = uuid.NewString()
		if err := q.InsertTransaction(ctx, row); err != nil {
			return nil, fmt.Errorf("insert transaction %d of %d: %w", i+1, len(txs), err)
		}
		out[i] = fromTransactionRow(row)
	}
	if err := dbtx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}
	r.logger.DebugContext(ctx, "Transaction batch saved to SQLite", log.FieldInstallments, len(out))
	return out, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	row := toTransactionRow(tx)
	n, err := r.queries.UpdateTransaction(ctx, row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", tx.ID, store.ErrNotFound)
	}
	return fromTransactionRow(row), nil
}

func (r *SQLiteRepository) delete(ctx context.Context, table, id string) error {
	n, err := r.queries.deleteByID(ctx, table, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", table, id, store.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	return r.delete(ctx, tableTransactions, id)
}

func toClientRow(c core.Client) clientRow {
	return clientRow{
		ID:               c.ID,
		RegistrationDate: nullable(string(c.RegistrationDate)),
		Name:             c.Name,
		Phone:            c.Phone,
		CPF:              c.CPF,
		Address:          c.Address,
		Status:           string(c.Status),
		Observation:      c.Observation,
		DueDate:          c.DueDate,
		Consultant:       c.Consultant,
		PlanValue:        c.PlanValue.String(),
	}
}

func fromClientRow(r clientRow) core.Client {
	return core.Client{
		ID:               r.ID,
		RegistrationDate: core.Day(r.RegistrationDate.String),
		Name:             r.Name,
		Phone:            r.Phone,
		CPF:              r.CPF,
		Address:          r.Address,
		Status:           core.ClientStatus(r.Status),
		Observation:      r.Observation,
		DueDate:          r.DueDate,
		Consultant:       r.Consultant,
		PlanValue:        core.CoerceMoney(r.PlanValue),
	}
}

func (r *SQLiteRepository) ListClients(ctx context.Context) ([]core.Client, error) {
	rows, err := r.queries.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	out := make([]core.Client, len(rows))
	for i, row := range rows {
		out[i] = fromClientRow(row)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateClient(ctx context.Context, c core.Client) (core.Client, error) {
	row := toClientRow(c)
	row.ID = uuid.NewString()
	if err := r.queries.InsertClient(ctx, row); err != nil {
		return core.Client{}, fmt.Errorf("insert client: %w", err)
	}
	return fromClientRow(row), nil
}

func (r *SQLiteRepository) UpdateClient(ctx context.Context, c core.Client) (core.Client, error) {
	row := toClientRow(c)
	n, err := r.queries.UpdateClient(ctx, row)
	if err != nil {
		return core.Client{}, fmt.Errorf("update client: %w", err)
	}
	if n == 0 {
		return core.Client{}, fmt.Errorf("client %s: %w", c.ID, store.ErrNotFound)
	}
	return fromClientRow(row), nil
}

func (r *SQLiteRepository) DeleteClient(ctx context.Context, id string) error {
	return r.delete(ctx, tableClients, id)
}

func toUserRow(u core.User) userRow {
	return userRow{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       string(u.Role),
		Status:     string(u.Status),
		PhotoURL:   u.PhotoURL,
		LastAccess: u.LastAccess,
	}
}

func fromUserRow(r userRow) core.User {
	return core.User{
		ID:         r.ID,
		Name:       r.Name,
		Email:      r.Email,
		Role:       core.UserRole(r.Role),
		Status:     core.UserStatus(r.Status),
		PhotoURL:   r.PhotoURL,
		LastAccess: r.LastAccess,
	}
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]core.User, len(rows))
	for i, row := range rows {
		out[i] = fromUserRow(row)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	row := toUserRow(u)
	row.ID = uuid.NewString()
	if err := r.queries.InsertUser(ctx, row); err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return fromUserRow(row), nil
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, u core.User) (core.User, error) {
	row := toUserRow(u)
	n, err := r.queries.UpdateUser(ctx, row)
	if err != nil {
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return core.User{}, fmt.Errorf("user %s: %w", u.ID, store.ErrNotFound)
	}
	return fromUserRow(row), nil
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id string) error {
	return r.delete(ctx, tableUsers, id)
}
