package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// transactionRow mirrors the transactions table. Amount is scanned loosely
// because rows written by other tools may carry a number or a string.
type transactionRow struct {
	ID          string
	Date        string
	Description string
	Entity      string
	Amount      any
	Status      string
	Type        string
	Category    string
	PaymentDate sql.NullString
	Payer       sql.NullString
}

const listTransactions = `
SELECT id, date, description, entity, amount, status, type, category, payment_date, payer
FROM transactions
ORDER BY created_at, rowid`

func (q *Queries) ListTransactions(ctx context.Context) ([]transactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []transactionRow
	for rows.Next() {
		var i transactionRow
		if err := rows.Scan(&i.ID, &i.Date, &i.Description, &i.Entity, &i.Amount,
			&i.Status, &i.Type, &i.Category, &i.PaymentDate, &i.Payer); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const insertTransaction = `
INSERT INTO transactions (id, date, description, entity, amount, status, type, category, payment_date, payer)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertTransaction(ctx context.Context, r transactionRow) error {
	_, err := q.db.ExecContext(ctx, insertTransaction,
		r.ID, r.Date, r.Description, r.Entity, r.Amount, r.Status, r.Type, r.Category, r.PaymentDate, r.Payer)
	return err
}

const updateTransaction = `
UPDATE transactions
SET date = ?, description = ?, entity = ?, amount = ?, status = ?, type = ?, category = ?,
    payment_date = ?, payer = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, r transactionRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		r.Date, r.Description, r.Entity, r.Amount, r.Status, r.Type, r.Category, r.PaymentDate, r.Payer, r.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) deleteByID(ctx context.Context, table, id string) (int64, error) {
	// table is one of the constants below, never user input.
	res, err := q.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const (
	tableTransactions = "transactions"
	tableClients      = "clients"
	tableUsers        = "users"
)

type clientRow struct {
	ID               string
	RegistrationDate sql.NullString
	Name             string
	Phone            string
	CPF              string
	Address          string
	Status           string
	Observation      string
	DueDate          string
	Consultant       string
	PlanValue        any
}

const listClients = `
SELECT id, registration_date, name, phone, cpf, address, status, observation, due_date, consultant, plan_value
FROM clients
ORDER BY created_at, rowid`

func (q *Queries) ListClients(ctx context.Context) ([]clientRow, error) {
	rows, err := q.db.QueryContext(ctx, listClients)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []clientRow
	for rows.Next() {
		var i clientRow
		if err := rows.Scan(&i.ID, &i.RegistrationDate, &i.Name, &i.Phone, &i.CPF, &i.Address,
			&i.Status, &i.Observation, &i.DueDate, &i.Consultant, &i.PlanValue); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const insertClient = `
INSERT INTO clients (id, registration_date, name, phone, cpf, address, status, observation, due_date, consultant, plan_value)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertClient(ctx context.Context, r clientRow) error {
	_, err := q.db.ExecContext(ctx, insertClient,
		r.ID, r.RegistrationDate, r.Name, r.Phone, r.CPF, r.Address, r.Status, r.Observation, r.DueDate, r.Consultant, r.PlanValue)
	return err
}

const updateClient = `
UPDATE clients
SET registration_date = ?, name = ?, phone = ?, cpf = ?, address = ?, status = ?, observation = ?,
    due_date = ?, consultant = ?, plan_value = ?
WHERE id = ?`

func (q *Queries) UpdateClient(ctx context.Context, r clientRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateClient,
		r.RegistrationDate, r.Name, r.Phone, r.CPF, r.Address, r.Status, r.Observation, r.DueDate, r.Consultant, r.PlanValue, r.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type userRow struct {
	ID         string
	Name       string
	Email      string
	Role       string
	Status     string
	PhotoURL   string
	LastAccess string
}

const listUsers = `
SELECT id, name, email, role, status, photo_url, last_access
FROM users
ORDER BY created_at, rowid`

func (q *Queries) ListUsers(ctx context.Context) ([]userRow, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []userRow
	for rows.Next() {
		var i userRow
		if err := rows.Scan(&i.ID, &i.Name, &i.Email, &i.Role, &i.Status, &i.PhotoURL, &i.LastAccess); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const insertUser = `
INSERT INTO users (id, name, email, role, status, photo_url, last_access)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertUser(ctx context.Context, r userRow) error {
	_, err := q.db.ExecContext(ctx, insertUser, r.ID, r.Name, r.Email, r.Role, r.Status, r.PhotoURL, r.LastAccess)
	return err
}

const updateUser = `
UPDATE users
SET name = ?, email = ?, role = ?, status = ?, photo_url = ?, last_access = ?
WHERE id = ?`

func (q *Queries) UpdateUser(ctx context.Context, r userRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateUser, r.Name, r.Email, r.Role, r.Status, r.PhotoURL, r.LastAccess, r.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
