package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"brastech/internal/core"
	"brastech/internal/store"
)

// SnapshotSource names the producer written into every backup.
const SnapshotSource = "brastech"

// Snapshot is the full backup of the three collections.
type Snapshot struct {
	Transactions []core.Transaction `json:"transactions"`
	Clients      []core.Client      `json:"clients"`
	Users        []core.User        `json:"users"`
	ExportDate   time.Time          `json:"exportDate"`
	Source       string             `json:"source"`
}

// Exporter reads every collection for a backup.
type Exporter struct {
	txs     store.TransactionStore
	clients store.ClientStore
	users   store.UserStore
	now     func() time.Time
}

func NewExporter(txs store.TransactionStore, clients store.ClientStore, users store.UserStore) *Exporter {
	return &Exporter{txs: txs, clients: clients, users: users, now: time.Now}
}

// Snapshot reads the collections concurrently. Any read failure fails the
// whole export.
func (e *Exporter) Snapshot(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Source: SnapshotSource}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := e.txs.ListTransactions(gctx)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		for i := range txs {
			txs[i] = txs[i].WithInstallmentInfo()
		}
		snap.Transactions = txs
		return nil
	})
	g.Go(func() error {
		clients, err := e.clients.ListClients(gctx)
		if err != nil {
			return fmt.Errorf("list clients: %w", err)
		}
		snap.Clients = clients
		return nil
	})
	g.Go(func() error {
		users, err := e.users.ListUsers(gctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		snap.Users = users
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("export snapshot: %w", err)
	}
	snap.ExportDate = e.now().UTC()
	if snap.Transactions == nil {
		snap.Transactions = []core.Transaction{}
	}
	if snap.Clients == nil {
		snap.Clients = []core.Client{}
	}
	if snap.Users == nil {
		snap.Users = []core.User{}
	}
	return snap, nil
}

// JSON renders the snapshot as indented JSON.
func (s Snapshot) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// FileName is the suggested download name of the backup.
func (s Snapshot) FileName() string {
	return fmt.Sprintf("backup_brastech_%s.json", s.ExportDate.Format("2006-01-02"))
}
