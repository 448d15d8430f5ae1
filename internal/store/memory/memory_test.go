package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"brastech/internal/core"
	"brastech/internal/store"
)

func TestTransactionsCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.CreateTransaction(ctx, core.Transaction{
		Date:               "2025-03-10",
		Description:        "Aluguel (1/3)",
		Amount:             core.Money{Cents: 15000},
		Status:             core.StatusPendente,
		Type:               core.Saida,
		Payer:              " ",
		InstallmentCurrent: 1,
		InstallmentTotal:   3,
	})
	if err != nil || created.ID == "" {
		t.Fatalf("unexpected create: %+v err=%v", created, err)
	}
	if created.InstallmentTotal != 0 || created.Payer != "" {
		t.Fatalf("non-persisted fields should be dropped: %+v", created)
	}

	created.Status = core.StatusPago
	created.PaymentDate = "2025-03-11"
	if _, err := s.UpdateTransaction(ctx, created); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, _ := s.ListTransactions(ctx)
	if len(list) != 1 || list[0].Status != core.StatusPago {
		t.Fatalf("unexpected list: %+v", list)
	}

	// Mutating a returned slice must not leak into the store.
	list[0].Status = core.StatusAtrasado
	again, _ := s.ListTransactions(ctx)
	if again[0].Status != core.StatusPago {
		t.Fatalf("store leaked internal slice")
	}

	if err := s.DeleteTransaction(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTransaction(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpdateTransaction(ctx, created); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateTransactionsKeepsOrder(t *testing.T) {
	s := New()
	in := []core.Transaction{
		{Description: "a", Date: "2025-01-01", Type: core.Saida, Status: core.StatusPendente},
		{Description: "b", Date: "2025-02-01", Type: core.Saida, Status: core.StatusPendente},
		{Description: "c", Date: "2025-03-01", Type: core.Saida, Status: core.StatusPendente},
	}
	out, err := s.CreateTransactions(context.Background(), in)
	if err != nil || len(out) != 3 {
		t.Fatalf("unexpected batch: %v err=%v", out, err)
	}
	seen := map[string]bool{}
	for i, tx := range out {
		if tx.Description != in[i].Description {
			t.Fatalf("order changed at %d: %s", i, tx.Description)
		}
		if seen[tx.ID] {
			t.Fatalf("duplicate id %s", tx.ID)
		}
		seen[tx.ID] = true
	}
}

func TestRosterCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	c, _ := s.CreateClient(ctx, core.Client{Name: "Ana", Status: core.ClientAtivo})
	c.Status = core.ClientSuspenso
	if _, err := s.UpdateClient(ctx, c); err != nil {
		t.Fatalf("update client: %v", err)
	}
	clients, _ := s.ListClients(ctx)
	if len(clients) != 1 || clients[0].Status != core.ClientSuspenso {
		t.Fatalf("unexpected clients: %+v", clients)
	}
	if err := s.DeleteClient(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	u, _ := s.CreateUser(ctx, core.User{Name: "Bruno", Email: "b@x.io", Role: core.RoleAdmin, Status: core.UserAtivo})
	if err := s.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	users, _ := s.ListUsers(ctx)
	if len(users) != 0 {
		t.Fatalf("expected no users, got %+v", users)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("missing file should give empty store: %v", err)
	}
	if txs, _ := s.ListTransactions(context.Background()); len(txs) != 0 {
		t.Fatalf("expected empty store")
	}

	path := filepath.Join(dir, "seed.json")
	seed := `{
		"transactions": [{"date":"2025-03-10","description":"Luz","amount":"150.00","status":"PENDENTE","type":"SAIDA"}],
		"clients": [{"name":"Ana","status":"ATIVO","planValue":99.9}],
		"users": [{"id":"u1","name":"Alex","email":"alex@x.io","role":"ADMIN","status":"ATIVO"}]
	}`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	txs, _ := s.ListTransactions(context.Background())
	if len(txs) != 1 || txs[0].Amount.Cents != 15000 || txs[0].ID == "" {
		t.Fatalf("unexpected seeded transactions: %+v", txs)
	}
	clients, _ := s.ListClients(context.Background())
	if len(clients) != 1 || clients[0].PlanValue.Cents != 9990 {
		t.Fatalf("unexpected seeded clients: %+v", clients)
	}
	users, _ := s.ListUsers(context.Background())
	if len(users) != 1 || users[0].ID != "u1" {
		t.Fatalf("unexpected seeded users: %+v", users)
	}

	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromFile(path); err == nil {
		t.Fatalf("expected decode error")
	}
}
