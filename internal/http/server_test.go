package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brastech/internal/cache"
	"brastech/internal/core"
	"brastech/internal/log"
	"brastech/internal/services"
	"brastech/internal/store/memory"
)

const (
	adminEmail     = "admin@brastech.com"
	viewerEmail    = "viewer@brastech.com"
	suspendedEmail = "old@brastech.com"
	today          = core.Day("2025-03-15")
)

type testEnv struct {
	srv   *Server
	store *memory.Store
	book  *services.Book
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	logger := log.Discard()
	clock := core.FixedClock(today)

	for _, u := range []core.User{
		{Name: "Admin", Email: adminEmail, Role: core.RoleAdmin, Status: core.UserAtivo},
		{Name: "Viewer", Email: viewerEmail, Role: core.RoleViewer, Status: core.UserAtivo},
		{Name: "Old", Email: suspendedEmail, Role: core.RoleAdmin, Status: core.UserSuspenso},
	} {
		_, err := st.CreateUser(ctx, u)
		require.NoError(t, err)
	}

	svc := services.NewTransactionService(st, clock, services.WithLogger(logger))
	book := services.NewBook(svc, st, st, logger)
	_, err := book.Load(ctx)
	require.NoError(t, err)

	opts.Logger = logger
	srv := NewServer(":0", Deps{
		Book:     book,
		Roster:   services.NewRosterService(st, st, book, logger),
		Exporter: services.NewExporter(st, st, st),
		Sweeper:  services.NewLateSweeper(st, clock, services.WithSweepLogger(logger)),
		Clock:    clock,
		Filter:   services.PaidOnly,
	}, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, store: st, book: book}
}

func (e *testEnv) do(t *testing.T, method, target, email string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req.Header.Set(UserHeader, email)
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, Options{})

	rr := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = env.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"ready"`)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("db down") }

func TestReadyReportsBackendFailure(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.srv.deps.Pinger = failingPinger{}

	rr := env.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestSessionResolution(t *testing.T) {
	env := newTestEnv(t, Options{})

	cases := []struct {
		email string
		want  int
	}{
		{"", http.StatusUnauthorized},
		{"nobody@brastech.com", http.StatusUnauthorized},
		{suspendedEmail, http.StatusForbidden},
		{viewerEmail, http.StatusOK},
		{"  ADMIN@brastech.com ", http.StatusOK},
	}
	for _, tc := range cases {
		rr := env.do(t, http.MethodGet, "/api/session", tc.email, nil)
		assert.Equal(t, tc.want, rr.Code, "email %q", tc.email)
	}

	rr := env.do(t, http.MethodGet, "/api/session", viewerEmail, nil)
	sess := decode[sessionResponse](t, rr)
	assert.False(t, sess.CanWrite)
	assert.Equal(t, core.RoleViewer, sess.User.Role)
}

func TestLoginRecordsAccess(t *testing.T) {
	env := newTestEnv(t, Options{})

	rr := env.do(t, http.MethodPost, "/api/login", "", loginRequest{Email: adminEmail})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	sess := decode[sessionResponse](t, rr)
	assert.True(t, sess.CanWrite)
	assert.NotEmpty(t, sess.User.LastAccess)

	rr = env.do(t, http.MethodPost, "/api/login", "", loginRequest{Email: suspendedEmail})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/login", "", "{")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateTransactionDerivesStatus(t *testing.T) {
	env := newTestEnv(t, Options{})

	rr := env.do(t, http.MethodPost, "/api/transactions", adminEmail, map[string]any{
		"date":        "2025-03-10",
		"description": "Aluguel",
		"entity":      "Imobiliária",
		"amount":      "1500.00",
		"type":        "saida",
		"payer":       "André",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	tx := decode[core.Transaction](t, rr)
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, core.StatusAtrasado, tx.Status, "due before today without payment")
	assert.Equal(t, int64(150000), tx.Amount.Cents)
	assert.Equal(t, core.DefaultCategory, tx.Category)

	rr = env.do(t, http.MethodGet, "/api/transactions/"+tx.ID, viewerEmail, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCreateTransactionErrors(t *testing.T) {
	env := newTestEnv(t, Options{})
	valid := map[string]any{"date": "2025-03-20", "description": "Luz", "amount": 100, "type": "SAIDA"}

	rr := env.do(t, http.MethodPost, "/api/transactions", viewerEmail, valid)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/transactions", adminEmail, `{"date": `)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/transactions", adminEmail, map[string]any{"date": "2025-03-20", "amount": 1, "type": "OUTRO"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/transactions", adminEmail, map[string]any{"date": "20/03/2025", "amount": 1, "type": "SAIDA"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	body := decode[errorBody](t, rr)
	assert.Equal(t, http.StatusUnprocessableEntity, body.Status)
	assert.NotEmpty(t, body.Error)

	rr = env.do(t, http.MethodPost, "/api/transactions", adminEmail, map[string]any{"date": "2025-+9-10", "amount": 1, "type": "SAIDA"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, "signed date fields are malformed")

	assert.Empty(t, env.book.Transactions(), "rejected writes leave the view untouched")
}

func TestCreateInstallments(t *testing.T) {
	env := newTestEnv(t, Options{})

	rr := env.do(t, http.MethodPost, "/api/transactions/installments", adminEmail, map[string]any{
		"total":       "100.00",
		"count":       3,
		"startDate":   "2025-01-31",
		"description": "Notebook",
		"category":    "Equipamentos",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	list := decode[transactionList](t, rr)
	require.Equal(t, 3, list.Count)

	var sum int64
	for i, tx := range list.Transactions {
		sum += tx.Amount.Cents
		assert.Equal(t, core.InstallmentLabel("Notebook", i+1, 3), tx.Description)
	}
	assert.Equal(t, int64(10000), sum)
	assert.Equal(t, core.Day("2025-02-28"), list.Transactions[1].Date)

	rr = env.do(t, http.MethodPost, "/api/transactions/installments", adminEmail, map[string]any{
		"total": 100, "count": 1, "startDate": "2025-01-31", "description": "x",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestQuickActions(t *testing.T) {
	env := newTestEnv(t, Options{})
	rr := env.do(t, http.MethodPost, "/api/transactions", adminEmail, map[string]any{
		"date": "2025-03-20", "description": "Internet", "amount": 120, "type": "SAIDA",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	tx := decode[core.Transaction](t, rr)
	require.Equal(t, core.StatusPendente, tx.Status)
	base := "/api/transactions/" + tx.ID

	rr = env.do(t, http.MethodPatch, base+"/payment-date", adminEmail, paymentDateRequest{PaymentDate: "2025-03-14"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, core.StatusPago, decode[core.Transaction](t, rr).Status)

	rr = env.do(t, http.MethodPatch, base+"/payment-date", adminEmail, paymentDateRequest{})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, core.StatusPendente, decode[core.Transaction](t, rr).Status)

	rr = env.do(t, http.MethodPatch, base+"/due-date", adminEmail, dueDateRequest{Date: "2025-03-01"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, core.StatusAtrasado, decode[core.Transaction](t, rr).Status)

	rr = env.do(t, http.MethodPatch, base+"/due-date", adminEmail, dueDateRequest{Date: "ontem"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = env.do(t, http.MethodPatch, base+"/status", adminEmail, statusRequest{Status: "pago"})
	require.Equal(t, http.StatusOK, rr.Code)
	paid := decode[core.Transaction](t, rr)
	assert.Equal(t, core.StatusPago, paid.Status)
	assert.Equal(t, today, paid.PaymentDate)

	// Receivable-only statuses are re-derived for payables.
	rr = env.do(t, http.MethodPatch, base+"/status", adminEmail, statusRequest{Status: "AGUARDANDO"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, core.StatusAtrasado, decode[core.Transaction](t, rr).Status)

	rr = env.do(t, http.MethodPatch, base+"/status", adminEmail, statusRequest{Status: "QUITADO"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = env.do(t, http.MethodPatch, base+"/status", viewerEmail, statusRequest{Status: "PAGO"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, http.MethodPatch, "/api/transactions/missing/status", adminEmail, statusRequest{Status: "PAGO"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	env := newTestEnv(t, Options{})
	rr := env.do(t, http.MethodPost, "/api/transactions", adminEmail, map[string]any{
		"date": "2025-03-20", "description": "Água", "amount": 80, "type": "SAIDA",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	tx := decode[core.Transaction](t, rr)

	tx.Description = "Água e esgoto"
	rr = env.do(t, http.MethodPut, "/api/transactions/"+tx.ID, adminEmail, tx)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Água e esgoto", decode[core.Transaction](t, rr).Description)

	rr = env.do(t, http.MethodDelete, "/api/transactions/"+tx.ID, adminEmail, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(t, http.MethodDelete, "/api/transactions/"+tx.ID, adminEmail, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/transactions/"+tx.ID, adminEmail, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListTransactionsFilters(t *testing.T) {
	env := newTestEnv(t, Options{})
	for _, body := range []map[string]any{
		{"date": "2025-03-01", "description": "Mensalidade Ana", "amount": 200, "type": "ENTRADA", "status": "PAGO"},
		{"date": "2025-03-20", "description": "Luz", "amount": 90, "type": "SAIDA"},
		{"date": "2025-04-05", "description": "Internet", "amount": 120, "type": "SAIDA"},
		{"date": "2024-12-05", "description": "Mensalidade Bia", "amount": 200, "type": "ENTRADA"},
	} {
		require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/transactions", adminEmail, body).Code)
	}

	count := func(query string) int {
		rr := env.do(t, http.MethodGet, "/api/transactions"+query, viewerEmail, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		return decode[transactionList](t, rr).Count
	}
	assert.Equal(t, 4, count(""))
	assert.Equal(t, 3, count("?year=2025"))
	assert.Equal(t, 2, count("?year=2025&month=3"))
	assert.Equal(t, 2, count("?type=saida"))
	assert.Equal(t, 1, count("?status=PAGO"))
	assert.Equal(t, 2, count("?q=mensalidade"))

	rr := env.do(t, http.MethodGet, "/api/transactions", viewerEmail, nil)
	list := decode[transactionList](t, rr)
	assert.Equal(t, core.Day("2025-04-05"), list.Transactions[0].Date, "newest first")

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/transactions?month=3", viewerEmail, nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, env.do(t, http.MethodGet, "/api/transactions?type=OUTRO", viewerEmail, nil).Code)
}

func TestDashboards(t *testing.T) {
	env := newTestEnv(t, Options{})
	for _, body := range []map[string]any{
		{"date": "2025-03-01", "description": "Plano Ana", "amount": 500, "type": "ENTRADA", "status": "PAGO", "category": "Planos"},
		{"date": "2025-03-02", "description": "Plano Bia", "amount": 300, "type": "ENTRADA", "status": "AGUARDANDO", "category": "Planos"},
		{"date": "2025-03-05", "description": "Luz", "amount": 200, "type": "SAIDA", "paymentDate": "2025-03-05", "category": "Contas"},
		{"date": "2025-03-25", "description": "Aluguel", "amount": 1000, "type": "SAIDA", "category": "Contas"},
	} {
		require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/transactions", adminEmail, body).Code)
	}

	rr := env.do(t, http.MethodGet, "/api/dashboard/monthly?year=2025&month=3", viewerEmail, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	monthly := decode[monthlyResponse](t, rr)
	assert.Equal(t, int64(50000), monthly.TotalIncome.Cents, "only settled records count")
	assert.Equal(t, int64(20000), monthly.TotalExpense.Cents)
	assert.Equal(t, "R$ 300,00", monthly.Formatted.Balance)
	require.Len(t, monthly.Expense, 1)
	assert.Equal(t, "Contas", monthly.Expense[0].Name)

	rr = env.do(t, http.MethodGet, "/api/dashboard/yearly", viewerEmail, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	yearly := decode[yearlyResponse](t, rr)
	assert.Equal(t, 2025, yearly.Year, "defaults to the current year")
	assert.Equal(t, int64(50000), yearly.Months[2].Income.Cents)
	assert.Equal(t, int64(30000), yearly.Balance.Cents)

	hits, _ := env.srv.monthlyCache.Stats()
	env.do(t, http.MethodGet, "/api/dashboard/monthly?year=2025&month=3", viewerEmail, nil)
	hitsAfter, _ := env.srv.monthlyCache.Stats()
	assert.Equal(t, hits+1, hitsAfter)

	// A write purges the cached summaries.
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/transactions", adminEmail,
		map[string]any{"date": "2025-03-10", "description": "Plano Caio", "amount": 100, "type": "ENTRADA", "status": "PAGO"}).Code)
	rr = env.do(t, http.MethodGet, "/api/dashboard/monthly?year=2025&month=3", viewerEmail, nil)
	assert.Equal(t, int64(60000), decode[monthlyResponse](t, rr).TotalIncome.Cents)

	rr = env.do(t, http.MethodGet, "/api/dashboard/years", viewerEmail, nil)
	assert.JSONEq(t, `{"years":[2025]}`, rr.Body.String())

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/dashboard/monthly?month=13", viewerEmail, nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/dashboard/yearly?year=abc", viewerEmail, nil).Code)
}

func TestDashboardIgnoresSummaryCachedAcrossWrite(t *testing.T) {
	env := newTestEnv(t, Options{})
	rev, _ := env.book.View()

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/transactions", adminEmail,
		map[string]any{"date": "2025-03-10", "description": "Plano Caio", "amount": 100, "type": "ENTRADA", "status": "PAGO"}).Code)
	// A request that read the book before the write stores its result
	// after the purge.
	env.srv.monthlyCache.Set(cache.Key("monthly", 2025, 3, rev), monthlyResponse{})

	rr := env.do(t, http.MethodGet, "/api/dashboard/monthly?year=2025&month=3", viewerEmail, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(10000), decode[monthlyResponse](t, rr).TotalIncome.Cents)
}

func TestRosterEndpoints(t *testing.T) {
	env := newTestEnv(t, Options{})

	rr := env.do(t, http.MethodPost, "/api/clients", adminEmail, map[string]any{
		"name": "Ana Souza", "status": "ativo", "dueDate": "10", "planValue": "89.90",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	client := decode[core.Client](t, rr)
	assert.Equal(t, core.ClientAtivo, client.Status)
	assert.True(t, client.RegistrationDate.Valid())

	rr = env.do(t, http.MethodGet, "/api/clients", viewerEmail, nil)
	assert.Contains(t, rr.Body.String(), "Ana Souza")

	client.Status = core.ClientInativo
	rr = env.do(t, http.MethodPut, "/api/clients/"+client.ID, adminEmail, client)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, core.ClientInativo, decode[core.Client](t, rr).Status)

	rr = env.do(t, http.MethodPost, "/api/clients", adminEmail, map[string]any{"name": "Bia", "dueDate": "40"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = env.do(t, http.MethodDelete, "/api/clients/"+client.ID, viewerEmail, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = env.do(t, http.MethodDelete, "/api/clients/"+client.ID, adminEmail, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/users", adminEmail, map[string]any{"name": "Karol", "email": "Karol@Brastech.com"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	user := decode[core.User](t, rr)
	assert.Equal(t, "karol@brastech.com", user.Email)
	assert.Equal(t, core.RoleViewer, user.Role)

	rr = env.do(t, http.MethodGet, "/api/users", adminEmail, nil)
	assert.Equal(t, 4, decode[struct {
		Count int `json:"count"`
	}](t, rr).Count)

	rr = env.do(t, http.MethodDelete, "/api/users/"+user.ID, adminEmail, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = env.do(t, http.MethodDelete, "/api/users/"+user.ID, adminEmail, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, Options{})
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/transactions", adminEmail,
		map[string]any{"date": "2025-03-20", "description": "Luz", "amount": 90, "type": "SAIDA"}).Code)

	rr := env.do(t, http.MethodGet, "/api/export", viewerEmail, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Disposition"), `attachment; filename="backup_brastech_`))

	snap := decode[services.Snapshot](t, rr)
	assert.Len(t, snap.Transactions, 1)
	assert.Len(t, snap.Users, 3)
}

func TestSweepMarksOverduePayables(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()

	// Written straight to the store, as a record left PENDENTE by an
	// earlier day would be.
	stale, err := env.store.CreateTransaction(ctx, core.Transaction{
		Date: "2025-03-01", Description: "Seguro", Amount: core.Money{Cents: 5000},
		Status: core.StatusPendente, Type: core.Saida, Category: "Contas",
	})
	require.NoError(t, err)

	rr := env.do(t, http.MethodPost, "/api/sweep", viewerEmail, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/sweep", adminEmail, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decode[reloadResponse](t, rr)
	require.NotNil(t, res.Sweep)
	assert.Equal(t, 1, res.Sweep.Marked)
	assert.Equal(t, []string{stale.ID}, res.Sweep.MarkedIDs)

	got, ok := env.book.Transaction(stale.ID)
	require.True(t, ok, "sweep reloads the view")
	assert.Equal(t, core.StatusAtrasado, got.Status)
}

func TestReload(t *testing.T) {
	env := newTestEnv(t, Options{})
	before := env.book.Generation()

	rr := env.do(t, http.MethodPost, "/api/reload", viewerEmail, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	res := decode[reloadResponse](t, rr)
	assert.True(t, res.Applied)
	assert.Greater(t, res.Generation, before)
}

func TestRateLimitAppliesToWrites(t *testing.T) {
	env := newTestEnv(t, Options{RateLimitPerMinute: 2})

	for i := 0; i < 2; i++ {
		rr := env.do(t, http.MethodPost, "/api/login", "", loginRequest{Email: viewerEmail})
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := env.do(t, http.MethodPost, "/api/login", "", loginRequest{Email: viewerEmail})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/session", viewerEmail, nil).Code)
	}

	rr = env.do(t, http.MethodGet, "/api/metrics", adminEmail, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	m := decode[metricsResponse](t, rr)
	assert.Equal(t, int64(1), m.RateLimit.TotalHits)
}

func TestShutdownIsIdempotent(t *testing.T) {
	env := newTestEnv(t, Options{})
	require.NoError(t, env.srv.Shutdown(context.Background()))
	require.NoError(t, env.srv.Shutdown(context.Background()))
}
