package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"brastech/internal/amqp"
	"brastech/internal/core"
	"brastech/internal/store"
	"brastech/internal/store/memory"
)

func newTestService(t *testing.T, opts ...TransactionOption) (*TransactionService, *mockTxStore) {
	t.Helper()
	st := new(mockTxStore)
	return NewTransactionService(st, core.FixedClock("2025-03-10"), opts...), st
}

func TestNormalize(t *testing.T) {
	got := Normalize(core.Transaction{Type: core.Saida, Date: "2025-03-01", Description: "  Luz "}, "2025-03-10")
	assert.Equal(t, core.StatusAtrasado, got.Status)
	assert.Equal(t, core.DefaultCategory, got.Category)
	assert.Equal(t, "Luz", got.Description)

	got = Normalize(core.Transaction{Type: core.Entrada, Date: "2025-03-01"}, "2025-03-10")
	assert.Equal(t, core.StatusAguardando, got.Status)

	got = Normalize(core.Transaction{Type: core.Saida, Date: "2025-04-01", PaymentDate: "2025-03-09"}, "2025-03-10")
	assert.Equal(t, core.StatusPago, got.Status)
}

func TestNormalize_PayableStatusFollowsDates(t *testing.T) {
	const today core.Day = "2025-03-10"

	tests := []struct {
		name        string
		date        core.Day
		status      core.Status
		paymentDate core.Day
		wantStatus  core.Status
		wantPayment core.Day
	}{
		{"pending with payment is paid", "2025-04-01", core.StatusPendente, "2025-03-09", core.StatusPago, "2025-03-09"},
		{"late with payment is paid", "2025-01-01", core.StatusAtrasado, "2025-03-09", core.StatusPago, "2025-03-09"},
		{"late in the future is pending", "2025-06-01", core.StatusAtrasado, "", core.StatusPendente, ""},
		{"pending in the past is late", "2025-03-09", core.StatusPendente, "", core.StatusAtrasado, ""},
		{"paid without date records today", "2025-04-01", core.StatusPago, "", core.StatusPago, today},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(core.Transaction{Type: core.Saida, Date: tt.date, Status: tt.status, PaymentDate: tt.paymentDate}, today)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantPayment, got.PaymentDate)
			assert.NoError(t, got.Validate())
		})
	}
}

func TestCreate_KeepsPaymentDateOverStaleStatus(t *testing.T) {
	svc := NewTransactionService(memory.New(), core.FixedClock("2025-03-10"))

	in := payable("", "2025-04-01", core.StatusPendente, 100)
	in.PaymentDate = "2025-03-09"
	created, err := svc.Create(context.Background(), adminSession, in)

	require.NoError(t, err)
	assert.Equal(t, core.StatusPago, created.Status)
	assert.Equal(t, core.Day("2025-03-09"), created.PaymentDate)
}

func TestCreate_ReadOnlySessionWritesNothing(t *testing.T) {
	svc, st := newTestService(t)

	_, err := svc.Create(context.Background(), viewerSession, payable("", "2025-03-01", "", 100))

	assert.ErrorIs(t, err, ErrReadOnlySession)
	st.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
}

func TestCreate_SuspendedAdminIsReadOnly(t *testing.T) {
	svc, _ := newTestService(t)
	sess := adminSession
	sess.User.Status = core.UserSuspenso

	_, err := svc.Create(context.Background(), sess, payable("", "2025-03-01", "", 100))
	assert.ErrorIs(t, err, ErrReadOnlySession)
}

func TestCreate_DerivesStatusAndPublishes(t *testing.T) {
	pub := new(mockPublisher)
	svc, st := newTestService(t, WithEvents(pub))

	st.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(tx core.Transaction) bool {
		return tx.Status == core.StatusAtrasado && tx.Category == core.DefaultCategory
	})).Return(core.Transaction{ID: "new", Type: core.Saida, Status: core.StatusAtrasado, Date: "2025-03-01"}, nil)
	pub.On("PublishTransactionEvent", mock.Anything, amqp.EventCreated, "new").Return(nil)

	in := payable("", "2025-03-01", "", 100)
	in.Category = ""
	created, err := svc.Create(context.Background(), adminSession, in)

	require.NoError(t, err)
	assert.Equal(t, "new", created.ID)
	st.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCreate_ValidationHappensBeforeWrite(t *testing.T) {
	svc, st := newTestService(t)

	bad := payable("", "2025-03-01", "", -5)
	_, err := svc.Create(context.Background(), adminSession, bad)

	assert.ErrorIs(t, err, core.ErrNegativeAmount)
	st.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
}

func TestCreate_StoreErrorIsSurfaced(t *testing.T) {
	svc, st := newTestService(t)
	st.On("CreateTransaction", mock.Anything, mock.Anything).Return(core.Transaction{}, errors.New("connection refused"))

	_, err := svc.Create(context.Background(), adminSession, payable("", "2025-03-20", "", 100))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCreateInstallments_SingleBatch(t *testing.T) {
	svc, st := newTestService(t)
	plan := basePlan()
	plan.Category = ""

	st.On("CreateTransactions", mock.Anything, mock.MatchedBy(func(txs []core.Transaction) bool {
		return len(txs) == 3 && txs[0].Category == core.DefaultCategory
	})).Return(func(_ context.Context, txs []core.Transaction) []core.Transaction {
		out := make([]core.Transaction, len(txs))
		for i, tx := range txs {
			tx.ID = string(rune('a' + i))
			tx.InstallmentCurrent, tx.InstallmentTotal = 0, 0
			out[i] = tx
		}
		return out
	}, nil)

	created, err := svc.CreateInstallments(context.Background(), adminSession, plan)

	require.NoError(t, err)
	require.Len(t, created, 3)
	for i, tx := range created {
		assert.Equal(t, i+1, tx.InstallmentCurrent, "positions are reattached by batch order")
		assert.Equal(t, 3, tx.InstallmentTotal)
	}
	st.AssertNumberOfCalls(t, "CreateTransactions", 1)
	st.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
}

func TestCreateInstallments_FirstPartFollowsDates(t *testing.T) {
	tests := []struct {
		name        string
		start       core.Day
		status      core.Status
		paymentDate core.Day
		wantStatus  core.Status
	}{
		{"payment date marks paid", "2025-04-01", core.StatusPendente, "2025-03-09", core.StatusPago},
		{"future start is not late", "2025-06-01", core.StatusAtrasado, "", core.StatusPendente},
		{"past start is late", "2025-03-01", core.StatusPendente, "", core.StatusAtrasado},
		{"paid without date records today", "2025-04-01", core.StatusPago, "", core.StatusPago},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := memory.New()
			svc := NewTransactionService(st, core.FixedClock("2025-03-10"))
			plan := basePlan()
			plan.StartDate, plan.Status, plan.PaymentDate = tt.start, tt.status, tt.paymentDate

			created, err := svc.CreateInstallments(context.Background(), adminSession, plan)
			require.NoError(t, err)
			require.Len(t, created, 3)
			assert.Equal(t, tt.wantStatus, created[0].Status)
			for _, part := range created[1:] {
				assert.Equal(t, core.StatusPendente, part.Status)
				assert.True(t, part.PaymentDate.IsEmpty())
			}

			stored, err := st.ListTransactions(context.Background())
			require.NoError(t, err)
			for _, tx := range stored {
				assert.NoError(t, tx.Validate(), tx.Description)
				assert.Equal(t, tx.Status == core.StatusPago, !tx.PaymentDate.IsEmpty(), tx.Description)
			}
		})
	}
}

func TestCreateInstallments_BatchFailureCreatesNothing(t *testing.T) {
	svc, st := newTestService(t)
	st.On("CreateTransactions", mock.Anything, mock.Anything).Return(nil, errors.New("insert failed"))

	created, err := svc.CreateInstallments(context.Background(), adminSession, basePlan())

	require.Error(t, err)
	assert.Nil(t, created)
	st.AssertNumberOfCalls(t, "CreateTransactions", 1)
}

func TestCreateInstallments_InvalidPlanSendsNothing(t *testing.T) {
	svc, st := newTestService(t)
	plan := basePlan()
	plan.Count = 1

	_, err := svc.CreateInstallments(context.Background(), adminSession, plan)

	assert.ErrorIs(t, err, ErrInstallmentCount)
	st.AssertNotCalled(t, "CreateTransactions", mock.Anything, mock.Anything)
}

func TestUpdate_MissingID(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Update(context.Background(), adminSession, payable("", "2025-03-20", core.StatusPendente, 1))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDelete_PublishFailureDoesNotFail(t *testing.T) {
	pub := new(mockPublisher)
	svc, st := newTestService(t, WithEvents(pub))
	st.On("DeleteTransaction", mock.Anything, "x").Return(nil)
	pub.On("PublishTransactionEvent", mock.Anything, amqp.EventDeleted, "x").Return(errors.New("circuit open"))

	assert.NoError(t, svc.Delete(context.Background(), adminSession, "x"))
	pub.AssertExpectations(t)
}

func TestList_RecoversInstallmentInfo(t *testing.T) {
	svc, st := newTestService(t)
	st.On("ListTransactions", mock.Anything).Return([]core.Transaction{
		{ID: "1", Description: "Sofá (2/10)"},
		{ID: "2", Description: "Luz"},
	}, nil)

	txs, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, txs[0].InstallmentCurrent)
	assert.Equal(t, 10, txs[0].InstallmentTotal)
	assert.Zero(t, txs[1].InstallmentTotal)
}

func TestWithMonthOverflow(t *testing.T) {
	svc, _ := newTestService(t, WithMonthOverflow(core.Rollover))
	assert.Equal(t, core.Rollover, svc.Policy())

	svc, _ = newTestService(t, WithMonthOverflow("bogus"))
	assert.Equal(t, core.ClampToMonthEnd, svc.Policy())
}
