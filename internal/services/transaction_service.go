package services

import (
	"context"
	"fmt"
	"strings"

	"brastech/internal/amqp"
	"brastech/internal/core"
	"brastech/internal/log"
	"brastech/internal/store"
)

// EventPublisher announces transaction changes. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, kind amqp.EventKind, id string) error
}

// TransactionService validates, normalizes and persists ledger records and
// announces every confirmed change.
type TransactionService struct {
	store  store.TransactionStore
	clock  core.Clock
	events EventPublisher
	policy core.MonthOverflow
	logger *log.Logger
}

type TransactionOption func(*TransactionService)

func WithEvents(p EventPublisher) TransactionOption {
	return func(s *TransactionService) { s.events = p }
}

// WithMonthOverflow picks how installment dates handle short months.
func WithMonthOverflow(p core.MonthOverflow) TransactionOption {
	return func(s *TransactionService) {
		if p.IsValid() {
			s.policy = p
		}
	}
}

func WithLogger(l *log.Logger) TransactionOption {
	return func(s *TransactionService) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentLedger)
		}
	}
}

func NewTransactionService(st store.TransactionStore, clock core.Clock, opts ...TransactionOption) *TransactionService {
	s := &TransactionService{
		store:  st,
		clock:  clock,
		policy: core.ClampToMonthEnd,
		logger: log.Default(log.ComponentLedger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the service's current local day.
func (s *TransactionService) Today() core.Day { return s.clock.Today() }

// Policy reports the configured month overflow policy.
func (s *TransactionService) Policy() core.MonthOverflow { return s.policy }

// ValidateTransaction checks a record before it is written.
func ValidateTransaction(tx core.Transaction) error {
	return tx.Validate()
}

// Normalize fills defaults and derives the status of payables from their
// dates, the way the entry form does. A payment date always wins over the
// status sent with it; PAGO without a payment date records today.
func Normalize(tx core.Transaction, today core.Day) core.Transaction {
	tx.Description = strings.TrimSpace(tx.Description)
	tx.Entity = strings.TrimSpace(tx.Entity)
	tx.Category = strings.TrimSpace(tx.Category)
	if tx.Category == "" {
		tx.Category = core.DefaultCategory
	}
	if tx.Status == "" {
		tx.Status = DefaultStatus(tx.Type)
	}
	if tx.Type == core.Saida && tx.Status == core.StatusPago && tx.PaymentDate.IsEmpty() {
		tx.PaymentDate = today
	}
	tx.Status = DeriveStatus(tx.Type, tx.Date, tx.PaymentDate, tx.Status, today)
	return tx
}

func checkWrite(sess core.Session) error {
	if !sess.CanWrite() {
		return fmt.Errorf("%w: %s", ErrReadOnlySession, sess.User.Email)
	}
	return nil
}

func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	for i := range txs {
		txs[i] = txs[i].WithInstallmentInfo()
	}
	return txs, nil
}

func (s *TransactionService) Create(ctx context.Context, sess core.Session, tx core.Transaction) (core.Transaction, error) {
	if err := checkWrite(sess); err != nil {
		return core.Transaction{}, err
	}
	tx = Normalize(tx, s.clock.Today())
	if err := ValidateTransaction(tx); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}
	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	created = created.WithInstallmentInfo()
	s.logger.InfoContext(ctx, "Transaction created", log.NewFields().
		WithTransaction(created.ID, string(created.Type), string(created.Status), string(created.Date), created.Amount.Cents).
		WithOperation(log.OpCreate).ToSlice()...)
	s.publish(ctx, amqp.EventCreated, created.ID)
	return created, nil
}

// CreateInstallments splits plan and writes all parts in one batch. If the
// batch fails nothing is reported as created.
func (s *TransactionService) CreateInstallments(ctx context.Context, sess core.Session, plan InstallmentPlan) ([]core.Transaction, error) {
	if err := checkWrite(sess); err != nil {
		return nil, err
	}
	if strings.TrimSpace(plan.Category) == "" {
		plan.Category = core.DefaultCategory
	}
	drafts, err := SplitInstallments(plan, s.policy)
	if err != nil {
		return nil, fmt.Errorf("split installments: %w", err)
	}
	// Later parts start PENDENTE; the first follows its dates like a form
	// entry does.
	drafts[0] = Normalize(drafts[0], s.clock.Today())
	for i := range drafts {
		if err := ValidateTransaction(drafts[i]); err != nil {
			return nil, fmt.Errorf("validate installment %d: %w", i+1, err)
		}
	}

	created, err := s.store.CreateTransactions(ctx, drafts)
	if err != nil {
		return nil, fmt.Errorf("create installments: %w", err)
	}
	// Positions are not stored; reattach them by batch order.
	for i := range created {
		if i < len(drafts) {
			created[i].InstallmentCurrent = drafts[i].InstallmentCurrent
			created[i].InstallmentTotal = drafts[i].InstallmentTotal
		}
	}

	s.logger.InfoContext(ctx, "Installments created",
		log.FieldInstallments, len(created),
		log.FieldAmountCents, plan.Total.Cents,
		log.FieldOperation, log.OpBatch)
	for _, tx := range created {
		s.publish(ctx, amqp.EventCreated, tx.ID)
	}
	return created, nil
}

func (s *TransactionService) Update(ctx context.Context, sess core.Session, tx core.Transaction) (core.Transaction, error) {
	if err := checkWrite(sess); err != nil {
		return core.Transaction{}, err
	}
	if tx.ID == "" {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", store.ErrNotFound)
	}
	info := tx
	tx = Normalize(tx, s.clock.Today())
	if err := ValidateTransaction(tx); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}
	updated, err := s.store.UpdateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if info.InstallmentTotal > 0 {
		updated.InstallmentCurrent = info.InstallmentCurrent
		updated.InstallmentTotal = info.InstallmentTotal
	}
	updated = updated.WithInstallmentInfo()
	s.publish(ctx, amqp.EventUpdated, updated.ID)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, sess core.Session, id string) error {
	if err := checkWrite(sess); err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, amqp.EventDeleted, id)
	return nil
}

func (s *TransactionService) publish(ctx context.Context, kind amqp.EventKind, id string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, kind, id); err != nil {
		// The record is already saved; subscribers catch up on the next event.
		s.logger.WarnContext(ctx, "Failed to publish transaction event",
			"kind", kind, log.FieldTxID, id, log.FieldError, err)
	}
}
