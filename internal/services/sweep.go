package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"brastech/internal/amqp"
	"brastech/internal/core"
	"brastech/internal/log"
	"brastech/internal/store"
)

const defaultSweepConcurrency = 4

// SweepResult summarizes one late sweep.
type SweepResult struct {
	Today   core.Day `json:"today"`
	Checked int      `json:"checked"`
	Marked  int      `json:"marked"`
	Failed  int      `json:"failed"`
	// MarkedIDs lists the records rewritten to ATRASADO.
	MarkedIDs []string `json:"markedIds,omitempty"`
}

// LateSweeper rewrites overdue payables from PENDENTE to ATRASADO.
type LateSweeper struct {
	store       store.TransactionStore
	clock       core.Clock
	events      EventPublisher
	concurrency int
	logger      *log.Logger
}

type SweeperOption func(*LateSweeper)

// WithSweepConcurrency bounds the number of writes in flight.
func WithSweepConcurrency(n int) SweeperOption {
	return func(s *LateSweeper) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithSweepEvents(p EventPublisher) SweeperOption {
	return func(s *LateSweeper) { s.events = p }
}

func WithSweepLogger(l *log.Logger) SweeperOption {
	return func(s *LateSweeper) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentSweep)
		}
	}
}

func NewLateSweeper(st store.TransactionStore, clock core.Clock, opts ...SweeperOption) *LateSweeper {
	s := &LateSweeper{
		store:       st,
		clock:       clock,
		concurrency: defaultSweepConcurrency,
		logger:      log.Default(log.ComponentSweep),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep runs one reconciliation pass. Records already ATRASADO are not
// targeted, so a second pass on the same day marks nothing. Individual
// write failures do not stop the others; they are counted and returned
// joined under ErrSweepIncomplete once every write has finished.
func (s *LateSweeper) Sweep(ctx context.Context) (SweepResult, error) {
	today := s.clock.Today()
	result := SweepResult{Today: today}

	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return result, fmt.Errorf("list transactions: %w", err)
	}
	result.Checked = len(txs)

	var candidates []core.Transaction
	for _, tx := range txs {
		if IsOverdueCandidate(tx, today) {
			candidates = append(candidates, tx)
		}
	}
	if len(candidates) == 0 {
		s.logger.DebugContext(ctx, "No overdue payables", "checked", result.Checked, "today", today)
		return result, nil
	}

	var (
		mu     sync.Mutex
		marked []string
		errs   []error
	)
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for _, tx := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			tx.Status = core.StatusAtrasado
			_, err := s.store.UpdateTransaction(ctx, tx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("mark %s overdue: %w", tx.ID, err))
				return nil
			}
			marked = append(marked, tx.ID)
			return nil
		})
	}
	_ = g.Wait()

	result.Marked = len(marked)
	result.Failed = len(errs)
	result.MarkedIDs = marked

	for _, id := range marked {
		s.publish(ctx, id)
	}

	s.logger.InfoContext(ctx, "Late sweep complete",
		"today", today,
		"checked", result.Checked,
		"marked", result.Marked,
		"failed", result.Failed)

	if len(errs) > 0 {
		return result, errors.Join(append([]error{ErrSweepIncomplete}, errs...)...)
	}
	return result, nil
}

func (s *LateSweeper) publish(ctx context.Context, id string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, amqp.EventOverdue, id); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish overdue event", log.FieldTxID, id, log.FieldError, err)
	}
}
