// Package services holds the ledger's business rules and their orchestration.
//
// This file implements per-type status rules. Each transaction type owns a
// StatusRule that decides which status a record should carry once its dates
// change.
package services

import (
	"fmt"

	"brastech/internal/core"
)

// StatusRule derives the lifecycle status of one transaction type.
type StatusRule interface {
	// Derive returns the status for the given dates. current is the status
	// the record has now, for types whose status is chosen by the user.
	Derive(date, paymentDate core.Day, current core.Status, today core.Day) core.Status
}

// PayableRule implements StatusRule for SAIDA records.
type PayableRule struct{}

// Derive returns PAGO when paid, ATRASADO when the due date is strictly
// before today, and PENDENTE otherwise. A malformed due date is never late.
func (PayableRule) Derive(date, paymentDate core.Day, _ core.Status, today core.Day) core.Status {
	if !paymentDate.IsEmpty() {
		return core.StatusPago
	}
	if date.Valid() && date.Before(today) {
		return core.StatusAtrasado
	}
	return core.StatusPendente
}

// ReceivableRule implements StatusRule for ENTRADA records. Their status is
// set by hand; only an empty or foreign status is replaced.
type ReceivableRule struct{}

func (ReceivableRule) Derive(_, _ core.Day, current core.Status, _ core.Day) core.Status {
	if current.IsValid() && current.AllowedFor(core.Entrada) {
		return current
	}
	return core.StatusAguardando
}

var statusRules = map[core.TransactionType]StatusRule{
	core.Entrada: ReceivableRule{},
	core.Saida:   PayableRule{},
}

// GetStatusRule returns the rule registered for t.
func GetStatusRule(t core.TransactionType) (StatusRule, error) {
	rule, ok := statusRules[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidType, t)
	}
	return rule, nil
}

// RegisterStatusRule replaces the rule of a transaction type.
func RegisterStatusRule(t core.TransactionType, rule StatusRule) {
	statusRules[t] = rule
}

// DeriveStatus applies the rule of t. Unknown types keep current.
func DeriveStatus(t core.TransactionType, date, paymentDate core.Day, current core.Status, today core.Day) core.Status {
	rule, err := GetStatusRule(t)
	if err != nil {
		return current
	}
	return rule.Derive(date, paymentDate, current, today)
}

// DefaultStatus is the status a new record of type t starts with.
func DefaultStatus(t core.TransactionType) core.Status {
	if t == core.Entrada {
		return core.StatusAguardando
	}
	return core.StatusPendente
}

// WithPaymentDate records (or clears, with an empty day) the payment of a
// payable and recomputes its status. Receivables are returned unchanged.
func WithPaymentDate(tx core.Transaction, day core.Day, today core.Day) core.Transaction {
	if tx.Type != core.Saida {
		return tx
	}
	tx.PaymentDate = day
	tx.Status = DeriveStatus(tx.Type, tx.Date, tx.PaymentDate, tx.Status, today)
	return tx
}

// WithDueDate moves the date of a record. For payables without a payment
// the status follows the new date.
func WithDueDate(tx core.Transaction, day core.Day, today core.Day) core.Transaction {
	tx.Date = day
	if tx.Type == core.Saida {
		tx.Status = DeriveStatus(tx.Type, tx.Date, tx.PaymentDate, tx.Status, today)
	}
	return tx
}

// IsOverdueCandidate reports whether the late sweep should mark tx.
func IsOverdueCandidate(tx core.Transaction, today core.Day) bool {
	return tx.Type == core.Saida &&
		tx.Status == core.StatusPendente &&
		tx.PaymentDate.IsEmpty() &&
		tx.Date.Valid() &&
		tx.Date.Before(today)
}

// ApplyStatus sets a status chosen by hand and keeps the payable invariant:
// PAGO records today as the payment date when none is set, and any other
// status clears the payment and lets the dates decide between PENDENTE and
// ATRASADO.
func ApplyStatus(tx core.Transaction, status core.Status, today core.Day) core.Transaction {
	if tx.Type != core.Saida {
		tx.Status = status
		return tx
	}
	if status == core.StatusPago {
		if tx.PaymentDate.IsEmpty() {
			tx.PaymentDate = today
		}
	} else {
		tx.PaymentDate = ""
	}
	tx.Status = DeriveStatus(tx.Type, tx.Date, tx.PaymentDate, status, today)
	return tx
}
