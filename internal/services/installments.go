package services

import (
	"fmt"
	"strings"

	"brastech/internal/core"
)

const (
	MinInstallments = 2
	MaxInstallments = 36
)

// InstallmentPlan is a single payable entered once and paid in Count
// monthly parts starting at StartDate.
type InstallmentPlan struct {
	Total       core.Money  `json:"total"`
	Count       int         `json:"count"`
	StartDate   core.Day    `json:"startDate"`
	Description string      `json:"description"`
	Entity      string      `json:"entity"`
	Category    string      `json:"category"`
	Payer       core.Payer  `json:"payer,omitempty"`
	Status      core.Status `json:"status,omitempty"` // first part only
	PaymentDate core.Day    `json:"paymentDate,omitempty"`
}

func (p InstallmentPlan) Validate() error {
	if p.Count < MinInstallments || p.Count > MaxInstallments {
		return fmt.Errorf("%w: got %d", ErrInstallmentCount, p.Count)
	}
	if p.Total.Cents <= 0 {
		return ErrZeroTotal
	}
	if strings.TrimSpace(p.Description) == "" {
		return ErrEmptyDescription
	}
	if err := p.StartDate.Validate(); err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	if p.Payer != "" && !p.Payer.IsValid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidPayer, p.Payer)
	}
	if p.Status != "" && !p.Status.AllowedFor(core.Saida) {
		return fmt.Errorf("%w: %s on %s", core.ErrStatusNotAllowed, p.Status, core.Saida)
	}
	if !p.PaymentDate.IsEmpty() {
		if err := p.PaymentDate.Validate(); err != nil {
			return fmt.Errorf("payment date: %w", err)
		}
	}
	return nil
}

// SplitAmount divides total into count parts in whole cents. Every part
// gets the floor of the division and the first also takes the remainder,
// so the parts always add up to total.
func SplitAmount(total core.Money, count int) []core.Money {
	if count <= 0 {
		return nil
	}
	base := total.Cents / int64(count)
	remainder := total.Cents - base*int64(count)
	parts := make([]core.Money, count)
	for i := range parts {
		parts[i] = core.Money{Cents: base}
	}
	parts[0].Cents += remainder
	return parts
}

// SplitInstallments turns a plan into Count ordered SAIDA drafts, one per
// month. Nothing is produced when the plan is invalid.
func SplitInstallments(plan InstallmentPlan, policy core.MonthOverflow) ([]core.Transaction, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	amounts := SplitAmount(plan.Total, plan.Count)
	drafts := make([]core.Transaction, plan.Count)
	for i := range drafts {
		date, err := plan.StartDate.AddMonths(i, policy)
		if err != nil {
			return nil, fmt.Errorf("installment %d: %w", i+1, err)
		}
		drafts[i] = core.Transaction{
			Date:               date,
			Description:        core.InstallmentLabel(plan.Description, i+1, plan.Count),
			Entity:             plan.Entity,
			Amount:             amounts[i],
			Status:             core.StatusPendente,
			Type:               core.Saida,
			Category:           plan.Category,
			Payer:              plan.Payer,
			InstallmentCurrent: i + 1,
			InstallmentTotal:   plan.Count,
		}
	}

	switch {
	case plan.Status != "":
		drafts[0].Status = plan.Status
	case !plan.PaymentDate.IsEmpty():
		drafts[0].Status = core.StatusPago
	}
	drafts[0].PaymentDate = plan.PaymentDate
	return drafts, nil
}
