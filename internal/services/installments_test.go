package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brastech/internal/core"
)

func basePlan() InstallmentPlan {
	return InstallmentPlan{
		Total:       core.Money{Cents: 10000},
		Count:       3,
		StartDate:   "2025-01-31",
		Description: "Notebook",
		Entity:      "Loja",
		Category:    "Equipamentos",
		Payer:       core.PayerBruno,
	}
}

func TestSplitAmount_SumsExactly(t *testing.T) {
	for total := int64(1); total <= 5000; total += 37 {
		for count := MinInstallments; count <= MaxInstallments; count++ {
			parts := SplitAmount(core.Money{Cents: total}, count)
			require.Len(t, parts, count)
			var sum int64
			for i, p := range parts {
				sum += p.Cents
				if i > 0 {
					require.GreaterOrEqual(t, parts[0].Cents, p.Cents)
					require.Equal(t, parts[1].Cents, p.Cents)
				}
			}
			require.Equal(t, total, sum, "total=%d count=%d", total, count)
		}
	}
}

func TestSplitAmount_Examples(t *testing.T) {
	assert.Equal(t, []core.Money{{Cents: 3334}, {Cents: 3333}, {Cents: 3333}}, SplitAmount(core.Money{Cents: 10000}, 3))
	assert.Equal(t, []core.Money{{Cents: 5000}, {Cents: 5000}}, SplitAmount(core.Money{Cents: 10000}, 2))
	assert.Equal(t, []core.Money{{Cents: 5001}, {Cents: 5000}}, SplitAmount(core.Money{Cents: 10001}, 2))
	assert.Nil(t, SplitAmount(core.Money{Cents: 100}, 0))
}

func TestSplitInstallments(t *testing.T) {
	plan := basePlan()
	plan.Status = core.StatusPago

	parts, err := SplitInstallments(plan, core.ClampToMonthEnd)
	require.NoError(t, err)
	require.Len(t, parts, 3)

	assert.Equal(t, core.Day("2025-01-31"), parts[0].Date)
	assert.Equal(t, core.Day("2025-02-28"), parts[1].Date)
	assert.Equal(t, core.Day("2025-03-31"), parts[2].Date)

	assert.Equal(t, "Notebook (1/3)", parts[0].Description)
	assert.Equal(t, "Notebook (3/3)", parts[2].Description)

	assert.Equal(t, core.StatusPago, parts[0].Status)
	assert.Equal(t, core.StatusPendente, parts[1].Status)
	assert.Equal(t, core.StatusPendente, parts[2].Status)

	for i, p := range parts {
		assert.Equal(t, core.Saida, p.Type)
		assert.Equal(t, i+1, p.InstallmentCurrent)
		assert.Equal(t, 3, p.InstallmentTotal)
		assert.Equal(t, core.PayerBruno, p.Payer)
		assert.Equal(t, "Equipamentos", p.Category)
		assert.Empty(t, p.ID)
	}
	assert.Equal(t, int64(3334), parts[0].Amount.Cents)
}

func TestSplitInstallments_Rollover(t *testing.T) {
	parts, err := SplitInstallments(basePlan(), core.Rollover)
	require.NoError(t, err)
	assert.Equal(t, core.Day("2025-03-03"), parts[1].Date)
	assert.Equal(t, core.Day("2025-03-31"), parts[2].Date)
}

func TestSplitInstallments_DefaultsFirstStatus(t *testing.T) {
	parts, err := SplitInstallments(basePlan(), core.ClampToMonthEnd)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPendente, parts[0].Status)

	plan := basePlan()
	plan.PaymentDate = "2025-01-31"
	parts, err = SplitInstallments(plan, core.ClampToMonthEnd)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPago, parts[0].Status)
	assert.Equal(t, core.Day("2025-01-31"), parts[0].PaymentDate)
	assert.True(t, parts[1].PaymentDate.IsEmpty())
}

func TestSplitInstallments_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*InstallmentPlan)
		want   error
	}{
		{"count one", func(p *InstallmentPlan) { p.Count = 1 }, ErrInstallmentCount},
		{"count too large", func(p *InstallmentPlan) { p.Count = 37 }, ErrInstallmentCount},
		{"zero total", func(p *InstallmentPlan) { p.Total = core.Money{} }, ErrZeroTotal},
		{"blank description", func(p *InstallmentPlan) { p.Description = "  " }, ErrEmptyDescription},
		{"bad start date", func(p *InstallmentPlan) { p.StartDate = "2025-02-30" }, core.ErrInvalidDate},
		{"unknown payer", func(p *InstallmentPlan) { p.Payer = "Zé" }, core.ErrInvalidPayer},
		{"receivable status", func(p *InstallmentPlan) { p.Status = core.StatusAguardando }, core.ErrStatusNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := basePlan()
			tt.mutate(&plan)
			parts, err := SplitInstallments(plan, core.ClampToMonthEnd)
			assert.Nil(t, parts)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
