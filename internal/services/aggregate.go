package services

import (
	"sort"

	"brastech/internal/core"
)

// StatusFilter decides whether a record takes part in a summary.
type StatusFilter func(core.Transaction) bool

// PaidOnly counts settled records only.
func PaidOnly(tx core.Transaction) bool { return tx.Status == core.StatusPago }

// AllStatuses counts every record regardless of status.
func AllStatuses(core.Transaction) bool { return true }

// FilterFromConfig maps the DASHBOARD_INCLUDE_ALL_STATUSES flag to a filter.
func FilterFromConfig(includeAllStatuses bool) StatusFilter {
	if includeAllStatuses {
		return AllStatuses
	}
	return PaidOnly
}

func (f StatusFilter) accept(tx core.Transaction) bool {
	if f == nil {
		return PaidOnly(tx)
	}
	return f(tx)
}

// YearlySeries folds records into twelve monthly buckets of year.
// Records with a malformed date are skipped.
func YearlySeries(records []core.Transaction, year int, filter StatusFilter) core.YearSeries {
	series := core.YearSeries{Year: year}
	for i := range series.Months {
		series.Months[i].Month = i + 1
	}
	for _, tx := range records {
		y, m, ok := tx.Date.YearMonth()
		if !ok || y != year || !filter.accept(tx) {
			continue
		}
		bucket := &series.Months[m-1]
		switch tx.Type {
		case core.Entrada:
			bucket.Income = bucket.Income.Add(tx.Amount)
		case core.Saida:
			bucket.Expense = bucket.Expense.Add(tx.Amount)
		}
	}
	for i := range series.Months {
		b := &series.Months[i]
		b.Balance = b.Income.Sub(b.Expense)
	}
	return series
}

// MonthlyBreakdown groups the records of year/month by category and type.
func MonthlyBreakdown(records []core.Transaction, year, month int, filter StatusFilter) core.MonthBreakdown {
	out := core.MonthBreakdown{
		Year:              year,
		Month:             month,
		IncomeByCategory:  map[string]core.Money{},
		ExpenseByCategory: map[string]core.Money{},
	}
	for _, tx := range records {
		y, m, ok := tx.Date.YearMonth()
		if !ok || y != year || m != month || !filter.accept(tx) {
			continue
		}
		cat := tx.CategoryOrDefault()
		switch tx.Type {
		case core.Entrada:
			out.IncomeByCategory[cat] = out.IncomeByCategory[cat].Add(tx.Amount)
			out.TotalIncome = out.TotalIncome.Add(tx.Amount)
		case core.Saida:
			out.ExpenseByCategory[cat] = out.ExpenseByCategory[cat].Add(tx.Amount)
			out.TotalExpense = out.TotalExpense.Add(tx.Amount)
		}
	}
	out.Balance = out.TotalIncome.Sub(out.TotalExpense)
	return out
}

// SortedCategories lists a category map by amount, largest first, with
// ties broken by name.
func SortedCategories(m map[string]core.Money) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(m))
	for name, amount := range m {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Years returns the distinct years present in records, ascending.
func Years(records []core.Transaction) []int {
	seen := map[int]struct{}{}
	for _, tx := range records {
		if y, _, ok := tx.Date.YearMonth(); ok {
			seen[y] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}
