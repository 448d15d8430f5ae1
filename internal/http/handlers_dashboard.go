package http

import (
	"net/http"

	"brastech/internal/cache"
	"brastech/internal/core"
	"brastech/internal/log"
	"brastech/internal/services"
)

type totalsText struct {
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Balance string `json:"balance"`
}

func formatTotals(income, expense, balance core.Money) totalsText {
	return totalsText{
		Income:  core.FormatReais(income.Cents),
		Expense: core.FormatReais(expense.Cents),
		Balance: core.FormatReais(balance.Cents),
	}
}

type yearlyResponse struct {
	core.YearSeries
	TotalIncome  core.Money `json:"totalIncome"`
	TotalExpense core.Money `json:"totalExpense"`
	Balance      core.Money `json:"balance"`
	Formatted    totalsText `json:"formatted"`
	Generation   uint64     `json:"generation"`
}

type monthlyResponse struct {
	core.MonthBreakdown
	Income     []core.CategoryAmount `json:"income"`
	Expense    []core.CategoryAmount `json:"expense"`
	Formatted  totalsText            `json:"formatted"`
	Generation uint64                `json:"generation"`
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	years := services.Years(s.deps.Book.Transactions())
	if years == nil {
		years = []int{}
	}
	NewJSONResponse().Data(map[string][]int{"years": years}).Write(w)
}

// handleYearly returns the twelve monthly buckets of ?year=, default the
// current year.
func (s *Server) handleYearly(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.deps.Clock.Today())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	gen := s.deps.Book.Generation()
	rev, txs := s.deps.Book.View()
	key := cache.Key("yearly", params.Year, rev)
	if cached, ok := s.yearlyCache.Get(key); ok {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Yearly summary cache hit", log.FieldYear, params.Year)
		NewJSONResponse().Data(cached).Write(w)
		return
	}

	series := services.YearlySeries(txs, params.Year, s.deps.Filter)
	resp := yearlyResponse{YearSeries: series, Generation: gen}
	for _, m := range series.Months {
		resp.TotalIncome = resp.TotalIncome.Add(m.Income)
		resp.TotalExpense = resp.TotalExpense.Add(m.Expense)
	}
	resp.Balance = resp.TotalIncome.Sub(resp.TotalExpense)
	resp.Formatted = formatTotals(resp.TotalIncome, resp.TotalExpense, resp.Balance)

	s.yearlyCache.Set(key, resp)
	NewJSONResponse().Data(resp).Write(w)
}

// handleMonthly returns the per-category breakdown of ?year=&month=,
// defaulting to the current month.
func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.deps.Clock.Today())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	gen := s.deps.Book.Generation()
	rev, txs := s.deps.Book.View()
	key := cache.Key("monthly", params.Year, params.Month, rev)
	if cached, ok := s.monthlyCache.Get(key); ok {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Monthly summary cache hit",
			log.FieldYear, params.Year, log.FieldMonth, params.Month)
		NewJSONResponse().Data(cached).Write(w)
		return
	}

	breakdown := services.MonthlyBreakdown(txs, params.Year, params.Month, s.deps.Filter)
	resp := monthlyResponse{
		MonthBreakdown: breakdown,
		Income:         services.SortedCategories(breakdown.IncomeByCategory),
		Expense:        services.SortedCategories(breakdown.ExpenseByCategory),
		Formatted:      formatTotals(breakdown.TotalIncome, breakdown.TotalExpense, breakdown.Balance),
		Generation:     gen,
	}

	s.monthlyCache.Set(key, resp)
	NewJSONResponse().Data(resp).Write(w)
}
