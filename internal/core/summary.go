package core

// MonthTotals is one bucket of the yearly series.
type MonthTotals struct {
	Month   int   `json:"month"` // 1-12
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
	Balance Money `json:"balance"`
}

// YearSeries holds the twelve monthly buckets of a year, January first.
type YearSeries struct {
	Year   int             `json:"year"`
	Months [12]MonthTotals `json:"months"`
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// MonthBreakdown is the per-category summary of a specific year+month.
type MonthBreakdown struct {
	Year              int              `json:"year"`
	Month             int              `json:"month"` // 1-12
	IncomeByCategory  map[string]Money `json:"incomeByCategory"`
	ExpenseByCategory map[string]Money `json:"expenseByCategory"`
	TotalIncome       Money            `json:"totalIncome"`
	TotalExpense      Money            `json:"totalExpense"`
	Balance           Money            `json:"balance"`
}
