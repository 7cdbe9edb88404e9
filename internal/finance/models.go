// Package finance defines the financial record types consumed by the query
// engine and the aggregated Snapshot derived from them.
package finance

import "time"

// Account is a single money account (checking, savings, credit, cash).
type Account struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

// Transaction is a single dated movement of money. Amount is signed:
// negative for expenses, positive for income.
type Transaction struct {
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Type        string    `json:"type"` // income | expense | transfer
	Category    string    `json:"category"`
	Currency    string    `json:"currency"`
	Date        time.Time `json:"date"`
}

// Purchase is a tracked one-off purchase.
type Purchase struct {
	Item     string    `json:"item"`
	Amount   float64   `json:"amount"`
	Category string    `json:"category"`
	Date     time.Time `json:"date"`
}

// LendBorrow is a personal lend or borrow record.
type LendBorrow struct {
	Counterparty string    `json:"counterparty"`
	Amount       float64   `json:"amount"`
	Direction    string    `json:"direction"` // lend | borrow
	Date         time.Time `json:"date"`
	Settled      bool      `json:"settled"`
}

// CategoryBudget pairs a spending category with its monthly budget and the
// amount already spent against it.
type CategoryBudget struct {
	Category string  `json:"category"`
	Budget   float64 `json:"budget"`
	Spent    float64 `json:"spent"`
}

// SavingsGoal is a target amount with current progress.
type SavingsGoal struct {
	Name     string    `json:"name"`
	Target   float64   `json:"target"`
	Current  float64   `json:"current"`
	Deadline time.Time `json:"deadline"`
}

// Progress returns completion as a percentage, 0 when the target is unset.
func (g SavingsGoal) Progress() float64 {
	if g.Target <= 0 {
		return 0
	}
	return g.Current / g.Target * 100
}

// DaysRemaining returns whole days until the deadline, 0 when passed or unset.
func (g SavingsGoal) DaysRemaining(now time.Time) int {
	if g.Deadline.IsZero() || !g.Deadline.After(now) {
		return 0
	}
	return int(g.Deadline.Sub(now).Hours() / 24)
}

// Holding is one investment position.
type Holding struct {
	Symbol    string  `json:"symbol"`
	Quantity  float64 `json:"quantity"`
	CostBasis float64 `json:"cost_basis"`
	Value     float64 `json:"value"`
}

// Summary holds the headline aggregates of a snapshot.
type Summary struct {
	TotalBalance      float64            `json:"total_balance"`
	TotalIncome       float64            `json:"total_income"`
	TotalExpenses     float64            `json:"total_expenses"`
	NetSavings        float64            `json:"net_savings"`
	CategoryTotals    map[string]float64 `json:"category_totals"`
	ThisMonthExpenses float64            `json:"this_month_expenses"`
	LastMonthExpenses float64            `json:"last_month_expenses"`
	PrimaryCurrency   string             `json:"primary_currency"`
}

// CategoryAnomaly flags a category whose current-month spend is well above
// its trailing three month average.
type CategoryAnomaly struct {
	Category     string  `json:"category"`
	CurrentSpend float64 `json:"current_spend"`
	AverageSpend float64 `json:"average_spend"`
	Ratio        float64 `json:"ratio"`
}

// MonthlySpend is one month of spending history.
type MonthlySpend struct {
	Month time.Time `json:"month"` // first day of month
	Total float64   `json:"total"`
}

// Analytics holds the derived spending analytics of a snapshot.
type Analytics struct {
	MonthlyHistory    []MonthlySpend    `json:"monthly_history"`
	DailyAverage      float64           `json:"daily_average"`
	ProjectedMonthEnd float64           `json:"projected_month_end"`
	MonthsUntilZero   float64           `json:"months_until_zero"` // 0 when burn rate not applicable
	BurnRateApplies   bool              `json:"burn_rate_applies"`
	Anomalies         []CategoryAnomaly `json:"anomalies"`
}

// InvestmentTotals holds portfolio-level investment aggregates.
type InvestmentTotals struct {
	PortfolioValue float64 `json:"portfolio_value"`
	CostBasis      float64 `json:"cost_basis"`
	GainLoss       float64 `json:"gain_loss"`
	ReturnPercent  float64 `json:"return_percent"`
}

// Snapshot is the full aggregated financial picture of one user at one
// moment. It is derived from the store's records and never mutated by the
// engine afterwards.
type Snapshot struct {
	UserID       string             `json:"user_id"`
	Accounts     []Account          `json:"accounts"`
	Transactions []Transaction      `json:"transactions"`
	Purchases    []Purchase         `json:"purchases"`
	LendBorrow   []LendBorrow       `json:"lend_borrow"`
	Budgets      []CategoryBudget   `json:"budgets"`
	Goals        []SavingsGoal      `json:"goals"`
	Holdings     []Holding          `json:"holdings"`
	Summary      Summary            `json:"summary"`
	Analytics    Analytics          `json:"analytics"`
	Investments  InvestmentTotals   `json:"investments"`
	ByCurrency   map[string]float64 `json:"by_currency"`
	HasData      bool               `json:"has_data"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

// TransactionsBetween returns the transactions dated within [start, end].
func (s *Snapshot) TransactionsBetween(start, end time.Time) []Transaction {
	var out []Transaction
	for _, tx := range s.Transactions {
		if !tx.Date.Before(start) && !tx.Date.After(end) {
			out = append(out, tx)
		}
	}
	return out
}
