package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finquery-engine/internal/common/logger"
	"finquery-engine/internal/finance"
)

var aggNow = time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

type stubStore struct {
	accounts     []finance.Account
	transactions []finance.Transaction
	purchases    []finance.Purchase
	lendBorrow   []finance.LendBorrow
	budgets      []finance.CategoryBudget
	goals        []finance.SavingsGoal
	holdings     []finance.Holding
	err          error
}

func (s *stubStore) Accounts(ctx context.Context, userID string) ([]finance.Account, error) {
	return s.accounts, s.err
}

func (s *stubStore) Transactions(ctx context.Context, userID string) ([]finance.Transaction, error) {
	return s.transactions, s.err
}

func (s *stubStore) Purchases(ctx context.Context, userID string) ([]finance.Purchase, error) {
	return s.purchases, s.err
}

func (s *stubStore) LendBorrow(ctx context.Context, userID string) ([]finance.LendBorrow, error) {
	return s.lendBorrow, s.err
}

func (s *stubStore) Budgets(ctx context.Context, userID string) ([]finance.CategoryBudget, error) {
	return s.budgets, s.err
}

func (s *stubStore) Goals(ctx context.Context, userID string) ([]finance.SavingsGoal, error) {
	return s.goals, s.err
}

func (s *stubStore) Holdings(ctx context.Context, userID string) ([]finance.Holding, error) {
	return s.holdings, s.err
}

func newAggregator(store *stubStore) *Aggregator {
	return NewWithClock(store, logger.NewNoOpLogger(), func() time.Time { return aggNow })
}

func TestAggregateSummary(t *testing.T) {
	store := &stubStore{
		accounts: []finance.Account{
			{Name: "Checking", Type: "checking", Balance: 300, Currency: "USD"},
			{Name: "Savings", Type: "savings", Balance: 200, Currency: "USD"},
		},
		transactions: []finance.Transaction{
			{Description: "Pay", Amount: 1000, Category: "Salary", Date: aggNow.AddDate(0, 0, -5)},
			{Description: "Groceries", Amount: -150, Category: "Food", Date: aggNow.AddDate(0, 0, -3)},
			{Description: "Bus", Amount: -50, Category: "Transport", Date: aggNow.AddDate(0, 0, -2)},
			{Description: "Rent", Amount: -400, Category: "Housing", Date: aggNow.AddDate(0, -1, 0)},
		},
	}

	snap := newAggregator(store).Aggregate(context.Background(), "user-1")

	assert.True(t, snap.HasData)
	assert.InDelta(t, 500.0, snap.Summary.TotalBalance, 0.001)
	assert.InDelta(t, 1000.0, snap.Summary.TotalIncome, 0.001)
	assert.InDelta(t, 600.0, snap.Summary.TotalExpenses, 0.001)
	assert.InDelta(t, 400.0, snap.Summary.NetSavings, 0.001)
	assert.InDelta(t, 200.0, snap.Summary.ThisMonthExpenses, 0.001)
	assert.InDelta(t, 400.0, snap.Summary.LastMonthExpenses, 0.001)
	assert.InDelta(t, 150.0, snap.Summary.CategoryTotals["Food"], 0.001)
	assert.Equal(t, "USD", snap.Summary.PrimaryCurrency)
	assert.InDelta(t, 500.0, snap.ByCurrency["USD"], 0.001)
}

func TestAggregateSoftFailsToEmptySnapshot(t *testing.T) {
	store := &stubStore{err: errors.New("connection refused")}

	snap := newAggregator(store).Aggregate(context.Background(), "user-1")

	require.NotNil(t, snap)
	assert.False(t, snap.HasData)
	assert.Empty(t, snap.Accounts)
	assert.Empty(t, snap.Transactions)
	assert.InDelta(t, 0.0, snap.Summary.TotalBalance, 0.001)
	assert.Equal(t, "user-1", snap.UserID)
}

func TestAggregateVelocity(t *testing.T) {
	store := &stubStore{
		transactions: []finance.Transaction{
			{Amount: -300, Category: "Food", Date: time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)},
		},
	}

	snap := newAggregator(store).Aggregate(context.Background(), "user-1")

	// 300 spent over 15 elapsed days, projected across March's 31 days.
	assert.InDelta(t, 20.0, snap.Analytics.DailyAverage, 0.001)
	assert.InDelta(t, 620.0, snap.Analytics.ProjectedMonthEnd, 0.001)
}

func TestAggregateAnomalies(t *testing.T) {
	var txs []finance.Transaction
	for m := 1; m <= 3; m++ {
		txs = append(txs,
			finance.Transaction{Amount: -100, Category: "Food", Date: aggNow.AddDate(0, -m, 0)},
			finance.Transaction{Amount: -40, Category: "Dining", Date: aggNow.AddDate(0, -m, 0)},
		)
	}
	// Food doubles its average this month, Dining stays near its average.
	txs = append(txs,
		finance.Transaction{Amount: -200, Category: "Food", Date: aggNow.AddDate(0, 0, -1)},
		finance.Transaction{Amount: -50, Category: "Dining", Date: aggNow.AddDate(0, 0, -1)},
	)
	store := &stubStore{transactions: txs}

	snap := newAggregator(store).Aggregate(context.Background(), "user-1")

	require.Len(t, snap.Analytics.Anomalies, 1)
	anomaly := snap.Analytics.Anomalies[0]
	assert.Equal(t, "Food", anomaly.Category)
	assert.InDelta(t, 200.0, anomaly.CurrentSpend, 0.001)
	assert.InDelta(t, 100.0, anomaly.AverageSpend, 0.001)
	assert.InDelta(t, 2.0, anomaly.Ratio, 0.001)
}

func TestAggregateBurnRate(t *testing.T) {
	var txs []finance.Transaction
	for m := 1; m <= 3; m++ {
		txs = append(txs, finance.Transaction{Amount: -100, Category: "Food", Date: aggNow.AddDate(0, -m, 0)})
	}
	store := &stubStore{
		accounts:     []finance.Account{{Name: "Checking", Balance: 500, Currency: "USD"}},
		transactions: txs,
	}

	snap := newAggregator(store).Aggregate(context.Background(), "user-1")

	assert.True(t, snap.Analytics.BurnRateApplies)
	assert.InDelta(t, 5.0, snap.Analytics.MonthsUntilZero, 0.001)
}

func TestAggregateBurnRateNotApplicableWhenSaving(t *testing.T) {
	store := &stubStore{
		accounts: []finance.Account{{Name: "Checking", Balance: 500, Currency: "USD"}},
		transactions: []finance.Transaction{
			{Amount: 1000, Category: "Salary", Date: aggNow.AddDate(0, -1, 0)},
			{Amount: -200, Category: "Food", Date: aggNow.AddDate(0, -1, 0)},
		},
	}

	snap := newAggregator(store).Aggregate(context.Background(), "user-1")

	assert.False(t, snap.Analytics.BurnRateApplies)
	assert.InDelta(t, 0.0, snap.Analytics.MonthsUntilZero, 0.001)
}

func TestAggregateInvestments(t *testing.T) {
	store := &stubStore{
		holdings: []finance.Holding{
			{Symbol: "VTI", Quantity: 10, CostBasis: 2000, Value: 2400},
			{Symbol: "BND", Quantity: 20, CostBasis: 1000, Value: 1100},
		},
	}

	snap := newAggregator(store).Aggregate(context.Background(), "user-1")

	assert.InDelta(t, 3500.0, snap.Investments.PortfolioValue, 0.001)
	assert.InDelta(t, 3000.0, snap.Investments.CostBasis, 0.001)
	assert.InDelta(t, 500.0, snap.Investments.GainLoss, 0.001)
	assert.InDelta(t, 16.667, snap.Investments.ReturnPercent, 0.01)
}

func TestAggregateMonthlyHistoryWindow(t *testing.T) {
	store := &stubStore{
		transactions: []finance.Transaction{
			{Amount: -100, Category: "Food", Date: time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)},
			{Amount: -80, Category: "Food", Date: time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)},
			// Outside the six month window, must not appear.
			{Amount: -999, Category: "Food", Date: time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)},
		},
	}

	snap := newAggregator(store).Aggregate(context.Background(), "user-1")

	history := snap.Analytics.MonthlyHistory
	require.Len(t, history, 6)
	assert.Equal(t, time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC), history[0].Month)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), history[5].Month)
	assert.InDelta(t, 100.0, history[5].Total, 0.001)
	assert.InDelta(t, 80.0, history[3].Total, 0.001)
	for _, m := range history {
		assert.Less(t, m.Total, 999.0)
	}
}
