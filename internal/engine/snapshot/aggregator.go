// Package snapshot builds the aggregated financial picture a question is
// answered against. Aggregation never fails: a store error for one record
// kind is logged and that kind is treated as empty.
package snapshot

import (
	"context"
	"time"

	"finquery-engine/internal/common/logger"
	"finquery-engine/internal/dataaccess"
	"finquery-engine/internal/finance"
)

const (
	historyMonths     = 6
	anomalyWindow     = 3
	anomalyRatio      = 1.5
	anomalyMinAverage = 1.0
)

// Aggregator derives a finance.Snapshot from the store's raw records.
type Aggregator struct {
	store  dataaccess.Store
	logger logger.Logger
	now    func() time.Time
}

func New(store dataaccess.Store, log logger.Logger) *Aggregator {
	return NewWithClock(store, log, time.Now)
}

// NewWithClock is New with an injectable clock, for tests.
func NewWithClock(store dataaccess.Store, log logger.Logger, now func() time.Time) *Aggregator {
	return &Aggregator{store: store, logger: log, now: now}
}

// Aggregate loads every record kind for the user and derives the snapshot.
// Individual load failures degrade to empty data rather than failing the
// whole aggregation, so the caller always gets a usable snapshot.
func (a *Aggregator) Aggregate(ctx context.Context, userID string) *finance.Snapshot {
	snap := &finance.Snapshot{
		UserID:      userID,
		GeneratedAt: a.now(),
	}

	var err error
	if snap.Accounts, err = a.store.Accounts(ctx, userID); err != nil {
		a.warn("accounts", userID, err)
		snap.Accounts = nil
	}
	if snap.Transactions, err = a.store.Transactions(ctx, userID); err != nil {
		a.warn("transactions", userID, err)
		snap.Transactions = nil
	}
	if snap.Purchases, err = a.store.Purchases(ctx, userID); err != nil {
		a.warn("purchases", userID, err)
		snap.Purchases = nil
	}
	if snap.LendBorrow, err = a.store.LendBorrow(ctx, userID); err != nil {
		a.warn("lend_borrow", userID, err)
		snap.LendBorrow = nil
	}
	if snap.Budgets, err = a.store.Budgets(ctx, userID); err != nil {
		a.warn("budgets", userID, err)
		snap.Budgets = nil
	}
	if snap.Goals, err = a.store.Goals(ctx, userID); err != nil {
		a.warn("goals", userID, err)
		snap.Goals = nil
	}
	if snap.Holdings, err = a.store.Holdings(ctx, userID); err != nil {
		a.warn("holdings", userID, err)
		snap.Holdings = nil
	}

	snap.HasData = len(snap.Accounts) > 0 || len(snap.Transactions) > 0 ||
		len(snap.Purchases) > 0 || len(snap.LendBorrow) > 0 ||
		len(snap.Budgets) > 0 || len(snap.Goals) > 0 || len(snap.Holdings) > 0

	now := a.now()
	snap.Summary = buildSummary(snap, now)
	snap.Analytics = buildAnalytics(snap, now)
	snap.Investments = buildInvestments(snap.Holdings)
	snap.ByCurrency = balancesByCurrency(snap.Accounts)

	return snap
}

func (a *Aggregator) warn(kind, userID string, err error) {
	a.logger.Warn("record load failed, continuing with empty data", map[string]interface{}{
		"kind":    kind,
		"user_id": userID,
		"error":   err.Error(),
	})
}

func buildSummary(snap *finance.Snapshot, now time.Time) finance.Summary {
	s := finance.Summary{
		CategoryTotals:  make(map[string]float64),
		PrimaryCurrency: primaryCurrency(snap.Accounts),
	}

	for _, acct := range snap.Accounts {
		s.TotalBalance += acct.Balance
	}

	thisMonth := monthStart(now)
	lastMonth := thisMonth.AddDate(0, -1, 0)

	for _, tx := range snap.Transactions {
		if tx.Amount >= 0 {
			s.TotalIncome += tx.Amount
			continue
		}
		spend := -tx.Amount
		s.TotalExpenses += spend
		if tx.Category != "" {
			s.CategoryTotals[tx.Category] += spend
		}
		switch {
		case !tx.Date.Before(thisMonth):
			s.ThisMonthExpenses += spend
		case !tx.Date.Before(lastMonth):
			s.LastMonthExpenses += spend
		}
	}

	s.NetSavings = s.TotalIncome - s.TotalExpenses
	return s
}

func buildAnalytics(snap *finance.Snapshot, now time.Time) finance.Analytics {
	an := finance.Analytics{
		MonthlyHistory: monthlyHistory(snap.Transactions, now),
	}

	elapsed := float64(now.Day())
	if elapsed > 0 {
		an.DailyAverage = snap.Summary.ThisMonthExpenses / elapsed
	}
	an.ProjectedMonthEnd = an.DailyAverage * float64(daysInMonth(now))

	an.Anomalies = detectAnomalies(snap.Transactions, now)

	// Burn rate is meaningful only while spending outpaces income and there
	// is still a positive balance to run down.
	monthlyNet := trailingMonthlyNet(snap.Transactions, now)
	if monthlyNet < 0 && snap.Summary.TotalBalance > 0 {
		an.BurnRateApplies = true
		an.MonthsUntilZero = snap.Summary.TotalBalance / -monthlyNet
	}

	return an
}

// monthlyHistory returns per-month expense totals for the trailing
// historyMonths months, oldest first, current month last.
func monthlyHistory(txs []finance.Transaction, now time.Time) []finance.MonthlySpend {
	start := monthStart(now).AddDate(0, -(historyMonths - 1), 0)
	totals := make(map[time.Time]float64, historyMonths)

	for _, tx := range txs {
		if tx.Amount >= 0 || tx.Date.Before(start) {
			continue
		}
		totals[monthStart(tx.Date)] += -tx.Amount
	}

	history := make([]finance.MonthlySpend, 0, historyMonths)
	for i := 0; i < historyMonths; i++ {
		month := start.AddDate(0, i, 0)
		history = append(history, finance.MonthlySpend{Month: month, Total: totals[month]})
	}
	return history
}

// detectAnomalies flags categories whose current-month spend is at least
// anomalyRatio times their trailing three month average.
func detectAnomalies(txs []finance.Transaction, now time.Time) []finance.CategoryAnomaly {
	thisMonth := monthStart(now)
	windowStart := thisMonth.AddDate(0, -anomalyWindow, 0)

	current := make(map[string]float64)
	trailing := make(map[string]float64)
	for _, tx := range txs {
		if tx.Amount >= 0 || tx.Category == "" {
			continue
		}
		spend := -tx.Amount
		switch {
		case !tx.Date.Before(thisMonth):
			current[tx.Category] += spend
		case !tx.Date.Before(windowStart):
			trailing[tx.Category] += spend
		}
	}

	var anomalies []finance.CategoryAnomaly
	for category, spend := range current {
		avg := trailing[category] / anomalyWindow
		if avg < anomalyMinAverage {
			continue
		}
		if spend >= avg*anomalyRatio {
			anomalies = append(anomalies, finance.CategoryAnomaly{
				Category:     category,
				CurrentSpend: spend,
				AverageSpend: avg,
				Ratio:        spend / avg,
			})
		}
	}
	return anomalies
}

// trailingMonthlyNet averages income minus expenses over the trailing three
// full months.
func trailingMonthlyNet(txs []finance.Transaction, now time.Time) float64 {
	thisMonth := monthStart(now)
	windowStart := thisMonth.AddDate(0, -anomalyWindow, 0)

	var net float64
	for _, tx := range txs {
		if tx.Date.Before(windowStart) || !tx.Date.Before(thisMonth) {
			continue
		}
		net += tx.Amount
	}
	return net / anomalyWindow
}

func buildInvestments(holdings []finance.Holding) finance.InvestmentTotals {
	var inv finance.InvestmentTotals
	for _, h := range holdings {
		inv.PortfolioValue += h.Value
		inv.CostBasis += h.CostBasis
	}
	inv.GainLoss = inv.PortfolioValue - inv.CostBasis
	if inv.CostBasis > 0 {
		inv.ReturnPercent = inv.GainLoss / inv.CostBasis * 100
	}
	return inv
}

func balancesByCurrency(accounts []finance.Account) map[string]float64 {
	out := make(map[string]float64)
	for _, acct := range accounts {
		currency := acct.Currency
		if currency == "" {
			currency = "USD"
		}
		out[currency] += acct.Balance
	}
	return out
}

// primaryCurrency is the currency held by the most accounts, USD by default.
func primaryCurrency(accounts []finance.Account) string {
	counts := make(map[string]int)
	for _, acct := range accounts {
		if acct.Currency != "" {
			counts[acct.Currency]++
		}
	}
	primary, best := "USD", 0
	for currency, n := range counts {
		if n > best {
			primary, best = currency, n
		}
	}
	return primary
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func daysInMonth(t time.Time) int {
	return monthStart(t).AddDate(0, 1, 0).Add(-time.Hour).Day()
}
