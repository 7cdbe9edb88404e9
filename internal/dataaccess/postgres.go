package dataaccess

import (
	"context"
	"database/sql"

	"finquery-engine/internal/finance"
)

// PostgresStore implements Store over the dashboard's hosted database.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Accounts(ctx context.Context, userID string) ([]finance.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, type, balance, currency FROM accounts WHERE user_id = $1 ORDER BY name`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []finance.Account{}
	for rows.Next() {
		var a finance.Account
		if err := rows.Scan(&a.Name, &a.Type, &a.Balance, &a.Currency); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *PostgresStore) Transactions(ctx context.Context, userID string) ([]finance.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT description, amount, type, category, currency, date
		 FROM transactions WHERE user_id = $1 ORDER BY date DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []finance.Transaction{}
	for rows.Next() {
		var t finance.Transaction
		if err := rows.Scan(&t.Description, &t.Amount, &t.Type, &t.Category, &t.Currency, &t.Date); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (s *PostgresStore) Purchases(ctx context.Context, userID string) ([]finance.Purchase, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item, amount, category, date FROM purchases WHERE user_id = $1 ORDER BY date DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := []finance.Purchase{}
	for rows.Next() {
		var p finance.Purchase
		if err := rows.Scan(&p.Item, &p.Amount, &p.Category, &p.Date); err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

func (s *PostgresStore) LendBorrow(ctx context.Context, userID string) ([]finance.LendBorrow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT counterparty, amount, direction, date, settled
		 FROM lend_borrow WHERE user_id = $1 ORDER BY date DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []finance.LendBorrow{}
	for rows.Next() {
		var r finance.LendBorrow
		if err := rows.Scan(&r.Counterparty, &r.Amount, &r.Direction, &r.Date, &r.Settled); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Budgets(ctx context.Context, userID string) ([]finance.CategoryBudget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.name, c.budget, COALESCE(SUM(-t.amount) FILTER (WHERE t.type = 'expense'), 0)
		 FROM categories c
		 LEFT JOIN transactions t ON t.category = c.name AND t.user_id = c.user_id
		   AND date_trunc('month', t.date) = date_trunc('month', now())
		 WHERE c.user_id = $1
		 GROUP BY c.name, c.budget
		 ORDER BY c.name`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	budgets := []finance.CategoryBudget{}
	for rows.Next() {
		var b finance.CategoryBudget
		if err := rows.Scan(&b.Category, &b.Budget, &b.Spent); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (s *PostgresStore) Goals(ctx context.Context, userID string) ([]finance.SavingsGoal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, target, current, deadline FROM savings_goals WHERE user_id = $1 ORDER BY deadline`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := []finance.SavingsGoal{}
	for rows.Next() {
		var g finance.SavingsGoal
		var deadline sql.NullTime
		if err := rows.Scan(&g.Name, &g.Target, &g.Current, &deadline); err != nil {
			return nil, err
		}
		if deadline.Valid {
			g.Deadline = deadline.Time
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *PostgresStore) Holdings(ctx context.Context, userID string) ([]finance.Holding, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, quantity, cost_basis, value FROM holdings WHERE user_id = $1 ORDER BY symbol`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holdings := []finance.Holding{}
	for rows.Next() {
		var h finance.Holding
		if err := rows.Scan(&h.Symbol, &h.Quantity, &h.CostBasis, &h.Value); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}
