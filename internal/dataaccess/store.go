// Package dataaccess provides read-only access to a user's financial records.
package dataaccess

import (
	"context"

	"finquery-engine/internal/finance"
)

// Store is the read accessor the aggregator consumes. Implementations must
// return empty slices, not errors, for users with no records of a kind.
type Store interface {
	Accounts(ctx context.Context, userID string) ([]finance.Account, error)
	Transactions(ctx context.Context, userID string) ([]finance.Transaction, error)
	Purchases(ctx context.Context, userID string) ([]finance.Purchase, error)
	LendBorrow(ctx context.Context, userID string) ([]finance.LendBorrow, error)
	Budgets(ctx context.Context, userID string) ([]finance.CategoryBudget, error)
	Goals(ctx context.Context, userID string) ([]finance.SavingsGoal, error)
	Holdings(ctx context.Context, userID string) ([]finance.Holding, error)
}
