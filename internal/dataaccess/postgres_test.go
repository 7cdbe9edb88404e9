package dataaccess

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_Accounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT name, type, balance, currency FROM accounts").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"name", "type", "balance", "currency"}).
			AddRow("Checking", "checking", 500.0, "USD").
			AddRow("Savings", "savings", 1200.0, "USD"))

	store := NewPostgresStore(db)
	accounts, err := store.Accounts(context.Background(), "user-1")

	assert.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "Checking", accounts[0].Name)
	assert.Equal(t, 500.0, accounts[0].Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Accounts_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT name, type, balance, currency FROM accounts").
		WithArgs("user-2").
		WillReturnRows(sqlmock.NewRows([]string{"name", "type", "balance", "currency"}))

	store := NewPostgresStore(db)
	accounts, err := store.Accounts(context.Background(), "user-2")

	// No records is an empty slice, never an error.
	assert.NoError(t, err)
	assert.NotNil(t, accounts)
	assert.Empty(t, accounts)
}

func TestPostgresStore_Transactions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT description, amount, type, category, currency, date").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"description", "amount", "type", "category", "currency", "date"}).
			AddRow("Groceries", -82.50, "expense", "Food", "USD", date).
			AddRow("Paycheck", 2500.0, "income", "Salary", "USD", date))

	store := NewPostgresStore(db)
	txs, err := store.Transactions(context.Background(), "user-1")

	assert.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, -82.50, txs[0].Amount)
	assert.Equal(t, "expense", txs[0].Type)
	assert.Equal(t, "Salary", txs[1].Category)
}

func TestPostgresStore_Goals_NullDeadline(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT name, target, current, deadline FROM savings_goals").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"name", "target", "current", "deadline"}).
			AddRow("Vacation", 3000.0, 750.0, nil))

	store := NewPostgresStore(db)
	goals, err := store.Goals(context.Background(), "user-1")

	assert.NoError(t, err)
	require.Len(t, goals, 1)
	assert.True(t, goals[0].Deadline.IsZero())
	assert.InDelta(t, 25.0, goals[0].Progress(), 0.001)
}

func TestPostgresStore_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT symbol, quantity, cost_basis, value FROM holdings").
		WithArgs("user-1").
		WillReturnError(assert.AnError)

	store := NewPostgresStore(db)
	_, err = store.Holdings(context.Background(), "user-1")

	assert.Error(t, err)
}
