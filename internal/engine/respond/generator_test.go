package respond

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finquery-engine/internal/common/logger"
	"finquery-engine/internal/engine/memory"
	"finquery-engine/internal/finance"
)

var genNow = time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

func newGenerator() *Generator {
	return NewWithClock(logger.NewNoOpLogger(), func() time.Time { return genNow })
}

func generate(t *testing.T, question string, snap *finance.Snapshot, history []memory.Message) string {
	t.Helper()
	answer, err := newGenerator().Generate(question, snap, history)
	require.NoError(t, err)
	return answer
}

func TestBalanceAnswerListsAccountsAndTotal(t *testing.T) {
	snap := &finance.Snapshot{
		HasData:  true,
		Accounts: []finance.Account{{Name: "Checking", Type: "checking", Balance: 500, Currency: "USD"}},
		Summary:  finance.Summary{TotalBalance: 500},
	}

	answer := generate(t, "What's my balance?", snap, nil)

	assert.Contains(t, answer, "Checking: $500.00")
	assert.Contains(t, answer, "total balance is $500.00")
}

func TestExpensesFilteredByDateRange(t *testing.T) {
	snap := &finance.Snapshot{
		HasData: true,
		Transactions: []finance.Transaction{
			{Description: "Old", Amount: -100, Category: "Food", Date: genNow.AddDate(0, 0, -10)},
			{Description: "Recent", Amount: -40, Category: "Food", Date: genNow.AddDate(0, 0, -3)},
		},
	}

	answer := generate(t, "How much did I spend in the last 7 days?", snap, nil)

	assert.Contains(t, answer, "$40.00")
	assert.Contains(t, answer, "the last 7 days")
	assert.NotContains(t, answer, "$140.00")
}

func TestSummaryWithZeroActivity(t *testing.T) {
	snap := &finance.Snapshot{
		HasData:  true,
		Accounts: []finance.Account{{Name: "Checking", Balance: 0}},
	}

	answer := generate(t, "Give me a financial summary", snap, nil)

	assert.Contains(t, answer, "not enough data")
	assert.NotContains(t, answer, "NaN")
}

func TestTopCategoriesOrderedByShare(t *testing.T) {
	snap := &finance.Snapshot{
		HasData: true,
		Summary: finance.Summary{
			TotalExpenses:  400,
			CategoryTotals: map[string]float64{"Transport": 100, "Food": 300},
		},
	}

	answer := generate(t, "What are my top spending categories?", snap, nil)

	assert.Contains(t, answer, "Food: $300.00 (75.0%)")
	assert.Contains(t, answer, "Transport: $100.00 (25.0%)")
	assert.Less(t, strings.Index(answer, "Food"), strings.Index(answer, "Transport"))
}

func TestNoDataReturnsOnboardingMessage(t *testing.T) {
	snap := &finance.Snapshot{HasData: false}

	for _, question := range []string{
		"What's my balance?",
		"Show my expenses",
		"How are my savings goals?",
	} {
		answer := generate(t, question, snap, nil)
		assert.Equal(t, onboardingMessage, answer, question)
	}
}

func TestZeroValuedAnswersDifferFromOnboarding(t *testing.T) {
	snap := &finance.Snapshot{
		HasData:  true,
		Accounts: []finance.Account{{Name: "Checking", Balance: 100}},
	}

	answer := generate(t, "How much income did I have?", snap, nil)
	assert.NotEqual(t, onboardingMessage, answer)
	assert.Contains(t, answer, "no income recorded")
}

func TestFollowUpUsesPreviousQuestion(t *testing.T) {
	snap := &finance.Snapshot{
		HasData: true,
		Transactions: []finance.Transaction{
			{Description: "Groceries", Amount: -60, Category: "Food", Date: genNow.AddDate(0, 0, -2)},
		},
		Summary: finance.Summary{TotalExpenses: 60},
	}
	history := []memory.Message{
		{Role: memory.RoleUser, Content: "Show me my expenses"},
		{Role: memory.RoleAssistant, Content: "Your total recorded spending is $60.00."},
	}

	answer := generate(t, "what about last week", snap, history)

	assert.True(t, strings.HasPrefix(answer, "Following up: "), answer)
	assert.Contains(t, answer, "last week")
}

func TestDefaultAnswers(t *testing.T) {
	snap := &finance.Snapshot{HasData: true}

	withVocab := generate(t, "can I afford stuff", snap, nil)
	assert.Contains(t, withVocab, "You could ask")

	noVocab := generate(t, "tell me a joke", snap, nil)
	assert.Contains(t, noVocab, "personal finance assistant")

	history := []memory.Message{{Role: memory.RoleUser, Content: "tell me a joke"}}
	repeated := generate(t, "tell me another joke please and thanks", snap, history)
	assert.NotEqual(t, noVocab, repeated)
}

func TestGenerateIsDeterministic(t *testing.T) {
	snap := &finance.Snapshot{
		HasData: true,
		Summary: finance.Summary{
			TotalExpenses:  400,
			CategoryTotals: map[string]float64{"Transport": 100, "Food": 300, "Rent": 100},
		},
	}

	first := generate(t, "spending by category", snap, nil)
	second := generate(t, "spending by category", snap, nil)
	assert.Equal(t, first, second)
}

func TestLendBorrowSummary(t *testing.T) {
	snap := &finance.Snapshot{
		HasData: true,
		LendBorrow: []finance.LendBorrow{
			{Counterparty: "Sam", Amount: 120, Direction: "lend"},
			{Counterparty: "Alex", Amount: 50, Direction: "borrow"},
			{Counterparty: "Kim", Amount: 999, Direction: "lend", Settled: true},
		},
	}

	answer := generate(t, "Who owes me money?", snap, nil)

	assert.Contains(t, answer, "owed $120.00")
	assert.Contains(t, answer, "owe $50.00")
	assert.NotContains(t, answer, "999")
}

func TestTrendComparesMonths(t *testing.T) {
	snap := &finance.Snapshot{
		HasData: true,
		Summary: finance.Summary{ThisMonthExpenses: 300, LastMonthExpenses: 200},
	}

	answer := generate(t, "Compare this month to last month", snap, nil)

	assert.Contains(t, answer, "$300.00")
	assert.Contains(t, answer, "$200.00")
	assert.Contains(t, answer, "50.0%")
}
