package interpret

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		question string
		expected string
	}{
		{
			name:     "balance question",
			question: "What's my balance?",
			expected: IntentBalance,
		},
		{
			name:     "plain expenses question",
			question: "Show me my expenses",
			expected: IntentExpenses,
		},
		{
			name:     "top categories beats the broader expenses intent",
			question: "What are my top spending categories?",
			expected: IntentTopCategories,
		},
		{
			name:     "burn rate phrasing",
			question: "How long will my money last?",
			expected: IntentBurnRate,
		},
		{
			name:     "income via synonym",
			question: "How big was my salary this month?",
			expected: IntentIncome,
		},
		{
			name:     "lend borrow",
			question: "Who owes me money?",
			expected: IntentLendBorrow,
		},
		{
			name:     "goal progress",
			question: "How is my savings goal doing?",
			expected: IntentGoals,
		},
		{
			name:     "investments",
			question: "Show my portfolio",
			expected: IntentInvestments,
		},
		{
			name:     "unrelated question",
			question: "hello there",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.question))
		})
	}
}

func TestFuzzyMatchRequiresTermOverlap(t *testing.T) {
	// No pattern matches, but two of the top_categories key terms do.
	assert.Equal(t, IntentTopCategories, Classify("biggest categories please"))

	// A single overlapping term is not enough when an intent declares several.
	assert.NotEqual(t, IntentBurnRate, Classify("the last thing I did"))
}

func TestIntentOrderIsStable(t *testing.T) {
	declared := Intents()
	assert.Equal(t, IntentTopCategories, declared[0].Name)
	assert.Equal(t, IntentHelp, declared[len(declared)-1].Name)

	// Every intent carries at least one compiled pattern.
	for _, in := range declared {
		assert.NotEmpty(t, in.Patterns, in.Name)
	}
}

func TestExpandWords(t *testing.T) {
	words := ExpandWords("my salary arrived")
	assert.Contains(t, words, "salary")
	assert.Contains(t, words, "income")

	words = ExpandWords("expense report")
	assert.Contains(t, words, "spending")
}

func TestHasFinancialVocabulary(t *testing.T) {
	assert.True(t, HasFinancialVocabulary("how much did I spend"))
	assert.True(t, HasFinancialVocabulary("can I afford this"))
	assert.False(t, HasFinancialVocabulary("hello there"))
}
