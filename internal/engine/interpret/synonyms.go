// Package interpret classifies a raw question against a fixed, ordered set
// of intents and extracts any natural-language date range it carries.
// Matching is pattern- and keyword-based, not semantic.
package interpret

import "strings"

// synonyms maps a canonical domain term to words users say instead.
var synonyms = map[string][]string{
	"income":      {"salary", "earnings", "deposit", "wage", "revenue", "paycheck"},
	"expense":     {"spending", "costs", "expenditure", "outgoing", "payments"},
	"expenses":    {"spending", "costs", "expenditures", "outgoings", "payments"},
	"spent":       {"paid", "used", "expended"},
	"spend":       {"spent", "spending"},
	"balance":     {"money", "funds", "total", "worth"},
	"transaction": {"payment", "activity", "entry"},
	"budget":      {"limit", "allowance", "allocation"},
	"goal":        {"target", "objective"},
	"investment":  {"portfolio", "stocks", "holdings", "shares"},
	"account":     {"bank", "wallet"},
	"save":        {"savings", "saved"},
	"lend":        {"lent", "loaned"},
	"borrow":      {"borrowed", "owe", "debt"},
	"purchase":    {"bought", "buy", "shopping"},
	"category":    {"categories", "breakdown"},
	"compare":     {"versus", "vs", "difference"},
	"forecast":    {"projection", "predict", "estimate"},
	"advice":      {"recommend", "recommendation", "tips", "suggestions"},
}

// ExpandWords returns the question's lowercased words together with every
// synonym either direction: a word gains its canonical term and a canonical
// term gains its synonym set.
func ExpandWords(question string) []string {
	words := Tokenize(question)
	seen := make(map[string]bool, len(words))
	out := make([]string, 0, len(words))

	add := func(w string) {
		if w != "" && !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}

	for _, w := range words {
		add(w)
		for _, syn := range synonyms[w] {
			add(syn)
		}
		for canonical, syns := range synonyms {
			for _, syn := range syns {
				if syn == w {
					add(canonical)
				}
			}
		}
	}
	return out
}

// ExpandQuestion returns the question plus a synonym-augmented rendering,
// suitable for pattern matching against either form.
func ExpandQuestion(question string) string {
	return strings.ToLower(question) + " " + strings.Join(ExpandWords(question), " ")
}

// Tokenize lowercases the question and splits it into plain words.
func Tokenize(question string) []string {
	q := strings.ToLower(question)
	return strings.FieldsFunc(q, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}
