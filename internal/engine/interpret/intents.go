package interpret

import (
	"regexp"
	"strings"
)

// Intent is one recognizable question type. Patterns are case-insensitive
// regular expressions; KeyTerms drive the fuzzy fallback when no pattern
// matches directly.
type Intent struct {
	Name     string
	Patterns []string
	KeyTerms []string

	compiled []*regexp.Regexp
}

// Intent names, in declared priority order. Specific intents come before the
// general ones they would otherwise be shadowed by: "top spending
// categories" must win against the broad "expenses" patterns.
const (
	IntentTopCategories     = "top_categories"
	IntentCategoryBreakdown = "category_breakdown"
	IntentBurnRate          = "burn_rate"
	IntentVelocity          = "velocity"
	IntentAnomalies         = "anomalies"
	IntentForecast          = "forecast"
	IntentTrend             = "trend"
	IntentBudget            = "budget"
	IntentGoals             = "goals"
	IntentInvestments       = "investments"
	IntentLendBorrow        = "lend_borrow"
	IntentPurchases         = "purchases"
	IntentCurrency          = "currency"
	IntentAccounts          = "accounts"
	IntentTransactions      = "transactions"
	IntentSummary           = "summary"
	IntentRecommendations   = "recommendations"
	IntentIncome            = "income"
	IntentBalance           = "balance"
	IntentNetSavings        = "net_savings"
	IntentExpenses          = "expenses"
	IntentHelp              = "help"
)

// intents is the single ordered declaration of every recognizable intent.
// Order is the dispatch priority; first match wins.
var intents = []*Intent{
	{
		Name:     IntentTopCategories,
		Patterns: []string{`top.*(spending|expense).*categor`, `biggest.*(expense|spending)`, `where.*money.*go`, `most.*spent`, `largest.*categor`},
		KeyTerms: []string{"top", "biggest", "largest", "categories"},
	},
	{
		Name:     IntentCategoryBreakdown,
		Patterns: []string{`breakdown.*categor`, `categor.*breakdown`, `(spending|expenses).*by.*categor`, `split.*by.*categor`},
		KeyTerms: []string{"breakdown", "category"},
	},
	{
		Name:     IntentBurnRate,
		Patterns: []string{`burn.?rate`, `how long.*(money|balance|funds).*last`, `run out of (money|funds)`, `months.*until.*zero`},
		KeyTerms: []string{"burn", "last", "run", "out"},
	},
	{
		Name:     IntentVelocity,
		Patterns: []string{`(spending|daily).*(velocity|pace|rate)`, `daily average`, `per day`, `average.*day`},
		KeyTerms: []string{"velocity", "daily", "pace"},
	},
	{
		Name:     IntentAnomalies,
		Patterns: []string{`(unusual|abnormal|strange).*(spending|expense|activity)`, `anomal`, `spike`, `out of the ordinary`},
		KeyTerms: []string{"unusual", "anomaly", "spike"},
	},
	{
		Name:     IntentForecast,
		Patterns: []string{`forecast`, `project.*(month|spending|balance)`, `end of (the )?month`, `predict`},
		KeyTerms: []string{"forecast", "projection", "predict"},
	},
	{
		Name:     IntentTrend,
		Patterns: []string{`compare.*(month|period|year)`, `(this|current) month (vs|versus|against|compared)`, `trend`, `month over month`, `more or less than`},
		KeyTerms: []string{"compare", "trend", "versus"},
	},
	{
		Name:     IntentBudget,
		Patterns: []string{`budget`, `over.?spend`, `(spending|category) limit`},
		KeyTerms: []string{"budget", "limit"},
	},
	{
		Name:     IntentGoals,
		Patterns: []string{`(savings?|financial) goal`, `saving (for|up)`, `goal.*progress`, `target.*amount`},
		KeyTerms: []string{"goal", "target", "saving"},
	},
	{
		Name:     IntentInvestments,
		Patterns: []string{`invest`, `portfolio`, `stocks?`, `holdings?`, `shares`},
		KeyTerms: []string{"investment", "portfolio", "stocks"},
	},
	{
		Name:     IntentLendBorrow,
		Patterns: []string{`\blen[dt]\b`, `borrow`, `\bowes?\b`, `\bowed\b`, `who.*pay.*back`, `\bdebts?\b`},
		KeyTerms: []string{"lend", "borrow", "owe"},
	},
	{
		Name:     IntentPurchases,
		Patterns: []string{`purchases?`, `(what|things).*bought`, `recent.*buy`, `shopping`},
		KeyTerms: []string{"purchase", "bought"},
	},
	{
		Name:     IntentCurrency,
		Patterns: []string{`currenc(y|ies)`, `by currency`, `foreign`, `exchange`},
		KeyTerms: []string{"currency", "currencies"},
	},
	{
		Name:     IntentAccounts,
		Patterns: []string{`accounts?`, `banks?\b`, `wallets?`},
		KeyTerms: []string{"account", "bank"},
	},
	{
		Name:     IntentTransactions,
		Patterns: []string{`transactions?`, `recent activity`, `(list|show).*(payments|entries)`, `how many.*(payments|transactions)`},
		KeyTerms: []string{"transaction", "activity", "list"},
	},
	{
		Name:     IntentSummary,
		Patterns: []string{`summar`, `overview`, `financial (health|picture|situation)`, `how am i doing`},
		KeyTerms: []string{"summary", "overview", "health"},
	},
	{
		Name:     IntentRecommendations,
		Patterns: []string{`advice`, `recommend`, `tips`, `suggest`, `how (can|do) i (save|improve)`},
		KeyTerms: []string{"advice", "recommend", "tips"},
	},
	{
		Name:     IntentIncome,
		Patterns: []string{`income`, `how much.*(earn|made)`, `salary`, `earnings`},
		KeyTerms: []string{"income", "earn", "salary"},
	},
	{
		Name:     IntentBalance,
		Patterns: []string{`balance`, `how much money`, `net worth`, `funds.*(have|available)`},
		KeyTerms: []string{"balance", "money", "worth"},
	},
	{
		Name:     IntentNetSavings,
		Patterns: []string{`(net|left over|remaining).*(savings?|income)`, `how much.*sav(e|ed|ing)`, `keep.*after.*expenses`},
		KeyTerms: []string{"net", "savings", "left"},
	},
	{
		Name:     IntentExpenses,
		Patterns: []string{`expenses?`, `spending`, `how much.*spen[dt]`, `spent on`, `costs?\b`},
		KeyTerms: []string{"expenses", "spent", "spending"},
	},
	{
		Name:     IntentHelp,
		Patterns: []string{`^help$`, `what can you (do|answer)`, `how do (you|i) (work|use)`},
		KeyTerms: []string{"help"},
	},
}

func init() {
	for _, in := range intents {
		in.compiled = make([]*regexp.Regexp, len(in.Patterns))
		for i, p := range in.Patterns {
			in.compiled[i] = regexp.MustCompile(`(?i)` + p)
		}
	}
}

// Intents returns the declared intents in priority order.
func Intents() []*Intent {
	return intents
}

// Classify returns the name of the first intent the question matches, or
// "" when none does.
func Classify(question string) string {
	expanded := ExpandQuestion(question)
	for _, in := range intents {
		if in.Matches(question, expanded) {
			return in.Name
		}
	}
	return ""
}

// Matches reports whether the question matches this intent, first by direct
// pattern match against the raw and synonym-expanded question, then by fuzzy
// key-term overlap.
func (in *Intent) Matches(question, expanded string) bool {
	for _, re := range in.compiled {
		if re.MatchString(question) || re.MatchString(expanded) {
			return true
		}
	}
	return in.fuzzyMatches(question)
}

// fuzzyMatches counts how many of the intent's key terms appear among the
// question's synonym-expanded words, by substring containment in either
// direction. The intent matches when at least min(2, keyTermCount) terms
// are present.
func (in *Intent) fuzzyMatches(question string) bool {
	if len(in.KeyTerms) == 0 {
		return false
	}

	words := ExpandWords(question)
	matched := 0
	for _, term := range in.KeyTerms {
		for _, w := range words {
			if len(w) < 3 {
				continue
			}
			if strings.Contains(w, term) || strings.Contains(term, w) {
				matched++
				break
			}
		}
	}

	needed := 2
	if len(in.KeyTerms) < needed {
		needed = len(in.KeyTerms)
	}
	return matched >= needed
}

// financialVocabulary is used by the default response path to decide whether
// an unmatched question is at least finance-shaped.
var financialVocabulary = []string{
	"money", "spend", "spent", "cost", "pay", "paid", "cash", "dollar",
	"bank", "finance", "financial", "bill", "price", "afford", "loan",
	"credit", "debit", "fund", "wealth", "save",
}

// HasFinancialVocabulary reports whether the question contains any
// recognizable financial term, synonyms included.
func HasFinancialVocabulary(question string) bool {
	words := ExpandWords(question)
	for _, w := range words {
		for _, v := range financialVocabulary {
			if strings.Contains(w, v) {
				return true
			}
		}
	}
	return false
}
