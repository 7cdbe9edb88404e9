// Package respond turns a classified question and a financial snapshot into
// answer text. Generation is deterministic in its inputs and never fails:
// every intent has a template, and unmatched questions fall through to a
// capability summary.
package respond

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"finquery-engine/internal/common/logger"
	"finquery-engine/internal/engine/interpret"
	"finquery-engine/internal/engine/memory"
	"finquery-engine/internal/finance"
)

const onboardingMessage = "I don't have any financial data for you yet. Add your accounts and transactions first, then ask me again."

// Generator produces answers from snapshots.
type Generator struct {
	logger logger.Logger
	now    func() time.Time
}

func New(log logger.Logger) *Generator {
	return NewWithClock(log, time.Now)
}

// NewWithClock is New with an injectable clock, for tests.
func NewWithClock(log logger.Logger, now func() time.Time) *Generator {
	return &Generator{logger: log, now: now}
}

type answerContext struct {
	question  string
	snap      *finance.Snapshot
	history   []memory.Message
	dateRange *interpret.Range
	now       time.Time
}

type handlerFunc func(*answerContext) string

// Generate answers the question against the snapshot. History is read-only
// context used for follow-up resolution and default phrasing.
func (g *Generator) Generate(question string, snap *finance.Snapshot, history []memory.Message) (string, error) {
	now := g.now()
	ctx := &answerContext{
		question:  question,
		snap:      snap,
		history:   history,
		dateRange: interpret.ParseDateRange(question, now),
		now:       now,
	}

	name, handler := dispatch(question)

	prefix := ""
	if handler == nil && isFollowUp(question, history) {
		if prev := lastUserQuestion(history); prev != "" {
			name, handler = dispatch(prev + " " + question)
			if ctx.dateRange == nil {
				ctx.dateRange = interpret.ParseDateRange(prev, now)
			}
			prefix = "Following up: "
		}
	}

	if handler == nil {
		return g.defaultAnswer(ctx), nil
	}

	g.logger.Debug("dispatching intent", map[string]interface{}{"intent": name})
	return prefix + handler(ctx), nil
}

// dispatch finds the first declared intent the question matches.
func dispatch(question string) (string, handlerFunc) {
	expanded := interpret.ExpandQuestion(question)
	for _, in := range interpret.Intents() {
		if in.Matches(question, expanded) {
			if h, ok := handlers[in.Name]; ok {
				return in.Name, h
			}
		}
	}
	return "", nil
}

var followUpPrefixes = []string{"what about", "how about", "and "}

// isFollowUp reports whether the question references prior conversation
// instead of standing alone.
func isFollowUp(question string, history []memory.Message) bool {
	if len(history) == 0 {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(question))
	for _, p := range followUpPrefixes {
		if strings.HasPrefix(q, p) {
			return true
		}
	}
	words := interpret.Tokenize(q)
	for _, w := range words {
		if w == "more" {
			return true
		}
	}
	return len(words) <= 3
}

func lastUserQuestion(history []memory.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == memory.RoleUser {
			return history[i].Content
		}
	}
	return ""
}

var handlers = map[string]handlerFunc{
	interpret.IntentBalance:           answerBalance,
	interpret.IntentIncome:            answerIncome,
	interpret.IntentExpenses:          answerExpenses,
	interpret.IntentTopCategories:     answerTopCategories,
	interpret.IntentCategoryBreakdown: answerCategoryBreakdown,
	interpret.IntentNetSavings:        answerNetSavings,
	interpret.IntentAccounts:          answerAccounts,
	interpret.IntentTransactions:      answerTransactions,
	interpret.IntentLendBorrow:        answerLendBorrow,
	interpret.IntentPurchases:         answerPurchases,
	interpret.IntentSummary:           answerSummary,
	interpret.IntentBudget:            answerBudget,
	interpret.IntentGoals:             answerGoals,
	interpret.IntentInvestments:       answerInvestments,
	interpret.IntentTrend:             answerTrend,
	interpret.IntentForecast:          answerForecast,
	interpret.IntentBurnRate:          answerBurnRate,
	interpret.IntentAnomalies:         answerAnomalies,
	interpret.IntentVelocity:          answerVelocity,
	interpret.IntentCurrency:          answerCurrency,
	interpret.IntentRecommendations:   answerRecommendations,
	interpret.IntentHelp:              answerHelp,
}

func money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}

func answerBalance(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}
	if len(c.snap.Accounts) == 0 {
		return "You have no accounts recorded, so your balance is " + money(0) + "."
	}

	var b strings.Builder
	b.WriteString("Here are your accounts:\n")
	for _, acct := range c.snap.Accounts {
		fmt.Fprintf(&b, "- %s: %s\n", acct.Name, money(acct.Balance))
	}
	fmt.Fprintf(&b, "Your total balance is %s.", money(c.snap.Summary.TotalBalance))
	return b.String()
}

func answerIncome(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}

	if c.dateRange != nil {
		var total float64
		for _, tx := range c.snap.TransactionsBetween(c.dateRange.Start, c.dateRange.End) {
			if tx.Amount > 0 {
				total += tx.Amount
			}
		}
		if total == 0 {
			return fmt.Sprintf("I don't see any income for %s.", c.dateRange.Label)
		}
		return fmt.Sprintf("You earned %s %s.", money(total), c.dateRange.Label)
	}

	if c.snap.Summary.TotalIncome == 0 {
		return "You have no income recorded yet."
	}
	return fmt.Sprintf("Your total recorded income is %s.", money(c.snap.Summary.TotalIncome))
}

func answerExpenses(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}

	// A named category narrows the answer to that category's spend.
	if category := mentionedCategory(c); category != "" {
		return answerCategoryLookup(c, category)
	}

	if c.dateRange != nil {
		total := expensesInRange(c)
		if total == 0 {
			return fmt.Sprintf("You have no recorded spending for %s.", c.dateRange.Label)
		}
		return fmt.Sprintf("You spent %s %s.", money(total), c.dateRange.Label)
	}

	if c.snap.Summary.TotalExpenses == 0 {
		return "You have no recorded spending yet."
	}
	return fmt.Sprintf("Your total recorded spending is %s, with %s of that this month.",
		money(c.snap.Summary.TotalExpenses), money(c.snap.Summary.ThisMonthExpenses))
}

// answerCategoryLookup reports spending for one named category.
func answerCategoryLookup(c *answerContext, category string) string {
	if c.dateRange != nil {
		var total float64
		for _, tx := range c.snap.TransactionsBetween(c.dateRange.Start, c.dateRange.End) {
			if tx.Amount < 0 && strings.EqualFold(tx.Category, category) {
				total += -tx.Amount
			}
		}
		if total == 0 {
			return fmt.Sprintf("No %s spending %s.", category, c.dateRange.Label)
		}
		return fmt.Sprintf("You spent %s on %s %s.", money(total), category, c.dateRange.Label)
	}

	total := c.snap.Summary.CategoryTotals[category]
	if total == 0 {
		return fmt.Sprintf("No recorded spending on %s yet.", category)
	}
	return fmt.Sprintf("You've spent %s on %s in total.", money(total), category)
}

func expensesInRange(c *answerContext) float64 {
	var total float64
	for _, tx := range c.snap.TransactionsBetween(c.dateRange.Start, c.dateRange.End) {
		if tx.Amount < 0 {
			total += -tx.Amount
		}
	}
	return total
}

// mentionedCategory returns the snapshot category named in the question, if any.
func mentionedCategory(c *answerContext) string {
	words := interpret.Tokenize(c.question)
	for category := range c.snap.Summary.CategoryTotals {
		lower := strings.ToLower(category)
		for _, w := range words {
			if w == lower {
				return category
			}
		}
	}
	return ""
}

type categoryTotal struct {
	name  string
	total float64
}

// sortedCategories returns category spend totals in descending order,
// honoring the question's date range when present.
func sortedCategories(c *answerContext) ([]categoryTotal, float64) {
	totals := c.snap.Summary.CategoryTotals
	if c.dateRange != nil {
		totals = make(map[string]float64)
		for _, tx := range c.snap.TransactionsBetween(c.dateRange.Start, c.dateRange.End) {
			if tx.Amount < 0 && tx.Category != "" {
				totals[tx.Category] += -tx.Amount
			}
		}
	}

	out := make([]categoryTotal, 0, len(totals))
	var grand float64
	for name, total := range totals {
		out = append(out, categoryTotal{name: name, total: total})
		grand += total
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].total != out[j].total {
			return out[i].total > out[j].total
		}
		return out[i].name < out[j].name
	})
	return out, grand
}

func answerTopCategories(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}
	categories, grand := sortedCategories(c)
	if len(categories) == 0 || grand == 0 {
		return "You have no categorized spending yet."
	}

	limit := 3
	if len(categories) < limit {
		limit = len(categories)
	}
	var b strings.Builder
	b.WriteString("Your top spending categories:\n")
	for _, cat := range categories[:limit] {
		fmt.Fprintf(&b, "- %s: %s (%.1f%%)\n", cat.name, money(cat.total), cat.total/grand*100)
	}
	return strings.TrimRight(b.String(), "\n")
}

func answerCategoryBreakdown(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}
	categories, grand := sortedCategories(c)
	if len(categories) == 0 || grand == 0 {
		return "You have no categorized spending yet."
	}

	var b strings.Builder
	b.WriteString("Spending by category:\n")
	for _, cat := range categories {
		fmt.Fprintf(&b, "- %s: %s (%.1f%%)\n", cat.name, money(cat.total), cat.total/grand*100)
	}
	fmt.Fprintf(&b, "Total: %s", money(grand))
	return b.String()
}

func answerNetSavings(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}
	s := c.snap.Summary
	if s.TotalIncome == 0 && s.TotalExpenses == 0 {
		return "There's no income or spending recorded yet, so nothing to net out."
	}
	if s.NetSavings >= 0 {
		return fmt.Sprintf("You've kept %s after expenses (%s earned, %s spent).",
			money(s.NetSavings), money(s.TotalIncome), money(s.TotalExpenses))
	}
	return fmt.Sprintf("You've spent %s more than you earned (%s earned, %s spent).",
		money(-s.NetSavings), money(s.TotalIncome), money(s.TotalExpenses))
}

func answerAccounts(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}
	if len(c.snap.Accounts) == 0 {
		return "You have no accounts recorded."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You have %d account(s):\n", len(c.snap.Accounts))
	for _, acct := range c.snap.Accounts {
		fmt.Fprintf(&b, "- %s (%s): %s\n", acct.Name, acct.Type, money(acct.Balance))
	}
	fmt.Fprintf(&b, "Combined balance: %s", money(c.snap.Summary.TotalBalance))
	return b.String()
}

func answerTransactions(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}

	txs := c.snap.Transactions
	scope := "in total"
	if c.dateRange != nil {
		txs = c.snap.TransactionsBetween(c.dateRange.Start, c.dateRange.End)
		scope = c.dateRange.Label
	}
	if len(txs) == 0 {
		return fmt.Sprintf("No transactions %s.", scope)
	}

	sorted := make([]finance.Transaction, len(txs))
	copy(sorted, txs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })

	limit := 5
	if len(sorted) < limit {
		limit = len(sorted)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You have %d transaction(s) %s. Most recent:\n", len(txs), scope)
	for _, tx := range sorted[:limit] {
		fmt.Fprintf(&b, "- %s %s: %s\n", tx.Date.Format("Jan 2"), tx.Description, money(tx.Amount))
	}
	return strings.TrimRight(b.String(), "\n")
}

func answerLendBorrow(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}

	var lent, borrowed float64
	for _, lb := range c.snap.LendBorrow {
		if lb.Settled {
			continue
		}
		switch lb.Direction {
		case "lend":
			lent += lb.Amount
		case "borrow":
			borrowed += lb.Amount
		}
	}

	if lent == 0 && borrowed == 0 {
		return "You have no outstanding lends or borrows."
	}
	parts := make([]string, 0, 2)
	if lent > 0 {
		parts = append(parts, fmt.Sprintf("you're owed %s", money(lent)))
	}
	if borrowed > 0 {
		parts = append(parts, fmt.Sprintf("you owe %s", money(borrowed)))
	}
	answer := strings.Join(parts, " and ")
	return strings.ToUpper(answer[:1]) + answer[1:] + "."
}

func answerPurchases(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}

	purchases := c.snap.Purchases
	scope := "recorded"
	if c.dateRange != nil {
		scope = c.dateRange.Label
		filtered := purchases[:0:0]
		for _, p := range purchases {
			if c.dateRange.Contains(p.Date) {
				filtered = append(filtered, p)
			}
		}
		purchases = filtered
	}
	if len(purchases) == 0 {
		return fmt.Sprintf("No purchases %s.", scope)
	}

	var total float64
	for _, p := range purchases {
		total += p.Amount
	}
	return fmt.Sprintf("You made %d purchase(s) %s, totaling %s.", len(purchases), scope, money(total))
}

func answerSummary(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}
	s := c.snap.Summary
	if s.TotalIncome == 0 && s.TotalExpenses == 0 {
		return "There's not enough data for a financial summary yet. Add some transactions and ask again."
	}

	var b strings.Builder
	b.WriteString("Here's your financial summary:\n")
	fmt.Fprintf(&b, "- Total balance: %s\n", money(s.TotalBalance))
	fmt.Fprintf(&b, "- Income: %s\n", money(s.TotalIncome))
	fmt.Fprintf(&b, "- Expenses: %s\n", money(s.TotalExpenses))
	fmt.Fprintf(&b, "- Net: %s", money(s.NetSavings))
	return b.String()
}

func answerBudget(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}
	if len(c.snap.Budgets) == 0 {
		return "You haven't set any category budgets."
	}

	var b strings.Builder
	b.WriteString("Budget status:\n")
	for _, budget := range c.snap.Budgets {
		status := "on track"
		if budget.Spent > budget.Budget {
			status = fmt.Sprintf("over by %s", money(budget.Spent-budget.Budget))
		}
		fmt.Fprintf(&b, "- %s: %s of %s (%s)\n", budget.Category, money(budget.Spent), money(budget.Budget), status)
	}
	return strings.TrimRight(b.String(), "\n")
}

func answerGoals(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}
	if len(c.snap.Goals) == 0 {
		return "You have no savings goals set up."
	}

	var b strings.Builder
	b.WriteString("Savings goals:\n")
	for _, goal := range c.snap.Goals {
		fmt.Fprintf(&b, "- %s: %s of %s (%.1f%%)", goal.Name, money(goal.Current), money(goal.Target), goal.Progress())
		if days := goal.DaysRemaining(c.now); days > 0 {
			fmt.Fprintf(&b, ", %d days left", days)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func answerInvestments(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}
	if len(c.snap.Holdings) == 0 {
		return "You have no investment holdings recorded."
	}

	inv := c.snap.Investments
	direction := "up"
	if inv.GainLoss < 0 {
		direction = "down"
	}
	return fmt.Sprintf("Your portfolio is worth %s, %s %s (%.1f%%) on a cost basis of %s.",
		money(inv.PortfolioValue), direction, money(abs(inv.GainLoss)), inv.ReturnPercent, money(inv.CostBasis))
}

func answerTrend(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}
	s := c.snap.Summary
	if s.LastMonthExpenses == 0 {
		if s.ThisMonthExpenses == 0 {
			return "There's no spending in the last two months to compare."
		}
		return fmt.Sprintf("You've spent %s this month; there's no spending recorded for last month to compare against.",
			money(s.ThisMonthExpenses))
	}

	diff := s.ThisMonthExpenses - s.LastMonthExpenses
	pct := diff / s.LastMonthExpenses * 100
	if diff >= 0 {
		return fmt.Sprintf("You've spent %s this month, %s (%.1f%%) more than last month's %s.",
			money(s.ThisMonthExpenses), money(diff), pct, money(s.LastMonthExpenses))
	}
	return fmt.Sprintf("You've spent %s this month, %s (%.1f%%) less than last month's %s.",
		money(s.ThisMonthExpenses), money(-diff), -pct, money(s.LastMonthExpenses))
}

func answerForecast(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}
	an := c.snap.Analytics
	if an.ProjectedMonthEnd == 0 {
		return "No spending this month yet, so there's nothing to project."
	}
	return fmt.Sprintf("At your current pace you're on track to spend %s by the end of the month (%s per day so far).",
		money(an.ProjectedMonthEnd), money(an.DailyAverage))
}

func answerBurnRate(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}
	an := c.snap.Analytics
	if !an.BurnRateApplies {
		return "Your income currently covers your spending, so your balance isn't running down."
	}
	return fmt.Sprintf("At your recent pace, your balance of %s would last about %.1f months.",
		money(c.snap.Summary.TotalBalance), an.MonthsUntilZero)
}

func answerAnomalies(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}
	anomalies := c.snap.Analytics.Anomalies
	if len(anomalies) == 0 {
		return "Nothing unusual in your spending this month."
	}

	var b strings.Builder
	b.WriteString("Unusual spending this month:\n")
	for _, a := range anomalies {
		fmt.Fprintf(&b, "- %s: %s, %.1fx your usual %s\n", a.Category, money(a.CurrentSpend), a.Ratio, money(a.AverageSpend))
	}
	return strings.TrimRight(b.String(), "\n")
}

func answerVelocity(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}
	an := c.snap.Analytics
	if an.DailyAverage == 0 {
		return "No spending this month yet, so your daily average is " + money(0) + "."
	}
	return fmt.Sprintf("You're spending about %s per day this month.", money(an.DailyAverage))
}

func answerCurrency(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}
	if len(c.snap.ByCurrency) == 0 {
		return "You have no accounts recorded, so there's no currency breakdown."
	}

	currencies := make([]string, 0, len(c.snap.ByCurrency))
	for currency := range c.snap.ByCurrency {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	var b strings.Builder
	b.WriteString("Balances by currency:\n")
	for _, currency := range currencies {
		fmt.Fprintf(&b, "- %s: %.2f\n", currency, c.snap.ByCurrency[currency])
	}
	return strings.TrimRight(b.String(), "\n")
}

func answerRecommendations(c *answerContext) string {
	if !c.snap.HasData {
		return onboardingMessage
	}

	var tips []string
	for _, budget := range c.snap.Budgets {
		if budget.Spent > budget.Budget {
			tips = append(tips, fmt.Sprintf("You're %s over your %s budget. Consider trimming there first.",
				money(budget.Spent-budget.Budget), budget.Category))
		}
	}
	if c.snap.Summary.NetSavings < 0 {
		tips = append(tips, "You're spending more than you earn. Reviewing your largest categories is the quickest win.")
	}
	for _, a := range c.snap.Analytics.Anomalies {
		tips = append(tips, fmt.Sprintf("%s spending is %.1fx your usual this month. Worth a look.", a.Category, a.Ratio))
	}
	if len(tips) == 0 {
		tips = append(tips, "Your spending looks steady. Setting a savings goal is a good next step.")
	}
	return strings.Join(tips, "\n")
}

func answerHelp(c *answerContext) string {
	return "I can answer questions about your balance, income, expenses, spending categories, budgets, savings goals, investments, lends and borrows, and trends. Try \"What are my top spending categories?\" or \"How much did I spend last week?\""
}

// defaultAnswer handles questions no intent matched.
func (g *Generator) defaultAnswer(c *answerContext) string {
	if interpret.HasFinancialVocabulary(c.question) {
		return "I'm not sure which numbers you're after. You could ask about your balance, your spending by category, or your income for a period like \"last month\"."
	}
	if len(c.history) > 0 {
		return "I didn't follow that one. Ask me about your finances, like your balance or recent spending."
	}
	return "I'm a personal finance assistant. Ask me things like \"What's my balance?\", \"How much did I spend last week?\", or \"Am I over budget?\""
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
