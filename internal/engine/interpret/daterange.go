package interpret

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Range is a resolved natural-language time expression. Start and End are
// inclusive; Label is the human-readable phrasing used in answers.
type Range struct {
	Start time.Time
	End   time.Time
	Label string
}

// Contains reports whether t falls within the range.
func (r *Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

var (
	reLastNDays = regexp.MustCompile(`(?:last|past)\s+(\d{1,3})\s+days?`)
	reWeeksAgo  = regexp.MustCompile(`(\d{1,2})\s+weeks?\s+ago`)
	reMonthsAgo = regexp.MustCompile(`(\d{1,2})\s+months?\s+ago`)
	reBareMonth = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december)\b`)
)

var monthsByName = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
}

// ParseDateRange scans the question for the first recognizable temporal
// expression and returns the resolved range, or nil when none is present.
// Relative expressions are computed from now truncated to the day boundary,
// so results are stable within a calendar day.
func ParseDateRange(question string, now time.Time) *Range {
	q := strings.ToLower(question)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := day.AddDate(0, 0, 1).Add(-time.Nanosecond)

	if strings.Contains(q, "today") {
		return &Range{Start: day, End: endOfDay, Label: "today"}
	}

	if strings.Contains(q, "yesterday") {
		start := day.AddDate(0, 0, -1)
		return &Range{Start: start, End: day.Add(-time.Nanosecond), Label: "yesterday"}
	}

	if m := reLastNDays.FindStringSubmatch(q); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 && n <= 365 {
			return &Range{
				Start: day.AddDate(0, 0, -n),
				End:   endOfDay,
				Label: fmt.Sprintf("the last %d days", n),
			}
		}
	}

	if strings.Contains(q, "last week") {
		weekStart := startOfWeek(day)
		return &Range{
			Start: weekStart.AddDate(0, 0, -7),
			End:   weekStart.Add(-time.Nanosecond),
			Label: "last week",
		}
	}

	if strings.Contains(q, "this week") {
		return &Range{Start: startOfWeek(day), End: endOfDay, Label: "this week"}
	}

	if strings.Contains(q, "last month") {
		monthStart := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return &Range{
			Start: monthStart.AddDate(0, -1, 0),
			End:   monthStart.Add(-time.Nanosecond),
			Label: "last month",
		}
	}

	if strings.Contains(q, "this month") {
		monthStart := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return &Range{Start: monthStart, End: endOfDay, Label: "this month"}
	}

	if m := reWeeksAgo.FindStringSubmatch(q); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 && n <= 52 {
			start := startOfWeek(day).AddDate(0, 0, -7*n)
			return &Range{
				Start: start,
				End:   start.AddDate(0, 0, 7).Add(-time.Nanosecond),
				Label: fmt.Sprintf("%d weeks ago", n),
			}
		}
	}

	if m := reMonthsAgo.FindStringSubmatch(q); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 && n <= 12 {
			start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location()).AddDate(0, -n, 0)
			return &Range{
				Start: start,
				End:   start.AddDate(0, 1, 0).Add(-time.Nanosecond),
				Label: fmt.Sprintf("%d months ago", n),
			}
		}
	}

	if strings.Contains(q, "last quarter") {
		start := startOfQuarter(day).AddDate(0, -3, 0)
		return &Range{
			Start: start,
			End:   start.AddDate(0, 3, 0).Add(-time.Nanosecond),
			Label: "last quarter",
		}
	}

	if strings.Contains(q, "this quarter") {
		return &Range{Start: startOfQuarter(day), End: endOfDay, Label: "this quarter"}
	}

	if strings.Contains(q, "last year") {
		start := time.Date(day.Year()-1, time.January, 1, 0, 0, 0, 0, day.Location())
		return &Range{
			Start: start,
			End:   start.AddDate(1, 0, 0).Add(-time.Nanosecond),
			Label: "last year",
		}
	}

	if strings.Contains(q, "this year") {
		start := time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, day.Location())
		return &Range{Start: start, End: endOfDay, Label: "this year"}
	}

	if m := reBareMonth.FindStringSubmatch(q); m != nil {
		month := monthsByName[m[1]]
		year := day.Year()
		// A month still ahead of us this year refers to last year's.
		if month > day.Month() {
			year--
		}
		start := time.Date(year, month, 1, 0, 0, 0, 0, day.Location())
		label := strings.ToUpper(m[1][:1]) + m[1][1:]
		if year != day.Year() {
			label = fmt.Sprintf("%s %d", label, year)
		}
		return &Range{
			Start: start,
			End:   start.AddDate(0, 1, 0).Add(-time.Nanosecond),
			Label: label,
		}
	}

	return nil
}

// startOfWeek returns the Monday of day's week.
func startOfWeek(day time.Time) time.Time {
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the week that started the prior Monday
	}
	return day.AddDate(0, 0, -(weekday - 1))
}

func startOfQuarter(day time.Time) time.Time {
	quarterMonth := time.Month((int(day.Month())-1)/3*3 + 1)
	return time.Date(day.Year(), quarterMonth, 1, 0, 0, 0, 0, day.Location())
}
