// Package report derives the dashboard and report figures from a user's
// expenses and budget.
package report

import (
	"cmp"
	"slices"

	"github.com/aussiebroadwan/budgetwise/pkg/budgetsdk"
)

// AllCategories is the filter value that keeps every expense.
const AllCategories = "All"

// Level bands budget usage for the progress bar.
type Level string

const (
	LevelOK      Level = "ok"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

// ProgressLevel maps percent of budget used to a band: over 90 is danger,
// over 75 a warning.
func ProgressLevel(percent float64) Level {
	switch {
	case percent > 90:
		return LevelDanger
	case percent > 75:
		return LevelWarning
	default:
		return LevelOK
	}
}

type Overview struct {
	Budget     float64
	Spent      float64
	Remaining  float64
	Categories int     // distinct categories with spending
	Progress   float64 // percent of budget used, 0 without a budget
	Level      Level
}

func Summarize(expenses []budgetsdk.Expense, budget float64) Overview {
	o := Overview{Budget: budget}

	seen := make(map[string]struct{})
	for _, e := range expenses {
		o.Spent += e.Amount
		seen[e.Category] = struct{}{}
	}
	o.Categories = len(seen)
	o.Remaining = budget - o.Spent

	if budget > 0 {
		o.Progress = o.Spent / budget * 100
	}
	o.Level = ProgressLevel(o.Progress)
	return o
}

// BarWidth is Progress capped at 100 for rendering.
func (o Overview) BarWidth() float64 { return min(o.Progress, 100) }

func (o Overview) OverBudget() bool { return o.Remaining < 0 }

// Overspend is how far spending exceeds the budget, 0 if it does not.
func (o Overview) Overspend() float64 { return max(-o.Remaining, 0) }

type CategoryTotal struct {
	Category string
	Amount   float64
	Share    float64 // percent of all spending
}

type Breakdown struct {
	Totals []CategoryTotal // largest first; ties keep first-seen order
	Count  int
	Total  float64
}

// Highest returns the category with the most spending.
func (b Breakdown) Highest() (CategoryTotal, bool) {
	if len(b.Totals) == 0 {
		return CategoryTotal{}, false
	}
	return b.Totals[0], true
}

func ByCategory(expenses []budgetsdk.Expense) Breakdown {
	b := Breakdown{Count: len(expenses)}

	index := make(map[string]int)
	for _, e := range expenses {
		b.Total += e.Amount
		i, ok := index[e.Category]
		if !ok {
			i = len(b.Totals)
			index[e.Category] = i
			b.Totals = append(b.Totals, CategoryTotal{Category: e.Category})
		}
		b.Totals[i].Amount += e.Amount
	}

	for i := range b.Totals {
		if b.Total > 0 {
			b.Totals[i].Share = b.Totals[i].Amount / b.Total * 100
		}
	}
	slices.SortStableFunc(b.Totals, func(x, y CategoryTotal) int {
		return cmp.Compare(y.Amount, x.Amount)
	})
	return b
}

// Filter keeps the expenses in category. "" and AllCategories keep all.
func Filter(expenses []budgetsdk.Expense, category string) []budgetsdk.Expense {
	if category == "" || category == AllCategories {
		return expenses
	}
	out := make([]budgetsdk.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}
