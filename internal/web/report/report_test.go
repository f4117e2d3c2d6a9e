package report_test

import (
	"testing"

	"github.com/aussiebroadwan/budgetwise/internal/web/report"
	"github.com/aussiebroadwan/budgetwise/pkg/budgetsdk"
	"github.com/stretchr/testify/require"
)

func expenses() []budgetsdk.Expense {
	return []budgetsdk.Expense{
		{ID: "1", Title: "Groceries", Amount: 300, Category: "Food"},
		{ID: "2", Title: "Bus", Amount: 100, Category: "Transport"},
		{ID: "3", Title: "Dinner", Amount: 200, Category: "Food"},
		{ID: "4", Title: "Books", Amount: 400, Category: "Education"},
	}
}

func TestProgressLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		percent float64
		want    report.Level
	}{
		{0, report.LevelOK},
		{75, report.LevelOK},
		{75.1, report.LevelWarning},
		{90, report.LevelWarning},
		{90.5, report.LevelDanger},
		{250, report.LevelDanger},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, report.ProgressLevel(tt.percent), "percent %v", tt.percent)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	t.Run("within budget", func(t *testing.T) {
		t.Parallel()
		o := report.Summarize(expenses(), 2000)
		require.InDelta(t, 1000, o.Spent, 0.001)
		require.InDelta(t, 1000, o.Remaining, 0.001)
		require.Equal(t, 3, o.Categories)
		require.InDelta(t, 50, o.Progress, 0.001)
		require.Equal(t, report.LevelOK, o.Level)
		require.False(t, o.OverBudget())
		require.Zero(t, o.Overspend())
	})

	t.Run("over budget", func(t *testing.T) {
		t.Parallel()
		o := report.Summarize(expenses(), 800)
		require.True(t, o.OverBudget())
		require.InDelta(t, 200, o.Overspend(), 0.001)
		require.InDelta(t, 125, o.Progress, 0.001)
		require.InDelta(t, 100, o.BarWidth(), 0.001)
		require.Equal(t, report.LevelDanger, o.Level)
	})

	t.Run("no budget", func(t *testing.T) {
		t.Parallel()
		o := report.Summarize(expenses(), 0)
		require.Zero(t, o.Progress)
		require.Equal(t, report.LevelOK, o.Level)
	})

	t.Run("nothing", func(t *testing.T) {
		t.Parallel()
		o := report.Summarize(nil, 0)
		require.Zero(t, o.Categories)
		require.Zero(t, o.Spent)
	})
}

func TestByCategory(t *testing.T) {
	t.Parallel()

	b := report.ByCategory(expenses())
	require.Equal(t, 4, b.Count)
	require.InDelta(t, 1000, b.Total, 0.001)
	require.Len(t, b.Totals, 3)

	high, ok := b.Highest()
	require.True(t, ok)
	require.Equal(t, "Food", high.Category)
	require.InDelta(t, 500, high.Amount, 0.001)
	require.InDelta(t, 50, high.Share, 0.001)

	require.Equal(t, "Education", b.Totals[1].Category)
	require.Equal(t, "Transport", b.Totals[2].Category)

	t.Run("ties keep first seen", func(t *testing.T) {
		t.Parallel()
		b := report.ByCategory([]budgetsdk.Expense{
			{Amount: 10, Category: "Rent"},
			{Amount: 10, Category: "Loans"},
		})
		high, _ := b.Highest()
		require.Equal(t, "Rent", high.Category)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		_, ok := report.ByCategory(nil).Highest()
		require.False(t, ok)
	})
}

func TestFilter(t *testing.T) {
	t.Parallel()

	require.Len(t, report.Filter(expenses(), ""), 4)
	require.Len(t, report.Filter(expenses(), report.AllCategories), 4)

	food := report.Filter(expenses(), "Food")
	require.Len(t, food, 2)
	for _, e := range food {
		require.Equal(t, "Food", e.Category)
	}
	require.Empty(t, report.Filter(expenses(), "Rent"))
}
