package budgetsdk

import (
	"context"
	"time"
)

func (c *Client) GetBudget(ctx context.Context) (Budget, error) {
	var out Budget
	if err := c.get(ctx, "/budget", &out); err != nil {
		return Budget{}, err
	}
	return out, nil
}

// SetBudget sets the budget for month (MonthLayout).
func (c *Client) SetBudget(ctx context.Context, amount float64, month string) (Budget, error) {
	if amount < 0 {
		return Budget{}, invalid("budget must not be negative")
	}
	if _, err := time.Parse(MonthLayout, month); err != nil {
		return Budget{}, invalid("month %q is not YYYY-MM", month)
	}

	var out Budget
	body := map[string]any{"amount": amount, "month": month}
	if err := c.post(ctx, "/budget", body, &out); err != nil {
		return Budget{}, err
	}
	return out, nil
}

// MonthOf formats t as a budget month.
func MonthOf(t time.Time) string { return t.Format(MonthLayout) }
