package budgetsdk

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

// ListExpenses returns the user's expenses, newest first.
func (c *Client) ListExpenses(ctx context.Context) ([]Expense, error) {
	var out []Expense
	if err := c.get(ctx, "/expenses", &out); err != nil {
		return nil, err
	}
	for i, e := range out {
		if e.ID == "" {
			return nil, malformed(http.MethodGet, "/expenses", "expense without id")
		}
		if e.Category == "" {
			out[i].Category = "Other"
		}
	}
	return out, nil
}

func (c *Client) CreateExpense(ctx context.Context, in NewExpense) (Expense, error) {
	if err := in.Validate(); err != nil {
		return Expense{}, err
	}

	var out Expense
	if err := c.post(ctx, "/expenses", in, &out); err != nil {
		return Expense{}, err
	}
	if out.ID == "" {
		return Expense{}, malformed(http.MethodPost, "/expenses", "expense without id")
	}
	return out, nil
}

func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("expense id is required")
	}
	var out messageResponse
	req := c.http.R().SetPathParam("id", id)
	return c.do(ctx, req, http.MethodDelete, "/expenses/{id}", &out)
}

// UploadExpenses imports a CSV with columns date, category, amount, title.
// It returns the API's summary, e.g. "Successfully imported 12 expenses".
func (c *Client) UploadExpenses(ctx context.Context, filename string, r io.Reader) (string, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return "", invalid("%q is not a CSV file", filename)
	}

	var out messageResponse
	req := c.http.R().SetFileReader("file", filepath.Base(filename), r)
	if err := c.do(ctx, req, http.MethodPost, "/expenses/upload", &out); err != nil {
		return "", err
	}
	return out.Message, nil
}
