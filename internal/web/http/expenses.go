package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/budgetwise/internal/web/report"
	"github.com/aussiebroadwan/budgetwise/pkg/budgetsdk"
	"github.com/aussiebroadwan/budgetwise/pkg/slogx"
)

// Outcomes of expense forms, carried across the redirect as ?ok= or ?err=.
var (
	expenseNotices = map[string]string{
		"added":   "Expense added successfully!",
		"deleted": "Expense deleted.",
	}
	expenseErrors = map[string]string{
		"invalid": "Please fill in the title, a positive amount, a category and a date.",
		"add":     "Failed to add expense.",
		"delete":  "Failed to delete expense.",
	}
)

type expensesView struct {
	Categories []string
	Filter     string
	Today      string
	Expenses   []budgetsdk.Expense
}

func (r *Router) handleExpenses(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	p := page{
		Title: "Expenses",
		Nav:   "expenses",
		Flash: expenseNotices[q.Get("ok")],
		Error: expenseErrors[q.Get("err")],
	}

	view := expensesView{
		Categories: budgetsdk.Categories,
		Filter:     q.Get("category"),
		Today:      r.now().Format(time.DateOnly),
	}
	if view.Filter == "" {
		view.Filter = report.AllCategories
	}

	expenses, err := r.api.ListExpenses(req.Context())
	if err != nil {
		apiFailed(req.Context(), "expenses", err)
		if p.Error == "" {
			p.Error = loadFailed
		}
	} else {
		view.Expenses = report.Filter(expenses, view.Filter)
	}
	p.Data = view
	r.render(w, req, http.StatusOK, "expenses", p)
}

func (r *Router) handleCreateExpense(w http.ResponseWriter, req *http.Request) {
	in, ok := parseExpense(req)
	if !ok || in.Validate() != nil {
		r.seeOther(w, req, expensesURL("err", "invalid"))
		return
	}

	exp, err := r.api.CreateExpense(req.Context(), in)
	if err != nil {
		apiFailed(req.Context(), "create expense", err)
		r.seeOther(w, req, expensesURL("err", "add"))
		return
	}

	slogx.FromContext(req.Context()).Info("expense added", "expense_id", exp.ID, "category", exp.Category)
	r.seeOther(w, req, expensesURL("ok", "added"))
}

func (r *Router) handleDeleteExpense(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("id")

	if err := r.api.DeleteExpense(req.Context(), id); err != nil {
		apiFailed(req.Context(), "delete expense", err)
		r.seeOther(w, req, expensesURL("err", "delete"))
		return
	}

	slogx.FromContext(req.Context()).Info("expense deleted", "expense_id", id)
	r.seeOther(w, req, expensesURL("ok", "deleted"))
}

func parseExpense(req *http.Request) (budgetsdk.NewExpense, bool) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(req.PostFormValue("amount")), 64)
	if err != nil {
		return budgetsdk.NewExpense{}, false
	}
	date, err := time.Parse(time.DateOnly, req.PostFormValue("date"))
	if err != nil {
		return budgetsdk.NewExpense{}, false
	}
	return budgetsdk.NewExpense{
		Title:    strings.TrimSpace(req.PostFormValue("title")),
		Amount:   amount,
		Category: req.PostFormValue("category"),
		Date:     budgetsdk.Timestamp{Time: date},
	}, true
}

func expensesURL(key, code string) string {
	return "/expenses?" + url.Values{key: {code}}.Encode()
}
