package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/budgetwise/internal/web/report"
	"github.com/aussiebroadwan/budgetwise/pkg/budgetsdk"
	"github.com/aussiebroadwan/budgetwise/pkg/slogx"
	"golang.org/x/sync/errgroup"
)

const loadFailed = "Could not load your data. Please try again."

// apiFailed logs a failed backend call. An unauthorized call has already
// queued the redirect to the login page, so it is not an error here.
func apiFailed(ctx context.Context, what string, err error) {
	log := slogx.FromContext(ctx)
	if errors.Is(err, budgetsdk.ErrUnauthorized) {
		log.Info("backend rejected token", "call", what)
		return
	}
	log.Error("backend call failed", "call", what, "error", err)
}

func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	p := page{Title: "Dashboard", Nav: "dashboard"}

	var (
		expenses []budgetsdk.Expense
		budget   budgetsdk.Budget
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		expenses, err = r.api.ListExpenses(gctx)
		return err
	})
	g.Go(func() (err error) {
		budget, err = r.api.GetBudget(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		apiFailed(ctx, "dashboard", err)
		p.Error = loadFailed
	} else {
		overview := report.Summarize(expenses, budget.Amount)
		p.Data = &overview
	}
	r.render(w, req, http.StatusOK, "dashboard", p)
}

type reportsView struct {
	Totals  []report.CategoryTotal
	Count   int
	Highest *report.CategoryTotal
}

func (r *Router) handleReports(w http.ResponseWriter, req *http.Request) {
	p := page{Title: "Reports", Nav: "reports"}

	view := reportsView{}
	expenses, err := r.api.ListExpenses(req.Context())
	if err != nil {
		apiFailed(req.Context(), "reports", err)
		p.Error = loadFailed
	} else {
		b := report.ByCategory(expenses)
		view.Totals, view.Count = b.Totals, b.Count
		if top, ok := b.Highest(); ok {
			view.Highest = &top
		}
	}
	p.Data = view
	r.render(w, req, http.StatusOK, "reports", p)
}

func (r *Router) handlePredictions(w http.ResponseWriter, req *http.Request) {
	p := page{Title: "Predictions", Nav: "predictions"}

	prediction, err := r.api.PredictNextMonth(req.Context())
	if err != nil {
		apiFailed(req.Context(), "predictions", err)
		p.Error = loadFailed
	} else {
		p.Data = &prediction
	}
	r.render(w, req, http.StatusOK, "predictions", p)
}

type insightsView struct {
	Insights    []string
	Anomalies   []string
	Suggestions []string
}

func (r *Router) handleInsights(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	p := page{Title: "Insights", Nav: "insights"}

	var view insightsView
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		in, err := r.api.GetInsights(gctx)
		if err != nil {
			return err
		}
		view.Insights, view.Anomalies = in.Insights, in.Anomalies
		return nil
	})
	g.Go(func() (err error) {
		view.Suggestions, err = r.api.GetSuggestions(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		apiFailed(ctx, "insights", err)
		p.Error = loadFailed
	} else {
		p.Data = &view
	}
	r.render(w, req, http.StatusOK, "insights", p)
}
