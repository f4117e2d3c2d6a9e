package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/budgetwise/pkg/budgetsdk"
	"github.com/aussiebroadwan/budgetwise/pkg/slogx"
)

// maxUploadSize bounds the CSV accepted by the import form.
const maxUploadSize = 10 << 20

type settingsView struct {
	Profile     *budgetsdk.Profile
	Budget      float64
	BudgetMonth string
}

func (r *Router) handleSettings(w http.ResponseWriter, req *http.Request) {
	r.renderSettings(w, req, http.StatusOK, "", "")
}

// renderSettings shows the settings page with the outcome of a form, if
// any. Profile and budget failures only blank their sections.
func (r *Router) renderSettings(w http.ResponseWriter, req *http.Request, status int, flash, errMsg string) {
	ctx := req.Context()
	var view settingsView

	if profile, err := r.api.GetProfile(ctx); err != nil {
		apiFailed(ctx, "profile", err)
	} else {
		view.Profile = &profile
	}
	if budget, err := r.api.GetBudget(ctx); err != nil {
		apiFailed(ctx, "budget", err)
	} else {
		view.Budget, view.BudgetMonth = budget.Amount, budget.Month
	}

	r.render(w, req, status, "settings", page{
		Title: "Settings",
		Nav:   "settings",
		Flash: flash,
		Error: errMsg,
		Data:  view,
	})
}

func (r *Router) handleSetBudget(w http.ResponseWriter, req *http.Request) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(req.PostFormValue("amount")), 64)
	if err != nil || amount < 0 {
		r.renderSettings(w, req, http.StatusUnprocessableEntity, "", "Please enter a valid budget amount.")
		return
	}

	if _, err := r.api.SetBudget(req.Context(), amount, budgetsdk.MonthOf(r.now())); err != nil {
		apiFailed(req.Context(), "set budget", err)
		r.renderSettings(w, req, http.StatusOK, "", "Failed to update budget.")
		return
	}

	slogx.FromContext(req.Context()).Info("budget updated", "amount", amount)
	r.renderSettings(w, req, http.StatusOK, "Budget updated successfully!", "")
}

func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, maxUploadSize)

	file, header, err := req.FormFile("file")
	if err != nil {
		r.renderSettings(w, req, http.StatusUnprocessableEntity, "", "Please select a CSV file to upload.")
		return
	}
	defer file.Close()

	msg, err := r.api.UploadExpenses(req.Context(), header.Filename, file)
	switch {
	case errors.Is(err, budgetsdk.ErrInvalidInput):
		r.renderSettings(w, req, http.StatusUnprocessableEntity, "", "Please select a CSV file to upload.")
		return
	case err != nil:
		apiFailed(req.Context(), "upload expenses", err)
		errMsg := budgetsdk.Detail(err)
		if errMsg == "" {
			errMsg = "Upload failed."
		}
		r.renderSettings(w, req, http.StatusOK, "", errMsg)
		return
	}

	if msg == "" {
		msg = "Upload complete."
	}
	slogx.FromContext(req.Context()).Info("expenses imported", "file", header.Filename)
	r.renderSettings(w, req, http.StatusOK, msg, "")
}
