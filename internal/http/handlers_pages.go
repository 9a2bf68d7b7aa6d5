package http

import (
	"net/http"
	"slices"

	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/report"
)

var flashMessages = map[string]string{
	"added":   "Expense added successfully!",
	"deleted": "Record deleted",
	"updated": "Record updated",
}

type monthLink struct {
	Year  int
	Month int
}

func linkFor(m core.Month) monthLink {
	return monthLink{Year: m.Year, Month: int(m.Month)}
}

type dashboardData struct {
	Summary    report.Summary
	Categories []core.CategoryAmount
	Records    []core.Expense
	Current    monthLink
	Prev, Next monthLink
}

type addFormData struct {
	Flash      string
	Error      string
	Categories []string
	Input      expenseInput
}

type editFormData struct {
	ID         int64
	Error      string
	Categories []string
	Input      expenseInput
}

type viewData struct {
	Flash   string
	Records []core.Expense
	Total   core.Money
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", "template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			"template", name,
			applog.FieldError, err)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	m, err := s.monthOrCurrent(r)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	sum, err := s.svc.MonthlySummary(r.Context(), m)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Summary failed", applog.FieldError, err)
		http.Error(w, "failed to load summary", statusFor(err))
		return
	}
	records, err := s.svc.ListMonth(r.Context(), m)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Listing failed", applog.FieldError, err)
		http.Error(w, "failed to load expenses", statusFor(err))
		return
	}

	s.render(w, r, http.StatusOK, "dashboard.html", dashboardData{
		Summary:    sum,
		Categories: sum.Categories(),
		Records:    records,
		Current:    linkFor(m),
		Prev:       linkFor(m.Prev()),
		Next:       linkFor(m.Next()),
	})
}

func (s *Server) handleAddForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "add_expense.html", addFormData{
		Flash:      flashMessages[r.URL.Query().Get("flash")],
		Categories: s.categories,
		Input:      expenseInput{Date: s.svc.Today().String()},
	})
}

// handleAddSubmit redirects back to the empty form on success and
// re-renders the submitted values with the error otherwise.
func (s *Server) handleAddSubmit(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	err := parser.Parse()
	in := parser.expense()
	if err == nil {
		_, err = s.svc.AddExpense(r.Context(), in.Date, in.Amount, in.Category, in.Note)
	}
	if err != nil {
		status := statusFor(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Add expense failed", applog.FieldError, err)
			msg = "Could not save the expense, please retry."
		}
		s.render(w, r, status, "add_expense.html", addFormData{
			Error:      msg,
			Categories: s.categories,
			Input:      in,
		})
		return
	}
	http.Redirect(w, r, "/add?flash=added", http.StatusSeeOther)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	records, err := s.svc.ListAll(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Listing failed", applog.FieldError, err)
		http.Error(w, "failed to load expenses", http.StatusInternalServerError)
		return
	}
	s.render(w, r, http.StatusOK, "view_data.html", viewData{
		Flash:   flashMessages[r.URL.Query().Get("flash")],
		Records: records,
		Total:   core.Total(records),
	})
}

func (s *Server) handleDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := expenseID(r)
	if err == nil {
		err = s.svc.DeleteExpense(r.Context(), id)
	}
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Delete failed", applog.FieldError, err)
		http.Error(w, "failed to delete expense", statusFor(err))
		return
	}
	http.Redirect(w, r, "/view?flash=deleted", http.StatusSeeOther)
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := expenseID(r)
	var e core.Expense
	if err == nil {
		e, err = s.svc.GetExpense(r.Context(), id)
	}
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	s.render(w, r, http.StatusOK, "edit_expense.html", editFormData{
		ID:         e.ID,
		Categories: withCategory(s.categories, e.Category),
		Input: expenseInput{
			Date:     e.Date.String(),
			Amount:   e.Amount.StringFixed(),
			Category: e.Category,
			Note:     e.Note,
		},
	})
}

// handleEditSubmit replaces every field of the record, like PUT
// /api/expenses/{id}, and returns to the list.
func (s *Server) handleEditSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := expenseID(r)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	parser := NewRequestBodyParser(r)
	err = parser.Parse()
	in := parser.expense()
	if err == nil {
		_, err = s.svc.UpdateExpense(r.Context(), id, in.Date, in.Amount, in.Category, in.Note)
	}
	if err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			http.Error(w, err.Error(), status)
			return
		}
		msg := err.Error()
		if status == http.StatusInternalServerError {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Update expense failed", applog.FieldError, err)
			msg = "Could not save the expense, please retry."
		}
		s.render(w, r, status, "edit_expense.html", editFormData{
			ID:         id,
			Error:      msg,
			Categories: withCategory(s.categories, in.Category),
			Input:      in,
		})
		return
	}
	http.Redirect(w, r, "/view?flash=updated", http.StatusSeeOther)
}

// withCategory keeps a record's category selectable when it is not one
// of the suggestions.
func withCategory(categories []string, c string) []string {
	if c == "" || slices.Contains(categories, c) {
		return categories
	}
	return append(slices.Clone(categories), c)
}
