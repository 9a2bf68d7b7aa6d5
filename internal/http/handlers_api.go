package http

import (
	"net/http"
	"strconv"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	m, err := s.monthOrCurrent(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum, err := s.svc.MonthlySummary(r.Context(), m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sum)
}

// handleChartData returns category → amount for the requested (default
// current) month. It reads the same cached Summary as /api/summary.
func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	m, err := s.monthOrCurrent(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum, err := s.svc.MonthlySummary(r.Context(), m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sum.Breakdown)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	m, filtered, err := monthFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var records []core.Expense
	if filtered {
		records, err = s.svc.ListMonth(r.Context(), m)
	} else {
		records, err = s.svc.ListAll(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, records)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := expenseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.svc.GetExpense(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, e)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	in := parser.expense()

	e, err := s.svc.AddExpense(r.Context(), in.Date, in.Amount, in.Category, in.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		"id", e.ID,
		"date", e.Date.String(),
		"amount", e.Amount.String(),
		"category", e.Category)
	w.Header().Set("Location", "/api/expenses/"+strconv.FormatInt(e.ID, 10))
	writeJSON(w, r, http.StatusCreated, e)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := expenseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	in := parser.expense()

	e, err := s.svc.UpdateExpense(r.Context(), id, in.Date, in.Amount, in.Category, in.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, e)
}

// handleDeleteExpense answers 204 whether or not the record existed.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := expenseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.DeleteExpense(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExportCSV streams the export as an attachment. With ?year=&month=
// only that month is exported.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	m, filtered, err := monthFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="monthly_report.csv"`)

	var n int
	if filtered {
		n, err = s.svc.ExportMonth(r.Context(), w, m)
	} else {
		n, err = s.svc.Export(r.Context(), w)
	}
	if err != nil {
		w.Header().Del("Content-Disposition")
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Export served", "rows", n)
}
