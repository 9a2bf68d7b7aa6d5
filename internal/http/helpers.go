package http

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

var templateFuncs = template.FuncMap{
	"money": func(m core.Money) string { return m.StringFixed() },
	"percent": func(share float64) string {
		return strconv.FormatFloat(share, 'f', 1, 64) + "%"
	},
}

// monthFromQuery reads ?year=&month=. ok is false when both are absent,
// in which case the caller picks its own default. Only one of them is a
// validation error.
func monthFromQuery(r *http.Request) (m core.Month, ok bool, err error) {
	q := r.URL.Query()
	ys, ms := strings.TrimSpace(q.Get("year")), strings.TrimSpace(q.Get("month"))
	switch {
	case ys == "" && ms == "":
		return core.Month{}, false, nil
	case ys == "":
		return core.Month{}, false, &core.ValidationError{Field: "year", Err: errors.New("year is required with month")}
	case ms == "":
		return core.Month{}, false, &core.ValidationError{Field: "month", Err: errors.New("month is required with year")}
	}
	year, err := strconv.Atoi(ys)
	if err != nil {
		return core.Month{}, false, &core.ValidationError{Field: "year", Err: errors.New("invalid year")}
	}
	month, err := strconv.Atoi(ms)
	if err != nil {
		return core.Month{}, false, &core.ValidationError{Field: "month", Err: core.ErrInvalidMonth}
	}
	m, err = core.NewMonth(year, month)
	if err != nil {
		return core.Month{}, false, err
	}
	return m, true, nil
}

// monthOrCurrent falls back to the service's current month.
func (s *Server) monthOrCurrent(r *http.Request) (core.Month, error) {
	m, ok, err := monthFromQuery(r)
	if err != nil {
		return core.Month{}, err
	}
	if !ok {
		return s.svc.CurrentMonth(), nil
	}
	return m, nil
}

func expenseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, &core.ValidationError{Field: "id", Err: core.ErrInvalidID}
	}
	if err := core.ValidateID(id); err != nil {
		return 0, err
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response", applog.FieldError, err)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity
	case core.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as JSON. Internal failures are logged and
// reported with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}

	var verr *core.ValidationError
	if errors.As(err, &verr) {
		body.Field = verr.Field
	}
	if status == http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", applog.FieldError, err)
		body = errorBody{Error: "internal error"}
	}
	writeJSON(w, r, status, body)
}
