package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type expenseResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

type categoryTotalResponse struct {
	Category   string `json:"category"`
	Total      string `json:"total"`
	TotalCents int64  `json:"total_cents"`
}

type dailyTotalResponse struct {
	Date       string `json:"date"`
	Label      string `json:"label"`
	Total      string `json:"total"`
	TotalCents int64  `json:"total_cents"`
}

type totalResponse struct {
	Total      string `json:"total"`
	TotalCents int64  `json:"total_cents"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Title:       e.Title,
		Amount:      e.Amount.String(),
		AmountCents: e.Amount.Cents,
		Category:    string(e.Category),
		Date:        e.Date.Format(time.RFC3339),
		Description: e.Description,
	}
}

func toExpenseResponses(items []core.Expense) []expenseResponse {
	out := make([]expenseResponse, 0, len(items))
	for _, e := range items {
		out = append(out, toExpenseResponse(e))
	}
	return out
}

func toCategoryTotalResponses(totals []core.CategoryTotal) []categoryTotalResponse {
	out := make([]categoryTotalResponse, 0, len(totals))
	for _, t := range totals {
		out = append(out, categoryTotalResponse{Category: string(t.Category), Total: t.Total.String(), TotalCents: t.Total.Cents})
	}
	return out
}

func toDailyTotalResponses(totals []core.DailyTotal) []dailyTotalResponse {
	out := make([]dailyTotalResponse, 0, len(totals))
	for _, t := range totals {
		out = append(out, dailyTotalResponse{
			Date:       t.Day.Format(dayLayout),
			Label:      t.Label,
			Total:      t.Total.String(),
			TotalCents: t.Total.Cents,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error to its HTTP status. Validation problems and
// malformed requests are reported to the caller; anything else is logged and
// answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *services.ValidationError
		berr *badRequestError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: verr.Err.Error(), Field: verr.Field})
	case errors.As(err, &berr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: berr.msg})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: store.ErrNotFound.Error()})
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}
