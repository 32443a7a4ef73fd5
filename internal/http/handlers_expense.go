package http

import (
	"net/http"
	"strconv"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	from, to, ranged, err := parseRange(r.URL.Query(), s.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var items []core.Expense
	if ranged {
		items, err = s.expenses.ListBetween(r.Context(), from, to)
	} else {
		items, err = s.expenses.List(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponses(items))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	e, err := decodeExpense(r, s.loc, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	saved, err := s.expenses.Create(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldExpenseID, saved.ID,
		applog.FieldCategory, saved.Category,
		applog.FieldAmount, saved.Amount.String())
	w.Header().Set("Location", "/api/expenses/"+strconv.FormatInt(saved.ID, 10))
	writeJSON(w, http.StatusCreated, toExpenseResponse(saved))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.expenses.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(e))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := decodeExpense(r, s.loc, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	e.ID = id

	saved, err := s.expenses.Update(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense updated",
		applog.FieldOperation, applog.OpUpdate,
		applog.FieldExpenseID, saved.ID)
	writeJSON(w, http.StatusOK, toExpenseResponse(saved))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.expenses.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldExpenseID, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAllExpenses(w http.ResponseWriter, r *http.Request) {
	n, err := s.expenses.DeleteAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "All expenses deleted",
		applog.FieldOperation, applog.OpDelete,
		"deleted", n)
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
