package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"expensetracker/internal/core"
	"expensetracker/internal/export"
	applog "expensetracker/internal/log"
	"expensetracker/internal/notify"
)

func (s *Server) handleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.expenses.CategoryTotals(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryTotalResponses(totals))
}

func (s *Server) handleTotal(w http.ResponseWriter, r *http.Request) {
	total, err := s.expenses.Total(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totalResponse{Total: total.String(), TotalCents: total.Cents})
}

func (s *Server) handleDailyTotals(w http.ResponseWriter, r *http.Request) {
	days, err := parseDays(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	totals, err := s.expenses.DailyTotals(r.Context(), s.now().In(s.loc), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyTotalResponses(totals))
}

func handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := core.AllCategories()
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	writeJSON(w, http.StatusOK, out)
}

type statusResponse struct {
	Detector *detectorStatus  `json:"detector,omitempty"`
	Display  *notify.Snapshot `json:"display,omitempty"`
}

type detectorStatus struct {
	Running  bool  `json:"running"`
	Detected int64 `json:"detected"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var resp statusResponse
	if s.detector != nil {
		resp.Detector = &detectorStatus{Running: s.detector.IsRunning(), Detected: s.detector.Count()}
	}
	if s.board != nil {
		snap := s.board.Snapshot()
		resp.Display = &snap
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportExpenses(w http.ResponseWriter, r *http.Request) {
	items, err := s.expenses.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Render fully before writing headers so failures still get a JSON error.
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, items); err != nil {
		writeError(w, r, fmt.Errorf("render workbook: %w", err))
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expenses exported",
		applog.FieldOperation, applog.OpExport,
		"rows", len(items))

	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"expenses_%s.xlsx\"", s.now().In(s.loc).Format("20060102")))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
