package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"expensetracker/internal/core"
	"expensetracker/internal/services"
)

const (
	dayLayout    = "2006-01-02"
	maxBodyBytes = 1 << 20
	defaultDays  = 7
	maxDailyDays = 366
)

// badRequestError marks input that could not be read at all, as opposed to
// input that was read and failed validation.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// expenseRequest is the body of create and update calls. Amount may be a JSON
// number or a decimal string; Date may be RFC 3339 or YYYY-MM-DD and defaults
// to now.
type expenseRequest struct {
	Title       string          `json:"title"`
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
}

func decodeExpense(r *http.Request, loc *time.Location, now time.Time) (core.Expense, error) {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		return core.Expense{}, badRequest("request body too large or unreadable")
	}
	var req expenseRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&req); err != nil {
		return core.Expense{}, badRequest("malformed JSON body")
	}

	e := core.Expense{
		Title:       strings.TrimSpace(sanitizeInput(req.Title)),
		Description: strings.TrimSpace(sanitizeInput(req.Description)),
		Date:        now,
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.Expense{}, &services.ValidationError{Field: "amount", Err: err}
	}
	e.Amount = amount

	if c, ok := core.ParseCategory(req.Category); ok {
		e.Category = c
	} else {
		e.Category = core.Category(strings.TrimSpace(req.Category))
	}

	if strings.TrimSpace(req.Date) != "" {
		d, err := parseDate(req.Date, loc)
		if err != nil {
			return core.Expense{}, &services.ValidationError{Field: "date", Err: err}
		}
		e.Date = d
	}
	return e, nil
}

// parseAmount accepts 15.5, "15.50" and "15,50".
func parseAmount(raw json.RawMessage) (core.Money, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return core.Money{}, core.ErrInvalidAmount
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return core.Money{}, core.ErrInvalidAmount
		}
		s = str
	}
	return core.ParseMoney(s)
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(dayLayout, s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, errors.New("date must be RFC 3339 or YYYY-MM-DD")
}

func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid expense id %q", raw)
	}
	return id, nil
}

// parseRange reads the optional from/to query parameters as whole days in
// loc. ok is false when neither is set. An open end is unbounded.
func parseRange(q url.Values, loc *time.Location) (from, to time.Time, ok bool, err error) {
	rawFrom, rawTo := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))
	if rawFrom == "" && rawTo == "" {
		return time.Time{}, time.Time{}, false, nil
	}

	from = time.Unix(0, 0).In(loc)
	to = time.Date(9999, 12, 31, 23, 59, 59, 0, loc)
	if rawFrom != "" {
		if from, err = time.ParseInLocation(dayLayout, rawFrom, loc); err != nil {
			return time.Time{}, time.Time{}, false, badRequest("from must be YYYY-MM-DD")
		}
	}
	if rawTo != "" {
		day, perr := time.ParseInLocation(dayLayout, rawTo, loc)
		if perr != nil {
			return time.Time{}, time.Time{}, false, badRequest("to must be YYYY-MM-DD")
		}
		to = day.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return from, to, true, nil
}

func parseDays(q url.Values) (int, error) {
	raw := strings.TrimSpace(q.Get("days"))
	if raw == "" {
		return defaultDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("days must be an integer")
	}
	if days > maxDailyDays {
		return 0, &services.ValidationError{Field: "days", Err: fmt.Errorf("must be at most %d", maxDailyDays)}
	}
	return days, nil
}

// sanitizeInput drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
