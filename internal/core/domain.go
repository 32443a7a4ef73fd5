package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Food           Category = "Food"
	Transportation Category = "Transportation"
	Shopping       Category = "Shopping"
	Entertainment  Category = "Entertainment"
	Bills          Category = "Bills"
	Healthcare     Category = "Healthcare"
	Education      Category = "Education"
	Travel         Category = "Travel"
	Other          Category = "Other"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

type (
	// Category labels the purpose of an expense. The set is closed, see AllCategories.
	Category string

	Expense struct {
		ID          int64 // 0 until persisted
		Title       string
		Amount      Money
		Category    Category
		Date        time.Time
		Description string
	}
)

var (
	ErrEmptyTitle         = errors.New("empty title")
	ErrTitleTooLong       = errors.New("title too long (max 100 characters)")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyCategory      = errors.New("empty category")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrDescriptionTooLong = errors.New("description too long (max 500 characters)")
	ErrZeroDate           = errors.New("date cannot be zero")
)

var allCategories = []Category{
	Food, Transportation, Shopping, Entertainment, Bills,
	Healthcare, Education, Travel, Other,
}

// AllCategories returns the closed category set in display order.
func AllCategories() []Category {
	return append([]Category(nil), allCategories...)
}

// ParseCategory matches s against the closed set, ignoring case and surrounding space.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range allCategories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

func (c Category) String() string {
	return string(c)
}

// Known reports whether c belongs to the closed set.
func (c Category) Known() bool {
	for _, k := range allCategories {
		if c == k {
			return true
		}
	}
	return false
}

// Validate performs the full form-level validation of an expense.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(e.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(string(e.Category)) == "" {
		return ErrEmptyCategory
	}
	if !e.Category.Known() {
		return ErrUnknownCategory
	}
	if e.Date.IsZero() {
		return ErrZeroDate
	}
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// IsValid is the minimal validity predicate: non-blank title and category and a positive amount.
func IsValid(e Expense) bool {
	return strings.TrimSpace(e.Title) != "" &&
		e.Amount.Cents > 0 &&
		strings.TrimSpace(string(e.Category)) != ""
}
