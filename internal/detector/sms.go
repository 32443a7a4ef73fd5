package detector

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"

	"expensetracker/internal/core"
)

const UnknownMerchant = "Unknown Merchant"

type TransactionType string

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

// Checked in order; the first pattern that matches supplies the amount.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`消费\s*([0-9]+(?:\.[0-9]+)?)元`),
	regexp.MustCompile(`付款\s*([0-9]+(?:\.[0-9]+)?)元`),
	regexp.MustCompile(`金额[￥¥]?\s*([0-9]+(?:\.[0-9]+)?)`),
	regexp.MustCompile(`支出\s*([0-9]+(?:\.[0-9]+)?)元`),
	regexp.MustCompile(`交易金额为\s*([0-9]+(?:\.[0-9]+)?)元`),
}

// Used when no known merchant appears in the message.
var merchantPatterns = []*regexp.Regexp{
	regexp.MustCompile(`在\s*([^\s]+)\s*消费`),
	regexp.MustCompile(`向\s*([^\s]+)\s*付款`),
	regexp.MustCompile(`商户\s*([^\s]+)`),
	regexp.MustCompile(`([^\s]+)\s*刷卡`),
}

var (
	expenseKeywords  = []string{"消费", "付款", "支出", "购买", "刷卡"}
	incomeKeywords   = []string{"收入", "转入", "工资", "退款"}
	providerKeywords = []string{"银行", "支付宝", "微信"}
	currencyKeywords = []string{"元", "￥"}
)

// ParsedTransaction is what the parser recovers from one message.
type ParsedTransaction struct {
	Title        string
	Amount       core.Money
	Category     core.Category
	Type         TransactionType
	Confidence   float64
	OriginalText string
}

// Synthesize renders a random pseudo-SMS from the tables. The merchant is
// returned so callers can compare it with what Parse recovers.
func Synthesize(r *rand.Rand, t Tables) (message string, merchant Merchant) {
	tpl := t.Templates[r.IntN(len(t.Templates))]
	merchant = t.Merchants[r.IntN(len(t.Merchants))]
	amount := uniform(r, merchant.Min, merchant.Max)
	balance := uniform(r, t.Balance.Min, t.Balance.Max)
	card := fmt.Sprintf("****%d", 1000+r.IntN(8999))

	message = strings.NewReplacer(
		"{merchant}", merchant.Name,
		"{amount}", fmt.Sprintf("%.2f", amount),
		"{balance}", fmt.Sprintf("%.2f", balance),
		"{card}", card,
	).Replace(tpl)
	return message, merchant
}

// Parse extracts a transaction from text. It reports false when no amount
// can be found.
func Parse(text string, merchants []Merchant) (ParsedTransaction, bool) {
	amount, ok := extractAmount(text)
	if !ok {
		return ParsedTransaction{}, false
	}
	title, category := extractMerchant(text, merchants)
	return ParsedTransaction{
		Title:        title,
		Amount:       amount,
		Category:     category,
		Type:         classify(text),
		Confidence:   confidence(text),
		OriginalText: text,
	}, true
}

func extractAmount(text string) (core.Money, bool) {
	for _, re := range amountPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		amount, err := core.ParseMoney(m[1])
		if err != nil {
			return core.Money{}, false
		}
		return amount, true
	}
	return core.Money{}, false
}

func extractMerchant(text string, merchants []Merchant) (string, core.Category) {
	for _, m := range merchants {
		if strings.Contains(text, m.Name) {
			return m.Name, categoryOf(m.Category)
		}
	}
	for _, re := range merchantPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1], core.Other
		}
	}
	return UnknownMerchant, core.Other
}

func classify(text string) TransactionType {
	switch {
	case containsAny(text, expenseKeywords):
		return Expense
	case containsAny(text, incomeKeywords):
		return Income
	default:
		return Expense
	}
}

func confidence(text string) float64 {
	c := 0.5
	if containsAny(text, providerKeywords) {
		c += 0.3
	}
	if containsAny(text, currencyKeywords) {
		c += 0.2
	}
	return min(c, 1.0)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func categoryOf(name string) core.Category {
	if c, ok := core.ParseCategory(name); ok {
		return c
	}
	return core.Other
}

// uniform draws from [lo, hi).
func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}
