package detector

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"expensetracker/internal/core"
)

// Merchant is a known payee with the category and amount range the
// synthesizer draws from.
type Merchant struct {
	Name     string  `yaml:"name"`
	Category string  `yaml:"category"`
	Min      float64 `yaml:"min"`
	Max      float64 `yaml:"max"`
}

// SimpleEntry is one row of the plain sample table used in simple mode.
type SimpleEntry struct {
	Title    string  `yaml:"title"`
	Category string  `yaml:"category"`
	Min      float64 `yaml:"min"`
	Max      float64 `yaml:"max"`
}

type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Tables holds every lookup table the generator uses. Merchant order matters:
// the parser returns the first merchant contained in a message.
type Tables struct {
	Templates []string      `yaml:"sms_templates"`
	Merchants []Merchant    `yaml:"merchants"`
	Simple    []SimpleEntry `yaml:"simple"`
	Balance   Range         `yaml:"balance"`
}

// DefaultTables returns the canonical tables.
func DefaultTables() Tables {
	return Tables{
		Templates: []string{
			"您在 {merchant} 消费 {amount}元，当前余额{balance}元 【某银行】",
			"支付宝交易提醒：您向 {merchant} 付款{amount}元",
			"微信支付凭证：商户{merchant}，金额￥{amount}",
			"您尾号{card}的卡片在{merchant}消费{amount}元",
			"交通银行提醒您：您在{merchant}刷卡消费{amount}元",
			"招商银行：您账户在{merchant}发生支出{amount}元",
			"中国银行：{merchant}消费{amount}元，账户余额{balance}元",
			"建设银行：您在{merchant}的交易金额为{amount}元",
		},
		Merchants: []Merchant{
			{"星巴克", "Food", 15, 45},
			{"麦当劳", "Food", 25, 65},
			{"肯德基", "Food", 30, 70},
			{"海底捞", "Food", 80, 200},
			{"喜茶", "Food", 18, 35},
			{"沙县小吃", "Food", 12, 25},

			{"滴滴出行", "Transportation", 8, 45},
			{"地铁公司", "Transportation", 2, 8},
			{"中石化加油站", "Transportation", 200, 500},
			{"停车场", "Transportation", 5, 25},

			{"淘宝网", "Shopping", 20, 300},
			{"京东商城", "Shopping", 50, 500},
			{"苹果专卖店", "Shopping", 500, 8000},
			{"优衣库", "Shopping", 100, 400},

			{"万达影城", "Entertainment", 35, 80},
			{"KTV", "Entertainment", 100, 300},
			{"游戏充值", "Entertainment", 6, 200},

			{"美团外卖", "Food", 20, 60},
			{"饿了么", "Food", 25, 55},
			{"盒马鲜生", "Shopping", 50, 200},
			{"物业费", "Bills", 200, 800},
		},
		Simple: []SimpleEntry{
			{"Coffee Shop", "Food", 3, 8},
			{"Lunch Restaurant", "Food", 10, 25},
			{"Grocery Store", "Food", 20, 120},
			{"Gas Station", "Transportation", 30, 80},
			{"Uber Ride", "Transportation", 8, 35},
			{"Movie Theater", "Entertainment", 12, 30},
			{"Online Shopping", "Shopping", 15, 200},
			{"Electric Bill", "Bills", 50, 150},
			{"Pharmacy", "Healthcare", 5, 60},
			{"Bookstore", "Education", 10, 50},
		},
		Balance: Range{Min: 1000, Max: 50000},
	}
}

// LoadTables reads a YAML tables file. Sections missing from the file keep
// their default contents.
func LoadTables(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read tables file: %w", err)
	}

	var fromFile Tables
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return Tables{}, fmt.Errorf("parse tables file %s: %w", path, err)
	}

	t := DefaultTables()
	if len(fromFile.Templates) > 0 {
		t.Templates = fromFile.Templates
	}
	if len(fromFile.Merchants) > 0 {
		t.Merchants = fromFile.Merchants
	}
	if len(fromFile.Simple) > 0 {
		t.Simple = fromFile.Simple
	}
	if fromFile.Balance != (Range{}) {
		t.Balance = fromFile.Balance
	}

	if err := t.Validate(); err != nil {
		return Tables{}, fmt.Errorf("tables file %s: %w", path, err)
	}
	return t, nil
}

func (t Tables) Validate() error {
	var errs []error

	if len(t.Templates) == 0 {
		errs = append(errs, errors.New("at least one sms template is required"))
	}
	for i, tpl := range t.Templates {
		if !strings.Contains(tpl, "{merchant}") || !strings.Contains(tpl, "{amount}") {
			errs = append(errs, fmt.Errorf("sms template %d must contain {merchant} and {amount}", i))
		}
	}

	if len(t.Merchants) == 0 {
		errs = append(errs, errors.New("at least one merchant is required"))
	}
	for _, m := range t.Merchants {
		if strings.TrimSpace(m.Name) == "" {
			errs = append(errs, errors.New("merchant name cannot be empty"))
		}
		errs = append(errs, checkEntry(m.Name, m.Category, m.Min, m.Max)...)
	}

	if len(t.Simple) == 0 {
		errs = append(errs, errors.New("at least one simple entry is required"))
	}
	for _, s := range t.Simple {
		if strings.TrimSpace(s.Title) == "" {
			errs = append(errs, errors.New("simple entry title cannot be empty"))
		}
		errs = append(errs, checkEntry(s.Title, s.Category, s.Min, s.Max)...)
	}

	if t.Balance.Min < 0 || t.Balance.Max <= t.Balance.Min {
		errs = append(errs, fmt.Errorf("balance range [%v, %v) is invalid", t.Balance.Min, t.Balance.Max))
	}

	return errors.Join(errs...)
}

func checkEntry(name, category string, lo, hi float64) []error {
	var errs []error
	if _, ok := core.ParseCategory(category); !ok {
		errs = append(errs, fmt.Errorf("%s: unknown category %q", name, category))
	}
	if lo <= 0 || hi <= lo {
		errs = append(errs, fmt.Errorf("%s: amount range [%v, %v) is invalid", name, lo, hi))
	}
	return errs
}
