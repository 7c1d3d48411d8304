package parsing

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"chitieu/internal/core"
)

// Rule maps keywords to a category. Keywords match whole words,
// case-insensitively.
type Rule struct {
	Category string               `yaml:"category"`
	Type     core.TransactionType `yaml:"type"`
	Keywords []string             `yaml:"keywords"`
}

// Catalog is an ordered rule list; the first rule with a matching keyword wins.
type Catalog struct {
	Rules []Rule `yaml:"rules"`
}

// DefaultCatalog covers everyday Vietnamese and English wording. Specific
// income words come first, then expenses, then generic income verbs, so that
// "nhận lương" is salary while "mua quà" stays shopping.
func DefaultCatalog() Catalog {
	return Catalog{Rules: []Rule{
		{Category: "salary", Type: core.Income, Keywords: []string{"lương", "luong", "salary", "payroll"}},
		{Category: "bonus", Type: core.Income, Keywords: []string{"thưởng", "thuong", "bonus"}},
		{Category: "freelance", Type: core.Income, Keywords: []string{"freelance", "làm thêm", "lam them", "dự án", "du an"}},
		{Category: "investment", Type: core.Income, Keywords: []string{"cổ tức", "co tuc", "lãi", "lai suat", "dividend", "interest"}},
		{Category: "gift", Type: core.Income, Keywords: []string{"lì xì", "li xi", "mừng tuổi", "được tặng", "duoc tang", "được cho"}},
		{Category: "refund", Type: core.Income, Keywords: []string{"hoàn tiền", "hoan tien", "refund", "cashback"}},

		{Category: "bills", Type: core.Expense, Keywords: []string{
			"điện", "dien", "nước sinh hoạt", "internet", "wifi", "tiền nhà", "tien nha", "thuê nhà",
			"thue nha", "rent", "hóa đơn", "hoa don", "điện thoại", "bill",
		}},
		{Category: "food", Type: core.Expense, Keywords: []string{
			"ăn", "an sang", "ăn sáng", "ăn trưa", "ăn tối", "cơm", "phở", "pho", "bún", "bun",
			"cafe", "cà phê", "ca phe", "trà sữa", "tra sua", "nước", "bánh", "lunch", "dinner",
			"breakfast", "coffee", "food", "đi chợ", "di cho", "siêu thị", "grocery",
		}},
		{Category: "transport", Type: core.Expense, Keywords: []string{
			"xăng", "xang", "grab", "taxi", "xe ôm", "xe om", "gửi xe", "gui xe", "vé xe", "bus",
			"gojek", "parking", "fuel", "uber",
		}},
		{Category: "health", Type: core.Expense, Keywords: []string{
			"thuốc", "thuoc", "bệnh viện", "benh vien", "khám", "kham", "nha khoa", "pharmacy",
			"doctor", "hospital", "gym",
		}},
		{Category: "education", Type: core.Expense, Keywords: []string{
			"học phí", "hoc phi", "sách", "sach", "khóa học", "khoa hoc", "course", "book", "tuition",
		}},
		{Category: "entertainment", Type: core.Expense, Keywords: []string{
			"phim", "xem phim", "cinema", "movie", "game", "karaoke", "du lịch", "du lich", "netflix",
			"spotify", "concert",
		}},
		{Category: "shopping", Type: core.Expense, Keywords: []string{
			"mua", "quần", "áo", "giày", "shopee", "lazada", "tiki", "quà", "shopping", "clothes",
		}},
		{Category: "transfer", Type: core.Expense, Keywords: []string{
			"chuyển khoản", "chuyen khoan", "chuyển tiền", "chuyen tien", "transfer", "cho vay",
		}},

		{Category: core.DefaultCategory, Type: core.Income, Keywords: []string{
			"nhận", "nhan", "thu nhập", "thu nhap", "được", "received", "income", "earned",
		}},
	}}
}

// LoadCatalog reads rules from a YAML file and puts them ahead of the
// default rules. An empty path returns the default catalog.
//
//	rules:
//	  - category: food
//	    type: expense
//	    keywords: [bánh mì, xôi]
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read keyword catalog: %w", err)
	}
	var file Catalog
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Catalog{}, fmt.Errorf("parse keyword catalog %s: %w", path, err)
	}
	for i, r := range file.Rules {
		if err := r.validate(); err != nil {
			return Catalog{}, fmt.Errorf("keyword catalog %s rule %d: %w", path, i+1, err)
		}
	}
	return Catalog{Rules: append(file.Rules, DefaultCatalog().Rules...)}, nil
}

func (r Rule) validate() error {
	if !r.Type.Valid() {
		return core.ErrInvalidType
	}
	if !core.IsCategory(r.Type, r.Category) {
		return fmt.Errorf("%w: %q for %s", core.ErrInvalidCategory, r.Category, r.Type)
	}
	if len(r.Keywords) == 0 {
		return fmt.Errorf("rule for %s has no keywords", r.Category)
	}
	return nil
}

// Classify returns the type and category of the first rule matching text.
// Without a match it falls back to an expense in the default category.
func (c Catalog) Classify(text string) (core.TransactionType, string) {
	lower := strings.ToLower(text)
	for _, r := range c.Rules {
		for _, kw := range r.Keywords {
			if containsWord(lower, strings.ToLower(kw)) {
				return r.Type, r.Category
			}
		}
	}
	return core.Expense, core.DefaultCategory
}
