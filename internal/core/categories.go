package core

// Category codes are stable identifiers shared with the backend; labels are
// what the user sees.
var (
	ExpenseCategories = []string{
		"food", "transport", "shopping", "entertainment", "bills",
		"health", "education", "transfer", "other",
	}
	IncomeCategories = []string{
		"salary", "freelance", "investment", "bonus", "gift", "refund", "other",
	}

	expenseLabels = map[string]string{
		"food":          "Ăn uống",
		"transport":     "Di chuyển",
		"shopping":      "Mua sắm",
		"entertainment": "Giải trí",
		"bills":         "Hóa đơn",
		"health":        "Sức khỏe",
		"education":     "Học tập",
		"transfer":      "Chuyển khoản",
		"other":         "Khác",
	}
	incomeLabels = map[string]string{
		"salary":     "Lương",
		"freelance":  "Freelance",
		"investment": "Đầu tư",
		"bonus":      "Thưởng",
		"gift":       "Quà tặng",
		"refund":     "Hoàn tiền",
		"other":      "Khác",
	}
)

// DefaultCategory is used when a parser cannot tell the category.
const DefaultCategory = "other"

// IsCategory reports whether code belongs to the category set of t.
func IsCategory(t TransactionType, code string) bool {
	switch t {
	case Expense:
		_, ok := expenseLabels[code]
		return ok
	case Income:
		_, ok := incomeLabels[code]
		return ok
	default:
		return false
	}
}

// CategoryLabel returns the display label of code, or code itself when unknown.
func CategoryLabel(t TransactionType, code string) string {
	labels := expenseLabels
	if t == Income {
		labels = incomeLabels
	}
	if l, ok := labels[code]; ok {
		return l
	}
	return code
}

// Categories lists the codes of t in display order.
func Categories(t TransactionType) []string {
	if t == Income {
		return append([]string(nil), IncomeCategories...)
	}
	return append([]string(nil), ExpenseCategories...)
}
