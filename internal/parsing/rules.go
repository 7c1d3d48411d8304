// Package parsing turns free text such as "ăn phở 45k" into a transaction
// candidate. RuleParser works offline from regular expressions and a keyword
// catalog, GeminiParser asks a language model, and CachedParser memoizes
// either one.
package parsing

import (
	"context"
	"errors"
	"strings"
	"time"

	"chitieu/internal/core"
)

var ErrNoAmount = errors.New("no amount found in text")

var relativeDays = []struct {
	word   string
	offset int
}{
	{"hôm kia", -2}, {"hom kia", -2},
	{"hôm qua", -1}, {"hom qua", -1}, {"yesterday", -1},
	{"hôm nay", 0}, {"hom nay", 0}, {"today", 0},
}

// RuleParser extracts the amount with regular expressions and infers type and
// category from a keyword catalog.
type RuleParser struct {
	catalog Catalog
	now     func() time.Time
}

func NewRuleParser(catalog Catalog) *RuleParser {
	return &RuleParser{catalog: catalog, now: time.Now}
}

// WithClock replaces the clock used to resolve "today".
func (p *RuleParser) WithClock(now func() time.Time) *RuleParser {
	p.now = now
	return p
}

func (p *RuleParser) Parse(ctx context.Context, text string) (core.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return core.Candidate{}, err
	}

	amount, ok := findAmount(text)
	if !ok {
		return core.Candidate{}, ErrNoAmount
	}
	rest := text[:amount.start] + " " + text[amount.end:]

	offset := 0
	lower := strings.ToLower(rest)
	for _, d := range relativeDays {
		if containsWord(lower, d.word) {
			offset = d.offset
			rest = cutWord(rest, d.word)
			break
		}
	}

	txType, category := p.catalog.Classify(rest)
	description := tidy(rest)
	if description == "" {
		description = core.CategoryLabel(txType, category)
	}

	return core.Candidate{
		Amount:       core.MoneyFrom(amount.value),
		Category:     category,
		Description:  description,
		Date:         core.DateOf(p.now()).AddDays(offset),
		Type:         txType,
		OriginalText: text,
	}, nil
}
