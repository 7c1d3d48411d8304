package parsing

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"chitieu/internal/core"
)

// In every pattern group 1 is the text removed from the description. The
// trailing class is a Unicode-aware word boundary; RE2's \b is ASCII-only.
var (
	// "1tr5", "2tr500": millions with the fractional digits after the unit.
	compact = regexp.MustCompile(`(?i)((\d+)\s*tr(\d{1,3}))(?:[^\p{L}\p{N}_]|$)`)

	// "45k", "2 triệu", "1.5tr", "3 củ", "50 nghìn đồng".
	unit = regexp.MustCompile(`(?i)((\d+(?:[.,]\d+)?)\s*` +
		`(triệu|trieu|tr|củ|cu|million|nghìn|nghin|ngàn|ngan|thousand|k)` +
		`(?:\s*(?:đồng|dong|đ|₫|vnd))?)(?:[^\p{L}\p{N}_]|$)`)

	// "1.500.000", "200,000đ".
	grouped = regexp.MustCompile(`(?i)((\d{1,3}(?:[.,]\d{3})+)(?:\s*(?:đồng|dong|đ|₫|vnd))?)(?:[^\p{L}\p{N}_]|$)`)

	plain = regexp.MustCompile(`(?i)((\d+)(?:\s*(?:đồng|dong|đ|₫|vnd))?)(?:[^\p{L}\p{N}_]|$)`)

	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)

	groupSeparators = strings.NewReplacer(".", "", ",", "")
)

var multipliers = map[string]decimal.Decimal{
	"triệu": million, "trieu": million, "tr": million,
	"củ": million, "cu": million, "million": million,
	"nghìn": thousand, "nghin": thousand, "ngàn": thousand, "ngan": thousand,
	"thousand": thousand, "k": thousand,
}

// span is a located amount; text[start:end] is what the amount occupied.
type span struct {
	value      decimal.Decimal
	start, end int
}

// ExtractAmount finds the amount in free text. Unit-suffixed amounts beat
// grouped numerals, which beat bare digits; among matches of the same kind
// the last one wins.
func ExtractAmount(text string) (core.Money, bool) {
	s, ok := findAmount(text)
	if !ok {
		return core.Money{}, false
	}
	return core.MoneyFrom(s.value), true
}

func findAmount(text string) (span, bool) {
	for _, find := range []func(string) []span{unitSpans, groupedSpans, plainSpans} {
		if spans := find(text); len(spans) > 0 {
			return last(spans), true
		}
	}
	return span{}, false
}

func last(spans []span) span {
	best := spans[0]
	for _, s := range spans[1:] {
		if s.start > best.start {
			best = s
		}
	}
	return best
}

func unitSpans(text string) []span {
	var out []span
	taken := map[int]bool{}
	for _, loc := range compact.FindAllStringSubmatchIndex(text, -1) {
		if !startsWord(text, loc[2]) {
			continue
		}
		whole, err := decimal.NewFromString(text[loc[4]:loc[5]])
		if err != nil {
			continue
		}
		fracDigits := text[loc[6]:loc[7]]
		frac, err := decimal.NewFromString(fracDigits)
		if err != nil {
			continue
		}
		v := whole.Add(frac.Shift(-int32(len(fracDigits)))).Mul(million)
		if v.IsPositive() {
			out = append(out, span{value: v, start: loc[2], end: loc[3]})
			taken[loc[2]] = true
		}
	}
	for _, loc := range unit.FindAllStringSubmatchIndex(text, -1) {
		if taken[loc[2]] || !startsWord(text, loc[2]) {
			continue
		}
		v, err := decimal.NewFromString(strings.ReplaceAll(text[loc[4]:loc[5]], ",", "."))
		if err != nil {
			continue
		}
		v = v.Mul(multipliers[strings.ToLower(text[loc[6]:loc[7]])])
		if v.IsPositive() {
			out = append(out, span{value: v, start: loc[2], end: loc[3]})
		}
	}
	return out
}

func groupedSpans(text string) []span {
	var out []span
	for _, loc := range grouped.FindAllStringSubmatchIndex(text, -1) {
		if !startsWord(text, loc[2]) {
			continue
		}
		v, err := decimal.NewFromString(groupSeparators.Replace(text[loc[4]:loc[5]]))
		if err != nil || !v.IsPositive() {
			continue
		}
		out = append(out, span{value: v, start: loc[2], end: loc[3]})
	}
	return out
}

func plainSpans(text string) []span {
	var out []span
	for _, loc := range plain.FindAllStringSubmatchIndex(text, -1) {
		if !standalone(text, loc[4], loc[5]) {
			continue
		}
		v, err := decimal.NewFromString(text[loc[4]:loc[5]])
		if err != nil || !v.IsPositive() {
			continue
		}
		out = append(out, span{value: v, start: loc[2], end: loc[3]})
	}
	return out
}

// startsWord reports whether the match at i is not glued to a preceding
// digit, letter or decimal separator.
func startsWord(text string, i int) bool {
	if i == 0 {
		return true
	}
	prev := lastRune(text[:i])
	return !isWordRune(prev) && prev != '.' && prev != ','
}

// standalone rejects digit runs glued to date and time separators, so
// "03/11", "08:30" and "1.5" do not yield plain amounts.
func standalone(text string, start, end int) bool {
	if !startsWord(text, start) {
		return false
	}
	if start > 0 {
		switch text[start-1] {
		case '/', '-', ':':
			return false
		}
	}
	if end < len(text) {
		switch text[end] {
		case '/', '-', ':', '.', ',':
			return end+1 >= len(text) || !isDigit(rune(text[end+1]))
		}
	}
	return true
}
