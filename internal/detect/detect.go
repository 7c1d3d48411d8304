// Package detect decides whether user-typed text is worth sending to the
// transaction parse service or should go to the conversational chat instead.
package detect

import "regexp"

var (
	// A digit run followed by a magnitude or currency token. The token has to
	// end on something that is neither a letter nor a digit, so "2kg" and
	// "3 trái" stay conversational. RE2's \b is ASCII-only and would reject
	// "100đ", hence the explicit class.
	suffixed = regexp.MustCompile(
		`(?i)\d+\s*(?:k|tr|đồng|dong|đ|₫|\$|€|vnd|nghìn|nghin|ngàn|ngan|triệu|trieu|củ|cu|thousand|million)(?:[^\p{L}\p{N}_]|$)`)

	// 2-3 digits then one or more dot/comma separated groups of exactly three
	// digits: "200.000", "1,500,000". Dates like "03.11.2025" fail because the
	// last group would run into a fourth digit.
	grouped = regexp.MustCompile(`\d{2,3}(?:[.,]\d{3})+(?:\D|$)`)
)

// LooksLikeMonetaryText reports whether text plausibly contains an amount.
// It is a gate, not a parser: true means "try structured parsing", false
// means "treat as chat".
func LooksLikeMonetaryText(text string) bool {
	if text == "" {
		return false
	}
	return suffixed.MatchString(text) || grouped.MatchString(text)
}
