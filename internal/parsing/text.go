package parsing

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// containsWord reports whether word occurs in text with non-word runes (or
// the text edges) on both sides. Both are expected lowercased.
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for from := 0; from <= len(text)-len(word); {
		i := strings.Index(text[from:], word)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(word)
		if (start == 0 || !isWordRune(lastRune(text[:start]))) &&
			(end == len(text) || !isWordRune(firstRune(text[end:]))) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		from = start + size
	}
	return false
}

// cutWord removes every whole-word occurrence of word from text, matching
// case-insensitively.
func cutWord(text, word string) string {
	lower := strings.ToLower(text)
	if len(lower) != len(text) {
		// Case folding changed byte lengths; indexes would not line up.
		return text
	}
	var b strings.Builder
	prev := 0
	for from := 0; from <= len(lower)-len(word); {
		i := strings.Index(lower[from:], word)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(word)
		if (start == 0 || !isWordRune(lastRune(lower[:start]))) &&
			(end == len(lower) || !isWordRune(firstRune(lower[end:]))) {
			b.WriteString(text[prev:start])
			prev = end
			from = end
			continue
		}
		_, size := utf8.DecodeRuneInString(lower[start:])
		from = start + size
	}
	b.WriteString(text[prev:])
	return b.String()
}

// tidy collapses whitespace and trims separators left behind once the
// amount and date words are cut out.
func tidy(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, " -,.:;")
}
