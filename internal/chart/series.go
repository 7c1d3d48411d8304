// Package chart turns text and aggregates into pie/donut chart series.
package chart

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Point is one slice of a pie chart.
type Point struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// minSlices is the smallest breakdown worth drawing; a single-slice pie says nothing.
const minSlices = 2

const (
	minNameLen = 2
	maxNameLen = 29
)

// Matches "- Ăn uống: 2.000.000 ₫ (45%)", "- **Ăn uống** (45%)", "• Ăn uống (45,5%)".
var bulletLine = regexp.MustCompile(`[-•]\s*\*{0,2}([^*:(\n]+?)\*{0,2}\s*(?::[^(]*?)?\((\d+(?:[.,]\d+)?)%\)`)

// ExtractSeries reads a percentage breakdown out of assistant text, one
// bulleted line per slice, in line order. Lines that do not qualify are
// skipped. Fewer than two qualifying lines yield an empty series.
func ExtractSeries(text string) []Point {
	var points []Point
	for _, line := range strings.Split(text, "\n") {
		m := bulletLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if n := utf8.RuneCountInString(name); n < minNameLen || n > maxNameLen {
			continue
		}
		value, err := strconv.ParseFloat(strings.Replace(m[2], ",", ".", 1), 64)
		if err != nil || value <= 0 {
			continue
		}
		points = append(points, Point{Name: name, Value: value})
	}
	if len(points) < minSlices {
		return []Point{}
	}
	return points
}
