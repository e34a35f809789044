// Package nlp holds the deterministic text-extraction helpers used as a
// fallback when the language model did not produce usable parameters.
package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var numberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`#(\d+)`),
	regexp.MustCompile(`number\s+(\d+)`),
	regexp.MustCompile(`email\s+(\d+)`),
	regexp.MustCompile(`message\s+(\d+)`),
}

// Ordinals and cardinals one through five. Checked positionally: the word
// occurring earliest in the text wins.
var wordNumbers = []struct {
	word string
	num  int
}{
	{"first", 1}, {"second", 2}, {"third", 3}, {"fourth", 4}, {"fifth", 5},
	{"one", 1}, {"two", 2}, {"three", 3}, {"four", 4}, {"five", 5},
}

var (
	emailAddressPattern = regexp.MustCompile(`[\w.\-]+@[\w.\-]+`)
	senderNamePatterns  = []*regexp.Regexp{
		regexp.MustCompile(`from\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`),
		regexp.MustCompile(`by\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`),
		regexp.MustCompile(`sender\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`),
	}
)

// ExtractEmailNumber pulls a 1-indexed email position out of text like
// "delete email #2" or "reply to the second one". Digit patterns take
// precedence over spelled-out words. Returns 0 when nothing matches.
func ExtractEmailNumber(text string) int {
	lower := strings.ToLower(text)

	for _, pattern := range numberPatterns {
		if m := pattern.FindStringSubmatch(lower); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n
			}
		}
	}

	best := 0
	bestIdx := -1
	for _, wn := range wordNumbers {
		if idx := strings.Index(lower, wn.word); idx >= 0 {
			if bestIdx == -1 || idx < bestIdx {
				best = wn.num
				bestIdx = idx
			}
		}
	}
	return best
}

// ExtractSender finds a sender in text like "from john@example.com" or
// "sent by John Doe": the first address-shaped token wins, then a
// capitalized name following "from", "by" or "sender". Returns "" when
// nothing matches.
func ExtractSender(text string) string {
	if m := emailAddressPattern.FindString(text); m != "" {
		return m
	}
	for _, pattern := range senderNamePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// ParseTimeReference maps phrases like "today" or "this week" to a
// provider date query. Returns "" when the text has no time reference.
func ParseTimeReference(text string, now time.Time) string {
	lower := strings.ToLower(text)

	day := func(t time.Time) string { return t.Format("2006/01/02") }

	references := []struct {
		phrase string
		query  string
	}{
		{"today", "after:" + day(now)},
		{"yesterday", "after:" + day(now.AddDate(0, 0, -1)) + " before:" + day(now)},
		{"this week", "after:" + day(now.AddDate(0, 0, -7))},
		{"last week", "after:" + day(now.AddDate(0, 0, -14)) + " before:" + day(now.AddDate(0, 0, -7))},
		{"this month", "after:" + day(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()))},
	}

	for _, ref := range references {
		if strings.Contains(lower, ref.phrase) {
			return ref.query
		}
	}
	return ""
}

// BuildQuery assembles a provider search query from structured parameters.
func BuildQuery(sender string, subjectKeywords []string, freeText string) string {
	var parts []string

	if sender != "" {
		parts = append(parts, "from:"+sender)
	}
	for _, keyword := range subjectKeywords {
		if keyword != "" {
			parts = append(parts, "subject:"+keyword)
		}
	}
	if freeText != "" {
		parts = append(parts, freeText)
	}

	return strings.Join(parts, " ")
}
