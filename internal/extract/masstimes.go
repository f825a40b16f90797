// Package extract provides the heuristic text extraction used on church
// detail pages: mass-time parsing and address extraction. Both functions
// are pure and deterministic; they take page text and return structured
// values without doing any I/O.
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// timeKeywords gate which paragraphs are scanned for time tokens.
// A paragraph mentioning none of these is ignored entirely.
var timeKeywords = []string{
	"giờ lễ",      // mass schedule
	"thánh lễ",    // holy mass
	"chúa nhật",   // Sunday
	"ngày thường", // weekday
	"thứ",         // "on <weekday>"
}

// timeRule pairs a token pattern with its normalization. Rules are
// applied in order to every retained paragraph; each rule is
// independently testable against literal input/output pairs.
type timeRule struct {
	name      string
	pattern   *regexp.Regexp
	normalize func(m []string) (hour, minute int, ok bool)
}

var timeRules = []timeRule{
	{
		// "6:00", "6.00", optionally followed by am/pm
		name:    "colon",
		pattern: regexp.MustCompile(`(\d{1,2})[:.](\d{2})(?:\s*(?:am|pm))?`),
		normalize: func(m []string) (int, int, bool) {
			return atoiPair(m[1], m[2])
		},
	},
	{
		// "6 giờ", "6g", "6h", "6g30", "6 giờ30"
		name:    "hourword",
		pattern: regexp.MustCompile(`(\d{1,2})\s*(?:giờ|g|h)\s*(\d{2})?`),
		normalize: func(m []string) (int, int, bool) {
			if m[2] == "" {
				return atoiPair(m[1], "00")
			}
			return atoiPair(m[1], m[2])
		},
	},
	{
		// compact runs: "630" -> 6:30, "1730" -> 17:30
		name:    "compact",
		pattern: regexp.MustCompile(`\b(\d{1,2})(\d{2})\b`),
		normalize: func(m []string) (int, int, bool) {
			return atoiPair(m[1], m[2])
		},
	},
}

func atoiPair(h, m string) (int, int, bool) {
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, false
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return 0, 0, false
	}
	return hour, minute, true
}

// ParseMassTimes extracts normalized mass times from page text.
// The text is split into paragraphs; paragraphs containing a schedule
// keyword are scanned with every time rule, and all matches are
// normalized to zero-padded 24-hour "HH:MM". Tokens with an hour above
// 23 or minutes above 59 are discarded. The result is deduplicated and
// sorted ascending. Idempotent: identical input yields identical output.
func ParseMassTimes(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]bool)

	for _, paragraph := range strings.Split(lower, "\n") {
		if !hasTimeKeyword(paragraph) {
			continue
		}
		for _, rule := range timeRules {
			for _, m := range rule.pattern.FindAllStringSubmatch(paragraph, -1) {
				hour, minute, ok := rule.normalize(m)
				if !ok || hour > 23 || minute > 59 {
					continue
				}
				seen[fmt.Sprintf("%02d:%02d", hour, minute)] = true
			}
		}
	}

	times := make([]string, 0, len(seen))
	for t := range seen {
		times = append(times, t)
	}
	// Zero-padded "HH:MM" sorts lexicographically by (hour, minute).
	sort.Strings(times)
	return times
}

// ParseClock normalizes a single bare time token such as "5:30", "5g30"
// or "0630" to "HH:MM". Used by the spreadsheet import path, where cell
// values carry times without any surrounding schedule keywords.
func ParseClock(token string) (string, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	for _, rule := range timeRules {
		m := rule.pattern.FindStringSubmatch(token)
		if m == nil || m[0] != token {
			continue
		}
		hour, minute, ok := rule.normalize(m)
		if !ok || hour > 23 || minute > 59 {
			return "", false
		}
		return fmt.Sprintf("%02d:%02d", hour, minute), true
	}
	return "", false
}

func hasTimeKeyword(paragraph string) bool {
	for _, kw := range timeKeywords {
		if strings.Contains(paragraph, kw) {
			return true
		}
	}
	return false
}
