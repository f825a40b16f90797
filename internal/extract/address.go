package extract

import (
	"regexp"
	"strings"
)

// addressLabels are tried in priority order. Each captures the text
// following the label up to the next sentence boundary. The bare "tại"
// (at) pattern comes last because it matches almost anywhere.
var addressLabels = []*regexp.Regexp{
	regexp.MustCompile(`(?i)địa chỉ:([^.]*)`),     // address:
	regexp.MustCompile(`(?i)địa điểm:([^.]*)`),    // location:
	regexp.MustCompile(`(?i)tọa lạc:([^.]*)`),     // situated:
	regexp.MustCompile(`(?i)toạ lạc tại([^.]*)`),  // situated at
	regexp.MustCompile(`(?i)tại([^.]*)`),          // at
}

// addressKeywords are Vietnamese administrative-unit terms. A line
// containing any of them is assumed to be an address.
var addressKeywords = []string{
	"đường",     // street
	"phường",    // ward
	"quận",      // district
	"thành phố", // city
	"tỉnh",      // province
	"ấp",        // hamlet
	"xã",        // commune
	"huyện",     // rural district
}

// ExtractAddress finds the best-effort address in page text. It tries
// the labeled patterns first, then scans lines for administrative-unit
// keywords, and finally falls back to the church's own name so the
// result is never empty.
func ExtractAddress(text, fallbackName string) string {
	for _, label := range addressLabels {
		if m := label.FindStringSubmatch(text); m != nil {
			if addr := strings.TrimSpace(m[1]); addr != "" {
				return addr
			}
		}
	}

	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, kw := range addressKeywords {
			if strings.Contains(lower, kw) {
				return strings.TrimSpace(line)
			}
		}
	}

	return fallbackName
}
