package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// monthNumbers maps lowercase month words (full and common abbreviated
// forms) to their calendar number.
var monthNumbers = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

var (
	numericDateRe = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
	isoDateRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	wordedDateRe  = regexp.MustCompile(`^(\d{1,2})\s+([A-Za-z]+)\.?\s+(\d{4})$`)
	periodRangeRe = regexp.MustCompile(`(\d{1,2}\s+[A-Za-z]+\.?\s+\d{4})\s*(?:-|–|to)\s*(\d{1,2}\s+[A-Za-z]+\.?\s+\d{4})`)
	numericPairRe = regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4})\s*(?:-|–|to)\s*(\d{1,2}/\d{1,2}/\d{4})`)
)

// toISODate converts "28/07/2025", "28-07-2025", or "28 July 2025" to
// "2025-07-28". Returns "" for anything it does not recognize; vendor
// formatting surprises degrade, they never fail loudly.
func toISODate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if isoDateRe.MatchString(s) {
		return s
	}
	if m := numericDateRe.FindStringSubmatch(s); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		if mo >= 1 && mo <= 12 && d >= 1 && d <= 31 {
			return fmt.Sprintf("%04d-%02d-%02d", y, mo, d)
		}
		return ""
	}
	if m := wordedDateRe.FindStringSubmatch(s); m != nil {
		mo, ok := monthNumbers[strings.ToLower(m[2])]
		if !ok {
			return ""
		}
		d, _ := strconv.Atoi(m[1])
		y, _ := strconv.Atoi(m[3])
		if d >= 1 && d <= 31 {
			return fmt.Sprintf("%04d-%02d-%02d", y, mo, d)
		}
	}
	return ""
}

// isoOrSame is the adapter-side variant: unrecognized input passes
// through unchanged instead of vanishing, so the raw vendor string
// survives into the envelope when conversion is impossible.
func isoOrSame(s string) string {
	if iso := toISODate(s); iso != "" {
		return iso
	}
	return strings.TrimSpace(s)
}

// splitPeriod splits "28 July 2025 - 27 Aug 2025" (or "... to ...", or
// the numeric form) into ISO (start, end). Malformed input yields two
// empty strings.
func splitPeriod(s string) (string, string) {
	if m := periodRangeRe.FindStringSubmatch(s); m != nil {
		start, end := toISODate(m[1]), toISODate(m[2])
		if start != "" && end != "" {
			return start, end
		}
		return "", ""
	}
	if m := numericPairRe.FindStringSubmatch(s); m != nil {
		start, end := toISODate(m[1]), toISODate(m[2])
		if start != "" && end != "" {
			return start, end
		}
	}
	return "", ""
}

// parseAmount converts vendor amount text to a float. Thousands commas
// and RM/kb markers are stripped; "(15.00)" means -15.00. Returns nil
// when the text is not a number.
func parseAmount(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, ",", "")
	upper := strings.ToUpper(strings.TrimSpace(s))
	upper = strings.TrimPrefix(upper, "RM")
	upper = strings.TrimSuffix(upper, "RM")
	upper = strings.TrimSuffix(upper, "KB")
	s = strings.TrimSpace(upper)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	if neg {
		v = -v
	}
	return &v
}

// amountOrZero unwraps an optional amount, defaulting to 0.
func amountOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func floatPtr(f float64) *float64 { return &f }

// parseDuration converts "HH:MM:SS" or "MM:SS" to total seconds.
func parseDuration(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}

// formatDuration renders seconds as "HH:MM:SS".
func formatDuration(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}

// Token patterns shared by the vendor line scanners.
var (
	anyDateRe        = regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b`)
	anyTimeRe        = regexp.MustCompile(`\b\d{2}:\d{2}:\d{2}\b`)
	trailingAmountRe = regexp.MustCompile(`([0-9,]*\.\d{2})\s*$`)
	anyAmountRe      = regexp.MustCompile(`\(?[0-9,]+\.\d{2}\)?`)
)

var nonDigitRe = regexp.MustCompile(`\D`)

// normalizeMsisdn reduces a phone number to its digits-only canonical
// form, keeping the vendor-native prefix (Maxis and Celcom print 60...,
// Digi prints 01...).
func normalizeMsisdn(s string) string {
	return nonDigitRe.ReplaceAllString(s, "")
}

// canonicalHeader maps a raw table header label to a canonical column
// name via alias substring matching, with a fuzzy subsequence match as
// backstop for labels mangled by cell segmentation ("D ate / Tarikh").
func canonicalHeader(label string, canons []string, aliases map[string][]string) string {
	lc := strings.ToLower(strings.TrimSpace(label))
	if lc == "" {
		return ""
	}
	for _, canon := range canons {
		for _, a := range aliases[canon] {
			if strings.Contains(lc, a) {
				return canon
			}
		}
	}
	compact := strings.ReplaceAll(lc, " ", "")
	for _, canon := range canons {
		for _, a := range aliases[canon] {
			if fuzzy.MatchFold(a, compact) && len(compact) <= len(a)+4 {
				return canon
			}
		}
	}
	return ""
}

// sliceBetween cuts the text between the end of the first start match
// and the first end pattern that matches, tried in end pattern order.
// Returns "" when the start never matches; the full tail when no end
// pattern does.
func sliceBetween(text string, start *regexp.Regexp, ends []*regexp.Regexp) string {
	loc := start.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	sub := text[loc[1]:]
	for _, e := range ends {
		if m := e.FindStringIndex(sub); m != nil {
			return sub[:m[0]]
		}
	}
	return sub
}

// minMatchIndex returns the earliest match position of any pattern in
// sub, or -1 when none match.
func minMatchIndex(sub string, res []*regexp.Regexp) int {
	min := -1
	for _, re := range res {
		if m := re.FindStringIndex(sub); m != nil {
			if min < 0 || m[0] < min {
				min = m[0]
			}
		}
	}
	return min
}

// squash collapses every whitespace run to a single space. Extracted
// PDF text carries non-breaking spaces, so those are folded too.
func squash(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, " ", " ")), " ")
}

// firstGroup returns the first capture group of the first match, or "".
func firstGroup(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func containsAny(text string, needles []string) bool {
	lc := strings.ToLower(text)
	for _, n := range needles {
		if strings.Contains(lc, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
