package parser

import (
	"regexp"
	"strings"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/extractor"
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/models"
)

// Detection is the vendor detector's verdict for one document.
type Detection struct {
	Vendor     models.Vendor       `json:"vendor"`
	Confidence float64             `json:"confidence"`
	Source     string              `json:"source"` // "filename", "text", or "fallback"
	Matches    map[string][]string `json:"matches"`
}

// VendorUnknown marks a document no keyword library claimed.
const VendorUnknown models.Vendor = "unknown"

var vendorOrder = []models.Vendor{models.VendorMaxis, models.VendorCelcom, models.VendorDigi}

// Keyword libraries, ordered specific to general within each vendor.
var detectKeywords = map[models.Vendor][]*regexp.Regexp{
	models.VendorMaxis: {
		regexp.MustCompile(`(?i)\bMaxis Broadband Sdn Bhd\b`),
		regexp.MustCompile(`(?i)\bMaxis(?: Berhad)?\b`),
		regexp.MustCompile(`(?i)\bmaxis\.com\.my\b`),
		regexp.MustCompile(`(?i)\bMaxis Business\b`),
	},
	models.VendorCelcom: {
		regexp.MustCompile(`(?i)\bCelcom(?: \(Malaysia\))?\s*Axiata\b`),
		regexp.MustCompile(`(?i)\bCelcom(?:Digi)?\s+Bill Statement\b`),
		regexp.MustCompile(`(?i)\bMEGA\s+Lightning\b`),
		regexp.MustCompile(`(?i)\bCelcom(?:Digi)?\b`),
	},
	models.VendorDigi: {
		regexp.MustCompile(`(?i)\bDigi Telecommunications Sdn Bhd\b`),
		regexp.MustCompile(`(?i)\bCelcomDigi\s+Business\b`),
		regexp.MustCompile(`(?i)\bPostpaid\s*5G\s*\d+\b`),
		regexp.MustCompile(`(?i)\bCelcomDigi\b`),
	},
}

// Post-merger CelcomDigi branding appears on both vendors' bills; hard
// hints carry extra weight when both score.
var detectHardHints = map[models.Vendor][]*regexp.Regexp{
	models.VendorCelcom: {
		regexp.MustCompile(`(?i)\bCelcom\s*\(Malaysia\)\s*Berhad\b`),
		regexp.MustCompile(`(?i)\bCelcom\s*Axiata\b`),
		regexp.MustCompile(`(?i)\bMEGA\s+Lightning\s*\d+\b`),
	},
	models.VendorDigi: {
		regexp.MustCompile(`(?i)\bDigi Telecommunications Sdn Bhd\b`),
		regexp.MustCompile(`(?i)\bCelcomDigi\s+Business\s+Postpaid\b`),
	},
}

var detectFilenameHints = map[models.Vendor][]*regexp.Regexp{
	models.VendorMaxis:  {regexp.MustCompile(`(?i)\bmaxis\b`), regexp.MustCompile(`(?i)\bME\d{6,}\b`)},
	models.VendorCelcom: {regexp.MustCompile(`(?i)\bcelcom\b`)},
	models.VendorDigi:   {regexp.MustCompile(`(?i)\bdigi\b`), regexp.MustCompile(`(?i)\bcelcomdigi\b`)},
}

var digiPostpaidRe = regexp.MustCompile(`(?i)\bCelcomDigi\s+Business\s+Postpaid\b`)

// DetectVendor identifies which vendor produced a bill from its filename
// and the first two pages of text. Detection is a hint supplier only:
// the caller chooses whether to trust a low-confidence verdict.
func DetectVendor(filename string, doc *extractor.Document) Detection {
	det := Detection{
		Vendor:  VendorUnknown,
		Source:  "fallback",
		Matches: map[string][]string{"maxis": {}, "celcom": {}, "digi": {}},
	}

	if v, matches := vendorFromFilename(filename); v != "" {
		det.Vendor = v
		det.Confidence = 0.70
		det.Source = "filename"
		for k, hits := range matches {
			det.Matches[string(k)] = append(det.Matches[string(k)], hits...)
		}
	}

	text := peekText(doc, 2)
	if text == "" {
		return det
	}

	scores := map[models.Vendor]int{}
	for _, v := range vendorOrder {
		s, hits := scorePatterns(text, detectKeywords[v])
		scores[v] = s
		for _, h := range hits {
			det.Matches[string(v)] = appendUnique(det.Matches[string(v)], h)
		}
	}

	var chosen models.Vendor
	switch {
	case scores[models.VendorCelcom] > 0 && scores[models.VendorDigi] > 0 && scores[models.VendorMaxis] == 0:
		chosen = resolveCelcomVsDigi(text, scores, det.Matches)
	case scores[models.VendorMaxis] > 0 || scores[models.VendorCelcom] > 0 || scores[models.VendorDigi] > 0:
		chosen = vendorOrder[0]
		for _, v := range vendorOrder[1:] {
			if scores[v] > scores[chosen] {
				chosen = v
			}
		}
	}
	if chosen == "" {
		return det
	}

	totalHits := scores[models.VendorMaxis] + scores[models.VendorCelcom] + scores[models.VendorDigi]
	if totalHits == 0 {
		totalHits = 1
	}
	conf := 0.55 + 0.10*float64(scores[chosen]) + 0.05*float64(scores[chosen])/float64(totalHits)
	if conf > 1.0 {
		conf = 1.0
	}
	det.Vendor = chosen
	det.Confidence = conf
	det.Source = "text"
	return det
}

// resolveCelcomVsDigi settles overlapping CelcomDigi branding: hard
// hints count +3 each, and an exact tie goes to digi only when the
// CelcomDigi Business Postpaid plan line is present.
func resolveCelcomVsDigi(text string, scores map[models.Vendor]int, matches map[string][]string) models.Vendor {
	for _, v := range []models.Vendor{models.VendorCelcom, models.VendorDigi} {
		for _, rx := range detectHardHints[v] {
			hits := rx.FindAllString(text, -1)
			scores[v] += 3 * len(hits)
			for _, h := range hits {
				matches[string(v)] = appendUnique(matches[string(v)], h)
			}
		}
	}
	if scores[models.VendorCelcom] == scores[models.VendorDigi] && digiPostpaidRe.MatchString(text) {
		scores[models.VendorDigi]++
	}
	if scores[models.VendorCelcom] > scores[models.VendorDigi] {
		return models.VendorCelcom
	}
	return models.VendorDigi
}

func vendorFromFilename(filename string) (models.Vendor, map[models.Vendor][]string) {
	matches := map[models.Vendor][]string{}
	var best models.Vendor
	bestHits := 0
	for _, v := range vendorOrder {
		s, hits := scorePatterns(filename, detectFilenameHints[v])
		if s > 0 {
			matches[v] = hits
		}
		if s > bestHits {
			best, bestHits = v, s
		}
	}
	return best, matches
}

func scorePatterns(text string, patterns []*regexp.Regexp) (int, []string) {
	var hits []string
	score := 0
	for _, rx := range patterns {
		for _, frag := range rx.FindAllString(text, -1) {
			if !containsString(hits, frag) {
				hits = append(hits, frag)
				score++
			}
		}
	}
	return score, hits
}

func peekText(doc *extractor.Document, maxPages int) string {
	if doc == nil {
		return ""
	}
	var parts []string
	for i, p := range doc.Pages {
		if i >= maxPages {
			break
		}
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n")
}

func appendUnique(list []string, s string) []string {
	if containsString(list, s) {
		return list
	}
	return append(list, s)
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
