package parser

import (
	"regexp"
	"strings"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/extractor"
)

// The registered mobile number table is the backbone of a company
// Celcom bill: one row per billed number with credit limit, one time,
// monthly, usage, discount and total columns. It regularly spans three
// or more pages, and later pages repeat neither the section heading
// nor the column header, so recovery is layered: positional tables
// with a recognized header row, a fuzzy row rescue for broken cells,
// and finally a plain text scan.

var (
	celcomRegStopRe = regexp.MustCompile(`(?i)(?:^|\b)(?:Monthly\s+Amount|Discount\s*&\s*Rebates|Value\s+Added\s+Services|DETAILED\s+CHARGES)\b`)

	celcomMobileLeadRe = regexp.MustCompile(`^\s*((?:\+?6?0)?\s*(?:\d{2,3}[\s-]?\d{3,4}[\s-]?\d{4}|\d{2,3}[\s-]?\d{6,8}))\b`)
	celcomMobileFullRe = regexp.MustCompile(`^` + celcomMobile + `$`)
	celcomNumTokenRe   = regexp.MustCompile(celcomNumRM)

	celcomRegHeaderAmtRe = regexp.MustCompile(`(?i)amount|rm|limit|discount|usage`)
	celcomRegTotalRowRe  = regexp.MustCompile(`(?i)^total\b`)

	celcomRegTextHdrRe  = regexp.MustCompile(`(?i)^(?:Discounts?\s*&\s*Rebates|Description(?:\s+Amount\s*\(RM\))?|Amount\s*\(RM\))$`)
	celcomRegTextTot6Re = regexp.MustCompile(`(?i)^Total(?:\s+` + celcomNumRM + `){6}\s*$`)
)

// celcomRegColumns maps header cells to registered-table fields. The
// slice is ordered so a header matching two aliases resolves the same
// way every run.
var celcomRegColumns = []struct {
	key string
	re  *regexp.Regexp
}{
	{"mobile", regexp.MustCompile(`(?i)^(?:mobile\s*(?:no\.?|number|numbers?)?|registered\s*mobile\s*number.*)$`)},
	{"credit_limit", regexp.MustCompile(`(?i)^credit\s*limit$`)},
	{"one_time", regexp.MustCompile(`(?i)^one[\s-]*time\s*amount$`)},
	{"monthly", regexp.MustCompile(`(?i)^monthly\s*amount$`)},
	{"usage", regexp.MustCompile(`(?i)^usage\s*amount$`)},
	{"discounts", regexp.MustCompile(`(?i)^(?:discounts?\s*&\s*rebates|discounts?/?rebates|discount)$`)},
	{"total", regexp.MustCompile(`(?i)^(?:amount|amount\s*\(rm\)|total\s*amount\s*\(rm\)|amount\s*rm)$`)},
}

func celcomRegColumn(name string) string {
	n := strings.ToLower(squash(name))
	for _, c := range celcomRegColumns {
		if c.re.MatchString(n) {
			return c.key
		}
	}
	return ""
}

// celcomMobileNorm reduces any rendering of a Malaysian mobile number
// to bare digits with the 60 country prefix, the dedup key for rows
// recovered twice from overlapping extraction passes.
func celcomMobileNorm(s string) string {
	d := nonDigitRe.ReplaceAllString(s, "")
	if strings.HasPrefix(d, "60") {
		return d
	}
	if strings.HasPrefix(d, "0") {
		return "6" + d
	}
	return d
}

func celcomCellAmount(cell string) *float64 {
	return parseAmount(squash(cell))
}

func (r *CelcomRegisteredRow) setField(key string, v *float64) {
	switch key {
	case "credit_limit":
		r.CreditLimit = v
	case "one_time":
		r.OneTime = v
	case "monthly":
		r.Monthly = v
	case "usage":
		r.Usage = v
	case "discounts":
		r.Discounts = v
	case "total":
		r.Total = v
	}
}

func (r *CelcomRegisteredRow) valueCount() int {
	n := 0
	for _, v := range []*float64{r.CreditLimit, r.OneTime, r.Monthly, r.Usage, r.Discounts, r.Total} {
		if v != nil {
			n++
		}
	}
	return n
}

// mergeFrom overlays src's non-nil fields; a later page's row for the
// same mobile fills the gaps of an earlier, partially recovered one.
func (r *CelcomRegisteredRow) mergeFrom(src CelcomRegisteredRow) {
	for _, f := range []struct {
		dst **float64
		src *float64
	}{
		{&r.CreditLimit, src.CreditLimit},
		{&r.OneTime, src.OneTime},
		{&r.Monthly, src.Monthly},
		{&r.Usage, src.Usage},
		{&r.Discounts, src.Discounts},
		{&r.Total, src.Total},
	} {
		if f.src != nil {
			*f.dst = f.src
		}
	}
}

// celcomRegisteredFuzzy rescues a table row whose cell boundaries were
// lost: the first token must look like a mobile number and the row
// must still carry at least six amounts, taken right to left.
func celcomRegisteredFuzzy(cells []string) *CelcomRegisteredRow {
	rowStr := squash(strings.Join(cells, " "))
	if rowStr == "" {
		return nil
	}
	m := celcomMobileLeadRe.FindStringSubmatch(rowStr)
	if m == nil {
		return nil
	}
	nums := celcomNumTokenRe.FindAllString(rowStr, -1)
	if len(nums) < 6 {
		return nil
	}
	six := nums[len(nums)-6:]
	return &CelcomRegisteredRow{
		Mobile:      celcomMobileNorm(m[1]),
		CreditLimit: parseAmount(six[0]),
		OneTime:     parseAmount(six[1]),
		Monthly:     parseAmount(six[2]),
		Usage:       parseAmount(six[3]),
		Discounts:   parseAmount(six[4]),
		Total:       parseAmount(six[5]),
	}
}

// parseCelcomRegistered walks the table from the page carrying the
// section heading forward, across continuation pages, until the next
// major section starts.
func parseCelcomRegistered(doc *extractor.Document, pagesText []string) []CelcomRegisteredRow {
	start := -1
	for i, t := range pagesText {
		if celcomHdrRegisteredRe.MatchString(t) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	var candidates []*extractor.Page
	for i := start; i < len(doc.Pages); i++ {
		if i == start || celcomHdrRegisteredRe.MatchString(pagesText[i]) {
			candidates = append(candidates, &doc.Pages[i])
			continue
		}
		if celcomRegStopRe.MatchString(pagesText[i]) {
			break
		}
		if len(candidates) >= 6 {
			break
		}
	}

	var out []CelcomRegisteredRow
	index := map[string]int{}

	keep := func(rec CelcomRegisteredRow) {
		if at, ok := index[rec.Mobile]; ok {
			out[at].mergeFrom(rec)
			return
		}
		index[rec.Mobile] = len(out)
		out = append(out, rec)
	}

	for _, pg := range candidates {
		for _, tbl := range pg.Tables() {
			cleaned := tbl.Clean()
			if len(cleaned) == 0 {
				continue
			}

			headerIdx := -1
			scan := len(cleaned)
			if scan > 8 {
				scan = 8
			}
			for ri := 0; ri < scan; ri++ {
				hasMobile, hasAmount := false, false
				for _, c := range cleaned[ri] {
					lc := strings.ToLower(c)
					if strings.Contains(lc, "mobile") {
						hasMobile = true
					}
					if celcomRegHeaderAmtRe.MatchString(lc) {
						hasAmount = true
					}
				}
				if hasMobile && hasAmount {
					headerIdx = ri
					break
				}
			}
			if headerIdx < 0 {
				continue
			}

			colmap := map[int]string{}
			hasMobileCol := false
			for j, name := range cleaned[headerIdx] {
				if k := celcomRegColumn(name); k != "" {
					colmap[j] = k
					if k == "mobile" {
						hasMobileCol = true
					}
				}
			}
			if !hasMobileCol {
				continue
			}

			for _, row := range cleaned[headerIdx+1:] {
				if len(row) > 0 && celcomRegTotalRowRe.MatchString(row[0]) {
					continue
				}
				rec := CelcomRegisteredRow{}
				for j, cell := range row {
					key, ok := colmap[j]
					if !ok {
						continue
					}
					if key == "mobile" {
						rec.Mobile = squash(cell)
					} else {
						rec.setField(key, celcomCellAmount(cell))
					}
				}

				have := rec.valueCount()
				mobileOK := rec.Mobile != "" && celcomMobileFullRe.MatchString(squash(rec.Mobile))
				if !mobileOK || have < 4 {
					if fz := celcomRegisteredFuzzy(row); fz != nil {
						rec = *fz
						have = 6
						mobileOK = true
					}
				}
				if !mobileOK || have < 4 {
					continue
				}
				rec.Mobile = celcomMobileNorm(rec.Mobile)
				keep(rec)
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	// No recognizable header anywhere: fuzzy-match whole rows.
	for _, pg := range candidates {
		for _, tbl := range pg.Tables() {
			for _, row := range tbl {
				fz := celcomRegisteredFuzzy(row)
				if fz == nil {
					continue
				}
				if _, ok := index[fz.Mobile]; ok {
					continue
				}
				index[fz.Mobile] = len(out)
				out = append(out, *fz)
			}
		}
	}
	return out
}

// parseCelcomRegisteredText is the last fallback: scan the section's
// plain text for a mobile-number line, then buffer amounts from the
// following lines until six have accumulated.
func parseCelcomRegisteredText(text string) []CelcomRegisteredRow {
	blk := sliceBetween(text, celcomHdrRegisteredRe, []*regexp.Regexp{
		celcomHdrMonthlyRe, celcomHdrDiscRe, celcomHdrCelcomRe,
		celcomHdrNonCelRe, celcomHdrLocalRe, celcomHdrVASRe, celcomPageBreakRe,
	})
	if blk == "" {
		return nil
	}

	var out []CelcomRegisteredRow
	var current *CelcomRegisteredRow
	var nums []string

	flush := func() {
		if current == nil || len(nums) < 6 {
			return
		}
		six := nums[len(nums)-6:]
		current.CreditLimit = parseAmount(six[0])
		current.OneTime = parseAmount(six[1])
		current.Monthly = parseAmount(six[2])
		current.Usage = parseAmount(six[3])
		current.Discounts = parseAmount(six[4])
		current.Total = parseAmount(six[5])
		out = append(out, *current)
		current = nil
		nums = nil
	}

	for _, rawLine := range strings.Split(blk, "\n") {
		ln := squash(rawLine)
		if ln == "" {
			continue
		}
		if celcomRegTextHdrRe.MatchString(ln) || celcomRegTextTot6Re.MatchString(ln) {
			current = nil
			nums = nil
			continue
		}

		if m := celcomMobileLeadRe.FindStringSubmatch(ln); m != nil {
			// A fresh mobile line closes whatever came before it;
			// partial rows are dropped, never cross-attributed.
			current = &CelcomRegisteredRow{Mobile: celcomMobileNorm(m[1])}
			nums = celcomNumTokenRe.FindAllString(ln[len(m[0]):], -1)
			flush()
			continue
		}
		if current == nil {
			continue
		}

		if found := celcomNumTokenRe.FindAllString(ln, -1); len(found) > 0 {
			nums = append(nums, found...)
			flush()
		}
	}
	flush()
	return out
}
