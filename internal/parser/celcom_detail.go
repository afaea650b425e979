package parser

import (
	"regexp"
	"strings"
)

// Monthly detailed charges. The section is a Description / From / To /
// Amount listing whose cells drift between lines under text
// extraction, so recovery is a carry machine: description fragments
// accumulate until a line supplies the dates, the amount, or both.
var (
	celcomMonthlyStartRe = regexp.MustCompile(`(?is)DETAILED\s+CHARGES.{0,200}?Monthly\b`)
	celcomMonthlyHintRe  = regexp.MustCompile(`(?i)(?:^|\n)\s*(?:Description\b|From(?:\s+Date)?\b|To(?:\s+Date)?\b|Period\s+From\b|Period\s+To\b|Amount\s*\(RM\))`)
	celcomMonthlySkipRe  = regexp.MustCompile(`(?i)^(?:Monthly\b.*|Detail(?:ed)?\s*Charges\b.*Monthly\b|Description|From(?:\s+Date)?|To(?:\s+Date)?|Period\s+From|Period\s+To|Amount\s*\(RM\))$`)
	celcomTotalAmtRe     = regexp.MustCompile(`(?i)^Total\s+(` + celcomNumRM + `)$`)

	celcomItemFullRe      = regexp.MustCompile(`^(.+?)\s+(` + celcomDate + `)\s+(` + celcomDate + `)\s+(` + celcomNumRM + `)$`)
	celcomItemTailRe      = regexp.MustCompile(`^(` + celcomDate + `)\s+(` + celcomDate + `)\s+(` + celcomNumRM + `)$`)
	celcomItemParenFullRe = regexp.MustCompile(`^(.+?)\s*\(\s*(` + celcomDate + `)\s*[–\-]\s*(` + celcomDate + `)\s*\)\s+(` + celcomNumRM + `)$`)
	celcomItemNoAmtRe     = regexp.MustCompile(`^(.+?)\s+(` + celcomDate + `)\s+(` + celcomDate + `)$`)
	celcomItemParenRe     = regexp.MustCompile(`^(.+?)\s*\(\s*(` + celcomDate + `)\s*[–\-]\s*(` + celcomDate + `)\s*\)$`)
	celcomDatesOnlyRe     = regexp.MustCompile(`^(` + celcomDate + `)\s+(` + celcomDate + `)$`)
	celcomBareAmtRe       = regexp.MustCompile(`^` + celcomNumRM + `$`)
	celcomBareIntRe       = regexp.MustCompile(`^\d{1,3}$`)
)

func parseCelcomMonthlyItems(detText string) ([]CelcomMonthlyItem, *float64) {
	blk := ""
	for _, loc := range celcomMonthlyStartRe.FindAllStringIndex(detText, -1) {
		sub := detText[loc[1]:]
		if !celcomMonthlyHintRe.MatchString(sub) {
			continue
		}
		ends := []*regexp.Regexp{
			celcomHdrDiscRe, celcomHdrCelcomRe, celcomHdrNonCelRe,
			celcomHdrVASRe, celcomHdrRegisteredRe, celcomPageBreakRe,
		}
		if at := minMatchIndex(sub, ends); at >= 0 {
			blk = sub[:at]
		} else {
			blk = sub
		}
		break
	}
	if blk == "" {
		blk = sliceBetween(detText, celcomHdrMonthlyRe, []*regexp.Regexp{
			celcomHdrDiscRe, celcomHdrCelcomRe, celcomHdrNonCelRe,
			celcomHdrVASRe, celcomHdrRegisteredRe, celcomPageBreakRe,
		})
	}

	var items []CelcomMonthlyItem
	var total *float64
	if blk == "" {
		return items, total
	}

	var carry []string
	var pending *CelcomMonthlyItem
	var pendingAmount *float64
	pendingDesc := ""

	reset := func() {
		carry = carry[:0]
		pending = nil
		pendingAmount = nil
		pendingDesc = ""
	}
	carried := func(head string) string {
		if len(carry) > 0 {
			return strings.TrimSpace(strings.Join(append(append([]string{}, carry...), head), " "))
		}
		return strings.TrimSpace(head)
	}

	for _, rawLine := range strings.Split(blk, "\n") {
		ln := squash(rawLine)
		if ln == "" {
			continue
		}
		if celcomMonthlySkipRe.MatchString(ln) {
			continue
		}

		if m := celcomTotalAmtRe.FindStringSubmatch(ln); m != nil {
			total = parseAmount(m[1])
			continue
		}

		if m := celcomItemFullRe.FindStringSubmatch(ln); m != nil {
			items = append(items, CelcomMonthlyItem{
				Description: carried(m[1]),
				FromDate:    m[2],
				ToDate:      m[3],
				Amount:      parseAmount(m[4]),
			})
			reset()
			continue
		}

		if m := celcomItemTailRe.FindStringSubmatch(ln); m != nil && (len(carry) > 0 || pendingDesc != "") {
			desc := pendingDesc
			if len(carry) > 0 {
				desc = strings.TrimSpace(strings.Join(carry, " "))
			}
			items = append(items, CelcomMonthlyItem{
				Description: desc,
				FromDate:    m[1],
				ToDate:      m[2],
				Amount:      parseAmount(m[3]),
			})
			reset()
			continue
		}

		if m := celcomItemParenFullRe.FindStringSubmatch(ln); m != nil {
			items = append(items, CelcomMonthlyItem{
				Description: carried(m[1]),
				FromDate:    m[2],
				ToDate:      m[3],
				Amount:      parseAmount(m[4]),
			})
			reset()
			continue
		}

		if m := celcomItemNoAmtRe.FindStringSubmatch(ln); m != nil {
			pending = &CelcomMonthlyItem{
				Description: carried(m[1]),
				FromDate:    m[2],
				ToDate:      m[3],
			}
			carry = carry[:0]
			continue
		}

		if m := celcomItemParenRe.FindStringSubmatch(ln); m != nil {
			pending = &CelcomMonthlyItem{
				Description: carried(m[1]),
				FromDate:    m[2],
				ToDate:      m[3],
			}
			carry = carry[:0]
			continue
		}

		if m := celcomDatesOnlyRe.FindStringSubmatch(ln); m != nil && (len(carry) > 0 || pendingDesc != "") {
			desc := pendingDesc
			if len(carry) > 0 {
				desc = strings.TrimSpace(strings.Join(carry, " "))
			}
			if pendingAmount != nil {
				items = append(items, CelcomMonthlyItem{
					Description: desc,
					FromDate:    m[1],
					ToDate:      m[2],
					Amount:      pendingAmount,
				})
				reset()
			} else {
				pending = &CelcomMonthlyItem{Description: desc, FromDate: m[1], ToDate: m[2]}
				carry = carry[:0]
			}
			continue
		}

		if celcomBareAmtRe.MatchString(ln) {
			if pending != nil {
				pending.Amount = parseAmount(ln)
				items = append(items, *pending)
				pending = nil
				continue
			}
			if len(carry) > 0 {
				pendingAmount = parseAmount(ln)
				pendingDesc = strings.TrimSpace(strings.Join(carry, " "))
				carry = carry[:0]
				continue
			}
		}

		// Page numbers and row counters are noise; anything else is a
		// description fragment waiting for its dates.
		if !celcomBareIntRe.MatchString(ln) {
			carry = append(carry, ln)
		}
	}

	if (total == nil || *total == 0) && len(items) > 0 {
		total = sumItemAmounts(items)
	}
	return items, total
}

// Discounts & Rebates. Only non-positive amounts survive: the section
// shares page space with the registered table, and positive amounts
// matched here are almost always bleed-through from it.
var (
	celcomDiscRegRow6Re = regexp.MustCompile(`(?i)^` + celcomMobile + `(?:\s+` + celcomNumRM + `){6}\s*$`)
	celcomAnyMobileRe   = regexp.MustCompile(`(?i)` + celcomMobile)
	celcomDiscTailRe    = regexp.MustCompile(`(?i)(` + celcomNumRM + `)\s*$`)
	celcomDashRowRe     = regexp.MustCompile(`^[—\-]+$`)
	celcomDiscBanRe     = regexp.MustCompile(`(?i)\b(?:DETAILED\s+CHARGES|Monthly(?:\s+Amount)?|From\s+Date|To\s+Date|Bill\s+Statement|Account\s+Number|Mobile\s+Number|Description|Amount\s*\(RM\)|Registered\s+Mobile\s+Number|Your\s+Calls|Value\s+Added\s+Services)\b`)
)

func parseCelcomDiscountItems(detText string) ([]CelcomDiscountItem, *float64) {
	blk := sliceBetween(detText, celcomHdrDiscRe, []*regexp.Regexp{
		celcomHdrCelcomRe, celcomHdrNonCelRe, celcomHdrLocalRe,
		celcomHdrVASRe, celcomHdrRegisteredRe, celcomHdrMonthlyRe, celcomPageBreakRe,
	})
	var items []CelcomDiscountItem
	var total *float64
	if blk == "" {
		return items, total
	}

	var pendingDesc []string
	started := false

	emit := func(amountStr string) {
		desc := squash(strings.Join(pendingDesc, " "))
		amt := parseAmount(amountStr)
		if desc != "" && amt != nil && *amt <= 0 {
			items = append(items, CelcomDiscountItem{Description: desc, Amount: amt})
			started = true
		}
		pendingDesc = pendingDesc[:0]
	}

	for _, rawLine := range strings.Split(blk, "\n") {
		ln := squash(rawLine)
		if ln == "" {
			continue
		}
		if celcomRegTextHdrRe.MatchString(ln) || celcomRegTextTot6Re.MatchString(ln) || celcomDiscRegRow6Re.MatchString(ln) {
			pendingDesc = pendingDesc[:0]
			started = true
			continue
		}
		if celcomAnyMobileRe.MatchString(ln) {
			continue
		}
		if m := celcomTotalAmtRe.FindStringSubmatch(ln); m != nil {
			total = parseAmount(m[1])
			pendingDesc = pendingDesc[:0]
			started = true
			continue
		}
		if !started && (strings.Contains(ln, ":") || celcomDiscBanRe.MatchString(ln)) {
			continue
		}

		if m := celcomDiscTailRe.FindStringSubmatchIndex(ln); m != nil {
			head := strings.TrimSpace(ln[:m[2]])
			if strings.EqualFold(head, "total") {
				continue
			}
			if head != "" && !celcomDiscBanRe.MatchString(head) {
				pendingDesc = append(pendingDesc, head)
				emit(ln[m[2]:m[3]])
				continue
			}
		}

		if len(pendingDesc) > 0 && celcomBareAmtRe.MatchString(ln) {
			emit(ln)
			continue
		}

		if !celcomDiscBanRe.MatchString(ln) && !celcomDashRowRe.MatchString(ln) {
			pendingDesc = append(pendingDesc, ln)
		}
	}

	if (total == nil || *total == 0) && len(items) > 0 {
		var sum float64
		for _, it := range items {
			sum += amountOrZero(it.Amount)
		}
		total = floatPtr(round2(sum))
	}
	return items, total
}

// Call listings. The Celcom, non-Celcom, and local sections share a
// layout: date, time, called number, duration, free calls, amount.
var (
	celcomCallHdrRowRe = regexp.MustCompile(`(?i)^(Date\s+Time|Called Number|Duration|Free Calls|Amount \(RM\))$`)
	celcomCallTotalRe  = regexp.MustCompile(`(?i)^Total\s+(` + celcomDur + `)\s+(` + celcomNum + `)\s+(` + celcomNum + `)\s*$`)
	celcomCallRowRe    = regexp.MustCompile(`(` + celcomDate + `)\s+(` + celcomTime + `)\s+(\+?6?0?\s?\d[\d\- ]+)\s+(` + celcomDur + `)\s+(` + celcomNum + `)\s+(` + celcomNum + `)\s*$`)
	celcomDurFullRe    = regexp.MustCompile(`^\d{1,3}:\d{2}(?::\d{2})?$`)
)

func parseCelcomCalls(detText string, hdr *regexp.Regexp) ([]CelcomCallRow, *float64, string) {
	var ends []*regexp.Regexp
	switch hdr {
	case celcomHdrLocalRe:
		ends = []*regexp.Regexp{celcomHdrCelcomRe, celcomHdrNonCelRe, celcomHdrVASRe, celcomHdrRegisteredRe, celcomPageBreakRe}
	case celcomHdrCelcomRe:
		ends = []*regexp.Regexp{celcomHdrNonCelRe, celcomHdrVASRe, celcomHdrRegisteredRe, celcomPageBreakRe}
	default:
		ends = []*regexp.Regexp{celcomHdrCelcomRe, celcomHdrVASRe, celcomHdrRegisteredRe, celcomPageBreakRe}
	}

	blk := sliceBetween(detText, hdr, ends)
	var rows []CelcomCallRow
	var totalAmt *float64
	totalDur := ""

	for _, rawLine := range strings.Split(blk, "\n") {
		ln := strings.TrimSpace(rawLine)
		if ln == "" || celcomCallHdrRowRe.MatchString(ln) {
			continue
		}
		if m := celcomCallTotalRe.FindStringSubmatch(ln); m != nil {
			totalDur = m[1]
			totalAmt = parseAmount(m[3])
			continue
		}
		if m := celcomCallRowRe.FindStringSubmatch(ln); m != nil {
			rows = append(rows, CelcomCallRow{
				Date:         m[1],
				Time:         m[2],
				CalledNumber: strings.TrimSpace(m[3]),
				Duration:     m[4],
				FreeCalls:    parseAmount(m[5]),
				Amount:       parseAmount(m[6]),
			})
		}
	}

	if (totalAmt == nil || *totalAmt == 0) && len(rows) > 0 {
		var sum float64
		for _, r := range rows {
			sum += amountOrZero(r.Amount)
		}
		totalAmt = floatPtr(round2(sum))
	}
	if totalDur == "" && len(rows) > 0 {
		totalDur = sumCallDurations(rows)
	}
	return rows, totalAmt, totalDur
}

func sumCallDurations(rows []CelcomCallRow) string {
	secs := 0
	seen := false
	for _, r := range rows {
		if !celcomDurFullRe.MatchString(r.Duration) {
			continue
		}
		if n, ok := parseDuration(r.Duration); ok {
			secs += n
			seen = true
		}
	}
	if !seen {
		return ""
	}
	return formatDuration(secs)
}

// Value added services: date, optional time, description, optional
// called number, amount. Continuation lines extend the previous
// description.
var (
	celcomVASHdrRe = regexp.MustCompile(`(?i)^(Date\s+Time|Description|Called Number|Amount \(RM\)|Value Added Services)$`)
	celcomVASTotRe = regexp.MustCompile(`(?i)^Total\s+(` + celcomNum + `)\s*$`)
	celcomVASRowRe = regexp.MustCompile(`^(` + celcomDate + `)(?:\s+(` + celcomTime + `))?\s+(.*)$`)
	celcomVASAmtRe = regexp.MustCompile(`(` + celcomNum + `)\s*$`)
	celcomVASNumRe = regexp.MustCompile(`(\+?6?0?\d[\d\-]+)\s*$`)
)

func parseCelcomVAS(detText string) ([]CelcomVASRow, *float64) {
	blk := sliceBetween(detText, celcomHdrVASRe, []*regexp.Regexp{celcomHdrRegisteredRe, celcomPageBreakRe})
	var rows []CelcomVASRow
	var total *float64

	for _, rawLine := range strings.Split(blk, "\n") {
		ln := strings.TrimSpace(rawLine)
		if ln == "" || celcomVASHdrRe.MatchString(ln) {
			continue
		}
		if m := celcomVASTotRe.FindStringSubmatch(ln); m != nil {
			total = parseAmount(m[1])
			continue
		}
		if m := celcomVASRowRe.FindStringSubmatch(ln); m != nil {
			row := CelcomVASRow{Date: m[1], Time: m[2]}
			tail := m[3]
			if am := celcomVASAmtRe.FindStringSubmatchIndex(tail); am != nil {
				row.Amount = parseAmount(tail[am[2]:am[3]])
				tail = strings.TrimSpace(tail[:am[2]])
			}
			if nm := celcomVASNumRe.FindStringSubmatchIndex(tail); nm != nil {
				row.CalledNumber = tail[nm[2]:nm[3]]
				tail = strings.TrimSpace(tail[:nm[2]])
			}
			row.Description = tail
			rows = append(rows, row)
			continue
		}
		if len(rows) > 0 {
			last := &rows[len(rows)-1]
			last.Description = squash(last.Description + " " + ln)
		}
	}

	if (total == nil || *total == 0) && len(rows) > 0 {
		var sum float64
		for _, r := range rows {
			sum += amountOrZero(r.Amount)
		}
		total = floatPtr(round2(sum))
	}
	return rows, total
}

func sumItemAmounts(items []CelcomMonthlyItem) *float64 {
	var sum float64
	seen := false
	for _, it := range items {
		if it.Amount != nil {
			sum += *it.Amount
			seen = true
		}
	}
	if !seen {
		return nil
	}
	return floatPtr(round2(sum))
}

func sumRegistered(rows []CelcomRegisteredRow, pick func(CelcomRegisteredRow) *float64) *float64 {
	var sum float64
	seen := false
	for _, r := range rows {
		if v := pick(r); v != nil {
			sum += *v
			seen = true
		}
	}
	if !seen {
		return nil
	}
	return floatPtr(round2(sum))
}

// assembleCelcom reconciles the section parses into per-number
// details. When the bill has no itemized monthly section, each
// registered number gets a synthetic plan line so downstream always
// sees at least one charge per mobile.
func assembleCelcom(raw *CelcomRaw) {
	planName := raw.Header.PlanName
	if planName == "" {
		planName = "Monthly Commitment"
	}

	synthPerMobile := map[string][]CelcomMonthlyItem{}
	if len(raw.MonthlyItems) == 0 && len(raw.Registered) > 0 {
		raw.Totals.Monthly = sumRegistered(raw.Registered, func(r CelcomRegisteredRow) *float64 { return r.Monthly })
		for _, r := range raw.Registered {
			if r.Mobile == "" || r.Monthly == nil || *r.Monthly == 0 {
				continue
			}
			synthPerMobile[r.Mobile] = []CelcomMonthlyItem{{
				Description: planName + " - Monthly Fee",
				FromDate:    raw.Header.BillingFrom,
				ToDate:      raw.Header.BillingTo,
				Amount:      floatPtr(round2(*r.Monthly)),
			}}
		}
	}
	if (raw.Totals.Monthly == nil || *raw.Totals.Monthly == 0) && len(raw.MonthlyItems) > 0 {
		raw.Totals.Monthly = sumItemAmounts(raw.MonthlyItems)
	}

	// Local duration synthesized from the split sections when the bill
	// has no explicit local section.
	if raw.Totals.DurLocal == "" && (raw.Totals.DurCelcom != "" || raw.Totals.DurNonCelcom != "") {
		secs := 0
		if n, ok := parseDuration(raw.Totals.DurCelcom); ok {
			secs += n
		}
		if n, ok := parseDuration(raw.Totals.DurNonCelcom); ok {
			secs += n
		}
		raw.Totals.DurLocal = formatDuration(secs)
	}

	var mobiles []string
	for _, r := range raw.Registered {
		mobiles = append(mobiles, r.Mobile)
	}
	if len(mobiles) == 0 {
		fallback := raw.Header.ServiceNumber
		if fallback == "" {
			fallback = "UNKNOWN"
		}
		mobiles = []string{fallback}
	}

	usage := floatPtr(round2(amountOrZero(raw.Totals.CallsCelcom) + amountOrZero(raw.Totals.CallsNonCelcom)))

	regByMobile := map[string]CelcomRegisteredRow{}
	for _, r := range raw.Registered {
		regByMobile[r.Mobile] = r
	}

	raw.PerNumber = raw.PerNumber[:0]
	for _, mob := range mobiles {
		items := raw.MonthlyItems
		if len(items) == 0 {
			items = synthPerMobile[mob]
		}
		d := CelcomNumberDetail{
			Mobile:    mob,
			Monthly:   raw.Totals.Monthly,
			Usage:     usage,
			Discounts: raw.Totals.Discounts,
			Items:     items,
			DurCelcom: raw.Totals.DurCelcom, DurNonCelcom: raw.Totals.DurNonCelcom,
			DurLocal: raw.Totals.DurLocal,
		}
		if len(items) > 0 {
			d.MonthlyDesc = items[0].Description
		}
		if len(mobiles) == 1 {
			d.DiscountItems = raw.DiscountItems
		}

		// Registered table figures are authoritative per mobile.
		if r, ok := regByMobile[mob]; ok {
			if r.Monthly != nil {
				d.Monthly = r.Monthly
				if len(raw.MonthlyItems) == 0 && len(d.Items) == 0 {
					d.Items = []CelcomMonthlyItem{{
						Description: planName + " - Monthly Fee",
						FromDate:    raw.Header.BillingFrom,
						ToDate:      raw.Header.BillingTo,
						Amount:      r.Monthly,
					}}
					d.MonthlyDesc = d.Items[0].Description
				}
			}
			if r.Usage != nil {
				d.Usage = r.Usage
			}
			if r.Discounts != nil {
				d.Discounts = r.Discounts
			}
		}
		d.Total = round2(amountOrZero(d.Monthly) + amountOrZero(d.Usage) + amountOrZero(d.Discounts))
		raw.PerNumber = append(raw.PerNumber, d)
	}

	raw.RegisteredTotals = CelcomRegisteredTotals{
		Count:        len(raw.Registered),
		SumOneTime:   sumRegistered(raw.Registered, func(r CelcomRegisteredRow) *float64 { return r.OneTime }),
		SumMonthly:   sumRegistered(raw.Registered, func(r CelcomRegisteredRow) *float64 { return r.Monthly }),
		SumUsage:     sumRegistered(raw.Registered, func(r CelcomRegisteredRow) *float64 { return r.Usage }),
		SumDiscounts: sumRegistered(raw.Registered, func(r CelcomRegisteredRow) *float64 { return r.Discounts }),
		SumTotal:     sumRegistered(raw.Registered, func(r CelcomRegisteredRow) *float64 { return r.Total }),
	}
	if raw.Totals.Monthly == nil {
		raw.Totals.Monthly = raw.RegisteredTotals.SumMonthly
	}
}
