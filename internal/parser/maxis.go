package parser

import (
	"regexp"
	"strings"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/extractor"
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/models"
)

// Maxis bills are section oriented: a global bill statement on the
// first two pages, then one section per billed number whose charge and
// call tables can run across several pages. Section membership is
// positional; a page with no fresh number+plan match belongs to the
// section that is currently open.

// MaxisRaw is the full unnormalized parse of a Maxis bill.
type MaxisRaw struct {
	BillStatement      MaxisBillStatement `json:"bill_statement"`
	PaymentAdjustments []MaxisPaymentRow  `json:"payment_adjustments"`
	Lines              []MaxisLine        `json:"lines"`
}

// MaxisBillStatement carries the page 1 header and the page 2 current
// charges block.
type MaxisBillStatement struct {
	AccountNumber   string              `json:"account_number,omitempty"`
	BillReference   string              `json:"bill_reference,omitempty"`
	StatementDate   string              `json:"statement_date,omitempty"`
	BillingFrom     string              `json:"billing_from,omitempty"`
	BillingTo       string              `json:"billing_to,omitempty"`
	OverdueAmount   *float64            `json:"overdue_amount,omitempty"`
	PreviousBalance *float64            `json:"previous_balance,omitempty"`
	PaymentReceived *float64            `json:"payment_received,omitempty"`
	Adjustment      *float64            `json:"adjustment,omitempty"`
	PaymentLastDate string              `json:"payment_last_date,omitempty"`
	CurrentCharges  MaxisCurrentCharges `json:"current_charges"`
}

type MaxisCurrentCharges struct {
	MobileTotal         *float64           `json:"mobile_total,omitempty"`
	Lines               []MaxisCurrentLine `json:"lines,omitempty"`
	TotalChargesExclTax *float64           `json:"total_charges_excl_tax,omitempty"`
	ServiceTax          *float64           `json:"service_tax,omitempty"`
	ServiceTaxRate      *float64           `json:"service_tax_rate,omitempty"`
	TotalCurrentCharges *float64           `json:"total_current_charges,omitempty"`
}

type MaxisCurrentLine struct {
	ServiceNo string   `json:"service_no"`
	Plan      string   `json:"plan"`
	Amount    *float64 `json:"amount"`
}

type MaxisPaymentRow struct {
	Description       string   `json:"description,omitempty"`
	ServiceIdentifier string   `json:"service_identifier,omitempty"`
	Date              string   `json:"date,omitempty"`
	Amount            *float64 `json:"amount,omitempty"`
	SvcTax            *float64 `json:"svc_tax,omitempty"`
	Total             *float64 `json:"total,omitempty"`
}

type MaxisChargeRow struct {
	Item       string   `json:"item"`
	DatePeriod string   `json:"date_period,omitempty"`
	Amount     *float64 `json:"amount,omitempty"`
	Total      *float64 `json:"total,omitempty"`
}

type MaxisCallRow struct {
	Date         string   `json:"date,omitempty"`
	Time         string   `json:"time,omitempty"`
	NumberCalled string   `json:"number_called,omitempty"`
	Duration     string   `json:"duration,omitempty"`
	DurationSec  *int     `json:"duration_sec,omitempty"`
	Period       string   `json:"period,omitempty"`
	GrossAmount  *float64 `json:"gross_amount,omitempty"`
	Total        *float64 `json:"total,omitempty"`
}

// MaxisLine is one finalized per-number section.
type MaxisLine struct {
	ServiceNo             string           `json:"service_no"`
	Plan                  string           `json:"plan,omitempty"`
	AccountName           string           `json:"account_name,omitempty"`
	ShareProductServiceNo string           `json:"share_product_service_no,omitempty"`
	Pages                 []int            `json:"pages,omitempty"`
	Charges               []MaxisChargeRow `json:"charges"`
	Calls                 []MaxisCallRow   `json:"calls"`
	CallsSubtotal         *float64         `json:"calls_subtotal_rm,omitempty"`
}

var (
	maxisMsisdnRe    = regexp.MustCompile(`60(?:\s*\d){8,9}`)
	maxisPlanRe      = regexp.MustCompile(`(?i)Business\s+Postpaid\s+\d+(?:\s+[A-Za-z].*)?`)
	maxisStmtDateRe  = regexp.MustCompile(`(?i)(?:Statement\s*Date|Tarikh\s*Penyata)\s*[:\-]?\s*(\d{2}/\d{2}/\d{4})`)
	maxisPeriodRe    = regexp.MustCompile(`(?i)(?:Billing\s*Period|Tempoh\s*Bil).*?(\d{2}/\d{2}/\d{4}).*?(\d{2}/\d{2}/\d{4})`)
	maxisPayLastRe   = regexp.MustCompile(`(?i)Payment\s*Last\s*Date.*?(\d{2}/\d{2}/\d{4})`)
	maxisCurrMobRe   = regexp.MustCompile(`(?i)^\s*MOBILE\s+([0-9,]+\.\d{2})\s*$`)
	maxisCurrLineRe  = regexp.MustCompile(`(?i)^\s*(60(?:\s*\d){8,9})\s*[-–]\s*(Business\s+Postpaid\s+\d+(?:\s+[A-Za-z].*)?)\s+([0-9,]+\.\d{2})\s*$`)
	maxisTotExclRe   = regexp.MustCompile(`(?i)Total\s+Charges\s*\(excluding\s*Svc\.\s*Tax\)\s*([0-9,]+\.\d{2})`)
	maxisSvcTaxRe    = regexp.MustCompile(`(?i)Service\s*Tax\s*\((\d+(?:\.\d+)?)%\s*.*?\)\s*([0-9,]+\.\d{2})`)
	maxisTotCurrRe   = regexp.MustCompile(`(?i)TOTAL\s+CURRENT\s+CHARGES.*?([0-9,]+\.\d{2})`)
	maxisAcctNameRe  = regexp.MustCompile(`Account Name\s*/\s*Nama Akaun\s*:\s*(.+)`)
	maxisShareNoRe   = regexp.MustCompile(`Share Product Service No\.\s*:\s*([0-9 ]+)`)
	maxisItemLineRe  = regexp.MustCompile(`(?i)^\s*Y\s+.+?([0-9,]*\.\d{2})\s*$`)
	maxisTotalLineRe = regexp.MustCompile(`(?i)^\s*Total Line Charges.*?([0-9,]*\.\d{2})\s*$`)
	maxisCalledNumRe = regexp.MustCompile(`\b(?:0\d{8,11}|6\d{7,12})\b`)
	maxisBandRe      = regexp.MustCompile(`\b([A-Z])\b\s+[0-9,]*\.\d{2}\s*$`)
	maxisPayAdjRe    = regexp.MustCompile(`(?i)payment\s*&\s*adjustment`)
	maxisPaySrcRe    = regexp.MustCompile(`(?i)JomPay|PAYMENT|GIRO|FPX|BANK|CREDIT`)
	maxisAcctNumRe   = regexp.MustCompile(`\b\d{8,12}\b`)
	maxisBillRefRe   = regexp.MustCompile(`\b\d{6,15}\b`)
	maxisAmtStripRe  = regexp.MustCompile(`\s*\(?[0-9,]+\.\d{2}\)?\s*$`)
)

// maxisSection accumulates one number's pages while scanning.
type maxisSection struct {
	serviceNo     string
	plan          string
	pages         []int
	accountName   string
	shareNo       string
	charges       []MaxisChargeRow
	calls         []MaxisCallRow
	callsSubtotal *float64
}

type MaxisParser struct{}

func (p *MaxisParser) VendorName() string { return string(models.VendorMaxis) }

func (p *MaxisParser) Parse(doc *extractor.Document) (*models.InvoicePackage, error) {
	log := &issueLog{vendor: models.VendorMaxis}
	raw := &MaxisRaw{}

	log.capture(1, "bill_statement", func() {
		p.parseBillStatement(doc, raw, log)
	})

	sections := p.discoverSections(doc)
	for _, sec := range sections {
		p.parseSectionPages(doc, sec, log)
		line := MaxisLine{
			ServiceNo:             sec.serviceNo,
			Plan:                  sec.plan,
			AccountName:           sec.accountName,
			ShareProductServiceNo: sec.shareNo,
			Pages:                 sec.pages,
			Charges:               sec.charges,
			Calls:                 sec.calls,
			CallsSubtotal:         sec.callsSubtotal,
		}
		if line.Charges == nil {
			line.Charges = []MaxisChargeRow{}
		}
		if line.Calls == nil {
			line.Calls = []MaxisCallRow{}
		}
		raw.Lines = append(raw.Lines, line)
	}

	pkg := maxisPackage(raw)
	pkg.Issues = log.issues
	return pkg, nil
}

// parseBillStatement reads the global header from page 1 and the
// current-charges block plus the payments table from page 2. Labels are
// bilingual; when the amount is not on the labeled line itself, the
// next few lines are searched (window of 4).
func (p *MaxisParser) parseBillStatement(doc *extractor.Document, raw *MaxisRaw, log *issueLog) {
	bs := &raw.BillStatement
	if len(doc.Pages) == 0 {
		return
	}
	lines := doc.Pages[0].Lines

	for i, l := range lines {
		ll := strings.ToLower(l)

		if bs.StatementDate == "" && (strings.Contains(ll, "statement date") || strings.Contains(ll, "tarikh penyata")) {
			if m := maxisStmtDateRe.FindStringSubmatch(l); m != nil {
				bs.StatementDate = m[1]
			} else {
				bs.StatementDate = firstDateNear(lines, i, 4)
			}
		}
		if (bs.BillingFrom == "" || bs.BillingTo == "") && (strings.Contains(ll, "billing period") || strings.Contains(ll, "tempoh bil")) {
			if m := maxisPeriodRe.FindStringSubmatch(l); m != nil {
				bs.BillingFrom, bs.BillingTo = m[1], m[2]
			} else {
				bs.BillingFrom, bs.BillingTo = twoDatesNear(lines, i, 4)
			}
		}
		if bs.AccountNumber == "" && (strings.Contains(ll, "account no") || strings.Contains(ll, "no. akaun")) {
			span := joinWindow(lines, i, 4)
			if nums := maxisAcctNumRe.FindAllString(span, -1); len(nums) > 0 {
				bs.AccountNumber = nums[len(nums)-1]
			}
		}
		if bs.BillReference == "" && (strings.Contains(ll, "bill reference") || strings.Contains(ll, "no. rujukan")) {
			span := joinWindow(lines, i, 4)
			if nums := maxisBillRefRe.FindAllString(span, -1); len(nums) > 0 {
				bs.BillReference = nums[len(nums)-1]
			}
		}
		if bs.OverdueAmount == nil && (strings.Contains(ll, "overdue amount") || strings.Contains(ll, "caj tertunggak")) {
			bs.OverdueAmount = trailingOrNearAmount(lines, i, l)
		}
		if bs.PreviousBalance == nil && (strings.Contains(ll, "previous balance") || strings.Contains(ll, "baki terdahulu")) {
			bs.PreviousBalance = trailingOrNearAmount(lines, i, l)
		}
		if bs.PaymentReceived == nil && (strings.Contains(ll, "payment received") || strings.Contains(ll, "bayaran diterima")) {
			bs.PaymentReceived = trailingOrNearAmount(lines, i, l)
		}
		if bs.Adjustment == nil && (strings.Contains(ll, "adjustment") || strings.Contains(ll, "pelarasan")) {
			bs.Adjustment = trailingOrNearAmount(lines, i, l)
		}
		if bs.PaymentLastDate == "" && (strings.Contains(ll, "payment last date") || strings.Contains(ll, "tarikh akhir bayaran")) {
			if m := maxisPayLastRe.FindStringSubmatch(l); m != nil {
				bs.PaymentLastDate = m[1]
			} else {
				bs.PaymentLastDate = firstDateNear(lines, i, 4)
			}
		}
	}

	if len(doc.Pages) < 2 {
		return
	}
	page2 := &doc.Pages[1]
	cc := &bs.CurrentCharges
	for _, l := range page2.Lines {
		if m := maxisCurrMobRe.FindStringSubmatch(l); m != nil {
			cc.MobileTotal = parseAmount(m[1])
			continue
		}
		if m := maxisCurrLineRe.FindStringSubmatch(l); m != nil {
			cc.Lines = append(cc.Lines, MaxisCurrentLine{
				ServiceNo: normalizeMsisdn(m[1]),
				Plan:      strings.TrimSpace(m[2]),
				Amount:    parseAmount(m[3]),
			})
			continue
		}
		if m := maxisTotExclRe.FindStringSubmatch(l); m != nil {
			cc.TotalChargesExclTax = parseAmount(m[1])
		}
		if m := maxisSvcTaxRe.FindStringSubmatch(l); m != nil {
			cc.ServiceTaxRate = parseAmount(m[1])
			cc.ServiceTax = parseAmount(m[2])
		}
		if m := maxisTotCurrRe.FindStringSubmatch(l); m != nil {
			cc.TotalCurrentCharges = parseAmount(m[1])
		}
	}

	log.capture(2, "payments", func() {
		p.parsePayments(page2, raw)
	})

	// Bills that omit the header figure still disclose payments in the
	// adjustments table; their sum stands in for payment_received.
	if bs.PaymentReceived == nil {
		sum := 0.0
		found := false
		for _, row := range raw.PaymentAdjustments {
			if row.Total != nil {
				sum += *row.Total
				found = true
			}
		}
		if found {
			bs.PaymentReceived = floatPtr(sum)
		}
	}
}

// parsePayments looks for the payments & adjustments table on page 2
// (header containing description+date), with a keyword line scan as
// fallback when no table matched.
func (p *MaxisParser) parsePayments(page *extractor.Page, raw *MaxisRaw) {
	for _, t := range page.Tables() {
		t = t.Clean()
		if len(t) < 2 || len(t[0]) < 3 {
			continue
		}
		header := strings.ToLower(strings.Join(t[0], " "))
		if (strings.Contains(header, "description") || strings.Contains(header, "penerangan")) &&
			(strings.Contains(header, "date") || strings.Contains(header, "tarikh")) {
			head, body := maxisHeaderBody(t, false)
			rows := normalizeMaxisPayments(head, body)
			if len(rows) > 0 {
				raw.PaymentAdjustments = append(raw.PaymentAdjustments, rows...)
				return
			}
		}
	}

	for _, l := range page.Lines {
		if !anyDateRe.MatchString(l) && !anyAmountRe.MatchString(l) {
			continue
		}
		if !maxisPaySrcRe.MatchString(l) || maxisPayAdjRe.MatchString(l) {
			continue
		}
		row := MaxisPaymentRow{Date: anyDateRe.FindString(l)}
		nums := anyAmountRe.FindAllString(l, -1)
		if len(nums) > 0 {
			row.Total = parseAmount(nums[len(nums)-1])
			if len(nums) > 1 {
				row.Amount = parseAmount(nums[len(nums)-2])
			}
		}
		row.Description = strings.TrimSpace(maxisAmtStripRe.ReplaceAllString(l, ""))
		raw.PaymentAdjustments = append(raw.PaymentAdjustments, row)
	}
}

// payment table row assembly. Long descriptions wrap onto value-less
// rows; the machine holds them until a value-bearing row completes the
// record.
type maxisPayState int

const (
	maxisPayIdle maxisPayState = iota
	maxisPayCarrying
)

func normalizeMaxisPayments(header []string, body extractor.Table) []MaxisPaymentRow {
	cDesc := pickColumn(header, "description", "penerangan")
	cSid := pickColumn(header, "service identifier", "pengecam")
	cDate := pickColumn(header, "date", "tarikh")
	cAmt := pickColumn(header, "amount", "amaun")
	cSvc := pickColumn(header, "svc", "cukai")
	cTot := pickColumn(header, "total", "jumlah")

	var (
		out       []MaxisPaymentRow
		state     maxisPayState
		carryDesc string
		carrySid  string
	)
	for _, r := range body {
		desc := cellAt(r, cDesc)
		if maxisPayAdjRe.MatchString(desc) {
			continue
		}
		sid := cellAt(r, cSid)
		date := cellAt(r, cDate)
		amt := parseAmount(cellAt(r, cAmt))
		svc := parseAmount(cellAt(r, cSvc))
		tot := parseAmount(cellAt(r, cTot))
		hasValue := date != "" || amt != nil || svc != nil || tot != nil

		if desc != "" && !hasValue {
			if state == maxisPayCarrying {
				carryDesc = carryDesc + " - " + desc
			} else {
				carryDesc = desc
				state = maxisPayCarrying
			}
			if sid != "" {
				carrySid = sid
			}
			continue
		}
		if !hasValue {
			continue
		}

		fullDesc := desc
		if state == maxisPayCarrying {
			fullDesc = strings.TrimSpace(carryDesc + " " + desc)
		}
		fullSid := sid
		if fullSid == "" {
			fullSid = carrySid
		}
		out = append(out, MaxisPaymentRow{
			Description:       fullDesc,
			ServiceIdentifier: fullSid,
			Date:              date,
			Amount:            amt,
			SvcTax:            svc,
			Total:             tot,
		})
		state, carryDesc, carrySid = maxisPayIdle, "", ""
	}

	// A bare "PAYMENT" row is a label for the row that follows it.
	var merged []MaxisPaymentRow
	for i := 0; i < len(out); i++ {
		r := out[i]
		if strings.EqualFold(strings.TrimSpace(r.Description), "payment") && i+1 < len(out) {
			nxt := out[i+1]
			if nxt.Description != "" && (nxt.Date != "" || nxt.Amount != nil) {
				if nxt.SvcTax == nil {
					nxt.SvcTax = r.SvcTax
				}
				if nxt.Total == nil {
					nxt.Total = r.Total
				}
				if nxt.ServiceIdentifier == "" {
					nxt.ServiceIdentifier = r.ServiceIdentifier
				}
				nxt.Description = "PAYMENT - " + nxt.Description
				merged = append(merged, nxt)
				i++
				continue
			}
		}
		if !maxisPayAdjRe.MatchString(r.Description) {
			merged = append(merged, r)
		}
	}

	var cleaned []MaxisPaymentRow
	for _, r := range merged {
		if r.Date != "" || r.Amount != nil || r.Total != nil || r.SvcTax != nil {
			cleaned = append(cleaned, r)
		}
	}
	return cleaned
}

// discoverSections walks every page looking for a spaced-out msisdn
// co-occurring with a plan name. A match opens (or reopens) that
// number's section; pages without a match are carried into whichever
// section is currently open, since one line's detail spans pages.
func (p *MaxisParser) discoverSections(doc *extractor.Document) []*maxisSection {
	var (
		ordered []*maxisSection
		byNum   = map[string]*maxisSection{}
		cur     *maxisSection
	)
	for _, page := range doc.Pages {
		txt := page.Text
		if txt == "" {
			continue
		}
		mNum := maxisMsisdnRe.FindString(txt)
		mPlan := maxisPlanRe.FindString(txt)
		if mNum != "" && mPlan != "" {
			msisdn := normalizeMsisdn(mNum)
			sec, ok := byNum[msisdn]
			if !ok {
				sec = &maxisSection{serviceNo: msisdn, plan: strings.TrimSpace(mPlan)}
				byNum[msisdn] = sec
				ordered = append(ordered, sec)
			} else if sec.plan == "" {
				sec.plan = strings.TrimSpace(mPlan)
			}
			sec.pages = appendPage(sec.pages, page.Number)
			if m := maxisAcctNameRe.FindStringSubmatch(txt); m != nil {
				sec.accountName = strings.TrimSpace(m[1])
			}
			if m := maxisShareNoRe.FindStringSubmatch(txt); m != nil {
				sec.shareNo = normalizeMsisdn(m[1])
			}
			cur = sec
		} else if cur != nil {
			cur.pages = appendPage(cur.pages, page.Number)
		}
	}
	return ordered
}

// parseSectionPages classifies each owned page's tables as call or
// charge tables and normalizes them; pages with no usable table fall
// back to raw-text row scanning.
func (p *MaxisParser) parseSectionPages(doc *extractor.Document, sec *maxisSection, log *issueLog) {
	for _, pno := range sec.pages {
		if pno < 1 || pno > len(doc.Pages) {
			continue
		}
		page := &doc.Pages[pno-1]
		log.capture(pno, "section "+sec.serviceNo, func() {
			gotAny := false
			for _, t := range page.Tables() {
				t = t.Clean()
				if len(t) < 2 || len(t[0]) < 3 {
					continue
				}
				if sub := subtotalInTable(t); sub != nil {
					sec.callsSubtotal = sub
				}
				if isCallsTable(t) {
					head, body := maxisHeaderBody(t, true)
					rows := normalizeMaxisCalls(head, body)
					if len(rows) > 0 {
						sec.calls = append(sec.calls, rows...)
						gotAny = true
					}
					continue
				}
				top := strings.ToLower(strings.Join(t[0], " "))
				if strings.Contains(top, "item") || strings.Contains(top, "barang") {
					head, body := maxisHeaderBody(t, false)
					rows := normalizeMaxisCharges(head, body)
					if len(rows) > 0 {
						sec.charges = append(sec.charges, rows...)
						gotAny = true
					}
				}
			}
			if !gotAny {
				if rows := maxisChargesFromText(page.Lines); len(rows) > 0 {
					sec.charges = append(sec.charges, rows...)
					gotAny = true
				}
				if rows := maxisCallsFromText(page.Lines); len(rows) > 0 {
					sec.calls = append(sec.calls, rows...)
					gotAny = true
				}
			}
			if !gotAny {
				log.add(pno, "section "+sec.serviceNo, "no charge or call rows recovered")
			}
		})
	}
}

// maxisHeaderBody finds the true header row within the first three
// rows. Call tables need both a date and a time keyword; charge tables
// need an item keyword. Bilingual labels count.
func maxisHeaderBody(t extractor.Table, preferCalls bool) ([]string, extractor.Table) {
	scan := len(t)
	if scan > 3 {
		scan = 3
	}
	for i := 0; i < scan; i++ {
		rowText := strings.ToLower(strings.Join(t[i], " "))
		if preferCalls &&
			(strings.Contains(rowText, "date") || strings.Contains(rowText, "tarikh")) &&
			(strings.Contains(rowText, "time") || strings.Contains(rowText, "masa")) {
			return extractor.UniqueColumns(t[i]), t[i+1:]
		}
		if !preferCalls && (strings.Contains(rowText, "item") || strings.Contains(rowText, "barang")) {
			return extractor.UniqueColumns(t[i]), t[i+1:]
		}
	}
	return extractor.UniqueColumns(t[0]), t[1:]
}

func isCallsTable(t extractor.Table) bool {
	if len(t) == 0 || len(t[0]) < 3 {
		return false
	}
	header := strings.ToLower(strings.Join(t[0], " "))
	if containsAny(header, []string{"date", "time", "duration", "number", "tarikh", "masa", "tempoh"}) {
		return true
	}
	for _, row := range t {
		joined := strings.Join(row, " ")
		if anyDateRe.MatchString(joined) && anyTimeRe.MatchString(joined) {
			return true
		}
	}
	return false
}

func subtotalInTable(t extractor.Table) *float64 {
	for _, row := range t {
		line := strings.ToLower(strings.Join(row, " "))
		if strings.Contains(line, "subtotal") || strings.Contains(line, "jumlah kecil") {
			nums := anyAmountRe.FindAllString(strings.Join(row, " "), -1)
			if len(nums) > 0 {
				return parseAmount(nums[len(nums)-1])
			}
		}
	}
	return nil
}

func normalizeMaxisCalls(header []string, body extractor.Table) []MaxisCallRow {
	cDate := pickColumn(header, "date", "tarikh")
	cTime := pickColumn(header, "time", "masa")
	cNum := pickColumn(header, "number called", "no. panggilan")
	cDur := pickColumn(header, "duration", "tempoh")
	cBand := pickColumn(header, "period", "kadar")
	cGross := pickColumn(header, "gross", "kasar")
	cTot := pickColumn(header, "total", "jumlah")
	if cDate < 0 && cTime < 0 && cTot < 0 {
		return nil
	}

	var out []MaxisCallRow
	for _, r := range body {
		joined := strings.ToLower(strings.Join(r, " "))
		if strings.Contains(joined, "subtotal") || strings.Contains(joined, "jumlah kecil") {
			continue
		}
		row := MaxisCallRow{
			Date:         cellAt(r, cDate),
			Time:         cellAt(r, cTime),
			NumberCalled: cellAt(r, cNum),
			Duration:     cellAt(r, cDur),
			Period:       cellAt(r, cBand),
			GrossAmount:  parseAmount(cellAt(r, cGross)),
			Total:        parseAmount(cellAt(r, cTot)),
		}
		if secs, ok := parseDuration(row.Duration); ok {
			row.DurationSec = &secs
		}
		if row.Date == "" && row.Time == "" && row.Total == nil {
			continue
		}
		out = append(out, row)
	}
	return out
}

func normalizeMaxisCharges(header []string, body extractor.Table) []MaxisChargeRow {
	cItem := pickColumn(header, "item", "barang")
	cDate := pickColumn(header, "date", "period", "tarikh", "tempoh")
	cAmt := pickColumn(header, "amount", "amaun")
	cTot := pickColumn(header, "total", "jumlah")
	if cItem < 0 && cAmt < 0 && cTot < 0 {
		return nil
	}

	var out []MaxisChargeRow
	for _, r := range body {
		row := MaxisChargeRow{
			Item:       cellAt(r, cItem),
			DatePeriod: cellAt(r, cDate),
			Amount:     parseAmount(cellAt(r, cAmt)),
			Total:      parseAmount(cellAt(r, cTot)),
		}
		if row.Item == "" && row.Amount == nil && row.Total == nil {
			continue
		}
		out = append(out, row)
	}
	return out
}

// maxisChargesFromText recovers charge rows from pages whose table grid
// did not segment: itemized rows start with a "Y" marker and end with
// an amount, and the block closes with a Total Line Charges row.
func maxisChargesFromText(lines []string) []MaxisChargeRow {
	var out []MaxisChargeRow
	for _, l := range lines {
		if m := maxisItemLineRe.FindStringSubmatchIndex(l); m != nil {
			amt := parseAmount(l[m[2]:m[3]])
			out = append(out, MaxisChargeRow{
				Item:   strings.TrimSpace(l[:m[2]]),
				Amount: amt,
				Total:  amt,
			})
			continue
		}
		if m := maxisTotalLineRe.FindStringSubmatch(l); m != nil {
			amt := parseAmount(m[1])
			out = append(out, MaxisChargeRow{
				Item:   "Total Line Charges (excluding Svc. Tax)",
				Amount: amt,
				Total:  amt,
			})
			break
		}
	}
	return out
}

// maxisCallsFromText recovers call rows from flat text: a row is any
// line with a date and at least one time token; the first time is the
// call time and the last is the duration.
func maxisCallsFromText(lines []string) []MaxisCallRow {
	var out []MaxisCallRow
	for _, l := range lines {
		if !anyDateRe.MatchString(l) || !anyTimeRe.MatchString(l) {
			continue
		}
		times := anyTimeRe.FindAllString(l, -1)
		date := anyDateRe.FindString(l)
		var number string
		for _, m := range maxisCalledNumRe.FindAllString(l, -1) {
			number = m
		}
		var total *float64
		if m := trailingAmountRe.FindStringSubmatch(l); m != nil {
			total = parseAmount(m[1])
		}
		var band string
		if m := maxisBandRe.FindStringSubmatch(l); m != nil {
			band = m[1]
		}
		if date == "" || number == "" || total == nil {
			continue
		}
		row := MaxisCallRow{
			Date:         date,
			Time:         times[0],
			Duration:     times[len(times)-1],
			NumberCalled: number,
			Period:       band,
			Total:        total,
		}
		if *total == 0 {
			row.GrossAmount = floatPtr(0)
		}
		if secs, ok := parseDuration(row.Duration); ok {
			row.DurationSec = &secs
		}
		out = append(out, row)
	}
	return out
}

// ---- shared row helpers

// pickColumn returns the index of the first header containing one of
// the aliases, trying each alias across all headers before moving to
// the next, with a fuzzy pass for broken labels.
func pickColumn(header []string, alts ...string) int {
	for _, a := range alts {
		for i, h := range header {
			if strings.Contains(strings.ToLower(h), a) {
				return i
			}
		}
	}
	aliases := map[string][]string{"c": alts}
	for i, h := range header {
		if canonicalHeader(h, []string{"c"}, aliases) != "" {
			return i
		}
	}
	return -1
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func firstDateNear(lines []string, i, window int) string {
	for j := i; j < len(lines) && j < i+window; j++ {
		if m := anyDateRe.FindString(lines[j]); m != "" {
			return m
		}
	}
	return ""
}

func twoDatesNear(lines []string, i, window int) (string, string) {
	ds := anyDateRe.FindAllString(joinWindow(lines, i, window), -1)
	if len(ds) >= 2 {
		return ds[0], ds[1]
	}
	return "", ""
}

func amountNear(lines []string, i, window int) *float64 {
	nums := anyAmountRe.FindAllString(joinWindow(lines, i, window), -1)
	if len(nums) > 0 {
		return parseAmount(nums[len(nums)-1])
	}
	return nil
}

func trailingOrNearAmount(lines []string, i int, l string) *float64 {
	if m := trailingAmountRe.FindStringSubmatch(l); m != nil {
		if v := parseAmount(m[1]); v != nil {
			return v
		}
	}
	return amountNear(lines, i, 4)
}

func joinWindow(lines []string, i, window int) string {
	end := i + window
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[i:end], " ")
}

func appendPage(pages []int, n int) []int {
	for _, p := range pages {
		if p == n {
			return pages
		}
	}
	return append(pages, n)
}
