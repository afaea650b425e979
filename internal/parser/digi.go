package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/extractor"
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/models"
)

// Digi (CelcomDigi) bills are summary oriented: a consolidated Service
// Summary table carries one row per billed number, and per-number
// detail lives in flat text blocks introduced by a "Mobile No" marker.
// A summary row wraps across physical lines, so a row is the window of
// lines from one phone number to the next (or to the Subtotal line),
// and its fields are recovered from the joined window text.

// DigiRaw is the full unnormalized parse of a Digi bill.
type DigiRaw struct {
	Header         DigiHeader          `json:"header"`
	ChargesSummary DigiChargesSummary  `json:"charges_summary"`
	ServiceSummary DigiServiceSummary  `json:"service_summary"`
	ServiceDetails []DigiServiceDetail `json:"service_details"`
	PaymentHistory []DigiPayment       `json:"payment_history"`
}

type DigiHeader struct {
	AccountNo        string   `json:"account_no,omitempty"`
	InvoiceNo        string   `json:"invoice_no,omitempty"`
	InvoiceDate      string   `json:"invoice_date,omitempty"`
	InvoicePeriod    string   `json:"invoice_period,omitempty"`
	NoOfLines        string   `json:"no_of_lines,omitempty"`
	DueDate          string   `json:"due_date,omitempty"`
	TotalOutstanding *float64 `json:"total_outstanding,omitempty"`
}

// DigiChargesSummary is the fixed field taxonomy of the bill's front
// page. Payments is stored negated; payments are credits.
type DigiChargesSummary struct {
	PreviousBills    *float64 `json:"previous_bills,omitempty"`
	Payments         *float64 `json:"payments,omitempty"`
	Adjustments      *float64 `json:"adjustments,omitempty"`
	PreviousOverdue  *float64 `json:"previous_overdue_amount,omitempty"`
	MonthlyFixed     *float64 `json:"monthly_fixed_charges,omitempty"`
	Usage            *float64 `json:"usage,omitempty"`
	OtherCredits     *float64 `json:"other_credits,omitempty"`
	Discounts        *float64 `json:"discounts,omitempty"`
	ServiceTax       *float64 `json:"service_tax,omitempty"`
	CurrentBill      *float64 `json:"current_bill,omitempty"`
	TotalOutstanding *float64 `json:"total_outstanding,omitempty"`
}

type DigiSummaryLine struct {
	MobileNo    string  `json:"mobile_no"`
	Description string  `json:"description,omitempty"`
	Subscriber  string  `json:"subscriber,omitempty"`
	Total       float64 `json:"total"`
}

type DigiTaxRow struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

type DigiServiceSummary struct {
	Lines             []DigiSummaryLine `json:"lines"`
	Subtotal          *float64          `json:"subtotal,omitempty"`
	ServiceTax        []DigiTaxRow      `json:"service_tax,omitempty"`
	CurrentBillAmount *float64          `json:"current_bill_amount,omitempty"`
}

type DigiItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type DigiDataRow struct {
	Category    string  `json:"category"`
	AccessPoint string  `json:"access_point"`
	VolumeKB    int64   `json:"volume_kb"`
	Amount      float64 `json:"amount"`
}

type DigiServiceDetail struct {
	MobileNo        string        `json:"mobile_no"`
	Description     string        `json:"description,omitempty"`
	Subscriber      string        `json:"subscriber,omitempty"`
	ItemisedBill    []DigiItem    `json:"itemised_bill"`
	DetailOfCharges []DigiDataRow `json:"detail_of_charges"`
}

type DigiPayment struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// Header and charges-summary field patterns. Amount patterns stay
// single line on purpose: a label and its figure share a line in this
// layout, and letting `.` cross newlines would bind labels to figures
// from unrelated rows.
var (
	digiAccountNoRe   = regexp.MustCompile(`(?i)Account\s*No\.?\s*[:\-]?\s*([0-9]+)`)
	digiInvoiceNoRe   = regexp.MustCompile(`(?i)Invoice\s*No\.?\s*[:\-]?\s*([0-9]+)`)
	digiInvoiceDateRe = regexp.MustCompile(`(?i)Invoice\s*Date\.?\s*[:\-]?\s*(\d{1,2}\s\w+\s\d{4})`)
	digiDueDateRe     = regexp.MustCompile(`(?i)(?:Payment\s*Due\s*Date|Due\s*Date).*?(\d{1,2}\s\w+\s\d{4})`)
	digiDueDateAltRe  = regexp.MustCompile(`(?i)Current\s*Bill\s*:\s*[\d,]+\.\d{2}\s+(\d{1,2}\s\w+\s\d{4})`)
	digiPeriodRe      = regexp.MustCompile(`(?i)(?:Invoice\s*Period|Period)[:\s]+(\d{1,2}\s\w+\s\d{4})\s*(?:to|-)*\s*(\d{1,2}\s\w+\s\d{4})`)
	digiNoOfLinesRe   = regexp.MustCompile(`(?i)No\.?\s*of\s*Lines\.?\s*[:\-]?\s*(\d+)`)

	digiOutstandingRe = regexp.MustCompile(`(?i)Total\s*Outstanding.*?([\d,]+\.\d{2})`)
	digiCurrentRe     = regexp.MustCompile(`(?i)Current\s*Bill.*?([\d,]+\.\d{2})`)
	digiPrevBillsRe   = regexp.MustCompile(`(?i)Previous\s*Bill\(s\).*?([\d,]+\.\d{2})`)
	digiPaymentsRe    = regexp.MustCompile(`(?i)Payments.*?([\d,]+\.\d{2})`)
	digiAdjustRe      = regexp.MustCompile(`(?i)Adjustments.*?([\d,]+\.\d{2})`)
	digiOverdueRe     = regexp.MustCompile(`(?i)Previous\s*Overdue\s*Amount.*?([\d,]+\.\d{2})`)
	digiMonthlyRe     = regexp.MustCompile(`(?i)Monthly\s*Fixed\s*Charges.*?([\d,]+\.\d{2})`)
	digiUsageRe       = regexp.MustCompile(`(?i)\bUsage\b.*?([\d,]+\.\d{2})`)
	digiOtherCredRe   = regexp.MustCompile(`(?i)Other\s*Credits?.*?([\d,]+\.\d{2})`)
	digiDiscountsRe   = regexp.MustCompile(`(?i)Discounts?.*?([\d,]+\.\d{2})`)
	digiServiceTaxRe  = regexp.MustCompile(`(?i)Service\s*Tax.*?([\d,]+\.\d{2})`)
)

// Service Summary patterns.
var (
	digiSummaryStartRe = regexp.MustCompile(`(?i)Service Summary`)
	digiSummaryEndsRe  = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Previous Payment Details`),
		regexp.MustCompile(`(?i)Payment Details`),
		regexp.MustCompile(`Page \d+/\d+`),
	}

	digiMsisdnHitRe = regexp.MustCompile(`(01\d{7,8})`)
	digiRowAmtRe    = regexp.MustCompile(`([\d,]+\.\d{2})`)
	digiSubtotalRe  = regexp.MustCompile(`(?i)Subtotal\s+([\d,]+\.\d{2})`)
	digiTaxChunkRe  = regexp.MustCompile(`(?is)Service\s*Tax\s*6%\s*/\s*8%(.*?)(?:Current\s*Bill\s*Amount|$)`)
	digiTaxRowRe    = regexp.MustCompile(`(?i)^(.+?-\s*\d+\s*percent)\s+([\-\d,]+\.\d{2})$`)
	digiTaxTotalRe  = regexp.MustCompile(`(?i)^(Total)\s+([\-\d,]+\.\d{2})$`)
	digiBillAmtRe   = regexp.MustCompile(`(?i)Current\s*Bill\s*Amount\s+([\d,]+\.\d{2})`)

	// Uppercase company chunk carrying SDN / BERHAD (+ optional BHD),
	// tolerant to the extra spaces line wrapping leaves behind.
	digiSubscriberRe = regexp.MustCompile(`(?i)[A-Z][A-Z '&\.\-]+(?:SDN|BERHAD)(?:\s+BHD)?`)
	digiCelBizRe     = regexp.MustCompile(`(?i)CelcomDigi\s+Business`)
	digiPlanFragRe   = regexp.MustCompile(`(?i)Postpaid\s*\d+\s*G\s*\d+`)

	digiSdnWordRe    = regexp.MustCompile(`(?i)\bSdn\b`)
	digiBhdWordRe    = regexp.MustCompile(`(?i)\bBhd\b`)
	digiBerhadWordRe = regexp.MustCompile(`(?i)\bBerhad\b`)
	digiSdnBhdRe     = regexp.MustCompile(`(?i)\bSDN\s*(?:BHD)?\b`)
	digiBhdTokenRe   = regexp.MustCompile(`\bBHD\b`)
	digiMultiSpcRe   = regexp.MustCompile(`\s{2,}`)
)

// Per-line detail patterns.
var (
	digiBlockSplitRe = regexp.MustCompile(`Mobile No\.?\s*0`)
	digiBlockLeadRe  = regexp.MustCompile(`^0\d+`)
	digiItemKeyRe    = regexp.MustCompile(`(?i)(Postpaid|Secure|Rebate|Discount|OCC|Other Credit)`)
	digiSignedAmtRe  = regexp.MustCompile(`([\-\d,]+\.\d{2})`)
	digiDataKeyRe    = regexp.MustCompile(`(?i)(digisecure|diginet)`)
	digiPaymentRe    = regexp.MustCompile(`(\d{1,2}\s\w+\s\d{4})\s+([\d,]+\.\d{2})`)
)

type DigiParser struct{}

func (p *DigiParser) VendorName() string { return string(models.VendorDigi) }

func (p *DigiParser) Parse(doc *extractor.Document) (*models.InvoicePackage, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, fmt.Errorf("digi: empty document")
	}
	log := &issueLog{vendor: models.VendorDigi}
	raw := &DigiRaw{}

	pagesText := make([]string, len(doc.Pages))
	for i, pg := range doc.Pages {
		pagesText[i] = pg.Text
	}
	allText := strings.Join(extractor.NormalizeLines(strings.Join(pagesText, "\n")), "\n")

	log.capture(1, "header", func() {
		raw.Header = parseDigiHeader(allText)
	})
	log.capture(1, "charges_summary", func() {
		raw.ChargesSummary = parseDigiChargesSummary(allText)
	})
	log.capture(0, "service_summary", func() {
		raw.ServiceSummary = parseDigiServiceSummary(digiSummaryBlock(allText))
		raw.ServiceSummary.Lines = digiDedupSummary(raw.Header.InvoiceNo, raw.ServiceSummary.Lines)
	})
	log.capture(0, "service_details", func() {
		raw.ServiceDetails = parseDigiServiceDetails(allText, raw.ServiceSummary.Lines)
	})
	log.capture(0, "payment_history", func() {
		raw.PaymentHistory = parseDigiPayments(allText)
	})

	pkg := digiPackage(raw)
	pkg.Issues = log.issues
	return pkg, nil
}

func parseDigiHeader(text string) DigiHeader {
	h := DigiHeader{
		AccountNo:   firstGroup(digiAccountNoRe, text),
		InvoiceNo:   firstGroup(digiInvoiceNoRe, text),
		InvoiceDate: firstGroup(digiInvoiceDateRe, text),
		NoOfLines:   firstGroup(digiNoOfLinesRe, text),
	}
	if m := digiPeriodRe.FindStringSubmatch(text); m != nil {
		h.InvoicePeriod = m[1] + " - " + m[2]
	}
	h.DueDate = firstGroup(digiDueDateRe, text)
	if h.DueDate == "" {
		h.DueDate = firstGroup(digiDueDateAltRe, text)
	}
	h.TotalOutstanding = parseAmount(firstGroup(digiOutstandingRe, text))
	return h
}

func parseDigiChargesSummary(text string) DigiChargesSummary {
	amt := func(re *regexp.Regexp) *float64 {
		return parseAmount(firstGroup(re, text))
	}
	cs := DigiChargesSummary{
		PreviousBills:    amt(digiPrevBillsRe),
		Adjustments:      amt(digiAdjustRe),
		PreviousOverdue:  amt(digiOverdueRe),
		MonthlyFixed:     amt(digiMonthlyRe),
		Usage:            amt(digiUsageRe),
		OtherCredits:     amt(digiOtherCredRe),
		Discounts:        amt(digiDiscountsRe),
		ServiceTax:       amt(digiServiceTaxRe),
		CurrentBill:      amt(digiCurrentRe),
		TotalOutstanding: amt(digiOutstandingRe),
	}
	if p := amt(digiPaymentsRe); p != nil && *p != 0 {
		cs.Payments = floatPtr(-*p)
	}
	return cs
}

// digiSummaryBlock cuts the Service Summary region: from the heading to
// the earliest of the payment-details headings or a page footer.
func digiSummaryBlock(text string) string {
	loc := digiSummaryStartRe.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	sub := text[loc[1]:]
	if end := minMatchIndex(sub, digiSummaryEndsRe); end >= 0 {
		sub = sub[:end]
	}
	return sub
}

// digiBestSubscriber picks the longest company-like chunk in a window
// and normalizes the SDN / BHD / BERHAD suffix casing.
func digiBestSubscriber(window string) string {
	cands := digiSubscriberRe.FindAllString(window, -1)
	if len(cands) == 0 {
		return ""
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if len(c) > len(best) {
			best = c
		}
	}
	best = digiSdnWordRe.ReplaceAllString(best, "SDN")
	best = digiBhdWordRe.ReplaceAllString(best, "BHD")
	best = digiBerhadWordRe.ReplaceAllString(best, "BERHAD")
	best = digiSdnBhdRe.ReplaceAllStringFunc(best, func(m string) string {
		if strings.Contains(strings.ToUpper(m), "BHD") {
			return "SDN BHD"
		}
		return "SDN"
	})
	return strings.TrimSpace(digiMultiSpcRe.ReplaceAllString(best, " "))
}

// digiComposeDescription rebuilds the plan description from its two
// known fragments regardless of the order they appear in, stripping any
// subscriber text that bled into the same line.
func digiComposeDescription(window string) string {
	cel := digiCelBizRe.FindString(window)
	post := digiPlanFragRe.FindString(window)

	var desc string
	switch {
	case cel != "" && post != "":
		desc = cel + " " + post
	case cel != "":
		desc = cel + " Postpaid 5G 80"
	case post != "":
		desc = "CelcomDigi Business " + post
	default:
		desc = "CelcomDigi Business Postpaid 5G 80"
	}

	desc = strings.TrimSpace(digiSubscriberRe.ReplaceAllString(desc, ""))
	desc = strings.TrimSpace(digiBhdTokenRe.ReplaceAllString(desc, ""))
	return digiMultiSpcRe.ReplaceAllString(desc, " ")
}

func parseDigiServiceSummary(block string) DigiServiceSummary {
	ss := DigiServiceSummary{Lines: []DigiSummaryLine{}}
	if block == "" {
		return ss
	}
	var lines []string
	for _, ln := range strings.Split(block, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}

	type hit struct {
		line   int
		msisdn string
	}
	var hits []hit
	for i, ln := range lines {
		if m := digiMsisdnHitRe.FindStringSubmatch(ln); m != nil {
			hits = append(hits, hit{i, m[1]})
		}
	}

	for idx, h := range hits {
		end := len(lines)
		if idx+1 < len(hits) {
			end = hits[idx+1].line
		}
		for j := h.line + 1; j < end; j++ {
			if strings.Contains(lines[j], "Subtotal") {
				end = j
				break
			}
		}

		window := lines[h.line:end]
		windowText := strings.Join(window, " ")

		subscriber := digiBestSubscriber(windowText)
		description := digiComposeDescription(windowText)
		if subscriber != "" {
			description = strings.TrimSpace(digiMultiSpcRe.ReplaceAllString(
				strings.ReplaceAll(description, subscriber, ""), " "))
		}

		// Row total is the last currency figure in the window, the
		// subtotal line excluded.
		var amounts []string
		for _, s := range window {
			if strings.Contains(s, "Subtotal") {
				continue
			}
			for _, m := range digiRowAmtRe.FindAllStringSubmatch(s, -1) {
				amounts = append(amounts, m[1])
			}
		}
		total := 0.0
		if len(amounts) > 0 {
			total = amountOrZero(parseAmount(amounts[len(amounts)-1]))
		}

		ss.Lines = append(ss.Lines, DigiSummaryLine{
			MobileNo:    h.msisdn,
			Description: description,
			Subscriber:  subscriber,
			Total:       total,
		})
	}

	ss.Subtotal = parseAmount(firstGroup(digiSubtotalRe, block))
	ss.CurrentBillAmount = parseAmount(firstGroup(digiBillAmtRe, block))

	if m := digiTaxChunkRe.FindStringSubmatch(block); m != nil {
		for _, ln := range strings.Split(m[1], "\n") {
			ln = strings.Join(strings.Fields(ln), " ")
			if ln == "" {
				continue
			}
			if r := digiTaxRowRe.FindStringSubmatch(ln); r != nil {
				ss.ServiceTax = append(ss.ServiceTax, DigiTaxRow{
					Label:  strings.TrimSpace(r[1]),
					Amount: amountOrZero(parseAmount(r[2])),
				})
			} else if r := digiTaxTotalRe.FindStringSubmatch(ln); r != nil {
				ss.ServiceTax = append(ss.ServiceTax, DigiTaxRow{
					Label:  r[1],
					Amount: amountOrZero(parseAmount(r[2])),
				})
			}
		}
	}
	return ss
}

// digiDedupSummary collapses summary rows whose composite identity
// repeats. Overlapping window boundaries can match the same physical
// row twice; the first occurrence wins and order is preserved.
func digiDedupSummary(invoiceNo string, rows []DigiSummaryLine) []DigiSummaryLine {
	seen := make(map[string]bool, len(rows))
	out := rows[:0]
	for _, r := range rows {
		key := fmt.Sprintf("%s|%s|%s|%s|%.2f", invoiceNo, r.MobileNo, r.Description, r.Subscriber, r.Total)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func parseDigiServiceDetails(text string, summary []DigiSummaryLine) []DigiServiceDetail {
	lookup := make(map[string]DigiSummaryLine, len(summary))
	for _, row := range summary {
		if row.MobileNo != "" {
			if _, ok := lookup[row.MobileNo]; !ok {
				lookup[row.MobileNo] = row
			}
		}
	}

	var details []DigiServiceDetail
	index := map[string]int{}

	blocks := digiBlockSplitRe.Split(text, -1)
	if len(blocks) < 2 {
		return details
	}
	for _, blk := range blocks[1:] {
		blk = "0" + blk
		var lines []string
		for _, ln := range strings.Split(blk, "\n") {
			if ln = strings.TrimSpace(ln); ln != "" {
				lines = append(lines, ln)
			}
		}
		if len(lines) == 0 {
			continue
		}
		mobile := digiBlockLeadRe.FindString(lines[0])
		if mobile == "" {
			continue
		}

		pos, ok := index[mobile]
		if !ok {
			seed := lookup[mobile]
			details = append(details, DigiServiceDetail{
				MobileNo:        mobile,
				Description:     seed.Description,
				Subscriber:      seed.Subscriber,
				ItemisedBill:    []DigiItem{},
				DetailOfCharges: []DigiDataRow{},
			})
			pos = len(details) - 1
			index[mobile] = pos
		}
		d := &details[pos]

		for _, ln := range lines {
			if digiItemKeyRe.MatchString(ln) {
				if m := digiSignedAmtRe.FindStringSubmatch(ln); m != nil {
					d.ItemisedBill = append(d.ItemisedBill, DigiItem{
						Description: ln,
						Amount:      amountOrZero(parseAmount(m[1])),
					})
				}
			} else if digiDataKeyRe.MatchString(ln) {
				parts := strings.Fields(ln)
				if len(parts) >= 2 {
					vol, _ := strconv.ParseInt(nonDigitRe.ReplaceAllString(parts[1], ""), 10, 64)
					d.DetailOfCharges = append(d.DetailOfCharges, DigiDataRow{
						Category:    "Internet/Data",
						AccessPoint: parts[0],
						VolumeKB:    vol,
						Amount:      amountOrZero(parseAmount(parts[len(parts)-1])),
					})
				}
			}
		}

		// Backfill identity fields from the block text when absent
		// from the service summary.
		if d.Description == "" || d.Subscriber == "" {
			winText := strings.Join(lines, " ")
			if d.Description == "" {
				d.Description = digiComposeDescription(winText)
			}
			if d.Subscriber == "" {
				d.Subscriber = digiBestSubscriber(winText)
			}
		}
	}
	return details
}

func parseDigiPayments(text string) []DigiPayment {
	var out []DigiPayment
	for _, m := range digiPaymentRe.FindAllStringSubmatch(text, -1) {
		out = append(out, DigiPayment{
			Date:   m[1],
			Amount: amountOrZero(parseAmount(m[2])),
		})
	}
	return out
}
