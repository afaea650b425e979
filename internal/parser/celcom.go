package parser

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/extractor"
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/models"
)

// Celcom bills are heading oriented: the first page carries a header
// and account summary, and everything after the DETAILED CHARGES
// heading is a sequence of named sections (previous payments,
// registered numbers, monthly charges, discounts, call listings, value
// added services). Sections are sliced out of the page text by heading
// regex; the registered numbers table is the one piece parsed from
// positional tables because it routinely spans several pages.

// CelcomRaw is the full unnormalized parse of a Celcom bill.
type CelcomRaw struct {
	Header           CelcomHeader           `json:"header"`
	Summary          CelcomSummary          `json:"account_summary"`
	Breakdown        []CelcomBreakdownRow   `json:"current_charges_breakdown,omitempty"`
	PreviousPayments []CelcomPayment        `json:"previous_payments,omitempty"`
	Registered       []CelcomRegisteredRow  `json:"registered_mobile_numbers,omitempty"`
	RegisteredTotals CelcomRegisteredTotals `json:"registered_totals"`
	MonthlyItems     []CelcomMonthlyItem    `json:"monthly_items,omitempty"`
	DiscountItems    []CelcomDiscountItem   `json:"discount_rebate_items,omitempty"`
	LocalCalls       []CelcomCallRow        `json:"local_calls_messages,omitempty"`
	CallsCelcom      []CelcomCallRow        `json:"calls_to_celcom,omitempty"`
	CallsNonCelcom   []CelcomCallRow        `json:"calls_to_non_celcom,omitempty"`
	ValueAdded       []CelcomVASRow         `json:"value_added_services,omitempty"`
	PerNumber        []CelcomNumberDetail   `json:"per_number_details,omitempty"`
	Totals           CelcomTotals           `json:"totals"`
}

type CelcomHeader struct {
	StatementMonth  string   `json:"bill_statement_month,omitempty"`
	ServiceNumber   string   `json:"service_number,omitempty"`
	AccountNumber   string   `json:"account_number,omitempty"`
	StatementNumber string   `json:"bill_statement_number,omitempty"`
	BillDate        string   `json:"bill_date,omitempty"`
	BillingFrom     string   `json:"billing_from,omitempty"`
	BillingTo       string   `json:"billing_to,omitempty"`
	CreditLimit     *float64 `json:"credit_limit,omitempty"`
	Deposit         *float64 `json:"deposit,omitempty"`
	CustomerName    string   `json:"customer_name,omitempty"`
	PlanName        string   `json:"plan_name,omitempty"`
}

type CelcomSummary struct {
	PreviousBalance     *float64 `json:"previous_balance,omitempty"`
	TotalPayments       *float64 `json:"total_payments,omitempty"`
	OverdueCharges      *float64 `json:"overdue_charges,omitempty"`
	CurrentCharges      *float64 `json:"current_charges,omitempty"`
	DueDate             string   `json:"due_date,omitempty"`
	TotalAmountDue      *float64 `json:"total_amount_due,omitempty"`
	MonthlyCharges      *float64 `json:"monthly_charges_rm,omitempty"`
	ServiceTax          *float64 `json:"service_tax_6pct,omitempty"`
	RoundingAdjustment  *float64 `json:"rounding_adjustment,omitempty"`
	TotalCurrentCharges *float64 `json:"total_current_charges,omitempty"`
}

// CelcomBreakdownRow is one line of the first page "Current Charges"
// non-taxable / taxable / total table.
type CelcomBreakdownRow struct {
	Category   string   `json:"category"`
	NonTaxable *float64 `json:"non_taxable,omitempty"`
	Taxable    *float64 `json:"taxable,omitempty"`
	Total      *float64 `json:"total,omitempty"`
}

type CelcomPayment struct {
	Description string   `json:"description"`
	Date        string   `json:"date,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
}

type CelcomRegisteredRow struct {
	Mobile      string   `json:"mobile"`
	CreditLimit *float64 `json:"credit_limit,omitempty"`
	OneTime     *float64 `json:"one_time_amount,omitempty"`
	Monthly     *float64 `json:"monthly_amount,omitempty"`
	Usage       *float64 `json:"usage_amount,omitempty"`
	Discounts   *float64 `json:"discounts_rebates,omitempty"`
	Total       *float64 `json:"total_amount_rm,omitempty"`
}

type CelcomRegisteredTotals struct {
	Count        int      `json:"count_numbers"`
	SumOneTime   *float64 `json:"sum_one_time,omitempty"`
	SumMonthly   *float64 `json:"sum_monthly,omitempty"`
	SumUsage     *float64 `json:"sum_usage,omitempty"`
	SumDiscounts *float64 `json:"sum_discounts,omitempty"`
	SumTotal     *float64 `json:"sum_total_rm,omitempty"`
}

type CelcomMonthlyItem struct {
	Description string   `json:"description"`
	FromDate    string   `json:"from_date,omitempty"`
	ToDate      string   `json:"to_date,omitempty"`
	Amount      *float64 `json:"amount_rm,omitempty"`
}

type CelcomDiscountItem struct {
	Description string   `json:"description"`
	Amount      *float64 `json:"amount_rm,omitempty"`
}

type CelcomCallRow struct {
	Date         string   `json:"date,omitempty"`
	Time         string   `json:"time,omitempty"`
	CalledNumber string   `json:"called_number,omitempty"`
	Duration     string   `json:"duration,omitempty"`
	FreeCalls    *float64 `json:"free_calls,omitempty"`
	Amount       *float64 `json:"amount_rm,omitempty"`
}

type CelcomVASRow struct {
	Date         string   `json:"date,omitempty"`
	Time         string   `json:"time,omitempty"`
	Description  string   `json:"description,omitempty"`
	CalledNumber string   `json:"called_number,omitempty"`
	Amount       *float64 `json:"amount_rm,omitempty"`
}

// CelcomNumberDetail is the reconciled per-mobile view: registered
// table figures when present, section totals otherwise.
type CelcomNumberDetail struct {
	Mobile        string               `json:"mobile"`
	Monthly       *float64             `json:"monthly_amount,omitempty"`
	Usage         *float64             `json:"usage_amount,omitempty"`
	Discounts     *float64             `json:"discounts_rebates,omitempty"`
	Total         float64              `json:"total_amount_rm"`
	MonthlyDesc   string               `json:"monthly_commit_desc,omitempty"`
	Items         []CelcomMonthlyItem  `json:"monthly_line_items,omitempty"`
	DiscountItems []CelcomDiscountItem `json:"discount_rebate_items,omitempty"`
	DurCelcom     string               `json:"calls_to_celcom_duration_total,omitempty"`
	DurNonCelcom  string               `json:"calls_to_non_celcom_duration_total,omitempty"`
	DurLocal      string               `json:"local_calls_duration_total,omitempty"`
}

type CelcomTotals struct {
	Monthly        *float64 `json:"monthly_amount,omitempty"`
	Discounts      *float64 `json:"discounts_rebates,omitempty"`
	CallsCelcom    *float64 `json:"calls_celcom,omitempty"`
	CallsNonCelcom *float64 `json:"calls_noncelcom,omitempty"`
	ValueAdded     *float64 `json:"value_added_services,omitempty"`
	LocalCalls     *float64 `json:"local_calls_messages,omitempty"`
	DurCelcom      string   `json:"duration_celcom,omitempty"`
	DurNonCelcom   string   `json:"duration_noncelcom,omitempty"`
	DurLocal       string   `json:"duration_local_calls_messages,omitempty"`
}

// Token fragments shared by the Celcom regexes.
const (
	celcomNum    = `\(?-?[0-9][0-9,]*\.?[0-9]*\)?`
	celcomDate   = `\d{2}[/-]\d{2}[/-]\d{4}`
	celcomTime   = `\d{2}:\d{2}:\d{2}`
	celcomNumRM  = `(?:[Rr][Mm]\s*)?-?\d{1,3}(?:,\d{3})*\.\d{2}`
	celcomDur    = `[0-9]{1,3}:[0-9]{2}(?::[0-9]{2})?`
	celcomMobile = `(?:\+?6?0)?\s*(?:\d{2,3}[\s-]?\d{3,4}[\s-]?\d{4}|\d{2,3}[\s-]?\d{6,8})`
)

// Section headings.
var (
	celcomHdrDetailedRe   = regexp.MustCompile(`(?i)DETAILED\s+CHARGES`)
	celcomHdrPrevPayRe    = regexp.MustCompile(`(?i)Previous\s+Payment\s+Details`)
	celcomHdrRegisteredRe = regexp.MustCompile(`(?i)Registered\s+Mobile\s+Number(?:s)?`)
	celcomHdrMonthlyRe    = regexp.MustCompile(`(?i)(?:Detail(?:ed)?\s+Charges\s*[-–—]\s*Monthly|Monthly\s+Amount)`)
	celcomHdrDiscRe       = regexp.MustCompile(`(?i)Discounts?\s*&\s*Rebates`)
	celcomHdrCelcomRe     = regexp.MustCompile(`(?i)Your\s+Calls\s+To\s+Celcom\s+Numbers`)
	celcomHdrNonCelRe     = regexp.MustCompile(`(?i)Your\s+Calls\s+To\s+Non[- ]Celcom\s+Numbers`)
	celcomHdrVASRe        = regexp.MustCompile(`(?i)Value\s+Added\s+Services`)
	celcomHdrLocalRe      = regexp.MustCompile(`(?i)Local\s+Calls\s*&\s*Messages`)
	celcomPageBreakRe     = regexp.MustCompile(`(?i)Page\s+\d+\s+of`)
)

// First page header and account summary.
var (
	celcomStmtMonthRe = regexp.MustCompile(`(?i)Bill Statement\s+([A-Za-z]+\s+\d{4})`)
	celcomServiceRe   = regexp.MustCompile(`(?i)Service Number\s*:\s*([0-9\-]+)`)
	celcomAcctRe      = regexp.MustCompile(`(?i)Account Number\s*:\s*(\d+)`)
	celcomStmtNumRe   = regexp.MustCompile(`(?i)Bill Statement Number\s*:\s*(\d+)`)
	celcomBillDateRe  = regexp.MustCompile(`(?i)Bill Date\s*:\s*(` + celcomDate + `)`)
	celcomPeriodRe    = regexp.MustCompile(`(?i)Billing Period\s*:\s*(` + celcomDate + `)\s*[–\-]\s*(` + celcomDate + `)`)
	celcomCredLimRe   = regexp.MustCompile(`(?i)Credit Limit\s*:\s*(` + celcomNum + `)`)
	celcomDepositRe   = regexp.MustCompile(`(?i)Deposit\s*:\s*(` + celcomNum + `)`)
	celcomNameRe      = regexp.MustCompile(`(?m)^\s*Name\s*:\s*([^\n]+)`)
	celcomHelloRe     = regexp.MustCompile(`(?is)Hello\s+(.+?),`)
	celcomCustNameRe  = regexp.MustCompile(`(?i)Customer Name\s*:\s*([^\n]+)`)
	celcomPlanMegaRe  = regexp.MustCompile(`(?i)(MEGA[^\n]{0,50})`)
	celcomPlanLightRe = regexp.MustCompile(`(?i)(Lightning\s*\d+\b[^\n]{0,30})`)

	celcomSummaryTopRe = regexp.MustCompile(`(?is)Overdue Charges\s+Current Charges\s+(?:Payment\s+)?Due Date\s+Amount Due\s+` +
		`RM\s*(` + celcomNum + `)\s+RM\s*(` + celcomNum + `)\s+(` + celcomDate + `)\s+RM\s*(` + celcomNum + `)`)
	celcomOverdueRe    = regexp.MustCompile(`(?is)Overdue Charges\s*RM\s*(` + celcomNum + `)`)
	celcomCurrentRe    = regexp.MustCompile(`(?is)Current Charges\s*RM\s*(` + celcomNum + `)`)
	celcomDueDateRe    = regexp.MustCompile(`(?is)(?:Payment\s+)?Due\s*Date\s*(` + celcomDate + `)`)
	celcomAmtDueRe     = regexp.MustCompile(`(?is)Amount\s+Due\s*(?:RM)?\s*(` + celcomNum + `)`)
	celcomPrevBalRe    = regexp.MustCompile(`(?is)Previous Balance\s*(` + celcomNum + `)`)
	celcomTotPayRe     = regexp.MustCompile(`(?is)Total Payments\s*(` + celcomNum + `)`)
	celcomMonthlyRMRe  = regexp.MustCompile(`(?is)Monthly Charges\s*\(RM\)\s*(` + celcomNum + `)`)
	celcomSvcTaxRe     = regexp.MustCompile(`(?is)Service\s*Tax\s*6%\s*(?:RM)?\s*(` + celcomNum + `)`)
	celcomRoundingRe   = regexp.MustCompile(`(?is)Rounding\s*Adjustment\s*(?:RM)?\s*(` + celcomNum + `)`)
	celcomTotCurrRe    = regexp.MustCompile(`(?is)Total Current Charges\s*(?:RM)?\s*(` + celcomNum + `)`)
	celcomBreakStartRe = regexp.MustCompile(`(?i)Current Charges\s+Non-?Taxable`)
)

// Current-charges breakdown line machine.
var (
	celcomBreakHeadRe  = regexp.MustCompile(`(?i)^(?:Non-?taxable\s*\(RM\)\s+)?Taxable(?:\s*\(RM\))?\s+Total(?:\s*\(RM\))?$`)
	celcomBreakRMRowRe = regexp.MustCompile(`(?i)^\(RM\)(?:\s+\(RM\)){2,}$`)
	celcomBreakColRe   = regexp.MustCompile(`(?i)^(Current Charges|Non-?Taxable|Taxable|Total)$`)
	celcomBreakAddlRe  = regexp.MustCompile(`(?i)^Additional\s+Charges$`)
	celcomBreakRowRe   = regexp.MustCompile(`^(.+?)\s+(` + celcomNum + `)\s+(` + celcomNum + `)\s+(` + celcomNum + `)$`)
	celcomAddlPrefixRe = regexp.MustCompile(`(?i)^(?:Additional\s+Charges)\s+`)
	celcomInlineSumRe  = regexp.MustCompile(`(?i)\b(?:Previous Balance|Total Payments|Total Overdue Charges)\s+` + celcomNum + `\b`)
	celcomInlineNoteRe = regexp.MustCompile(`(?i)Note:.*?\.\s*`)
	celcomInlineSlipRe = regexp.MustCompile(`(?i)\bPayment Slip\b.*$`)
)

var (
	celcomPrevPayHdrRe = regexp.MustCompile(`(?i)^(Previous Payment Details|Description|Total)\b`)
	celcomPrevPayRowRe = regexp.MustCompile(`^(.+?)\s+(` + celcomDate + `)\s+(` + celcomNum + `)\s*$`)
)

type CelcomParser struct{}

func (p *CelcomParser) VendorName() string { return string(models.VendorCelcom) }

func (p *CelcomParser) Parse(doc *extractor.Document) (*models.InvoicePackage, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, fmt.Errorf("celcom: empty document")
	}
	log := &issueLog{vendor: models.VendorCelcom}
	raw := &CelcomRaw{}

	pagesText := make([]string, len(doc.Pages))
	for i, pg := range doc.Pages {
		pagesText[i] = pg.Text
	}
	firstText := pagesText[0]
	allText := strings.Join(pagesText, "\n")

	log.capture(1, "header", func() {
		raw.Header = parseCelcomHeader(firstText, allText)
	})
	log.capture(1, "account_summary", func() {
		raw.Summary = parseCelcomSummary(firstText, allText)
	})
	log.capture(1, "current_charges_breakdown", func() {
		raw.Breakdown = parseCelcomBreakdown(firstText)
	})

	// Everything from the first DETAILED CHARGES heading onward.
	detText := ""
	detPage := 0
	for i, txt := range pagesText {
		if celcomHdrDetailedRe.MatchString(txt) {
			detText = strings.Join(pagesText[i:], "\n")
			detPage = i + 1
			break
		}
	}

	if detText != "" {
		log.capture(detPage, "previous_payments", func() {
			raw.PreviousPayments = parseCelcomPayments(detText)
		})
		log.capture(detPage, "registered_numbers", func() {
			raw.Registered = parseCelcomRegistered(doc, pagesText)
			if len(raw.Registered) == 0 {
				raw.Registered = parseCelcomRegisteredText(detText)
			}
		})
		log.capture(detPage, "monthly_items", func() {
			raw.MonthlyItems, raw.Totals.Monthly = parseCelcomMonthlyItems(detText)
		})
		log.capture(detPage, "discount_items", func() {
			raw.DiscountItems, raw.Totals.Discounts = parseCelcomDiscountItems(detText)
		})
		log.capture(detPage, "local_calls", func() {
			raw.LocalCalls, raw.Totals.LocalCalls, raw.Totals.DurLocal = parseCelcomCalls(detText, celcomHdrLocalRe)
		})
		log.capture(detPage, "calls_celcom", func() {
			raw.CallsCelcom, raw.Totals.CallsCelcom, raw.Totals.DurCelcom = parseCelcomCalls(detText, celcomHdrCelcomRe)
		})
		log.capture(detPage, "calls_non_celcom", func() {
			raw.CallsNonCelcom, raw.Totals.CallsNonCelcom, raw.Totals.DurNonCelcom = parseCelcomCalls(detText, celcomHdrNonCelRe)
		})
		log.capture(detPage, "value_added_services", func() {
			raw.ValueAdded, raw.Totals.ValueAdded = parseCelcomVAS(detText)
		})
	} else {
		log.add(1, "detailed_charges", "no DETAILED CHARGES heading found")
	}

	// Safety nets for the registered table: the heading occasionally
	// lands outside the detailed-charges tail.
	if len(raw.Registered) == 0 {
		raw.Registered = parseCelcomRegisteredText(allText)
	}
	if len(raw.Registered) == 0 {
		for _, txt := range pagesText {
			if rows := parseCelcomRegisteredText(txt); len(rows) > 0 {
				raw.Registered = rows
				break
			}
		}
	}

	log.capture(0, "assemble", func() {
		assembleCelcom(raw)
	})

	pkg := celcomPackage(raw)
	pkg.Issues = log.issues
	return pkg, nil
}

func parseCelcomHeader(firstText, allText string) CelcomHeader {
	h := CelcomHeader{
		StatementMonth:  firstGroup(celcomStmtMonthRe, firstText),
		ServiceNumber:   firstGroup(celcomServiceRe, firstText),
		AccountNumber:   firstGroup(celcomAcctRe, firstText),
		StatementNumber: firstGroup(celcomStmtNumRe, firstText),
		BillDate:        firstGroup(celcomBillDateRe, firstText),
		CreditLimit:     parseAmount(firstGroup(celcomCredLimRe, firstText)),
		Deposit:         parseAmount(firstGroup(celcomDepositRe, firstText)),
	}
	if m := celcomPeriodRe.FindStringSubmatch(firstText); m != nil {
		h.BillingFrom, h.BillingTo = m[1], m[2]
	}
	h.CustomerName = firstGroup(celcomNameRe, allText)
	if h.CustomerName == "" {
		h.CustomerName = firstGroup(celcomHelloRe, allText)
	}
	if h.CustomerName == "" {
		h.CustomerName = firstGroup(celcomCustNameRe, allText)
	}
	h.PlanName = firstGroup(celcomPlanMegaRe, firstText)
	if h.PlanName == "" {
		h.PlanName = firstGroup(celcomPlanLightRe, firstText)
	}
	return h
}

func parseCelcomSummary(firstText, allText string) CelcomSummary {
	s := CelcomSummary{}
	// Extraction order scatters values between pages on some layouts,
	// so lookups run over the combined text.
	combined := firstText + "\n" + allText

	if m := celcomSummaryTopRe.FindStringSubmatch(combined); m != nil {
		s.OverdueCharges = parseAmount(m[1])
		s.CurrentCharges = parseAmount(m[2])
		s.DueDate = m[3]
		s.TotalAmountDue = parseAmount(m[4])
	} else {
		s.OverdueCharges = parseAmount(firstGroup(celcomOverdueRe, combined))
		s.CurrentCharges = parseAmount(firstGroup(celcomCurrentRe, combined))
		s.DueDate = firstGroup(celcomDueDateRe, combined)
		s.TotalAmountDue = parseAmount(firstGroup(celcomAmtDueRe, combined))
	}

	s.PreviousBalance = parseAmount(firstGroup(celcomPrevBalRe, combined))
	s.TotalPayments = parseAmount(firstGroup(celcomTotPayRe, combined))
	s.MonthlyCharges = parseAmount(firstGroup(celcomMonthlyRMRe, combined))
	s.ServiceTax = parseAmount(firstGroup(celcomSvcTaxRe, combined))
	s.RoundingAdjustment = parseAmount(firstGroup(celcomRoundingRe, combined))
	s.TotalCurrentCharges = parseAmount(firstGroup(celcomTotCurrRe, combined))

	// Current charges must be the after-tax figure. Preference order:
	// Total Current Charges, then Amount Due, then the computed
	// monthly + tax + rounding fallback.
	switch {
	case s.TotalCurrentCharges != nil:
		s.CurrentCharges = floatPtr(*s.TotalCurrentCharges)
	case s.TotalAmountDue != nil:
		s.CurrentCharges = floatPtr(*s.TotalAmountDue)
	case s.MonthlyCharges != nil && s.ServiceTax != nil:
		s.CurrentCharges = floatPtr(round2(*s.MonthlyCharges + *s.ServiceTax + amountOrZero(s.RoundingAdjustment)))
	}
	return s
}

func parseCelcomBreakdown(firstText string) []CelcomBreakdownRow {
	block := sliceBetween(firstText, celcomBreakStartRe, []*regexp.Regexp{
		regexp.MustCompile(`(?i)Monthly Charges\s*\(RM\)`),
		regexp.MustCompile(`(?i)Total Current Charges`),
		regexp.MustCompile(`(?i)Total Amount Due`),
		celcomPageBreakRe,
	})
	if block == "" {
		return nil
	}

	var rows []CelcomBreakdownRow
	section := ""
	buf := ""

	emit := func(candidate string) bool {
		if celcomBreakHeadRe.MatchString(candidate) || celcomBreakRMRowRe.MatchString(candidate) {
			return false
		}
		m := celcomBreakRowRe.FindStringSubmatch(candidate)
		if m == nil {
			return false
		}
		category := squash(m[1])
		if section != "" && strings.HasPrefix(strings.ToLower(category), strings.ToLower(section)+" ") {
			category = strings.TrimSpace(category[len(section)+1:])
		}
		category = celcomAddlPrefixRe.ReplaceAllString(category, "")
		rows = append(rows, CelcomBreakdownRow{
			Category:   strings.TrimSpace(category),
			NonTaxable: parseAmount(m[2]),
			Taxable:    parseAmount(m[3]),
			Total:      parseAmount(m[4]),
		})
		return true
	}

	for _, rawLine := range strings.Split(block, "\n") {
		ln := squash(rawLine)
		ln = celcomInlineSumRe.ReplaceAllString(ln, "")
		ln = celcomInlineNoteRe.ReplaceAllString(ln, "")
		ln = celcomInlineSlipRe.ReplaceAllString(ln, "")
		ln = squash(ln)
		if ln == "" {
			buf = ""
			continue
		}
		if celcomBreakHeadRe.MatchString(ln) || celcomBreakRMRowRe.MatchString(ln) {
			buf = ""
			continue
		}
		if celcomBreakColRe.MatchString(ln) {
			continue
		}
		if celcomBreakAddlRe.MatchString(ln) {
			section = "Additional Charges"
			buf = ""
			continue
		}
		// A wrapped "... Calls &" category finishes on the next line.
		if strings.EqualFold(ln, "messages") {
			if len(rows) > 0 && strings.HasSuffix(rows[len(rows)-1].Category, "&") {
				rows[len(rows)-1].Category += " Messages"
			}
			continue
		}
		candidate := ln
		if buf != "" {
			candidate = buf + " " + ln
		}
		if emit(candidate) {
			buf = ""
		} else {
			buf = candidate
		}
	}
	return rows
}

func parseCelcomPayments(detText string) []CelcomPayment {
	blk := sliceBetween(detText, celcomHdrPrevPayRe, []*regexp.Regexp{
		celcomHdrRegisteredRe, celcomHdrMonthlyRe, celcomHdrDiscRe,
		celcomHdrCelcomRe, celcomHdrNonCelRe, celcomHdrVASRe, celcomPageBreakRe,
	})
	var out []CelcomPayment
	for _, rawLine := range strings.Split(blk, "\n") {
		ln := strings.TrimSpace(rawLine)
		if ln == "" || celcomPrevPayHdrRe.MatchString(ln) {
			continue
		}
		if m := celcomPrevPayRowRe.FindStringSubmatch(ln); m != nil {
			out = append(out, CelcomPayment{
				Description: strings.TrimSpace(m[1]),
				Date:        m[2],
				Amount:      parseAmount(m[3]),
			})
		}
	}
	return out
}

// round2 rounds half away from zero at two decimal places, matching
// the adapters' decimal quantization.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
