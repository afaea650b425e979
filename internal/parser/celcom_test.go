package parser

import (
	"strings"
	"testing"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/extractor"
)

const celcomPage1 = `CelcomDigi Bill Statement July 2025
Name : ACME TRADING SDN BHD
Service Number : 013-2223344
Account Number : 820011223344
Bill Statement Number : 556677889900
Bill Date : 05/08/2025
Billing Period : 01/07/2025 - 31/07/2025
Credit Limit : 1,000.00
Deposit : 0.00
MEGA Lightning 98
Overdue Charges Current Charges Due Date Amount Due
RM 0.00 RM 103.90 25/08/2025 RM 103.90
Current Charges Non-Taxable
(RM) (RM) (RM)
Monthly Charges 0.00 98.00 98.00
Additional Charges
Local Calls & 0.00 0.15 0.15
Messages
Monthly Charges (RM) 98.00
Service Tax 6% RM 5.88
Rounding Adjustment 0.02
Total Current Charges RM 103.90`

const celcomPage2 = `DETAILED CHARGES
Previous Payment Details
Description
Online Payment 15/07/2025 100.00
Registered Mobile Numbers
0132223344 1,000.00 0.00 98.00 0.15 0.00 98.15
Detailed Charges - Monthly
Description
From Date
To Date
Amount (RM)
MEGA Lightning 98 - Monthly Fee 01/07/2025 31/07/2025 98.00
Total 98.00
Discounts & Rebates
Description
Amount (RM)
Your Calls To Celcom Numbers
01/07/2025 09:15:22 019-8765432 00:02:30 0.00 0.15
Total 00:02:30 0.00 0.15
Your Calls To Non-Celcom Numbers
Value Added Services`

func TestCelcomParseEndToEnd(t *testing.T) {
	p := &CelcomParser{}
	pkg, err := p.Parse(docFromPages(celcomPage1, celcomPage2))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	inv := pkg.Invoice
	if inv.InvoiceNumber != "556677889900" {
		t.Errorf("invoice number = %q", inv.InvoiceNumber)
	}
	if inv.AccountNumber != "820011223344" {
		t.Errorf("account number = %q", inv.AccountNumber)
	}
	if inv.BillDate != "2025-08-05" || inv.PeriodStart != "2025-07-01" || inv.PeriodEnd != "2025-07-31" {
		t.Errorf("dates = %q %q %q", inv.BillDate, inv.PeriodStart, inv.PeriodEnd)
	}
	if inv.Subtotal == nil || inv.Subtotal.String() != "98" {
		t.Errorf("subtotal = %v", inv.Subtotal)
	}
	if inv.TaxTotal == nil || inv.TaxTotal.String() != "5.88" {
		t.Errorf("tax total = %v", inv.TaxTotal)
	}
	if inv.GrandTotal == nil || inv.GrandTotal.String() != "103.9" {
		t.Errorf("grand total = %v", inv.GrandTotal)
	}
	if inv.Extra["plan_name"] != "MEGA Lightning 98" {
		t.Errorf("plan = %v", inv.Extra["plan_name"])
	}

	if len(pkg.ChargesSummary) != 2 {
		t.Fatalf("charges summary rows = %d", len(pkg.ChargesSummary))
	}
	if pkg.ChargesSummary[0].Label != "Monthly Charges" {
		t.Errorf("summary[0] = %q", pkg.ChargesSummary[0].Label)
	}
	if pkg.ChargesSummary[1].Label != "Local Calls & Messages" {
		t.Errorf("wrapped category = %q", pkg.ChargesSummary[1].Label)
	}
	if pkg.Charges != nil {
		t.Errorf("celcom package should carry charges_summary, not charges")
	}

	if len(pkg.Numbers) != 1 {
		t.Fatalf("numbers = %d", len(pkg.Numbers))
	}
	n := pkg.Numbers[0]
	if n.MSISDN != "60132223344" {
		t.Errorf("msisdn = %q", n.MSISDN)
	}
	if n.LineTotal == nil || n.LineTotal.String() != "98.15" {
		t.Errorf("line total = %v", n.LineTotal)
	}
	if len(n.Items) != 1 || n.Items[0].Description != "MEGA Lightning 98 - Monthly Fee" {
		t.Errorf("items = %+v", n.Items)
	}
	if n.Durations == nil || n.Durations.Celcom != "00:02:30" || n.Durations.Local != "00:02:30" {
		t.Errorf("durations = %+v", n.Durations)
	}
	if len(n.Calls) != 1 || n.Calls[0].Number != "019-8765432" {
		t.Errorf("calls = %+v", n.Calls)
	}

	if len(pkg.PreviousPayments) != 1 {
		t.Fatalf("previous payments = %d", len(pkg.PreviousPayments))
	}
	pay := pkg.PreviousPayments[0]
	if pay.Description != "Online Payment" || pay.Date != "2025-07-15" || pay.Amount.String() != "100" {
		t.Errorf("payment = %+v", pay)
	}
}

func TestCelcomSummaryCurrentChargesPriority(t *testing.T) {
	// Total Current Charges wins over the summary table figure.
	s := parseCelcomSummary(celcomPage1, celcomPage1)
	if s.CurrentCharges == nil || *s.CurrentCharges != 103.90 {
		t.Errorf("current charges = %v", s.CurrentCharges)
	}

	// Without it and without Amount Due, the computed fallback applies.
	text := "Monthly Charges (RM) 50.00\nService Tax 6% RM 3.00\nRounding Adjustment 0.01"
	s = parseCelcomSummary(text, text)
	if s.CurrentCharges == nil || *s.CurrentCharges != 53.01 {
		t.Errorf("computed current charges = %v", s.CurrentCharges)
	}
}

func TestCelcomMonthlyItemsCarryAndPending(t *testing.T) {
	det := strings.Join([]string{
		"DETAILED CHARGES",
		"Detailed Charges - Monthly",
		"Description",
		"From Date",
		"To Date",
		"Amount (RM)",
		"MEGA Lightning 98 - Monthly Fee 01/07/2025 31/07/2025 98.00",
		"Business Device Instalment",
		"01/07/2025 31/07/2025 45.00",
		"Roaming Pass (05/07/2025 - 08/07/2025)",
		"15.00",
		"Total 158.00",
		"Discounts & Rebates",
	}, "\n")

	items, total := parseCelcomMonthlyItems(det)
	if len(items) != 3 {
		t.Fatalf("items = %d: %+v", len(items), items)
	}
	if items[0].Description != "MEGA Lightning 98 - Monthly Fee" || *items[0].Amount != 98.00 {
		t.Errorf("items[0] = %+v", items[0])
	}
	if items[1].Description != "Business Device Instalment" || items[1].FromDate != "01/07/2025" {
		t.Errorf("carried description = %+v", items[1])
	}
	if items[2].Description != "Roaming Pass" || items[2].FromDate != "05/07/2025" || *items[2].Amount != 15.00 {
		t.Errorf("pending completion = %+v", items[2])
	}
	if total == nil || *total != 158.00 {
		t.Errorf("total = %v", total)
	}
}

func TestCelcomMonthlyItemsTotalFallback(t *testing.T) {
	det := strings.Join([]string{
		"DETAILED CHARGES",
		"Detailed Charges - Monthly",
		"Description",
		"Plan Fee 01/07/2025 31/07/2025 60.00",
		"Add On 01/07/2025 31/07/2025 20.00",
		"Discounts & Rebates",
	}, "\n")
	_, total := parseCelcomMonthlyItems(det)
	if total == nil || *total != 80.00 {
		t.Errorf("summed total = %v", total)
	}
}

func TestCelcomDiscountItems(t *testing.T) {
	det := strings.Join([]string{
		"Discounts & Rebates",
		"Description",
		"Amount (RM)",
		"Auto Billing Rebate -5.00",
		"Loyalty Programme Discount",
		"-10.00",
		"One Time Fee 25.00",
		"0132223344 1,000.00 0.00 98.00 0.15 0.00 98.15",
		"Total -15.00",
		"Your Calls To Celcom Numbers",
	}, "\n")

	items, total := parseCelcomDiscountItems(det)
	if len(items) != 2 {
		t.Fatalf("items = %d: %+v", len(items), items)
	}
	if items[0].Description != "Auto Billing Rebate" || *items[0].Amount != -5.00 {
		t.Errorf("items[0] = %+v", items[0])
	}
	if items[1].Description != "Loyalty Programme Discount" || *items[1].Amount != -10.00 {
		t.Errorf("split-line item = %+v", items[1])
	}
	if total == nil || *total != -15.00 {
		t.Errorf("total = %v", total)
	}
}

func TestCelcomCallsTotalsFallback(t *testing.T) {
	det := strings.Join([]string{
		"Your Calls To Celcom Numbers",
		"01/07/2025 09:15:22 0198765432 00:02:30 0.00 0.15",
		"02/07/2025 10:00:00 0198765432 00:03:00 0.00 0.10",
		"Your Calls To Non-Celcom Numbers",
	}, "\n")

	rows, total, dur := parseCelcomCalls(det, celcomHdrCelcomRe)
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if total == nil || *total != 0.25 {
		t.Errorf("summed total = %v", total)
	}
	if dur != "00:05:30" {
		t.Errorf("summed duration = %q", dur)
	}
}

func TestCelcomVASContinuation(t *testing.T) {
	det := strings.Join([]string{
		"Value Added Services",
		"05/07/2025 12:00:00 Roaming Day Pass 0162223344 10.00",
		"Thailand Zone A",
		"Total 10.00",
		"Registered Mobile Numbers",
	}, "\n")

	rows, total := parseCelcomVAS(det)
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].Description != "Roaming Day Pass Thailand Zone A" {
		t.Errorf("continuation description = %q", rows[0].Description)
	}
	if rows[0].CalledNumber != "0162223344" || *rows[0].Amount != 10.00 {
		t.Errorf("row = %+v", rows[0])
	}
	if total == nil || *total != 10.00 {
		t.Errorf("total = %v", total)
	}
}

// celcomWordTablePage lays rows out on a coordinate grid so the table
// reconstruction sees proper columns.
func celcomWordTablePage(number int, rows [][]string) extractor.Page {
	var words []extractor.Word
	var lines []string
	y := 760.0
	for _, row := range rows {
		for j, cell := range row {
			if cell == "" {
				continue
			}
			words = append(words, extractor.Word{
				X:    40 + float64(j)*95,
				Y:    y,
				W:    80,
				Text: cell,
			})
		}
		lines = append(lines, strings.Join(row, " "))
		y -= 20
	}
	return extractor.Page{
		Number: number,
		Text:   strings.Join(lines, "\n"),
		Lines:  lines,
		Words:  words,
	}
}

var celcomRegHeader = []string{
	"Mobile No", "Credit Limit", "One Time Amount", "Monthly Amount",
	"Usage Amount", "Discount & Rebates", "Amount (RM)",
}

func TestCelcomRegisteredTableSpansPages(t *testing.T) {
	page1 := celcomWordTablePage(3, [][]string{
		{"Registered Mobile Numbers"},
		celcomRegHeader,
		{"0132223344", "1,000.00", "0.00", "98.00", "0.15", "", "98.15"},
		{"0198765432", "2,000.00", "0.00", "80.00", "0.00", "-5.00", "75.00"},
		{"Total", "3,000.00", "0.00", "178.00", "0.15", "-5.00", "173.15"},
	})
	page2 := celcomWordTablePage(4, [][]string{
		{"Registered Mobile Numbers"},
		celcomRegHeader,
		{"0132223344", "1,000.00", "0.00", "98.00", "0.15", "0.00", "98.15"},
		{"0111222333", "500.00", "0.00", "45.00", "0.00", "0.00", "45.00"},
	})
	page3 := extractor.Page{Number: 5, Text: "Monthly Amount\nDescription"}

	doc := &extractor.Document{Pages: []extractor.Page{page1, page2, page3}}
	pagesText := []string{page1.Text, page2.Text, page3.Text}

	rows := parseCelcomRegistered(doc, pagesText)
	if len(rows) != 3 {
		t.Fatalf("rows = %d: %+v", len(rows), rows)
	}
	want := []string{"60132223344", "60198765432", "60111222333"}
	for i, w := range want {
		if rows[i].Mobile != w {
			t.Errorf("rows[%d].Mobile = %q, want %q", i, rows[i].Mobile, w)
		}
	}
	// The continuation page's row for the same mobile fills the gap.
	if rows[0].Discounts == nil || *rows[0].Discounts != 0.00 {
		t.Errorf("merged discounts = %v", rows[0].Discounts)
	}
	if rows[0].Monthly == nil || *rows[0].Monthly != 98.00 {
		t.Errorf("rows[0].Monthly = %v", rows[0].Monthly)
	}
	if rows[2].Total == nil || *rows[2].Total != 45.00 {
		t.Errorf("rows[2].Total = %v", rows[2].Total)
	}
}

func TestCelcomRegisteredFuzzyRow(t *testing.T) {
	row := celcomRegisteredFuzzy([]string{"0198765432 5,000.00 0.00 80.00 12.50", "-5.00 87.50"})
	if row == nil {
		t.Fatal("fuzzy rescue returned nil")
	}
	if row.Mobile != "60198765432" {
		t.Errorf("mobile = %q", row.Mobile)
	}
	if *row.CreditLimit != 5000.00 || *row.Discounts != -5.00 || *row.Total != 87.50 {
		t.Errorf("amounts = %+v", row)
	}

	if celcomRegisteredFuzzy([]string{"Grand Total", "100.00"}) != nil {
		t.Error("non-mobile row should not fuzzy-match")
	}
}

func TestCelcomRegisteredTextFallback(t *testing.T) {
	text := strings.Join([]string{
		"Registered Mobile Numbers",
		"0132223344 1,000.00 0.00 98.00 0.15 0.00 98.15",
		"0198765432",
		"2,000.00 0.00 80.00",
		"0.00 -5.00 75.00",
		"Total 3,000.00 0.00 178.00 0.15 -5.00 173.15",
		"Monthly Amount",
	}, "\n")

	rows := parseCelcomRegisteredText(text)
	if len(rows) != 2 {
		t.Fatalf("rows = %d: %+v", len(rows), rows)
	}
	if rows[0].Mobile != "60132223344" || *rows[0].Total != 98.15 {
		t.Errorf("single-line row = %+v", rows[0])
	}
	if rows[1].Mobile != "60198765432" || *rows[1].Monthly != 80.00 || *rows[1].Discounts != -5.00 {
		t.Errorf("buffered row = %+v", rows[1])
	}
}

func TestCelcomSynthesizedMonthlyItems(t *testing.T) {
	raw := &CelcomRaw{
		Header: CelcomHeader{
			PlanName:    "MEGA Lightning 98",
			BillingFrom: "01/07/2025",
			BillingTo:   "31/07/2025",
		},
		Registered: []CelcomRegisteredRow{
			{Mobile: "60132223344", Monthly: floatPtr(98.00), Usage: floatPtr(0.15), Discounts: floatPtr(0.00), Total: floatPtr(98.15)},
			{Mobile: "60198765432", Monthly: floatPtr(80.00), Usage: floatPtr(0.00), Total: floatPtr(80.00)},
		},
	}
	assembleCelcom(raw)

	if len(raw.PerNumber) != 2 {
		t.Fatalf("per-number details = %d", len(raw.PerNumber))
	}
	d := raw.PerNumber[0]
	if len(d.Items) != 1 || d.Items[0].Description != "MEGA Lightning 98 - Monthly Fee" {
		t.Errorf("synthetic item = %+v", d.Items)
	}
	if *d.Items[0].Amount != 98.00 || d.Items[0].FromDate != "01/07/2025" {
		t.Errorf("synthetic item fields = %+v", d.Items[0])
	}
	if d.Total != 98.15 {
		t.Errorf("total = %v", d.Total)
	}
	if raw.Totals.Monthly == nil || *raw.Totals.Monthly != 178.00 {
		t.Errorf("monthly total = %v", raw.Totals.Monthly)
	}
	if raw.RegisteredTotals.Count != 2 || *raw.RegisteredTotals.SumTotal != 178.15 {
		t.Errorf("registered totals = %+v", raw.RegisteredTotals)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{2.344, 2.34},
		{2.346, 2.35},
		{-2.344, -2.34},
		{-2.346, -2.35},
		{0, 0},
		// magnitudes past the int64 range must survive unscathed
		{1e17, 1e17},
		{-1e17, -1e17},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
