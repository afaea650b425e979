package parser

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

const digiPage1 = `CelcomDigi Berhad
Account No : 1000234567
Invoice No : 9001122334
Invoice Date : 05 Aug 2025
Invoice Period : 01 Jul 2025 to 31 Jul 2025
No of Lines : 2
Payment Due Date : 05 Sep 2025
Total Outstanding 265.00
Previous Bill(s) 250.00
Payments 250.00
Adjustments 0.00
Monthly Fixed Charges 230.00
Usage 20.00
Discounts 10.00
Service Tax 15.00
Current Bill 265.00`

const digiPage2 = `Service Summary
Mobile No Description Subscriber Amount
0123456789 ALPHA TRADING SDN
BHD CelcomDigi Business Postpaid 5G 80 120.00
0198765432 BETA LOGISTICS
BERHAD CelcomDigi Business Postpaid 5G 120 130.00
Subtotal 250.00
Service Tax 6% / 8%
Others - 6 percent 15.00
Total 15.00
Current Bill Amount 265.00
Previous Payment Details
15 Jul 2025 250.00`

const digiPage3 = `Detail of Charges
Mobile No 0123456789
CelcomDigi Business Postpaid 5G 80 80.00
Device Instalment OCC 40.00
Rebate Postpaid -5.00
diginet.com.my 1,024 kb 5.00
Subtotal 120.00
Mobile No 0198765432
CelcomDigi Business Postpaid 5G 120 110.00
digisecure basic 10.00
Subtotal 120.00`

func TestDigiParseEndToEnd(t *testing.T) {
	doc := docFromPages(digiPage1, digiPage2, digiPage3)
	p := &DigiParser{}
	pkg, err := p.Parse(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	inv := pkg.Invoice
	if inv.InvoiceNumber != "9001122334" || inv.AccountNumber != "1000234567" {
		t.Errorf("invoice ids = %q / %q", inv.InvoiceNumber, inv.AccountNumber)
	}
	if inv.BillDate != "2025-08-05" {
		t.Errorf("bill date = %q", inv.BillDate)
	}
	if inv.PeriodStart != "2025-07-01" || inv.PeriodEnd != "2025-07-31" {
		t.Errorf("period = %q .. %q", inv.PeriodStart, inv.PeriodEnd)
	}
	if inv.Subtotal == nil || inv.Subtotal.String() != "265" {
		t.Errorf("subtotal = %v", inv.Subtotal)
	}
	if inv.TaxTotal == nil || inv.TaxTotal.String() != "15" {
		t.Errorf("tax = %v", inv.TaxTotal)
	}
	if inv.GrandTotal == nil || inv.GrandTotal.String() != "265" {
		t.Errorf("grand total = %v", inv.GrandTotal)
	}
	if inv.Extra["due_date"] != "2025-09-05" || inv.Extra["no_of_lines"] != "2" {
		t.Errorf("extra = %+v", inv.Extra)
	}

	if pkg.ChargesSummary != nil {
		t.Errorf("digi package should carry charges, not charges_summary")
	}
	want := []struct {
		category, label, amount string
	}{
		{"Previous", "Previous Balance", "250"},
		{"Payments", "Payment Received", "-250"},
		{"Adjustments", "Adjustment", "0"},
		{"Monthly", "Monthly Fixed Charges", "230"},
		{"Usage", "Usage", "20"},
		{"Discounts", "Discounts", "10"},
		{"Tax", "Service Tax", "15"},
		{"Other", "Current Charges (card)", "265"},
	}
	if len(pkg.Charges) != len(want) {
		t.Fatalf("charges = %d: %+v", len(pkg.Charges), pkg.Charges)
	}
	for i, w := range want {
		c := pkg.Charges[i]
		if c.Category != w.category || c.Label != w.label || c.Amount.String() != w.amount {
			t.Errorf("charges[%d] = %+v, want %+v", i, c, w)
		}
	}

	if len(pkg.Numbers) != 2 {
		t.Fatalf("numbers = %d", len(pkg.Numbers))
	}
	n := pkg.Numbers[0]
	if n.MSISDN != "0123456789" {
		t.Errorf("msisdn = %q", n.MSISDN)
	}
	if n.Description != "CelcomDigi Business Postpaid 5G 80" {
		t.Errorf("description = %q", n.Description)
	}
	if n.Subscriber != "ALPHA TRADING SDN BHD" {
		t.Errorf("subscriber = %q", n.Subscriber)
	}
	if len(n.Items) != 3 {
		t.Fatalf("items = %+v", n.Items)
	}
	if n.Items[2].Amount.String() != "-5" {
		t.Errorf("rebate amount = %v", n.Items[2].Amount)
	}
	if n.LineTotal == nil || n.LineTotal.String() != "115" {
		t.Errorf("line total = %v", n.LineTotal)
	}
	if len(n.Charges) != 1 {
		t.Fatalf("detail charges = %+v", n.Charges)
	}
	dc := n.Charges[0]
	if dc.Category != "Internet/Data" || dc.AccessPoint != "diginet.com.my" || dc.VolumeKB != 1024 || dc.Amount.String() != "5" {
		t.Errorf("data row = %+v", dc)
	}

	n2 := pkg.Numbers[1]
	if n2.MSISDN != "0198765432" || n2.Subscriber != "BETA LOGISTICS BERHAD" {
		t.Errorf("second line = %q / %q", n2.MSISDN, n2.Subscriber)
	}
	// "digisecure" carries the Secure billing keyword, so that line
	// lands in the itemised bill rather than the data rows.
	if len(n2.Items) != 2 || len(n2.Charges) != 0 {
		t.Errorf("second line items = %+v charges = %+v", n2.Items, n2.Charges)
	}
	if n2.LineTotal == nil || n2.LineTotal.String() != "120" {
		t.Errorf("second line total = %v", n2.LineTotal)
	}

	if len(pkg.PreviousPayments) != 1 {
		t.Fatalf("previous payments = %+v", pkg.PreviousPayments)
	}
	pay := pkg.PreviousPayments[0]
	if pay.Date != "2025-07-15" || pay.Amount.String() != "250" {
		t.Errorf("payment = %+v", pay)
	}
}

func TestDigiParseDeterministic(t *testing.T) {
	doc := docFromPages(digiPage1, digiPage2, digiPage3)
	p := &DigiParser{}

	first, err := p.Parse(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	second, err := p.Parse(doc)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("re-extraction produced different JSON")
	}
}

func TestDigiSummaryDedup(t *testing.T) {
	// Overlapping windows that matched the same physical row collapse
	// to one entry; a row with a different amount survives.
	block := strings.Join([]string{
		"Mobile No Description Subscriber Amount",
		"0123456789 ALPHA TRADING SDN BHD CelcomDigi Business Postpaid 5G 80 120.00",
		"0123456789 ALPHA TRADING SDN BHD CelcomDigi Business Postpaid 5G 80 120.00",
		"0123456789 ALPHA TRADING SDN BHD CelcomDigi Business Postpaid 5G 80 130.00",
		"Subtotal 370.00",
	}, "\n")

	ss := parseDigiServiceSummary(block)
	if len(ss.Lines) != 3 {
		t.Fatalf("raw lines = %d", len(ss.Lines))
	}
	rows := digiDedupSummary("9001122334", ss.Lines)
	if len(rows) != 2 {
		t.Fatalf("deduped lines = %d: %+v", len(rows), rows)
	}
	if rows[0].Total != 120.00 || rows[1].Total != 130.00 {
		t.Errorf("totals = %v / %v", rows[0].Total, rows[1].Total)
	}
}

func TestDigiBestSubscriber(t *testing.T) {
	// Longest company chunk wins, suffix casing is normalized.
	got := digiBestSubscriber("0123456789 ACME SDN BHD 44 LONGER NAME TRADING BERHAD 1.00")
	if got != "LONGER NAME TRADING BERHAD" {
		t.Errorf("subscriber = %q", got)
	}
	if got := digiBestSubscriber("GAMMA HOLDINGS Sdn Bhd something"); got != "GAMMA HOLDINGS SDN BHD" {
		t.Errorf("normalized subscriber = %q", got)
	}
	if got := digiBestSubscriber("no company here 1.00"); got != "" {
		t.Errorf("subscriber = %q", got)
	}
}

func TestDigiComposeDescription(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Postpaid 5G 80 something CelcomDigi Business", "CelcomDigi Business Postpaid 5G 80"},
		{"CelcomDigi Business only", "CelcomDigi Business Postpaid 5G 80"},
		{"plan Postpaid 5G 120", "CelcomDigi Business Postpaid 5G 120"},
		{"nothing recognizable", "CelcomDigi Business Postpaid 5G 80"},
	}
	for _, c := range cases {
		if got := digiComposeDescription(c.in); got != c.want {
			t.Errorf("compose(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDigiDueDateFallback(t *testing.T) {
	h := parseDigiHeader("Invoice No : 5\nCurrent Bill : 265.00 05 Sep 2025")
	if h.DueDate != "05 Sep 2025" {
		t.Errorf("due date = %q", h.DueDate)
	}
}

func TestDigiZeroPaymentsStaysNull(t *testing.T) {
	cs := parseDigiChargesSummary("Payments 0.00")
	if cs.Payments != nil {
		t.Errorf("zero payments = %v", cs.Payments)
	}
	cs = parseDigiChargesSummary("Payments 250.00")
	if cs.Payments == nil || *cs.Payments != -250.00 {
		t.Errorf("payments = %v", cs.Payments)
	}
}

func TestDigiDetailBackfill(t *testing.T) {
	text := strings.Join([]string{
		"Mobile No 0111222333",
		"GAMMA HOLDINGS SDN BHD CelcomDigi Business Postpaid 5G 40 40.00",
	}, "\n")

	details := parseDigiServiceDetails(text, nil)
	if len(details) != 1 {
		t.Fatalf("details = %+v", details)
	}
	d := details[0]
	if d.MobileNo != "0111222333" {
		t.Errorf("mobile = %q", d.MobileNo)
	}
	if d.Description != "CelcomDigi Business Postpaid 5G 40" {
		t.Errorf("backfilled description = %q", d.Description)
	}
	if d.Subscriber != "GAMMA HOLDINGS SDN BHD" {
		t.Errorf("backfilled subscriber = %q", d.Subscriber)
	}
}
