package parser

import (
	"testing"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/extractor"
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/models"
)

func docFromPages(pages ...string) *extractor.Document {
	doc := &extractor.Document{}
	for i, p := range pages {
		doc.Pages = append(doc.Pages, extractor.Page{
			Number: i + 1,
			Text:   p,
			Lines:  extractor.NormalizeLines(p),
		})
	}
	return doc
}

const maxisPage1 = `Maxis Berhad
Bill Statement / Penyata Bil
Account No / No. Akaun : 1001675908
Statement Date / Tarikh Penyata : 28/07/2025
Billing Period / Tempoh Bil 28/06/2025 - 27/07/2025
Previous Balance / Baki Terdahulu 150.00
Bill Reference / No. Rujukan 202500419618
Payment Received / Bayaran Diterima 150.00
Adjustment / Pelarasan 0.00
Overdue Amount / Caj Tertunggak 0.00
Payment Last Date / Tarikh Akhir Bayaran 18/08/2025`

const maxisPage2 = `Current Charges / Caj Semasa
MOBILE 329.00
60123456789 - Business Postpaid 98 164.50
60198765432 - Business Postpaid 98 164.50
Total Charges (excluding Svc. Tax) 310.00
Service Tax (8% / Cukai Perkhidmatan) 24.80
TOTAL CURRENT CHARGES 334.80`

func TestMaxisBillStatement(t *testing.T) {
	doc := docFromPages(maxisPage1, maxisPage2)
	p := &MaxisParser{}
	pkg, err := p.Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	raw, ok := pkg.Raw.(*MaxisRaw)
	if !ok {
		t.Fatalf("Raw is %T, want *MaxisRaw", pkg.Raw)
	}
	bs := raw.BillStatement

	if bs.AccountNumber != "1001675908" {
		t.Errorf("account_number = %q", bs.AccountNumber)
	}
	if bs.BillReference != "202500419618" {
		t.Errorf("bill_reference = %q", bs.BillReference)
	}
	if bs.StatementDate != "28/07/2025" {
		t.Errorf("statement_date = %q", bs.StatementDate)
	}
	if bs.BillingFrom != "28/06/2025" || bs.BillingTo != "27/07/2025" {
		t.Errorf("billing period = %q..%q", bs.BillingFrom, bs.BillingTo)
	}
	if bs.PreviousBalance == nil || *bs.PreviousBalance != 150.00 {
		t.Errorf("previous_balance = %v", bs.PreviousBalance)
	}
	if bs.PaymentLastDate != "18/08/2025" {
		t.Errorf("payment_last_date = %q", bs.PaymentLastDate)
	}

	cc := bs.CurrentCharges
	if cc.MobileTotal == nil || *cc.MobileTotal != 329.00 {
		t.Errorf("mobile_total = %v", cc.MobileTotal)
	}
	if len(cc.Lines) != 2 {
		t.Fatalf("current charge lines = %d, want 2", len(cc.Lines))
	}
	if cc.Lines[0].ServiceNo != "60123456789" || *cc.Lines[0].Amount != 164.50 {
		t.Errorf("line 0 = %+v", cc.Lines[0])
	}
	if cc.TotalChargesExclTax == nil || *cc.TotalChargesExclTax != 310.00 {
		t.Errorf("total_charges_excl_tax = %v", cc.TotalChargesExclTax)
	}
	if cc.ServiceTaxRate == nil || *cc.ServiceTaxRate != 8 {
		t.Errorf("service_tax_rate = %v", cc.ServiceTaxRate)
	}
	if cc.TotalCurrentCharges == nil || *cc.TotalCurrentCharges != 334.80 {
		t.Errorf("total_current_charges = %v", cc.TotalCurrentCharges)
	}

	if pkg.Invoice.BillDate != "2025-07-28" {
		t.Errorf("invoice bill_date = %q", pkg.Invoice.BillDate)
	}
	if pkg.Invoice.PeriodStart != "2025-06-28" || pkg.Invoice.PeriodEnd != "2025-07-27" {
		t.Errorf("invoice period = %q..%q", pkg.Invoice.PeriodStart, pkg.Invoice.PeriodEnd)
	}
}

func TestMaxisSectionCarryForward(t *testing.T) {
	doc := docFromPages(
		"Tax summary page with no line detail",
		"60111111111\nBusiness Postpaid 98\nAccount Name / Nama Akaun : ACME SDN BHD",
		"Continuation page\n01/07/2025 10:00:00 0123456789 00:05:30 P 2.50",
		"60222222222\nBusiness Postpaid 79",
	)
	p := &MaxisParser{}
	sections := p.discoverSections(doc)
	if len(sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(sections))
	}
	a, b := sections[0], sections[1]
	if a.serviceNo != "60111111111" {
		t.Errorf("section A = %q", a.serviceNo)
	}
	if len(a.pages) != 2 || a.pages[0] != 2 || a.pages[1] != 3 {
		t.Errorf("section A pages = %v, want [2 3]", a.pages)
	}
	if a.accountName != "ACME SDN BHD" {
		t.Errorf("section A account name = %q", a.accountName)
	}
	if len(b.pages) != 1 || b.pages[0] != 4 {
		t.Errorf("section B pages = %v, want [4]", b.pages)
	}
}

func TestMaxisCallsFromText(t *testing.T) {
	lines := []string{
		"Itemized Calls",
		"01/07/2025 10:00:00 0123456789 00:05:30 P 2.50",
		"02/07/2025 23:59:59 60198765432 00:00:45 0.00",
		"no call data here",
	}
	rows := maxisCallsFromText(lines)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	r0 := rows[0]
	if r0.Date != "01/07/2025" || r0.Time != "10:00:00" || r0.Duration != "00:05:30" {
		t.Errorf("row 0 = %+v", r0)
	}
	if r0.NumberCalled != "0123456789" || r0.Period != "P" || *r0.Total != 2.50 {
		t.Errorf("row 0 = %+v", r0)
	}
	if r0.DurationSec == nil || *r0.DurationSec != 330 {
		t.Errorf("duration_sec = %v", r0.DurationSec)
	}
	if rows[1].GrossAmount == nil || *rows[1].GrossAmount != 0 {
		t.Errorf("zero-amount call should get zero gross: %+v", rows[1])
	}
}

func TestMaxisChargesFromText(t *testing.T) {
	lines := []string{
		"Y Monthly Charges 01/07/2025 - 31/07/2025 98.00",
		"Y Data Add-On 10.00",
		"Total Line Charges / excluding tax 108.00",
		"Y This Row Comes After The Total 5.00",
	}
	rows := maxisChargesFromText(lines)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3 (scan stops at total)", len(rows))
	}
	if *rows[0].Total != 98.00 {
		t.Errorf("row 0 total = %v", rows[0].Total)
	}
	if rows[2].Item != "Total Line Charges (excluding Svc. Tax)" || *rows[2].Total != 108.00 {
		t.Errorf("total row = %+v", rows[2])
	}
}

func TestMaxisPaymentRowReconstruction(t *testing.T) {
	header := []string{"Description / Penerangan", "Service Identifier", "Date / Tarikh", "Amount", "Svc Tax", "Total"}
	body := extractor.Table{
		{"Payment & Adjustment", "", "", "", "", ""},
		{"JomPay Internet Banking", "", "", "", "", ""},
		{"Receipt 881234", "60111111111", "05/07/2025", "150.00", "0.00", "150.00"},
		{"PAYMENT", "", "", "", "", "25.00"},
		{"GIRO Collection", "60222222222", "12/07/2025", "25.00", "", ""},
	}
	rows := normalizeMaxisPayments(header, body)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2: %+v", len(rows), rows)
	}
	if rows[0].Description != "JomPay Internet Banking Receipt 881234" {
		t.Errorf("carried description = %q", rows[0].Description)
	}
	if rows[0].Date != "05/07/2025" || *rows[0].Total != 150.00 {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Description != "PAYMENT - GIRO Collection" {
		t.Errorf("merged PAYMENT row = %q", rows[1].Description)
	}
	if rows[1].Total == nil || *rows[1].Total != 25.00 {
		t.Errorf("merged row should inherit the label row's total: %+v", rows[1])
	}
}

func TestMaxisAdapterLineTotals(t *testing.T) {
	raw := &MaxisRaw{
		BillStatement: MaxisBillStatement{
			CurrentCharges: MaxisCurrentCharges{
				Lines: []MaxisCurrentLine{
					{ServiceNo: "60111111111", Plan: "Business Postpaid 98", Amount: floatPtr(164.50)},
				},
			},
			PaymentReceived: floatPtr(150.00),
		},
		Lines: []MaxisLine{
			{
				ServiceNo: "60111111111",
				Plan:      "Business  Postpaid   79",
				Charges:   []MaxisChargeRow{{Item: "x", Total: floatPtr(1)}},
			},
			{
				ServiceNo: "60333333333",
				Charges: []MaxisChargeRow{
					{Item: "Monthly", Total: floatPtr(98.00)},
					{Item: "Add-on", Total: floatPtr(10.00)},
				},
			},
		},
	}
	pkg := maxisPackage(raw)

	if len(pkg.Numbers) != 2 {
		t.Fatalf("numbers = %d", len(pkg.Numbers))
	}
	// Summary-block amount wins over the line's own charge sum.
	if pkg.Numbers[0].LineTotal.InexactFloat64() != 164.50 {
		t.Errorf("line 0 total = %v", pkg.Numbers[0].LineTotal)
	}
	if pkg.Numbers[0].Plan != "Business Postpaid 79" {
		t.Errorf("plan normalize = %q", pkg.Numbers[0].Plan)
	}
	// No summary row: fall back to summing the charge table.
	if pkg.Numbers[1].LineTotal.InexactFloat64() != 108.00 {
		t.Errorf("line 1 total = %v", pkg.Numbers[1].LineTotal)
	}

	var payment *models.Charge
	for i := range pkg.Charges {
		if pkg.Charges[i].Category == "Payments" {
			payment = &pkg.Charges[i]
		}
	}
	if payment == nil || payment.Amount.InexactFloat64() != -150.00 {
		t.Errorf("payment charge = %+v", payment)
	}

	if pkg.Charges == nil || pkg.ChargesSummary != nil {
		t.Error("maxis packages use the charges bucket, not charges_summary")
	}
	if pkg.Invoice.Vendor != models.VendorMaxis || pkg.Invoice.Currency != "MYR" {
		t.Errorf("invoice header = %+v", pkg.Invoice)
	}
}
