package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/models"
)

var maxisPlan79Re = regexp.MustCompile(`(?i)Business\s+Postpaid\s*79`)

// normalizeMaxisPlan collapses spacing artifacts in plan names pulled
// from wrapped page text.
func normalizeMaxisPlan(plan string) string {
	s := strings.Join(strings.Fields(plan), " ")
	if maxisPlan79Re.MatchString(s) {
		return "Business Postpaid 79"
	}
	return s
}

// maxisPackage maps the raw Maxis parse onto the common envelope. Pure
// mapping: missing fields stay null, nothing is rejected here.
func maxisPackage(raw *MaxisRaw) *models.InvoicePackage {
	bs := raw.BillStatement
	cc := bs.CurrentCharges

	inv := models.Invoice{
		Vendor:        models.VendorMaxis,
		InvoiceNumber: bs.BillReference,
		AccountNumber: bs.AccountNumber,
		BillDate:      isoOrSame(bs.StatementDate),
		PeriodStart:   isoOrSame(bs.BillingFrom),
		PeriodEnd:     isoOrSame(bs.BillingTo),
		Currency:      "MYR",
		Subtotal:      models.MoneyPtr(cc.TotalChargesExclTax),
		TaxTotal:      models.MoneyPtr(cc.ServiceTax),
		GrandTotal:    models.MoneyPtr(cc.TotalCurrentCharges),
		ParserVersion: models.ParserVersion,
	}
	if bs.PaymentLastDate != "" {
		inv.Extra = map[string]any{"payment_last_date": isoOrSame(bs.PaymentLastDate)}
	}

	// Per-line totals come preferentially from the current-charges
	// summary block; a line missing there falls back to the sum of its
	// own charge rows.
	totalsByMsisdn := map[string]*float64{}
	for _, cl := range cc.Lines {
		totalsByMsisdn[cl.ServiceNo] = cl.Amount
	}

	numbers := make([]models.NumberEntry, 0, len(raw.Lines))
	for _, ln := range raw.Lines {
		total := totalsByMsisdn[ln.ServiceNo]
		if total == nil {
			sum := 0.0
			found := false
			for _, ch := range ln.Charges {
				if ch.Total != nil {
					sum += *ch.Total
					found = true
				}
			}
			if found {
				total = &sum
			}
		}

		entry := models.NumberEntry{
			MSISDN:     ln.ServiceNo,
			Plan:       normalizeMaxisPlan(ln.Plan),
			Subscriber: ln.AccountName,
			LineTotal:  models.MoneyPtr(total),
			Charges:    maxisDetailCharges(ln.Charges),
			Calls:      maxisCallRecords(ln.Calls),
		}
		numbers = append(numbers, entry)
	}

	charges := []models.Charge{}
	addCharge := func(category, label string, amount *float64) {
		if amount == nil {
			return
		}
		charges = append(charges, models.Charge{
			Category: category,
			Label:    label,
			Amount:   models.MoneyPtr(amount),
		})
	}
	addCharge("Previous", "Previous Balance", bs.PreviousBalance)
	addCharge("Other", "Overdue Amount", bs.OverdueAmount)
	if bs.PaymentReceived != nil {
		v := -abs(*bs.PaymentReceived)
		addCharge("Payments", "Payment Received", &v)
	}
	addCharge("Adjustments", "Adjustment", bs.Adjustment)
	addCharge("Monthly", "Total Charges (excluding Svc. Tax)", cc.TotalChargesExclTax)
	if cc.ServiceTax != nil {
		label := "Service Tax (%)"
		if cc.ServiceTaxRate != nil {
			label = fmt.Sprintf("Service Tax (%s%%)", trimRate(*cc.ServiceTaxRate))
		}
		addCharge("Tax", label, cc.ServiceTax)
	}
	addCharge("Current", "TOTAL CURRENT CHARGES", cc.TotalCurrentCharges)

	var payments []models.Payment
	for _, r := range raw.PaymentAdjustments {
		amt := r.Total
		if amt == nil {
			amt = r.Amount
		}
		if r.Date == "" || amt == nil {
			continue
		}
		payments = append(payments, models.Payment{
			Description: r.Description,
			Date:        isoOrSame(r.Date),
			Amount:      models.MoneyPtr(amt),
		})
	}

	return &models.InvoicePackage{
		Invoice:          inv,
		Numbers:          numbers,
		Charges:          charges,
		PreviousPayments: payments,
		Raw:              raw,
	}
}

func maxisDetailCharges(rows []MaxisChargeRow) []models.DetailCharge {
	var out []models.DetailCharge
	for _, r := range rows {
		amt := r.Total
		if amt == nil {
			amt = r.Amount
		}
		out = append(out, models.DetailCharge{
			Description: r.Item,
			Amount:      models.MoneyPtr(amt),
		})
	}
	return out
}

func maxisCallRecords(rows []MaxisCallRow) []models.CallRecord {
	var out []models.CallRecord
	for _, r := range rows {
		out = append(out, models.CallRecord{
			Date:     isoOrSame(r.Date),
			Time:     r.Time,
			Number:   r.NumberCalled,
			Duration: r.Duration,
			Amount:   models.MoneyPtr(r.Total),
		})
	}
	return out
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// trimRate renders a tax rate without a trailing ".0".
func trimRate(r float64) string {
	s := fmt.Sprintf("%g", r)
	return s
}
