package parser

import (
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/models"
)

// digiPackage maps the raw Digi parse onto the common envelope. The
// fixed charges-summary taxonomy becomes flat {category,label,amount}
// rows; Payments arrives already negated from the parse.
func digiPackage(raw *DigiRaw) *models.InvoicePackage {
	hdr := raw.Header
	chs := raw.ChargesSummary

	periodStart, periodEnd := splitPeriod(hdr.InvoicePeriod)

	grand := chs.TotalOutstanding
	if grand == nil || *grand == 0 {
		grand = chs.CurrentBill
	}

	inv := models.Invoice{
		Vendor:        models.VendorDigi,
		InvoiceNumber: hdr.InvoiceNo,
		AccountNumber: hdr.AccountNo,
		BillDate:      isoOrSame(hdr.InvoiceDate),
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		Currency:      "MYR",
		Subtotal:      models.MoneyPtr(chs.CurrentBill),
		TaxTotal:      models.MoneyPtr(chs.ServiceTax),
		GrandTotal:    models.MoneyPtr(grand),
		ParserVersion: models.ParserVersion,
	}
	extra := map[string]any{}
	if hdr.DueDate != "" {
		extra["due_date"] = isoOrSame(hdr.DueDate)
	}
	if hdr.NoOfLines != "" {
		extra["no_of_lines"] = hdr.NoOfLines
	}
	if len(extra) > 0 {
		inv.Extra = extra
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
	addCharge("Previous", "Previous Balance", chs.PreviousBills)
	addCharge("Payments", "Payment Received", chs.Payments)
	addCharge("Adjustments", "Adjustment", chs.Adjustments)
	addCharge("Other", "Overdue Amount", chs.PreviousOverdue)
	addCharge("Monthly", "Monthly Fixed Charges", chs.MonthlyFixed)
	addCharge("Usage", "Usage", chs.Usage)
	addCharge("Other", "Other Credits", chs.OtherCredits)
	addCharge("Discounts", "Discounts", chs.Discounts)
	addCharge("Tax", "Service Tax", chs.ServiceTax)
	addCharge("Other", "Current Charges (card)", chs.CurrentBill)

	numbers := make([]models.NumberEntry, 0, len(raw.ServiceDetails))
	for _, d := range raw.ServiceDetails {
		if d.MobileNo == "" {
			continue
		}

		items := make([]models.LineItem, 0, len(d.ItemisedBill))
		itemTotal := 0.0
		for _, it := range d.ItemisedBill {
			itemTotal += it.Amount
			items = append(items, models.LineItem{
				Description: it.Description,
				Amount:      models.MoneyPtr(floatPtr(it.Amount)),
			})
		}
		var lineTotal *float64
		if itemTotal != 0 {
			lineTotal = floatPtr(itemTotal)
		}

		var detail []models.DetailCharge
		for _, r := range d.DetailOfCharges {
			detail = append(detail, models.DetailCharge{
				Category:    r.Category,
				Description: r.AccessPoint,
				AccessPoint: r.AccessPoint,
				VolumeKB:    r.VolumeKB,
				Amount:      models.MoneyPtr(floatPtr(r.Amount)),
			})
		}

		numbers = append(numbers, models.NumberEntry{
			MSISDN:      normalizeMsisdn(d.MobileNo),
			Description: d.Description,
			Subscriber:  d.Subscriber,
			Items:       items,
			Charges:     detail,
			LineTotal:   models.MoneyPtr(lineTotal),
		})
	}

	var payments []models.Payment
	for _, p := range raw.PaymentHistory {
		payments = append(payments, models.Payment{
			Date:   isoOrSame(p.Date),
			Amount: models.MoneyPtr(floatPtr(p.Amount)),
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
