package parser

import (
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/models"
)

// celcomPackage folds the raw Celcom parse into the common envelope.
// Celcom's invoice-level aggregate is the first page non-taxable /
// taxable / total breakdown, so the package carries charges_summary
// and no fixed-taxonomy charges bucket.
func celcomPackage(raw *CelcomRaw) *models.InvoicePackage {
	inv := models.Invoice{
		Vendor:        models.VendorCelcom,
		InvoiceNumber: raw.Header.StatementNumber,
		AccountNumber: raw.Header.AccountNumber,
		BillDate:      isoOrSame(raw.Header.BillDate),
		PeriodStart:   isoOrSame(raw.Header.BillingFrom),
		PeriodEnd:     isoOrSame(raw.Header.BillingTo),
		Currency:      "MYR",
		Subtotal:      models.MoneyPtr(raw.Summary.MonthlyCharges),
		TaxTotal:      models.MoneyPtr(raw.Summary.ServiceTax),
		GrandTotal:    models.MoneyPtr(raw.Summary.TotalAmountDue),
		ParserVersion: models.ParserVersion,
	}

	rounding := raw.Summary.RoundingAdjustment
	if rounding == nil && raw.Summary.TotalCurrentCharges != nil &&
		raw.Summary.MonthlyCharges != nil && raw.Summary.ServiceTax != nil {
		// Rounding is usually printed; when it is not, the summary
		// identity total = monthly + tax + rounding recovers it.
		r := round2(*raw.Summary.TotalCurrentCharges - *raw.Summary.MonthlyCharges - *raw.Summary.ServiceTax)
		if r < 0 {
			r = 0
		}
		rounding = floatPtr(r)
	}

	extra := map[string]any{}
	if raw.Header.CreditLimit != nil {
		extra["credit_limit"] = models.Money(*raw.Header.CreditLimit)
	}
	if raw.Header.Deposit != nil {
		extra["deposit"] = models.Money(*raw.Header.Deposit)
	}
	if raw.Header.PlanName != "" {
		extra["plan_name"] = raw.Header.PlanName
	}
	if raw.Header.StatementMonth != "" {
		extra["bill_statement_month"] = raw.Header.StatementMonth
	}
	if raw.Summary.PreviousBalance != nil {
		extra["previous_balance"] = models.Money(*raw.Summary.PreviousBalance)
	}
	if raw.Summary.OverdueCharges != nil {
		extra["total_overdue_charges"] = models.Money(*raw.Summary.OverdueCharges)
	}
	if rounding != nil {
		extra["rounding_adjustment"] = models.Money(*rounding)
	}
	if raw.Summary.TotalCurrentCharges != nil {
		extra["total_current_charges"] = models.Money(*raw.Summary.TotalCurrentCharges)
	}
	if raw.Summary.DueDate != "" {
		extra["due_date"] = isoOrSame(raw.Summary.DueDate)
	}
	if len(extra) > 0 {
		inv.Extra = extra
	}

	pkg := &models.InvoicePackage{
		Invoice:        inv,
		Numbers:        []models.NumberEntry{},
		ChargesSummary: []models.SummaryRow{},
		Raw:            raw,
	}

	for _, row := range raw.Breakdown {
		pkg.ChargesSummary = append(pkg.ChargesSummary, models.SummaryRow{
			Label:      row.Category,
			NonTaxable: models.MoneyPtr(row.NonTaxable),
			Taxable:    models.MoneyPtr(row.Taxable),
			Total:      models.MoneyPtr(row.Total),
		})
	}

	callRows := raw.LocalCalls
	if len(callRows) == 0 {
		callRows = append(append([]CelcomCallRow{}, raw.CallsCelcom...), raw.CallsNonCelcom...)
	}

	for _, d := range raw.PerNumber {
		entry := models.NumberEntry{
			MSISDN:     d.Mobile,
			Subscriber: raw.Header.CustomerName,
			Plan:       raw.Header.PlanName,
			LineTotal:  models.MoneyPtr(floatPtr(d.Total)),
		}

		if d.Monthly != nil {
			label := d.MonthlyDesc
			if label == "" {
				label = "Monthly Fee"
			}
			entry.Charges = append(entry.Charges, models.DetailCharge{
				Category:    "Monthly",
				Description: label,
				Amount:      models.MoneyPtr(d.Monthly),
			})
		}
		if d.Usage != nil {
			entry.Charges = append(entry.Charges, models.DetailCharge{
				Category:    "Usage",
				Description: "Local Calls & Messages (Celcom/Non-Celcom)",
				Amount:      models.MoneyPtr(d.Usage),
			})
		}
		if d.Discounts != nil {
			entry.Charges = append(entry.Charges, models.DetailCharge{
				Category:    "Discounts",
				Description: "Discounts & Rebates",
				Amount:      models.MoneyPtr(d.Discounts),
			})
		}
		for _, it := range d.Items {
			entry.Items = append(entry.Items, models.LineItem{
				Description: it.Description,
				From:        isoOrSame(it.FromDate),
				To:          isoOrSame(it.ToDate),
				Amount:      models.MoneyPtr(it.Amount),
			})
		}
		for _, it := range d.DiscountItems {
			entry.Charges = append(entry.Charges, models.DetailCharge{
				Category:    "Discounts",
				Description: it.Description,
				Amount:      models.MoneyPtr(it.Amount),
			})
		}

		// Call listings are bill wide on Celcom statements; they are
		// only attributable to a line when there is exactly one.
		if len(raw.PerNumber) == 1 {
			for _, c := range callRows {
				entry.Calls = append(entry.Calls, models.CallRecord{
					Date:     isoOrSame(c.Date),
					Time:     c.Time,
					Number:   c.CalledNumber,
					Duration: c.Duration,
					Amount:   models.MoneyPtr(c.Amount),
				})
			}
			for _, v := range raw.ValueAdded {
				entry.Calls = append(entry.Calls, models.CallRecord{
					Date:        isoOrSame(v.Date),
					Time:        v.Time,
					Number:      v.CalledNumber,
					Description: v.Description,
					Amount:      models.MoneyPtr(v.Amount),
				})
			}
		}

		if d.DurCelcom != "" || d.DurNonCelcom != "" || d.DurLocal != "" {
			entry.Durations = &models.DurationTotals{
				Celcom:    d.DurCelcom,
				NonCelcom: d.DurNonCelcom,
				Local:     d.DurLocal,
			}
		}
		pkg.Numbers = append(pkg.Numbers, entry)
	}

	for _, p := range raw.PreviousPayments {
		pkg.PreviousPayments = append(pkg.PreviousPayments, models.Payment{
			Description: p.Description,
			Date:        isoOrSame(p.Date),
			Amount:      models.MoneyPtr(p.Amount),
		})
	}

	return pkg
}
