// Package store persists finished invoice packages. The write is a
// replace: re-ingesting the same source file removes the prior rows for
// that (vendor, invoice number, file hash) identity before inserting,
// so repeated runs converge instead of duplicating.
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/models"
)

// Store is the persistence boundary consumed by ingest and the API.
type Store interface {
	SavePackage(ctx context.Context, pkg *models.InvoicePackage) error
}

// InvoiceRow is the flattened invoice header as persisted.
type InvoiceRow struct {
	ID             string           `db:"id"`
	Vendor         string           `db:"vendor"`
	InvoiceNumber  string           `db:"invoice_number"`
	AccountNumber  string           `db:"account_number"`
	BillDate       string           `db:"bill_date"`
	PeriodStart    string           `db:"period_start"`
	PeriodEnd      string           `db:"period_end"`
	Currency       string           `db:"currency"`
	Subtotal       *decimal.Decimal `db:"subtotal"`
	TaxTotal       *decimal.Decimal `db:"tax_total"`
	GrandTotal     *decimal.Decimal `db:"grand_total"`
	SourceFilename string           `db:"source_filename"`
	FileSHA256     string           `db:"file_sha256"`
	ParserVersion  string           `db:"parser_version"`
}

// NumberRow is one billed line.
type NumberRow struct {
	InvoiceID   string           `db:"invoice_id"`
	Position    int              `db:"position"`
	MSISDN      string           `db:"msisdn"`
	Description string           `db:"description"`
	Subscriber  string           `db:"subscriber"`
	Plan        string           `db:"plan"`
	LineTotal   *decimal.Decimal `db:"line_total"`
}

// ChargeRow is one invoice-level charge, from either bucket. Rows from
// the charges_summary bucket carry the tax split columns; rows from the
// fixed-taxonomy bucket carry category.
type ChargeRow struct {
	InvoiceID  string           `db:"invoice_id"`
	Position   int              `db:"position"`
	Bucket     string           `db:"bucket"`
	Category   string           `db:"category"`
	Label      string           `db:"label"`
	NonTaxable *decimal.Decimal `db:"non_taxable"`
	Taxable    *decimal.Decimal `db:"taxable"`
	Amount     *decimal.Decimal `db:"amount"`
}

// PaymentRow is one previous-payment history row.
type PaymentRow struct {
	InvoiceID   string           `db:"invoice_id"`
	Position    int              `db:"position"`
	Description string           `db:"description"`
	PaidDate    string           `db:"paid_date"`
	Amount      *decimal.Decimal `db:"amount"`
}

const (
	bucketCharges = "charges"
	bucketSummary = "charges_summary"
)

// flattenPackage maps a package onto its persisted row set. Positions
// preserve discovery order so a re-read reproduces the package order.
func flattenPackage(id string, pkg *models.InvoicePackage) (InvoiceRow, []NumberRow, []ChargeRow, []PaymentRow) {
	inv := pkg.Invoice
	header := InvoiceRow{
		ID:             id,
		Vendor:         string(inv.Vendor),
		InvoiceNumber:  inv.InvoiceNumber,
		AccountNumber:  inv.AccountNumber,
		BillDate:       inv.BillDate,
		PeriodStart:    inv.PeriodStart,
		PeriodEnd:      inv.PeriodEnd,
		Currency:       inv.Currency,
		Subtotal:       inv.Subtotal,
		TaxTotal:       inv.TaxTotal,
		GrandTotal:     inv.GrandTotal,
		SourceFilename: inv.SourceFilename,
		FileSHA256:     inv.FileSHA256,
		ParserVersion:  inv.ParserVersion,
	}

	numbers := make([]NumberRow, 0, len(pkg.Numbers))
	for i, n := range pkg.Numbers {
		numbers = append(numbers, NumberRow{
			InvoiceID:   id,
			Position:    i,
			MSISDN:      n.MSISDN,
			Description: n.Description,
			Subscriber:  n.Subscriber,
			Plan:        n.Plan,
			LineTotal:   n.LineTotal,
		})
	}

	var charges []ChargeRow
	for i, c := range pkg.Charges {
		charges = append(charges, ChargeRow{
			InvoiceID: id,
			Position:  i,
			Bucket:    bucketCharges,
			Category:  c.Category,
			Label:     c.Label,
			Amount:    c.Amount,
		})
	}
	for i, s := range pkg.ChargesSummary {
		charges = append(charges, ChargeRow{
			InvoiceID:  id,
			Position:   i,
			Bucket:     bucketSummary,
			Label:      s.Label,
			NonTaxable: s.NonTaxable,
			Taxable:    s.Taxable,
			Amount:     s.Total,
		})
	}

	payments := make([]PaymentRow, 0, len(pkg.PreviousPayments))
	for i, p := range pkg.PreviousPayments {
		payments = append(payments, PaymentRow{
			InvoiceID:   id,
			Position:    i,
			Description: p.Description,
			PaidDate:    p.Date,
			Amount:      p.Amount,
		})
	}

	return header, numbers, charges, payments
}
