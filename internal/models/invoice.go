package models

import (
	"github.com/shopspring/decimal"
)

func init() {
	// Monetary fields serialize as plain JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Vendor identifies a supported telecom invoice format.
type Vendor string

const (
	VendorMaxis  Vendor = "maxis"
	VendorCelcom Vendor = "celcom"
	VendorDigi   Vendor = "digi"
)

// ParserVersion is stamped into every extracted invoice for provenance.
const ParserVersion = "1.4.0"

// Money quantizes a float to a 2-decimal-place amount (half-up).
func Money(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}

// MoneyPtr converts an optional float into an optional 2dp amount.
// A nil input stays nil, preserving "undetectable in source" fields.
func MoneyPtr(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := Money(*f)
	return &d
}

// Invoice is the header record of a package.
// Vendor and Currency are always set; everything else is best-effort.
type Invoice struct {
	Vendor         Vendor           `json:"vendor"`
	InvoiceNumber  string           `json:"invoice_number,omitempty"`
	AccountNumber  string           `json:"account_number,omitempty"`
	BillDate       string           `json:"bill_date,omitempty"`
	PeriodStart    string           `json:"period_start,omitempty"`
	PeriodEnd      string           `json:"period_end,omitempty"`
	Currency       string           `json:"currency"`
	Subtotal       *decimal.Decimal `json:"subtotal,omitempty"`
	TaxTotal       *decimal.Decimal `json:"tax_total,omitempty"`
	GrandTotal     *decimal.Decimal `json:"grand_total,omitempty"`
	SourceFilename string           `json:"source_filename,omitempty"`
	FileSHA256     string           `json:"file_sha256,omitempty"`
	ParserVersion  string           `json:"parser_version,omitempty"`
	// Extra carries vendor header fields with no common-schema home
	// (credit limit, deposit, plan name, rounding adjustment, ...).
	Extra map[string]any `json:"extra,omitempty"`
}

// Charge is one invoice-level summary row.
type Charge struct {
	Category string           `json:"category"`
	Label    string           `json:"label"`
	Amount   *decimal.Decimal `json:"amount"`
}

// SummaryRow is the alternative invoice-level aggregate shape: a
// category/total breakdown with tax split, instead of a fixed taxonomy.
type SummaryRow struct {
	Label      string           `json:"label"`
	NonTaxable *decimal.Decimal `json:"non_taxable,omitempty"`
	Taxable    *decimal.Decimal `json:"taxable,omitempty"`
	Total      *decimal.Decimal `json:"total"`
}

// LineItem is a dated recurring item attached to a billed number.
type LineItem struct {
	Description string           `json:"description"`
	From        string           `json:"from,omitempty"`
	To          string           `json:"to,omitempty"`
	Amount      *decimal.Decimal `json:"amount"`
}

// DetailCharge is one itemized row in a number's detail-of-charges list.
// Data/usage rows additionally carry the access point and volume.
type DetailCharge struct {
	Category    string           `json:"category,omitempty"`
	Description string           `json:"description"`
	AccessPoint string           `json:"access_point,omitempty"`
	VolumeKB    int64            `json:"volume_kb,omitempty"`
	Amount      *decimal.Decimal `json:"amount"`
}

// CallRecord is a single call or message row from a usage table.
type CallRecord struct {
	Date        string           `json:"date,omitempty"`
	Time        string           `json:"time,omitempty"`
	Number      string           `json:"number,omitempty"`
	Description string           `json:"description,omitempty"`
	Duration    string           `json:"duration,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
}

// DurationTotals reports summed call time per destination bucket, HH:MM:SS.
type DurationTotals struct {
	Celcom    string `json:"celcom,omitempty"`
	NonCelcom string `json:"non_celcom,omitempty"`
	Local     string `json:"local,omitempty"`
}

// NumberEntry is one billed phone line.
type NumberEntry struct {
	MSISDN      string           `json:"msisdn"`
	Description string           `json:"description,omitempty"`
	Subscriber  string           `json:"subscriber,omitempty"`
	Plan        string           `json:"plan,omitempty"`
	Items       []LineItem       `json:"items,omitempty"`
	Charges     []DetailCharge   `json:"charges,omitempty"`
	Calls       []CallRecord     `json:"calls,omitempty"`
	Durations   *DurationTotals  `json:"duration_totals,omitempty"`
	LineTotal   *decimal.Decimal `json:"line_total,omitempty"`
}

// Payment is one row of payment history.
type Payment struct {
	Description string           `json:"description,omitempty"`
	Date        string           `json:"date,omitempty"`
	Amount      *decimal.Decimal `json:"amount"`
}

// ParseIssue records a localized extraction failure that was degraded
// rather than raised: a page, table, or section that contributed nothing.
type ParseIssue struct {
	Vendor  Vendor `json:"vendor"`
	Page    int    `json:"page,omitempty"`
	Section string `json:"section,omitempty"`
	Message string `json:"message"`
}

// InvoicePackage is the universal output contract shared by every
// vendor extractor. Exactly one of Charges or ChargesSummary is the
// invoice-level aggregate bucket, depending on the vendor.
type InvoicePackage struct {
	Invoice          Invoice      `json:"invoice"`
	Numbers          []NumberEntry `json:"numbers"`
	Charges          []Charge      `json:"charges,omitempty"`
	ChargesSummary   []SummaryRow  `json:"charges_summary,omitempty"`
	PreviousPayments []Payment     `json:"previous_payments,omitempty"`
	Raw              any           `json:"raw,omitempty"`
	Issues           []ParseIssue  `json:"issues,omitempty"`
}

// HasChargeBucket reports whether either aggregate bucket is present.
// The bucket may be empty; present-but-empty still satisfies the contract.
func (p *InvoicePackage) HasChargeBucket() bool {
	return p.Charges != nil || p.ChargesSummary != nil
}
