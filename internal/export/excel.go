// Package export renders a parsed invoice package into spreadsheet
// form: an Excel workbook with one sheet per billed number plus a
// combined calls sheet, and a flat calls CSV.
package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/models"
)

const summarySheet = "Summary"
const allCallsSheet = "All_Calls"

// WriteWorkbook renders pkg and writes the workbook to path.
func WriteWorkbook(pkg *models.InvoicePackage, path string) error {
	data, err := WorkbookBytes(pkg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing workbook %s: %w", path, err)
	}
	return nil
}

// WorkbookBytes renders pkg into XLSX bytes. Sheet order follows the
// package: Summary, one sheet per number in extraction order, All_Calls.
func WorkbookBytes(pkg *models.InvoicePackage) ([]byte, error) {
	if pkg == nil {
		return nil, fmt.Errorf("export: nil package")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	writeSummarySheet(f, pkg)

	used := map[string]bool{strings.ToLower(summarySheet): true, strings.ToLower(allCallsSheet): true}
	for _, n := range pkg.Numbers {
		name := sheetNameFor(n.MSISDN, used)
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
		writeNumberSheet(f, name, &n)
	}

	if _, err := f.NewSheet(allCallsSheet); err != nil {
		return nil, err
	}
	writeAllCallsSheet(f, pkg)

	idx, _ := f.GetSheetIndex(summarySheet)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, pkg *models.InvoicePackage) {
	inv := pkg.Invoice
	row := 1
	put := func(cells ...any) {
		for i, v := range cells {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(summarySheet, cell, v)
		}
		row++
	}

	put("Vendor", string(inv.Vendor))
	put("Invoice Number", inv.InvoiceNumber)
	put("Account Number", inv.AccountNumber)
	put("Bill Date", inv.BillDate)
	if inv.PeriodStart != "" || inv.PeriodEnd != "" {
		put("Billing Period", inv.PeriodStart+" - "+inv.PeriodEnd)
	}
	put("Currency", inv.Currency)
	put("Subtotal", amountCell(inv.Subtotal))
	put("Tax Total", amountCell(inv.TaxTotal))
	put("Grand Total", amountCell(inv.GrandTotal))
	put("Source File", inv.SourceFilename)
	row++

	switch {
	case pkg.Charges != nil:
		put("Category", "Label", "Amount")
		for _, c := range pkg.Charges {
			put(c.Category, c.Label, amountCell(c.Amount))
		}
	case pkg.ChargesSummary != nil:
		put("Label", "Non-Taxable", "Taxable", "Total")
		for _, s := range pkg.ChargesSummary {
			put(s.Label, amountCell(s.NonTaxable), amountCell(s.Taxable), amountCell(s.Total))
		}
	}

	if len(pkg.PreviousPayments) > 0 {
		row++
		put("Payment Date", "Description", "Amount")
		for _, p := range pkg.PreviousPayments {
			put(p.Date, p.Description, amountCell(p.Amount))
		}
	}

	_ = f.SetColWidth(summarySheet, "A", "A", 22)
	_ = f.SetColWidth(summarySheet, "B", "D", 18)
}

func writeNumberSheet(f *excelize.File, sheet string, n *models.NumberEntry) {
	row := 1
	put := func(cells ...any) {
		for i, v := range cells {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	put("MSISDN", n.MSISDN)
	if n.Subscriber != "" {
		put("Subscriber", n.Subscriber)
	}
	if n.Description != "" {
		put("Description", n.Description)
	}
	if n.Plan != "" {
		put("Plan", n.Plan)
	}
	put("Line Total", amountCell(n.LineTotal))
	row++

	if len(n.Items) > 0 || len(n.Charges) > 0 {
		put("Category", "Description", "From", "To", "Access Point", "Volume (KB)", "Amount")
		for _, it := range n.Items {
			put("", it.Description, it.From, it.To, "", "", amountCell(it.Amount))
		}
		for _, c := range n.Charges {
			vol := any("")
			if c.VolumeKB != 0 {
				vol = c.VolumeKB
			}
			put(c.Category, c.Description, "", "", c.AccessPoint, vol, amountCell(c.Amount))
		}
		row++
	}

	if len(n.Calls) > 0 {
		put("Date", "Time", "Number", "Description", "Duration", "Amount")
		for _, c := range n.Calls {
			put(c.Date, c.Time, c.Number, c.Description, c.Duration, amountCell(c.Amount))
		}
	}

	_ = f.SetColWidth(sheet, "A", "B", 16)
	_ = f.SetColWidth(sheet, "C", "E", 22)
	_ = f.SetColWidth(sheet, "F", "G", 14)
}

func writeAllCallsSheet(f *excelize.File, pkg *models.InvoicePackage) {
	headers := []string{"MSISDN", "Date", "Time", "Number", "Description", "Duration", "Amount"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(allCallsSheet, cell, h)
	}
	row := 2
	for _, n := range pkg.Numbers {
		for _, c := range n.Calls {
			cells := []any{n.MSISDN, c.Date, c.Time, c.Number, c.Description, c.Duration, amountCell(c.Amount)}
			for i, v := range cells {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				_ = f.SetCellValue(allCallsSheet, cell, v)
			}
			row++
		}
	}
	_ = f.SetColWidth(allCallsSheet, "A", "A", 16)
	_ = f.SetColWidth(allCallsSheet, "D", "D", 28)
}

// sheetNameFor sanitizes an msisdn into a legal, unique sheet name.
// Excel caps names at 31 chars and forbids []:*?/\ characters.
func sheetNameFor(msisdn string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, msisdn)
	if name == "" {
		name = "Number"
	}
	if len(name) > 31 {
		name = name[:31]
	}
	base := name
	for i := 2; used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf("_%d", i)
		if len(base)+len(suffix) > 31 {
			name = base[:31-len(suffix)] + suffix
		} else {
			name = base + suffix
		}
	}
	used[strings.ToLower(name)] = true
	return name
}

func amountCell(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}
