package export

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/models"
)

// CallRow is one flattened call-log line across every billed number.
type CallRow struct {
	MSISDN      string `csv:"msisdn"`
	Date        string `csv:"date"`
	Time        string `csv:"time"`
	Number      string `csv:"number"`
	Description string `csv:"description"`
	Duration    string `csv:"duration"`
	Amount      string `csv:"amount"`
}

// CallRows flattens the package's per-number call records in
// extraction order.
func CallRows(pkg *models.InvoicePackage) []CallRow {
	rows := make([]CallRow, 0)
	if pkg == nil {
		return rows
	}
	for _, n := range pkg.Numbers {
		for _, c := range n.Calls {
			rows = append(rows, CallRow{
				MSISDN:      n.MSISDN,
				Date:        c.Date,
				Time:        c.Time,
				Number:      c.Number,
				Description: c.Description,
				Duration:    c.Duration,
				Amount:      amountCell(c.Amount),
			})
		}
	}
	return rows
}

// WriteCallsCSV writes the flat call log for pkg to out.
func WriteCallsCSV(pkg *models.InvoicePackage, out io.Writer) error {
	rows := CallRows(pkg)
	if err := gocsv.Marshal(&rows, out); err != nil {
		return fmt.Errorf("writing calls csv: %w", err)
	}
	return nil
}

// WriteCallsCSVFile writes the flat call log for pkg to path.
func WriteCallsCSVFile(pkg *models.InvoicePackage, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return WriteCallsCSV(pkg, f)
}
