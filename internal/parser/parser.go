package parser

import (
	"fmt"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/extractor"
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/models"
)

// Parser turns an extracted PDF document into the normalized invoice
// package. Parse is a pure function of its input: no state survives a
// call, so one parser value may be used from multiple goroutines as
// long as each call gets its own document.
type Parser interface {
	Parse(doc *extractor.Document) (*models.InvoicePackage, error)
	VendorName() string
}

// New returns the parser for the given vendor. The mapping is a closed
// switch so the set of supported vendors is visible in one place.
func New(vendor models.Vendor) (Parser, error) {
	switch vendor {
	case models.VendorMaxis:
		return &MaxisParser{}, nil
	case models.VendorCelcom:
		return &CelcomParser{}, nil
	case models.VendorDigi:
		return &DigiParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported vendor: %q", vendor)
	}
}

// issueLog accumulates localized parse failures. A failed page, table,
// or section records an issue and contributes nothing; it never aborts
// the document.
type issueLog struct {
	vendor models.Vendor
	issues []models.ParseIssue
}

func (l *issueLog) add(page int, section, format string, args ...any) {
	l.issues = append(l.issues, models.ParseIssue{
		Vendor:  l.vendor,
		Page:    page,
		Section: section,
		Message: fmt.Sprintf(format, args...),
	})
}

// capture runs fn with panic containment. A recovered panic becomes an
// issue attached to the package instead of tearing down the parse.
func (l *issueLog) capture(page int, section string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.add(page, section, "parse step panicked: %v", r)
		}
	}()
	fn()
}
