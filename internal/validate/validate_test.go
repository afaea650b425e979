package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/models"
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/validate"
)

func wellFormedPackage() *models.InvoicePackage {
	return &models.InvoicePackage{
		Invoice: models.Invoice{
			Vendor:        models.VendorMaxis,
			InvoiceNumber: "202500419618",
			BillDate:      "2025-07-28",
			Currency:      "MYR",
		},
		Numbers: []models.NumberEntry{{MSISDN: "60123456789"}},
		Charges: []models.Charge{{Category: "Monthly", Label: "Plan Fee"}},
	}
}

func TestWellFormedAcceptsBothBucketShapes(t *testing.T) {
	pkg := wellFormedPackage()
	assert.True(t, validate.WellFormed(pkg))

	// The Celcom shape: charges_summary instead of charges.
	pkg.Charges = nil
	pkg.ChargesSummary = []models.SummaryRow{{Label: "Monthly Charges"}}
	assert.True(t, validate.WellFormed(pkg))

	// Present but empty still satisfies the contract.
	pkg.ChargesSummary = []models.SummaryRow{}
	assert.True(t, validate.WellFormed(pkg))
}

// The contract boolean: well formed iff vendor and currency are
// non-empty, numbers is a list, and a charge bucket exists.
func TestSchemaInvariant(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.InvoicePackage)
		want   bool
	}{
		{"intact", func(p *models.InvoicePackage) {}, true},
		{"empty numbers list", func(p *models.InvoicePackage) {
			p.Numbers = []models.NumberEntry{}
		}, true},
		{"missing vendor", func(p *models.InvoicePackage) {
			p.Invoice.Vendor = ""
		}, false},
		{"missing currency", func(p *models.InvoicePackage) {
			p.Invoice.Currency = ""
		}, false},
		{"nil numbers", func(p *models.InvoicePackage) {
			p.Numbers = nil
		}, false},
		{"no charge bucket", func(p *models.InvoicePackage) {
			p.Charges = nil
			p.ChargesSummary = nil
		}, false},
		{"empty msisdn", func(p *models.InvoicePackage) {
			p.Numbers = []models.NumberEntry{{MSISDN: ""}}
		}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pkg := wellFormedPackage()
			tc.mutate(pkg)
			assert.Equal(t, tc.want, validate.WellFormed(pkg))
		})
	}
}

func TestValidateReportsFieldPaths(t *testing.T) {
	pkg := wellFormedPackage()
	pkg.Numbers = append(pkg.Numbers, models.NumberEntry{MSISDN: ""})

	results := validate.Validate(pkg)
	msg := validate.FirstFailure(results)
	require.NotEmpty(t, msg)
	assert.Contains(t, msg, "numbers[1].msisdn")

	var failed []validate.Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, "number_msisdn_required", failed[0].RuleKey)
	assert.Equal(t, validate.SeverityError, failed[0].Severity)
}

func TestStrictRulesStayWarnings(t *testing.T) {
	pkg := wellFormedPackage()
	pkg.Invoice.InvoiceNumber = ""
	pkg.Invoice.BillDate = ""

	results := validate.ValidateWith(pkg, validate.StrictRules())
	assert.Empty(t, validate.FirstFailure(results), "warnings must not reject")

	warned := 0
	for _, r := range results {
		if r.Severity == validate.SeverityWarning && !r.Passed {
			warned++
		}
	}
	assert.Equal(t, 2, warned)
}

func TestNilPackageIsNotWellFormed(t *testing.T) {
	assert.False(t, validate.WellFormed(nil))
}
