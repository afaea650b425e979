// Package validate checks the shape of a finished invoice package
// against the shared contract. The rules are vendor-agnostic: a
// package is well formed when the invoice identifies its vendor and
// currency, the numbers list exists, and exactly the vendor's
// aggregate bucket (charges or charges_summary) is present.
package validate

import (
	"fmt"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/models"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Result is the outcome of one rule applied to one field.
type Result struct {
	RuleKey   string   `json:"rule_key"`
	Severity  Severity `json:"severity"`
	Passed    bool     `json:"passed"`
	FieldPath string   `json:"field_path"`
	Message   string   `json:"message"`
}

// Rule is a named check over a whole package. A rule may emit several
// results (one per number entry, one per charge row).
type Rule struct {
	Key      string
	Severity Severity
	Apply    func(pkg *models.InvoicePackage) []Result
}

func requireField(key string, severity Severity, fieldPath string, extract func(*models.InvoicePackage) string) Rule {
	return Rule{
		Key:      key,
		Severity: severity,
		Apply: func(pkg *models.InvoicePackage) []Result {
			val := extract(pkg)
			return []Result{{
				RuleKey:   key,
				Severity:  severity,
				Passed:    val != "",
				FieldPath: fieldPath,
				Message:   fieldMessage(val != "", fieldPath),
			}}
		},
	}
}

func fieldMessage(passed bool, fieldPath string) string {
	if passed {
		return fmt.Sprintf("%s is present", fieldPath)
	}
	return fmt.Sprintf("%s is missing or empty", fieldPath)
}

// Rules is the base rule set implementing the shared contract.
func Rules() []Rule {
	return []Rule{
		requireField("invoice_vendor_required", SeverityError, "invoice.vendor",
			func(pkg *models.InvoicePackage) string { return string(pkg.Invoice.Vendor) }),
		requireField("invoice_currency_required", SeverityError, "invoice.currency",
			func(pkg *models.InvoicePackage) string { return pkg.Invoice.Currency }),
		{
			Key:      "numbers_list_required",
			Severity: SeverityError,
			Apply: func(pkg *models.InvoicePackage) []Result {
				ok := pkg.Numbers != nil
				msg := "numbers is a list"
				if !ok {
					msg = "numbers list is missing"
				}
				return []Result{{
					RuleKey:   "numbers_list_required",
					Severity:  SeverityError,
					Passed:    ok,
					FieldPath: "numbers",
					Message:   msg,
				}}
			},
		},
		{
			Key:      "charge_bucket_required",
			Severity: SeverityError,
			Apply: func(pkg *models.InvoicePackage) []Result {
				ok := pkg.HasChargeBucket()
				msg := "charges or charges_summary is present"
				if !ok {
					msg = "package carries neither charges nor charges_summary"
				}
				return []Result{{
					RuleKey:   "charge_bucket_required",
					Severity:  SeverityError,
					Passed:    ok,
					FieldPath: "charges",
					Message:   msg,
				}}
			},
		},
		{
			Key:      "number_msisdn_required",
			Severity: SeverityError,
			Apply: func(pkg *models.InvoicePackage) []Result {
				var results []Result
				for i, n := range pkg.Numbers {
					path := fmt.Sprintf("numbers[%d].msisdn", i)
					results = append(results, Result{
						RuleKey:   "number_msisdn_required",
						Severity:  SeverityError,
						Passed:    n.MSISDN != "",
						FieldPath: path,
						Message:   fieldMessage(n.MSISDN != "", path),
					})
				}
				return results
			},
		},
		{
			Key:      "charge_row_labeled",
			Severity: SeverityWarning,
			Apply: func(pkg *models.InvoicePackage) []Result {
				var results []Result
				for i, c := range pkg.Charges {
					ok := c.Category != "" && c.Label != ""
					path := fmt.Sprintf("charges[%d]", i)
					msg := "charge row has category and label"
					if !ok {
						msg = "charge row is missing category or label"
					}
					results = append(results, Result{
						RuleKey:   "charge_row_labeled",
						Severity:  SeverityWarning,
						Passed:    ok,
						FieldPath: path,
						Message:   msg,
					})
				}
				return results
			},
		},
	}
}

// StrictRules adds the service-level expectations on top of the base
// contract. These stay warnings: a package missing an invoice number
// still flows through, it is just flagged.
func StrictRules() []Rule {
	return append(Rules(),
		requireField("invoice_number_expected", SeverityWarning, "invoice.invoice_number",
			func(pkg *models.InvoicePackage) string { return pkg.Invoice.InvoiceNumber }),
		requireField("bill_date_expected", SeverityWarning, "invoice.bill_date",
			func(pkg *models.InvoicePackage) string { return pkg.Invoice.BillDate }),
	)
}

// Validate applies the base rules.
func Validate(pkg *models.InvoicePackage) []Result {
	return ValidateWith(pkg, Rules())
}

// ValidateWith applies an explicit rule set in order.
func ValidateWith(pkg *models.InvoicePackage, rules []Rule) []Result {
	var results []Result
	for _, r := range rules {
		results = append(results, r.Apply(pkg)...)
	}
	return results
}

// WellFormed reduces the base rules to the accept/reject boolean:
// every error-severity result passed.
func WellFormed(pkg *models.InvoicePackage) bool {
	if pkg == nil {
		return false
	}
	for _, r := range Validate(pkg) {
		if r.Severity == SeverityError && !r.Passed {
			return false
		}
	}
	return true
}

// FirstFailure returns the first failing error-severity message, or ""
// when the package passed.
func FirstFailure(results []Result) string {
	for _, r := range results {
		if r.Severity == SeverityError && !r.Passed {
			return r.Message
		}
	}
	return ""
}
