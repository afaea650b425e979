package parser

import (
	"testing"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/models"
)

func TestDetectVendorFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     models.Vendor
	}{
		{"maxis_jul_2025.pdf", models.VendorMaxis},
		{"ME2025071234.pdf", models.VendorMaxis},
		{"celcom bill statement.pdf", models.VendorCelcom},
		{"digi-invoice.pdf", models.VendorDigi},
	}
	for _, tt := range tests {
		det := DetectVendor(tt.filename, nil)
		if det.Vendor != tt.want {
			t.Errorf("DetectVendor(%q) = %s, want %s", tt.filename, det.Vendor, tt.want)
		}
		if det.Source != "filename" {
			t.Errorf("DetectVendor(%q) source = %q, want filename", tt.filename, det.Source)
		}
		if det.Confidence != 0.70 {
			t.Errorf("DetectVendor(%q) confidence = %v", tt.filename, det.Confidence)
		}
	}
}

func TestDetectVendorFromText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.Vendor
	}{
		{"maxis letterhead", "Maxis Broadband Sdn Bhd\nBill Statement\nwww.maxis.com.my", models.VendorMaxis},
		{"celcom legacy", "Celcom Axiata Berhad\nMEGA Lightning 98\nBill Statement", models.VendorCelcom},
		{"digi postpaid", "CelcomDigi Business\nPostpaid 5G 80\nInvoice", models.VendorDigi},
	}
	for _, tt := range tests {
		doc := docFromPages(tt.text)
		det := DetectVendor("scan0001.pdf", doc)
		if det.Vendor != tt.want {
			t.Errorf("%s: vendor = %s, want %s", tt.name, det.Vendor, tt.want)
		}
		if det.Source != "text" {
			t.Errorf("%s: source = %q, want text", tt.name, det.Source)
		}
		if det.Confidence <= 0.55 || det.Confidence > 1.0 {
			t.Errorf("%s: confidence = %v out of range", tt.name, det.Confidence)
		}
	}
}

// Post-merger bills from both vendors carry CelcomDigi branding; the
// tie-break must still separate them.
func TestDetectVendorCelcomDigiAmbiguity(t *testing.T) {
	celcom := docFromPages("CelcomDigi Bill Statement\nCelcom (Malaysia) Berhad\nMEGA Lightning 120")
	if det := DetectVendor("bill.pdf", celcom); det.Vendor != models.VendorCelcom {
		t.Errorf("celcom-branded bill = %s", det.Vendor)
	}
	digi := docFromPages("CelcomDigi Business Postpaid 5G 80\nCelcomDigi Invoice")
	if det := DetectVendor("bill.pdf", digi); det.Vendor != models.VendorDigi {
		t.Errorf("digi-branded bill = %s", det.Vendor)
	}
}

func TestDetectVendorUnknown(t *testing.T) {
	det := DetectVendor("statement.pdf", docFromPages("Some unrelated utility document"))
	if det.Vendor != VendorUnknown {
		t.Errorf("vendor = %s, want unknown", det.Vendor)
	}
	if det.Source != "fallback" {
		t.Errorf("source = %q, want fallback", det.Source)
	}
}
