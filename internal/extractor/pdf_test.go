package extractor

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeLines(t *testing.T) {
	in := "Account  No   :  123456\n\n   Total   Amount\t Due  \n"
	got := NormalizeLines(in)
	want := []string{"Account No : 123456", "Total Amount Due"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeLines = %v, want %v", got, want)
	}
}

func TestIsReadableRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", false},
		{"too short", "Invoice", false},
		{
			"binary noise",
			strings.Repeat("þ©¶ä", 100),
			false,
		},
		{
			"real invoice text",
			"Tax Invoice\nAccount No: 1001675908\nTotal Amount Due RM 1,234.56\n" +
				strings.Repeat("Monthly charges and usage details for the billing period. ", 3),
			true,
		},
		{
			"readable but unfamiliar vocabulary",
			strings.Repeat("quarterly reconciliation ledger entries pending review ", 4),
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := pagesToDocument([]string{tt.text})
			if got := isReadable(doc); got != tt.want {
				t.Errorf("isReadable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDocumentTextJoinsPages(t *testing.T) {
	doc := pagesToDocument([]string{"page one", "page two"})
	if got := doc.Text(); got != "page one\n\npage two" {
		t.Errorf("Text() = %q", got)
	}
}

func TestMergeFragmentsJoinsTouchingBoxes(t *testing.T) {
	in := []Word{
		{X: 10, W: 5, Text: "To"},
		{X: 15.5, W: 5, Text: "tal"},
		{X: 40, W: 5, Text: "Due"},
	}
	got := mergeFragments(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 words, got %d: %v", len(got), got)
	}
	if got[0].Text != "Total" || got[1].Text != "Due" {
		t.Errorf("merge result = %v", got)
	}
}
