package extractor

import "testing"

func TestStreamTextDecodesLiteralOperators(t *testing.T) {
	body := []byte("BT\n1 0 0 1 50 700 Td\n(Total Amount Due) Tj\n0 -12 Td\n(RM 1,234.56) Tj\nET")
	got := streamText(body, nil)
	want := "Total Amount Due\nRM 1,234.56"
	if got != want {
		t.Errorf("streamText = %q, want %q", got, want)
	}
}

func TestCMapRangeDecode(t *testing.T) {
	cm := &cmap{codes: map[string]string{}}
	// Maps codes 0001..0003 to A..C.
	cm.addRange("<0001> <0003> <0041>")
	if cm.codeLen != 2 {
		t.Fatalf("codeLen = %d, want 2", cm.codeLen)
	}
	got := cm.decode([]byte{0x00, 0x01, 0x00, 0x03, 0x00, 0x02})
	if got != "ACB" {
		t.Errorf("decode = %q, want %q", got, "ACB")
	}
}

func TestCMapArrayRange(t *testing.T) {
	cm := &cmap{codes: map[string]string{}}
	cm.addRange("<0005> <0006> [<0058> <0059>]")
	if got := cm.decode([]byte{0x00, 0x05, 0x00, 0x06}); got != "XY" {
		t.Errorf("decode = %q, want %q", got, "XY")
	}
}

func TestUnescapePDF(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`plain`, "plain"},
		{`a\(b\)c`, "a(b)c"},
		{`tab\there`, "tab\there"},
		{`oct\101l`, "octAl"},
		{`back\\slash`, `back\slash`},
	}
	for _, tt := range tests {
		if got := unescapePDF(tt.in); got != tt.want {
			t.Errorf("unescapePDF(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
