package parser

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		none bool
	}{
		{"1,234.56", 1234.56, false},
		{"(15.00)", -15.00, false},
		{"RM 80.00", 80.00, false},
		{"80.00 RM", 80.00, false},
		{"1,024 kb", 1024, false},
		{"0.00", 0, false},
		{"-42.10", -42.10, false},
		{"", 0, true},
		{"N/A", 0, true},
		{"Total", 0, true},
	}
	for _, tt := range tests {
		got := parseAmount(tt.in)
		if tt.none {
			if got != nil {
				t.Errorf("parseAmount(%q) = %v, want nil", tt.in, *got)
			}
			continue
		}
		if got == nil {
			t.Errorf("parseAmount(%q) = nil, want %v", tt.in, tt.want)
			continue
		}
		if *got != tt.want {
			t.Errorf("parseAmount(%q) = %v, want %v", tt.in, *got, tt.want)
		}
	}
}

func TestToISODate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"28/07/2025", "2025-07-28"},
		{"28-07-2025", "2025-07-28"},
		{"28 July 2025", "2025-07-28"},
		{"1 Sept 2025", "2025-09-01"},
		{"28 jul 2025", "2025-07-28"},
		{"2025-07-28", "2025-07-28"},
		{"99/99/2025", ""},
		{"yesterday", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := toISODate(tt.in); got != tt.want {
			t.Errorf("toISODate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsoOrSamePassesThroughUnknown(t *testing.T) {
	if got := isoOrSame("Q3 period"); got != "Q3 period" {
		t.Errorf("isoOrSame passthrough = %q", got)
	}
	if got := isoOrSame("05/07/2025"); got != "2025-07-05" {
		t.Errorf("isoOrSame converted = %q", got)
	}
}

func TestSplitPeriod(t *testing.T) {
	tests := []struct {
		in         string
		start, end string
	}{
		{"28 July 2025 - 27 Aug 2025", "2025-07-28", "2025-08-27"},
		{"28 July 2025 to 27 Aug 2025", "2025-07-28", "2025-08-27"},
		{"Billing Period: 01/07/2025 - 31/07/2025", "2025-07-01", "2025-07-31"},
		{"28 July 2025", "", ""},
		{"garbage", "", ""},
	}
	for _, tt := range tests {
		start, end := splitPeriod(tt.in)
		if start != tt.start || end != tt.end {
			t.Errorf("splitPeriod(%q) = (%q, %q), want (%q, %q)", tt.in, start, end, tt.start, tt.end)
		}
	}
}

func TestDurationRoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		secs int
		ok   bool
	}{
		{"00:05:30", 330, true},
		{"01:00:00", 3600, true},
		{"05:30", 330, true},
		{"bad", 0, false},
		{"1:2:3:4", 0, false},
	}
	for _, tt := range tests {
		secs, ok := parseDuration(tt.in)
		if ok != tt.ok || secs != tt.secs {
			t.Errorf("parseDuration(%q) = (%d, %v), want (%d, %v)", tt.in, secs, ok, tt.secs, tt.ok)
		}
	}
	if got := formatDuration(3930); got != "01:05:30" {
		t.Errorf("formatDuration(3930) = %q", got)
	}
	if got := formatDuration(0); got != "00:00:00" {
		t.Errorf("formatDuration(0) = %q", got)
	}
}

func TestNormalizeMsisdn(t *testing.T) {
	tests := []struct{ in, want string }{
		{"60 1 2 3 4 5 6 7 8 9", "60123456789"},
		{"+6019-876 5432", "60198765432"},
		{"0146303142", "0146303142"},
	}
	for _, tt := range tests {
		if got := normalizeMsisdn(tt.in); got != tt.want {
			t.Errorf("normalizeMsisdn(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPickColumnFuzzyBackstop(t *testing.T) {
	header := []string{"It em / Barang", "D ate", "Amo unt"}
	if got := pickColumn(header, "amount", "amaun"); got != 2 {
		t.Errorf("pickColumn fuzzy = %d, want 2", got)
	}
	if got := pickColumn(header, "duration"); got != -1 {
		t.Errorf("pickColumn miss = %d, want -1", got)
	}
}
