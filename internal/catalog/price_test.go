package catalog

import "testing"

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1.200 Lekë", 1200},
		{"L 2,500.00", 250000},
		{"  750  ", 750},
		{"-50", 50},
		{"Falas", 0},
		{"", 0},
		{"0", 0},
		{"007", 7},
		{"99999999999999999999999999", 0},
	}
	for _, tc := range tests {
		if got := ExtractPrice(tc.in); got != tc.want {
			t.Errorf("ExtractPrice(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseLeadingInt(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"42", 42, true},
		{" 42 ", 42, true},
		{"12abc", 12, true},
		{"-5", -5, true},
		{"+3", 3, true},
		{"abc", 0, false},
		{"-", 0, false},
		{"", 0, false},
		{"3.9", 3, true},
		{"99999999999999999999999999", 0, false},
	}
	for _, tc := range tests {
		got, ok := ParseLeadingInt(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("ParseLeadingInt(%q) = (%d, %v), want (%d, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}
