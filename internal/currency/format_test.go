package currency

import "testing"

func TestFormat(t *testing.T) {
	tests := []struct {
		amount float64
		code   Code
		rate   float64
		want   string
	}{
		{1234.5, USD, 1470, "$1,234.50"},
		{0, USD, 1470, "$0.00"},
		{1000000, USD, 1470, "$1,000,000.00"},
		{1234.5, IQD, 1470, "1,814,715 IQD"},
		{1000, IQD, 1470, "1,470,000 IQD"},
		{0.1, IQD, 1310.5, "131 IQD"},
		{-12, USD, 1470, "-$12.00"},
		{-1234.5, USD, 1470, "-$1,234.50"},
		{-0.001, USD, 1470, "$0.00"},
		{-12, IQD, 1470, "-17,640 IQD"},
	}
	for _, tt := range tests {
		if got := Format(tt.amount, tt.code, tt.rate); got != tt.want {
			t.Errorf("Format(%v, %s, %v) = %q, want %q", tt.amount, tt.code, tt.rate, got, tt.want)
		}
	}
}

func TestConvert_LeavesUSDUntouched(t *testing.T) {
	if got := Convert(600, USD, 1470); got != 600 {
		t.Errorf("Convert USD = %v", got)
	}
	if got := Convert(600, IQD, 1470); got != 882000 {
		t.Errorf("Convert IQD = %v", got)
	}
}

func TestParseCode(t *testing.T) {
	if c, ok := ParseCode(" iqd "); !ok || c != IQD {
		t.Errorf("ParseCode(iqd) = %q,%v", c, ok)
	}
	if _, ok := ParseCode("EUR"); ok {
		t.Error("EUR should be rejected")
	}
}
