package deal

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    Amount
		wantErr bool
	}{
		{"0", 0, false},
		{"0.00", 0, false},
		{"1234.56", 123456, false},
		{"1234.5", 123450, false},
		{"1234", 123400, false},
		{"-12.34", -1234, false},
		{"0.005", 0, true},
		{"12.345", 0, true},
		{"", 0, true},
		{"abc", 0, true},
		{"12.", 1200, false},
		{".", 0, true},
		{"92233720368547758.07", 9223372036854775807, false},
		{"92233720368547758.08", 0, true},
		{"99999999999999999999", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseAmount(%q): expected error, got %d", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAmount(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAmount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestAmountString(t *testing.T) {
	tests := []struct {
		in   Amount
		want string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{123456, "1234.56"},
		{-1234, "-12.34"},
		{100, "1.00"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("Amount(%d).String() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAmountJSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(Amount(123456))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `"1234.56"` {
		t.Errorf("Marshal = %s, want \"1234.56\"", b)
	}

	var a Amount
	if err := json.Unmarshal([]byte(`"99.90"`), &a); err != nil {
		t.Fatalf("Unmarshal quoted: %v", err)
	}
	if a != 9990 {
		t.Errorf("Unmarshal quoted = %d, want 9990", a)
	}

	// Bare numbers are accepted too.
	if err := json.Unmarshal([]byte(`150`), &a); err != nil {
		t.Fatalf("Unmarshal bare: %v", err)
	}
	if a != 15000 {
		t.Errorf("Unmarshal bare = %d, want 15000", a)
	}

	if err := json.Unmarshal([]byte(`"12.345"`), &a); err == nil {
		t.Error("expected error for three fractional digits")
	}
}
