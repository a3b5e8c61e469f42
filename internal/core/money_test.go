package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"200000", 200000, true},
		{"200.000", 200000, true},
		{"1,500,000", 1500000, true},
		{"150 000", 150000, true},
		{"450.000 ₫", 450000, true},
		{"450000đ", 450000, true},
		{" 90000 VND ", 90000, true},
		{"12.5", 0, false}, // decimal part, not grouping
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Amount != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Amount, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	cases := map[int64]string{
		0:       "0 ₫",
		999:     "999 ₫",
		1000:    "1.000 ₫",
		450000:  "450.000 ₫",
		1250000: "1.250.000 ₫",
		-800000: "-800.000 ₫",
	}
	for in, want := range cases {
		if got := (Money{Amount: in}).Format(); got != want {
			t.Fatalf("Format(%d) = %q, want %q", in, got, want)
		}
	}
}
