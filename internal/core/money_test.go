package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{".5", 50, true},
		{"$1,234.56", 123456, true},
		{"1,000,000.00", 100000000, true},
		{"+3", 300, true},
		{"1,234", 123400, true},
		{"$1,234", 123400, true},
		{"12,345,678", 1234567800, true},
		{"1,2", 120, true},
		{"12,3456", 0, false},
		{"1,23,456", 0, false},
		{"1234,567", 0, false},
		{"1,23.45", 0, false},
		{"1.٣", 0, false},
		{"1.٣٣", 0, false},
		{"٣", 0, false},
		{"１２", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{".", 0, false},
		{"12a", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseAmount_Negative(t *testing.T) {
	if _, err := ParseAmount("-1.50"); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	if _, err := ParseAmount("-x"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for garbage, got %v", err)
	}
}

func TestFormatCents(t *testing.T) {
	cases := map[int64]string{
		0:       "0.00",
		5:       "0.05",
		100:     "1.00",
		123456:  "1234.56",
		-5:      "-0.05",
		-123456: "-1234.56",
	}
	for in, want := range cases {
		if got := FormatCents(in); got != want {
			t.Errorf("FormatCents(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := Money{Cents: 123456}.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"1234.56"` {
		t.Fatalf("unexpected encoding %s", b)
	}

	for _, in := range []string{`"1234.56"`, `1234.56`, `"$1,234.56"`} {
		var m Money
		if err := m.UnmarshalJSON([]byte(in)); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if m.Cents != 123456 {
			t.Fatalf("%s: got %d cents", in, m.Cents)
		}
	}

	var m Money
	if err := m.UnmarshalJSON([]byte(`"-1"`)); err == nil {
		t.Fatal("expected error for negative amount")
	}
}
