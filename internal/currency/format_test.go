package currency

import "testing"

func TestUSDFormat(t *testing.T) {
	cases := map[int64]string{
		0:         "$0.00",
		5:         "$0.05",
		3000:      "$30.00",
		65000:     "$650.00",
		173000:    "$1,730.00",
		123456789: "$1,234,567.89",
		-2550:     "-$25.50",
	}
	for in, want := range cases {
		if got := USD.Format(in); got != want {
			t.Fatalf("format %d: expected %q got %q", in, want, got)
		}
	}
}

func TestZeroFormatterFallsBackToUSD(t *testing.T) {
	if got := (Formatter{}).Format(45000); got != "$450.00" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestNew(t *testing.T) {
	f, err := New("en-US", "$", ".")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := f.Format(99); got != "$0.99" {
		t.Fatalf("unexpected %q", got)
	}

	f, err = New("", "", "")
	if err != nil {
		t.Fatalf("new empty: %v", err)
	}
	if f.String() != USD.String() {
		t.Fatalf("expected USD fallback, got %s", f.String())
	}

	if _, err := New("not a locale!!", "$", "."); err == nil {
		t.Fatal("expected error for invalid locale")
	}
}
