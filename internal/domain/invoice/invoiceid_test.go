package invoice

import (
	"testing"
	"time"
)

func TestNewInvoiceID_Layout(t *testing.T) {
	ts := time.Date(2026, 8, 28, 13, 5, 9, 987*int(time.Millisecond), time.UTC)
	got := NewInvoiceID(ts)
	if got != "26082813050998" {
		t.Fatalf("expected 26082813050998, got %s", got)
	}
	if len(got) != 14 {
		t.Fatalf("expected 14 characters, got %d", len(got))
	}
	for _, r := range got {
		if r < '0' || r > '9' {
			t.Fatalf("expected digits only, got %q", got)
		}
	}
}

func TestNewInvoiceID_ZeroPadding(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 7*int(time.Millisecond), time.UTC)
	if got := NewInvoiceID(ts); got != "26010203040500" {
		t.Fatalf("expected 26010203040500, got %s", got)
	}
}

func TestNewInvoiceID_SameHundredthCollides(t *testing.T) {
	base := time.Date(2026, 8, 28, 13, 5, 9, 980*int(time.Millisecond), time.UTC)
	other := base.Add(9 * time.Millisecond)
	if NewInvoiceID(base) != NewInvoiceID(other) {
		t.Fatalf("timestamps in the same hundredth must share an invoice ID")
	}
	next := base.Add(10 * time.Millisecond)
	if NewInvoiceID(base) == NewInvoiceID(next) {
		t.Fatalf("timestamps a hundredth apart must differ")
	}
}
