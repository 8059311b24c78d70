package ui

import (
	"testing"
	"time"
)

func TestFormatDays(t *testing.T) {
	disableANSI(t)

	days := 12
	if got := FormatDays(&days); got != "12d" {
		t.Fatalf("expected 12d, got %s", got)
	}
	if got := FormatDays(nil); got != "-" {
		t.Fatalf("expected -, got %s", got)
	}
}

func TestFormatDate(t *testing.T) {
	disableANSI(t)

	at := time.Date(2025, 1, 1, 23, 0, 0, 0, time.FixedZone("x", -2*3600))
	if got := FormatDate(&at); got != "2025-01-02" {
		t.Fatalf("expected UTC date, got %s", got)
	}
	if got := FormatDate(nil); got != "-" {
		t.Fatalf("expected -, got %s", got)
	}
}
