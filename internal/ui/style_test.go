package ui

import (
	"strings"
	"testing"
)

func disableANSI(t *testing.T) {
	t.Helper()
	original := ansiEnabled
	ansiEnabled = func() bool { return false }
	t.Cleanup(func() {
		ansiEnabled = original
	})
}

func TestVerdictPlain(t *testing.T) {
	disableANSI(t)

	if got := Verdict(true); got != "granted" {
		t.Fatalf("expected granted, got %q", got)
	}
	if got := Verdict(false); got != "denied" {
		t.Fatalf("expected denied, got %q", got)
	}
	if got := Header("TASK"); got != "TASK" {
		t.Fatalf("expected plain header, got %q", got)
	}
}

func TestStylesKeepText(t *testing.T) {
	original := ansiEnabled
	ansiEnabled = func() bool { return true }
	t.Cleanup(func() {
		ansiEnabled = original
	})

	if got := Verdict(false); !strings.Contains(got, "denied") {
		t.Fatalf("expected styled text to contain denied, got %q", got)
	}
	if got := Muted(""); got != "" {
		t.Fatalf("expected empty value to stay empty, got %q", got)
	}
}

func TestNoColorDisablesANSI(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if ansiEnabled() {
		t.Fatalf("expected NO_COLOR to disable ANSI output")
	}
}
