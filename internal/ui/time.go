package ui

import (
	"fmt"
	"time"
)

// FormatDays renders an elapsed day count like "12d", or "-" when absent.
func FormatDays(days *int) string {
	if days == nil {
		return Muted("-")
	}
	return fmt.Sprintf("%dd", *days)
}

// FormatDate renders a timestamp as a UTC date, or "-" when absent.
func FormatDate(t *time.Time) string {
	if t == nil {
		return Muted("-")
	}
	return t.UTC().Format(time.DateOnly)
}
