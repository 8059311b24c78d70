package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	grantedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	deniedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// ansiEnabled is swapped in tests.
var ansiEnabled = func() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func render(style lipgloss.Style, value string) string {
	if value == "" || !ansiEnabled() {
		return value
	}
	return style.Render(value)
}

// Header styles a table header.
func Header(value string) string {
	return render(headerStyle, value)
}

// Verdict renders an access decision as "granted" or "denied".
func Verdict(hasAccess bool) string {
	if hasAccess {
		return render(grantedStyle, "granted")
	}
	return render(deniedStyle, "denied")
}

// Muted de-emphasizes placeholder values like "-".
func Muted(value string) string {
	return render(mutedStyle, value)
}
