// Package util provides small string helpers shared by the terminal output code.
package util

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// FitLine truncates a possibly styled line to maxWidth visual columns,
// ending it with "..." when cut. A maxWidth of zero or less disables the cap.
func FitLine(s string, maxWidth int) string {
	if maxWidth <= 0 || lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return "..."
	}
	return ansi.Truncate(s, maxWidth, "...")
}

// Plural formats a count with a singular or plural noun ("1 file", "3 files").
func Plural(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

// Bullets renders one " - item" line per item.
func Bullets(items []string) string {
	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(" - ")
		sb.WriteString(item)
	}
	return sb.String()
}
