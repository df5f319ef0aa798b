// Package styles holds the lipgloss styles used for terminal output.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on dark backgrounds
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BlueColor      = lipgloss.Color("#60A5FA") // Blue

	Primary = lipgloss.NewStyle().Foreground(PrimaryColor)
	Muted   = lipgloss.NewStyle().Foreground(MutedColor)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	SuccessMsg = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	WarningMsg = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	// Banner shown when a cherry-pick stops on conflicts
	ConflictBanner = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(WarningColor).
			Bold(true).
			Padding(0, 1)

	// Conflicting and unstaged file paths
	FilePath = lipgloss.NewStyle().Foreground(BlueColor)

	// Hints about related commits
	Hint = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)
)

// Progress states rendered by the terminal progress sink.
const (
	StateRunning = "running"
	StateSuccess = "success"
	StateWarning = "warning"
	StateFailed  = "failed"
)

// StateColor returns the color for a progress state.
func StateColor(state string) lipgloss.Color {
	switch state {
	case StateRunning:
		return PrimaryColor
	case StateSuccess:
		return SecondaryColor
	case StateWarning:
		return WarningColor
	case StateFailed:
		return ErrorColor
	default:
		return MutedColor
	}
}

// StateIcon returns an icon for a progress state.
func StateIcon(state string) string {
	switch state {
	case StateRunning:
		return "●"
	case StateSuccess:
		return "✓"
	case StateWarning:
		return "!"
	case StateFailed:
		return "✗"
	default:
		return "○"
	}
}

// RenderState renders text prefixed with the icon for state.
func RenderState(state, text string) string {
	style := lipgloss.NewStyle().Foreground(StateColor(state))
	return style.Render(StateIcon(state)) + " " + text
}
