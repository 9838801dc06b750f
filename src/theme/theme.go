// Package theme holds the colors and styles used for terminal reports.
package theme

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme represents a color theme
type Theme struct {
	Primary   lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Text      lipgloss.Color
	TextMuted lipgloss.Color
}

// CurrentTheme is the theme used by NewStyles
var CurrentTheme = Theme{
	Primary:   lipgloss.Color("#7aa2f7"),
	Success:   lipgloss.Color("#9ece6a"),
	Warning:   lipgloss.Color("#e0af68"),
	Error:     lipgloss.Color("#f7768e"),
	Text:      lipgloss.Color("#c0caf5"),
	TextMuted: lipgloss.Color("#808080"),
}

// Styles are the lipgloss styles of a report, bound to one output
type Styles struct {
	Title     lipgloss.Style
	Label     lipgloss.Style
	Succeeded lipgloss.Style
	Failed    lipgloss.Style
	Skipped   lipgloss.Style
	Muted     lipgloss.Style
	Added     lipgloss.Style
	Removed   lipgloss.Style
	Box       lipgloss.Style
}

// NewStyles builds styles for w. Colors are dropped when w is not a color
// terminal or when color is false.
func NewStyles(w io.Writer, color bool) Styles {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	t := CurrentTheme
	return Styles{
		Title:     r.NewStyle().Bold(true).Foreground(t.Primary),
		Label:     r.NewStyle().Foreground(t.Text),
		Succeeded: r.NewStyle().Foreground(t.Success),
		Failed:    r.NewStyle().Foreground(t.Error),
		Skipped:   r.NewStyle().Foreground(t.Warning),
		Muted:     r.NewStyle().Foreground(t.TextMuted),
		Added:     r.NewStyle().Foreground(t.Success),
		Removed:   r.NewStyle().Foreground(t.Error),
		Box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.TextMuted).
			Padding(0, 1),
	}
}
