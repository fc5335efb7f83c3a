package cli

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for terminal output.
type Theme struct {
	Primary  lipgloss.Color // Titles and labels
	Dim      lipgloss.Color // Timestamps and help text
	Readable lipgloss.Color // Data available
	Writable lipgloss.Color // Space available
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary:  lipgloss.Color("#00ff9f"),
	Dim:      lipgloss.Color("#6e7681"),
	Readable: lipgloss.Color("#58a6ff"),
	Writable: lipgloss.Color("#f0883e"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Help     lipgloss.Style
	Readable lipgloss.Style
	Writable lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Help:     lipgloss.NewStyle().Foreground(t.Dim),
		Readable: lipgloss.NewStyle().Bold(true).Foreground(t.Readable),
		Writable: lipgloss.NewStyle().Bold(true).Foreground(t.Writable),
	}
}

// eventWidth pads event names so details line up.
const eventWidth = 9

// Header renders a title followed by dimmed key=value pairs.
func (s Styles) Header(title string, kv ...string) string {
	var b strings.Builder
	b.WriteString(s.Title.Render(title))
	for i := 0; i+1 < len(kv); i += 2 {
		b.WriteString(" ")
		b.WriteString(s.Label.Render(kv[i] + "="))
		b.WriteString(s.Help.Render(kv[i+1]))
	}
	return b.String()
}

// EventLine renders one event: a dimmed timestamp, the event name in the
// given style, and a free-form detail.
func (s Styles) EventLine(at time.Time, style lipgloss.Style, name, detail string) string {
	pad := max(0, eventWidth-lipgloss.Width(name))
	line := s.Help.Render(at.Format("15:04:05.000")) + " " +
		style.Render(name) + strings.Repeat(" ", pad)
	if detail != "" {
		line += " " + detail
	}
	return line
}
