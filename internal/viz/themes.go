package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors of the live view.
type Theme struct {
	Name   string
	Canvas lipgloss.Color
	Header lipgloss.Color
	Label  lipgloss.Color
	Value  lipgloss.Color
	Muted  lipgloss.Color
	Alert  lipgloss.Color
}

var (
	ThemeClassic = Theme{
		Name:   "classic",
		Canvas: lipgloss.Color("252"),
		Header: lipgloss.Color("86"),
		Label:  lipgloss.Color("245"),
		Value:  lipgloss.Color("252"),
		Muted:  lipgloss.Color("240"),
		Alert:  lipgloss.Color("203"),
	}

	ThemeRetro = Theme{
		Name:   "retro",
		Canvas: lipgloss.Color("#00ff00"),
		Header: lipgloss.Color("#88ff88"),
		Label:  lipgloss.Color("#00aa00"),
		Value:  lipgloss.Color("#00ff00"),
		Muted:  lipgloss.Color("#005500"),
		Alert:  lipgloss.Color("#ffff00"),
	}

	ThemeOcean = Theme{
		Name:   "ocean",
		Canvas: lipgloss.Color("#00a8cc"),
		Header: lipgloss.Color("#ffd700"),
		Label:  lipgloss.Color("#4488aa"),
		Value:  lipgloss.Color("#e0f0ff"),
		Muted:  lipgloss.Color("#335577"),
		Alert:  lipgloss.Color("#ff4444"),
	}

	Themes = []Theme{ThemeClassic, ThemeRetro, ThemeOcean}
)

// GetTheme returns a theme by name, falling back to the first theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func nextTheme(current Theme) Theme {
	for i, t := range Themes {
		if t.Name == current.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

type styles struct {
	canvas, header, label, value, help, alert, graph lipgloss.Style
	stats                                            lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		canvas: lipgloss.NewStyle().Foreground(t.Canvas).Padding(1, 2),
		header: lipgloss.NewStyle().Foreground(t.Header).Bold(true).MarginBottom(1),
		label:  lipgloss.NewStyle().Foreground(t.Label).Width(10),
		value:  lipgloss.NewStyle().Foreground(t.Value),
		help:   lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		alert:  lipgloss.NewStyle().Foreground(t.Alert).Bold(true),
		graph:  lipgloss.NewStyle().Foreground(t.Header).Padding(1, 0),
		stats: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(44),
	}
}
