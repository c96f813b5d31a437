package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the player's chrome palette. Stage colors come from the frames.
type Theme struct {
	Name   string
	Accent lipgloss.Color
	Border lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Good   lipgloss.Color
	Bad    lipgloss.Color
}

var (
	ThemeMinimal = Theme{
		Name:   "minimal",
		Accent: lipgloss.Color("#ffffff"),
		Border: lipgloss.Color("#444444"),
		Text:   lipgloss.Color("#dddddd"),
		Muted:  lipgloss.Color("#888888"),
		Good:   lipgloss.Color("#83c167"),
		Bad:    lipgloss.Color("#fc6255"),
	}

	ThemeOcean = Theme{
		Name:   "ocean",
		Accent: lipgloss.Color("#00a8cc"),
		Border: lipgloss.Color("#4488aa"),
		Text:   lipgloss.Color("#e0f0ff"),
		Muted:  lipgloss.Color("#4488aa"),
		Good:   lipgloss.Color("#00ff88"),
		Bad:    lipgloss.Color("#ff4444"),
	}

	ThemeRetro = Theme{
		Name:   "retro",
		Accent: lipgloss.Color("#00ff00"),
		Border: lipgloss.Color("#005500"),
		Text:   lipgloss.Color("#00ff00"),
		Muted:  lipgloss.Color("#007700"),
		Good:   lipgloss.Color("#88ff88"),
		Bad:    lipgloss.Color("#ffff00"),
	}

	Themes = []Theme{ThemeMinimal, ThemeOcean, ThemeRetro}
)

// GetTheme returns the named theme, falling back to minimal.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeMinimal
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

type styles struct {
	panel  lipgloss.Style
	title  lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	hint   lipgloss.Style
	good   lipgloss.Style
	bad    lipgloss.Style
	status lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		title:  lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		label:  lipgloss.NewStyle().Foreground(t.Muted),
		value:  lipgloss.NewStyle().Bold(true).Foreground(t.Text),
		hint:   lipgloss.NewStyle().Italic(true).Foreground(t.Muted),
		good:   lipgloss.NewStyle().Bold(true).Foreground(t.Good),
		bad:    lipgloss.NewStyle().Bold(true).Foreground(t.Bad),
		status: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
	}
}

// progressBar renders a fixed-width bar for percent in [0, 1].
func progressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	filled = max(0, min(filled, width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
