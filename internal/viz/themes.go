package viz

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

// Theme is a terminal palette. Phases maps each supervisory phase to the
// colour it is drawn in; phases missing from the map use Text.
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Phases    map[dynamo.Phase]lipgloss.Color
}

// palette builds a theme from hex colours in field order, Primary first.
// Ascent, orbit and descent borrow the accent, secondary and warning colours.
func palette(name string, hex ...string) Theme {
	c := make([]lipgloss.Color, len(hex))
	for i, h := range hex {
		c[i] = lipgloss.Color(h)
	}
	t := Theme{
		Name: name, Primary: c[0], Secondary: c[1], Accent: c[2], Text: c[3],
		Muted: c[4], Success: c[5], Warning: c[6], Error: c[7],
	}
	t.Phases = map[dynamo.Phase]lipgloss.Color{
		dynamo.Tracking:   t.Text,
		dynamo.Ascent:     t.Accent,
		dynamo.Orbit:      t.Secondary,
		dynamo.Descent:    t.Warning,
		dynamo.Terminated: t.Muted,
	}
	return t
}

var (
	ThemeCyberpunk  = palette("cyberpunk", "#ff00ff", "#00ffff", "#ffff00", "#ffffff", "#666666", "#00ff00", "#ff8800", "#ff0000")
	ThemeRetroGreen = palette("retro", "#00ff00", "#00cc00", "#88ff88", "#00ff00", "#005500", "#88ff88", "#ffff00", "#ff0000")
	ThemeMinimal    = palette("minimal", "#ffffff", "#cccccc", "#0088ff", "#ffffff", "#888888", "#00ff00", "#ffaa00", "#ff0000")
	ThemeOcean      = palette("ocean", "#0077be", "#00a8cc", "#ffd700", "#e0f0ff", "#4488aa", "#00ff88", "#ffcc00", "#ff4444")

	Themes = []Theme{ThemeCyberpunk, ThemeRetroGreen, ThemeMinimal, ThemeOcean}
)

// PhaseColor is the colour p is drawn in.
func (t Theme) PhaseColor(p dynamo.Phase) lipgloss.Color {
	if c, ok := t.Phases[p]; ok {
		return c
	}
	return t.Text
}

// GetTheme returns a theme by name, falling back to the first theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// NextTheme returns the theme after t in Themes, wrapping around.
func NextTheme(t Theme) Theme {
	for i, candidate := range Themes {
		if candidate.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
