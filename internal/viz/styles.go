package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Panel   lipgloss.Style
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Muted   lipgloss.Style
	OK      lipgloss.Style
	Warn    lipgloss.Style
	Bad     lipgloss.Style
	KeyHint lipgloss.Style
	High    lipgloss.Style
	Mid     lipgloss.Style
	Low     lipgloss.Style
	theme   Theme
}

func NewStyles(t Theme) Styles {
	return Styles{
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 2),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Secondary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Muted),
		Label:   lipgloss.NewStyle().Foreground(t.Muted).Width(16),
		Value:   lipgloss.NewStyle().Foreground(t.Text).Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(t.Muted),
		OK:      lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		Warn:    lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		Bad:     lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		KeyHint: lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		High:    lipgloss.NewStyle().Foreground(t.Success),
		Mid:     lipgloss.NewStyle().Foreground(t.Warning),
		Low:     lipgloss.NewStyle().Foreground(t.Error),
		theme:   t,
	}
}

// Phase renders the phase name in its theme colour.
func (s Styles) Phase(p dynamo.Phase) string {
	return lipgloss.NewStyle().Foreground(s.theme.PhaseColor(p)).Bold(true).Render(p.String())
}

// ProgressBar renders percent in [0, 1] as a bar of width cells.
func (s Styles) ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	filled = max(0, min(filled, width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	switch {
	case percent > 0.8:
		return s.High.Render(bar)
	case percent > 0.4:
		return s.Mid.Render(bar)
	}
	return s.Low.Render(bar)
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders values as at most width block characters. Lower values
// are drawn green, so a falling cost curve reads as improving.
func (s Styles) Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	step := max(len(values)/width, 1)
	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / span
		idx := max(0, min(int(norm*float64(len(sparkChars)-1)), len(sparkChars)-1))
		c := string(sparkChars[idx])
		switch {
		case norm > 0.7:
			b.WriteString(s.Low.Render(c))
		case norm > 0.3:
			b.WriteString(s.Mid.Render(c))
		default:
			b.WriteString(s.High.Render(c))
		}
	}
	return b.String()
}
