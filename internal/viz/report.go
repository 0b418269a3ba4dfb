package viz

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/ctrlsim/internal/analysis"
	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/dynamo"
	"github.com/san-kum/ctrlsim/internal/optim"
	"github.com/san-kum/ctrlsim/internal/sim"
)

// Report summarises a run and, when History is set, the tuning session that
// produced its gains.
type Report struct {
	Title     string
	Record    *sim.Record
	Tracked   int
	Reference float64
	PeakLabel string

	// FuelIndex is the state component holding remaining fuel, or -1.
	FuelIndex int

	Gains   control.Gains
	History []optim.Iteration
}

func (r Report) peak() float64 {
	p := math.Inf(-1)
	if r.Record == nil {
		return p
	}
	for _, s := range r.Record.Samples {
		if r.Tracked < len(s.State) {
			p = math.Max(p, s.State[r.Tracked])
		}
	}
	if r.Tracked < len(r.Record.Final) {
		p = math.Max(p, r.Record.Final[r.Tracked])
	}
	return p
}

func (r Report) status(s Styles) string {
	rec := r.Record
	switch {
	case rec.Halted && rec.Halt != nil:
		return s.Bad.Render(fmt.Sprintf("halted at step %d (t=%.2fs): %s", rec.Halt.Step, rec.Halt.Time, rec.Halt.Reason))
	case len(rec.Errors) > 0:
		return s.Warn.Render(fmt.Sprintf("stopped: %v", rec.Errors[0]))
	}
	return s.OK.Render(fmt.Sprintf("completed %d steps", rec.Steps))
}

func phaseNames(s Styles, ps []dynamo.Phase) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = s.Phase(p)
	}
	return strings.Join(names, " → ")
}

func seconds(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2fs", v)
}

// Render lays the report out with theme t.
func (r Report) Render(t Theme) string {
	s := NewStyles(t)
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(s.Label.Render(label) + s.Value.Render(value) + "\n")
	}

	title := r.Title
	if title == "" {
		title = "Simulation report"
	}
	b.WriteString(s.Title.Render(title) + "\n\n")

	if r.Record != nil {
		b.WriteString(s.Label.Render("Status") + r.status(s) + "\n")
		row("Sim time", fmt.Sprintf("%.2fs", r.Record.FinalTime))
		label := r.PeakLabel
		if label == "" {
			label = "Peak"
		}
		row(label, fmt.Sprintf("%.3f", r.peak()))
		if r.Tracked < len(r.Record.Final) {
			row("Final", fmt.Sprintf("%.3f (reference %g)", r.Record.Final[r.Tracked], r.Reference))
		}
		if r.FuelIndex >= 0 && r.FuelIndex < len(r.Record.Final) {
			row("Fuel left", fmt.Sprintf("%.2f", r.Record.Final[r.FuelIndex]))
		}
		if ps := r.Record.Phases(); len(ps) > 1 || (len(ps) == 1 && ps[0] != dynamo.Tracking) {
			b.WriteString(s.Label.Render("Phases") + phaseNames(s, ps) + "\n")
		} else if len(r.Record.Samples) > 1 && r.Tracked < len(r.Record.Samples[0].State) {
			ts, ys := r.Record.Times(), r.Record.Series(r.Tracked)
			sr := analysis.Step(ts, ys, r.Reference)
			row("Rise time", seconds(sr.RiseTime))
			row("Settling", seconds(sr.SettlingTime))
			row("Overshoot", fmt.Sprintf("%.1f%%", 100*sr.Overshoot))
			if f := analysis.DominantFrequency(ys, ts[1]-ts[0]); f > 0 && sr.Overshoot > 0 {
				row("Oscillation", fmt.Sprintf("%.3g Hz", f))
			}
		}
		names := make([]string, 0, len(r.Record.Metrics))
		for k := range r.Record.Metrics {
			names = append(names, k)
		}
		slices.Sort(names)
		for _, k := range names {
			row(k, fmt.Sprintf("%.4g", r.Record.Metrics[k]))
		}
	}

	b.WriteString("\n")
	row("Gains", r.Gains.String())

	if n := len(r.History); n > 0 {
		cs := costs(r.History)
		row("Iterations", fmt.Sprintf("%d", n))
		row("Cost", fmt.Sprintf("%.4g → %.4g", cs[0], cs[n-1]))
		b.WriteString(s.Label.Render("History") + s.Sparkline(cs, 40) + "\n")
	}

	return s.Panel.Render(strings.TrimRight(b.String(), "\n"))
}

// Compare renders reports side by side.
func Compare(t Theme, reports ...Report) string {
	views := make([]string, len(reports))
	for i, r := range reports {
		views[i] = r.Render(t)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}
