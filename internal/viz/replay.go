package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/ctrlsim/internal/physics"
	"github.com/san-kum/ctrlsim/internal/sim"
)

const (
	canvasWidth  = 60
	canvasHeight = 18
	frameRate    = time.Second / 30
	maxSpeed     = 64
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Replay plays a finished record back. A six-component state is drawn as a
// planar drone in the x-y plane; anything else as the tracked component
// against time.
type Replay struct {
	rec       *sim.Record
	title     string
	tracked   int
	reference float64

	head    int
	playing bool
	speed   int
	theme   Theme
	canvas  *Canvas
	bounds  Bounds
	planar  bool
}

func NewReplay(rec *sim.Record, title string, tracked int, reference float64, theme Theme) Replay {
	m := Replay{
		rec:       rec,
		title:     title,
		tracked:   tracked,
		reference: reference,
		playing:   true,
		speed:     1,
		theme:     theme,
		canvas:    NewCanvas(canvasWidth, canvasHeight),
	}
	if len(rec.Samples) == 0 {
		return m
	}
	m.planar = len(rec.Samples[0].State) == 6
	if m.planar {
		m.bounds = BoundsOf(rec.Series(physics.DroneX), rec.Series(physics.DroneY))
	} else {
		ys := rec.Series(tracked)
		b := BoundsOf(rec.Times(), ys)
		b.MinY, b.MaxY = math.Min(b.MinY, reference), math.Max(b.MaxY, reference)
		m.bounds = b
	}
	return m
}

func (m Replay) Init() tea.Cmd { return tick() }

func (m Replay) Head() int     { return m.head }
func (m Replay) Playing() bool { return m.playing }
func (m Replay) Speed() int    { return m.speed }

func (m Replay) last() int { return max(len(m.rec.Samples)-1, 0) }

func (m *Replay) seek(i int) {
	m.head = max(0, min(i, m.last()))
}

func (m Replay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			if !m.playing && m.head == m.last() {
				m.head = 0
			}
			m.playing = !m.playing
		case "[":
			m.playing = false
			m.seek(m.head - m.speed)
		case "]":
			m.playing = false
			m.seek(m.head + m.speed)
		case "+", "=":
			m.speed = min(m.speed*2, maxSpeed)
		case "-", "_":
			m.speed = max(m.speed/2, 1)
		case "home", "r":
			m.head = 0
		case "end":
			m.head = m.last()
		case "t":
			m.theme = NextTheme(m.theme)
		}
	case TickMsg:
		if m.playing {
			m.seek(m.head + m.speed)
			if m.head == m.last() {
				m.playing = false
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m Replay) draw() string {
	m.canvas.Clear()
	samples := m.rec.Samples[:m.head+1]
	if m.planar {
		xs, ys := make([]float64, len(samples)), make([]float64, len(samples))
		for i, s := range samples {
			xs[i], ys[i] = s.State[physics.DroneX], s.State[physics.DroneY]
		}
		m.canvas.Path(m.bounds, xs, ys)

		cur := samples[len(samples)-1].State
		cx, cy := m.canvas.Project(m.bounds, cur[physics.DroneX], cur[physics.DroneY])
		arm, c, s := 8.0, math.Cos(cur[physics.DroneTheta]), math.Sin(cur[physics.DroneTheta])
		m.canvas.DrawLine(cx-int(arm*c), cy+int(arm*s), cx+int(arm*c), cy-int(arm*s))
	} else {
		ts, ys := make([]float64, len(samples)), make([]float64, len(samples))
		for i, s := range samples {
			ts[i], ys[i] = s.Time, s.State[m.tracked]
		}
		_, ry := m.canvas.Project(m.bounds, 0, m.reference)
		for x := 0; x < m.canvas.Width*2; x += 3 {
			m.canvas.Set(x, ry)
		}
		m.canvas.Path(m.bounds, ts, ys)
	}
	return m.canvas.String()
}

func (m Replay) View() string {
	s := NewStyles(m.theme)
	if len(m.rec.Samples) == 0 {
		return s.Muted.Render("empty record") + "\n"
	}
	cur := m.rec.Samples[m.head]

	var b strings.Builder
	b.WriteString(s.Title.Render(strings.ToUpper(m.title)) + "\n\n")
	status := s.OK.Render("PLAYING")
	if !m.playing {
		status = s.Warn.Render("PAUSED")
	}
	b.WriteString(fmt.Sprintf("%s  x%d\n", status, m.speed))
	b.WriteString(s.ProgressBar(float64(m.head)/float64(max(m.last(), 1)), 24) + "\n\n")

	row := func(label, value string) {
		b.WriteString(s.Label.Render(label) + s.Value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", cur.Time))
	b.WriteString(s.Label.Render("Phase") + s.Phase(cur.Phase) + "\n")
	for i, v := range cur.State {
		row(fmt.Sprintf("x[%d]", i), fmt.Sprintf("%.3f", v))
	}
	for i, v := range cur.Command {
		row(fmt.Sprintf("u[%d]", i), fmt.Sprintf("%.3f", v))
	}
	if m.head > 0 {
		if ys := finite(m.rec.Series(m.tracked)[:m.head+1]); len(ys) > 1 {
			b.WriteString("\n" + asciigraph.Plot(ys, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Precision(1)) + "\n")
		}
	}
	if m.head == m.last() && m.rec.Halted && m.rec.Halt != nil {
		b.WriteString("\n" + s.Bad.Render("HALT: "+m.rec.Halt.Reason) + "\n")
	}
	b.WriteString(s.KeyHint.Render("\nSP:Play [ ]:Step +/-:Speed R:Rewind T:Theme Q:Quit"))

	canvas := lipgloss.NewStyle().Padding(1, 2).Render(m.draw())
	stats := s.Panel.Render(b.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvas, stats)
}
