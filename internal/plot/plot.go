// Package plot renders simulation records to PNG files with gonum/plot.
package plot

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/ctrlsim/internal/sim"
)

var (
	ErrEmptyRecord = errors.New("plot: record has no samples")
	ErrFormat      = errors.New("plot: unsupported image format")
)

// Options sizes the rendered image. Zero fields take the defaults below.
type Options struct {
	Title  string
	XLabel string
	YLabel string
	Width  float64 // inches
	Height float64 // inches
	DPI    int
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 8
	}
	if o.Height <= 0 {
		o.Height = 6
	}
	if o.DPI <= 0 {
		o.DPI = 150
	}
	return o
}

// Line is one named series on a time-series plot.
type Line struct {
	Name string
	Ys   []float64
}

var referenceColor = color.RGBA{R: 200, G: 60, B: 60, A: 255}

func limitedTicker(maxLabels int, labelFmt string) gplot.Ticker {
	if maxLabels < 2 {
		maxLabels = 2
	}
	return gplot.TickerFunc(func(min, max float64) []gplot.Tick {
		if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
			return nil
		}
		if min == max {
			return []gplot.Tick{{Value: min, Label: fmt.Sprintf(labelFmt, min)}}
		}
		step := (max - min) / float64(maxLabels-1)
		ticks := make([]gplot.Tick, 0, maxLabels)
		for i := 0; i < maxLabels; i++ {
			v := min + float64(i)*step
			ticks = append(ticks, gplot.Tick{Value: v, Label: fmt.Sprintf(labelFmt, v)})
		}
		return ticks
	})
}

func style(p *gplot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Title.Padding = vg.Points(10)
	p.X.Label.TextStyle.Font.Size = vg.Points(13)
	p.Y.Label.TextStyle.Font.Size = vg.Points(13)
	p.X.Padding = vg.Points(10)
	p.Y.Padding = vg.Points(10)
	p.X.Tick.Marker = limitedTicker(8, "%.1f")
	p.Y.Tick.Marker = limitedTicker(8, "%.2f")
	p.Add(plotter.NewGrid())
}

func newPlot(o Options) *gplot.Plot {
	p := gplot.New()
	p.Title.Text = o.Title
	p.X.Label.Text = o.XLabel
	p.Y.Label.Text = o.YLabel
	style(p)
	return p
}

func xys(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}

// TimeSeries plots each line against the record's sample times. A finite
// reference adds a dashed setpoint line, and every phase change in the record
// is marked with a vertical rule.
func TimeSeries(rec *sim.Record, lines []Line, reference float64, opts Options) (*gplot.Plot, error) {
	if rec == nil || len(rec.Samples) == 0 {
		return nil, ErrEmptyRecord
	}
	opts = opts.withDefaults()
	if opts.XLabel == "" {
		opts.XLabel = "time (s)"
	}
	p := newPlot(opts)
	ts := rec.Times()

	for i, ln := range lines {
		if len(ln.Ys) != len(ts) {
			return nil, fmt.Errorf("plot: series %q has %d points, want %d", ln.Name, len(ln.Ys), len(ts))
		}
		l, err := plotter.NewLine(xys(ts, ln.Ys))
		if err != nil {
			return nil, fmt.Errorf("plot: series %q: %w", ln.Name, err)
		}
		l.LineStyle.Width = vg.Points(1.5)
		l.LineStyle.Color = plotutil.Color(i)
		p.Add(l)
		if ln.Name != "" {
			p.Legend.Add(ln.Name, l)
		}
	}

	if !math.IsNaN(reference) && !math.IsInf(reference, 0) {
		ref, err := plotter.NewLine(plotter.XYs{{X: ts[0], Y: reference}, {X: ts[len(ts)-1], Y: reference}})
		if err != nil {
			return nil, err
		}
		ref.LineStyle.Color = referenceColor
		ref.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
		p.Add(ref)
		p.Legend.Add("reference", ref)
	}

	if err := markPhases(p, rec, lines, reference); err != nil {
		return nil, err
	}
	p.Legend.Top = true
	return p, nil
}

func markPhases(p *gplot.Plot, rec *sim.Record, lines []Line, reference float64) error {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, ln := range lines {
		for _, y := range ln.Ys {
			lo, hi = math.Min(lo, y), math.Max(hi, y)
		}
	}
	if !math.IsNaN(reference) && !math.IsInf(reference, 0) {
		lo, hi = math.Min(lo, reference), math.Max(hi, reference)
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil
	}
	for k := 1; k < len(rec.Samples); k++ {
		prev, cur := rec.Samples[k-1], rec.Samples[k]
		if prev.Phase == cur.Phase {
			continue
		}
		rule, err := plotter.NewLine(plotter.XYs{{X: cur.Time, Y: lo}, {X: cur.Time, Y: hi}})
		if err != nil {
			return err
		}
		rule.LineStyle.Color = color.Gray{Y: 140}
		rule.LineStyle.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		p.Add(rule)
	}
	return nil
}

// PhasePlane plots state component j against component i.
func PhasePlane(rec *sim.Record, i, j int, opts Options) (*gplot.Plot, error) {
	if rec == nil || len(rec.Samples) == 0 {
		return nil, ErrEmptyRecord
	}
	dim := len(rec.Samples[0].State)
	if i < 0 || j < 0 || i >= dim || j >= dim {
		return nil, fmt.Errorf("plot: phase plane axes (%d, %d) outside state dimension %d", i, j, dim)
	}
	opts = opts.withDefaults()
	if opts.XLabel == "" {
		opts.XLabel = fmt.Sprintf("x[%d]", i)
	}
	if opts.YLabel == "" {
		opts.YLabel = fmt.Sprintf("x[%d]", j)
	}
	p := newPlot(opts)

	l, err := plotter.NewLine(xys(rec.Series(i), rec.Series(j)))
	if err != nil {
		return nil, err
	}
	l.LineStyle.Width = vg.Points(1.5)
	l.LineStyle.Color = plotutil.Color(0)
	p.Add(l)

	first := rec.Samples[0].State
	start, err := plotter.NewScatter(plotter.XYs{{X: first[i], Y: first[j]}})
	if err != nil {
		return nil, err
	}
	start.GlyphStyle.Shape = draw.CircleGlyph{}
	start.GlyphStyle.Radius = vg.Points(4)
	start.GlyphStyle.Color = referenceColor
	p.Add(start)
	p.Legend.Add("start", start)
	return p, nil
}

// WritePNG renders p as a PNG of the given size to w.
func WritePNG(w io.Writer, p *gplot.Plot, opts Options) error {
	opts = opts.withDefaults()
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(opts.Width)*vg.Inch, vg.Length(opts.Height)*vg.Inch),
		vgimg.UseDPI(opts.DPI),
	)
	p.Draw(draw.New(c))

	png := vgimg.PngCanvas{Canvas: c}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return nil
}

// Save writes p to filename, creating parent directories as needed. The
// extension picks the format: png is rasterised at opts.DPI, while svg, pdf
// and eps use the vector backends.
func Save(p *gplot.Plot, filename string, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	opts = opts.withDefaults()
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))

	var wt io.WriterTo
	switch format {
	case "png":
	case "svg", "pdf", "eps":
		var err error
		wt, err = p.WriterTo(vg.Length(opts.Width)*vg.Inch, vg.Length(opts.Height)*vg.Inch, format)
		if err != nil {
			return fmt.Errorf("cannot render %s: %w", format, err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrFormat, format)
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", format, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if wt == nil {
		err = WritePNG(bw, p, opts)
	} else {
		_, err = wt.WriteTo(bw)
	}
	if err != nil {
		return err
	}
	return bw.Flush()
}
