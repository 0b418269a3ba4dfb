package viz

import (
	"math"
	"strings"
)

// dotBits[row][col] is the braille dot for a sub-pixel inside one cell,
// which is two dots wide and four tall.
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

const brailleBlank rune = 0x2800

// Canvas is a braille plotting surface of Width by Height terminal cells.
type Canvas struct {
	Width, Height int
	cells         []rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, cells: make([]rune, w*h)}
	c.Clear()
	return c
}

// Set lights the sub-pixel (x, y). The canvas is Width*2 by Height*4
// sub-pixels with the origin at the top left.
func (c *Canvas) Set(x, y int) {
	col, row := x/2, y/4
	if x < 0 || y < 0 || col >= c.Width || row >= c.Height {
		return
	}
	c.cells[row*c.Width+col] |= dotBits[y%4][x%2]
}

// Cell returns the braille rune at terminal cell (col, row).
func (c *Canvas) Cell(col, row int) rune {
	return c.cells[row*c.Width+col]
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = brailleBlank
	}
}

// DrawLine rasterises the segment with Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// Bounds is the world-coordinate window mapped onto the canvas.
type Bounds struct {
	MinX, MaxX, MinY, MaxY float64
}

// BoundsOf returns the smallest window holding every point, widened where
// a side would otherwise be degenerate.
func BoundsOf(xs, ys []float64) Bounds {
	b := Bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for i := range xs {
		b.MinX, b.MaxX = math.Min(b.MinX, xs[i]), math.Max(b.MaxX, xs[i])
		b.MinY, b.MaxY = math.Min(b.MinY, ys[i]), math.Max(b.MaxY, ys[i])
	}
	if len(xs) == 0 {
		return Bounds{0, 1, 0, 1}
	}
	if b.MaxX-b.MinX < 1e-9 {
		b.MinX, b.MaxX = b.MinX-1, b.MaxX+1
	}
	if b.MaxY-b.MinY < 1e-9 {
		b.MinY, b.MaxY = b.MinY-1, b.MaxY+1
	}
	return b
}

// Project maps a world point to sub-pixel coordinates, y pointing up.
func (c *Canvas) Project(b Bounds, x, y float64) (int, int) {
	w, h := float64(c.Width*2-1), float64(c.Height*4-1)
	px := (x - b.MinX) / (b.MaxX - b.MinX) * w
	py := h - (y-b.MinY)/(b.MaxY-b.MinY)*h
	return int(math.Round(px)), int(math.Round(py))
}

// Path connects consecutive world points.
func (c *Canvas) Path(b Bounds, xs, ys []float64) {
	for i := range xs {
		x, y := c.Project(b, xs[i], ys[i])
		if i == 0 {
			c.Set(x, y)
			continue
		}
		px, py := c.Project(b, xs[i-1], ys[i-1])
		c.DrawLine(px, py, x, y)
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for row := range c.Height {
		b.WriteString(string(c.cells[row*c.Width : (row+1)*c.Width]))
		b.WriteByte('\n')
	}
	return b.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
