package render

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/pipeflow/internal/palette"
	"github.com/san-kum/pipeflow/internal/pipeline"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a braille grid with one color per cell.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Colors        [][]palette.Color

	pen palette.Color
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Colors: make([][]palette.Color, h),
		pen:    palette.White,
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Colors[i] = make([]palette.Color, w)
	}
	c.Clear()
	return c
}

// Set lights a dot at (x, y) in sub-pixel coordinates. The canvas is
// (Width*2) x (Height*4) sub-pixels.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	if c.Grid[row][col] < blank {
		c.Grid[row][col] = blank
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	c.Colors[row][col] = c.pen
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.Colors[i][j] = palette.White
		}
	}
}

// FillFlat sets the pen color, blended toward black by opacity.
func (c *Canvas) FillFlat(col palette.Color, opacity float64) error {
	c.pen = palette.Lerp(palette.Black, col, opacity)
	return nil
}

func (c *Canvas) FillGradient(_, _ palette.Color, _ float64) error {
	return ErrGradientUnsupported
}

// FillPolygon fills a convex polygon given in sub-pixel coordinates.
func (c *Canvas) FillPolygon(pts []pipeline.Point) {
	if len(pts) < 3 {
		return
	}
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	for y := int(math.Ceil(minY)); y <= int(math.Floor(maxY)); y++ {
		fy := float64(y)
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := range pts {
			a, b := pts[i], pts[(i+1)%len(pts)]
			if (fy < a.Y && fy < b.Y) || (fy > a.Y && fy > b.Y) {
				continue
			}
			if a.Y == b.Y {
				lo = math.Min(lo, math.Min(a.X, b.X))
				hi = math.Max(hi, math.Max(a.X, b.X))
				continue
			}
			x := a.X + (fy-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			lo = math.Min(lo, x)
			hi = math.Max(hi, x)
		}
		for x := int(math.Ceil(lo)); x <= int(math.Floor(hi)); x++ {
			c.Set(x, y)
		}
	}
}

// Text writes s centered on cell (col, row), replacing the dots under it.
func (c *Canvas) Text(col, row int, s string, color palette.Color) {
	if row < 0 || row >= c.Height {
		return
	}
	runes := []rune(s)
	start := col - len(runes)/2
	for i, r := range runes {
		x := start + i
		if x < 0 || x >= c.Width {
			continue
		}
		c.Grid[row][x] = r
		c.Colors[row][x] = color
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Styled renders the canvas with per-cell colors.
func (c *Canvas) Styled() string {
	var b strings.Builder
	for i, row := range c.Grid {
		start := 0
		for j := 1; j <= len(row); j++ {
			if j < len(row) && c.Colors[i][j] == c.Colors[i][start] {
				continue
			}
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Colors[i][start].Hex()))
			b.WriteString(style.Render(string(row[start:j])))
			start = j
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Draw paints a frame onto the canvas, replacing its content.
func (c *Canvas) Draw(f *pipeline.Frame) error {
	c.Clear()
	if f == nil {
		return nil
	}
	sx := float64(c.Width*2) / f.Width
	sy := float64(c.Height*4) / f.Height
	sub := func(p pipeline.Point) pipeline.Point {
		return pipeline.Point{X: (p.X + f.Width/2) * sx, Y: (f.Height/2 - p.Y) * sy}
	}
	cell := func(p pipeline.Point) (int, int) {
		q := sub(p)
		return int(q.X / 2), int(q.Y / 4)
	}

	for _, conn := range f.Connectors {
		if err := ResolveFill(c, conn.Fill); err != nil {
			return err
		}
		pts := make([]pipeline.Point, len(conn.Shape))
		for i, p := range conn.Shape {
			pts[i] = sub(p)
		}
		c.FillPolygon(pts)
	}
	for _, s := range f.Stages {
		if s.Opacity <= 0 {
			continue
		}
		if err := ResolveFill(c, s.Fill); err != nil {
			return err
		}
		r := s.Rect
		c.FillPolygon([]pipeline.Point{
			sub(pipeline.Point{X: r.Left(), Y: r.Top()}),
			sub(pipeline.Point{X: r.Right(), Y: r.Top()}),
			sub(pipeline.Point{X: r.Right(), Y: r.Bottom()}),
			sub(pipeline.Point{X: r.Left(), Y: r.Bottom()}),
		})
	}
	for _, s := range f.Stages {
		for _, t := range []pipeline.Text{s.Label, s.Number} {
			col, row := cell(t.Pos)
			c.Text(col, row, t.Content, t.Color)
		}
	}
	for _, o := range f.Overlays {
		if o.Opacity < 0.5 {
			continue
		}
		col, row := cell(o.Pos)
		c.Text(col, row, o.Content, o.Color)
	}
	return nil
}
