package pipeline

import (
	"math"

	"github.com/san-kum/pipeflow/internal/palette"
)

type Highlight int

const (
	Neutral Highlight = iota
	Bottleneck
	Improved
)

func (h Highlight) String() string {
	switch h {
	case Bottleneck:
		return "bottleneck"
	case Improved:
		return "improved"
	default:
		return "neutral"
	}
}

// Fill is the paint of a stage or connector. Gradient asks the renderer for
// the shaded pipe look; renderers that cannot shade fall back to flat.
type Fill struct {
	Color    palette.Color
	Opacity  float64
	Gradient bool
}

type Point struct {
	X, Y float64
}

// Rect is centered at (CX, CY) in scene units, y pointing up.
type Rect struct {
	CX, CY float64
	W, H   float64
}

func (r Rect) Left() float64   { return r.CX - r.W/2 }
func (r Rect) Right() float64  { return r.CX + r.W/2 }
func (r Rect) Top() float64    { return r.CY + r.H/2 }
func (r Rect) Bottom() float64 { return r.CY - r.H/2 }

// Polygon vertices run top-left, top-right, bottom-right, bottom-left.
type Polygon [4]Point

type Stage struct {
	Key       string
	Label     string
	Capacity  float64
	Thickness float64
	Highlight Highlight
	Fill      Fill

	// Intro fade state.
	Opacity float64
	OffsetY float64
	Scale   float64

	centerX float64
	labelY  float64
}

// Number is the integer shown above the stage.
func (s *Stage) Number() int {
	return int(math.Round(s.Capacity))
}

type Connector struct {
	Highlight Highlight
	Fill      Fill
}

type Text struct {
	Content  string
	Pos      Point
	Color    palette.Color
	Opacity  float64
	FontSize float64
}

// Overlay is a piece of text faded in over the scene.
type Overlay struct {
	Text
	OffsetY float64
}

type StageFrame struct {
	Key       string
	Rect      Rect
	Fill      Fill
	Opacity   float64
	Highlight Highlight
	Label     Text
	Number    Text
	Value     int
	Capacity  float64
}

type ConnectorFrame struct {
	Shape     Polygon
	Fill      Fill
	Highlight Highlight
}

// Frame is a render-agnostic picture of the scene at one instant.
type Frame struct {
	Index      int
	Time       float64
	Step       int
	Width      float64
	Height     float64
	Background palette.Color
	Stroke     palette.Color
	Stages     []StageFrame
	Connectors []ConnectorFrame
	Overlays   []Text
}

// Capacities returns the live (unrounded) capacity of every stage.
func (f *Frame) Capacities() []float64 {
	caps := make([]float64, len(f.Stages))
	for i, s := range f.Stages {
		caps[i] = s.Capacity
	}
	return caps
}

// Values returns the displayed integer of every stage.
func (f *Frame) Values() []int {
	vals := make([]int, len(f.Stages))
	for i, s := range f.Stages {
		vals[i] = s.Value
	}
	return vals
}
