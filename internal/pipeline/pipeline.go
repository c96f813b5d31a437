package pipeline

import (
	"fmt"

	"github.com/san-kum/pipeflow/internal/capacity"
	"github.com/san-kum/pipeflow/internal/config"
	"github.com/san-kum/pipeflow/internal/palette"
)

const (
	SceneWidth  = 14.222
	SceneHeight = 8.0

	// Fill opacities once a stage or connector has been styled.
	StageOpacity     = 0.95
	ConnectorOpacity = 0.9

	labelHalfHeight  = 0.12
	numberHalfHeight = 0.15
	labelFontSize    = 28
	numberFontSize   = 30
)

type Colors struct {
	Neutral    palette.Color
	Bottleneck palette.Color
	Improved   palette.Color
	Connector  palette.Color
	Label      palette.Color
	EndCard    palette.Color
	Stroke     palette.Color
	Background palette.Color
}

func ColorsFrom(c config.ColorConfig) (Colors, error) {
	var out Colors
	for _, e := range []struct {
		hex string
		dst *palette.Color
	}{
		{c.Neutral, &out.Neutral},
		{c.Bottleneck, &out.Bottleneck},
		{c.Improved, &out.Improved},
		{c.Connector, &out.Connector},
		{c.Label, &out.Label},
		{c.EndCard, &out.EndCard},
		{c.Stroke, &out.Stroke},
		{c.Background, &out.Background},
	} {
		col, err := palette.Parse(e.hex)
		if err != nil {
			return Colors{}, err
		}
		*e.dst = col
	}
	return out, nil
}

// For returns the stage color of a highlight state.
func (c Colors) For(h Highlight) palette.Color {
	switch h {
	case Bottleneck:
		return c.Bottleneck
	case Improved:
		return c.Improved
	default:
		return c.Neutral
	}
}

// Pipeline is the live scene: five stages, the four connectors between them
// and any overlay text. Geometry is derived on every Snapshot.
type Pipeline struct {
	Stages     []*Stage
	Connectors []*Connector
	Overlays   []*Overlay
	Step       int

	colors   Colors
	layout   config.LayoutConfig
	model    capacity.Model
	baseline []int
}

func New(cfg config.Config) (*Pipeline, error) {
	if len(cfg.Stages) != config.StageCount {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrStageCount, config.StageCount, len(cfg.Stages))
	}
	colors, err := ColorsFrom(cfg.Colors)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		Stages:     make([]*Stage, len(cfg.Stages)),
		Connectors: make([]*Connector, len(cfg.Stages)-1),
		colors:     colors,
		layout:     cfg.Layout,
		model:      capacity.New(cfg),
		baseline:   cfg.Capacities(),
	}

	w, gap := cfg.Layout.StageWidth, cfg.Layout.HSpacing
	n := float64(len(cfg.Stages))
	x := -(w*n+gap*(n-1))/2 + w/2

	for i, spec := range cfg.Stages {
		thickness := p.model.ThicknessFromCapacity(float64(spec.Capacity))
		p.Stages[i] = &Stage{
			Key:       spec.Key,
			Label:     spec.Label,
			Capacity:  float64(spec.Capacity),
			Thickness: thickness,
			Fill:      Fill{Color: colors.Neutral, Opacity: ConnectorOpacity},
			Opacity:   1,
			Scale:     1,
			centerX:   x,
			labelY:    -thickness/2 - cfg.Layout.LabelGap - labelHalfHeight,
		}
		x += w + gap
	}
	for i := range p.Connectors {
		p.Connectors[i] = &Connector{
			Fill: Fill{Color: colors.Connector, Opacity: ConnectorOpacity, Gradient: true},
		}
	}
	return p, nil
}

func (p *Pipeline) Colors() Colors              { return p.colors }
func (p *Pipeline) Model() capacity.Model       { return p.model }
func (p *Pipeline) Layout() config.LayoutConfig { return p.layout }

// Baseline returns a copy of the capacities the pipeline started with.
func (p *Pipeline) Baseline() []int {
	return append([]int(nil), p.baseline...)
}

// Capacities returns the displayed (rounded) capacity of every stage.
func (p *Pipeline) Capacities() []int {
	caps := make([]int, len(p.Stages))
	for i, s := range p.Stages {
		caps[i] = s.Number()
	}
	return caps
}

func (p *Pipeline) Stage(i int) (*Stage, error) {
	if i < 0 || i >= len(p.Stages) {
		return nil, fmt.Errorf("%w: %d", ErrStageIndex, i)
	}
	return p.Stages[i], nil
}

// Adjacent returns the connectors touching stage i.
func (p *Pipeline) Adjacent(i int) []*Connector {
	var out []*Connector
	if i-1 >= 0 && i-1 < len(p.Connectors) {
		out = append(out, p.Connectors[i-1])
	}
	if i >= 0 && i < len(p.Connectors) {
		out = append(out, p.Connectors[i])
	}
	return out
}

// Neutralize resets every stage and connector to the neutral pipe look.
func (p *Pipeline) Neutralize() {
	for _, s := range p.Stages {
		s.Highlight = Neutral
		s.Fill = Fill{Color: p.colors.Neutral, Opacity: StageOpacity, Gradient: true}
	}
	for _, c := range p.Connectors {
		c.Highlight = Neutral
		c.Fill = Fill{Color: p.colors.Connector, Opacity: ConnectorOpacity, Gradient: true}
	}
}

// Flag marks stage i and its adjacent connectors with h.
func (p *Pipeline) Flag(i int, h Highlight) error {
	s, err := p.Stage(i)
	if err != nil {
		return err
	}
	s.Highlight = h
	for _, c := range p.Adjacent(i) {
		c.Highlight = h
	}
	return nil
}

// Rect returns the current rectangle of stage i.
func (p *Pipeline) Rect(i int) Rect {
	s := p.Stages[i]
	return Rect{
		CX: s.centerX,
		CY: s.OffsetY,
		W:  p.layout.StageWidth * s.Scale,
		H:  s.Thickness * s.Scale,
	}
}

// ConnectorShape bridges the right edge of stage i to the left edge of stage
// i+1 using their current heights.
func (p *Pipeline) ConnectorShape(i int) Polygon {
	return Bridge(p.Rect(i), p.Rect(i+1))
}

func Bridge(l, r Rect) Polygon {
	lx, rx := l.Right(), r.Left()
	return Polygon{
		{X: lx, Y: l.Top()},
		{X: rx, Y: r.Top()},
		{X: rx, Y: r.Bottom()},
		{X: lx, Y: l.Bottom()},
	}
}

// AddOverlay places text at the top edge of the scene and returns it.
func (p *Pipeline) AddOverlay(content string, color palette.Color, fontSize float64) *Overlay {
	o := &Overlay{
		Text: Text{
			Content:  content,
			Pos:      Point{X: 0, Y: SceneHeight/2 - 0.5},
			Color:    color,
			FontSize: fontSize,
		},
	}
	p.Overlays = append(p.Overlays, o)
	return o
}

// Snapshot recomputes all derived geometry and returns the frame at t.
func (p *Pipeline) Snapshot(t float64, index int) *Frame {
	f := &Frame{
		Index:      index,
		Time:       t,
		Step:       p.Step,
		Width:      SceneWidth,
		Height:     SceneHeight,
		Background: p.colors.Background,
		Stroke:     p.colors.Stroke,
		Stages:     make([]StageFrame, len(p.Stages)),
		Connectors: make([]ConnectorFrame, len(p.Connectors)),
	}
	for i, s := range p.Stages {
		r := p.Rect(i)
		f.Stages[i] = StageFrame{
			Key:       s.Key,
			Rect:      r,
			Fill:      s.Fill,
			Opacity:   s.Opacity,
			Highlight: s.Highlight,
			Value:     s.Number(),
			Capacity:  s.Capacity,
			Label: Text{
				Content:  s.Label,
				Pos:      Point{X: s.centerX, Y: s.labelY},
				Color:    p.colors.Label,
				Opacity:  1,
				FontSize: labelFontSize,
			},
			Number: Text{
				Content:  fmt.Sprintf("%d", s.Number()),
				Pos:      Point{X: r.CX, Y: r.Top() + p.layout.NumberGap + numberHalfHeight},
				Color:    palette.White,
				Opacity:  1,
				FontSize: numberFontSize,
			},
		}
	}
	for i, c := range p.Connectors {
		f.Connectors[i] = ConnectorFrame{
			Shape:     p.ConnectorShape(i),
			Fill:      c.Fill,
			Highlight: c.Highlight,
		}
	}
	for _, o := range p.Overlays {
		txt := o.Text
		txt.Pos.Y += o.OffsetY
		f.Overlays = append(f.Overlays, txt)
	}
	return f
}
