// Package render turns pipeline frames into pictures: SVG files, braille
// terminal canvases and in-memory recordings.
package render

import (
	stderrors "errors"

	"github.com/pkg/errors"

	"github.com/san-kum/pipeflow/internal/palette"
	"github.com/san-kum/pipeflow/internal/pipeline"
)

// ErrGradientUnsupported is returned by surfaces that can only paint flat
// fills.
var ErrGradientUnsupported = stderrors.New("render: gradient fill unsupported")

// Sink receives every frame of a run in order.
type Sink interface {
	OnFrame(f *pipeline.Frame) error
	Close() error
}

// FillSurface is the paint target of a single shape.
type FillSurface interface {
	FillFlat(c palette.Color, opacity float64) error
	FillGradient(top, bottom palette.Color, opacity float64) error
}

// ResolveFill paints f onto s. A gradient the surface cannot draw quietly
// becomes a flat fill of the same color and opacity.
func ResolveFill(s FillSurface, f pipeline.Fill) error {
	if f.Gradient {
		top, bottom := palette.Gradient(f.Color)
		err := s.FillGradient(top, bottom, f.Opacity)
		if err == nil {
			return nil
		}
		if !stderrors.Is(err, ErrGradientUnsupported) {
			return errors.Wrap(err, "unable to paint gradient")
		}
	}
	return s.FillFlat(f.Color, f.Opacity)
}

// Recorder keeps every frame in memory.
type Recorder struct {
	Frames []*pipeline.Frame
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) OnFrame(f *pipeline.Frame) error {
	r.Frames = append(r.Frames, f)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Last returns the final frame, or nil when nothing was recorded.
func (r *Recorder) Last() *pipeline.Frame {
	if len(r.Frames) == 0 {
		return nil
	}
	return r.Frames[len(r.Frames)-1]
}

// Multi fans frames out to several sinks.
type Multi []Sink

func (m Multi) OnFrame(f *pipeline.Frame) error {
	for _, s := range m {
		if err := s.OnFrame(f); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var (
	_ Sink = (*Recorder)(nil)
	_ Sink = Multi(nil)
)
