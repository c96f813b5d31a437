package render

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/pipeflow/internal/palette"
	"github.com/san-kum/pipeflow/internal/pipeline"
)

type SVGOptions struct {
	// Width in pixels; height follows the scene aspect ratio.
	Width int
	// Flat disables gradient fills.
	Flat bool
	// Workers bounds concurrent file encoding on Close.
	Workers int
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Width: 1280, Workers: runtime.NumCPU()}
}

// svgShape collects the paint attributes of one shape.
type svgShape struct {
	flat  bool
	id    string
	defs  *strings.Builder
	attrs string
}

func (s *svgShape) FillFlat(c palette.Color, opacity float64) error {
	s.attrs = fmt.Sprintf(`fill="%s" fill-opacity="%.3f"`, c.Hex(), opacity)
	return nil
}

func (s *svgShape) FillGradient(top, bottom palette.Color, opacity float64) error {
	if s.flat {
		return ErrGradientUnsupported
	}
	fmt.Fprintf(s.defs, `<linearGradient id="%s" x1="0" y1="0" x2="0" y2="1"><stop offset="0" stop-color="%s"/><stop offset="1" stop-color="%s"/></linearGradient>
`, s.id, top.Hex(), bottom.Hex())
	s.attrs = fmt.Sprintf(`fill="url(#%s)" fill-opacity="%.3f"`, s.id, opacity)
	return nil
}

// FrameToSVG draws a frame as a standalone SVG document.
func FrameToSVG(f *pipeline.Frame, opts SVGOptions) (string, error) {
	if f == nil {
		return "", nil
	}
	if opts.Width <= 0 {
		opts.Width = DefaultSVGOptions().Width
	}
	scale := float64(opts.Width) / f.Width
	height := f.Height * scale
	px := func(p pipeline.Point) (float64, float64) {
		return (p.X + f.Width/2) * scale, (f.Height/2 - p.Y) * scale
	}

	var defs, body strings.Builder
	stroke := f.Stroke.Hex()

	for i, c := range f.Connectors {
		shape := &svgShape{flat: opts.Flat, id: fmt.Sprintf("c%d", i), defs: &defs}
		if err := ResolveFill(shape, c.Fill); err != nil {
			return "", err
		}
		pts := make([]string, len(c.Shape))
		for k, p := range c.Shape {
			x, y := px(p)
			pts[k] = fmt.Sprintf("%.1f,%.1f", x, y)
		}
		fmt.Fprintf(&body, `<polygon points="%s" %s stroke="%s" stroke-width="1.0" stroke-opacity="0.2"/>
`, strings.Join(pts, " "), shape.attrs, stroke)
	}

	for i, s := range f.Stages {
		if s.Opacity <= 0 {
			continue
		}
		shape := &svgShape{flat: opts.Flat, id: fmt.Sprintf("s%d", i), defs: &defs}
		if err := ResolveFill(shape, s.Fill); err != nil {
			return "", err
		}
		x, y := px(pipeline.Point{X: s.Rect.Left(), Y: s.Rect.Top()})
		fmt.Fprintf(&body, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" %s stroke="%s" stroke-width="1.2" stroke-opacity="0.25" opacity="%.3f"/>
`, x, y, s.Rect.W*scale, s.Rect.H*scale, shape.attrs, stroke, s.Opacity)
	}

	for _, s := range f.Stages {
		writeText(&body, s.Label, px, scale)
		writeText(&body, s.Number, px, scale)
	}
	for _, o := range f.Overlays {
		writeText(&body, o, px, scale)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%.0f" viewBox="0 0 %d %.0f">
`, opts.Width, height, opts.Width, height)
	if defs.Len() > 0 {
		sb.WriteString("<defs>\n" + defs.String() + "</defs>\n")
	}
	fmt.Fprintf(&sb, `<rect width="100%%" height="100%%" fill="%s"/>
`, f.Background.Hex())
	sb.WriteString(body.String())
	sb.WriteString("</svg>\n")
	return sb.String(), nil
}

func writeText(sb *strings.Builder, t pipeline.Text, px func(pipeline.Point) (float64, float64), scale float64) {
	if t.Opacity <= 0 || t.Content == "" {
		return
	}
	x, y := px(t.Pos)
	fmt.Fprintf(sb, `<text x="%.1f" y="%.1f" fill="%s" opacity="%.3f" font-family="sans-serif" font-size="%.1f" text-anchor="middle" dominant-baseline="middle">%s</text>
`, x, y, t.Color.Hex(), t.Opacity, t.FontSize*scale/96, html.EscapeString(t.Content))
}

// SVGSink writes one SVG file per frame into a directory. Frames are
// buffered and encoded concurrently when the sink is closed.
type SVGSink struct {
	dir     string
	opts    SVGOptions
	frames  []*pipeline.Frame
	written int
}

func NewSVGSink(dir string, opts SVGOptions) (*SVGSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "unable to create frame directory %s", dir)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &SVGSink{dir: dir, opts: opts}, nil
}

func (s *SVGSink) OnFrame(f *pipeline.Frame) error {
	s.frames = append(s.frames, f)
	return nil
}

// FramePath is the file name used for frame i.
func (s *SVGSink) FramePath(i int) string {
	return filepath.Join(s.dir, fmt.Sprintf("frame_%05d.svg", i))
}

func (s *SVGSink) Close() error {
	return s.Flush(context.Background())
}

// Flush encodes all buffered frames.
func (s *SVGSink) Flush(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for _, f := range s.frames {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := FrameToSVG(f, s.opts)
			if err != nil {
				return errors.Wrapf(err, "unable to draw frame %d", f.Index)
			}
			path := s.FramePath(f.Index)
			if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
				return errors.Wrapf(err, "unable to write %s", path)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.written += len(s.frames)
	s.frames = nil
	return nil
}

// Written is the number of files flushed so far.
func (s *SVGSink) Written() int { return s.written }

var _ Sink = (*SVGSink)(nil)
