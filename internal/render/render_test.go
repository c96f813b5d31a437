package render

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/san-kum/pipeflow/internal/config"
	"github.com/san-kum/pipeflow/internal/palette"
	"github.com/san-kum/pipeflow/internal/pipeline"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testFrame(t *testing.T) *pipeline.Frame {
	t.Helper()
	p, err := pipeline.New(config.Default())
	require.NoError(t, err)
	p.Neutralize()
	require.NoError(t, p.Flag(3, pipeline.Bottleneck))
	p.AddOverlay("2-month Growth Plan Complete", p.Colors().EndCard, 44).Opacity = 1
	return p.Snapshot(0.5, 7)
}

func mustColor(t *testing.T, hex string) palette.Color {
	t.Helper()
	c, err := palette.Parse(hex)
	require.NoError(t, err)
	return c
}

type flatOnly struct {
	flat     int
	gradient int
	color    palette.Color
	opacity  float64
}

func (s *flatOnly) FillFlat(c palette.Color, opacity float64) error {
	s.flat++
	s.color, s.opacity = c, opacity
	return nil
}

func (s *flatOnly) FillGradient(_, _ palette.Color, _ float64) error {
	s.gradient++
	return ErrGradientUnsupported
}

type brokenSurface struct{ flatOnly }

func (s *brokenSurface) FillGradient(_, _ palette.Color, _ float64) error {
	return errors.New("device lost")
}

func TestResolveFillFallsBackToFlat(t *testing.T) {
	s := &flatOnly{}
	red := mustColor(t, "#FC6255")
	err := ResolveFill(s, pipeline.Fill{Color: red, Opacity: 0.95, Gradient: true})

	require.NoError(t, err)
	assert.Equal(t, 1, s.gradient)
	assert.Equal(t, 1, s.flat)
	assert.Equal(t, red, s.color)
	assert.Equal(t, 0.95, s.opacity)
}

func TestResolveFillFlatSkipsGradient(t *testing.T) {
	s := &flatOnly{}
	require.NoError(t, ResolveFill(s, pipeline.Fill{Color: palette.White, Opacity: 0.9}))
	assert.Equal(t, 0, s.gradient)
	assert.Equal(t, 1, s.flat)
}

func TestResolveFillOtherErrorsSurface(t *testing.T) {
	s := &brokenSurface{}
	err := ResolveFill(s, pipeline.Fill{Color: palette.White, Opacity: 1, Gradient: true})
	assert.Error(t, err)
	assert.Equal(t, 0, s.flat)
}

func TestFrameToSVGGradient(t *testing.T) {
	doc, err := FrameToSVG(testFrame(t), DefaultSVGOptions())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, "<?xml"))
	assert.Equal(t, 5, strings.Count(doc, "<rect x="))
	assert.Equal(t, 4, strings.Count(doc, "<polygon"))
	assert.Contains(t, doc, "<linearGradient")
	assert.Contains(t, doc, "Fulfillment")
	assert.Contains(t, doc, "2-month Growth Plan Complete")
	assert.Contains(t, doc, ">30</text>")
}

func TestFrameToSVGFlatFallback(t *testing.T) {
	opts := DefaultSVGOptions()
	opts.Flat = true
	doc, err := FrameToSVG(testFrame(t), opts)
	require.NoError(t, err)

	assert.NotContains(t, doc, "<linearGradient")
	assert.NotContains(t, doc, "url(#")
	assert.Contains(t, doc, `fill-opacity="0.950"`)
}

func TestFrameToSVGNil(t *testing.T) {
	doc, err := FrameToSVG(nil, DefaultSVGOptions())
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestSVGSinkWritesEveryFrame(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewSVGSink(dir, SVGOptions{Width: 320, Workers: 3})
	require.NoError(t, err)

	base := testFrame(t)
	for i := 0; i < 10; i++ {
		f := *base
		f.Index = i
		require.NoError(t, sink.OnFrame(&f))
	}
	require.NoError(t, sink.Close())
	assert.Equal(t, 10, sink.Written())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 10)
	_, err = os.Stat(sink.FramePath(9))
	assert.NoError(t, err)
}

func TestCanvasFillPolygon(t *testing.T) {
	c := NewCanvas(4, 2)
	c.FillPolygon([]pipeline.Point{{X: 0, Y: 0}, {X: 7, Y: 0}, {X: 7, Y: 7}, {X: 0, Y: 7}})
	for _, row := range c.Grid {
		for _, r := range row {
			assert.Equal(t, rune(0x28FF), r)
		}
	}
}

func TestCanvasGradientUnsupported(t *testing.T) {
	c := NewCanvas(2, 2)
	assert.ErrorIs(t, c.FillGradient(palette.White, palette.Black, 1), ErrGradientUnsupported)
}

func TestCanvasDrawFrame(t *testing.T) {
	c := NewCanvas(100, 30)
	require.NoError(t, c.Draw(testFrame(t)))
	out := c.String()

	assert.Contains(t, out, "Marketing")
	assert.Contains(t, out, "60")
	assert.Contains(t, out, "Growth Plan")
	assert.Equal(t, 30, strings.Count(out, "\n"))
	assert.NotEmpty(t, c.Styled())
}

func TestTerminalSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTerminalSink(&buf, 80, 20)
	require.NoError(t, sink.OnFrame(testFrame(t)))
	require.NoError(t, sink.Close())

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, hideCursor))
	assert.Contains(t, out, clearScreen)
	assert.True(t, strings.HasSuffix(out, showCursor))
}

func TestRecorderAndMulti(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	assert.Nil(t, a.Last())

	m := Multi{a, b}
	f := testFrame(t)
	require.NoError(t, m.OnFrame(f))
	require.NoError(t, m.Close())

	assert.Same(t, f, a.Last())
	assert.Len(t, b.Frames, 1)
}
