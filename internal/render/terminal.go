package render

import (
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/san-kum/pipeflow/internal/pipeline"
)

const (
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// TerminalSink draws every frame to a writer. When Realtime is set it paces
// output to the frame clock.
type TerminalSink struct {
	w        io.Writer
	canvas   *Canvas
	Realtime bool
	Color    bool

	started time.Time
	opened  bool
	sleep   func(time.Duration)
}

func NewTerminalSink(w io.Writer, cols, rows int) *TerminalSink {
	return &TerminalSink{
		w:      w,
		canvas: NewCanvas(cols, rows),
		sleep:  time.Sleep,
	}
}

func (t *TerminalSink) OnFrame(f *pipeline.Frame) error {
	if !t.opened {
		t.opened = true
		t.started = time.Now()
		if _, err := io.WriteString(t.w, hideCursor); err != nil {
			return errors.Wrap(err, "unable to write to terminal")
		}
	}
	if t.Realtime {
		due := t.started.Add(time.Duration(f.Time * float64(time.Second)))
		if wait := time.Until(due); wait > 0 {
			t.sleep(wait)
		}
	}
	if err := t.canvas.Draw(f); err != nil {
		return err
	}
	out := t.canvas.String()
	if t.Color {
		out = t.canvas.Styled()
	}
	if _, err := io.WriteString(t.w, clearScreen+out); err != nil {
		return errors.Wrap(err, "unable to write to terminal")
	}
	return nil
}

func (t *TerminalSink) Close() error {
	if !t.opened {
		return nil
	}
	_, err := io.WriteString(t.w, showCursor)
	return err
}

var _ Sink = (*TerminalSink)(nil)
