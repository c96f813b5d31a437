package metrics

import (
	"testing"

	"github.com/san-kum/pipeflow/internal/pipeline"
)

func frame(vals ...int) *pipeline.Frame {
	f := &pipeline.Frame{Stages: make([]pipeline.StageFrame, len(vals))}
	for i, v := range vals {
		f.Stages[i] = pipeline.StageFrame{Value: v, Capacity: float64(v), Rect: pipeline.Rect{H: float64(v) / 100}}
	}
	return f
}

func TestThroughput(t *testing.T) {
	m := NewThroughput()
	m.Observe(frame(60, 50, 40, 30, 30))
	if m.Value() != 30 {
		t.Errorf("expected 30, got %f", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("reset did not clear throughput")
	}
}

func TestThroughputGain(t *testing.T) {
	m := NewThroughputGain()
	if m.Value() != 0 {
		t.Error("expected 0 before any frame")
	}
	m.Observe(frame(60, 50, 40, 30, 30))
	m.Observe(frame(60, 50, 40, 51, 30))
	m.Observe(frame(60, 50, 40, 51, 51))
	if m.Value() != 10 {
		t.Errorf("expected gain 10, got %f", m.Value())
	}
}

func TestBottleneckShifts(t *testing.T) {
	m := NewBottleneckShifts()
	m.Observe(frame(60, 50, 40, 30, 30))
	m.Observe(frame(60, 50, 40, 51, 30))
	m.Observe(frame(60, 50, 40, 51, 30))
	m.Observe(frame(60, 50, 40, 51, 51))
	if m.Value() != 2 {
		t.Errorf("expected 2 shifts, got %f", m.Value())
	}
	m.Reset()
	m.Observe(frame(1, 2))
	if m.Value() != 0 {
		t.Error("first frame after reset should not count as a shift")
	}
}

func TestPeakThickness(t *testing.T) {
	m := NewPeakThickness()
	m.Observe(frame(60, 50))
	m.Observe(frame(90, 10))
	if m.Value() != 0.9 {
		t.Errorf("expected 0.9, got %f", m.Value())
	}
}

func TestDefaultsHaveUniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Defaults() {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %s", m.Name())
		}
		seen[m.Name()] = true
	}
}
