package metrics

import (
	"math"

	"github.com/san-kum/pipeflow/internal/capacity"
	"github.com/san-kum/pipeflow/internal/pipeline"
)

type Metric interface {
	Name() string
	Observe(f *pipeline.Frame)
	Value() float64
	Reset()
}

// Throughput reports the displayed capacity of the bottleneck in the last
// observed frame.
type Throughput struct {
	name    string
	current int
}

func NewThroughput() *Throughput {
	return &Throughput{name: "throughput"}
}

func (m *Throughput) Name() string { return m.name }

func (m *Throughput) Observe(f *pipeline.Frame) {
	m.current = capacity.Throughput(f.Values())
}

func (m *Throughput) Value() float64 { return float64(m.current) }
func (m *Throughput) Reset()         { m.current = 0 }

// ThroughputGain is the change in throughput between the first and the last
// observed frame.
type ThroughputGain struct {
	name     string
	initial  int
	current  int
	observed bool
}

func NewThroughputGain() *ThroughputGain {
	return &ThroughputGain{name: "throughput_gain"}
}

func (m *ThroughputGain) Name() string { return m.name }

func (m *ThroughputGain) Observe(f *pipeline.Frame) {
	tp := capacity.Throughput(f.Values())
	if !m.observed {
		m.initial = tp
		m.observed = true
	}
	m.current = tp
}

func (m *ThroughputGain) Value() float64 {
	if !m.observed {
		return 0
	}
	return float64(m.current - m.initial)
}

func (m *ThroughputGain) Reset() {
	m.initial, m.current, m.observed = 0, 0, false
}

// BottleneckShifts counts how often the bottleneck moves to another stage.
type BottleneckShifts struct {
	name   string
	last   int
	shifts int
	seen   bool
}

func NewBottleneckShifts() *BottleneckShifts {
	return &BottleneckShifts{name: "bottleneck_shifts"}
}

func (m *BottleneckShifts) Name() string { return m.name }

func (m *BottleneckShifts) Observe(f *pipeline.Frame) {
	idx := capacity.BottleneckIndex(f.Values())
	if m.seen && idx != m.last {
		m.shifts++
	}
	m.last, m.seen = idx, true
}

func (m *BottleneckShifts) Value() float64 { return float64(m.shifts) }

func (m *BottleneckShifts) Reset() {
	m.last, m.shifts, m.seen = 0, 0, false
}

// PeakThickness is the tallest stage drawn in any frame.
type PeakThickness struct {
	name string
	peak float64
}

func NewPeakThickness() *PeakThickness {
	return &PeakThickness{name: "peak_thickness"}
}

func (m *PeakThickness) Name() string { return m.name }

func (m *PeakThickness) Observe(f *pipeline.Frame) {
	for _, s := range f.Stages {
		m.peak = math.Max(m.peak, s.Rect.H)
	}
}

func (m *PeakThickness) Value() float64 { return m.peak }
func (m *PeakThickness) Reset()         { m.peak = 0 }

// Defaults returns the metrics recorded on every run.
func Defaults() []Metric {
	return []Metric{
		NewThroughput(),
		NewThroughputGain(),
		NewBottleneckShifts(),
		NewPeakThickness(),
	}
}
