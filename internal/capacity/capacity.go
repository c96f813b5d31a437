// Package capacity maps stage capacities onto visual thickness and picks the
// bottleneck of a pipeline. Every function here is pure.
package capacity

import (
	"math"
	"sort"

	"github.com/san-kum/pipeflow/internal/config"
)

type Model struct {
	MinCap, MaxCap             int
	MinThickness, MaxThickness float64
	VisualClampFactor          float64
}

func New(cfg config.Config) Model {
	return Model{
		MinCap:            cfg.MinCap,
		MaxCap:            cfg.MaxCap,
		MinThickness:      cfg.Layout.MinThickness,
		MaxThickness:      cfg.Layout.MaxThickness,
		VisualClampFactor: cfg.Motion.VisualClampFactor,
	}
}

// Clamp limits c to [MinCap, MaxCap].
func (m Model) Clamp(c float64) float64 {
	return math.Min(math.Max(c, float64(m.MinCap)), float64(m.MaxCap))
}

// ClampToMax applies only the upper bound; capacities never shrink.
func (m Model) ClampToMax(x int) int {
	return min(x, m.MaxCap)
}

func (m Model) ThicknessFromCapacity(c float64) float64 {
	c = m.Clamp(c)
	t := (c - float64(m.MinCap)) / float64(m.MaxCap-m.MinCap)
	return m.MinThickness + t*(m.MaxThickness-m.MinThickness)
}

// VisualClamp caps a drawn thickness at MaxThickness * VisualClampFactor.
// It is independent of the capacity clamp.
func (m Model) VisualClamp(t float64) float64 {
	return math.Min(t, m.MaxThickness*m.VisualClampFactor)
}

// BottleneckIndex returns the index of the smallest capacity. Ties go to the
// lowest index.
func BottleneckIndex(caps []int) int {
	idx := 0
	for i, v := range caps {
		if v < caps[idx] {
			idx = i
		}
	}
	return idx
}

// ThirdDistinctBaseline returns the third smallest distinct value, or the
// largest distinct value when fewer than three exist.
func ThirdDistinctBaseline(caps []int) int {
	if len(caps) == 0 {
		return 0
	}
	seen := make(map[int]struct{}, len(caps))
	distinct := make([]int, 0, len(caps))
	for _, v := range caps {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		distinct = append(distinct, v)
	}
	sort.Ints(distinct)
	if len(distinct) >= 3 {
		return distinct[2]
	}
	return distinct[len(distinct)-1]
}

// Throughput is the capacity of the whole pipeline: its bottleneck.
func Throughput(caps []int) int {
	if len(caps) == 0 {
		return 0
	}
	return caps[BottleneckIndex(caps)]
}
