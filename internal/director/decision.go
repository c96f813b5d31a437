package director

import (
	"github.com/san-kum/pipeflow/internal/capacity"
	"github.com/san-kum/pipeflow/internal/config"
)

// Decision is everything one optimization step decides before animating.
type Decision struct {
	Step       int     `json:"step"`
	Bottleneck int     `json:"bottleneck"`
	Current    int     `json:"current"`
	Target     int     `json:"target"`
	Delta      int     `json:"delta"`
	Mid        float64 `json:"mid"`
	Baseline   int     `json:"baseline,omitempty"`

	FinalThickness     float64 `json:"final_thickness"`
	OvershootThickness float64 `json:"overshoot_thickness"`
}

// Decide computes step `step` (1-based) for the displayed capacities caps.
// Step 1 derives the delta from the third distinct baseline value; later
// steps reuse delta unchanged.
func Decide(m capacity.Model, motion config.MotionConfig, caps, baseline []int, step, delta int) Decision {
	b := capacity.BottleneckIndex(caps)
	current := 0
	if len(caps) > 0 {
		current = caps[b]
	}

	d := Decision{Step: step, Bottleneck: b, Current: current}
	if step == 1 {
		d.Baseline = capacity.ThirdDistinctBaseline(baseline)
		d.Target = m.ClampToMax(max(current+1, d.Baseline+1))
		d.Delta = max(1, d.Target-current)
	} else {
		if delta <= 0 {
			delta = 1
		}
		d.Delta = delta
		d.Target = m.ClampToMax(current + delta)
	}

	d.Mid = float64(current) + float64(d.Target-current)*motion.MidpointFraction

	final := m.ThicknessFromCapacity(float64(d.Target)) * motion.FinalThicknessBoost
	d.OvershootThickness = m.VisualClamp(final * motion.OvershootFactor)
	d.FinalThickness = m.VisualClamp(final)
	return d
}

// Plan runs the decision rule for every step without animating anything.
func Plan(cfg config.Config) []Decision {
	m := capacity.New(cfg)
	caps := cfg.Capacities()
	baseline := cfg.Capacities()

	out := make([]Decision, 0, cfg.Steps)
	delta := 0
	for step := 1; step <= cfg.Steps; step++ {
		d := Decide(m, cfg.Motion, caps, baseline, step, delta)
		if step == 1 {
			delta = d.Delta
		}
		if len(caps) > 0 {
			caps[d.Bottleneck] = d.Target
		}
		out = append(out, d)
	}
	return out
}
