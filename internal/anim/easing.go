package anim

import "math"

// Easing maps linear progress in [0, 1] to eased progress.
type Easing func(float64) float64

func Linear(t float64) float64 { return t }

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// Smooth is a sigmoid ramp with inflection 10, normalized to hit 0 and 1
// exactly at the ends.
func Smooth(t float64) float64 {
	const inflection = 10.0
	e := sigmoid(-inflection / 2)
	v := (sigmoid(inflection*(t-0.5)) - e) / (1 - 2*e)
	return math.Min(math.Max(v, 0), 1)
}

func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

func EaseOutSine(t float64) float64 {
	return math.Sin(t * math.Pi / 2)
}

var easings = map[string]Easing{
	"linear":         Linear,
	"smooth":         Smooth,
	"ease_out_cubic": EaseOutCubic,
	"ease_out_sine":  EaseOutSine,
}

// EasingByName returns the named curve, or nil when unknown.
func EasingByName(name string) Easing {
	return easings[name]
}
