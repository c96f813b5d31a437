package anim

import (
	"math"

	"github.com/san-kum/pipeflow/internal/palette"
)

// Animation changes scene state as progress goes from 0 to 1. Begin is
// called once before the first Interpolate.
type Animation interface {
	Begin()
	Interpolate(alpha float64)
}

// Tween moves a float property from its value at Begin to a target.
type Tween struct {
	target *float64
	from   float64
	to     float64
}

func Float(target *float64, to float64) *Tween {
	return &Tween{target: target, to: to}
}

func (tw *Tween) Begin() { tw.from = *tw.target }

func (tw *Tween) Interpolate(alpha float64) {
	if alpha >= 1 {
		*tw.target = tw.to
		return
	}
	*tw.target = tw.from + (tw.to-tw.from)*alpha
}

type ColorTween struct {
	target *palette.Color
	from   palette.Color
	to     palette.Color
}

func Color(target *palette.Color, to palette.Color) *ColorTween {
	return &ColorTween{target: target, to: to}
}

func (ct *ColorTween) Begin() { ct.from = *ct.target }

func (ct *ColorTween) Interpolate(alpha float64) {
	if alpha >= 1 {
		*ct.target = ct.to
		return
	}
	*ct.target = palette.Lerp(ct.from, ct.to, alpha)
}

// Eased applies its own curve on top of the progress it receives.
type eased struct {
	Animation
	easing Easing
}

func Eased(a Animation, e Easing) Animation {
	return &eased{Animation: a, easing: e}
}

func (e *eased) Interpolate(alpha float64) {
	if alpha >= 1 {
		e.Animation.Interpolate(1)
		return
	}
	e.Animation.Interpolate(e.easing(alpha))
}

// Group runs its children together. With a positive lag ratio each child
// starts lag*childDuration after the previous one, and the whole group still
// fits in the same overall progress range.
type Group struct {
	children []Animation
	lag      float64
}

func Parallel(children ...Animation) *Group {
	return &Group{children: children}
}

func Lagged(lag float64, children ...Animation) *Group {
	return &Group{children: children, lag: lag}
}

func (g *Group) Begin() {
	for _, c := range g.children {
		c.Begin()
	}
}

func (g *Group) Interpolate(alpha float64) {
	n := float64(len(g.children))
	if n == 0 {
		return
	}
	if alpha >= 1 {
		for _, c := range g.children {
			c.Interpolate(1)
		}
		return
	}
	// Total length in units of one child's duration.
	total := 1 + (n-1)*g.lag
	for i, c := range g.children {
		start := float64(i) * g.lag
		c.Interpolate(math.Min(math.Max(alpha*total-start, 0), 1))
	}
}
