package anim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/pipeflow/internal/pipeline"
)

// FrameHook is called after every rendered frame with the scene clock.
type FrameHook func(t float64, index int) error

// Scene plays animations one block at a time. Play and Wait only return once
// their last frame has been handed to the hook.
type Scene struct {
	fps   int
	t     float64
	frame int
	hook  FrameHook
}

func NewScene(fps int, hook FrameHook) *Scene {
	if fps <= 0 {
		fps = 30
	}
	if hook == nil {
		hook = func(float64, int) error { return nil }
	}
	return &Scene{fps: fps, hook: hook}
}

func (s *Scene) Time() float64 { return s.t }
func (s *Scene) Frames() int   { return s.frame }
func (s *Scene) FPS() int      { return s.fps }

func (s *Scene) frameCount(d float64) int {
	n := int(math.Round(d * float64(s.fps)))
	if n < 1 {
		n = 1
	}
	return n
}

// Play runs anims together over runTime seconds using easing for progress.
func (s *Scene) Play(ctx context.Context, runTime float64, easing Easing, anims ...Animation) error {
	if runTime <= 0 {
		return fmt.Errorf("anim: run time must be positive, got %f", runTime)
	}
	if easing == nil {
		easing = Smooth
	}
	for _, a := range anims {
		a.Begin()
	}
	n := s.frameCount(runTime)
	for k := 1; k <= n; k++ {
		alpha := easing(float64(k) / float64(n))
		if k == n {
			alpha = 1
		}
		for _, a := range anims {
			a.Interpolate(alpha)
		}
		if err := s.advance(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Wait emits unchanged frames for d seconds.
func (s *Scene) Wait(ctx context.Context, d float64) error {
	if d <= 0 {
		return nil
	}
	n := s.frameCount(d)
	for k := 0; k < n; k++ {
		if err := s.advance(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scene) advance(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", pipeline.ErrCanceled, ctx.Err())
	default:
	}
	s.t += 1 / float64(s.fps)
	idx := s.frame
	s.frame++
	if err := s.hook(s.t, idx); err != nil {
		return &pipeline.FrameError{Frame: idx, Time: s.t, Wrapped: err}
	}
	return nil
}
