// Package director plays the fixed optimization choreography: an intro
// fade-in, one highlight/pulse/settle sequence per step and an end card.
package director

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/pipeflow/internal/anim"
	"github.com/san-kum/pipeflow/internal/capacity"
	"github.com/san-kum/pipeflow/internal/config"
	"github.com/san-kum/pipeflow/internal/metrics"
	"github.com/san-kum/pipeflow/internal/pipeline"
	"github.com/san-kum/pipeflow/internal/render"
)

const (
	introShift = 0.25
	introScale = 0.98
	endShift   = 0.25
)

type Result struct {
	Decisions  []Decision
	Baseline   []int
	Final      []int
	Frames     int
	Duration   float64
	Times      []float64
	Capacities [][]float64
	Metrics    map[string]float64
}

type Director struct {
	cfg     config.Config
	model   capacity.Model
	pipe    *pipeline.Pipeline
	scene   *anim.Scene
	sinks   render.Multi
	metrics []metrics.Metric
	logger  *zap.Logger

	pulseEasing  anim.Easing
	settleEasing anim.Easing

	delta  int
	result *Result
}

type Option func(*Director)

func WithSinks(sinks ...render.Sink) Option {
	return func(d *Director) { d.sinks = append(d.sinks, sinks...) }
}

func WithMetrics(ms ...metrics.Metric) Option {
	return func(d *Director) { d.metrics = append(d.metrics, ms...) }
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Director) {
		if l != nil {
			d.logger = l
		}
	}
}

func New(cfg config.Config, opts ...Option) (*Director, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pipe, err := pipeline.New(cfg)
	if err != nil {
		return nil, err
	}
	pulse, err := easing(cfg.Timing.PulseEasing, config.DefaultPulseEasing)
	if err != nil {
		return nil, err
	}
	settle, err := easing(cfg.Timing.SettleEasing, config.DefaultSettleEasing)
	if err != nil {
		return nil, err
	}
	d := &Director{
		cfg:          cfg,
		model:        capacity.New(cfg),
		pipe:         pipe,
		logger:       zap.NewNop(),
		pulseEasing:  pulse,
		settleEasing: settle,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.scene = anim.NewScene(cfg.FPS, d.emit)
	return d, nil
}

// easing resolves a configured curve name; empty means fallback.
func easing(name, fallback string) (anim.Easing, error) {
	if name == "" {
		name = fallback
	}
	e := anim.EasingByName(name)
	if e == nil {
		return nil, fmt.Errorf("%w: unknown easing %q", config.ErrInvalidConfig, name)
	}
	return e, nil
}

// Pipeline exposes the live scene, mainly for inspection after Run.
func (d *Director) Pipeline() *pipeline.Pipeline { return d.pipe }

// Run plays the whole choreography. It must be called once.
func (d *Director) Run(ctx context.Context) (*Result, error) {
	if d.result != nil {
		return nil, fmt.Errorf("director: already run")
	}
	d.result = &Result{
		Baseline: d.pipe.Baseline(),
		Metrics:  make(map[string]float64),
	}
	for _, m := range d.metrics {
		m.Reset()
	}

	d.logger.Info("starting choreography",
		zap.String("config", d.cfg.Name),
		zap.Ints("baseline", d.result.Baseline),
		zap.Int("steps", d.cfg.Steps),
		zap.Int("fps", d.cfg.FPS),
	)

	if err := d.intro(ctx); err != nil {
		return d.result, d.finish(err)
	}
	for step := 1; step <= d.cfg.Steps; step++ {
		if err := d.runStep(ctx, step); err != nil {
			return d.result, d.finish(fmt.Errorf("step %d: %w", step, err))
		}
	}
	if err := d.endCard(ctx); err != nil {
		return d.result, d.finish(err)
	}
	return d.result, d.finish(nil)
}

func (d *Director) finish(runErr error) error {
	d.result.Final = d.pipe.Capacities()
	d.result.Frames = d.scene.Frames()
	d.result.Duration = d.scene.Time()
	for _, m := range d.metrics {
		d.result.Metrics[m.Name()] = m.Value()
	}
	closeErr := d.sinks.Close()
	if runErr != nil {
		d.logger.Error("choreography stopped", zap.Error(runErr), zap.Int("frames", d.result.Frames))
		return runErr
	}
	if closeErr != nil {
		return fmt.Errorf("close sinks: %w", closeErr)
	}
	d.logger.Info("choreography complete",
		zap.Ints("final", d.result.Final),
		zap.Int("frames", d.result.Frames),
		zap.Float64("duration", d.result.Duration),
	)
	return nil
}

// emit is the per-frame pass: rebuild geometry, then hand the frame on.
func (d *Director) emit(t float64, idx int) error {
	f := d.pipe.Snapshot(t, idx)
	for _, m := range d.metrics {
		m.Observe(f)
	}
	d.result.Times = append(d.result.Times, t)
	d.result.Capacities = append(d.result.Capacities, f.Capacities())
	return d.sinks.OnFrame(f)
}

func (d *Director) intro(ctx context.Context) error {
	fades := make([]anim.Animation, len(d.pipe.Stages))
	for i, s := range d.pipe.Stages {
		s.Opacity, s.OffsetY, s.Scale = 0, introShift, introScale
		fades[i] = anim.Eased(anim.Parallel(
			anim.Float(&s.Opacity, 1),
			anim.Float(&s.OffsetY, 0),
			anim.Float(&s.Scale, 1),
		), anim.Smooth)
	}
	t := d.cfg.Timing
	return d.scene.Play(ctx, t.Intro, anim.Linear, anim.Lagged(t.IntroLag, fades...))
}

func (d *Director) runStep(ctx context.Context, step int) error {
	d.pipe.Step = step
	caps := d.pipe.Capacities()
	dec := Decide(d.model, d.cfg.Motion, caps, d.pipe.Baseline(), step, d.delta)
	if step == 1 {
		d.delta = dec.Delta
	}
	d.result.Decisions = append(d.result.Decisions, dec)

	d.logger.Debug("step decided",
		zap.Int("step", step),
		zap.Ints("capacities", caps),
		zap.Int("bottleneck", dec.Bottleneck),
		zap.String("stage", d.pipe.Stages[dec.Bottleneck].Key),
		zap.Int("current", dec.Current),
		zap.Int("target", dec.Target),
		zap.Int("delta", dec.Delta),
	)

	d.pipe.Neutralize()
	t := d.cfg.Timing
	if err := d.colorize(ctx, dec.Bottleneck, pipeline.Bottleneck); err != nil {
		return err
	}

	stage := d.pipe.Stages[dec.Bottleneck]
	if err := d.scene.Play(ctx, t.Pulse, d.pulseEasing,
		anim.Float(&stage.Thickness, dec.OvershootThickness),
		anim.Float(&stage.Capacity, dec.Mid),
	); err != nil {
		return err
	}
	if err := d.scene.Play(ctx, t.Settle, d.settleEasing,
		anim.Float(&stage.Thickness, dec.FinalThickness),
		anim.Float(&stage.Capacity, float64(dec.Target)),
	); err != nil {
		return err
	}

	if err := d.colorize(ctx, dec.Bottleneck, pipeline.Improved); err != nil {
		return err
	}
	d.logger.Info("stage improved",
		zap.Int("step", step),
		zap.String("stage", stage.Key),
		zap.Int("from", dec.Current),
		zap.Int("to", dec.Target),
	)
	return d.scene.Wait(ctx, t.StepPause)
}

// colorize flags stage i and its connectors, animates them to the highlight
// color and then switches them to the shaded pipe fill.
func (d *Director) colorize(ctx context.Context, i int, h pipeline.Highlight) error {
	if err := d.pipe.Flag(i, h); err != nil {
		return err
	}
	color := d.pipe.Colors().For(h)
	stage := d.pipe.Stages[i]
	stage.Fill.Gradient = false
	anims := []anim.Animation{
		anim.Color(&stage.Fill.Color, color),
		anim.Float(&stage.Fill.Opacity, pipeline.StageOpacity),
	}
	conns := d.pipe.Adjacent(i)
	for _, c := range conns {
		c.Fill.Gradient = false
		anims = append(anims,
			anim.Color(&c.Fill.Color, color),
			anim.Float(&c.Fill.Opacity, pipeline.ConnectorOpacity),
		)
	}
	if err := d.scene.Play(ctx, d.cfg.Timing.Recolor, anim.Smooth, anims...); err != nil {
		return err
	}
	stage.Fill.Gradient = true
	for _, c := range conns {
		c.Fill.Gradient = true
	}
	return nil
}

func (d *Director) endCard(ctx context.Context) error {
	colors := d.pipe.Colors()
	card := d.pipe.AddOverlay(d.cfg.EndCard.Text, colors.EndCard, d.cfg.EndCard.FontSize)
	card.Opacity, card.OffsetY = 0, -endShift

	t := d.cfg.Timing
	if err := d.scene.Play(ctx, t.EndCard, anim.Smooth,
		anim.Float(&card.Opacity, 1),
		anim.Float(&card.OffsetY, 0),
	); err != nil {
		return err
	}
	return d.scene.Wait(ctx, t.EndHold)
}
