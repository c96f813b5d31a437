// Package automation runs batches of choreographies: scripted scenario
// variants, parameter sweeps and randomized capacity trials.
package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pipeflow/internal/capacity"
	"github.com/san-kum/pipeflow/internal/config"
	"github.com/san-kum/pipeflow/internal/director"
	"github.com/san-kum/pipeflow/internal/metrics"
	"github.com/san-kum/pipeflow/internal/render"
)

// Scenario is a named list of variants loaded from YAML.
type Scenario struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Variants    []Variant `yaml:"variants"`

	dir string
}

// Variant is one run: an optional config file, an optional preset and
// inline overrides, applied in that order.
type Variant struct {
	Name       string  `yaml:"name"`
	Config     string  `yaml:"config"`
	Preset     string  `yaml:"preset"`
	FPS        int     `yaml:"fps"`
	Steps      int     `yaml:"steps"`
	Capacities []int   `yaml:"capacities"`
	Overshoot  float64 `yaml:"overshoot"`
	Boost      float64 `yaml:"boost"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if len(scenario.Variants) == 0 {
		return nil, fmt.Errorf("scenario %s has no variants", path)
	}
	scenario.dir = filepath.Dir(path)
	return &scenario, nil
}

// Resolve builds the variant's config on top of base.
func (v Variant) Resolve(base config.Config, dir string) (config.Config, error) {
	cfg := base
	if v.Config != "" {
		path := v.Config
		if !filepath.IsAbs(path) && dir != "" {
			path = filepath.Join(dir, path)
		}
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if v.Preset != "" {
		p := config.GetPreset(v.Preset)
		if p == nil {
			return config.Config{}, fmt.Errorf("unknown preset %q", v.Preset)
		}
		cfg = p.Apply(cfg)
	}
	if v.Name != "" {
		cfg.Name = v.Name
	}
	if v.FPS > 0 {
		cfg.FPS = v.FPS
	}
	if v.Steps > 0 {
		cfg.Steps = v.Steps
	}
	if v.Overshoot > 0 {
		cfg.Motion.OvershootFactor = v.Overshoot
	}
	if v.Boost > 0 {
		cfg.Motion.FinalThicknessBoost = v.Boost
	}
	if len(v.Capacities) > 0 {
		if len(v.Capacities) != len(cfg.Stages) {
			return config.Config{}, fmt.Errorf("%w: %d capacities for %d stages",
				config.ErrInvalidConfig, len(v.Capacities), len(cfg.Stages))
		}
		stages := append([]config.StageSpec(nil), cfg.Stages...)
		for i, c := range v.Capacities {
			stages[i].Capacity = c
		}
		cfg.Stages = stages
	}
	return cfg, cfg.Validate()
}

// VariantResult pairs a variant with the config it ran and its result.
type VariantResult struct {
	Name   string
	Config config.Config
	Result *director.Result
}

// Runner plays scenario variants, at most Workers at a time.
type Runner struct {
	Base    config.Config
	Logger  *zap.Logger
	Workers int
	// Sinks builds the sinks for one variant. Nil runs without output.
	Sinks func(name string, cfg config.Config) ([]render.Sink, error)
}

func (r *Runner) Run(ctx context.Context, s *Scenario) ([]VariantResult, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}

	names := make([]string, len(s.Variants))
	cfgs := make([]config.Config, len(s.Variants))
	for i, v := range s.Variants {
		names[i] = v.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("variant%d", i+1)
		}
		cfg, err := v.Resolve(r.Base, s.dir)
		if err != nil {
			return nil, fmt.Errorf("variant %s: %w", names[i], err)
		}
		cfgs[i] = cfg
	}

	results := make([]VariantResult, len(s.Variants))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range s.Variants {
		name, cfg := names[i], cfgs[i]
		g.Go(func() error {
			var sinks []render.Sink
			if r.Sinks != nil {
				var err error
				if sinks, err = r.Sinks(name, cfg); err != nil {
					return fmt.Errorf("variant %s: %w", name, err)
				}
			}
			d, err := director.New(cfg,
				director.WithSinks(sinks...),
				director.WithMetrics(metrics.Defaults()...),
				director.WithLogger(logger.With(zap.String("variant", name))),
			)
			if err != nil {
				return fmt.Errorf("variant %s: %w", name, err)
			}
			res, err := d.Run(ctx)
			if err != nil {
				return fmt.Errorf("variant %s: %w", name, err)
			}
			results[i] = VariantResult{Name: name, Config: cfg, Result: res}
			logger.Info("variant complete",
				zap.String("variant", name),
				zap.Ints("final", res.Final),
				zap.Int("frames", res.Frames),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunScenario plays every variant sequentially without sinks.
func RunScenario(ctx context.Context, s *Scenario, base config.Config, logger *zap.Logger) ([]VariantResult, error) {
	r := &Runner{Base: base, Logger: logger, Workers: 1}
	return r.Run(ctx, s)
}

// FinalCapacities applies planned decisions to the starting capacities.
func FinalCapacities(cfg config.Config, decisions []director.Decision) []int {
	caps := cfg.Capacities()
	for _, d := range decisions {
		if d.Bottleneck < len(caps) {
			caps[d.Bottleneck] = d.Target
		}
	}
	return caps
}

// Sweep varies one motion parameter over [Min, Max] in NumSteps values.
type Sweep struct {
	Param    string
	Min, Max float64
	NumSteps int
}

type SweepResult struct {
	Value           float64
	Decisions       []director.Decision
	FinalThroughput int
	PeakOvershoot   float64
}

var sweepParams = map[string]func(*config.Config, float64){
	"overshoot":     func(c *config.Config, v float64) { c.Motion.OvershootFactor = v },
	"boost":         func(c *config.Config, v float64) { c.Motion.FinalThicknessBoost = v },
	"midpoint":      func(c *config.Config, v float64) { c.Motion.MidpointFraction = v },
	"max_thickness": func(c *config.Config, v float64) { c.Layout.MaxThickness = v },
	"clamp":         func(c *config.Config, v float64) { c.Motion.VisualClampFactor = v },
}

// RunSweep plans every value of the sweep without rendering.
func RunSweep(base config.Config, sw Sweep) ([]SweepResult, error) {
	set, ok := sweepParams[sw.Param]
	if !ok {
		return nil, fmt.Errorf("unknown sweep parameter %q", sw.Param)
	}
	if sw.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step")
	}

	step := 0.0
	if sw.NumSteps > 1 {
		step = (sw.Max - sw.Min) / float64(sw.NumSteps-1)
	}

	results := make([]SweepResult, 0, sw.NumSteps)
	for i := 0; i < sw.NumSteps; i++ {
		v := sw.Min + float64(i)*step
		cfg := base
		set(&cfg, v)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sw.Param, v, err)
		}

		decs := director.Plan(cfg)
		peak := 0.0
		for _, d := range decs {
			peak = max(peak, d.OvershootThickness)
		}
		results = append(results, SweepResult{
			Value:           v,
			Decisions:       decs,
			FinalThroughput: capacity.Throughput(FinalCapacities(cfg, decs)),
			PeakOvershoot:   peak,
		})
	}
	return results, nil
}

// MonteCarloConfig perturbs every starting capacity by up to ±Perturbation.
type MonteCarloConfig struct {
	Perturbation int
	NumTrials    int
	Seed         int64
}

type MonteCarloResult struct {
	Trial   int
	Initial []int
	Final   []int
	Gain    int
}

// RunMonteCarlo plans NumTrials randomized starting pipelines.
func RunMonteCarlo(base config.Config, mc MonteCarloConfig) ([]MonteCarloResult, error) {
	if mc.NumTrials < 1 {
		return nil, fmt.Errorf("monte carlo needs at least one trial, got %d", mc.NumTrials)
	}
	if mc.Perturbation < 0 {
		return nil, fmt.Errorf("perturbation must not be negative, got %d", mc.Perturbation)
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	m := capacity.New(base)

	results := make([]MonteCarloResult, 0, mc.NumTrials)
	for trial := 0; trial < mc.NumTrials; trial++ {
		cfg := base
		cfg.Stages = append([]config.StageSpec(nil), base.Stages...)
		for i := range cfg.Stages {
			jitter := 0
			if mc.Perturbation > 0 {
				jitter = rng.Intn(2*mc.Perturbation+1) - mc.Perturbation
			}
			cfg.Stages[i].Capacity = int(m.Clamp(float64(cfg.Stages[i].Capacity + jitter)))
		}

		initial := cfg.Capacities()
		final := FinalCapacities(cfg, director.Plan(cfg))
		results = append(results, MonteCarloResult{
			Trial:   trial,
			Initial: initial,
			Final:   final,
			Gain:    capacity.Throughput(final) - capacity.Throughput(initial),
		})
	}
	return results, nil
}

// MonteCarloStats counts trials whose throughput rose versus stayed flat.
func MonteCarloStats(results []MonteCarloResult) (improved int, flat int) {
	for _, r := range results {
		if r.Gain > 0 {
			improved++
		} else {
			flat++
		}
	}
	return
}
