package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	colors "gopkg.in/go-playground/colors.v1"
	"gopkg.in/yaml.v3"
)

const (
	DefaultStageWidth   = 2.0
	DefaultHSpacing     = 0.6
	DefaultMinThickness = 0.40
	DefaultMaxThickness = 1.60
	DefaultMinCap       = 10
	DefaultMaxCap       = 110
	DefaultOvershoot    = 1.8
	DefaultBoost        = 1.40
	DefaultVisualClamp  = 2.0
	DefaultMidpoint     = 0.6
	DefaultFPS          = 30
	DefaultSteps        = 3
	DefaultEndCardText  = "2-month Growth Plan Complete"
	DefaultPulseEasing  = "ease_out_cubic"
	DefaultSettleEasing = "ease_out_sine"

	// StageCount is the fixed number of pipeline stages.
	StageCount = 5
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds every tunable of a run. It is built once and passed by value.
type Config struct {
	Name    string        `yaml:"name" toml:"name"`
	Layout  LayoutConfig  `yaml:"layout" toml:"layout"`
	MinCap  int           `yaml:"min_cap" toml:"min_cap"`
	MaxCap  int           `yaml:"max_cap" toml:"max_cap"`
	Stages  []StageSpec   `yaml:"stages" toml:"stages"`
	Motion  MotionConfig  `yaml:"motion" toml:"motion"`
	Timing  TimingConfig  `yaml:"timing" toml:"timing"`
	Colors  ColorConfig   `yaml:"colors" toml:"colors"`
	FPS     int           `yaml:"fps" toml:"fps"`
	Steps   int           `yaml:"steps" toml:"steps"`
	EndCard EndCardConfig `yaml:"end_card" toml:"end_card"`
}

type LayoutConfig struct {
	StageWidth   float64 `yaml:"stage_width" toml:"stage_width"`
	HSpacing     float64 `yaml:"h_spacing" toml:"h_spacing"`
	MinThickness float64 `yaml:"min_thickness" toml:"min_thickness"`
	MaxThickness float64 `yaml:"max_thickness" toml:"max_thickness"`
	LabelGap     float64 `yaml:"label_gap" toml:"label_gap"`
	NumberGap    float64 `yaml:"number_gap" toml:"number_gap"`
}

type StageSpec struct {
	Key      string `yaml:"key" toml:"key"`
	Label    string `yaml:"label" toml:"label"`
	Capacity int    `yaml:"capacity" toml:"capacity"`
}

type MotionConfig struct {
	OvershootFactor     float64 `yaml:"overshoot_factor" toml:"overshoot_factor"`
	FinalThicknessBoost float64 `yaml:"final_thickness_boost" toml:"final_thickness_boost"`
	VisualClampFactor   float64 `yaml:"visual_clamp_factor" toml:"visual_clamp_factor"`
	MidpointFraction    float64 `yaml:"midpoint_fraction" toml:"midpoint_fraction"`
}

// TimingConfig durations are in seconds of animation time.
type TimingConfig struct {
	Intro     float64 `yaml:"intro" toml:"intro"`
	IntroLag  float64 `yaml:"intro_lag" toml:"intro_lag"`
	Recolor   float64 `yaml:"recolor" toml:"recolor"`
	Pulse     float64 `yaml:"pulse" toml:"pulse"`
	Settle    float64 `yaml:"settle" toml:"settle"`
	StepPause float64 `yaml:"step_pause" toml:"step_pause"`
	EndCard   float64 `yaml:"end_card" toml:"end_card"`
	EndHold   float64 `yaml:"end_hold" toml:"end_hold"`

	// Named easing curves of the grow transition.
	PulseEasing  string `yaml:"pulse_easing" toml:"pulse_easing"`
	SettleEasing string `yaml:"settle_easing" toml:"settle_easing"`
}

type ColorConfig struct {
	Neutral    string `yaml:"neutral" toml:"neutral"`
	Bottleneck string `yaml:"bottleneck" toml:"bottleneck"`
	Improved   string `yaml:"improved" toml:"improved"`
	Connector  string `yaml:"connector" toml:"connector"`
	Label      string `yaml:"label" toml:"label"`
	EndCard    string `yaml:"end_card" toml:"end_card"`
	Stroke     string `yaml:"stroke" toml:"stroke"`
	Background string `yaml:"background" toml:"background"`
}

type EndCardConfig struct {
	Text     string  `yaml:"text" toml:"text"`
	FontSize float64 `yaml:"font_size" toml:"font_size"`
}

func DefaultStages() []StageSpec {
	return []StageSpec{
		{Key: "leadGen", Label: "Marketing", Capacity: 60},
		{Key: "qualification", Label: "Sales", Capacity: 50},
		{Key: "onboarding", Label: "Onboarding", Capacity: 40},
		{Key: "delivery", Label: "Fulfillment", Capacity: 30},
		{Key: "retention", Label: "Retention", Capacity: 30},
	}
}

func Default() Config {
	return Config{
		Name: "default",
		Layout: LayoutConfig{
			StageWidth:   DefaultStageWidth,
			HSpacing:     DefaultHSpacing,
			MinThickness: DefaultMinThickness,
			MaxThickness: DefaultMaxThickness,
			LabelGap:     0.25,
			NumberGap:    0.18,
		},
		MinCap: DefaultMinCap,
		MaxCap: DefaultMaxCap,
		Stages: DefaultStages(),
		Motion: MotionConfig{
			OvershootFactor:     DefaultOvershoot,
			FinalThicknessBoost: DefaultBoost,
			VisualClampFactor:   DefaultVisualClamp,
			MidpointFraction:    DefaultMidpoint,
		},
		Timing: TimingConfig{
			Intro:     0.8,
			IntroLag:  0.07,
			Recolor:   0.35,
			Pulse:     0.45,
			Settle:    0.45,
			StepPause: 0.2,
			EndCard:   1.0,
			EndHold:   1.2,

			PulseEasing:  DefaultPulseEasing,
			SettleEasing: DefaultSettleEasing,
		},
		Colors: ColorConfig{
			Neutral:    "#BBBBBB",
			Bottleneck: "#FC6255",
			Improved:   "#83C167",
			Connector:  "#444444",
			Label:      "#DDDDDD",
			EndCard:    "#83C167",
			Stroke:     "#FFFFFF",
			Background: "#000000",
		},
		FPS:   DefaultFPS,
		Steps: DefaultSteps,
		EndCard: EndCardConfig{
			Text:     DefaultEndCardText,
			FontSize: 44,
		},
	}
}

// Load reads a YAML or TOML file on top of the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch format(path) {
	case "toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg Config) error {
	var (
		data []byte
		err  error
	)
	switch format(path) {
	case "toml":
		var sb strings.Builder
		err = toml.NewEncoder(&sb).Encode(cfg)
		data = []byte(sb.String())
	default:
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func format(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}

// Validate checks the bounds every other package relies on.
func (c Config) Validate() error {
	if len(c.Stages) != StageCount {
		return fmt.Errorf("%w: want %d stages, got %d", ErrInvalidConfig, StageCount, len(c.Stages))
	}
	if c.MinCap >= c.MaxCap {
		return fmt.Errorf("%w: min_cap %d must be below max_cap %d", ErrInvalidConfig, c.MinCap, c.MaxCap)
	}
	if c.Layout.MinThickness <= 0 || c.Layout.MinThickness >= c.Layout.MaxThickness {
		return fmt.Errorf("%w: thickness range [%g, %g]", ErrInvalidConfig, c.Layout.MinThickness, c.Layout.MaxThickness)
	}
	if c.Layout.StageWidth <= 0 {
		return fmt.Errorf("%w: stage_width must be positive", ErrInvalidConfig)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %d", ErrInvalidConfig, c.FPS)
	}
	if c.Steps < 1 {
		return fmt.Errorf("%w: steps must be at least 1", ErrInvalidConfig)
	}
	if err := c.Motion.validate(); err != nil {
		return err
	}
	if err := c.Timing.validate(); err != nil {
		return err
	}
	for _, s := range c.Stages {
		if s.Capacity < c.MinCap || s.Capacity > c.MaxCap {
			return fmt.Errorf("%w: stage %s capacity %d outside [%d, %d]", ErrInvalidConfig, s.Key, s.Capacity, c.MinCap, c.MaxCap)
		}
	}
	for name, hex := range c.Colors.named() {
		if _, err := colors.ParseHEX(hex); err != nil {
			return fmt.Errorf("%w: color %s %q: %v", ErrInvalidConfig, name, hex, err)
		}
	}
	return nil
}

func (m MotionConfig) validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"overshoot_factor", m.OvershootFactor},
		{"final_thickness_boost", m.FinalThicknessBoost},
		{"visual_clamp_factor", m.VisualClampFactor},
	} {
		if f.v <= 0 {
			return fmt.Errorf("%w: motion %s must be positive, got %g", ErrInvalidConfig, f.name, f.v)
		}
	}
	if m.MidpointFraction < 0 || m.MidpointFraction > 1 {
		return fmt.Errorf("%w: motion midpoint_fraction %g outside [0, 1]", ErrInvalidConfig, m.MidpointFraction)
	}
	return nil
}

// validate requires every animated phase to take time; pauses may be zero.
func (t TimingConfig) validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"intro", t.Intro},
		{"recolor", t.Recolor},
		{"pulse", t.Pulse},
		{"settle", t.Settle},
		{"end_card", t.EndCard},
	} {
		if f.v <= 0 {
			return fmt.Errorf("%w: timing %s must be positive, got %g", ErrInvalidConfig, f.name, f.v)
		}
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"intro_lag", t.IntroLag},
		{"step_pause", t.StepPause},
		{"end_hold", t.EndHold},
	} {
		if f.v < 0 {
			return fmt.Errorf("%w: timing %s must not be negative, got %g", ErrInvalidConfig, f.name, f.v)
		}
	}
	return nil
}

func (c ColorConfig) named() map[string]string {
	return map[string]string{
		"neutral":    c.Neutral,
		"bottleneck": c.Bottleneck,
		"improved":   c.Improved,
		"connector":  c.Connector,
		"label":      c.Label,
		"end_card":   c.EndCard,
		"stroke":     c.Stroke,
		"background": c.Background,
	}
}

// Capacities returns the starting capacity of every stage in order.
func (c Config) Capacities() []int {
	caps := make([]int, len(c.Stages))
	for i, s := range c.Stages {
		caps[i] = s.Capacity
	}
	return caps
}
