package config

import "sort"

// Preset overrides the motion and thickness tunables of a base config.
type Preset struct {
	Description         string
	OvershootFactor     float64
	FinalThicknessBoost float64
	MaxThickness        float64
}

var Presets = map[string]*Preset{
	"subtle": {
		Description:         "gentle pulse, small sustained widen",
		OvershootFactor:     1.4,
		FinalThicknessBoost: 1.10,
		MaxThickness:        1.30,
	},
	"bold": {
		Description:         "strong pulse, wide settle",
		OvershootFactor:     1.8,
		FinalThicknessBoost: 1.40,
		MaxThickness:        1.60,
	},
}

func GetPreset(name string) *Preset {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply returns a copy of cfg with the preset values set.
func (p *Preset) Apply(cfg Config) Config {
	cfg.Motion.OvershootFactor = p.OvershootFactor
	cfg.Motion.FinalThicknessBoost = p.FinalThicknessBoost
	cfg.Layout.MaxThickness = p.MaxThickness
	cfg.Stages = append([]StageSpec(nil), cfg.Stages...)
	return cfg
}
