package pipeline

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/pipeflow/internal/config"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(config.Default())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

func TestNewDerivesThickness(t *testing.T) {
	p := newTestPipeline(t)
	m := p.Model()
	for i, s := range p.Stages {
		if want := m.ThicknessFromCapacity(s.Capacity); s.Thickness != want {
			t.Errorf("stage %d thickness = %v, want %v", i, s.Thickness, want)
		}
	}
	if len(p.Connectors) != 4 {
		t.Errorf("expected 4 connectors, got %d", len(p.Connectors))
	}
}

func TestNewWrongStageCount(t *testing.T) {
	cfg := config.Default()
	cfg.Stages = cfg.Stages[:3]
	if _, err := New(cfg); !errors.Is(err, ErrStageCount) {
		t.Errorf("expected ErrStageCount, got %v", err)
	}
}

func TestBaselineIsSnapshot(t *testing.T) {
	p := newTestPipeline(t)
	b := p.Baseline()
	b[0] = 1
	p.Stages[3].Capacity = 51
	again := p.Baseline()
	want := []int{60, 50, 40, 30, 30}
	for i := range want {
		if again[i] != want[i] {
			t.Fatalf("baseline changed: %v", again)
		}
	}
}

func TestCapacitiesRound(t *testing.T) {
	p := newTestPipeline(t)
	p.Stages[3].Capacity = 42.6
	if got := p.Capacities()[3]; got != 43 {
		t.Errorf("expected 43, got %d", got)
	}
}

func TestLayoutIsCentered(t *testing.T) {
	p := newTestPipeline(t)
	first, last := p.Rect(0), p.Rect(4)
	if math.Abs(first.Left()+last.Right()) > 1e-9 {
		t.Errorf("pipeline not centered: left %v right %v", first.Left(), last.Right())
	}
	if got := p.Rect(1).Left() - first.Right(); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("expected spacing 0.6, got %v", got)
	}
}

func TestConnectorFollowsStages(t *testing.T) {
	p := newTestPipeline(t)
	p.Stages[3].Thickness = 2.5

	shape := p.ConnectorShape(2)
	l, r := p.Rect(2), p.Rect(3)
	if shape[0].X != l.Right() || shape[1].X != r.Left() {
		t.Errorf("connector x edges %v/%v, want %v/%v", shape[0].X, shape[1].X, l.Right(), r.Left())
	}
	if shape[1].Y != 1.25 || shape[2].Y != -1.25 {
		t.Errorf("connector right side %v..%v, want 1.25..-1.25", shape[1].Y, shape[2].Y)
	}
	if shape[0].Y != l.Top() || shape[3].Y != l.Bottom() {
		t.Error("connector left side does not match stage 2")
	}
}

func TestFlagAdjacentConnectors(t *testing.T) {
	p := newTestPipeline(t)
	p.Neutralize()

	if err := p.Flag(0, Bottleneck); err != nil {
		t.Fatal(err)
	}
	if p.Connectors[0].Highlight != Bottleneck || p.Connectors[1].Highlight != Neutral {
		t.Error("flagging stage 0 should only touch connector 0")
	}

	p.Neutralize()
	if err := p.Flag(2, Improved); err != nil {
		t.Fatal(err)
	}
	for i, want := range []Highlight{Neutral, Improved, Improved, Neutral} {
		if p.Connectors[i].Highlight != want {
			t.Errorf("connector %d = %v, want %v", i, p.Connectors[i].Highlight, want)
		}
	}

	if err := p.Flag(7, Improved); !errors.Is(err, ErrStageIndex) {
		t.Errorf("expected ErrStageIndex, got %v", err)
	}
}

func TestNeutralizeSetsGradientFill(t *testing.T) {
	p := newTestPipeline(t)
	p.Flag(4, Bottleneck)
	p.Neutralize()
	for i, s := range p.Stages {
		if s.Highlight != Neutral || !s.Fill.Gradient || s.Fill.Opacity != StageOpacity {
			t.Errorf("stage %d not neutral: %+v", i, s.Fill)
		}
		if s.Fill.Color != p.Colors().Neutral {
			t.Errorf("stage %d color %v", i, s.Fill.Color)
		}
	}
}

func TestSnapshot(t *testing.T) {
	p := newTestPipeline(t)
	p.AddOverlay("done", p.Colors().EndCard, 44)
	p.Step = 2
	f := p.Snapshot(1.5, 45)

	if f.Index != 45 || f.Time != 1.5 || f.Step != 2 {
		t.Errorf("unexpected frame header %+v", f)
	}
	if len(f.Stages) != 5 || len(f.Connectors) != 4 || len(f.Overlays) != 1 {
		t.Fatalf("unexpected frame shape")
	}
	vals := f.Values()
	for i, want := range []int{60, 50, 40, 30, 30} {
		if vals[i] != want {
			t.Errorf("stage %d value %d, want %d", i, vals[i], want)
		}
	}
	if f.Stages[0].Number.Content != "60" {
		t.Errorf("number label %q", f.Stages[0].Number.Content)
	}
	if f.Stages[0].Number.Pos.Y <= f.Stages[0].Rect.Top() {
		t.Error("number should sit above the stage")
	}
	if f.Stages[0].Label.Pos.Y >= f.Stages[0].Rect.Bottom() {
		t.Error("label should sit below the stage")
	}
}
