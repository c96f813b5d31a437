package anim

import (
	"math"
	"testing"
)

func TestEasingEndpoints(t *testing.T) {
	for name, e := range easings {
		if got := e(0); math.Abs(got) > 1e-9 {
			t.Errorf("%s(0) = %v, want 0", name, got)
		}
		if got := e(1); math.Abs(got-1) > 1e-9 {
			t.Errorf("%s(1) = %v, want 1", name, got)
		}
	}
}

func TestEasingMonotonic(t *testing.T) {
	for name, e := range easings {
		prev := e(0)
		for i := 1; i <= 100; i++ {
			v := e(float64(i) / 100)
			if v < prev-1e-12 {
				t.Errorf("%s not monotonic at %d", name, i)
				break
			}
			prev = v
		}
	}
}

func TestSmoothIsSymmetric(t *testing.T) {
	if got := Smooth(0.5); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Smooth(0.5) = %v, want 0.5", got)
	}
	if a, b := Smooth(0.2), 1-Smooth(0.8); math.Abs(a-b) > 1e-9 {
		t.Errorf("Smooth not symmetric: %v vs %v", a, b)
	}
}

func TestEaseOutFrontLoaded(t *testing.T) {
	if EaseOutCubic(0.5) <= 0.5 || EaseOutSine(0.5) <= 0.5 {
		t.Error("ease-out curves should be past halfway at t=0.5")
	}
}

func TestEasingByName(t *testing.T) {
	if EasingByName("smooth") == nil {
		t.Error("expected smooth")
	}
	if EasingByName("bounce") != nil {
		t.Error("expected nil for unknown curve")
	}
}
