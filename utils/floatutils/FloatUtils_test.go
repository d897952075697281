package floatutils

import (
	"math"
	"testing"
)

func TestClip(t *testing.T) {
	if got := Clip(5.0, -1.0, 1.0); got != 1.0 {
		t.Errorf("clip above max: want 1.0, got %v", got)
	}
	if got := Clip(-5.0, -1.0, 1.0); got != -1.0 {
		t.Errorf("clip below min: want -1.0, got %v", got)
	}
	if got := Clip(0.25, -1.0, 1.0); got != 0.25 {
		t.Errorf("clip within bounds: want 0.25, got %v", got)
	}
}

func TestWrap(t *testing.T) {
	if got := Wrap(3*math.Pi, -math.Pi, math.Pi); math.Abs(got-math.Pi) > 1e-12 && math.Abs(got+math.Pi) > 1e-12 {
		t.Errorf("wrap 3π into [-π, π): got %v", got)
	}
	if got := Wrap(0.5, -math.Pi, math.Pi); got != 0.5 {
		t.Errorf("wrap within bounds: want 0.5, got %v", got)
	}
}

func TestArgMaxBreaksTiesLow(t *testing.T) {
	if got := ArgMax([]float64{1.0, 3.0, 3.0, 2.0}); got != 1 {
		t.Errorf("argmax tie: want 1, got %v", got)
	}
	if got := ArgMax([]float64{-2.0, -1.0, -3.0}); got != 1 {
		t.Errorf("argmax negatives: want 1, got %v", got)
	}
}
