package domain

import (
	"math"
	"testing"
)

func TestAdaptiveThreshold(t *testing.T) {
	t.Run("empty candidates returns minimum", func(t *testing.T) {
		if got := AdaptiveThreshold(nil, 0.3); got != 0.3 {
			t.Errorf("expected 0.3, got %v", got)
		}
	})

	t.Run("reference distribution", func(t *testing.T) {
		scores := []float64{0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.35, 0.3, 0.25, 0.2, 0.15, 0.1}
		got := AdaptiveThreshold(scores, 0.3)
		if got < 0.3 || got > 0.7 {
			t.Errorf("expected threshold in [0.3, 0.7], got %v", got)
		}
		if got != 0.5 {
			t.Errorf("expected rank-5 score 0.5, got %v", got)
		}
	})

	t.Run("unsorted input", func(t *testing.T) {
		scores := []float64{0.1, 0.9, 0.5, 0.7, 0.6, 0.8}
		if got := AdaptiveThreshold(scores, 0.3); got != 0.5 {
			t.Errorf("expected 0.5, got %v", got)
		}
	})

	t.Run("fewer candidates than target", func(t *testing.T) {
		scores := []float64{0.92, 0.81, 0.77}
		if got := AdaptiveThreshold(scores, 0.3); got != 0.77 {
			t.Errorf("expected lowest score 0.77, got %v", got)
		}
	})

	t.Run("large candidate set caps target at eight", func(t *testing.T) {
		scores := make([]float64, 100)
		for i := range scores {
			scores[i] = 0.99 - float64(i)*0.005
		}
		// rank 8 -> 0.99 - 7*0.005 = 0.955 -> floored 0.95
		if got := AdaptiveThreshold(scores, 0.3); got != 0.95 {
			t.Errorf("expected 0.95, got %v", got)
		}
	})

	t.Run("mid size set uses n over ten", func(t *testing.T) {
		scores := make([]float64, 60)
		for i := range scores {
			scores[i] = 0.9 - float64(i)*0.01
		}
		// target 6 -> 0.9 - 0.05 = 0.85
		if got := AdaptiveThreshold(scores, 0.3); got != 0.85 {
			t.Errorf("expected 0.85, got %v", got)
		}
	})

	t.Run("clamped to minimum", func(t *testing.T) {
		scores := []float64{0.25, 0.2, 0.15, 0.1, 0.05}
		if got := AdaptiveThreshold(scores, 0.3); got != 0.3 {
			t.Errorf("expected clamp to 0.3, got %v", got)
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		scores := []float64{0.1, 0.9, 0.5}
		AdaptiveThreshold(scores, 0.3)
		if scores[0] != 0.1 || scores[1] != 0.9 {
			t.Error("input slice was reordered")
		}
	})
}

func TestFloorScore(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.759, 0.75},
		{0.7, 0.7},
		{float64(float32(0.7)), 0.7},
		{0.3, 0.3},
		{0.0, 0.0},
		{1.0, 1.0},
		{0.994, 0.99},
	}

	for _, tt := range tests {
		if got := FloorScore(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("FloorScore(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLowerCutoff(t *testing.T) {
	if got := LowerCutoff(0.5, 0.1); got != 0.4 {
		t.Errorf("expected 0.4, got %v", got)
	}
	if got := LowerCutoff(0.3, 0.1); got != 0.2 {
		t.Errorf("expected 0.2, got %v", got)
	}
	if got := LowerCutoff(0.05, 0.1); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}
