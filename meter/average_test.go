package meter

import (
	"math"
	"testing"
)

func TestAverage_Fresh(t *testing.T) {
	var a Average
	if got := a.Value(); got != 0 {
		t.Errorf("Value() on fresh meter = %v, want 0", got)
	}
	if got := a.Count(); got != 0 {
		t.Errorf("Count() on fresh meter = %d, want 0", got)
	}
}

func TestAverage_Update(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		weights  []int
		expected float64
	}{
		{"single value", []float64{4}, []int{1}, 4},
		{"simple mean", []float64{1, 2, 3, 4}, []int{1, 1, 1, 1}, 2.5},
		{"weighted counts", []float64{10, 20}, []int{2, 3}, 6},
		{"negative values", []float64{-1, -3}, []int{1, 1}, -2},
		{"zero count keeps sum", []float64{5}, []int{0}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Average
			for i, v := range tt.values {
				a.Update(v, tt.weights[i])
			}
			if got := a.Value(); math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("Value() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAverage_AddAndReset(t *testing.T) {
	var a Average
	a.Add(3)
	a.Add(5)
	if got := a.Value(); got != 4 {
		t.Errorf("Value() = %v, want 4", got)
	}
	if got := a.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}

	a.Reset()
	if a.Value() != 0 || a.Count() != 0 {
		t.Errorf("after Reset() Value() = %v, Count() = %d, want 0, 0", a.Value(), a.Count())
	}
}
