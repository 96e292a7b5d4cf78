package schema

import (
	"math/rand"
	"testing"
)

func BenchmarkMinMaxRand(b *testing.B) {

	size := 40000

	input := make([]uint32, size)

	for i := 0; i < size; i++ {
		input[i] = uint32(rand.Int63n(50000))
	}

	var result BoundsFloat

	for b.Loop() {
		result, _ = GetMaxMinBoundsFloat(input)
	}

	b.Logf("min : %.0f, max : %.0f", result.Min, result.Max)
}

func TestMinMaxFloat(t *testing.T) {

	minVal := -10.0
	maxVal := 7000.0

	input := []float64{minVal, maxVal, 1, 2, 3, 4, 5, 6, 0.0, 1000}

	result, ok := GetMaxMinBoundsFloat(input)

	if !ok {
		t.Fatalf("expected bounds for non empty input")
	}

	if result.Max != maxVal {
		t.Errorf("Expected %.2f but got %.2f", maxVal, result.Max)
	}

	if result.Min != minVal {
		t.Errorf("Expected %.2f but got %.2f", minVal, result.Min)
	}
}

func TestMinMaxEmpty(t *testing.T) {

	if _, ok := GetMaxMin([]uint16{}); ok {
		t.Errorf("expected no bounds for empty input")
	}
}

func TestBoundsMorph(t *testing.T) {

	bounds := Bounds[int32]{Min: -1, Max: 5}

	if bounds.Morph(Bounds[int32]{Min: 0, Max: 4}) {
		t.Errorf("inner bounds must not change the result")
	}

	if !bounds.Morph(Bounds[int32]{Min: -7, Max: 9}) {
		t.Errorf("outer bounds must change the result")
	}

	if bounds.Min != -7 || bounds.Max != 9 {
		t.Errorf("Expected [-7, 9] but got [%d, %d]", bounds.Min, bounds.Max)
	}
}
