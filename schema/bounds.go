package schema

import "golang.org/x/exp/constraints"

type NumericTypes interface {
	constraints.Integer | constraints.Float
}

type Bounds[T NumericTypes] struct {
	Min T
	Max T
}

func (b *Bounds[T]) Morph(other Bounds[T]) bool {

	changes := 0

	if other.Min < b.Min {
		b.Min = other.Min
		changes += 1
	}
	if other.Max > b.Max {
		b.Max = other.Max
		changes += 1
	}

	return changes != 0
}

// GetMaxMin returns the bounds of arr, ok is false for an empty input.
func GetMaxMin[T NumericTypes](arr []T) (result Bounds[T], ok bool) {

	if len(arr) == 0 {
		return result, false
	}

	result = Bounds[T]{
		Min: arr[0],
		Max: arr[0],
	}

	for _, v := range arr[1:] {
		if v < result.Min {
			result.Min = v
		}
		if v > result.Max {
			result.Max = v
		}
	}

	return result, true
}

type BoundsFloat = Bounds[float64]

func GetMaxMinBoundsFloat[T NumericTypes](arr []T) (BoundsFloat, bool) {
	typed, ok := GetMaxMin(arr)
	if !ok {
		return BoundsFloat{}, false
	}

	return BoundsFloat{
		Min: float64(typed.Min),
		Max: float64(typed.Max),
	}, true
}
