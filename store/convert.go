package store

import (
	"fmt"
	"reflect"

	"github.com/dot5enko/coltoolbox/schema"
)

// AppendConverted appends src to dst, converting numerically from any
// supported element slice type.
func AppendConverted[T schema.Element](dst []T, src any) ([]T, error) {

	switch typed := src.(type) {
	case nil:
		return dst, nil
	case []T:
		return append(dst, typed...), nil
	case []float64:
		return appendNumeric(dst, typed), nil
	case []int32:
		return appendNumeric(dst, typed), nil
	case []uint32:
		return appendNumeric(dst, typed), nil
	case []uint16:
		return appendNumeric(dst, typed), nil
	default:
		return dst, fmt.Errorf("invalid row type %s expected %s", reflect.TypeOf(src), reflect.TypeOf(dst))
	}
}

func appendNumeric[T, S schema.Element](dst []T, src []S) []T {
	for _, v := range src {
		dst = append(dst, T(v))
	}
	return dst
}

// SliceLen returns the length of a supported element slice and whether its
// element type matches typ.
func SliceLen(values any, typ schema.ElementType) (int, bool) {
	switch typed := values.(type) {
	case nil:
		return 0, true
	case []float64:
		return len(typed), typ == schema.Float64ElementType
	case []int32:
		return len(typed), typ == schema.Int32ElementType
	case []uint32:
		return len(typed), typ == schema.Uint32ElementType
	case []uint16:
		return len(typed), typ == schema.Uint16ElementType
	default:
		return 0, false
	}
}
