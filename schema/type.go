package schema

import (
	"fmt"
	"strings"
)

type ElementType uint8

const (
	UnknownElementType ElementType = iota

	Float64ElementType
	Int32ElementType
	Uint32ElementType
	Uint16ElementType
)

// ProbeOrder is the order in which a column's storage is tried against the
// supported element types. The first type the store accepts wins, so for
// encodings bindable as more than one type this order decides the result.
var ProbeOrder = [...]ElementType{
	Float64ElementType,
	Int32ElementType,
	Uint32ElementType,
	Uint16ElementType,
}

// Element is the closed set of Go types a typed column can hold.
type Element interface {
	float64 | int32 | uint32 | uint16
}

func (f ElementType) String() string {
	switch f {
	case Float64ElementType:
		return "Float64"
	case Int32ElementType:
		return "Int32"
	case Uint32ElementType:
		return "Uint32"
	case Uint16ElementType:
		return "Uint16"
	default:
		return "Unknown"
	}
}

func (f ElementType) Size() int {
	switch f {
	case Uint16ElementType:
		return 2
	case Int32ElementType, Uint32ElementType:
		return 4
	case Float64ElementType:
		return 8
	default:
		return 0
	}
}

func (f ElementType) Known() bool {
	return f.Size() != 0
}

func ParseElementType(name string) (ElementType, error) {
	for _, typ := range ProbeOrder {
		if strings.EqualFold(typ.String(), name) {
			return typ, nil
		}
	}

	return UnknownElementType, fmt.Errorf("unsupported element type `%s`", name)
}

func (f ElementType) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *ElementType) UnmarshalText(text []byte) error {
	typ, err := ParseElementType(string(text))
	if err != nil {
		return err
	}

	*f = typ
	return nil
}

// TypeOf returns the element type tag of T.
func TypeOf[T Element]() ElementType {
	var sample T

	switch any(sample).(type) {
	case float64:
		return Float64ElementType
	case int32:
		return Int32ElementType
	case uint32:
		return Uint32ElementType
	case uint16:
		return Uint16ElementType
	default:
		return UnknownElementType
	}
}
