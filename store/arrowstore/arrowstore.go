// Package arrowstore reads and writes datasets kept as a directory of Arrow
// IPC files, one file per table.
package arrowstore

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/dot5enko/coltoolbox/schema"
)

const (
	TableMetadataKey = "table"

	fileExtension = ".arrow"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

func tableFileName(dir string, index int, table string) string {
	return filepath.Join(dir, fmt.Sprintf("%04d-%s%s", index, unsafeFileChars.ReplaceAllString(table, "_"), fileExtension))
}

func arrowType(typ schema.ElementType) (arrow.DataType, error) {
	switch typ {
	case schema.Float64ElementType:
		return arrow.PrimitiveTypes.Float64, nil
	case schema.Int32ElementType:
		return arrow.PrimitiveTypes.Int32, nil
	case schema.Uint32ElementType:
		return arrow.PrimitiveTypes.Uint32, nil
	case schema.Uint16ElementType:
		return arrow.PrimitiveTypes.Uint16, nil
	default:
		return nil, fmt.Errorf("element type %s has no arrow equivalent", typ)
	}
}

// elementType maps a column type, plain or list, to the element type it
// holds. ok is false for anything outside the supported set.
func elementType(dt arrow.DataType) (typ schema.ElementType, isList bool, ok bool) {

	if list, listOk := dt.(*arrow.ListType); listOk {
		dt = list.Elem()
		isList = true
	}

	switch dt.ID() {
	case arrow.FLOAT64:
		typ = schema.Float64ElementType
	case arrow.INT32:
		typ = schema.Int32ElementType
	case arrow.UINT32:
		typ = schema.Uint32ElementType
	case arrow.UINT16:
		typ = schema.Uint16ElementType
	default:
		return schema.UnknownElementType, isList, false
	}

	return typ, isList, true
}

func primitiveValues[T schema.Element](arr arrow.Array) ([]T, bool) {

	var values any

	switch typed := arr.(type) {
	case *array.Float64:
		values = typed.Float64Values()
	case *array.Int32:
		values = typed.Int32Values()
	case *array.Uint32:
		values = typed.Uint32Values()
	case *array.Uint16:
		values = typed.Uint16Values()
	}

	result, ok := values.([]T)
	return result, ok
}
