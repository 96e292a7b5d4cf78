package toolbox

import (
	"fmt"

	"github.com/dot5enko/coltoolbox/schema"
	"github.com/dot5enko/coltoolbox/store"
)

// RowSpan locates the elements one fetched row contributed to a column:
// Data()[Start:End]. Rows delivered empty have Start == End.
type RowSpan struct {
	Row   int
	Start int
	End   int
}

// Column is a typed column accumulator. It is implemented only by
// *ColumnData[T] for the supported element types, so the element type
// reported by Type always matches the payload.
type Column interface {
	Name() string
	Type() schema.ElementType
	Len() int
	Spans() []RowSpan
	FetchRow(row int) error

	sealed()
}

// ColumnData accumulates the values of one column fetched row by row. The
// sequence only grows: a fetch appends every element the store delivers for
// the row and failed fetches append nothing.
type ColumnData[T schema.Element] struct {
	handle   ColumnHandle
	binding  store.Binding
	rowCount int

	data  []T
	spans []RowSpan
}

func NewColumnData[T schema.Element](name string, table store.Table) (*ColumnData[T], error) {

	handle := NewColumnHandle(name, table)
	if !handle.IsBound() {
		return nil, fmt.Errorf("%w: column `%s`", ErrNotFound, name)
	}

	binding, bindErr := table.Bind(name, schema.TypeOf[T]())
	if bindErr != nil {
		return nil, fmt.Errorf("unable to bind column `%s` as %s: %w", name, schema.TypeOf[T](), bindErr)
	}

	return &ColumnData[T]{
		handle:   handle,
		binding:  binding,
		rowCount: table.RowCount(),
	}, nil
}

func (c *ColumnData[T]) sealed() {}

func (c *ColumnData[T]) Name() string {
	return c.handle.Name()
}

func (c *ColumnData[T]) Handle() ColumnHandle {
	return c.handle
}

func (c *ColumnData[T]) Type() schema.ElementType {
	return schema.TypeOf[T]()
}

func (c *ColumnData[T]) Len() int {
	return len(c.data)
}

// Data returns the accumulated values. The slice is capacity clipped so
// appending to it never writes into the column.
func (c *ColumnData[T]) Data() []T {
	return c.data[:len(c.data):len(c.data)]
}

func (c *ColumnData[T]) Spans() []RowSpan {
	return c.spans[:len(c.spans):len(c.spans)]
}

// Row returns the values contributed by the first successful fetch of row.
func (c *ColumnData[T]) Row(row int) ([]T, bool) {
	for _, span := range c.spans {
		if span.Row == row {
			return c.data[span.Start:span.End:span.End], true
		}
	}
	return nil, false
}

func (c *ColumnData[T]) FetchRow(row int) error {

	if row < 0 || row >= c.rowCount {
		return &FetchError{
			Table:  c.handle.TableName(),
			Column: c.Name(),
			Row:    row,
			Err:    fmt.Errorf("%w: table has %d rows", ErrIndexOutOfRange, c.rowCount),
		}
	}

	if fetchErr := c.binding.Fetch(row); fetchErr != nil {
		return &FetchError{
			Table:  c.handle.TableName(),
			Column: c.Name(),
			Row:    row,
			Err:    classifyStoreErr(fetchErr),
		}
	}

	values, typedOk := c.binding.Values().([]T)
	if !typedOk && c.binding.Values() != nil {
		return &FetchError{
			Table:  c.handle.TableName(),
			Column: c.Name(),
			Row:    row,
			Err:    fmt.Errorf("%w: store delivered %T for %s column", ErrDecode, c.binding.Values(), c.Type()),
		}
	}

	start := len(c.data)
	c.data = append(c.data, values...)
	c.spans = append(c.spans, RowSpan{Row: row, Start: start, End: len(c.data)})

	return nil
}

// Float64s widens the accumulated values of any typed column to float64,
// the input type of downstream numeric models.
func Float64s(col Column) []float64 {
	switch typed := col.(type) {
	case *ColumnData[float64]:
		return append([]float64(nil), typed.data...)
	case *ColumnData[int32]:
		return widen(typed.data)
	case *ColumnData[uint32]:
		return widen(typed.data)
	case *ColumnData[uint16]:
		return widen(typed.data)
	default:
		return nil
	}
}

func widen[T schema.Element](values []T) []float64 {
	result := make([]float64, len(values))
	for i, v := range values {
		result[i] = float64(v)
	}
	return result
}

// Bounds returns the min/max of the accumulated values as float64.
func Bounds(col Column) (schema.BoundsFloat, bool) {
	switch typed := col.(type) {
	case *ColumnData[float64]:
		return schema.GetMaxMinBoundsFloat(typed.data)
	case *ColumnData[int32]:
		return schema.GetMaxMinBoundsFloat(typed.data)
	case *ColumnData[uint32]:
		return schema.GetMaxMinBoundsFloat(typed.data)
	case *ColumnData[uint16]:
		return schema.GetMaxMinBoundsFloat(typed.data)
	default:
		return schema.BoundsFloat{}, false
	}
}

// newTypedColumn is the one place a resolved type tag becomes a concrete
// column type.
func newTypedColumn(typ schema.ElementType, name string, table store.Table) (Column, error) {
	switch typ {
	case schema.Float64ElementType:
		return buildColumn[float64](name, table)
	case schema.Int32ElementType:
		return buildColumn[int32](name, table)
	case schema.Uint32ElementType:
		return buildColumn[uint32](name, table)
	case schema.Uint16ElementType:
		return buildColumn[uint16](name, table)
	default:
		return nil, fmt.Errorf("%w: column `%s`", ErrUnresolvedType, name)
	}
}

func buildColumn[T schema.Element](name string, table store.Table) (Column, error) {
	col, err := NewColumnData[T](name, table)
	if err != nil {
		return nil, err
	}
	return col, nil
}
