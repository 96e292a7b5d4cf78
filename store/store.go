// Package store defines what the typed column layer needs from a dataset
// backend: table and column discovery, typed address binding and per-row
// materialization into a scratch buffer owned by the binding.
package store

import (
	"errors"

	"github.com/dot5enko/coltoolbox/schema"
)

var (
	ErrOpen       = errors.New("unable to open dataset")
	ErrNotFound   = errors.New("not found")
	ErrBind       = errors.New("column is not bindable as requested type")
	ErrRowMissing = errors.New("row does not exist")
	ErrDecode     = errors.New("row decode failed")
	ErrClosed     = errors.New("dataset is closed")
)

// Opener opens the dataset at path.
type Opener func(path string) (Dataset, error)

type Dataset interface {
	Path() string

	// Tables lists table names in store order. Names may repeat.
	Tables() ([]string, error)

	// Table returns the first table named name.
	Table(name string) (Table, error)

	Close() error
}

type Table interface {
	Name() string
	RowCount() int

	// Columns lists column names in store order.
	Columns() []string
	HasColumn(name string) bool

	// Bind attaches a typed scratch buffer to the column. A column whose
	// storage can not be read as typ fails with ErrBind.
	Bind(column string, typ schema.ElementType) (Binding, error)
}

type Binding interface {
	Column() string
	Type() schema.ElementType

	// Fetch materializes row into the scratch buffer. Failures wrap
	// ErrRowMissing or ErrDecode and leave the buffer empty.
	Fetch(row int) error

	// Values returns the scratch buffer as []T of the bound type. The slice
	// is reused by the next Fetch. A nil or empty slice means no value.
	Values() any
}

type ColumnSpec struct {
	Name string
	Type schema.ElementType
}

type DatasetWriter interface {
	AddTable(name string, columns []ColumnSpec) (TableWriter, error)
	Close() error
}

type TableWriter interface {
	// WriteRow appends one row. values holds one []T per column in
	// declaration order, nil means an empty row for that column.
	WriteRow(values ...any) error

	// WriteMissing appends a row that reads back as ErrRowMissing.
	WriteMissing() error
}
