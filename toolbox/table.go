package toolbox

import (
	"fmt"
	"log/slog"

	"github.com/dot5enko/coltoolbox/store"
)

// TableHandle describes a table: its name, row count and columns in store
// discovery order. The zero value is the empty table returned by failed
// lookups.
type TableHandle struct {
	name     string
	table    store.Table
	rowCount int
	columns  []ColumnHandle

	logger *slog.Logger
}

func newTableHandle(table store.Table, logger *slog.Logger) *TableHandle {

	handle := &TableHandle{
		name:     table.Name(),
		table:    table,
		rowCount: table.RowCount(),
		logger:   logger,
	}

	for _, name := range table.Columns() {
		handle.columns = append(handle.columns, NewColumnHandle(name, table))
	}

	return handle
}

func emptyTableHandle(logger *slog.Logger) *TableHandle {
	return &TableHandle{logger: logger}
}

func (t *TableHandle) log() *slog.Logger {
	if t.logger == nil {
		return slog.Default()
	}
	return t.logger
}

func (t *TableHandle) Name() string {
	return t.name
}

func (t *TableHandle) RowCount() int {
	return t.rowCount
}

func (t *TableHandle) NumColumns() int {
	return len(t.columns)
}

// Columns returns a copy of the column handles.
func (t *TableHandle) Columns() []ColumnHandle {
	return append([]ColumnHandle(nil), t.columns...)
}

// IsEmpty reports whether this is the placeholder returned by a failed lookup.
func (t *TableHandle) IsEmpty() bool {
	return t.table == nil
}

// Column looks a column up by name. A miss returns the absent handle and
// ErrNotFound.
func (t *TableHandle) Column(name string) (ColumnHandle, error) {
	pos := positionByName(t.columns, name, ColumnHandle.Name)
	if pos != -1 {
		return t.columns[pos], nil
	}

	t.log().Warn("found no column with name, returning empty column", "table", t.name, "column", name)
	return ColumnHandle{}, fmt.Errorf("%w: column `%s` in table `%s`", ErrNotFound, name, t.name)
}

// ColumnAt returns the column at discovery index. Out of range returns the
// absent handle and ErrIndexOutOfRange.
func (t *TableHandle) ColumnAt(index int) (ColumnHandle, error) {
	if index >= 0 && index < len(t.columns) {
		return t.columns[index], nil
	}

	t.log().Warn("column index is out of range, returning empty column", "table", t.name, "index", index, "columns", len(t.columns))
	return ColumnHandle{}, fmt.Errorf("%w: column %d of %d in table `%s`", ErrIndexOutOfRange, index, len(t.columns), t.name)
}

func positionByName[O any](objects []O, name string, nameOf func(O) string) int {
	for i, object := range objects {
		if nameOf(object) == name {
			return i
		}
	}
	return -1
}
