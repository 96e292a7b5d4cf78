package toolbox

import (
	"fmt"

	"github.com/dot5enko/coltoolbox/schema"
	"github.com/dot5enko/coltoolbox/store"
	"go.uber.org/multierr"
)

// TableData owns one typed column per column of the table whose element
// type could be resolved. Unresolved columns are reported and left out.
type TableData struct {
	*TableHandle

	typed      []Column
	unresolved []string

	stopOnError bool
}

func newTableData(table store.Table, opts options) *TableData {

	result := &TableData{
		TableHandle: newTableHandle(table, opts.logger),
		stopOnError: opts.stopOnError,
	}

	for _, handle := range result.columns {

		typ := resolveAndReport(opts.logger, table, handle.Name())

		col, buildErr := newTypedColumn(typ, handle.Name(), table)
		if buildErr != nil {
			if typ != schema.UnknownElementType {
				opts.logger.Warn("unable to build typed column", "table", table.Name(), "column", handle.Name(), "err", buildErr)
			}

			result.unresolved = append(result.unresolved, handle.Name())
			continue
		}

		result.typed = append(result.typed, col)
	}

	return result
}

func emptyTableData(opts options) *TableData {
	return &TableData{
		TableHandle: emptyTableHandle(opts.logger),
		stopOnError: opts.stopOnError,
	}
}

// TypedColumns returns the typed columns in discovery order.
func (t *TableData) TypedColumns() []Column {
	return append([]Column(nil), t.typed...)
}

// Unresolved lists the columns left out because their element type is not
// supported.
func (t *TableData) Unresolved() []string {
	return append([]string(nil), t.unresolved...)
}

// ColumnData looks a typed column up by name.
func (t *TableData) ColumnData(name string) (Column, error) {
	pos := positionByName(t.typed, name, Column.Name)
	if pos != -1 {
		return t.typed[pos], nil
	}

	t.log().Warn("found no typed column with name", "table", t.name, "column", name)
	return nil, fmt.Errorf("%w: typed column `%s` in table `%s`", ErrNotFound, name, t.name)
}

// ColumnDataAt returns the typed column at index, counted among typed
// columns only.
func (t *TableData) ColumnDataAt(index int) (Column, error) {
	if index >= 0 && index < len(t.typed) {
		return t.typed[index], nil
	}

	t.log().Warn("typed column index is out of range", "table", t.name, "index", index, "columns", len(t.typed))
	return nil, fmt.Errorf("%w: typed column %d of %d in table `%s`", ErrIndexOutOfRange, index, len(t.typed), t.name)
}

// Typed returns the column named name as *ColumnData[T]. Asking for the
// wrong element type fails with ErrTypeMismatch.
func Typed[T schema.Element](t *TableData, name string) (*ColumnData[T], error) {
	col, err := t.ColumnData(name)
	if err != nil {
		return nil, err
	}
	return asTyped[T](col)
}

// TypedAt is Typed by typed column index.
func TypedAt[T schema.Element](t *TableData, index int) (*ColumnData[T], error) {
	col, err := t.ColumnDataAt(index)
	if err != nil {
		return nil, err
	}
	return asTyped[T](col)
}

func asTyped[T schema.Element](col Column) (*ColumnData[T], error) {
	typed, ok := col.(*ColumnData[T])
	if !ok {
		return nil, fmt.Errorf("%w: column `%s` holds %s, requested %s", ErrTypeMismatch, col.Name(), col.Type(), schema.TypeOf[T]())
	}
	return typed, nil
}

// FetchEvent fetches row into every typed column. All columns are attempted
// and their failures combined, unless the table stops on the first error.
func (t *TableData) FetchEvent(row int) (topErr error) {

	for _, col := range t.typed {

		fetchErr := col.FetchRow(row)
		if fetchErr == nil {
			continue
		}

		t.log().Debug("fetch failed", "table", t.name, "column", col.Name(), "row", row, "err", fetchErr)

		if t.stopOnError {
			return fetchErr
		}

		topErr = multierr.Append(topErr, fetchErr)
	}

	return topErr
}
